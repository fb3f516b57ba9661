package wipe

import (
	"crypto/rand"
	"sync"

	"github.com/cockroachdb/errors"
)

// BufferPool hands out write buffers grouped by size class.
type BufferPool struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex
}

var globalBufferPool = &BufferPool{
	pools: make(map[int]*sync.Pool),
}

// GetBuffer returns a buffer of exactly size bytes.
func GetBuffer(size int) []byte {
	if size <= 0 {
		return nil
	}

	return globalBufferPool.getBuffer(size)
}

// PutBuffer zeroes buf and returns it to the pool.
func PutBuffer(buf []byte) {
	if cap(buf) == 0 {
		return
	}

	globalBufferPool.putBuffer(buf)
}

func (bp *BufferPool) getBuffer(size int) []byte {
	poolSize := bp.getPoolSize(size)

	bp.mu.RLock()
	pool, exists := bp.pools[poolSize]
	bp.mu.RUnlock()

	if !exists {
		bp.mu.Lock()
		// Double-check
		pool, exists = bp.pools[poolSize]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return make([]byte, poolSize)
				},
			}
			bp.pools[poolSize] = pool
		}
		bp.mu.Unlock()
	}

	buf := pool.Get().([]byte)
	return buf[:size]
}

func (bp *BufferPool) putBuffer(buf []byte) {
	capacity := cap(buf)
	poolSize := bp.getPoolSize(capacity)

	bp.mu.RLock()
	pool, exists := bp.pools[poolSize]
	bp.mu.RUnlock()

	if exists && poolSize == capacity {
		// pooled buffers may have held file patterns
		full := buf[:capacity]
		clear(full)
		pool.Put(full)
	}
}

// getPoolSize rounds size up to its size class.
func (bp *BufferPool) getPoolSize(size int) int {
	sizes := []int{1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216}

	for _, poolSize := range sizes {
		if size <= poolSize {
			return poolSize
		}
	}

	return ((size + 4095) / 4096) * 4096
}

// FillBufferPattern fills buf with a constant byte.
func FillBufferPattern(buf []byte, pattern byte) {
	for i := range buf {
		buf[i] = pattern
	}
}

// FillRandom fills buf from the system CSPRNG.
func FillRandom(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if _, err := rand.Read(buf); err != nil {
		return errors.Wrap(err, "generate random data")
	}
	return nil
}
