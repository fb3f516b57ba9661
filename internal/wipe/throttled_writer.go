package wipe

import (
	"context"
	"io"
	"sync"

	"golang.org/x/time/rate"
)

// syncWriter is the part of a file handle the overwriter writes through.
type syncWriter interface {
	io.Writer
	Sync() error
}

// ThrottledWriter caps the write rate of a file handle (thread-safe).
// A zero or negative speed disables throttling.
type ThrottledWriter struct {
	file    syncWriter
	limiter *rate.Limiter
	burst   int
	mu      sync.Mutex
	closed  bool
}

// NewThrottledWriter wraps file. burst is the largest single wait unit, usually the chunk size.
func NewThrottledWriter(file syncWriter, maxSpeedMBps float64, burst int) *ThrottledWriter {
	tw := &ThrottledWriter{file: file, burst: burst}
	if maxSpeedMBps > 0 && burst > 0 {
		bytesPerSec := maxSpeedMBps * 1024 * 1024
		tw.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), burst)
	}
	return tw
}

// Write writes all of data, waiting on the limiter in burst-sized steps.
func (tw *ThrottledWriter) Write(data []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return 0, io.ErrClosedPipe
	}

	written := 0
	for written < len(data) {
		end := len(data)
		if tw.limiter != nil && end-written > tw.burst {
			end = written + tw.burst
		}
		if tw.limiter != nil {
			// a pass is never interrupted half way, so no caller context here
			if err := tw.limiter.WaitN(context.Background(), end-written); err != nil {
				return written, err
			}
		}
		n, err := tw.file.Write(data[written:end])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// Sync forces written data to stable storage.
func (tw *ThrottledWriter) Sync() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return io.ErrClosedPipe
	}

	return tw.file.Sync()
}

// Close detaches the writer. The underlying handle is closed by its owner.
func (tw *ThrottledWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.closed = true
	return nil
}
