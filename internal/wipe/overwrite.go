package wipe

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"

	"datadestroyer/internal/logging"
)

const DefaultChunkSize = 4 * 1024 * 1024

// Overwriter rewrites a file's existing byte range once per pass.
type Overwriter struct {
	storage      Storage
	chunkSize    int
	maxSpeedMBps float64
	logger       *logging.Logger
}

func NewOverwriter(storage Storage, chunkSize int, maxSpeedMBps float64, logger *logging.Logger) *Overwriter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Overwriter{
		storage:      storage,
		chunkSize:    chunkSize,
		maxSpeedMBps: maxSpeedMBps,
		logger:       logger.Named("overwrite"),
	}
}

// Overwrite runs every pass of mode over [0, size). Each pass emits Progress,
// seeks to 0, writes exactly size bytes and syncs before the next pass starts.
// ctx is only consulted between passes.
func (o *Overwriter) Overwrite(ctx context.Context, fileIndex int, path string, size int64, mode Mode, passes int, sink Sink) error {
	if err := checkPasses(mode, passes); err != nil {
		return stepError(StepOverwrite, path, err)
	}
	patterns := PassPatterns(mode, passes)
	total := len(patterns)

	f, err := o.storage.Fs.OpenFile(path, overwriteFlags, 0)
	if err != nil {
		return o.fail(path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			o.logger.Log("WARN", "Error closing file", "path", path, "error", cerr.Error())
		}
	}()

	bufSize := o.chunkSize
	if size < int64(bufSize) {
		bufSize = int(size)
	}
	buf := GetBuffer(bufSize)
	defer PutBuffer(buf)

	tw := NewThrottledWriter(f, o.maxSpeedMBps, o.chunkSize)
	defer tw.Close()

	for i, pattern := range patterns {
		pass := i + 1
		if err := ctx.Err(); err != nil {
			o.logger.Log("INFO", "Overwrite cancelled", "path", path, "completed_passes", i, "total", total)
			return stepError(StepOverwrite, path,
				errors.Mark(errors.Wrapf(err, "cancelled after %d of %d passes", i, total), ErrCancelled))
		}

		sink(Progress{
			FileIndex: fileIndex,
			Pass:      pass,
			PassTotal: total,
			Message:   passMessage(mode, pass, total, pattern),
		})

		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return o.fail(path, err)
		}
		if err := writePass(tw, buf, size, pattern); err != nil {
			return o.fail(path, err)
		}
		if err := tw.Sync(); err != nil {
			return o.fail(path, err)
		}

		o.logger.Log("DEBUG", "Pass complete", "path", path, "pass", pass, "total", total, "pattern", pattern.String())
	}
	return nil
}

// writePass writes size bytes of pattern through w using buf as scratch space.
func writePass(w io.Writer, buf []byte, size int64, pattern Pattern) error {
	if size == 0 {
		return nil
	}
	constant := pattern != PatternRandom
	if constant {
		if err := pattern.fill(buf); err != nil {
			return err
		}
	}

	var written int64
	for written < size {
		n := int64(len(buf))
		if remaining := size - written; remaining < n {
			n = remaining
		}
		chunk := buf[:n]
		if !constant {
			if err := pattern.fill(chunk); err != nil {
				return err
			}
		}
		m, err := w.Write(chunk)
		written += int64(m)
		if err != nil {
			return err
		}
		if int64(m) != n {
			return io.ErrShortWrite
		}
	}
	return nil
}

func (o *Overwriter) fail(path string, err error) error {
	err = classify(err)
	switch {
	case errors.Is(err, ErrPermissionDenied):
		err = errors.WithHint(err, elevatedHint)
	case errors.Is(err, ErrNoSpaceLeft):
		err = errors.WithHint(err, "no disk space left on the device holding this file")
	}
	o.logger.Log("ERROR", "Overwrite failed", "path", path, "error", err.Error())
	return stepError(StepOverwrite, path, err)
}
