package wipe

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"datadestroyer/internal/logging"
)

// eventBuffer is the capacity of the channel returned by Start.
const eventBuffer = 64

// completedGrace bounds how long Start waits to hand over Completed once
// ctx is done.
const completedGrace = 10 * time.Second

// Batch runs a Destroyer over an ordered list of files, one at a time.
type Batch struct {
	destroyer *Destroyer
	logger    *logging.Logger
	now       func() time.Time
	grace     time.Duration
}

func NewBatch(destroyer *Destroyer, logger *logging.Logger) *Batch {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Batch{destroyer: destroyer, logger: logger.Named("batch"), now: time.Now, grace: completedGrace}
}

// Run processes req in order on the calling goroutine and delivers every
// event to sink, ending with a 100% Progress and a Completed event. File
// failures never stop the batch. The error is non-nil only for an invalid
// request, in which case nothing was touched and no event was sent.
func (b *Batch) Run(ctx context.Context, req Request, sink Sink) (BatchSummary, error) {
	if err := req.Validate(); err != nil {
		return BatchSummary{}, errors.Wrap(err, "invalid destruction request")
	}
	if sink == nil {
		sink = Discard
	}

	total := len(req.Paths)
	passes := req.EffectivePasses()
	summary := BatchSummary{Total: total, Started: b.now()}

	b.logger.Log("INFO", "Batch started", "files", total, "mode", string(req.Mode), "passes", passes)

	for idx, path := range req.Paths {
		fileIndex := idx + 1

		if err := ctx.Err(); err != nil {
			summary.add(FileOutcome{
				Index:     fileIndex,
				Path:      path,
				FinalPath: path,
				State:     StateCancelled,
				Err:       errors.Mark(err, ErrCancelled),
			})
			continue
		}

		emitStatus(sink, fileIndex, SeverityInfo,
			fmt.Sprintf("Processing file %d of %d: %s", fileIndex, total, filepath.Base(path)))

		fileSink := func(e Event) {
			if p, ok := e.(Progress); ok {
				p.Percent = Percent(idx, p.Pass, passes, total)
				e = p
			}
			sink(e)
		}

		out := b.destroyer.Destroy(ctx, fileIndex, path, req.Mode, req.Passes, fileSink)
		if out.State == StateFailed {
			emitStatus(sink, fileIndex, SeverityError, "Failed to destroy: "+path)
		}
		summary.add(out)
	}

	summary.Finished = b.now()
	sink(Progress{FileIndex: total, Percent: 100, Message: "All files processed"})
	sink(Completed{Summary: summary})

	b.logger.Log("INFO", "Batch finished",
		"files", total,
		"destroyed", summary.Destroyed,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled,
		"duration", summary.Finished.Sub(summary.Started).String())
	return summary, nil
}

// Start validates req and runs it on a dedicated goroutine. Events are
// published on the returned channel, which is closed after Completed. The
// caller should drain the channel. Once ctx is done, events that cannot be
// delivered immediately are dropped, and Completed is dropped if nobody
// takes it within the grace period, so the worker always exits.
func (b *Batch) Start(ctx context.Context, req Request) (<-chan Event, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid destruction request")
	}

	events := make(chan Event, eventBuffer)
	go func() {
		defer close(events)
		// validated above, the error is always nil
		_, _ = b.Run(ctx, req, func(e Event) { b.publish(ctx, events, e) })
	}()
	return events, nil
}

func (b *Batch) publish(ctx context.Context, events chan<- Event, e Event) {
	select {
	case events <- e:
		return
	case <-ctx.Done():
	}

	if _, ok := e.(Completed); ok {
		timer := time.NewTimer(b.grace)
		defer timer.Stop()
		select {
		case events <- e:
		case <-timer.C:
			b.logger.Log("WARN", "Completed event dropped, nobody is reading")
		}
		return
	}
	select {
	case events <- e:
	default:
	}
}

// Percent is the batch completion when pass of file fileIdx (0-based) starts,
// truncated to an integer.
func Percent(fileIdx, pass, passesPerFile, files int) int {
	totalPasses := passesPerFile * files
	if totalPasses <= 0 {
		return 0
	}
	return (fileIdx*passesPerFile + pass) * 100 / totalPasses
}
