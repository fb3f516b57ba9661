package wipe

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"datadestroyer/internal/logging"
)

// Options tunes the engine.
type Options struct {
	ChunkSize    int
	MaxSpeedMBps float64
	// SkipObscure removes files under their original name.
	SkipObscure bool
}

// Destroyer runs precheck, overwrite, obscure and remove for one file.
type Destroyer struct {
	Prechecker *Prechecker
	Overwriter *Overwriter
	Obscurer   *Obscurer
	Remover    *Remover

	skipObscure bool
	logger      *logging.Logger
}

// NewDestroyer wires the four steps over storage.
func NewDestroyer(storage Storage, opts Options, logger *logging.Logger) *Destroyer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Destroyer{
		Prechecker:  NewPrechecker(storage, logger),
		Overwriter:  NewOverwriter(storage, opts.ChunkSize, opts.MaxSpeedMBps, logger),
		Obscurer:    NewObscurer(storage, logger),
		Remover:     NewRemover(storage, logger),
		skipObscure: opts.SkipObscure,
		logger:      logger.Named("destroyer"),
	}
}

// Destroy processes one file and always returns a terminal outcome.
// Precheck, overwrite and unlink failures fail the file; rename failures and
// unverified removals are reported as warnings.
func (d *Destroyer) Destroy(ctx context.Context, index int, path string, mode Mode, passes int, sink Sink) (out FileOutcome) {
	out = FileOutcome{Index: index, Path: path, FinalPath: path, State: StatePending}
	state := StatePending

	defer func() {
		if r := recover(); r != nil {
			err := errors.Mark(errors.Newf("unexpected failure while %s: %v", state, r), ErrIO)
			out = d.failed(out, sink, stepError(stepFor(state), path, err))
		}
	}()

	if err := ctx.Err(); err != nil {
		return d.cancelled(out, sink, errors.Mark(err, ErrCancelled))
	}

	if err := checkPasses(mode, passes); err != nil {
		return d.failed(out, sink, stepError(StepPrecheck, path, err))
	}

	state = StatePrechecking
	res, err := d.Prechecker.Check(path, mode, passes)
	if err != nil {
		return d.failed(out, sink, err)
	}
	if res.Symlink {
		out = d.warn(out, sink, fmt.Sprintf("%s is a symbolic link: the target's contents are overwritten, only the link is removed", path))
	}

	state = StateOverwriting
	if err := d.Overwriter.Overwrite(ctx, index, path, res.Size, mode, passes, sink); err != nil {
		if errors.Is(err, ErrCancelled) {
			return d.cancelled(out, sink, err)
		}
		return d.failed(out, sink, err)
	}

	target := path
	if !d.skipObscure {
		state = StateObscuring
		renamed, err := d.Obscurer.Obscure(path)
		if err != nil {
			out = d.warn(out, sink, fmt.Sprintf("Error renaming file: %v", err))
		} else {
			emitStatus(sink, index, SeverityInfo, "File renamed to: "+renamed)
		}
		target = renamed
		out.FinalPath = renamed
	}

	state = StateRemoving
	err = d.Remover.Remove(target)
	switch {
	case err == nil:
		out.Verified = true
		emitStatus(sink, index, SeverityInfo, "File deleted successfully.")
		emitStatus(sink, index, SeverityInfo, "Verified: File no longer exists.")
	case errors.Is(err, ErrVerificationFailed):
		emitStatus(sink, index, SeverityInfo, "File deleted successfully.")
		out = d.warn(out, sink, fmt.Sprintf("Warning: File still exists after deletion attempt: %v", err))
	default:
		return d.failed(out, sink, err)
	}

	out.State = StateDestroyed
	d.logger.Log("INFO", "File destroyed", "path", path, "passes", mode.EffectivePasses(passes), "verified", out.Verified)
	return out
}

func (d *Destroyer) failed(out FileOutcome, sink Sink, err error) FileOutcome {
	err = classify(err)
	out.State = StateFailed
	out.Err = err
	emitStatus(sink, out.Index, SeverityError, "Error: "+err.Error())
	for _, hint := range errors.GetAllHints(err) {
		emitStatus(sink, out.Index, SeverityHint, hint)
	}
	d.logger.Log("ERROR", "File destruction failed", "path", out.Path, "error", err.Error())
	return out
}

func (d *Destroyer) cancelled(out FileOutcome, sink Sink, err error) FileOutcome {
	out.State = StateCancelled
	out.Err = err
	emitStatus(sink, out.Index, SeverityWarning, "Cancelled: "+out.Path)
	d.logger.Log("WARN", "File destruction cancelled", "path", out.Path, "error", err.Error())
	return out
}

func (d *Destroyer) warn(out FileOutcome, sink Sink, msg string) FileOutcome {
	out.Warnings = append(out.Warnings, msg)
	emitStatus(sink, out.Index, SeverityWarning, msg)
	return out
}

func stepFor(s State) Step {
	switch s {
	case StateOverwriting:
		return StepOverwrite
	case StateObscuring:
		return StepObscure
	case StateRemoving:
		return StepRemove
	default:
		return StepPrecheck
	}
}
