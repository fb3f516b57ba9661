package wipe

import (
	"math/bits"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"datadestroyer/internal/logging"
)

// Prechecker validates that a file can be destroyed before anything is written.
type Prechecker struct {
	storage Storage
	logger  *logging.Logger
}

func NewPrechecker(storage Storage, logger *logging.Logger) *Prechecker {
	return &Prechecker{storage: storage, logger: logger.Named("precheck")}
}

// Check returns a PrecheckResult, or an error marked ErrNotFound,
// ErrPermissionDenied, ErrInsufficientSpace or ErrIO.
//
// The space requirement is size × passes even though passes rewrite in place
// and consume nothing; it guards against concurrent disk pressure.
func (p *Prechecker) Check(path string, mode Mode, passes int) (PrecheckResult, error) {
	fi, err := p.storage.Fs.Stat(path)
	if err != nil {
		return PrecheckResult{}, stepError(StepPrecheck, path, classify(err))
	}
	if !fi.Mode().IsRegular() {
		return PrecheckResult{}, stepError(StepPrecheck, path,
			errors.Mark(errors.Newf("not a regular file (%s)", fi.Mode().Type()), ErrNotFound))
	}

	res := PrecheckResult{Path: path, Size: fi.Size()}
	if lfi, err := lstat(p.storage.Fs, path); err == nil && lfi.Mode()&os.ModeSymlink != 0 {
		res.Symlink = true
	}

	if err := p.storage.Volume.CheckWritable(path); err != nil {
		err = errors.Mark(errors.Wrap(err, "no write permission for this file"), ErrPermissionDenied)
		return PrecheckResult{}, stepError(StepPrecheck, path, err)
	}

	dir := filepath.Dir(path)
	free, err := p.storage.Volume.FreeSpace(dir)
	if err != nil {
		err = errors.Mark(errors.Wrap(err, "checking disk space"), ErrIO)
		return PrecheckResult{}, stepError(StepPrecheck, path, err)
	}
	res.Free = free

	effective := mode.EffectivePasses(passes)
	hi, required := bits.Mul64(uint64(res.Size), uint64(effective))
	res.Required = required
	if hi != 0 || free < required {
		err := errors.Newf("need %d bytes free for %d passes over %d bytes, have %d",
			required, effective, res.Size, free)
		return PrecheckResult{}, stepError(StepPrecheck, path, errors.Mark(err, ErrInsufficientSpace))
	}

	if err := p.storage.Volume.SyncDir(dir); err != nil {
		p.logger.Log("DEBUG", "Directory sync unavailable", "dir", dir, "error", err.Error())
	}

	p.logger.Log("DEBUG", "Precheck passed", "path", path, "size", res.Size, "free", free, "required", required)
	return res, nil
}
