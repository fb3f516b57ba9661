package wipe

import (
	"io/fs"

	"github.com/cockroachdb/errors"

	"datadestroyer/internal/logging"
)

// Remover unlinks a file and confirms that the path is gone.
type Remover struct {
	storage Storage
	logger  *logging.Logger
}

func NewRemover(storage Storage, logger *logging.Logger) *Remover {
	return &Remover{storage: storage, logger: logger.Named("remove")}
}

// Remove unlinks path. A failing unlink is returned classified; a path that
// still resolves afterwards is returned marked ErrVerificationFailed.
func (r *Remover) Remove(path string) error {
	if err := r.storage.Fs.Remove(path); err != nil {
		err = classify(err)
		r.logger.Log("ERROR", "Unlink failed", "path", path, "error", err.Error())
		return stepError(StepRemove, path, err)
	}

	_, err := lstat(r.storage.Fs, path)
	switch {
	case err == nil:
		err = errors.New("file still exists after deletion")
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Log("DEBUG", "Removal verified", "path", path)
		return nil
	default:
		err = errors.Wrap(err, "cannot confirm removal")
	}
	r.logger.Log("WARN", "Removal not verified", "path", path, "error", err.Error())
	return stepError(StepVerify, path, errors.Mark(err, ErrVerificationFailed))
}
