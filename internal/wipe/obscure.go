package wipe

import (
	"crypto/rand"
	"io/fs"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"datadestroyer/internal/logging"
)

const (
	obscuredNameLength = 12
	nameAlphabet       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxNameAttempts    = 8
)

// Obscurer renames a file to a random name in the same directory.
type Obscurer struct {
	storage Storage
	logger  *logging.Logger
}

func NewObscurer(storage Storage, logger *logging.Logger) *Obscurer {
	return &Obscurer{storage: storage, logger: logger.Named("obscure")}
}

// Obscure renames path and returns the new path. On failure it returns the
// original path together with an error marked ErrRename.
func (o *Obscurer) Obscure(path string) (string, error) {
	dir := filepath.Dir(path)

	var target string
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name, err := RandomName(obscuredNameLength)
		if err != nil {
			return path, o.fail(path, err)
		}
		candidate := filepath.Join(dir, name)
		// rename replaces existing entries, never clobber one
		if _, err := lstat(o.storage.Fs, candidate); errors.Is(err, fs.ErrNotExist) {
			target = candidate
			break
		}
	}
	if target == "" {
		return path, o.fail(path, errors.Newf("no unused name found after %d attempts", maxNameAttempts))
	}

	if err := o.storage.Fs.Rename(path, target); err != nil {
		return path, o.fail(path, err)
	}
	o.logger.Log("DEBUG", "File renamed", "from", path, "to", target)
	return target, nil
}

func (o *Obscurer) fail(path string, err error) error {
	o.logger.Log("WARN", "Rename failed", "path", path, "error", err.Error())
	return stepError(StepObscure, path, errors.Mark(err, ErrRename))
}

// RandomName returns n characters drawn uniformly from [A-Za-z0-9].
func RandomName(n int) (string, error) {
	// 248 is the largest multiple of 62 below 256
	const limit = 256 - 256%len(nameAlphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "generate random name")
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, nameAlphabet[int(b)%len(nameAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
