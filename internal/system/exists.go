package system

import (
	"errors"
	"io/fs"
	"os"
)

// PathState is what Verify found at a path.
type PathState int

const (
	PathMissing PathState = iota
	PathFile
	PathDirectory
)

func (s PathState) String() string {
	switch s {
	case PathFile:
		return "file"
	case PathDirectory:
		return "directory"
	default:
		return "missing"
	}
}

// Verify reports whether path exists and what it is. Anything that is not a
// directory counts as a file. Errors other than non-existence are returned.
func Verify(path string) (PathState, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return PathMissing, nil
	}
	if err != nil {
		return PathMissing, err
	}
	if fi.IsDir() {
		return PathDirectory, nil
	}
	return PathFile, nil
}
