package wipe

import (
	"os"

	"github.com/spf13/afero"
)

// Volume answers the questions about the underlying filesystem that afero.Fs
// cannot: free space, access rights, and directory durability.
type Volume interface {
	// FreeSpace returns the bytes available to this process on the filesystem holding dir.
	FreeSpace(dir string) (uint64, error)
	// CheckWritable returns nil if the process may write to path.
	CheckWritable(path string) error
	// SyncDir flushes the directory's metadata to stable storage.
	SyncDir(dir string) error
}

// overwriteFlags opens for in-place rewrite: no create, no truncate, no append.
const overwriteFlags = os.O_WRONLY | os.O_SYNC

// Storage bundles the filesystem and volume used by the engine.
type Storage struct {
	Fs     afero.Fs
	Volume Volume
}

// OSStorage is the real filesystem.
func OSStorage() Storage {
	return Storage{Fs: afero.NewOsFs(), Volume: OSVolume{}}
}

// lstat falls back to Stat on filesystems without symlinks.
func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		fi, _, err := l.LstatIfPossible(path)
		return fi, err
	}
	return fsys.Stat(path)
}
