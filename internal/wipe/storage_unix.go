//go:build !windows

package wipe

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// OSVolume implements Volume with statfs/access/fsync.
type OSVolume struct{}

func (OSVolume) FreeSpace(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, errors.Wrapf(err, "statfs %s", dir)
	}
	if stat.Bsize <= 0 {
		return 0, errors.Newf("invalid block size %d reported for %s", stat.Bsize, dir)
	}
	// available to unprivileged users
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}

func (OSVolume) CheckWritable(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return &os.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}

func (OSVolume) SyncDir(dir string) error {
	fd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.Fsync(fd)
}
