//go:build windows

package wipe

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/windows"
)

// OSVolume implements Volume with GetDiskFreeSpaceEx. Directory sync is not
// available on Windows and always reports an error, which callers tolerate.
type OSVolume struct{}

func (OSVolume) FreeSpace(dir string) (uint64, error) {
	var freeBytesAvailable, totalBytes, freeBytes uint64

	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid path %s", dir)
	}
	if err := windows.GetDiskFreeSpaceEx(p, &freeBytesAvailable, &totalBytes, &freeBytes); err != nil {
		return 0, errors.Wrapf(err, "GetDiskFreeSpaceEx %s", dir)
	}
	return freeBytesAvailable, nil
}

func (OSVolume) CheckWritable(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	return f.Close()
}

func (OSVolume) SyncDir(dir string) error {
	return errors.New("directory sync not supported on windows")
}
