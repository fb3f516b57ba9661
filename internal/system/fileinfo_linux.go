//go:build linux

package system

import (
	"errors"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

type statInfo struct {
	ctime, atime time.Time
	uid, gid     uint32
	hasIDs       bool
}

func statDetails(fi os.FileInfo) statInfo {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return statInfo{}
	}
	return statInfo{
		ctime:  time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec)),
		atime:  time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec)),
		uid:    st.Uid,
		gid:    st.Gid,
		hasIDs: true,
	}
}

// openNoAtime opens path read-only with O_NOATIME. The flag is only
// permitted to the file owner (or CAP_FOWNER), anyone else gets
// errAtimeUnprotected instead of a handle whose reads touch atime.
// O_NONBLOCK keeps a FIFO swapped in after the Stat from blocking the open.
func openNoAtime(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_NOATIME|unix.O_NONBLOCK, 0)
	if errors.Is(err, unix.EPERM) {
		return nil, errAtimeUnprotected
	}
	return f, err
}

func isExecutable(path string, _ os.FileInfo) bool {
	return unix.Access(path, unix.X_OK) == nil
}
