//go:build !linux

package system

import (
	"os"
	"time"
)

type statInfo struct {
	ctime, atime time.Time
	uid, gid     uint32
	hasIDs       bool
}

func statDetails(os.FileInfo) statInfo {
	return statInfo{}
}

func openNoAtime(path string) (*os.File, error) {
	return os.Open(path)
}

func isExecutable(_ string, fi os.FileInfo) bool {
	return fi.Mode().Perm()&0o111 != 0
}
