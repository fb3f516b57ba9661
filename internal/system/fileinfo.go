package system

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"
)

// HashLimit is the largest file Inspect hashes.
const HashLimit = 10 * 1024 * 1024

const timeLayout = "2006-01-02 15:04:05"

// errAtimeUnprotected means the file can only be read in a way that updates
// its access time.
var errAtimeUnprotected = errors.New("cannot read without updating access time")

// FileInfo is the read-only description printed by the info command.
type FileInfo struct {
	Name          string    `json:"name"`
	Dir           string    `json:"path"`
	Size          int64     `json:"size"`
	SizeHuman     string    `json:"size_human"`
	Mode          string    `json:"mod"`
	Owner         string    `json:"owner"`
	StatusChange  time.Time `json:"status_change"`
	Modified      time.Time `json:"modified"`
	LastAccess    time.Time `json:"last_access"`
	Executable    bool      `json:"executable"`
	SymlinkTarget string    `json:"symlink,omitempty"`
	MD5           string    `json:"hash,omitempty"`
	HashSkipped   string    `json:"hash_skipped,omitempty"`
	Filesystem    string    `json:"filesystem"`
}

// Inspect collects FileInfo for path without modifying the file. Only regular
// files below HashLimit are hashed. On Linux the hash is read with O_NOATIME
// and skipped when the caller may not use it; other platforms read normally
// and may update the access time.
func Inspect(path string) (*FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory, file information is only available for individual files", path)
	}

	dir := filepath.Dir(path)
	if dir == "." {
		dir = "./"
	}
	info := &FileInfo{
		Name:       filepath.Base(path),
		Dir:        dir,
		Size:       fi.Size(),
		SizeHuman:  FormatSize(fi.Size()),
		Mode:       fmt.Sprintf("%03o", fi.Mode().Perm()),
		Modified:   fi.ModTime(),
		Executable: isExecutable(path, fi),
		Filesystem: FilesystemType(path),
	}

	st := statDetails(fi)
	info.StatusChange = st.ctime
	info.LastAccess = st.atime
	if info.StatusChange.IsZero() {
		info.StatusChange = fi.ModTime()
	}
	if info.LastAccess.IsZero() {
		info.LastAccess = fi.ModTime()
	}
	info.Owner = ownerName(st)

	if lfi, err := os.Lstat(path); err == nil && lfi.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			target = "error reading link"
		}
		info.SymlinkTarget = target
	}

	switch {
	case !fi.Mode().IsRegular():
		info.HashSkipped = "not a regular file"
	case fi.Size() >= HashLimit:
		info.HashSkipped = "file too large"
	default:
		sum, err := hashFile(path)
		switch {
		case errors.Is(err, errAtimeUnprotected):
			info.HashSkipped = "reading would update the access time"
		case err != nil:
			info.MD5 = "error calculating hash"
		default:
			info.MD5 = sum
		}
	}

	return info, nil
}

// Fields returns the printable properties in display order.
func (i *FileInfo) Fields() [][2]string {
	yesNo := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}
	symlink := i.SymlinkTarget
	if symlink == "" {
		symlink = "No"
	}
	hash := i.MD5
	if hash == "" {
		reason := i.HashSkipped
		if reason == "" {
			reason = "file too large"
		}
		hash = "Not calculated (" + reason + ")"
	}
	return [][2]string{
		{"Name", i.Name},
		{"Path", i.Dir},
		{"Size", i.SizeHuman},
		{"Mod", i.Mode},
		{"Owner", i.Owner},
		{"Status change", i.StatusChange.Format(timeLayout)},
		{"Modified", i.Modified.Format(timeLayout)},
		{"Last access", i.LastAccess.Format(timeLayout)},
		{"Executable", yesNo(i.Executable)},
		{"Symlink", symlink},
		{"Hash", hash},
		{"Filesystem", i.Filesystem},
	}
}

// FormatSize renders a byte count with two decimals above one kilobyte.
func FormatSize(size int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case size < kb:
		return fmt.Sprintf("%d bytes", size)
	case size < mb:
		return fmt.Sprintf("%.2f KB", float64(size)/kb)
	case size < gb:
		return fmt.Sprintf("%.2f MB", float64(size)/mb)
	default:
		return fmt.Sprintf("%.2f GB", float64(size)/gb)
	}
}

func hashFile(path string) (string, error) {
	f, err := openNoAtime(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if fi, err := f.Stat(); err != nil {
		return "", err
	} else if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}

	h := md5.New()
	if _, err := io.Copy(h, io.LimitReader(f, HashLimit)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ownerName resolves user:group, falling back to numeric ids.
func ownerName(st statInfo) string {
	if !st.hasIDs {
		return "unknown"
	}
	uid := strconv.FormatUint(uint64(st.uid), 10)
	gid := strconv.FormatUint(uint64(st.gid), 10)

	u, uerr := user.LookupId(uid)
	g, gerr := user.LookupGroupId(gid)
	if uerr != nil || gerr != nil {
		return fmt.Sprintf("UID:%s GID:%s", uid, gid)
	}
	return u.Username + ":" + g.Name
}
