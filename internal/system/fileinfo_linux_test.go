//go:build linux

package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestInspect_NonRegularNotHashed(t *testing.T) {
	fifo := filepath.Join(t.TempDir(), "pipe")
	require.NoError(t, unix.Mkfifo(fifo, 0o600))

	for _, path := range []string{"/dev/zero", fifo} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			done := make(chan *FileInfo, 1)
			go func() {
				info, err := Inspect(path)
				assert.NoError(t, err)
				done <- info
			}()

			select {
			case info := <-done:
				require.NotNil(t, info)
				assert.Empty(t, info.MD5)
				assert.Equal(t, [2]string{"Hash", "Not calculated (not a regular file)"}, info.Fields()[10])
			case <-time.After(5 * time.Second):
				t.Fatalf("Inspect(%s) did not return", path)
			}
		})
	}
}

func TestInspect_NotOwnedNotHashed(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root may use O_NOATIME on any file")
	}
	const path = "/etc/passwd"
	fi, err := os.Stat(path)
	if err != nil || statDetails(fi).uid == uint32(os.Geteuid()) {
		t.Skip("needs a readable file owned by someone else")
	}

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Empty(t, info.MD5)
	assert.Equal(t, "reading would update the access time", info.HashSkipped)
}
