package system

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 bytes"},
		{1023, "1023 bytes"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3*1024*1024*1024 + 512*1024*1024, "3.50 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.size), "FormatSize(%d)", tt.size)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o640))
	past := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, past, past))

	before, err := os.Stat(path)
	require.NoError(t, err)
	stBefore := statDetails(before)

	info, err := Inspect(path)
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", info.Name)
	assert.Equal(t, dir, info.Dir)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "5 bytes", info.SizeHuman)
	assert.Equal(t, "640", info.Mode)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", info.MD5)
	assert.False(t, info.Executable)
	assert.Empty(t, info.SymlinkTarget)
	assert.NotEmpty(t, info.Owner)
	assert.NotEmpty(t, info.Filesystem)
	assert.True(t, info.Modified.Equal(past))

	// inspection must not touch the file
	after, err := os.Stat(path)
	require.NoError(t, err)
	stAfter := statDetails(after)
	assert.True(t, after.ModTime().Equal(past))
	assert.True(t, stAfter.atime.Equal(stBefore.atime), "atime changed: %v -> %v", stBefore.atime, stAfter.atime)
	assert.True(t, stAfter.ctime.Equal(stBefore.ctime), "ctime changed: %v -> %v", stBefore.ctime, stAfter.ctime)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := md5.Sum(data)
	assert.Equal(t, info.MD5, hex.EncodeToString(sum[:]))

	fields := info.Fields()
	require.Len(t, fields, 12)
	assert.Equal(t, [2]string{"Name", "notes.txt"}, fields[0])
	assert.Equal(t, [2]string{"Executable", "No"}, fields[8])
	assert.Equal(t, [2]string{"Symlink", "No"}, fields[9])
}

func TestInspect_ExecutableAndSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(script, link))

	info, err := Inspect(link)
	require.NoError(t, err)
	assert.True(t, info.Executable)
	assert.Equal(t, script, info.SymlinkTarget)
	assert.Equal(t, "link", info.Name)
}

func TestInspect_LargeFileNotHashed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.img")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(HashLimit))
	require.NoError(t, f.Close())

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Empty(t, info.MD5)
	assert.Equal(t, "10.00 MB", info.SizeHuman)
	assert.Equal(t, [2]string{"Hash", "Not calculated (file too large)"}, info.Fields()[10])
}

func TestInspect_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Inspect(dir)
	assert.ErrorContains(t, err, "is a directory")

	_, err = Inspect(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		path string
		want PathState
	}{
		{file, PathFile},
		{dir, PathDirectory},
		{filepath.Join(dir, "gone"), PathMissing},
	}
	for _, tt := range tests {
		got, err := Verify(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.path)
	}
	assert.Equal(t, "directory", PathDirectory.String())
}

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"b.txt", "a.txt", "sub/z.bin", "sub/deeper/c.dat"} {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(p), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))
	if runtime.GOOS != "windows" {
		require.NoError(t, os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "alias")))
	}

	files, err := CollectFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "sub", "deeper", "c.dat"),
		filepath.Join(root, "sub", "z.bin"),
	}, files)

	_, err = CollectFiles(filepath.Join(root, "a.txt"))
	assert.ErrorContains(t, err, "not a directory")

	_, err = CollectFiles(filepath.Join(root, "nope"))
	assert.Error(t, err)
}
