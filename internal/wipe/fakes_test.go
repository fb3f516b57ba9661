package wipe

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"datadestroyer/internal/logging"
)

// recordingFs wraps an in-memory filesystem, counts the I/O the engine
// performs and can inject failures.
type recordingFs struct {
	afero.Fs

	mu          sync.Mutex
	openFlags   []int
	writes      int
	seeks       int
	syncs       int
	passBytes   []int64  // bytes written between consecutive syncs
	snapshots   [][]byte // file content at every sync
	pendingSize int64

	openErr       error
	writeErr      error
	failWriteFrom int // 1-based pass whose first write fails with writeErr, 0 = every write
	renameErr     error
	renamePanic   bool
	removeErr     error
	removeNoop    bool
}

func newRecordingFs() *recordingFs {
	return &recordingFs{Fs: afero.NewMemMapFs()}
}

func (r *recordingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	f, err := r.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.openFlags = append(r.openFlags, flag)
	r.mu.Unlock()
	return &recordingFile{File: f, fs: r, name: name}, nil
}

func (r *recordingFs) Rename(oldname, newname string) error {
	if r.renamePanic {
		panic("rename exploded")
	}
	if r.renameErr != nil {
		return r.renameErr
	}
	return r.Fs.Rename(oldname, newname)
}

func (r *recordingFs) Remove(name string) error {
	if r.removeErr != nil {
		return r.removeErr
	}
	if r.removeNoop {
		return nil
	}
	return r.Fs.Remove(name)
}

type recordingFile struct {
	afero.File
	fs   *recordingFs
	name string
}

func (f *recordingFile) Write(p []byte) (int, error) {
	r := f.fs
	r.mu.Lock()
	pass := len(r.passBytes) + 1
	fail := r.writeErr != nil && (r.failWriteFrom == 0 || pass >= r.failWriteFrom)
	if !fail {
		r.writes++
		r.pendingSize += int64(len(p))
	}
	r.mu.Unlock()
	if fail {
		return 0, r.writeErr
	}
	return f.File.Write(p)
}

func (f *recordingFile) Seek(offset int64, whence int) (int64, error) {
	f.fs.mu.Lock()
	f.fs.seeks++
	f.fs.mu.Unlock()
	return f.File.Seek(offset, whence)
}

func (f *recordingFile) Sync() error {
	data, err := afero.ReadFile(f.fs.Fs, f.name)
	if err != nil {
		return err
	}
	r := f.fs
	r.mu.Lock()
	r.syncs++
	r.passBytes = append(r.passBytes, r.pendingSize)
	r.snapshots = append(r.snapshots, data)
	r.pendingSize = 0
	r.mu.Unlock()
	return f.File.Sync()
}

// fakeVolume reports configurable free space and derives write access from
// the file's mode bits.
type fakeVolume struct {
	fs       afero.Fs
	free     uint64
	freeErr  error
	syncErr  error
	dirSyncs int
}

func (v *fakeVolume) FreeSpace(string) (uint64, error) {
	return v.free, v.freeErr
}

func (v *fakeVolume) CheckWritable(path string) error {
	fi, err := v.fs.Stat(path)
	if err != nil {
		return err
	}
	if fi.Mode().Perm()&0o200 == 0 {
		return &os.PathError{Op: "access", Path: path, Err: syscall.EACCES}
	}
	return nil
}

func (v *fakeVolume) SyncDir(string) error {
	v.dirSyncs++
	return v.syncErr
}

type testEnv struct {
	fs      *recordingFs
	volume  *fakeVolume
	storage Storage
	logger  *logging.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rfs := newRecordingFs()
	vol := &fakeVolume{fs: rfs, free: 1 << 40}
	return &testEnv{
		fs:      rfs,
		volume:  vol,
		storage: Storage{Fs: rfs, Volume: vol},
		logger:  logging.FromZap(zaptest.NewLogger(t)),
	}
}

// writeFile creates a file with recognisable content.
func (e *testEnv) writeFile(t *testing.T, path string, size int, perm os.FileMode) []byte {
	t.Helper()
	data := bytes.Repeat([]byte{0xA5}, size)
	require.NoError(t, e.fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(e.fs.Fs, path, data, perm))
	return data
}

func (e *testEnv) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.Exists(e.fs.Fs, path)
	require.NoError(t, err)
	return ok
}

// eventRecorder collects events from a Sink.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) sink(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) progress() []Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Progress
	for _, e := range r.events {
		if p, ok := e.(Progress); ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *eventRecorder) statuses(sev Severity) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if s, ok := e.(Status); ok && s.Severity == sev {
			out = append(out, s.Text)
		}
	}
	return out
}

func allBytes(data []byte, b byte) bool {
	for _, c := range data {
		if c != b {
			return false
		}
	}
	return true
}
