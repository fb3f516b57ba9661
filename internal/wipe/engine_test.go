package wipe

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestroyer_Destroy(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "/data/secret.txt", 3000, 0o644)
	rec := &eventRecorder{}

	d := NewDestroyer(env.storage, Options{ChunkSize: 1024}, env.logger)
	out := d.Destroy(context.Background(), 1, "/data/secret.txt", ModeStandard, 3, rec.sink)

	assert.Equal(t, StateDestroyed, out.State)
	assert.NoError(t, out.Err)
	assert.True(t, out.Verified)
	assert.Empty(t, out.Warnings)
	assert.NotEqual(t, "/data/secret.txt", out.FinalPath)
	assert.Regexp(t, obscuredName, filepath.Base(out.FinalPath))

	entries, err := afero.ReadDir(env.fs, "/data")
	require.NoError(t, err)
	assert.Empty(t, entries, "neither the original nor the renamed file may remain")

	assert.Equal(t, 3, env.fs.syncs)
	info := rec.statuses(SeverityInfo)
	require.Len(t, info, 3)
	assert.Equal(t, "File renamed to: "+out.FinalPath, info[0])
	assert.Equal(t, "File deleted successfully.", info[1])
	assert.Equal(t, "Verified: File no longer exists.", info[2])
}

func TestDestroyer_PrecheckFailureTouchesNothing(t *testing.T) {
	env := newTestEnv(t)
	content := env.writeFile(t, "/data/big.bin", 1000, 0o644)
	env.volume.free = 999
	rec := &eventRecorder{}

	out := NewDestroyer(env.storage, Options{}, env.logger).
		Destroy(context.Background(), 1, "/data/big.bin", ModeStandard, 1, rec.sink)

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, ErrInsufficientSpace, Kind(out.Err))
	assert.Zero(t, env.fs.writes)
	assert.Empty(t, env.fs.openFlags)
	assert.Empty(t, rec.progress())

	data, err := afero.ReadFile(env.fs, "/data/big.bin")
	require.NoError(t, err)
	assert.Equal(t, content, data)

	errs := rec.statuses(SeverityError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Error: ")
}

func TestDestroyer_InvalidPassesTouchesNothing(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		passes int
	}{
		{"zero", ModeStandard, 0},
		{"negative", ModeStandard, -1},
		{"above max", ModeStandard, MaxPasses + 1},
		{"unknown mode", Mode("gutmann"), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			content := env.writeFile(t, "/data/secret.bin", 4096, 0o644)
			rec := &eventRecorder{}

			out := NewDestroyer(env.storage, Options{}, env.logger).
				Destroy(context.Background(), 1, "/data/secret.bin", tt.mode, tt.passes, rec.sink)

			assert.Equal(t, StateFailed, out.State)
			assert.False(t, out.Verified)
			assert.Equal(t, ErrInvalidRequest, Kind(out.Err))
			step, ok := ErrorStep(out.Err)
			require.True(t, ok)
			assert.Equal(t, StepPrecheck, step)

			assert.Zero(t, env.fs.writes)
			assert.Zero(t, env.fs.syncs)
			assert.Empty(t, rec.progress())
			data, err := afero.ReadFile(env.fs, "/data/secret.bin")
			require.NoError(t, err)
			assert.Equal(t, content, data)
		})
	}
}

func TestDestroyer_RenameFailureStillDestroys(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "/data/a.bin", 64, 0o644)
	env.fs.renameErr = &os.LinkError{Op: "rename", Old: "/data/a.bin", New: "/data/b", Err: syscall.EBUSY}
	rec := &eventRecorder{}

	out := NewDestroyer(env.storage, Options{}, env.logger).
		Destroy(context.Background(), 1, "/data/a.bin", ModeNSA, 0, rec.sink)

	assert.Equal(t, StateDestroyed, out.State)
	assert.Equal(t, "/data/a.bin", out.FinalPath)
	assert.True(t, out.Verified)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "Error renaming file")
	assert.Equal(t, out.Warnings, rec.statuses(SeverityWarning))
	assert.False(t, env.exists(t, "/data/a.bin"))
	assert.Equal(t, 4, env.fs.syncs)
}

func TestDestroyer_SkipObscure(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "/data/a.bin", 64, 0o644)

	out := NewDestroyer(env.storage, Options{SkipObscure: true}, env.logger).
		Destroy(context.Background(), 1, "/data/a.bin", ModeStandard, 1, Discard)

	assert.Equal(t, StateDestroyed, out.State)
	assert.Equal(t, "/data/a.bin", out.FinalPath)
	assert.False(t, env.exists(t, "/data/a.bin"))
}

func TestDestroyer_UnverifiedRemoval(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "/data/a.bin", 64, 0o644)
	env.fs.removeNoop = true
	rec := &eventRecorder{}

	out := NewDestroyer(env.storage, Options{}, env.logger).
		Destroy(context.Background(), 1, "/data/a.bin", ModeStandard, 1, rec.sink)

	assert.Equal(t, StateDestroyed, out.State)
	assert.False(t, out.Verified)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "File still exists after deletion attempt")
	assert.Contains(t, rec.statuses(SeverityInfo), "File deleted successfully.")
	assert.NotContains(t, rec.statuses(SeverityInfo), "Verified: File no longer exists.")
}

func TestDestroyer_UnlinkFailure(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "/data/a.bin", 64, 0o644)
	env.fs.removeErr = &os.PathError{Op: "remove", Path: "/data/a.bin", Err: syscall.EACCES}
	rec := &eventRecorder{}

	out := NewDestroyer(env.storage, Options{}, env.logger).
		Destroy(context.Background(), 2, "/data/a.bin", ModeStandard, 1, rec.sink)

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, ErrPermissionDenied, Kind(out.Err))
	step, _ := ErrorStep(out.Err)
	assert.Equal(t, StepRemove, step)
	for _, s := range rec.statuses(SeverityError) {
		assert.Contains(t, s, "Error: ")
	}
}

func TestDestroyer_OverwriteFailureHints(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "/data/a.bin", 64, 0o644)
	env.fs.openErr = &os.PathError{Op: "open", Path: "/data/a.bin", Err: syscall.EACCES}
	rec := &eventRecorder{}

	out := NewDestroyer(env.storage, Options{}, env.logger).
		Destroy(context.Background(), 1, "/data/a.bin", ModeStandard, 2, rec.sink)

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, ErrPermissionDenied, Kind(out.Err))
	assert.Equal(t, []string{elevatedHint}, rec.statuses(SeverityHint))
	assert.True(t, env.exists(t, "/data/a.bin"))
}

func TestDestroyer_PanicBecomesFailure(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "/data/a.bin", 64, 0o644)
	env.fs.renamePanic = true

	out := NewDestroyer(env.storage, Options{}, env.logger).
		Destroy(context.Background(), 1, "/data/a.bin", ModeStandard, 1, Discard)

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, ErrIO, Kind(out.Err))
	step, _ := ErrorStep(out.Err)
	assert.Equal(t, StepObscure, step)
	assert.Contains(t, out.Err.Error(), "rename exploded")
}

func TestDestroyer_CancelledBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, "/data/a.bin", 64, 0o644)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewDestroyer(env.storage, Options{}, env.logger).
		Destroy(ctx, 1, "/data/a.bin", ModeStandard, 1, Discard)

	assert.Equal(t, StateCancelled, out.State)
	assert.Equal(t, ErrCancelled, Kind(out.Err))
	assert.Zero(t, env.fs.writes)
	assert.True(t, env.exists(t, "/data/a.bin"))
}

func TestDestroyer_RealFilesystem(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	path := dir + "/plain.txt"
	require.NoError(t, os.WriteFile(path, []byte("top secret payload"), 0o600))

	out := NewDestroyer(OSStorage(), Options{ChunkSize: 8}, env.logger).
		Destroy(context.Background(), 1, path, ModeNSA, 0, Discard)

	require.Equal(t, StateDestroyed, out.State, "error: %v", out.Err)
	assert.True(t, out.Verified)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
