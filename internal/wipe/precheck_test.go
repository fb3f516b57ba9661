package wipe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"datadestroyer/internal/logging"
)

func TestPrechecker_Check(t *testing.T) {
	t.Run("ready file", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeFile(t, "/data/a.bin", 1000, 0o644)
		env.volume.free = 5000

		res, err := NewPrechecker(env.storage, env.logger).Check("/data/a.bin", ModeStandard, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), res.Size)
		assert.Equal(t, uint64(5000), res.Free)
		assert.Equal(t, uint64(3000), res.Required)
		assert.Equal(t, 1, env.volume.dirSyncs)
	})

	t.Run("missing file", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := NewPrechecker(env.storage, env.logger).Check("/data/missing", ModeStandard, 3)
		require.Error(t, err)
		assert.Equal(t, ErrNotFound, Kind(err))
		step, ok := ErrorStep(err)
		assert.True(t, ok)
		assert.Equal(t, StepPrecheck, step)
	})

	t.Run("directory is not a regular file", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.fs.MkdirAll("/data/dir", 0o755))
		_, err := NewPrechecker(env.storage, env.logger).Check("/data/dir", ModeStandard, 1)
		assert.Equal(t, ErrNotFound, Kind(err))
	})

	t.Run("read-only file is rejected without writes", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeFile(t, "/data/ro.bin", 64, 0o444)

		_, err := NewPrechecker(env.storage, env.logger).Check("/data/ro.bin", ModeStandard, 3)
		require.Error(t, err)
		assert.Equal(t, ErrPermissionDenied, Kind(err))
		assert.Zero(t, env.fs.writes)
		assert.Empty(t, env.fs.openFlags)
	})

	t.Run("free space error", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeFile(t, "/data/a.bin", 10, 0o644)
		env.volume.freeErr = errors.New("statfs exploded")

		_, err := NewPrechecker(env.storage, env.logger).Check("/data/a.bin", ModeStandard, 1)
		assert.Equal(t, ErrIO, Kind(err))
		assert.Contains(t, err.Error(), "statfs exploded")
	})

	t.Run("directory sync failure is tolerated", func(t *testing.T) {
		env := newTestEnv(t)
		env.writeFile(t, "/data/a.bin", 10, 0o644)
		env.volume.syncErr = errors.New("not supported")

		_, err := NewPrechecker(env.storage, env.logger).Check("/data/a.bin", ModeStandard, 1)
		assert.NoError(t, err)
		assert.Equal(t, 1, env.volume.dirSyncs)
	})
}

func TestPrechecker_FreeSpaceBoundary(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		passes  int
		size    int
		free    uint64
		wantErr bool
	}{
		{"standard exactly enough", ModeStandard, 3, 1000, 3000, false},
		{"standard one byte short", ModeStandard, 3, 1000, 2999, true},
		{"nsa exactly enough", ModeNSA, 7, 1000, 4000, false},
		{"nsa one byte short", ModeNSA, 7, 1000, 3999, true},
		{"nsa ignores pass count", ModeNSA, 1, 1000, 1000, true},
		{"empty file", ModeStandard, 10, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.writeFile(t, "/data/f.bin", tt.size, 0o644)
			env.volume.free = tt.free

			_, err := NewPrechecker(env.storage, env.logger).Check("/data/f.bin", tt.mode, tt.passes)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrInsufficientSpace, Kind(err))
				assert.Zero(t, env.volume.dirSyncs)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrechecker_OSVolume(t *testing.T) {
	logger := logging.FromZap(zaptest.NewLogger(t))
	dir := t.TempDir()
	p := NewPrechecker(OSStorage(), logger)

	path := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("secret"), 0o644))

	res, err := p.Check(path, ModeStandard, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.Size)
	assert.Greater(t, res.Free, uint64(0))

	t.Run("read-only", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root bypasses file permissions")
		}
		ro := filepath.Join(dir, "readonly.txt")
		require.NoError(t, os.WriteFile(ro, []byte("keep"), 0o444))

		_, err := p.Check(ro, ModeStandard, 1)
		assert.Equal(t, ErrPermissionDenied, Kind(err))
	})

	t.Run("symlink to file", func(t *testing.T) {
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink(path, link))

		res, err := p.Check(link, ModeStandard, 1)
		require.NoError(t, err)
		assert.True(t, res.Symlink)
	})
}
