package security

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"datadestroyer/internal/config"
)

// IsRoot reports whether the process runs with an effective uid of 0.
func IsRoot() bool {
	if runtime.GOOS == "windows" {
		return false
	}
	return os.Geteuid() == 0
}

// CheckPath refuses targets that are, or live under, a protected path.
// Symlinks are resolved first so a link cannot smuggle a system file past
// the check.
func CheckPath(cfg *config.Config, path string) error {
	if cfg == nil {
		cfg = config.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	candidates := []string{filepath.Clean(abs)}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil && resolved != abs {
		candidates = append(candidates, resolved)
	}

	for _, protected := range cfg.Security.ProtectedPaths {
		p := filepath.Clean(protected)
		for _, c := range candidates {
			if c == p || strings.HasPrefix(c, p+string(filepath.Separator)) {
				return fmt.Errorf("%s is inside protected path %s", path, protected)
			}
		}
	}
	return nil
}

// FilterProtected splits paths into allowed targets and refusals.
func FilterProtected(cfg *config.Config, paths []string) (allowed []string, refused map[string]error) {
	refused = make(map[string]error)
	for _, p := range paths {
		if err := CheckPath(cfg, p); err != nil {
			refused[p] = err
			continue
		}
		allowed = append(allowed, p)
	}
	return allowed, refused
}

// RootWarning is printed when the process lacks root privileges.
func RootWarning() string {
	return "WARNING: Not running as root. Some system files may not be accessible."
}
