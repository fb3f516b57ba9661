package system

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// CollectFiles returns every regular file below root in lexical order.
// Directories, symlinks and special files are skipped. root itself must be a
// directory.
func CollectFiles(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	var files []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == abs && !d.IsDir() {
			return fmt.Errorf("%s is not a directory", root)
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect files under %s: %w", root, err)
	}
	return files, nil
}
