package os

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Exists function checks if the file/directory exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RemoveDir removes the directory, which must be located inside the root.
func RemoveDir(root, path string) error {
	root, err := filterPath(root)
	if err != nil {
		return err
	}
	path, err = filterPath(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("removeDir -> refusing to remove path outside of %s; dir=%s", root, path)
	}
	err = os.RemoveAll(path)
	if err != nil {
		return fmt.Errorf("removeDir -> cannot remove: %w; dir=%s", err, path)
	}
	return nil
}

func filterPath(path string) (string, error) {
	path, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return "", fmt.Errorf("filterDir -> invalid path: %w; dir=%s", err, path)
	}
	if path == "/" {
		return "", fmt.Errorf("filterDir -> are you kidding me")
	}
	return path, nil
}
