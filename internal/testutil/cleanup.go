// Package testutil provides helpers for examples and tests.
package testutil

import (
	"os"
	"path/filepath"
)

// RemoveAll removes the path and any children. Errors are ignored.
// Use for defer cleanup in examples.
//
// Usage:
//
//	defer testutil.RemoveAll(tmpDir)
func RemoveAll(path string) { _ = os.RemoveAll(path) }

// WriteTree creates files under root from a map of slash-separated relative
// paths to contents, creating parent directories as needed.
func WriteTree(root string, files map[string]string) error {
	for rel, body := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}
