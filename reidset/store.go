package reidset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ErrInvalidPath indicates a path that would escape the storage root.
var ErrInvalidPath = errors.New("invalid path: escapes storage root")

// -----------------------------------------------------------------------------
// Filesystem Store
// -----------------------------------------------------------------------------

// fsStore implements Store on a local directory tree.
type fsStore struct {
	root string
}

// NewFS creates a Store rooted at an existing directory.
// Paths are slash-separated and relative to root.
func NewFS(root string) (Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, os.ErrNotExist
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &fsStore{root: abs}, nil
}

// NewFSFactory returns a StoreFactory for NewFS.
func NewFSFactory(root string) StoreFactory {
	return func() (Store, error) { return NewFS(root) }
}

func (f *fsStore) Put(_ context.Context, p string, r io.Reader) error {
	full, err := f.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}

	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrPathExists
		}
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(full)
		return err
	}
	return file.Close()
}

func (f *fsStore) Get(_ context.Context, p string) (io.ReadCloser, error) {
	full, err := f.resolve(p)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

func (f *fsStore) Exists(_ context.Context, p string) (bool, error) {
	full, err := f.resolve(p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (f *fsStore) List(_ context.Context, prefix string) ([]string, error) {
	norm, ok := normalizePrefix(prefix)
	if !ok {
		return nil, ErrInvalidPath
	}

	// Walk the deepest directory fully covered by the prefix, then filter.
	dir := f.root
	if i := strings.LastIndex(norm, "/"); i >= 0 {
		dir = filepath.Join(f.root, filepath.FromSlash(norm[:i]))
	}

	var paths []string
	err := filepath.WalkDir(dir, func(p string, entry os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, norm) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	return paths, nil
}

func (f *fsStore) Delete(_ context.Context, p string) error {
	full, err := f.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve maps a store path to an absolute file path under root.
func (f *fsStore) resolve(p string) (string, error) {
	norm, ok := normalizePath(p)
	if !ok {
		return "", ErrInvalidPath
	}
	full := filepath.Join(f.root, filepath.FromSlash(norm))
	if !strings.HasPrefix(full, f.root+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

// -----------------------------------------------------------------------------
// Memory Store
// -----------------------------------------------------------------------------

// memoryStore implements Store on an in-memory map.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an in-memory Store. It is safe for concurrent use.
func NewMemory() Store {
	return &memoryStore{data: make(map[string][]byte)}
}

// NewMemoryFactory returns a StoreFactory that always yields the same
// in-memory store, so data written through one handle is visible to the next.
func NewMemoryFactory() StoreFactory {
	store := NewMemory()
	return func() (Store, error) { return store, nil }
}

func (m *memoryStore) Put(_ context.Context, p string, r io.Reader) error {
	norm, ok := normalizePath(p)
	if !ok {
		return ErrInvalidPath
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[norm]; exists {
		return ErrPathExists
	}
	m.data[norm] = data
	return nil
}

func (m *memoryStore) Get(_ context.Context, p string) (io.ReadCloser, error) {
	norm, ok := normalizePath(p)
	if !ok {
		return nil, ErrInvalidPath
	}

	m.mu.RLock()
	data, exists := m.data[norm]
	m.mu.RUnlock()
	if !exists {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(slices.Clone(data))), nil
}

func (m *memoryStore) Exists(_ context.Context, p string) (bool, error) {
	norm, ok := normalizePath(p)
	if !ok {
		return false, ErrInvalidPath
	}

	m.mu.RLock()
	_, exists := m.data[norm]
	m.mu.RUnlock()
	return exists, nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]string, error) {
	norm, ok := normalizePrefix(prefix)
	if !ok {
		return nil, ErrInvalidPath
	}

	m.mu.RLock()
	var paths []string
	for p := range m.data {
		if strings.HasPrefix(p, norm) {
			paths = append(paths, p)
		}
	}
	m.mu.RUnlock()

	slices.Sort(paths)
	return paths, nil
}

func (m *memoryStore) Delete(_ context.Context, p string) error {
	norm, ok := normalizePath(p)
	if !ok {
		return ErrInvalidPath
	}

	m.mu.Lock()
	delete(m.data, norm)
	m.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------
// Path normalization
// -----------------------------------------------------------------------------

// normalizePath cleans a file path. Leading slashes are dropped; empty paths
// and paths escaping the root are rejected.
func normalizePath(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	cleaned := strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
	if cleaned == "" || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}

// normalizePrefix cleans a list prefix. The empty prefix lists everything.
// A trailing slash is preserved so "a/" does not match "ab".
func normalizePrefix(p string) (string, bool) {
	if p == "" {
		return "", true
	}
	cleaned := strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
	if cleaned == "." || cleaned == "" {
		return "", true
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	if strings.HasSuffix(p, "/") {
		cleaned += "/"
	}
	return cleaned, true
}
