package reidset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// storeCases runs a test against every built-in Store implementation.
func storeCases(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Helper()

	t.Run("fs", func(t *testing.T) {
		store, err := NewFS(t.TempDir())
		if err != nil {
			t.Fatalf("NewFS failed: %v", err)
		}
		fn(t, store)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
}

func readAll(t *testing.T, store Store, p string) string {
	t.Helper()

	rc, err := store.Get(t.Context(), p)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", p, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %q failed: %v", p, err)
	}
	return string(data)
}

// -----------------------------------------------------------------------------
// Write-once semantics
// -----------------------------------------------------------------------------

func TestStore_PutGet(t *testing.T) {
	storeCases(t, func(t *testing.T, store Store) {
		ctx := t.Context()
		if err := store.Put(ctx, "a/b/c.txt", strings.NewReader("hello")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if got := readAll(t, store, "a/b/c.txt"); got != "hello" {
			t.Errorf("Get = %q, want hello", got)
		}
		if got := readAll(t, store, "/a/b/c.txt"); got != "hello" {
			t.Errorf("leading slash: Get = %q, want hello", got)
		}
	})
}

func TestStore_PutExisting(t *testing.T) {
	storeCases(t, func(t *testing.T, store Store) {
		ctx := t.Context()
		if err := store.Put(ctx, "x.txt", strings.NewReader("first")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		err := store.Put(ctx, "x.txt", strings.NewReader("second"))
		if !errors.Is(err, ErrPathExists) {
			t.Fatalf("expected ErrPathExists, got %v", err)
		}
		if got := readAll(t, store, "x.txt"); got != "first" {
			t.Errorf("content overwritten: %q", got)
		}
	})
}

func TestStore_GetMissing(t *testing.T) {
	storeCases(t, func(t *testing.T, store Store) {
		if _, err := store.Get(t.Context(), "missing.txt"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_Exists(t *testing.T) {
	storeCases(t, func(t *testing.T, store Store) {
		ctx := t.Context()
		if err := store.Put(ctx, "dir/file.txt", bytes.NewReader(nil)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		for p, want := range map[string]bool{
			"dir/file.txt": true,
			"dir/other":    false,
			"dir":          false,
		} {
			got, err := store.Exists(ctx, p)
			if err != nil {
				t.Fatalf("Exists(%q) failed: %v", p, err)
			}
			if got != want {
				t.Errorf("Exists(%q) = %v, want %v", p, got, want)
			}
		}
	})
}

func TestStore_Delete(t *testing.T) {
	storeCases(t, func(t *testing.T, store Store) {
		ctx := t.Context()
		if err := store.Put(ctx, "d.txt", strings.NewReader("x")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := store.Delete(ctx, "d.txt"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete(ctx, "d.txt"); err != nil {
			t.Errorf("second Delete failed: %v", err)
		}
		if ok, _ := store.Exists(ctx, "d.txt"); ok {
			t.Error("file still exists after Delete")
		}
	})
}

// -----------------------------------------------------------------------------
// Listing
// -----------------------------------------------------------------------------

func TestStore_List(t *testing.T) {
	storeCases(t, func(t *testing.T, store Store) {
		ctx := t.Context()
		for _, p := range []string{"a/2.txt", "a/1.txt", "a/sub/3.txt", "ab/4.txt", "b/5.txt"} {
			if err := store.Put(ctx, p, strings.NewReader(p)); err != nil {
				t.Fatalf("Put(%q) failed: %v", p, err)
			}
		}

		tests := []struct {
			prefix string
			want   []string
		}{
			{"a/", []string{"a/1.txt", "a/2.txt", "a/sub/3.txt"}},
			{"a", []string{"a/1.txt", "a/2.txt", "a/sub/3.txt", "ab/4.txt"}},
			{"a/sub/", []string{"a/sub/3.txt"}},
			{"missing/", nil},
			{"", []string{"a/1.txt", "a/2.txt", "a/sub/3.txt", "ab/4.txt", "b/5.txt"}},
		}
		for _, tt := range tests {
			got, err := store.List(ctx, tt.prefix)
			if err != nil {
				t.Fatalf("List(%q) failed: %v", tt.prefix, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("List(%q) mismatch (-want +got):\n%s", tt.prefix, diff)
			}
		}
	})
}

// -----------------------------------------------------------------------------
// Path safety
// -----------------------------------------------------------------------------

func TestStore_RejectsEscapingPaths(t *testing.T) {
	storeCases(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		for _, p := range []string{"", "..", "../x", "a/../../x", "."} {
			if err := store.Put(ctx, p, strings.NewReader("x")); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Put(%q): expected ErrInvalidPath, got %v", p, err)
			}
			if _, err := store.Get(ctx, p); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Get(%q): expected ErrInvalidPath, got %v", p, err)
			}
		}
		if _, err := store.List(ctx, "../"); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("List: expected ErrInvalidPath, got %v", err)
		}
	})
}

func TestNewFS_MissingRoot(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing root")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFS(file); err == nil {
		t.Error("expected error for file root")
	}
}

func TestNewMemoryFactory_SharesStore(t *testing.T) {
	factory := NewMemoryFactory()
	a, _ := factory()
	b, _ := factory()

	if err := a.Put(t.Context(), "shared.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if ok, _ := b.Exists(t.Context(), "shared.txt"); !ok {
		t.Error("second handle does not see first handle's write")
	}
}
