package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestWriteAndRead(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	const data = "hello, storage"
	if err := s.WriteFile(ctx, "a/b/file.txt", []byte(data)); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadFile(ctx, "a/b/file.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != data {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestReadNotExist(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	_, err := s.ReadFile(ctx, "no-such-file")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	// Delete a file that doesn't exist, should succeed.
	if err := s.Delete(ctx, "ghost"); err != nil {
		t.Fatal(err)
	}

	// Write then delete.
	if err := s.WriteFile(ctx, "tmp", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "tmp"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.ReadFile(ctx, "tmp"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("file should be gone after delete, got %v", err)
	}

	// Delete again, idempotent.
	if err := s.Delete(ctx, "tmp"); err != nil {
		t.Fatal(err)
	}
}

func TestWriteTruncates(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	if err := s.WriteFile(ctx, "f", []byte("long content here")); err != nil {
		t.Fatal(err)
	}
	// Overwrite with shorter data.
	if err := s.WriteFile(ctx, "f", []byte("short")); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadFile(ctx, "f")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "short" {
		t.Fatalf("got %q, want %q", got, "short")
	}

	// No temporary files are left next to the target.
	entries, err := os.ReadDir(s.root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, got %d entries", len(entries))
	}
}

func TestList(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	for _, p := range []string{"foo/bar/b.json", "foo/bar/a.json", "foo/top.json", "foo/bar/deeper/c.json"} {
		if err := s.WriteFile(ctx, p, []byte("{}")); err != nil {
			t.Fatal(err)
		}
	}
	// A stray temp file from an interrupted write.
	if err := os.WriteFile(filepath.Join(s.root, "foo", "bar", ".x.json.tmp-123"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := s.List(ctx, "foo/bar")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.json", "b.json"}; !slices.Equal(got, want) {
		t.Fatalf("List foo/bar = %v, want %v", got, want)
	}

	got, err = s.List(ctx, "foo")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"top.json"}; !slices.Equal(got, want) {
		t.Fatalf("List foo = %v, want %v", got, want)
	}

	got, err = s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("List root = %v, want empty", got)
	}

	_, err = s.List(ctx, "nonexistent/path")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestWipe(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	// Wiping an empty store succeeds.
	if err := s.Wipe(ctx); err != nil {
		t.Fatal(err)
	}

	if err := s.WriteFile(ctx, "a/b/c.json", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Wipe(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ReadFile(ctx, "a/b/c.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("file should be gone after wipe, got %v", err)
	}
	names, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("root should exist after wipe: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("List root = %v, want empty", names)
	}
}

func TestInvalidPath(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	for _, p := range []string{"../escape", "a/../../escape", "/abs"} {
		if err := s.WriteFile(ctx, p, []byte("x")); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("WriteFile(%q) error = %v; want ErrInvalidPath", p, err)
		}
		if _, err := s.ReadFile(ctx, p); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ReadFile(%q) error = %v; want ErrInvalidPath", p, err)
		}
	}
	if err := s.WriteFile(ctx, "", []byte("x")); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("WriteFile(\"\") error = %v; want ErrInvalidPath", err)
	}
}

func TestNewLocalCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	s, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(s.Root())
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Fatal("expected directory")
	}
}
