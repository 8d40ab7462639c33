// Package storage defines the FileStore interface for reading and writing
// whole files under a root directory. It is the native filesystem
// collaborator behind the jsonstore "local" backend: unlike the flat
// key-value stores in package kv, it has real directories, so listing needs
// no index.
package storage

import (
	"context"
	"errors"
)

// ErrInvalidPath is returned for paths that would escape the store root.
var ErrInvalidPath = errors.New("storage: invalid path")

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root; the
// root directory itself is "". Implementations must be safe for concurrent
// use.
type FileStore interface {
	// ReadFile returns the contents of the named file.
	// If the file does not exist, an error wrapping fs.ErrNotExist is returned.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile replaces the named file with data. The replacement is
	// atomic: readers see either the old or the new contents.
	// Parent directories are created automatically.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Delete removes the named file.
	// If the file does not exist, Delete returns nil (idempotent).
	Delete(ctx context.Context, path string) error

	// List returns the names of the regular files directly inside the named
	// directory, sorted. Subdirectories are not included.
	// If the directory does not exist, an error wrapping fs.ErrNotExist is
	// returned.
	List(ctx context.Context, dir string) ([]string, error)

	// Wipe removes every file and directory under the root. Wiping an
	// empty store succeeds.
	Wipe(ctx context.Context) error
}
