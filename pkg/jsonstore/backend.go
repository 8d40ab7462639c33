package jsonstore

import (
	"context"
	"log/slog"
)

// Well-known backend names.
const (
	BackendDropbox  = "dropbox"
	BackendKeychain = "keychain"
	BackendCloud    = "cloud"
	BackendLocal    = "local"
	BackendMemory   = "memory"
)

// Backend is one concrete storage implementation.
//
// Each operation returns a Result and a matching error: on success the
// error is nil and Result.Success is true; on failure the error is an
// [*Error] and the Result carries its message.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string

	// IsValid reports whether the backend can be used in this process.
	IsValid() bool

	// ReadFile returns the decoded value stored at path as Contents.
	ReadFile(ctx context.Context, path string) (Result, error)

	// WriteFile stores value at path, replacing any previous value.
	WriteFile(ctx context.Context, path string, value any) (Result, error)

	// RemoveFile removes the value at path. Removing a missing path
	// succeeds.
	RemoveFile(ctx context.Context, path string) (Result, error)

	// ListFiles returns the names under the directory path as a []string
	// in Contents.
	ListFiles(ctx context.Context, path string) (Result, error)

	// WipeData removes every value held by the backend.
	WipeData(ctx context.Context) (Result, error)
}

// Compile-time interface checks.
var (
	_ Backend = (*IndexedBackend)(nil)
	_ Backend = (*MemoryBackend)(nil)
	_ Backend = (*FileBackend)(nil)
)

// BackendOption configures a backend constructor.
type BackendOption func(*backendOptions)

type backendOptions struct {
	logger *slog.Logger
}

// WithBackendLogger sets the logger a backend reports failures to. If not
// set, slog.Default() is used.
func WithBackendLogger(l *slog.Logger) BackendOption {
	return func(o *backendOptions) { o.logger = l }
}

func applyBackendOptions(opts []BackendOption) backendOptions {
	var o backendOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
