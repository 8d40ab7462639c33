package jsonstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/haivivi/jsonstore/pkg/encoding"
	"github.com/haivivi/jsonstore/pkg/storage"
)

// fileIndent is the indentation of files written by FileBackend.
const fileIndent = "    "

// FileBackend stores each value as a pretty-printed JSON file in a
// [storage.FileStore]. Directories are real, so no index is kept.
//
// The "local" backend uses the local filesystem and the "dropbox" backend a
// Dropbox app folder; both share this implementation.
type FileBackend struct {
	name  string
	fs    storage.FileStore
	valid bool
	log   *slog.Logger
}

// NewLocalBackend creates the "local" backend over fs. A nil fs makes the
// backend invalid.
func NewLocalBackend(fs storage.FileStore, opts ...BackendOption) *FileBackend {
	return newFileBackend(BackendLocal, fs, fs != nil, opts)
}

// NewDropboxBackend creates the "dropbox" backend over fs. The backend is
// valid only when an app key is configured and fs is not nil.
func NewDropboxBackend(fs storage.FileStore, appKey string, opts ...BackendOption) *FileBackend {
	return newFileBackend(BackendDropbox, fs, fs != nil && appKey != "", opts)
}

func newFileBackend(name string, fs storage.FileStore, valid bool, opts []BackendOption) *FileBackend {
	o := applyBackendOptions(opts)
	return &FileBackend{
		name:  name,
		fs:    fs,
		valid: valid,
		log:   o.logger.With("backend", name),
	}
}

func (f *FileBackend) Name() string { return f.name }

func (f *FileBackend) IsValid() bool { return f.valid }

func (f *FileBackend) ReadFile(ctx context.Context, path string) (Result, error) {
	data, err := f.fs.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(&Error{
				Op: "read", Backend: f.name, Path: path, Kind: ErrNotFound,
				Message: "unable to read file",
				Reason:  fmt.Sprintf("%s does not exist or is not readable", path),
				Err:     err,
			})
		}
		return fail(f.backendErr("read", path, "unable to read file", err))
	}
	v, err := encoding.DecodeJSON(string(data))
	if err != nil {
		return fail(&Error{
			Op: "read", Backend: f.name, Path: path, Kind: ErrDecode,
			Message: "unable to read file",
			Reason:  fmt.Sprintf("failed to parse %s", path), Err: err,
		})
	}
	return Succeeded(v), nil
}

func (f *FileBackend) WriteFile(ctx context.Context, path string, value any) (Result, error) {
	raw, err := encoding.EncodeJSONIndent(value, fileIndent)
	if err != nil {
		return fail(&Error{
			Op: "write", Backend: f.name, Path: path, Kind: ErrEncode,
			Message: "failed to serialize JSON", Err: err,
		})
	}
	if err := f.fs.WriteFile(ctx, path, []byte(raw)); err != nil {
		return fail(f.backendErr("write", path, "failed to write JSON", err))
	}
	return Succeeded(value), nil
}

func (f *FileBackend) RemoveFile(ctx context.Context, path string) (Result, error) {
	if err := f.fs.Delete(ctx, path); err != nil {
		return fail(f.backendErr("remove", path, "unable to remove file", err))
	}
	return Succeeded(nil), nil
}

func (f *FileBackend) ListFiles(ctx context.Context, path string) (Result, error) {
	names, err := f.fs.List(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(&Error{
				Op: "list", Backend: f.name, Path: path, Kind: ErrDirectoryNotFound,
				Message: "directory missing",
				Reason:  fmt.Sprintf("directory %q does not exist", path),
				Err:     err,
			})
		}
		return fail(f.backendErr("list", path, "unable to list directory", err))
	}
	if names == nil {
		names = []string{}
	}
	return Succeeded(names), nil
}

func (f *FileBackend) WipeData(ctx context.Context) (Result, error) {
	if err := f.fs.Wipe(ctx); err != nil {
		return fail(f.backendErr("wipe", "", "failed to wipe data", err))
	}
	return Succeeded(nil), nil
}

func (f *FileBackend) backendErr(op, path, msg string, err error) *Error {
	f.log.Warn(op+" failed", "path", path, "error", err)
	return &Error{
		Op: op, Backend: f.name, Path: path, Kind: ErrBackend,
		Message: msg, Reason: err.Error(), Err: err,
	}
}
