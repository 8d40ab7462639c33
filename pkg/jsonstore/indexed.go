package jsonstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/haivivi/jsonstore/pkg/encoding"
)

// DefaultService is the keychain service name used by the keychain and
// cloud backends.
const DefaultService = "JSONStorage"

// IndexedOptions configures an IndexedBackend.
type IndexedOptions struct {
	// Name is the registry name. Required.
	Name string

	// Keychain is the flat store collaborator. A nil Keychain makes the
	// backend invalid.
	Keychain Keychain

	// Service namespaces every key. Default is DefaultService.
	Service string

	// KeyEncoder maps paths to keys. Default is encoding.Base64Key. It must
	// never produce IndexKey.
	KeyEncoder encoding.KeyEncoder

	// PollInterval is the wipe completion poll interval. Default is
	// DefaultPollInterval.
	PollInterval time.Duration

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// IndexedBackend stores JSON values in a flat key-value store and emulates
// directories with an index of every written path.
//
// The index is read and rewritten whole without locking, so two concurrent
// writers of different paths may lose one index update. An entry whose
// index update failed is still readable but not listed; the next write of
// the same path re-inserts it.
type IndexedBackend struct {
	name    string
	kc      Keychain
	service string
	keys    encoding.KeyEncoder
	log     *slog.Logger
	index   *indexManager
	wiper   *wipeCoordinator
}

// NewIndexedBackend creates an IndexedBackend.
func NewIndexedBackend(opts IndexedOptions) *IndexedBackend {
	b := &IndexedBackend{
		name:    opts.Name,
		kc:      opts.Keychain,
		service: opts.Service,
		keys:    opts.KeyEncoder,
		log:     opts.Logger,
	}
	if b.service == "" {
		b.service = DefaultService
	}
	if b.keys == nil {
		b.keys = encoding.Base64Key
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	b.log = b.log.With("backend", b.name)
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	b.index = &indexManager{kc: b.kc, service: b.service, log: b.log}
	b.wiper = &wipeCoordinator{
		index:    b.index,
		remove:   b.removeRaw,
		interval: interval,
		log:      b.log,
	}
	return b
}

// NewKeychainBackend creates the "keychain" backend over a secure store.
func NewKeychainBackend(kc Keychain, opts ...BackendOption) *IndexedBackend {
	return NewIndexedBackend(IndexedOptions{
		Name:       BackendKeychain,
		Keychain:   kc,
		KeyEncoder: encoding.Base64Key,
		Logger:     applyBackendOptions(opts).logger,
	})
}

// NewCloudBackend creates the "cloud" backend over a cloud key-value store.
func NewCloudBackend(kc Keychain, opts ...BackendOption) *IndexedBackend {
	return NewIndexedBackend(IndexedOptions{
		Name:       BackendCloud,
		Keychain:   kc,
		KeyEncoder: encoding.Base64URLKey,
		Logger:     applyBackendOptions(opts).logger,
	})
}

func (b *IndexedBackend) Name() string { return b.name }

func (b *IndexedBackend) IsValid() bool {
	return b.name != "" && b.kc != nil
}

func (b *IndexedBackend) ReadFile(ctx context.Context, path string) (Result, error) {
	raw, err := b.kc.Get(ctx, b.keys.EncodeKey(path), b.service)
	if err != nil {
		if isNotFound(err) {
			return fail(b.notFound("read", path, err))
		}
		b.log.Warn("read failed", "path", path, "error", err)
		return fail(b.backendErr("read", path, "unable to read file", err))
	}
	v, err := encoding.DecodeJSON(raw)
	if err != nil {
		return fail(&Error{
			Op: "read", Backend: b.name, Path: path, Kind: ErrDecode,
			Message: fmt.Sprintf("file %q is not valid JSON", path),
			Reason:  "unable to decode file", Err: err,
		})
	}
	return Succeeded(v), nil
}

// WriteFile stores the value, then makes sure path is in the index. An
// unreadable index is rebuilt from this single path.
func (b *IndexedBackend) WriteFile(ctx context.Context, path string, value any) (Result, error) {
	raw, err := encoding.EncodeJSON(value)
	if err != nil {
		return fail(&Error{
			Op: "write", Backend: b.name, Path: path, Kind: ErrEncode,
			Message: "value cannot be serialized to JSON", Err: err,
		})
	}
	if err := b.kc.Set(ctx, b.keys.EncodeKey(path), b.service, raw); err != nil {
		b.log.Warn("write failed", "path", path, "error", err)
		return fail(b.backendErr("write", path, "unable to write file", err))
	}

	ix, err := b.index.get(ctx)
	if err != nil {
		ix = Index{}
	}
	ix, added := ix.Insert(path)
	if added {
		if err := b.index.update(ctx, ix); err != nil {
			return fail(b.indexWriteErr("write", path, "file stored but index update failed", err))
		}
	}
	return Succeeded(value), nil
}

// RemoveFile removes the value, then drops path from the index. A path
// already absent from the store is still dropped from the index.
func (b *IndexedBackend) RemoveFile(ctx context.Context, path string) (Result, error) {
	if err := b.removeRaw(ctx, path); err != nil && !isNotFound(err) {
		b.log.Warn("remove failed", "path", path, "error", err)
		return fail(b.backendErr("remove", path, "unable to remove file", err))
	}

	ix, err := b.index.get(ctx)
	if err != nil {
		// An unreadable index cannot list the path either.
		return Succeeded(nil), nil
	}
	ix, removed := ix.Remove(path)
	if removed {
		if err := b.index.update(ctx, ix); err != nil {
			return fail(b.indexWriteErr("remove", path, "file removed but index update failed", err))
		}
	}
	return Succeeded(nil), nil
}

// ListFiles lists indexed paths under path. Unknown directories list as
// empty.
func (b *IndexedBackend) ListFiles(ctx context.Context, path string) (Result, error) {
	ix, err := b.index.get(ctx)
	if err != nil {
		return fail(&Error{
			Op: "list", Backend: b.name, Path: path, Kind: ErrIndexUnavailable,
			Message: "unable to read index", Reason: err.Error(), Err: err,
		})
	}
	return Succeeded(listPrefix(ix, path)), nil
}

// WipeData removes the index and every indexed entry.
func (b *IndexedBackend) WipeData(ctx context.Context) (Result, error) {
	failed, err := b.wiper.run(ctx)
	if err != nil {
		return fail(&Error{
			Op: "wipe", Backend: b.name, Kind: ErrWipeFailed,
			Message: "unable to wipe data", Reason: err.Error(), Err: err,
		})
	}
	if len(failed) > 0 {
		return fail(&Error{
			Op: "wipe", Backend: b.name, Kind: ErrWipeFailed,
			Message: fmt.Sprintf("failed to remove %d files", len(failed)),
			Reason:  fmt.Sprintf("failed to remove files: %v", failed),
			Paths:   failed,
		})
	}
	return Succeeded(nil), nil
}

func (b *IndexedBackend) removeRaw(ctx context.Context, path string) error {
	return b.kc.Remove(ctx, b.keys.EncodeKey(path), b.service)
}

func (b *IndexedBackend) notFound(op, path string, err error) *Error {
	return &Error{
		Op: op, Backend: b.name, Path: path, Kind: ErrNotFound,
		Message: fmt.Sprintf("file %q does not exist", path),
		Reason:  "file does not exist", Err: err,
	}
}

func (b *IndexedBackend) backendErr(op, path, msg string, err error) *Error {
	return &Error{
		Op: op, Backend: b.name, Path: path, Kind: ErrBackend,
		Message: msg, Reason: err.Error(), Err: err,
	}
}

func (b *IndexedBackend) indexWriteErr(op, path, msg string, err error) *Error {
	return &Error{
		Op: op, Backend: b.name, Path: path, Kind: ErrIndexWriteFailed,
		Message: msg, Reason: err.Error(), Err: err,
	}
}
