package jsonstore

import (
	"context"
	"errors"
	"io/fs"

	"github.com/haivivi/jsonstore/pkg/kv"
)

// Keychain is the flat secure-storage collaborator used by indexed
// backends. Entries are addressed by (key, service); keys come from a
// [encoding.KeyEncoder] and may use a restricted alphabet.
//
// Get and Remove must report a missing key with an error matching
// [ErrNotFound], [kv.ErrNotFound] or [fs.ErrNotExist].
type Keychain interface {
	Get(ctx context.Context, key, service string) (string, error)
	Set(ctx context.Context, key, service, value string) error
	Remove(ctx context.Context, key, service string) error
}

// KVKeychain adapts a [kv.Store] to the Keychain contract. Each entry is
// stored under kv.Key{service, key}.
type KVKeychain struct {
	Store kv.Store
}

// NewKVKeychain returns a Keychain backed by store.
func NewKVKeychain(store kv.Store) *KVKeychain {
	return &KVKeychain{Store: store}
}

func (k *KVKeychain) Get(ctx context.Context, key, service string) (string, error) {
	b, err := k.Store.Get(ctx, kv.Key{service, key})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (k *KVKeychain) Set(ctx context.Context, key, service, value string) error {
	return k.Store.Set(ctx, kv.Key{service, key}, []byte(value))
}

func (k *KVKeychain) Remove(ctx context.Context, key, service string) error {
	return k.Store.Delete(ctx, kv.Key{service, key})
}

// Close closes the underlying store.
func (k *KVKeychain) Close() error {
	return k.Store.Close()
}

// isNotFound reports whether err is a not-found report from any
// collaborator.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, kv.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
