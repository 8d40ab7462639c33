// Package kv provides a flat key-value store interface with hierarchical
// path-based keys. Keys are represented as string slices (e.g.,
// ["JSONStorage", "Zm9v"]) and encoded internally using a configurable
// separator (default ':').
//
// The stores in this package are the raw primitives behind the indexed
// jsonstore backends: they can get, set and delete single keys but know
// nothing about directories. The package includes a BadgerDB-backed
// implementation (optionally encrypted at rest), an S3-backed implementation
// for cloud storage, and an in-memory implementation for testing.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("kv: not found")

	// ErrInvalidKey is returned when a key segment contains the separator.
	ErrInvalidKey = errors.New("kv: invalid key")
)

// Key is a hierarchical path represented as a slice of string segments.
// For example, Key{"JSONStorage", "Zm9v"} encodes to "JSONStorage:Zm9v"
// using the default separator ':'.
//
// Segments must not contain the configured separator character.
type Key []string

// String returns the key as a human-readable string using ':' as separator.
// This is for display/debug only; use Options.encode for storage encoding.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Store is the interface for a flat key-value store with path-based keys.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair. Overwrites any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. Returns ErrNotFound if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// Close releases any resources held by the store.
	Close() error
}

// DefaultSeparator is the default separator byte used to encode key segments.
const DefaultSeparator byte = ':'

// Options configures store behavior.
type Options struct {
	// Separator is the byte used to join key segments when encoding to storage.
	// Default is ':' if zero.
	Separator byte
}

// sep returns the effective separator.
func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

// encode converts a Key to its byte representation using the separator.
func (o *Options) encode(k Key) ([]byte, error) {
	s := o.sep()
	// Calculate total length to avoid allocations.
	n := 0
	for i, seg := range k {
		if strings.IndexByte(seg, s) >= 0 {
			return nil, fmt.Errorf("%w: segment %q contains separator %q", ErrInvalidKey, seg, s)
		}
		if i > 0 {
			n++ // separator
		}
		n += len(seg)
	}
	buf := make([]byte, n)
	pos := 0
	for i, seg := range k {
		if i > 0 {
			buf[pos] = s
			pos++
		}
		pos += copy(buf[pos:], seg)
	}
	return buf, nil
}
