package jsonstore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/haivivi/jsonstore/pkg/encoding"
)

// IndexKey is the reserved key holding the index of an indexed backend. It
// is stored verbatim, not through the key encoder.
const IndexKey = "_index"

// Index is the sorted set of paths known to an indexed backend.
type Index []string

// Contains reports whether path is in the index.
func (ix Index) Contains(path string) bool {
	_, ok := slices.BinarySearch(ix, path)
	return ok
}

// Insert returns the index with path added in sort order and whether it was
// added. An index already containing path is returned unchanged.
func (ix Index) Insert(path string) (Index, bool) {
	i, ok := slices.BinarySearch(ix, path)
	if ok {
		return ix, false
	}
	return slices.Insert(ix, i, path), true
}

// Remove returns the index without path and whether it was present.
func (ix Index) Remove(path string) (Index, bool) {
	i, ok := slices.BinarySearch(ix, path)
	if !ok {
		return ix, false
	}
	return slices.Delete(ix, i, i+1), true
}

// normalize sorts and deduplicates an index read from storage. Stored
// indexes are normally sorted already; this keeps binary search valid when
// they are not.
func (ix Index) normalize() Index {
	if !slices.IsSorted(ix) {
		slices.Sort(ix)
	}
	return slices.Compact(ix)
}

// indexManager owns the reserved index key of one (keychain, service) pair.
type indexManager struct {
	kc      Keychain
	service string
	log     *slog.Logger
}

// get reads the index. A missing index is an empty index, not an error.
// Any other failure, including an undecodable index, is
// ErrIndexUnavailable.
func (m *indexManager) get(ctx context.Context) (Index, error) {
	raw, err := m.kc.Get(ctx, IndexKey, m.service)
	if err != nil {
		if isNotFound(err) {
			return Index{}, nil
		}
		m.log.Warn("index read failed", "service", m.service, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	var ix Index
	if err := encoding.DecodeJSONInto(raw, &ix); err != nil {
		m.log.Warn("index decode failed", "service", m.service, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	if ix == nil {
		ix = Index{}
	}
	return ix.normalize(), nil
}

// update replaces the stored index.
func (m *indexManager) update(ctx context.Context, ix Index) error {
	if ix == nil {
		ix = Index{}
	}
	raw, err := encoding.EncodeJSON(ix)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexWriteFailed, err)
	}
	if err := m.kc.Set(ctx, IndexKey, m.service, raw); err != nil {
		m.log.Warn("index update failed", "service", m.service, "error", err)
		return fmt.Errorf("%w: %w", ErrIndexWriteFailed, err)
	}
	return nil
}

// clear deletes the index key. An already absent index counts as cleared.
func (m *indexManager) clear(ctx context.Context) error {
	err := m.kc.Remove(ctx, IndexKey, m.service)
	if err == nil || isNotFound(err) {
		return nil
	}
	m.log.Warn("index clear failed", "service", m.service, "error", err)
	return err
}
