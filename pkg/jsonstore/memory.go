package jsonstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/haivivi/jsonstore/pkg/encoding"
)

// tombstone marks a removed path. It is not valid JSON, so it never
// collides with an encoded value.
const tombstone = "\x00"

// MemoryBackend keeps values in process memory. It is intended for tests.
//
// Values are stored encoded, so callers cannot mutate stored data through
// the values they wrote or read. Removed paths stay as tombstones: a
// directory whose files were all removed still exists and lists as empty.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string)}
}

func (m *MemoryBackend) Name() string { return BackendMemory }

func (m *MemoryBackend) IsValid() bool { return true }

func (m *MemoryBackend) ReadFile(_ context.Context, path string) (Result, error) {
	m.mu.RLock()
	raw, ok := m.data[path]
	m.mu.RUnlock()
	if !ok || raw == tombstone {
		return fail(&Error{
			Op: "read", Backend: BackendMemory, Path: path, Kind: ErrNotFound,
			Message: fmt.Sprintf("file %q does not exist", path),
			Reason:  "file does not exist",
		})
	}
	v, err := encoding.DecodeJSON(raw)
	if err != nil {
		return fail(&Error{
			Op: "read", Backend: BackendMemory, Path: path, Kind: ErrDecode,
			Message: fmt.Sprintf("file %q is not valid JSON", path),
			Reason:  "unable to decode file", Err: err,
		})
	}
	return Succeeded(v), nil
}

func (m *MemoryBackend) WriteFile(_ context.Context, path string, value any) (Result, error) {
	raw, err := encoding.EncodeJSON(value)
	if err != nil {
		return fail(&Error{
			Op: "write", Backend: BackendMemory, Path: path, Kind: ErrEncode,
			Message: "value cannot be serialized to JSON", Err: err,
		})
	}
	m.mu.Lock()
	m.data[path] = raw
	m.mu.Unlock()
	return Succeeded(value), nil
}

// RemoveFile tombstones path and returns the previous value, if any, as
// Contents. Removing a missing path succeeds.
func (m *MemoryBackend) RemoveFile(_ context.Context, path string) (Result, error) {
	m.mu.Lock()
	old, ok := m.data[path]
	if ok {
		m.data[path] = tombstone
	}
	m.mu.Unlock()
	if !ok || old == tombstone {
		return Succeeded(nil), nil
	}
	v, err := encoding.DecodeJSON(old)
	if err != nil {
		return Succeeded(nil), nil
	}
	return Succeeded(v), nil
}

// ListFiles returns the immediate, non-removed children of path, sorted. It
// fails with ErrDirectoryNotFound when no key, removed or not, starts with
// path.
func (m *MemoryBackend) ListFiles(_ context.Context, path string) (Result, error) {
	prefix := path
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	m.mu.RLock()
	found := false
	ret := make([]string, 0)
	for key, raw := range m.data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		found = true
		if raw == tombstone {
			continue
		}
		if name := key[len(prefix):]; !strings.Contains(name, "/") {
			ret = append(ret, name)
		}
	}
	m.mu.RUnlock()

	if !found {
		return fail(&Error{
			Op: "list", Backend: BackendMemory, Path: path, Kind: ErrDirectoryNotFound,
			Message: fmt.Sprintf("directory %q does not exist", prefix),
			Reason:  "directory does not exist",
		})
	}
	slices.Sort(ret)
	return Succeeded(ret), nil
}

func (m *MemoryBackend) WipeData(_ context.Context) (Result, error) {
	m.mu.Lock()
	m.data = make(map[string]string)
	m.mu.Unlock()
	return Succeeded(nil), nil
}
