package jsonstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/haivivi/jsonstore/pkg/encoding"
	"github.com/haivivi/jsonstore/pkg/kv"
)

var errInjected = errors.New("injected failure")

// faultyKeychain wraps a kv-backed keychain and fails selected calls. Keys
// are raw (already encoded) keys.
type faultyKeychain struct {
	base *KVKeychain

	mu          sync.Mutex
	getErr      map[string]error
	setErr      map[string]error
	removeErr   map[string]error
	removeDelay time.Duration // entries only, never the index
	removes     int
}

func newFaultyKeychain() *faultyKeychain {
	return &faultyKeychain{
		base:      NewKVKeychain(kv.NewMemory(nil)),
		getErr:    make(map[string]error),
		setErr:    make(map[string]error),
		removeErr: make(map[string]error),
	}
}

func (f *faultyKeychain) failGet(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr[key] = err
}

func (f *faultyKeychain) failSet(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setErr[key] = err
}

func (f *faultyKeychain) failRemove(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeErr[key] = err
}

func (f *faultyKeychain) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.getErr)
	clear(f.setErr)
	clear(f.removeErr)
}

func (f *faultyKeychain) removeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removes
}

func (f *faultyKeychain) Get(ctx context.Context, key, service string) (string, error) {
	f.mu.Lock()
	err := f.getErr[key]
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return f.base.Get(ctx, key, service)
}

func (f *faultyKeychain) Set(ctx context.Context, key, service, value string) error {
	f.mu.Lock()
	err := f.setErr[key]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.base.Set(ctx, key, service, value)
}

func (f *faultyKeychain) Remove(ctx context.Context, key, service string) error {
	f.mu.Lock()
	err := f.removeErr[key]
	delay := f.removeDelay
	f.removes++
	f.mu.Unlock()
	if delay > 0 && key != IndexKey {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	return f.base.Remove(ctx, key, service)
}

// quietLogger discards all log output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestIndexed creates a keychain-style IndexedBackend over a
// faultyKeychain with a short poll interval.
func newTestIndexed(t *testing.T) (*IndexedBackend, *faultyKeychain) {
	t.Helper()
	kc := newFaultyKeychain()
	b := NewIndexedBackend(IndexedOptions{
		Name:         BackendKeychain,
		Keychain:     kc,
		PollInterval: 5 * time.Millisecond,
		Logger:       quietLogger(),
	})
	return b, kc
}

// key returns the raw key the keychain backend uses for path.
func key(path string) string {
	return encoding.Base64Key.EncodeKey(path)
}

// mustOK returns a checker that fails the test unless the operation
// succeeded. It is curried so a (Result, error) call can be passed directly:
//
//	mustOK(t)(b.WriteFile(ctx, path, v))
func mustOK(t *testing.T) func(Result, error) Result {
	t.Helper()
	return func(res Result, err error) Result {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success {
			t.Fatalf("unexpected failure result: %+v", res)
		}
		return res
	}
}

// mustFail fails the test unless the operation failed with kind.
func mustFail(t *testing.T, res Result, err error, kind error) Result {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v; want %v", err, kind)
	}
	if res.Success {
		t.Fatalf("result should not be successful: %+v", res)
	}
	if res.Error == "" {
		t.Fatalf("failure result should carry an error message: %+v", res)
	}
	return res
}

// listed returns the []string contents of a listing result.
func listed(t *testing.T, res Result) []string {
	t.Helper()
	names, ok := res.Contents.([]string)
	if !ok {
		t.Fatalf("contents = %#v; want []string", res.Contents)
	}
	return names
}
