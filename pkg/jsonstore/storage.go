package jsonstore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is the lifecycle state of a Storage.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Option configures a Storage.
type Option func(*Storage)

// WithLogger sets the logger of the facade. If not set, slog.Default() is
// used. Backends take their own logger, see [WithBackendLogger].
func WithLogger(l *slog.Logger) Option {
	return func(s *Storage) { s.log.Store(l) }
}

// WithDebug turns on diagnostic logging from the start.
func WithDebug(debug bool) Option {
	return func(s *Storage) { s.debug.Store(debug) }
}

// CallOption configures a single operation.
type CallOption func(*callOptions)

type callOptions struct {
	backend string
}

// WithBackend runs the operation on the named backend. An unknown name
// falls back to the default backend with a warning; it is not an error.
// This differs from SetDefaultBackend, which rejects unknown names.
func WithBackend(name string) CallOption {
	return func(o *callOptions) { o.backend = name }
}

// Storage is the public entry point. It owns a registry of valid backends
// and a default backend name.
//
// The registry is built once, on the first call to Init or to any
// operation. Each operation resolves its backend once at entry, so
// switching the default while operations are in flight is safe.
type Storage struct {
	candidates []Backend
	log        atomic.Pointer[slog.Logger]
	debug      atomic.Bool

	once  sync.Once
	state atomic.Int32

	mu          sync.RWMutex
	backends    map[string]Backend
	names       []string
	defaultName string
}

// New creates a Storage over the given candidate backends. Candidates are
// probed with IsValid on first use; invalid ones are left out. When two
// candidates share a name, the first valid one wins.
func New(candidates []Backend, opts ...Option) *Storage {
	s := &Storage{
		candidates: slices.Clone(candidates),
		backends:   make(map[string]Backend),
	}
	s.SetOptions(opts...)
	return s
}

// SetOptions applies opts to a Storage that may already be in use. The
// changes take effect from the next call.
func (s *Storage) SetOptions(opts ...Option) {
	for _, opt := range opts {
		opt(s)
	}
}

func (s *Storage) logger() *slog.Logger {
	if l := s.log.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Init builds the backend registry. Calling it again is a no-op.
func (s *Storage) Init() {
	s.once.Do(s.init)
}

func (s *Storage) init() {
	s.state.Store(int32(StateInitializing))
	s.logger().Info("jsonstore: initializing")

	s.mu.Lock()
	for _, be := range s.candidates {
		if be == nil || be.Name() == "" {
			continue
		}
		name := be.Name()
		if s.debug.Load() {
			s.logger().Info("jsonstore: checking backend", "backend", name)
		}
		if !be.IsValid() {
			s.logger().Info("jsonstore: backend is not valid", "backend", name)
			continue
		}
		if _, dup := s.backends[name]; dup {
			continue
		}
		s.backends[name] = be
		s.names = append(s.names, name)
	}
	if _, ok := s.backends[BackendKeychain]; ok {
		s.defaultName = BackendKeychain
	} else {
		s.defaultName = BackendLocal
	}
	names := slices.Clone(s.names)
	s.mu.Unlock()

	s.logger().Info("jsonstore: configured backends", "backends", names, "default", s.DefaultBackendName())
	s.state.Store(int32(StateReady))
}

// State returns the lifecycle state.
func (s *Storage) State() State {
	return State(s.state.Load())
}

// SetDebug toggles diagnostic logging and returns the new setting.
func (s *Storage) SetDebug(debug bool) bool {
	s.debug.Store(debug)
	return debug
}

// Debug reports whether diagnostic logging is on.
func (s *Storage) Debug() bool {
	return s.debug.Load()
}

// DefaultBackend returns the name of the default backend.
func (s *Storage) DefaultBackend() string {
	s.Init()
	return s.DefaultBackendName()
}

// DefaultBackendName returns the default backend name without
// initializing; it is "" before Init.
func (s *Storage) DefaultBackendName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultName
}

// SetDefaultBackend makes name the default backend. Unknown names fail with
// ErrUnknownBackend and leave the default unchanged.
func (s *Storage) SetDefaultBackend(name string) (Result, error) {
	s.Init()
	s.mu.Lock()
	if _, ok := s.backends[name]; !ok {
		available := slices.Clone(s.names)
		s.mu.Unlock()
		s.logger().Warn("jsonstore: unknown backend", "backend", name, "available", available)
		return fail(&Error{
			Op: "set-default", Backend: name, Kind: ErrUnknownBackend,
			Message: fmt.Sprintf("unknown backend %q", name),
			Reason:  fmt.Sprintf("available backends: %v", available),
		})
	}
	s.defaultName = name
	s.mu.Unlock()
	if s.debug.Load() {
		s.logger().Info("jsonstore: default backend set", "backend", name)
	}
	return Succeeded(name), nil
}

// Backends returns the names of the registered backends in priority order.
func (s *Storage) Backends() []string {
	s.Init()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.names)
}

// Lookup returns the registered backend with the given name, without any
// fallback.
func (s *Storage) Lookup(name string) (Backend, bool) {
	s.Init()
	s.mu.RLock()
	defer s.mu.RUnlock()
	be, ok := s.backends[name]
	return be, ok
}

// Backend resolves a backend for a call: the named one if registered,
// otherwise the default. An empty name means the default.
func (s *Storage) Backend(name string) (Backend, error) {
	s.Init()
	s.mu.RLock()
	def := s.defaultName
	be, known := s.backends[name]
	if !known {
		be = s.backends[def]
	}
	s.mu.RUnlock()

	if name != "" && !known {
		s.logger().Warn("jsonstore: unknown backend, falling back to default", "backend", name, "default", def)
	}
	if be == nil {
		return nil, &Error{
			Op: "resolve", Backend: def, Kind: ErrNoBackend,
			Message: fmt.Sprintf("backend %q is not available", def),
		}
	}
	return be, nil
}

// ReadFile reads the value at path. Contents is the decoded JSON value.
func (s *Storage) ReadFile(ctx context.Context, path string, opts ...CallOption) (Result, error) {
	return s.dispatch(ctx, "read", path, opts, func(ctx context.Context, be Backend) (Result, error) {
		return be.ReadFile(ctx, path)
	})
}

// WriteFile stores value at path.
func (s *Storage) WriteFile(ctx context.Context, path string, value any, opts ...CallOption) (Result, error) {
	return s.dispatch(ctx, "write", path, opts, func(ctx context.Context, be Backend) (Result, error) {
		return be.WriteFile(ctx, path, value)
	})
}

// RemoveFile removes the value at path.
func (s *Storage) RemoveFile(ctx context.Context, path string, opts ...CallOption) (Result, error) {
	return s.dispatch(ctx, "remove", path, opts, func(ctx context.Context, be Backend) (Result, error) {
		return be.RemoveFile(ctx, path)
	})
}

// ListFiles lists the directory path. Contents is a []string. See the
// package documentation for how backends differ.
func (s *Storage) ListFiles(ctx context.Context, path string, opts ...CallOption) (Result, error) {
	return s.dispatch(ctx, "list", path, opts, func(ctx context.Context, be Backend) (Result, error) {
		return be.ListFiles(ctx, path)
	})
}

// WipeData removes everything stored in the backend.
func (s *Storage) WipeData(ctx context.Context, opts ...CallOption) (Result, error) {
	return s.dispatch(ctx, "wipe", "", opts, func(ctx context.Context, be Backend) (Result, error) {
		return be.WipeData(ctx)
	})
}

// dispatch resolves the backend and runs fn, returning the backend's
// result unchanged.
func (s *Storage) dispatch(ctx context.Context, op, path string, opts []CallOption, fn func(context.Context, Backend) (Result, error)) (Result, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	be, err := s.Backend(o.backend)
	if err != nil {
		return ResultOf(err), err
	}
	if !s.debug.Load() {
		return fn(ctx, be)
	}

	log := s.logger().With("op", op, "id", uuid.NewString(), "backend", be.Name())
	log.Info("jsonstore: call", "path", path)
	res, err := fn(ctx, be)
	if err != nil {
		log.Info("jsonstore: failure", "error", res.Error, "reason", res.Reason)
	} else {
		log.Info("jsonstore: success")
	}
	return res, err
}
