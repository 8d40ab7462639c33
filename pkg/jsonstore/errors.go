package jsonstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haivivi/jsonstore/pkg/encoding"
)

// Sentinel errors. Every error returned by this package is an [*Error]
// whose Kind is one of these.
var (
	// ErrNotFound is returned when the requested path or key is absent.
	ErrNotFound = errors.New("jsonstore: not found")

	// ErrDecode is returned when a stored value is not valid JSON.
	ErrDecode = encoding.ErrDecode

	// ErrEncode is returned when a value cannot be serialized to JSON.
	ErrEncode = errors.New("jsonstore: cannot encode value")

	// ErrDirectoryNotFound is returned by FileBackend and MemoryBackend
	// when listing a directory that does not exist.
	ErrDirectoryNotFound = errors.New("jsonstore: directory not found")

	// ErrIndexUnavailable is returned when an indexed backend cannot read
	// its index.
	ErrIndexUnavailable = errors.New("jsonstore: index unavailable")

	// ErrIndexWriteFailed is returned when the index could not be persisted
	// after a successful write or remove. The entry itself may exist in the
	// backend without being listable.
	ErrIndexWriteFailed = errors.New("jsonstore: index write failed")

	// ErrUnknownBackend is returned by SetDefaultBackend for names that are
	// not registered.
	ErrUnknownBackend = errors.New("jsonstore: unknown backend")

	// ErrNoBackend is returned when neither the requested nor the default
	// backend is registered.
	ErrNoBackend = errors.New("jsonstore: no backend available")

	// ErrWipeFailed is returned when a wipe could not remove every entry.
	ErrWipeFailed = errors.New("jsonstore: wipe failed")

	// ErrBackend is the kind for any other backend failure.
	ErrBackend = errors.New("jsonstore: backend failure")
)

// Error describes a failed operation.
type Error struct {
	// Op is the operation: "read", "write", "remove", "list", "wipe" or
	// "set-default".
	Op string

	// Backend is the name of the backend that failed, if any.
	Backend string

	// Path is the path the operation was about, if any.
	Path string

	// Kind is one of the package sentinel errors.
	Kind error

	// Message is the human-readable summary reported as Result.Error.
	Message string

	// Reason is the detail reported as Result.Reason.
	Reason string

	// Paths lists the entries a wipe failed to remove.
	Paths []string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("jsonstore: ")
	if e.Backend != "" {
		sb.WriteString(e.Backend)
		sb.WriteByte('.')
	}
	sb.WriteString(e.Op)
	if e.Path != "" {
		fmt.Fprintf(&sb, " %q", e.Path)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns both the kind and the cause so that errors.Is matches
// either.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
