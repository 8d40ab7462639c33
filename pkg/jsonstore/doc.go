// Package jsonstore provides a uniform JSON "file" API (read, write, remove,
// list, wipe) over heterogeneous storage backends.
//
// Paths are slash-delimited strings; the root directory is "". Values are
// arbitrary JSON-serializable Go values. Callers talk to a [Storage], which
// probes its candidate backends once, picks a default (keychain if
// available, otherwise local) and dispatches each call to the default or to
// an explicitly requested backend.
//
// Backend families:
//
//   - [FileBackend]: a real file tree via [storage.FileStore], either the
//     local filesystem ("local") or a Dropbox app folder ("dropbox").
//     Listing returns the immediate regular files of a directory and fails
//     with [ErrDirectoryNotFound] when the directory does not exist.
//   - [MemoryBackend]: an in-memory map for tests, with the same listing
//     semantics as FileBackend. Removed paths are kept as tombstones.
//   - [IndexedBackend]: a flat key-value store reached through a
//     [Keychain] (secure storage, cloud KV). Flat stores cannot enumerate,
//     so the backend maintains an index of every written path under the
//     reserved key "_index" and derives listings from it by prefix
//     matching. Listing returns every indexed path under the prefix with the
//     prefix stripped, including nested ones, and never fails for an
//     unknown directory.
//
// The listing differences between the families are deliberate and are
// preserved by the facade.
//
// Every operation returns a [Result] shaped like the wire payload
// ({"success":true,"contents":...} or {"success":false,"error":...,
// "reason":...}) together with an error for Go callers. Failures never
// panic.
//
// Operations block until the backend has answered. Run them in a goroutine
// for asynchronous use; each call returns exactly once.
package jsonstore
