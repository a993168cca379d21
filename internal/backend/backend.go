// Package backend defines the narrow blob-store contract the repository
// engine is built on (§4.1, §6): a uniform byte-addressed store over
// opaque forward-slash paths. Any backend satisfying Store plugs into the
// repository — local filesystem, S3-family, Azure Blob, or an in-memory
// store for tests.
package backend

import (
	"context"
	"time"
)

// Info describes a stored object, as returned by Stat.
type Info struct {
	Size     int64
	Modified time.Time
}

// Store is the uniform blob-store contract consumed by the repository
// engine (§4.1). Implementations must provide the following semantics:
//
//   - Put is atomic-visible: a concurrent Get sees either the complete
//     object or nothing, never a partial write.
//   - Get returns exactly the bytes a prior Put wrote; the store never
//     transforms payloads.
//   - List(prefix) returns every currently existing object path beginning
//     with prefix, without duplicates, in no particular order, and
//     paginates internally so the caller always sees a complete sequence.
//   - Delete of a missing object is a no-op success.
//   - Get of a missing object fails with an error satisfying IsNotExist.
//
// No other semantic is assumed: no compare-and-swap, no object versioning,
// no directory abstraction.
type Store interface {
	// Init prepares the store for use (e.g. creating a local directory
	// layout). It is idempotent for already-initialized stores.
	Init(ctx context.Context) error

	// Exists reports whether an object exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Get returns the complete bytes stored at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Put stores data at path, atomically replacing any prior object at
	// the same path.
	Put(ctx context.Context, path string, data []byte) error

	// Delete removes the object at path. Deleting a missing object is a
	// no-op success.
	Delete(ctx context.Context, path string) error

	// List calls fn once for every object whose path begins with prefix.
	// Iteration stops and the error is returned if fn returns an error.
	List(ctx context.Context, prefix string, fn func(path string, info Info) error) error

	// Stat returns size/modified-time metadata for the object at path.
	Stat(ctx context.Context, path string) (Info, error)

	// IsNotExist reports whether err was caused by a missing object.
	IsNotExist(err error) bool
}
