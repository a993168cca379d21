// Package reposerr defines the error taxonomy shared by every layer of the
// repository engine (§7). Callers classify errors by comparing against these
// sentinels with errors.Is, after unwrapping with github.com/pkg/errors.
package reposerr

import "github.com/pkg/errors"

// Sentinel error kinds. Each wraps additional context via errors.Wrap at the
// call site; errors.Cause (or errors.Is against the sentinel) recovers the
// kind.
var (
	// ErrNotFound is the not-found kind of the taxonomy. The blob stores in
	// this module do not return it: each reports a missing object with its
	// own error, recognized by its IsNotExist method.
	ErrNotFound = errors.New("not found")

	// ErrAuthentication is returned when an AEAD tag fails to verify.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRepositoryExists is returned by Init when a repository already
	// exists at the target location.
	ErrRepositoryExists = errors.New("repository already exists")

	// ErrRepositoryNotFound is returned by Open when no repository exists at
	// the target location.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrInvalidFormatVersion is returned by Open when config.version is not
	// understood by this implementation.
	ErrInvalidFormatVersion = errors.New("invalid repository format version")

	// ErrInvalidPassword is returned by Open when no keyfile unseals with
	// the supplied password.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrSnapshotNotFound is returned when a referenced snapshot does not
	// exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrChunkNotFound is returned when a chunk has no index entry.
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrCorruptedPack is returned when pack framing, AEAD or directory
	// bounds are invalid.
	ErrCorruptedPack = errors.New("corrupted pack")

	// ErrLockConflict is reserved for the lease protocol (§5, §9 open
	// questions); nothing in this module returns it yet.
	ErrLockConflict = errors.New("lock conflict")
)

// IsRetryable reports whether an error kind should be retried by the backoff
// driver in internal/backend/retry, per the classification table in §4.9.
// IO and opaque backend errors that are not one of the non-retryable
// sentinels below are treated as retryable.
func IsRetryable(err error) bool {
	switch errors.Cause(err) {
	case ErrNotFound, ErrAuthentication, ErrRepositoryExists, ErrRepositoryNotFound,
		ErrInvalidFormatVersion, ErrInvalidPassword, ErrCorruptedPack, ErrLockConflict:
		return false
	default:
		return true
	}
}
