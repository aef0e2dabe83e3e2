package domain

import (
	"errors"
	"fmt"
)

// Common domain errors. Services return these (possibly wrapped) so
// callers can branch with errors.Is.
var (
	// ErrInvalidConfig indicates a configuration value that cannot be
	// silently corrected, such as an overlap that is not smaller than
	// the chunk size or an embedding dimension mismatch. Fatal at
	// startup or build time.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrIndexCorrupt indicates a persisted index whose stored shape
	// disagrees with the current configuration. Triggers an automatic
	// rebuild from the domain's chunk file.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrDomainUnavailable indicates a knowledge domain whose index
	// could not be loaded or rebuilt. The domain is excluded from
	// retrieval; other domains still serve.
	ErrDomainUnavailable = errors.New("domain unavailable")

	// ErrNoRelevantContent indicates that retrieval found nothing above
	// the minimum score. This is not a failure: the caller produces a
	// "no information found" answer with no citations.
	ErrNoRelevantContent = errors.New("no relevant content")

	// ErrCollaboratorUnavailable indicates an external collaborator
	// (embedding, generation or tabular lookup) that kept failing after
	// the configured retries.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

// BuildError reports a failed index build. No partial index is ever
// published for the named domain.
type BuildError struct {
	// Domain is the knowledge domain whose build failed.
	Domain string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("building index for domain %q: %v", e.Domain, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *BuildError) Unwrap() error {
	return e.Err
}
