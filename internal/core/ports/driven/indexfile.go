package driven

import "github.com/custodia-labs/askpolicy-cli/internal/core/domain"

// IndexFileStore persists per-domain vector indexes. The stored format
// encodes the vector dimension and count alongside the vectors so Load
// can validate compatibility before the index is used.
type IndexFileStore interface {
	// Save persists an index, replacing any previous file atomically.
	// Readers of the old file are never exposed to a partial write.
	Save(ix *domain.DomainIndex) error

	// Load reads a persisted index for a domain. The returned index
	// carries vectors and chunk refs only; chunk texts are attached by
	// the caller from the chunk store. Returns domain.ErrIndexCorrupt
	// when the stored dimension disagrees with expectedDim or the file
	// cannot be decoded.
	Load(dom string, expectedDim int) (*domain.DomainIndex, error)

	// Exists reports whether a persisted index is present for a domain.
	Exists(dom string) bool
}
