package driven

import "github.com/custodia-labs/askpolicy-cli/internal/core/domain"

// ChunkStore persists a domain's chunk sequence as a flat text file:
// chunk texts in Seq order, joined by a stable blank-line separator.
// Writing the same chunk sequence twice produces byte-identical files.
type ChunkStore interface {
	// Write persists the chunk sequence for a domain, replacing any
	// previous file.
	Write(dom string, chunks []domain.Chunk) error

	// Read restores a domain's chunks in Seq order. Token counts and
	// source offsets are recomputed from the stored text.
	Read(dom string) ([]domain.Chunk, error)

	// Count returns the number of chunks stored for a domain without
	// materialising them.
	Count(dom string) (int, error)
}
