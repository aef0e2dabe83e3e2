package domain

// Chunk is a bounded passage of a knowledge domain's source text.
// Chunks are immutable once created.
type Chunk struct {
	// Domain is the knowledge domain this chunk belongs to (e.g. "sop").
	Domain string

	// Seq is the dense, zero-based, domain-local position of the chunk.
	// Consecutive Seq values are adjacent passages in the source text
	// and share an overlap region.
	Seq int

	// Text is the passage content.
	Text string

	// TokenCount is the number of whitespace-delimited tokens in Text.
	// Always <= the configured maximum chunk size.
	TokenCount int

	// SourceOffset is the token offset of the chunk's first token
	// within the domain's source text.
	SourceOffset int
}

// Ref identifies a chunk without carrying its text.
func (c Chunk) Ref() ChunkRef {
	return ChunkRef{Domain: c.Domain, Seq: c.Seq}
}

// ChunkRef is a lightweight chunk identifier used in persisted indexes
// and citations.
type ChunkRef struct {
	Domain string
	Seq    int
}

// DomainIndex is the resident vector index for one knowledge domain.
// It is built once and never mutated; a rebuild produces a fresh
// instance that replaces the old one atomically. Vectors[i] is the
// embedding of Chunks[i], L2-normalised so that the inner product of
// two vectors is their cosine similarity.
type DomainIndex struct {
	// Domain is the knowledge domain this index serves.
	Domain string

	// Dimension is the embedding vector size. Constant across all
	// domains; a mismatch is a configuration error.
	Dimension int

	// Vectors holds one normalised embedding per chunk, in Seq order.
	Vectors [][]float32

	// Chunks holds the chunk for each vector, in Seq order.
	Chunks []Chunk
}

// Len returns the number of indexed chunks.
func (ix *DomainIndex) Len() int {
	return len(ix.Chunks)
}
