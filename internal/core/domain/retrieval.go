package domain

// RetrievalResult is a scored chunk returned by similarity retrieval.
// Results are transient per query and never persisted.
type RetrievalResult struct {
	// Chunk is the matched passage.
	Chunk Chunk

	// Score is the cosine similarity between the query and the chunk,
	// in [-1, 1]. Results below the configured minimum score are never
	// returned.
	Score float64
}

// TabularRow is one record from the structured lookup collaborator,
// keyed by column name.
type TabularRow map[string]string
