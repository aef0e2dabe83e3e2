package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - OpenAI-compatible endpoints (OpenRouter, LM Studio)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop during index
	// builds.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 1536).
	// Constant for a given model; persisted indexes are validated
	// against it at load time.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
