package driving

import (
	"context"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
)

// DomainStatus describes one knowledge domain's index state.
type DomainStatus struct {
	// Domain is the knowledge domain name.
	Domain string

	// ChunkCount is the number of chunks in the resident index, or 0
	// when the domain is unavailable.
	ChunkCount int

	// Available reports whether the domain is currently serving
	// retrieval requests.
	Available bool
}

// IndexOrchestrator manages the offline indexing pipeline: knowledge
// file -> chunker -> chunk file -> vector index.
type IndexOrchestrator interface {
	// Ingest chunks a domain's knowledge source file, persists the
	// chunk file and builds a fresh index. The resident index is
	// swapped atomically on success.
	Ingest(ctx context.Context, dom string) error

	// Rebuild reconstructs a domain's index from its existing chunk
	// file, without re-chunking the source.
	Rebuild(ctx context.Context, dom string) error

	// Open loads all configured domains' persisted indexes into the
	// resident slots, rebuilding any that fail validation. Domains that
	// cannot be loaded or rebuilt are marked unavailable.
	Open(ctx context.Context) error

	// Status reports the state of every configured domain.
	Status() []DomainStatus

	// Chunk splits text according to the configured chunking settings.
	// Exposed for dry runs and tests.
	Chunk(dom, text string) []domain.Chunk
}
