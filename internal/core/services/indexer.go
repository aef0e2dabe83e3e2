package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/askpolicy-cli/internal/chunker"
	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driving"
	"github.com/custodia-labs/askpolicy-cli/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexOrchestrator = (*Indexer)(nil)

// Indexer drives the offline pipeline: knowledge source file ->
// chunker -> chunk file -> vector index.
type Indexer struct {
	chunker      *chunker.Chunker
	store        *IndexStore
	chunks       driven.ChunkStore
	knowledgeDir string
}

// NewIndexer creates the orchestrator. knowledgeDir holds one
// <domain>.txt source file per knowledge domain.
func NewIndexer(ch *chunker.Chunker, store *IndexStore, chunks driven.ChunkStore, knowledgeDir string) *Indexer {
	return &Indexer{
		chunker:      ch,
		store:        store,
		chunks:       chunks,
		knowledgeDir: knowledgeDir,
	}
}

// SourcePath returns the knowledge source file for a domain.
func (ix *Indexer) SourcePath(dom string) string {
	return filepath.Join(ix.knowledgeDir, dom+".txt")
}

// Ingest chunks a domain's source file, persists the chunk file and
// builds a fresh index.
func (ix *Indexer) Ingest(ctx context.Context, dom string) error {
	logger.Section("Ingest")
	path := ix.SourcePath(dom)
	logger.Debug("Domain: %s, source: %s", dom, path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return &domain.BuildError{Domain: dom, Err: fmt.Errorf("read knowledge source: %w", err)}
	}

	chunks := ix.chunker.Chunk(dom, string(raw))
	if len(chunks) == 0 {
		return &domain.BuildError{Domain: dom, Err: fmt.Errorf("knowledge source %s is empty", path)}
	}

	if err := ix.chunks.Write(dom, chunks); err != nil {
		return &domain.BuildError{Domain: dom, Err: fmt.Errorf("write chunk file: %w", err)}
	}

	if _, err := ix.store.Build(ctx, dom, chunks); err != nil {
		return err
	}

	logger.Info("Ingested domain %s: %d chunks", dom, len(chunks))
	return nil
}

// Rebuild reconstructs a domain's index from its existing chunk file,
// without re-chunking the source.
func (ix *Indexer) Rebuild(ctx context.Context, dom string) error {
	chunks, err := ix.chunks.Read(dom)
	if err != nil {
		return &domain.BuildError{Domain: dom, Err: fmt.Errorf("read chunk file: %w", err)}
	}

	_, err = ix.store.Build(ctx, dom, chunks)
	return err
}

// Open loads every configured domain's persisted index. Corrupt
// indexes are rebuilt from their chunk files; domains that cannot be
// loaded or rebuilt are left unavailable while the rest serve.
func (ix *Indexer) Open(ctx context.Context) error {
	for _, dom := range ix.store.Domains() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ix.store.Load(ctx, dom); err != nil {
			logger.Warn("Domain %s unavailable: %v", dom, err)
		}
	}
	return nil
}

// Status reports the state of every configured domain.
func (ix *Indexer) Status() []driving.DomainStatus {
	domains := ix.store.Domains()
	statuses := make([]driving.DomainStatus, 0, len(domains))
	for _, dom := range domains {
		statuses = append(statuses, driving.DomainStatus{
			Domain:     dom,
			ChunkCount: ix.store.ChunkCount(dom),
			Available:  ix.store.Available(dom),
		})
	}
	return statuses
}

// Chunk splits text according to the configured chunking settings.
func (ix *Indexer) Chunk(dom, text string) []domain.Chunk {
	return ix.chunker.Chunk(dom, text)
}
