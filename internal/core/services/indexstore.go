package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
	"github.com/custodia-labs/askpolicy-cli/internal/logger"
)

// embedBatchSize bounds how many chunk texts are sent to the embedding
// collaborator in one request.
const embedBatchSize = 64

// IndexStore holds the resident vector index for each knowledge domain
// and answers similarity queries against them. Indexes are replaced
// wholesale under a write lock, so readers observe either the previous
// complete index or the new complete index, never a partial state.
type IndexStore struct {
	embedding driven.EmbeddingService
	files     driven.IndexFileStore
	chunks    driven.ChunkStore

	mu       sync.RWMutex
	resident map[string]*domain.DomainIndex
	domains  []string
}

// NewIndexStore creates an index store for the given knowledge domains.
// No indexes are resident until Load or Build succeeds per domain.
func NewIndexStore(
	embedding driven.EmbeddingService,
	files driven.IndexFileStore,
	chunks driven.ChunkStore,
	domains []string,
) *IndexStore {
	return &IndexStore{
		embedding: embedding,
		files:     files,
		chunks:    chunks,
		resident:  make(map[string]*domain.DomainIndex, len(domains)),
		domains:   append([]string(nil), domains...),
	}
}

// Domains returns the configured knowledge domains in declaration order.
func (s *IndexStore) Domains() []string {
	return append([]string(nil), s.domains...)
}

// Build embeds the chunks, persists the resulting index and swaps it
// in as the resident index for the domain. The previous resident index
// keeps serving queries until the swap.
func (s *IndexStore) Build(ctx context.Context, dom string, chunks []domain.Chunk) (*domain.DomainIndex, error) {
	logger.Section("Index Build")
	logger.Debug("Domain: %s, chunks: %d", dom, len(chunks))

	if len(chunks) == 0 {
		s.markUnavailable(dom)
		return nil, &domain.BuildError{Domain: dom, Err: errors.New("no chunks to index")}
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, &domain.BuildError{Domain: dom, Err: err}
	}

	ix := &domain.DomainIndex{
		Domain:    dom,
		Dimension: len(vectors[0]),
		Vectors:   vectors,
		Chunks:    chunks,
	}

	if err := s.files.Save(ix); err != nil {
		return nil, &domain.BuildError{Domain: dom, Err: fmt.Errorf("persist index: %w", err)}
	}

	s.swap(dom, ix)
	logger.Info("Index built: domain=%s, vectors=%d, dim=%d", dom, ix.Len(), ix.Dimension)

	return ix, nil
}

// Load brings a domain's persisted index into the resident slot. A
// corrupt index file triggers one rebuild from the domain's chunk
// file; if that also fails the domain is marked unavailable and the
// error is returned.
func (s *IndexStore) Load(ctx context.Context, dom string) error {
	ix, err := s.files.Load(dom, s.embedding.Dimensions())
	if err == nil {
		err = s.hydrate(dom, ix)
		if err == nil {
			s.swap(dom, ix)
			logger.Debug("Index loaded: domain=%s, vectors=%d", dom, ix.Len())
			return nil
		}
	}

	if !errors.Is(err, domain.ErrIndexCorrupt) {
		s.markUnavailable(dom)
		return &domain.BuildError{Domain: dom, Err: err}
	}

	logger.Warn("Index corrupt for domain %s, rebuilding from chunk file", dom)

	chunks, rerr := s.chunks.Read(dom)
	if rerr != nil {
		s.markUnavailable(dom)
		return &domain.BuildError{Domain: dom, Err: fmt.Errorf("rebuild after corrupt index: %w", rerr)}
	}

	if _, berr := s.Build(ctx, dom, chunks); berr != nil {
		s.markUnavailable(dom)
		return berr
	}

	return nil
}

// Search returns the k most similar chunks to the query vector within
// one domain, ordered by descending similarity. Equal scores are
// ordered by ascending chunk sequence.
func (s *IndexStore) Search(ctx context.Context, dom string, query []float32, k int) ([]domain.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	ix, ok := s.resident[dom]
	s.mu.RUnlock()

	if !ok || ix == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDomainUnavailable, dom)
	}
	if len(query) != ix.Dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), ix.Dimension)
	}

	q := normalise(query)

	results := make([]domain.RetrievalResult, 0, ix.Len())
	for i := 0; i < ix.Len(); i++ {
		results = append(results, domain.RetrievalResult{
			Chunk: ix.Chunks[i],
			Score: dot(q, ix.Vectors[i]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Seq < results[j].Chunk.Seq
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Available reports whether the domain has a resident index.
func (s *IndexStore) Available(dom string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resident[dom] != nil
}

// ChunkCount returns the number of chunks in the domain's resident
// index, or 0 when the domain is unavailable.
func (s *IndexStore) ChunkCount(dom string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ix := s.resident[dom]; ix != nil {
		return ix.Len()
	}
	return 0
}

// EmbedQuery embeds a query through the same collaborator the indexes
// were built with.
func (s *IndexStore) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vec, err := s.embedding.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

// hydrate attaches chunk texts from the chunk file to a loaded index.
// The persisted index carries vectors and chunk refs only; the text
// lives in the chunk file. Any disagreement between the two files is
// corruption, the citations would otherwise point at the wrong
// passages.
func (s *IndexStore) hydrate(dom string, ix *domain.DomainIndex) error {
	chunks, err := s.chunks.Read(dom)
	if err != nil {
		return fmt.Errorf("%w: read chunk file: %v", domain.ErrIndexCorrupt, err)
	}
	if len(chunks) != ix.Len() {
		return fmt.Errorf("%w: index holds %d vectors, chunk file holds %d chunks",
			domain.ErrIndexCorrupt, ix.Len(), len(chunks))
	}

	bySeq := make(map[int]domain.Chunk, len(chunks))
	for _, ch := range chunks {
		bySeq[ch.Seq] = ch
	}

	hydrated := make([]domain.Chunk, ix.Len())
	for i, ref := range ix.Chunks {
		ch, ok := bySeq[ref.Seq]
		if !ok {
			return fmt.Errorf("%w: index references chunk %d missing from chunk file", domain.ErrIndexCorrupt, ref.Seq)
		}
		hydrated[i] = ch
	}
	ix.Chunks = hydrated

	return nil
}

func (s *IndexStore) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Text)
		}

		batch, err := s.embedding.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d..%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(batch), len(texts))
		}

		for _, vec := range batch {
			if len(vectors) > 0 && len(vec) != len(vectors[0]) {
				return nil, fmt.Errorf("%w: embedding dimension changed from %d to %d mid-build",
					domain.ErrInvalidConfig, len(vectors[0]), len(vec))
			}
			vectors = append(vectors, normalise(vec))
		}
	}

	return vectors, nil
}

func (s *IndexStore) swap(dom string, ix *domain.DomainIndex) {
	s.mu.Lock()
	s.resident[dom] = ix
	s.mu.Unlock()
}

func (s *IndexStore) markUnavailable(dom string) {
	s.mu.Lock()
	delete(s.resident, dom)
	s.mu.Unlock()
}

// normalise returns the L2-normalised copy of v. With unit vectors the
// inner product equals cosine similarity.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return append([]float32(nil), v...)
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
