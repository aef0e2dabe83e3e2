package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/logger"
)

// Retriever answers similarity queries across every available
// knowledge domain and merges the per-domain rankings into one list.
type Retriever struct {
	store    *IndexStore
	topK     int
	minScore float64
}

// NewRetriever creates a retriever over the given index store. topK
// bounds the merged result count, minScore drops weak matches.
func NewRetriever(store *IndexStore, topK int, minScore float64) *Retriever {
	return &Retriever{
		store:    store,
		topK:     topK,
		minScore: minScore,
	}
}

// Retrieve embeds the query once and searches every available domain,
// returning the merged ranking. Unavailable domains are skipped; if no
// domain is available the query cannot be served. An empty result with
// a nil error means every match fell below the score floor.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	vec, err := r.store.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	var merged []domain.RetrievalResult
	available := 0

	for _, dom := range r.store.Domains() {
		if !r.store.Available(dom) {
			logger.Debug("Skipping unavailable domain: %s", dom)
			continue
		}
		available++

		results, err := r.store.Search(ctx, dom, vec, r.topK)
		if err != nil {
			return nil, fmt.Errorf("search domain %s: %w", dom, err)
		}
		logger.Debug("Domain %s: %d candidates", dom, len(results))
		merged = append(merged, results...)
	}

	if available == 0 {
		return nil, fmt.Errorf("%w: no domain has a resident index", domain.ErrDomainUnavailable)
	}

	merged = rankResults(merged)
	merged = dedupAdjacent(merged)
	merged = r.filterByScore(merged)

	if r.topK > 0 && len(merged) > r.topK {
		merged = merged[:r.topK]
	}

	logger.Info("Retrieved %d passages", len(merged))
	return merged, nil
}

// rankResults orders by descending score. Ties are broken by ascending
// sequence, then by domain name so the ordering is total.
func rankResults(results []domain.RetrievalResult) []domain.RetrievalResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.Seq != results[j].Chunk.Seq {
			return results[i].Chunk.Seq < results[j].Chunk.Seq
		}
		return results[i].Chunk.Domain < results[j].Chunk.Domain
	})
	return results
}

// dedupAdjacent collapses results whose chunks are direct neighbours
// in the same domain (sequence distance 1). Neighbouring chunks share
// overlap text, so keeping both pads the prompt with near-duplicate
// content. The higher-scored of the pair survives. Input must already
// be ranked.
func dedupAdjacent(results []domain.RetrievalResult) []domain.RetrievalResult {
	kept := make([]domain.RetrievalResult, 0, len(results))

	for _, res := range results {
		dup := false
		for _, k := range kept {
			if k.Chunk.Domain == res.Chunk.Domain && absInt(k.Chunk.Seq-res.Chunk.Seq) == 1 {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, res)
		}
	}

	return kept
}

func (r *Retriever) filterByScore(results []domain.RetrievalResult) []domain.RetrievalResult {
	if r.minScore <= 0 {
		return results
	}

	kept := results[:0]
	for _, res := range results {
		if res.Score >= r.minScore {
			kept = append(kept, res)
		}
	}
	return kept
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
