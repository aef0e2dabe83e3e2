package driven

import (
	"context"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
)

// TabularStore provides structured record lookup. The answer pipeline
// only decides whether a query should be routed here; the store itself
// is an external collaborator.
//
// Implementations may include:
//   - Google Sheets (the procurement vendor register)
//   - SQLite (a local mirror for offline use and tests)
type TabularStore interface {
	// Search returns rows where any cell matches any of the terms,
	// case-insensitively. An empty result is not an error; the caller
	// falls back to knowledge retrieval.
	Search(ctx context.Context, terms []string) ([]domain.TabularRow, error)

	// AppendFeedback records a user's rating of an answer.
	AppendFeedback(ctx context.Context, fb domain.Feedback) error

	// Close releases resources.
	Close() error
}
