package driving

import (
	"context"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
)

// AnswerService answers natural-language questions with retrieved
// context and thread-scoped conversation history.
type AnswerService interface {
	// Answer runs the query through routing, retrieval and generation
	// and returns the answer with source citations. A degraded answer
	// (collaborator failure after retries) is returned with
	// Answer.Degraded set rather than as an error.
	Answer(ctx context.Context, threadID, query string) (*domain.Answer, error)

	// SearchTabular exposes the structured record lookup directly,
	// bypassing routing.
	SearchTabular(ctx context.Context, terms []string) ([]domain.TabularRow, error)

	// RecordFeedback stores a user's rating of an answer.
	RecordFeedback(ctx context.Context, fb domain.Feedback) error
}
