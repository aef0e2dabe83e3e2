package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/askpolicy-cli/internal/chunker"
	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driving"
	"github.com/custodia-labs/askpolicy-cli/internal/logger"
)

// Ensure Answerer implements the interface.
var _ driving.AnswerService = (*Answerer)(nil)

const defaultSystemPrompt = `You are a policy assistant. Answer strictly from the provided context passages and records. Cite the passage tags you used, for example [sop#3]. If the context does not contain the answer, say so plainly instead of guessing.`

const defaultNoInfoAnswer = "I could not find anything relevant to that question in the knowledge base."

const defaultDegradedAnswer = "Sorry, I could not reach the language model to answer that right now. Please try again in a moment."

// tabularSource names the citation attached to record-lookup answers.
const tabularSource = "records"

// Answerer assembles answers: it routes the query, gathers context
// from the vector indexes or the tabular store, builds a token-budgeted
// prompt with the thread's history and asks the LLM to respond.
type Answerer struct {
	router    *Router
	retriever *Retriever
	memory    *Memory
	llm       driven.LLMService
	tabular   driven.TabularStore
	prompts   driven.PromptStore

	tokenBudget int
	retry       retryPolicy
}

// NewAnswerer creates the answer service. The tabular store may be nil,
// in which case every query takes the knowledge path.
func NewAnswerer(
	router *Router,
	retriever *Retriever,
	memory *Memory,
	llm driven.LLMService,
	tabular driven.TabularStore,
	tokenBudget int,
) *Answerer {
	return &Answerer{
		router:      router,
		retriever:   retriever,
		memory:      memory,
		llm:         llm,
		tabular:     tabular,
		tokenBudget: tokenBudget,
		retry:       defaultRetryPolicy,
	}
}

// SetPromptStore installs a prompt store so operators can override the
// built-in prompt wording. Optional; the embedded defaults apply
// otherwise.
func (a *Answerer) SetPromptStore(ps driven.PromptStore) {
	a.prompts = ps
}

// SetRetryPolicy overrides the default collaborator retry behaviour.
// Non-positive attempts or delay leave the defaults in place.
func (a *Answerer) SetRetryPolicy(attempts int, baseDelay time.Duration) {
	if attempts > 0 {
		a.retry.Attempts = attempts
	}
	if baseDelay > 0 {
		a.retry.BaseDelay = baseDelay
	}
}

// prompt resolves a prompt by name, falling back to the built-in text.
func (a *Answerer) prompt(name, fallback string) string {
	if a.prompts == nil {
		return fallback
	}
	text, err := a.prompts.Get(name)
	if err != nil || strings.TrimSpace(text) == "" {
		return fallback
	}
	return text
}

// Answer runs the full pipeline for one query on one thread.
func (a *Answerer) Answer(ctx context.Context, threadID, query string) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidConfig)
	}

	decision := a.router.Classify(query)

	if decision.Route == domain.TabularLookup && a.tabular != nil {
		ans, err := a.answerTabular(ctx, threadID, query)
		if err == nil && ans != nil {
			return ans, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Zero rows or a dead store fall back to the knowledge base.
		logger.Debug("Tabular route yielded nothing, falling back to knowledge retrieval")
	}

	return a.answerKnowledge(ctx, threadID, query)
}

// SearchTabular exposes the record lookup directly, bypassing routing.
func (a *Answerer) SearchTabular(ctx context.Context, terms []string) ([]domain.TabularRow, error) {
	if a.tabular == nil {
		return nil, fmt.Errorf("%w: no tabular store configured", domain.ErrCollaboratorUnavailable)
	}

	var rows []domain.TabularRow
	err := withRetry(ctx, a.retry, "tabular search", func() error {
		var serr error
		rows, serr = a.tabular.Search(ctx, terms)
		return serr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}
	return rows, nil
}

// RecordFeedback stores a user's rating of an answer.
func (a *Answerer) RecordFeedback(ctx context.Context, fb domain.Feedback) error {
	if a.tabular == nil {
		return fmt.Errorf("%w: no tabular store configured", domain.ErrCollaboratorUnavailable)
	}

	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}

	err := withRetry(ctx, a.retry, "feedback append", func() error {
		return a.tabular.AppendFeedback(ctx, fb)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}
	return nil
}

// answerTabular serves a record-lookup query. A nil answer with a nil
// error means no rows matched and the caller should fall back.
func (a *Answerer) answerTabular(ctx context.Context, threadID, query string) (*domain.Answer, error) {
	terms := ExtractSearchTerms(query)
	logger.Debug("Tabular search terms: %v", terms)

	rows, err := a.SearchTabular(ctx, terms)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	block := formatRows(rows)
	text, err := a.generate(ctx, threadID, query, block)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &domain.Answer{
			Text:     a.prompt(driven.PromptDegraded, defaultDegradedAnswer),
			Route:    domain.TabularLookup,
			Degraded: true,
		}, nil
	}

	a.commit(threadID, query, text)

	return &domain.Answer{
		Text:      text,
		Citations: []domain.Citation{{Domain: tabularSource}},
		Route:     domain.TabularLookup,
	}, nil
}

func (a *Answerer) answerKnowledge(ctx context.Context, threadID, query string) (*domain.Answer, error) {
	results, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		// Nothing relevant. The exchange is not committed so the thread
		// history stays useful for the next attempt.
		return &domain.Answer{
			Text:  a.prompt(driven.PromptNoInfo, defaultNoInfoAnswer),
			Route: domain.KnowledgeLookup,
		}, nil
	}

	passages, history := a.fitBudget(results, a.memory.History(threadID), query)
	logger.Debug("Prompt: %d passages, %d history turns", len(passages), len(history))

	text, err := a.generateWithHistory(ctx, query, formatPassages(passages), history)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &domain.Answer{
			Text:     a.prompt(driven.PromptDegraded, defaultDegradedAnswer),
			Route:    domain.KnowledgeLookup,
			Degraded: true,
		}, nil
	}

	a.commit(threadID, query, text)

	citations := make([]domain.Citation, 0, len(passages))
	for _, p := range passages {
		citations = append(citations, domain.Citation{
			Domain: p.Chunk.Domain,
			Seq:    p.Chunk.Seq,
			Score:  p.Score,
		})
	}

	return &domain.Answer{
		Text:      text,
		Citations: citations,
		Route:     domain.KnowledgeLookup,
	}, nil
}

// fitBudget trims the prompt inputs to the token budget. Lowest-ranked
// passages go first, then the oldest history turns. The query itself
// is never trimmed.
func (a *Answerer) fitBudget(
	passages []domain.RetrievalResult, history []domain.Turn, query string,
) ([]domain.RetrievalResult, []domain.Turn) {
	if a.tokenBudget <= 0 {
		return passages, history
	}

	total := chunker.CountTokens(a.prompt(driven.PromptAnswerSystem, defaultSystemPrompt)) + chunker.CountTokens(query)
	for _, p := range passages {
		total += p.Chunk.TokenCount
	}
	for _, t := range history {
		total += chunker.CountTokens(t.Text)
	}

	for total > a.tokenBudget && len(passages) > 0 {
		last := passages[len(passages)-1]
		total -= last.Chunk.TokenCount
		passages = passages[:len(passages)-1]
		logger.Debug("Budget: dropped passage %s#%d (%d tokens over)", last.Chunk.Domain, last.Chunk.Seq, total)
	}
	for total > a.tokenBudget && len(history) > 0 {
		total -= chunker.CountTokens(history[0].Text)
		history = history[1:]
		logger.Debug("Budget: dropped oldest history turn")
	}

	return passages, history
}

// generate builds a prompt from the current thread history and asks
// the LLM. Used for the tabular path where rows form the context.
func (a *Answerer) generate(ctx context.Context, threadID, query, contextBlock string) (string, error) {
	return a.generateWithHistory(ctx, query, contextBlock, a.memory.History(threadID))
}

func (a *Answerer) generateWithHistory(
	ctx context.Context, query, contextBlock string, history []domain.Turn,
) (string, error) {
	messages := make([]driven.ChatMessage, 0, len(history)+2)
	messages = append(messages, driven.ChatMessage{Role: "system", Content: a.prompt(driven.PromptAnswerSystem, defaultSystemPrompt)})

	for _, t := range history {
		messages = append(messages, driven.ChatMessage{Role: string(t.Role), Content: t.Text})
	}

	var user strings.Builder
	if contextBlock != "" {
		user.WriteString("Context:\n")
		user.WriteString(contextBlock)
		user.WriteString("\n\n")
	}
	user.WriteString("Question: ")
	user.WriteString(query)
	messages = append(messages, driven.ChatMessage{Role: "user", Content: user.String()})

	var text string
	err := withRetry(ctx, a.retry, "chat completion", func() error {
		var gerr error
		text, gerr = a.llm.Chat(ctx, messages, driven.ChatOptions{})
		return gerr
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}

	return strings.TrimSpace(text), nil
}

func (a *Answerer) commit(threadID, query, answer string) {
	a.memory.Append(threadID, domain.RoleUser, query)
	a.memory.Append(threadID, domain.RoleAssistant, answer)
}

// formatPassages renders retrieved passages most relevant first, each
// tagged with its provenance so the model can cite it.
func formatPassages(passages []domain.RetrievalResult) string {
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s#%d]\n%s", p.Chunk.Domain, p.Chunk.Seq, p.Chunk.Text)
	}
	return b.String()
}

// formatRows renders tabular rows as key: value lines, one blank line
// between records.
func formatRows(rows []domain.TabularRow) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Record %d:", i+1)
		for _, key := range sortedKeys(row) {
			fmt.Fprintf(&b, "\n%s: %s", key, row[key])
		}
	}
	return b.String()
}

func sortedKeys(row domain.TabularRow) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
