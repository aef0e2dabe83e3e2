package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
)

// answerFixture wires an Answerer over mock collaborators with one
// indexed domain.
type answerFixture struct {
	answerer  *Answerer
	memory    *Memory
	llm       *mockLLM
	tabular   *mockTabular
	retriever *Retriever
}

func newAnswerFixture(t *testing.T, tabular *mockTabular) *answerFixture {
	t.Helper()

	embedding := &mockEmbedding{
		vectors: map[string][]float32{
			"how do I request catering approval": {1, 0, 0},
			"catering approval needs form F-12":  {1, 0, 0},
			"travel reimbursement policy":        {0, 1, 0},
		},
		fallback: []float32{0, 0, 1},
	}

	store := NewIndexStore(embedding, newMockIndexFileStore(), newMockChunkStore(), []string{"sop"})
	_, err := store.Build(context.Background(), "sop", []domain.Chunk{
		{Domain: "sop", Seq: 0, Text: "catering approval needs form F-12", TokenCount: 5},
		{Domain: "sop", Seq: 4, Text: "travel reimbursement policy", TokenCount: 3},
	})
	require.NoError(t, err)

	memory := NewMemory(6)
	llm := &mockLLM{reply: "Use form F-12. [sop#0]"}
	retriever := NewRetriever(store, 12, 0.25)

	var tab driven.TabularStore
	if tabular != nil {
		tab = tabular
	}
	a := NewAnswerer(NewRouter(0.7), retriever, memory, llm, tab, 6000)
	a.retry = retryPolicy{Attempts: 2, BaseDelay: time.Millisecond}

	return &answerFixture{
		answerer:  a,
		memory:    memory,
		llm:       llm,
		tabular:   tabular,
		retriever: retriever,
	}
}

func TestAnswerKnowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("answers with citations and commits the exchange", func(t *testing.T) {
		f := newAnswerFixture(t, nil)

		ans, err := f.answerer.Answer(ctx, "thread-1", "how do I request catering approval")
		require.NoError(t, err)

		assert.Equal(t, domain.KnowledgeLookup, ans.Route)
		assert.False(t, ans.Degraded)
		assert.Equal(t, "Use form F-12. [sop#0]", ans.Text)

		require.NotEmpty(t, ans.Citations)
		assert.Equal(t, "sop", ans.Citations[0].Domain)
		assert.Equal(t, 0, ans.Citations[0].Seq)

		turns := f.memory.History("thread-1")
		require.Len(t, turns, 2)
		assert.Equal(t, domain.RoleUser, turns[0].Role)
		assert.Equal(t, domain.RoleAssistant, turns[1].Role)
	})

	t.Run("history flows into the next prompt", func(t *testing.T) {
		f := newAnswerFixture(t, nil)

		_, err := f.answerer.Answer(ctx, "thread-1", "how do I request catering approval")
		require.NoError(t, err)
		_, err = f.answerer.Answer(ctx, "thread-1", "how do I request catering approval")
		require.NoError(t, err)

		// system + 2 history turns + user.
		require.Len(t, f.llm.lastChat, 4)
		assert.Equal(t, "system", f.llm.lastChat[0].Role)
		assert.Equal(t, "user", f.llm.lastChat[1].Role)
		assert.Equal(t, "assistant", f.llm.lastChat[2].Role)
	})

	t.Run("nothing relevant yields a plain no-info answer", func(t *testing.T) {
		f := newAnswerFixture(t, nil)

		ans, err := f.answerer.Answer(ctx, "thread-1", "something entirely unrelated")
		require.NoError(t, err)

		assert.NotEmpty(t, ans.Text)
		assert.Empty(t, ans.Citations)
		assert.False(t, ans.Degraded)
		assert.Zero(t, f.llm.chatCalls)
		assert.Zero(t, f.memory.Len("thread-1"))
	})

	t.Run("collaborator failure degrades without touching memory", func(t *testing.T) {
		f := newAnswerFixture(t, nil)
		f.llm.chatErr = errors.New("upstream 503")

		ans, err := f.answerer.Answer(ctx, "thread-1", "how do I request catering approval")
		require.NoError(t, err)

		assert.True(t, ans.Degraded)
		assert.NotEmpty(t, ans.Text)
		assert.Empty(t, ans.Citations)
		assert.Equal(t, 2, f.llm.chatCalls)
		assert.Zero(t, f.memory.Len("thread-1"))
	})

	t.Run("cancelled query commits nothing", func(t *testing.T) {
		f := newAnswerFixture(t, nil)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.answerer.Answer(cancelled, "thread-1", "how do I request catering approval")
		require.Error(t, err)
		assert.Zero(t, f.memory.Len("thread-1"))
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		f := newAnswerFixture(t, nil)

		_, err := f.answerer.Answer(ctx, "thread-1", "   ")
		require.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestAnswerTabular(t *testing.T) {
	ctx := context.Background()

	t.Run("routes record lookups to the tabular store", func(t *testing.T) {
		tab := &mockTabular{rows: []domain.TabularRow{
			{"Name": "PT Maju Jaya", "Status": "active"},
		}}
		f := newAnswerFixture(t, tab)
		f.llm.reply = "PT Maju Jaya is an active vendor."

		ans, err := f.answerer.Answer(ctx, "thread-1", `find the vendor record "PT Maju Jaya"`)
		require.NoError(t, err)

		assert.Equal(t, domain.TabularLookup, ans.Route)
		assert.Equal(t, 1, tab.searchCalls)
		assert.Contains(t, tab.lastTerms, "PT Maju Jaya")

		require.Len(t, ans.Citations, 1)
		assert.Equal(t, tabularSource, ans.Citations[0].Domain)

		// The record content reaches the model.
		last := f.llm.lastChat[len(f.llm.lastChat)-1]
		assert.Contains(t, last.Content, "PT Maju Jaya")

		assert.Equal(t, 2, f.memory.Len("thread-1"))
	})

	t.Run("zero rows fall back to knowledge retrieval", func(t *testing.T) {
		tab := &mockTabular{}
		f := newAnswerFixture(t, tab)

		// Tabular wording, but the register has no match; the catering
		// vector still matches the knowledge index via the fallback path.
		ans, err := f.answerer.Answer(ctx, "thread-1", "how do I request catering approval vendor record")
		require.NoError(t, err)

		assert.Equal(t, 1, tab.searchCalls)
		assert.Equal(t, domain.KnowledgeLookup, ans.Route)
		assert.NotEmpty(t, ans.Text)
	})

	t.Run("dead tabular store falls back to knowledge", func(t *testing.T) {
		tab := &mockTabular{searchErr: errors.New("sheets unreachable")}
		f := newAnswerFixture(t, tab)

		ans, err := f.answerer.Answer(ctx, "thread-1", "how do I request catering approval vendor record")
		require.NoError(t, err)
		assert.Equal(t, domain.KnowledgeLookup, ans.Route)
	})
}

func TestAnswerBudgetTrimming(t *testing.T) {
	f := newAnswerFixture(t, nil)

	passages := []domain.RetrievalResult{
		{Chunk: domain.Chunk{Domain: "sop", Seq: 0, Text: "top ranked", TokenCount: 100}, Score: 0.9},
		{Chunk: domain.Chunk{Domain: "sop", Seq: 5, Text: "mid ranked", TokenCount: 100}, Score: 0.7},
		{Chunk: domain.Chunk{Domain: "sop", Seq: 9, Text: "low ranked", TokenCount: 100}, Score: 0.5},
	}
	history := []domain.Turn{
		{Role: domain.RoleUser, Text: strings.Repeat("old ", 50)},
		{Role: domain.RoleAssistant, Text: strings.Repeat("new ", 50)},
	}
	query := "short query"

	t.Run("lowest ranked passage drops first", func(t *testing.T) {
		f.answerer.tokenBudget = 400
		kept, turns := f.answerer.fitBudget(passages, history, query)

		require.Len(t, kept, 2)
		assert.Equal(t, 0, kept[0].Chunk.Seq)
		assert.Equal(t, 5, kept[1].Chunk.Seq)
		assert.Len(t, turns, 2)
	})

	t.Run("history goes after passages are exhausted", func(t *testing.T) {
		f.answerer.tokenBudget = 100
		kept, turns := f.answerer.fitBudget(passages, history, query)

		assert.Empty(t, kept)
		require.Len(t, turns, 1)
		assert.Equal(t, domain.RoleAssistant, turns[0].Role)
	})

	t.Run("query survives even an impossible budget", func(t *testing.T) {
		f.answerer.tokenBudget = 1
		kept, turns := f.answerer.fitBudget(passages, history, query)

		assert.Empty(t, kept)
		assert.Empty(t, turns)
	})

	t.Run("generous budget keeps everything", func(t *testing.T) {
		f.answerer.tokenBudget = 6000
		kept, turns := f.answerer.fitBudget(passages, history, query)

		assert.Len(t, kept, 3)
		assert.Len(t, turns, 2)
	})
}

func TestRecordFeedback(t *testing.T) {
	ctx := context.Background()

	t.Run("fills identity and timestamp", func(t *testing.T) {
		tab := &mockTabular{}
		f := newAnswerFixture(t, tab)

		err := f.answerer.RecordFeedback(ctx, domain.Feedback{
			ThreadID: "thread-1",
			User:     "dina",
			Rating:   "helpful",
		})
		require.NoError(t, err)

		require.Len(t, tab.feedback, 1)
		assert.NotEmpty(t, tab.feedback[0].ID)
		assert.False(t, tab.feedback[0].CreatedAt.IsZero())
	})

	t.Run("no store configured", func(t *testing.T) {
		f := newAnswerFixture(t, nil)

		err := f.answerer.RecordFeedback(ctx, domain.Feedback{Rating: "helpful"})
		require.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
	})
}
