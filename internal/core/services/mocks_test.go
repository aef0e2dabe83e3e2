package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedding implements driven.EmbeddingService with a fixed
// per-text vector table. Texts without an entry get the fallback.
type mockEmbedding struct {
	vectors  map[string][]float32
	fallback []float32
	dims     int
	embedErr error

	embedCalls int
	batchCalls int
}

func (m *mockEmbedding) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return m.fallback
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 3
}

func (m *mockEmbedding) ModelName() string { return "mock-embed" }

func (m *mockEmbedding) Ping(_ context.Context) error { return nil }

func (m *mockEmbedding) Close() error { return nil }

// mockLLM implements driven.LLMService and records chat calls.
type mockLLM struct {
	reply   string
	chatErr error

	chatCalls int
	lastChat  []driven.ChatMessage
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.chatCalls++
	m.lastChat = append([]driven.ChatMessage(nil), messages...)
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

// mockTabular implements driven.TabularStore.
type mockTabular struct {
	rows      []domain.TabularRow
	searchErr error
	appendErr error

	searchCalls int
	lastTerms   []string
	feedback    []domain.Feedback
}

func (m *mockTabular) Search(_ context.Context, terms []string) ([]domain.TabularRow, error) {
	m.searchCalls++
	m.lastTerms = append([]string(nil), terms...)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.rows, nil
}

func (m *mockTabular) AppendFeedback(_ context.Context, fb domain.Feedback) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.feedback = append(m.feedback, fb)
	return nil
}

func (m *mockTabular) Close() error { return nil }

// mockChunkStore implements driven.ChunkStore in memory.
type mockChunkStore struct {
	chunks   map[string][]domain.Chunk
	readErr  error
	writeErr error
}

func newMockChunkStore() *mockChunkStore {
	return &mockChunkStore{chunks: make(map[string][]domain.Chunk)}
}

func (m *mockChunkStore) Write(dom string, chunks []domain.Chunk) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.chunks[dom] = append([]domain.Chunk(nil), chunks...)
	return nil
}

func (m *mockChunkStore) Read(dom string) ([]domain.Chunk, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	chunks, ok := m.chunks[dom]
	if !ok {
		return nil, fmt.Errorf("no chunk file for domain %s", dom)
	}
	return append([]domain.Chunk(nil), chunks...), nil
}

func (m *mockChunkStore) Count(dom string) (int, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	return len(m.chunks[dom]), nil
}

// mockIndexFileStore implements driven.IndexFileStore in memory, with
// injectable load errors to simulate corruption.
type mockIndexFileStore struct {
	saved   map[string]*domain.DomainIndex
	saveErr error
	loadErr map[string]error

	saveCalls int
}

func newMockIndexFileStore() *mockIndexFileStore {
	return &mockIndexFileStore{
		saved:   make(map[string]*domain.DomainIndex),
		loadErr: make(map[string]error),
	}
}

func (m *mockIndexFileStore) Save(ix *domain.DomainIndex) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saveCalls++
	m.saved[ix.Domain] = ix
	return nil
}

func (m *mockIndexFileStore) Load(dom string, expectedDim int) (*domain.DomainIndex, error) {
	if err := m.loadErr[dom]; err != nil {
		return nil, err
	}
	ix, ok := m.saved[dom]
	if !ok {
		return nil, fmt.Errorf("%w: no index file for domain %s", domain.ErrIndexCorrupt, dom)
	}
	if ix.Dimension != expectedDim {
		return nil, fmt.Errorf("%w: dimension %d, expected %d", domain.ErrIndexCorrupt, ix.Dimension, expectedDim)
	}
	return ix, nil
}

func (m *mockIndexFileStore) Exists(dom string) bool {
	_, ok := m.saved[dom]
	return ok
}

// Interface conformance for the mocks.
var (
	_ driven.EmbeddingService = (*mockEmbedding)(nil)
	_ driven.LLMService       = (*mockLLM)(nil)
	_ driven.TabularStore     = (*mockTabular)(nil)
	_ driven.ChunkStore       = (*mockChunkStore)(nil)
	_ driven.IndexFileStore   = (*mockIndexFileStore)(nil)
)
