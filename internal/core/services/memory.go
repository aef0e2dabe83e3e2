package services

import (
	"sync"
	"time"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
)

// Memory keeps a bounded, thread-scoped conversation history in
// process memory. Each thread holds at most maxTurns turns; appending
// beyond the bound evicts the oldest turn. Threads are fully isolated
// and nothing survives a restart.
type Memory struct {
	maxTurns int

	mu      sync.Mutex
	threads map[string][]domain.Turn
}

// NewMemory creates a conversation memory with the given per-thread
// turn bound. A non-positive bound disables history entirely.
func NewMemory(maxTurns int) *Memory {
	return &Memory{
		maxTurns: maxTurns,
		threads:  make(map[string][]domain.Turn),
	}
}

// Append records a turn on the thread, creating the thread on first
// use and evicting the oldest turn once the bound is reached.
func (m *Memory) Append(threadID string, role domain.Role, text string) {
	if m.maxTurns <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	turns := append(m.threads[threadID], domain.Turn{
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	})
	if len(turns) > m.maxTurns {
		turns = turns[len(turns)-m.maxTurns:]
	}
	m.threads[threadID] = turns
}

// History returns the thread's turns oldest first. The returned slice
// is a copy, callers may not mutate stored history through it.
func (m *Memory) History(threadID string) []domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.threads[threadID]
	if len(turns) == 0 {
		return nil
	}
	return append([]domain.Turn(nil), turns...)
}

// Clear forgets a thread's history.
func (m *Memory) Clear(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.threads, threadID)
}

// Len reports the number of turns stored on a thread.
func (m *Memory) Len(threadID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.threads[threadID])
}
