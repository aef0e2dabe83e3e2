package cli

import (
	"context"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driving"
)

// Interface conformance for the test doubles.
var (
	_ driving.AnswerService     = (*mockAnswerService)(nil)
	_ driving.IndexOrchestrator = (*mockIndexService)(nil)
)

type mockAnswerService struct {
	answer   *domain.Answer
	rows     []domain.TabularRow
	err      error
	feedback []domain.Feedback

	lastThread string
	lastQuery  string
	lastTerms  []string
}

func (m *mockAnswerService) Answer(_ context.Context, threadID, query string) (*domain.Answer, error) {
	m.lastThread = threadID
	m.lastQuery = query
	return m.answer, m.err
}

func (m *mockAnswerService) SearchTabular(_ context.Context, terms []string) ([]domain.TabularRow, error) {
	m.lastTerms = terms
	return m.rows, m.err
}

func (m *mockAnswerService) RecordFeedback(_ context.Context, fb domain.Feedback) error {
	if m.err != nil {
		return m.err
	}
	m.feedback = append(m.feedback, fb)
	return nil
}

type mockIndexService struct {
	statuses []driving.DomainStatus
	err      error

	ingested  []string
	rebuilt   []string
	openCalls int
}

func (m *mockIndexService) Ingest(_ context.Context, dom string) error {
	if m.err != nil {
		return m.err
	}
	m.ingested = append(m.ingested, dom)
	return nil
}

func (m *mockIndexService) Rebuild(_ context.Context, dom string) error {
	if m.err != nil {
		return m.err
	}
	m.rebuilt = append(m.rebuilt, dom)
	return nil
}

func (m *mockIndexService) Open(_ context.Context) error {
	m.openCalls++
	return m.err
}

func (m *mockIndexService) Status() []driving.DomainStatus {
	return m.statuses
}

func (m *mockIndexService) Chunk(_, _ string) []domain.Chunk {
	return nil
}

// setupTestServices installs mocks into the package-level service slots
// and returns a cleanup that restores the previous values.
func setupTestServices(answer *mockAnswerService, index *mockIndexService) func() {
	oldAnswer := answerService
	oldIndex := indexService
	oldSettings := appSettings

	// Assign through an explicit nil check so a nil mock leaves the
	// interface itself nil rather than holding a typed nil pointer.
	answerService = nil
	if answer != nil {
		answerService = answer
	}
	indexService = nil
	if index != nil {
		indexService = index
	}
	appSettings = domain.DefaultAppSettings()
	appSettings.Knowledge.Domains = []string{"hr", "it"}

	return func() {
		answerService = oldAnswer
		indexService = oldIndex
		appSettings = oldSettings
	}
}
