package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
)

// mockAnswerService implements driving.AnswerService for tests.
type mockAnswerService struct {
	answer *domain.Answer
	err    error

	lastThread string
	lastQuery  string
}

func (m *mockAnswerService) Answer(_ context.Context, threadID, query string) (*domain.Answer, error) {
	m.lastThread = threadID
	m.lastQuery = query
	return m.answer, m.err
}

func (m *mockAnswerService) SearchTabular(_ context.Context, _ []string) ([]domain.TabularRow, error) {
	return nil, nil
}

func (m *mockAnswerService) RecordFeedback(_ context.Context, _ domain.Feedback) error {
	return nil
}

func sizedApp(svc *mockAnswerService) *App {
	app := NewApp(svc)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return model.(*App)
}

func TestNewApp_StartsFreshThread(t *testing.T) {
	a := NewApp(&mockAnswerService{})
	b := NewApp(&mockAnswerService{})

	assert.NotEmpty(t, a.ThreadID())
	assert.NotEqual(t, a.ThreadID(), b.ThreadID())
}

func TestApp_NotReadyBeforeFirstResize(t *testing.T) {
	app := NewApp(&mockAnswerService{})

	assert.Contains(t, app.View(), "Loading")

	app = sizedApp(&mockAnswerService{})
	assert.Contains(t, app.View(), "askpolicy chat")
}

func TestApp_EnterSendsQuestion(t *testing.T) {
	svc := &mockAnswerService{answer: &domain.Answer{Text: "Submit by Friday."}}
	app := sizedApp(svc)

	app.input.SetValue("when are expenses due?")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)

	require.NotNil(t, cmd)
	assert.True(t, app.waiting)
	assert.Empty(t, app.input.Value())

	// The command runs the request and reports back as an answerMsg.
	msg := cmd()
	answer, ok := msg.(answerMsg)
	require.True(t, ok)
	assert.Equal(t, "when are expenses due?", answer.question)
	assert.Equal(t, app.ThreadID(), svc.lastThread)
}

func TestApp_EmptyInputDoesNothing(t *testing.T) {
	app := sizedApp(&mockAnswerService{})

	app.input.SetValue("   ")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, app.waiting)
}

func TestApp_IgnoresEnterWhileWaiting(t *testing.T) {
	app := sizedApp(&mockAnswerService{})
	app.waiting = true

	app.input.SetValue("second question")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestApp_RendersAnswerWithCitations(t *testing.T) {
	app := sizedApp(&mockAnswerService{})

	model, _ := app.Update(answerMsg{
		question: "what is the travel policy?",
		answer: &domain.Answer{
			Text:      "Book through the portal.",
			Citations: []domain.Citation{{Domain: "travel", Seq: 3, Score: 0.9}},
		},
	})
	app = model.(*App)

	assert.False(t, app.waiting)
	transcript := app.transcript()
	assert.Contains(t, transcript, "what is the travel policy?")
	assert.Contains(t, transcript, "Book through the portal.")
	assert.Contains(t, transcript, "[travel#3]")
}

func TestApp_RendersDegradedNotice(t *testing.T) {
	app := sizedApp(&mockAnswerService{})

	model, _ := app.Update(answerMsg{
		question: "anything",
		answer:   &domain.Answer{Text: "Sorry.", Degraded: true},
	})
	app = model.(*App)

	assert.Contains(t, app.transcript(), "degraded")
}

func TestApp_RendersError(t *testing.T) {
	app := sizedApp(&mockAnswerService{})

	model, _ := app.Update(answerMsg{
		question: "anything",
		err:      errors.New("boom"),
	})
	app = model.(*App)

	assert.Contains(t, app.transcript(), "boom")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := sizedApp(&mockAnswerService{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)

	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_StatusLine(t *testing.T) {
	app := sizedApp(&mockAnswerService{})

	assert.True(t, strings.Contains(app.statusLine(), "Enter"))

	app.waiting = true
	assert.Equal(t, "Thinking...", app.statusLine())
}
