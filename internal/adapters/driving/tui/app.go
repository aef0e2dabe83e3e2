// Package tui implements the interactive chat interface. It follows
// the Elm architecture via Bubbletea: one model, messages in, view out.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driving"
)

// entry is one exchange rendered in the transcript.
type entry struct {
	question string
	answer   *domain.Answer
	err      error
}

// answerMsg carries the outcome of an answer request.
type answerMsg struct {
	question string
	answer   *domain.Answer
	err      error
}

// App is the chat application model. One App is one conversation
// thread; follow-up questions see the thread's recent turns.
type App struct {
	answerService driving.AnswerService
	threadID      string
	styles        *Styles

	input    textinput.Model
	viewport viewport.Model
	entries  []entry

	waiting bool
	ready   bool
	width   int
	height  int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat application over the answer service. A fresh
// conversation thread is started.
func NewApp(svc driving.AnswerService) *App {
	input := textinput.New()
	input.Placeholder = "Ask about a policy..."
	input.Focus()
	input.CharLimit = 500

	return &App{
		answerService: svc,
		threadID:      uuid.NewString(),
		styles:        DefaultStyles(),
		input:         input,
	}
}

// ThreadID returns the conversation thread this session writes to.
func (a *App) ThreadID() string {
	return a.threadID
}

// Init returns the initial command.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return a, tea.Quit

		case tea.KeyEnter:
			query := strings.TrimSpace(a.input.Value())
			if query == "" || a.waiting {
				return a, nil
			}
			a.input.SetValue("")
			a.waiting = true
			return a, a.ask(query)
		}

	case answerMsg:
		a.waiting = false
		a.entries = append(a.entries, entry{
			question: msg.question,
			answer:   msg.answer,
			err:      msg.err,
		})
		a.viewport.SetContent(a.transcript())
		a.viewport.GotoBottom()
		return a, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View renders the chat screen.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("askpolicy chat"))
	b.WriteString("\n")
	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	b.WriteString(a.styles.InputBox.Width(a.width - 2).Render(a.input.View()))
	b.WriteString("\n")
	b.WriteString(a.styles.Status.Render(a.statusLine()))
	return b.String()
}

// ask requests an answer off the UI goroutine.
func (a *App) ask(query string) tea.Cmd {
	svc := a.answerService
	threadID := a.threadID

	return func() tea.Msg {
		answer, err := svc.Answer(context.Background(), threadID, query)
		return answerMsg{question: query, answer: answer, err: err}
	}
}

// layout sizes the viewport to the space left by the chrome.
func (a *App) layout() {
	// Title, input box (3 lines with border) and status line.
	contentHeight := a.height - 6
	if contentHeight < 3 {
		contentHeight = 3
	}

	if a.viewport.Width == 0 {
		a.viewport = viewport.New(a.width, contentHeight)
		a.viewport.SetContent(a.transcript())
	} else {
		a.viewport.Width = a.width
		a.viewport.Height = contentHeight
	}

	a.input.Width = a.width - 6
}

// transcript renders all exchanges so far.
func (a *App) transcript() string {
	if len(a.entries) == 0 {
		return a.styles.Citation.Render("Ask a question to get started.")
	}

	var b strings.Builder
	for i, e := range a.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(a.styles.Question.Render("You: " + e.question))
		b.WriteString("\n")

		switch {
		case e.err != nil:
			b.WriteString(a.styles.Error.Render(fmt.Sprintf("Error: %v", e.err)))

		default:
			b.WriteString(a.styles.Answer.Render(e.answer.Text))
			if len(e.answer.Citations) > 0 {
				b.WriteString("\n")
				b.WriteString(a.styles.Citation.Render(formatCitations(e.answer.Citations)))
			}
			if e.answer.Degraded {
				b.WriteString("\n")
				b.WriteString(a.styles.Warning.Render("(degraded: a collaborator was unreachable)"))
			}
		}
	}
	return b.String()
}

func (a *App) statusLine() string {
	if a.waiting {
		return "Thinking..."
	}
	return "Enter to send, Ctrl+C to quit"
}

func formatCitations(citations []domain.Citation) string {
	parts := make([]string, len(citations))
	for i, c := range citations {
		parts[i] = fmt.Sprintf("[%s#%d]", c.Domain, c.Seq)
	}
	return "Sources: " + strings.Join(parts, " ")
}
