package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/askpolicy-cli/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Launch an interactive terminal chat. Each session is one conversation
thread; follow-up questions see the recent turns of the thread.

Controls:
  Enter     - Send question
  ↑/↓, PgUp - Scroll history
  Ctrl+C    - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	// Panic recovery so a TUI crash leaves a usable stack trace.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app := tui.NewApp(answerService)
	program := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}
	return nil
}
