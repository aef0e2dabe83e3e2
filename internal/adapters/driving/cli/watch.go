package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Watcher re-indexes knowledge domains when their source files change.
type Watcher interface {
	Run(ctx context.Context) error
}

// watchRunner is injected by the composition root.
var watchRunner Watcher

// SetWatcher sets the file watcher used by the watch command.
func SetWatcher(w Watcher) {
	watchRunner = w
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch knowledge files and re-index on change",
	Long: `Watches the knowledge directory and re-indexes a domain shortly after
its source file changes. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watchRunner == nil {
		return errors.New("watcher not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Watching knowledge files. Press Ctrl+C to stop.")
	if err := watchRunner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
