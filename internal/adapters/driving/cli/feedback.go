package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
)

var (
	feedbackThread   string
	feedbackUser     string
	feedbackQuestion string
	feedbackAnswer   string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback [helpful|unhelpful]",
	Short: "Record a rating for an answer",
	Long: `Records whether an answer was helpful. Feedback is appended to the
record register's feedback sheet (or the local mirror) for periodic
review.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"helpful", "unhelpful"},
	RunE:      runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackThread, "thread", "", "conversation thread the answer belongs to")
	feedbackCmd.Flags().StringVar(&feedbackUser, "user", "", "who is rating the answer")
	feedbackCmd.Flags().StringVar(&feedbackQuestion, "question", "", "the question that was asked")
	feedbackCmd.Flags().StringVar(&feedbackAnswer, "answer", "", "the answer being rated")
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	err := answerService.RecordFeedback(context.Background(), domain.Feedback{
		ThreadID: feedbackThread,
		User:     feedbackUser,
		Rating:   args[0],
		Question: feedbackQuestion,
		Answer:   feedbackAnswer,
	})
	if err != nil {
		return fmt.Errorf("recording feedback failed: %w", err)
	}

	cmd.Println("Feedback recorded, thanks.")
	return nil
}
