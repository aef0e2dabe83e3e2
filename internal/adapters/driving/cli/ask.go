package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
)

var (
	askThreadID string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long: `Answers one question and exits. The answer is grounded in the indexed
knowledge domains and cites the passages it was drawn from. Pass
--thread to continue an earlier conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askThreadID, "thread", "", "conversation thread to continue")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	threadID := askThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	answer, err := answerService.Answer(context.Background(), threadID, args[0])
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, threadID, answer)
	}
	return outputAnswerText(cmd, threadID, answer)
}

func outputAnswerJSON(cmd *cobra.Command, threadID string, answer *domain.Answer) error {
	payload := struct {
		ThreadID string         `json:"thread_id"`
		Answer   *domain.Answer `json:"answer"`
	}{threadID, answer}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, threadID string, answer *domain.Answer) error {
	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range answer.Citations {
			cmd.Printf("  [%s#%d] (%.2f)\n", c.Domain, c.Seq, c.Score)
		}
	}

	if answer.Degraded {
		cmd.Println()
		cmd.Println("Note: a collaborator was unreachable, this answer is degraded.")
	}

	cmd.Println()
	cmd.Printf("Thread: %s\n", threadID)
	return nil
}
