package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change configuration. Values are stored in
~/.askpolicy/config.toml and read at startup.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Common keys:

  chunking.max_tokens                   Maximum tokens per chunk
  chunking.overlap_tokens               Tokens shared by adjacent chunks
  retrieval.k_per_domain                Candidates returned per domain
  retrieval.min_score                   Similarity floor for citations
  router.tabular_confidence_threshold   Routing threshold for record lookups
  memory.max_turns                      Conversation turns remembered per thread
  prompt.token_budget                   Token budget for assembled prompts
  embedding.provider                    openai or ollama
  embedding.model                       Embedding model name
  llm.provider                          openai or ollama
  llm.model                             Generation model name
  tabular.backend                       sheets or sqlite
  tabular.spreadsheet_id                Register spreadsheet (sheets backend)
  tabular.credentials_file              Service account key (sheets backend)
  knowledge.dir                         Directory of <domain>.txt files
  knowledge.domains                     Configured knowledge domains`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Remove a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsUnset,
}

var settingsKeyCmd = &cobra.Command{
	Use:       "key [embedding|llm]",
	Short:     "Set an API key without echoing it",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"embedding", "llm"},
	RunE:      runSettingsKey,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
	settingsCmd.AddCommand(settingsKeyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if appSettings == nil {
		return errors.New("settings not loaded")
	}
	s := appSettings

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Max tokens: %d\n", s.Chunking.MaxTokens)
	cmd.Printf("  Overlap tokens: %d\n", s.Chunking.OverlapTokens)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  K per domain: %d\n", s.Retrieval.KPerDomain)
	cmd.Printf("  Min score: %.2f\n", s.Retrieval.MinScore)
	cmd.Println()

	cmd.Println("[Router]")
	cmd.Printf("  Tabular confidence threshold: %.2f\n", s.Router.TabularConfidenceThreshold)
	cmd.Println()

	cmd.Println("[Memory]")
	cmd.Printf("  Max turns: %d\n", s.Memory.MaxTurns)
	cmd.Println()

	cmd.Println("[Prompt]")
	cmd.Printf("  Token budget: %d\n", s.Prompt.TokenBudget)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", s.Embedding.Provider)
	cmd.Printf("  Model: %s\n", s.Embedding.Model)
	if s.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.Embedding.BaseURL)
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(s.Embedding.APIKey))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", s.LLM.Provider)
	cmd.Printf("  Model: %s\n", s.LLM.Model)
	if s.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.LLM.BaseURL)
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(s.LLM.APIKey))
	cmd.Println()

	cmd.Println("[Tabular]")
	cmd.Printf("  Backend: %s\n", s.Tabular.Backend)
	if s.Tabular.SpreadsheetID != "" {
		cmd.Printf("  Spreadsheet: %s\n", s.Tabular.SpreadsheetID)
	}
	cmd.Println()

	cmd.Println("[Knowledge]")
	cmd.Printf("  Directory: %s\n", s.Knowledge.Dir)
	cmd.Printf("  Domains: %s\n", strings.Join(s.Knowledge.Domains, ", "))

	if err := s.Validate(); err != nil {
		cmd.Println()
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	if err := configStore.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("Set %s. Restart for the change to take effect.\n", args[0])
	return nil
}

func runSettingsUnset(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	if err := configStore.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to remove setting: %w", err)
	}
	cmd.Printf("Removed %s.\n", args[0])
	return nil
}

func runSettingsKey(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Enter %s API key: ", args[0])
	key := readPassword()
	cmd.Println()

	if key == "" {
		return errors.New("empty API key")
	}

	if err := configStore.Set(args[0]+".api_key", key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	cmd.Printf("Saved %s API key (%s).\n", args[0], maskAPIKey(key))
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read the key without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
