package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status per knowledge domain",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	statuses := indexService.Status()
	if len(statuses) == 0 {
		cmd.Println("No knowledge domains configured.")
		return nil
	}

	cmd.Println("Knowledge domains:")
	cmd.Println()
	for _, st := range statuses {
		state := "available"
		if !st.Available {
			state = "unavailable"
		}
		cmd.Printf("  %-20s %6d chunks  %s\n", st.Domain, st.ChunkCount, state)
	}

	if appSettings != nil {
		cmd.Println()
		cmd.Printf("Tabular backend: %s\n", appSettings.Tabular.Backend)
	}
	return nil
}
