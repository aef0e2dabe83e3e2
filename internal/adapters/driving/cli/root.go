// Package cli implements the askpolicy command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/askpolicy-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "askpolicy",
	Short: "Ask questions about company policies",
	Long: `askpolicy answers natural-language questions about company policies
and procedures. Answers are grounded in the configured knowledge
domains and cite the passages they were drawn from. Questions about
structured records (vendors, suppliers) are routed to the record
register instead.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
