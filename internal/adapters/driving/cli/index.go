package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [domain...]",
	Short: "Chunk and index knowledge domains",
	Long: `Reads each domain's knowledge source file, splits it into chunks and
builds a fresh vector index. With no arguments every configured domain
is indexed. Queries keep hitting the previous index until the new one
is ready.`,
	RunE: runIndex,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [domain...]",
	Short: "Rebuild indexes from stored chunks",
	Long: `Rebuilds each domain's vector index from its persisted chunk file,
without re-reading the knowledge source. Useful after switching
embedding models.`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(rebuildCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	return runPerDomain(cmd, args, "Indexing", func(ctx context.Context, dom string) error {
		if indexService == nil {
			return errors.New("index service not configured")
		}
		return indexService.Ingest(ctx, dom)
	})
}

func runRebuild(cmd *cobra.Command, args []string) error {
	return runPerDomain(cmd, args, "Rebuilding", func(ctx context.Context, dom string) error {
		if indexService == nil {
			return errors.New("index service not configured")
		}
		return indexService.Rebuild(ctx, dom)
	})
}

// runPerDomain applies op to the named domains, or to every configured
// domain when none are named. Failures are reported per domain; the
// remaining domains still run.
func runPerDomain(cmd *cobra.Command, args []string, verb string, op func(context.Context, string) error) error {
	domains := args
	if len(domains) == 0 {
		if appSettings == nil || len(appSettings.Knowledge.Domains) == 0 {
			return errors.New("no knowledge domains configured")
		}
		domains = appSettings.Knowledge.Domains
	}

	ctx := context.Background()
	var failed int
	for _, dom := range domains {
		cmd.Printf("%s %s... ", verb, dom)
		if err := op(ctx, dom); err != nil {
			failed++
			cmd.Printf("FAILED: %v\n", err)
			continue
		}
		cmd.Println("done")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d domains failed", failed, len(domains))
	}
	return nil
}
