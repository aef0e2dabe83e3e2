package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
)

// TabularImporter seeds the local record mirror from an export of the
// upstream register. Only the sqlite backend supports it.
type TabularImporter interface {
	Import(ctx context.Context, records []domain.TabularRow) error
}

// tabularImporter is injected when the sqlite backend is active.
var tabularImporter TabularImporter

// SetTabularImporter sets the importer used by 'tabular import'.
func SetTabularImporter(imp TabularImporter) {
	tabularImporter = imp
}

var tabularCmd = &cobra.Command{
	Use:   "tabular",
	Short: "Query the structured record register",
}

var tabularSearchCmd = &cobra.Command{
	Use:   "search [term...]",
	Short: "Search records by term",
	Long: `Searches the record register directly, bypassing query routing. A
record matches when any cell contains any of the terms.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTabularSearch,
}

var tabularImportCmd = &cobra.Command{
	Use:   "import [file.json]",
	Short: "Import records into the local mirror",
	Long: `Replaces the local SQLite mirror's records with the rows in the given
JSON file. The file holds an array of objects, one per record.`,
	Args: cobra.ExactArgs(1),
	RunE: runTabularImport,
}

func init() {
	tabularCmd.AddCommand(tabularSearchCmd)
	tabularCmd.AddCommand(tabularImportCmd)
	rootCmd.AddCommand(tabularCmd)
}

func runTabularSearch(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	rows, err := answerService.SearchTabular(context.Background(), args)
	if err != nil {
		return fmt.Errorf("tabular search failed: %w", err)
	}

	if len(rows) == 0 {
		cmd.Println("No matching records.")
		return nil
	}

	for i, row := range rows {
		cmd.Printf("Record %d:\n", i+1)

		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			cmd.Printf("  %s: %s\n", k, row[k])
		}
		cmd.Println()
	}
	return nil
}

func runTabularImport(cmd *cobra.Command, args []string) error {
	if tabularImporter == nil {
		return errors.New("import requires the sqlite tabular backend")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	var records []domain.TabularRow
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing import file: %w", err)
	}

	if err := tabularImporter.Import(context.Background(), records); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d records.\n", len(records))
	return nil
}
