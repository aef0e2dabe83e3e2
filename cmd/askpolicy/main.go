// askpolicy is a retrieval-augmented assistant for company policies
// and structured vendor records.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/askpolicy-cli/internal/adapters/driving/cli"
)

func main() {
	app, err := bootstrap()
	if err != nil {
		// Commands that need the pipeline will report it themselves;
		// settings and version still work.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if app != nil {
		defer app.Close()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
