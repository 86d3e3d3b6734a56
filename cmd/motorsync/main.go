// Command motorsync reconciles scraped motor listings against the canonical
// catalog and serves the review workflow.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/harborline/motorsync/cmd/motorsync/app"
	"github.com/harborline/motorsync/cmd/motorsync/cmd"
)

func main() {
	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
