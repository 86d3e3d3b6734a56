// Package cmd implements the motorsync CLI commands.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/harborline/motorsync/cmd/motorsync/app"
)

var (
	flagConfig  string
	flagVerbose bool
	flagQuiet   bool
)

// NewRootCommand builds the motorsync command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "motorsync",
		Short: "Reconcile scraped motor listings against the canonical catalog",
		Long: `motorsync ingests vendor inventory feeds, price lists, and scraped
enrichment pages, scores each listing against the canonical motor catalog,
and keeps stock, pricing, and descriptive data in sync. Confident matches
apply automatically; ambiguous ones land in a human review queue.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default motorsync.yaml)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "warnings and errors only")

	root.AddCommand(
		newSyncCommand(),
		newReviewCommand(),
		newRunsCommand(),
		newServeCommand(),
		newCatalogCommand(),
	)
	return root
}

// Execute runs the CLI with the given context.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// newApp assembles the application for one command invocation. Mutators run
// after config load so command flags can override file and env settings.
func newApp(cmd *cobra.Command, mutators ...func(*app.Config)) (*app.App, error) {
	config, err := app.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	config.UpdateFromFlags(flagVerbose, flagQuiet)
	for _, mutate := range mutators {
		mutate(config)
	}
	return app.New(cmd.Context(), config)
}
