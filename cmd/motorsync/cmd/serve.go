package cmd

import (
	"github.com/spf13/cobra"

	"github.com/harborline/motorsync/cmd/motorsync/app"
	"github.com/harborline/motorsync/internal/server"
)

func newServeCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp(cmd, func(c *app.Config) {
				if cmd.Flags().Changed("listen") {
					c.Listen = listen
				}
			})
			if err != nil {
				return err
			}
			defer application.Close()

			srv := server.New(application.Config.Listen, application.Store, application.Reconciler, application.Logger)
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8080", "listen address")
	return cmd
}
