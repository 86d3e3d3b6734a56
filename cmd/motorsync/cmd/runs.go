package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the sync run log, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			runs, err := application.Store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				cmd.Println("no sync runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				ended := "-"
				if run.EndedAt != nil {
					ended = run.EndedAt.Format("2006-01-02 15:04:05")
				}
				rows = append(rows, []string{
					run.ID,
					string(run.Mode),
					string(run.Status),
					run.StartedAt.Format("2006-01-02 15:04:05"),
					ended,
					strconv.Itoa(run.Counters.Processed),
					strconv.Itoa(run.Counters.Matched),
					strconv.Itoa(run.Counters.QueuedForReview),
					strconv.Itoa(run.Counters.Rejected),
					run.Error,
				})
			}
			cmd.Println(renderTable(
				[]string{"ID", "Mode", "Status", "Started", "Ended", "Processed", "Matched", "Queued", "Rejected", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")
	return cmd
}
