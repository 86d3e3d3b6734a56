package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harborline/motorsync/pkg/types"
)

func newReviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Work the human review queue",
	}
	cmd.AddCommand(
		newReviewListCommand(),
		newReviewApproveCommand(),
		newReviewRejectCommand(),
	)
	return cmd
}

func newReviewListCommand() *cobra.Command {
	var (
		status string
		limit  int
		page   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List review entries (pending by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if page < 1 {
				page = 1
			}
			entries, err := application.Store.ListReviewEntries(cmd.Context(), types.ReviewStatus(status), limit, (page-1)*limit)
			if err != nil {
				return err
			}
			total, err := application.Store.CountReviewEntries(cmd.Context(), types.ReviewStatus(status))
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				cmd.Printf("no %s review entries\n", status)
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				best := "-"
				score := "-"
				if len(entry.Candidates) > 0 {
					best = entry.Candidates[0].ModelDisplay
					score = strconv.Itoa(entry.Candidates[0].Score)
				}
				rows = append(rows, []string{
					entry.ID,
					entry.Listing.Raw,
					best,
					score,
					strconv.Itoa(entry.Listing.Quantity),
					money(entry.Listing.Price),
					entry.CreatedAt.Format("2006-01-02"),
				})
			}
			cmd.Println(renderTable(
				[]string{"ID", "Listing", "Top Candidate", "Score", "Qty", "Price", "Queued"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			cmd.Printf("%d of %d %s entries (page %d)\n", len(entries), total, status, page)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(types.ReviewPending), "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 25, "entries per page")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newReviewApproveCommand() *cobra.Command {
	var motorID int64

	cmd := &cobra.Command{
		Use:   "approve <entry-id>",
		Short: "Approve a pending entry and apply its match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			entry, err := application.Reconciler.Approve(cmd.Context(), args[0], motorID)
			if err != nil {
				return err
			}
			appliedID := motorID
			if appliedID == 0 {
				appliedID = entry.Candidates[0].MotorID
			}
			cmd.Printf("approved %s: %q applied as motor %d\n", entry.ID, entry.Listing.Raw, appliedID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&motorID, "motor", 0, "apply a specific candidate motor ID instead of the top-scored one")
	return cmd
}

func newReviewRejectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <entry-id>",
		Short: "Reject a pending entry as not-a-match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			entry, err := application.Reconciler.Reject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("rejected %s: %q\n", entry.ID, entry.Listing.Raw)
			return nil
		},
	}
}
