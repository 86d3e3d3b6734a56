package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harborline/motorsync/cmd/motorsync/app"
	"github.com/harborline/motorsync/pkg/reconcile"
	"github.com/harborline/motorsync/pkg/types"
)

func newSyncCommand() *cobra.Command {
	var (
		apply       bool
		threshold   int
		rejectFloor int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a reconciliation (preview by default)",
		Long: `Fetches all active listing sources, scores every listing against the
catalog, and shows the stock diff an apply would produce. With --apply the
diff is written: stock is reset and reasserted, confident matches apply,
ambiguous ones are queued for review.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp(cmd, func(c *app.Config) {
				if cmd.Flags().Changed("threshold") {
					c.AutoAcceptThreshold = threshold
				}
				if cmd.Flags().Changed("reject-floor") {
					c.RejectFloor = rejectFloor
				}
			})
			if err != nil {
				return err
			}
			defer application.Close()

			mode := types.ModePreview
			if apply {
				mode = types.ModeApply
			}

			result, err := application.Reconciler.Run(cmd.Context(), mode)
			if result != nil {
				printResult(cmd, result)
			}
			if err != nil {
				return err
			}
			return printSourceHealth(cmd, application)
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "write the diff instead of previewing it")
	cmd.Flags().IntVar(&threshold, "threshold", reconcile.DefaultAutoAcceptThreshold, "auto-accept score threshold")
	cmd.Flags().IntVar(&rejectFloor, "reject-floor", reconcile.DefaultRejectFloor, "reject scores below this floor")
	return cmd
}

func printResult(cmd *cobra.Command, result *reconcile.Result) {
	if result.Preview != nil && len(result.Preview.Details) > 0 {
		rows := make([][]string, 0, len(result.Preview.Details))
		for _, d := range result.Preview.Details {
			rows = append(rows, []string{
				d.Listing,
				string(d.Outcome),
				d.ModelDisplay,
				strconv.Itoa(d.Score),
				d.Justification,
				strconv.Itoa(d.Quantity),
				money(d.Price),
			})
		}
		cmd.Println(renderTable(
			[]string{"Listing", "Outcome", "Match", "Score", "Why", "Qty", "Price"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight},
		))
		if result.Preview.DetailsTruncated {
			cmd.Println("(detail rows truncated; counts cover the full run)")
		}
	}

	if result.Preview != nil {
		cmd.Printf("stock diff: +%d newly in stock, -%d newly out of stock, %d unchanged\n",
			result.Preview.NewlyInStock, result.Preview.NewlyOutOfStock, result.Preview.StillInStock)
	}
	cmd.Println(result.Summary())

	for source, message := range result.SourceErrors {
		cmd.Printf("source %s failed: %s\n", source, message)
	}
}

func printSourceHealth(cmd *cobra.Command, application *app.App) error {
	descriptors, err := application.Store.ListSources(cmd.Context())
	if err != nil {
		return err
	}
	if len(descriptors) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(descriptors))
	for _, d := range descriptors {
		last := "-"
		if d.LastSuccess != nil {
			last = d.LastSuccess.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			d.Name,
			strconv.FormatBool(d.Active),
			fmt.Sprintf("%.0f%%", d.SuccessRate*100),
			last,
		})
	}
	cmd.Println(renderTable(
		[]string{"Source", "Active", "Success Rate", "Last Success"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
