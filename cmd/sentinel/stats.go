package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics for the current snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withDeps(ctx, func(d *Deps) error {
				stats, err := d.Risk.HandleStats(ctx)
				if err != nil {
					return err
				}
				if globalJSON {
					return printJSON(out, stats)
				}

				tw := newTable(out)
				fmt.Fprintf(tw, "Snapshot\t%s\n", stats.SnapshotVersion)
				fmt.Fprintf(tw, "Tenders\t%d\n", stats.TotalTenders)
				fmt.Fprintf(tw, "High risk\t%d\n", stats.HighRiskCount)
				fmt.Fprintf(tw, "Medium risk\t%d\n", stats.MediumRiskCount)
				fmt.Fprintf(tw, "Low risk\t%d\n", stats.LowRiskCount)
				fmt.Fprintf(tw, "Pending review\t%d\n", stats.PendingReview)
				fmt.Fprintf(tw, "Total value\t%s\n", formatMoney(stats.TotalValue))
				return tw.Flush()
			})
		},
	}
}
