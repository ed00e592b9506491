package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinel-oversight/sentinel/internal/application/handlers"
)

type tendersFlags struct {
	riskLevel string
	status    string
	sortBy    string
	limit     int
}

func newTendersCmd() *cobra.Command {
	var flags tendersFlags

	cmd := &cobra.Command{
		Use:   "tenders",
		Short: "List tenders with their risk scores",
		Long: `Lists scored tenders, highest risk first by default.

Examples:
  sentinel tenders --risk-level high
  sentinel tenders --status open --sort value --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTenders(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.riskLevel, "risk-level", "", "Filter by risk level (high, medium, low)")
	cmd.Flags().StringVar(&flags.status, "status", "", "Filter by status (open, evaluation, awarded, cancelled)")
	cmd.Flags().StringVar(&flags.sortBy, "sort", "risk", "Sort by risk, value or date")
	cmd.Flags().IntVarP(&flags.limit, "limit", "n", handlers.DefaultListLimit, fmt.Sprintf("Maximum tenders to list (1-%d)", handlers.MaxListLimit))

	return cmd
}

func runTenders(cmd *cobra.Command, flags tendersFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.Risk.HandleList(ctx, handlers.ListOptions{
			RiskLevel: flags.riskLevel,
			Status:    flags.status,
			SortBy:    flags.sortBy,
			Limit:     flags.limit,
		})
		if err != nil {
			return err
		}

		if globalJSON {
			return printJSON(out, result)
		}
		if result.Total == 0 {
			fmt.Fprintln(out, "No tenders match")
			return nil
		}

		tw := newTable(out)
		fmt.Fprintln(tw, "ID\tRISK\tSCORE\tSTATUS\tVALUE\tBIDS\tTITLE")
		for _, tr := range result.Tenders {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d\t%s\n",
				tr.Tender.ID,
				tr.Risk.Category,
				tr.Risk.Overall,
				tr.Tender.Status,
				formatMoney(tr.Tender.EstimatedValue),
				tr.BidderCount,
				truncate(tr.Tender.Title, 48))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%d of %d tenders\n", len(result.Tenders), result.Total)
		return nil
	})
}
