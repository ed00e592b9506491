package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tender <tender-id>",
		Short: "Show a tender with its bids and risk assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withDeps(ctx, func(d *Deps) error {
				detail, err := d.Risk.HandleTender(ctx, args[0])
				if err != nil {
					return err
				}
				if globalJSON {
					return printJSON(out, detail)
				}

				t := detail.Tender
				fmt.Fprintf(out, "%s  %s\n", t.ID, t.Title)
				fmt.Fprintf(out, "  Reference:   %s\n", t.Reference)
				fmt.Fprintf(out, "  Entity:      %s\n", t.ProcuringEntity)
				fmt.Fprintf(out, "  Category:    %s\n", t.Category)
				fmt.Fprintf(out, "  Status:      %s\n", t.Status)
				fmt.Fprintf(out, "  Estimated:   %s\n", formatMoney(t.EstimatedValue))
				fmt.Fprintf(out, "  Window:      %s to %s (%d days)\n", formatDay(t.PublishedDate), formatDay(t.Deadline), t.WindowDays())
				if detail.WinningCompany != nil {
					fmt.Fprintf(out, "  Awarded to:  %s (%s)\n", detail.WinningCompany.Name, detail.WinningCompany.ID)
				}
				if t.AwardedAmount != nil {
					fmt.Fprintf(out, "  Awarded:     %s\n", formatMoney(*t.AwardedAmount))
				}
				if detail.Official != nil {
					fmt.Fprintf(out, "  Awarded by:  %s, %s\n", detail.Official.Name, detail.Official.Position)
				}

				if len(detail.Bids) > 0 {
					fmt.Fprintf(out, "\nBids (%d):\n", len(detail.Bids))
					tw := newTable(out)
					for _, b := range detail.Bids {
						fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", b.ID, b.CompanyID, formatMoney(b.Amount), formatDay(b.SubmittedAt))
					}
					if err := tw.Flush(); err != nil {
						return err
					}
				}

				fmt.Fprintln(out)
				printScore(out, detail.Risk)
				return nil
			})
		},
	}
}
