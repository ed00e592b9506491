package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompanyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "company <company-id>",
		Short: "Show a company with its directors and awards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withDeps(ctx, func(d *Deps) error {
				detail, err := d.Risk.HandleCompany(ctx, args[0])
				if err != nil {
					return err
				}
				if globalJSON {
					return printJSON(out, detail)
				}

				c := detail.Company
				fmt.Fprintf(out, "%s  %s\n", c.ID, c.Name)
				fmt.Fprintf(out, "  Registration: %s (%s)\n", c.RegistrationNumber, formatDay(c.RegistrationDate))
				fmt.Fprintf(out, "  Address:      %s\n", c.Address)
				fmt.Fprintf(out, "  Phone:        %s\n", c.Phone)
				fmt.Fprintf(out, "  Bids placed:  %d\n", detail.BidCount)

				fmt.Fprintf(out, "\nDirectors (%d):\n", len(detail.Directors))
				for _, dir := range detail.Directors {
					fmt.Fprintf(out, "  %s  %s\n", dir.ID, dir.Name)
				}

				fmt.Fprintf(out, "\nTenders won (%d):\n", len(detail.TendersWon))
				for _, t := range detail.TendersWon {
					fmt.Fprintf(out, "  %s  %s\n", t.ID, t.Title)
				}
				return nil
			})
		},
	}
}
