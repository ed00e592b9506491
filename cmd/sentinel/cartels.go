package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCartelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cartels",
		Short: "List groups of companies that repeatedly bid together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withDeps(ctx, func(d *Deps) error {
				result, err := d.Graph.HandleCartels(ctx)
				if err != nil {
					return err
				}
				if globalJSON {
					return printJSON(out, result)
				}
				if result.Total == 0 {
					fmt.Fprintln(out, "No co-bidding groups found")
					return nil
				}

				for i, c := range result.Cartels {
					fmt.Fprintf(out, "Group %d (%d companies)\n", i+1, c.Size)
					for j, id := range c.CompanyIDs {
						fmt.Fprintf(out, "  %s  %s\n", id, c.CompanyNames[j])
					}
				}
				fmt.Fprintf(out, "\n%d groups; rules require %s\n", result.Total, cartelThresholds(d))
				return nil
			})
		},
	}
}

func cartelThresholds(d *Deps) string {
	r := d.Config.Rules
	parts := []string{
		fmt.Sprintf("%d+ shared tenders", r.CartelMinSharedTenders),
		fmt.Sprintf("%d+ members", r.CartelMinGroupSize),
	}
	return strings.Join(parts, " and ")
}
