package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

func newScoreCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "score [tender-id]...",
		Short: "Compute risk scores for tenders",
		Long: `Evaluates every risk rule against the named tenders and prints the
weighted score, the fired factors with their evidence and the recommendation.

Examples:
  sentinel score tender-001
  sentinel score --all --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("name at least one tender or pass --all")
			}
			return runScore(cmd, args, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Score every tender in the snapshot")

	return cmd
}

func runScore(cmd *cobra.Command, tenderIDs []string, all bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withInternalDeps(ctx, func(d *internalDeps) error {
		var scores []*entities.RiskScore
		if all {
			byID, err := d.service.ScoreAll(ctx)
			if err != nil {
				return fmt.Errorf("scoring tenders: %w", err)
			}
			for _, sc := range byID {
				scores = append(scores, sc)
			}
			sort.Slice(scores, func(i, j int) bool { return scores[i].TenderID < scores[j].TenderID })
		} else {
			for _, id := range tenderIDs {
				sc, err := d.Risk.HandleScore(ctx, id)
				if err != nil {
					return err
				}
				scores = append(scores, sc)
			}
		}

		if globalJSON {
			return printJSON(out, scores)
		}
		for i, sc := range scores {
			if i > 0 {
				fmt.Fprintln(out)
			}
			printScore(out, sc)
		}
		return nil
	})
}
