package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sentinel-oversight/sentinel/internal/application/handlers"
	"github.com/sentinel-oversight/sentinel/internal/domain/services"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/config"
)

type importFlags struct {
	format     string
	dryRun     bool
	merge      bool
	onConflict string
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import a procurement dataset into the database",
		Long: `Validates JSON datasets and CSV bid files and stores them in the SQLite database.

Files given together are combined before validation, so a JSON dataset can be
paired with a CSV of additional bids. Without --merge the stored dataset is replaced.

Examples:
  sentinel import dataset.json
  sentinel import dataset.json bids.csv
  sentinel import late-bids.csv --merge`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().BoolVar(&flags.merge, "merge", false, "Merge into the stored dataset instead of replacing it")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "overwrite", "Conflict handling when merging (skip, overwrite)")

	return cmd
}

func runImport(cmd *cobra.Command, files []string, flags importFlags) error {
	// Validate on-conflict flag
	if flags.onConflict != string(services.ConflictSkip) && flags.onConflict != string(services.ConflictOverwrite) {
		return fmt.Errorf("invalid --on-conflict value %q (valid: skip, overwrite)", flags.onConflict)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withImportHandler(ctx, func(handler *handlers.ImportHandler, cfg *config.Config) error {
		opts := handlers.ImportOptions{
			Format:     flags.format,
			DryRun:     flags.dryRun,
			Merge:      flags.merge,
			OnConflict: services.ConflictStrategy(flags.onConflict),
		}

		result, err := handler.Handle(ctx, files, opts)
		if err != nil {
			return fmt.Errorf("importing files: %w", err)
		}

		if globalJSON {
			return printJSON(out, importSummary(result))
		}

		// Display errors
		if len(result.Errors) > 0 {
			fmt.Fprintf(out, "Validation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  %s\n", e.Error())
			}
			return fmt.Errorf("%s rejected with %d errors", result.Source, len(result.Errors))
		}

		if flags.dryRun {
			fmt.Fprintf(out, "Dry run: %s is valid\n", result.Source)
		} else {
			fmt.Fprintf(out, "Imported %s (import %s)\n", result.Source, result.Record.ID)
		}
		printCounts(cmd, result.Counts)
		if result.Skipped > 0 {
			fmt.Fprintf(out, "  %d records skipped (already exist)\n", result.Skipped)
		}
		if !flags.dryRun && cfg.Data.Source != config.SourceSQLite {
			fmt.Fprintln(out, "Note: data.source is not sqlite; set it to score from the imported data.")
		}
		return nil
	})
}

func printCounts(cmd *cobra.Command, counts map[string]int) {
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %d\n", k, counts[k])
	}
}

type importJSON struct {
	Source   string         `json:"source"`
	ImportID string         `json:"import_id,omitempty"`
	Counts   map[string]int `json:"counts,omitempty"`
	Skipped  int            `json:"skipped"`
	Errors   []string       `json:"errors,omitempty"`
}

func importSummary(result *handlers.ImportResult) importJSON {
	s := importJSON{Source: result.Source, Counts: result.Counts, Skipped: result.Skipped}
	if result.Record != nil {
		s.ImportID = result.Record.ID
	}
	for _, e := range result.Errors {
		s.Errors = append(s.Errors, e.Error())
	}
	return s
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent dataset imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withImportHandler(ctx, func(handler *handlers.ImportHandler, _ *config.Config) error {
				records, err := handler.HandleHistory(ctx, limit)
				if err != nil {
					return err
				}
				if globalJSON {
					return printJSON(out, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(out, "No imports recorded")
					return nil
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "IMPORTED\tSOURCE\tTENDERS\tCOMPANIES\tBIDS\tID")
				for _, rec := range records {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
						rec.ImportedAt.Local().Format("2006-01-02 15:04:05"),
						rec.Source,
						rec.Counts["tenders"],
						rec.Counts["companies"],
						rec.Counts["bids"],
						rec.ID)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultHistoryLimit, "Maximum imports to show (0 = all)")

	return cmd
}
