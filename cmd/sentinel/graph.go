package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentinel-oversight/sentinel/internal/application/handlers"
)

type graphFlags struct {
	depth  int
	format string
	output string
}

func newGraphCmd() *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "graph [tender-id]",
		Short: "Export the relationship graph",
		Long: `Exports the shadow graph for visualization. Without a tender id the whole
graph is exported; with one, only its neighborhood within --depth hops.

Examples:
  sentinel graph tender-001 --depth 2
  sentinel graph --format dot --output graph.dot`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenderID := ""
			if len(args) == 1 {
				tenderID = args[0]
			}
			return runGraph(cmd, tenderID, flags)
		},
	}

	cmd.Flags().IntVar(&flags.depth, "depth", 2, "Traversal depth around the tender (1-5)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", handlers.FormatJSON, "Output format (json, dot)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

func runGraph(cmd *cobra.Command, tenderID string, flags graphFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		data, err := d.Graph.HandleExport(ctx, handlers.ExportOptions{TenderID: tenderID, Depth: flags.depth})
		if err != nil {
			return err
		}

		if flags.output == "" {
			return handlers.RenderGraph(cmd.OutOrStdout(), data, flags.format)
		}

		file, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		if err := handlers.RenderGraph(file, data, flags.format); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("closing output file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d nodes and %d edges to %s\n", len(data.Nodes), len(data.Edges), flags.output)
		return nil
	})
}
