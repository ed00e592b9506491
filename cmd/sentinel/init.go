package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinel-oversight/sentinel/internal/application/handlers"
	"github.com/sentinel-oversight/sentinel/internal/domain/ports"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/config"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/relationaldb/sqlite"
)

type initFlags struct {
	source string
	noDemo bool
}

func newInitCmd() *cobra.Command {
	var flags initFlags

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new sentinel project",
		Long: `Creates a .sentinel directory with default configuration and the demo dataset.

With --source sqlite the demo dataset is also imported into the database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.source, "source", config.SourceJSON, "Data source (json, sqlite)")
	cmd.Flags().BoolVar(&flags.noDemo, "no-demo", false, "Skip writing the demo dataset")

	return cmd
}

func runInit(cmd *cobra.Command, flags initFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	base, err := projectDir()
	if err != nil {
		return err
	}

	handler := handlers.NewInitHandler(func(cfg *config.Config) (ports.RelationalDB, error) {
		return sqlite.NewRepository(config.SQLiteConfig{Path: config.ResolvePath(base, cfg.SQLite.Path)})
	})

	result, err := handler.Handle(ctx, base, handlers.InitOptions{
		Source: flags.source,
		NoDemo: flags.noDemo,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created %s\n", result.ConfigPath)
	if result.DatasetPath != "" {
		fmt.Fprintf(out, "Wrote demo dataset to %s\n", result.DatasetPath)
	}
	if result.Seed != nil {
		fmt.Fprintf(out, "Seeded database with %d tenders (import %s)\n", result.Seed.Counts["tenders"], result.Seed.ID)
	}
	fmt.Fprintln(out, "Sentinel initialized successfully!")
	return nil
}
