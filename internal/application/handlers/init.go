package handlers

import (
	"context"
	"fmt"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/ports"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/config"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/datasetfile"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/demo"
)

// DBOpener opens the relational store described by cfg.
type DBOpener func(cfg *config.Config) (ports.RelationalDB, error)

// InitHandler handles project initialization.
type InitHandler struct {
	openDB DBOpener
}

// NewInitHandler creates a new init handler. openDB may be nil when the
// relational store is never seeded.
func NewInitHandler(openDB DBOpener) *InitHandler {
	return &InitHandler{
		openDB: openDB,
	}
}

// InitOptions controls initialization.
type InitOptions struct {
	Source string // "json" or "sqlite" (empty = json)
	NoDemo bool   // Skip writing the demo dataset
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath  string
	DatasetPath string
	Source      string
	Seed        *entities.ImportRecord
}

// Handle writes the config and, unless disabled, the demo dataset. With the
// sqlite source the demo dataset is also imported into the database.
func (h *InitHandler) Handle(ctx context.Context, basePath string, opts InitOptions) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("sentinel already initialized in %s", basePath)
	}

	cfg := config.Default()
	if opts.Source != "" {
		cfg.Data.Source = opts.Source
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Data.Source == config.SourceJSON {
		if err := config.WriteDefault(basePath); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
	} else if err := config.Write(basePath, cfg); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	result := &InitResult{
		ConfigPath: config.ConfigFilePath(basePath),
		Source:     cfg.Data.Source,
	}
	if opts.NoDemo {
		return result, nil
	}

	result.DatasetPath = config.ResolvePath(basePath, cfg.Data.Path)
	if err := datasetfile.WriteRaw(result.DatasetPath, demo.JSON()); err != nil {
		return nil, fmt.Errorf("writing demo dataset: %w", err)
	}

	if cfg.Data.Source == config.SourceSQLite && h.openDB != nil {
		rec, err := h.seed(ctx, cfg)
		if err != nil {
			return nil, err
		}
		result.Seed = rec
	}

	return result, nil
}

func (h *InitHandler) seed(ctx context.Context, cfg *config.Config) (*entities.ImportRecord, error) {
	db, err := h.openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	ds, err := demo.Dataset()
	if err != nil {
		return nil, err
	}
	rec, err := db.SaveDataset(ctx, ds, "demo")
	if err != nil {
		return nil, fmt.Errorf("seeding database: %w", err)
	}
	return rec, nil
}
