package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sentinel-oversight/sentinel/internal/application/handlers"
	"github.com/sentinel-oversight/sentinel/internal/domain/ports"
	"github.com/sentinel-oversight/sentinel/internal/domain/services"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/config"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/datasetfile"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/logging"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config *config.Config
	Logger *zap.Logger
	Risk   *handlers.RiskHandler
	Graph  *handlers.GraphHandler
}

// internalDeps holds all dependencies including low-level components.
// Used internally by helper functions.
type internalDeps struct {
	Deps
	basePath string
	dataPath string // JSON dataset file; empty for the sqlite source
	service  *services.RiskService
}

// projectDir returns the --dir flag or the working directory.
func projectDir() (string, error) {
	if globalDir != "" {
		return globalDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}

// loadConfig loads the project config and builds the logger.
func loadConfig() (string, *config.Config, *zap.Logger, error) {
	base, err := projectDir()
	if err != nil {
		return "", nil, nil, err
	}

	cfg, err := config.Load(base)
	if err != nil {
		return "", nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return "", nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return base, cfg, logger, nil
}

// withDeps loads config, publishes the first snapshot and calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including the risk service.
// Used by commands that need direct service access.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	base, cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	deps := &internalDeps{
		Deps:     Deps{Config: cfg, Logger: logger},
		basePath: base,
	}

	var repo ports.EntityRepository
	switch cfg.Data.Source {
	case config.SourceSQLite:
		db, err := openSQLite(ctx, base, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = db
	default:
		deps.dataPath = config.ResolvePath(base, cfg.Data.Path)
		fileRepo, err := datasetfile.NewRepository(deps.dataPath)
		if err != nil {
			return fmt.Errorf("creating dataset repository: %w", err)
		}
		repo = fileRepo
	}

	deps.service = services.NewRiskService(repo, services.RiskServiceOptions{
		Thresholds: cfg.Rules.Thresholds(),
		Workers:    cfg.Engine.Workers,
		Logger:     logger,
	})
	if _, err := deps.service.Refresh(ctx); err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	deps.Risk = handlers.NewRiskHandler(deps.service, cfg.Engine.ScoreTimeout)
	deps.Graph = handlers.NewGraphHandler(deps.service, cfg.Engine.ScoreTimeout)

	return fn(deps)
}

// openSQLite opens the configured database and ensures its schema exists.
func openSQLite(ctx context.Context, base string, cfg *config.Config) (*sqlite.Repository, error) {
	db, err := sqlite.NewRepository(config.SQLiteConfig{Path: config.ResolvePath(base, cfg.SQLite.Path)})
	if err != nil {
		return nil, fmt.Errorf("creating sqlite repository: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring sqlite schema: %w", err)
	}
	return db, nil
}

// withImportHandler creates an ImportHandler over the relational store.
// Imports always target SQLite, whatever the configured data source.
func withImportHandler(ctx context.Context, fn func(*handlers.ImportHandler, *config.Config) error) error {
	base, cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	db, err := openSQLite(ctx, base, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	importService := services.NewImportService(db, logger)
	return fn(handlers.NewImportHandler(importService), cfg)
}
