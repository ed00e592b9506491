package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/services"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/parsers"
)

// ImportHandler handles importing datasets from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string                    // "json", "csv", or "auto"
	DryRun     bool                      // Validate without saving
	Merge      bool                      // Add to the stored dataset instead of replacing it
	OnConflict services.ConflictStrategy // How to handle clashing ids when merging
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Source  string
	Counts  map[string]int
	Skipped int
	Errors  []error
	Record  *entities.ImportRecord
}

// Handle parses every file, combines them into one dataset and imports it.
// A typical call pairs a JSON dataset with a CSV file of additional bids.
func (h *ImportHandler) Handle(ctx context.Context, filePaths []string, opts ImportOptions) (*ImportResult, error) {
	if len(filePaths) == 0 {
		return nil, fmt.Errorf("no files to import")
	}

	combined := &parsers.RawDataset{}
	names := make([]string, 0, len(filePaths))
	for _, path := range filePaths {
		raw, err := parseFile(path, opts.Format)
		if err != nil {
			return nil, err
		}
		combined.Merge(raw)
		names = append(names, filepath.Base(path))
	}
	source := strings.Join(names, ",")

	ds, err := combined.ToDataset()
	if err != nil {
		return &ImportResult{Source: source, Errors: unjoin(err)}, nil
	}

	mode := services.ImportReplace
	if opts.Merge {
		mode = services.ImportMerge
	}
	serviceResult, err := h.service.Import(ctx, ds, source, services.ImportOptions{
		Mode:       mode,
		OnConflict: opts.OnConflict,
		DryRun:     opts.DryRun,
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Source:  source,
		Counts:  serviceResult.Counts,
		Skipped: serviceResult.Skipped,
		Errors:  serviceResult.Errors,
		Record:  serviceResult.Record,
	}, nil
}

// HandleHistory lists recent imports, newest first.
func (h *ImportHandler) HandleHistory(ctx context.Context, limit int) ([]entities.ImportRecord, error) {
	return h.service.History(ctx, limit)
}

func parseFile(filePath, format string) (*parsers.RawDataset, error) {
	// Get parser
	var parser parsers.Parser
	if format == "" || format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	raw, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(filePath), err)
	}
	return raw, nil
}

func unjoin(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
