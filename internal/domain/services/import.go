package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/ports"
)

// ImportMode selects how incoming records combine with the stored dataset.
type ImportMode string

const (
	// ImportReplace discards the stored dataset.
	ImportReplace ImportMode = "replace"
	// ImportMerge adds incoming records to the stored dataset by id.
	ImportMerge ImportMode = "merge"
)

// ConflictStrategy defines how to handle existing records during a merge.
type ConflictStrategy string

const (
	// ConflictSkip keeps the stored record when ids clash.
	ConflictSkip ConflictStrategy = "skip"
	// ConflictOverwrite replaces the stored record with the incoming one.
	ConflictOverwrite ConflictStrategy = "overwrite"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	Mode       ImportMode       // How incoming data combines with stored data
	OnConflict ConflictStrategy // How to handle clashing ids when merging
	DryRun     bool             // Validate without saving
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	// Counts are the per-kind sizes of the dataset that was (or would be) stored.
	Counts  map[string]int
	Skipped int
	// Errors lists every validation problem; nothing is stored when non-empty.
	Errors []error
	Record *entities.ImportRecord
}

// ImportService validates datasets and stores them in the relational database.
type ImportService struct {
	db     ports.RelationalDB
	logger *zap.Logger
}

// NewImportService creates a new import service.
func NewImportService(db ports.RelationalDB, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{db: db, logger: logger}
}

// Import validates ds, combined with the stored dataset when merging, and
// saves the result unless opts.DryRun is set. Validation problems are reported
// in the result rather than as an error.
func (s *ImportService) Import(ctx context.Context, ds *entities.Dataset, source string, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	target := ds
	if opts.Mode == ImportMerge {
		existing, err := s.db.LoadDataset(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading stored dataset: %w", err)
		}
		target, result.Skipped = mergeDatasets(existing, ds, opts.OnConflict != ConflictSkip)
	}
	result.Counts = entities.DatasetCounts(target)

	if _, err := entities.NewSnapshot(target); err != nil {
		result.Errors = splitErrors(err)
		s.logger.Info("import rejected",
			zap.String("source", source),
			zap.Int("issues", len(result.Errors)))
		return result, nil
	}

	if opts.DryRun {
		return result, nil
	}

	rec, err := s.db.SaveDataset(ctx, target, source)
	if err != nil {
		return nil, fmt.Errorf("saving dataset: %w", err)
	}
	result.Record = rec

	s.logger.Info("dataset imported",
		zap.String("source", source),
		zap.String("import_id", rec.ID),
		zap.Int("entities", target.Size()),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// History returns the most recent imports, newest first.
func (s *ImportService) History(ctx context.Context, limit int) ([]entities.ImportRecord, error) {
	records, err := s.db.ListImports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing imports: %w", err)
	}
	return records, nil
}

func mergeDatasets(existing, incoming *entities.Dataset, overwrite bool) (*entities.Dataset, int) {
	out := &entities.Dataset{}
	var skipped, n int

	out.Tenders, n = mergeByID(existing.Tenders, incoming.Tenders, func(t entities.Tender) string { return t.ID }, overwrite)
	skipped += n
	out.Companies, n = mergeByID(existing.Companies, incoming.Companies, func(c entities.Company) string { return c.ID }, overwrite)
	skipped += n
	out.Directors, n = mergeByID(existing.Directors, incoming.Directors, func(d entities.Director) string { return d.ID }, overwrite)
	skipped += n
	out.Officials, n = mergeByID(existing.Officials, incoming.Officials, func(o entities.Official) string { return o.ID }, overwrite)
	skipped += n
	out.Bids, n = mergeByID(existing.Bids, incoming.Bids, func(b entities.Bid) string { return b.ID }, overwrite)
	skipped += n

	return out, skipped
}

// mergeByID appends incoming records to existing ones. A clashing id either
// replaces the stored record in place or is skipped and counted.
func mergeByID[T any](existing, incoming []T, id func(T) string, overwrite bool) ([]T, int) {
	out := make([]T, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	index := make(map[string]int, len(out))
	for i, rec := range out {
		index[id(rec)] = i
	}

	skipped := 0
	for _, rec := range incoming {
		i, ok := index[id(rec)]
		switch {
		case !ok:
			index[id(rec)] = len(out)
			out = append(out, rec)
		case overwrite:
			out[i] = rec
		default:
			skipped++
		}
	}
	return out, skipped
}

// splitErrors flattens an errors.Join result.
func splitErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
