// Package datasetfile serves the entity dataset from a JSON file on disk.
package datasetfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/parsers"
)

// Repository implements ports.EntityRepository over a dataset file.
// The file is re-read on every load.
type Repository struct {
	path string
}

// NewRepository creates a repository reading from path.
func NewRepository(path string) (*Repository, error) {
	if path == "" {
		return nil, errors.New("dataset path is required")
	}
	if parsers.ForFile(path) == nil {
		return nil, fmt.Errorf("unsupported dataset format: %s", filepath.Base(path))
	}
	return &Repository{path: path}, nil
}

// Path returns the dataset file path.
func (r *Repository) Path() string {
	return r.path
}

// LoadDataset parses and validates the dataset file.
func (r *Repository) LoadDataset(ctx context.Context) (*entities.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := parsers.LoadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	return ds, nil
}

// Write stores ds at path in the JSON dataset format, replacing any existing
// file atomically.
func Write(path string, ds *entities.Dataset) error {
	data, err := json.MarshalIndent(parsers.FromDataset(ds), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling dataset: %w", err)
	}
	return WriteRaw(path, data)
}

// WriteRaw stores already-encoded dataset bytes at path atomically.
func WriteRaw(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing dataset: %w", err)
	}
	return nil
}
