// Package mocks provides test doubles and fixture builders for the domain ports.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// RelationalDB is a mock implementation of ports.RelationalDB.
// Loads return Dataset; Err, when set, is returned by every method.
type RelationalDB struct {
	mu      sync.Mutex
	Dataset *entities.Dataset
	Err     error
	Loads   int
	Saved   []*entities.Dataset
	Imports []entities.ImportRecord
}

// NewRelationalDB creates a mock serving the given dataset.
func NewRelationalDB(ds *entities.Dataset) *RelationalDB {
	return &RelationalDB{Dataset: ds}
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *RelationalDB) Close() error {
	return nil
}

// LoadDataset returns the configured dataset.
func (m *RelationalDB) LoadDataset(_ context.Context) (*entities.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Loads++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Dataset == nil {
		return &entities.Dataset{}, nil
	}
	ds := *m.Dataset
	return &ds, nil
}

// SaveDataset records the dataset and serves it on later loads.
func (m *RelationalDB) SaveDataset(_ context.Context, ds *entities.Dataset, source string) (*entities.ImportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Saved = append(m.Saved, ds)
	m.Dataset = ds
	rec := entities.ImportRecord{
		ID:         fmt.Sprintf("import-%d", len(m.Imports)+1),
		Source:     source,
		Counts:     entities.DatasetCounts(ds),
		ImportedAt: time.Now(),
	}
	m.Imports = append(m.Imports, rec)
	return &rec, nil
}

// ListImports returns recorded imports, newest first.
func (m *RelationalDB) ListImports(_ context.Context, limit int) ([]entities.ImportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]entities.ImportRecord, 0, len(m.Imports))
	for i := len(m.Imports) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, m.Imports[i])
	}
	return out, nil
}

// CountEntities returns the sizes of the current dataset.
func (m *RelationalDB) CountEntities(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	ds := m.Dataset
	if ds == nil {
		ds = &entities.Dataset{}
	}
	return entities.DatasetCounts(ds), nil
}

// SetDataset swaps the served dataset.
func (m *RelationalDB) SetDataset(ds *entities.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dataset = ds
}

// SetErr sets the error returned by every method.
func (m *RelationalDB) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}
