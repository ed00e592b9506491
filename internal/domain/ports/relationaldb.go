package ports

import (
	"context"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// RelationalDB defines the relational store that persists imported datasets.
// It doubles as an EntityRepository so the engine can load from it directly.
type RelationalDB interface {
	EntityRepository

	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// SaveDataset replaces the stored dataset in a single transaction and
	// records the import in the audit log.
	SaveDataset(ctx context.Context, ds *entities.Dataset, source string) (*entities.ImportRecord, error)

	// ListImports returns the most recent imports, newest first.
	ListImports(ctx context.Context, limit int) ([]entities.ImportRecord, error)

	// CountEntities returns the number of stored rows per entity table.
	CountEntities(ctx context.Context) (map[string]int, error)
}
