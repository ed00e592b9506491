// Package ports declares the interfaces the domain depends on.
package ports

import (
	"context"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// EntityRepository supplies the current procurement dataset.
// The engine only reads from it; every call returns a complete, self-contained dataset.
type EntityRepository interface {
	// LoadDataset returns the current entities.
	LoadDataset(ctx context.Context) (*entities.Dataset, error)
}
