// Package demo ships a synthetic procurement dataset with known risk patterns:
// a four-company bidding ring sharing an address and phone, a shell company
// registered days before its win, an official whose sibling directs the
// winner, an award at 180% of estimate and a four-day emergency tender.
package demo

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/parsers"
)

//go:embed dataset.json
var datasetJSON []byte

// JSON returns the raw dataset document.
func JSON() []byte {
	return bytes.Clone(datasetJSON)
}

// Dataset parses the embedded dataset. Each call returns a fresh copy.
func Dataset() (*entities.Dataset, error) {
	raw, err := (&parsers.JSONParser{}).Parse(bytes.NewReader(datasetJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing demo dataset: %w", err)
	}
	return raw.ToDataset()
}
