package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses a full dataset document:
// {"tenders": [...], "companies": [...], "directors": [...], "officials": [...], "bids": [...]}.
type JSONParser struct{}

// Parse reads JSON from the reader and returns the raw dataset.
func (p *JSONParser) Parse(r io.Reader) (*RawDataset, error) {
	var raw RawDataset

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Line numbers are array positions, 1-indexed
	for i := range raw.Tenders {
		raw.Tenders[i].LineNum = i + 1
	}
	for i := range raw.Companies {
		raw.Companies[i].LineNum = i + 1
	}
	for i := range raw.Directors {
		raw.Directors[i].LineNum = i + 1
	}
	for i := range raw.Officials {
		raw.Officials[i].LineNum = i + 1
	}
	for i := range raw.Bids {
		raw.Bids[i].LineNum = i + 1
	}

	return &raw, nil
}
