package entities

import "time"

// ImportRecord is an audit entry written each time a dataset is stored.
type ImportRecord struct {
	ID         string         `json:"id"`
	Source     string         `json:"source,omitempty"`
	Counts     map[string]int `json:"counts"`
	ImportedAt time.Time      `json:"imported_at"`
}

// DatasetCounts returns the per-kind entity counts of ds, keyed by table name.
func DatasetCounts(ds *Dataset) map[string]int {
	return map[string]int{
		"tenders":   len(ds.Tenders),
		"companies": len(ds.Companies),
		"directors": len(ds.Directors),
		"officials": len(ds.Officials),
		"bids":      len(ds.Bids),
	}
}
