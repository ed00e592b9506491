package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// Stats summarizes the published snapshot for a dashboard.
type Stats struct {
	TotalTenders    int             `json:"total_tenders"`
	HighRiskCount   int             `json:"high_risk_count"`
	MediumRiskCount int             `json:"medium_risk_count"`
	LowRiskCount    int             `json:"low_risk_count"`
	PendingReview   int             `json:"pending_review"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Flagged         int             `json:"flagged"`
	SnapshotVersion string          `json:"snapshot_version"`
}

// Stats scores every tender and counts them by category. Pending review covers
// open tenders and tenders under evaluation; flagged counts high-risk tenders.
func (s *RiskService) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.loaded()
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreMap(ctx, st)
	if err != nil {
		return nil, err
	}

	out := &Stats{SnapshotVersion: st.snapshot.Version, TotalValue: decimal.Zero}
	for _, t := range st.snapshot.Tenders() {
		out.TotalTenders++
		out.TotalValue = out.TotalValue.Add(t.EstimatedValue)
		if t.Status == entities.TenderOpen || t.Status == entities.TenderEvaluation {
			out.PendingReview++
		}
		switch scores[t.ID].Category {
		case entities.RiskHigh:
			out.HighRiskCount++
		case entities.RiskMedium:
			out.MediumRiskCount++
		default:
			out.LowRiskCount++
		}
	}
	out.Flagged = out.HighRiskCount
	return out, nil
}
