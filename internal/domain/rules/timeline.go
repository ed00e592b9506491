package rules

import (
	"fmt"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/graph"
)

// RushedTimeline fires when the bidding window is shorter than minWindowDays.
func RushedTimeline(minWindowDays int) Evaluator {
	return func(t *entities.Tender, _ *graph.Graph, _ *entities.Snapshot) (*entities.RiskFactor, error) {
		if t.PublishedDate.IsZero() || t.Deadline.IsZero() {
			return nil, degraded(entities.FactorRushedTimeline, t.ID, "publication or deadline date missing")
		}
		days := t.WindowDays()
		if days >= minWindowDays {
			return nil, nil
		}

		evidence := []string{
			"Published: " + t.PublishedDate.Format(dateLayout),
			"Deadline: " + t.Deadline.Format(dateLayout),
			fmt.Sprintf("Bidding window: %d days (minimum %d)", days, minWindowDays),
		}
		description := fmt.Sprintf("Tender was open for bids for only %d days", days)
		return entities.NewRiskFactor(entities.FactorRushedTimeline, description, evidence, []string{t.ID}), nil
	}
}
