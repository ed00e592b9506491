package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/graph"
)

var hundred = decimal.NewFromInt(100)

// PriceAnomaly fires when the award exceeds ratio times the estimated value.
// The award is the recorded awarded amount, or else the winner's lowest bid.
// A zero estimate never fires.
func PriceAnomaly(ratio decimal.Decimal) Evaluator {
	return func(t *entities.Tender, _ *graph.Graph, snap *entities.Snapshot) (*entities.RiskFactor, error) {
		if t.EstimatedValue.IsZero() {
			return nil, nil
		}
		amount, ok := awardAmount(t, snap)
		if !ok {
			if t.IsAwarded() {
				return nil, degraded(entities.FactorPriceAnomaly, t.ID, "winner has neither an awarded amount nor a bid")
			}
			return nil, nil
		}

		r := amount.Div(t.EstimatedValue)
		if !r.GreaterThan(ratio) {
			return nil, nil
		}
		excess := r.Sub(decimal.NewFromInt(1)).Mul(hundred).Truncate(0)

		evidence := []string{
			"Awarded amount: " + FormatKES(amount),
			"Estimated value: " + FormatKES(t.EstimatedValue),
			fmt.Sprintf("Ratio: %s (%s%% above estimate)", r.StringFixed(2), excess.String()),
		}
		if avg, ok := categoryAverage(t, snap); ok && amount.GreaterThan(avg.Mul(ratio)) {
			evidence = append(evidence, fmt.Sprintf("Category average for %s: %s", t.Category, FormatKES(avg)))
		}

		description := fmt.Sprintf("Awarded amount is %s%% above the estimated value", excess.String())
		related := []string{t.ID}
		if t.IsAwarded() {
			related = append(related, t.AwardedTo)
		}
		return entities.NewRiskFactor(entities.FactorPriceAnomaly, description, evidence, related), nil
	}
}

func awardAmount(t *entities.Tender, snap *entities.Snapshot) (decimal.Decimal, bool) {
	if t.AwardedAmount != nil {
		return *t.AwardedAmount, true
	}
	if !t.IsAwarded() {
		return decimal.Zero, false
	}
	var best decimal.Decimal
	found := false
	for _, b := range snap.BidsForTender(t.ID) {
		if b.CompanyID != t.AwardedTo {
			continue
		}
		if !found || b.Amount.LessThan(best) {
			best = b.Amount
			found = true
		}
	}
	return best, found
}

// categoryAverage averages the awarded amounts of the other awarded tenders in the same category.
func categoryAverage(t *entities.Tender, snap *entities.Snapshot) (decimal.Decimal, bool) {
	if t.Category == "" {
		return decimal.Zero, false
	}
	var amounts []decimal.Decimal
	for _, other := range snap.Tenders() {
		if other.ID == t.ID || other.Category != t.Category || other.AwardedAmount == nil {
			continue
		}
		if other.Status != entities.TenderAwarded {
			continue
		}
		amounts = append(amounts, *other.AwardedAmount)
	}
	if len(amounts) == 0 {
		return decimal.Zero, false
	}
	return decimal.Avg(amounts[0], amounts[1:]...), true
}
