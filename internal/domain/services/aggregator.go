package services

import (
	"sort"
	"strings"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// RecommendationSeparator joins the advisory phrases of a recommendation.
const RecommendationSeparator = " • "

var recommendations = map[entities.RiskFactorType]string{
	entities.FactorConflictOfInterest: "Escalate to internal audit and request conflict of interest declarations",
	entities.FactorCartelPattern:      "Review bidding patterns across related tenders",
	entities.FactorShellCompany:       "Verify company credentials and track record",
	entities.FactorPriceAnomaly:       "Freeze payment pending market price verification",
	entities.FactorRushedTimeline:     "Review justification for expedited timeline",
}

// Aggregate combines fired factors into a score for one tender.
// Factors are deduplicated by type (first wins), carry their type's fixed weight and
// are ordered by the standard rule order. The overall score is the clamped sum of weights.
func Aggregate(tenderID string, factors []*entities.RiskFactor) *entities.RiskScore {
	seen := make(map[entities.RiskFactorType]bool, len(factors))
	kept := make([]entities.RiskFactor, 0, len(factors))
	for _, f := range factors {
		if f == nil || seen[f.Type] || f.Type.Rank() < 0 {
			continue
		}
		seen[f.Type] = true
		factor := *f
		factor.Weight = f.Type.Weight()
		kept = append(kept, factor)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Type.Rank() < kept[j].Type.Rank() })

	overall := 0
	phrases := make([]string, 0, len(kept))
	for _, f := range kept {
		overall += f.Weight
		phrases = append(phrases, recommendations[f.Type])
	}
	overall = min(max(overall, 0), entities.MaxRiskScore)

	return &entities.RiskScore{
		TenderID:       tenderID,
		Overall:        overall,
		Category:       entities.CategoryFor(overall),
		Factors:        kept,
		Recommendation: strings.Join(phrases, RecommendationSeparator),
	}
}
