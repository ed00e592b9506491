package entities

// RiskFactorType identifies one of the five risk rules.
type RiskFactorType string

const (
	FactorConflictOfInterest RiskFactorType = "CONFLICT_OF_INTEREST"
	FactorCartelPattern      RiskFactorType = "CARTEL_PATTERN"
	FactorShellCompany       RiskFactorType = "SHELL_COMPANY"
	FactorPriceAnomaly       RiskFactorType = "PRICE_ANOMALY"
	FactorRushedTimeline     RiskFactorType = "RUSHED_TIMELINE"
)

// RiskFactorTypes lists the factor types in their fixed reporting order.
var RiskFactorTypes = []RiskFactorType{
	FactorConflictOfInterest,
	FactorCartelPattern,
	FactorShellCompany,
	FactorPriceAnomaly,
	FactorRushedTimeline,
}

var factorWeights = map[RiskFactorType]int{
	FactorConflictOfInterest: 30,
	FactorCartelPattern:      25,
	FactorShellCompany:       20,
	FactorPriceAnomaly:       15,
	FactorRushedTimeline:     10,
}

// Weight returns the fixed score contribution of the factor type, or 0 for unknown types.
func (t RiskFactorType) Weight() int {
	return factorWeights[t]
}

// Rank returns the position of t in the reporting order, or -1 for unknown types.
func (t RiskFactorType) Rank() int {
	for i, v := range RiskFactorTypes {
		if v == t {
			return i
		}
	}
	return -1
}

// RiskCategory buckets an overall score.
type RiskCategory string

const (
	RiskHigh   RiskCategory = "HIGH"
	RiskMedium RiskCategory = "MEDIUM"
	RiskLow    RiskCategory = "LOW"
)

// Category score thresholds.
const (
	HighRiskThreshold   = 70
	MediumRiskThreshold = 40
	MaxRiskScore        = 100
)

// IsValid reports whether c is a known category.
func (c RiskCategory) IsValid() bool {
	return c == RiskHigh || c == RiskMedium || c == RiskLow
}

// CategoryFor maps an overall score to its category.
func CategoryFor(score int) RiskCategory {
	switch {
	case score >= HighRiskThreshold:
		return RiskHigh
	case score >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskFactor is one fired rule with its supporting evidence.
type RiskFactor struct {
	Type             RiskFactorType `json:"type"`
	Weight           int            `json:"weight"`
	Description      string         `json:"description"`
	Evidence         []string       `json:"evidence"`
	RelatedEntityIDs []string       `json:"related_entity_ids"`
}

// NewRiskFactor creates a factor carrying the fixed weight of its type.
func NewRiskFactor(t RiskFactorType, description string, evidence, related []string) *RiskFactor {
	return &RiskFactor{
		Type:             t,
		Weight:           t.Weight(),
		Description:      description,
		Evidence:         evidence,
		RelatedEntityIDs: related,
	}
}

// RiskScore is the explainable verdict for one tender.
// Recommendation is empty when no factor fired.
type RiskScore struct {
	TenderID       string       `json:"tender_id"`
	Overall        int          `json:"overall_score"`
	Category       RiskCategory `json:"category"`
	Factors        []RiskFactor `json:"factors"`
	Recommendation string       `json:"recommendation,omitempty"`
}

// HasFactor reports whether a factor of the given type fired.
func (s *RiskScore) HasFactor(t RiskFactorType) bool {
	return s.Factor(t) != nil
}

// Factor returns the fired factor of the given type, or nil.
func (s *RiskScore) Factor(t RiskFactorType) *RiskFactor {
	for i := range s.Factors {
		if s.Factors[i].Type == t {
			return &s.Factors[i]
		}
	}
	return nil
}
