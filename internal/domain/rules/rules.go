// Package rules implements the independent risk rules evaluated against a tender.
//
// Every rule is a pure Evaluator: it reads the tender, the shared graph and the
// snapshot, and returns zero or one RiskFactor. A DegradedRuleError means the rule
// lacked an input it needs and must be skipped; any other error is unexpected.
package rules

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/graph"
)

// Evaluator inspects one tender and returns a factor when its rule fires.
type Evaluator func(tender *entities.Tender, g *graph.Graph, snap *entities.Snapshot) (*entities.RiskFactor, error)

// Rule pairs an evaluator with the factor type it produces.
type Rule struct {
	Type     entities.RiskFactorType
	Evaluate Evaluator
}

// Thresholds configures the rule triggers.
type Thresholds struct {
	ConflictMaxHops         int
	CartelMinSharedTenders  int
	CartelMinGroupSize      int
	CartelMinRotationWins   int
	ShellWindowDays         int
	ShellLargeContractValue decimal.Decimal
	PriceAnomalyRatio       decimal.Decimal
	RushedMinWindowDays     int
}

// DefaultThresholds returns the standard trigger values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConflictMaxHops:         2,
		CartelMinSharedTenders:  2,
		CartelMinGroupSize:      3,
		CartelMinRotationWins:   2,
		ShellWindowDays:         30,
		ShellLargeContractValue: decimal.NewFromInt(10_000_000),
		PriceAnomalyRatio:       decimal.RequireFromString("1.5"),
		RushedMinWindowDays:     7,
	}
}

// IsZero reports whether no threshold has been set.
func (th Thresholds) IsZero() bool {
	return th.ConflictMaxHops == 0 && th.CartelMinSharedTenders == 0 && th.CartelMinGroupSize == 0 &&
		th.CartelMinRotationWins == 0 && th.ShellWindowDays == 0 && th.RushedMinWindowDays == 0 &&
		th.ShellLargeContractValue.IsZero() && th.PriceAnomalyRatio.IsZero()
}

// Standard returns the five rules in reporting order.
func Standard(th Thresholds) []Rule {
	return []Rule{
		{Type: entities.FactorConflictOfInterest, Evaluate: ConflictOfInterest(th.ConflictMaxHops)},
		{Type: entities.FactorCartelPattern, Evaluate: CartelPattern(th.CartelMinSharedTenders, th.CartelMinGroupSize, th.CartelMinRotationWins)},
		{Type: entities.FactorShellCompany, Evaluate: ShellCompany(th.ShellWindowDays, th.ShellLargeContractValue)},
		{Type: entities.FactorPriceAnomaly, Evaluate: PriceAnomaly(th.PriceAnomalyRatio)},
		{Type: entities.FactorRushedTimeline, Evaluate: RushedTimeline(th.RushedMinWindowDays)},
	}
}

func degraded(rule entities.RiskFactorType, tenderID, reason string) error {
	return &entities.DegradedRuleError{Rule: rule, TenderID: tenderID, Reason: reason}
}

// FormatKES renders an amount in whole shillings with thousands separators.
func FormatKES(d decimal.Decimal) string {
	s := d.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "KES -" + b.String()
	}
	return "KES " + b.String()
}

const dateLayout = "2006-01-02"
