package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/graph"
)

// ShellCompany fires when a large contract goes to a company registered fewer than
// windowDays days before the tender deadline. Registration after the deadline counts
// as a negative window and fires as well.
func ShellCompany(windowDays int, largeContract decimal.Decimal) Evaluator {
	return func(t *entities.Tender, _ *graph.Graph, snap *entities.Snapshot) (*entities.RiskFactor, error) {
		if !t.IsAwarded() {
			return nil, nil
		}
		if !t.EstimatedValue.GreaterThan(largeContract) {
			return nil, nil
		}
		winner, ok := snap.Company(t.AwardedTo)
		if !ok {
			return nil, degraded(entities.FactorShellCompany, t.ID, "winning company record missing")
		}
		if winner.RegistrationDate.IsZero() {
			return nil, degraded(entities.FactorShellCompany, t.ID, "winning company has no registration date")
		}

		days := entities.DaysBetween(winner.RegistrationDate, t.Deadline)
		if days >= windowDays {
			return nil, nil
		}

		evidence := []string{
			fmt.Sprintf("Company: %s (%s)", winner.Name, winner.RegistrationNumber),
			"Registration date: " + winner.RegistrationDate.Format(dateLayout),
			"Tender deadline: " + t.Deadline.Format(dateLayout),
			fmt.Sprintf("Registered %d days before the deadline", days),
			"Contract value: " + FormatKES(t.EstimatedValue),
		}
		description := fmt.Sprintf("Contract worth %s awarded to %s, registered only %d days before the tender deadline",
			FormatKES(t.EstimatedValue), winner.Name, days)

		return entities.NewRiskFactor(entities.FactorShellCompany, description, evidence, []string{winner.ID}), nil
	}
}
