package entities

import (
	"errors"
	"fmt"
)

// ErrNoSnapshot is returned when an operation runs before any snapshot was published.
var ErrNoSnapshot = errors.New("no snapshot loaded")

// ValidationError reports a structural problem with input entities.
// A snapshot containing any ValidationError is rejected as a whole.
type ValidationError struct {
	Entity  string
	ID      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case e.ID != "" && e.Field != "":
		return fmt.Sprintf("invalid %s %s: %s: %s", e.Entity, e.ID, e.Field, e.Message)
	case e.ID != "":
		return fmt.Sprintf("invalid %s %s: %s", e.Entity, e.ID, e.Message)
	case e.Field != "":
		return fmt.Sprintf("invalid %s: %s: %s", e.Entity, e.Field, e.Message)
	default:
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Message)
	}
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// DegradedRuleError reports that a rule could not be evaluated because an input it needs is missing.
// The rule is skipped; scoring continues with the remaining rules.
type DegradedRuleError struct {
	Rule     RiskFactorType
	TenderID string
	Reason   string
}

func (e *DegradedRuleError) Error() string {
	return fmt.Sprintf("rule %s degraded for tender %s: %s", e.Rule, e.TenderID, e.Reason)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
