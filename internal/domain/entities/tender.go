package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TenderStatus is the lifecycle state of a tender.
type TenderStatus string

const (
	TenderOpen       TenderStatus = "OPEN"
	TenderEvaluation TenderStatus = "EVALUATION"
	TenderAwarded    TenderStatus = "AWARDED"
	TenderCancelled  TenderStatus = "CANCELLED"
)

// TenderStatuses lists every valid tender status.
var TenderStatuses = []TenderStatus{TenderOpen, TenderEvaluation, TenderAwarded, TenderCancelled}

// IsValid reports whether s is a known status.
func (s TenderStatus) IsValid() bool {
	for _, v := range TenderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Tender is a public procurement opportunity.
// An empty AwardedTo or AwardingOfficialID means the reference is absent.
type Tender struct {
	ID                 string           `json:"id"`
	Reference          string           `json:"reference_number"`
	Title              string           `json:"title"`
	Description        string           `json:"description,omitempty"`
	ProcuringEntity    string           `json:"procuring_entity"`
	Category           string           `json:"category"`
	EstimatedValue     decimal.Decimal  `json:"estimated_value"`
	PublishedDate      time.Time        `json:"published_date"`
	Deadline           time.Time        `json:"deadline"`
	Status             TenderStatus     `json:"status"`
	AwardedTo          string           `json:"awarded_to,omitempty"`
	AwardedAmount      *decimal.Decimal `json:"awarded_amount,omitempty"`
	AwardingOfficialID string           `json:"awarding_official_id,omitempty"`
}

// IsAwarded reports whether the tender names a winning company.
func (t *Tender) IsAwarded() bool {
	return t.AwardedTo != ""
}

// WindowDays returns the number of whole days between publication and deadline.
func (t *Tender) WindowDays() int {
	return DaysBetween(t.PublishedDate, t.Deadline)
}

// Bid is a company's offer on a tender.
type Bid struct {
	ID             string           `json:"id"`
	TenderID       string           `json:"tender_id"`
	CompanyID      string           `json:"company_id"`
	Amount         decimal.Decimal  `json:"amount"`
	SubmittedAt    time.Time        `json:"submission_date"`
	TechnicalScore *decimal.Decimal `json:"technical_score,omitempty"`
}

// DaysBetween returns the signed number of calendar days from one date to another.
// Times of day are ignored.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
