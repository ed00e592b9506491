// Package parsers reads procurement datasets from external file formats.
package parsers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// RawTender is a tender as read from a file, before validation.
type RawTender struct {
	ID                   string           `json:"id" validate:"required"`
	ReferenceNumber      string           `json:"reference_number"`
	Title                string           `json:"title" validate:"required"`
	Description          string           `json:"description,omitempty"`
	ProcuringEntity      string           `json:"procuring_entity"`
	Category             string           `json:"category"`
	EstimatedValue       decimal.Decimal  `json:"estimated_value"`
	PublishedDate        string           `json:"published_date" validate:"required"`
	Deadline             string           `json:"deadline" validate:"required"`
	Status               string           `json:"status" validate:"required,oneof=OPEN EVALUATION AWARDED CANCELLED"`
	AwardedTo            string           `json:"awarded_to,omitempty"`
	AwardedAmount        *decimal.Decimal `json:"awarded_amount,omitempty"`
	ProcurementOfficerID string           `json:"procurement_officer_id,omitempty"`
	LineNum              int              `json:"-"`
}

// RawCompany is a company as read from a file.
type RawCompany struct {
	ID                 string   `json:"id" validate:"required"`
	Name               string   `json:"name" validate:"required"`
	RegistrationNumber string   `json:"registration_number"`
	RegistrationDate   string   `json:"registration_date,omitempty"`
	Address            string   `json:"address"`
	Phone              string   `json:"phone"`
	Email              string   `json:"email,omitempty" validate:"omitempty,email"`
	DirectorIDs        []string `json:"director_ids" validate:"dive,required"`
	LineNum            int      `json:"-"`
}

// RawDirector is a director as read from a file.
type RawDirector struct {
	ID         string   `json:"id" validate:"required"`
	Name       string   `json:"name" validate:"required"`
	NationalID string   `json:"national_id,omitempty"`
	CompanyIDs []string `json:"company_ids" validate:"dive,required"`
	LineNum    int      `json:"-"`
}

// RawOfficial is a public official as read from a file. RelatedPersons maps a
// director or company id to the declared relationship kind.
type RawOfficial struct {
	ID             string            `json:"id" validate:"required"`
	Name           string            `json:"name" validate:"required"`
	Department     string            `json:"department"`
	Position       string            `json:"position"`
	RelatedPersons map[string]string `json:"related_persons,omitempty" validate:"dive,keys,required,endkeys,oneof=SIBLING SPOUSE PARENT_CHILD BUSINESS_PARTNER"`
	LineNum        int               `json:"-"`
}

// RawBid is a bid as read from a file.
type RawBid struct {
	ID             string           `json:"id" validate:"required"`
	TenderID       string           `json:"tender_id" validate:"required"`
	CompanyID      string           `json:"company_id" validate:"required"`
	Amount         decimal.Decimal  `json:"amount"`
	SubmissionDate string           `json:"submission_date" validate:"required"`
	TechnicalScore *decimal.Decimal `json:"technical_score,omitempty"`
	LineNum        int              `json:"-"`
}

// RawDataset groups raw records by kind.
type RawDataset struct {
	Tenders   []RawTender   `json:"tenders"`
	Companies []RawCompany  `json:"companies"`
	Directors []RawDirector `json:"directors"`
	Officials []RawOfficial `json:"officials"`
	Bids      []RawBid      `json:"bids"`
}

// Merge appends the records of other to d.
func (d *RawDataset) Merge(other *RawDataset) {
	d.Tenders = append(d.Tenders, other.Tenders...)
	d.Companies = append(d.Companies, other.Companies...)
	d.Directors = append(d.Directors, other.Directors...)
	d.Officials = append(d.Officials, other.Officials...)
	d.Bids = append(d.Bids, other.Bids...)
}

// Parser defines the interface for parsing datasets from various formats.
type Parser interface {
	Parse(r io.Reader) (*RawDataset, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json" (full dataset), "csv" (bids only).
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &BidCSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &BidCSVParser{}
	default:
		return nil
	}
}

// ParseFile parses a file with the parser matching its extension.
func ParseFile(path string) (*RawDataset, error) {
	parser := ForFile(path)
	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	raw, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return raw, nil
}

// LoadFile parses and converts a dataset file.
func LoadFile(path string) (*entities.Dataset, error) {
	raw, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return raw.ToDataset()
}
