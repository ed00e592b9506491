package entities

import (
	"strings"
	"time"
	"unicode"
)

// Company is a registered supplier.
type Company struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	RegistrationNumber string    `json:"registration_number"`
	RegistrationDate   time.Time `json:"registration_date"`
	Address            string    `json:"address"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email,omitempty"`
	DirectorIDs        []string  `json:"director_ids"`
}

// Director is a person holding directorships in one or more companies.
type Director struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	NationalID string   `json:"national_id,omitempty"`
	CompanyIDs []string `json:"company_ids"`
}

// RelationKind is the declared kind of a relationship between an official and a person or company.
type RelationKind string

const (
	RelationSibling         RelationKind = "SIBLING"
	RelationSpouse          RelationKind = "SPOUSE"
	RelationParentChild     RelationKind = "PARENT_CHILD"
	RelationBusinessPartner RelationKind = "BUSINESS_PARTNER"
)

// IsValid reports whether k is a known relation kind.
func (k RelationKind) IsValid() bool {
	switch k {
	case RelationSibling, RelationSpouse, RelationParentChild, RelationBusinessPartner:
		return true
	}
	return false
}

// OfficialRelation is a declared relationship from an official to a director or company.
type OfficialRelation struct {
	TargetID string       `json:"target_id"`
	Kind     RelationKind `json:"kind"`
}

// Official is a public servant who may award tenders.
type Official struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Department string             `json:"department"`
	Position   string             `json:"position"`
	Relations  []OfficialRelation `json:"relations,omitempty"`
}

// NormalizeAddress folds an address for equality matching: lowercase with all whitespace removed.
func NormalizeAddress(address string) string {
	var b strings.Builder
	b.Grow(len(address))
	for _, r := range strings.ToLower(address) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
