package mocks

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// DatasetBuilder assembles consistent datasets for tests.
type DatasetBuilder struct {
	ds entities.Dataset
}

// NewDataset returns an empty builder.
func NewDataset() *DatasetBuilder {
	return &DatasetBuilder{}
}

// Date parses a YYYY-MM-DD date and panics on malformed input.
func Date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Company adds a company. An empty registered date leaves the registration date unset.
func (b *DatasetBuilder) Company(id, name, address, phone, registered string) *DatasetBuilder {
	c := entities.Company{
		ID:                 id,
		Name:               name,
		RegistrationNumber: "PVT-" + id,
		Address:            address,
		Phone:              phone,
	}
	if registered != "" {
		c.RegistrationDate = Date(registered)
	}
	b.ds.Companies = append(b.ds.Companies, c)
	return b
}

// Director adds a director and registers it on each named company.
func (b *DatasetBuilder) Director(id, name string, companyIDs ...string) *DatasetBuilder {
	b.ds.Directors = append(b.ds.Directors, entities.Director{ID: id, Name: name, CompanyIDs: companyIDs})
	for _, cid := range companyIDs {
		for i := range b.ds.Companies {
			if b.ds.Companies[i].ID == cid {
				b.ds.Companies[i].DirectorIDs = append(b.ds.Companies[i].DirectorIDs, id)
			}
		}
	}
	return b
}

// Official adds an official.
func (b *DatasetBuilder) Official(id, name string) *DatasetBuilder {
	b.ds.Officials = append(b.ds.Officials, entities.Official{
		ID:         id,
		Name:       name,
		Department: "Procurement",
		Position:   "Procurement Officer",
	})
	return b
}

// Relation declares a relationship from an existing official to a director or company.
func (b *DatasetBuilder) Relation(officialID, targetID string, kind entities.RelationKind) *DatasetBuilder {
	for i := range b.ds.Officials {
		if b.ds.Officials[i].ID == officialID {
			b.ds.Officials[i].Relations = append(b.ds.Officials[i].Relations,
				entities.OfficialRelation{TargetID: targetID, Kind: kind})
		}
	}
	return b
}

// Tender adds an open tender.
func (b *DatasetBuilder) Tender(id, category string, estimate int64, published, deadline string) *DatasetBuilder {
	b.ds.Tenders = append(b.ds.Tenders, entities.Tender{
		ID:              id,
		Reference:       "REF/" + id,
		Title:           "Supply for " + id,
		ProcuringEntity: "Ministry of Works",
		Category:        category,
		EstimatedValue:  decimal.NewFromInt(estimate),
		PublishedDate:   Date(published),
		Deadline:        Date(deadline),
		Status:          entities.TenderOpen,
	})
	return b
}

// Award marks a tender as awarded. A zero amount leaves the awarded amount unset
// and an empty officialID leaves the awarding official unset.
func (b *DatasetBuilder) Award(tenderID, companyID, officialID string, amount int64) *DatasetBuilder {
	for i := range b.ds.Tenders {
		t := &b.ds.Tenders[i]
		if t.ID != tenderID {
			continue
		}
		t.Status = entities.TenderAwarded
		t.AwardedTo = companyID
		t.AwardingOfficialID = officialID
		if amount > 0 {
			a := decimal.NewFromInt(amount)
			t.AwardedAmount = &a
		}
	}
	return b
}

// Status overrides the status of a tender.
func (b *DatasetBuilder) Status(tenderID string, status entities.TenderStatus) *DatasetBuilder {
	for i := range b.ds.Tenders {
		if b.ds.Tenders[i].ID == tenderID {
			b.ds.Tenders[i].Status = status
		}
	}
	return b
}

// Bid adds a bid submitted on the given date.
func (b *DatasetBuilder) Bid(id, tenderID, companyID string, amount int64, submitted string) *DatasetBuilder {
	b.ds.Bids = append(b.ds.Bids, entities.Bid{
		ID:          id,
		TenderID:    tenderID,
		CompanyID:   companyID,
		Amount:      decimal.NewFromInt(amount),
		SubmittedAt: Date(submitted),
	})
	return b
}

// Build returns the assembled dataset.
func (b *DatasetBuilder) Build() *entities.Dataset {
	ds := b.ds
	return &ds
}

// Snapshot builds a snapshot from the assembled dataset and panics if it is invalid.
func (b *DatasetBuilder) Snapshot() *entities.Snapshot {
	snap, err := entities.NewSnapshot(b.Build())
	if err != nil {
		panic(err)
	}
	return snap
}
