package entities_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/mocks"
)

func baseDataset() *mocks.DatasetBuilder {
	return mocks.NewDataset().
		Company("comp-002", "Beta Ltd", "Plot 1", "0700 000 001", "2020-01-01").
		Company("comp-001", "Alpha Ltd", "Plot 2", "0700 000 002", "2019-01-01").
		Director("dir-001", "Jane Doe", "comp-001").
		Official("off-001", "John Roe").
		Tender("tender-002", "Construction", 1000000, "2026-01-01", "2026-01-20").
		Tender("tender-001", "Construction", 2000000, "2026-01-01", "2026-01-20").
		Bid("bid-002", "tender-001", "comp-002", 1900000, "2026-01-10").
		Bid("bid-001", "tender-001", "comp-001", 1800000, "2026-01-20").
		Award("tender-001", "comp-001", "off-001", 1800000)
}

func TestNewSnapshot_IndexesInIDOrder(t *testing.T) {
	snap, err := entities.NewSnapshot(baseDataset().Build())
	require.NoError(t, err)

	assert.NotEmpty(t, snap.Version)
	assert.False(t, snap.LoadedAt.IsZero())

	tenders := snap.Tenders()
	require.Len(t, tenders, 2)
	assert.Equal(t, "tender-001", tenders[0].ID)
	assert.Equal(t, "tender-002", tenders[1].ID)

	companies := snap.Companies()
	require.Len(t, companies, 2)
	assert.Equal(t, "comp-001", companies[0].ID)

	bids := snap.BidsForTender("tender-001")
	require.Len(t, bids, 2)
	assert.Equal(t, "bid-001", bids[0].ID)
	assert.Empty(t, snap.BidsForTender("tender-002"))

	won := snap.TendersWonBy("comp-001")
	require.Len(t, won, 1)
	assert.Equal(t, "tender-001", won[0].ID)

	nt, nc, nd, no, nb := snap.Counts()
	assert.Equal(t, []int{2, 2, 1, 1, 2}, []int{nt, nc, nd, no, nb})
}

func TestNewSnapshot_Lookups(t *testing.T) {
	snap, err := entities.NewSnapshot(baseDataset().Build())
	require.NoError(t, err)

	_, ok := snap.Tender("tender-001")
	assert.True(t, ok)
	_, ok = snap.Tender("missing")
	assert.False(t, ok)
	_, ok = snap.Director("dir-001")
	assert.True(t, ok)
	_, ok = snap.Official("off-001")
	assert.True(t, ok)
}

func TestNewSnapshot_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *entities.Dataset
		field string
	}{
		{
			name: "dangling awarded company",
			build: func() *entities.Dataset {
				return baseDataset().Award("tender-002", "comp-999", "", 0).Build()
			},
			field: "awarded_to",
		},
		{
			name: "dangling awarding official",
			build: func() *entities.Dataset {
				return baseDataset().Award("tender-002", "comp-001", "off-999", 0).Build()
			},
			field: "awarding_official_id",
		},
		{
			name: "deadline before published",
			build: func() *entities.Dataset {
				return baseDataset().Tender("tender-003", "Works", 10, "2026-02-01", "2026-01-01").Build()
			},
			field: "deadline",
		},
		{
			name: "negative estimate",
			build: func() *entities.Dataset {
				return baseDataset().Tender("tender-003", "Works", -10, "2026-01-01", "2026-01-02").Build()
			},
			field: "estimated_value",
		},
		{
			name: "negative bid amount",
			build: func() *entities.Dataset {
				return baseDataset().Bid("bid-003", "tender-002", "comp-001", -1, "2026-01-02").Build()
			},
			field: "amount",
		},
		{
			name: "bid after deadline",
			build: func() *entities.Dataset {
				return baseDataset().Bid("bid-003", "tender-002", "comp-001", 5, "2026-01-21").Build()
			},
			field: "submission_date",
		},
		{
			name: "bid on unknown tender",
			build: func() *entities.Dataset {
				return baseDataset().Bid("bid-003", "tender-404", "comp-001", 5, "2026-01-02").Build()
			},
			field: "tender_id",
		},
		{
			name: "inconsistent director membership",
			build: func() *entities.Dataset {
				ds := baseDataset().Build()
				ds.Directors[0].CompanyIDs = append(ds.Directors[0].CompanyIDs, "comp-002")
				return ds
			},
			field: "company_ids",
		},
		{
			name: "unknown relation target",
			build: func() *entities.Dataset {
				return baseDataset().Relation("off-001", "dir-404", entities.RelationSpouse).Build()
			},
			field: "relations",
		},
		{
			name: "unknown status",
			build: func() *entities.Dataset {
				return baseDataset().Status("tender-002", "PENDING").Build()
			},
			field: "status",
		},
		{
			name: "duplicate id across kinds",
			build: func() *entities.Dataset {
				return baseDataset().Official("comp-001", "Clash").Build()
			},
			field: "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := entities.NewSnapshot(tt.build())
			require.Error(t, err)
			assert.Nil(t, snap)

			var ve *entities.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, entities.IsValidation(err))
		})
	}
}

func TestNewSnapshot_ReportsEveryIssue(t *testing.T) {
	ds := baseDataset().
		Tender("tender-003", "Works", -1, "2026-02-01", "2026-01-01").
		Bid("bid-003", "tender-404", "comp-404", 1, "2026-01-01").
		Build()

	_, err := entities.NewSnapshot(ds)
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 4)
}

func TestNewSnapshot_BidOnDeadlineDayWithTime(t *testing.T) {
	ds := baseDataset().Build()
	ds.Bids[0].SubmittedAt = mocks.Date("2026-01-20").Add(14*time.Hour + 30*time.Minute)

	_, err := entities.NewSnapshot(ds)
	assert.NoError(t, err)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 30, entities.DaysBetween(mocks.Date("2026-01-01"), mocks.Date("2026-01-31")))
	assert.Equal(t, -5, entities.DaysBetween(mocks.Date("2026-01-10"), mocks.Date("2026-01-05")))
	assert.Equal(t, 0, entities.DaysBetween(mocks.Date("2026-01-10").Add(23*time.Hour), mocks.Date("2026-01-10")))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "plot45,industrialarea", entities.NormalizeAddress("  Plot 45,\tIndustrial  Area "))
	assert.Equal(t, "254712345678", entities.NormalizePhone("+254 712-345-678"))
	assert.Empty(t, entities.NormalizePhone("n/a"))
}

func TestAwardedAmountNegative(t *testing.T) {
	ds := baseDataset().Build()
	neg := decimal.NewFromInt(-5)
	ds.Tenders[1].AwardedAmount = &neg

	_, err := entities.NewSnapshot(ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "awarded_amount")
}
