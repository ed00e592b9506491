package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/mocks"
	"github.com/sentinel-oversight/sentinel/internal/domain/rules"
	"github.com/sentinel-oversight/sentinel/internal/domain/services"
)

func loadService(t *testing.T) *services.RiskService {
	t.Helper()
	ds, err := Dataset()
	require.NoError(t, err)

	svc := services.NewRiskService(mocks.NewRelationalDB(ds), services.RiskServiceOptions{
		Thresholds: rules.DefaultThresholds(),
		Logger:     zap.NewNop(),
	})
	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	return svc
}

func TestDataset_IsValid(t *testing.T) {
	ds, err := Dataset()
	require.NoError(t, err)

	snap, err := entities.NewSnapshot(ds)
	require.NoError(t, err)

	tenders, companies, directors, officials, bids := snap.Counts()
	assert.Equal(t, 20, tenders)
	assert.Equal(t, 12, companies)
	assert.Equal(t, 15, directors)
	assert.Equal(t, 5, officials)
	assert.Equal(t, 39, bids)
}

func TestDataset_EmbeddedPatterns(t *testing.T) {
	svc := loadService(t)
	ctx := context.Background()

	tests := []struct {
		tenderID string
		factors  []entities.RiskFactorType
	}{
		{"tender-001", []entities.RiskFactorType{entities.FactorCartelPattern}},
		{"tender-002", []entities.RiskFactorType{entities.FactorShellCompany, entities.FactorRushedTimeline}},
		{"tender-003", []entities.RiskFactorType{entities.FactorConflictOfInterest}},
		{"tender-005", []entities.RiskFactorType{entities.FactorPriceAnomaly}},
		{"tender-014", []entities.RiskFactorType{entities.FactorRushedTimeline}},
		{"tender-006", nil},
		{"tender-017", nil},
	}

	for _, tt := range tests {
		t.Run(tt.tenderID, func(t *testing.T) {
			score, err := svc.ComputeRiskScore(ctx, tt.tenderID)
			require.NoError(t, err)

			var got []entities.RiskFactorType
			for _, f := range score.Factors {
				got = append(got, f.Type)
			}
			assert.Equal(t, tt.factors, got)
		})
	}
}

func TestDataset_CartelRing(t *testing.T) {
	svc := loadService(t)

	cartels, err := svc.ListCartels(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, cartels)

	ring := cartels[0]
	assert.Subset(t, ring.CompanyIDs, []string{"comp-001", "comp-002", "comp-003", "comp-004"})
}

func TestJSON_ReturnsCopy(t *testing.T) {
	a := JSON()
	a[0] = 'x'
	assert.Equal(t, byte('{'), JSON()[0])
}
