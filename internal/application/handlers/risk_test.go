package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/mocks"
	"github.com/sentinel-oversight/sentinel/internal/domain/rules"
	"github.com/sentinel-oversight/sentinel/internal/domain/services"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/demo"
)

// demoService returns a risk service with the demo dataset published.
func demoService(t *testing.T) *services.RiskService {
	t.Helper()
	ds, err := demo.Dataset()
	require.NoError(t, err)

	svc := services.NewRiskService(mocks.NewRelationalDB(ds), services.RiskServiceOptions{
		Thresholds: rules.DefaultThresholds(),
		Workers:    2,
	})
	_, err = svc.Refresh(t.Context())
	require.NoError(t, err)
	return svc
}

func TestRiskHandler_HandleList(t *testing.T) {
	handler := NewRiskHandler(demoService(t), time.Second)

	t.Run("defaults sort by risk", func(t *testing.T) {
		result, err := handler.HandleList(t.Context(), ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, 20, result.Total)
		for i := 1; i < len(result.Tenders); i++ {
			assert.GreaterOrEqual(t, result.Tenders[i-1].Risk.Overall, result.Tenders[i].Risk.Overall)
		}
	})

	t.Run("status filter is case-insensitive", func(t *testing.T) {
		result, err := handler.HandleList(t.Context(), ListOptions{Status: "open"})
		require.NoError(t, err)
		assert.Equal(t, 5, result.Total)
		for _, tr := range result.Tenders {
			assert.Equal(t, entities.TenderOpen, tr.Tender.Status)
		}
	})

	t.Run("limit", func(t *testing.T) {
		result, err := handler.HandleList(t.Context(), ListOptions{SortBy: "value", Limit: 3})
		require.NoError(t, err)
		require.Len(t, result.Tenders, 3)
		assert.Equal(t, 20, result.Total)
		assert.True(t, result.Tenders[0].Tender.EstimatedValue.GreaterThanOrEqual(result.Tenders[1].Tender.EstimatedValue))
	})

	t.Run("risk level filter", func(t *testing.T) {
		result, err := handler.HandleList(t.Context(), ListOptions{RiskLevel: "low"})
		require.NoError(t, err)
		for _, tr := range result.Tenders {
			assert.Equal(t, entities.RiskLow, tr.Risk.Category)
		}
	})
}

func TestRiskHandler_HandleList_InvalidOptions(t *testing.T) {
	handler := NewRiskHandler(demoService(t), 0)

	tests := []struct {
		name  string
		opts  ListOptions
		field string
	}{
		{name: "risk level", opts: ListOptions{RiskLevel: "extreme"}, field: "risk_level"},
		{name: "status", opts: ListOptions{Status: "closed"}, field: "status"},
		{name: "sort", opts: ListOptions{SortBy: "name"}, field: "sort_by"},
		{name: "limit too large", opts: ListOptions{Limit: MaxListLimit + 1}, field: "limit"},
		{name: "negative limit", opts: ListOptions{Limit: -1}, field: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.HandleList(t.Context(), tt.opts)
			require.Error(t, err)
			var ve *entities.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseListOptions_Defaults(t *testing.T) {
	opts, err := parseListOptions(ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, services.SortByRisk, opts.SortBy)
	assert.Equal(t, DefaultListLimit, opts.Limit)
	assert.Empty(t, opts.Category)
	assert.Empty(t, opts.Status)

	opts, err = parseListOptions(ListOptions{RiskLevel: "High", Status: "Evaluation", SortBy: "DATE", Limit: MaxListLimit})
	require.NoError(t, err)
	assert.Equal(t, entities.RiskHigh, opts.Category)
	assert.Equal(t, entities.TenderEvaluation, opts.Status)
	assert.Equal(t, services.SortByDate, opts.SortBy)
	assert.Equal(t, MaxListLimit, opts.Limit)
}

func TestRiskHandler_Lookups(t *testing.T) {
	handler := NewRiskHandler(demoService(t), time.Second)

	score, err := handler.HandleScore(t.Context(), "tender-003")
	require.NoError(t, err)
	assert.True(t, score.HasFactor(entities.FactorConflictOfInterest))

	detail, err := handler.HandleTender(t.Context(), "tender-001")
	require.NoError(t, err)
	require.NotNil(t, detail.WinningCompany)
	assert.Equal(t, "comp-001", detail.WinningCompany.ID)
	assert.NotEmpty(t, detail.Bids)

	company, err := handler.HandleCompany(t.Context(), "comp-001")
	require.NoError(t, err)
	assert.Equal(t, "Wanjiku Construction Ltd", company.Company.Name)

	_, err = handler.HandleTender(t.Context(), "tender-999")
	assert.True(t, entities.IsNotFound(err))

	stats, err := handler.HandleStats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 20, stats.TotalTenders)
	assert.Equal(t, 8, stats.PendingReview)
}

func TestRiskHandler_HandleRefresh(t *testing.T) {
	handler := NewRiskHandler(demoService(t), 0)

	before, err := handler.HandleInfo()
	require.NoError(t, err)

	after, err := handler.HandleRefresh(t.Context())
	require.NoError(t, err)
	assert.NotEqual(t, before.Version, after.Version)
	assert.Equal(t, 20, after.Tenders)
}

func TestRiskHandler_NoSnapshot(t *testing.T) {
	svc := services.NewRiskService(mocks.NewRelationalDB(nil), services.RiskServiceOptions{Thresholds: rules.DefaultThresholds()})
	handler := NewRiskHandler(svc, 0)

	_, err := handler.HandleStats(t.Context())
	assert.ErrorIs(t, err, entities.ErrNoSnapshot)
}
