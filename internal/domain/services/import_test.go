package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/mocks"
)

func importDataset() *entities.Dataset {
	return mocks.NewDataset().
		Company("comp-001", "Apex Supplies", "Moi Avenue", "0700", "2019-01-01").
		Company("comp-002", "Baraka Traders", "Kenyatta Avenue", "0711", "2018-06-01").
		Tender("tender-001", "Roads", 5_000_000, "2024-03-01", "2024-04-01").
		Bid("bid-001", "tender-001", "comp-001", 4_800_000, "2024-03-20").
		Build()
}

func TestImportService_Import_Replace(t *testing.T) {
	db := mocks.NewRelationalDB(nil)
	service := NewImportService(db, nil)

	result, err := service.Import(context.Background(), importDataset(), "dataset.json", ImportOptions{})

	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.NotNil(t, result.Record)
	assert.Equal(t, "import-1", result.Record.ID)
	assert.Equal(t, "dataset.json", result.Record.Source)
	assert.Equal(t, 2, result.Counts["companies"])
	require.Len(t, db.Saved, 1)
	assert.Len(t, db.Saved[0].Bids, 1)
}

func TestImportService_Import_DryRun(t *testing.T) {
	db := mocks.NewRelationalDB(nil)
	service := NewImportService(db, nil)

	result, err := service.Import(context.Background(), importDataset(), "dataset.json", ImportOptions{DryRun: true})

	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Nil(t, result.Record)
	assert.Equal(t, 1, result.Counts["tenders"])
	assert.Empty(t, db.Saved)
}

func TestImportService_Import_ValidationErrors(t *testing.T) {
	db := mocks.NewRelationalDB(nil)
	service := NewImportService(db, nil)

	ds := importDataset()
	ds.Bids = append(ds.Bids,
		entities.Bid{ID: "bid-002", TenderID: "tender-404", CompanyID: "comp-001", SubmittedAt: mocks.Date("2024-03-02")},
		entities.Bid{ID: "bid-003", TenderID: "tender-001", CompanyID: "comp-404", SubmittedAt: mocks.Date("2024-03-02")},
	)

	result, err := service.Import(context.Background(), ds, "dataset.json", ImportOptions{})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(result.Errors), 2)
	for _, e := range result.Errors {
		assert.True(t, entities.IsValidation(e), "unexpected error type: %v", e)
	}
	assert.Nil(t, result.Record)
	assert.Empty(t, db.Saved)
}

func TestImportService_Import_Merge(t *testing.T) {
	tests := []struct {
		name        string
		onConflict  ConflictStrategy
		wantSkipped int
		wantName    string
	}{
		{name: "overwrite", onConflict: ConflictOverwrite, wantSkipped: 0, wantName: "Apex Supplies Ltd"},
		{name: "skip", onConflict: ConflictSkip, wantSkipped: 1, wantName: "Apex Supplies"},
		{name: "default overwrites", onConflict: "", wantSkipped: 0, wantName: "Apex Supplies Ltd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := mocks.NewRelationalDB(importDataset())
			service := NewImportService(db, nil)

			incoming := mocks.NewDataset().
				Company("comp-001", "Apex Supplies Ltd", "Moi Avenue", "0700", "2019-01-01").
				Company("comp-003", "Chui Logistics", "Tom Mboya Street", "0722", "2020-02-01").
				Build()

			result, err := service.Import(context.Background(), incoming, "more.json", ImportOptions{
				Mode:       ImportMerge,
				OnConflict: tt.onConflict,
			})

			require.NoError(t, err)
			assert.Empty(t, result.Errors)
			assert.Equal(t, tt.wantSkipped, result.Skipped)
			assert.Equal(t, 3, result.Counts["companies"])
			assert.Equal(t, 1, result.Counts["bids"])

			saved := db.Saved[len(db.Saved)-1]
			require.Len(t, saved.Companies, 3)
			assert.Equal(t, "comp-001", saved.Companies[0].ID)
			assert.Equal(t, tt.wantName, saved.Companies[0].Name)
			assert.Equal(t, "comp-003", saved.Companies[2].ID)
		})
	}
}

func TestImportService_Import_StoreErrors(t *testing.T) {
	db := mocks.NewRelationalDB(nil)
	db.SetErr(errors.New("disk full"))
	service := NewImportService(db, nil)

	_, err := service.Import(context.Background(), importDataset(), "dataset.json", ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving dataset")

	_, err = service.Import(context.Background(), importDataset(), "dataset.json", ImportOptions{Mode: ImportMerge})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading stored dataset")
}

func TestImportService_History(t *testing.T) {
	db := mocks.NewRelationalDB(nil)
	service := NewImportService(db, nil)
	ctx := context.Background()

	for _, src := range []string{"a.json", "b.json", "c.json"} {
		_, err := service.Import(ctx, importDataset(), src, ImportOptions{})
		require.NoError(t, err)
	}

	history, err := service.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "c.json", history[0].Source)
	assert.Equal(t, "b.json", history[1].Source)
}
