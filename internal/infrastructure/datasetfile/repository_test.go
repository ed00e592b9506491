package datasetfile

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/mocks"
)

func sampleDataset() *entities.Dataset {
	return mocks.NewDataset().
		Company("comp-001", "Apex Supplies", "Moi Avenue", "0700000001", "2019-04-12").
		Director("dir-001", "Jane Wanjiku", "comp-001").
		Official("off-001", "John Kamau").
		Relation("off-001", "dir-001", entities.RelationSpouse).
		Tender("tender-001", "Roads", 12_000_000, "2024-04-01", "2024-04-05").
		Award("tender-001", "comp-001", "off-001", 0).
		Bid("bid-001", "tender-001", "comp-001", 11_900_000, "2024-04-04").
		Build()
}

func TestNewRepository(t *testing.T) {
	_, err := NewRepository("")
	require.Error(t, err)

	_, err = NewRepository("data.xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported dataset format")

	repo, err := NewRepository("data.json")
	require.NoError(t, err)
	assert.Equal(t, "data.json", repo.Path())
}

func TestWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dataset.json")
	require.NoError(t, Write(path, sampleDataset()))

	repo, err := NewRepository(path)
	require.NoError(t, err)

	ds, err := repo.LoadDataset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Size())
	assert.Equal(t, "off-001", ds.Tenders[0].AwardingOfficialID)
	assert.Equal(t, []entities.OfficialRelation{{TargetID: "dir-001", Kind: entities.RelationSpouse}}, ds.Officials[0].Relations)

	snap, err := entities.NewSnapshot(ds)
	require.NoError(t, err)
	tender, _ := snap.Tender("tender-001")
	assert.NotNil(t, tender)

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadDataset_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		repo, err := NewRepository(filepath.Join(dir, "missing.json"))
		require.NoError(t, err)
		_, err = repo.LoadDataset(context.Background())
		require.Error(t, err)
	})

	t.Run("invalid record", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, WriteRaw(path, []byte(`{"tenders":[{"id":"t-1","title":"x","published_date":"2024-01-01","deadline":"2024-01-09","status":"DONE"}]}`)))
		repo, err := NewRepository(path)
		require.NoError(t, err)
		_, err = repo.LoadDataset(context.Background())
		require.Error(t, err)
		assert.True(t, entities.IsValidation(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo, err := NewRepository(filepath.Join(dir, "any.json"))
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = repo.LoadDataset(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.json")
	require.NoError(t, Write(path, sampleDataset()))

	var calls atomic.Int32
	w, err := NewWatcher(path, 50*time.Millisecond, zap.NewNop(), func(context.Context) {
		calls.Add(1)
	})
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// A burst of writes settles into one notification
	for i := 0; i < 3; i++ {
		require.NoError(t, Write(path, sampleDataset()))
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Other files in the directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, Write(path, sampleDataset()))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopsOnContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	w, err := NewWatcher(path, 0, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
