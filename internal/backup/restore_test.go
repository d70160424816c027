package backup_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucolog/internal/backup"
	"glucolog/internal/models"
	"glucolog/internal/testutil"
)

func newRestoreEngine(store *models.ReadingStore) *backup.RestoreEngine {
	return backup.NewRestoreEngine(store, testutil.TestConfig("/base"), &testutil.MockLogger{}, &testutil.MockMetrics{})
}

func seedReading(t *testing.T, store *models.ReadingStore, value float64, ts time.Time) models.Reading {
	t.Helper()
	rec, err := store.Insert(models.Reading{
		Kind:      models.KindBloodSugar,
		Value:     value,
		Unit:      "mg/dL",
		Timestamp: ts,
	})
	require.NoError(t, err)
	return rec
}

func wireRecord(id int64, value float64, ts time.Time) models.SnapshotReading {
	return models.SnapshotReading{
		ID:            id,
		Type:          "blood_sugar",
		Value:         value,
		Unit:          "mg/dL",
		DateTimestamp: ts.UnixMilli(),
	}
}

func TestRestoreEngine_ClearFirstReplacesStore(t *testing.T) {
	store := models.NewReadingStore()
	seedReading(t, store, 90, testTime())
	seedReading(t, store, 95, testTime().Add(time.Hour))

	snapshot := models.Snapshot{Records: []models.SnapshotReading{
		wireRecord(7, 100, testTime()),
		wireRecord(8, 110, testTime().Add(time.Minute)),
		wireRecord(9, 120, testTime().Add(2*time.Minute)),
	}}

	restored := newRestoreEngine(store).Restore(snapshot, true)
	assert.Equal(t, 3, restored)
	assert.Equal(t, 3, store.Count())

	// Snapshot ids are discarded; the store assigns fresh identity.
	for _, r := range store.GetAll() {
		assert.NotContains(t, []int64{7, 8, 9}, r.ID)
	}
}

func TestRestoreEngine_FuzzyDedupSkipsNearMatches(t *testing.T) {
	store := models.NewReadingStore()
	base := testTime()
	seedReading(t, store, 100.0, base)

	snapshot := models.Snapshot{Records: []models.SnapshotReading{
		// Same value within tolerance, 30s inside the window: duplicate.
		wireRecord(0, 100.005, base.Add(30*time.Second)),
		// Value outside tolerance at the same instant: new.
		wireRecord(0, 105.0, base),
		// Same value, far outside the window: new.
		wireRecord(0, 100.0, base.Add(time.Hour)),
	}}

	restored := newRestoreEngine(store).Restore(snapshot, false)
	assert.Equal(t, 2, restored)
	assert.Equal(t, 3, store.Count())
}

func TestRestoreEngine_DedupIsPerKind(t *testing.T) {
	store := models.NewReadingStore()
	seedReading(t, store, 4.2, testTime())

	ketone := wireRecord(0, 4.2, testTime())
	ketone.Type = "ketone"
	ketone.Unit = "mmol/L"

	restored := newRestoreEngine(store).Restore(models.Snapshot{
		Records: []models.SnapshotReading{ketone},
	}, false)
	assert.Equal(t, 1, restored)
}

func TestRestoreEngine_InvalidRecordSkippedOthersKept(t *testing.T) {
	store := models.NewReadingStore()

	bad := wireRecord(0, 100, testTime())
	bad.Type = "step_count"

	restored := newRestoreEngine(store).Restore(models.Snapshot{
		Records: []models.SnapshotReading{bad, wireRecord(0, 110, testTime())},
	}, false)
	assert.Equal(t, 1, restored)
	assert.Equal(t, 1, store.Count())
}

func TestRestoreEngine_EmptySnapshot(t *testing.T) {
	store := models.NewReadingStore()
	seedReading(t, store, 90, testTime())

	assert.Equal(t, 0, newRestoreEngine(store).Restore(models.Snapshot{}, false))
	assert.Equal(t, 1, store.Count())

	assert.Equal(t, 0, newRestoreEngine(store).Restore(models.Snapshot{}, true))
	assert.Equal(t, 0, store.Count())
}
