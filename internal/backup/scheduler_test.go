package backup_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucolog/internal/backup"
	"glucolog/internal/models"
	"glucolog/internal/store"
	"glucolog/internal/testutil"
)

type fakeTracker struct {
	dirty bool
}

func (f *fakeTracker) Dirty() bool { return f.dirty }
func (f *fakeTracker) MarkClean()  { f.dirty = false }

func newSchedulerFixture(t *testing.T, tracker backup.DirtyTracker) (*backup.Scheduler, *models.ReadingStore, *testutil.MockManagedIndex) {
	t.Helper()
	conf := testutil.TestConfig(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(conf.Persistence.FilePath), 0755))
	logger := &testutil.MockLogger{}
	metrics := &testutil.MockMetrics{}
	readings := models.NewReadingStore()
	index := testutil.NewMockManagedIndex()

	compressor, err := store.NewZstdCompressor()
	require.NoError(t, err)
	fm := store.NewFileManager(compressor, readings, logger)
	t.Cleanup(fm.Close)

	writer := backup.NewWriter(afero.NewMemMapFs(), index, readings, conf, logger, metrics)
	sched := backup.NewScheduler(conf, logger, metrics, fm, writer, tracker).(*backup.Scheduler)
	return sched, readings, index
}

func TestScheduler_PersistAndRestoreRoundTrip(t *testing.T) {
	tracker := &fakeTracker{}
	sched, readings, _ := newSchedulerFixture(t, tracker)

	_, err := readings.Insert(models.Reading{
		Kind: models.KindBloodSugar, Value: 100, Unit: "mg/dL", Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, sched.Persist())

	readings.ClearAll()
	require.NoError(t, sched.Restore())
	assert.Equal(t, 1, readings.Count())
}

func TestScheduler_RestoreWithNoFileIsClean(t *testing.T) {
	sched, readings, _ := newSchedulerFixture(t, &fakeTracker{})
	require.NoError(t, sched.Restore())
	assert.Equal(t, 0, readings.Count())
}

func TestScheduler_PersistWritesFinalBackupWhenDirty(t *testing.T) {
	tracker := &fakeTracker{dirty: true}
	sched, readings, index := newSchedulerFixture(t, tracker)

	_, err := readings.Insert(models.Reading{
		Kind: models.KindKetone, Value: 0.9, Unit: "mmol/L", Timestamp: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, sched.Persist())

	assert.False(t, tracker.dirty)
	assert.Len(t, index.Refs(), 1)
}

func TestScheduler_PersistSkipsBackupWhenClean(t *testing.T) {
	tracker := &fakeTracker{dirty: false}
	sched, _, index := newSchedulerFixture(t, tracker)

	require.NoError(t, sched.Persist())
	assert.Empty(t, index.Refs())
}
