package backup

import (
	"glucolog/internal/models"
	"glucolog/internal/providers"
	"glucolog/internal/structures"
)

// RestoreEngine merges a decoded snapshot into the live readings store.
type RestoreEngine struct {
	store   *models.ReadingStore
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewRestoreEngine(store *models.ReadingStore, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *RestoreEngine {
	return &RestoreEngine{
		store:   store,
		conf:    conf,
		logger:  logger,
		metrics: metrics,
	}
}

// Restore inserts the snapshot's records into the store and returns how many
// were actually inserted. With clearFirst the store is emptied first and the
// snapshot becomes the sole source of truth; without it each record is
// skipped when a fuzzy match already exists (same kind, value within
// tolerance, timestamp within the configured window). Snapshot ids are
// discarded either way; the store assigns fresh identity. A failed insert
// counts as not-restored and the remaining records are still attempted.
func (e *RestoreEngine) Restore(snapshot models.Snapshot, clearFirst bool) int {
	if clearFirst {
		e.store.ClearAll()
	}

	restored := 0
	for _, sr := range snapshot.Records {
		rec := sr.ToReading()
		rec.ID = 0

		if !models.ValidKind(rec.Kind) {
			e.logger.Warnf(providers.TypeBackup, "Skipping record with unknown kind %q", sr.Type)
			continue
		}
		if !clearFirst && e.isDuplicate(rec) {
			continue
		}

		if _, err := e.store.Insert(rec); err != nil {
			e.logger.Warnf(providers.TypeBackup, "Insert during restore failed, skipping record: %s", err)
			continue
		}
		restored++
	}

	e.metrics.IncRestoredRecords(restored)
	e.metrics.SetReadingsTotal(e.store.Count())
	e.logger.Infof(providers.TypeBackup, "Restored %d of %d record(s)", restored, len(snapshot.Records))
	return restored
}

// isDuplicate applies the fuzzy match: value tolerance absorbs float
// re-serialization drift, the time window absorbs timezone and rounding
// differences introduced by repeated export/import cycles.
func (e *RestoreEngine) isDuplicate(rec models.Reading) bool {
	window := e.conf.Restore.TimeWindow
	start := rec.Timestamp.Add(-window)
	end := rec.Timestamp.Add(window)
	return e.store.CountFuzzyMatch(rec.Kind, rec.Value, start, end, e.conf.Restore.ValueTolerance) > 0
}
