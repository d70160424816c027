package backup

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"glucolog/internal/models"
	"glucolog/internal/providers"
	"glucolog/internal/structures"
)

// WriteResult describes where the snapshot ended up.
type WriteResult struct {
	Origin models.OriginClass
	Handle models.Handle
}

// Writer serializes the current store under the one canonical filename and
// writes it to the most durable reachable location. Exactly one
// authoritative backup exists per location at any time; the series-of-files
// ambiguity is deliberately avoided on the write side.
type Writer struct {
	fs      afero.Fs
	index   ManagedIndex
	store   *models.ReadingStore
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewWriter(fsys afero.Fs, index ManagedIndex, store *models.ReadingStore, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *Writer {
	return &Writer{
		fs:      fsys,
		index:   index,
		store:   store,
		conf:    conf,
		logger:  logger,
		metrics: metrics,
	}
}

// WriteBackup tries the managed index first (durable across uninstall),
// then the app-private external folder, then the cache folder, stopping at
// the first success.
func (w *Writer) WriteBackup() (*WriteResult, error) {
	readings := w.store.GetAll()
	records := make([]models.SnapshotReading, 0, len(readings))
	for _, r := range readings {
		records = append(records, models.FromReading(r))
	}

	snapshot := models.Snapshot{
		ExportedAt:    time.Now().UnixMilli(),
		FormatVersion: w.conf.AppVersion,
		Records:       records,
	}
	data, err := Encode(snapshot)
	if err != nil {
		w.metrics.IncBackupFailures()
		return nil, err
	}

	if res, err := w.writeManaged(data); err == nil {
		w.metrics.IncBackupsTotal(res.Origin.String())
		return res, nil
	} else {
		w.logger.Warnf(providers.TypeBackup, "Managed index write failed: %s", err)
	}

	if res, err := w.writeDir(w.conf.Backup.PrivateExternalDir, models.OriginPrivateExternal, data); err == nil {
		w.metrics.IncBackupsTotal(res.Origin.String())
		return res, nil
	} else {
		w.logger.Warnf(providers.TypeBackup, "Private external write failed: %s", err)
	}

	res, err := w.writeDir(w.conf.Backup.PrivateCacheDir, models.OriginCache, data)
	if err != nil {
		w.metrics.IncBackupFailures()
		return nil, fmt.Errorf("backup write failed everywhere: %w", err)
	}
	w.metrics.IncBackupsTotal(res.Origin.String())
	return res, nil
}

func (w *Writer) writeManaged(data []byte) (*WriteResult, error) {
	entry, err := w.index.Create(w.conf.Backup.FileName, data)
	if err != nil {
		return nil, err
	}

	// Best-effort cleanup: leave exactly one entry under the canonical name
	if entries, err := w.index.QueryByName(w.conf.Backup.FileName); err == nil {
		for _, e := range entries {
			if e.Ref == entry.Ref {
				continue
			}
			if err := w.index.Delete(e.Ref); err != nil {
				w.logger.Debugf(providers.TypeBackup, "Stale backup cleanup failed for %s: %s", e.Ref, err)
			}
		}
	}

	w.logger.Infof(providers.TypeBackup, "Backup written to managed index as %s", entry.Ref)
	return &WriteResult{
		Origin: models.OriginManagedIndex,
		Handle: models.IndirectHandle(entry.Ref),
	}, nil
}

func (w *Writer) writeDir(dir string, origin models.OriginClass, data []byte) (*WriteResult, error) {
	folder := filepath.Join(dir, w.conf.Backup.FolderToken)
	if err := w.fs.MkdirAll(folder, 0755); err != nil {
		return nil, mapFsErr(err)
	}

	path := filepath.Join(folder, w.conf.Backup.FileName)
	tmp := path + ".tmp"
	if err := afero.WriteFile(w.fs, tmp, data, 0644); err != nil {
		return nil, mapFsErr(err)
	}
	if err := w.fs.Rename(tmp, path); err != nil {
		_ = w.fs.Remove(tmp)
		return nil, mapFsErr(err)
	}

	w.logger.Infof(providers.TypeBackup, "Backup written to %s", path)
	return &WriteResult{
		Origin: origin,
		Handle: models.PathHandle(path),
	}, nil
}
