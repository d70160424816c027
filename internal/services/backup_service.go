package services

import (
	"errors"
	"path/filepath"

	"github.com/spf13/afero"

	"glucolog/internal/backup"
	"glucolog/internal/models"
	"glucolog/internal/providers"
	"glucolog/internal/structures"
)

// RestoreStatus is the typed outcome the caller branches its user-facing
// behavior on: a permission prompt, a quiet no-op, or an error message.
type RestoreStatus int

const (
	RestoreOK RestoreStatus = iota
	RestoreNothingNew
	RestoreNoCandidate
	RestoreNeedsPermission
	RestorePermissionDenied
	RestoreDecodeFailed
)

func (s RestoreStatus) String() string {
	switch s {
	case RestoreOK:
		return "restored"
	case RestoreNothingNew:
		return "nothing-new"
	case RestoreNoCandidate:
		return "no-candidate"
	case RestoreNeedsPermission:
		return "needs-permission"
	case RestorePermissionDenied:
		return "permission-denied"
	default:
		return "decode-failed"
	}
}

// RestoreOutcome reports "restored N of M" plus the handle involved, when
// one was selected.
type RestoreOutcome struct {
	Status   RestoreStatus
	Restored int
	Total    int
	Handle   *models.Handle
}

type BackupServiceInterface interface {
	BackupNow() (*backup.WriteResult, error)
	Candidates() []models.ScoredCandidate
	AutoRestore() RestoreOutcome
	RestoreLatest(clearFirst bool) RestoreOutcome
	RestoreFromHandle(h models.Handle, clearFirst bool) RestoreOutcome
	RequiresPermission(h models.Handle) bool
	ImportPayload(data []byte) RestoreOutcome
	FirstRunDone() bool
	MarkFirstRunDone()
}

const (
	restoreMarkerName       = ".restore_done"
	legacyRestoreMarkerName = ".glucolog_restored"
)

// BackupService ties discovery, ranking, restore and write together behind
// the outcome contract. Restore policy for indirect handles (restore
// directly vs. defer to an interactive grant) stays with the caller, which
// is why RestoreFromHandle and RequiresPermission are separate primitives.
type BackupService struct {
	fs      afero.Fs
	locator *backup.Locator
	ranker  *backup.Ranker
	engine  *backup.RestoreEngine
	writer  *backup.Writer
	conf    *structures.Config
	logger  providers.Logger
}

func NewBackupService(fsys afero.Fs, locator *backup.Locator, ranker *backup.Ranker, engine *backup.RestoreEngine, writer *backup.Writer, conf *structures.Config, logger providers.Logger) BackupServiceInterface {
	return &BackupService{
		fs:      fsys,
		locator: locator,
		ranker:  ranker,
		engine:  engine,
		writer:  writer,
		conf:    conf,
		logger:  logger,
	}
}

func (bs *BackupService) BackupNow() (*backup.WriteResult, error) {
	return bs.writer.WriteBackup()
}

// Candidates runs a discovery pass and returns every readable candidate,
// best first.
func (bs *BackupService) Candidates() []models.ScoredCandidate {
	scored, _ := bs.ranker.ScoreAll(bs.locator.Discover())
	return scored
}

// AutoRestore is the first-run path: find the best snapshot anywhere and
// make it the sole source of truth. The destination store is cleared first
// so a half-initialized table can never shadow the backup.
func (bs *BackupService) AutoRestore() RestoreOutcome {
	return bs.RestoreLatest(true)
}

// RestoreLatest finds the best snapshot across all locations and restores
// it. Without clearFirst existing data stays and near-duplicates are
// skipped.
func (bs *BackupService) RestoreLatest(clearFirst bool) RestoreOutcome {
	candidates := bs.locator.Discover()
	if len(candidates) == 0 {
		return RestoreOutcome{Status: RestoreNoCandidate}
	}

	best, denied := bs.ranker.Rank(candidates)
	if best == nil {
		if denied != nil {
			return RestoreOutcome{Status: RestoreNeedsPermission, Handle: &denied.Handle}
		}
		return RestoreOutcome{Status: RestoreDecodeFailed}
	}

	restored := bs.engine.Restore(best.Snapshot, clearFirst)
	return bs.outcome(restored, len(best.Snapshot.Records), &best.Handle)
}

// RestoreFromHandle restores from one specific, already-chosen location.
// Unlike the multi-location scan, failures here are surfaced: the operation
// is meaningless if this exact handle cannot be read.
func (bs *BackupService) RestoreFromHandle(h models.Handle, clearFirst bool) RestoreOutcome {
	data, _, err := bs.ranker.Read(h)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrPermissionDenied) && h.Indirect():
			return RestoreOutcome{Status: RestoreNeedsPermission, Handle: &h}
		case errors.Is(err, models.ErrPermissionDenied):
			return RestoreOutcome{Status: RestorePermissionDenied, Handle: &h}
		default:
			return RestoreOutcome{Status: RestoreNoCandidate, Handle: &h}
		}
	}

	snapshot, _, err := backup.Decode(data)
	if err != nil {
		return RestoreOutcome{Status: RestoreDecodeFailed, Handle: &h}
	}

	restored := bs.engine.Restore(snapshot, clearFirst)
	return bs.outcome(restored, len(snapshot.Records), &h)
}

// RequiresPermission reports whether restoring from h may need an
// interactive permission grant first.
func (bs *BackupService) RequiresPermission(h models.Handle) bool {
	if !h.Indirect() {
		return false
	}
	_, _, err := bs.ranker.Read(h)
	return errors.Is(err, models.ErrPermissionDenied)
}

// ImportPayload is the manual import path: the user handed us snapshot text
// directly, existing data stays and near-duplicates are skipped.
func (bs *BackupService) ImportPayload(data []byte) RestoreOutcome {
	snapshot, _, err := backup.Decode(data)
	if err != nil {
		return RestoreOutcome{Status: RestoreDecodeFailed}
	}
	restored := bs.engine.Restore(snapshot, false)
	return bs.outcome(restored, len(snapshot.Records), nil)
}

func (bs *BackupService) outcome(restored, total int, h *models.Handle) RestoreOutcome {
	status := RestoreOK
	if restored == 0 {
		status = RestoreNothingNew
	}
	return RestoreOutcome{Status: status, Restored: restored, Total: total, Handle: h}
}

// FirstRunDone reports whether the automatic restore already ran once. Two
// markers are checked: the current one next to the store file, and the
// legacy one kept for installs upgraded from older versions. The marker
// deliberately lives outside anything the backup itself includes.
func (bs *BackupService) FirstRunDone() bool {
	if ok, _ := afero.Exists(bs.fs, bs.markerPath()); ok {
		return true
	}
	ok, _ := afero.Exists(bs.fs, bs.legacyMarkerPath())
	return ok
}

func (bs *BackupService) MarkFirstRunDone() {
	if err := bs.fs.MkdirAll(filepath.Dir(bs.markerPath()), 0755); err != nil {
		bs.logger.Warnf(providers.TypeBackup, "Failed to create marker directory: %s", err)
	}
	if err := afero.WriteFile(bs.fs, bs.markerPath(), []byte("1"), 0644); err != nil {
		bs.logger.Warnf(providers.TypeBackup, "Failed to write restore marker: %s", err)
	}
	// Secondary marker is best-effort, kept for downgrade compatibility
	_ = afero.WriteFile(bs.fs, bs.legacyMarkerPath(), []byte("1"), 0644)
}

func (bs *BackupService) markerPath() string {
	return filepath.Join(filepath.Dir(bs.conf.Persistence.FilePath), restoreMarkerName)
}

func (bs *BackupService) legacyMarkerPath() string {
	return filepath.Join(bs.conf.Backup.PrivateExternalDir, legacyRestoreMarkerName)
}
