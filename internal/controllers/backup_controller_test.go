package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucolog/internal/backup"
	"glucolog/internal/models"
	"glucolog/internal/services"
	"glucolog/internal/testutil"
)

type backupControllerFixture struct {
	ctrl  *BackupController
	fs    afero.Fs
	index *testutil.MockManagedIndex
	store *models.ReadingStore
	cache *testutil.MockCache
}

func newBackupControllerFixture(t *testing.T) *backupControllerFixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	index := testutil.NewMockManagedIndex()
	readings := models.NewReadingStore()
	conf := testutil.TestConfig("/base")
	logger := &testutil.MockLogger{}
	metrics := &testutil.MockMetrics{}
	cache := &testutil.MockCache{}

	repair := backup.NewFolderRepair(fs, conf, logger)
	locator := backup.NewLocator(fs, index, repair, conf, logger, metrics)
	ranker := backup.NewRanker(fs, index, logger)
	engine := backup.NewRestoreEngine(readings, conf, logger, metrics)
	writer := backup.NewWriter(fs, index, readings, conf, logger, metrics)
	service := services.NewBackupService(fs, locator, ranker, engine, writer, conf, logger)

	return &backupControllerFixture{
		ctrl:  NewBackupController(logger, service, cache),
		fs:    fs,
		index: index,
		store: readings,
		cache: cache,
	}
}

func backupJSON(exportDate int64, values ...float64) []byte {
	records := ""
	for i, v := range values {
		if i > 0 {
			records += ","
		}
		records += fmt.Sprintf(`{"type":"blood_sugar","value":%g,"unit":"mg/dL","dateTimestamp":%d}`, v, int64(i)*60000)
	}
	return []byte(fmt.Sprintf(`{"exportDate":%d,"readings":[%s]}`, exportDate, records))
}

func decodeOutcome(t *testing.T, rec *httptest.ResponseRecorder) outcomeView {
	t.Helper()
	var view outcomeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestBackupController_RestoreLatest(t *testing.T) {
	f := newBackupControllerFixture(t)
	f.index.Put("glucolog_backup.json", backupJSON(1000, 100, 110), time.Now())

	rec := httptest.NewRecorder()
	f.ctrl.Restore(rec, httptest.NewRequest(http.MethodPost, "/restore", strings.NewReader(`{"clearFirst":true}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeOutcome(t, rec)
	assert.Equal(t, "restored", view.Status)
	assert.Equal(t, 2, view.Restored)
	require.NotNil(t, view.Handle)
	assert.NotEmpty(t, view.Handle.Ref)
	assert.Equal(t, 2, f.store.Count())
}

func TestBackupController_RestoreEmptyBodyMeansLatest(t *testing.T) {
	f := newBackupControllerFixture(t)
	f.index.Put("glucolog_backup.json", backupJSON(1000, 100), time.Now())

	rec := httptest.NewRecorder()
	f.ctrl.Restore(rec, httptest.NewRequest(http.MethodPost, "/restore", strings.NewReader("")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "restored", decodeOutcome(t, rec).Status)
}

func TestBackupController_RestoreFromRef(t *testing.T) {
	f := newBackupControllerFixture(t)
	ref := f.index.Put("glucolog_backup.json", backupJSON(1000, 100), time.Now())

	body := fmt.Sprintf(`{"ref":%q,"clearFirst":true}`, ref)
	rec := httptest.NewRecorder()
	f.ctrl.Restore(rec, httptest.NewRequest(http.MethodPost, "/restore", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.store.Count())
}

func TestBackupController_RestoreStatusCodes(t *testing.T) {
	t.Run("no candidate", func(t *testing.T) {
		f := newBackupControllerFixture(t)
		rec := httptest.NewRecorder()
		f.ctrl.Restore(rec, httptest.NewRequest(http.MethodPost, "/restore", strings.NewReader("{}")))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "no-candidate", decodeOutcome(t, rec).Status)
	})

	t.Run("needs permission", func(t *testing.T) {
		f := newBackupControllerFixture(t)
		ref := f.index.Put("glucolog_backup.json", backupJSON(1000, 100), time.Now())
		f.index.OpenErrs = map[string]error{ref: models.ErrPermissionDenied}

		rec := httptest.NewRecorder()
		f.ctrl.Restore(rec, httptest.NewRequest(http.MethodPost, "/restore", strings.NewReader("{}")))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		view := decodeOutcome(t, rec)
		assert.Equal(t, "needs-permission", view.Status)
		require.NotNil(t, view.Handle)
		assert.Equal(t, ref, view.Handle.Ref)
	})

	t.Run("decode failed", func(t *testing.T) {
		f := newBackupControllerFixture(t)
		require.NoError(t, afero.WriteFile(f.fs,
			"/base/cache/GlucologBackup/glucolog_backup.json", []byte("###"), 0644))

		rec := httptest.NewRecorder()
		f.ctrl.Restore(rec, httptest.NewRequest(http.MethodPost, "/restore", strings.NewReader("{}")))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("both path and ref rejected as handle", func(t *testing.T) {
		f := newBackupControllerFixture(t)
		f.index.Put("glucolog_backup.json", backupJSON(1000, 100), time.Now())

		// An ambiguous handle falls back to the discovery path.
		rec := httptest.NewRecorder()
		f.ctrl.Restore(rec, httptest.NewRequest(http.MethodPost, "/restore",
			strings.NewReader(`{"path":"/x.json","ref":"abc"}`)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBackupController_RestoreInvalidatesCache(t *testing.T) {
	f := newBackupControllerFixture(t)
	f.cache.Set(readingsCacheKey, []byte("stale"))

	rec := httptest.NewRecorder()
	f.ctrl.Restore(rec, httptest.NewRequest(http.MethodPost, "/restore", strings.NewReader(`{"clearFirst":true}`)))

	_, ok := f.cache.Get(readingsCacheKey)
	assert.False(t, ok)
}

func TestBackupController_BackupEndpoint(t *testing.T) {
	f := newBackupControllerFixture(t)
	_, err := f.store.Insert(models.Reading{Kind: models.KindBloodSugar, Value: 100, Unit: "mg/dL", Timestamp: time.Now()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.ctrl.Backup(rec, httptest.NewRequest(http.MethodPost, "/backup", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Origin string        `json:"origin"`
		Handle handlePayload `json:"handle"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "managed-index", resp.Origin)
	assert.NotEmpty(t, resp.Handle.Ref)
}

func TestBackupController_CandidatesEndpoint(t *testing.T) {
	f := newBackupControllerFixture(t)

	rec := httptest.NewRecorder()
	f.ctrl.Candidates(rec, httptest.NewRequest(http.MethodGet, "/backup/candidates", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())

	f.index.Put("glucolog_backup.json", backupJSON(2000, 100, 110), time.Now())
	require.NoError(t, afero.WriteFile(f.fs,
		"/base/cache/GlucologBackup/glucolog_backup.json", backupJSON(1000, 90), 0644))

	rec = httptest.NewRecorder()
	f.ctrl.Candidates(rec, httptest.NewRequest(http.MethodGet, "/backup/candidates", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var views []candidateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "managed-index", views[0].Origin)
	assert.Equal(t, 2, views[0].RecordCount)
}

func TestBackupController_ImportEndpoint(t *testing.T) {
	f := newBackupControllerFixture(t)

	rec := httptest.NewRecorder()
	f.ctrl.Import(rec, httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(string(backupJSON(1000, 100, 110)))))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeOutcome(t, rec).Restored)

	rec = httptest.NewRecorder()
	f.ctrl.Import(rec, httptest.NewRequest(http.MethodPost, "/import", strings.NewReader("garbage")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	f.ctrl.Import(rec, httptest.NewRequest(http.MethodPost, "/import", strings.NewReader("")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
