package controllers

import (
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"glucolog/internal/models"
	"glucolog/internal/providers"
	"glucolog/internal/services"
)

type BackupController struct {
	logger  providers.Logger
	service services.BackupServiceInterface
	cache   providers.CacheProviderInterface
}

func NewBackupController(logger providers.Logger, service services.BackupServiceInterface, cache providers.CacheProviderInterface) *BackupController {
	return &BackupController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

type handlePayload struct {
	Path string `json:"path"`
	Ref  string `json:"ref"`
}

func (p handlePayload) toHandle() (models.Handle, bool) {
	switch {
	case p.Ref != "" && p.Path == "":
		return models.IndirectHandle(p.Ref), true
	case p.Path != "" && p.Ref == "":
		return models.PathHandle(p.Path), true
	default:
		return models.Handle{}, false
	}
}

func handleView(h models.Handle) handlePayload {
	return handlePayload{Path: h.Path, Ref: h.Ref}
}

type outcomeView struct {
	Status   string         `json:"status"`
	Restored int            `json:"restored"`
	Total    int            `json:"total"`
	Handle   *handlePayload `json:"handle,omitempty"`
}

func outcomeStatusCode(o services.RestoreOutcome) int {
	switch o.Status {
	case services.RestoreOK, services.RestoreNothingNew:
		return http.StatusOK
	case services.RestoreNoCandidate:
		return http.StatusNotFound
	case services.RestoreNeedsPermission, services.RestorePermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeOutcome(w http.ResponseWriter, o services.RestoreOutcome) {
	view := outcomeView{
		Status:   o.Status.String(),
		Restored: o.Restored,
		Total:    o.Total,
	}
	if o.Handle != nil {
		h := handleView(*o.Handle)
		view.Handle = &h
	}
	writeJSON(w, outcomeStatusCode(o), view)
}

// Backup triggers an immediate snapshot write.
func (bc *BackupController) Backup(w http.ResponseWriter, r *http.Request) {
	result, err := bc.service.BackupNow()
	if err != nil {
		bc.logger.Errorf(providers.TypeBackup, "Manual backup failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Origin string        `json:"origin"`
		Handle handlePayload `json:"handle"`
	}{
		Origin: result.Origin.String(),
		Handle: handleView(result.Handle),
	})
}

type candidateView struct {
	Handle      handlePayload `json:"handle"`
	Origin      string        `json:"origin"`
	HadExplicit bool          `json:"hadExplicitExportTimestamp"`
	RecordCount int           `json:"recordCount"`
	EffectiveTS int64         `json:"effectiveTimestamp"`
}

// Candidates runs discovery plus ranking and returns the readable
// candidates best first.
func (bc *BackupController) Candidates(w http.ResponseWriter, r *http.Request) {
	scored := bc.service.Candidates()
	views := make([]candidateView, 0, len(scored))
	for _, sc := range scored {
		views = append(views, candidateView{
			Handle:      handleView(sc.Handle),
			Origin:      sc.Origin.String(),
			HadExplicit: sc.HadExplicit,
			RecordCount: sc.RecordCount,
			EffectiveTS: sc.EffectiveTS,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// Restore restores either from a specific handle (when the body names one)
// or from the best candidate discovery can find.
func (bc *BackupController) Restore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload struct {
		handlePayload
		ClearFirst bool `json:"clearFirst"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err != io.EOF {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var outcome services.RestoreOutcome
	if h, ok := payload.toHandle(); ok {
		outcome = bc.service.RestoreFromHandle(h, payload.ClearFirst)
	} else {
		outcome = bc.service.RestoreLatest(payload.ClearFirst)
	}

	bc.cache.Del(readingsCacheKey)
	writeOutcome(w, outcome)
}

// Import accepts raw snapshot text and merges it without clearing, the
// user-driven file selection path.
func (bc *BackupController) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	outcome := bc.service.ImportPayload(data)
	if outcome.Restored > 0 {
		bc.cache.Del(readingsCacheKey)
	}
	writeOutcome(w, outcome)
}
