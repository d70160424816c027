package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"glucolog/internal/models"
	"glucolog/internal/providers"
	"glucolog/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1 MB

const readingsCacheKey = "readings"

type ReadingsController struct {
	logger  providers.Logger
	service services.ReadingsServiceInterface
	cache   providers.CacheProviderInterface
}

func NewReadingsController(logger providers.Logger, service services.ReadingsServiceInterface, cache providers.CacheProviderInterface) *ReadingsController {
	return &ReadingsController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

type readingPayload struct {
	Kind      string  `json:"kind"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Timestamp int64   `json:"timestamp"`
	Note      string  `json:"note"`
}

func (p readingPayload) toReading() models.Reading {
	return models.Reading{
		Kind:      models.ReadingKind(p.Kind),
		Value:     p.Value,
		Unit:      p.Unit,
		Timestamp: time.UnixMilli(p.Timestamp),
		Note:      p.Note,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (rc *ReadingsController) List(w http.ResponseWriter, r *http.Request) {
	if data, ok := rc.cache.Get(readingsCacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	gson, err := json.Marshal(rc.service.List())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	rc.cache.Set(readingsCacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (rc *ReadingsController) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload readingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	created, err := rc.service.Add(payload.toReading())
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	rc.cache.Del(readingsCacheKey)
	writeJSON(w, http.StatusCreated, created)
}

func (rc *ReadingsController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload readingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	reading := payload.toReading()
	reading.ID = id
	if err := rc.service.Update(reading); err != nil {
		if errors.Is(err, models.ErrReadingNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	rc.cache.Del(readingsCacheKey)
	writeJSON(w, http.StatusOK, reading)
}

func (rc *ReadingsController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := rc.service.Remove(id); err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	rc.cache.Del(readingsCacheKey)
	w.WriteHeader(http.StatusNoContent)
}

func (rc *ReadingsController) GetPrefs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		string(models.KindBloodSugar): rc.service.UnitPreference(models.KindBloodSugar),
		string(models.KindKetone):     rc.service.UnitPreference(models.KindKetone),
	})
}

func (rc *ReadingsController) SetPref(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload struct {
		Kind string `json:"kind"`
		Unit string `json:"unit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	kind := models.ReadingKind(payload.Kind)
	if !models.ValidKind(kind) || payload.Unit == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	rc.service.SetUnitPreference(kind, payload.Unit)
	w.WriteHeader(http.StatusNoContent)
}
