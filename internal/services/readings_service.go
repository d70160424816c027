package services

import (
	"errors"

	"go.uber.org/atomic"

	"glucolog/internal/models"
	"glucolog/internal/providers"
)

var ErrInvalidReading = errors.New("invalid reading")

type ReadingsServiceInterface interface {
	Add(r models.Reading) (models.Reading, error)
	Update(r models.Reading) error
	Remove(id int64) error
	Get(id int64) (models.Reading, bool)
	List() []models.Reading
	Count() int
	UnitPreference(kind models.ReadingKind) string
	SetUnitPreference(kind models.ReadingKind, unit string)
	Dirty() bool
	MarkClean()
}

// ReadingsService fronts the store for the API layer: it validates input,
// raises the dirty flag consumed by the write-through backup job, and keeps
// the readings gauge current.
type ReadingsService struct {
	store   *models.ReadingStore
	metrics providers.MetricsProviderInterface
	dirty   atomic.Bool
}

func NewReadingsService(store *models.ReadingStore, metrics providers.MetricsProviderInterface) ReadingsServiceInterface {
	return &ReadingsService{
		store:   store,
		metrics: metrics,
	}
}

func (rs *ReadingsService) Add(r models.Reading) (models.Reading, error) {
	if err := validateReading(r); err != nil {
		return models.Reading{}, err
	}
	inserted, err := rs.store.Insert(r)
	if err != nil {
		return models.Reading{}, err
	}
	rs.markDirty()
	return inserted, nil
}

func (rs *ReadingsService) Update(r models.Reading) error {
	if err := validateReading(r); err != nil {
		return err
	}
	if err := rs.store.Update(r); err != nil {
		return err
	}
	rs.markDirty()
	return nil
}

func (rs *ReadingsService) Remove(id int64) error {
	if err := rs.store.Delete(id); err != nil {
		return err
	}
	rs.markDirty()
	return nil
}

func (rs *ReadingsService) Get(id int64) (models.Reading, bool) {
	return rs.store.Get(id)
}

func (rs *ReadingsService) List() []models.Reading {
	return rs.store.GetAll()
}

func (rs *ReadingsService) Count() int {
	return rs.store.Count()
}

func (rs *ReadingsService) UnitPreference(kind models.ReadingKind) string {
	return rs.store.UnitPreference(kind)
}

func (rs *ReadingsService) SetUnitPreference(kind models.ReadingKind, unit string) {
	rs.store.SetUnitPreference(kind, unit)
	rs.markDirty()
}

func (rs *ReadingsService) Dirty() bool {
	return rs.dirty.Load()
}

func (rs *ReadingsService) MarkClean() {
	rs.dirty.Store(false)
}

func (rs *ReadingsService) markDirty() {
	rs.dirty.Store(true)
	rs.metrics.SetReadingsTotal(rs.store.Count())
}

func validateReading(r models.Reading) error {
	if !models.ValidKind(r.Kind) {
		return ErrInvalidReading
	}
	if r.Unit == "" || r.Timestamp.IsZero() {
		return ErrInvalidReading
	}
	return nil
}
