package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucolog/internal/models"
	"glucolog/internal/testutil"
)

func newReadingsService() ReadingsServiceInterface {
	return NewReadingsService(models.NewReadingStore(), &testutil.MockMetrics{})
}

func validReading() models.Reading {
	return models.Reading{
		Kind:      models.KindBloodSugar,
		Value:     104,
		Unit:      "mg/dL",
		Timestamp: time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
	}
}

func TestReadingsService_AddAssignsID(t *testing.T) {
	svc := newReadingsService()

	first, err := svc.Add(validReading())
	require.NoError(t, err)
	second, err := svc.Add(validReading())
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, 2, svc.Count())
}

func TestReadingsService_AddValidation(t *testing.T) {
	svc := newReadingsService()

	bad := validReading()
	bad.Kind = "weight"
	_, err := svc.Add(bad)
	assert.ErrorIs(t, err, ErrInvalidReading)

	bad = validReading()
	bad.Unit = ""
	_, err = svc.Add(bad)
	assert.ErrorIs(t, err, ErrInvalidReading)

	bad = validReading()
	bad.Timestamp = time.Time{}
	_, err = svc.Add(bad)
	assert.ErrorIs(t, err, ErrInvalidReading)

	assert.Equal(t, 0, svc.Count())
	assert.False(t, svc.Dirty())
}

func TestReadingsService_UpdateAndRemove(t *testing.T) {
	svc := newReadingsService()
	rec, err := svc.Add(validReading())
	require.NoError(t, err)

	rec.Value = 120
	require.NoError(t, svc.Update(rec))
	got, ok := svc.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, float64(120), got.Value)

	missing := validReading()
	missing.ID = 999
	assert.ErrorIs(t, svc.Update(missing), models.ErrReadingNotFound)

	require.NoError(t, svc.Remove(rec.ID))
	assert.ErrorIs(t, svc.Remove(rec.ID), models.ErrReadingNotFound)
	assert.Equal(t, 0, svc.Count())
}

func TestReadingsService_DirtyFlagLifecycle(t *testing.T) {
	svc := newReadingsService()
	assert.False(t, svc.Dirty())

	_, err := svc.Add(validReading())
	require.NoError(t, err)
	assert.True(t, svc.Dirty())

	svc.MarkClean()
	assert.False(t, svc.Dirty())

	svc.SetUnitPreference(models.KindKetone, "mmol/L")
	assert.True(t, svc.Dirty())
	assert.Equal(t, "mmol/L", svc.UnitPreference(models.KindKetone))
}

func TestReadingsService_ListOrderedByID(t *testing.T) {
	svc := newReadingsService()
	for i := 0; i < 5; i++ {
		r := validReading()
		r.Value = float64(100 + i)
		_, err := svc.Add(r)
		require.NoError(t, err)
	}

	got := svc.List()
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].ID, got[i].ID)
	}
}
