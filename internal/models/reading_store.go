package models

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrReadingNotFound = errors.New("reading not found")

// ReadingStore is the single-writer table of readings. It owns identity:
// ids are issued monotonically on insert and never reused within a process
// lifetime. All methods are safe for concurrent use; callers above it are
// still expected not to interleave whole backup/restore operations.
type ReadingStore struct {
	mu       sync.RWMutex
	readings map[int64]*Reading
	nextID   int64
	prefs    map[ReadingKind]string
}

func NewReadingStore() *ReadingStore {
	return &ReadingStore{
		readings: make(map[int64]*Reading),
		nextID:   1,
		prefs:    make(map[ReadingKind]string),
	}
}

// Insert assigns a fresh id and stores a copy of r. The id carried on r is
// ignored.
func (s *ReadingStore) Insert(r Reading) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.nextID++
	stored := r
	s.readings[r.ID] = &stored
	return r, nil
}

// Update replaces the reading with r.ID, keeping its identity.
func (s *ReadingStore) Update(r Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.readings[r.ID]; !ok {
		return ErrReadingNotFound
	}
	stored := r
	s.readings[r.ID] = &stored
	return nil
}

func (s *ReadingStore) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.readings[id]; !ok {
		return ErrReadingNotFound
	}
	delete(s.readings, id)
	return nil
}

func (s *ReadingStore) Get(id int64) (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.readings[id]
	if !ok {
		return Reading{}, false
	}
	return *r, true
}

// GetAll returns every reading ordered by id, which is insertion order.
func (s *ReadingStore) GetAll() []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Reading, 0, len(s.readings))
	for _, r := range s.readings {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *ReadingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

// ClearAll removes every record. Issued ids are not reset.
func (s *ReadingStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = make(map[int64]*Reading)
}

// CountFuzzyMatch counts stored readings of the given kind whose value is
// within tolerance of value and whose timestamp falls inside [start, end].
// Used to skip near-duplicates during non-destructive restore.
func (s *ReadingStore) CountFuzzyMatch(kind ReadingKind, value float64, start, end time.Time, tolerance float64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.readings {
		if r.Kind != kind {
			continue
		}
		d := r.Value - value
		if d < -tolerance || d > tolerance {
			continue
		}
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		n++
	}
	return n
}

// Put replaces the whole table from a persisted image, keeping the id
// counter ahead of every loaded id.
func (s *ReadingStore) Put(readings []Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = make(map[int64]*Reading, len(readings))
	for _, r := range readings {
		stored := r
		s.readings[r.ID] = &stored
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
}

// UnitPreference returns the display unit configured for a kind, empty when
// the user never picked one.
func (s *ReadingStore) UnitPreference(kind ReadingKind) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs[kind]
}

func (s *ReadingStore) SetUnitPreference(kind ReadingKind, unit string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[kind] = unit
}

// Preferences returns a copy of the unit preference map for persistence.
func (s *ReadingStore) Preferences() map[ReadingKind]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[ReadingKind]string, len(s.prefs))
	for k, v := range s.prefs {
		out[k] = v
	}
	return out
}

func (s *ReadingStore) PutPreferences(prefs map[ReadingKind]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs = make(map[ReadingKind]string, len(prefs))
	for k, v := range prefs {
		s.prefs[k] = v
	}
}
