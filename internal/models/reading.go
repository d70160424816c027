package models

import "time"

type ReadingKind string

const (
	KindBloodSugar ReadingKind = "blood_sugar"
	KindKetone     ReadingKind = "ketone"
)

// ValidKind reports whether k is one of the known measurement kinds.
func ValidKind(k ReadingKind) bool {
	return k == KindBloodSugar || k == KindKetone
}

// Reading is a single measurement. ID is assigned by the store on insert;
// Timestamp is the moment the reading applies to, user-editable, so it has
// no ordering relation to insertion order.
type Reading struct {
	ID        int64       `json:"id"`
	Kind      ReadingKind `json:"kind"`
	Value     float64     `json:"value"`
	Unit      string      `json:"unit"`
	Timestamp time.Time   `json:"timestamp"`
	Note      string      `json:"note"`
}
