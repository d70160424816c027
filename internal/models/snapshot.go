package models

import "time"

// SnapshotReading is the wire form of a single reading inside a backup file.
// Timestamps travel as milliseconds since epoch.
type SnapshotReading struct {
	ID            int64   `json:"id"`
	Type          string  `json:"type"`
	Value         float64 `json:"value"`
	Unit          string  `json:"unit"`
	DateTimestamp int64   `json:"dateTimestamp"`
	Notes         string  `json:"notes"`
}

// Snapshot is an exported bundle of readings plus export metadata.
// ExportedAt may legitimately be zero: legacy files and recovered fragments
// carry no export timestamp, and that is not an error.
type Snapshot struct {
	ExportedAt    int64             `json:"exportDate"`
	FormatVersion string            `json:"appVersion"`
	Records       []SnapshotReading `json:"readings"`
}

// ToReading converts a wire record to a domain reading. The snapshot id is
// intentionally dropped; the store reassigns identity on insert.
func (sr SnapshotReading) ToReading() Reading {
	return Reading{
		Kind:      ReadingKind(sr.Type),
		Value:     sr.Value,
		Unit:      sr.Unit,
		Timestamp: time.UnixMilli(sr.DateTimestamp),
		Note:      sr.Notes,
	}
}

// FromReading converts a domain reading to its wire form.
func FromReading(r Reading) SnapshotReading {
	return SnapshotReading{
		ID:            r.ID,
		Type:          string(r.Kind),
		Value:         r.Value,
		Unit:          r.Unit,
		DateTimestamp: r.Timestamp.UnixMilli(),
		Notes:         r.Note,
	}
}
