package backup

import (
	"bytes"

	json "github.com/goccy/go-json"

	"glucolog/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encode produces the canonical snapshot text: a single object carrying
// exportDate (ms since epoch), appVersion and the readings array.
func Encode(s models.Snapshot) ([]byte, error) {
	if s.Records == nil {
		s.Records = []models.SnapshotReading{}
	}
	return json.Marshal(s)
}

// snapshotEnvelope mirrors the canonical shape with pointer fields so field
// presence can be told apart from zero values.
type snapshotEnvelope struct {
	ExportDate *int64                    `json:"exportDate"`
	AppVersion string                    `json:"appVersion"`
	Readings   *[]models.SnapshotReading `json:"readings"`
}

// Decode parses snapshot text defensively. Attempts, stopping at the first
// success:
//
//  1. canonical object with a readings array
//  2. bare array of readings (legacy export with no wrapper)
//  3. concatenated top-level fragments, each parsed as (1), (2) or a single
//     bare reading, merged into one snapshot
//
// The second return value reports whether the source carried an explicit,
// positive export timestamp; zero or negative does not count. Unknown fields
// are ignored.
func Decode(data []byte) (models.Snapshot, bool, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))

	if s, hadExplicit, ok := decodeCanonical(data); ok {
		return s, hadExplicit, nil
	}

	if records, ok := decodeBareArray(data); ok {
		return models.Snapshot{Records: records}, false, nil
	}

	if s, ok := decodeFragments(data); ok {
		return s, false, nil
	}

	return models.Snapshot{}, false, models.ErrDecodeFailed
}

func decodeCanonical(data []byte) (models.Snapshot, bool, bool) {
	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Readings == nil {
		return models.Snapshot{}, false, false
	}

	s := models.Snapshot{
		FormatVersion: env.AppVersion,
		Records:       *env.Readings,
	}
	hadExplicit := false
	if env.ExportDate != nil {
		s.ExportedAt = *env.ExportDate
		hadExplicit = *env.ExportDate > 0
	}
	return s, hadExplicit, true
}

func decodeBareArray(data []byte) ([]models.SnapshotReading, bool) {
	var records []models.SnapshotReading
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false
	}
	return records, true
}

// decodeFragments recovers records from a corrupted multi-write file: the
// text is split into top-level JSON values and every fragment is parsed
// independently; whatever decodes contributes its records.
func decodeFragments(data []byte) (models.Snapshot, bool) {
	fragments := splitTopLevel(data)
	if len(fragments) == 0 {
		return models.Snapshot{}, false
	}

	var merged []models.SnapshotReading
	found := false
	for _, frag := range fragments {
		if s, _, ok := decodeCanonical(frag); ok {
			merged = append(merged, s.Records...)
			found = true
			continue
		}
		if records, ok := decodeBareArray(frag); ok {
			merged = append(merged, records...)
			found = true
			continue
		}
		if rec, ok := decodeBareRecord(frag); ok {
			merged = append(merged, rec)
			found = true
		}
	}

	if !found {
		return models.Snapshot{}, false
	}
	return models.Snapshot{Records: merged}, true
}

func decodeBareRecord(data []byte) (models.SnapshotReading, bool) {
	var rec models.SnapshotReading
	if err := json.Unmarshal(data, &rec); err != nil || rec.Type == "" {
		return models.SnapshotReading{}, false
	}
	return rec, true
}

// splitTopLevel cuts the input into balanced top-level {...} / [...] chunks,
// tracking quoted strings and escape sequences so braces inside string
// values do not count. Bytes outside any chunk are discarded.
func splitTopLevel(data []byte) [][]byte {
	var fragments [][]byte
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, b := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{', '[':
			if depth == 0 {
				start = i
			}
			depth++
		case '}', ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				fragments = append(fragments, data[start:i+1])
				start = -1
			}
		}
	}

	return fragments
}
