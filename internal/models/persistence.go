package models

// StoreFileV2 is the current on-disk format of the local readings table.
// It is a JSON superset of the V1 format (a bare reading list), so V1 files
// unmarshal into this struct with Version and Prefs as zero values.
type StoreFileV2 struct {
	Version  int                    `json:"version"`
	Readings []Reading              `json:"readings"`
	Prefs    map[ReadingKind]string `json:"prefs"`
}

const StoreFileVersion = 2
