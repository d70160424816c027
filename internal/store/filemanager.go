package store

import (
	"os"

	json "github.com/goccy/go-json"

	"glucolog/internal/models"
	"glucolog/internal/providers"
)

// FileManager persists the local readings table to a single compressed file.
// Writes are atomic (tmp file + rename) so a crash mid-save never corrupts
// the previous image.
type FileManager struct {
	store      *models.ReadingStore
	compressor CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor CompressorInterface, store *models.ReadingStore, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	image := models.StoreFileV2{
		Version:  models.StoreFileVersion,
		Readings: f.store.GetAll(),
		Prefs:    f.store.Preferences(),
	}

	jsonData, err := json.Marshal(image)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	raw, err := f.compressor.Decompress(data)
	if err != nil {
		// Pre-compression files were written as plain JSON
		f.logger.Warnf(providers.TypeApp, "Store file is not compressed, assuming plain JSON")
		raw = data
	}

	// Current format (versioned envelope with prefs)
	var image models.StoreFileV2
	if err := json.Unmarshal(raw, &image); err == nil && image.Readings != nil {
		f.store.Put(image.Readings)
		if image.Prefs != nil {
			f.store.PutPreferences(image.Prefs)
		}
		return nil
	}

	// Old format (bare reading list, no envelope)
	f.logger.Warnf(providers.TypeApp, "Inconsistent store file found, try to migrate from old data format")
	var readings []models.Reading
	if err := json.Unmarshal(raw, &readings); err != nil {
		f.logger.Warnf(providers.TypeApp, "Migration failed")
		return err
	}
	f.logger.Warnf(providers.TypeApp, "Migration from v1 format successful")
	f.store.Put(readings)

	return nil
}
