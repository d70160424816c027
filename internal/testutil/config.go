package testutil

import (
	"time"

	"glucolog/internal/structures"
)

// TestConfig returns a config with every location rooted under base.
func TestConfig(base string) *structures.Config {
	return &structures.Config{
		AppName:    "GlucoLog",
		AppVersion: "test",
		WebServer: structures.Server{
			Host: "127.0.0.1",
			Port: 8745,
		},
		Persistence: structures.Persistence{
			FilePath:     base + "/data/readings.dat",
			SaveInterval: time.Second,
		},
		Backup: structures.BackupConfig{
			FolderToken:        "GlucologBackup",
			FileName:           "glucolog_backup.json",
			ManagedIndexDir:    base + "/mediastore",
			LegacySharedDir:    base + "/shared",
			PrivateExternalDir: base + "/external",
			PrivateCacheDir:    base + "/cache",
			RepairEnabled:      true,
			WriteInterval:      time.Second,
		},
		Restore: structures.RestoreConfig{
			ValueTolerance: 0.01,
			TimeWindow:     time.Minute,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   base + "/logs",
		},
	}
}
