package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

// BackupConfig describes the storage locations a backup may live in.
// ManagedIndexDir backs the indirect managed store; the remaining three are
// plain directories with decreasing durability guarantees.
type BackupConfig struct {
	FolderToken        string        `yaml:"folderToken" validate:"required"`
	FileName           string        `yaml:"fileName" validate:"required"`
	ManagedIndexDir    string        `yaml:"managedIndexDir" validate:"required|unixPath"`
	LegacySharedDir    string        `yaml:"legacySharedDir" validate:"unixPath"`
	PrivateExternalDir string        `yaml:"privateExternalDir" validate:"required|unixPath"`
	PrivateCacheDir    string        `yaml:"privateCacheDir" validate:"required|unixPath"`
	RepairEnabled      bool          `yaml:"repairEnabled"`
	WriteInterval      time.Duration `yaml:"writeInterval" validate:"required|min:1"`
}

// RestoreConfig tunes fuzzy deduplication on non-destructive restore.
type RestoreConfig struct {
	ValueTolerance float64       `yaml:"valueTolerance" validate:"min:0"`
	TimeWindow     time.Duration `yaml:"timeWindow" validate:"min:0"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	AppVersion  string
	Debug       bool
	Path        string
	WebServer   Server        `yaml:"webServer"`
	Persistence Persistence   `yaml:"persistence"`
	Backup      BackupConfig  `yaml:"backup"`
	Restore     RestoreConfig `yaml:"restore"`
	Logger      LoggerConfig  `yaml:"logger"`
	Cache       CacheConfig   `yaml:"cache"`
	Metrics     MetricsConfig `yaml:"metrics"`
}
