package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"glucolog/internal/structures"
)

const appVersion = "1.4.0"

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "GLUCOLOG_LOG_LEVEL")
	viper.BindEnv("persistence.saveInterval", "GLUCOLOG_SAVE_INTERVAL")
	viper.BindEnv("backup.writeInterval", "GLUCOLOG_BACKUP_INTERVAL")
	viper.BindEnv("backup.repairEnabled", "GLUCOLOG_BACKUP_REPAIR")
	viper.BindEnv("cache.enabled", "GLUCOLOG_CACHE_ENABLED")
	viper.BindEnv("cache.size", "GLUCOLOG_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "GlucoLog"
	conf.AppVersion = appVersion
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
