// Package config loads settings from a YAML file with SIGNALRUN_* environment
// overrides using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/raykavin/signalrun/pkg/core"
	"github.com/raykavin/signalrun/pkg/logger"
	"github.com/spf13/viper"
)

const (
	EnvPrefix          = "SIGNALRUN"
	DefaultConfigPath  = "./signalrun.yaml"
	DefaultStoragePath = "./signalrun.db"
)

// AppConfig holds process level options read from the environment
type AppConfig struct {
	ConfigPath  string
	StoragePath string
	DataDir     string
	Timeframe   string
}

// LoadAppConfig reads SIGNALRUN_CONFIG_PATH, SIGNALRUN_STORAGE_PATH,
// SIGNALRUN_DATA_DIR and SIGNALRUN_TIMEFRAME
func LoadAppConfig() *AppConfig {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("CONFIG_PATH", DefaultConfigPath)
	v.SetDefault("STORAGE_PATH", DefaultStoragePath)
	v.SetDefault("DATA_DIR", ".")
	v.SetDefault("TIMEFRAME", "15m")

	return &AppConfig{
		ConfigPath:  v.GetString("CONFIG_PATH"),
		StoragePath: v.GetString("STORAGE_PATH"),
		DataDir:     v.GetString("DATA_DIR"),
		Timeframe:   v.GetString("TIMEFRAME"),
	}
}

// Load reads settings from configPath over the defaults. A missing file is
// created with the defaults. Every key can be overridden from the
// environment, e.g. SIGNALRUN_RISK_STOP_ATR_MULTIPLE.
func Load(configPath string, log logger.Logger) (core.Settings, error) {
	settings := core.DefaultSettings()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	keys, err := Keys(settings)
	if err != nil {
		return settings, err
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return settings, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := SaveDefault(configPath); err != nil {
				return settings, err
			}
			log.WithField("path", configPath).Info("Default configuration file created")
		}

		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return settings, fmt.Errorf("read %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&settings); err != nil {
		return settings, fmt.Errorf("parse configuration: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}

	log.WithField("path", configPath).Debug("Configuration loaded")
	return settings, nil
}

// SaveDefault writes the default settings to configPath
func SaveDefault(configPath string) error {
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create configuration directory: %w", err)
		}
	}

	sections, err := toMap(core.DefaultSettings())
	if err != nil {
		return err
	}

	v := viper.New()
	for key, value := range sections {
		v.Set(key, value)
	}

	v.SetConfigFile(configPath)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("could not save default configuration: %w", err)
	}

	return nil
}

// Keys lists every dotted settings key, sorted
func Keys(settings core.Settings) ([]string, error) {
	sections, err := toMap(settings)
	if err != nil {
		return nil, err
	}

	var keys []string
	collectKeys("", sections, &keys)
	sort.Strings(keys)
	return keys, nil
}

func toMap(settings core.Settings) (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(settings, &out); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return out, nil
}

func collectKeys(prefix string, value any, keys *[]string) {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}

	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			collectKeys(join(key), child, keys)
		}
	case core.KindValues:
		for kind := range v {
			*keys = append(*keys, join(string(kind)))
		}
	default:
		*keys = append(*keys, prefix)
	}
}
