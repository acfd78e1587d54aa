// Package conf loads fcompdata settings from defaults, an optional config.yaml
// and FCOMPDATA_* environment variables.
package conf

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fcompdata/fcompdata/internal/errors"
)

// Settings holds every configurable value of fcompdata
type Settings struct {
	Debug bool `mapstructure:"debug"`

	Log struct {
		Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
		Format string `mapstructure:"format"` // text or json
	} `mapstructure:"log"`

	Data struct {
		Dir string `mapstructure:"dir"` // directory holding the bundled corpus JSON files
	} `mapstructure:"data"`

	Cache struct {
		Dir string `mapstructure:"dir"` // per-user cache root for downloaded corpora
	} `mapstructure:"cache"`

	M4 M4Settings `mapstructure:"m4"`
}

// M4Settings configures the downloadable M4 corpus
type M4Settings struct {
	BaseURL string        `mapstructure:"base_url"` // location of the Train/ and Test/ CSV folders
	Timeout time.Duration `mapstructure:"timeout"`  // per-file transfer timeout
	Retries int           `mapstructure:"retries"`  // retries of transient transfer failures
	MemoTTL time.Duration `mapstructure:"memo_ttl"` // how long loaded M4 datasets stay in memory
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into the global
// settings instance, using the default config search paths.
func Load() (*Settings, error) {
	return LoadFrom(GetDefaultConfigPaths()...)
}

// LoadFrom is Load with explicit config search paths.
func LoadFrom(configPaths ...string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	v := viper.GetViper()
	if err := initViper(v, configPaths); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.Newf("error unmarshaling config into struct: %w", err).
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults, environment binding and reads config.yaml if one exists.
func initViper(v *viper.Viper, configPaths []string) error {
	v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
	v.SetConfigType("yaml")
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaultConfig(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// running on defaults is fine
			return nil
		}
		return errors.Newf("fatal error reading config file: %w", err).
			Category(errors.CategoryConfiguration).
			Build()
	}

	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// most specific first.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths,
			filepath.Join(home, ".config", AppName),
			filepath.Join(home, CacheDirName))
	}
	return paths
}

// GetSettings returns the current settings instance, nil before Load
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the loaded settings, loading them on first use.
// If loading fails the built-in defaults are returned.
func Setting() *Settings {
	if s := GetSettings(); s != nil {
		return s
	}
	s, err := Load()
	if err != nil {
		return Defaults()
	}
	return s
}

// Defaults returns settings built only from the built-in defaults.
func Defaults() *Settings {
	v := viper.New()
	setDefaultConfig(v)

	settings := &Settings{}
	// defaults always decode
	_ = v.Unmarshal(settings)
	return settings
}

// yamlSettings mirrors Settings for the config file, with durations as strings
type yamlSettings struct {
	Debug bool `yaml:"debug"`
	Log   struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Data struct {
		Dir string `yaml:"dir"`
	} `yaml:"data"`
	Cache struct {
		Dir string `yaml:"dir"`
	} `yaml:"cache"`
	M4 struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
		Retries int    `yaml:"retries"`
		MemoTTL string `yaml:"memo_ttl"`
	} `yaml:"m4"`
}

func toYAML(s *Settings) yamlSettings {
	var y yamlSettings
	y.Debug = s.Debug
	y.Log.Level = s.Log.Level
	y.Log.Format = s.Log.Format
	y.Data.Dir = s.Data.Dir
	y.Cache.Dir = s.Cache.Dir
	y.M4.BaseURL = s.M4.BaseURL
	y.M4.Timeout = s.M4.Timeout.String()
	y.M4.Retries = s.M4.Retries
	y.M4.MemoTTL = s.M4.MemoTTL.String()
	return y
}

// SaveYAMLConfig writes settings to configPath atomically.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(toYAML(settings))
	if err != nil {
		return errors.Newf("error marshaling settings to YAML: %w", err).
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.FileError(err, configPath, 0)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return errors.FileError(err, configPath, 0)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return errors.FileError(err, tempFileName, int64(len(yamlData)))
	}
	if err := tempFile.Close(); err != nil {
		return errors.FileError(err, tempFileName, int64(len(yamlData)))
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return errors.FileError(err, configPath, int64(len(yamlData)))
	}

	return nil
}
