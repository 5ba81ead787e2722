package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"gonarrative/domain/narrative"
	"gonarrative/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig             `mapstructure:"server"`
	Data     DataConfig               `mapstructure:"data"`
	Policy   PolicyConfig             `mapstructure:"policy"`
	Log      LogConfig                `mapstructure:"log"`
	Cache    CacheConfig              `mapstructure:"cache"`
	Report   ReportConfig             `mapstructure:"report"`
	Sections []narrative.MetricConfig `mapstructure:"sections"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port      string  `mapstructure:"port"`
	GinMode   string  `mapstructure:"gin_mode"`
	RateLimit float64 `mapstructure:"rate_limit"` // requests per second, 0 disables
	Burst     int     `mapstructure:"burst"`
}

// DataConfig points at the dataset served by the CLI and server
type DataConfig struct {
	Path  string `mapstructure:"path"`  // .csv or .xlsx
	Sheet string `mapstructure:"sheet"` // xlsx only; first sheet when empty
}

// PolicyConfig locates the appraisal policy document
type PolicyConfig struct {
	Path string `mapstructure:"path"` // built-in defaults when empty
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `mapstructure:"level"`  // ERROR, WARN, INFO, DEBUG, TRACE
	Format string `mapstructure:"format"` // json or console
}

// CacheConfig bounds the narrative memo held by the calling layer
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxEntries int  `mapstructure:"max_entries"`
}

// ReportConfig tunes multi-section reports
type ReportConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads configuration from a YAML file, NARRATIVE_* environment
// variables and defaults. With an empty path, config.yaml in the working
// directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("NARRATIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.WithCode(errors.CodeConfigInvalid, eris.Wrap(err, "config: read file"))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, eris.Wrap(err, "config: unmarshal"))
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "json")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_entries", 512)
	v.SetDefault("report.concurrency", 4)
}

// Section returns the configured section with the given id
func (c *Config) Section(id string) (narrative.MetricConfig, bool) {
	for _, s := range c.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return narrative.MetricConfig{}, false
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if cfg.Report.Concurrency < 1 {
		return errors.ConfigInvalid("report concurrency must be at least 1")
	}
	if cfg.Cache.MaxEntries < 0 {
		return errors.ConfigInvalid("cache max_entries must be non-negative")
	}

	seen := make(map[string]bool, len(cfg.Sections))
	for _, s := range cfg.Sections {
		if err := s.Validate(); err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
		if seen[s.ID] {
			return errors.ConfigInvalid("duplicate section id " + s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}
