// Package config loads application configuration from config.yaml and
// GEOSEARCH_* environment variables, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Geoapify  GeoapifyConfig  `yaml:"geoapify" mapstructure:"geoapify"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// NominatimConfig configures the free text-search provider.
type NominatimConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateIntervalMs int    `yaml:"rate_interval_ms" mapstructure:"rate_interval_ms"`
}

// GeoapifyConfig configures the paid category-places provider. An empty key
// disables it; tag searches then fall back to text search.
type GeoapifyConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SearchConfig holds proximity search defaults.
type SearchConfig struct {
	RadiusKm         float64 `yaml:"radius_km" mapstructure:"radius_km"`
	TagLimit         int     `yaml:"tag_limit" mapstructure:"tag_limit"`
	NearbyLimit      int     `yaml:"nearby_limit" mapstructure:"nearby_limit"`
	BatchConcurrency int     `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "clinicmap-geosearch/1.0")
	v.SetDefault("nominatim.timeout_secs", 10)
	v.SetDefault("nominatim.rate_interval_ms", 1000)
	v.SetDefault("geoapify.key", "")
	v.SetDefault("geoapify.base_url", "https://api.geoapify.com")
	v.SetDefault("geoapify.timeout_secs", 30)
	v.SetDefault("search.radius_km", 10)
	v.SetDefault("search.tag_limit", 50)
	v.SetDefault("search.nearby_limit", 20)
	v.SetDefault("search.batch_concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
