// Package config layers defaults, an optional config file, INCUNABULA_
// environment variables and command-line flags into one Config.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/incunabula/internal/discovery"
	"github.com/lehigh-university-libraries/incunabula/internal/export"
	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
	"github.com/lehigh-university-libraries/incunabula/internal/quality"
)

// EnvPrefix is prepended to every environment variable, e.g.
// INCUNABULA_RETRY_ATTEMPTS.
const EnvPrefix = "INCUNABULA"

// Config is the full runtime configuration.
type Config struct {
	Input        string      `mapstructure:"input" yaml:"input"`
	Output       string      `mapstructure:"output" yaml:"output"`
	Volume       string      `mapstructure:"volume" yaml:"volume"`
	Formats      []string    `mapstructure:"formats" yaml:"formats"`
	ReadingOrder string      `mapstructure:"reading_order" yaml:"reading_order"`
	Corrections  Corrections `mapstructure:"corrections" yaml:"corrections"`
	Retry        Retry       `mapstructure:"retry" yaml:"retry"`
	Quality      Quality     `mapstructure:"quality" yaml:"quality"`
	LogLevel     string      `mapstructure:"log_level" yaml:"log_level"`
	Concurrency  int         `mapstructure:"concurrency" yaml:"concurrency"`
}

// Corrections toggles heading post-processing steps.
type Corrections struct {
	BoughtIn bool `mapstructure:"bought_in" yaml:"bought_in"`
}

// Retry configures page loading.
type Retry struct {
	Attempts uint `mapstructure:"attempts" yaml:"attempts"`
}

// Quality configures the poorly-scanned page check.
type Quality struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	Threshold   float64 `mapstructure:"threshold" yaml:"threshold"`
	MaxOutliers int     `mapstructure:"max_outliers" yaml:"max_outliers"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Input:        ".",
		Output:       "output",
		Formats:      []string{string(export.FormatCSV)},
		ReadingOrder: pagexml.InterleavedRows{}.Name(),
		Corrections:  Corrections{BoughtIn: true},
		Retry:        Retry{Attempts: discovery.DefaultAttempts},
		Quality: Quality{
			Enabled:     false,
			Threshold:   quality.DefaultThreshold,
			MaxOutliers: quality.DefaultMaxOutliers,
		},
		LogLevel:    "info",
		Concurrency: 1,
	}
}

// flagKeys maps config keys to the flag names that may override them.
var flagKeys = map[string]string{
	"input":                 "input",
	"output":                "output",
	"volume":                "volume",
	"formats":               "format",
	"reading_order":         "reading-order",
	"corrections.bought_in": "bought-in",
	"retry.attempts":        "retries",
	"quality.enabled":       "quality",
	"quality.threshold":     "quality-threshold",
	"quality.max_outliers":  "quality-max-outliers",
	"log_level":             "log-level",
	"concurrency":           "concurrency",
}

// Load builds the configuration. cfgFile may be empty, in which case
// incunabula.yaml is looked up in the working directory and in
// $HOME/.incunabula; a missing file is not an error. Flags that were set on
// the command line take precedence over everything else.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("input", d.Input)
	v.SetDefault("output", d.Output)
	v.SetDefault("volume", d.Volume)
	v.SetDefault("formats", d.Formats)
	v.SetDefault("reading_order", d.ReadingOrder)
	v.SetDefault("corrections.bought_in", d.Corrections.BoughtIn)
	v.SetDefault("retry.attempts", d.Retry.Attempts)
	v.SetDefault("quality.enabled", d.Quality.Enabled)
	v.SetDefault("quality.threshold", d.Quality.Threshold)
	v.SetDefault("quality.max_outliers", d.Quality.MaxOutliers)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("concurrency", d.Concurrency)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("incunabula")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.incunabula")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		slog.Debug("Loaded config file", "path", v.ConfigFileUsed())
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := pagexml.ReadingOrderByName(c.ReadingOrder); err != nil {
		return err
	}
	if _, err := export.ParseFormats(c.Formats); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Quality.MaxOutliers < 0 {
		return fmt.Errorf("quality.max_outliers must not be negative, got %d", c.Quality.MaxOutliers)
	}
	return nil
}

// QualityOptions converts the quality section.
func (c *Config) QualityOptions() quality.Options {
	return quality.Options{Threshold: c.Quality.Threshold, MaxOutliers: c.Quality.MaxOutliers}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# incunabula configuration
# Every key can be overridden with an INCUNABULA_ environment variable,
# e.g. INCUNABULA_RETRY_ATTEMPTS=5 or INCUNABULA_FORMATS=csv,parquet

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
