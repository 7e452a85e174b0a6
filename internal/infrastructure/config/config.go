// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Built-in defaults
//
// The engine tolerances, vendor tables and keyword lists are all data here,
// so a deployment can swap per-market vendor lists without code changes.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/recurring-features/internal/domain/amount"
	"github.com/eshaffer321/recurring-features/internal/domain/dateparse"
	"github.com/eshaffer321/recurring-features/internal/domain/features"
	"github.com/eshaffer321/recurring-features/internal/domain/interval"
	"github.com/eshaffer321/recurring-features/internal/domain/vendor"
)

// Config represents the entire application configuration.
type Config struct {
	Engine        EngineConfig        `yaml:"engine"`
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// EngineConfig holds the feature engine's tunable data tables. Zero values
// mean "use the engine default", so a minimal yaml file stays minimal.
type EngineConfig struct {
	DateMode             string            `yaml:"date_mode"` // "strict" or "lenient"
	IncludeFuture        *bool             `yaml:"include_future"`
	AmountTolerance      string            `yaml:"amount_tolerance"`
	FuzzyThreshold       int               `yaml:"fuzzy_threshold"`
	MinOccurrences       int               `yaml:"min_occurrences"`
	StrictStreak         bool              `yaml:"strict_streak"`
	Aliases              []AliasConfig     `yaml:"aliases"`
	AlwaysRecurring      []string          `yaml:"always_recurring"`
	RecurringKeywords    []string          `yaml:"recurring_keywords"`
	CommonPrices         []string          `yaml:"common_prices"`
	Buckets              []BucketConfig    `yaml:"buckets"`
	DayWindows           []DayWindowConfig `yaml:"day_windows"`
	DayOfMonthTolerances []int             `yaml:"day_of_month_tolerances"`
}

// AliasConfig maps a raw name pattern to its canonical vendor key.
type AliasConfig struct {
	Pattern   string `yaml:"pattern"`
	Canonical string `yaml:"canonical"`
}

// DayWindowConfig is an "N days apart" feature window.
type DayWindowConfig struct {
	Days      int `yaml:"days"`
	Tolerance int `yaml:"tolerance"`
}

// BucketConfig is a billing-cycle window.
type BucketConfig struct {
	Name      string `yaml:"name"`
	Center    int    `yaml:"center"`
	Tolerance int    `yaml:"tolerance"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DatabasePath: "recurring_features.db",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// Load reads and parses the config file. Environment variables in the file
// (e.g. ${DB_PATH}) are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault tries the given path and falls back to defaults when the
// file cannot be read.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// EngineConfig builds the feature engine configuration, overlaying whatever
// the yaml file set on top of the engine defaults.
func (c *Config) EngineConfig() (features.Config, error) {
	cfg := features.DefaultConfig()
	e := c.Engine

	switch e.DateMode {
	case "", "lenient":
		cfg.DateMode = dateparse.Lenient
	case "strict":
		cfg.DateMode = dateparse.Strict
	default:
		return features.Config{}, fmt.Errorf("unknown date_mode %q", e.DateMode)
	}

	if e.IncludeFuture != nil {
		cfg.IncludeFuture = *e.IncludeFuture
	}
	if e.AmountTolerance != "" {
		tol, err := decimal.NewFromString(e.AmountTolerance)
		if err != nil {
			return features.Config{}, fmt.Errorf("invalid amount_tolerance: %w", err)
		}
		cfg.AmountTolerance = tol
	}
	if e.FuzzyThreshold > 0 {
		cfg.Vendor.FuzzyThreshold = e.FuzzyThreshold
	}
	if e.MinOccurrences > 0 {
		cfg.Scorer.MinOccurrences = e.MinOccurrences
	}
	cfg.Scorer.StrictStreak = e.StrictStreak

	if len(e.Aliases) > 0 {
		aliases := make([]vendor.Alias, len(e.Aliases))
		for i, a := range e.Aliases {
			aliases[i] = vendor.Alias{Pattern: a.Pattern, Canonical: a.Canonical}
		}
		cfg.Vendor.Aliases = aliases
	}
	if len(e.AlwaysRecurring) > 0 {
		cfg.Vendor.AlwaysRecurring = e.AlwaysRecurring
	}
	if len(e.RecurringKeywords) > 0 {
		cfg.Vendor.Keywords = e.RecurringKeywords
	}
	if len(e.CommonPrices) > 0 {
		prices := make([]decimal.Decimal, len(e.CommonPrices))
		for i, p := range e.CommonPrices {
			d, err := decimal.NewFromString(p)
			if err != nil {
				return features.Config{}, fmt.Errorf("invalid common price %q: %w", p, err)
			}
			prices[i] = d
		}
		cfg.Amount = amount.Config{CommonPrices: prices}
	}
	if len(e.Buckets) > 0 {
		buckets := make([]interval.Bucket, len(e.Buckets))
		for i, b := range e.Buckets {
			buckets[i] = interval.Bucket{Name: b.Name, Center: b.Center, Tolerance: b.Tolerance}
		}
		cfg.Buckets = buckets
	}
	if len(e.DayWindows) > 0 {
		windows := make([]features.DayWindow, len(e.DayWindows))
		for i, w := range e.DayWindows {
			windows[i] = features.DayWindow{Days: w.Days, Tolerance: w.Tolerance}
		}
		cfg.DayWindows = windows
	}
	if len(e.DayOfMonthTolerances) > 0 {
		cfg.DayOfMonthTolerances = e.DayOfMonthTolerances
	}

	return cfg, nil
}
