//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for salemart.
// Configuration is loaded from config files and CLI flags; CLI flags take
// precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for salemart.
type Config struct {
	// Connection is the PostgreSQL connection string for the warehouse.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`

	// Report holds configuration for the report subcommand.
	Report ReportConfig `mapstructure:"report"`
}

// LoadConfig holds configuration for batch loads of raw transaction files.
type LoadConfig struct {
	// Path is the delimited input file to load.
	Path string `mapstructure:"path"`

	// Delimiter is the field separator in the input file.
	Delimiter string `mapstructure:"delimiter"`

	// DateFormat is the Go reference layout for transaction dates.
	DateFormat string `mapstructure:"date_format"`

	// Tolerance is the maximum absolute difference allowed when
	// reconciling monetary balance invariants.
	Tolerance float64 `mapstructure:"tolerance"`

	// MaxErrorRate aborts the batch when rejected/total exceeds it.
	MaxErrorRate float64 `mapstructure:"max_error_rate"`

	// DryRun validates and reports without writing to the warehouse.
	DryRun bool `mapstructure:"dry_run"`
}

// SeedConfig holds configuration for synthetic data generation.
type SeedConfig struct {
	// Buyers is the number of distinct buyers to generate.
	Buyers int `mapstructure:"buyers"`

	// Items is the number of distinct items to generate.
	Items int `mapstructure:"items"`

	// Days is the length of the generated trading window in days.
	Days int `mapstructure:"days"`

	// RefundRate is the fraction of purchase lines later refunded.
	RefundRate float64 `mapstructure:"refund_rate"`

	// Seed fixes the random seed for reproducible output (0 = random).
	Seed uint64 `mapstructure:"seed"`
}

// ReportConfig holds configuration for metric reporting.
type ReportConfig struct {
	// Set selects the metric set to compute
	// (daily-sales, clv, churn, cohort, returns, ranking).
	Set string `mapstructure:"set"`

	// AsOf overrides the as-of date (YYYY-MM-DD). Empty means the
	// maximum date present across fact rows.
	AsOf string `mapstructure:"as_of"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Load: LoadConfig{
			Delimiter:    ",",
			DateFormat:   "2006-01-02",
			Tolerance:    0.02,
			MaxErrorRate: 1.0,
		},
		Seed: SeedConfig{
			Buyers:     50,
			Items:      20,
			Days:       90,
			RefundRate: 0.1,
		},
		Report: ReportConfig{
			Set: "daily-sales",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./salemart.yaml
// 3. ~/.config/salemart/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("salemart")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "salemart"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Load.Path == "" {
		return fmt.Errorf("input file path is required for load")
	}
	if len(c.Load.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character")
	}
	if c.Load.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative")
	}
	if c.Load.MaxErrorRate < 0 || c.Load.MaxErrorRate > 1 {
		return fmt.Errorf("max_error_rate must be between 0 and 1")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Seed.Buyers < 1 {
		return fmt.Errorf("buyers must be at least 1")
	}
	if c.Seed.Items < 1 {
		return fmt.Errorf("items must be at least 1")
	}
	if c.Seed.Days < 1 {
		return fmt.Errorf("days must be at least 1")
	}
	if c.Seed.RefundRate < 0 || c.Seed.RefundRate > 1 {
		return fmt.Errorf("refund_rate must be between 0 and 1")
	}
	return nil
}

// ValidateReport checks configuration required for the report command.
func (c *Config) ValidateReport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.Report.Set {
	case "daily-sales", "clv", "churn", "cohort", "returns", "ranking":
		return nil
	default:
		return fmt.Errorf("unknown report set: %s", c.Report.Set)
	}
}
