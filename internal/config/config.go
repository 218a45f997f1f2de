// Package config loads the engine configuration from a YAML file with
// environment variable overrides. Monetary settings are decimal strings,
// parsed once at startup — config is the only place money enters as text.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Storage struct {
		Driver           string `yaml:"driver"` // csv, sqlite, postgres, memory
		CSVPath          string `yaml:"csv_path"`
		SQLitePath       string `yaml:"sqlite_path"`
		DatabaseURL      string `yaml:"database_url"`
		RedisURL         string `yaml:"redis_url"`
		MigrationDeposit string `yaml:"migration_deposit"` // credited to row 1 when migrating a legacy CSV
	} `yaml:"storage"`
	Profit struct {
		Target string `yaml:"target"` // decimal string, e.g. "100.00"
	} `yaml:"profit"`
	Backup struct {
		Cron string `yaml:"cron"` // six-field cron spec (with seconds)
		Keep int    `yaml:"keep"` // timestamped backups retained after pruning
	} `yaml:"backup"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error — overrides and defaults
// alone are enough to run.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("CSV_PATH"); v != "" {
		cfg.Storage.CSVPath = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Storage.RedisURL = v
	}
	if v := os.Getenv("PROFIT_TARGET"); v != "" {
		cfg.Profit.Target = v
	}
	if v := os.Getenv("BACKUP_CRON"); v != "" {
		cfg.Backup.Cron = v
	}
	if v := os.Getenv("BACKUP_KEEP"); v != "" {
		if keep, err := strconv.Atoi(v); err == nil {
			cfg.Backup.Keep = keep
		}
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "csv"
	}
	if cfg.Storage.CSVPath == "" {
		cfg.Storage.CSVPath = "data/coupons.csv"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/coupons.db"
	}
	if cfg.Profit.Target == "" {
		cfg.Profit.Target = "100"
	}
	if cfg.Backup.Cron == "" {
		cfg.Backup.Cron = "0 0 3 * * *" // daily at 03:00
	}
	if cfg.Backup.Keep == 0 {
		cfg.Backup.Keep = 10
	}

	return cfg, nil
}

// Validate checks that all required fields are set and parseable.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "csv", "sqlite", "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be one of csv, sqlite, postgres, memory")
	}

	target, err := decimal.NewFromString(c.Profit.Target)
	if err != nil {
		return fmt.Errorf("profit.target is not a valid decimal: %q", c.Profit.Target)
	}
	if !target.IsPositive() {
		return fmt.Errorf("profit.target must be positive")
	}

	if c.Storage.MigrationDeposit != "" {
		dep, err := decimal.NewFromString(c.Storage.MigrationDeposit)
		if err != nil {
			return fmt.Errorf("storage.migration_deposit is not a valid decimal: %q", c.Storage.MigrationDeposit)
		}
		if dep.IsNegative() {
			return fmt.Errorf("storage.migration_deposit cannot be negative")
		}
	}

	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep cannot be negative")
	}
	return nil
}

// ProfitTarget returns the configured profit target. Call Validate first.
func (c *Config) ProfitTarget() decimal.Decimal {
	d, _ := decimal.NewFromString(c.Profit.Target)
	return d.Round(2)
}

// MigrationDeposit returns the capital credited to the first row when a
// legacy CSV is migrated; zero when unset.
func (c *Config) MigrationDeposit() decimal.Decimal {
	if c.Storage.MigrationDeposit == "" {
		return decimal.Zero
	}
	d, _ := decimal.NewFromString(c.Storage.MigrationDeposit)
	return d.Round(2)
}
