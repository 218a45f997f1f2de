package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	for _, v := range []string{"PORT", "STORAGE_DRIVER", "CSV_PATH", "PROFIT_TARGET", "BACKUP_CRON", "BACKUP_KEEP"} {
		t.Setenv(v, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "csv" {
		t.Errorf("expected default driver csv, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.CSVPath != "data/coupons.csv" {
		t.Errorf("expected default csv path, got %q", cfg.Storage.CSVPath)
	}
	if cfg.Profit.Target != "100" {
		t.Errorf("expected default profit target 100, got %q", cfg.Profit.Target)
	}
	if cfg.Backup.Cron != "0 0 3 * * *" {
		t.Errorf("expected default backup cron, got %q", cfg.Backup.Cron)
	}
	if cfg.Backup.Keep != 10 {
		t.Errorf("expected default backup keep 10, got %d", cfg.Backup.Keep)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9000"
storage:
  driver: sqlite
  sqlite_path: /tmp/ledger.db
profit:
  target: "250.50"
backup:
  cron: "0 30 2 * * *"
  keep: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.SQLitePath != "/tmp/ledger.db" {
		t.Errorf("storage not parsed: %+v", cfg.Storage)
	}
	if cfg.Backup.Keep != 5 {
		t.Errorf("expected keep 5, got %d", cfg.Backup.Keep)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
	if !cfg.ProfitTarget().Equal(decimal.NewFromFloat(250.5)) {
		t.Errorf("expected profit target 250.50, got %s", cfg.ProfitTarget())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PROFIT_TARGET", "75")
	t.Setenv("BACKUP_KEEP", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090 from PORT, got %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected driver memory, got %q", cfg.Storage.Driver)
	}
	if cfg.Profit.Target != "75" {
		t.Errorf("expected target 75, got %q", cfg.Profit.Target)
	}
	if cfg.Backup.Keep != 3 {
		t.Errorf("expected keep 3, got %d", cfg.Backup.Keep)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7777")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("environment must win over the file: got %q", cfg.Server.Addr)
	}
}

func TestValidate_Failures(t *testing.T) {
	base := func() *Config {
		cfg, _ := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "etcd" }},
		{"postgres without url", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"garbage target", func(c *Config) { c.Profit.Target = "plenty" }},
		{"zero target", func(c *Config) { c.Profit.Target = "0" }},
		{"negative target", func(c *Config) { c.Profit.Target = "-5" }},
		{"garbage migration deposit", func(c *Config) { c.Storage.MigrationDeposit = "x" }},
		{"negative migration deposit", func(c *Config) { c.Storage.MigrationDeposit = "-1" }},
		{"negative keep", func(c *Config) { c.Backup.Keep = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMigrationDeposit(t *testing.T) {
	cfg, _ := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	if !cfg.MigrationDeposit().IsZero() {
		t.Errorf("expected zero when unset, got %s", cfg.MigrationDeposit())
	}

	cfg.Storage.MigrationDeposit = "500.005"
	if !cfg.MigrationDeposit().Equal(decimal.NewFromFloat(500.01)) {
		t.Errorf("expected 500.01 after rounding, got %s", cfg.MigrationDeposit())
	}
}
