package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/finstate/internal/ledger"
	"github.com/cleared-dev/finstate/internal/lock"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/pacing"
)

// FileName is the config file at the root of a project directory.
const FileName = "finstate.yaml"

// Environment variables that override the file.
const (
	EnvDBPath   = "FINSTATE_DB_PATH"
	EnvLogLevel = "FINSTATE_LOG_LEVEL"
)

// Config represents the top-level finstate.yaml configuration.
type Config struct {
	Owner    OwnerConfig    `yaml:"owner"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Pacing   PacingConfig   `yaml:"pacing"`
	Ledger   LedgerConfig   `yaml:"ledger"`
}

// OwnerConfig identifies whose books these are.
type OwnerConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email,omitempty"` // git commit author
	BaseCurrency string `yaml:"base_currency"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path        string        `yaml:"path"` // relative paths resolve against the project dir
	BusyTimeout time.Duration `yaml:"busy_timeout,omitempty"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format,omitempty"` // "json" (default) or "text"
}

// PacingConfig sets the tolerance bands, e.g. "0.1" for 10%.
type PacingConfig struct {
	BudgetBand decimal.Decimal `yaml:"budget_band"`
	GoalBand   decimal.Decimal `yaml:"goal_band"`
}

// LedgerConfig tunes balance mutation.
type LedgerConfig struct {
	LockTimeout     time.Duration `yaml:"lock_timeout"`
	ForbidOverdraft bool          `yaml:"forbid_overdraft"`
}

// Load reads a finstate.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadDir reads dir/finstate.yaml, then applies overrides from dir/.env and
// the process environment, in that order of increasing precedence. The
// result is validated.
func LoadDir(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}

	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	}
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		cfg.Database.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}

	if cfg.Database.Path != "" && !filepath.IsAbs(cfg.Database.Path) {
		cfg.Database.Path = filepath.Join(dir, cfg.Database.Path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(ownerName, currency string) *Config {
	tol := pacing.DefaultTolerance()
	return &Config{
		Owner: OwnerConfig{
			ID:           "owner_1",
			Name:         ownerName,
			BaseCurrency: currency,
		},
		Database: DatabaseConfig{
			Path: "finstate.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Pacing: PacingConfig{
			BudgetBand: tol.BudgetBand,
			GoalBand:   tol.GoalBand,
		},
		Ledger: LedgerConfig{
			LockTimeout: lock.DefaultTimeout,
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Owner.ID == "" {
		errs = append(errs, model.Invalid("owner.id", "required"))
	}
	if !money.ValidCurrency(c.Owner.BaseCurrency) {
		errs = append(errs, model.Invalid("owner.base_currency", "unknown currency %q", c.Owner.BaseCurrency))
	}
	if c.Database.Path == "" {
		errs = append(errs, model.Invalid("database.path", "required"))
	}
	if _, ok := logger.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, model.Invalid("log.level", "unknown level %q", c.Log.Level))
	}
	if err := c.Tolerance().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Ledger.LockTimeout <= 0 {
		errs = append(errs, model.Invalid("ledger.lock_timeout", "must be positive"))
	}
	return errors.Join(errs...)
}

// Tolerance returns the pacing bands.
func (c *Config) Tolerance() pacing.Tolerance {
	return pacing.Tolerance{BudgetBand: c.Pacing.BudgetBand, GoalBand: c.Pacing.GoalBand}
}

// LedgerOptions returns the ledger engine options.
func (c *Config) LedgerOptions() ledger.Options {
	return ledger.Options{ForbidOverdraft: c.Ledger.ForbidOverdraft}
}
