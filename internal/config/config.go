// Package config reads service settings from the environment. main loads
// .env into the environment first.
package config

import (
	"fmt"
	"time"
)

type Config struct {
	DatabaseURL string
	DBDriver    string
	Addr        string
	LogLevel    string
	Env         string

	// BalanceSource selects how balances are computed: "formula" or "ledger".
	BalanceSource string

	// MigrationStaleAfter is how long a running migration is trusted before
	// another check may retry it.
	MigrationStaleAfter time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         GetString("DATABASE_URL", ""),
		DBDriver:            GetString("DB_DRIVER", "postgres"),
		Addr:                GetString("ADDR", ":8080"),
		LogLevel:            GetString("LOG_LEVEL", "info"),
		Env:                 GetString("APP_ENV", "production"),
		BalanceSource:       GetString("BALANCE_SOURCE", "formula"),
		MigrationStaleAfter: GetDuration("MIGRATION_STALE_AFTER", 30*time.Minute),
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	switch cfg.BalanceSource {
	case "formula", "ledger":
	default:
		return nil, fmt.Errorf("BALANCE_SOURCE must be formula or ledger, got %q", cfg.BalanceSource)
	}
	return cfg, nil
}

func (c *Config) Development() bool {
	return c.Env == "development"
}
