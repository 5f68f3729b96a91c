package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/rentledger/balance"
	"github.com/beesaferoot/rentledger/internal/config"
	"github.com/beesaferoot/rentledger/internal/logging"
	"github.com/beesaferoot/rentledger/internal/metrics"
	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/migration"
	"github.com/beesaferoot/rentledger/period"
	"github.com/beesaferoot/rentledger/report"
)

func getDB(cfg *config.Config) (*gorm.DB, error) {
	return ledger.Open(cfg.DBDriver, cfg.DatabaseURL)
}

// app is the wiring shared by every command.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	store    *ledger.Store
	metrics  *metrics.Metrics
	engine   *migration.Engine
	runner   *migration.Runner
	balances balance.Source
	reports  *report.Builder
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Env)
	if err != nil {
		return nil, err
	}

	db, err := getDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store := ledger.NewStore(db)

	a := &app{cfg: cfg, log: log, db: db, store: store}
	source := cfg.BalanceSource
	if cmd.Flags().Lookup("source") != nil {
		if s, _ := cmd.Flags().GetString("source"); s != "" {
			source = s
		}
	}
	balances, err := balance.NewSource(source, store)
	if err != nil {
		a.close()
		return nil, err
	}

	m := metrics.New()
	engine := migration.NewEngine(store, log, m)
	migration.RegisterMigration(engine.Migration())
	runner := migration.NewRunner(store,
		migration.WithLogger(log),
		migration.WithMetrics(m),
		migration.WithStaleAfter(cfg.MigrationStaleAfter),
	)

	a.metrics = m
	a.engine = engine
	a.runner = runner
	a.balances = balances
	a.reports = report.NewBuilder(store, balances, log)
	return a, nil
}

// close flushes the logger and releases the database connections.
func (a *app) close() {
	_ = a.log.Sync()
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Warn("failed to close database", zap.Error(err))
		}
	}
}

// monthFlag reads a YYYY-MM flag, defaulting to the current month.
func monthFlag(cmd *cobra.Command, name string) (period.Month, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return period.Of(time.Now().UTC()), nil
	}
	m, err := period.Parse(raw)
	if err != nil {
		return period.Month{}, fmt.Errorf("--%s: %w", name, err)
	}
	return m, nil
}

func userFlag(cmd *cobra.Command) (uint, error) {
	id, _ := cmd.Flags().GetUint("user")
	if id == 0 {
		return 0, migration.ErrNotAuthenticated
	}
	return id, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
