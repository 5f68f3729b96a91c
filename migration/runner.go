package migration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/beesaferoot/rentledger/internal/metrics"
	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

// StateStore persists UserMigration rows. *ledger.Store implements it.
type StateStore interface {
	GetMigrationState(ctx context.Context, userID uint, key string) (*models.UserMigration, error)
	UpsertMigrationState(ctx context.Context, state *models.UserMigration) error
}

// DefaultStaleAfter is how long a running state is trusted before a new
// check may take the migration over.
const DefaultStaleAfter = 30 * time.Minute

// Outcomes recorded per check.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeNotNeeded = "not_needed"
	OutcomeSkipped   = "skipped"
)

// RunResult is what a check or manual run did. Report is nil when nothing ran.
type RunResult struct {
	Key       string                 `json:"key"`
	Status    models.MigrationStatus `json:"status"`
	Ran       bool                   `json:"ran"`
	LastError string                 `json:"last_error,omitempty"`
	Report    *Report                `json:"report,omitempty"`
}

// Runner drives the per-user state machine:
//
//	absent/pending -> completed            nothing to migrate
//	absent/pending -> running -> completed every tenant clean
//	absent/pending -> running -> failed    any tenant error
//
// failed is sticky; only RunManual applies the migration again.
type Runner struct {
	store      StateStore
	migrations []*Migration
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	staleAfter time.Duration
}

type Option func(*Runner)

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithStaleAfter sets how old a running state must be before it is retried.
// Zero or negative never retries.
func WithStaleAfter(d time.Duration) Option {
	return func(r *Runner) { r.staleAfter = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) { r.log = log.Named("migration.runner") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a runner over the registered migrations.
func NewRunner(store StateStore, opts ...Option) *Runner {
	r := &Runner{
		store:      store,
		migrations: GetRegisteredMigrations(),
		log:        zap.NewNop(),
		now:        time.Now,
		staleAfter: DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a migration to this runner only.
func (r *Runner) Register(migration *Migration) {
	r.migrations = append(r.migrations, migration)
}

func (r *Runner) Migrations() []*Migration {
	out := make([]*Migration, len(r.migrations))
	copy(out, r.migrations)
	return out
}

func (r *Runner) lookup(key string) (*Migration, error) {
	for _, m := range r.migrations {
		if m.Key == key {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", key, ErrUnknownMigration)
}

// State returns the stored state, or a pending state if none exists.
func (r *Runner) State(ctx context.Context, userID uint, key string) (*models.UserMigration, error) {
	if userID == 0 {
		return nil, ErrNotAuthenticated
	}
	if _, err := r.lookup(key); err != nil {
		return nil, err
	}
	state, err := r.store.GetMigrationState(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return &models.UserMigration{UserID: userID, MigrationKey: key, Status: StatusPending}, nil
	}
	return state, nil
}

// CheckAndRun advances the user's state for the migration. Completed and
// failed states are returned unchanged, as is a running state younger than
// the stale threshold.
func (r *Runner) CheckAndRun(ctx context.Context, userID uint, key string, asOf period.Month) (*RunResult, error) {
	if userID == 0 {
		return nil, ErrNotAuthenticated
	}
	m, err := r.lookup(key)
	if err != nil {
		return nil, err
	}
	log := r.log.With(zap.Uint("user_id", userID), zap.String("key", key))

	state, err := r.store.GetMigrationState(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	if state != nil {
		switch state.Status {
		case StatusCompleted, StatusFailed:
			return &RunResult{Key: key, Status: state.Status, LastError: state.LastError}, nil
		case StatusRunning:
			if !r.stale(state) {
				r.metrics.RecordMigrationRun(key, OutcomeSkipped)
				return &RunResult{Key: key, Status: StatusRunning}, nil
			}
			log.Warn("retrying stale migration", zap.Timep("started_at", state.StartedAt))
		}
	}

	needed, err := m.Needed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check migration %s: %w", key, err)
	}
	if !needed {
		now := r.now()
		if err := r.save(ctx, userID, key, StatusCompleted, nil, &now, ""); err != nil {
			return nil, err
		}
		r.metrics.RecordMigrationRun(key, OutcomeNotNeeded)
		log.Info("migration not needed")
		return &RunResult{Key: key, Status: StatusCompleted}, nil
	}

	started := r.now()
	if err := r.save(ctx, userID, key, StatusRunning, &started, nil, ""); err != nil {
		return nil, err
	}

	report, err := m.Apply(ctx, userID, asOf)
	if err != nil {
		if saveErr := r.save(ctx, userID, key, StatusFailed, &started, nil, err.Error()); saveErr != nil {
			log.Error("failed to record migration failure", zap.Error(saveErr))
		}
		r.metrics.RecordMigrationRun(key, OutcomeFailed)
		return nil, fmt.Errorf("migration %s: %w", key, err)
	}

	if !report.OK() {
		summary := report.Summary()
		if err := r.save(ctx, userID, key, StatusFailed, &started, nil, summary); err != nil {
			return nil, err
		}
		r.metrics.RecordMigrationRun(key, OutcomeFailed)
		log.Warn("migration failed", zap.String("last_error", summary))
		return &RunResult{Key: key, Status: StatusFailed, Ran: true, LastError: summary, Report: report}, nil
	}

	completed := r.now()
	if err := r.save(ctx, userID, key, StatusCompleted, &started, &completed, ""); err != nil {
		return nil, err
	}
	r.metrics.RecordMigrationRun(key, OutcomeCompleted)
	log.Info("migration completed", zap.Duration("took", completed.Sub(started)))
	return &RunResult{Key: key, Status: StatusCompleted, Ran: true, Report: report}, nil
}

// Up runs CheckAndRun for every migration in registration order and stops at
// the first error.
func (r *Runner) Up(ctx context.Context, userID uint, asOf period.Month) ([]RunResult, error) {
	results := make([]RunResult, 0, len(r.migrations))
	for _, m := range r.migrations {
		res, err := r.CheckAndRun(ctx, userID, m.Key, asOf)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// RunManual applies the migration regardless of its state. A clean run marks
// it completed; otherwise the stored state is left as it was and the caller
// gets the per-tenant errors.
func (r *Runner) RunManual(ctx context.Context, userID uint, key string, asOf period.Month) (*RunResult, error) {
	if userID == 0 {
		return nil, ErrNotAuthenticated
	}
	m, err := r.lookup(key)
	if err != nil {
		return nil, err
	}

	started := r.now()
	report, err := m.Apply(ctx, userID, asOf)
	if err != nil {
		return nil, fmt.Errorf("migration %s: %w", key, err)
	}

	if report.OK() {
		completed := r.now()
		if err := r.save(ctx, userID, key, StatusCompleted, &started, &completed, ""); err != nil {
			return nil, err
		}
		r.metrics.RecordMigrationRun(key, OutcomeCompleted)
		return &RunResult{Key: key, Status: StatusCompleted, Ran: true, Report: report}, nil
	}

	state, err := r.State(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	r.metrics.RecordMigrationRun(key, OutcomeFailed)
	return &RunResult{Key: key, Status: state.Status, Ran: true, LastError: report.Summary(), Report: report}, nil
}

func (r *Runner) stale(state *models.UserMigration) bool {
	if r.staleAfter <= 0 {
		return false
	}
	if state.StartedAt == nil {
		return true
	}
	return r.now().Sub(*state.StartedAt) > r.staleAfter
}

func (r *Runner) save(ctx context.Context, userID uint, key string, status models.MigrationStatus, started, completed *time.Time, lastError string) error {
	return r.store.UpsertMigrationState(ctx, &models.UserMigration{
		UserID:       userID,
		MigrationKey: key,
		Status:       status,
		StartedAt:    started,
		CompletedAt:  completed,
		LastError:    lastError,
		UpdatedAt:    r.now(),
	})
}
