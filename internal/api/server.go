// Package api exposes balances, payments, migrations and reports over HTTP.
// The caller's identity comes from the X-User-ID header set by the gateway.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/beesaferoot/rentledger/balance"
	"github.com/beesaferoot/rentledger/internal/metrics"
	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/migration"
	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
	"github.com/beesaferoot/rentledger/report"
)

// Store is the ledger access the handlers need. *ledger.Store implements it.
type Store interface {
	GetTenant(ctx context.Context, id uint) (*models.Tenant, error)
	TenantOwnedBy(ctx context.Context, tenantID, userID uint) (bool, error)
	ListCharges(ctx context.Context, tenantID uint) ([]models.Charge, error)
	RecordPayment(ctx context.Context, in ledger.PaymentInput) (*ledger.AllocationResult, error)
}

type Deps struct {
	Store    Store
	Balances balance.Source
	Runner   *migration.Runner
	Reports  *report.Builder
	Metrics  *metrics.Metrics
	Log      *zap.Logger
	// Now is the clock used for default months. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	store    Store
	balances balance.Source
	runner   *migration.Runner
	reports  *report.Builder
	metrics  *metrics.Metrics
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func New(d Deps) *Server {
	s := &Server{
		store:    d.Store,
		balances: d.Balances,
		runner:   d.Runner,
		reports:  d.Reports,
		metrics:  d.Metrics,
		log:      d.Log,
		validate: newValidator(),
		now:      d.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("api")
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.healthCheckHandler)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Route("/tenants/{id}", func(r chi.Router) {
				r.Get("/balance", s.handleGetBalance)
				r.Get("/charges", s.handleListCharges)
			})
			r.Post("/payments", s.handleRecordPayment)
			r.Route("/migrations", func(r chi.Router) {
				r.Post("/check", s.handleCheckMigrations)
				r.Get("/{key}", s.handleGetMigration)
				r.Post("/{key}/run", s.handleRunMigration)
			})
			r.Get("/reports/monthly", s.handleMonthlyReport)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		WriteTimeout: 120 * time.Second,
		ReadTimeout:  40 * time.Second,
		IdleTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server started", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) currentMonth() period.Month {
	return period.Of(s.now().UTC())
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
