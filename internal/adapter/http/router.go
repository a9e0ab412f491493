package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/reconledger/internal/adapter/http/handler"
	"github.com/iho/reconledger/internal/adapter/http/middleware"
	"github.com/iho/reconledger/internal/infrastructure/metrics"
	"github.com/iho/reconledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ReconciliationHandler *handler.ReconciliationHandler
	LedgerHandler         *handler.LedgerHandler
	InstrumentHandler     *handler.InstrumentHandler
	PatrimonyHandler      *handler.PatrimonyHandler
	HealthHandler         *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         zerolog.Logger

	// ForceHTTPS redirects plain HTTP requests.
	ForceHTTPS bool

	// RunRateLimit caps reconciliation submissions per client IP and
	// RunRateWindow. Zero disables the limit.
	RunRateLimit  int
	RunRateWindow time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.SecureHeaders(cfg.ForceHTTPS))
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		// Reconciliation runs
		r.Route("/reconciliations", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.RunRateLimit > 0 {
					r.Use(middleware.RateLimit(cfg.RunRateLimit, cfg.RunRateWindow))
				}
				r.Post("/", cfg.ReconciliationHandler.Create)
				r.Post("/document", cfg.ReconciliationHandler.CreateFromDocument)
			})
			r.Get("/{id}", cfg.ReconciliationHandler.Get)
		})

		// Match decisions
		r.Route("/matches/{id}", func(r chi.Router) {
			r.Post("/confirm", cfg.ReconciliationHandler.Confirm)
			r.Post("/reject", cfg.ReconciliationHandler.Reject)
		})

		// Instruments
		r.Route("/instruments", func(r chi.Router) {
			r.Post("/", cfg.InstrumentHandler.Create)
			r.Get("/{id}", cfg.InstrumentHandler.Get)
			r.Get("/{id}/reconciliations", cfg.ReconciliationHandler.ListByInstrument)
		})

		// Ledger
		r.Route("/ledger", func(r chi.Router) {
			r.Post("/transactions", cfg.LedgerHandler.Create)
			r.Get("/transactions", cfg.LedgerHandler.List)
			r.Get("/transactions/{id}", cfg.LedgerHandler.Get)
			r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
		})

		// Owners
		r.Route("/owners/{owner}", func(r chi.Router) {
			r.Get("/instruments", cfg.InstrumentHandler.ListByOwner)
			r.Post("/snapshots", cfg.PatrimonyHandler.Create)
			r.Get("/snapshots", cfg.PatrimonyHandler.List)
			r.Get("/snapshots/latest", cfg.PatrimonyHandler.Latest)
		})
	})

	return r
}
