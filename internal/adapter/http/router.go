package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler      *handler.AccountHandler
	TransferHandler     *handler.TransferHandler
	ReportHandler       *handler.ReportHandler
	AdminHandler        *handler.AdminHandler
	AuthHandler         *handler.AuthHandler
	NotificationHandler *handler.NotificationHandler
	LinkHandler         *handler.LinkHandler
	HealthHandler       *handler.HealthHandler

	TokenVerifier    middleware.TokenVerifier
	AdminAuthorizer  usecase.AdminAuthorizer
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsGatherer  prometheus.Gatherer
	Logger           zerolog.Logger
	RequestTimeout   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}

		r.Post("/auth/register", cfg.AuthHandler.Register)
		r.Post("/auth/login", cfg.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(cfg.TokenVerifier))

			// Idempotency keys are scoped per user, so this runs after auth.
			if cfg.IdempotencyStore != nil {
				r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
			}

			r.Get("/me", cfg.AuthHandler.Me)

			// Accounts
			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", cfg.AccountHandler.Open)
				r.Get("/", cfg.AccountHandler.List)
				r.Get("/{id}", cfg.AccountHandler.Get)
				r.Post("/{id}/deposits", cfg.AccountHandler.Deposit)
				r.Post("/{id}/withdrawals", cfg.AccountHandler.Withdraw)
				r.Get("/{id}/statement.csv", cfg.AccountHandler.Statement)
			})

			// Transfers
			r.Post("/transfers", cfg.TransferHandler.Create)
			r.Post("/transfers/external", cfg.TransferHandler.External)

			// History
			r.Get("/transactions", cfg.ReportHandler.Search)
			r.Get("/transactions/{id}", cfg.ReportHandler.Get)
			r.Get("/dashboard", cfg.ReportHandler.Dashboard)

			r.Get("/notifications", cfg.NotificationHandler.List)
			r.Post("/notifications/{id}/read", cfg.NotificationHandler.MarkRead)

			r.Get("/links", cfg.LinkHandler.List)
			r.Post("/links/token", cfg.LinkHandler.CreateToken)
			r.Post("/links/exchange", cfg.LinkHandler.Exchange)

			// Admin
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(cfg.AdminAuthorizer))

				r.Get("/accounts", cfg.AdminHandler.ListAccounts)
				r.Patch("/accounts/{id}/status", cfg.AdminHandler.SetStatus)
				r.Post("/accounts/{id}/credit", cfg.AdminHandler.Credit)
				r.Post("/accounts/{id}/debit", cfg.AdminHandler.Debit)
				r.Patch("/transactions/{id}", cfg.AdminHandler.UpdateTransaction)
				r.Delete("/transactions/{id}", cfg.AdminHandler.DeleteTransaction)
				r.Get("/ledger/consistency", cfg.AdminHandler.Consistency)
				r.Get("/reconciliation", cfg.AdminHandler.Reconciliation)
				r.Get("/audit-logs", cfg.AdminHandler.AuditLogs)
			})
		})
	})

	return r
}
