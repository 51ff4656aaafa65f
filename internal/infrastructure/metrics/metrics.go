package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	LedgerOperations *prometheus.CounterVec
	LedgerAmount     *prometheus.HistogramVec
	LedgerErrors     *prometheus.CounterVec
	LedgerDuration   *prometheus.HistogramVec

	// Account metrics
	AccountsOpened          prometheus.Counter
	AccountNumberCollisions prometheus.Counter

	// Admin metrics
	AdminAdjustments *prometheus.CounterVec

	// Consistency metrics
	BalanceMismatches prometheus.Gauge
	BrokenTransfers   prometheus.Gauge

	// Notification metrics
	NotificationsSent     *prometheus.CounterVec
	NotificationsFailures *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		LedgerOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_ledger_operations_total",
				Help: "Committed ledger operations by kind",
			},
			[]string{"operation"},
		),
		LedgerAmount: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobank_ledger_amount_minor_units",
				Help:    "Amounts moved by ledger operations, in minor units",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"operation"},
		),
		LedgerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_ledger_errors_total",
				Help: "Rejected or failed ledger operations by kind and reason",
			},
			[]string{"operation", "reason"},
		),
		LedgerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobank_ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations including commit",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		AccountsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),
		AccountNumberCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_account_number_collisions_total",
			Help: "Generated account numbers rejected because they were already assigned",
		}),

		AdminAdjustments: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_admin_adjustments_total",
				Help: "Administrative ledger adjustments by action",
			},
			[]string{"action"},
		),

		BalanceMismatches: f.NewGauge(prometheus.GaugeOpts{
			Name: "gobank_balance_mismatches",
			Help: "Accounts whose balance differs from the sum of their entries at the last check",
		}),
		BrokenTransfers: f.NewGauge(prometheus.GaugeOpts{
			Name: "gobank_broken_transfers",
			Help: "Transfer correlation ids that did not form a valid pair at the last check",
		}),

		NotificationsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_notifications_sent_total",
				Help: "Notifications delivered by kind",
			},
			[]string{"kind"},
		),
		NotificationsFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_notification_failures_total",
				Help: "Notifications that could not be delivered by kind",
			},
			[]string{"kind"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobank_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		AuthAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_auth_attempts_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),

		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
	}
}

// ObserveOperation records a committed ledger operation.
func (m *Metrics) ObserveOperation(operation string, amount int64, seconds float64) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation).Inc()
	m.LedgerAmount.WithLabelValues(operation).Observe(float64(amount))
	m.LedgerDuration.WithLabelValues(operation).Observe(seconds)
}

// ObserveError records a rejected or failed ledger operation.
func (m *Metrics) ObserveError(operation, reason string) {
	if m == nil {
		return
	}
	m.LedgerErrors.WithLabelValues(operation, reason).Inc()
}
