package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Reconciliation metrics
	ReconciliationRuns     *prometheus.CounterVec
	ReconciliationDuration prometheus.Histogram
	ReconciliationReplays  prometheus.Counter
	ReconciliationFailures *prometheus.CounterVec
	MatchResults           *prometheus.CounterVec
	MatchResolutions       *prometheus.CounterVec

	// Ledger metrics
	LedgerTransactionsCreated *prometheus.CounterVec
	SnapshotsAppended         *prometheus.CounterVec
	NetWorth                  *prometheus.GaugeVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisDuration   *prometheus.HistogramVec
	RedisErrors     *prometheus.CounterVec

	// Background work metrics
	OutboxPublished *prometheus.CounterVec
	JobsProcessed   *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics and registers them on reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Reconciliation metrics
		ReconciliationRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_reconciliation_runs_total",
				Help: "Total committed reconciliation runs by report status",
			},
			[]string{"status"},
		),
		ReconciliationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconledger_reconciliation_duration_seconds",
			Help:    "Duration of committed reconciliation runs",
			Buckets: prometheus.DefBuckets,
		}),
		ReconciliationReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "reconledger_reconciliation_replays_total",
			Help: "Statements answered from a stored report",
		}),
		ReconciliationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_reconciliation_failures_total",
				Help: "Failed reconciliation attempts by reason",
			},
			[]string{"reason"},
		),
		MatchResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_match_results_total",
				Help: "Match results by disposition and confidence",
			},
			[]string{"disposition", "confidence"},
		),
		MatchResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_match_resolutions_total",
				Help: "User resolutions of tentative matches",
			},
			[]string{"action"},
		),

		// Ledger metrics
		LedgerTransactionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_ledger_transactions_created_total",
				Help: "Ledger transactions recorded by source",
			},
			[]string{"source"},
		),
		SnapshotsAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_patrimony_snapshots_total",
				Help: "Patrimony snapshots appended by trigger",
			},
			[]string{"trigger"},
		),
		NetWorth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reconledger_patrimony_net_worth",
				Help: "Net worth of the latest snapshot per owner",
			},
			[]string{"owner_id"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reconledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"query"},
		),
		DBDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reconledger_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reconledger_db_connections",
			Help: "Connections held by the pool",
		}),
		DBErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"query"},
		),

		// Redis metrics
		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reconledger_redis_duration_seconds",
				Help:    "Redis operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Background work metrics
		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_outbox_events_published_total",
				Help: "Outbox events handed to the broker by event type",
			},
			[]string{"event_type"},
		),
		JobsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconledger_jobs_processed_total",
				Help: "Background jobs processed by task type and outcome",
			},
			[]string{"task", "status"},
		),
	}
}

// ObserveRun records a committed reconciliation run.
func (m *Metrics) ObserveRun(status string, elapsed time.Duration) {
	m.ReconciliationRuns.WithLabelValues(status).Inc()
	m.ReconciliationDuration.Observe(elapsed.Seconds())
}

// ObserveRedis records one Redis round trip.
func (m *Metrics) ObserveRedis(operation string, elapsed time.Duration, err error) {
	m.RedisOperations.WithLabelValues(operation).Inc()
	m.RedisDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if err != nil {
		m.RedisErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveSnapshot records an appended patrimony snapshot.
func (m *Metrics) ObserveSnapshot(ownerID, trigger string, net decimal.Decimal) {
	m.SnapshotsAppended.WithLabelValues(trigger).Inc()
	m.NetWorth.WithLabelValues(ownerID).Set(net.InexactFloat64())
}

// ObserveQuery records one database statement.
func (m *Metrics) ObserveQuery(query string, elapsed time.Duration, err error) {
	m.DBQueries.WithLabelValues(query).Inc()
	m.DBDuration.WithLabelValues(query).Observe(elapsed.Seconds())
	if err != nil {
		m.DBErrors.WithLabelValues(query).Inc()
	}
}
