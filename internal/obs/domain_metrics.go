package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts price quotes by outcome.
	QuotesTotal *prometheus.CounterVec
	// OrderCommitsTotal counts order commits by outcome.
	OrderCommitsTotal *prometheus.CounterVec
	// OrderCommitDuration observes commit latency in milliseconds.
	OrderCommitDuration prometheus.Histogram
	// PromoReservationsTotal counts ledger reservations by outcome.
	PromoReservationsTotal *prometheus.CounterVec
	// PromoUsageDrift reports the last audited drift per promo code, zero when consistent.
	PromoUsageDrift *prometheus.GaugeVec
	// TasksProcessedTotal counts background task outcomes.
	TasksProcessedTotal *prometheus.CounterVec
	// BreakerState reports breaker position per target: 0 closed, 1 open, 2 half-open.
	BreakerState *prometheus.GaugeVec
	// BreakerOpenedTotal counts transitions into the open state.
	BreakerOpenedTotal *prometheus.CounterVec
	// DBQueryDuration observes statement latency in seconds per sqlc query.
	DBQueryDuration *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quotes_total",
			Help:      "Count of price quotes by outcome.",
		}, []string{"result"}))
		OrderCommitsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_commits_total",
			Help:      "Count of order commits by outcome.",
		}, []string{"result"}))
		OrderCommitDuration = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_commit_duration_ms",
			Help:      "Latency of the order commit transaction in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		}))
		PromoReservationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_reservations_total",
			Help:      "Count of promo usage reservations by outcome.",
		}, []string{"result"}))
		PromoUsageDrift = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "promo_usage_drift",
			Help:      "Difference between a promo's usage counter and its recorded redemptions.",
		}, []string{"code"}))
		TasksProcessedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_processed_total",
			Help:      "Count of background tasks processed by type and outcome.",
		}, []string{"type", "result"}))
		BreakerState = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed, 1=open, 2=half-open.",
		}, []string{"target"}))
		BreakerOpenedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_open_total",
			Help:      "Number of times a breaker opened.",
		}, []string{"target"}))
		DBQueryDuration = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Postgres statement latency by query name.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"query", "result"}))
	})
}

// Inc increments vec for labels when domain metrics are registered.
func Inc(vec *prometheus.CounterVec, labels ...string) {
	if vec != nil {
		vec.WithLabelValues(labels...).Inc()
	}
}
