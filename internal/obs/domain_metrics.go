package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts quote computations by outcome (ok or the rejection kind).
	QuoteTotal *prometheus.CounterVec
	// QuoteDuration records end-to-end quote latency in milliseconds,
	// including rule snapshot reads.
	QuoteDuration prometheus.Histogram
	// SnapshotCacheTotal counts rule snapshot cache lookups by outcome.
	SnapshotCacheTotal *prometheus.CounterVec
	// AuditEnqueueTotal counts quote audit task enqueue outcomes.
	AuditEnqueueTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of package price computations by result.",
		}, []string{"result"})
		QuoteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_ms",
			Help:      "Latency of quote computations in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		})
		SnapshotCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_snapshot_cache_total",
			Help:      "Count of rule snapshot cache lookups by outcome.",
		}, []string{"outcome"})
		AuditEnqueueTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_audit_enqueue_total",
			Help:      "Count of quote audit task enqueue outcomes.",
		}, []string{"result"})
		reg.MustRegister(QuoteTotal, QuoteDuration, SnapshotCacheTotal, AuditEnqueueTotal)
	})
}
