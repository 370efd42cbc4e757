package resolver

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// Metrics tracks retrieval and resolution behavior.
type Metrics struct {
	resolveDuration  *prometheus.HistogramVec
	resolutionsTotal *prometheus.CounterVec
	retrievalsTotal  prometheus.Counter
	casesTaught      prometheus.Counter
}

// NewMetrics returns the process-wide resolver metrics.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			resolveDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "remedyd",
					Subsystem: "resolver",
					Name:      "resolve_duration_seconds",
					Help:      "Duration of resolve calls in seconds",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"result"},
			),
			resolutionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "remedyd",
					Subsystem: "resolver",
					Name:      "resolutions_total",
					Help:      "Total resolve calls by result",
				},
				[]string{"result"},
			),
			retrievalsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "remedyd",
					Subsystem: "resolver",
					Name:      "retrievals_total",
					Help:      "Total retrieve calls",
				},
			),
			casesTaught: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "remedyd",
					Subsystem: "resolver",
					Name:      "cases_taught_total",
					Help:      "Total cases added to the store",
				},
			),
		}
	})
	return metricsInst
}

// RecordResolve records one resolve call.
func (m *Metrics) RecordResolve(result string, d time.Duration) {
	m.resolveDuration.WithLabelValues(result).Observe(d.Seconds())
	m.resolutionsTotal.WithLabelValues(result).Inc()
}
