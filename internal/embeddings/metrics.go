package embeddings

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

// Metrics tracks embedding generation behavior.
type Metrics struct {
	generationDuration *prometheus.HistogramVec
	generationTotal    *prometheus.CounterVec
	textsEmbedded      prometheus.Counter
}

// NewMetrics returns the process-wide embedding metrics. Registration
// with the default registry happens once.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			generationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "remedyd",
					Subsystem: "embeddings",
					Name:      "generation_duration_seconds",
					Help:      "Duration of embedding generation calls in seconds",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"operation"},
			),
			generationTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "remedyd",
					Subsystem: "embeddings",
					Name:      "generations_total",
					Help:      "Total embedding generation calls by result",
				},
				[]string{"operation", "result"},
			),
			textsEmbedded: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "remedyd",
					Subsystem: "embeddings",
					Name:      "texts_embedded_total",
					Help:      "Total number of texts embedded",
				},
			),
		}
	})
	return metricsInst
}

// RecordGeneration records one embedding call.
func (m *Metrics) RecordGeneration(operation string, d time.Duration, texts int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.generationDuration.WithLabelValues(operation).Observe(d.Seconds())
	m.generationTotal.WithLabelValues(operation, result).Inc()
	if err == nil {
		m.textsEmbedded.Add(float64(texts))
	}
}
