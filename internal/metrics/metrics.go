package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "enricher"

const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultInvalid = "invalid"

	RecordDecoded      = "decoded"
	RecordDeadLettered = "dead_lettered"
)

// Metrics holds the local server's prometheus collectors on a private registry.
type Metrics struct {
	Invocations *prometheus.CounterVec
	Records     *prometheus.CounterVec
	Duration    *prometheus.HistogramVec

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total batch invocations by result.",
			},
			[]string{"result"},
		),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Total records handled by result.",
			},
			[]string{"result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Batch invocation latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.Invocations,
		m.Records,
		m.Duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveInvocation records one finished batch.
func (m *Metrics) ObserveInvocation(result string, took time.Duration, decoded, deadLettered int) {
	m.Invocations.WithLabelValues(result).Inc()
	m.Duration.WithLabelValues(result).Observe(took.Seconds())

	if decoded > 0 {
		m.Records.WithLabelValues(RecordDecoded).Add(float64(decoded))
	}
	if deadLettered > 0 {
		m.Records.WithLabelValues(RecordDeadLettered).Add(float64(deadLettered))
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
