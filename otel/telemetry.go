package otel

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	traceNoop "go.opentelemetry.io/otel/trace/noop"
)

const scopeName = "github.com/hugolhafner/avro-enricher"

// Telemetry holds all OpenTelemetry instruments for the enricher
// When no providers are configured, all instruments are noops with zero overhead
type Telemetry struct {
	Tracer     trace.Tracer
	Propagator propagation.TextMapPropagator

	// Decode metrics
	RecordsDecoded metric.Int64Counter
	RecordsFailed  metric.Int64Counter

	// Batch metrics
	BatchDuration metric.Float64Histogram
	BatchSize     metric.Int64Histogram

	// Dead-letter metrics
	DLQSent     metric.Int64Counter
	DLQDuration metric.Float64Histogram

	// Error metrics
	Errors metric.Int64Counter
}

// NewTelemetry creates a Telemetry instance from the given providers.
// all providers are optional and defaulted to noops if nil
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider, prop propagation.TextMapPropagator) (
	*Telemetry, error,
) {
	if tp == nil {
		tp = traceNoop.NewTracerProvider()
	}
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	if prop == nil {
		prop = propagation.TraceContext{}
	}

	tracer := tp.Tracer(scopeName)
	meter := mp.Meter(scopeName)

	recordsDecoded, err := meter.Int64Counter(
		"enricher.records.decoded",
		metric.WithDescription("Records decoded successfully"),
	)
	if err != nil {
		return nil, err
	}

	recordsFailed, err := meter.Int64Counter(
		"enricher.records.failed",
		metric.WithDescription("Records that failed to decode"),
	)
	if err != nil {
		return nil, err
	}

	batchDuration, err := meter.Float64Histogram(
		"enricher.batch.duration",
		metric.WithDescription("Time per batch, including dead-letter delivery"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	batchSize, err := meter.Int64Histogram(
		"enricher.batch.size",
		metric.WithDescription("Records per batch"),
	)
	if err != nil {
		return nil, err
	}

	dlqSent, err := meter.Int64Counter(
		"enricher.dlq.sent",
		metric.WithDescription("Dead-letter send attempts"),
	)
	if err != nil {
		return nil, err
	}

	dlqDuration, err := meter.Float64Histogram(
		"enricher.dlq.duration",
		metric.WithDescription("Time per dead-letter send"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errors, err := meter.Int64Counter(
		"enricher.errors",
		metric.WithDescription("Errors encountered"),
	)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Tracer:         tracer,
		Propagator:     prop,
		RecordsDecoded: recordsDecoded,
		RecordsFailed:  recordsFailed,
		BatchDuration:  batchDuration,
		BatchSize:      batchSize,
		DLQSent:        dlqSent,
		DLQDuration:    dlqDuration,
		Errors:         errors,
	}, nil
}

// Noop returns a Telemetry instance with all noop instruments
func Noop() *Telemetry {
	t, _ := NewTelemetry(nil, nil, nil)
	return t
}
