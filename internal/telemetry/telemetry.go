package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugolhafner/avro-enricher/logger"
	enricherotel "github.com/hugolhafner/avro-enricher/otel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Providers owns the installed SDK providers. The zero value is a valid noop.
type Providers struct {
	Telemetry *enricherotel.Telemetry

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Flush exports pending spans and metrics. Lambda freezes the process between
// invocations, so the entry point flushes after every batch.
func (p *Providers) Flush(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return errors.Join(p.tp.ForceFlush(ctx), p.mp.ForceFlush(ctx))
}

func (p *Providers) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return errors.Join(p.tp.Shutdown(ctx), p.mp.Shutdown(ctx))
}

type Config struct {
	ServiceName string
	// OTLP gRPC collector address. Empty disables export.
	Endpoint       string
	MetricInterval time.Duration
}

// Setup installs OTLP trace and metric providers and returns the enricher
// instruments built on them. With no endpoint the returned providers are noop.
func Setup(ctx context.Context, cfg Config, l logger.Logger) (*Providers, error) {
	if cfg.Endpoint == "" {
		l.Debug("Telemetry export disabled")
		return &Providers{Telemetry: enricherotel.Noop()}, nil
	}
	if cfg.MetricInterval <= 0 {
		cfg.MetricInterval = 10 * time.Second
	}

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	traceExp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)

	metricExp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(cfg.MetricInterval))),
	)

	prop := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(prop)

	tel, err := enricherotel.NewTelemetry(tp, mp, prop)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("create instruments: %w", err)
	}

	l.Info("Telemetry configured", "otlp_endpoint", cfg.Endpoint, "service_name", cfg.ServiceName)

	return &Providers{Telemetry: tel, tp: tp, mp: mp}, nil
}
