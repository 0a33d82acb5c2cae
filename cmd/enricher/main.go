package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	enricher "github.com/hugolhafner/avro-enricher"
	"github.com/hugolhafner/avro-enricher/dlq"
	"github.com/hugolhafner/avro-enricher/errorhandler"
	"github.com/hugolhafner/avro-enricher/internal/config"
	"github.com/hugolhafner/avro-enricher/internal/metrics"
	"github.com/hugolhafner/avro-enricher/internal/server"
	"github.com/hugolhafner/avro-enricher/internal/telemetry"
	"github.com/hugolhafner/avro-enricher/logger"
	"github.com/hugolhafner/avro-enricher/plugins/zaplogger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "avro-enricher: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if os.Getenv("ENRICHER_MODE") == string(config.ModeLocal) {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	l, zl, err := zaplogger.NewProduction(cfg.Observability.ServiceName, cfg.Level())
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	l.Info("Starting", "mode", cfg.Mode)

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.Observability.ServiceName,
		Endpoint:    cfg.Observability.OtelEndpoint,
	}, l)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			l.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	awsCfg, err := cfg.AWS.LoadAWS(ctx)
	if err != nil {
		return err
	}

	factory := enricher.NewAWSDependencyFactory(
		enricher.AWSDependencyConfig{
			DLQAddress:         cfg.DLQ.URL,
			RegistrySecretName: cfg.Registry.SecretName,
			KafkaClientID:      cfg.KafkaClientID,
			RegistryTimeout:    cfg.Registry.Timeout,
		},
		awsCfg,
		l,
		dlq.WithPropagator(providers.Telemetry.Propagator),
	)

	h := enricher.NewHandler(
		factory,
		enricher.WithLogger(l),
		enricher.WithTelemetry(providers.Telemetry),
		enricher.WithDLQErrorHandler(errorhandler.Default(l, cfg.DLQ.MaxAttempts, cfg.DLQ.RetryBackoff)),
	)
	defer h.Close()

	switch cfg.Mode {
	case config.ModeLocal:
		return runLocal(ctx, cfg, h, l)
	default:
		lambda.StartWithOptions(lambdaHandler(h, l, providers.Flush), lambda.WithContext(ctx))
		return nil
	}
}

func runLocal(ctx context.Context, cfg *config.Config, h *enricher.Handler, l logger.Logger) error {
	s := server.New(h,
		server.WithLogger(l),
		server.WithMetrics(metrics.New()),
	)
	return s.Run(ctx, cfg.LocalAddr)
}
