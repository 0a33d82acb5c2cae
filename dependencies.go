package enricher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/hugolhafner/avro-enricher/batch"
	"github.com/hugolhafner/avro-enricher/codec"
	"github.com/hugolhafner/avro-enricher/dlq"
	"github.com/hugolhafner/avro-enricher/logger"
	"github.com/hugolhafner/avro-enricher/registry"
	"github.com/hugolhafner/avro-enricher/secrets"
	"github.com/hugolhafner/avro-enricher/serde"
)

// Dependencies are the process-wide handles a batch needs. Close, when set,
// releases them.
type Dependencies struct {
	Codec batch.Decoder
	Sink  dlq.Sink
	Close func()
}

// DependencyFactory builds Dependencies. It is called at most once per
// successful initialisation.
type DependencyFactory func(ctx context.Context) (*Dependencies, error)

type DependencyConfig struct {
	// RegistrySecretName names the secret holding registry.Credentials.
	RegistrySecretName string
	Secrets            secrets.Fetcher
	// Sink opens the dead-letter sink.
	Sink func(ctx context.Context) (dlq.Sink, error)

	RegistryTimeout time.Duration
	Logger          logger.Logger
}

// NewDependencyFactory fetches registry credentials, builds the Avro value
// decoder and opens the dead-letter sink.
func NewDependencyFactory(cfg DependencyConfig) DependencyFactory {
	l := cfg.Logger
	if l == nil {
		l = logger.NewNoopLogger()
	}

	return func(ctx context.Context) (*Dependencies, error) {
		if cfg.Secrets == nil || cfg.Sink == nil {
			return nil, errors.New("dependency config: secrets fetcher and sink are required")
		}

		creds, err := secrets.FetchJSON[registry.Credentials](ctx, cfg.Secrets, cfg.RegistrySecretName)
		if err != nil {
			return nil, fmt.Errorf("registry credentials: %w", err)
		}

		opts := []registry.Option{registry.WithLogger(l)}
		if cfg.RegistryTimeout > 0 {
			opts = append(opts, registry.WithTimeout(cfg.RegistryTimeout))
		}

		client, err := registry.NewClient(creds, opts...)
		if err != nil {
			return nil, err
		}

		sink, err := cfg.Sink(ctx)
		if err != nil {
			return nil, fmt.Errorf("dead-letter sink: %w", err)
		}

		l.Info("Dependencies ready", "registry", creds.String())

		return &Dependencies{
			Codec: codec.New(serde.String(), registry.NewAvroDeserialiser(client, serde.FieldValue)),
			Sink:  sink,
			Close: sink.Close,
		}, nil
	}
}

type AWSDependencyConfig struct {
	DLQAddress         string
	RegistrySecretName string
	KafkaClientID      string
	RegistryTimeout    time.Duration
}

// NewAWSDependencyFactory reads credentials from Secrets Manager and sends
// dead letters to SQS, or to Kafka for kafka:// addresses.
func NewAWSDependencyFactory(cfg AWSDependencyConfig, awsCfg aws.Config, l logger.Logger, opts ...dlq.Option) DependencyFactory {
	if l == nil {
		l = logger.NewNoopLogger()
	}

	sinkOpts := append([]dlq.Option{dlq.WithLogger(l), dlq.WithKafkaClientID(cfg.KafkaClientID)}, opts...)

	return NewDependencyFactory(DependencyConfig{
		RegistrySecretName: cfg.RegistrySecretName,
		Secrets:            secrets.NewSecretsManager(awsCfg, l),
		Sink: func(ctx context.Context) (dlq.Sink, error) {
			return dlq.New(ctx, cfg.DLQAddress, awsCfg, sinkOpts...)
		},
		RegistryTimeout: cfg.RegistryTimeout,
		Logger:          l,
	})
}
