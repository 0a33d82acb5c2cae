package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugolhafner/avro-enricher/logger"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ Producer = (*KgoProducer)(nil)

// ProduceClient is the part of *kgo.Client the producer uses.
type ProduceClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Flush(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

var _ ProduceClient = (*kgo.Client)(nil)

type KgoProducerConfig struct {
	BootstrapServers []string
	ClientID         string
	RequestTimeout   time.Duration

	Logger logger.Logger
}

func defaultConfig() KgoProducerConfig {
	return KgoProducerConfig{
		BootstrapServers: []string{"localhost:9092"},
		ClientID:         "avro-enricher",
		RequestTimeout:   10 * time.Second,
		Logger:           logger.NewNoopLogger(),
	}
}

type KgoOption func(*KgoProducerConfig)

func WithBootstrapServers(servers []string) KgoOption {
	return func(cfg *KgoProducerConfig) {
		cfg.BootstrapServers = servers
	}
}

func WithClientID(id string) KgoOption {
	return func(cfg *KgoProducerConfig) {
		if id != "" {
			cfg.ClientID = id
		}
	}
}

func WithRequestTimeout(d time.Duration) KgoOption {
	return func(cfg *KgoProducerConfig) {
		cfg.RequestTimeout = d
	}
}

func WithLogger(l logger.Logger) KgoOption {
	return func(cfg *KgoProducerConfig) {
		cfg.Logger = l.
			WithFields("client", "kgo")
	}
}

// KgoProducer produces records synchronously through franz-go.
type KgoProducer struct {
	client ProduceClient
	logger logger.Logger
}

func NewKgoProducer(opts ...KgoOption) (*KgoProducer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(cfg.BootstrapServers) == 0 {
		return nil, errors.New("create kgo producer: no bootstrap servers")
	}

	kgoOpts := []kgo.Opt{
		kgo.SeedBrokers(cfg.BootstrapServers...),
		kgo.ClientID(cfg.ClientID),
		kgo.WithLogger(newKgoLogger(cfg.Logger)),
		kgo.ProduceRequestTimeout(cfg.RequestTimeout),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}

	client, err := kgo.NewClient(kgoOpts...)
	if err != nil {
		return nil, fmt.Errorf("create kgo client: %w", err)
	}

	return NewKgoProducerWithClient(client, cfg.Logger), nil
}

func NewKgoProducerWithClient(client ProduceClient, l logger.Logger) *KgoProducer {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	return &KgoProducer{client: client, logger: l}
}

func (k *KgoProducer) Send(ctx context.Context, topic string, key, value []byte, headers []Header) error {
	record := &kgo.Record{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: convertToKgoHeaders(headers),
	}

	k.logger.Debug("Sending record", "topic", topic, "key", string(key), "size", len(value))

	results := k.client.ProduceSync(ctx, record)
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

func (k *KgoProducer) Flush(ctx context.Context) error {
	return k.client.Flush(ctx)
}

func (k *KgoProducer) Ping(ctx context.Context) error {
	return k.client.Ping(ctx)
}

func (k *KgoProducer) Close() {
	k.client.Close()
}

func convertToKgoHeaders(headers []Header) []kgo.RecordHeader {
	kgoHeaders := make([]kgo.RecordHeader, len(headers))
	for i, h := range headers {
		kgoHeaders[i] = kgo.RecordHeader{Key: h.Key, Value: h.Value}
	}
	return kgoHeaders
}
