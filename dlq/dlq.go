package dlq

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/hugolhafner/avro-enricher/errorhandler"
	"github.com/hugolhafner/avro-enricher/kafka"
	"github.com/hugolhafner/avro-enricher/logger"
	"github.com/hugolhafner/avro-enricher/record"
	"github.com/hugolhafner/avro-enricher/serde"
	"go.opentelemetry.io/otel/propagation"
)

const kafkaScheme = "kafka://"

// Sink receives records that could not be decoded. The payload is the original
// record exactly as it arrived.
type Sink interface {
	Send(ctx context.Context, ec errorhandler.ErrorContext) error
	Close()
}

type Config struct {
	Logger        logger.Logger
	Now           func() time.Time
	KafkaClientID string
	Propagator    propagation.TextMapPropagator
}

type Option func(*Config)

func WithLogger(l logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithClock overrides the clock used for x-error-timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

func WithKafkaClientID(id string) Option {
	return func(c *Config) {
		c.KafkaClientID = id
	}
}

// WithPropagator sets how trace context is written into Kafka dead-letter
// headers.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *Config) {
		c.Propagator = p
	}
}

func defaultConfig() Config {
	return Config{
		Logger:     logger.NewNoopLogger(),
		Now:        time.Now,
		Propagator: propagation.TraceContext{},
	}
}

// New picks a sink for address. kafka://host[,host]/topic selects the Kafka
// backend; anything else is treated as an SQS queue URL.
func New(ctx context.Context, address string, awsCfg aws.Config, opts ...Option) (Sink, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if strings.HasPrefix(address, kafkaScheme) {
		brokers, topic, err := ParseKafkaAddress(address)
		if err != nil {
			return nil, err
		}

		producer, err := kafka.NewKgoProducer(
			kafka.WithBootstrapServers(brokers),
			kafka.WithClientID(cfg.KafkaClientID),
			kafka.WithLogger(cfg.Logger),
		)
		if err != nil {
			return nil, fmt.Errorf("dead-letter producer: %w", err)
		}

		if err := producer.Ping(ctx); err != nil {
			producer.Close()
			return nil, fmt.Errorf("dead-letter brokers unreachable: %w", err)
		}

		return NewKafkaSink(producer, topic, opts...), nil
	}

	if address == "" {
		return nil, fmt.Errorf("dead-letter address is empty")
	}

	return NewSQSSink(NewSQSClient(awsCfg), address, opts...), nil
}

// ParseKafkaAddress splits kafka://host[,host]/topic.
func ParseKafkaAddress(address string) ([]string, string, error) {
	rest, ok := strings.CutPrefix(address, kafkaScheme)
	if !ok {
		return nil, "", fmt.Errorf("dead-letter address %q: missing %s prefix", address, kafkaScheme)
	}

	hosts, topic, _ := strings.Cut(rest, "/")
	if topic == "" || strings.Contains(topic, "/") {
		return nil, "", fmt.Errorf("dead-letter address %q: expected exactly one topic", address)
	}

	var brokers []string
	for _, h := range strings.Split(hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			brokers = append(brokers, h)
		}
	}
	if len(brokers) == 0 {
		return nil, "", fmt.Errorf("dead-letter address %q: no brokers", address)
	}

	return brokers, topic, nil
}

// Body is the dead-letter payload for ec: the original record serialised with
// its wire field names.
func Body(ec errorhandler.ErrorContext) ([]byte, error) {
	body, err := bodySerde.Serialise(ec.Record.Topic, ec.Record)
	if err != nil {
		return nil, fmt.Errorf("encode dead-letter body: %w", err)
	}
	return body, nil
}

var bodySerde = serde.JSON[record.Record]()

type attribute struct {
	Key   string
	Value string
}

// errorAttributes describes where the record came from and why it failed.
// Empty values are omitted.
func errorAttributes(ec errorhandler.ErrorContext, now time.Time) []attribute {
	attrs := []attribute{
		{Key: "x-original-topic", Value: ec.Record.Topic},
		{Key: "x-original-partition", Value: strconv.FormatInt(int64(ec.Record.Partition), 10)},
		{Key: "x-original-offset", Value: strconv.FormatInt(ec.Record.Offset, 10)},
		{Key: "x-error-timestamp", Value: now.UTC().Format(time.RFC3339)},
		{Key: "x-error-attempt", Value: strconv.Itoa(ec.Attempt)},
		{Key: "x-error-phase", Value: ec.Phase.String()},
		{Key: "x-error-message", Value: ec.ErrorMessage()},
	}

	out := attrs[:0]
	for _, a := range attrs {
		if a.Value != "" {
			out = append(out, a)
		}
	}
	return out
}
