package dlq

import (
	"context"
	"fmt"
	"sort"

	"github.com/hugolhafner/avro-enricher/errorhandler"
	"github.com/hugolhafner/avro-enricher/kafka"
	enricherotel "github.com/hugolhafner/avro-enricher/otel"
)

var _ Sink = (*KafkaSink)(nil)

// KafkaSink produces each failed record to a dead-letter topic. Original headers
// are kept and the x-* error headers appended. The active trace context, if
// any, replaces an inherited traceparent.
type KafkaSink struct {
	producer kafka.Producer
	topic    string
	cfg      Config
}

func NewKafkaSink(producer kafka.Producer, topic string, opts ...Option) *KafkaSink {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &KafkaSink{
		producer: producer,
		topic:    topic,
		cfg:      cfg,
	}
}

func (s *KafkaSink) Send(ctx context.Context, ec errorhandler.ErrorContext) error {
	body, err := Body(ec)
	if err != nil {
		return err
	}

	headers := originalHeaders(ec)
	for _, a := range errorAttributes(ec, s.cfg.Now()) {
		headers = append(headers, kafka.Header{Key: a.Key, Value: []byte(a.Value)})
	}
	s.cfg.Propagator.Inject(ctx, enricherotel.NewKafkaHeadersCarrier(&headers))

	if err := s.producer.Send(ctx, s.topic, []byte(ec.Record.EventSourceKey), body, headers); err != nil {
		return fmt.Errorf("send to dead-letter topic %s: %w", s.topic, err)
	}

	s.cfg.Logger.Debug(
		"Dead-lettered record",
		"dlq_topic", s.topic,
		"topic", ec.Record.Topic,
		"partition", ec.Record.Partition,
		"offset", ec.Record.Offset,
	)
	return nil
}

func (s *KafkaSink) Close() {
	s.producer.Close()
}

// originalHeaders flattens the record's header list. Keys within one entry are
// sorted so output order is stable.
func originalHeaders(ec errorhandler.ErrorContext) []kafka.Header {
	var headers []kafka.Header
	for _, entry := range ec.Record.Headers {
		keys := make([]string, 0, len(entry))
		for k := range entry {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			headers = append(headers, kafka.Header{Key: k, Value: entry[k]})
		}
	}
	return headers
}
