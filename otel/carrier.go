package otel

import (
	"github.com/hugolhafner/avro-enricher/kafka"
	"github.com/hugolhafner/avro-enricher/record"
)

// KafkaHeadersCarrier adapts outgoing Kafka headers to a TextMapCarrier.
type KafkaHeadersCarrier struct {
	Headers *[]kafka.Header
}

func NewKafkaHeadersCarrier(headers *[]kafka.Header) KafkaHeadersCarrier {
	return KafkaHeadersCarrier{Headers: headers}
}

func (c KafkaHeadersCarrier) Get(key string) string {
	for _, h := range *c.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c KafkaHeadersCarrier) Set(key, value string) {
	// Kafka can have multiple headers with the same key, overwrite all existing headers with the same key
	// or add new one
	found := false
	for i, h := range *c.Headers {
		if h.Key == key {
			(*c.Headers)[i].Value = []byte(value)
			found = true
		}
	}

	if !found {
		*c.Headers = append(*c.Headers, kafka.Header{Key: key, Value: []byte(value)})
	}
}

func (c KafkaHeadersCarrier) Keys() []string {
	keys := make([]string, len(*c.Headers))
	for i, h := range *c.Headers {
		keys[i] = h.Key
	}
	return keys
}

// RecordHeadersCarrier reads trace context from the headers of an incoming
// record. It only extracts; Set is a no-op so input records stay untouched.
type RecordHeadersCarrier struct {
	Headers record.Headers
}

func NewRecordHeadersCarrier(headers record.Headers) RecordHeadersCarrier {
	return RecordHeadersCarrier{Headers: headers}
}

func (c RecordHeadersCarrier) Get(key string) string {
	v, ok := c.Headers.Value(key)
	if !ok {
		return ""
	}
	return string(v)
}

func (c RecordHeadersCarrier) Set(string, string) {}

func (c RecordHeadersCarrier) Keys() []string {
	var keys []string
	for _, entry := range c.Headers {
		for k := range entry {
			keys = append(keys, k)
		}
	}
	return keys
}
