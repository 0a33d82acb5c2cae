//go:build unit

package otel

import (
	"context"
	"testing"

	"github.com/hugolhafner/avro-enricher/kafka"
	"github.com/hugolhafner/avro-enricher/record"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestKafkaHeadersCarrier_Get(t *testing.T) {
	headers := []kafka.Header{
		{Key: "traceparent", Value: []byte("00-abc-def-01")},
		{Key: "other", Value: []byte("value")},
	}
	carrier := NewKafkaHeadersCarrier(&headers)

	assert.Equal(t, "00-abc-def-01", carrier.Get("traceparent"))
	assert.Equal(t, "value", carrier.Get("other"))
	assert.Equal(t, "", carrier.Get("missing"))
}

func TestKafkaHeadersCarrier_Set_New(t *testing.T) {
	headers := []kafka.Header{
		{Key: "existing", Value: []byte("val")},
	}
	carrier := NewKafkaHeadersCarrier(&headers)

	carrier.Set("traceparent", "00-abc-def-01")

	assert.Len(t, headers, 2)
	assert.Equal(t, "traceparent", headers[1].Key)
	assert.Equal(t, []byte("00-abc-def-01"), headers[1].Value)
}

func TestKafkaHeadersCarrier_Set_Replace(t *testing.T) {
	headers := []kafka.Header{
		{Key: "traceparent", Value: []byte("old-value")},
	}
	carrier := NewKafkaHeadersCarrier(&headers)

	carrier.Set("traceparent", "new-value")

	assert.Len(t, headers, 1)
	assert.Equal(t, []byte("new-value"), headers[0].Value)
}

func TestKafkaHeadersCarrier_Keys(t *testing.T) {
	headers := []kafka.Header{
		{Key: "traceparent", Value: []byte("val1")},
		{Key: "tracestate", Value: []byte("val2")},
	}
	carrier := NewKafkaHeadersCarrier(&headers)

	keys := carrier.Keys()
	assert.Equal(t, []string{"traceparent", "tracestate"}, keys)
}

func TestRecordHeadersCarrier(t *testing.T) {
	headers := record.Headers{
		{"traceparent": record.Bytes("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")},
		{"tenant": record.Bytes("acme")},
	}
	carrier := NewRecordHeadersCarrier(headers)

	assert.Equal(t, "acme", carrier.Get("tenant"))
	assert.Equal(t, "", carrier.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "tenant"}, carrier.Keys())

	carrier.Set("tenant", "other")
	assert.Equal(t, "acme", carrier.Get("tenant"))

	ctx := propagation.TraceContext{}.Extract(context.Background(), carrier)
	sc := trace.SpanContextFromContext(ctx)
	assert.True(t, sc.IsValid())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
}

func TestRecordHeadersCarrier_Empty(t *testing.T) {
	carrier := NewRecordHeadersCarrier(nil)

	assert.Equal(t, "", carrier.Get("anything"))
	assert.Empty(t, carrier.Keys())
}
