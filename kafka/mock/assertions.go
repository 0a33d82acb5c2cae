package mockkafka

import (
	"bytes"
	"testing"

	"github.com/hugolhafner/avro-enricher/kafka"
	"github.com/stretchr/testify/require"
)

// AssertProducedCount verifies that exactly n records were produced.
func (p *Producer) AssertProducedCount(tb testing.TB, expected int) {
	tb.Helper()

	actual := len(p.ProducedRecords())
	require.Equal(tb, expected, actual, "expected %d records, got %d", expected, actual)
}

// AssertProducedCountForTopic verifies that exactly n records were produced to a topic.
func (p *Producer) AssertProducedCountForTopic(tb testing.TB, topic string, expected int) {
	tb.Helper()

	actual := len(p.ProducedRecordsForTopic(topic))
	require.Equal(tb, expected, actual, "expected %d records produced to topic %q, got %d", expected, topic, actual)
}

// AssertProducedKey verifies that a record with the given key was produced to the topic.
func (p *Producer) AssertProducedKey(tb testing.TB, topic string, key []byte) {
	tb.Helper()

	for _, r := range p.ProducedRecordsForTopic(topic) {
		if bytes.Equal(r.Key, key) {
			return
		}
	}

	tb.Errorf("expected record with key=%q to be produced to topic %q, but it was not found", string(key), topic)
}

func (p *Producer) AssertNoProducedRecords(tb testing.TB) {
	tb.Helper()

	records := p.ProducedRecords()
	require.Empty(tb, records, "expected no produced records, got %d", len(records))
}

// AssertHeader verifies that a produced record has a specific header.
func (p *Producer) AssertHeader(tb testing.TB, topic string, key []byte, headerKey string, headerValue []byte) {
	tb.Helper()

	for _, r := range p.ProducedRecordsForTopic(topic) {
		if bytes.Equal(r.Key, key) {
			actual, ok := kafka.HeaderValue(r.Headers, headerKey)
			require.True(tb, ok, "record with key=%q missing header %q", string(key), headerKey)
			require.True(
				tb, bytes.Equal(actual, headerValue), "record with key=%q has header %q=%q, expected %q", string(key),
				headerKey, string(actual), string(headerValue),
			)
			return
		}
	}

	tb.Errorf("no record with key=%q found in topic %q", string(key), topic)
}

func (p *Producer) AssertClosed(tb testing.TB) {
	tb.Helper()
	require.True(tb, p.IsClosed(), "expected producer to be closed")
}
