package record

import (
	"strconv"

	"github.com/aws/aws-lambda-go/events"
)

// Bytes is a header value. The event source mapping delivers header bytes as
// signed integers (-128..127) and Bytes writes them back the same way.
type Bytes = events.JSONNumberBytes

// Headers is the ordered header list of a record. Each entry maps one header key
// to its value; the same key may appear in several entries.
type Headers []map[string]Bytes

func (h Headers) Copy() Headers {
	if h == nil {
		return nil
	}

	out := make(Headers, len(h))
	for i, entry := range h {
		cp := make(map[string]Bytes, len(entry))
		for k, v := range entry {
			vCopy := make(Bytes, len(v))
			copy(vCopy, v)
			cp[k] = vCopy
		}
		out[i] = cp
	}
	return out
}

// Value returns the value of the first header entry carrying key.
func (h Headers) Value(key string) ([]byte, bool) {
	for _, entry := range h {
		if v, ok := entry[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Record is one Kafka message as delivered to the enrichment step. Key and Value
// hold the base64 encoded bytes exactly as received.
type Record struct {
	EventSource      string  `json:"eventSource"`
	BootstrapServers string  `json:"bootstrapServers"`
	EventSourceKey   string  `json:"eventSourceKey"`
	Topic            string  `json:"topic"`
	Partition        int32   `json:"partition"`
	Offset           int64   `json:"offset"`
	Timestamp        int64   `json:"timestamp"`
	TimestampType    string  `json:"timestampType"`
	Key              string  `json:"key"`
	Value            string  `json:"value"`
	Headers          Headers `json:"headers"`
}

func (r Record) TopicPartition() string {
	return r.Topic + "-" + strconv.FormatInt(int64(r.Partition), 10)
}

func (r Record) Copy() Record {
	r.Headers = r.Headers.Copy()
	return r
}

// Decoded builds the decoded form of r. r itself is left untouched.
func (r Record) Decoded(key string, value any) Decoded {
	return Decoded{
		EventSource:      r.EventSource,
		BootstrapServers: r.BootstrapServers,
		EventSourceKey:   r.EventSourceKey,
		Topic:            r.Topic,
		Partition:        r.Partition,
		Offset:           r.Offset,
		Timestamp:        r.Timestamp,
		TimestampType:    r.TimestampType,
		Key:              key,
		Value:            value,
		Headers:          r.Headers.Copy(),
	}
}

// Decoded is a Record whose key is plain text and whose value is the structure
// produced by the schema decoder.
type Decoded struct {
	EventSource      string  `json:"eventSource"`
	BootstrapServers string  `json:"bootstrapServers"`
	EventSourceKey   string  `json:"eventSourceKey"`
	Topic            string  `json:"topic"`
	Partition        int32   `json:"partition"`
	Offset           int64   `json:"offset"`
	Timestamp        int64   `json:"timestamp"`
	TimestampType    string  `json:"timestampType"`
	Key              string  `json:"key"`
	Value            any     `json:"value"`
	Headers          Headers `json:"headers"`
}

// ToMap returns d as a plain mapping keyed by the wire field names.
func (d Decoded) ToMap() map[string]any {
	headers := d.Headers
	if headers == nil {
		headers = Headers{}
	}

	return map[string]any{
		"eventSource":      d.EventSource,
		"bootstrapServers": d.BootstrapServers,
		"eventSourceKey":   d.EventSourceKey,
		"topic":            d.Topic,
		"partition":        d.Partition,
		"offset":           d.Offset,
		"timestamp":        d.Timestamp,
		"timestampType":    d.TimestampType,
		"key":              d.Key,
		"value":            d.Value,
		"headers":          headers,
	}
}
