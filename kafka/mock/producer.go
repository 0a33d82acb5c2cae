package mockkafka

import (
	"context"
	"sync"

	"github.com/hugolhafner/avro-enricher/kafka"
)

var _ kafka.Producer = (*Producer)(nil)

// ProducedRecord represents a record that was sent via the mock producer.
type ProducedRecord struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers []kafka.Header
}

type Producer struct {
	mu sync.RWMutex

	producedRecords []ProducedRecord
	sendErr         func(topic string, key, value []byte) error
	flushes         int
	closed          bool
}

func NewProducer(opts ...Option) *Producer {
	p := &Producer{
		producedRecords: make([]ProducedRecord, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Send produces a record to the specified topic.
// The record is stored internally and can be verified using ProducedRecords().
func (p *Producer) Send(ctx context.Context, topic string, key, value []byte, headers []kafka.Header) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if p.sendErr != nil {
		if err := p.sendErr(topic, key, value); err != nil {
			return err
		}
	}

	headersCopy := make([]kafka.Header, len(headers))
	for i, h := range headers {
		v := make([]byte, len(h.Value))
		copy(v, h.Value)
		headersCopy[i] = kafka.Header{Key: h.Key, Value: v}
	}

	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	p.producedRecords = append(
		p.producedRecords, ProducedRecord{
			Topic:   topic,
			Key:     keyCopy,
			Value:   valueCopy,
			Headers: headersCopy,
		},
	)

	return nil
}

// Flush is a no-op for the mock producer since Send is synchronous.
// It respects context cancellation for realistic behavior.
func (p *Producer) Flush(ctx context.Context) error {
	p.mu.Lock()
	p.flushes++
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Close marks the producer as closed.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
}

// SetSendError configures an error to be returned on all Send calls.
// Pass nil to clear the error.
func (p *Producer) SetSendError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		p.sendErr = nil
	} else {
		p.sendErr = func(string, []byte, []byte) error { return err }
	}
}

// SetSendErrorFunc configures a function to determine Send errors.
func (p *Producer) SetSendErrorFunc(fn func(topic string, key, value []byte) error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sendErr = fn
}

// ProducedRecords returns a copy of all produced records.
func (p *Producer) ProducedRecords() []ProducedRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ProducedRecord, len(p.producedRecords))
	copy(out, p.producedRecords)
	return out
}

// ProducedRecordsForTopic returns produced records for one topic.
func (p *Producer) ProducedRecordsForTopic(topic string) []ProducedRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []ProducedRecord
	for _, r := range p.producedRecords {
		if r.Topic == topic {
			out = append(out, r)
		}
	}
	return out
}

func (p *Producer) Flushes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.flushes
}

func (p *Producer) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.closed
}

// Reset clears produced records and errors.
func (p *Producer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.producedRecords = make([]ProducedRecord, 0)
	p.sendErr = nil
	p.flushes = 0
	p.closed = false
}
