package mockdlq

import (
	"context"
	"sync"
	"testing"

	"github.com/hugolhafner/avro-enricher/dlq"
	"github.com/hugolhafner/avro-enricher/errorhandler"
	"github.com/stretchr/testify/require"
)

var _ dlq.Sink = (*Sink)(nil)

// Sink is an in-memory dead-letter sink. Every Send call is recorded, including
// failed ones, so tests can check the order and number of delivery attempts.
type Sink struct {
	mu sync.Mutex

	calls  []errorhandler.ErrorContext
	sent   []errorhandler.ErrorContext
	errFn  func(call int, ec errorhandler.ErrorContext) error
	closed bool
}

type Option func(*Sink)

// WithErrors fails the calls at the given zero-based call indexes.
func WithErrors(errs map[int]error) Option {
	return func(s *Sink) {
		s.errFn = func(call int, _ errorhandler.ErrorContext) error {
			return errs[call]
		}
	}
}

// WithErrorFunc decides the result of each call.
func WithErrorFunc(fn func(call int, ec errorhandler.ErrorContext) error) Option {
	return func(s *Sink) {
		s.errFn = fn
	}
}

func New(opts ...Option) *Sink {
	s := &Sink{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Send(ctx context.Context, ec errorhandler.ErrorContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := len(s.calls)
	s.calls = append(s.calls, ec)

	if err := ctx.Err(); err != nil {
		return err
	}

	if s.errFn != nil {
		if err := s.errFn(call, ec); err != nil {
			return err
		}
	}

	s.sent = append(s.sent, ec)
	return nil
}

func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
}

// Calls returns every context passed to Send, in call order.
func (s *Sink) Calls() []errorhandler.ErrorContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]errorhandler.ErrorContext, len(s.calls))
	copy(out, s.calls)
	return out
}

// Sent returns the contexts of successful sends, in call order.
func (s *Sink) Sent() []errorhandler.ErrorContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]errorhandler.ErrorContext, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *Sink) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// SentOffsets returns the offsets of successfully sent records, in order.
func (s *Sink) SentOffsets() []int64 {
	sent := s.Sent()
	out := make([]int64, len(sent))
	for i, ec := range sent {
		out[i] = ec.Record.Offset
	}
	return out
}

func (s *Sink) AssertCallCount(tb testing.TB, expected int) {
	tb.Helper()

	actual := len(s.Calls())
	require.Equal(tb, expected, actual, "expected %d dead-letter calls, got %d", expected, actual)
}

func (s *Sink) AssertSentOffsets(tb testing.TB, offsets ...int64) {
	tb.Helper()

	if len(offsets) == 0 {
		offsets = []int64{}
	}
	require.Equal(tb, offsets, s.SentOffsets())
}

func (s *Sink) AssertNothingSent(tb testing.TB) {
	tb.Helper()

	require.Empty(tb, s.Calls(), "expected no dead-letter calls")
}
