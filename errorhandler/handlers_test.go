//go:build unit

package errorhandler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hugolhafner/avro-enricher/errorhandler"
	"github.com/hugolhafner/avro-enricher/logger"
	mocklogger "github.com/hugolhafner/avro-enricher/logger/mock"
	"github.com/hugolhafner/avro-enricher/record"
	"github.com/hugolhafner/dskit/backoff"
	"github.com/stretchr/testify/require"
)

func TestLogAndFail(t *testing.T) {
	t.Parallel()
	var testErr = errors.New("queue unavailable")

	tests := []struct {
		name string
		err  error
	}{
		{"simple error", testErr},
		{"nil error", nil},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()
				ec := errorhandler.NewErrorContext(sampleRecord(), nil).WithPhase(errorhandler.PhaseDelivery)

				l := mocklogger.New()
				h := errorhandler.LogAndFail(l)
				action := h.Handle(context.Background(), ec.WithError(tt.err))

				require.Equal(t, errorhandler.ActionFail{}, action)
				l.AssertCalledWithLevelAndMessage(t, logger.ErrorLevel, "error handling record, failing")
				l.AssertField(t, "error handling record, failing", "phase", "delivery")
				l.AssertField(t, "error handling record, failing", "offset", int64(7))
			},
		)
	}
}

func TestSilentFail(t *testing.T) {
	t.Parallel()
	action := errorhandler.SilentFail().Handle(context.Background(), errorhandler.ErrorContext{})
	require.Equal(t, errorhandler.ActionFail{}, action)
}

func TestWithMaxAttempts(t *testing.T) {
	t.Parallel()
	t.Run(
		"should call fallback at max attempts", func(t *testing.T) {
			t.Parallel()
			var testErr = errors.New("send failed")
			var maxAttempts = 3

			ec := errorhandler.NewErrorContext(record.Record{}, testErr)

			fallbackCalled := false
			fallback := errorhandler.HandlerFunc(
				func(ctx context.Context, ec errorhandler.ErrorContext) errorhandler.Action {
					fallbackCalled = true
					return errorhandler.ActionFail{}
				},
			)

			h := errorhandler.WithMaxAttempts(
				maxAttempts,
				backoff.NewFixed(0),
				fallback,
			)

			for i := 1; i < maxAttempts; i++ {
				action := h.Handle(context.Background(), ec.WithAttempt(i))
				require.False(t, fallbackCalled, "fallback should not be called yet on attempt %d", i)
				require.Equal(t, errorhandler.ActionRetry{}, action)
			}

			action := h.Handle(context.Background(), ec.WithAttempt(maxAttempts))
			require.True(t, fallbackCalled, "fallback should have been called")
			require.Equal(t, errorhandler.ActionFail{}, action)
		},
	)

	t.Run(
		"single attempt fails immediately", func(t *testing.T) {
			t.Parallel()

			h := errorhandler.WithMaxAttempts(1, backoff.NewFixed(time.Hour), errorhandler.SilentFail())

			start := time.Now()
			action := h.Handle(context.Background(), errorhandler.NewErrorContext(record.Record{}, nil))
			require.Equal(t, errorhandler.ActionFail{}, action)
			require.Less(t, time.Since(start), time.Second, "should not wait once attempts are exhausted")
		},
	)

	t.Run(
		"should wait on attempts", func(t *testing.T) {
			t.Parallel()
			var testErr = errors.New("send failed")
			var maxAttempts = 3

			ec := errorhandler.NewErrorContext(record.Record{}, testErr)

			fallbackCalled := false
			fallback := errorhandler.HandlerFunc(
				func(ctx context.Context, ec errorhandler.ErrorContext) errorhandler.Action {
					fallbackCalled = true
					return errorhandler.ActionFail{}
				},
			)

			h := errorhandler.WithMaxAttempts(
				maxAttempts,
				backoff.NewFixed(100*time.Millisecond),
				fallback,
			)

			start := time.Now()
			action := h.Handle(context.Background(), ec.WithAttempt(2))
			elapsed := time.Since(start)

			require.False(t, fallbackCalled, "fallback should not be called yet")
			require.Equal(t, errorhandler.ActionRetry{}, action)
			require.GreaterOrEqual(t, elapsed, 100*time.Millisecond, "should have waited on retry attempt")
		},
	)

	t.Run(
		"should respect context cancellation", func(t *testing.T) {
			t.Parallel()
			var testErr = errors.New("send failed")
			var maxAttempts = 3

			ec := errorhandler.NewErrorContext(record.Record{}, testErr)

			fallbackCalled := false
			fallback := errorhandler.HandlerFunc(
				func(ctx context.Context, ec errorhandler.ErrorContext) errorhandler.Action {
					fallbackCalled = true
					return errorhandler.ActionFail{}
				},
			)

			h := errorhandler.WithMaxAttempts(
				maxAttempts,
				backoff.NewFixed(time.Minute),
				fallback,
			)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			action := h.Handle(ctx, ec)
			require.False(t, fallbackCalled, "fallback should not be called yet")
			require.Equal(
				t, errorhandler.ActionFail{}, action, "expected ActionTypeFail on context cancellation, got: %v",
				action.Type().String(),
			)
		},
	)
}

func TestActionLogger(t *testing.T) {
	t.Parallel()

	l := mocklogger.New()
	next := errorhandler.HandlerFunc(
		func(context.Context, errorhandler.ErrorContext) errorhandler.Action {
			return errorhandler.ActionRetry{}
		},
	)

	h := errorhandler.ActionLogger(l, logger.InfoLevel, next)
	action := h.Handle(context.Background(), errorhandler.NewErrorContext(sampleRecord(), errors.New("boom")))

	require.Equal(t, errorhandler.ActionRetry{}, action)
	l.AssertCalledWithLevelAndMessage(t, logger.InfoLevel, "Error handler decision")
	l.AssertField(t, "Error handler decision", "action", "Retry")
	l.AssertField(t, "Error handler decision", "topic", "topic_0")
}

func TestDefault(t *testing.T) {
	t.Parallel()

	t.Run(
		"fails on first attempt by default", func(t *testing.T) {
			t.Parallel()
			l := mocklogger.New()
			h := errorhandler.Default(l, 0, time.Hour)

			action := h.Handle(context.Background(), errorhandler.NewErrorContext(sampleRecord(), errors.New("x")))
			require.Equal(t, errorhandler.ActionFail{}, action)
			l.AssertCalledWithLevelAndMessage(t, logger.ErrorLevel, "error handling record, failing")
			l.AssertCalledWithLevelAndMessage(t, logger.WarnLevel, "Error handler decision")
		},
	)

	t.Run(
		"retries below the limit", func(t *testing.T) {
			t.Parallel()
			l := mocklogger.New()
			h := errorhandler.Default(l, 2, 0)

			ec := errorhandler.NewErrorContext(sampleRecord(), errors.New("x"))
			require.Equal(t, errorhandler.ActionRetry{}, h.Handle(context.Background(), ec))
			require.Equal(t, errorhandler.ActionFail{}, h.Handle(context.Background(), ec.IncrementAttempt()))
		},
	)
}
