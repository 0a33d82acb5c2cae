package errorhandler

import (
	"context"
	"time"

	"github.com/hugolhafner/avro-enricher/logger"
	"github.com/hugolhafner/dskit/backoff"
)

// LogAndFail logs error and stops processing
func LogAndFail(logger logger.Logger) Handler {
	return HandlerFunc(
		func(ctx context.Context, ec ErrorContext) Action {
			logger.Error(
				"error handling record, failing",
				"error", ec.Error,
				"topic", ec.Record.Topic,
				"partition", ec.Record.Partition,
				"offset", ec.Record.Offset,
				"attempt", ec.Attempt,
				"phase", ec.Phase.String(),
			)
			return ActionFail{}
		},
	)
}

// SilentFail stops processing without logging.
func SilentFail() Handler {
	return HandlerFunc(
		func(context.Context, ErrorContext) Action {
			return ActionFail{}
		},
	)
}

// WithMaxAttempts wraps a handler with retry logic.
// Attempts below maxAttempts wait for the backoff and retry; once the limit is
// reached the fallback handler is called without waiting.
func WithMaxAttempts(maxAttempts int, b backoff.Backoff, fallback Handler) Handler {
	return HandlerFunc(
		func(ctx context.Context, ec ErrorContext) Action {
			if ec.Attempt >= maxAttempts {
				return fallback.Handle(ctx, ec)
			}

			select {
			case <-ctx.Done():
				return ActionFail{}
			case <-time.After(b.Next(uint(ec.Attempt))):
			}

			return ActionRetry{}
		},
	)
}

// ActionLogger logs the action decided by the next handler
func ActionLogger(l logger.Logger, level logger.LogLevel, next Handler) Handler {
	return HandlerFunc(
		func(ctx context.Context, ec ErrorContext) Action {
			action := next.Handle(ctx, ec)

			l.Log(
				level,
				"Error handler decision",
				"action", action.Type().String(),
				"error", ec.Error,
				"topic", ec.Record.Topic,
				"partition", ec.Record.Partition,
				"offset", ec.Record.Offset,
				"attempt", ec.Attempt,
				"phase", ec.Phase.String(),
			)
			return action
		},
	)
}

// Default is the dead-letter delivery policy: up to maxAttempts sends spaced
// by a fixed delay, then log and fail.
func Default(l logger.Logger, maxAttempts int, delay time.Duration) Handler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return ActionLogger(l, logger.WarnLevel, WithMaxAttempts(maxAttempts, backoff.NewFixed(delay), LogAndFail(l)))
}
