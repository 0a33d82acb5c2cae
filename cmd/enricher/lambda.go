package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/hugolhafner/avro-enricher/logger"
)

type batchHandler interface {
	Handle(ctx context.Context, raw json.RawMessage) ([]map[string]any, error)
}

type flushFunc func(ctx context.Context) error

// lambdaHandler binds the Lambda request ID to the invocation logger and
// flushes telemetry before the runtime freezes the process.
func lambdaHandler(h batchHandler, l logger.Logger, flush flushFunc) func(context.Context, json.RawMessage) ([]map[string]any, error) {
	return func(ctx context.Context, raw json.RawMessage) ([]map[string]any, error) {
		il := l
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			il = l.WithFields("request_id", lc.AwsRequestID)
		}
		ctx = logger.NewContext(ctx, il)

		out, err := h.Handle(ctx, raw)

		if flush != nil {
			if ferr := flush(ctx); ferr != nil {
				il.Warn("Telemetry flush failed", "error", ferr)
			}
		}

		return out, err
	}
}
