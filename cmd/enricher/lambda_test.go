//go:build unit

package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/hugolhafner/avro-enricher/logger"
	mocklogger "github.com/hugolhafner/avro-enricher/logger/mock"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	ctx context.Context
	raw json.RawMessage
	out []map[string]any
	err error
}

func (f *fakeHandler) Handle(ctx context.Context, raw json.RawMessage) ([]map[string]any, error) {
	f.ctx = ctx
	f.raw = raw
	return f.out, f.err
}

func TestLambdaHandler_RequestID(t *testing.T) {
	t.Parallel()

	l := mocklogger.New()
	h := &fakeHandler{out: []map[string]any{{"key": "12435"}}}
	flushed := 0

	fn := lambdaHandler(h, l, func(context.Context) error {
		flushed++
		return nil
	})

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})
	out, err := fn(ctx, json.RawMessage(`[]`))
	require.NoError(t, err)
	require.Equal(t, h.out, out)
	require.JSONEq(t, `[]`, string(h.raw))
	require.Equal(t, 1, flushed)

	logger.FromContext(h.ctx, nil).Info("inside")
	l.AssertField(t, "inside", "request_id", "req-1")
}

func TestLambdaHandler_NoLambdaContext(t *testing.T) {
	t.Parallel()

	l := mocklogger.New()
	h := &fakeHandler{}

	fn := lambdaHandler(h, l, nil)
	_, err := fn(context.Background(), json.RawMessage(`[]`))
	require.NoError(t, err)

	require.Same(t, l, logger.FromContext(h.ctx, nil))
}

func TestLambdaHandler_ErrorStillFlushes(t *testing.T) {
	t.Parallel()

	l := mocklogger.New()
	boom := errors.New("dead-letter delivery failed")
	h := &fakeHandler{err: boom}

	fn := lambdaHandler(h, l, func(context.Context) error {
		return errors.New("collector unavailable")
	})

	_, err := fn(context.Background(), json.RawMessage(`[]`))
	require.ErrorIs(t, err, boom)
	l.AssertCalledWithLevelAndMessage(t, logger.WarnLevel, "Telemetry flush failed")
}
