package batch

import (
	"context"
	"strconv"
	"time"

	"github.com/hugolhafner/avro-enricher/codec"
	"github.com/hugolhafner/avro-enricher/dlq"
	"github.com/hugolhafner/avro-enricher/errorhandler"
	"github.com/hugolhafner/avro-enricher/logger"
	enricherotel "github.com/hugolhafner/avro-enricher/otel"
	"github.com/hugolhafner/avro-enricher/record"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Decoder decodes a single record. *codec.Codec satisfies it.
type Decoder interface {
	Decode(ctx context.Context, rec record.Record) codec.Outcome
}

var _ Decoder = (*codec.Codec)(nil)

// Result is the triage of one batch. Both slices keep input order.
type Result struct {
	Decoded []record.Decoded
	Failed  []codec.Failure
}

type Config struct {
	Logger       logger.Logger
	Telemetry    *enricherotel.Telemetry
	ErrorHandler errorhandler.Handler
}

type Option func(*Config)

func WithLogger(l logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func WithTelemetry(t *enricherotel.Telemetry) Option {
	return func(c *Config) {
		c.Telemetry = t
	}
}

// WithErrorHandler sets the policy consulted when a dead-letter send fails.
func WithErrorHandler(h errorhandler.Handler) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// Processor decodes batches and routes failures to a dead-letter sink. It
// holds no per-batch state and is safe for concurrent use when its Decoder
// and Sink are.
type Processor struct {
	decoder   Decoder
	sink      dlq.Sink
	handler   errorhandler.Handler
	logger    logger.Logger
	telemetry *enricherotel.Telemetry
}

func NewProcessor(decoder Decoder, sink dlq.Sink, opts ...Option) *Processor {
	cfg := Config{
		Logger:    logger.NewNoopLogger(),
		Telemetry: enricherotel.Noop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = errorhandler.LogAndFail(cfg.Logger)
	}

	return &Processor{
		decoder:   decoder,
		sink:      sink,
		handler:   cfg.ErrorHandler,
		logger:    cfg.Logger,
		telemetry: cfg.Telemetry,
	}
}

// Process decodes every record in order, then sends each failure to the
// dead-letter sink one at a time. Decode failures never abort the batch. A
// delivery failure the error handler does not retry is returned as a
// *DeliveryError and stops further sends.
func (p *Processor) Process(ctx context.Context, records []record.Record) (Result, error) {
	start := time.Now()

	ctx, span := p.telemetry.Tracer.Start(
		ctx, "enricher batch",
		trace.WithAttributes(enricherotel.AttrBatchSize.Int(len(records))),
	)
	defer span.End()

	p.telemetry.BatchSize.Record(ctx, int64(len(records)))

	result := Result{
		Decoded: make([]record.Decoded, 0, len(records)),
		Failed:  make([]codec.Failure, 0),
	}

	for _, rec := range records {
		outcome := p.decode(ctx, rec)
		if outcome.OK() {
			result.Decoded = append(result.Decoded, *outcome.Decoded)
			continue
		}
		result.Failed = append(result.Failed, *outcome.Failure)
	}

	p.logger.Info(
		"Batch decoded",
		"records", len(records),
		"decoded", len(result.Decoded),
		"failed", len(result.Failed),
	)

	for _, f := range result.Failed {
		if err := p.deadLetter(ctx, f); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dead-letter delivery failed")
			p.recordBatchDuration(ctx, start, enricherotel.StatusError)
			return result, err
		}
	}

	p.recordBatchDuration(ctx, start, enricherotel.StatusSuccess)
	return result, nil
}

func (p *Processor) decode(ctx context.Context, rec record.Record) codec.Outcome {
	// producer trace context, if any, is linked rather than adopted as parent
	producerCtx := p.telemetry.Propagator.Extract(context.Background(), enricherotel.NewRecordHeadersCarrier(rec.Headers))

	ctx, span := p.telemetry.Tracer.Start(
		ctx, rec.Topic+" decode",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithLinks(trace.LinkFromContext(producerCtx)),
		trace.WithAttributes(recordAttributes(rec)...),
	)
	defer span.End()

	outcome := p.decoder.Decode(ctx, rec)
	if outcome.OK() {
		p.telemetry.RecordsDecoded.Add(ctx, 1, metric.WithAttributes(enricherotel.AttrTopic.String(rec.Topic)))
		span.SetAttributes(enricherotel.AttrDecodeStatus.String(enricherotel.StatusSuccess))

		p.logger.Debug(
			"Record decoded",
			"topic", rec.Topic,
			"partition", rec.Partition,
			"offset", rec.Offset,
			"key", outcome.Decoded.Key,
		)
		return outcome
	}

	phase := errorhandler.PhaseForField(outcome.Failure.Err.Field)
	attrs := metric.WithAttributes(
		enricherotel.AttrTopic.String(rec.Topic),
		enricherotel.AttrErrorPhase.String(phase.String()),
	)
	p.telemetry.RecordsFailed.Add(ctx, 1, attrs)
	p.telemetry.Errors.Add(ctx, 1, attrs)

	span.RecordError(outcome.Failure.Err)
	span.SetStatus(codes.Error, "decode failed")
	span.SetAttributes(
		enricherotel.AttrDecodeStatus.String(enricherotel.StatusFailed),
		enricherotel.AttrErrorPhase.String(phase.String()),
	)

	p.logger.Error(
		"Record failed to decode",
		"error", outcome.Failure.Err,
		"phase", phase.String(),
		"topic", rec.Topic,
		"partition", rec.Partition,
		"offset", rec.Offset,
	)
	return outcome
}

func (p *Processor) deadLetter(ctx context.Context, f codec.Failure) error {
	ec := errorhandler.NewErrorContext(f.Record, f.Err).
		WithPhase(errorhandler.PhaseForField(f.Err.Field))

	for {
		err := p.send(ctx, ec)
		if err == nil {
			return nil
		}

		action := p.handler.Handle(
			ctx, ec.WithError(err).WithPhase(errorhandler.PhaseDelivery),
		)

		p.telemetry.Errors.Add(
			ctx, 1, metric.WithAttributes(
				enricherotel.AttrTopic.String(f.Record.Topic),
				enricherotel.AttrErrorPhase.String(errorhandler.PhaseDelivery.String()),
				enricherotel.AttrErrorAction.String(action.Type().String()),
			),
		)

		if action.Type() == errorhandler.ActionTypeRetry {
			ec = ec.IncrementAttempt()
			continue
		}

		return &DeliveryError{Record: f.Record, Attempt: ec.Attempt, Err: err}
	}
}

func (p *Processor) send(ctx context.Context, ec errorhandler.ErrorContext) error {
	start := time.Now()

	ctx, span := p.telemetry.Tracer.Start(
		ctx, ec.Record.Topic+" dead-letter",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(recordAttributes(ec.Record)...),
	)
	defer span.End()

	err := p.sink.Send(ctx, ec)

	status := enricherotel.StatusSuccess
	if err != nil {
		status = enricherotel.StatusError
		span.RecordError(err)
		span.SetStatus(codes.Error, "dead-letter send failed")
	}

	attrs := metric.WithAttributes(
		enricherotel.AttrTopic.String(ec.Record.Topic),
		enricherotel.AttrDLQStatus.String(status),
	)
	p.telemetry.DLQSent.Add(ctx, 1, attrs)
	p.telemetry.DLQDuration.Record(ctx, time.Since(start).Seconds(), attrs)

	return err
}

func (p *Processor) recordBatchDuration(ctx context.Context, start time.Time, status string) {
	p.telemetry.BatchDuration.Record(
		ctx, time.Since(start).Seconds(),
		metric.WithAttributes(enricherotel.AttrBatchStatus.String(status)),
	)
}

func recordAttributes(rec record.Record) []attribute.KeyValue {
	return []attribute.KeyValue{
		enricherotel.AttrSystem.String(enricherotel.SystemKafka),
		enricherotel.AttrTopic.String(rec.Topic),
		enricherotel.AttrPartition.String(strconv.FormatInt(int64(rec.Partition), 10)),
		enricherotel.AttrOffset.Int64(rec.Offset),
	}
}
