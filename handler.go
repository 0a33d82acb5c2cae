package enricher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hugolhafner/avro-enricher/batch"
	"github.com/hugolhafner/avro-enricher/errorhandler"
	"github.com/hugolhafner/avro-enricher/logger"
	enricherotel "github.com/hugolhafner/avro-enricher/otel"
	"github.com/hugolhafner/avro-enricher/record"
)

type Option func(*Handler)

func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

func WithTelemetry(t *enricherotel.Telemetry) Option {
	return func(h *Handler) {
		h.telemetry = t
	}
}

// WithDLQErrorHandler sets the policy for failed dead-letter sends. The
// default fails the invocation on the first failed send.
func WithDLQErrorHandler(eh errorhandler.Handler) Option {
	return func(h *Handler) {
		h.dlqHandler = eh
	}
}

// Handler is the invocation entry point. Dependencies are built on first use
// and reused for the life of the process.
type Handler struct {
	factory    DependencyFactory
	logger     logger.Logger
	telemetry  *enricherotel.Telemetry
	dlqHandler errorhandler.Handler

	mu   sync.Mutex
	deps *Dependencies
}

func NewHandler(factory DependencyFactory, opts ...Option) *Handler {
	h := &Handler{
		factory:   factory,
		logger:    logger.NewNoopLogger(),
		telemetry: enricherotel.Noop(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Handle decodes one raw batch and returns the decoded records as plain maps,
// in input order. Records that fail to decode are dead-lettered and left out.
// A malformed batch, a dependency failure or a failed dead-letter send fails
// the whole invocation.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) ([]map[string]any, error) {
	l := logger.FromContext(ctx, h.logger)

	records, err := record.ParseBatch(raw)
	if err != nil {
		l.Error("Rejected batch", "error", err)
		return nil, err
	}

	decoded, err := h.Process(ctx, records)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(decoded))
	for i, d := range decoded {
		out[i] = d.ToMap()
	}
	return out, nil
}

// Process runs already parsed records through the batch processor.
func (h *Handler) Process(ctx context.Context, records []record.Record) ([]record.Decoded, error) {
	l := logger.FromContext(ctx, h.logger)

	deps, err := h.dependencies(ctx, l)
	if err != nil {
		l.Error("Dependency initialisation failed", "error", err)
		return nil, err
	}

	opts := []batch.Option{
		batch.WithLogger(l),
		batch.WithTelemetry(h.telemetry),
	}
	if h.dlqHandler != nil {
		opts = append(opts, batch.WithErrorHandler(h.dlqHandler))
	}

	res, err := batch.NewProcessor(deps.Codec, deps.Sink, opts...).Process(ctx, records)
	if err != nil {
		l.Error("Batch failed", "error", err)
		return nil, err
	}

	return res.Decoded, nil
}

func (h *Handler) dependencies(ctx context.Context, l logger.Logger) (*Dependencies, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.deps != nil {
		return h.deps, nil
	}

	start := time.Now()
	deps, err := h.factory(ctx)
	if err != nil {
		return nil, &DependencyInitError{Err: err}
	}
	if deps == nil || deps.Codec == nil || deps.Sink == nil {
		if deps != nil && deps.Close != nil {
			deps.Close()
		}
		return nil, &DependencyInitError{Err: errors.New("factory returned incomplete dependencies")}
	}

	l.Info("Dependencies initialised", "duration", time.Since(start))
	h.deps = deps
	return deps, nil
}

// Close releases cached dependencies. A later invocation builds them again.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.deps == nil {
		return
	}
	if h.deps.Close != nil {
		h.deps.Close()
	}
	h.deps = nil
}
