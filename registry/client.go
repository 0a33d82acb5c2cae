package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hugolhafner/avro-enricher/logger"
	"github.com/linkedin/goavro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var (
	ErrUnsupportedSchemaType = errors.New("registry: unsupported schema type")
	ErrSchemaReferences      = errors.New("registry: schema references are not supported")
)

// SchemaSource resolves writer schemas by ID. *sr.Client satisfies it.
type SchemaSource interface {
	SchemaByID(ctx context.Context, id int) (sr.Schema, error)
}

var _ SchemaSource = (*sr.Client)(nil)

type Config struct {
	Timeout   time.Duration
	UserAgent string
	Logger    logger.Logger
}

type Option func(*Config)

func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func defaultConfig() Config {
	return Config{
		Timeout:   10 * time.Second,
		UserAgent: "avro-enricher",
		Logger:    logger.NewNoopLogger(),
	}
}

// Client resolves Confluent schema IDs to compiled Avro codecs. Codecs are
// cached per ID for the life of the client.
type Client struct {
	source SchemaSource
	logger logger.Logger

	mu      sync.Mutex
	schemas map[int]*compiledSchema
}

type compiledSchema struct {
	codec  *goavro.Codec
	unions *unionUnwrapper
}

// NewClient connects a registry client using creds.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	srOpts := []sr.ClientOpt{
		sr.URLs(creds.URLs()...),
		sr.HTTPClient(&http.Client{Timeout: cfg.Timeout}),
		sr.UserAgent(cfg.UserAgent),
	}
	if user, pass, ok := creds.BasicAuth(); ok {
		srOpts = append(srOpts, sr.BasicAuth(user, pass))
	}

	src, err := sr.NewClient(srOpts...)
	if err != nil {
		return nil, fmt.Errorf("create schema registry client: %w", err)
	}

	if len(creds.Ignored) > 0 {
		cfg.Logger.Warn("Ignoring unsupported registry secret keys", "keys", strings.Join(creds.Ignored, ","))
	}
	cfg.Logger.Debug("Schema registry client created", "registry", creds.String())
	return NewClientWithSource(src, cfg.Logger), nil
}

func NewClientWithSource(src SchemaSource, l logger.Logger) *Client {
	if l == nil {
		l = logger.NewNoopLogger()
	}

	return &Client{
		source: src,
		logger: l,
		schemas: make(map[int]*compiledSchema),
	}
}

// Codec returns the Avro codec for schema id, fetching and compiling it on
// first use.
func (c *Client) Codec(ctx context.Context, id int) (*goavro.Codec, error) {
	cs, err := c.schema(ctx, id)
	if err != nil {
		return nil, err
	}
	return cs.codec, nil
}

func (c *Client) schema(ctx context.Context, id int) (*compiledSchema, error) {
	c.mu.Lock()
	cs, ok := c.schemas[id]
	c.mu.Unlock()
	if ok {
		return cs, nil
	}

	schema, err := c.source.SchemaByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch schema %d: %w", id, err)
	}

	if schema.Type != sr.TypeAvro {
		return nil, fmt.Errorf("schema %d is %s: %w", id, schema.Type, ErrUnsupportedSchemaType)
	}
	if len(schema.References) > 0 {
		return nil, fmt.Errorf("schema %d: %w", id, ErrSchemaReferences)
	}

	codec, err := goavro.NewCodec(schema.Schema)
	if err != nil {
		return nil, fmt.Errorf("compile schema %d: %w", id, err)
	}

	unions, err := newUnionUnwrapper(codec.Schema())
	if err != nil {
		return nil, fmt.Errorf("compile schema %d: %w", id, err)
	}
	cs = &compiledSchema{codec: codec, unions: unions}

	c.mu.Lock()
	if cached, ok := c.schemas[id]; ok {
		cs = cached
	} else {
		c.schemas[id] = cs
	}
	c.mu.Unlock()

	c.logger.Debug("Schema resolved", "schema_id", id)
	return cs, nil
}
