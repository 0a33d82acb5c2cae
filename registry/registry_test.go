//go:build unit

package registry_test

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/hugolhafner/avro-enricher/logger"
	mocklogger "github.com/hugolhafner/avro-enricher/logger/mock"
	"github.com/hugolhafner/avro-enricher/registry"
	"github.com/hugolhafner/avro-enricher/serde"
	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/sr"
)

const orderSchema = `{
	"type": "record",
	"name": "Order",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "quantity", "type": "int"}
	]
}`

type fakeSource struct {
	mu      sync.Mutex
	schemas map[int]sr.Schema
	err     error
	calls   int
}

func (f *fakeSource) SchemaByID(_ context.Context, id int) (sr.Schema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return sr.Schema{}, f.err
	}
	s, ok := f.schemas[id]
	if !ok {
		return sr.Schema{}, errors.New("schema not found")
	}
	return s, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func frame(t *testing.T, id int, native any) []byte {
	t.Helper()
	return frameWithSchema(t, orderSchema, id, native)
}

func frameWithSchema(t *testing.T, schema string, id int, native any) []byte {
	t.Helper()

	codec, err := goavro.NewCodec(schema)
	require.NoError(t, err)

	body, err := codec.BinaryFromNative(nil, native)
	require.NoError(t, err)

	out := make([]byte, 5, 5+len(body))
	binary.BigEndian.PutUint32(out[1:], uint32(id))
	return append(out, body...)
}

func newDeserialiser(src *fakeSource) *registry.AvroDeserialiser {
	return registry.NewAvroDeserialiser(registry.NewClientWithSource(src, nil), serde.FieldValue)
}

func TestAvroDeserialiser_Decodes(t *testing.T) {
	src := &fakeSource{schemas: map[int]sr.Schema{390: {Schema: orderSchema}}}
	d := newDeserialiser(src)

	data := frame(t, 390, map[string]any{"id": "12435", "quantity": 3})
	got, err := d.Deserialise(context.Background(), "orders", data)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"id": "12435", "quantity": int32(3)}, got)
}

func TestAvroDeserialiser_CachesCodecs(t *testing.T) {
	src := &fakeSource{schemas: map[int]sr.Schema{7: {Schema: orderSchema}}}
	d := newDeserialiser(src)
	data := frame(t, 7, map[string]any{"id": "a", "quantity": 1})

	for i := 0; i < 5; i++ {
		_, err := d.Deserialise(context.Background(), "orders", data)
		require.NoError(t, err)
	}
	require.Equal(t, 1, src.Calls())
}

func TestAvroDeserialiser_Errors(t *testing.T) {
	t.Parallel()

	valid := func(t *testing.T, id int) []byte {
		return frame(t, id, map[string]any{"id": "a", "quantity": 1})
	}

	tests := []struct {
		name    string
		schemas map[int]sr.Schema
		srcErr  error
		data    func(t *testing.T) []byte
		target  error
		message string
	}{
		{
			name: "too short",
			data: func(*testing.T) []byte { return []byte{0, 0, 1} },
		},
		{
			name: "bad magic byte",
			data: func(t *testing.T) []byte {
				b := valid(t, 1)
				b[0] = 1
				return b
			},
		},
		{
			name:    "registry unavailable",
			srcErr:  errors.New("connection refused"),
			data:    func(t *testing.T) []byte { return valid(t, 1) },
			message: "connection refused",
		},
		{
			name:    "protobuf schema",
			schemas: map[int]sr.Schema{1: {Schema: "syntax = \"proto3\";", Type: sr.TypeProtobuf}},
			data:    func(t *testing.T) []byte { return valid(t, 1) },
			target:  registry.ErrUnsupportedSchemaType,
		},
		{
			name: "schema references",
			schemas: map[int]sr.Schema{1: {
				Schema:     orderSchema,
				References: []sr.SchemaReference{{Name: "Other", Subject: "other-value", Version: 1}},
			}},
			data:   func(t *testing.T) []byte { return valid(t, 1) },
			target: registry.ErrSchemaReferences,
		},
		{
			name:    "invalid schema",
			schemas: map[int]sr.Schema{1: {Schema: `{"type": "nope"}`}},
			data:    func(t *testing.T) []byte { return valid(t, 1) },
			message: "compile schema 1",
		},
		{
			name:    "truncated body",
			schemas: map[int]sr.Schema{1: {Schema: orderSchema}},
			data: func(t *testing.T) []byte {
				b := valid(t, 1)
				return b[:len(b)-1]
			},
			message: "schema 1",
		},
		{
			name:    "trailing bytes",
			schemas: map[int]sr.Schema{1: {Schema: orderSchema}},
			data: func(t *testing.T) []byte {
				return append(valid(t, 1), 0x00, 0x01)
			},
			message: "2 trailing bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newDeserialiser(&fakeSource{schemas: tt.schemas, err: tt.srcErr})
			_, err := d.Deserialise(context.Background(), "orders", tt.data(t))
			require.Error(t, err)
			require.Contains(t, err.Error(), "subject orders-value")
			if tt.target != nil {
				require.ErrorIs(t, err, tt.target)
			}
			if tt.message != "" {
				require.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestClient_ConcurrentCodec(t *testing.T) {
	src := &fakeSource{schemas: map[int]sr.Schema{3: {Schema: orderSchema}}}
	c := registry.NewClientWithSource(src, nil)

	var wg sync.WaitGroup
	codecs := make([]*goavro.Codec, 16)
	errs := make([]error, len(codecs))
	for i := range codecs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codecs[i], errs[i] = c.Codec(context.Background(), 3)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	codec, err := c.Codec(context.Background(), 3)
	require.NoError(t, err)
	for _, got := range codecs {
		require.NotNil(t, got)
		require.Equal(t, codec.Schema(), got.Schema())
	}
}

func TestParseCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantURLs []string
		wantUser string
		wantPass string
		wantAuth bool
		wantErr  bool

		wantIgnored []string
	}{
		{
			name:     "url only",
			input:    `{"url": "https://sr.example.com"}`,
			wantURLs: []string{"https://sr.example.com"},
		},
		{
			name:     "with basic auth",
			input:    `{"url": "https://sr.example.com", "basic.auth.user.info": "KEY:SECRET:WITH:COLONS"}`,
			wantURLs: []string{"https://sr.example.com"},
			wantUser: "KEY",
			wantPass: "SECRET:WITH:COLONS",
			wantAuth: true,
		},
		{
			name:     "multiple urls",
			input:    `{"url": "https://a.example.com, https://b.example.com"}`,
			wantURLs: []string{"https://a.example.com", "https://b.example.com"},
		},
		{
			name:        "unsupported keys are listed",
			input:       `{"url": "https://sr", "ssl.ca.location": "/ca.pem", "basic.auth.credentials.source": "USER_INFO"}`,
			wantURLs:    []string{"https://sr"},
			wantIgnored: []string{"basic.auth.credentials.source", "ssl.ca.location"},
		},
		{name: "missing url", input: `{"basic.auth.user.info": "k:s"}`, wantErr: true},
		{name: "blank url", input: `{"url": " , "}`, wantErr: true},
		{name: "auth without separator", input: `{"url": "https://sr", "basic.auth.user.info": "nocolon"}`, wantErr: true},
		{name: "not json", input: `url=https://sr`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := registry.ParseCredentials([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantURLs, c.URLs())

			user, pass, ok := c.BasicAuth()
			require.Equal(t, tt.wantAuth, ok)
			require.Equal(t, tt.wantUser, user)
			require.Equal(t, tt.wantPass, pass)
			require.Equal(t, tt.wantIgnored, c.Ignored)
		})
	}
}

func TestCredentials_StringHidesSecret(t *testing.T) {
	c := registry.Credentials{URL: "https://sr", BasicAuthUserInfo: "key:topsecret"}
	require.NotContains(t, c.String(), "topsecret")
	require.Contains(t, c.String(), "key")
}

func TestNewClient_RejectsInvalidCredentials(t *testing.T) {
	_, err := registry.NewClient(registry.Credentials{})
	require.Error(t, err)
}

func TestNewClient_WarnsOnUnsupportedSecretKeys(t *testing.T) {
	creds, err := registry.ParseCredentials([]byte(`{"url": "https://sr.example.com", "ssl.ca.location": "/ca.pem"}`))
	require.NoError(t, err)

	l := mocklogger.New()
	_, err = registry.NewClient(creds, registry.WithLogger(l))
	require.NoError(t, err)

	l.AssertCalledWithLevelAndMessage(t, logger.WarnLevel, "Ignoring unsupported registry secret keys")
	l.AssertField(t, "Ignoring unsupported registry secret keys", "keys", "ssl.ca.location")
}

func TestNewClient_NoWarningForKnownKeys(t *testing.T) {
	creds, err := registry.ParseCredentials([]byte(`{"url": "https://sr.example.com", "basic.auth.user.info": "k:s"}`))
	require.NoError(t, err)

	l := mocklogger.New()
	_, err = registry.NewClient(creds, registry.WithLogger(l))
	require.NoError(t, err)

	l.AssertNotCalledWithLevel(t, logger.WarnLevel)
}
