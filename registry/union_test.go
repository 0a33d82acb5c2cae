//go:build unit

package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/sr"
)

const userSchema = `{
	"type": "record",
	"name": "User",
	"fields": [
		{"name": "id", "type": "long"},
		{"name": "email", "type": ["null", "string"], "default": null}
	]
}`

const customerSchema = `{
	"type": "record",
	"name": "Customer",
	"namespace": "com.acme",
	"fields": [
		{"name": "home", "type": {
			"type": "record",
			"name": "Address",
			"fields": [{"name": "city", "type": ["null", "string"]}]
		}},
		{"name": "work", "type": ["null", "Address"]},
		{"name": "billing", "type": ["null", "com.acme.Address"]}
	]
}`

const collectionsSchema = `{
	"type": "record",
	"name": "Collections",
	"fields": [
		{"name": "tags", "type": {"type": "array", "items": ["null", "long"]}},
		{"name": "attrs", "type": {"type": "map", "values": ["null", "string"]}},
		{"name": "status", "type": ["null", {"type": "enum", "name": "Status", "symbols": ["NEW", "DONE"]}]},
		{"name": "choice", "type": ["int", "string", "double"]}
	]
}`

const logicalSchema = `{
	"type": "record",
	"name": "Event",
	"fields": [
		{"name": "at", "type": ["null", {"type": "long", "logicalType": "timestamp-millis"}]},
		{"name": "day", "type": {"type": "int", "logicalType": "date"}}
	]
}`

func TestAvroDeserialiser_UnionShapes(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1698221925140).UTC()
	day := time.Date(2023, 10, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		schema string
		native any
		want   any
	}{
		{
			name:   "nullable field set",
			schema: userSchema,
			native: map[string]any{"id": int64(1), "email": goavro.Union("string", "a@b.c")},
			want:   map[string]any{"id": int64(1), "email": "a@b.c"},
		},
		{
			name:   "nullable field null",
			schema: userSchema,
			native: map[string]any{"id": int64(2), "email": nil},
			want:   map[string]any{"id": int64(2), "email": nil},
		},
		{
			name:   "named record members and references",
			schema: customerSchema,
			native: map[string]any{
				"home":    map[string]any{"city": goavro.Union("string", "Oslo")},
				"work":    goavro.Union("com.acme.Address", map[string]any{"city": nil}),
				"billing": goavro.Union("com.acme.Address", map[string]any{"city": goavro.Union("string", "Bergen")}),
			},
			want: map[string]any{
				"home":    map[string]any{"city": "Oslo"},
				"work":    map[string]any{"city": nil},
				"billing": map[string]any{"city": "Bergen"},
			},
		},
		{
			name:   "arrays maps enums and multi-type unions",
			schema: collectionsSchema,
			native: map[string]any{
				"tags":   []any{goavro.Union("long", int64(7)), nil},
				"attrs":  map[string]any{"k": goavro.Union("string", "v"), "empty": nil},
				"status": goavro.Union("Status", "DONE"),
				"choice": goavro.Union("double", 1.5),
			},
			want: map[string]any{
				"tags":   []any{int64(7), nil},
				"attrs":  map[string]any{"k": "v", "empty": nil},
				"status": "DONE",
				"choice": 1.5,
			},
		},
		{
			name:   "logical types",
			schema: logicalSchema,
			native: map[string]any{
				"at":  goavro.Union("long.timestamp-millis", at),
				"day": day,
			},
			want: map[string]any{"at": at, "day": day},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := &fakeSource{schemas: map[int]sr.Schema{100001: {Schema: tt.schema}}}
			d := newDeserialiser(src)

			got, err := d.Deserialise(context.Background(), "users", frameWithSchema(t, tt.schema, 100001, tt.native))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAvroDeserialiser_TopLevelUnion(t *testing.T) {
	t.Parallel()

	schema := `["null", "string"]`
	src := &fakeSource{schemas: map[int]sr.Schema{5: {Schema: schema}}}
	d := newDeserialiser(src)

	got, err := d.Deserialise(context.Background(), "notes", frameWithSchema(t, schema, 5, goavro.Union("string", "hi")))
	require.NoError(t, err)
	require.Equal(t, "hi", got)

	got, err = d.Deserialise(context.Background(), "notes", frameWithSchema(t, schema, 5, nil))
	require.NoError(t, err)
	require.Nil(t, got)
}
