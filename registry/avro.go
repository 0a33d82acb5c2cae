package registry

import (
	"context"
	"fmt"

	"github.com/hugolhafner/avro-enricher/serde"
	"github.com/twmb/franz-go/pkg/sr"
)

var _ serde.Deserialiser[any] = (*AvroDeserialiser)(nil)

// AvroDeserialiser decodes Confluent framed Avro: a zero magic byte, a four byte
// big endian schema ID, then the Avro binary body. Union values are returned as
// the bare member value; null members decode to nil.
type AvroDeserialiser struct {
	client *Client
	field  serde.Field
	header sr.ConfluentHeader
}

func NewAvroDeserialiser(client *Client, field serde.Field) *AvroDeserialiser {
	return &AvroDeserialiser{
		client: client,
		field:  field,
	}
}

func (d *AvroDeserialiser) Deserialise(ctx context.Context, topic string, data []byte) (any, error) {
	subject := serde.Subject(topic, d.field)

	id, payload, err := d.header.DecodeID(data)
	if err != nil {
		return nil, fmt.Errorf("subject %s: wire header: %w", subject, err)
	}

	cs, err := d.client.schema(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("subject %s: %w", subject, err)
	}

	native, rest, err := cs.codec.NativeFromBinary(payload)
	if err != nil {
		return nil, fmt.Errorf("subject %s: schema %d: %w", subject, id, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("subject %s: schema %d: %d trailing bytes", subject, id, len(rest))
	}

	return cs.unions.Unwrap(native), nil
}
