package codec

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/hugolhafner/avro-enricher/record"
	"github.com/hugolhafner/avro-enricher/serde"
)

var outputSerde = serde.JSON[any]()

// Codec turns the transport encoded key and value of a record into their
// decoded forms. It keeps no per-call state.
type Codec struct {
	key   serde.Deserialiser[string]
	value serde.Deserialiser[any]
}

// New returns a Codec. A nil key deserialiser defaults to serde.String.
func New(key serde.Deserialiser[string], value serde.Deserialiser[any]) *Codec {
	if key == nil {
		key = serde.String()
	}

	return &Codec{
		key:   key,
		value: value,
	}
}

// DecodeKey base64 decodes encoded and reads it as UTF-8 text.
func (c *Codec) DecodeKey(ctx context.Context, encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", NewDecodeError(serde.FieldKey, fmt.Errorf("base64: %w", err))
	}

	key, err := c.key.Deserialise(ctx, "", raw)
	if err != nil {
		return "", NewDecodeError(serde.FieldKey, err)
	}

	return key, nil
}

// DecodeValue base64 decodes encoded and hands the bytes to the value
// deserialiser scoped to topic.
func (c *Codec) DecodeValue(ctx context.Context, encoded string, topic string) (any, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, NewDecodeError(serde.FieldValue, fmt.Errorf("base64: %w", err))
	}

	value, err := c.value.Deserialise(ctx, topic, raw)
	if err != nil {
		return nil, NewDecodeError(serde.FieldValue, err)
	}

	// Decoded values leave the process as JSON; NaN and ±Inf have no JSON form.
	if _, err := outputSerde.Serialise(topic, value); err != nil {
		return nil, NewDecodeError(serde.FieldValue, fmt.Errorf("not representable as JSON: %w", err))
	}

	return value, nil
}

// Failure is a record that could not be decoded, kept in its original form.
type Failure struct {
	Record record.Record
	Err    *DecodeError
}

// Outcome is the result of decoding one record: exactly one of Decoded and
// Failure is set.
type Outcome struct {
	Decoded *record.Decoded
	Failure *Failure
}

func (o Outcome) OK() bool {
	return o.Decoded != nil
}

// Decode decodes the key and then the value of rec. rec is never modified; a
// failure carries a copy of it as received.
func (c *Codec) Decode(ctx context.Context, rec record.Record) Outcome {
	key, err := c.DecodeKey(ctx, rec.Key)
	if err != nil {
		return failed(rec, err)
	}

	value, err := c.DecodeValue(ctx, rec.Value, rec.Topic)
	if err != nil {
		return failed(rec, err)
	}

	d := rec.Decoded(key, value)
	return Outcome{Decoded: &d}
}

func failed(rec record.Record, err error) Outcome {
	de, ok := AsDecodeError(err)
	if !ok {
		de = &DecodeError{Field: serde.FieldValue, Cause: err}
	}

	return Outcome{
		Failure: &Failure{
			Record: rec.Copy(),
			Err:    de,
		},
	}
}
