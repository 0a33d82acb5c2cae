package serde

import "context"

// Field tells a deserialiser which half of a record it is decoding. Schema
// lookups are scoped by topic and field.
type Field int

const (
	FieldKey Field = iota
	FieldValue
)

func (f Field) String() string {
	switch f {
	case FieldKey:
		return "key"
	case FieldValue:
		return "value"
	default:
		return "unknown"
	}
}

// Subject returns the registry subject for topic under the topic name strategy.
func Subject(topic string, field Field) string {
	return topic + "-" + field.String()
}

type Serde[T any] interface {
	Serialiser[T]
	Deserialiser[T]
}

type Serialiser[T any] interface {
	Serialise(topic string, value T) ([]byte, error)
}

type Deserialiser[T any] interface {
	Deserialise(ctx context.Context, topic string, data []byte) (T, error)
}

// DeserialiserFunc adapts a function to a Deserialiser.
type DeserialiserFunc[T any] func(ctx context.Context, topic string, data []byte) (T, error)

func (f DeserialiserFunc[T]) Deserialise(ctx context.Context, topic string, data []byte) (T, error) {
	return f(ctx, topic, data)
}
