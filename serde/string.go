package serde

import (
	"context"
	"errors"
	"unicode/utf8"
)

var ErrInvalidUTF8 = errors.New("serde: invalid utf-8")

var _ Serde[string] = stringSerde{}

type stringSerde struct{}

// String returns a Serde for UTF-8 text. Deserialising bytes that are not
// valid UTF-8 fails with ErrInvalidUTF8.
func String() Serde[string] {
	return stringSerde{}
}

func (s stringSerde) Serialise(_ string, value string) ([]byte, error) {
	return []byte(value), nil
}

func (s stringSerde) Deserialise(_ context.Context, _ string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}
