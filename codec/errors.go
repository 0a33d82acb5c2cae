package codec

import (
	"errors"

	"github.com/hugolhafner/avro-enricher/serde"
)

// DecodeError wraps a failure to decode one half of a record.
type DecodeError struct {
	Field serde.Field
	Cause error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Field.String() + ": " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func NewDecodeError(field serde.Field, cause error) error {
	return &DecodeError{Field: field, Cause: cause}
}

func AsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
