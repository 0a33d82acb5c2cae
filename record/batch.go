package record

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// BatchError reports a batch whose shape is invalid. Index is -1 when the
// payload as a whole could not be read.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	if e.Index < 0 {
		return "invalid batch: " + e.Err.Error()
	}
	return fmt.Sprintf("invalid batch: record %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func AsBatchError(err error) (*BatchError, bool) {
	var be *BatchError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// wireRecord uses pointers so that a missing field can be told apart from a
// zero value.
type wireRecord struct {
	EventSource      *string `json:"eventSource" validate:"required"`
	BootstrapServers *string `json:"bootstrapServers" validate:"required"`
	EventSourceKey   *string `json:"eventSourceKey" validate:"required"`
	Topic            *string `json:"topic" validate:"required"`
	Partition        *int32  `json:"partition" validate:"required"`
	Offset           *int64  `json:"offset" validate:"required"`
	Timestamp        *int64  `json:"timestamp" validate:"required"`
	TimestampType    *string `json:"timestampType" validate:"required"`
	Key              *string `json:"key" validate:"required"`
	Value            *string `json:"value" validate:"required"`
	Headers          Headers `json:"headers" validate:"required"`
}

func (w wireRecord) toRecord() Record {
	return Record{
		EventSource:      *w.EventSource,
		BootstrapServers: *w.BootstrapServers,
		EventSourceKey:   *w.EventSourceKey,
		Topic:            *w.Topic,
		Partition:        *w.Partition,
		Offset:           *w.Offset,
		Timestamp:        *w.Timestamp,
		TimestampType:    *w.TimestampType,
		Key:              *w.Key,
		Value:            *w.Value,
		Headers:          w.Headers,
	}
}

// ParseBatch reads a raw batch payload into typed records. Every field of every
// record is required; unknown fields are ignored.
func ParseBatch(raw []byte) ([]Record, error) {
	var wire []json.RawMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &BatchError{Index: -1, Err: err}
	}
	if wire == nil {
		return nil, &BatchError{Index: -1, Err: errors.New("batch must be a JSON array")}
	}

	records := make([]Record, 0, len(wire))
	for i, msg := range wire {
		var w wireRecord
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		if err := validate.Struct(w); err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		records = append(records, w.toRecord())
	}

	return records, nil
}
