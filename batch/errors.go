package batch

import (
	"errors"
	"fmt"

	"github.com/hugolhafner/avro-enricher/record"
)

// DeliveryError is returned when a failed record could not be handed to the
// dead-letter sink. The invocation must fail: the record would otherwise be lost.
type DeliveryError struct {
	Record  record.Record
	Attempt int
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf(
		"dead-letter delivery failed for %s offset %d after %d attempt(s): %v",
		e.Record.TopicPartition(), e.Record.Offset, e.Attempt, e.Err,
	)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func AsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
