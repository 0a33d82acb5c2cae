package errorhandler

import (
	"github.com/hugolhafner/avro-enricher/record"
)

// ErrorContext provides context about an error that occurred while handling a
// record. It contains all the information a handler or dead-letter sink needs.
type ErrorContext struct {
	// Record is a copy of the original, undecoded input record.
	Record record.Record

	// Error is the error that occurred.
	Error error

	// Attempt is the current attempt number, 1 indexed.
	Attempt int

	// Phase indicates where the error occurred.
	Phase ErrorPhase
}

func NewErrorContext(rec record.Record, err error) ErrorContext {
	return ErrorContext{
		Record:  rec.Copy(),
		Error:   err,
		Attempt: 1,
	}
}

func (ec ErrorContext) WithError(err error) ErrorContext {
	ec.Error = err
	return ec
}

func (ec ErrorContext) WithAttempt(attempt int) ErrorContext {
	ec.Attempt = attempt
	return ec
}

func (ec ErrorContext) WithPhase(phase ErrorPhase) ErrorContext {
	ec.Phase = phase
	return ec
}

func (ec ErrorContext) IncrementAttempt() ErrorContext {
	ec.Attempt++
	return ec
}

// ErrorMessage is Error.Error(), or empty when no error is set.
func (ec ErrorContext) ErrorMessage() string {
	if ec.Error == nil {
		return ""
	}
	return ec.Error.Error()
}
