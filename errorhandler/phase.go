package errorhandler

import (
	"github.com/hugolhafner/avro-enricher/serde"
)

// ErrorPhase indicates where in the pipeline an error occurred
type ErrorPhase int

const (
	PhaseUnknown  ErrorPhase = iota // zero value - uninitialized phase
	PhaseKey                        // error decoding the record key
	PhaseValue                      // error decoding the record value
	PhaseDelivery                   // error handing a failed record to the dead-letter sink
)

func (p ErrorPhase) String() string {
	switch p {
	case PhaseKey:
		return "key"
	case PhaseValue:
		return "value"
	case PhaseDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// PhaseForField maps a decode field to its phase.
func PhaseForField(f serde.Field) ErrorPhase {
	switch f {
	case serde.FieldKey:
		return PhaseKey
	case serde.FieldValue:
		return PhaseValue
	default:
		return PhaseUnknown
	}
}
