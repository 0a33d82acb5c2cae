//go:build unit

package errorhandler_test

import (
	"testing"

	"github.com/hugolhafner/avro-enricher/errorhandler"
	"github.com/hugolhafner/avro-enricher/serde"
	"github.com/stretchr/testify/require"
)

func TestErrorPhase_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		phase    errorhandler.ErrorPhase
		expected string
	}{
		{errorhandler.PhaseUnknown, "unknown"},
		{errorhandler.PhaseKey, "key"},
		{errorhandler.PhaseValue, "value"},
		{errorhandler.PhaseDelivery, "delivery"},
		{errorhandler.ErrorPhase(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(
			tt.expected, func(t *testing.T) {
				t.Parallel()
				require.Equal(t, tt.expected, tt.phase.String())
			},
		)
	}
}

func TestPhaseForField(t *testing.T) {
	t.Parallel()
	require.Equal(t, errorhandler.PhaseKey, errorhandler.PhaseForField(serde.FieldKey))
	require.Equal(t, errorhandler.PhaseValue, errorhandler.PhaseForField(serde.FieldValue))
	require.Equal(t, errorhandler.PhaseUnknown, errorhandler.PhaseForField(serde.Field(42)))
}

func TestActionType_String(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Retry", errorhandler.ActionRetry{}.Type().String())
	require.Equal(t, "Fail", errorhandler.ActionFail{}.Type().String())
	require.Equal(t, "Unknown", errorhandler.ActionType(99).String())
}
