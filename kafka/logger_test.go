//go:build unit

package kafka

import (
	"testing"

	"github.com/hugolhafner/avro-enricher/logger"
	mocklogger "github.com/hugolhafner/avro-enricher/logger/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestKgoLogger_LevelMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level logger.LogLevel
		kgo   kgo.LogLevel
	}{
		{logger.DebugLevel, kgo.LogLevelDebug},
		{logger.InfoLevel, kgo.LogLevelInfo},
		{logger.WarnLevel, kgo.LogLevelWarn},
		{logger.ErrorLevel, kgo.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(
			tt.level.String(), func(t *testing.T) {
				t.Parallel()
				require.Equal(t, tt.kgo, mapToKgoLevel(tt.level))
				require.Equal(t, tt.level, mapFromKgoLevel(tt.kgo))
			},
		)
	}

	require.Equal(t, logger.WarnLevel, mapFromKgoLevel(kgo.LogLevelNone))
}

func TestKgoLogger_Log(t *testing.T) {
	l := mocklogger.New()
	kl := newKgoLogger(l)

	kl.Log(kgo.LogLevelError, "unable to connect", "broker", "b-1")
	l.AssertCalledWithLevelAndMessage(t, logger.ErrorLevel, "unable to connect")
	l.AssertField(t, "unable to connect", "broker", "b-1")
}
