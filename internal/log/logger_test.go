package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env, level string
		want       zapcore.Level
	}{
		{"dev", "", zapcore.DebugLevel},
		{"test", "", zapcore.DebugLevel},
		{"prod", "", zapcore.InfoLevel},
		{"prod", "warn", zapcore.WarnLevel},
		{"dev", "error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			logger, err := NewLogger(tt.env, tt.level)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("dev", "chatty")
	assert.Error(t, err)

	_, err = NewSugar("prod", "chatty")
	assert.Error(t, err)
}

func TestNewSugar(t *testing.T) {
	logger, err := NewSugar("prod", "info")
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Infow("logger ready")
}
