package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Level(t *testing.T) {
	log, err := NewLogger("debug", "json")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = NewLogger("nonsense", "console")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestLoggerConfig_SingleLine(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := loggerConfig("info", format)
		assert.True(t, cfg.DisableStacktrace, format)
		assert.Equal(t, "ts", cfg.EncoderConfig.TimeKey)
	}
	assert.Equal(t, "console", loggerConfig("info", "console").Encoding)
	assert.Equal(t, "json", loggerConfig("info", "").Encoding)
}

func TestRegisterAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterAll(reg) })

	HeartbeatTotal.WithLabelValues("ok").Inc()
	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["streaming_lag_heartbeat_total"])
	assert.True(t, names["streaming_lag_precision_milliseconds"])
}
