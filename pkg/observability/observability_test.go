package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json with service attributes and correlation id", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Level:          LogLevelDebug,
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "cadence-test",
			ServiceVersion: "1.2.3",
		})

		ctx := WithOperation(WithCorrelationID(context.Background(), "corr-1"), "prioritize")
		logger.DebugContext(ctx, "ranked", "count", 3)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "ranked", entry["msg"])
		assert.Equal(t, "cadence-test", entry["service"])
		assert.Equal(t, "1.2.3", entry["version"])
		assert.Equal(t, "corr-1", entry[CorrelationIDKey])
		assert.Equal(t, "prioritize", entry[OperationKey])
		assert.Equal(t, float64(3), entry["count"])
	})

	t.Run("level filters records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelWarn, Output: &buf})

		logger.Info("hidden")
		assert.Zero(t, buf.Len())

		logger.With("component", "worker").Warn("shown")
		assert.Contains(t, buf.String(), "shown")
		assert.Contains(t, buf.String(), "component=worker")
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerFromEnv(t *testing.T) {
	t.Setenv("CADENCE_ENV", "production")
	t.Setenv("CADENCE_LOG_LEVEL", "debug")
	t.Setenv("CADENCE_LOG_FORMAT", "")
	t.Setenv("CADENCE_VERSION", "")

	logger := LoggerFromEnv()
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationIDFromContext(ctx))

	generated := CorrelationIDFromContext(WithCorrelationID(ctx, ""))
	assert.Len(t, generated, 36)

	assert.Equal(t, "abc", CorrelationIDFromContext(WithCorrelationID(ctx, "abc")))
	assert.Empty(t, OperationFromContext(ctx))
}

func TestHealthRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("empty registry is healthy", func(t *testing.T) {
		assert.Equal(t, HealthStatusHealthy, NewHealthRegistry().Check(ctx).Status)
	})

	t.Run("degraded dependency", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return nil }))
		r.Register("redis", PingChecker("redis", HealthStatusDegraded, func(context.Context) error { return errors.New("refused") }))

		health := r.Check(ctx)

		assert.Equal(t, HealthStatusDegraded, health.Status)
		assert.Equal(t, []string{"database", "redis"}, r.Names())
		assert.Equal(t, "redis connection failed: refused", health.Checks["redis"].Message)
	})

	t.Run("handler returns 503 when unhealthy", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return errors.New("gone") }))

		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var health OverallHealth
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		assert.Equal(t, HealthStatusUnhealthy, health.Status)
	})

	t.Run("handler returns 200 when healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthRegistry().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
