package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup("authsvc", "1.0.0", "json", "info", &buf)
	require.NoError(t, err)

	logger.Info("test message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "Failed to parse JSON: %s", buf.String())
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "authsvc", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup("authsvc", "1.0.0", "text", "", &buf)
	require.NoError(t, err)

	logger.Info("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), "authsvc")
}

func TestSetup_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup("authsvc", "1.0.0", "json", "warn", &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetup_Invalid(t *testing.T) {
	_, err := Setup("authsvc", "1.0.0", "xml", "info", nil)
	assert.Error(t, err)

	_, err = Setup("authsvc", "1.0.0", "json", "loud", nil)
	assert.Error(t, err)
}

func TestHandler_RequestAndTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup("authsvc", "1.0.0", "json", "debug", &buf)
	require.NoError(t, err)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)
	ctx = WithRequestID(ctx, "01HZX3K5J8")

	logger.InfoContext(ctx, "traced message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
	assert.Equal(t, "01HZX3K5J8", entry["request_id"])
}

func TestHandler_WithAttrsKeepsService(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup("authsvc", "2.0.0", "json", "", &buf)
	require.NoError(t, err)

	logger.With("component", "httpapi").WithGroup("req").Info("grouped", "path", "/login")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "httpapi", entry["component"])
	req, ok := entry["req"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/login", req["path"])
	// Attributes added at Handle time land inside the open group.
	assert.Equal(t, "authsvc", req["service"])
}
