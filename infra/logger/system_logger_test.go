package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	events chan any
	err    error
}

func newFakeSink() *fakeSink {
	return &fakeSink{events: make(chan any, 10)}
}

func (f *fakeSink) LogSystemEvent(ctx context.Context, event any) error {
	f.events <- event
	return f.err
}

func newBufferedLogger(minLevel LogLevel, sink EventSink) (*SystemLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := NewSystemLogger(sink, SystemLoggerConfig{
		EnableConsole:    true,
		EnableOpenSearch: sink != nil,
		MinLevel:         minLevel,
		Service:          "test-service",
		Version:          "1.0.0",
		Environment:      "test",
		Output:           buf,
	})
	return logger, buf
}

func TestNewSystemLogger(t *testing.T) {
	config := SystemLoggerConfig{
		EnableConsole:    true,
		EnableOpenSearch: true,
		MinLevel:         LevelWarn,
		Service:          "test-service",
		Version:          "1.0.0",
		Environment:      "test",
	}

	logger := NewSystemLogger(nil, config)

	require.NotNil(t, logger)
	assert.True(t, logger.enableConsole)
	assert.False(t, logger.enableOpenSearch, "OpenSearch needs a sink")
	assert.Equal(t, LevelWarn, logger.minLevel)
	assert.Equal(t, "test-service", logger.service)
	assert.Equal(t, "1.0.0", logger.version)
	assert.Equal(t, "test", logger.environment)
	assert.NotNil(t, logger.console)
}

func TestNewSystemLogger_DefaultsMinLevel(t *testing.T) {
	logger := NewSystemLogger(nil, SystemLoggerConfig{})
	assert.Equal(t, LevelInfo, logger.minLevel)
}

func TestSystemLogger_ConsoleOutput(t *testing.T) {
	logger, buf := newBufferedLogger(LevelDebug, nil)

	logger.Debug("requesting url https://test.saferpay.com/api", LogContext{Provider: "saferpay", Operation: "CreatePayInit"})
	logger.Critical("request failed with statuscode 500", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "requesting url https://test.saferpay.com/api")
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "saferpay")
	assert.Contains(t, out, "CreatePayInit")
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "request failed with statuscode 500")
	assert.Contains(t, out, "boom")
}

func TestSystemLogger_LogLevels(t *testing.T) {
	logger, buf := newBufferedLogger(LevelWarn, nil)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", errors.New("test error"))
	logger.Log(LevelCritical, "critical message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "test error")
	assert.Contains(t, out, "critical message")
}

func TestSystemLogger_ErrorDoesNotMutateContext(t *testing.T) {
	logger, _ := newBufferedLogger(LevelDebug, nil)

	fields := map[string]any{"key": "value"}
	logger.Error("error message", errors.New("test error"), LogContext{Fields: fields})

	assert.Equal(t, map[string]any{"key": "value"}, fields)
}

func TestSystemLogger_ForwardsToSink(t *testing.T) {
	sink := newFakeSink()
	logger, _ := newBufferedLogger(LevelInfo, sink)

	logger.Critical("no transaction id given", errors.New("precondition"), LogContext{
		Provider:  "saferpay",
		Operation: "PayCompleteV2",
		RequestID: "req-123",
	})

	select {
	case event := <-sink.events:
		entry, ok := event.(SystemLog)
		require.True(t, ok)
		assert.Equal(t, LevelCritical, entry.Level)
		assert.Equal(t, "no transaction id given", entry.Message)
		assert.Equal(t, "saferpay", entry.Provider)
		assert.Equal(t, "PayCompleteV2", entry.Operation)
		assert.Equal(t, "req-123", entry.RequestID)
		assert.Equal(t, "precondition", entry.Error)
		assert.Equal(t, "test-service", entry.Service)
		assert.Equal(t, "infra/logger", entry.Component)
		assert.Equal(t, "TestSystemLogger_ForwardsToSink", entry.Function)
	case <-time.After(2 * time.Second):
		t.Fatal("sink did not receive the entry")
	}
}

func TestSystemLogger_SinkFailureIsSwallowed(t *testing.T) {
	sink := newFakeSink()
	sink.err = errors.New("opensearch down")
	logger, _ := newBufferedLogger(LevelInfo, sink)

	logger.Info("still fine")

	select {
	case <-sink.events:
	case <-time.After(2 * time.Second):
		t.Fatal("sink did not receive the entry")
	}
}

func TestSystemLogger_ShouldLog(t *testing.T) {
	tests := []struct {
		name     string
		minLevel LogLevel
		level    LogLevel
		expected bool
	}{
		{"debug_level_allows_all", LevelDebug, LevelDebug, true},
		{"info_level_blocks_debug", LevelInfo, LevelDebug, false},
		{"info_level_allows_info", LevelInfo, LevelInfo, true},
		{"warn_level_allows_error", LevelWarn, LevelError, true},
		{"error_level_blocks_warn", LevelError, LevelWarn, false},
		{"error_level_allows_critical", LevelError, LevelCritical, true},
		{"critical_level_blocks_error", LevelCritical, LevelError, false},
		{"fatal_level_allows_fatal", LevelFatal, LevelFatal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewSystemLogger(nil, SystemLoggerConfig{MinLevel: tt.minLevel})
			assert.Equal(t, tt.expected, logger.shouldLog(tt.level))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warn ", LevelWarn},
		{"critical", LevelCritical},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestSystemLogger_ExtractComponent(t *testing.T) {
	logger := NewSystemLogger(nil, SystemLoggerConfig{})

	tests := []struct {
		name     string
		file     string
		expected string
	}{
		{"provider_package", "/src/saferpay/provider/saferpay/saferpay.go", "provider/saferpay"},
		{"provider_root", "/src/saferpay/provider/collection.go", "provider"},
		{"infra_package", "/home/dev/work/infra/middle/panic.go", "infra/middle"},
		{"cmd", "/src/saferpay/cmd/main.go", "cmd"},
		{"unknown_root", "/tmp/somewhere/file.go", "somewhere"},
		{"bare_file", "file.go", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, logger.extractComponent(tt.file))
		})
	}
}

func TestContextLogger(t *testing.T) {
	logger, buf := newBufferedLogger(LevelDebug, nil)

	cl := logger.WithContext(LogContext{Provider: "saferpay"}).
		SetOperation("VerifyPayConfirm").
		SetRequestID("req-456").
		AddField("accountId", "99867-94913159")

	cl.Info("confirm verified")
	cl.Log(LevelWarn, "skipping attribute", LogContext{Fields: map[string]any{"attribute": "FOO"}})
	cl.Critical("invalid xml", errors.New("EOF"))

	out := buf.String()
	assert.Contains(t, out, "confirm verified")
	assert.Contains(t, out, "VerifyPayConfirm")
	assert.Contains(t, out, "req-456")
	assert.Contains(t, out, "99867-94913159")
	assert.Contains(t, out, "FOO")
	assert.Contains(t, out, "invalid xml")
	assert.Contains(t, out, "EOF")

	_, ok := cl.context.Fields["attribute"]
	assert.False(t, ok, "per-call fields must not leak into the bound context")
}
