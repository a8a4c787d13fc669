package logger

import (
	"context"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug    LogLevel = "debug"
	LevelInfo     LogLevel = "info"
	LevelWarn     LogLevel = "warn"
	LevelError    LogLevel = "error"
	LevelCritical LogLevel = "critical"
	LevelFatal    LogLevel = "fatal"
)

var levelOrder = map[LogLevel]int{
	LevelDebug:    0,
	LevelInfo:     1,
	LevelWarn:     2,
	LevelError:    3,
	LevelCritical: 4,
	LevelFatal:    5,
}

// ParseLevel maps a configured level name to a LogLevel, falling back to info
func ParseLevel(name string) LogLevel {
	level := LogLevel(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := levelOrder[level]; ok {
		return level
	}
	return LevelInfo
}

// SystemLog represents a structured system log entry
type SystemLog struct {
	Timestamp   time.Time      `json:"timestamp"`
	Level       LogLevel       `json:"level"`
	Message     string         `json:"message"`
	Component   string         `json:"component"`
	Function    string         `json:"function"`
	File        string         `json:"file"`
	Line        int            `json:"line"`
	Provider    string         `json:"provider,omitempty"`
	Operation   string         `json:"operation,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	Error       string         `json:"error,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	Environment string         `json:"environment"`
	Service     string         `json:"service"`
	Version     string         `json:"version"`
}

// EventSink receives system log entries, e.g. *opensearch.Logger
type EventSink interface {
	LogSystemEvent(ctx context.Context, event any) error
}

// SystemLogger handles structured logging to OpenSearch and console
type SystemLogger struct {
	sink             EventSink
	console          zapcore.Core
	enableConsole    bool
	enableOpenSearch bool
	minLevel         LogLevel
	service          string
	version          string
	environment      string
}

// SystemLoggerConfig represents configuration for system logger
type SystemLoggerConfig struct {
	EnableConsole    bool
	EnableOpenSearch bool
	MinLevel         LogLevel
	Service          string
	Version          string
	Environment      string
	// Output receives console lines, os.Stdout when nil
	Output io.Writer
}

// NewSystemLogger creates a new system logger
func NewSystemLogger(sink EventSink, config SystemLoggerConfig) *SystemLogger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	if config.MinLevel == "" {
		config.MinLevel = LevelInfo
	}

	return &SystemLogger{
		sink:             sink,
		console:          newConsoleCore(out),
		enableConsole:    config.EnableConsole,
		enableOpenSearch: config.EnableOpenSearch && sink != nil,
		minLevel:         config.MinLevel,
		service:          config.Service,
		version:          config.Version,
		environment:      config.Environment,
	}
}

func newConsoleCore(out io.Writer) zapcore.Core {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = encodeLevel
	encoderCfg.NameKey = "component"

	// Level filtering happens in shouldLog
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(out), zapcore.DebugLevel)
}

// encodeLevel prints DPANIC entries as CRITICAL
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == zapcore.DPanicLevel {
		enc.AppendString("\x1b[35mCRITICAL\x1b[0m")
		return
	}
	zapcore.CapitalColorLevelEncoder(l, enc)
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelCritical:
		return zapcore.DPanicLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// LogContext holds contextual information for logging
type LogContext struct {
	Provider  string
	Operation string
	RequestID string
	Fields    map[string]any
}

// Log writes a message at the given level
func (sl *SystemLogger) Log(level LogLevel, message string, ctx ...LogContext) {
	sl.emit(2, level, message, ctx...)
}

// Debug logs a debug message
func (sl *SystemLogger) Debug(message string, ctx ...LogContext) {
	sl.emit(2, LevelDebug, message, ctx...)
}

// Info logs an info message
func (sl *SystemLogger) Info(message string, ctx ...LogContext) {
	sl.emit(2, LevelInfo, message, ctx...)
}

// Warn logs a warning message
func (sl *SystemLogger) Warn(message string, ctx ...LogContext) {
	sl.emit(2, LevelWarn, message, ctx...)
}

// Error logs an error message
func (sl *SystemLogger) Error(message string, err error, ctx ...LogContext) {
	sl.emit(2, LevelError, message, withError(err, ctx))
}

// Critical logs a message for a failure that aborts a gateway operation
func (sl *SystemLogger) Critical(message string, err error, ctx ...LogContext) {
	sl.emit(2, LevelCritical, message, withError(err, ctx))
}

// Fatal logs a fatal message and exits
func (sl *SystemLogger) Fatal(message string, err error, ctx ...LogContext) {
	sl.emit(2, LevelFatal, message, withError(err, ctx))
	os.Exit(1)
}

func withError(err error, ctx []LogContext) LogContext {
	logCtx := LogContext{}
	if len(ctx) > 0 {
		logCtx = ctx[0]
	}

	fields := make(map[string]any, len(logCtx.Fields)+1)
	for k, v := range logCtx.Fields {
		fields[k] = v
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logCtx.Fields = fields

	return logCtx
}

// emit is the core logging function. skip is the number of frames between
// emit and the code that should be reported as the caller.
func (sl *SystemLogger) emit(skip int, level LogLevel, message string, ctx ...LogContext) {
	if !sl.shouldLog(level) {
		return
	}

	function, file, line := "unknown", "unknown", 0
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+1, pcs) > 0 {
		frame, _ := runtime.CallersFrames(pcs).Next()
		file, line = frame.File, frame.Line
		if frame.Function != "" {
			function = frame.Function
			if idx := strings.LastIndex(function, "."); idx != -1 {
				function = function[idx+1:]
			}
		}
	}

	logEntry := SystemLog{
		Timestamp:   time.Now().UTC(),
		Level:       level,
		Message:     message,
		Component:   sl.extractComponent(file),
		Function:    function,
		File:        file,
		Line:        line,
		Environment: sl.environment,
		Service:     sl.service,
		Version:     sl.version,
	}

	if len(ctx) > 0 {
		logCtx := ctx[0]
		logEntry.Provider = logCtx.Provider
		logEntry.Operation = logCtx.Operation
		logEntry.RequestID = logCtx.RequestID
		logEntry.Fields = logCtx.Fields

		if errMsg, ok := logCtx.Fields["error"].(string); ok {
			logEntry.Error = errMsg
		}
	}

	if sl.enableConsole {
		sl.logToConsole(logEntry)
	}

	if sl.enableOpenSearch {
		go sl.logToOpenSearch(logEntry)
	}
}

// shouldLog checks if the log level should be logged
func (sl *SystemLogger) shouldLog(level LogLevel) bool {
	return levelOrder[level] >= levelOrder[sl.minLevel]
}

var componentRoots = map[string]bool{
	"provider": true,
	"infra":    true,
	"handler":  true,
	"router":   true,
	"cmd":      true,
}

// extractComponent extracts component name from file path
// e.g. /src/saferpay/provider/saferpay/saferpay.go -> provider/saferpay
func (sl *SystemLogger) extractComponent(file string) string {
	parts := strings.Split(file, "/")
	if len(parts) < 2 {
		return "unknown"
	}
	dirs := parts[:len(parts)-1]

	for i := len(dirs) - 1; i >= 0; i-- {
		if componentRoots[dirs[i]] {
			if i+1 < len(dirs) {
				return dirs[i] + "/" + dirs[i+1]
			}
			return dirs[i]
		}
	}

	return dirs[len(dirs)-1]
}

func (sl *SystemLogger) logToConsole(entry SystemLog) {
	fields := make([]zapcore.Field, 0, len(entry.Fields)+4)
	if entry.Provider != "" {
		fields = append(fields, zap.String("provider", entry.Provider))
	}
	if entry.Operation != "" {
		fields = append(fields, zap.String("operation", entry.Operation))
	}
	if entry.RequestID != "" {
		fields = append(fields, zap.String("request_id", entry.RequestID))
	}
	if entry.Error != "" {
		fields = append(fields, zap.String("error", entry.Error))
	}
	for key, value := range entry.Fields {
		if key != "error" {
			fields = append(fields, zap.Any(key, value))
		}
	}

	ent := zapcore.Entry{
		Level:      zapLevel(entry.Level),
		Time:       entry.Timestamp,
		LoggerName: entry.Component,
		Message:    entry.Message,
	}

	// Writing through the core keeps zap from exiting on FatalLevel; Fatal exits itself
	if ce := sl.console.Check(ent, nil); ce != nil {
		ce.Write(fields...)
	}
}

// logToOpenSearch logs to OpenSearch asynchronously
func (sl *SystemLogger) logToOpenSearch(entry SystemLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sl.sink.LogSystemEvent(ctx, entry); err != nil {
		log.Printf("Failed to log to OpenSearch: %v", err)
	}
}

// WithContext creates a new logger with context
func (sl *SystemLogger) WithContext(ctx LogContext) *ContextLogger {
	return &ContextLogger{
		systemLogger: sl,
		context:      ctx,
	}
}

// ContextLogger wraps SystemLogger with context
type ContextLogger struct {
	systemLogger *SystemLogger
	context      LogContext
}

// Log writes a message at the given level, merging any extra fields into the bound context
func (cl *ContextLogger) Log(level LogLevel, message string, ctx ...LogContext) {
	cl.systemLogger.emit(2, level, message, cl.merge(ctx))
}

// Debug logs a debug message with context
func (cl *ContextLogger) Debug(message string) {
	cl.systemLogger.emit(2, LevelDebug, message, cl.context)
}

// Info logs an info message with context
func (cl *ContextLogger) Info(message string) {
	cl.systemLogger.emit(2, LevelInfo, message, cl.context)
}

// Warn logs a warning message with context
func (cl *ContextLogger) Warn(message string) {
	cl.systemLogger.emit(2, LevelWarn, message, cl.context)
}

// Error logs an error message with context
func (cl *ContextLogger) Error(message string, err error) {
	cl.systemLogger.emit(2, LevelError, message, withError(err, []LogContext{cl.context}))
}

// Critical logs a critical message with context
func (cl *ContextLogger) Critical(message string, err error) {
	cl.systemLogger.emit(2, LevelCritical, message, withError(err, []LogContext{cl.context}))
}

func (cl *ContextLogger) merge(extra []LogContext) LogContext {
	merged := cl.context
	merged.Fields = make(map[string]any, len(cl.context.Fields))
	for k, v := range cl.context.Fields {
		merged.Fields[k] = v
	}

	for _, c := range extra {
		if c.Provider != "" {
			merged.Provider = c.Provider
		}
		if c.Operation != "" {
			merged.Operation = c.Operation
		}
		if c.RequestID != "" {
			merged.RequestID = c.RequestID
		}
		for k, v := range c.Fields {
			merged.Fields[k] = v
		}
	}

	return merged
}

// AddField adds a field to the context
func (cl *ContextLogger) AddField(key string, value any) *ContextLogger {
	if cl.context.Fields == nil {
		cl.context.Fields = make(map[string]any)
	}
	cl.context.Fields[key] = value
	return cl
}

// SetProvider sets the provider in context
func (cl *ContextLogger) SetProvider(provider string) *ContextLogger {
	cl.context.Provider = provider
	return cl
}

// SetOperation sets the gateway operation in context
func (cl *ContextLogger) SetOperation(operation string) *ContextLogger {
	cl.context.Operation = operation
	return cl
}

// SetRequestID sets the request ID in context
func (cl *ContextLogger) SetRequestID(requestID string) *ContextLogger {
	cl.context.RequestID = requestID
	return cl
}
