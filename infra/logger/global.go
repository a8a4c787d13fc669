package logger

import (
	"sync"

	"github.com/horo42/saferpay/infra/config"
)

var (
	globalLogger *SystemLogger
	once         sync.Once
	mu           sync.Mutex
)

const (
	serviceName    = "saferpay"
	serviceVersion = "1.0.0"
)

// InitGlobalLogger initializes the global system logger. sink may be nil for console-only logging.
func InitGlobalLogger(sink EventSink) {
	once.Do(func() {
		cfg := SystemLoggerConfig{
			EnableConsole:    true,
			EnableOpenSearch: sink != nil,
			MinLevel:         ParseLevel(config.GetEnv("LOGGING_LEVEL", string(LevelInfo))),
			Service:          serviceName,
			Version:          serviceVersion,
			Environment:      config.GetEnv("ENVIRONMENT", "development"),
		}

		if cfg.Environment == "development" {
			cfg.MinLevel = LevelDebug
		}

		mu.Lock()
		globalLogger = NewSystemLogger(sink, cfg)
		mu.Unlock()
	})
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *SystemLogger {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		// Fallback to console-only logger if not initialized
		globalLogger = NewSystemLogger(nil, SystemLoggerConfig{
			EnableConsole: true,
			MinLevel:      LevelInfo,
			Service:       serviceName,
			Version:       serviceVersion,
			Environment:   "development",
		})
	}
	return globalLogger
}

// Log writes a message at the given level using the global logger
func Log(level LogLevel, message string, ctx ...LogContext) {
	GetGlobalLogger().emit(3, level, message, ctx...)
}

// Debug logs a debug message using the global logger
func Debug(message string, ctx ...LogContext) {
	GetGlobalLogger().emit(3, LevelDebug, message, ctx...)
}

// Info logs an info message using the global logger
func Info(message string, ctx ...LogContext) {
	GetGlobalLogger().emit(3, LevelInfo, message, ctx...)
}

// Warn logs a warning message using the global logger
func Warn(message string, ctx ...LogContext) {
	GetGlobalLogger().emit(3, LevelWarn, message, ctx...)
}

// Error logs an error message using the global logger
func Error(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().emit(3, LevelError, message, withError(err, ctx))
}

// Critical logs a critical message using the global logger
func Critical(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().emit(3, LevelCritical, message, withError(err, ctx))
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Fatal(message, err, ctx...)
}

// WithContext creates a context logger from the global logger
func WithContext(ctx LogContext) *ContextLogger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithProvider creates a context logger with provider
func WithProvider(provider string) *ContextLogger {
	return WithContext(LogContext{Provider: provider})
}
