package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Silent until initialized
var logger = zap.NewNop()

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "ATTRSTORE_LOG_LEVEL"

// maxValueLength caps how much of an attribute value is written to the log
const maxValueLength = 256

// Initialize creates a new logger with the specified level.
// If level is empty, it checks ATTRSTORE_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = built

	return nil
}

// InitializeFromEnv initializes the logger from the ATTRSTORE_LOG_LEVEL
// environment variable. CLI commands use this to stay silent by default.
func InitializeFromEnv() error {
	return Initialize("")
}

// ParseLevel maps a level name to a zap level.
// Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogRegistration logs a newly registered attribute
func LogRegistration(name, dataType, writeType string) {
	Info("Adding dynamic attribute",
		zap.String("attribute", name),
		zap.String("data_type", dataType),
		zap.String("write_type", writeType),
	)
}

// LogAttributeAccess logs a read or write of an attribute value
func LogAttributeAccess(op, name, value string) {
	Debug(op+" value",
		zap.String("attribute", name),
		zap.String("value", truncate(value)),
	)
}

// LogConnection logs a transport connection event
func LogConnection(remoteAddr string, event string) {
	Info("Connection event",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogRequest logs a transport request and its outcome
func LogRequest(remoteAddr, op, name, errCode string) {
	fields := []zap.Field{
		zap.String("remote_addr", remoteAddr),
		zap.String("op", op),
	}
	if name != "" {
		fields = append(fields, zap.String("attribute", name))
	}
	if errCode != "" {
		fields = append(fields, zap.String("error_code", errCode))
		Warn("Request failed", fields...)
		return
	}
	Debug("Request handled", fields...)
}

func truncate(s string) string {
	if len(s) > maxValueLength {
		return s[:maxValueLength] + "..."
	}
	return s
}

// Sync flushes any buffered log entries
func Sync() {
	_ = logger.Sync()
}
