package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewDefaultLogger creates a stdout logger at LOG_LEVEL
func NewDefaultLogger() Logger {
	logger, err := NewZapLogger(DefaultLogConfig())
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default zap logger: %v", err))
	}
	return logger
}

// InitGlobalLogger configures the global logger from LOG_LEVEL, LOG_FILE and
// LOG_MAX_SIZE_MB. LOG_FILE=stdout (or empty) writes to standard output,
// anything else is a path rotated by lumberjack.
func InitGlobalLogger() io.Closer {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	logFile := os.Getenv("LOG_FILE")

	var out io.Writer
	var closer io.Closer = nopCloser{}
	if logFile != "" && logFile != "stdout" {
		maxSize := 10
		if v, err := strconv.Atoi(os.Getenv("LOG_MAX_SIZE_MB")); err == nil && v > 0 {
			maxSize = v
		}
		rotating := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    maxSize,
			MaxBackups: 5,
			MaxAge:     28,
		}
		out = rotating
		closer = rotating
	}

	logger, err := NewZapLogger(LogConfig{Level: level, Output: out, Name: "usps"})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	SetGlobalLogger(logger)

	logger.Info("Logger initialized",
		String("level", level.String()),
		String("log_file", logFile),
	)
	return closer
}

// MustSync flushes any buffered log entries. Call before exit.
func MustSync() {
	if zapLogger, ok := GetGlobalLogger().(*ZapAdapter); ok {
		_ = zapLogger.Sync()
	}
}

// WithContext is a convenience function to add context to the global logger
func WithContext(ctx context.Context) Logger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithFields is a convenience function to add fields to the global logger
func WithFields(fields ...Field) Logger {
	return GetGlobalLogger().WithFields(fields...)
}

// Redact keeps the first and last two characters of a secret
func Redact(secret string) string {
	if len(secret) <= 6 {
		return "***"
	}
	return secret[:2] + "***" + secret[len(secret)-2:]
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
