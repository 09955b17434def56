package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

var (
	disabled = false
	logger   = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		TimeFormat: time.Kitchen,
	}))
)

// Disable turns off all logging
func Disable() {
	disabled = true
}

// Enable turns logging back on
func Enable() {
	disabled = false
}

// SetLevel replaces the handler with one filtering below the named level.
// Unrecognized names fall back to info.
func SetLevel(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      l,
		TimeFormat: time.Kitchen,
	}))
}

// Info logs an info message
func Info(v ...any) {
	if !disabled {
		logger.Info(fmt.Sprint(v...))
	}
}

// Infof logs a formatted info message
func Infof(format string, v ...any) {
	if !disabled {
		logger.Info(fmt.Sprintf(format, v...))
	}
}

// Error logs an error message
func Error(v ...any) {
	if !disabled {
		logger.Error(fmt.Sprint(v...))
	}
}

// Errorf logs a formatted error message
func Errorf(format string, v ...any) {
	if !disabled {
		logger.Error(fmt.Sprintf(format, v...))
	}
}

// Warn logs a warning message
func Warn(v ...any) {
	if !disabled {
		logger.Warn(fmt.Sprint(v...))
	}
}

// Warnf logs a formatted warning message
func Warnf(format string, v ...any) {
	if !disabled {
		logger.Warn(fmt.Sprintf(format, v...))
	}
}

// Debug logs a debug message
func Debug(v ...any) {
	if !disabled {
		logger.Debug(fmt.Sprint(v...))
	}
}

// Debugf logs a formatted debug message
func Debugf(format string, v ...any) {
	if !disabled {
		logger.Debug(fmt.Sprintf(format, v...))
	}
}
