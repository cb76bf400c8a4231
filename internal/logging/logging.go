package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Level orders message severity
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

// String returns the tag printed in brackets
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

var (
	std      = log.New(os.Stderr, "", log.LstdFlags|log.LUTC)
	minLevel = LevelInfo
)

// SetOutput redirects all operator logs
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// SetLevel drops messages below level
func SetLevel(level Level) {
	minLevel = level
}

// ParseLevel maps a config string to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func logf(level Level, format string, args ...interface{}) {
	if level < minLevel {
		return
	}
	std.Output(3, fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...)))
}

// Debug logs detail useful while diagnosing a single event
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, format, args...)
}

// Info logs lifecycle messages
func Info(format string, args ...interface{}) {
	logf(LevelInfo, format, args...)
}

// Warn logs degraded but handled failures
func Warn(format string, args ...interface{}) {
	logf(LevelWarn, format, args...)
}

// Error logs failures that lost data
func Error(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}

// Critical is for contract violations between components, never for bad input
func Critical(format string, args ...interface{}) {
	logf(LevelCritical, format, args...)
}

// Fatal logs at critical level and exits
func Fatal(format string, args ...interface{}) {
	logf(LevelCritical, format, args...)
	os.Exit(1)
}
