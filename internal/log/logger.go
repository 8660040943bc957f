// SPDX-License-Identifier: MIT
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false // Default to Info on parse error
	}
}

// --- Global Logger State ---

// currentLevel holds the current global log level atomically.
var currentLevel atomic.Uint32

var (
	loggerMu sync.RWMutex
	logger   = newLogger(os.Stderr)
)

func init() {
	// Default level at startup. Can be overridden by config.
	SetLevel(LevelInfo)
}

func newLogger(w io.Writer) zerolog.Logger {
	if f, ok := w.(*os.File); ok && (f == os.Stderr || f == os.Stdout) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339Nano}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetOutput redirects all log output to w. Terminal writers are wrapped in a
// console writer, anything else receives JSON lines.
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	logger = newLogger(w)
	loggerMu.Unlock()
}

// SetOutputs fans log output out to several writers at once, for example the
// console and a log file.
func SetOutputs(writers ...io.Writer) {
	wrapped := make([]io.Writer, 0, len(writers))
	for _, w := range writers {
		if f, ok := w.(*os.File); ok && (f == os.Stderr || f == os.Stdout) {
			w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339Nano}
		}
		wrapped = append(wrapped, w)
	}
	loggerMu.Lock()
	logger = zerolog.New(zerolog.MultiLevelWriter(wrapped...)).With().Timestamp().Logger()
	loggerMu.Unlock()
}

// OpenFile opens (or creates) path for appending log lines.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// shouldLog checks if a message at the given level should be logged based on the current global level.
func shouldLog(level LogLevel) bool {
	return level >= GetLevel()
}

func event(level LogLevel) *zerolog.Event {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()

	switch level {
	case LevelDebug:
		return l.Debug()
	case LevelInfo:
		return l.Info()
	case LevelWarn:
		return l.Warn()
	case LevelError:
		return l.Error()
	default:
		return l.WithLevel(zerolog.FatalLevel)
	}
}

// --- Public Logging Functions ---

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...interface{}) {
	if shouldLog(LevelDebug) {
		event(LevelDebug).Msgf(format, v...)
	}
}

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...interface{}) {
	if shouldLog(LevelInfo) {
		event(LevelInfo).Msgf(format, v...)
	}
}

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...interface{}) {
	if shouldLog(LevelWarn) {
		event(LevelWarn).Msgf(format, v...)
	}
}

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...interface{}) {
	if shouldLog(LevelError) {
		event(LevelError).Msgf(format, v...)
	}
}

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func Fatalf(format string, v ...interface{}) {
	event(LevelFatal).Msgf(format, v...)
	os.Exit(1)
}

// --- Functions without formatting (convenience) ---

// Debug logs a debug message if the level is appropriate.
func Debug(v ...interface{}) {
	if shouldLog(LevelDebug) {
		event(LevelDebug).Msg(fmt.Sprint(v...))
	}
}

// Info logs an info message if the level is appropriate.
func Info(v ...interface{}) {
	if shouldLog(LevelInfo) {
		event(LevelInfo).Msg(fmt.Sprint(v...))
	}
}

// Warn logs a warning message if the level is appropriate.
func Warn(v ...interface{}) {
	if shouldLog(LevelWarn) {
		event(LevelWarn).Msg(fmt.Sprint(v...))
	}
}

// Error logs an error message if the level is appropriate.
func Error(v ...interface{}) {
	if shouldLog(LevelError) {
		event(LevelError).Msg(fmt.Sprint(v...))
	}
}

// Fatal logs a fatal message and exits the application.
func Fatal(v ...interface{}) {
	event(LevelFatal).Msg(fmt.Sprint(v...))
	os.Exit(1)
}
