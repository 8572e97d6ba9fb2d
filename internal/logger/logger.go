// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Log levels
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu    sync.RWMutex
	level = LevelInfo
	base  = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}).
		With().
		Timestamp().
		Str("app", "photosync").
		Logger().
		Level(zerolog.InfoLevel)
}

// Init initializes the logger
func Init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// SetOutput sets the output for all log levels
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	base = newLogger(w).Level(toZerolog(level))
}

// SetJSONOutput switches to newline-delimited JSON, for machine consumption.
func SetJSONOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	base = zerolog.New(w).With().Timestamp().Str("app", "photosync").Logger().Level(toZerolog(level))
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(levelStr) {
	case "debug":
		level = LevelDebug
	case "info":
		level = LevelInfo
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	default:
		level = LevelInfo
	}
	base = base.Level(toZerolog(level))
}

// L returns the underlying structured logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	L().Debug().Msg(fmt.Sprintf(format, v...))
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	L().Info().Msg(fmt.Sprintf(format, v...))
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	L().Warn().Msg(fmt.Sprintf(format, v...))
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	L().Error().Msg(fmt.Sprintf(format, v...))
}

func toZerolog(l int) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
