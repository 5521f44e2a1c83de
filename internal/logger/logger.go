package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	Logger zerolog.Logger
)

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

func init() {
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Configure sets up the global logger with the specified level, writing to stderr
func Configure(level LogLevel, isDev bool) {
	ConfigureOutput(level, isDev, os.Stderr)
}

// ConfigureOutput sets up the global logger with the specified level and output.
// Dev mode uses the human-readable console writer.
func ConfigureOutput(level LogLevel, isDev bool, out io.Writer) {
	zerolog.SetGlobalLevel(parseLevel(level))

	writer := out
	if isDev {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    out != os.Stderr,
		}
	}

	Logger = zerolog.New(writer).With().Timestamp().Logger()
	log.Logger = Logger
}

// ConfigureFile routes logs to a file so they don't corrupt a full-screen UI.
// The returned closer must be called on exit.
func ConfigureFile(level LogLevel, isDev bool, path string) (io.Closer, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "focusagent.log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	ConfigureOutput(level, isDev, f)
	return f, nil
}

func parseLevel(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// GetLogLevelFromEnv determines log level from environment variables
func GetLogLevelFromEnv(isDev bool) LogLevel {
	debug := os.Getenv("DEBUG")

	// In dev mode, default to DEBUG=true unless explicitly set to false
	if isDev {
		if strings.ToLower(debug) == "false" || debug == "0" {
			return LevelInfo
		}
		return LevelDebug
	}

	if strings.ToLower(debug) == "true" || debug == "1" {
		return LevelDebug
	}

	return LevelInfo
}

// Component returns a child logger tagged with the component name
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Debugf logs a formatted message at debug level
func Debugf(format string, args ...interface{}) {
	Logger.Debug().Msgf(format, args...)
}

// Infof logs a formatted message at info level
func Infof(format string, args ...interface{}) {
	Logger.Info().Msgf(format, args...)
}

// Warnf logs a formatted message at warn level
func Warnf(format string, args ...interface{}) {
	Logger.Warn().Msgf(format, args...)
}

// Errorf logs a formatted message at error level
func Errorf(format string, args ...interface{}) {
	Logger.Error().Msgf(format, args...)
}
