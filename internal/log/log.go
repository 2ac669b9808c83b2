// Package log provides structured, colored logging for the Rooch client tools.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers.
var (
	RPC     zerolog.Logger
	Wallet  zerolog.Logger
	Cache   zerolog.Logger
	Node    zerolog.Logger
	Harness zerolog.Logger
	Storage zerolog.Logger
)

func init() {
	Logger = NewConsoleLogger(os.Stderr, "info")
	initComponentLoggers()
}

// Init configures the global logger. When file is non-empty, logs go to
// both the console (colored or JSON depending on jsonOutput) and the file
// (always JSON).
func Init(level string, jsonOutput bool, file string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	var console io.Writer = os.Stderr
	if !jsonOutput {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	out := console
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		out = zerolog.MultiLevelWriter(console, f)
	}

	Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	initComponentLoggers()
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	lvl, _ := ParseLevel(level)
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	lvl, _ := ParseLevel(level)
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// ParseLevel converts a level name to zerolog.Level. Empty means info;
// unknown names return info and an error.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, &levelError{level}
	}
}

type levelError struct{ level string }

func (e *levelError) Error() string { return "unknown log level " + e.level }

func initComponentLoggers() {
	RPC = WithComponent("rpc")
	Wallet = WithComponent("wallet")
	Cache = WithComponent("cache")
	Node = WithComponent("node")
	Harness = WithComponent("harness")
	Storage = WithComponent("storage")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Info logs an info message.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn logs a warning message.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error logs an error message.
func Error() *zerolog.Event {
	return Logger.Error()
}
