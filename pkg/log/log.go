package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Logger is the global logger instance. It discards everything until Init runs.
	Logger = zerolog.Nop()
)

// Level represents log level
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger
func Init(cfg Config) {
	// Set log level
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	// Use JSON or console output
	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent creates a child logger with component field
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithNodeID adds a node_id field to a parent logger
func WithNodeID(parent zerolog.Logger, nodeID string) zerolog.Logger {
	return parent.With().Str("node_id", nodeID).Logger()
}

// WithPodID adds a pod_id field to a parent logger
func WithPodID(parent zerolog.Logger, podID string) zerolog.Logger {
	return parent.With().Str("pod_id", podID).Logger()
}

// ParseLevel checks a level name given on the command line
func ParseLevel(name string) (Level, error) {
	switch level := Level(name); level {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return level, nil
	default:
		return "", fmt.Errorf("invalid log level %q", name)
	}
}
