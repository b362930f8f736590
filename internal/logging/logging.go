// Package logging constructs the service-wide zerolog logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. JSON output for production, console writer
// otherwise. Unknown levels fall back to info.
func New(level string, jsonFormat bool) zerolog.Logger {
	var logger zerolog.Logger
	if jsonFormat {
		logger = zerolog.New(os.Stdout)
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		logger = zerolog.New(output)
	}

	return logger.Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel converts a config level string to a zerolog level.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
