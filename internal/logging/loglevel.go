package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LevelFromEnv returns the log level configured via environment variables.
// It checks JSONSIFT_LOG_LEVEL first, then falls back to LOG_LEVEL.
// Supported values: DEBUG, INFO, WARN, WARNING, ERROR
// Default: INFO
func LevelFromEnv() slog.Level {
	level := os.Getenv("JSONSIFT_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		return slog.LevelInfo
	}

	return ParseLevel(level)
}

// ParseLevel parses a log level string into slog.Level (case-insensitive).
// Returns INFO for unknown values and prints a warning to stderr.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return slog.LevelDebug - 4
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "Warning: Unknown log level '%s', using INFO\n", level)
		return slog.LevelInfo
	}
}

// Setup installs a compact handler as the process-wide slog default.
// When verbose is true the level is forced to DEBUG, otherwise it comes
// from the environment.
func Setup(verbose bool) *slog.Logger {
	level := LevelFromEnv()
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(NewHandler(&HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
