// Package logging provides a compact slog.Handler for command-line output.
//
// The handler writes single-line records of the form
//
//	2025-11-03 10:40:35  INFO Recovered document → {"bytes":128,"stage":"scan"}
//
// with the level right-aligned and attributes JSON-encoded after the arrow.
// ANSI level colors are enabled automatically when the output is a terminal.
// Log level and verbosity come from JSONSIFT_LOG_LEVEL (or LOG_LEVEL).
//
// Library packages log through plain log/slog and stay handler-agnostic;
// this package is wired in by cmd/jsonsift and the runnable examples.
package logging
