// Package logging builds the console logger used by the sylph CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// LevelSilent is above every standard level, so nothing is logged.
const LevelSilent = slog.Level(100)

// Level converts the silent and verbose switches to a slog.Level. Silent
// wins over verbose.
func Level(silent, verbose bool) slog.Level {
	switch {
	case silent:
		return LevelSilent
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// New creates a console logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewConsoleHandler(w, level, isTerminal(w)))
}

// NewDiscard creates a logger that discards all output.
func NewDiscard() *slog.Logger {
	return slog.New(NewConsoleHandler(io.Discard, LevelSilent, false))
}

// isTerminal reports whether w is a character device. NO_COLOR disables
// colors everywhere.
func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
