// Package logging builds the slog loggers shared by the PD toolchain.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// EnvDebug enables debug logging when set to any non-empty value.
const EnvDebug = "PD_DEBUG"

// New returns a text logger writing to w. Time and level attributes are
// dropped so phase traces read like plain diagnostics.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// FromEnv returns a stderr debug logger when PD_DEBUG is set, and a logger
// that discards everything otherwise.
func FromEnv() *slog.Logger {
	if os.Getenv(EnvDebug) != "" {
		return New(os.Stderr, true)
	}
	return Discard()
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDefault returns l, or FromEnv() when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return FromEnv()
}
