package interpreter

import (
	"io"
	"log/slog"
)

// DefaultMaxCallDepth bounds function call nesting
const DefaultMaxCallDepth = 2000

// Option configures an Interpreter
type Option func(*Config)

// Config holds interpreter configuration
type Config struct {
	stdin        io.Reader
	stdout       io.Writer
	maxCallDepth int
	suggestions  bool
	logger       *slog.Logger
}

// WithInput sets the reader behind readInt, readReal and readString
func WithInput(r io.Reader) Option {
	return func(c *Config) {
		c.stdin = r
	}
}

// WithOutput sets the writer print statements write to
func WithOutput(w io.Writer) Option {
	return func(c *Config) {
		c.stdout = w
	}
}

// WithMaxCallDepth limits call nesting; n <= 0 keeps DefaultMaxCallDepth
func WithMaxCallDepth(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.maxCallDepth = n
		}
	}
}

// WithSuggestions toggles "did you mean" hints on unresolved references
func WithSuggestions(enabled bool) Option {
	return func(c *Config) {
		c.suggestions = enabled
	}
}

// WithLogger sets the debug logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}
