package parser

import (
	"io"
	"log/slog"
	"time"

	"github.com/compilingdogs/pd/runtime/grammar"
)

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Token and match counts only
	TelemetryTiming                      // Counts + timing per phase
)

// ParserConfig holds parser configuration
type ParserConfig struct {
	telemetry TelemetryMode
	policy    grammar.Policy
	maxDepth  int
	trace     io.Writer
	logger    *slog.Logger
}

// WithTelemetryBasic enables basic telemetry (counts only)
func WithTelemetryBasic() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + timing per phase)
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithLongestMatch makes alternations pick the variant consuming the most tokens
func WithLongestMatch() ParserOpt {
	return func(c *ParserConfig) {
		c.policy = grammar.LongestMatch
	}
}

// WithMaxDepth bounds grammar nesting; n <= 0 keeps grammar.DefaultMaxDepth
func WithMaxDepth(n int) ParserOpt {
	return func(c *ParserConfig) {
		c.maxDepth = n
	}
}

// WithTrace writes the matcher trace to w (development only)
func WithTrace(w io.Writer) ParserOpt {
	return func(c *ParserConfig) {
		c.trace = w
	}
}

// WithLogger sets the logger for parse phase events
func WithLogger(logger *slog.Logger) ParserOpt {
	return func(c *ParserConfig) {
		c.logger = logger
	}
}

func (c *ParserConfig) matchOptions() []grammar.Option {
	opts := []grammar.Option{grammar.WithPolicy(c.policy), grammar.WithMaxDepth(c.maxDepth)}
	if c.trace != nil {
		opts = append(opts, grammar.WithTrace(c.trace))
	}
	return opts
}

// ParseTelemetry holds parser performance metrics (production-safe)
type ParseTelemetry struct {
	LexTime    time.Duration // Time spent lexing
	ParseTime  time.Duration // Time spent matching the grammar
	TotalTime  time.Duration // Total parse time
	TokenCount int           // Number of tokens
	Attempts   int           // Grammar node match attempts
	TokenTests int           // Token comparisons
	Failures   int           // Backtracked attempts
	MaxDepth   int           // Deepest grammar nesting reached
}
