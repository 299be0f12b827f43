// Package parser turns PD source into an ast.Program using the combinator
// grammar declared in NewGrammar.
package parser

import (
	"time"

	"github.com/compilingdogs/pd/core/invariant"
	"github.com/compilingdogs/pd/internal/logging"
	"github.com/compilingdogs/pd/runtime/ast"
	"github.com/compilingdogs/pd/runtime/lexer"
)

// ParseTree represents the result of parsing
type ParseTree struct {
	Source    []byte          // Original source (for snippets)
	Tokens    []lexer.Token   // Tokens from lexer
	Program   *ast.Program    // Nil if lexing or parsing failed
	Telemetry *ParseTelemetry // Performance metrics (nil if disabled)
}

// Parse lexes and parses source. The returned tree is never nil; on failure
// it carries whatever phases completed. Errors are *lexer.LexError or
// *grammar.ParseError.
func Parse(source []byte, opts ...ParserOpt) (*ParseTree, error) {
	config := newConfig(opts)

	var startTotal time.Time
	if config.telemetry >= TelemetryTiming {
		startTotal = time.Now()
	}

	lex := lexer.NewLexer("", lexer.WithLogger(config.logger))
	lex.Init(source)

	startLex := time.Now()
	tokens, err := lex.Tokenize()
	lexTime := time.Since(startLex)
	if err != nil {
		config.logger.Debug("lexing failed", "error", err)
		return &ParseTree{Source: source}, err
	}

	tree, err := parseTokens(source, tokens, config)
	if tree.Telemetry != nil && config.telemetry >= TelemetryTiming {
		tree.Telemetry.LexTime = lexTime
		tree.Telemetry.TotalTime = time.Since(startTotal)
	}
	return tree, err
}

// ParseString is a convenience wrapper for tests
func ParseString(input string, opts ...ParserOpt) (*ParseTree, error) {
	return Parse([]byte(input), opts...)
}

// ParseTokens parses pre-lexed tokens, e.g. a decoded token stream. source
// may be nil when the text is not available.
func ParseTokens(source []byte, tokens []lexer.Token, opts ...ParserOpt) (*ParseTree, error) {
	return parseTokens(source, tokens, newConfig(opts))
}

func newConfig(opts []ParserOpt) *ParserConfig {
	config := &ParserConfig{}
	for _, opt := range opts {
		opt(config)
	}
	config.logger = logging.OrDefault(config.logger)
	return config
}

func parseTokens(source []byte, tokens []lexer.Token, config *ParserConfig) (*ParseTree, error) {
	tree := &ParseTree{Source: source, Tokens: tokens}

	startParse := time.Now()
	node, stats, err := Default().Parse(tokens, config.matchOptions()...)
	parseTime := time.Since(startParse)

	config.logger.Debug("parsed",
		"tokens", len(tokens),
		"policy", stats.Policy,
		"attempts", stats.Attempts,
		"max_depth", stats.MaxDepth,
		"ok", err == nil)

	if config.telemetry >= TelemetryBasic {
		tree.Telemetry = &ParseTelemetry{
			TokenCount: len(tokens),
			Attempts:   stats.Attempts,
			TokenTests: stats.TokenTests,
			Failures:   stats.Failures,
			MaxDepth:   stats.MaxDepth,
		}
		if config.telemetry >= TelemetryTiming {
			tree.Telemetry.ParseTime = parseTime
			tree.Telemetry.TotalTime = parseTime
		}
	}

	if err != nil {
		return tree, err
	}

	program, ok := node.(*ast.Program)
	invariant.Postcondition(ok, "start rule produced %T, want *ast.Program", node)
	tree.Program = program
	return tree, nil
}
