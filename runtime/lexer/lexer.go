package lexer

import (
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/compilingdogs/pd/internal/logging"
)

// TabWidth is the number of columns a tab advances the column counter.
const TabWidth = 4

// ASCII character lookup tables for fast classification
var (
	isWhitespace [128]bool // Newlines excluded, they are tokens
	isDigit      [128]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
	singleChar   [128]TokenType // Punctuation that never combines with a following character
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f'
		isDigit[i] = '0' <= ch && ch <= '9'
		isIdentStart[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
		isIdentPart[i] = isIdentStart[i] || isDigit[i]
	}

	singleChar[';'] = SEMICOLON
	singleChar[','] = COMMA
	singleChar['('] = LPAREN
	singleChar[')'] = RPAREN
	singleChar['['] = LSQUARE
	singleChar[']'] = RSQUARE
	singleChar['{'] = LBRACE
	singleChar['}'] = RBRACE
	singleChar['+'] = PLUS
	singleChar['*'] = MULTIPLY
}

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// TelemetryMode controls telemetry collection
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Token counts only
	TelemetryTiming                      // Token counts + total tokenization time
)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	telemetry TelemetryMode
	logger    *slog.Logger
}

// WithTelemetryBasic enables token counting
func WithTelemetryBasic() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables token counting and timing
func WithTelemetryTiming() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithLogger sets the debug logger. Without it the lexer logs only when PD_DEBUG is set.
func WithLogger(logger *slog.Logger) LexerOpt {
	return func(c *LexerConfig) {
		c.logger = logger
	}
}

// LexTelemetry summarizes one tokenization pass
type LexTelemetry struct {
	Tokens   int
	ByType   map[TokenType]int
	Duration time.Duration // Only set with TelemetryTiming
}

// LexError reports malformed source text
type LexError struct {
	Position Position
	Message  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Position)
}

// Lexer turns PD source text into tokens
type Lexer struct {
	input    []byte
	position int
	line     int
	column   int

	// Consecutive newlines collapse into one NEWLINE token
	lastWasNewline bool
	// A number directly after '.' is a tuple index, so it never takes a fraction
	lastType TokenType

	telemetryMode TelemetryMode
	telemetry     *LexTelemetry
	logger        *slog.Logger
}

// NewLexer creates a new lexer instance with optional configuration
func NewLexer(input string, opts ...LexerOpt) *Lexer {
	config := &LexerConfig{}
	for _, opt := range opts {
		opt(config)
	}

	l := &Lexer{
		telemetryMode: config.telemetry,
		logger:        logging.OrDefault(config.logger),
	}
	l.Init([]byte(input))
	return l
}

// Init resets the lexer with new input (following Go scanner pattern)
func (l *Lexer) Init(input []byte) {
	l.input = input
	l.position = 0
	l.line = 1
	l.column = 1
	l.lastWasNewline = false
	l.lastType = ILLEGAL

	l.telemetry = nil
	if l.telemetryMode > TelemetryOff {
		l.telemetry = &LexTelemetry{ByType: make(map[TokenType]int)}
	}
}

// Tokenize lexes PD source text in one call
func Tokenize(src string, opts ...LexerOpt) ([]Token, error) {
	return NewLexer(src, opts...).Tokenize()
}

// Tokenize returns every remaining token. End of input is the end of the
// slice; no sentinel token is emitted.
func (l *Lexer) Tokenize() ([]Token, error) {
	var start time.Time
	if l.telemetryMode >= TelemetryTiming {
		start = time.Now()
	}

	var tokens []Token
	for {
		tok, ok, err := l.NextToken()
		if err != nil {
			l.logger.Debug("tokenize failed", "error", err, "tokens", len(tokens))
			return nil, err
		}
		if !ok {
			break
		}
		tokens = append(tokens, tok)
	}

	if l.telemetryMode >= TelemetryTiming {
		l.telemetry.Duration = time.Since(start)
	}
	l.logger.Debug("tokenized", "tokens", len(tokens), "lines", l.line)
	return tokens, nil
}

// Telemetry returns the counters of the last pass, or nil when telemetry is off
func (l *Lexer) Telemetry() *LexTelemetry {
	if l.telemetry == nil {
		return nil
	}
	result := *l.telemetry
	result.ByType = make(map[TokenType]int, len(l.telemetry.ByType))
	for k, v := range l.telemetry.ByType {
		result.ByType[k] = v
	}
	return &result
}

// NextToken returns the next token. ok is false once the input is exhausted.
func (l *Lexer) NextToken() (tok Token, ok bool, err error) {
	tok, ok, err = l.lexToken()
	if err != nil || !ok {
		return tok, ok, err
	}

	l.lastType = tok.Type
	l.lastWasNewline = tok.Type == NEWLINE
	if l.telemetry != nil {
		l.telemetry.Tokens++
		l.telemetry.ByType[tok.Type]++
	}
	return tok, true, nil
}

func (l *Lexer) lexToken() (Token, bool, error) {
	for {
		l.skipWhitespace()

		if l.position >= len(l.input) {
			return Token{}, false, nil
		}

		ch := l.input[l.position]

		if ch == '\n' {
			start := l.pos()
			l.advanceChar()
			if l.lastWasNewline {
				continue
			}
			return Token{Type: NEWLINE, Position: start}, true, nil
		}

		if ch == '/' && l.peek(1) == '/' {
			l.skipLineComment()
			continue
		}
		if ch == '/' && l.peek(1) == '*' {
			if err := l.skipBlockComment(); err != nil {
				return Token{}, false, err
			}
			continue
		}
		break
	}

	start := l.pos()
	ch := l.input[l.position]

	if ch >= utf8.RuneSelf {
		r, _ := utf8.DecodeRune(l.input[l.position:])
		return Token{}, false, &LexError{Position: start, Message: fmt.Sprintf("unexpected character %q", r)}
	}

	if isIdentStart[ch] {
		return l.lexIdentifier(start), true, nil
	}

	if isDigit[ch] {
		return l.lexNumber(start), true, nil
	}

	if ch == '"' || ch == '\'' {
		return l.lexString(start, ch)
	}

	if tt := singleChar[ch]; tt != ILLEGAL {
		l.advanceChar()
		return Token{Type: tt, Position: start}, true, nil
	}

	next := l.peek(1)
	switch ch {
	case ':':
		if next == '=' {
			return l.fixed(ASSIGN, 2, start), true, nil
		}
	case '=':
		if next == '>' {
			return l.fixed(ARROW, 2, start), true, nil
		}
		return l.fixed(EQUALS, 1, start), true, nil
	case '/':
		if next == '=' {
			return l.fixed(NOT_EQ, 2, start), true, nil
		}
		return l.fixed(DIVIDE, 1, start), true, nil
	case '-':
		if next == '>' {
			return l.fixed(ARROW, 2, start), true, nil
		}
		return l.fixed(MINUS, 1, start), true, nil
	case '<':
		if next == '=' {
			return l.fixed(LT_EQ, 2, start), true, nil
		}
		return l.fixed(LT, 1, start), true, nil
	case '>':
		if next == '=' {
			return l.fixed(GT_EQ, 2, start), true, nil
		}
		return l.fixed(GT, 1, start), true, nil
	case '.':
		if next == '.' {
			return l.fixed(RANGE, 2, start), true, nil
		}
		return l.fixed(DOT, 1, start), true, nil
	}

	return Token{}, false, &LexError{Position: start, Message: fmt.Sprintf("unexpected character %q", rune(ch))}
}

// fixed consumes n bytes for a self-identifying token
func (l *Lexer) fixed(tt TokenType, n int, start Position) Token {
	for i := 0; i < n; i++ {
		l.advanceChar()
	}
	return Token{Type: tt, Position: start}
}

func (l *Lexer) lexIdentifier(start Position) Token {
	startPos := l.position
	for l.position < len(l.input) {
		ch := l.input[l.position]
		if ch >= utf8.RuneSelf || !isIdentPart[ch] {
			break
		}
		l.advanceChar()
	}

	text := l.input[startPos:l.position]
	if tt, ok := Keywords[string(text)]; ok {
		return Token{Type: tt, Text: text, Position: start}
	}
	return Token{Type: IDENTIFIER, Text: text, Position: start}
}

// lexNumber reads an INTEGER, or a FLOAT when a '.' is followed by a digit.
// "1..3" therefore lexes as INTEGER RANGE INTEGER.
func (l *Lexer) lexNumber(start Position) Token {
	startPos := l.position
	l.readDigits()

	tt := INTEGER
	if l.lastType != DOT && l.peek(0) == '.' && l.peek(1) < utf8.RuneSelf && isDigit[l.peek(1)] {
		l.advanceChar()
		l.readDigits()
		tt = FLOAT
	}

	return Token{Type: tt, Text: l.input[startPos:l.position], Position: start}
}

func (l *Lexer) readDigits() {
	for l.position < len(l.input) && l.input[l.position] < utf8.RuneSelf && isDigit[l.input[l.position]] {
		l.advanceChar()
	}
}

// lexString reads a quoted string. Text holds the content with escapes resolved.
func (l *Lexer) lexString(start Position, quote byte) (Token, bool, error) {
	l.advanceChar() // opening quote

	var content []byte
	for {
		if l.position >= len(l.input) {
			return Token{}, false, &LexError{Position: start, Message: "unterminated string literal"}
		}

		ch := l.input[l.position]
		if ch == quote {
			l.advanceChar()
			break
		}

		if ch == '\\' && l.position+1 < len(l.input) {
			l.advanceChar()
			content = append(content, unescape(l.input[l.position]))
			l.advanceChar()
			continue
		}

		content = append(content, ch)
		l.advanceChar()
	}

	if content == nil {
		content = []byte{}
	}
	return Token{Type: STRING, Text: content, Position: start}, true, nil
}

// unescape maps the character after a backslash to the byte it denotes.
// Unknown escapes keep the character itself.
func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return ch
	}
}

func (l *Lexer) skipLineComment() {
	for l.position < len(l.input) && l.input[l.position] != '\n' {
		l.advanceChar()
	}
}

func (l *Lexer) skipBlockComment() error {
	start := l.pos()
	l.advanceChar()
	l.advanceChar()
	for l.position < len(l.input) {
		if l.input[l.position] == '*' && l.peek(1) == '/' {
			l.advanceChar()
			l.advanceChar()
			return nil
		}
		l.advanceChar()
	}
	return &LexError{Position: start, Message: "unterminated block comment"}
}

// skipWhitespace skips whitespace characters except newlines
func (l *Lexer) skipWhitespace() {
	for l.position < len(l.input) {
		ch := l.input[l.position]
		if ch >= utf8.RuneSelf || !isWhitespace[ch] {
			return
		}
		l.advanceChar()
	}
}

func (l *Lexer) peek(ahead int) byte {
	if l.position+ahead >= len(l.input) {
		return 0
	}
	return l.input[l.position+ahead]
}

func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.position}
}

// advanceChar moves past one character, counting a multi-byte rune as one column
func (l *Lexer) advanceChar() {
	if l.position >= len(l.input) {
		return
	}

	ch := l.input[l.position]
	if ch < utf8.RuneSelf {
		switch ch {
		case '\n':
			l.line++
			l.column = 1
		case '\t':
			l.column += TabWidth
		default:
			l.column++
		}
		l.position++
		return
	}

	_, size := utf8.DecodeRune(l.input[l.position:])
	if size <= 0 {
		size = 1
	}
	l.position += size
	l.column++
}
