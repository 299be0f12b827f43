package lexer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
)

// tokenExpectation represents an expected token for testing
type tokenExpectation struct {
	Type   TokenType
	Text   string
	Line   int
	Column int
}

// assertTokens compares actual tokens with expected, providing clear error messages
func assertTokens(t *testing.T, name string, input string, expected []tokenExpectation) {
	t.Helper()

	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}

	var actual []tokenExpectation
	for _, token := range tokens {
		actual = append(actual, tokenExpectation{
			Type:   token.Type,
			Text:   string(token.Text),
			Line:   token.Position.Line,
			Column: token.Position.Column,
		})
	}

	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("%s: token mismatch (-expected +actual):\n%s", name, diff)
	}
}

func TestEmptyInput(t *testing.T) {
	tokens, err := Tokenize("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}

func TestDeclarations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []tokenExpectation
	}{
		{
			name:  "declaration with initializer",
			input: "var x := 2 + 3",
			expected: []tokenExpectation{
				{VAR, "var", 1, 1},
				{IDENTIFIER, "x", 1, 5},
				{ASSIGN, "", 1, 7},
				{INTEGER, "2", 1, 10},
				{PLUS, "", 1, 12},
				{INTEGER, "3", 1, 14},
			},
		},
		{
			name:  "equals form",
			input: "var x = 5",
			expected: []tokenExpectation{
				{VAR, "var", 1, 1},
				{IDENTIFIER, "x", 1, 5},
				{EQUALS, "", 1, 7},
				{INTEGER, "5", 1, 9},
			},
		},
		{
			name:  "multiple definitions",
			input: "var a, b_2",
			expected: []tokenExpectation{
				{VAR, "var", 1, 1},
				{IDENTIFIER, "a", 1, 5},
				{COMMA, "", 1, 6},
				{IDENTIFIER, "b_2", 1, 8},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokens(t, tt.name, tt.input, tt.expected)
		})
	}
}

func TestOperators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []tokenExpectation
	}{
		{
			name:  "comparison",
			input: "< <= > >= = /=",
			expected: []tokenExpectation{
				{LT, "", 1, 1},
				{LT_EQ, "", 1, 3},
				{GT, "", 1, 6},
				{GT_EQ, "", 1, 8},
				{EQUALS, "", 1, 11},
				{NOT_EQ, "", 1, 13},
			},
		},
		{
			name:  "arithmetic without spaces",
			input: "a*b/c-d",
			expected: []tokenExpectation{
				{IDENTIFIER, "a", 1, 1},
				{MULTIPLY, "", 1, 2},
				{IDENTIFIER, "b", 1, 3},
				{DIVIDE, "", 1, 4},
				{IDENTIFIER, "c", 1, 5},
				{MINUS, "", 1, 6},
				{IDENTIFIER, "d", 1, 7},
			},
		},
		{
			name:  "both lambda arrows",
			input: "=> ->",
			expected: []tokenExpectation{
				{ARROW, "", 1, 1},
				{ARROW, "", 1, 4},
			},
		},
		{
			name:  "logical keywords",
			input: "not a or b and c xor d",
			expected: []tokenExpectation{
				{NOT, "not", 1, 1},
				{IDENTIFIER, "a", 1, 5},
				{OR, "or", 1, 7},
				{IDENTIFIER, "b", 1, 10},
				{AND, "and", 1, 12},
				{IDENTIFIER, "c", 1, 16},
				{XOR, "xor", 1, 18},
				{IDENTIFIER, "d", 1, 22},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokens(t, tt.name, tt.input, tt.expected)
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []tokenExpectation
	}{
		{
			name:  "range is not a real",
			input: "1..3",
			expected: []tokenExpectation{
				{INTEGER, "1", 1, 1},
				{RANGE, "", 1, 2},
				{INTEGER, "3", 1, 4},
			},
		},
		{
			name:  "real literal",
			input: "3.14",
			expected: []tokenExpectation{
				{FLOAT, "3.14", 1, 1},
			},
		},
		{
			name:  "nested tuple index",
			input: "t.1.2",
			expected: []tokenExpectation{
				{IDENTIFIER, "t", 1, 1},
				{DOT, "", 1, 2},
				{INTEGER, "1", 1, 3},
				{DOT, "", 1, 4},
				{INTEGER, "2", 1, 5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokens(t, tt.name, tt.input, tt.expected)
		})
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []tokenExpectation
	}{
		{
			name:  "double quoted",
			input: `print "yes"`,
			expected: []tokenExpectation{
				{PRINT, "print", 1, 1},
				{STRING, "yes", 1, 7},
			},
		},
		{
			name:  "single quoted with escapes",
			input: `'it\'s\n'`,
			expected: []tokenExpectation{
				{STRING, "it's\n", 1, 1},
			},
		},
		{
			name:  "empty string",
			input: `""`,
			expected: []tokenExpectation{
				{STRING, "", 1, 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokens(t, tt.name, tt.input, tt.expected)
		})
	}
}

func TestNewlinesAndComments(t *testing.T) {
	input := "x := 1 // set x\n\n\n/* block\ncomment */\n\ty := 2; print x"
	expected := []tokenExpectation{
		{IDENTIFIER, "x", 1, 1},
		{ASSIGN, "", 1, 3},
		{INTEGER, "1", 1, 6},
		{NEWLINE, "", 1, 16},
		{IDENTIFIER, "y", 6, 5},
		{ASSIGN, "", 6, 7},
		{INTEGER, "2", 6, 10},
		{SEMICOLON, "", 6, 11},
		{PRINT, "print", 6, 13},
		{IDENTIFIER, "x", 6, 19},
	}
	assertTokens(t, "newlines and comments", input, expected)
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		line    int
		column  int
	}{
		{"unterminated string", `print "oops`, "unterminated string literal", 1, 7},
		{"unterminated comment", "x /* never", "unterminated block comment", 1, 3},
		{"lone colon", "x : 1", "unexpected character ':'", 1, 3},
		{"unknown symbol", "a\n  # b", "unexpected character '#'", 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			lexErr, ok := err.(*LexError)
			if !ok {
				t.Fatalf("expected *LexError, got %T (%v)", err, err)
			}
			if lexErr.Message != tt.message {
				t.Errorf("message = %q, want %q", lexErr.Message, tt.message)
			}
			if lexErr.Position.Line != tt.line || lexErr.Position.Column != tt.column {
				t.Errorf("position = %d:%d, want %d:%d",
					lexErr.Position.Line, lexErr.Position.Column, tt.line, tt.column)
			}
		})
	}
}

func TestTelemetry(t *testing.T) {
	lex := NewLexer("var a := 1\nvar b := 2", WithTelemetryBasic())
	if _, err := lex.Tokenize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tel := lex.Telemetry()
	if tel == nil {
		t.Fatal("expected telemetry")
	}
	if tel.Tokens != 9 {
		t.Errorf("Tokens = %d, want 9", tel.Tokens)
	}
	want := map[TokenType]int{VAR: 2, IDENTIFIER: 2, ASSIGN: 2, INTEGER: 2, NEWLINE: 1}
	if diff := cmp.Diff(want, tel.ByType); diff != "" {
		t.Errorf("ByType mismatch (-want +got):\n%s", diff)
	}

	if NewLexer("x").Telemetry() != nil {
		t.Error("telemetry must be nil when disabled")
	}
}

func TestTokenStreamRoundTrip(t *testing.T) {
	src := "var s := \"\"\nfor i in 1..3 loop print s, i end"
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var first, second bytes.Buffer
	if err := EncodeTokens(&first, "loop.pd", tokens); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := EncodeTokens(&second, "loop.pd", tokens); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("encoding must be deterministic")
	}

	decoded, source, err := DecodeTokens(&first)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if source != "loop.pd" {
		t.Errorf("source = %q", source)
	}
	if diff := cmp.Diff(tokens, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeTokens(strings.NewReader("not cbor")); err == nil {
		t.Error("expected error for non-CBOR input")
	}

	var buf bytes.Buffer
	bad := []Token{{Type: tokenTypeCount + 5, Position: Position{Line: 1, Column: 1}}}
	if err := EncodeTokens(&buf, "", bad); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, _, err := DecodeTokens(&buf); err == nil || !strings.Contains(err.Error(), "invalid token type") {
		t.Errorf("expected invalid token type error, got %v", err)
	}
}

func TestDecodeRejectsTamperedStream(t *testing.T) {
	tokens, err := Tokenize("var x := 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var buf bytes.Buffer
	if err := EncodeTokens(&buf, "x.pd", tokens); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var stream tokenStream
	if err := cbor.Unmarshal(buf.Bytes(), &stream); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(stream.Digest) != 32 {
		t.Fatalf("digest length = %d, want 32", len(stream.Digest))
	}
	stream.Tokens[3].Text = []byte("2")

	data, err := cbor.Marshal(stream)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, _, err := DecodeTokens(bytes.NewReader(data)); err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Errorf("expected digest mismatch, got %v", err)
	}
}

func TestSymbolsAndNames(t *testing.T) {
	for tt := ILLEGAL + 1; tt < tokenTypeCount; tt++ {
		if tt.String() == "" || tt.String() == "UNKNOWN" {
			t.Errorf("token type %d has no name", tt)
		}
	}
	if got := ASSIGN.Symbol(); got != ":=" {
		t.Errorf("ASSIGN.Symbol() = %q", got)
	}
	if got := READ_INT.Symbol(); got != "readInt" {
		t.Errorf("READ_INT.Symbol() = %q", got)
	}
	if got := (Token{Type: STRING, Text: []byte("hi")}).Describe(); got != `"hi" at line 0, column 0` {
		t.Errorf("Describe() = %q", got)
	}
}
