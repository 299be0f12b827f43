package lexer

import "fmt"

// TokenType represents the lexical categories of the PD language
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota

	// Statement separators
	NEWLINE   // \n
	SEMICOLON // ;

	// Declarations and statements
	VAR    // var
	PRINT  // print
	RETURN // return

	// Control flow
	IF    // if
	THEN  // then
	ELSE  // else
	END   // end
	FOR   // for
	WHILE // while
	IN    // in
	LOOP  // loop

	// Functions
	FUNC  // func
	IS    // is - also the type check operator
	ARROW // => or ->

	// Type indicators
	INT_TYPE    // int
	REAL_TYPE   // real
	BOOL_TYPE   // bool
	STRING_TYPE // string
	EMPTY       // empty - also the no-value literal

	// Built-in input
	READ_INT    // readInt
	READ_REAL   // readReal
	READ_STRING // readString

	// Logical operators
	NOT // not
	OR  // or
	AND // and
	XOR // xor

	// Assignment and comparison
	ASSIGN // :=
	EQUALS // =
	NOT_EQ // /=
	LT     // <
	LT_EQ  // <=
	GT     // >
	GT_EQ  // >=

	// Arithmetic operators
	PLUS     // +
	MINUS    // -
	MULTIPLY // *
	DIVIDE   // /

	// Punctuation
	COMMA   // ,
	DOT     // .
	RANGE   // ..
	LPAREN  // (
	RPAREN  // )
	LSQUARE // [
	RSQUARE // ]
	LBRACE  // {
	RBRACE  // }

	// Literals
	IDENTIFIER // name
	INTEGER    // 42
	FLOAT      // 3.14
	STRING     // "text" or 'text', Text holds the unescaped content
	TRUE       // true
	FALSE      // false

	tokenTypeCount
)

// Token represents a lexical token
type Token struct {
	Type     TokenType
	Text     []byte
	Position Position
}

// String returns the token text, or its symbol for self-identifying tokens
func (t Token) String() string {
	if len(t.Text) > 0 {
		return string(t.Text)
	}
	return t.Type.Symbol()
}

// Describe renders a token for diagnostics: quoted text plus position
func (t Token) Describe() string {
	switch t.Type {
	case NEWLINE:
		return fmt.Sprintf("newline at %s", t.Position)
	case STRING:
		return fmt.Sprintf("%q at %s", string(t.Text), t.Position)
	default:
		return fmt.Sprintf("'%s' at %s", t.String(), t.Position)
	}
}

// Position represents a position in the source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number, tabs advance by 4
	Offset int // 0-based byte offset
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Valid reports whether t is a known token type
func (t TokenType) Valid() bool {
	return t > ILLEGAL && t < tokenTypeCount
}

var tokenNames = [tokenTypeCount]string{
	ILLEGAL:     "ILLEGAL",
	NEWLINE:     "NEWLINE",
	SEMICOLON:   "SEMICOLON",
	VAR:         "VAR",
	PRINT:       "PRINT",
	RETURN:      "RETURN",
	IF:          "IF",
	THEN:        "THEN",
	ELSE:        "ELSE",
	END:         "END",
	FOR:         "FOR",
	WHILE:       "WHILE",
	IN:          "IN",
	LOOP:        "LOOP",
	FUNC:        "FUNC",
	IS:          "IS",
	ARROW:       "ARROW",
	INT_TYPE:    "INT_TYPE",
	REAL_TYPE:   "REAL_TYPE",
	BOOL_TYPE:   "BOOL_TYPE",
	STRING_TYPE: "STRING_TYPE",
	EMPTY:       "EMPTY",
	READ_INT:    "READ_INT",
	READ_REAL:   "READ_REAL",
	READ_STRING: "READ_STRING",
	NOT:         "NOT",
	OR:          "OR",
	AND:         "AND",
	XOR:         "XOR",
	ASSIGN:      "ASSIGN",
	EQUALS:      "EQUALS",
	NOT_EQ:      "NOT_EQ",
	LT:          "LT",
	LT_EQ:       "LT_EQ",
	GT:          "GT",
	GT_EQ:       "GT_EQ",
	PLUS:        "PLUS",
	MINUS:       "MINUS",
	MULTIPLY:    "MULTIPLY",
	DIVIDE:      "DIVIDE",
	COMMA:       "COMMA",
	DOT:         "DOT",
	RANGE:       "RANGE",
	LPAREN:      "LPAREN",
	RPAREN:      "RPAREN",
	LSQUARE:     "LSQUARE",
	RSQUARE:     "RSQUARE",
	LBRACE:      "LBRACE",
	RBRACE:      "RBRACE",
	IDENTIFIER:  "IDENTIFIER",
	INTEGER:     "INTEGER",
	FLOAT:       "FLOAT",
	STRING:      "STRING",
	TRUE:        "TRUE",
	FALSE:       "FALSE",
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	if t < 0 || t >= tokenTypeCount {
		return "UNKNOWN"
	}
	return tokenNames[t]
}

// Symbol returns the source spelling of fixed tokens, or "" for
// identifiers and literals whose text varies.
func (t TokenType) Symbol() string {
	switch t {
	case NEWLINE:
		return "\\n"
	case SEMICOLON:
		return ";"
	case ARROW:
		return "=>"
	case ASSIGN:
		return ":="
	case EQUALS:
		return "="
	case NOT_EQ:
		return "/="
	case LT:
		return "<"
	case LT_EQ:
		return "<="
	case GT:
		return ">"
	case GT_EQ:
		return ">="
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case MULTIPLY:
		return "*"
	case DIVIDE:
		return "/"
	case COMMA:
		return ","
	case DOT:
		return "."
	case RANGE:
		return ".."
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case LSQUARE:
		return "["
	case RSQUARE:
		return "]"
	case LBRACE:
		return "{"
	case RBRACE:
		return "}"
	}
	for word, kw := range Keywords {
		if kw == t {
			return word
		}
	}
	return ""
}

// Keywords maps reserved words to their token types
var Keywords = map[string]TokenType{
	"var":        VAR,
	"print":      PRINT,
	"return":     RETURN,
	"if":         IF,
	"then":       THEN,
	"else":       ELSE,
	"end":        END,
	"for":        FOR,
	"while":      WHILE,
	"in":         IN,
	"loop":       LOOP,
	"func":       FUNC,
	"is":         IS,
	"int":        INT_TYPE,
	"real":       REAL_TYPE,
	"bool":       BOOL_TYPE,
	"string":     STRING_TYPE,
	"empty":      EMPTY,
	"readInt":    READ_INT,
	"readReal":   READ_REAL,
	"readString": READ_STRING,
	"not":        NOT,
	"or":         OR,
	"and":        AND,
	"xor":        XOR,
	"true":       TRUE,
	"false":      FALSE,
}
