// Package grammar implements matcher combinators over a PD token stream.
//
// A grammar is a graph of five node kinds: TokenMatch, Concatenation,
// Alternation, Optional and Repetition. Recursive rules are written with
// named Rule handles that resolve lazily, so a rule can mention itself
// before it is defined. Nodes are read-only after construction; all state of
// a match attempt lives in the matcher, which makes backtracking free of
// side effects.
//
// A node may carry an attachment (As). When it matches, it creates the
// attached ast node at its first token and feeds it every child node the
// match produced through ast.Consumer.Consume.
package grammar

import (
	"strings"

	"github.com/compilingdogs/pd/runtime/ast"
	"github.com/compilingdogs/pd/runtime/lexer"
)

// Node is a grammar graph node
type Node interface {
	Name() string
	match(m *matcher, pos int) (Result, *ParseError)
}

// Result is a successful match: how many tokens it consumed and the ast
// nodes it contributes to its parent.
type Result struct {
	Consumed int
	Nodes    []ast.Node
}

// attachment is the optional target ast kind of a node
type attachment struct {
	kind     ast.Kind
	attached bool
}

func (a attachment) Attachment() (ast.Kind, bool) { return a.kind, a.attached }

// TokenMatch matches exactly one token of Type
type TokenMatch struct {
	attachment
	Type    lexer.TokenType
	Capture bool
}

// Tok matches a token and contributes nothing (keywords, punctuation)
func Tok(t lexer.TokenType) *TokenMatch {
	return &TokenMatch{Type: t}
}

// Capture matches a token and contributes it as an ast.TokenNode, or as the
// attached kind when As is used.
func Capture(t lexer.TokenType) *TokenMatch {
	return &TokenMatch{Type: t, Capture: true}
}

// As builds kind from the matched token
func (n *TokenMatch) As(kind ast.Kind) *TokenMatch {
	n.kind, n.attached, n.Capture = kind, true, true
	return n
}

func (n *TokenMatch) Name() string { return describeType(n.Type) }

// Concatenation matches Children in order
type Concatenation struct {
	attachment
	name     string
	Children []Node
}

func Concat(name string, children ...Node) *Concatenation {
	return &Concatenation{name: name, Children: children}
}

func (n *Concatenation) As(kind ast.Kind) *Concatenation {
	n.kind, n.attached = kind, true
	return n
}

func (n *Concatenation) Name() string { return n.name }

// Alternation matches the first (or longest) successful variant
type Alternation struct {
	attachment
	name     string
	Variants []Node
}

func Any(name string, variants ...Node) *Alternation {
	return &Alternation{name: name, Variants: variants}
}

func (n *Alternation) As(kind ast.Kind) *Alternation {
	n.kind, n.attached = kind, true
	return n
}

func (n *Alternation) Name() string { return n.name }

// Optional matches Inner once or succeeds empty
type Optional struct {
	attachment
	name  string
	Inner Node
}

// Maybe wraps children in an Optional; several children form an implicit
// concatenation.
func Maybe(name string, children ...Node) *Optional {
	return &Optional{name: name, Inner: sequence(name, children)}
}

func (n *Optional) As(kind ast.Kind) *Optional {
	n.kind, n.attached = kind, true
	return n
}

func (n *Optional) Name() string { return n.name }

// Repetition matches its child sequence zero or more times
type Repetition struct {
	attachment
	name  string
	Inner Node
}

func Repeat(name string, children ...Node) *Repetition {
	return &Repetition{name: name, Inner: sequence(name, children)}
}

func (n *Repetition) As(kind ast.Kind) *Repetition {
	n.kind, n.attached = kind, true
	return n
}

func (n *Repetition) Name() string { return n.name }

func sequence(name string, children []Node) Node {
	if len(children) == 1 {
		return children[0]
	}
	return Concat(name, children...)
}

// describeType names a token type the way diagnostics spell it
func describeType(t lexer.TokenType) string {
	switch t {
	case lexer.IDENTIFIER:
		return "identifier"
	case lexer.INTEGER:
		return "integer"
	case lexer.FLOAT:
		return "real"
	case lexer.STRING:
		return "string"
	case lexer.NEWLINE:
		return "newline"
	}
	if sym := t.Symbol(); sym != "" {
		return "'" + sym + "'"
	}
	return strings.ToLower(t.String())
}
