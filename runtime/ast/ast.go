// Package ast defines the closed set of PD syntax tree nodes and the consume
// protocol the grammar engine uses to populate them.
//
// A node is created by New when its grammar rule starts matching at a token,
// then receives every child the rule produced through Consume. Consume
// classifies the child by variant and stores it in the right slot. Feeding a
// variant the node does not accept, or filling a single slot twice, is a
// grammar bug and panics through core/invariant.
package ast

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/compilingdogs/pd/core/invariant"
	"github.com/compilingdogs/pd/runtime/lexer"
)

// Kind tags each node variant; grammar rules name the kind they attach.
type Kind int

const (
	KindToken Kind = iota // Captured token without a dedicated node

	KindProgram
	KindBody

	// Statements
	KindDeclaration
	KindVarDefinition
	KindAssignment
	KindPrint
	KindReturn
	KindIf
	KindFor
	KindWhile

	// Literals
	KindInteger
	KindReal
	KindString
	KindBoolean
	KindEmpty
	KindArray
	KindTuple
	KindTupleElement
	KindFunction
	KindLambdaBody

	// References and calls
	KindReference
	KindIndexAccessor
	KindMemberAccessor
	KindCall

	// Operators
	KindBinary
	KindOperatorTail
	KindUnary
	KindTypeCheck
	KindTypeIndicator

	// Built-in input
	KindReadInt
	KindReadReal
	KindReadString

	kindCount
)

var kindNames = [kindCount]string{
	KindToken:          "Token",
	KindProgram:        "Program",
	KindBody:           "Body",
	KindDeclaration:    "Declaration",
	KindVarDefinition:  "VarDefinition",
	KindAssignment:     "Assignment",
	KindPrint:          "Print",
	KindReturn:         "Return",
	KindIf:             "If",
	KindFor:            "For",
	KindWhile:          "While",
	KindInteger:        "Integer",
	KindReal:           "Real",
	KindString:         "String",
	KindBoolean:        "Boolean",
	KindEmpty:          "Empty",
	KindArray:          "Array",
	KindTuple:          "Tuple",
	KindTupleElement:   "TupleElement",
	KindFunction:       "Function",
	KindLambdaBody:     "LambdaBody",
	KindReference:      "Reference",
	KindIndexAccessor:  "IndexAccessor",
	KindMemberAccessor: "MemberAccessor",
	KindCall:           "Call",
	KindBinary:         "Binary",
	KindOperatorTail:   "OperatorTail",
	KindUnary:          "Unary",
	KindTypeCheck:      "TypeCheck",
	KindTypeIndicator:  "TypeIndicator",
	KindReadInt:        "ReadInt",
	KindReadReal:       "ReadReal",
	KindReadString:     "ReadString",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "Unknown"
	}
	return kindNames[k]
}

// Node is any syntax tree node
type Node interface {
	Kind() Kind
	Pos() lexer.Position
}

// Consumer is a node that accepts children during matching
type Consumer interface {
	Node
	Consume(child Node)
}

// Expression is a node that evaluates to a value
type Expression interface {
	Node
	expressionNode()
}

// Statement is a node that runs inside a Program or Body
type Statement interface {
	Node
	statementNode()
}

// New creates the node for kind, anchored at tok, the first token the
// attached grammar rule matched. Leaf kinds derive their whole content from
// tok.
func New(kind Kind, tok lexer.Token) Node {
	pos := tok.Position
	switch kind {
	case KindToken:
		return &TokenNode{Token: tok}
	case KindProgram:
		return &Program{At: pos}
	case KindBody:
		return &Body{At: pos}
	case KindDeclaration:
		return &Declaration{At: pos}
	case KindVarDefinition:
		return &VarDefinition{At: pos, Name: string(tok.Text)}
	case KindAssignment:
		return &Assignment{At: pos}
	case KindPrint:
		return &Print{At: pos}
	case KindReturn:
		return &Return{At: pos}
	case KindIf:
		return &If{At: pos}
	case KindFor:
		return &For{At: pos}
	case KindWhile:
		return &While{At: pos}
	case KindInteger:
		return newInteger(tok)
	case KindReal:
		return newReal(tok)
	case KindString:
		return &StringLiteral{At: pos, Value: string(tok.Text)}
	case KindBoolean:
		invariant.Precondition(tok.Type == lexer.TRUE || tok.Type == lexer.FALSE,
			"boolean literal built from %s", tok.Type)
		return &BooleanLiteral{At: pos, Value: tok.Type == lexer.TRUE}
	case KindEmpty:
		return &EmptyLiteral{At: pos}
	case KindArray:
		return &ArrayLiteral{At: pos}
	case KindTuple:
		return &TupleLiteral{At: pos}
	case KindTupleElement:
		return &TupleElement{At: pos}
	case KindFunction:
		return &FunctionLiteral{At: pos}
	case KindLambdaBody:
		return &LambdaBody{At: pos}
	case KindReference:
		return &Reference{At: pos, Name: string(tok.Text)}
	case KindIndexAccessor:
		return &IndexAccessor{At: pos}
	case KindMemberAccessor:
		return &MemberAccessor{At: pos}
	case KindCall:
		return &Call{At: pos}
	case KindBinary:
		return &Binary{At: pos}
	case KindOperatorTail:
		return &OperatorTail{At: pos, Op: tok.Type}
	case KindUnary:
		return &Unary{At: pos, Op: tok.Type}
	case KindTypeCheck:
		return &TypeCheck{At: pos}
	case KindTypeIndicator:
		return newTypeIndicator(tok)
	case KindReadInt:
		return &ReadInt{At: pos}
	case KindReadReal:
		return &ReadReal{At: pos}
	case KindReadString:
		return &ReadString{At: pos}
	}
	invariant.Unreachable("no constructor for node kind %s", kind)
	return nil
}

func newInteger(tok lexer.Token) *IntegerLiteral {
	v, ok := new(big.Int).SetString(string(tok.Text), 10)
	invariant.Precondition(ok, "integer literal %q is not decimal digits", tok.Text)
	return &IntegerLiteral{At: tok.Position, Value: v}
}

func newReal(tok lexer.Token) *RealLiteral {
	v, err := decimal.NewFromString(string(tok.Text))
	invariant.ExpectNoError(err, "real literal "+string(tok.Text))
	return &RealLiteral{At: tok.Position, Value: v}
}

func newTypeIndicator(tok lexer.Token) *TypeIndicator {
	var t TypeName
	switch tok.Type {
	case lexer.INT_TYPE:
		t = TypeInt
	case lexer.REAL_TYPE:
		t = TypeReal
	case lexer.BOOL_TYPE:
		t = TypeBool
	case lexer.STRING_TYPE:
		t = TypeString
	case lexer.EMPTY:
		t = TypeEmpty
	case lexer.FUNC:
		t = TypeFunc
	case lexer.LSQUARE:
		t = TypeArray
	case lexer.LBRACE:
		t = TypeTuple
	default:
		invariant.Unreachable("type indicator built from %s", tok.Type)
	}
	return &TypeIndicator{At: tok.Position, Type: t}
}

// unsupported reports a child variant the parent does not accept
func unsupported(parent, child Node) {
	invariant.Precondition(false, "argument of type %s not supported by %s", child.Kind(), parent.Kind())
}

// fill panics if a single-valued slot is already occupied
func fill(parent Node, slot string, occupied bool) {
	invariant.Invariant(!occupied, "%s.%s consumed twice", parent.Kind(), slot)
}
