package ast

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/compilingdogs/pd/runtime/lexer"
)

// TokenNode carries a captured token to a parent that reads its text
type TokenNode struct {
	Token lexer.Token
}

func (n *TokenNode) Kind() Kind          { return KindToken }
func (n *TokenNode) Pos() lexer.Position { return n.Token.Position }

// Program is the root of a parsed source file
type Program struct {
	At         lexer.Position
	Statements []Statement
}

func (n *Program) Kind() Kind          { return KindProgram }
func (n *Program) Pos() lexer.Position { return n.At }

func (n *Program) Consume(child Node) {
	stmt, ok := child.(Statement)
	if !ok {
		unsupported(n, child)
	}
	n.Statements = append(n.Statements, stmt)
}

// Body is a statement list nested in a control structure or function
type Body struct {
	At         lexer.Position
	Statements []Statement
}

func (n *Body) Kind() Kind          { return KindBody }
func (n *Body) Pos() lexer.Position { return n.At }

func (n *Body) Consume(child Node) {
	stmt, ok := child.(Statement)
	if !ok {
		unsupported(n, child)
	}
	n.Statements = append(n.Statements, stmt)
}

// Declaration introduces one or more variables: var a := 1, b
type Declaration struct {
	At          lexer.Position
	Definitions []*VarDefinition
}

func (n *Declaration) Kind() Kind          { return KindDeclaration }
func (n *Declaration) Pos() lexer.Position { return n.At }
func (n *Declaration) statementNode()      {}

func (n *Declaration) Consume(child Node) {
	def, ok := child.(*VarDefinition)
	if !ok {
		unsupported(n, child)
	}
	n.Definitions = append(n.Definitions, def)
}

// VarDefinition is one name in a declaration with its optional initializer
type VarDefinition struct {
	At    lexer.Position
	Name  string
	Value Expression // nil when declared without a value
}

func (n *VarDefinition) Kind() Kind          { return KindVarDefinition }
func (n *VarDefinition) Pos() lexer.Position { return n.At }

func (n *VarDefinition) Consume(child Node) {
	expr, ok := child.(Expression)
	if !ok {
		unsupported(n, child)
	}
	fill(n, "Value", n.Value != nil)
	n.Value = expr
}

// Assignment stores Value into Target: a := 1, a[2] := 9, t.name := "x"
type Assignment struct {
	At     lexer.Position
	Target *Reference
	Value  Expression
}

func (n *Assignment) Kind() Kind          { return KindAssignment }
func (n *Assignment) Pos() lexer.Position { return n.At }
func (n *Assignment) statementNode()      {}

func (n *Assignment) Consume(child Node) {
	if n.Target == nil {
		ref, ok := child.(*Reference)
		if !ok {
			unsupported(n, child)
		}
		n.Target = ref
		return
	}
	expr, ok := child.(Expression)
	if !ok {
		unsupported(n, child)
	}
	fill(n, "Value", n.Value != nil)
	n.Value = expr
}

// Print writes its operands joined by ", "
type Print struct {
	At        lexer.Position
	Arguments []Expression
}

func (n *Print) Kind() Kind          { return KindPrint }
func (n *Print) Pos() lexer.Position { return n.At }
func (n *Print) statementNode()      {}

func (n *Print) Consume(child Node) {
	expr, ok := child.(Expression)
	if !ok {
		unsupported(n, child)
	}
	n.Arguments = append(n.Arguments, expr)
}

// Return stops the enclosing body, yielding Value if present
type Return struct {
	At    lexer.Position
	Value Expression
}

func (n *Return) Kind() Kind          { return KindReturn }
func (n *Return) Pos() lexer.Position { return n.At }
func (n *Return) statementNode()      {}

func (n *Return) Consume(child Node) {
	expr, ok := child.(Expression)
	if !ok {
		unsupported(n, child)
	}
	fill(n, "Value", n.Value != nil)
	n.Value = expr
}

// If runs Then when Condition is true, otherwise Else if present.
// The first consumed body is Then, the second Else.
type If struct {
	At        lexer.Position
	Condition Expression
	Then      *Body
	Else      *Body
}

func (n *If) Kind() Kind          { return KindIf }
func (n *If) Pos() lexer.Position { return n.At }
func (n *If) statementNode()      {}

func (n *If) Consume(child Node) {
	switch c := child.(type) {
	case *Body:
		if n.Then == nil {
			n.Then = c
			return
		}
		fill(n, "Else", n.Else != nil)
		n.Else = c
	case Expression:
		fill(n, "Condition", n.Condition != nil)
		n.Condition = c
	default:
		unsupported(n, child)
	}
}

// For iterates a half-open integer range (RangeBegin..RangeEnd) or the
// elements of Iterable. The first consumed expression is the iterable; a
// second one turns the pair into a range.
type For struct {
	At         lexer.Position
	Variable   string // "" when the loop binds no name
	Iterable   Expression
	RangeBegin Expression
	RangeEnd   Expression
	Body       *Body
}

func (n *For) Kind() Kind          { return KindFor }
func (n *For) Pos() lexer.Position { return n.At }
func (n *For) statementNode()      {}

// IsRange reports whether the loop iterates an integer range
func (n *For) IsRange() bool { return n.RangeEnd != nil }

func (n *For) Consume(child Node) {
	switch c := child.(type) {
	case *TokenNode:
		fill(n, "Variable", n.Variable != "")
		n.Variable = string(c.Token.Text)
	case *Body:
		fill(n, "Body", n.Body != nil)
		n.Body = c
	case Expression:
		switch {
		case n.Iterable == nil && n.RangeEnd == nil:
			n.Iterable = c
		case n.RangeEnd == nil:
			n.RangeBegin, n.Iterable = n.Iterable, nil
			n.RangeEnd = c
		default:
			fill(n, "RangeEnd", true)
		}
	default:
		unsupported(n, child)
	}
}

// While repeats Body while Condition is true
type While struct {
	At        lexer.Position
	Condition Expression
	Body      *Body
}

func (n *While) Kind() Kind          { return KindWhile }
func (n *While) Pos() lexer.Position { return n.At }
func (n *While) statementNode()      {}

func (n *While) Consume(child Node) {
	switch c := child.(type) {
	case *Body:
		fill(n, "Body", n.Body != nil)
		n.Body = c
	case Expression:
		fill(n, "Condition", n.Condition != nil)
		n.Condition = c
	default:
		unsupported(n, child)
	}
}

// IntegerLiteral is a decimal integer constant
type IntegerLiteral struct {
	At    lexer.Position
	Value *big.Int
}

func (n *IntegerLiteral) Kind() Kind          { return KindInteger }
func (n *IntegerLiteral) Pos() lexer.Position { return n.At }
func (n *IntegerLiteral) expressionNode()     {}

// RealLiteral is a decimal constant with a fraction
type RealLiteral struct {
	At    lexer.Position
	Value decimal.Decimal
}

func (n *RealLiteral) Kind() Kind          { return KindReal }
func (n *RealLiteral) Pos() lexer.Position { return n.At }
func (n *RealLiteral) expressionNode()     {}

type StringLiteral struct {
	At    lexer.Position
	Value string
}

func (n *StringLiteral) Kind() Kind          { return KindString }
func (n *StringLiteral) Pos() lexer.Position { return n.At }
func (n *StringLiteral) expressionNode()     {}

type BooleanLiteral struct {
	At    lexer.Position
	Value bool
}

func (n *BooleanLiteral) Kind() Kind          { return KindBoolean }
func (n *BooleanLiteral) Pos() lexer.Position { return n.At }
func (n *BooleanLiteral) expressionNode()     {}

// EmptyLiteral evaluates to no value
type EmptyLiteral struct {
	At lexer.Position
}

func (n *EmptyLiteral) Kind() Kind          { return KindEmpty }
func (n *EmptyLiteral) Pos() lexer.Position { return n.At }
func (n *EmptyLiteral) expressionNode()     {}

type ArrayLiteral struct {
	At       lexer.Position
	Elements []Expression
}

func (n *ArrayLiteral) Kind() Kind          { return KindArray }
func (n *ArrayLiteral) Pos() lexer.Position { return n.At }
func (n *ArrayLiteral) expressionNode()     {}

func (n *ArrayLiteral) Consume(child Node) {
	expr, ok := child.(Expression)
	if !ok {
		unsupported(n, child)
	}
	n.Elements = append(n.Elements, expr)
}

type TupleLiteral struct {
	At       lexer.Position
	Elements []*TupleElement
}

func (n *TupleLiteral) Kind() Kind          { return KindTuple }
func (n *TupleLiteral) Pos() lexer.Position { return n.At }
func (n *TupleLiteral) expressionNode()     {}

func (n *TupleLiteral) Consume(child Node) {
	el, ok := child.(*TupleElement)
	if !ok {
		unsupported(n, child)
	}
	n.Elements = append(n.Elements, el)
}

// TupleElement is one tuple entry; Name is "" for positional elements
type TupleElement struct {
	At    lexer.Position
	Name  string
	Value Expression
}

func (n *TupleElement) Kind() Kind          { return KindTupleElement }
func (n *TupleElement) Pos() lexer.Position { return n.At }

func (n *TupleElement) Consume(child Node) {
	switch c := child.(type) {
	case *TokenNode:
		fill(n, "Name", n.Name != "")
		n.Name = string(c.Token.Text)
	case Expression:
		fill(n, "Value", n.Value != nil)
		n.Value = c
	default:
		unsupported(n, child)
	}
}

// FunctionLiteral is func(a, b) is ... end, or func(a) => expr for lambdas
type FunctionLiteral struct {
	At     lexer.Position
	Params []string
	Body   *Body       // set for func ... is ... end
	Lambda *LambdaBody // set for func ... => ...
}

func (n *FunctionLiteral) Kind() Kind          { return KindFunction }
func (n *FunctionLiteral) Pos() lexer.Position { return n.At }
func (n *FunctionLiteral) expressionNode()     {}

// IsLambda reports whether the function was written with =>
func (n *FunctionLiteral) IsLambda() bool { return n.Lambda != nil }

func (n *FunctionLiteral) Consume(child Node) {
	switch c := child.(type) {
	case *TokenNode:
		n.Params = append(n.Params, string(c.Token.Text))
	case *Body:
		fill(n, "Body", n.Body != nil || n.Lambda != nil)
		n.Body = c
	case *LambdaBody:
		fill(n, "Lambda", n.Body != nil || n.Lambda != nil)
		n.Lambda = c
	default:
		unsupported(n, child)
	}
}

// LambdaBody holds the single statement or expression after =>
type LambdaBody struct {
	At        lexer.Position
	Statement Statement
	Value     Expression
}

func (n *LambdaBody) Kind() Kind          { return KindLambdaBody }
func (n *LambdaBody) Pos() lexer.Position { return n.At }

func (n *LambdaBody) Consume(child Node) {
	fill(n, "Value", n.Statement != nil || n.Value != nil)
	switch c := child.(type) {
	case Statement:
		n.Statement = c
	case Expression:
		n.Value = c
	default:
		unsupported(n, child)
	}
}

// Reference names a variable, optionally followed by index and member accessors
type Reference struct {
	At        lexer.Position
	Name      string
	Accessors []Accessor
}

func (n *Reference) Kind() Kind          { return KindReference }
func (n *Reference) Pos() lexer.Position { return n.At }
func (n *Reference) expressionNode()     {}

// IsPlain reports whether the reference is a bare identifier
func (n *Reference) IsPlain() bool { return len(n.Accessors) == 0 }

func (n *Reference) Consume(child Node) {
	acc, ok := child.(Accessor)
	if !ok {
		unsupported(n, child)
	}
	n.Accessors = append(n.Accessors, acc)
}

// Accessor is an element step of a reference: [expr] or .name
type Accessor interface {
	Node
	accessorNode()
}

// IndexAccessor is [Index]
type IndexAccessor struct {
	At    lexer.Position
	Index Expression
}

func (n *IndexAccessor) Kind() Kind          { return KindIndexAccessor }
func (n *IndexAccessor) Pos() lexer.Position { return n.At }
func (n *IndexAccessor) accessorNode()       {}

func (n *IndexAccessor) Consume(child Node) {
	expr, ok := child.(Expression)
	if !ok {
		unsupported(n, child)
	}
	fill(n, "Index", n.Index != nil)
	n.Index = expr
}

// MemberAccessor is .Name, where Name is an identifier or a positional index
type MemberAccessor struct {
	At   lexer.Position
	Name string
}

func (n *MemberAccessor) Kind() Kind          { return KindMemberAccessor }
func (n *MemberAccessor) Pos() lexer.Position { return n.At }
func (n *MemberAccessor) accessorNode()       {}

func (n *MemberAccessor) Consume(child Node) {
	tok, ok := child.(*TokenNode)
	if !ok {
		unsupported(n, child)
	}
	fill(n, "Name", n.Name != "")
	n.Name = string(tok.Token.Text)
}

// Call invokes Callee with Arguments; the first consumed reference is the callee
type Call struct {
	At        lexer.Position
	Callee    *Reference
	Arguments []Expression
}

func (n *Call) Kind() Kind          { return KindCall }
func (n *Call) Pos() lexer.Position { return n.At }
func (n *Call) expressionNode()     {}

func (n *Call) Consume(child Node) {
	if n.Callee == nil {
		ref, ok := child.(*Reference)
		if !ok {
			unsupported(n, child)
		}
		n.Callee = ref
		return
	}
	expr, ok := child.(Expression)
	if !ok {
		unsupported(n, child)
	}
	n.Arguments = append(n.Arguments, expr)
}

// Binary applies Op to Left and Right. With Right unset the node is a
// transparent wrapper around Left.
//
// Expressions fill Left then Right; a third expression panics. Operator
// tails make chains left-associative: a second tail folds the current
// Left Op Right into a new Left.
type Binary struct {
	At    lexer.Position
	Op    lexer.TokenType
	Left  Expression
	Right Expression
}

func (n *Binary) Kind() Kind          { return KindBinary }
func (n *Binary) Pos() lexer.Position { return n.At }
func (n *Binary) expressionNode()     {}

// IsPassThrough reports whether the node only wraps Left
func (n *Binary) IsPassThrough() bool { return n.Right == nil }

func (n *Binary) Consume(child Node) {
	switch c := child.(type) {
	case *OperatorTail:
		if n.Left == nil {
			unsupported(n, child)
		}
		if n.Right != nil {
			n.Left = &Binary{At: n.At, Op: n.Op, Left: n.Left, Right: n.Right}
		}
		n.Op = c.Op
		n.Right = c.Operand
	case Expression:
		if n.Left == nil {
			n.Left = c
			return
		}
		fill(n, "Right", n.Right != nil)
		n.Right = c
	default:
		unsupported(n, child)
	}
}

// OperatorTail is one "op operand" step of a binary chain
type OperatorTail struct {
	At      lexer.Position
	Op      lexer.TokenType
	Operand Expression
}

func (n *OperatorTail) Kind() Kind          { return KindOperatorTail }
func (n *OperatorTail) Pos() lexer.Position { return n.At }

func (n *OperatorTail) Consume(child Node) {
	expr, ok := child.(Expression)
	if !ok {
		unsupported(n, child)
	}
	fill(n, "Operand", n.Operand != nil)
	n.Operand = expr
}

// Unary applies +, - or not to Operand. Unary + yields the absolute value.
type Unary struct {
	At      lexer.Position
	Op      lexer.TokenType
	Operand Expression
}

func (n *Unary) Kind() Kind          { return KindUnary }
func (n *Unary) Pos() lexer.Position { return n.At }
func (n *Unary) expressionNode()     {}

func (n *Unary) Consume(child Node) {
	expr, ok := child.(Expression)
	if !ok {
		unsupported(n, child)
	}
	fill(n, "Operand", n.Operand != nil)
	n.Operand = expr
}

// TypeCheck is "Operand is Type"; without a Type it wraps Operand
type TypeCheck struct {
	At      lexer.Position
	Operand Expression
	Type    *TypeIndicator
}

func (n *TypeCheck) Kind() Kind          { return KindTypeCheck }
func (n *TypeCheck) Pos() lexer.Position { return n.At }
func (n *TypeCheck) expressionNode()     {}

// IsPassThrough reports whether the node only wraps Operand
func (n *TypeCheck) IsPassThrough() bool { return n.Type == nil }

func (n *TypeCheck) Consume(child Node) {
	switch c := child.(type) {
	case *TypeIndicator:
		fill(n, "Type", n.Type != nil)
		n.Type = c
	case Expression:
		fill(n, "Operand", n.Operand != nil)
		n.Operand = c
	default:
		unsupported(n, child)
	}
}

// TypeName enumerates the runtime types an "is" check can name
type TypeName int

const (
	TypeInt TypeName = iota
	TypeReal
	TypeBool
	TypeString
	TypeEmpty
	TypeFunc
	TypeArray
	TypeTuple
)

func (t TypeName) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeReal:
		return "real"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeEmpty:
		return "empty"
	case TypeFunc:
		return "func"
	case TypeArray:
		return "[]"
	case TypeTuple:
		return "{}"
	default:
		return "unknown"
	}
}

type TypeIndicator struct {
	At   lexer.Position
	Type TypeName
}

func (n *TypeIndicator) Kind() Kind          { return KindTypeIndicator }
func (n *TypeIndicator) Pos() lexer.Position { return n.At }

// ReadInt reads one integer token from the console
type ReadInt struct {
	At lexer.Position
}

func (n *ReadInt) Kind() Kind          { return KindReadInt }
func (n *ReadInt) Pos() lexer.Position { return n.At }
func (n *ReadInt) expressionNode()     {}

// ReadReal reads one real token from the console
type ReadReal struct {
	At lexer.Position
}

func (n *ReadReal) Kind() Kind          { return KindReadReal }
func (n *ReadReal) Pos() lexer.Position { return n.At }
func (n *ReadReal) expressionNode()     {}

// ReadString reads the rest of the current console line
type ReadString struct {
	At lexer.Position
}

func (n *ReadString) Kind() Kind          { return KindReadString }
func (n *ReadString) Pos() lexer.Position { return n.At }
func (n *ReadString) expressionNode()     {}
