package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders a node as an indented outline, one node per line.
// Pass-through wrappers are elided so the outline shows the tree a reader
// would draw for the source.
func Dump(n Node) string {
	var b strings.Builder
	dump(&b, n, 0)
	return b.String()
}

func dump(b *strings.Builder, n Node, depth int) {
	n = Unwrap(n)
	if n == nil {
		return
	}

	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(label(n))
	b.WriteByte('\n')

	for _, child := range children(n) {
		dump(b, child, depth+1)
	}
}

// Unwrap returns the node a pass-through Binary or TypeCheck stands for
func Unwrap(n Node) Node {
	for {
		switch w := n.(type) {
		case *Binary:
			if !w.IsPassThrough() {
				return n
			}
			n = w.Left
		case *TypeCheck:
			if !w.IsPassThrough() {
				return n
			}
			n = w.Operand
		default:
			return n
		}
	}
}

func label(n Node) string {
	switch v := n.(type) {
	case *VarDefinition:
		return "VarDefinition " + v.Name
	case *For:
		if v.Variable != "" {
			return "For " + v.Variable
		}
	case *IntegerLiteral:
		return "Integer " + v.Value.String()
	case *RealLiteral:
		return "Real " + v.Value.String()
	case *StringLiteral:
		return "String " + strconv.Quote(v.Value)
	case *BooleanLiteral:
		return "Boolean " + strconv.FormatBool(v.Value)
	case *TupleElement:
		if v.Name != "" {
			return "TupleElement " + v.Name
		}
	case *FunctionLiteral:
		kind := "Function"
		if v.IsLambda() {
			kind = "Lambda"
		}
		return fmt.Sprintf("%s(%s)", kind, strings.Join(v.Params, ", "))
	case *Reference:
		return "Reference " + v.Name
	case *MemberAccessor:
		return "MemberAccessor " + v.Name
	case *Binary:
		return "Binary " + v.Op.Symbol()
	case *Unary:
		return "Unary " + v.Op.Symbol()
	case *TypeIndicator:
		return "TypeIndicator " + v.Type.String()
	case *TokenNode:
		return "Token " + v.Token.String()
	}
	return n.Kind().String()
}

func children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil && !isNilNode(c) {
			out = append(out, c)
		}
	}

	switch v := n.(type) {
	case *Program:
		for _, s := range v.Statements {
			add(s)
		}
	case *Body:
		for _, s := range v.Statements {
			add(s)
		}
	case *Declaration:
		for _, d := range v.Definitions {
			add(d)
		}
	case *VarDefinition:
		add(v.Value)
	case *Assignment:
		add(v.Target)
		add(v.Value)
	case *Print:
		for _, a := range v.Arguments {
			add(a)
		}
	case *Return:
		add(v.Value)
	case *If:
		add(v.Condition)
		add(v.Then)
		add(v.Else)
	case *For:
		add(v.Iterable)
		add(v.RangeBegin)
		add(v.RangeEnd)
		add(v.Body)
	case *While:
		add(v.Condition)
		add(v.Body)
	case *ArrayLiteral:
		for _, e := range v.Elements {
			add(e)
		}
	case *TupleLiteral:
		for _, e := range v.Elements {
			add(e)
		}
	case *TupleElement:
		add(v.Value)
	case *FunctionLiteral:
		add(v.Body)
		if v.Lambda != nil {
			add(v.Lambda.Statement)
			add(v.Lambda.Value)
		}
	case *Reference:
		for _, a := range v.Accessors {
			add(a)
		}
	case *IndexAccessor:
		add(v.Index)
	case *Call:
		add(v.Callee)
		for _, a := range v.Arguments {
			add(a)
		}
	case *Binary:
		add(v.Left)
		add(v.Right)
	case *Unary:
		add(v.Operand)
	case *TypeCheck:
		add(v.Operand)
		add(v.Type)
	}
	return out
}

// isNilNode catches typed nil pointers stored in interface slots
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Body:
		return v == nil
	case *Reference:
		return v == nil
	case *TypeIndicator:
		return v == nil
	}
	return false
}
