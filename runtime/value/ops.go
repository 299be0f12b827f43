package value

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/compilingdogs/pd/runtime/lexer"
)

// DivisionPrecision is the number of fractional digits kept by real division
const DivisionPrecision = 32

// ErrDivisionByZero is returned for x / 0 on integers and reals
var ErrDivisionByZero = errors.New("division by zero")

// OpError reports operand types an operator does not support
type OpError struct {
	Op    string
	Left  string
	Right string // "" for unary operators
}

func (e *OpError) Error() string {
	if e.Right == "" {
		return fmt.Sprintf("operation '%s' not supported for %s", e.Op, e.Left)
	}
	return fmt.Sprintf("operation '%s' not supported for %s and %s", e.Op, e.Left, e.Right)
}

func unsupported(op lexer.TokenType, a, b Value) error {
	return &OpError{Op: op.Symbol(), Left: TypeOf(a), Right: TypeOf(b)}
}

// Binary applies a binary operator token to two operands
func Binary(op lexer.TokenType, a, b Value) (Value, error) {
	switch op {
	case lexer.PLUS:
		return add(a, b)
	case lexer.MINUS, lexer.MULTIPLY, lexer.DIVIDE:
		return arithmetic(op, a, b)
	case lexer.LT, lexer.LT_EQ, lexer.GT, lexer.GT_EQ:
		return compare(op, a, b)
	case lexer.EQUALS, lexer.NOT_EQ:
		return equality(op, a, b)
	case lexer.AND, lexer.OR, lexer.XOR:
		return logical(op, a, b)
	}
	return nil, unsupported(op, a, b)
}

// Unary applies +, - or not. Unary + is the absolute value.
func Unary(op lexer.TokenType, v Value) (Value, error) {
	switch op {
	case lexer.PLUS:
		switch x := v.(type) {
		case Integer:
			return Integer{V: new(big.Int).Abs(x.V)}, nil
		case Real:
			return Real{V: x.V.Abs()}, nil
		}
	case lexer.MINUS:
		switch x := v.(type) {
		case Integer:
			return Integer{V: new(big.Int).Neg(x.V)}, nil
		case Real:
			return Real{V: x.V.Neg()}, nil
		}
	case lexer.NOT:
		if x, ok := v.(Boolean); ok {
			return !x, nil
		}
	}
	return nil, &OpError{Op: op.Symbol(), Left: TypeOf(v)}
}

func add(a, b Value) (Value, error) {
	switch x := a.(type) {
	case String:
		if y, ok := b.(String); ok {
			return x + y, nil
		}
	case *Array:
		if y, ok := b.(*Array); ok {
			out := x.Clone().(*Array)
			for _, e := range y.elements {
				out.Append(Clone(e))
			}
			return out, nil
		}
	case *Tuple:
		if y, ok := b.(*Tuple); ok {
			out := x.Clone().(*Tuple)
			for _, k := range y.keys {
				out.Set(k, Clone(y.values[k]))
			}
			return out, nil
		}
	}
	return arithmetic(lexer.PLUS, a, b)
}

func arithmetic(op lexer.TokenType, a, b Value) (Value, error) {
	if x, ok := a.(Integer); ok {
		if y, ok := b.(Integer); ok {
			return intArithmetic(op, x, y)
		}
	}

	x, okA := toReal(a)
	y, okB := toReal(b)
	if !okA || !okB {
		return nil, unsupported(op, a, b)
	}

	switch op {
	case lexer.PLUS:
		return Real{V: x.V.Add(y.V)}, nil
	case lexer.MINUS:
		return Real{V: x.V.Sub(y.V)}, nil
	case lexer.MULTIPLY:
		return Real{V: x.V.Mul(y.V)}, nil
	case lexer.DIVIDE:
		if y.V.IsZero() {
			return nil, ErrDivisionByZero
		}
		return Real{V: x.V.DivRound(y.V, DivisionPrecision)}, nil
	}
	return nil, unsupported(op, a, b)
}

func intArithmetic(op lexer.TokenType, x, y Integer) (Value, error) {
	r := new(big.Int)
	switch op {
	case lexer.PLUS:
		r.Add(x.V, y.V)
	case lexer.MINUS:
		r.Sub(x.V, y.V)
	case lexer.MULTIPLY:
		r.Mul(x.V, y.V)
	case lexer.DIVIDE:
		if y.V.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		r.Quo(x.V, y.V) // truncates toward zero
	default:
		return nil, unsupported(op, x, y)
	}
	return Integer{V: r}, nil
}

// toReal promotes Integer to Real; other types are not numeric
func toReal(v Value) (Real, bool) {
	switch x := v.(type) {
	case Integer:
		return x.toReal(), true
	case Real:
		return x, true
	}
	return Real{}, false
}

// order compares two operands, reporting false if they are not comparable
func order(a, b Value) (int, bool) {
	if x, ok := a.(Integer); ok {
		if y, ok := b.(Integer); ok {
			return x.cmp(y), true
		}
	}
	if x, ok := a.(String); ok {
		if y, ok := b.(String); ok {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			}
			return 0, true
		}
	}
	x, okA := toReal(a)
	y, okB := toReal(b)
	if !okA || !okB {
		return 0, false
	}
	return x.V.Cmp(y.V), true
}

func compare(op lexer.TokenType, a, b Value) (Value, error) {
	c, ok := order(a, b)
	if !ok {
		return nil, unsupported(op, a, b)
	}
	switch op {
	case lexer.LT:
		return Boolean(c < 0), nil
	case lexer.LT_EQ:
		return Boolean(c <= 0), nil
	case lexer.GT:
		return Boolean(c > 0), nil
	}
	return Boolean(c >= 0), nil
}

func equality(op lexer.TokenType, a, b Value) (Value, error) {
	var eq bool
	if x, ok := a.(Boolean); ok {
		y, ok := b.(Boolean)
		if !ok {
			return nil, unsupported(op, a, b)
		}
		eq = x == y
	} else {
		c, ok := order(a, b)
		if !ok {
			return nil, unsupported(op, a, b)
		}
		eq = c == 0
	}

	if op == lexer.NOT_EQ {
		return Boolean(!eq), nil
	}
	return Boolean(eq), nil
}

func logical(op lexer.TokenType, a, b Value) (Value, error) {
	x, okA := a.(Boolean)
	y, okB := b.(Boolean)
	if !okA || !okB {
		return nil, unsupported(op, a, b)
	}
	switch op {
	case lexer.AND:
		return x && y, nil
	case lexer.OR:
		return x || y, nil
	}
	return Boolean(x != y), nil
}
