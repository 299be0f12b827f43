// Package value defines PD runtime values.
//
// Scalars (Integer, Real, String, Boolean) are immutable. Arrays and tuples
// change only through Set and Append on the container itself; Clone gives a
// deep copy that shares no container with the original. A nil Value is the
// "empty" no-value.
package value

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/compilingdogs/pd/runtime/ast"
)

// Value is a PD runtime value
type Value interface {
	TypeName() string
	String() string
	Clone() Value
}

// Format renders v for print, spelling the no-value as "empty"
func Format(v Value) string {
	if v == nil {
		return "empty"
	}
	return v.String()
}

// TypeOf names the runtime type of v, including the no-value
func TypeOf(v Value) string {
	if v == nil {
		return "empty"
	}
	return v.TypeName()
}

// Clone deep-copies v; the no-value clones to itself
func Clone(v Value) Value {
	if v == nil {
		return nil
	}
	return v.Clone()
}

// Is reports whether v has the runtime type named by an "is" check
func Is(v Value, t ast.TypeName) bool {
	switch t {
	case ast.TypeEmpty:
		return v == nil
	case ast.TypeInt:
		_, ok := v.(Integer)
		return ok
	case ast.TypeReal:
		_, ok := v.(Real)
		return ok
	case ast.TypeBool:
		_, ok := v.(Boolean)
		return ok
	case ast.TypeString:
		_, ok := v.(String)
		return ok
	case ast.TypeFunc:
		_, ok := v.(*Function)
		return ok
	case ast.TypeArray:
		_, ok := v.(*Array)
		return ok
	case ast.TypeTuple:
		_, ok := v.(*Tuple)
		return ok
	}
	return false
}

// Integer is an arbitrary precision integer. The wrapped big.Int is never
// mutated after construction.
type Integer struct {
	V *big.Int
}

func NewInt(i int64) Integer { return Integer{V: big.NewInt(i)} }

func (Integer) TypeName() string    { return "int" }
func (i Integer) String() string    { return i.V.String() }
func (i Integer) Clone() Value      { return i }
func (i Integer) IsInt64() bool     { return i.V.IsInt64() }
func (i Integer) Int64() int64      { return i.V.Int64() }
func (i Integer) toReal() Real      { return Real{V: decimal.NewFromBigInt(i.V, 0)} }
func (i Integer) cmp(j Integer) int { return i.V.Cmp(j.V) }

// Real is an arbitrary precision decimal
type Real struct {
	V decimal.Decimal
}

func NewReal(s string) (Real, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Real{}, err
	}
	return Real{V: d}, nil
}

func (Real) TypeName() string { return "real" }
func (r Real) String() string { return r.V.String() }
func (r Real) Clone() Value   { return r }

type String string

func (String) TypeName() string { return "string" }
func (s String) String() string { return string(s) }
func (s String) Clone() Value   { return s }

type Boolean bool

func (Boolean) TypeName() string { return "bool" }
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }
func (b Boolean) Clone() Value   { return b }

// Array is a 1-based sequence of values
type Array struct {
	elements []Value
}

// NewArray builds an array holding elements in order
func NewArray(elements ...Value) *Array {
	return &Array{elements: append([]Value(nil), elements...)}
}

func (*Array) TypeName() string { return "array" }

func (a *Array) String() string {
	parts := make([]string, len(a.elements))
	for i, e := range a.elements {
		parts[i] = Format(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *Array) Clone() Value {
	out := &Array{elements: make([]Value, len(a.elements))}
	for i, e := range a.elements {
		out.elements[i] = Clone(e)
	}
	return out
}

func (a *Array) Len() int { return len(a.elements) }

// Get returns the element at 1-based index i
func (a *Array) Get(i int) (Value, bool) {
	if i < 1 || i > len(a.elements) {
		return nil, false
	}
	return a.elements[i-1], true
}

// Set replaces the element at 1-based index i. Setting index Len()+1 appends.
func (a *Array) Set(i int, v Value) bool {
	switch {
	case i >= 1 && i <= len(a.elements):
		a.elements[i-1] = v
		return true
	case i == len(a.elements)+1:
		a.elements = append(a.elements, v)
		return true
	}
	return false
}

func (a *Array) Append(v Value) { a.elements = append(a.elements, v) }

// Elements returns the elements in order; the slice must not be modified
func (a *Array) Elements() []Value { return a.elements }

// Tuple is an ordered mapping from names to values
type Tuple struct {
	keys   []string
	values map[string]Value
}

func NewTuple() *Tuple {
	return &Tuple{values: make(map[string]Value)}
}

func (*Tuple) TypeName() string { return "tuple" }

func (t *Tuple) String() string {
	parts := make([]string, len(t.keys))
	for i, k := range t.keys {
		parts[i] = k + " = " + Format(t.values[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (t *Tuple) Clone() Value {
	out := &Tuple{keys: append([]string(nil), t.keys...), values: make(map[string]Value, len(t.values))}
	for k, v := range t.values {
		out.values[k] = Clone(v)
	}
	return out
}

func (t *Tuple) Len() int { return len(t.keys) }

func (t *Tuple) Get(key string) (Value, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Set inserts key at the end, or replaces its value in place
func (t *Tuple) Set(key string, v Value) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// Keys returns the keys in insertion order; the slice must not be modified
func (t *Tuple) Keys() []string { return t.keys }

// Function is a callable value. Exactly one of Body and Lambda is set.
type Function struct {
	Params []string
	Body   *ast.Body
	Lambda *ast.LambdaBody
}

func (*Function) TypeName() string { return "func" }

func (f *Function) String() string {
	return "func(" + strings.Join(f.Params, ", ") + ")"
}

// Clone returns f itself; functions are immutable
func (f *Function) Clone() Value { return f }

func (f *Function) IsLambda() bool { return f.Lambda != nil }
