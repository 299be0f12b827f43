package interpreter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compilingdogs/pd/runtime/ast"
	"github.com/compilingdogs/pd/runtime/parser"
	"github.com/compilingdogs/pd/runtime/value"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	tree, err := parser.ParseString(src)
	require.NoError(t, err, "parse %q", src)
	return tree.Program
}

// run executes src with input on stdin and returns the program result and
// everything printed.
func run(t *testing.T, src, input string, opts ...Option) (value.Value, string) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out), WithInput(strings.NewReader(input))}, opts...)
	result := New(opts...).Run(parse(t, src))
	return result, out.String()
}

// exec executes src in a fresh scope and returns the scope afterwards
func exec(t *testing.T, src string, opts ...Option) (*Scope, value.Value, string) {
	t.Helper()
	var out bytes.Buffer
	scope := NewScope()
	opts = append([]Option{WithOutput(&out)}, opts...)
	v, err := New(opts...).Exec(parse(t, src), scope)
	require.NoError(t, err)
	return scope, v, out.String()
}

func execErr(t *testing.T, src string, opts ...Option) *InterpretationError {
	t.Helper()
	_, err := New(opts...).Exec(parse(t, src), NewScope())
	require.Error(t, err)
	var ierr *InterpretationError
	require.True(t, errors.As(err, &ierr), "expected *InterpretationError, got %T", err)
	return ierr
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		input string
		want  string
	}{
		{
			name: "arithmetic declaration",
			src:  "var x = 2 + 3\nprint x",
			want: "5\n",
		},
		{
			name: "indexed assignment",
			src:  "var a = [1, 2, 3]\na[2] = 9\nprint a",
			want: "[1, 9, 3]\n",
		},
		{
			name: "if else",
			src:  `if 1 < 2 then print "yes" else print "no" end`,
			want: "yes\n",
		},
		{
			name: "half-open range",
			src:  "for i in 1..3 loop print i end",
			want: "1\n2\n",
		},
		{
			name: "print joins operands",
			src:  `print 1, "two", 3.5, true, empty`,
			want: "1, two, 3.5, true, empty\n",
		},
		{
			name: "precedence",
			src:  "print 1 + 2 * 3 - 4, (1 + 2) * 3, 7 / 2, 7 / 2.0",
			want: "3, 9, 3, 3.5\n",
		},
		{
			name: "string concatenation",
			src:  `var s := "ab"` + "\n" + `print s + "cd"`,
			want: "abcd\n",
		},
		{
			name: "array iteration",
			src:  "var xs := [3, 1, 2]\nfor x in xs loop print x * 10 end",
			want: "30\n10\n20\n",
		},
		{
			name: "tuple members",
			src:  "var t := {a := 1, 2}\nt.a := 5\nprint t.a, t.2, t[1], t[\"a\"]",
			want: "5, 2, 5, 5\n",
		},
		{
			name: "tuple member insertion",
			src:  "var t := {a := 1}\nt.b := [1]\nprint t",
			want: "{a = 1, b = [1]}\n",
		},
		{
			name: "array append at length plus one",
			src:  "var a := [1]\na[2] := 2\nprint a",
			want: "[1, 2]\n",
		},
		{
			name: "while countdown",
			src:  "var n := 3\nwhile n > 0 loop\n  print n\n  n := n - 1\nend",
			want: "3\n2\n1\n",
		},
		{
			name: "type checks",
			src:  "var g := func() => 1\nprint 1 is int, 1 is real, [1] is [], {} is {}, empty is empty, g is func",
			want: "true, false, true, true, true, true\n",
		},
		{
			name: "unary operators",
			src:  "var x := 0 - 4\nprint -x, +x, not false",
			want: "4, 4, true\n",
		},
		{
			name: "recursion",
			src: `var fact := func(n) is
  if n < 2 then return 1 end
  return n * fact(n - 1)
end
print fact(20)`,
			want: "2432902008176640000\n",
		},
		{
			name: "big integers",
			src:  "print 99999999999999999999 + 1",
			want: "100000000000000000000\n",
		},
		{
			name:  "reads",
			src:   "var a := readInt\nvar b := readInt()\nvar s := readString\nvar r := readReal\nprint a + b, s, r",
			input: "3 4\nhello world\n2.5\n",
			want:  "7, hello world, 2.5\n",
		},
		{
			name:  "read string takes rest of line",
			src:   "var a := readInt\nprint readString, a",
			input: "1 and the rest\n",
			want:  "and the rest, 1\n",
		},
		{
			name: "top-level return ends program",
			src:  "print 1\nreturn\nprint 2",
			want: "1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, out := run(t, tt.src, tt.input)
			assert.Equal(t, value.NewInt(0), result)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestLambdaCallLeavesCallerUntouched(t *testing.T) {
	scope, v, _ := exec(t, "var x := 10\nvar f := func(x) -> x + 1\nreturn f(4)")

	require.IsType(t, value.Integer{}, v)
	assert.Equal(t, int64(5), v.(value.Integer).Int64())

	x, ok := scope.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "10", value.Format(x))
	assert.False(t, scope.Stopped(), "Exec must resume the scope")
}

func TestUnresolvedReferenceIsProgramResult(t *testing.T) {
	result, out := run(t, "print 1\nprint y", "")

	assert.Equal(t, value.String("Unresolved reference y at line 2 column 7"), result)
	assert.Equal(t, "1\n", out)
}

func TestBodiesDoNotLeakDeclarations(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		want   map[string]string
		hidden []string
	}{
		{
			name:   "if",
			src:    "var x := 1\nif true then\n  var y := 2\n  x := y\nend",
			want:   map[string]string{"x": "2"},
			hidden: []string{"y"},
		},
		{
			name:   "else",
			src:    "var x := 1\nif false then x := 7 else\n  var z := 3\n  x := z\nend",
			want:   map[string]string{"x": "3"},
			hidden: []string{"z"},
		},
		{
			name:   "range loop",
			src:    "var s := 0\nfor i in 1..4 loop\n  var sq := i * i\n  s := s + sq\nend",
			want:   map[string]string{"s": "14"},
			hidden: []string{"i", "sq"},
		},
		{
			name:   "collection loop",
			src:    "var s := \"\"\nfor w in [\"a\", \"b\"] loop s := s + w end",
			want:   map[string]string{"s": "ab"},
			hidden: []string{"w"},
		},
		{
			name:   "while",
			src:    "var n := 3\nwhile n > 0 loop\n  var tmp := n\n  n := tmp - 1\nend",
			want:   map[string]string{"n": "0"},
			hidden: []string{"tmp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, _, _ := exec(t, tt.src)
			for name, want := range tt.want {
				v, ok := scope.Lookup(name)
				require.True(t, ok, "%s should be bound", name)
				assert.Equal(t, want, value.Format(v), name)
			}
			for _, name := range tt.hidden {
				assert.False(t, scope.Has(name), "%s leaked out of its body", name)
			}
		})
	}
}

func TestLambdaReassignmentIsVisible(t *testing.T) {
	_, _, out := exec(t, `var c := 0
var inc := func() => c := c + 1
var r := inc()
r := inc()
print c`)
	assert.Equal(t, "2\n", out)
}

func TestFunctionReassignmentIsDiscarded(t *testing.T) {
	scope, _, out := exec(t, `var x := 1
var f := func() is
  x := 5
  return x
end
var r := f()
print x, r`)
	assert.Equal(t, "1, 5\n", out)

	x, _ := scope.Lookup("x")
	assert.Equal(t, "1", value.Format(x))
}

func TestLambdaParametersStayLocal(t *testing.T) {
	_, _, out := exec(t, `var n := 1
var set := func(n) => n := 100
var r := set(5)
print n`)
	assert.Equal(t, "1\n", out)
}

func TestEarlyReturn(t *testing.T) {
	t.Run("from loop inside function", func(t *testing.T) {
		_, _, out := exec(t, `var find := func() is
  for i in 1..10 loop
    if i = 3 then return i end
    print i
  end
  print 99
end
print find()`)
		assert.Equal(t, "1\n2\n3\n", out)
	})

	t.Run("from while", func(t *testing.T) {
		_, _, out := exec(t, `var f := func(n) is
  while true loop
    n := n + 1
    if n > 5 then return n end
  end
end
print f(0), f(10)`)
		assert.Equal(t, "6, 11\n", out)
	})

	t.Run("caller continues after return", func(t *testing.T) {
		_, _, out := exec(t, `var f := func() is
  return 1
  print "unreachable"
end
var a := f()
print a + 1`)
		assert.Equal(t, "2\n", out)
	})

	t.Run("return without value", func(t *testing.T) {
		_, _, out := exec(t, `var f := func() is
  return
end
print f()`)
		assert.Equal(t, "empty\n", out)
	})
}

func TestValuesBindByCopy(t *testing.T) {
	_, _, out := exec(t, `var a := [1, 2]
var b := a
b[1] := 9
var t := {xs := a}
t.xs[2] := 7
var f := func(arr) is
  arr[1] := 0
  return arr
end
var c := f(a)
print a, b, t.xs, c`)
	assert.Equal(t, "[1, 2], [9, 2], [1, 7], [0, 2]\n", out)
}

func TestInterpretationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "operand mismatch",
			src:  `print 1 + "a"`,
			want: "operation '+' not supported for int and string",
		},
		{
			name: "non-bool if condition",
			src:  "if 1 then print 1 end",
			want: "if condition must be bool, got int",
		},
		{
			name: "non-bool while condition",
			src:  "while empty loop print 1 end",
			want: "while condition must be bool, got empty",
		},
		{
			name: "range bound",
			src:  "for i in 1..2.5 loop print i end",
			want: "range bound must be int, got real",
		},
		{
			name: "iterate over scalar",
			src:  "for i in 5 loop print i end",
			want: "cannot iterate over int",
		},
		{
			name: "index out of range",
			src:  "var a := [1]\nprint a[5]",
			want: "index 5 out of range for a of length 1",
		},
		{
			name: "assign out of range",
			src:  "var a := [1]\na[3] := 1",
			want: "index 3 out of range for a of length 1",
		},
		{
			name: "index scalar",
			src:  "var a := 1\nprint a[1]",
			want: "cannot index a (int) with int",
		},
		{
			name: "missing member",
			src:  "var t := {a := 1}\nprint t.b",
			want: "t has no member b",
		},
		{
			name: "member of array",
			src:  "var a := [1]\nprint a.x",
			want: "cannot access member x of a (array)",
		},
		{
			name: "call non-function",
			src:  "var x := 1\nvar y := x()",
			want: "x is not a function (int)",
		},
		{
			name: "arity",
			src:  "var f := func(a) => a\nvar y := f(1, 2)",
			want: "f expects 1 arguments, got 2",
		},
		{
			name: "division by zero",
			src:  "print 1 / 0",
			want: "division by zero",
		},
		{
			name: "error inside function body",
			src:  "var f := func() is\n  print missing\nend\nvar r := f()",
			want: "Unresolved reference missing at line 2 column 9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execErr(t, tt.src)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSuggestions(t *testing.T) {
	src := "var count := 1\nprint cont"

	err := execErr(t, src)
	assert.Equal(t, "cont", err.Reference)
	assert.Equal(t, "count", err.Suggestion)
	assert.Equal(t, "Unresolved reference cont at line 2 column 7 (did you mean 'count'?)", err.Error())

	err = execErr(t, src, WithSuggestions(false))
	assert.Empty(t, err.Suggestion)
	assert.Equal(t, "Unresolved reference cont at line 2 column 7", err.Error())

	err = execErr(t, "var alpha := 1\nprint zzz")
	assert.Empty(t, err.Suggestion, "unrelated names are not suggested")
}

func TestMaxCallDepth(t *testing.T) {
	src := "var f := func(n) is\n  return f(n + 1)\nend\nvar r := f(0)"

	ierr := execErr(t, src, WithMaxCallDepth(50))
	assert.Contains(t, ierr.Error(), "maximum call depth 50 exceeded")

	// The counter unwinds, so the same interpreter can run again
	in := New(WithMaxCallDepth(50))
	_, err := in.Exec(parse(t, "var f := func(n) is\n  if n = 0 then return 0 end\n  return f(n - 1)\nend\nvar r := f(40)"), NewScope())
	require.NoError(t, err)
	_, err = in.Exec(parse(t, "var g := func(n) is\n  if n = 0 then return 0 end\n  return g(n - 1)\nend\nvar r := g(40)"), NewScope())
	require.NoError(t, err)
}

func TestReadErrors(t *testing.T) {
	result, _ := run(t, "var n := readInt", "abc\n")
	assert.Equal(t, value.String(`readInt: "abc" is not an integer at line 1 column 10`), result)

	result, _ = run(t, "var n := readReal", "x1\n")
	assert.Contains(t, string(result.(value.String)), `readReal: "x1" is not a real number`)

	result, _ = run(t, "var s := readString", "")
	assert.Contains(t, string(result.(value.String)), "unexpected end of input")
}

func TestExecSharesScopeAcrossCalls(t *testing.T) {
	var out bytes.Buffer
	in := New(WithOutput(&out))
	scope := NewScope()

	_, err := in.Exec(parse(t, "var x := 41"), scope)
	require.NoError(t, err)
	_, err = in.Exec(parse(t, "x := x + 1\nreturn x"), scope)
	require.NoError(t, err)
	_, err = in.Exec(parse(t, "print x"), scope)
	require.NoError(t, err)

	assert.Equal(t, "42\n", out.String())
}
