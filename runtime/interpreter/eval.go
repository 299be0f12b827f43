package interpreter

import (
	"math/big"
	"strconv"

	"github.com/compilingdogs/pd/core/invariant"
	"github.com/compilingdogs/pd/runtime/ast"
	"github.com/compilingdogs/pd/runtime/value"
)

// statements runs stmts in order until one fails or a return stops scope.
// The result is the value of the last statement run.
func (in *Interpreter) statements(stmts []ast.Statement, scope *Scope) (value.Value, error) {
	var last value.Value
	for _, stmt := range stmts {
		if scope.Stopped() {
			break
		}
		v, err := in.statement(stmt, scope)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (in *Interpreter) statement(stmt ast.Statement, scope *Scope) (value.Value, error) {
	switch n := stmt.(type) {
	case *ast.Declaration:
		return nil, in.declaration(n, scope)
	case *ast.Assignment:
		return nil, in.assignment(n, scope)
	case *ast.Print:
		return nil, in.print(n, scope)
	case *ast.Return:
		return in.ret(n, scope)
	case *ast.If:
		return in.ifStmt(n, scope)
	case *ast.For:
		return in.forStmt(n, scope)
	case *ast.While:
		return in.whileStmt(n, scope)
	}
	invariant.Unreachable("no evaluation for statement %s", stmt.Kind())
	return nil, nil
}

// Values are bound by copy: two names never share an array or tuple.
func (in *Interpreter) declaration(n *ast.Declaration, scope *Scope) error {
	for _, def := range n.Definitions {
		var v value.Value
		if def.Value != nil {
			var err error
			if v, err = in.expr(def.Value, scope); err != nil {
				return err
			}
		}
		scope.Register(def.Name, value.Clone(v))
	}
	return nil
}

func (in *Interpreter) assignment(n *ast.Assignment, scope *Scope) error {
	v, err := in.expr(n.Value, scope)
	if err != nil {
		return err
	}
	v = value.Clone(v)

	target := n.Target
	if target.IsPlain() {
		scope.Register(target.Name, v)
		return nil
	}

	// Walk to the container holding the final element, then update it in place
	container, ok := scope.Lookup(target.Name)
	if !ok {
		return in.unresolved(target, scope)
	}
	last := len(target.Accessors) - 1
	for _, acc := range target.Accessors[:last] {
		if container, err = in.access(target, container, acc, scope); err != nil {
			return err
		}
	}

	switch acc := target.Accessors[last].(type) {
	case *ast.IndexAccessor:
		idx, err := in.expr(acc.Index, scope)
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *value.Array:
			i, ok := intIndex(idx)
			if !ok || !c.Set(i, v) {
				return errorAt(acc.At, "index %s out of range for %s of length %d", value.Format(idx), target.Name, c.Len())
			}
			return nil
		case *value.Tuple:
			if key, ok := idx.(value.String); ok {
				c.Set(string(key), v)
				return nil
			}
			if i, ok := intIndex(idx); ok && i >= 1 && i <= c.Len() {
				c.Set(c.Keys()[i-1], v)
				return nil
			}
		}
		return errorAt(acc.At, "cannot assign to %s (%s) at index %s", target.Name, value.TypeOf(container), value.Format(idx))
	case *ast.MemberAccessor:
		t, ok := container.(*value.Tuple)
		if !ok {
			return errorAt(acc.At, "cannot assign member %s of %s (%s)", acc.Name, target.Name, value.TypeOf(container))
		}
		key, found := tupleKey(t, acc.Name)
		if !found {
			key = acc.Name
		}
		t.Set(key, v)
		return nil
	}
	invariant.Unreachable("unknown accessor %s", target.Accessors[last].Kind())
	return nil
}

func (in *Interpreter) print(n *ast.Print, scope *Scope) error {
	values := make([]value.Value, len(n.Arguments))
	for i, arg := range n.Arguments {
		v, err := in.expr(arg, scope)
		if err != nil {
			return err
		}
		values[i] = v
	}
	if err := in.console.Print(values...); err != nil {
		return errorAt(n.At, "print: %v", err)
	}
	return nil
}

func (in *Interpreter) ret(n *ast.Return, scope *Scope) (value.Value, error) {
	var v value.Value
	if n.Value != nil {
		var err error
		if v, err = in.expr(n.Value, scope); err != nil {
			return nil, err
		}
	}
	scope.Stop()
	return v, nil
}

func (in *Interpreter) ifStmt(n *ast.If, scope *Scope) (value.Value, error) {
	inner := scope.Clone()
	cond, err := in.condition("if", n.Condition, inner)
	if err != nil {
		return nil, err
	}

	body := n.Then
	if !cond {
		body = n.Else
	}
	var result value.Value
	if body != nil {
		if result, err = in.statements(body.Statements, inner); err != nil {
			return nil, err
		}
	}
	scope.Merge(inner)
	return result, nil
}

func (in *Interpreter) forStmt(n *ast.For, scope *Scope) (value.Value, error) {
	inner := scope.Clone()

	var result value.Value
	iteration := func(item value.Value) (bool, error) {
		if n.Variable != "" {
			inner.Register(n.Variable, item)
		}
		v, err := in.statements(n.Body.Statements, inner)
		if err != nil {
			return false, err
		}
		result = v
		return !inner.Stopped(), nil
	}

	if n.IsRange() {
		begin, err := in.rangeBound(n.RangeBegin, inner)
		if err != nil {
			return nil, err
		}
		end, err := in.rangeBound(n.RangeEnd, inner)
		if err != nil {
			return nil, err
		}
		// Half-open: begin, begin+1, ..., end-1
		for i := begin; i.Cmp(end) < 0; i = new(big.Int).Add(i, big.NewInt(1)) {
			more, err := iteration(value.Integer{V: i})
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
		}
		scope.Merge(inner)
		return result, nil
	}

	iterable, err := in.expr(n.Iterable, inner)
	if err != nil {
		return nil, err
	}
	var items []value.Value
	switch c := iterable.(type) {
	case *value.Array:
		items = append(items, c.Elements()...)
	case *value.Tuple:
		for _, key := range c.Keys() {
			v, _ := c.Get(key)
			items = append(items, v)
		}
	default:
		return nil, errorAt(n.Iterable.Pos(), "cannot iterate over %s", value.TypeOf(iterable))
	}
	for _, item := range items {
		more, err := iteration(value.Clone(item))
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	scope.Merge(inner)
	return result, nil
}

func (in *Interpreter) rangeBound(e ast.Expression, scope *Scope) (*big.Int, error) {
	v, err := in.expr(e, scope)
	if err != nil {
		return nil, err
	}
	i, ok := v.(value.Integer)
	if !ok {
		return nil, errorAt(e.Pos(), "range bound must be int, got %s", value.TypeOf(v))
	}
	return i.V, nil
}

func (in *Interpreter) whileStmt(n *ast.While, scope *Scope) (value.Value, error) {
	inner := scope.Clone()

	var result value.Value
	for !inner.Stopped() {
		cond, err := in.condition("while", n.Condition, inner)
		if err != nil {
			return nil, err
		}
		if !cond {
			break
		}
		if result, err = in.statements(n.Body.Statements, inner); err != nil {
			return nil, err
		}
	}
	scope.Merge(inner)
	return result, nil
}

func (in *Interpreter) condition(construct string, e ast.Expression, scope *Scope) (bool, error) {
	v, err := in.expr(e, scope)
	if err != nil {
		return false, err
	}
	b, ok := v.(value.Boolean)
	if !ok {
		return false, errorAt(e.Pos(), "%s condition must be bool, got %s", construct, value.TypeOf(v))
	}
	return bool(b), nil
}

func (in *Interpreter) expr(e ast.Expression, scope *Scope) (value.Value, error) {
	switch n := e.(type) {
	case *ast.Binary:
		if n.IsPassThrough() {
			return in.expr(n.Left, scope)
		}
		return in.binary(n, scope)
	case *ast.TypeCheck:
		v, err := in.expr(n.Operand, scope)
		if err != nil || n.IsPassThrough() {
			return v, err
		}
		return value.Boolean(value.Is(v, n.Type.Type)), nil
	case *ast.Unary:
		v, err := in.expr(n.Operand, scope)
		if err != nil {
			return nil, err
		}
		r, err := value.Unary(n.Op, v)
		if err != nil {
			return nil, errorAt(n.At, "%v", err)
		}
		return r, nil
	case *ast.IntegerLiteral:
		return value.Integer{V: n.Value}, nil
	case *ast.RealLiteral:
		return value.Real{V: n.Value}, nil
	case *ast.StringLiteral:
		return value.String(n.Value), nil
	case *ast.BooleanLiteral:
		return value.Boolean(n.Value), nil
	case *ast.EmptyLiteral:
		return nil, nil
	case *ast.ArrayLiteral:
		arr := value.NewArray()
		for _, el := range n.Elements {
			v, err := in.expr(el, scope)
			if err != nil {
				return nil, err
			}
			arr.Append(value.Clone(v))
		}
		return arr, nil
	case *ast.TupleLiteral:
		t := value.NewTuple()
		for i, el := range n.Elements {
			v, err := in.expr(el.Value, scope)
			if err != nil {
				return nil, err
			}
			key := el.Name
			if key == "" {
				key = strconv.Itoa(i + 1)
			}
			t.Set(key, value.Clone(v))
		}
		return t, nil
	case *ast.FunctionLiteral:
		return &value.Function{Params: n.Params, Body: n.Body, Lambda: n.Lambda}, nil
	case *ast.Reference:
		return in.reference(n, scope)
	case *ast.Call:
		return in.call(n, scope)
	case *ast.ReadInt:
		v, err := in.console.ReadInt()
		if err != nil {
			return nil, errorAt(n.At, "%v", err)
		}
		return v, nil
	case *ast.ReadReal:
		v, err := in.console.ReadReal()
		if err != nil {
			return nil, errorAt(n.At, "%v", err)
		}
		return v, nil
	case *ast.ReadString:
		v, err := in.console.ReadString()
		if err != nil {
			return nil, errorAt(n.At, "%v", err)
		}
		return v, nil
	}
	invariant.Unreachable("no evaluation for expression %s", e.Kind())
	return nil, nil
}

// binary evaluates both operands; and, or and xor do not short-circuit
func (in *Interpreter) binary(n *ast.Binary, scope *Scope) (value.Value, error) {
	left, err := in.expr(n.Left, scope)
	if err != nil {
		return nil, err
	}
	right, err := in.expr(n.Right, scope)
	if err != nil {
		return nil, err
	}
	v, err := value.Binary(n.Op, left, right)
	if err != nil {
		return nil, errorAt(n.At, "%v", err)
	}
	return v, nil
}

func (in *Interpreter) reference(n *ast.Reference, scope *Scope) (value.Value, error) {
	v, ok := scope.Lookup(n.Name)
	if !ok {
		return nil, in.unresolved(n, scope)
	}
	for _, acc := range n.Accessors {
		var err error
		if v, err = in.access(n, v, acc, scope); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (in *Interpreter) unresolved(n *ast.Reference, scope *Scope) *InterpretationError {
	err := errorAt(n.At, "Unresolved reference %s", n.Name)
	err.Reference = n.Name
	if in.cfg.suggestions {
		err.Suggestion = closestName(n.Name, scope.Names())
	}
	return err
}

// access applies one accessor of ref to container
func (in *Interpreter) access(ref *ast.Reference, container value.Value, acc ast.Accessor, scope *Scope) (value.Value, error) {
	switch a := acc.(type) {
	case *ast.IndexAccessor:
		idx, err := in.expr(a.Index, scope)
		if err != nil {
			return nil, err
		}
		switch c := container.(type) {
		case *value.Array:
			if i, ok := intIndex(idx); ok {
				if v, ok := c.Get(i); ok {
					return v, nil
				}
			}
			if _, isInt := idx.(value.Integer); isInt {
				return nil, errorAt(a.At, "index %s out of range for %s of length %d", value.Format(idx), ref.Name, c.Len())
			}
		case *value.Tuple:
			if key, ok := idx.(value.String); ok {
				if v, ok := c.Get(string(key)); ok {
					return v, nil
				}
				return nil, errorAt(a.At, "%s has no member %s", ref.Name, key)
			}
			if i, ok := intIndex(idx); ok && i >= 1 && i <= c.Len() {
				v, _ := c.Get(c.Keys()[i-1])
				return v, nil
			}
		}
		return nil, errorAt(a.At, "cannot index %s (%s) with %s", ref.Name, value.TypeOf(container), value.TypeOf(idx))
	case *ast.MemberAccessor:
		t, ok := container.(*value.Tuple)
		if !ok {
			return nil, errorAt(a.At, "cannot access member %s of %s (%s)", a.Name, ref.Name, value.TypeOf(container))
		}
		key, found := tupleKey(t, a.Name)
		if !found {
			return nil, errorAt(a.At, "%s has no member %s", ref.Name, a.Name)
		}
		v, _ := t.Get(key)
		return v, nil
	}
	invariant.Unreachable("unknown accessor %s", acc.Kind())
	return nil, nil
}

// tupleKey resolves a member name: an existing key, or a 1-based position
func tupleKey(t *value.Tuple, name string) (string, bool) {
	if _, ok := t.Get(name); ok {
		return name, true
	}
	if i, err := strconv.Atoi(name); err == nil && i >= 1 && i <= t.Len() {
		return t.Keys()[i-1], true
	}
	return "", false
}

func intIndex(v value.Value) (int, bool) {
	i, ok := v.(value.Integer)
	if !ok || !i.IsInt64() {
		return 0, false
	}
	n := i.Int64()
	if int64(int(n)) != n {
		return 0, false
	}
	return int(n), true
}

// call binds arguments, evaluated in the caller's scope, in a clone of the
// caller's scope. A plain function's clone is discarded. A lambda's clone is
// merged back, except for the parameters, so lambdas can update the
// variables they see.
func (in *Interpreter) call(n *ast.Call, scope *Scope) (value.Value, error) {
	callee, err := in.reference(n.Callee, scope)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*value.Function)
	if !ok {
		return nil, errorAt(n.At, "%s is not a function (%s)", n.Callee.Name, value.TypeOf(callee))
	}
	if len(n.Arguments) != len(fn.Params) {
		return nil, errorAt(n.At, "%s expects %d arguments, got %d", n.Callee.Name, len(fn.Params), len(n.Arguments))
	}

	args := make([]value.Value, len(n.Arguments))
	for i, arg := range n.Arguments {
		if args[i], err = in.expr(arg, scope); err != nil {
			return nil, err
		}
	}

	if in.depth >= in.cfg.maxCallDepth {
		return nil, errorAt(n.At, "maximum call depth %d exceeded", in.cfg.maxCallDepth)
	}
	in.depth++
	defer func() { in.depth-- }()

	local := scope.Clone()
	local.Resume()
	for i, param := range fn.Params {
		local.Register(param, value.Clone(args[i]))
	}

	if !fn.IsLambda() {
		return in.statements(fn.Body.Statements, local)
	}

	var result value.Value
	if fn.Lambda.Statement != nil {
		result, err = in.statement(fn.Lambda.Statement, local)
	} else {
		result, err = in.expr(fn.Lambda.Value, local)
	}
	if err != nil {
		return nil, err
	}
	scope.Merge(local, fn.Params...)
	scope.Resume()
	return result, nil
}
