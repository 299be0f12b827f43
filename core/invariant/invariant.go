// Package invariant provides contract assertions for the PD toolchain.
//
// Assertions guard the tree-synthesis protocol and the grammar wiring: a
// grammar that feeds a child of the wrong variant into a consume, a slot that
// is filled twice, or a rule that is referenced but never defined. Those are
// bugs in this repository, not in the PD program being run, so every function
// here panics instead of returning an error.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
// Panics with PRECONDITION VIOLATION if condition is false.
//
// Example:
//
//	func (g *Grammar) Define(name string, n Node) *Rule {
//	    invariant.Precondition(!g.sealed, "grammar is sealed, cannot define %q", name)
//	    // ...
//	}
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
// Panics with POSTCONDITION VIOLATION if condition is false.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution.
// Panics with INVARIANT VIOLATION if condition is false.
//
// Example:
//
//	prev := pos
//	for {
//	    // ... match one repetition ...
//	    invariant.Invariant(pos > prev, "repetition %q must advance", name)
//	    prev = pos
//	}
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil, including typed nils such as (*T)(nil).
func NotNil(value interface{}, name string) {
	if isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func isNilValue(value interface{}) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// InRange panics if value is outside [min, max].
func InRange(value, minVal, maxVal int, name string) {
	if value < minVal || value > maxVal {
		fail("PRECONDITION", "%s must be in range [%d, %d], got %d",
			name, minVal, maxVal, value)
	}
}

// ExpectNoError panics if err is not nil.
// Use it for operations whose inputs were already validated upstream,
// e.g. converting lexer-checked digit runs into big integers.
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", msg, err)
	}
}

// Unreachable panics unconditionally. Use it as the default arm of a switch
// over a closed set of variants.
func Unreachable(format string, args ...interface{}) {
	fail("UNREACHABLE", format, args...)
}

// fail panics with a formatted message including the violating call site.
func fail(kind, format string, args ...interface{}) {
	// Skip fail() and the exported wrapper.
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]interface{}{kind}, args...)...)

	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}

	panic(msg)
}
