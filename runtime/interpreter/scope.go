package interpreter

import (
	"sort"

	"github.com/compilingdogs/pd/runtime/value"
)

// Scope maps identifiers to values and carries the stopped flag of an
// in-flight return.
//
// Nested constructs never chain scopes. They run against a Clone and copy
// back the bindings the outer scope already had with Merge, so names
// declared inside a body stay invisible outside it.
type Scope struct {
	vars    map[string]value.Value
	stopped bool
}

func NewScope() *Scope {
	return &Scope{vars: make(map[string]value.Value)}
}

// Lookup returns the binding of name. A name bound to the no-value reports
// ok with a nil value.
func (s *Scope) Lookup(name string) (value.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Register inserts or replaces the binding of name
func (s *Scope) Register(name string, v value.Value) {
	s.vars[name] = v
}

// Has reports whether name is bound
func (s *Scope) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// Names returns the bound identifiers in sorted order
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scope) Len() int { return len(s.vars) }

func (s *Scope) Stopped() bool { return s.stopped }

// Stop marks a return as fired
func (s *Scope) Stop() { s.stopped = true }

// Resume clears the stopped flag, e.g. when a call returns to its caller
func (s *Scope) Resume() { s.stopped = false }

// Clone deep-copies every binding; the copy shares no container with s
func (s *Scope) Clone() *Scope {
	out := &Scope{vars: make(map[string]value.Value, len(s.vars)), stopped: s.stopped}
	for name, v := range s.vars {
		out.vars[name] = value.Clone(v)
	}
	return out
}

// Merge copies back from child every binding s already has, except the
// names in keep, and takes over child's stopped flag. Bindings child
// introduced are dropped. child must not be used afterwards.
func (s *Scope) Merge(child *Scope, keep ...string) {
	for name := range s.vars {
		if contains(keep, name) {
			continue
		}
		if v, ok := child.vars[name]; ok {
			s.vars[name] = v
		}
	}
	s.stopped = child.stopped
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
