package grammar

import (
	"sort"

	"github.com/compilingdogs/pd/core/invariant"
	"github.com/compilingdogs/pd/runtime/ast"
	"github.com/compilingdogs/pd/runtime/lexer"
)

// Rule is a named, lazily resolved reference to a grammar node. Rules close
// the cycles of a recursive grammar without mutating nodes after the fact.
type Rule struct {
	name string
	node Node
}

func (r *Rule) Name() string { return r.name }

func (r *Rule) match(m *matcher, pos int) (Result, *ParseError) {
	invariant.Invariant(r.node != nil, "rule %q matched before it was defined", r.name)
	m.rules = append(m.rules, r.name)
	res, err := r.node.match(m, pos)
	m.rules = m.rules[:len(m.rules)-1]
	return res, err
}

// Grammar is a table of named rules with a start rule. It is built once by
// a declaration function and sealed; after Seal it is read-only and safe to
// share.
type Grammar struct {
	rules  map[string]*Rule
	start  *Rule
	sealed bool
}

// New returns an empty grammar
func New() *Grammar {
	return &Grammar{rules: make(map[string]*Rule)}
}

// Rule returns the handle for name, creating an undefined one on first use
func (g *Grammar) Rule(name string) *Rule {
	if r, ok := g.rules[name]; ok {
		return r
	}
	invariant.Precondition(!g.sealed, "grammar is sealed, cannot reference new rule %q", name)
	r := &Rule{name: name}
	g.rules[name] = r
	return r
}

// Define binds node to name and returns the rule handle
func (g *Grammar) Define(name string, node Node) *Rule {
	invariant.Precondition(!g.sealed, "grammar is sealed, cannot define %q", name)
	invariant.NotNil(node, "rule node")
	r := g.Rule(name)
	invariant.Precondition(r.node == nil, "rule %q defined twice", name)
	r.node = node
	return r
}

// Seal fixes start as the entry rule. Every referenced rule must be defined.
// Sealing twice is a no-op.
func (g *Grammar) Seal(start string) *Grammar {
	if g.sealed {
		return g
	}

	var undefined []string
	for name, r := range g.rules {
		if r.node == nil {
			undefined = append(undefined, name)
		}
	}
	sort.Strings(undefined)
	invariant.Precondition(len(undefined) == 0, "undefined grammar rules: %v", undefined)

	r, ok := g.rules[start]
	invariant.Precondition(ok, "start rule %q is not defined", start)
	g.start = r
	g.sealed = true
	return g
}

// Lookup returns a defined rule by name
func (g *Grammar) Lookup(name string) (*Rule, bool) {
	r, ok := g.rules[name]
	return r, ok && r.node != nil
}

// Parse matches the start rule against the whole token stream and returns
// the single ast node it produced.
func (g *Grammar) Parse(tokens []lexer.Token, opts ...Option) (ast.Node, Stats, error) {
	invariant.Precondition(g.sealed, "grammar must be sealed before parsing")

	m := newMatcher(tokens, opts)
	res, perr := m.run(g.start, 0)
	if perr != nil {
		return nil, m.stats, perr
	}

	if res.Consumed < len(tokens) {
		return nil, m.stats, m.leftover(res.Consumed)
	}

	invariant.Postcondition(len(res.Nodes) == 1, "start rule %q produced %d nodes, want 1", g.start.name, len(res.Nodes))
	return res.Nodes[0], m.stats, nil
}

// Match attempts node against a prefix of tokens. It does not require the
// whole stream to be consumed.
func Match(node Node, tokens []lexer.Token, opts ...Option) (Result, error) {
	m := newMatcher(tokens, opts)
	res, perr := m.run(node, 0)
	if perr != nil {
		return Result{}, perr
	}
	return res, nil
}
