package grammar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/compilingdogs/pd/core/invariant"
	"github.com/compilingdogs/pd/runtime/ast"
	"github.com/compilingdogs/pd/runtime/lexer"
)

// DefaultMaxDepth bounds grammar nesting during a match
const DefaultMaxDepth = 4096

// Policy selects how an Alternation picks among successful variants
type Policy int

const (
	FirstMatch   Policy = iota // First successful variant in declaration order (default)
	LongestMatch               // Variant consuming the most tokens, ties to declaration order
)

func (p Policy) String() string {
	if p == LongestMatch {
		return "longest"
	}
	return "first"
}

// Option configures a match
type Option func(*config)

type config struct {
	policy   Policy
	maxDepth int
	trace    io.Writer
}

// WithPolicy sets the alternation policy
func WithPolicy(p Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithLongestMatch makes every alternation try all variants
func WithLongestMatch() Option {
	return WithPolicy(LongestMatch)
}

// WithMaxDepth aborts a match that nests deeper than n nodes. n <= 0 keeps the default.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithTrace writes a colored trace of every match attempt to w
func WithTrace(w io.Writer) Option {
	return func(c *config) {
		c.trace = w
	}
}

// Stats counts the work of one match
type Stats struct {
	Policy     Policy
	Attempts   int // Node match attempts, rules included
	TokenTests int // Token comparisons
	Failures   int // Attempts that failed and were backtracked
	MaxDepth   int // Deepest nesting reached
	Duration   time.Duration
}

// matcher holds all mutable state of one match over a token stream
type matcher struct {
	tokens   []lexer.Token
	cfg      config
	depth    int
	rules    []string // Enclosing rule names, innermost last
	farthest *ParseError
	abort    *ParseError
	stats    Stats
	tr       *tracer
}

func newMatcher(tokens []lexer.Token, opts []Option) *matcher {
	cfg := config{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &matcher{tokens: tokens, cfg: cfg}
	m.stats.Policy = cfg.policy
	if cfg.trace != nil {
		m.tr = &tracer{w: cfg.trace}
	}
	return m
}

func (m *matcher) run(n Node, pos int) (Result, *ParseError) {
	start := time.Now()
	res, err := m.match(n, pos)
	m.stats.Duration = time.Since(start)

	if m.abort != nil {
		return Result{}, m.abort
	}
	if err != nil {
		return Result{}, farther(m.farthest, err)
	}
	return res, nil
}

func (m *matcher) match(n Node, pos int) (Result, *ParseError) {
	if m.abort != nil {
		return Result{}, m.abort
	}

	m.depth++
	defer func() { m.depth-- }()
	if m.depth > m.stats.MaxDepth {
		m.stats.MaxDepth = m.depth
	}
	if m.depth > m.cfg.maxDepth {
		m.abort = &ParseError{
			Rule:    m.rule(),
			Found:   m.tokenAt(pos),
			Offset:  pos,
			Message: fmt.Sprintf("grammar nesting exceeds max depth %d", m.cfg.maxDepth),
		}
		return Result{}, m.abort
	}

	m.stats.Attempts++
	m.tr.enter(n, m.depth, m.tokenAt(pos))
	res, err := n.match(m, pos)
	m.tr.exit(n, m.depth, res, err)
	if err != nil {
		m.stats.Failures++
	}
	return res, err
}

func (n *TokenMatch) match(m *matcher, pos int) (Result, *ParseError) {
	m.stats.TokenTests++
	if pos >= len(m.tokens) || m.tokens[pos].Type != n.Type {
		return Result{}, m.fail(n.Name(), pos)
	}

	if !n.Capture {
		return Result{Consumed: 1}, nil
	}
	kind := ast.KindToken
	if n.attached {
		kind = n.kind
	}
	return Result{Consumed: 1, Nodes: []ast.Node{ast.New(kind, m.tokens[pos])}}, nil
}

func (n *Concatenation) match(m *matcher, pos int) (Result, *ParseError) {
	p := pos
	var nodes []ast.Node
	for _, child := range n.Children {
		res, err := m.match(child, p)
		if err != nil {
			return Result{}, err
		}
		p += res.Consumed
		nodes = append(nodes, res.Nodes...)
	}
	return m.attach(n.attachment, pos, p-pos, nodes), nil
}

func (n *Alternation) match(m *matcher, pos int) (Result, *ParseError) {
	var best *Result
	var failure *ParseError

	for _, variant := range n.Variants {
		res, err := m.match(variant, pos)
		if err != nil {
			if m.abort != nil {
				return Result{}, m.abort
			}
			failure = farther(failure, err)
			continue
		}

		if m.cfg.policy == FirstMatch {
			return m.attach(n.attachment, pos, res.Consumed, res.Nodes), nil
		}
		if best == nil || res.Consumed > best.Consumed {
			picked := res
			best = &picked
		}
	}

	if best != nil {
		return m.attach(n.attachment, pos, best.Consumed, best.Nodes), nil
	}
	if failure == nil {
		failure = m.fail(n.name, pos)
	}
	return Result{}, failure
}

func (n *Optional) match(m *matcher, pos int) (Result, *ParseError) {
	res, err := m.match(n.Inner, pos)
	if err != nil {
		if m.abort != nil {
			return Result{}, m.abort
		}
		return m.attach(n.attachment, pos, 0, nil), nil
	}
	return m.attach(n.attachment, pos, res.Consumed, res.Nodes), nil
}

func (n *Repetition) match(m *matcher, pos int) (Result, *ParseError) {
	p := pos
	var nodes []ast.Node
	for {
		res, err := m.match(n.Inner, p)
		if err != nil {
			if m.abort != nil {
				return Result{}, m.abort
			}
			break
		}
		// An empty iteration would repeat forever
		if res.Consumed == 0 {
			break
		}
		p += res.Consumed
		nodes = append(nodes, res.Nodes...)
	}
	return m.attach(n.attachment, pos, p-pos, nodes), nil
}

// attach wraps nodes into the attached ast node, or passes them through
func (m *matcher) attach(a attachment, pos, consumed int, nodes []ast.Node) Result {
	if !a.attached {
		return Result{Consumed: consumed, Nodes: nodes}
	}

	node := ast.New(a.kind, m.anchor(pos))
	if len(nodes) > 0 {
		consumer, ok := node.(ast.Consumer)
		invariant.Precondition(ok, "%s cannot consume children", a.kind)
		for _, child := range nodes {
			consumer.Consume(child)
		}
	}
	return Result{Consumed: consumed, Nodes: []ast.Node{node}}
}

// anchor is the token an attached node is created at. A match that starts
// at the end of input anchors just after the last token.
func (m *matcher) anchor(pos int) lexer.Token {
	if pos < len(m.tokens) {
		return m.tokens[pos]
	}
	if len(m.tokens) == 0 {
		return lexer.Token{Position: lexer.Position{Line: 1, Column: 1}}
	}
	last := m.tokens[len(m.tokens)-1].Position
	return lexer.Token{Position: lexer.Position{Line: last.Line, Column: last.Column + 1, Offset: last.Offset + 1}}
}

func (m *matcher) tokenAt(pos int) *lexer.Token {
	if pos >= len(m.tokens) {
		return nil
	}
	tok := m.tokens[pos]
	return &tok
}

func (m *matcher) rule() string {
	if len(m.rules) == 0 {
		return ""
	}
	return m.rules[len(m.rules)-1]
}

// fail records a failed expectation and returns its error
func (m *matcher) fail(expected string, pos int) *ParseError {
	err := &ParseError{
		Rule:     m.rule(),
		Expected: []string{expected},
		Found:    m.tokenAt(pos),
		Offset:   pos,
	}
	m.farthest = farther(m.farthest, err)
	return err
}

// leftover reports tokens the start rule did not consume
func (m *matcher) leftover(consumed int) *ParseError {
	if m.farthest != nil && m.farthest.Offset >= consumed {
		return m.farthest
	}
	return &ParseError{
		Expected: []string{"end of input"},
		Found:    m.tokenAt(consumed),
		Offset:   consumed,
	}
}

// farther returns the error that got further into the input. Errors at the
// same offset merge their expectations into a new error.
func farther(a, b *ParseError) *ParseError {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Offset > a.Offset:
		return b
	case b.Offset < a.Offset:
		return a
	}

	merged := *a
	merged.Expected = append([]string(nil), a.Expected...)
	for _, want := range b.Expected {
		if !contains(merged.Expected, want) {
			merged.Expected = append(merged.Expected, want)
		}
	}
	return &merged
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// tracer prints match attempts with one color per node kind
type tracer struct {
	w io.Writer
}

var (
	traceAlt    = color.New(color.FgGreen).SprintFunc()
	traceConcat = color.New(color.FgYellow).SprintFunc()
	traceOpt    = color.New(color.FgBlue).SprintFunc()
	traceRepeat = color.New(color.FgMagenta).SprintFunc()
	traceToken  = color.New(color.FgCyan).SprintFunc()
	traceRule   = color.New(color.Bold).SprintFunc()
	traceGuide  = color.New(color.FgHiBlack).SprintFunc()
	traceOK     = color.New(color.FgGreen).SprintFunc()
	traceFail   = color.New(color.FgRed).SprintFunc()
)

func (t *tracer) indent(depth int) string {
	return traceGuide(strings.Repeat("│ ", depth-1))
}

func (t *tracer) enter(n Node, depth int, tok *lexer.Token) {
	if t == nil {
		return
	}
	if _, ok := n.(*TokenMatch); ok {
		return
	}

	at := "end of file"
	if tok != nil {
		at = tok.Describe()
	}
	fmt.Fprintf(t.w, "%s%s %s\n", t.indent(depth), paint(n), traceGuide(at))
}

func (t *tracer) exit(n Node, depth int, res Result, err *ParseError) {
	if t == nil {
		return
	}

	if _, ok := n.(*TokenMatch); ok {
		if err != nil {
			fmt.Fprintf(t.w, "%s%s %s\n", t.indent(depth), traceToken(n.Name()), traceFail("✗"))
		} else {
			fmt.Fprintf(t.w, "%s%s %s\n", t.indent(depth), traceToken(n.Name()), traceOK("✓"))
		}
		return
	}

	if err != nil {
		fmt.Fprintf(t.w, "%s%s %s\n", t.indent(depth), traceFail("✗"), n.Name())
		return
	}
	fmt.Fprintf(t.w, "%s%s %s +%d\n", t.indent(depth), traceOK("✓"), n.Name(), res.Consumed)
}

func paint(n Node) string {
	switch n.(type) {
	case *Alternation:
		return traceAlt("any " + n.Name())
	case *Concatenation:
		return traceConcat("concat " + n.Name())
	case *Optional:
		return traceOpt("maybe " + n.Name())
	case *Repetition:
		return traceRepeat("repeat " + n.Name())
	case *Rule:
		return traceRule(n.Name())
	}
	return n.Name()
}
