package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compilingdogs/pd/internal/config"
	"github.com/compilingdogs/pd/internal/logging"
	"github.com/compilingdogs/pd/runtime/ast"
	"github.com/compilingdogs/pd/runtime/parser"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func pd(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errw bytes.Buffer
	code := Run(context.Background(), args, Streams{In: strings.NewReader(stdin), Out: &out, Err: &errw})
	return result{code: code, stdout: out.String(), stderr: errw.String()}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun(t *testing.T) {
	path := writeFile(t, "sum.pd", "var x = 2 + 3\nprint x\nprint readInt * 2")

	res := pd(t, "21\n", "run", path)
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "5\n42\n", res.stdout)
	assert.Empty(t, res.stderr)
}

func TestRunFromStdin(t *testing.T) {
	res := pd(t, "for i in 1..3 loop print i end", "run", "-")
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "1\n2\n", res.stdout)
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name   string
		args   []string
		code   int
		stderr []string
	}{
		{
			name: "missing argument",
			args: []string{"run"},
			code: ExitInvalidArguments,
		},
		{
			name: "unknown flag",
			args: []string{"run", "--bogus", "x.pd"},
			code: ExitInvalidArguments,
		},
		{
			name:   "missing file",
			args:   []string{"run", filepath.Join(dir, "nope.pd")},
			code:   ExitIOError,
			stderr: []string{"cannot read"},
		},
		{
			name:   "invalid config",
			args:   []string{"run", "--config", write("bad.yaml", "parser:\n  alternation: sideways\n"), write("ok.pd", "print 1")},
			code:   ExitIOError,
			stderr: []string{"invalid configuration"},
		},
		{
			name:   "lex error",
			args:   []string{"run", write("lex.pd", "var x : 1")},
			code:   ExitParseError,
			stderr: []string{"tokenization failed", "unexpected character ':'", "^"},
		},
		{
			name:   "parse error",
			args:   []string{"run", write("parse.pd", "var := 1")},
			code:   ExitParseError,
			stderr: []string{"syntax error", "expected identifier", " 1 | var := 1"},
		},
		{
			name:   "incomplete program",
			args:   []string{"run", write("open.pd", "if true then print 1")},
			code:   ExitParseError,
			stderr: []string{"end of file", "Hint:"},
		},
		{
			name:   "interpretation error",
			args:   []string{"run", write("ref.pd", "var count := 1\nprint cont")},
			code:   ExitInterpretationError,
			stderr: []string{"execution failed", "Unresolved reference cont at line 2 column 7", "did you mean 'count'", " 2 | print cont"},
		},
		{
			name:   "bad token stream",
			args:   []string{"run", "--tokens", write("junk.cbor", "not cbor")},
			code:   ExitIOError,
			stderr: []string{"invalid token stream"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pd(t, "", tt.args...)
			assert.Equal(t, tt.code, res.code, res.stderr)
			for _, want := range tt.stderr {
				assert.Contains(t, res.stderr, want)
			}
		})
	}
}

func TestConfigDisablesSuggestions(t *testing.T) {
	cfg := writeFile(t, "pd.yaml", "interpreter:\n  suggestions: false\n")
	src := writeFile(t, "ref.pd", "var count := 1\nprint cont")

	res := pd(t, "", "run", "--config", cfg, src)
	assert.Equal(t, ExitInterpretationError, res.code)
	assert.NotContains(t, res.stderr, "did you mean")
}

func TestTokensRoundTrip(t *testing.T) {
	src := writeFile(t, "loop.pd", "var s := 0\nfor i in 1..4 loop s := s + i end\nprint s")
	stream := filepath.Join(t.TempDir(), "loop.cbor")

	res := pd(t, "", "tokens", src)
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "1:1")
	assert.Contains(t, res.stdout, "VAR")

	res = pd(t, "", "tokens", "-o", stream, src)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	res = pd(t, "", "run", "--tokens", stream)
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "6\n", res.stdout)

	res = pd(t, "", "ast", "--tokens", stream)
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "Program\n"))
}

func TestAST(t *testing.T) {
	source := `if 1 < 2 then print "yes" else print "no" end`
	path := writeFile(t, "if.pd", source)

	tree, err := parser.ParseString(source)
	require.NoError(t, err)

	for _, args := range [][]string{{"ast", path}, {"ast", "--longest-match", path}} {
		res := pd(t, "", args...)
		assert.Equal(t, ExitSuccess, res.code, res.stderr)
		assert.Equal(t, ast.Dump(tree.Program), res.stdout, "%v", args)
	}
}

func TestTraceAndTiming(t *testing.T) {
	path := writeFile(t, "p.pd", "print 1")

	res := pd(t, "", "run", "--trace", "--time", path)
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "1\n", res.stdout)
	assert.Contains(t, res.stderr, "print")
	assert.Contains(t, res.stderr, "timing:")

	res = pd(t, "", "run", "--max-depth", "3", path)
	assert.Equal(t, ExitParseError, res.code)
}

func TestDebugLogging(t *testing.T) {
	path := writeFile(t, "p.pd", "print 1")

	res := pd(t, "", "run", "--debug", path)
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, "msg=parsed")
	assert.Contains(t, res.stderr, "msg=executed")
}

// fakeLines replays input lines to the REPL
type fakeLines struct {
	lines   []string
	prompts []string
	history []string
}

func (f *fakeLines) Prompt(prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.lines) == 0 {
		return "", io.EOF
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeLines) AppendHistory(item string) { f.history = append(f.history, item) }

func testApp(stdin string) (*app, *bytes.Buffer, *bytes.Buffer) {
	var out, errw bytes.Buffer
	return &app{
		streams: Streams{In: strings.NewReader(stdin), Out: &out, Err: &errw},
		cfg:     config.Default(),
		logger:  logging.Discard(),
	}, &out, &errw
}

func TestREPL(t *testing.T) {
	a, out, errw := testApp("")
	lines := &fakeLines{lines: []string{
		"var x := 1",
		"if x = 1 then",
		`  print "one"`,
		"end",
		"return x + 1",
		"print y",
		"var := 2",
		":vars",
		":nope",
		":quit",
		"print 99",
	}}

	a.repl(lines)

	assert.Equal(t, "one\n2\nx = 1\nunknown command, try :vars or :quit\n", out.String())
	assert.Contains(t, errw.String(), "Unresolved reference y")
	assert.Contains(t, errw.String(), "syntax error")
	assert.Equal(t, []string{promptMain, promptMain, promptCont, promptCont, promptMain}, lines.prompts[:5])
	assert.Equal(t, "if x = 1 then   print \"one\" end", lines.history[1])
	assert.Equal(t, []string{"print 99"}, lines.lines, ":quit stops reading")
}

func TestREPLEndOfInput(t *testing.T) {
	a, out, _ := testApp("")
	a.repl(&fakeLines{lines: []string{"print 1"}})
	assert.Equal(t, "1\n\n", out.String())
}

// syncBuffer guards a buffer written by the watch loop and read by the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchRerunsOnChange(t *testing.T) {
	path := writeFile(t, "w.pd", "print 1")

	var out, errw syncBuffer
	a := &app{
		streams: Streams{In: strings.NewReader(""), Out: &out, Err: &errw},
		cfg:     config.Default(),
		logger:  logging.Discard(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan error, 8)
	done := make(chan error, 1)
	go func() { done <- a.watch(ctx, path, func(err error) { runs <- err }) }()

	select {
	case err := <-runs:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	require.NoError(t, os.WriteFile(path, []byte("print 2\nprint missing"), 0o644))
	select {
	case err := <-runs:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a run")
	}

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, "1\n2\n", out.String())
	assert.Contains(t, errw.String(), "Unresolved reference missing")
	assert.Contains(t, errw.String(), "--- watching")
}
