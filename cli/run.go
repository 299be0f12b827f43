package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	pderrors "github.com/compilingdogs/pd/core/errors"
	"github.com/compilingdogs/pd/runtime/grammar"
	"github.com/compilingdogs/pd/runtime/interpreter"
	"github.com/compilingdogs/pd/runtime/lexer"
	"github.com/compilingdogs/pd/runtime/parser"
)

func newRunCommand(a *app) *cobra.Command {
	var fromTokens bool

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a PD program (FILE may be - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFile(args[0], fromTokens)
		},
	}
	cmd.Flags().BoolVar(&fromTokens, "tokens", false, "FILE is a CBOR token stream written by 'pd tokens -o'")
	return cmd
}

func (a *app) runFile(path string, fromTokens bool) error {
	data, err := a.readSource(path)
	if err != nil {
		return err
	}
	tree, err := a.parse(data, fromTokens)
	if err != nil {
		return err
	}
	return a.execute(tree)
}

// readSource reads path, or stdin for "-"
func (a *app) readSource(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.streams.In)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, pderrors.NewSourceError(path, err)
	}
	return data, nil
}

func (a *app) parserOptions() []parser.ParserOpt {
	opts := a.cfg.ParserOptions(a.streams.Err)
	opts = append(opts, parser.WithLogger(a.logger))
	if a.opts.timing {
		opts = append(opts, parser.WithTelemetryTiming())
	}
	return opts
}

// parse lexes and parses data; fromTokens treats data as an encoded token
// stream instead of source text.
func (a *app) parse(data []byte, fromTokens bool) (*parser.ParseTree, error) {
	var (
		tree *parser.ParseTree
		err  error
	)
	if fromTokens {
		tokens, origin, derr := lexer.DecodeTokens(bytes.NewReader(data))
		if derr != nil {
			return nil, pderrors.Wrap(pderrors.ErrTokenStream, "invalid token stream", derr)
		}
		// The originating file, when still around, only serves snippets
		data = nil
		if origin != "" {
			data, _ = os.ReadFile(origin)
		}
		tree, err = parser.ParseTokens(data, tokens, a.parserOptions()...)
	} else {
		tree, err = parser.Parse(data, a.parserOptions()...)
	}

	if err != nil {
		var lerr *lexer.LexError
		if errors.As(err, &lerr) {
			return nil, withSource(pderrors.NewLexError(err), data)
		}
		var perr *grammar.ParseError
		if errors.As(err, &perr) {
			return nil, withSource(pderrors.NewParseError(err), data)
		}
		return nil, err
	}
	return tree, nil
}

func (a *app) newInterpreter() *interpreter.Interpreter {
	opts := []interpreter.Option{
		interpreter.WithInput(a.streams.In),
		interpreter.WithOutput(a.streams.Out),
		interpreter.WithLogger(a.logger),
	}
	return interpreter.New(append(opts, a.cfg.InterpreterOptions()...)...)
}

func (a *app) execute(tree *parser.ParseTree) error {
	start := time.Now()
	_, err := a.newInterpreter().Exec(tree.Program, interpreter.NewScope())
	elapsed := time.Since(start)

	if a.opts.timing && tree.Telemetry != nil {
		t := tree.Telemetry
		_, _ = fmt.Fprintf(a.streams.Err, "%s lex %s, parse %s, run %s (%d tokens, %d match attempts)\n",
			gutter("timing:"), t.LexTime, t.ParseTime, elapsed, t.TokenCount, t.Attempts)
	}
	if err != nil {
		return withSource(pderrors.NewInterpretationError(err), tree.Source)
	}
	return nil
}
