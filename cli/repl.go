package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/compilingdogs/pd/runtime/grammar"
	"github.com/compilingdogs/pd/runtime/interpreter"
	"github.com/compilingdogs/pd/runtime/value"
)

const (
	historyFile = ".pd_history"
	promptMain  = "pd> "
	promptCont  = "... "
)

// lineReader is the part of *liner.State the REPL loop uses
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func newREPLCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive PD session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)

			home, _ := os.UserHomeDir()
			histPath := filepath.Join(home, historyFile)
			if f, err := os.Open(histPath); err == nil {
				_, _ = ln.ReadHistory(f)
				_ = f.Close()
			}
			defer func() {
				if f, err := os.Create(histPath); err == nil {
					_, _ = ln.WriteHistory(f)
					_ = f.Close()
				}
			}()

			a.repl(ln)
			return nil
		},
	}
}

// repl reads chunks until end of input and runs each one in a session
// scope that outlives the chunk.
func (a *app) repl(lines lineReader) {
	in := a.newInterpreter()
	scope := interpreter.NewScope()

	for {
		code, ok := a.readChunk(lines)
		if !ok {
			_, _ = fmt.Fprintln(a.streams.Out)
			return
		}

		trimmed := strings.TrimSpace(code)
		switch {
		case trimmed == "":
			continue
		case trimmed == ":quit":
			return
		case trimmed == ":vars":
			for _, name := range scope.Names() {
				v, _ := scope.Lookup(name)
				_, _ = fmt.Fprintf(a.streams.Out, "%s = %s\n", name, valueText(value.Format(v)))
			}
			continue
		case strings.HasPrefix(trimmed, ":"):
			_, _ = fmt.Fprintln(a.streams.Out, "unknown command, try :vars or :quit")
			continue
		}
		lines.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		tree, err := a.parse([]byte(code), false)
		if err != nil {
			FormatError(a.streams.Err, err)
			continue
		}
		v, err := in.Exec(tree.Program, scope)
		if err != nil {
			_, _ = fmt.Fprintf(a.streams.Err, "%s %v\n", errorLabel("Error:"), err)
			continue
		}
		if v != nil {
			_, _ = fmt.Fprintln(a.streams.Out, valueText(value.Format(v)))
		}
	}
}

// readChunk collects lines until they parse or fail for a reason other
// than running out of input, so an open "if" or "func" continues on the
// next line.
func (a *app) readChunk(lines lineReader) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := lines.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, perr := a.parse([]byte(src), false)
		var gerr *grammar.ParseError
		if errors.As(perr, &gerr) && gerr.Incomplete() {
			continue
		}
		return src, true
	}
}
