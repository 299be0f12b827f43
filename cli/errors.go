package cli

import (
	"errors"
	"fmt"
	"io"

	pderrors "github.com/compilingdogs/pd/core/errors"
	"github.com/compilingdogs/pd/runtime/grammar"
	"github.com/compilingdogs/pd/runtime/interpreter"
	"github.com/compilingdogs/pd/runtime/lexer"
)

// contextSource is the PDError context key holding the program text
const contextSource = "source"

// FormatError writes err with the offending source line when one is known
func FormatError(w io.Writer, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	var source string
	var pdErr *pderrors.PDError
	if errors.As(err, &pdErr) {
		msg = pdErr.Message
		if pdErr.Cause != nil {
			msg += ": " + pdErr.Cause.Error()
		}
		if v, ok := pdErr.GetContext(contextSource); ok {
			source, _ = v.(string)
		}
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", errorLabel("Error:"), msg)

	if snippet := snippetFor(err, source); snippet != "" {
		_, _ = fmt.Fprintln(w, gutter(snippet))
	}

	var perr *grammar.ParseError
	if errors.As(err, &perr) && perr.Incomplete() {
		_, _ = fmt.Fprintf(w, "%s the program ended early, is an 'end' missing?\n", hintLabel("Hint:"))
	}
}

func snippetFor(err error, source string) string {
	if source == "" {
		return ""
	}

	var perr *grammar.ParseError
	if errors.As(err, &perr) {
		return perr.Snippet(source)
	}
	var lerr *lexer.LexError
	if errors.As(err, &lerr) {
		return grammar.Snippet(source, lerr.Position)
	}
	var ierr *interpreter.InterpretationError
	if errors.As(err, &ierr) && ierr.Line > 0 {
		return grammar.Snippet(source, lexer.Position{Line: ierr.Line, Column: ierr.Column})
	}
	return ""
}

// exitCode maps error categories to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case pderrors.IsErrorType(err, pderrors.ErrSourceRead),
		pderrors.IsErrorType(err, pderrors.ErrConfig),
		pderrors.IsErrorType(err, pderrors.ErrTokenStream):
		return ExitIOError
	case pderrors.IsErrorType(err, pderrors.ErrLex),
		pderrors.IsErrorType(err, pderrors.ErrParse):
		return ExitParseError
	case pderrors.IsErrorType(err, pderrors.ErrInterpretation):
		return ExitInterpretationError
	}
	return ExitInvalidArguments
}

// withSource attaches the program text so FormatError can show snippets
func withSource(err *pderrors.PDError, source []byte) *pderrors.PDError {
	return err.WithContext(contextSource, string(source))
}
