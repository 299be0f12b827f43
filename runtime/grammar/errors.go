package grammar

import (
	"fmt"
	"strings"

	"github.com/compilingdogs/pd/runtime/lexer"
)

// ParseError reports the farthest point a match reached before failing
type ParseError struct {
	Rule     string       // Innermost named rule at the failure
	Expected []string     // What would have allowed the match to continue
	Found    *lexer.Token // Offending token, nil at end of file
	Offset   int          // Token index of the failure
	Message  string       // Set for failures that are not a token mismatch
}

// Incomplete reports whether the input ended before the grammar was
// satisfied, i.e. more input could still make it parse.
func (e *ParseError) Incomplete() bool {
	return e.Found == nil && e.Message == ""
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Rule != "" {
		fmt.Fprintf(&b, "in %s: ", e.Rule)
	}

	if e.Message != "" {
		b.WriteString(e.Message)
		if e.Found != nil {
			fmt.Fprintf(&b, " at %s", e.Found.Position)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "expected %s but found ", joinExpected(e.Expected))
	if e.Found == nil {
		b.WriteString("end of file")
	} else {
		b.WriteString(e.Found.Describe())
	}
	return b.String()
}

// Position returns where the error occurred, if a token is known
func (e *ParseError) Position() (lexer.Position, bool) {
	if e.Found == nil {
		return lexer.Position{}, false
	}
	return e.Found.Position, true
}

// Snippet renders the offending source line with a caret under the column
func (e *ParseError) Snippet(source string) string {
	pos, ok := e.Position()
	if !ok {
		return ""
	}
	return Snippet(source, pos)
}

// Snippet shows line pos.Line of source with a caret at pos.Column
func Snippet(source string, pos lexer.Position) string {
	if source == "" || pos.Line == 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if pos.Line > len(lines) {
		return ""
	}
	lineContent := strings.ReplaceAll(lines[pos.Line-1], "\t", strings.Repeat(" ", lexer.TabWidth))

	var snippet strings.Builder
	snippet.WriteString(fmt.Sprintf("  --> %d:%d\n", pos.Line, pos.Column))
	snippet.WriteString("   |\n")
	snippet.WriteString(fmt.Sprintf("%2d | %s\n", pos.Line, lineContent))
	snippet.WriteString("   | ")
	if pos.Column > 0 && pos.Column <= len(lineContent)+1 {
		snippet.WriteString(strings.Repeat(" ", pos.Column-1) + "^")
	}
	return snippet.String()
}

func joinExpected(expected []string) string {
	switch len(expected) {
	case 0:
		return "more input"
	case 1:
		return expected[0]
	}
	return strings.Join(expected[:len(expected)-1], ", ") + " or " + expected[len(expected)-1]
}
