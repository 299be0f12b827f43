package interpreter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/compilingdogs/pd/runtime/lexer"
)

// InterpretationError reports a failure of the running program: an
// unresolved reference, an operand type mismatch, a bad container index or
// a malformed loop. Line and Column are 0 when no position is known.
type InterpretationError struct {
	Message    string
	Line       int
	Column     int
	Reference  string // Identifier of an unresolved reference
	Suggestion string // Close identifier for unresolved references, if any
}

func (e *InterpretationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d column %d", e.Line, e.Column)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean '%s'?)", e.Suggestion)
	}
	return b.String()
}

func errorAt(pos lexer.Position, format string, args ...any) *InterpretationError {
	return &InterpretationError{
		Message: fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Column:  pos.Column,
	}
}

// closestName picks the candidate nearest to target: the best fuzzy
// subsequence match first, then any name within a small edit distance.
func closestName(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", maxSuggestionDistance+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

const maxSuggestionDistance = 2
