package interpreter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/edwingeng/deque"

	"github.com/compilingdogs/pd/runtime/value"
)

// ErrEndOfInput is returned by the read built-ins once stdin is exhausted
var ErrEndOfInput = errors.New("unexpected end of input")

// Console is the program's standard input and output. Input is consumed a
// line at a time; readInt and readReal take one whitespace separated word
// from a queue holding the rest of the current line.
type Console struct {
	in      *bufio.Reader
	out     io.Writer
	pending deque.Deque // words of the current line not yet read, as strings
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	if in == nil {
		in = strings.NewReader("")
	}
	if out == nil {
		out = io.Discard
	}
	return &Console{in: bufio.NewReader(in), out: out, pending: deque.NewDeque()}
}

// Print writes the operands joined by ", " followed by a newline
func (c *Console) Print(values ...value.Value) error {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = value.Format(v)
	}
	_, err := fmt.Fprintln(c.out, strings.Join(parts, ", "))
	return err
}

func (c *Console) ReadInt() (value.Integer, error) {
	word, err := c.word()
	if err != nil {
		return value.Integer{}, err
	}
	i, ok := new(big.Int).SetString(word, 10)
	if !ok {
		return value.Integer{}, fmt.Errorf("readInt: %q is not an integer", word)
	}
	return value.Integer{V: i}, nil
}

func (c *Console) ReadReal() (value.Real, error) {
	word, err := c.word()
	if err != nil {
		return value.Real{}, err
	}
	r, err := value.NewReal(word)
	if err != nil {
		return value.Real{}, fmt.Errorf("readReal: %q is not a real number", word)
	}
	return r, nil
}

// ReadString returns the unread rest of the current line, or the next whole
// line when nothing is pending.
func (c *Console) ReadString() (value.String, error) {
	if !c.pending.Empty() {
		words := make([]string, 0, c.pending.Len())
		for !c.pending.Empty() {
			words = append(words, c.pending.PopFront().(string))
		}
		return value.String(strings.Join(words, " ")), nil
	}

	line, err := c.line()
	if err != nil {
		return "", err
	}
	return value.String(line), nil
}

// word pops the next word, reading lines until one has content
func (c *Console) word() (string, error) {
	for c.pending.Empty() {
		line, err := c.line()
		if err != nil {
			return "", err
		}
		for _, w := range strings.Fields(line) {
			c.pending.PushBack(w)
		}
	}
	return c.pending.PopFront().(string), nil
}

func (c *Console) line() (string, error) {
	line, err := c.in.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", ErrEndOfInput
		}
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
