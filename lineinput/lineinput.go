// Package lineinput provides a line cursor with push-back, used by the
// recursive-descent reference parser.
package lineinput

import (
	"errors"
	"io"
	"iter"
	"strings"
)

var (
	ErrEndOfInput        = errors.New("lineinput: end of input")
	ErrUnterminatedBlock = errors.New("lineinput: unterminated block")
)

// Pattern reports whether a line matches. *regexp.Regexp satisfies it.
type Pattern interface {
	MatchString(s string) bool
}

// PatternFunc adapts a plain function to a Pattern.
type PatternFunc func(line string) bool

func (f PatternFunc) MatchString(s string) bool {
	return f(s)
}

// Input is a sequential reader over lines. Lines never carry their
// trailing newline.
type Input struct {
	lines  []string
	pos    int
	unread []string
	lineno int
}

// New splits src into lines.
func New(src string) *Input {
	return &Input{lines: splitLines(src)}
}

// NewReader reads all of r and splits it into lines.
func NewReader(r io.Reader) (*Input, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return New(string(src)), nil
}

// splitLines splits on "\n", dropping a trailing "\r" from each line and
// the empty piece after a final newline.
func splitLines(src string) []string {
	if src == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(src, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// LineNo returns the number of lines consumed so far, i.e. the 1-based
// number of the most recently consumed line.
func (in *Input) LineNo() int {
	return in.lineno
}

func (in *Input) HasNext() bool {
	return len(in.unread) > 0 || in.pos < len(in.lines)
}

func (in *Input) Peek() (string, error) {
	if n := len(in.unread); n > 0 {
		return in.unread[n-1], nil
	}
	if in.pos < len(in.lines) {
		return in.lines[in.pos], nil
	}
	return "", ErrEndOfInput
}

func (in *Input) Next() (string, error) {
	var line string
	if n := len(in.unread); n > 0 {
		line = in.unread[n-1]
		in.unread = in.unread[:n-1]
	} else if in.pos < len(in.lines) {
		line = in.lines[in.pos]
		in.pos++
	} else {
		return "", ErrEndOfInput
	}
	in.lineno++
	return line, nil
}

// Unread pushes line back so that it is returned by the next Peek or Next.
func (in *Input) Unread(line string) {
	in.unread = append(in.unread, line)
	in.lineno--
}

// Matches reports whether a line remains and it matches p.
func (in *Input) Matches(p Pattern) bool {
	line, err := in.Peek()
	return err == nil && p.MatchString(line)
}

// While yields consecutive lines matching p. The first line that does not
// match is left unconsumed. Lines are pulled from the input as the
// sequence is iterated, so a caller may consume further lines between
// steps.
func (in *Input) While(p Pattern) iter.Seq[string] {
	return func(yield func(string) bool) {
		for in.Matches(p) {
			line, _ := in.Next()
			if !yield(line) {
				return
			}
		}
	}
}

// Span consumes and returns a maximal run of lines matching p.
func (in *Input) Span(p Pattern) []string {
	var lines []string
	for line := range in.While(p) {
		lines = append(lines, line)
	}
	return lines
}

// Until yields lines up to the first one matching term. The terminator
// itself is consumed but not yielded. If the input ends first, a final
// pair carrying ErrUnterminatedBlock is yielded; callers that tolerate a
// missing terminator can ignore it.
func (in *Input) Until(term Pattern) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for in.HasNext() {
			line, _ := in.Next()
			if term.MatchString(line) {
				return
			}
			if !yield(line, nil) {
				return
			}
		}
		yield("", ErrUnterminatedBlock)
	}
}

// Break consumes lines until one matches stop, which is left unconsumed,
// and returns the consumed lines.
func (in *Input) Break(stop Pattern) []string {
	var lines []string
	for in.HasNext() && !in.Matches(stop) {
		line, _ := in.Next()
		lines = append(lines, line)
	}
	return lines
}
