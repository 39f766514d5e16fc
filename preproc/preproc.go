// Package preproc expands the "#@" directives of reference manual sources:
// version conditionals, includes, sample code blocks and comments.
package preproc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Params are the values directives can refer to. "version" is required
// by #@since, #@until and #@if.
type Params map[string]string

var ErrIncludeCycle = errors.New("include cycle")

// Error locates a directive problem.
type Error struct {
	File string
	Line int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	commentDirective    = regexp.MustCompile(`^#@#`)
	todoDirective       = regexp.MustCompile(`^#@todo\b`)
	includeDirective    = regexp.MustCompile(`^#@include\s*\((.*?)\)`)
	sinceDirective      = regexp.MustCompile(`^#@since\s+(\S+)`)
	untilDirective      = regexp.MustCompile(`^#@until\s+(\S+)`)
	ifDirective         = regexp.MustCompile(`^#@if\s*\((.*)\)\s*$`)
	elseDirective       = regexp.MustCompile(`^#@else\b`)
	endDirective        = regexp.MustCompile(`^#@end\b`)
	samplecodeDirective = regexp.MustCompile(`^#@samplecode\b`)
	anyDirective        = regexp.MustCompile(`^#@\S*`)
)

type frameKind int

const (
	frameCond frameKind = iota
	frameSample
)

type frame struct {
	kind  frameKind
	value bool
	line  int
	seen  bool // #@else already seen
}

type processor struct {
	params  Params
	out     *strings.Builder
	visited map[string]bool

	// origin[i] is the line of the top-level input that produced output
	// line i+1. Included lines map to their #@include directive.
	origin    []int
	depth     int
	includeAt int
}

// Read preprocesses the file at path. Includes are resolved relative to
// the including file.
func Read(path string, params Params) (string, error) {
	p := &processor{params: params, out: &strings.Builder{}, visited: map[string]bool{}}
	if err := p.file(path); err != nil {
		return "", err
	}
	return p.out.String(), nil
}

// Process preprocesses r. name is used in errors and as the base for
// relative includes.
func Process(r io.Reader, name string, params Params) (string, error) {
	out, _, err := ProcessLines(r, name, params)
	return out, err
}

// ProcessLines is Process, additionally returning for every output line
// the line of r it came from.
func ProcessLines(r io.Reader, name string, params Params) (string, []int, error) {
	p := &processor{params: params, out: &strings.Builder{}, visited: map[string]bool{}}
	if abs, err := filepath.Abs(name); err == nil {
		p.visited[abs] = true
	}
	if err := p.stream(r, name); err != nil {
		return "", nil, err
	}
	return p.out.String(), p.origin, nil
}

// Includes returns the files path pulls in through #@include, directly or
// transitively, with path itself first.
func Includes(path string, params Params) ([]string, error) {
	p := &processor{params: params, out: &strings.Builder{}, visited: map[string]bool{}}
	if err := p.file(path); err != nil {
		return nil, err
	}
	abs, _ := filepath.Abs(path)
	var others []string
	for f := range p.visited {
		if f != abs {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	return append([]string{abs}, others...), nil
}

func (p *processor) file(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if p.visited[abs] {
		return fmt.Errorf("%s: %w", path, ErrIncludeCycle)
	}
	p.visited[abs] = true
	defer func() { p.visited[abs] = false }()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.stream(f, path)
}

func (p *processor) stream(r io.Reader, name string) error {
	var stack []*frame
	active := func() bool {
		for _, fr := range stack {
			if fr.kind == frameCond && !fr.value {
				return false
			}
		}
		return true
	}
	fail := func(line int, err error) error {
		return &Error{File: name, Line: line, Err: err}
	}

	br := bufio.NewReader(r)
	lineno := 0
	for eof := false; !eof; {
		line, err := br.ReadString('\n')
		switch {
		case err == io.EOF:
			eof = true
			if line == "" {
				continue
			}
		case err != nil:
			return fail(lineno+1, err)
		}
		lineno++
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		if !strings.HasPrefix(line, "#@") {
			if active() {
				p.emit(line, lineno)
			}
			continue
		}

		switch {
		case commentDirective.MatchString(line), todoDirective.MatchString(line):
		case includeDirective.MatchString(line):
			if !active() {
				continue
			}
			target := strings.Trim(strings.TrimSpace(includeDirective.FindStringSubmatch(line)[1]), `"'`)
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(name), target)
			}
			if p.depth == 0 {
				p.includeAt = lineno
			}
			p.depth++
			err := p.file(target)
			p.depth--
			if err != nil {
				return fail(lineno, err)
			}
		case sinceDirective.MatchString(line):
			cmp, err := p.compareVersion(sinceDirective.FindStringSubmatch(line)[1])
			if err != nil {
				return fail(lineno, err)
			}
			stack = append(stack, &frame{kind: frameCond, value: cmp >= 0, line: lineno})
		case untilDirective.MatchString(line):
			cmp, err := p.compareVersion(untilDirective.FindStringSubmatch(line)[1])
			if err != nil {
				return fail(lineno, err)
			}
			stack = append(stack, &frame{kind: frameCond, value: cmp < 0, line: lineno})
		case ifDirective.MatchString(line):
			value, err := p.eval(ifDirective.FindStringSubmatch(line)[1])
			if err != nil {
				return fail(lineno, err)
			}
			stack = append(stack, &frame{kind: frameCond, value: value, line: lineno})
		case elseDirective.MatchString(line):
			if len(stack) == 0 || stack[len(stack)-1].kind != frameCond || stack[len(stack)-1].seen {
				return fail(lineno, errors.New("#@else without matching condition"))
			}
			top := stack[len(stack)-1]
			top.value = !top.value
			top.seen = true
		case endDirective.MatchString(line):
			if len(stack) == 0 {
				return fail(lineno, errors.New("#@end without matching directive"))
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.kind == frameSample && active() {
				p.emit("//}", lineno)
			}
		case samplecodeDirective.MatchString(line):
			if active() {
				p.emit("//emlist{", lineno)
			}
			stack = append(stack, &frame{kind: frameSample, line: lineno})
		default:
			return fail(lineno, fmt.Errorf("unknown directive %s", anyDirective.FindString(line)))
		}
	}
	if len(stack) > 0 {
		return fail(stack[len(stack)-1].line, errors.New("missing #@end"))
	}
	return nil
}

func (p *processor) emit(line string, lineno int) {
	p.out.WriteString(line)
	p.out.WriteByte('\n')
	if p.depth > 0 {
		lineno = p.includeAt
	}
	p.origin = append(p.origin, lineno)
}

func (p *processor) compareVersion(v string) (int, error) {
	current, ok := p.params["version"]
	if !ok {
		return 0, errors.New("version parameter not set")
	}
	return compareVersions(current, v)
}
