package preproc

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

var exprToken = regexp.MustCompile(`^\s*("[^"]*"|'[^']*'|<=|>=|==|!=|<|>|\(|\)|&&|\|\||[\w.\-]+)`)

// compareVersions compares two dotted Ruby versions such as "1.9.1".
func compareVersions(a, b string) (int, error) {
	ca, cb := canonical(a), canonical(b)
	if !semver.IsValid(ca) {
		return 0, fmt.Errorf("invalid version %q", a)
	}
	if !semver.IsValid(cb) {
		return 0, fmt.Errorf("invalid version %q", b)
	}
	return semver.Compare(ca, cb), nil
}

func canonical(v string) string {
	v = strings.Trim(strings.TrimSpace(v), `"'`)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// eval evaluates the condition of an #@if directive:
//
//	expr   = term { ("or" | "||") term }
//	term   = factor { ("and" | "&&") factor }
//	factor = "(" expr ")" | operand op operand
func (p *processor) eval(src string) (bool, error) {
	toks, err := tokenize(src)
	if err != nil {
		return false, err
	}
	e := &exprParser{toks: toks, params: p.params}
	v, err := e.expr()
	if err != nil {
		return false, err
	}
	if e.pos < len(e.toks) {
		return false, fmt.Errorf("unexpected %q in condition", e.toks[e.pos])
	}
	return v, nil
}

func tokenize(src string) ([]string, error) {
	var toks []string
	for strings.TrimSpace(src) != "" {
		m := exprToken.FindStringSubmatch(src)
		if m == nil {
			return nil, fmt.Errorf("invalid condition %q", strings.TrimSpace(src))
		}
		toks = append(toks, m[1])
		src = src[len(m[0]):]
	}
	return toks, nil
}

type exprParser struct {
	toks   []string
	pos    int
	params Params
}

func (e *exprParser) peek() string {
	if e.pos < len(e.toks) {
		return e.toks[e.pos]
	}
	return ""
}

func (e *exprParser) next() string {
	t := e.peek()
	e.pos++
	return t
}

func (e *exprParser) expr() (bool, error) {
	v, err := e.term()
	if err != nil {
		return false, err
	}
	for e.peek() == "or" || e.peek() == "||" {
		e.next()
		rhs, err := e.term()
		if err != nil {
			return false, err
		}
		v = v || rhs
	}
	return v, nil
}

func (e *exprParser) term() (bool, error) {
	v, err := e.factor()
	if err != nil {
		return false, err
	}
	for e.peek() == "and" || e.peek() == "&&" {
		e.next()
		rhs, err := e.factor()
		if err != nil {
			return false, err
		}
		v = v && rhs
	}
	return v, nil
}

func (e *exprParser) factor() (bool, error) {
	if e.peek() == "(" {
		e.next()
		v, err := e.expr()
		if err != nil {
			return false, err
		}
		if e.next() != ")" {
			return false, fmt.Errorf("missing ) in condition")
		}
		return v, nil
	}

	lhs, err := e.operand()
	if err != nil {
		return false, err
	}
	op := e.next()
	rhs, err := e.operand()
	if err != nil {
		return false, err
	}
	cmp, err := compareVersions(lhs, rhs)
	if err != nil {
		return false, err
	}

	switch op {
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	case "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	default:
		return false, fmt.Errorf("unknown operator %q in condition", op)
	}
}

func (e *exprParser) operand() (string, error) {
	tok := e.next()
	switch {
	case tok == "":
		return "", fmt.Errorf("unexpected end of condition")
	case strings.HasPrefix(tok, `"`), strings.HasPrefix(tok, `'`):
		return tok[1 : len(tok)-1], nil
	case tok == "version":
		v, ok := e.params["version"]
		if !ok {
			return "", fmt.Errorf("version parameter not set")
		}
		return v, nil
	default:
		if v, ok := e.params[tok]; ok {
			return v, nil
		}
		return tok, nil
	}
}
