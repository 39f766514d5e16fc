// Package signature parses "---" method signature lines of the reference
// manual format.
package signature

import (
	"regexp"
	"strings"
)

const (
	classNameRE  = `[A-Z]\w*(?:::[A-Z]\w*)*`
	typemarkRE   = `\.#|\.|#|::`
	methodNameRE = "\\w+[?!=]?|===|==|=~|<=>|<=|>=|!=|!~|!|\\[\\]=|\\[\\]|\\*\\*|>>|<<|\\+@|-@|[~+\\-*/%&|^<>`]"
	binaryOpRE   = "===|==|=~|<=>|<=|>=|!=|!~|\\*\\*|>>|<<|[+\\-*/%&|^<>]"
	returnRE     = `(?:\s*->\s*(\S.*?))?\s*$`
)

var (
	methodRE = regexp.MustCompile(`^---\s*(?:(` + classNameRE + `)(` + typemarkRE + `))?(` + methodNameRE + `)` +
		`\s*(?:\((.*?)\))?\s*(\{.*?\})?` + returnRE)
	indexAssignRE = regexp.MustCompile(`^---\s*self\[(.*?)\]\s*=\s*(\w+)` + returnRE)
	indexRE       = regexp.MustCompile(`^---\s*self\[(.*?)\]` + returnRE)
	unaryRE       = regexp.MustCompile(`^---\s*([+\-~!])\s*self` + returnRE)
	binaryRE      = regexp.MustCompile(`^---\s*self\s*(` + binaryOpRE + `)\s*(\w+)` + returnRE)
	backquoteRE   = regexp.MustCompile("^---\\s*`(\\w*)`" + returnRE)
	gvarRE        = regexp.MustCompile(`^---\s*(\$(?:\w+|-.|\S))` + returnRE)
)

// Signature is one callable form of a documented method.
type Signature struct {
	Class    string
	Typemark string
	Name     string

	// Params is the raw text between the parentheses. HasParams is false
	// when the signature has no parameter list at all.
	Params    string
	HasParams bool

	Block string
	Type  string

	// Valid is false when the line could not be parsed; only Raw is set.
	Valid bool
	Raw   string
}

// Parse parses a single signature line. It never fails: a malformed line
// yields a Signature with Valid set to false and no parameter list.
func Parse(line string) *Signature {
	sig := &Signature{Raw: strings.TrimSpace(line), Valid: true}

	if m := indexAssignRE.FindStringSubmatch(line); m != nil {
		sig.Name = "[]="
		sig.setParams(joinParams(m[1], m[2]))
		sig.Type = m[3]
		return sig
	}
	if m := indexRE.FindStringSubmatch(line); m != nil {
		sig.Name = "[]"
		sig.setParams(m[1])
		sig.Type = m[2]
		return sig
	}
	if m := unaryRE.FindStringSubmatch(line); m != nil {
		sig.Name = m[1]
		if m[1] == "+" || m[1] == "-" {
			sig.Name += "@"
		}
		sig.Type = m[2]
		return sig
	}
	if m := binaryRE.FindStringSubmatch(line); m != nil {
		sig.Name = m[1]
		sig.setParams(m[2])
		sig.Type = m[3]
		return sig
	}
	if m := backquoteRE.FindStringSubmatch(line); m != nil {
		sig.Name = "`"
		sig.setParams(m[1])
		sig.Type = m[2]
		return sig
	}
	if m := gvarRE.FindStringSubmatch(line); m != nil {
		sig.Name = m[1]
		sig.Type = m[2]
		return sig
	}
	if loc := methodRE.FindStringSubmatchIndex(line); loc != nil {
		group := func(n int) string {
			if loc[2*n] < 0 {
				return ""
			}
			return line[loc[2*n]:loc[2*n+1]]
		}
		sig.Class = group(1)
		sig.Typemark = group(2)
		sig.Name = group(3)
		sig.Params = group(4)
		sig.HasParams = loc[8] >= 0
		sig.Block = group(5)
		sig.Type = group(6)
		return sig
	}

	sig.Valid = false
	return sig
}

func (s *Signature) setParams(p string) {
	s.Params = p
	s.HasParams = true
}

func joinParams(a, b string) string {
	if strings.TrimSpace(a) == "" {
		return b
	}
	return a + ", " + b
}

// IsOperator reports whether the method name is an operator rather than an
// identifier.
func (s *Signature) IsOperator() bool {
	if s.Name == "" {
		return false
	}
	c := s.Name[0]
	return !(c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9')
}

// FriendlyString renders the signature the way it reads in the manual.
func (s *Signature) FriendlyString() string {
	if !s.Valid {
		return s.Raw
	}

	var sb strings.Builder
	switch s.Name {
	case "[]":
		sb.WriteString("self[" + s.Params + "]")
	case "[]=":
		args, val := splitLast(s.Params)
		sb.WriteString("self[" + args + "] = " + val)
	case "+@", "-@", "~", "!":
		sb.WriteString(strings.TrimSuffix(s.Name, "@") + "self")
	case "`":
		sb.WriteString("`" + s.Params + "`")
	default:
		if s.IsOperator() && s.Class == "" && s.HasParams && !strings.Contains(s.Params, ",") {
			sb.WriteString("self " + s.Name + " " + s.Params)
			break
		}
		if s.Class != "" {
			sb.WriteString(s.Class + s.Typemark)
		}
		sb.WriteString(s.Name)
		if s.HasParams {
			sb.WriteString("(" + s.Params + ")")
		}
	}
	if s.Block != "" {
		sb.WriteString(" " + s.Block)
	}
	if s.Type != "" {
		sb.WriteString(" -> " + s.Type)
	}
	return sb.String()
}

func (s *Signature) String() string {
	return s.FriendlyString()
}

func splitLast(params string) (string, string) {
	i := strings.LastIndex(params, ",")
	if i < 0 {
		return "", strings.TrimSpace(params)
	}
	return strings.TrimSpace(params[:i]), strings.TrimSpace(params[i+1:])
}
