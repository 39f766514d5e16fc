package rd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/checkparams/check"
	"github.com/dhamidi/checkparams/lineinput"
	"github.com/dhamidi/checkparams/signature"
)

var log = commonlog.GetLogger("checkparams.rd")

var (
	signatureLine = regexp.MustCompile(`^---`)
	propertyLine  = regexp.MustCompile(`^:`)
	separatorLine = regexp.MustCompile(`^===+`)
	headlineLine  = regexp.MustCompile(`^==?`)
	ulistItem     = regexp.MustCompile(`^\s+\*(\s|$)`)
	ulistCont     = regexp.MustCompile(`^\s+[^*\s]`)
	olistItem     = regexp.MustCompile(`^\s+\(\d+\)`)
	dlistItem     = regexp.MustCompile(`^:(\s|$)`)
	emlistOpen    = regexp.MustCompile(`^//emlist\{`)
	emlistClose   = regexp.MustCompile(`^//\}`)
	indentedLine  = regexp.MustCompile(`^\s+\S`)
	flushLine     = regexp.MustCompile(`^\S`)
	tabIndented   = regexp.MustCompile(`^[ \t]`)
	tagStart      = regexp.MustCompile(`^@[a-z]`)
	tagName       = regexp.MustCompile(`^@\w+`)
	tagArgument   = regexp.MustCompile(`^\s*\w+`)
)

var (
	olistCont = lineinput.PatternFunc(func(line string) bool {
		return indentedLine.MatchString(line) && !olistItem.MatchString(line)
	})
	seeLine = lineinput.PatternFunc(func(line string) bool {
		return strings.Contains(line, "@see")
	})
	blankLine = lineinput.PatternFunc(func(line string) bool {
		return strings.TrimSpace(line) == ""
	})
	paragraphLine = lineinput.PatternFunc(func(line string) bool {
		return flushLine.MatchString(line) &&
			!strings.HasPrefix(line, "---") &&
			!strings.HasPrefix(line, "=") &&
			!emlistOpen.MatchString(line) &&
			!tagStart.MatchString(line)
	})
	metaInfoLine = lineinput.PatternFunc(func(line string) bool {
		return line == "" || (tagName.MatchString(line) && !strings.HasPrefix(line, "@see"))
	})
	ddLine = lineinput.PatternFunc(func(line string) bool {
		return tabIndented.MatchString(line) || emlistOpen.MatchString(line)
	})
	ddParagraphLine = lineinput.PatternFunc(func(line string) bool {
		return line == "" || ddLine(line)
	})
)

// Handler receives what the parser finds.
type Handler interface {
	// Mismatch is called once per entry whose parameter sets differ.
	// A non-nil error stops the parse.
	Mismatch(m *check.Mismatch) error
	// UnknownTag is called for metadata tags the parser does not know.
	UnknownTag(line int, tag string)
}

type Option func(*Parser)

// WithFile names the input in log messages.
func WithFile(name string) Option {
	return func(p *Parser) {
		p.file = name
	}
}

// WithStrict makes headlines inside an entry and unterminated literal
// blocks errors.
func WithStrict() Option {
	return func(p *Parser) {
		p.strict = true
	}
}

// WithTags replaces the sets of tags that declare a parameter and of tags
// that are accepted without declaring one.
func WithTags(param, quiet []string) Option {
	return func(p *Parser) {
		p.tags = make(map[string]tagKind, len(param)+len(quiet))
		for _, t := range quiet {
			p.tags[t] = tagQuiet
		}
		for _, t := range param {
			p.tags[t] = tagParam
		}
	}
}

type tagKind int

const (
	tagUnknown tagKind = iota
	tagParam
	tagQuiet
)

var (
	DefaultParamTags = []string{"@param", "@arg"}
	DefaultQuietTags = []string{"@raise", "@return", "@todo"}
)

// Property is a "key: value" line following an entry's signatures.
type Property struct {
	Key   string
	Value string
}

// Entry is one method entry as it is being scanned.
type Entry struct {
	Line       int
	Signatures []*signature.Signature
	Properties []Property
	Params     []string
}

func (e *Entry) lastSignature() *signature.Signature {
	if len(e.Signatures) == 0 {
		return &signature.Signature{}
	}
	return e.Signatures[len(e.Signatures)-1]
}

type Parser struct {
	in      *lineinput.Input
	handler Handler
	file    string
	strict  bool
	tags    map[string]tagKind
	entries int
}

func NewParser(in *lineinput.Input, h Handler, opts ...Option) *Parser {
	p := &Parser{in: in, handler: h}
	WithTags(DefaultParamTags, DefaultQuietTags)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse checks every method entry in src.
func Parse(src string, h Handler, opts ...Option) error {
	return NewParser(lineinput.New(src), h, opts...).Parse()
}

// Parse reads the whole input. Text outside method entries is skipped.
func (p *Parser) Parse() error {
	for p.in.HasNext() {
		if p.in.Matches(signatureLine) {
			if err := p.entry(); err != nil {
				return err
			}
			continue
		}
		p.in.Next()
	}
	log.Debugf("%s: %d entries checked", p.file, p.entries)
	return nil
}

// Entries returns the number of method entries scanned so far.
func (p *Parser) Entries() int {
	return p.entries
}

func (p *Parser) entry() error {
	p.entries++
	e := &Entry{Line: p.in.LineNo() + 1}

	for line := range p.in.While(signatureLine) {
		e.Signatures = append(e.Signatures, signature.Parse(line))
	}
	for line := range p.in.While(propertyLine) {
		key, value, _ := strings.Cut(strings.TrimPrefix(line, ":"), ":")
		e.Properties = append(e.Properties, Property{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}

	for p.in.HasNext() {
		line, _ := p.in.Peek()
		r := p.rule(line)
		done, err := r.apply(p, e)
		if err != nil {
			return err
		}
		if done {
			break
		}
	}

	m := check.Entry(p.in.LineNo(), e.Line, e.Signatures, e.Params)
	if m == nil {
		return nil
	}
	log.Debugf("%s:%d: parameter mismatch in %s", p.file, e.Line, e.lastSignature())
	return p.handler.Mismatch(m)
}

func (p *Parser) rule(line string) bodyRule {
	for _, r := range bodyRules {
		if r.match.MatchString(line) {
			return r
		}
	}
	return paragraphRule
}

// bodyRule pairs the first line of a body construct with the consumer
// that owns it. apply reports whether the entry has ended.
type bodyRule struct {
	match lineinput.Pattern
	apply func(p *Parser, e *Entry) (bool, error)
}

var bodyRules = []bodyRule{
	{separatorLine, func(p *Parser, e *Entry) (bool, error) {
		p.in.Next()
		return false, nil
	}},
	{headlineLine, (*Parser).headline},
	{signatureLine, func(p *Parser, e *Entry) (bool, error) {
		return true, nil
	}},
	{ulistItem, (*Parser).ulist},
	{olistItem, (*Parser).olist},
	{dlistItem, (*Parser).dlist},
	{emlistOpen, func(p *Parser, e *Entry) (bool, error) {
		return false, p.emlist()
	}},
	{indentedLine, func(p *Parser, e *Entry) (bool, error) {
		p.in.Break(flushLine)
		return false, nil
	}},
	{seeLine, func(p *Parser, e *Entry) (bool, error) {
		p.in.Next()
		p.in.Span(indentedLine)
		return false, nil
	}},
	{tagStart, func(p *Parser, e *Entry) (bool, error) {
		params, err := p.metaInfo(e)
		e.Params = append(e.Params, params...)
		return false, err
	}},
	{blankLine, func(p *Parser, e *Entry) (bool, error) {
		p.in.Next()
		return false, nil
	}},
}

var paragraphRule = bodyRule{paragraphLine, (*Parser).paragraph}

func (p *Parser) headline(e *Entry) (bool, error) {
	if p.strict {
		line, _ := p.in.Peek()
		return true, &HeadlineError{Line: p.in.LineNo() + 1, Text: line}
	}
	log.Debugf("%s:%d: headline ends entry started at line %d", p.file, p.in.LineNo()+1, e.Line)
	return true, nil
}

func (p *Parser) ulist(*Entry) (bool, error) {
	for range p.in.While(ulistItem) {
		for range p.in.While(ulistCont) {
		}
	}
	return false, nil
}

func (p *Parser) olist(*Entry) (bool, error) {
	for range p.in.While(olistItem) {
		for range p.in.While(olistCont) {
		}
	}
	return false, nil
}

func (p *Parser) dlist(*Entry) (bool, error) {
	for p.in.Matches(propertyLine) {
		for range p.in.While(propertyLine) {
		}
		if err := p.definition(ddParagraphLine); err != nil {
			return false, err
		}
	}
	return false, nil
}

// definition consumes the body of a definition or tag: indented lines and
// literal blocks. With ddParagraphLine, blank lines separate paragraphs of
// the same body; with ddLine a blank line ends it.
func (p *Parser) definition(owned lineinput.Pattern) error {
	for p.in.Matches(owned) {
		line, _ := p.in.Peek()
		switch {
		case line == "":
			p.in.Next()
		case emlistOpen.MatchString(line):
			if err := p.emlist(); err != nil {
				return err
			}
		default:
			for range p.in.While(tabIndented) {
			}
		}
	}
	return nil
}

func (p *Parser) emlist() error {
	p.in.Next()
	start := p.in.LineNo()
	for _, err := range p.in.Until(emlistClose) {
		if err != nil && p.strict {
			return fmt.Errorf("literal block at line %d: %w", start, err)
		}
	}
	return nil
}

func (p *Parser) paragraph(*Entry) (bool, error) {
	if len(p.in.Span(paragraphLine)) == 0 {
		p.in.Next()
	}
	return false, nil
}

// metaInfo reads a run of metadata tags and returns the parameter names
// they declare.
func (p *Parser) metaInfo(e *Entry) ([]string, error) {
	var params []string
	for p.in.Matches(metaInfoLine) {
		header, _ := p.in.Next()
		if header == "" {
			continue
		}
		loc := tagName.FindStringIndex(header)
		tag, rest := header[:loc[1]], header[loc[1]:]

		switch p.tags[tag] {
		case tagParam:
			name := "?"
			if m := tagArgument.FindStringIndex(rest); m != nil {
				name = strings.TrimSpace(rest[:m[1]])
				rest = rest[m[1]:]
			}
			params = append(params, name)
		case tagQuiet:
		default:
			p.handler.UnknownTag(p.in.LineNo(), tag)
		}

		p.in.Unread(rest)
		if err := p.definition(ddLine); err != nil {
			sig := e.lastSignature()
			return params, &MetaInfoError{
				Line:            p.in.LineNo(),
				Signature:       sig.FriendlyString(),
				SignatureParams: sig.Params,
				Params:          params,
				Err:             err,
			}
		}
	}
	return params, nil
}
