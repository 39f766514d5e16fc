// Package lsp serves parameter mismatches as diagnostics over the
// Language Server Protocol.
package lsp

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/checkparams/check"
	"github.com/dhamidi/checkparams/config"
	"github.com/dhamidi/checkparams/preproc"
	"github.com/dhamidi/checkparams/rd"
)

const lsName = "checkparams"

var log = commonlog.GetLogger("checkparams.lsp")

type Server struct {
	cfg     *config.Config
	handler protocol.Handler
	server  *server.Server
	version string
}

func NewServer(version string, cfg *config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:            s.initialize,
		Initialized:           s.initialized,
		Shutdown:              s.shutdown,
		SetTrace:              s.setTrace,
		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
		TextDocumentDidSave:   s.textDocumentDidSave,
	}

	s.server = server.NewServer(&s.handler, lsName, false)

	return s
}

func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Infof("initialized, ruby version %s", s.cfg.RubyVersion)
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.publish(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.publish(ctx, params.TextDocument.URI, textChange.Text)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		s.publish(ctx, params.TextDocument.URI, *params.Text)
		return nil
	}
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		log.Warningf("read %s: %v", path, err)
		return nil
	}
	s.publish(ctx, params.TextDocument.URI, string(content))
	return nil
}

func (s *Server) publish(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	path, err := uriToPath(uri)
	if err != nil {
		return
	}
	diagnostics := Diagnostics(path, text, s.cfg)
	log.Debugf("%s: %d diagnostics", path, len(diagnostics))
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// Diagnostics checks text, the content of the document at path, and
// returns one diagnostic per mismatch and unknown tag. Directive and parse
// errors become a single error diagnostic.
func Diagnostics(path, text string, cfg *config.Config) []protocol.Diagnostic {
	lines := strings.Split(text, "\n")
	diagnostics := []protocol.Diagnostic{}

	src, origin, err := preproc.ProcessLines(strings.NewReader(text), path, preproc.Params{"version": cfg.RubyVersion})
	if err != nil {
		line := 1
		var perr *preproc.Error
		if errors.As(err, &perr) {
			line = perr.Line
		}
		return append(diagnostics, diagnostic(lines, line, protocol.DiagnosticSeverityError, err.Error()))
	}

	c := &collector{lines: lines, origin: origin}
	opts := []rd.Option{rd.WithFile(path), rd.WithTags(cfg.Tags.Param, cfg.Tags.Quiet)}
	if cfg.Strict {
		opts = append(opts, rd.WithStrict())
	}
	if err := rd.Parse(src, c, opts...); err != nil {
		line := 1
		var he *rd.HeadlineError
		var me *rd.MetaInfoError
		switch {
		case errors.As(err, &he):
			line = c.sourceLine(he.Line)
		case errors.As(err, &me):
			line = c.sourceLine(me.Line)
		}
		c.diagnostics = append(c.diagnostics, diagnostic(lines, line, protocol.DiagnosticSeverityError, err.Error()))
	}
	return append(diagnostics, c.diagnostics...)
}

// collector gathers parser findings as diagnostics positioned in the
// unprocessed document.
type collector struct {
	lines       []string
	origin      []int
	diagnostics []protocol.Diagnostic
}

func (c *collector) Mismatch(m *check.Mismatch) error {
	var sigs []string
	for _, sig := range m.Signatures {
		sigs = append(sigs, sig.FriendlyString())
	}
	msg := fmt.Sprintf("parameters of %s do not match @param tags", strings.Join(sigs, " / "))
	if missing := m.Missing(); len(missing) > 0 {
		msg += fmt.Sprintf("; undocumented: %s", strings.Join(missing, ", "))
	}
	if extra := m.Extra(); len(extra) > 0 {
		msg += fmt.Sprintf("; not in signature: %s", strings.Join(extra, ", "))
	}
	c.diagnostics = append(c.diagnostics, diagnostic(c.lines, c.sourceLine(m.EntryLine), protocol.DiagnosticSeverityWarning, msg))
	return nil
}

func (c *collector) UnknownTag(line int, tag string) {
	c.diagnostics = append(c.diagnostics, diagnostic(c.lines, c.sourceLine(line), protocol.DiagnosticSeverityWarning, "unknown metadata tag "+tag))
}

func (c *collector) sourceLine(line int) int {
	if line >= 1 && line <= len(c.origin) {
		return c.origin[line-1]
	}
	return line
}

func diagnostic(lines []string, line int, severity protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	if line < 1 {
		line = 1
	}
	width := 0
	if line <= len(lines) {
		width = len(lines[line-1])
	}
	source := lsName
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(line - 1), Character: 0},
			End:   protocol.Position{Line: protocol.UInteger(line - 1), Character: protocol.UInteger(width)},
		},
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
