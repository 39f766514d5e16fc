package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dhamidi/checkparams/config"
	"github.com/dhamidi/checkparams/format"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	clean := writeFile(t, dir, "clean.rd", "--- foo(a, b)\n@param a\n@param b\n")
	missing := writeFile(t, dir, "missing.rd", "--- foo(a, b)\n@param a\n")
	unknown := writeFile(t, dir, "unknown.rd", "--- foo(a)\n@param a\n@frob x\n")
	versioned := writeFile(t, dir, "versioned.rd", "#@since 2.0.0\n--- foo(a, b)\n#@else\n--- foo(a)\n#@end\n@param a\n")
	headline := writeFile(t, dir, "headline.rd", "--- foo(a)\n@param a\n== Heading\n")
	badDirective := writeFile(t, dir, "bad.rd", "#@frobnicate\n")
	rubyConfig := writeFile(t, dir, "ruby.toml", "ruby_version = \"2.0.0\"\n")
	longLine := writeFile(t, dir, "long.rd", "--- foo(a)\n"+strings.Repeat("x", 2<<20)+"\n@param a\n")

	report := "2:\nfoo(a, b)\nsignature: a, b\n@params: a\n" + format.Separator + "\n"

	tests := []struct {
		name       string
		args       []string
		code       int
		stdout     string
		stderrHas  string
		stderrNone bool
	}{
		{name: "clean", args: []string{clean}, code: 0, stderrNone: true},
		{name: "mismatch", args: []string{missing}, code: 0, stdout: report, stderrNone: true},
		{name: "mismatch with fail", args: []string{"--fail", missing}, code: 2, stdout: report},
		{name: "clean with fail", args: []string{"--fail", clean}, code: 0},
		{name: "unknown tag", args: []string{unknown}, code: 0, stderrHas: "[UNKNOWN_META_INFO] @frob\n"},
		{name: "old ruby", args: []string{"--ruby=1.9.1", versioned}, code: 0},
		{name: "bare ruby", args: []string{"--ruby", versioned}, code: 0},
		{name: "bare ruby overrides config", args: []string{"--config", rubyConfig, "--ruby", versioned}, code: 0},
		{name: "config ruby", args: []string{"--config", rubyConfig, versioned}, code: 0, stdout: "2:\nfoo(a, b)\nsignature: a, b\n@params: a\n" + format.Separator + "\n"},
		{name: "long line", args: []string{longLine}, code: 0, stderrNone: true},
		{name: "new ruby", args: []string{"--ruby=2.0.0", versioned}, code: 0, stdout: "2:\nfoo(a, b)\nsignature: a, b\n@params: a\n" + format.Separator + "\n"},
		{name: "lenient headline", args: []string{headline}, code: 0},
		{name: "strict headline", args: []string{"--strict", headline}, code: 1, stderrHas: "method entry includes headline"},
		{name: "no arguments", args: nil, code: 1, stderrHas: "wrong number of arguments"},
		{name: "too many arguments", args: []string{clean, missing}, code: 1, stderrHas: "Usage:"},
		{name: "bad flag", args: []string{"--nope", clean}, code: 1, stderrHas: "unknown flag: --nope"},
		{name: "bad format", args: []string{"--format=xml", clean}, code: 1, stderrHas: "unknown format"},
		{name: "missing file", args: []string{filepath.Join(dir, "absent.rd")}, code: 1, stderrHas: "absent.rd"},
		{name: "bad directive", args: []string{badDirective}, code: 1, stderrHas: "unknown directive #@frobnicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := execute(tt.args...)
			if code != tt.code {
				t.Errorf("exit code = %d, want %d (stderr %q)", code, tt.code, stderr)
			}
			if stdout != tt.stdout {
				t.Errorf("stdout = %q, want %q", stdout, tt.stdout)
			}
			if tt.stderrHas != "" && !strings.Contains(stderr, tt.stderrHas) {
				t.Errorf("stderr = %q, want containing %q", stderr, tt.stderrHas)
			}
			if tt.stderrNone && stderr != "" {
				t.Errorf("stderr = %q, want empty", stderr)
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	code, stdout, _ := execute("--help")
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "checkparams [--ruby=VERSION] <filename>") {
		t.Errorf("help output missing usage line:\n%s", stdout)
	}
}

func TestRunJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.rd", "--- foo(a, b)\n@param a\n\n--- bar(x)\n@param y\n")

	code, stdout, _ := execute("--format", "json", path)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d JSON lines, want 2:\n%s", len(lines), stdout)
	}
	var first struct {
		EntryLine int      `json:"entryLine"`
		Missing   []string `json:"missing"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.EntryLine != 1 || len(first.Missing) != 1 || first.Missing[0] != "b" {
		t.Errorf("got %+v, want entry line 1 missing [b]", first)
	}
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "doc.rd", "--- foo(a, b)\n@param a\n@yieldparam b\n")
	cfgPath := writeFile(t, dir, "checkparams.toml", `
format = "json"

[tags]
param = ["@param", "@yieldparam"]
`)

	code, stdout, stderr := execute("--config", cfgPath, doc)
	if code != 0 || stdout != "" || stderr != "" {
		t.Errorf("got code %d stdout %q stderr %q, want a clean run", code, stdout, stderr)
	}

	// --format on the command line wins over the file.
	writeFile(t, dir, "doc.rd", "--- foo(a, b)\n@param a\n")
	code, stdout, _ = execute("--config", cfgPath, "--format", "text", doc)
	if code != 0 || !strings.HasPrefix(stdout, "2:\n") {
		t.Errorf("got code %d stdout %q, want a text report", code, stdout)
	}

	bad := writeFile(t, dir, "bad.toml", "colour = \"red\"\n")
	if code, _, stderr := execute("--config", bad, doc); code != 1 || !strings.Contains(stderr, "unknown config key") {
		t.Errorf("got code %d stderr %q, want config error", code, stderr)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, b *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(b.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, got %q", want, b.String())
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "doc.rd", "--- foo(a)\n@param a\n#@include(part.rd)\n")
	writeFile(t, dir, "part.rd", "")

	cfg := config.Default()
	cfg.Watch.Debounce.Duration = 20 * time.Millisecond

	var stdout, stderr syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, doc, cfg, &stdout, &stderr)
	}()

	// Give the watcher time to register before changing the include.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "part.rd", "\n--- bar(x, y)\n@param x\n")
	waitFor(t, &stdout, "bar(x, y)")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
