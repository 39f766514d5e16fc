package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.RubyVersion != "1.9.1" {
		t.Errorf("RubyVersion = %q, want 1.9.1", c.RubyVersion)
	}
	if c.Format != "text" {
		t.Errorf("Format = %q, want text", c.Format)
	}
	if !slices.Equal(c.Tags.Param, []string{"@param", "@arg"}) {
		t.Errorf("Tags.Param = %q", c.Tags.Param)
	}
	if c.Watch.Debounce.Duration != 250*time.Millisecond {
		t.Errorf("Debounce = %v, want 250ms", c.Watch.Debounce)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkparams.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
ruby_version = "2.0.0"
strict = true
format = "json"

[tags]
param = ["@param", "@arg", "@yieldparam"]

[watch]
debounce = "1s"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.RubyVersion != "2.0.0" || !c.Strict || c.Format != "json" {
		t.Errorf("got %+v", c)
	}
	if len(c.Tags.Param) != 3 {
		t.Errorf("Tags.Param = %q", c.Tags.Param)
	}
	if !slices.Equal(c.Tags.Quiet, []string{"@raise", "@return", "@todo"}) {
		t.Errorf("Tags.Quiet = %q, want defaults", c.Tags.Quiet)
	}
	if c.Watch.Debounce.Duration != time.Second {
		t.Errorf("Debounce = %v, want 1s", c.Watch.Debounce)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "ruby_version = ", "failed to parse config"},
		{"unknown key", "colour = \"red\"\n", "unknown config key"},
		{"bad format", "format = \"xml\"\n", "unknown format"},
		{"empty param tags", "[tags]\nparam = []\n", "must not be empty"},
		{"bad tag", "[tags]\nquiet = [\"return\"]\n", "invalid tag"},
		{"bad duration", "[watch]\ndebounce = \"soon\"\n", "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing explicit config")
	}

	wd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if c.RubyVersion != "1.9.1" {
		t.Errorf("RubyVersion = %q, want default", c.RubyVersion)
	}
}
