package check

import (
	"slices"
	"testing"

	"github.com/dhamidi/checkparams/signature"
)

func parseAll(lines ...string) []*signature.Signature {
	var sigs []*signature.Signature
	for _, l := range lines {
		sigs = append(sigs, signature.Parse(l))
	}
	return sigs
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a", "a"},
		{" b ", "b"},
		{"*args", "args"},
		{"&block", "block"},
		{"**opts", "opts"},
		{"n = 1", "n"},
		{"mode=\"r\"", "mode"},
		{"key: val", "val"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSignatureParams(t *testing.T) {
	sigs := parseAll(
		"--- foo(a, b = 2)",
		"--- foo(a, *rest, &blk)",
		"--- foo -> nil",
		"--- foo()",
	)
	got := SignatureParams(sigs)
	want := []string{"a", "b", "rest", "blk"}
	if !slices.Equal(got, want) {
		t.Errorf("SignatureParams = %q, want %q", got, want)
	}
}

func TestSignatureParamsKeepsEmptyPiece(t *testing.T) {
	got := SignatureParams(parseAll("--- foo(a, )"))
	if want := []string{"a", ""}; !slices.Equal(got, want) {
		t.Errorf("SignatureParams = %q, want %q", got, want)
	}
}

func TestEntry(t *testing.T) {
	tests := []struct {
		name     string
		sigs     []string
		tags     []string
		mismatch bool
	}{
		{"equal", []string{"--- foo(a, b)"}, []string{"a", "b"}, false},
		{"order irrelevant", []string{"--- foo(a, b)"}, []string{"b", "a"}, false},
		{"duplicate tags", []string{"--- foo(a)"}, []string{"a", "a"}, false},
		{"missing tag", []string{"--- foo(a, b)"}, []string{"a"}, true},
		{"extra tag", []string{"--- foo(a)"}, []string{"a", "b"}, true},
		{"sigils", []string{"--- foo(*args, &blk)"}, []string{"args", "blk"}, false},
		{"no params", []string{"--- foo -> nil"}, nil, false},
		{"union of forms", []string{"--- foo(a)", "--- foo(a, b)"}, []string{"a", "b"}, false},
		{"tag without signature params", []string{"--- foo"}, []string{"x"}, true},
		{"empty parens", []string{"--- foo()"}, nil, false},
		{"trailing comma", []string{"--- foo(a, )"}, []string{"a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Entry(10, 1, parseAll(tt.sigs...), tt.tags)
			if got := m != nil; got != tt.mismatch {
				t.Fatalf("mismatch = %v, want %v", got, tt.mismatch)
			}
			if m != nil && m.Line != 10 {
				t.Errorf("Line = %d, want 10", m.Line)
			}
		})
	}
}

func TestMismatchMissingExtra(t *testing.T) {
	m := Entry(3, 1, parseAll("--- foo(a, b)"), []string{"a", "c"})
	if m == nil {
		t.Fatal("expected mismatch")
	}
	if got := m.Missing(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Missing = %q, want [b]", got)
	}
	if got := m.Extra(); !slices.Equal(got, []string{"c"}) {
		t.Errorf("Extra = %q, want [c]", got)
	}
}
