// Package check compares the parameters a method entry declares in its
// signatures with the ones it documents through @param tags.
package check

import (
	"regexp"
	"strings"

	"github.com/dhamidi/checkparams/signature"
)

var (
	defaultRE = regexp.MustCompile(`=.*`)
	labelRE   = regexp.MustCompile(`.*:`)
)

// Mismatch describes an entry whose two parameter sets differ.
type Mismatch struct {
	// Line is the number of the last line read when the entry ended.
	Line int
	// EntryLine is the line of the entry's first signature.
	EntryLine       int
	Signatures      []*signature.Signature
	SignatureParams []string
	TagParams       []string
}

// Missing returns signature parameters that have no tag.
func (m *Mismatch) Missing() []string {
	return difference(m.SignatureParams, m.TagParams)
}

// Extra returns tag parameters that no signature declares.
func (m *Mismatch) Extra() []string {
	return difference(m.TagParams, m.SignatureParams)
}

// Normalize reduces one element of a signature's parameter list to the
// bare parameter name: "*args" -> "args", "n = 1" -> "n", "key: v" -> "v".
func Normalize(param string) string {
	param = strings.NewReplacer("*", "", "&", "").Replace(param)
	param = defaultRE.ReplaceAllString(param, "")
	param = labelRE.ReplaceAllString(param, "")
	return strings.TrimSpace(param)
}

// SignatureParams collects the normalized parameter names of all
// signatures, in first-seen order without duplicates. Signatures without a
// parameter list, or with a blank one, contribute nothing. Empty pieces
// of a non-blank list, as in "a, ", are kept as "" so the entry is
// reported.
func SignatureParams(sigs []*signature.Signature) []string {
	var names []string
	for _, sig := range sigs {
		if !sig.HasParams || strings.TrimSpace(sig.Params) == "" {
			continue
		}
		for _, p := range strings.Split(sig.Params, ",") {
			names = append(names, Normalize(p))
		}
	}
	return unique(names)
}

// Entry compares an entry's signatures with the parameter names found in
// its tags. It returns nil when both sets are equal.
func Entry(line, entryLine int, sigs []*signature.Signature, tagParams []string) *Mismatch {
	sigParams := SignatureParams(sigs)
	tagParams = unique(tagParams)
	if sameSet(sigParams, tagParams) {
		return nil
	}
	return &Mismatch{
		Line:            line,
		EntryLine:       entryLine,
		Signatures:      sigs,
		SignatureParams: sigParams,
		TagParams:       tagParams,
	}
}

func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	return len(difference(a, b)) == 0
}

func difference(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, n := range b {
		in[n] = true
	}
	var out []string
	for _, n := range a {
		if !in[n] {
			out = append(out, n)
		}
	}
	return out
}
