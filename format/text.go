package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/checkparams/check"
)

// Separator ends every text report.
var Separator = strings.Repeat("-", 72)

// TextEncoder writes the plain text report:
//
//	12:
//	foo(a, b)
//	signature: a, b
//	@params: a
//	------------------------------------------------------------------------
type TextEncoder struct {
	w        io.Writer
	mismatch *check.Mismatch
}

func NewTextEncoder(w io.Writer) *TextEncoder {
	return &TextEncoder{w: w}
}

func (e *TextEncoder) Encode(m *check.Mismatch) error {
	e.mismatch = m
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TextEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	m := e.mismatch

	fmt.Fprintf(&sb, "%d:\n", m.Line)
	for _, sig := range m.Signatures {
		fmt.Fprintln(&sb, sig.FriendlyString())
		fmt.Fprintf(&sb, "signature: %s\n", sig.Params)
	}
	fmt.Fprintf(&sb, "@params: %s\n", strings.Join(m.TagParams, ", "))
	fmt.Fprintln(&sb, Separator)

	return []byte(sb.String()), nil
}
