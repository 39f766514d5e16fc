// Package format renders parameter mismatch reports.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/checkparams/check"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(m *check.Mismatch) error
}

// New returns the encoder registered under name ("text" or "json").
func New(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "", "text":
		return NewTextEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", name)
	}
}

// Names lists the supported format names.
func Names() []string {
	return []string{"text", "json"}
}
