package rd

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpectedHeadline is returned in strict mode when a headline appears
// inside a method entry.
var ErrUnexpectedHeadline = errors.New("method entry includes headline")

type HeadlineError struct {
	Line int
	Text string
}

func (e *HeadlineError) Error() string {
	return fmt.Sprintf("%d: %v: %q", e.Line, ErrUnexpectedHeadline, e.Text)
}

func (e *HeadlineError) Unwrap() error {
	return ErrUnexpectedHeadline
}

// MetaInfoError carries the context of a failure while reading a tag
// block: where it happened, the entry's last signature and the
// parameters collected so far.
type MetaInfoError struct {
	Line            int
	Signature       string
	SignatureParams string
	Params          []string
	Err             error
}

func (e *MetaInfoError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d: %s: %v\n", e.Line, e.Signature, e.Err)
	fmt.Fprintf(&sb, "params: %q\n", e.Params)
	fmt.Fprintf(&sb, "signature: %q", e.SignatureParams)
	return sb.String()
}

func (e *MetaInfoError) Unwrap() error {
	return e.Err
}
