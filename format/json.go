package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/checkparams/check"
)

// JSONEncoder writes one JSON object per line.
type JSONEncoder struct {
	w        io.Writer
	mismatch *check.Mismatch
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(m *check.Mismatch) error {
	e.mismatch = m
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.Marshal(e.buildMismatchData())
}

type jsonMismatch struct {
	Line            int             `json:"line"`
	EntryLine       int             `json:"entryLine"`
	Signatures      []jsonSignature `json:"signatures"`
	SignatureParams []string        `json:"signatureParams"`
	TagParams       []string        `json:"tagParams"`
	Missing         []string        `json:"missing,omitempty"`
	Extra           []string        `json:"extra,omitempty"`
}

type jsonSignature struct {
	Display string `json:"display"`
	Name    string `json:"name,omitempty"`
	Params  string `json:"params,omitempty"`
	Valid   bool   `json:"valid"`
}

func (e *JSONEncoder) buildMismatchData() jsonMismatch {
	m := e.mismatch
	data := jsonMismatch{
		Line:            m.Line,
		EntryLine:       m.EntryLine,
		SignatureParams: nonNil(m.SignatureParams),
		TagParams:       nonNil(m.TagParams),
		Missing:         m.Missing(),
		Extra:           m.Extra(),
	}
	for _, sig := range m.Signatures {
		data.Signatures = append(data.Signatures, jsonSignature{
			Display: sig.FriendlyString(),
			Name:    sig.Name,
			Params:  sig.Params,
			Valid:   sig.Valid,
		})
	}
	return data
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
