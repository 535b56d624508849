package render

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// Op kinds.
const (
	OpCircle = "circle"
	OpLine   = "line"
)

// Op is a single recorded drawing call.
type Op struct {
	Kind   string  `json:"kind"`
	From   Point   `json:"from"`
	To     Point   `json:"to,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Color  Color   `json:"color"`
	Alpha  float64 `json:"alpha"`
}

// Frame is the display list of a layer at a point in time.
type Frame struct {
	Layer  string  `json:"layer"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Alpha  float64 `json:"alpha"`
	Ops    []Op    `json:"ops"`
}

// Marshal - json encoding of Frame
func (f *Frame) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(f); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal ...
func (f *Frame) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(f)
}
