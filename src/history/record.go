package history

import (
	"bytes"
	"time"

	"github.com/mosaicnetworks/synapse/src/render"
	"github.com/ugorji/go/codec"
)

// Record describes one network generation.
type Record struct {
	Generation  int            `json:"generation"`
	Positions   []render.Point `json:"positions"`
	Color       render.Color   `json:"color"`
	SpeedScale  float64        `json:"speed_scale"`
	TracerScale float64        `json:"tracer_scale"`
	Cycles      int            `json:"cycles"`
	Started     time.Time      `json:"started"`
	Finished    time.Time      `json:"finished"`
}

// Nodes returns the size of the network.
func (r *Record) Nodes() int {
	return len(r.Positions)
}

// Duration returns how long the generation lasted, fades included.
func (r *Record) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Marshal - json encoding of Record
func (r *Record) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(r); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal ...
func (r *Record) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(r)
}
