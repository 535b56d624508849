// Package signal implements the entity that travels along a network, from its
// deepest node back to the root.
package signal

import (
	"math"
	"strconv"

	"github.com/mosaicnetworks/synapse/src/common"
	"github.com/mosaicnetworks/synapse/src/network"
	"github.com/mosaicnetworks/synapse/src/render"
)

// Drawing constants, in device pixels.
const (
	HeadRadius   = 2.5
	TracerRadius = 12.0
	TracerAlpha  = 0.35
	TrailLength  = 60.0
	TrailWidth   = 2.0
)

// epsilon absorbs the rounding of repeated float additions so that, for
// example, 50 steps of 0.02 complete a segment.
const epsilon = 1e-9

// Signal moves along the chain one segment at a time. Segment k joins node k+1
// (origin) to node k (destination); the signal starts on the last segment and
// finishes at the root.
type Signal struct {
	chain *network.Network

	segment  int
	progress float64

	color       render.Color
	speedScale  float64
	tracerScale float64
	step        float64
	alpha       float64

	finishing bool
	cycles    int
}

// New creates a Signal at the deepest node of chain. step is the progress made
// by every Update before speed scaling.
func New(chain *network.Network, color render.Color, speedScale, tracerScale, step float64) (*Signal, error) {
	if chain.Len() < network.MinSize {
		return nil, common.NewConfigErr("chain", common.DegenerateChain, strconv.Itoa(chain.Len()))
	}
	if !(speedScale > 0) {
		return nil, common.NewConfigErr("speed-scale", common.InvalidValue, strconv.FormatFloat(speedScale, 'f', -1, 64))
	}
	if !(tracerScale > 0) {
		return nil, common.NewConfigErr("tracer-scale", common.InvalidValue, strconv.FormatFloat(tracerScale, 'f', -1, 64))
	}
	if !(step > 0) {
		return nil, common.NewConfigErr("step", common.InvalidValue, strconv.FormatFloat(step, 'f', -1, 64))
	}

	return &Signal{
		chain:       chain,
		segment:     chain.Len() - 2,
		color:       color,
		speedScale:  speedScale,
		tracerScale: tracerScale,
		step:        step,
		alpha:       1,
	}, nil
}

// Segment returns the index of the current segment.
func (s *Signal) Segment() int {
	return s.segment
}

// Progress returns the position along the current segment, in [0,1].
func (s *Signal) Progress() float64 {
	return s.progress
}

// Finishing reports whether the signal has reached the root.
func (s *Signal) Finishing() bool {
	return s.finishing
}

// Cycles returns the number of updates that moved the signal.
func (s *Signal) Cycles() int {
	return s.cycles
}

// Advance moves the signal by speedScale x deltaFactor segments. Overflow is
// carried into the following segments. Exhausting segment 0 pins the signal at
// the root and starts finishing.
func (s *Signal) Advance(deltaFactor float64) {
	if s.finishing || deltaFactor <= 0 {
		return
	}

	s.progress += s.speedScale * deltaFactor

	for s.progress >= 1-epsilon {
		if s.segment == 0 {
			s.progress = 1
			s.finishing = true
			return
		}
		s.progress = math.Max(0, s.progress-1)
		s.segment--
	}
}

// Position returns the current location of the head.
func (s *Signal) Position() render.Point {
	return render.Lerp(s.chain.Position(s.segment+1), s.chain.Position(s.segment), s.progress)
}

// TracerRadius returns the current size of the tracer glow. It is constant
// until the last segment, across which it shrinks linearly to zero.
func (s *Signal) TracerRadius() float64 {
	shrink := 1.0
	if s.segment == 0 {
		shrink = 1 - s.progress
	}
	return math.Max(0, TracerRadius*s.tracerScale*shrink)
}

// IsActive implements render.Entity: the signal is active while it travels and
// while its tracer is still visible.
func (s *Signal) IsActive() bool {
	return !s.finishing || s.TracerRadius() > 0
}

// Update implements render.Entity.
func (s *Signal) Update() {
	if !s.IsActive() {
		return
	}
	s.cycles++
	s.Advance(s.step)
}

// SetAlpha implements render.Entity.
func (s *Signal) SetAlpha(alpha float64) {
	s.alpha = render.Clamp01(alpha)
}

// Render implements render.Entity. An inactive signal draws nothing.
func (s *Signal) Render(surface render.Surface) {
	if !s.IsActive() {
		return
	}

	head := s.Position()
	origin := s.chain.Position(s.segment + 1)

	travelled := render.Distance(origin, head)
	if maxTrail := TrailLength * s.tracerScale; travelled > maxTrail {
		origin = render.Lerp(head, origin, maxTrail/travelled)
	}

	surface.Line(origin, head, TrailWidth*s.tracerScale, s.color, s.alpha*TracerAlpha)
	surface.Circle(head, s.TracerRadius(), s.color, s.alpha*TracerAlpha)
	surface.Circle(head, HeadRadius, s.color, s.alpha)
}
