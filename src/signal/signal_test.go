package signal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mosaicnetworks/synapse/src/common"
	"github.com/mosaicnetworks/synapse/src/network"
	"github.com/mosaicnetworks/synapse/src/render"
)

const testStep = 0.02

func line(n int) *network.Network {
	positions := make([]render.Point, n)
	for i := range positions {
		positions[i] = render.Point{X: float64(100 * i), Y: 0}
	}
	return network.NewNetwork(positions, render.Color{G: 1})
}

func newSignal(t *testing.T, chain *network.Network, speed float64) *Signal {
	s, err := New(chain, render.Color{G: 1}, speed, 1, testStep)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// runToCompletion updates s until it becomes inactive and returns the number
// of updates it took.
func runToCompletion(t *testing.T, s *Signal) int {
	ticks := 0
	for s.IsActive() {
		s.Update()
		ticks++
		if ticks > 100000 {
			t.Fatalf("signal never completed")
		}
	}
	return ticks
}

func expectedTicks(segments int, speed float64) int {
	return int(math.Ceil(float64(segments)/(speed*testStep) - epsilon))
}

func TestNewRejectsDegenerateChains(t *testing.T) {
	for _, chain := range []*network.Network{nil, line(0), line(1)} {
		_, err := New(chain, render.Color{}, 1, 1, testStep)
		if !common.IsConfig(err, common.DegenerateChain) {
			t.Fatalf("chain of %d nodes should be degenerate, got %v", chain.Len(), err)
		}
		if !common.IsConfigurationError(err) {
			t.Fatalf("a degenerate chain is a configuration error")
		}
	}
}

func TestNewRejectsInvalidScales(t *testing.T) {
	chain := line(3)
	cases := [][3]float64{
		{0, 1, testStep},
		{-1, 1, testStep},
		{1, 0, testStep},
		{1, 1, 0},
		{math.NaN(), 1, testStep},
	}
	for _, c := range cases {
		_, err := New(chain, render.Color{}, c[0], c[1], c[2])
		if !common.IsConfig(err, common.InvalidValue) {
			t.Fatalf("%v should be rejected with InvalidValue, got %v", c, err)
		}
	}
}

func TestTwoNodeChainCompletesOnce(t *testing.T) {
	s := newSignal(t, line(2), 1)

	if s.Segment() != 0 {
		t.Fatalf("a 2-node chain has a single segment, got segment %d", s.Segment())
	}

	T := expectedTicks(1, 1)
	for i := 1; i < T; i++ {
		s.Update()
		if !s.IsActive() {
			t.Fatalf("signal should still be active after %d of %d ticks", i, T)
		}
	}

	s.Update()
	if s.IsActive() {
		t.Fatalf("signal should be inactive after exactly %d ticks", T)
	}
	if !s.Finishing() || s.Segment() != 0 || s.Progress() != 1 {
		t.Fatalf("signal should rest at the root: segment %d progress %f", s.Segment(), s.Progress())
	}
	if s.Position() != (render.Point{X: 0, Y: 0}) {
		t.Fatalf("signal should rest on the root, not %v", s.Position())
	}

	// further updates are inert
	s.Update()
	s.Advance(10)
	if s.Cycles() != T || s.Segment() != 0 || s.IsActive() {
		t.Fatalf("inactive signal should not move")
	}
}

func TestSpeedScaleHalvesTicks(t *testing.T) {
	for _, size := range []int{2, 5, 9} {
		slow := runToCompletion(t, newSignal(t, line(size), 1))
		fast := runToCompletion(t, newSignal(t, line(size), 2))

		if slow != expectedTicks(size-1, 1) {
			t.Fatalf("size %d: speed 1 took %d ticks, expected %d", size, slow, expectedTicks(size-1, 1))
		}
		if d := slow - 2*fast; d < -1 || d > 1 {
			t.Fatalf("size %d: speed 2 took %d ticks, speed 1 took %d", size, fast, slow)
		}
	}
}

func TestSegmentsStrictlyDecrease(t *testing.T) {
	size := 6
	s, err := New(line(size), render.Color{}, 1.3, 1, testStep)
	if err != nil {
		t.Fatal(err)
	}

	if s.Segment() != size-2 || s.Progress() != 0 {
		t.Fatalf("signal should start on segment %d at 0", size-2)
	}

	visited := map[int]bool{s.Segment(): true}
	lastSegment, lastProgress := s.Segment(), s.Progress()

	for s.IsActive() {
		s.Update()
		switch {
		case s.Segment() == lastSegment:
			if s.Progress() < lastProgress {
				t.Fatalf("progress went back on segment %d: %f < %f", lastSegment, s.Progress(), lastProgress)
			}
		case s.Segment() == lastSegment-1:
			if s.Progress() >= lastProgress {
				t.Fatalf("progress should restart on a new segment")
			}
			if visited[s.Segment()] {
				t.Fatalf("segment %d visited twice", s.Segment())
			}
			visited[s.Segment()] = true
		default:
			t.Fatalf("segment jumped from %d to %d", lastSegment, s.Segment())
		}
		if s.Progress() < 0 || s.Progress() > 1 {
			t.Fatalf("progress out of range: %f", s.Progress())
		}
		lastSegment, lastProgress = s.Segment(), s.Progress()
	}

	if len(visited) != size-1 {
		t.Fatalf("signal should visit %d segments, visited %d", size-1, len(visited))
	}
}

func TestAdvanceCarriesOverflow(t *testing.T) {
	s := newSignal(t, line(5), 1)

	s.Advance(0.75)
	s.Advance(0.5)
	if s.Segment() != 2 || math.Abs(s.Progress()-0.25) > 1e-12 {
		t.Fatalf("expected segment 2 at 0.25, got %d at %f", s.Segment(), s.Progress())
	}

	s.Advance(2.5)
	if s.Segment() != 0 || math.Abs(s.Progress()-0.75) > 1e-12 {
		t.Fatalf("expected segment 0 at 0.75, got %d at %f", s.Segment(), s.Progress())
	}

	s.Advance(10)
	if !s.Finishing() || s.IsActive() {
		t.Fatalf("signal should have finished")
	}
}

func TestLinearInterpolation(t *testing.T) {
	s := newSignal(t, line(3), 1)

	// segment 1 runs from node 2 (x=200) to node 1 (x=100)
	s.Advance(0.25)
	if p := s.Position(); math.Abs(p.X-175) > 1e-9 || p.Y != 0 {
		t.Fatalf("expected (175,0), got %v", p)
	}
}

func TestTracerShrinksToZero(t *testing.T) {
	s, err := New(line(3), render.Color{}, 1, 2, testStep)
	if err != nil {
		t.Fatal(err)
	}

	full := TracerRadius * 2
	if s.TracerRadius() != full {
		t.Fatalf("tracer should be %f before the last segment, not %f", full, s.TracerRadius())
	}

	s.Advance(1) // onto the last segment
	last := s.TracerRadius()
	for s.IsActive() {
		s.Update()
		r := s.TracerRadius()
		if r > last {
			t.Fatalf("tracer grew on the last segment: %f > %f", r, last)
		}
		last = r
	}
	if s.TracerRadius() != 0 {
		t.Fatalf("tracer should reach zero at completion, not %f", s.TracerRadius())
	}
}

func TestRender(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	chain, err := network.CreateNetwork(4, render.Color{}, 300, 300, rng)
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(chain, render.Color{R: 1}, 1, 1, testStep)
	if err != nil {
		t.Fatal(err)
	}

	canvas := render.NewCanvas(300, 300)
	s.SetAlpha(0.5)
	s.Update()
	s.Render(canvas)

	frame := canvas.Snapshot("signal", 1)
	if len(frame.Ops) != 3 {
		t.Fatalf("expected trail, tracer and head, got %d ops", len(frame.Ops))
	}
	head := frame.Ops[2]
	if head.Kind != render.OpCircle || head.From != s.Position() || head.Alpha != 0.5 {
		t.Fatalf("unexpected head op %+v", head)
	}

	for s.IsActive() {
		s.Update()
	}
	canvas.Clear()
	s.Render(canvas)
	if canvas.Len() != 0 {
		t.Fatalf("inactive signal should not draw")
	}
}
