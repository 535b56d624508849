package network

import (
	"math/rand"
	"testing"

	"github.com/mosaicnetworks/synapse/src/common"
	"github.com/mosaicnetworks/synapse/src/render"
)

func TestCreateNetwork(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	color := render.Color{R: 0.2, G: 0.4, B: 0.6}

	for size := MinSize; size <= 40; size++ {
		n, err := CreateNetwork(size, color, 800, 600, rng)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}

		if n.Len() != size {
			t.Fatalf("network should have %d nodes, not %d", size, n.Len())
		}

		if err := n.Validate(); err != nil {
			t.Fatalf("size %d: %v", size, err)
		}

		if r := n.Root(); r != 0 {
			t.Fatalf("root should be node 0, not %d", r)
		}

		roots := 0
		for i := 0; i < n.Len(); i++ {
			node := n.Node(i)
			if node.IsRoot() {
				roots++
			} else if node.Predecessor() != i-1 {
				t.Fatalf("node %d should link to %d, not %d", i, i-1, node.Predecessor())
			}
			if node.Color() != color {
				t.Fatalf("node %d has color %v", i, node.Color())
			}
			p := node.Position()
			if p.X < 0 || p.X > 800 || p.Y < 0 || p.Y > 600 {
				t.Fatalf("node %d is off surface: %v", i, p)
			}
		}
		if roots != 1 {
			t.Fatalf("network should have exactly one root, not %d", roots)
		}
	}
}

func TestCreateNetworkTooSmall(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, size := range []int{-1, 0, 1} {
		_, err := CreateNetwork(size, render.Color{}, 100, 100, rng)
		if !common.IsConfig(err, common.InvalidValue) {
			t.Fatalf("size %d should be rejected with InvalidValue, got %v", size, err)
		}
	}
}

func TestValidateRejectsBrokenChains(t *testing.T) {
	two := func() *Network {
		n, _ := CreateNetwork(3, render.Color{}, 100, 100, rand.New(rand.NewSource(1)))
		return n
	}

	n := two()
	n.nodes[0].predecessor = 2
	if err := n.Validate(); err == nil {
		t.Fatalf("a chain without root should be rejected")
	}

	n = two()
	n.nodes[2].predecessor = NoPredecessor
	if err := n.Validate(); err == nil {
		t.Fatalf("a chain with two roots should be rejected")
	}

	n = two()
	n.nodes[2].predecessor = 0
	if err := n.Validate(); err == nil {
		t.Fatalf("a fork should be rejected")
	}

	var empty *Network
	if err := empty.Validate(); !common.IsConfig(err, common.DegenerateChain) {
		t.Fatalf("an empty chain should be degenerate, got %v", err)
	}
}

func TestNodeRender(t *testing.T) {
	n, _ := CreateNetwork(2, render.Color{B: 1}, 100, 100, rand.New(rand.NewSource(3)))
	canvas := render.NewCanvas(100, 100)

	for _, e := range n.Entities() {
		if !e.IsActive() {
			t.Fatalf("nodes should always be active")
		}
		e.SetAlpha(0.5)
		e.Update()
		e.Render(canvas)
	}

	frame := canvas.Snapshot("network", 0.5)
	// root: one circle; second node: one line and one circle
	if len(frame.Ops) != 3 {
		t.Fatalf("expected 3 ops, got %d", len(frame.Ops))
	}
	if frame.Ops[1].Kind != render.OpLine {
		t.Fatalf("second op should be the link, not %s", frame.Ops[1].Kind)
	}
	if frame.Ops[1].To != n.Position(0) || frame.Ops[1].From != n.Position(1) {
		t.Fatalf("link should join node 1 to node 0")
	}
	if frame.Ops[2].Alpha != 0.5 {
		t.Fatalf("node alpha should follow the layer, got %f", frame.Ops[2].Alpha)
	}

	n.Node(0).SetAlpha(3)
	if n.Node(0).Alpha() != 1 {
		t.Fatalf("alpha should be clamped")
	}
}
