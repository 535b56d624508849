package network

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/mosaicnetworks/synapse/src/common"
	"github.com/mosaicnetworks/synapse/src/render"
)

// Drawing constants, in device pixels.
const (
	NodeRadius  = 3.0
	LinkWidth   = 1.0
	LinkAlpha   = 0.6
	MarginRatio = 0.05
)

// MinSize is the smallest network a signal can traverse.
const MinSize = 2

// Network is an arena of nodes forming a single chain. Node 0 is the root and
// node i links to node i-1, so the last node is the deepest one.
type Network struct {
	nodes []*Node
}

// CreateNetwork places size nodes at random inside a width x height surface,
// linking each node to the one created just before it.
func CreateNetwork(size int, color render.Color, width, height float64, rng *rand.Rand) (*Network, error) {
	if size < MinSize {
		return nil, common.NewConfigErr("nodes", common.InvalidValue, strconv.Itoa(size))
	}

	positions := make([]render.Point, size)
	for i := range positions {
		positions[i] = randomPoint(width, height, rng)
	}

	return NewNetwork(positions, color), nil
}

// NewNetwork builds a chain through the given positions, the first one being
// the root. It does not enforce MinSize.
func NewNetwork(positions []render.Point, color render.Color) *Network {
	n := &Network{
		nodes: make([]*Node, 0, len(positions)),
	}

	for i, p := range positions {
		node := NewNode(i, i-1, p, color)
		node.chain = n
		n.nodes = append(n.nodes, node)
	}

	return n
}

func randomPoint(width, height float64, rng *rand.Rand) render.Point {
	mx := width * MarginRatio
	my := height * MarginRatio
	return render.Point{
		X: mx + rng.Float64()*(width-2*mx),
		Y: my + rng.Float64()*(height-2*my),
	}
}

// Len returns the number of nodes.
func (n *Network) Len() int {
	if n == nil {
		return 0
	}
	return len(n.nodes)
}

// Node returns the node at index i, or nil.
func (n *Network) Node(i int) *Node {
	if n == nil || i < 0 || i >= len(n.nodes) {
		return nil
	}
	return n.nodes[i]
}

// Position returns the position of node i.
func (n *Network) Position(i int) render.Point {
	return n.nodes[i].position
}

// Positions returns the positions of all the nodes in arena order.
func (n *Network) Positions() []render.Point {
	res := make([]render.Point, len(n.nodes))
	for i, node := range n.nodes {
		res[i] = node.position
	}
	return res
}

// Root returns the index of the node without predecessor.
func (n *Network) Root() int {
	for i, node := range n.nodes {
		if node.IsRoot() {
			return i
		}
	}
	return NoPredecessor
}

// Entities returns the nodes as layer entities.
func (n *Network) Entities() []render.Entity {
	res := make([]render.Entity, len(n.nodes))
	for i, node := range n.nodes {
		res[i] = node
	}
	return res
}

// Validate checks that the arena forms exactly one simple chain: one root, and
// following predecessors from any node reaches the root without revisiting a
// node.
func (n *Network) Validate() error {
	if n.Len() < MinSize {
		return common.NewConfigErr("chain", common.DegenerateChain, strconv.Itoa(n.Len()))
	}

	roots := 0
	successors := make(map[int]int)
	for i, node := range n.nodes {
		if node.id != i {
			return fmt.Errorf("node %d has id %d", i, node.id)
		}
		if node.IsRoot() {
			roots++
			continue
		}
		if node.predecessor < 0 || node.predecessor >= len(n.nodes) {
			return fmt.Errorf("node %d has unknown predecessor %d", i, node.predecessor)
		}
		successors[node.predecessor]++
		if successors[node.predecessor] > 1 {
			return fmt.Errorf("node %d has more than one successor", node.predecessor)
		}
	}
	if roots != 1 {
		return fmt.Errorf("chain has %d roots", roots)
	}

	for i := range n.nodes {
		seen := make(map[int]bool)
		for j := i; j != NoPredecessor; j = n.nodes[j].predecessor {
			if seen[j] {
				return fmt.Errorf("cycle through node %d", j)
			}
			seen[j] = true
		}
	}

	return nil
}
