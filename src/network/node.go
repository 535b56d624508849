package network

import (
	"github.com/mosaicnetworks/synapse/src/render"
)

// NoPredecessor marks the root of a chain.
const NoPredecessor = -1

// Node is a fixed point of the network. Nodes live in the arena of a Network
// and refer to their predecessor by index.
type Node struct {
	id          int
	position    render.Point
	color       render.Color
	predecessor int
	alpha       float64

	chain *Network
}

// NewNode creates a node. Position, color and predecessor do not change after
// construction.
func NewNode(id int, predecessor int, position render.Point, color render.Color) *Node {
	return &Node{
		id:          id,
		position:    position,
		color:       color,
		predecessor: predecessor,
		alpha:       1,
	}
}

// ID ...
func (n *Node) ID() int {
	return n.id
}

// Position ...
func (n *Node) Position() render.Point {
	return n.position
}

// Color ...
func (n *Node) Color() render.Color {
	return n.color
}

// Predecessor returns the index of the predecessor, or NoPredecessor.
func (n *Node) Predecessor() int {
	return n.predecessor
}

// IsRoot ...
func (n *Node) IsRoot() bool {
	return n.predecessor == NoPredecessor
}

// Alpha returns the opacity last set by the owning layer.
func (n *Node) Alpha() float64 {
	return n.alpha
}

// IsActive implements render.Entity. Nodes never expire.
func (n *Node) IsActive() bool {
	return true
}

// Update implements render.Entity. Nodes do not move.
func (n *Node) Update() {}

// SetAlpha implements render.Entity.
func (n *Node) SetAlpha(alpha float64) {
	n.alpha = render.Clamp01(alpha)
}

// Render implements render.Entity. It draws the node and the link to its
// predecessor.
func (n *Node) Render(s render.Surface) {
	if !n.IsRoot() && n.chain != nil {
		if pred := n.chain.Node(n.predecessor); pred != nil {
			s.Line(n.position, pred.position, LinkWidth, n.color, n.alpha*LinkAlpha)
		}
	}
	s.Circle(n.position, NodeRadius, n.color, n.alpha)
}
