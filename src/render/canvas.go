package render

import "sync"

// Canvas is a Surface which records drawing calls instead of rasterizing them.
type Canvas struct {
	mu     sync.Mutex
	width  float64
	height float64
	ops    []Op
}

// NewCanvas returns an empty Canvas of the given size.
func NewCanvas(width, height float64) *Canvas {
	return &Canvas{
		width:  width,
		height: height,
	}
}

// Size implements Surface.
func (c *Canvas) Size() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Resize implements Surface.
func (c *Canvas) Resize(width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
	c.height = height
	c.ops = nil
}

// Clear implements Surface.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = nil
}

// Circle implements Surface.
func (c *Canvas) Circle(center Point, radius float64, col Color, alpha float64) {
	if radius <= 0 || alpha <= 0 {
		return
	}
	c.append(Op{
		Kind:   OpCircle,
		From:   center,
		Radius: radius,
		Color:  col,
		Alpha:  Clamp01(alpha),
	})
}

// Line implements Surface.
func (c *Canvas) Line(from, to Point, width float64, col Color, alpha float64) {
	if width <= 0 || alpha <= 0 {
		return
	}
	c.append(Op{
		Kind:  OpLine,
		From:  from,
		To:    to,
		Width: width,
		Color: col,
		Alpha: Clamp01(alpha),
	})
}

func (c *Canvas) append(op Op) {
	c.mu.Lock()
	c.ops = append(c.ops, op)
	c.mu.Unlock()
}

// Len returns the number of recorded operations.
func (c *Canvas) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ops)
}

// Snapshot copies the current display list into a Frame.
func (c *Canvas) Snapshot(layer string, alpha float64) Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	ops := make([]Op, len(c.ops))
	copy(ops, c.ops)

	return Frame{
		Layer:  layer,
		Width:  c.width,
		Height: c.height,
		Alpha:  alpha,
		Ops:    ops,
	}
}
