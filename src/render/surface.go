package render

// Surface is the drawing capability handed to entities.
type Surface interface {
	// Size returns the width and height of the surface in device pixels.
	Size() (width, height float64)
	// Resize changes the dimensions of the surface and clears it.
	Resize(width, height float64)
	// Clear removes everything drawn so far.
	Clear()
	// Circle draws a filled circle.
	Circle(center Point, radius float64, c Color, alpha float64)
	// Line draws a straight stroke.
	Line(from, to Point, width float64, c Color, alpha float64)
}

// Entity is anything a Layer can hold: network nodes and signals.
type Entity interface {
	// IsActive reports whether the entity still has something to animate.
	IsActive() bool
	// Update advances the entity by one cycle.
	Update()
	// Render draws the entity in its current state.
	Render(s Surface)
	// SetAlpha receives the opacity of the owning layer.
	SetAlpha(alpha float64)
}
