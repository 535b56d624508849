package render

import "math"

// Point is a position in device pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Lerp returns the point at fraction t of the way from p to q.
func Lerp(p, q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// Distance returns the euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Color holds normalized sRGB coordinates, each in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Coords returns the color as a three-channel array.
func (c Color) Coords() [3]float64 {
	return [3]float64{c.R, c.G, c.B}
}

// Clamp01 bounds v to the closed unit interval.
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
