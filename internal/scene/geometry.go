package scene

import "math"

// Vec is a position in scene pixels
type Vec struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns a new vector offset by dx, dy
func (v Vec) Add(dx, dy float64) Vec {
	return Vec{v.X + dx, v.Y + dy}
}

// Dist returns the Euclidean distance between two vectors
func (v Vec) Dist(o Vec) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner
type Rect struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"width" yaml:"width"`
	H float64 `json:"height" yaml:"height"`
}

// RectAt returns a rectangle of size w*h with its top-left corner at p
func RectAt(p Vec, w, h float64) Rect {
	return Rect{X: p.X, Y: p.Y, W: w, H: h}
}

// Overlaps reports whether two rectangles intersect. Bounds are half-open,
// so rectangles that only share an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X &&
		r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// ContainsPoint checks if a point lies within the rectangle, edges included
func (r Rect) ContainsPoint(p Vec) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Center returns the center point of the rectangle
func (r Rect) Center() Vec {
	return Vec{r.X + r.W/2, r.Y + r.H/2}
}

// Origin returns the top-left corner
func (r Rect) Origin() Vec {
	return Vec{r.X, r.Y}
}

// Inset returns the rectangle shrunk by n on every side. Negative n grows it.
func (r Rect) Inset(n float64) Rect {
	return Rect{X: r.X + n, Y: r.Y + n, W: r.W - 2*n, H: r.H - 2*n}
}

// Offset returns a rectangle derived from r by moving its origin by (dx, dy)
// and adjusting its size by (dw, dh)
func (r Rect) Offset(dx, dy, dw, dh float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W + dw, H: r.H + dh}
}

// Collides reports whether r overlaps any of the obstacles. A positive buffer
// shrinks each obstacle first so grazing contacts are forgiven.
func Collides(r Rect, obstacles []Rect, buffer float64) bool {
	for _, o := range obstacles {
		if buffer != 0 {
			o = o.Inset(buffer)
		}
		if r.Overlaps(o) {
			return true
		}
	}
	return false
}
