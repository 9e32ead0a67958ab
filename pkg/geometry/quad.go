// Package geometry provides the point, rectangle, and quadrilateral math
// used by the detection pipeline: corner transforms, overlay paths, and
// perspective correction of detected regions.
package geometry

import "math"

// Point is a 2D point in normalized (0-1) or pixel coordinates.
// The interpretation is up to the caller; all functions here are unit-agnostic.
type Point struct {
	X float64
	Y float64
}

// Add returns the component-wise sum of two points.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the component-wise difference of two points.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle defined by two corners.
type Rect struct {
	Min Point
	Max Point
}

// RectAt returns the degenerate rectangle containing only p.
func RectAt(p Point) Rect {
	return Rect{Min: p, Max: p}
}

// Union returns the smallest rectangle containing both r and s.
func (r Rect) Union(s Rect) Rect {
	out := r
	if s.Min.X < out.Min.X {
		out.Min.X = s.Min.X
	}
	if s.Min.Y < out.Min.Y {
		out.Min.Y = s.Min.Y
	}
	if s.Max.X > out.Max.X {
		out.Max.X = s.Max.X
	}
	if s.Max.Y > out.Max.Y {
		out.Max.Y = s.Max.Y
	}
	return out
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside or on the edge of r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Quad is a detected quadrilateral, corner-ordered as delivered by the
// detector. Corners are not guaranteed to be in any consistent rotational
// order.
type Quad struct {
	TopLeft     Point
	TopRight    Point
	BottomLeft  Point
	BottomRight Point
}

// Corners returns the four corners in TL, TR, BR, BL order.
func (q Quad) Corners() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// BoundingBox returns the union of the four degenerate corner rectangles.
// This matches the region-entity contract; use Extent for a guaranteed
// min/max box when corner order is not trusted.
func (q Quad) BoundingBox() Rect {
	box := RectAt(q.TopLeft)
	box = box.Union(RectAt(q.TopRight))
	box = box.Union(RectAt(q.BottomLeft))
	box = box.Union(RectAt(q.BottomRight))
	return box
}

// Extent returns the true min/max bounding rectangle of the four corners.
func (q Quad) Extent() Rect {
	minX, maxX := q.TopLeft.X, q.TopLeft.X
	minY, maxY := q.TopLeft.Y, q.TopLeft.Y
	for _, p := range []Point{q.TopRight, q.BottomLeft, q.BottomRight} {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{Min: Point{X: minX, Y: minY}, Max: Point{X: maxX, Y: maxY}}
}

// Path returns the closed polygon outline of the quad for overlay drawing:
// TL → TR → BR → BL → TL.
func (q Quad) Path() []Point {
	return []Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft, q.TopLeft}
}

// Denormalize scales a quad from normalized (0-1) coordinates to pixel
// coordinates for a frame of the given size.
func (q Quad) Denormalize(width, height int) Quad {
	scale := func(p Point) Point {
		return Point{X: p.X * float64(width), Y: p.Y * float64(height)}
	}
	return Quad{
		TopLeft:     scale(q.TopLeft),
		TopRight:    scale(q.TopRight),
		BottomLeft:  scale(q.BottomLeft),
		BottomRight: scale(q.BottomRight),
	}
}

// MeanEdgeLengths returns the average horizontal and vertical edge lengths
// of the quad. Used to size the output of a perspective correction.
func (q Quad) MeanEdgeLengths() (width, height float64) {
	width = (q.TopLeft.Dist(q.TopRight) + q.BottomLeft.Dist(q.BottomRight)) / 2
	height = (q.TopLeft.Dist(q.BottomLeft) + q.TopRight.Dist(q.BottomRight)) / 2
	return width, height
}

// Overlap reports whether the extents of two quads intersect. Used to carry
// region identity across passes.
func (q Quad) Overlap(other Quad) bool {
	a, b := q.Extent(), other.Extent()
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}
