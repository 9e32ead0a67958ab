package geometry

// PerspectiveTransform is a 3x3 homogeneous transform mapping one
// quadrilateral onto another. Built by composing a quad→unit-square
// transform (via the adjugate) with a unit-square→quad transform.
type PerspectiveTransform struct {
	a11, a21, a31 float64
	a12, a22, a32 float64
	a13, a23, a33 float64
}

// NewPerspectiveTransform returns the transform carrying points in the
// from quad onto the corresponding points of the to quad.
func NewPerspectiveTransform(from, to Quad) PerspectiveTransform {
	return squareToQuad(to).times(squareToQuad(from).adjugate())
}

// Apply maps the given points through the transform.
func (t PerspectiveTransform) Apply(points ...Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		denom := t.a13*p.X + t.a23*p.Y + t.a33
		out[i] = Point{
			X: (t.a11*p.X + t.a21*p.Y + t.a31) / denom,
			Y: (t.a12*p.X + t.a22*p.Y + t.a32) / denom,
		}
	}
	return out
}

// squareToQuad builds the transform taking the unit square's corners
// (0,0) (1,0) (1,1) (0,1) onto the quad's TL, TR, BR, BL corners.
func squareToQuad(q Quad) PerspectiveTransform {
	x0, y0 := q.TopLeft.X, q.TopLeft.Y
	x1, y1 := q.TopRight.X, q.TopRight.Y
	x2, y2 := q.BottomRight.X, q.BottomRight.Y
	x3, y3 := q.BottomLeft.X, q.BottomLeft.Y

	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		// Affine case
		return PerspectiveTransform{
			a11: x1 - x0, a21: x2 - x1, a31: x0,
			a12: y1 - y0, a22: y2 - y1, a32: y0,
			a13: 0, a23: 0, a33: 1,
		}
	}

	dx1 := x1 - x2
	dx2 := x3 - x2
	dy1 := y1 - y2
	dy2 := y3 - y2
	denom := dx1*dy2 - dx2*dy1
	a13 := (dx3*dy2 - dx2*dy3) / denom
	a23 := (dx1*dy3 - dx3*dy1) / denom
	return PerspectiveTransform{
		a11: x1 - x0 + a13*x1, a21: x3 - x0 + a23*x3, a31: x0,
		a12: y1 - y0 + a13*y1, a22: y3 - y0 + a23*y3, a32: y0,
		a13: a13, a23: a23, a33: 1,
	}
}

// adjugate returns the adjugate matrix, which inverts the transform up to
// a scalar factor. The factor cancels in the homogeneous divide.
func (t PerspectiveTransform) adjugate() PerspectiveTransform {
	return PerspectiveTransform{
		a11: t.a22*t.a33 - t.a23*t.a32,
		a21: t.a23*t.a31 - t.a21*t.a33,
		a31: t.a21*t.a32 - t.a22*t.a31,
		a12: t.a13*t.a32 - t.a12*t.a33,
		a22: t.a11*t.a33 - t.a13*t.a31,
		a32: t.a12*t.a31 - t.a11*t.a32,
		a13: t.a12*t.a23 - t.a13*t.a22,
		a23: t.a13*t.a21 - t.a11*t.a23,
		a33: t.a11*t.a22 - t.a12*t.a21,
	}
}

// times returns the matrix product t × other.
func (t PerspectiveTransform) times(other PerspectiveTransform) PerspectiveTransform {
	return PerspectiveTransform{
		a11: t.a11*other.a11 + t.a21*other.a12 + t.a31*other.a13,
		a21: t.a11*other.a21 + t.a21*other.a22 + t.a31*other.a23,
		a31: t.a11*other.a31 + t.a21*other.a32 + t.a31*other.a33,
		a12: t.a12*other.a11 + t.a22*other.a12 + t.a32*other.a13,
		a22: t.a12*other.a21 + t.a22*other.a22 + t.a32*other.a23,
		a32: t.a12*other.a31 + t.a22*other.a32 + t.a32*other.a33,
		a13: t.a13*other.a11 + t.a23*other.a12 + t.a33*other.a13,
		a23: t.a13*other.a21 + t.a23*other.a22 + t.a33*other.a23,
		a33: t.a13*other.a31 + t.a23*other.a32 + t.a33*other.a33,
	}
}
