package geometry

import (
	"testing"
)

func unitSquare() Quad {
	return Quad{
		TopLeft:     Point{X: 0, Y: 0},
		TopRight:    Point{X: 1, Y: 0},
		BottomLeft:  Point{X: 0, Y: 1},
		BottomRight: Point{X: 1, Y: 1},
	}
}

func TestPerspectiveTransform_Identity(t *testing.T) {
	tr := NewPerspectiveTransform(unitSquare(), unitSquare())

	points := []Point{{X: 0.3, Y: 0.7}, {X: 0, Y: 0}, {X: 1, Y: 1}}
	out := tr.Apply(points...)
	for i, p := range points {
		if !almostEqual(out[i].X, p.X) || !almostEqual(out[i].Y, p.Y) {
			t.Errorf("Expected %v to map to itself, got %v", p, out[i])
		}
	}
}

func TestPerspectiveTransform_CornersMap(t *testing.T) {
	tests := []struct {
		name string
		to   Quad
	}{
		{
			name: "scale and translate",
			to: Quad{
				TopLeft:     Point{X: 10, Y: 20},
				TopRight:    Point{X: 30, Y: 20},
				BottomLeft:  Point{X: 10, Y: 50},
				BottomRight: Point{X: 30, Y: 50},
			},
		},
		{
			name: "skewed document",
			to: Quad{
				TopLeft:     Point{X: 2, Y: 1},
				TopRight:    Point{X: 9, Y: 2},
				BottomLeft:  Point{X: 1, Y: 8},
				BottomRight: Point{X: 10, Y: 9},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewPerspectiveTransform(unitSquare(), tt.to)

			got := tr.Apply(
				Point{X: 0, Y: 0},
				Point{X: 1, Y: 0},
				Point{X: 1, Y: 1},
				Point{X: 0, Y: 1},
			)
			want := []Point{tt.to.TopLeft, tt.to.TopRight, tt.to.BottomRight, tt.to.BottomLeft}
			for i := range want {
				if !almostEqual(got[i].X, want[i].X) || !almostEqual(got[i].Y, want[i].Y) {
					t.Errorf("Corner %d: expected %v, got %v", i, want[i], got[i])
				}
			}
		})
	}
}

func TestPerspectiveTransform_RoundTrip(t *testing.T) {
	skewed := Quad{
		TopLeft:     Point{X: 2, Y: 1},
		TopRight:    Point{X: 9, Y: 2},
		BottomLeft:  Point{X: 1, Y: 8},
		BottomRight: Point{X: 10, Y: 9},
	}

	forward := NewPerspectiveTransform(unitSquare(), skewed)
	back := NewPerspectiveTransform(skewed, unitSquare())

	p := Point{X: 0.4, Y: 0.6}
	mapped := forward.Apply(p)
	round := back.Apply(mapped[0])
	if !almostEqual(round[0].X, p.X) || !almostEqual(round[0].Y, p.Y) {
		t.Errorf("Expected round trip to return %v, got %v", p, round[0])
	}
}
