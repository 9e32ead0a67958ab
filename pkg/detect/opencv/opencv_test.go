package opencv

import (
	"math"
	"testing"

	"github.com/thepian/capturekit/pkg/geometry"
)

func TestOrderCorners(t *testing.T) {
	// Shuffled corners of a skewed quad.
	pts := [4]geometry.Point{
		{X: 0.9, Y: 0.8}, // bottom-right
		{X: 0.1, Y: 0.2}, // top-left
		{X: 0.15, Y: 0.85}, // bottom-left
		{X: 0.85, Y: 0.1}, // top-right
	}

	q := orderCorners(pts)
	if q.TopLeft != pts[1] {
		t.Errorf("Expected top-left %v, got %v", pts[1], q.TopLeft)
	}
	if q.TopRight != pts[3] {
		t.Errorf("Expected top-right %v, got %v", pts[3], q.TopRight)
	}
	if q.BottomLeft != pts[2] {
		t.Errorf("Expected bottom-left %v, got %v", pts[2], q.BottomLeft)
	}
	if q.BottomRight != pts[0] {
		t.Errorf("Expected bottom-right %v, got %v", pts[0], q.BottomRight)
	}
}

func TestIoU(t *testing.T) {
	a := geometry.Rect{Min: geometry.Point{X: 0, Y: 0}, Max: geometry.Point{X: 1, Y: 1}}
	b := geometry.Rect{Min: geometry.Point{X: 0.5, Y: 0}, Max: geometry.Point{X: 1.5, Y: 1}}
	c := geometry.Rect{Min: geometry.Point{X: 2, Y: 2}, Max: geometry.Point{X: 3, Y: 3}}

	// a∩b = 0.5, a∪b = 1.5
	if got := iou(a, b); math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("Expected IoU 1/3, got %v", got)
	}
	if got := iou(a, c); got != 0 {
		t.Errorf("Expected IoU 0 for disjoint boxes, got %v", got)
	}
	if got := iou(a, a); math.Abs(got-1) > 1e-9 {
		t.Errorf("Expected IoU 1 for identical boxes, got %v", got)
	}
}
