// Package opencv provides the gocv-backed detector implementations:
// YuNet faces, QR codes, and contour-based document regions.
package opencv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/thepian/capturekit/pkg/geometry"
	"github.com/thepian/capturekit/pkg/source"
)

// decodeFrame decodes a frame's JPEG into a Mat. Caller closes the Mat.
func decodeFrame(frame source.Frame) (gocv.Mat, error) {
	img, err := gocv.IMDecode(frame.JPEG, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("opencv: decode frame: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("opencv: empty frame")
	}
	return img, nil
}

// iou returns the intersection-over-union of two rectangles.
func iou(a, b geometry.Rect) float64 {
	ix := min(a.Max.X, b.Max.X) - max(a.Min.X, b.Min.X)
	iy := min(a.Max.Y, b.Max.Y) - max(a.Min.Y, b.Min.Y)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := a.Width()*a.Height() + b.Width()*b.Height() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// orderCorners sorts four arbitrary points into TL, TR, BL, BR using the
// sum/difference heuristic.
func orderCorners(pts [4]geometry.Point) geometry.Quad {
	var q geometry.Quad
	minSum, maxSum := pts[0], pts[0]
	minDiff, maxDiff := pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X+p.Y < minSum.X+minSum.Y {
			minSum = p
		}
		if p.X+p.Y > maxSum.X+maxSum.Y {
			maxSum = p
		}
		if p.X-p.Y < minDiff.X-minDiff.Y {
			minDiff = p
		}
		if p.X-p.Y > maxDiff.X-maxDiff.Y {
			maxDiff = p
		}
	}
	q.TopLeft = minSum
	q.BottomRight = maxSum
	q.TopRight = maxDiff
	q.BottomLeft = minDiff
	return q
}
