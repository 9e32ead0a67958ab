package geometry

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Rectify perspective-corrects a detected quadrilateral out of a JPEG
// frame and returns the deskewed region as a new JPEG. The quad is given
// in normalized (0-1) frame coordinates; the output size is derived from
// the quad's mean edge lengths in pixels.
func Rectify(jpegData []byte, quad Quad) ([]byte, error) {
	img, err := gocv.IMDecode(jpegData, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("geometry: decode frame: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("geometry: empty frame")
	}

	px := quad.Denormalize(img.Cols(), img.Rows())
	outW, outH := px.MeanEdgeLengths()
	width := int(outW + 0.5)
	height := int(outH + 0.5)
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("geometry: degenerate quad %v", quad)
	}

	src := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: float32(px.TopLeft.X), Y: float32(px.TopLeft.Y)},
		{X: float32(px.TopRight.X), Y: float32(px.TopRight.Y)},
		{X: float32(px.BottomRight.X), Y: float32(px.BottomRight.Y)},
		{X: float32(px.BottomLeft.X), Y: float32(px.BottomLeft.Y)},
	})
	defer src.Close()

	dst := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: 0},
		{X: float32(width), Y: 0},
		{X: float32(width), Y: float32(height)},
		{X: 0, Y: float32(height)},
	})
	defer dst.Close()

	m := gocv.GetPerspectiveTransform2f(src, dst)
	defer m.Close()

	out := gocv.NewMat()
	defer out.Close()
	gocv.WarpPerspective(img, &out, m, image.Pt(width, height))

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, out)
	if err != nil {
		return nil, fmt.Errorf("geometry: encode rectified region: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
