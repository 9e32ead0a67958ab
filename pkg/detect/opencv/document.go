package opencv

import (
	"image"
	"sync"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/thepian/capturekit/pkg/geometry"
	"github.com/thepian/capturekit/pkg/source"
	"github.com/thepian/capturekit/pkg/track"
)

// DocumentConfig holds contour-pipeline tuning for document detection.
type DocumentConfig struct {
	// CannyLow and CannyHigh are the edge detector thresholds.
	CannyLow  float32
	CannyHigh float32

	// MinAreaFraction is the minimum quad area as a fraction of the
	// frame, below which a candidate is noise.
	MinAreaFraction float64

	// ApproxEpsilon is the polygon simplification tolerance as a
	// fraction of the contour perimeter.
	ApproxEpsilon float64
}

// DefaultDocumentConfig returns the recommended contour tuning.
func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		CannyLow:        50,
		CannyHigh:       150,
		MinAreaFraction: 0.05,
		ApproxEpsilon:   0.02,
	}
}

// Document finds document-like quadrilaterals via a grayscale → Canny →
// contour pipeline. Region identity is an opaque uuid minted at first
// observation and carried across passes by quad overlap.
type Document struct {
	cfg DocumentConfig

	mu       sync.Mutex // protects detection and association state
	previous []track.Region
}

// NewDocument creates a document region detector.
func NewDocument(cfg DocumentConfig) *Document {
	return &Document{cfg: cfg}
}

// Detect runs a full detection pass against the frame.
func (d *Document) Detect(frame source.Frame) ([]track.Region, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	quads, err := d.findQuads(frame)
	if err != nil {
		return nil, err
	}

	out := make([]track.Region, 0, len(quads))
	for _, q := range quads {
		out = append(out, track.Region{ID: d.identify(q), Quad: q})
	}
	d.previous = out
	return out, nil
}

// Track re-locates continued regions: detected quads claim a
// continuation's identity by overlap, unclaimed quads are dropped.
func (d *Document) Track(frame source.Frame, prev []track.Continuation) ([]track.Region, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	quads, err := d.findQuads(frame)
	if err != nil {
		return nil, err
	}

	var continued []track.Region
	claimed := make(map[string]bool, len(prev))
	for _, q := range quads {
		for _, c := range prev {
			if c.Kind != track.KindRegion || claimed[c.Key] {
				continue
			}
			if q.Overlap(c.Quad) {
				claimed[c.Key] = true
				continued = append(continued, track.Region{ID: c.Key, Quad: q})
				break
			}
		}
	}
	d.previous = continued
	return continued, nil
}

// Close is a no-op; the contour pipeline holds no persistent resources.
func (d *Document) Close() error {
	return nil
}

// identify reuses a previous region's ID when the quad overlaps it,
// otherwise mints a fresh uuid. Caller holds d.mu.
func (d *Document) identify(q geometry.Quad) string {
	for _, prev := range d.previous {
		if q.Overlap(prev.Quad) {
			return prev.ID
		}
	}
	return uuid.New().String()
}

// findQuads runs the contour pipeline. Caller holds d.mu.
func (d *Document) findQuads(frame source.Frame) ([]geometry.Quad, error) {
	img, err := decodeFrame(frame)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())
	minArea := d.cfg.MinAreaFraction * imgW * imgH

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	gocv.GaussianBlur(gray, &gray, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, d.cfg.CannyLow, d.cfg.CannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var out []geometry.Quad
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if gocv.ContourArea(contour) < minArea {
			continue
		}

		perimeter := gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, d.cfg.ApproxEpsilon*perimeter, true)
		if approx.Size() != 4 {
			approx.Close()
			continue
		}

		var pts [4]geometry.Point
		for j := 0; j < 4; j++ {
			p := approx.At(j)
			pts[j] = geometry.Point{X: float64(p.X) / imgW, Y: float64(p.Y) / imgH}
		}
		approx.Close()
		out = append(out, orderCorners(pts))
	}
	return out, nil
}
