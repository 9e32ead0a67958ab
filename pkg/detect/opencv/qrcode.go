package opencv

import (
	"crypto/sha256"
	"sync"

	"gocv.io/x/gocv"

	"github.com/thepian/capturekit/pkg/geometry"
	"github.com/thepian/capturekit/pkg/source"
	"github.com/thepian/capturekit/pkg/track"
)

// QRCode detects QR codes with OpenCV's multi-code detector. Codes whose
// payload fails to decode to a string still get a stable descriptor: the
// SHA-256 of the straightened module bitmap.
type QRCode struct {
	mu       sync.Mutex // protects detection
	detector gocv.QRCodeDetector
}

// NewQRCode creates a QR code detector.
func NewQRCode() *QRCode {
	return &QRCode{detector: gocv.NewQRCodeDetector()}
}

// Detect runs a full detection pass against the frame.
func (d *QRCode) Detect(frame source.Frame) ([]track.Code, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scan(frame)
}

// Track re-locates continued codes. The QR detector has no cheaper
// continuation mode, so a tracking pass is a scan restricted to codes
// the continuations can claim.
func (d *QRCode) Track(frame source.Frame, prev []track.Continuation) ([]track.Code, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	observed, err := d.scan(frame)
	if err != nil {
		return nil, err
	}

	var continued []track.Code
	for _, code := range observed {
		for _, c := range prev {
			if c.Kind != track.KindCode {
				continue
			}
			if (code.Value != "" && code.Value == c.Key) || code.Corners.Overlap(c.Quad) {
				continued = append(continued, code)
				break
			}
		}
	}
	return continued, nil
}

// Close releases the detector resources.
func (d *QRCode) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}

// scan runs the multi-code detector. Caller holds d.mu.
func (d *QRCode) scan(frame source.Frame) ([]track.Code, error) {
	img, err := decodeFrame(frame)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	var decoded []string
	points := gocv.NewMat()
	defer points.Close()
	var straight []gocv.Mat
	defer func() {
		for i := range straight {
			straight[i].Close()
		}
	}()

	if ok := d.detector.DetectAndDecodeMulti(img, &decoded, &points, &straight); !ok {
		return nil, nil
	}

	var out []track.Code
	for i := 0; i < points.Rows(); i++ {
		// Each row holds the code's four corner points as x,y pairs.
		var pts [4]geometry.Point
		for j := 0; j < 4; j++ {
			pts[j] = geometry.Point{
				X: float64(points.GetFloatAt(i, j*2)) / imgW,
				Y: float64(points.GetFloatAt(i, j*2+1)) / imgH,
			}
		}

		code := track.Code{
			Symbology: "qr",
			Corners:   orderCorners(pts),
		}
		if i < len(decoded) {
			code.Value = decoded[i]
			code.Payload = []byte(decoded[i])
		}
		if i < len(straight) && !straight[i].Empty() {
			sum := sha256.Sum256(straight[i].ToBytes())
			code.Descriptor = sum[:]
		}
		out = append(out, code)
	}
	return out, nil
}
