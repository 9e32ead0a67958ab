package opencv

import (
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/thepian/capturekit/pkg/geometry"
	"github.com/thepian/capturekit/pkg/source"
	"github.com/thepian/capturekit/pkg/track"
)

// FaceConfig holds YuNet detector configuration.
type FaceConfig struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height

	// AssocIoU is the minimum box overlap for carrying an identity tag
	// from the previous pass.
	AssocIoU float64
}

// DefaultFaceConfig returns production defaults for YuNet.
func DefaultFaceConfig() FaceConfig {
	return FaceConfig{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
		AssocIoU:         0.3,
	}
}

// YuNet detects faces with OpenCV's FaceDetectorYN and assigns integer
// identity tags by box overlap against its previous output.
type YuNet struct {
	detector gocv.FaceDetectorYN
	cfg      FaceConfig

	mu       sync.Mutex // protects inference and association state
	lastID   int
	previous []track.Face
}

// NewYuNet creates a YuNet face detector.
func NewYuNet(cfg FaceConfig) (*YuNet, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("opencv: model file not found: %s", cfg.ModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // no config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNet{detector: detector, cfg: cfg}, nil
}

// Detect runs a full detection pass against the frame.
func (d *YuNet) Detect(frame source.Frame) ([]track.Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	observed, err := d.infer(frame)
	if err != nil {
		return nil, err
	}
	d.associate(observed)
	d.previous = observed
	return observed, nil
}

// Track re-locates continued faces. YuNet has no cheaper inference mode,
// so a tracking pass is an inference restricted to faces the
// continuations can claim; unclaimed detections are dropped.
func (d *YuNet) Track(frame source.Frame, prev []track.Continuation) ([]track.Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	observed, err := d.infer(frame)
	if err != nil {
		return nil, err
	}

	var continued []track.Face
	for i := range observed {
		for _, c := range prev {
			if c.Kind != track.KindFace {
				continue
			}
			if iou(observed[i].Bounds, c.Quad.Extent()) >= d.cfg.AssocIoU {
				observed[i].ID = c.FaceID
				continued = append(continued, observed[i])
				break
			}
		}
	}
	d.previous = continued
	return continued, nil
}

// Close releases the detector resources.
func (d *YuNet) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}

// infer runs the network and parses raw observations. Caller holds d.mu.
func (d *YuNet) infer(frame source.Frame) ([]track.Face, error) {
	img, err := decodeFrame(frame)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())
	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	d.detector.Detect(img, &faces)

	var out []track.Face
	for r := 0; r < faces.Rows(); r++ {
		// YuNet output format (15 columns):
		// 0-3: x, y, w, h (bounding box in pixels)
		// 4-13: 5 facial landmarks (x,y pairs):
		//       right eye, left eye, nose tip, right mouth, left mouth
		// 14: face score
		x := float64(faces.GetFloatAt(r, 0))
		y := float64(faces.GetFloatAt(r, 1))
		w := float64(faces.GetFloatAt(r, 2))
		h := float64(faces.GetFloatAt(r, 3))

		face := track.Face{
			Bounds: geometry.Rect{
				Min: geometry.Point{X: x / imgW, Y: y / imgH},
				Max: geometry.Point{X: (x + w) / imgW, Y: (y + h) / imgH},
			},
		}

		rightEye := geometry.Point{X: float64(faces.GetFloatAt(r, 4)), Y: float64(faces.GetFloatAt(r, 5))}
		leftEye := geometry.Point{X: float64(faces.GetFloatAt(r, 6)), Y: float64(faces.GetFloatAt(r, 7))}
		nose := geometry.Point{X: float64(faces.GetFloatAt(r, 8)), Y: float64(faces.GetFloatAt(r, 9))}

		eyeDist := rightEye.Dist(leftEye)
		if eyeDist > 1 {
			// Roll from the eye line slope.
			face.Roll = math.Atan2(leftEye.Y-rightEye.Y, leftEye.X-rightEye.X)
			face.HasRoll = true

			// Yaw approximated from the nose offset relative to the eye
			// midpoint, normalized by eye distance.
			mid := geometry.Point{X: (rightEye.X + leftEye.X) / 2, Y: (rightEye.Y + leftEye.Y) / 2}
			face.Yaw = math.Atan2(nose.X-mid.X, eyeDist)
			face.HasYaw = true
		}

		out = append(out, face)
	}
	return out, nil
}

// associate carries identity tags from the previous pass by box overlap
// and mints fresh tags for unmatched faces. Caller holds d.mu.
func (d *YuNet) associate(observed []track.Face) {
	claimed := make(map[int]bool, len(d.previous))
	for i := range observed {
		bestIoU := d.cfg.AssocIoU
		bestID := -1
		for j, prev := range d.previous {
			if claimed[j] {
				continue
			}
			if overlap := iou(observed[i].Bounds, prev.Bounds); overlap >= bestIoU {
				bestIoU = overlap
				bestID = j
			}
		}
		if bestID >= 0 {
			claimed[bestID] = true
			observed[i].ID = d.previous[bestID].ID
		} else {
			d.lastID++
			observed[i].ID = d.lastID
		}
	}
}
