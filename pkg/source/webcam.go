package source

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/thepian/capturekit/internal/log"
)

// Webcam captures frames from a local device through OpenCV.
type Webcam struct {
	deviceID int
	cfg      Config

	mu      sync.RWMutex
	capture *gocv.VideoCapture
	latest  []byte
	closed  bool

	frames chan Frame
	done   chan struct{}
	seq    uint64
}

// NewWebcam creates a webcam source for the given device index.
func NewWebcam(deviceID int, cfg Config) *Webcam {
	return &Webcam{
		deviceID: deviceID,
		cfg:      cfg,
		frames:   make(chan Frame, cfg.Buffer),
		done:     make(chan struct{}),
	}
}

// Open acquires the device and starts the capture loop.
func (w *Webcam) Open(ctx context.Context) error {
	if errs := w.cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("source: invalid config: %v", errs)
	}

	capture, err := gocv.OpenVideoCapture(w.deviceID)
	if err != nil {
		return fmt.Errorf("source: open device %d: %w", w.deviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(w.cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(w.cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(w.cfg.Framerate))

	w.mu.Lock()
	w.capture = capture
	w.mu.Unlock()

	go w.loop()
	log.Info("webcam opened", "device", w.deviceID,
		"width", w.cfg.Width, "height", w.cfg.Height)
	return nil
}

// Frames returns the frame delivery channel.
func (w *Webcam) Frames() <-chan Frame {
	return w.frames
}

// StillJPEG returns a copy of the most recent captured frame.
func (w *Webcam) StillJPEG() ([]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.latest == nil {
		return nil, fmt.Errorf("source: no frame captured yet")
	}
	still := make([]byte, len(w.latest))
	copy(still, w.latest)
	return still, nil
}

// Close stops the capture loop and releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	return nil
}

func (w *Webcam) loop() {
	defer func() {
		w.mu.Lock()
		if w.capture != nil {
			w.capture.Close()
			w.capture = nil
		}
		w.mu.Unlock()
		close(w.frames)
	}()

	img := gocv.NewMat()
	defer img.Close()

	interval := time.Second / time.Duration(w.cfg.Framerate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
		}

		w.mu.RLock()
		capture := w.capture
		w.mu.RUnlock()
		if capture == nil {
			return
		}

		if ok := capture.Read(&img); !ok || img.Empty() {
			continue
		}

		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img,
			[]int{gocv.IMWriteJpegQuality, w.cfg.Quality})
		if err != nil {
			log.Warn("frame encode failed", "error", err)
			continue
		}
		jpeg := make([]byte, buf.Len())
		copy(jpeg, buf.GetBytes())
		buf.Close()

		w.mu.Lock()
		w.latest = jpeg
		w.seq++
		seq := w.seq
		w.mu.Unlock()

		frame := Frame{
			JPEG: jpeg,
			Size: image.Pt(img.Cols(), img.Rows()),
			Seq:  seq,
			At:   time.Now(),
		}
		w.deliver(frame)
	}
}

// deliver pushes a frame, dropping the oldest queued frame when the
// consumer is behind.
func (w *Webcam) deliver(frame Frame) {
	select {
	case w.frames <- frame:
	default:
		select {
		case <-w.frames:
		default:
		}
		select {
		case w.frames <- frame:
		default:
		}
	}
}
