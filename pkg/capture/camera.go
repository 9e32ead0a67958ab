package capture

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/thepian/capturekit/internal/log"
	"github.com/thepian/capturekit/pkg/device"
	"github.com/thepian/capturekit/pkg/source"
)

// SourceFactory builds a frame source for an input device.
type SourceFactory func(device.Descriptor) (source.Source, error)

// WebcamFactory is the default factory: a local gocv webcam. Device IDs
// are the numeric capture indexes the probe enumerator reports.
func WebcamFactory(cfg source.Config) SourceFactory {
	return func(d device.Descriptor) (source.Source, error) {
		id, err := strconv.Atoi(d.ID)
		if err != nil {
			return nil, fmt.Errorf("capture: device id %q is not a capture index", d.ID)
		}
		return source.NewWebcam(id, cfg), nil
	}
}

// StaticFactory ignores the descriptor and builds a source with the
// given constructor. Used for relay and network camera sessions whose
// input is not switchable hardware. Sources are single-use, so the
// constructor runs once per session start.
func StaticFactory(make func() source.Source) SourceFactory {
	return func(device.Descriptor) (source.Source, error) {
		return make(), nil
	}
}

// CameraSession is the Session implementation over a frame source.
// A movie output writes frames through a gocv VideoWriter; a photo
// output serves stills from the source's latest frame.
type CameraSession struct {
	factory SourceFactory

	mu         sync.Mutex
	input      *device.Descriptor
	configured bool
	running    bool
	outputs    map[Output]bool
	src        source.Source
	onFrame    func(source.Frame)
	stop       chan struct{}

	// Movie recording state. The writer opens lazily on the first frame
	// because its size is only known then.
	moviePath string
	writer    *gocv.VideoWriter
}

// NewCameraSession creates a session over the given source factory.
// moviePath is where a movie output records; a %d verb expands to the
// recording start time, and an empty path disables recording even when
// the output is attached.
func NewCameraSession(factory SourceFactory, moviePath string) *CameraSession {
	if moviePath != "" && strings.Contains(moviePath, "%") && movieFileName(moviePath, 0) == moviePath {
		log.Warn("movie path pattern has no usable integer verb, recording to it verbatim", "path", moviePath)
	}
	return &CameraSession{
		factory:   factory,
		outputs:   make(map[Output]bool),
		moviePath: moviePath,
	}
}

// movieFileName expands the movie path pattern with the recording start
// time. A pattern without an integer verb is used verbatim rather than
// carrying a fmt artifact into the filename.
func movieFileName(pattern string, ts int64) string {
	name := fmt.Sprintf(pattern, ts)
	if strings.Contains(name, "%!") {
		return pattern
	}
	return name
}

// Configured reports whether the session has committed a configuration.
func (s *CameraSession) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configured
}

// BeginConfiguration opens an atomic reconfiguration.
func (s *CameraSession) BeginConfiguration() {}

// RemoveInputs detaches the input, closing its source if running.
func (s *CameraSession) RemoveInputs() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input = nil
	if s.src != nil {
		s.src.Close()
		s.src = nil
	}
}

// AddInput attaches the device. When the session is running, a source
// for the new device opens immediately; an open failure leaves the
// session without an input. When stopped, only the descriptor is
// recorded and the source is built on Start.
func (s *CameraSession) AddInput(d device.Descriptor) error {
	src, err := s.factory(d)
	if err != nil {
		return err
	}

	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running {
		s.mu.Lock()
		s.input = &d
		s.mu.Unlock()
		return nil
	}

	if err := src.Open(context.Background()); err != nil {
		return err
	}

	s.mu.Lock()
	s.input = &d
	s.src = src
	stop := s.stop
	s.mu.Unlock()

	go s.pump(src, stop)
	return nil
}

// CommitConfiguration applies the open configuration.
func (s *CameraSession) CommitConfiguration() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configured = true
	return nil
}

// ActiveInput returns the current input device, if any.
func (s *CameraSession) ActiveInput() (device.Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.input == nil {
		return device.Descriptor{}, false
	}
	return *s.input, true
}

// Attach adds an output. Idempotent per output kind.
func (s *CameraSession) Attach(o Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[o] = true
	return nil
}

// Detach removes an output.
func (s *CameraSession) Detach(o Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outputs, o)

	if o == OutputMovie {
		s.closeWriterLocked()
	}
}

// Outputs returns the attached outputs in stable order.
func (s *CameraSession) Outputs() []Output {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Output
	for _, o := range []Output{OutputMetadata, OutputPhoto, OutputMovie} {
		if s.outputs[o] {
			out = append(out, o)
		}
	}
	return out
}

// OnFrame registers the frame callback.
func (s *CameraSession) OnFrame(fn func(source.Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = fn
}

// Start builds a fresh source for the attached input, opens it, and
// begins pumping frames. Sources are single-use; each start gets its
// own.
func (s *CameraSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if s.input == nil {
		s.mu.Unlock()
		return ErrNoInput
	}
	input := *s.input
	s.mu.Unlock()

	src, err := s.factory(input)
	if err != nil {
		return err
	}
	if err := src.Open(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.src = src
	s.running = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	go s.pump(src, stop)
	return nil
}

// Stop halts the pump and releases the device.
func (s *CameraSession) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	if s.src != nil {
		s.src.Close()
		s.src = nil
	}
	s.closeWriterLocked()
	s.mu.Unlock()
}

// Running reports whether the session is producing frames.
func (s *CameraSession) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Still returns the most recent frame for a photo capture.
func (s *CameraSession) Still() ([]byte, error) {
	s.mu.Lock()
	src := s.src
	running := s.running
	hasPhoto := s.outputs[OutputPhoto]
	s.mu.Unlock()

	if !running || src == nil {
		return nil, ErrNotRunning
	}
	if !hasPhoto {
		return nil, ErrOutputNotAttached
	}
	return src.StillJPEG()
}

// pump forwards frames from the source to the attached outputs until the
// session stops or the source ends.
func (s *CameraSession) pump(src source.Source, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case frame, ok := <-src.Frames():
			if !ok {
				return
			}

			s.mu.Lock()
			fn := s.onFrame
			metadata := s.outputs[OutputMetadata]
			movie := s.outputs[OutputMovie]
			s.mu.Unlock()

			if metadata && fn != nil {
				fn(frame)
			}
			if movie {
				s.record(frame)
			}
		}
	}
}

// record writes one frame to the movie output.
func (s *CameraSession) record(frame source.Frame) {
	img, err := gocv.IMDecode(frame.JPEG, gocv.IMReadColor)
	if err != nil || img.Empty() {
		return
	}
	defer img.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	if s.writer == nil {
		if s.moviePath == "" {
			return
		}
		s.writer = s.openWriterLocked(img.Cols(), img.Rows())
		if s.writer == nil {
			// Recording is best-effort; drop the output instead of
			// failing the session.
			delete(s.outputs, OutputMovie)
			return
		}
	}
	s.writer.Write(img)
}

// openWriterLocked opens the movie writer, falling back through codecs
// until one is available on the host.
func (s *CameraSession) openWriterLocked(width, height int) *gocv.VideoWriter {
	path := movieFileName(s.moviePath, time.Now().Unix())
	for _, codec := range []string{"avc1", "mp4v", "MJPG"} {
		w, err := gocv.VideoWriterFile(path, codec, 30, width, height, true)
		if err == nil && w.IsOpened() {
			log.Info("movie recording started", "path", path, "codec", codec)
			return w
		}
		if w != nil {
			w.Close()
		}
	}
	log.Warn("no movie codec available, disabling movie output")
	return nil
}

func (s *CameraSession) closeWriterLocked() {
	if s.writer != nil {
		s.writer.Close()
		s.writer = nil
	}
}
