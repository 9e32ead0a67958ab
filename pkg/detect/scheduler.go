package detect

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thepian/capturekit/internal/log"
	"github.com/thepian/capturekit/pkg/geometry"
	"github.com/thepian/capturekit/pkg/source"
	"github.com/thepian/capturekit/pkg/track"
)

// Scheduler decides, per incoming frame, whether to run a detection pass,
// a tracking pass, or nothing. At most one pass is in flight at any time;
// a frame arriving mid-pass is dropped for vision work.
type Scheduler struct {
	cfg   Config
	store *track.Store

	// Detector backends. Nil backends are skipped, so the scheduler also
	// serves configurations with only a subset of entity types enabled.
	faces   FaceDetector
	codes   CodeDetector
	regions RegionDetector

	// busy is the reentrancy guard. CAS, not locking: the frame path
	// must never block.
	busy atomic.Bool

	mu         sync.Mutex
	nextDetect time.Time
	nextTrack  time.Time

	updateMu sync.RWMutex
	onUpdate func(track.Snapshot)

	// now is replaceable for tests.
	now func() time.Time
}

type passKind int

const (
	passNone passKind = iota
	passDetect
	passTrack
)

// NewScheduler creates a scheduler over the given store and backends.
// Any backend may be nil.
func NewScheduler(cfg Config, store *track.Store, faces FaceDetector, codes CodeDetector, regions RegionDetector) (*Scheduler, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("detect: invalid config: %v", errs)
	}
	return &Scheduler{
		cfg:     cfg,
		store:   store,
		faces:   faces,
		codes:   codes,
		regions: regions,
		now:     time.Now,
	}, nil
}

// OnUpdate registers the callback invoked after each applied pass with a
// snapshot of the store. The scheduler holds no reference to its observer
// beyond the callback.
func (s *Scheduler) OnUpdate(fn func(track.Snapshot)) {
	s.updateMu.Lock()
	s.onUpdate = fn
	s.updateMu.Unlock()
}

// Prime re-arms both cadence deadlines to t, making the next frame
// immediately eligible for a detection pass. Called whenever the session
// becomes active.
func (s *Scheduler) Prime(t time.Time) {
	s.mu.Lock()
	s.nextDetect = t
	s.nextTrack = t
	s.mu.Unlock()
}

// Busy reports whether a pass is currently in flight.
func (s *Scheduler) Busy() bool {
	return s.busy.Load()
}

// OnFrame dispatches vision work for one incoming frame. Returns true
// when a pass was started. Never blocks: a due frame is dropped when a
// pass is already in flight.
func (s *Scheduler) OnFrame(frame source.Frame) bool {
	now := s.now()

	s.mu.Lock()
	kind := passNone
	if !now.Before(s.nextDetect) {
		kind = passDetect
	} else if !now.Before(s.nextTrack) {
		kind = passTrack
	}
	s.mu.Unlock()

	if kind == passNone {
		return false
	}
	if !s.busy.CompareAndSwap(false, true) {
		// Reentrancy guard: a pass is in flight, drop this frame.
		return false
	}

	epoch := s.store.Epoch()
	go func() {
		defer s.busy.Store(false)

		switch kind {
		case passDetect:
			s.runDetection(frame, epoch)
		case passTrack:
			s.runTracking(frame, epoch)
		}

		done := s.now()
		s.mu.Lock()
		if kind == passDetect {
			s.nextDetect = done.Add(s.cfg.DetectInterval)
		} else {
			s.nextTrack = done.Add(s.cfg.TrackInterval)
		}
		s.mu.Unlock()
	}()
	return true
}

// Close releases all detector backends.
func (s *Scheduler) Close() error {
	if s.faces != nil {
		s.faces.Close()
	}
	if s.codes != nil {
		s.codes.Close()
	}
	if s.regions != nil {
		s.regions.Close()
	}
	return nil
}

// runDetection runs a full, stateless detection pass and seeds the
// continuation requests for subsequent tracking passes.
func (s *Scheduler) runDetection(frame source.Frame, epoch uint64) {
	var faces []track.Face
	var codes []track.Code
	var regions []track.Region

	if s.faces != nil {
		found, err := s.faces.Detect(frame)
		if err != nil {
			// A failed detector means no observations this pass, never a
			// fatal error.
			log.Debug("face detection failed", "error", err)
		} else {
			faces = found
		}
	}
	if s.codes != nil {
		found, err := s.codes.Detect(frame)
		if err != nil {
			log.Debug("code detection failed", "error", err)
		} else {
			codes = found
		}
	}
	if s.regions != nil {
		found, err := s.regions.Detect(frame)
		if err != nil {
			log.Debug("region detection failed", "error", err)
		} else {
			regions = found
		}
	}

	if !s.store.Apply(epoch, faces, codes, regions) {
		return
	}
	s.store.SetContinuations(epoch, seedContinuations(faces, codes, regions))
	s.notify()
}

// runTracking runs a continuation pass against the entities seeded by the
// last detection pass.
func (s *Scheduler) runTracking(frame source.Frame, epoch uint64) {
	prev := s.store.Continuations()
	if len(prev) == 0 {
		return
	}

	var faces []track.Face
	var codes []track.Code
	var regions []track.Region

	if s.faces != nil {
		found, err := s.faces.Track(frame, prev)
		if err != nil {
			log.Debug("face tracking failed", "error", err)
		} else {
			faces = found
		}
	}
	if s.codes != nil {
		found, err := s.codes.Track(frame, prev)
		if err != nil {
			log.Debug("code tracking failed", "error", err)
		} else {
			codes = found
		}
	}
	if s.regions != nil {
		found, err := s.regions.Track(frame, prev)
		if err != nil {
			log.Debug("region tracking failed", "error", err)
		} else {
			regions = found
		}
	}

	if !s.store.Apply(epoch, faces, codes, regions) {
		return
	}
	s.store.SetContinuations(epoch, seedContinuations(faces, codes, regions))
	s.notify()
}

func (s *Scheduler) notify() {
	s.updateMu.RLock()
	fn := s.onUpdate
	s.updateMu.RUnlock()
	if fn != nil {
		fn(s.store.Snapshot())
	}
}

// seedContinuations builds the tracking requests for the next pass from
// one pass's results.
func seedContinuations(faces []track.Face, codes []track.Code, regions []track.Region) []track.Continuation {
	out := make([]track.Continuation, 0, len(faces)+len(codes)+len(regions))
	for _, f := range faces {
		out = append(out, track.Continuation{
			Kind:   track.KindFace,
			FaceID: f.ID,
			Quad:   rectQuad(f.Bounds),
		})
	}
	for _, c := range codes {
		out = append(out, track.Continuation{
			Kind: track.KindCode,
			Key:  c.Value,
			Quad: c.Corners,
		})
	}
	for _, r := range regions {
		out = append(out, track.Continuation{
			Kind: track.KindRegion,
			Key:  r.ID,
			Quad: r.Quad,
		})
	}
	return out
}

// rectQuad expands an axis-aligned box into corner form.
func rectQuad(r geometry.Rect) geometry.Quad {
	return geometry.Quad{
		TopLeft:     r.Min,
		TopRight:    geometry.Point{X: r.Max.X, Y: r.Min.Y},
		BottomLeft:  geometry.Point{X: r.Min.X, Y: r.Max.Y},
		BottomRight: r.Max,
	}
}
