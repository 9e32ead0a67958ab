package detect

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/thepian/capturekit/pkg/source"
	"github.com/thepian/capturekit/pkg/track"
)

// fakeClock gives tests full control over the scheduler's notion of now.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// mockFaceDetector counts invocations and optionally blocks until released.
type mockFaceDetector struct {
	mu      sync.Mutex
	detects int
	tracks  int
	result  []track.Face
	err     error
	block   chan struct{} // Detect blocks on this when non-nil
}

func (m *mockFaceDetector) Detect(frame source.Frame) ([]track.Face, error) {
	m.mu.Lock()
	m.detects++
	block := m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	return m.result, m.err
}

func (m *mockFaceDetector) Track(frame source.Frame, prev []track.Continuation) ([]track.Face, error) {
	m.mu.Lock()
	m.tracks++
	m.mu.Unlock()
	return m.result, m.err
}

func (m *mockFaceDetector) Close() error { return nil }

func (m *mockFaceDetector) counts() (detects, tracks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detects, m.tracks
}

func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for s.Busy() {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for pass to complete")
		case <-time.After(time.Millisecond):
		}
	}
}

func newTestScheduler(t *testing.T, store *track.Store, faces FaceDetector) (*Scheduler, *fakeClock) {
	t.Helper()
	s, err := NewScheduler(DefaultConfig(), store, faces, nil, nil)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	clock := newFakeClock()
	s.now = clock.Now
	s.Prime(clock.Now())
	return s, clock
}

func TestScheduler_DetectionPassWhenDue(t *testing.T) {
	store := track.NewStore()
	det := &mockFaceDetector{result: []track.Face{{ID: 1}}}
	s, _ := newTestScheduler(t, store, det)

	if !s.OnFrame(source.Frame{Seq: 1}) {
		t.Fatal("Expected a pass to start on a primed scheduler")
	}
	waitIdle(t, s)

	detects, tracks := det.counts()
	if detects != 1 || tracks != 0 {
		t.Errorf("Expected 1 detection and 0 tracking passes, got %d/%d", detects, tracks)
	}
	if snap := store.Snapshot(); len(snap.Faces) != 1 {
		t.Errorf("Expected one face in store, got %d", len(snap.Faces))
	}
}

func TestScheduler_FrameBeforeCadenceDoesNothing(t *testing.T) {
	store := track.NewStore()
	det := &mockFaceDetector{result: []track.Face{{ID: 1}}}
	s, _ := newTestScheduler(t, store, det)

	// Detection pass advances the detect deadline; the tracking deadline
	// is still due, so the second frame runs a tracking pass and
	// advances it too.
	s.OnFrame(source.Frame{Seq: 1})
	waitIdle(t, s)
	s.OnFrame(source.Frame{Seq: 2})
	waitIdle(t, s)

	// Now neither deadline has expired: the next frame is skipped.
	if s.OnFrame(source.Frame{Seq: 3}) {
		t.Error("Expected no pass before either cadence deadline")
	}
	detects, tracks := det.counts()
	if detects != 1 || tracks != 1 {
		t.Errorf("Expected counts to stay at 1/1, got %d/%d", detects, tracks)
	}
}

func TestScheduler_ReentrancyGuard(t *testing.T) {
	store := track.NewStore()
	det := &mockFaceDetector{
		result: []track.Face{{ID: 1}},
		block:  make(chan struct{}),
	}
	s, clock := newTestScheduler(t, store, det)

	if !s.OnFrame(source.Frame{Seq: 1}) {
		t.Fatal("Expected first frame to start a pass")
	}

	// Let every subsequent frame be detection-due: the busy guard alone
	// must hold them back.
	clock.Advance(10 * time.Second)
	for i := 0; i < 25; i++ {
		if s.OnFrame(source.Frame{Seq: uint64(2 + i)}) {
			t.Fatal("Expected no pass to start while one is in flight")
		}
	}

	close(det.block)
	waitIdle(t, s)

	if detects, _ := det.counts(); detects != 1 {
		t.Errorf("Expected exactly one detection pass, got %d", detects)
	}
}

func TestScheduler_TrackingBetweenDetections(t *testing.T) {
	store := track.NewStore()
	det := &mockFaceDetector{result: []track.Face{{ID: 1}}}
	s, clock := newTestScheduler(t, store, det)

	// First pass is a detection and seeds continuations.
	s.OnFrame(source.Frame{Seq: 1})
	waitIdle(t, s)

	// Past the track interval but short of the detect interval.
	clock.Advance(DefaultConfig().TrackInterval + 10*time.Millisecond)
	if !s.OnFrame(source.Frame{Seq: 2}) {
		t.Fatal("Expected a tracking pass to start")
	}
	waitIdle(t, s)

	detects, tracks := det.counts()
	if detects != 1 || tracks != 1 {
		t.Errorf("Expected 1 detection and 1 tracking pass, got %d/%d", detects, tracks)
	}
}

func TestScheduler_DetectionPrecedesTracking(t *testing.T) {
	store := track.NewStore()
	det := &mockFaceDetector{result: []track.Face{{ID: 1}}}
	s, clock := newTestScheduler(t, store, det)

	s.OnFrame(source.Frame{Seq: 1})
	waitIdle(t, s)

	// Both deadlines expired: the frame runs detection only, never both.
	clock.Advance(10 * time.Second)
	s.OnFrame(source.Frame{Seq: 2})
	waitIdle(t, s)

	detects, tracks := det.counts()
	if detects != 2 || tracks != 0 {
		t.Errorf("Expected detection to win when both are due, got %d/%d", detects, tracks)
	}
}

func TestScheduler_TrackingWithoutContinuationsSkipsDetectors(t *testing.T) {
	store := track.NewStore()
	det := &mockFaceDetector{} // detection yields nothing to continue
	s, clock := newTestScheduler(t, store, det)

	s.OnFrame(source.Frame{Seq: 1})
	waitIdle(t, s)

	clock.Advance(DefaultConfig().TrackInterval + 10*time.Millisecond)
	s.OnFrame(source.Frame{Seq: 2})
	waitIdle(t, s)

	if _, tracks := det.counts(); tracks != 0 {
		t.Errorf("Expected no tracking invocation without continuations, got %d", tracks)
	}
}

func TestScheduler_DetectorErrorMeansNoObservations(t *testing.T) {
	store := track.NewStore()
	// Seed the store so we can observe the error pass clearing it.
	store.Apply(store.Epoch(), []track.Face{{ID: 9}}, nil, nil)

	det := &mockFaceDetector{err: errors.New("backend crashed")}
	s, clock := newTestScheduler(t, store, det)

	s.OnFrame(source.Frame{Seq: 1})
	waitIdle(t, s)

	// The failure is absorbed: empty observations, scheduler keeps going.
	if snap := store.Snapshot(); len(snap.Faces) != 0 {
		t.Errorf("Expected failed pass to yield no observations, got %d faces", len(snap.Faces))
	}

	det.mu.Lock()
	det.err = nil
	det.result = []track.Face{{ID: 1}}
	det.mu.Unlock()

	clock.Advance(10 * time.Second)
	s.OnFrame(source.Frame{Seq: 2})
	waitIdle(t, s)

	if snap := store.Snapshot(); len(snap.Faces) != 1 {
		t.Errorf("Expected the next pass to proceed normally, got %d faces", len(snap.Faces))
	}
}

func TestScheduler_ForgetInvalidatesInFlightPass(t *testing.T) {
	store := track.NewStore()
	det := &mockFaceDetector{
		result: []track.Face{{ID: 1}},
		block:  make(chan struct{}),
	}
	s, _ := newTestScheduler(t, store, det)

	s.OnFrame(source.Frame{Seq: 1})

	// Session went inactive mid-pass: the pass completes but its result
	// must be discarded.
	store.Forget()
	close(det.block)
	waitIdle(t, s)

	if !store.Empty() {
		t.Error("Expected in-flight pass result to be discarded after Forget")
	}
	if got := store.Continuations(); len(got) != 0 {
		t.Errorf("Expected no continuations after Forget, got %d", len(got))
	}
}

func TestScheduler_Prime_MakesDetectionImmediatelyDue(t *testing.T) {
	store := track.NewStore()
	det := &mockFaceDetector{result: []track.Face{{ID: 1}}}
	s, clock := newTestScheduler(t, store, det)

	s.OnFrame(source.Frame{Seq: 1})
	waitIdle(t, s)

	// Without priming the next frame would wait out the detect interval.
	s.Prime(clock.Now())
	if !s.OnFrame(source.Frame{Seq: 2}) {
		t.Error("Expected detection to be due immediately after Prime")
	}
	waitIdle(t, s)

	if detects, _ := det.counts(); detects != 2 {
		t.Errorf("Expected two detection passes, got %d", detects)
	}
}

func TestScheduler_OnUpdate(t *testing.T) {
	store := track.NewStore()
	det := &mockFaceDetector{result: []track.Face{{ID: 1}}}
	s, _ := newTestScheduler(t, store, det)

	var mu sync.Mutex
	var snaps []track.Snapshot
	s.OnUpdate(func(snap track.Snapshot) {
		mu.Lock()
		snaps = append(snaps, snap)
		mu.Unlock()
	})

	s.OnFrame(source.Frame{Seq: 1})
	waitIdle(t, s)

	mu.Lock()
	defer mu.Unlock()
	if len(snaps) != 1 || len(snaps[0].Faces) != 1 {
		t.Errorf("Expected one update with one face, got %+v", snaps)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("Expected default config to validate, got %v", errs)
	}

	cfg = RelaxedConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("Expected relaxed config to validate, got %v", errs)
	}

	bad := Config{DetectInterval: 100 * time.Millisecond, TrackInterval: 500 * time.Millisecond}
	if errs := bad.Validate(); len(errs) == 0 {
		t.Error("Expected error when track interval exceeds detect interval")
	}

	zero := Config{}
	if errs := zero.Validate(); len(errs) == 0 {
		t.Error("Expected errors for zero intervals")
	}
}
