package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thepian/capturekit/internal/log"
	"github.com/thepian/capturekit/pkg/detect"
	"github.com/thepian/capturekit/pkg/device"
	"github.com/thepian/capturekit/pkg/geometry"
	"github.com/thepian/capturekit/pkg/permission"
	"github.com/thepian/capturekit/pkg/source"
	"github.com/thepian/capturekit/pkg/track"
)

// Controller is the capture state machine. All session and output
// mutation runs serialized on a single configuration goroutine; commands
// from any goroutine are posted to it and waited on, so reconfiguration
// never races with lifecycle transitions.
type Controller struct {
	flags    FeatureFlags
	gate     *permission.Gate
	sessions map[Mode]Session
	sched    *detect.Scheduler
	store    *track.Store
	enum     device.Enumerator

	ops  chan func()
	quit chan struct{}
	done chan struct{}

	// stateMu guards the fields below for readers; writes happen only on
	// the ops goroutine.
	stateMu sync.RWMutex
	state   State
	mode    Mode
	closed  bool

	observerMu sync.RWMutex
	onState    []func(State)
	onFrame    []func(source.Frame)
}

// NewController wires the controller over its collaborators. sessions
// maps each supported mode to its session; ModeStandard is required.
func NewController(flags FeatureFlags, gate *permission.Gate, sessions map[Mode]Session, sched *detect.Scheduler, store *track.Store, enum device.Enumerator) (*Controller, error) {
	if sessions[ModeStandard] == nil {
		return nil, fmt.Errorf("capture: no session for mode %s", ModeStandard)
	}

	c := &Controller{
		flags:    flags,
		gate:     gate,
		sessions: sessions,
		sched:    sched,
		store:    store,
		enum:     enum,
		ops:      make(chan func(), 16),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		state:    StateUnconfigured,
		mode:     ModeStandard,
	}
	go c.run()
	return c, nil
}

// run is the configuration context: commands execute one at a time, in
// arrival order.
func (c *Controller) run() {
	for {
		select {
		case fn := <-c.ops:
			fn()
		case <-c.quit:
			close(c.done)
			return
		}
	}
}

// do posts fn to the configuration context and waits for it.
func (c *Controller) do(fn func() error) error {
	c.stateMu.RLock()
	closed := c.closed
	c.stateMu.RUnlock()
	if closed {
		return ErrClosed
	}

	errc := make(chan error, 1)
	select {
	case c.ops <- func() { errc <- fn() }:
	case <-c.done:
		return ErrClosed
	}

	select {
	case err := <-errc:
		return err
	case <-c.done:
		return ErrClosed
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Mode returns the current camera mode.
func (c *Controller) Mode() Mode {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.mode
}

// OnStateChange registers an observer for lifecycle transitions. The
// callback runs on the configuration goroutine; keep it short.
func (c *Controller) OnStateChange(fn func(State)) {
	c.observerMu.Lock()
	c.onState = append(c.onState, fn)
	c.observerMu.Unlock()
}

// OnFrame registers an observer for live frames, e.g. a preview stream.
// Observers run on the session's pump goroutine after detection dispatch.
func (c *Controller) OnFrame(fn func(source.Frame)) {
	c.observerMu.Lock()
	c.onFrame = append(c.onFrame, fn)
	c.observerMu.Unlock()
}

// Configure attaches the current mode's session and the outputs the flag
// configuration calls for. Safe to call repeatedly: already-attached
// outputs stay attached, and outputs the flags no longer want detach.
func (c *Controller) Configure() error {
	return c.do(func() error { return c.configure(c.session()) })
}

// HandleLifecycle feeds an application lifecycle event into the state
// machine. Becoming active resumes a configured session; losing focus or
// backgrounding stops it and forgets all tracked entities.
func (c *Controller) HandleLifecycle(ev Event) error {
	return c.do(func() error {
		log.Debug("lifecycle event", "event", ev.String(), "state", c.state.String())
		switch ev {
		case EventBecameActive:
			if c.state == StateConfigured || c.state == StateInactive {
				return c.activate()
			}
		case EventBecameInactive, EventEnteredBackground:
			if c.state == StateActive {
				c.deactivate()
			}
		}
		return nil
	})
}

// Resume explicitly starts a configured or paused session.
func (c *Controller) Resume() error {
	return c.do(func() error {
		if c.state == StateUnconfigured {
			return ErrNotConfigured
		}
		if c.state == StateActive {
			return nil
		}
		return c.activate()
	})
}

// Pause explicitly stops an active session without unconfiguring it.
func (c *Controller) Pause() error {
	return c.do(func() error {
		if c.state == StateActive {
			c.deactivate()
		}
		return nil
	})
}

// SetMode switches the camera mode. The current mode's session fully
// stops and all tracked entities are forgotten before the new mode's
// session configures and, if the controller was active, starts. Modes
// never run concurrently.
func (c *Controller) SetMode(m Mode) error {
	return c.do(func() error {
		if m == c.mode {
			return nil
		}
		next := c.sessions[m]
		if next == nil {
			return fmt.Errorf("capture: no session for mode %s", m)
		}

		wasActive := c.state == StateActive
		if wasActive {
			c.deactivate()
		}
		c.store.Forget()

		c.setMode(m)
		log.Info("camera mode changed", "mode", m.String())

		if err := c.configure(next); err != nil {
			return err
		}
		if wasActive {
			return c.activate()
		}
		return nil
	})
}

// SwitchCamera atomically replaces the active session's input with the
// given device.
func (c *Controller) SwitchCamera(d device.Descriptor) error {
	return c.do(func() error {
		return device.NewSwitcher(c.session(), c.enum).SwitchTo(d)
	})
}

// NextCamera cycles to the next available device in enumeration order.
func (c *Controller) NextCamera() error {
	return c.do(func() error {
		return device.NewSwitcher(c.session(), c.enum).SwitchToNext()
	})
}

// ListDevices enumerates the currently available capture devices.
func (c *Controller) ListDevices() ([]device.Descriptor, error) {
	return c.enum.Devices()
}

// ActiveInput returns the current mode session's input device, if any.
func (c *Controller) ActiveInput() (device.Descriptor, bool) {
	var d device.Descriptor
	var ok bool
	if err := c.do(func() error {
		d, ok = c.session().ActiveInput()
		return nil
	}); err != nil {
		return device.Descriptor{}, false
	}
	return d, ok
}

// CapturePhoto grabs a still from the active session. With document
// detection enabled and a region currently tracked, the still is
// perspective-corrected to that region before returning.
func (c *Controller) CapturePhoto() ([]byte, error) {
	var photo []byte
	err := c.do(func() error {
		if c.state != StateActive {
			return ErrNotRunning
		}
		jpeg, err := c.session().Still()
		if err != nil {
			return err
		}

		if c.flags.Document {
			if regions := c.store.Snapshot().Regions; len(regions) > 0 {
				corrected, err := geometry.Rectify(jpeg, largestRegion(regions).Quad)
				if err != nil {
					log.Warn("perspective correction failed, returning raw still", "error", err)
				} else {
					jpeg = corrected
				}
			}
		}
		photo = jpeg
		return nil
	})
	return photo, err
}

// largestRegion picks the tracked region with the greatest extent area.
// Snapshot order is not stable, so photo correction needs a fixed target;
// ties break on the region ID.
func largestRegion(regions []track.Region) track.Region {
	best := regions[0]
	bestArea := regionArea(best)
	for _, r := range regions[1:] {
		a := regionArea(r)
		if a > bestArea || (a == bestArea && r.ID < best.ID) {
			best, bestArea = r, a
		}
	}
	return best
}

func regionArea(r track.Region) float64 {
	ext := r.Quad.Extent()
	return ext.Width() * ext.Height()
}

// RequestAccess resolves camera permission through the gate, prompting at
// most once, then reports the outcome to done. When access resolves to a
// permitting status and the controller holds a configured session, it
// activates.
func (c *Controller) RequestAccess(done func(permission.Status)) {
	c.gate.Request(func(status permission.Status) {
		if status.Permits() {
			if err := c.Resume(); err != nil && err != ErrNotConfigured && err != ErrClosed {
				log.Warn("resume after authorization failed", "error", err)
			}
		}
		if done != nil {
			done(status)
		}
	})
}

// Close stops the session, releases the detectors, and shuts the
// configuration context down. Further commands return ErrClosed.
func (c *Controller) Close() error {
	c.stateMu.Lock()
	if c.closed {
		c.stateMu.Unlock()
		return nil
	}
	c.closed = true
	c.stateMu.Unlock()

	errc := make(chan error, 1)
	c.ops <- func() {
		if c.state == StateActive {
			c.deactivate()
		}
		errc <- c.sched.Close()
		close(c.quit)
	}
	err := <-errc
	<-c.done
	return err
}

// session returns the current mode's session. Ops-goroutine only.
func (c *Controller) session() Session {
	return c.sessions[c.mode]
}

// configure runs the output reconciliation for one session and moves an
// unconfigured controller to StateConfigured. Ops-goroutine only.
func (c *Controller) configure(s Session) error {
	wanted := OutputsFor(c.flags)

	if !s.Configured() {
		s.BeginConfiguration()
		s.RemoveInputs()
		if err := c.addDefaultInput(s); err != nil {
			// Commit regardless: the session ends configured but
			// input-less, matching an atomic switch failure.
			s.CommitConfiguration()
			return err
		}
		if err := s.CommitConfiguration(); err != nil {
			return fmt.Errorf("capture: commit configuration: %w", err)
		}
	}

	want := make(map[Output]bool, len(wanted))
	for _, o := range wanted {
		want[o] = true
	}
	for _, o := range s.Outputs() {
		if !want[o] {
			s.Detach(o)
		}
	}
	for _, o := range wanted {
		if err := s.Attach(o); err != nil {
			return err
		}
	}

	s.OnFrame(func(frame source.Frame) {
		c.sched.OnFrame(frame)

		c.observerMu.RLock()
		observers := c.onFrame
		c.observerMu.RUnlock()
		for _, fn := range observers {
			fn(frame)
		}
	})

	if c.state == StateUnconfigured {
		c.setState(StateConfigured)
	}
	return nil
}

// addDefaultInput attaches the first enumerated device. Ops-goroutine
// only.
func (c *Controller) addDefaultInput(s Session) error {
	devices, err := c.enum.Devices()
	if err != nil {
		return fmt.Errorf("capture: enumerate devices: %w", err)
	}
	if len(devices) == 0 {
		return device.ErrNoDevices
	}
	return s.AddInput(devices[0])
}

// activate starts the current session. Activation is permission-gated:
// without a permitting status the controller stays put and reports
// ErrNotAuthorized. A device start failure likewise leaves the state
// unchanged. Ops-goroutine only.
func (c *Controller) activate() error {
	if status := c.gate.Query(); !status.Permits() {
		log.Warn("activation blocked by camera permission", "status", status.String())
		return ErrNotAuthorized
	}

	c.sched.Prime(time.Now())
	if err := c.session().Start(context.Background()); err != nil {
		log.Error("session start failed", "error", err)
		return err
	}
	c.setState(StateActive)
	return nil
}

// deactivate stops the session and forgets all tracked entities so no
// stale overlay survives into the next activation. Ops-goroutine only.
func (c *Controller) deactivate() {
	c.session().Stop()
	c.store.Forget()
	c.setState(StateInactive)
}

func (c *Controller) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()

	log.Info("capture state changed", "state", s.String())
	c.observerMu.RLock()
	observers := c.onState
	c.observerMu.RUnlock()
	for _, fn := range observers {
		fn(s)
	}
}

func (c *Controller) setMode(m Mode) {
	c.stateMu.Lock()
	c.mode = m
	c.stateMu.Unlock()
}
