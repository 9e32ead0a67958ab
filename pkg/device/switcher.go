package device

import (
	"fmt"

	"github.com/thepian/capturekit/internal/log"
)

// Session is the slice of a capture session the switcher needs: atomic
// input reconfiguration. The capture controller's session satisfies it.
type Session interface {
	// Configured reports whether the session has ever been configured.
	Configured() bool

	// BeginConfiguration opens an atomic reconfiguration.
	BeginConfiguration()

	// RemoveInputs detaches all inputs inside an open configuration.
	RemoveInputs()

	// AddInput attaches the given device inside an open configuration.
	AddInput(Descriptor) error

	// CommitConfiguration applies the open configuration.
	CommitConfiguration() error

	// ActiveInput returns the current input device, if any.
	ActiveInput() (Descriptor, bool)
}

// Switcher changes a session's active input device. All calls must run on
// the session's configuration context; the switcher itself does not
// serialize.
type Switcher struct {
	session Session
	enum    Enumerator
}

// NewSwitcher creates a switcher for the given session and enumerator.
func NewSwitcher(session Session, enum Enumerator) *Switcher {
	return &Switcher{session: session, enum: enum}
}

// ListDevices enumerates the currently available devices.
func (s *Switcher) ListDevices() ([]Descriptor, error) {
	return s.enum.Devices()
}

// SwitchTo replaces the session's input with the given device as one
// begin/remove/add/commit unit. A rejected input leaves the session with
// no input at all rather than silently keeping the old one, and the
// error is returned to the caller.
func (s *Switcher) SwitchTo(d Descriptor) error {
	if !s.session.Configured() {
		return ErrNotConfigured
	}

	s.session.BeginConfiguration()
	s.session.RemoveInputs()
	addErr := s.session.AddInput(d)
	if err := s.session.CommitConfiguration(); err != nil {
		return fmt.Errorf("device: commit configuration: %w", err)
	}
	if addErr != nil {
		log.Warn("input rejected during switch", "device", d.ID, "error", addErr)
		return fmt.Errorf("device: add input %s: %w", d.ID, addErr)
	}

	log.Info("switched capture device", "device", d.ID, "name", d.Name)
	return nil
}

// SwitchToNext cycles to the device after the currently active one in
// enumeration order, wrapping to the first. A no-op when zero or one
// device is available.
func (s *Switcher) SwitchToNext() error {
	if !s.session.Configured() {
		return ErrNotConfigured
	}

	devices, err := s.enum.Devices()
	if err != nil {
		return fmt.Errorf("device: enumerate: %w", err)
	}
	if len(devices) <= 1 {
		return nil
	}

	next := devices[0]
	if active, ok := s.session.ActiveInput(); ok {
		for i, d := range devices {
			if d.ID == active.ID {
				next = devices[(i+1)%len(devices)]
				break
			}
		}
	}
	return s.SwitchTo(next)
}
