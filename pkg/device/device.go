// Package device enumerates physical capture devices and switches the
// active input of a configured capture session atomically.
package device

import "errors"

// Sentinel errors for device operations.
var (
	// ErrNotConfigured is returned when a switch is attempted against a
	// session that has never been configured. That is caller misuse, not
	// a recoverable condition.
	ErrNotConfigured = errors.New("device: session not configured")

	// ErrNoDevices is returned when enumeration finds nothing to switch to.
	ErrNoDevices = errors.New("device: no capture devices available")
)

// Descriptor identifies a capture device. Never mutated after creation.
type Descriptor struct {
	// ID is the device's stable unique identifier.
	ID string

	// Name is the human-readable device name.
	Name string
}

// Enumerator lists the currently available capture devices.
type Enumerator interface {
	// Devices returns the available devices in a stable order.
	Devices() ([]Descriptor, error)
}

// Static is an Enumerator over a fixed device list. Used by tests and by
// deployments with a known hardware inventory.
type Static struct {
	List []Descriptor
}

// Devices returns the fixed list.
func (s Static) Devices() ([]Descriptor, error) {
	out := make([]Descriptor, len(s.List))
	copy(out, s.List)
	return out, nil
}

// Merged combines several enumerators, deduplicating by ID in first-wins
// order. Lets built-in probing and desktop driver enumeration coexist.
type Merged struct {
	Enumerators []Enumerator
}

// Devices returns the merged device list.
func (m Merged) Devices() ([]Descriptor, error) {
	seen := make(map[string]bool)
	var out []Descriptor
	for _, e := range m.Enumerators {
		devices, err := e.Devices()
		if err != nil {
			// One backend failing should not hide the others.
			continue
		}
		for _, d := range devices {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			out = append(out, d)
		}
	}
	return out, nil
}
