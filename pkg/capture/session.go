package capture

import (
	"context"

	"github.com/thepian/capturekit/pkg/device"
	"github.com/thepian/capturekit/pkg/source"
)

// Session is an atomically reconfigurable capture session. The embedded
// input-reconfiguration methods satisfy device.Session, so a
// device.Switcher can drive the begin/remove/add/commit sequence.
//
// All mutation must run on the controller's configuration context.
type Session interface {
	// Configured reports whether the session has been configured at
	// least once.
	Configured() bool

	// BeginConfiguration opens an atomic reconfiguration.
	BeginConfiguration()

	// RemoveInputs detaches all inputs inside an open configuration.
	RemoveInputs()

	// AddInput attaches the given device inside an open configuration.
	// On failure the session is left without an input.
	AddInput(device.Descriptor) error

	// CommitConfiguration applies the open configuration.
	CommitConfiguration() error

	// ActiveInput returns the current input device, if any.
	ActiveInput() (device.Descriptor, bool)

	// Attach adds an output. Idempotent per output kind.
	Attach(Output) error

	// Detach removes an output. A no-op when not attached.
	Detach(Output)

	// Outputs returns the currently attached outputs.
	Outputs() []Output

	// OnFrame registers the frame callback. Frames are delivered from
	// the session's own pump goroutine while running.
	OnFrame(func(source.Frame))

	// Start begins frame production. Returns the device's failure when
	// it cannot start; the caller decides what state to remain in.
	Start(ctx context.Context) error

	// Stop halts frame production and releases the device.
	Stop()

	// Running reports whether the session is producing frames.
	Running() bool

	// Still returns the most recent frame for a photo capture. Requires
	// OutputPhoto attached and a running session.
	Still() ([]byte, error)
}
