// Package capture owns the live capture session: the state machine gated
// by permission and app lifecycle, the output configuration derived from
// feature flags, and the serialized configuration context that all
// session mutation runs on.
package capture

import "errors"

// Sentinel errors for session operations.
var (
	// ErrNoInput is returned when a session is started without an input
	// device.
	ErrNoInput = errors.New("capture: no input device")

	// ErrNotRunning is returned for operations that need a live session.
	ErrNotRunning = errors.New("capture: session not running")

	// ErrOutputNotAttached is returned when an operation needs an output
	// that the current configuration did not attach.
	ErrOutputNotAttached = errors.New("capture: output not attached")

	// ErrClosed is returned for commands issued after the controller is
	// torn down.
	ErrClosed = errors.New("capture: controller closed")

	// ErrNotAuthorized is returned when activation is attempted without
	// camera permission.
	ErrNotAuthorized = errors.New("capture: camera access not authorized")

	// ErrNotConfigured is returned for operations that need a configured
	// session.
	ErrNotConfigured = errors.New("capture: session not configured")
)

// FeatureFlags selects which capture capabilities are configured.
// Immutable per configuration: the controller reads it on explicit
// (re)configuration, never polls it.
type FeatureFlags struct {
	// Face enables face detection.
	Face bool

	// Document enables generic document-region detection.
	Document bool

	// NativeDocument enables the platform-native document camera mode.
	NativeDocument bool

	// Code enables code/barcode detection.
	Code bool

	// Reality enables the augmented "reality" camera mode.
	Reality bool

	// Photo enables the still photo output.
	Photo bool

	// Movie enables the movie recording output.
	Movie bool
}

// Metadata reports whether any metadata-based detection output is wanted.
func (f FeatureFlags) Metadata() bool {
	return f.Face || f.Document || f.Code
}

// State is the controller's lifecycle state.
type State int

const (
	// StateUnconfigured is the initial state: no outputs attached.
	StateUnconfigured State = iota
	// StateConfigured means outputs are attached but the session is not
	// running.
	StateConfigured
	// StateActive means the session is running and frames flow.
	StateActive
	// StateInactive means a previously active session was stopped by a
	// lifecycle event or pause.
	StateInactive
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Mode is the camera mode. Modes are mutually exclusive: only one mode's
// session runs at a time.
type Mode int

const (
	// ModeStandard is the regular capture camera.
	ModeStandard Mode = iota
	// ModeReality is the augmented camera mode.
	ModeReality
	// ModeNativeDocument is the platform-native document camera.
	ModeNativeDocument
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeReality:
		return "reality"
	case ModeNativeDocument:
		return "document"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as used in the monitor API.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "standard":
		return ModeStandard, true
	case "reality":
		return ModeReality, true
	case "document":
		return ModeNativeDocument, true
	default:
		return ModeStandard, false
	}
}

// Event is an application lifecycle event driving state transitions.
type Event int

const (
	// EventBecameActive fires when the app enters the foreground.
	EventBecameActive Event = iota
	// EventBecameInactive fires when the app loses foreground focus.
	EventBecameInactive
	// EventEnteredBackground fires when the app is fully backgrounded.
	EventEnteredBackground
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventBecameActive:
		return "became-active"
	case EventBecameInactive:
		return "became-inactive"
	case EventEnteredBackground:
		return "entered-background"
	default:
		return "unknown"
	}
}

// Output identifies an attachable session output.
type Output int

const (
	// OutputMetadata feeds frames to the detection scheduler.
	OutputMetadata Output = iota
	// OutputPhoto enables still capture.
	OutputPhoto
	// OutputMovie enables movie recording.
	OutputMovie
)

// String returns the output name.
func (o Output) String() string {
	switch o {
	case OutputMetadata:
		return "metadata"
	case OutputPhoto:
		return "photo"
	case OutputMovie:
		return "movie"
	default:
		return "unknown"
	}
}

// OutputsFor derives the attached-output set from a flag configuration.
// Metadata detection is attached if any detection flag is set.
func OutputsFor(flags FeatureFlags) []Output {
	var out []Output
	if flags.Metadata() {
		out = append(out, OutputMetadata)
	}
	if flags.Photo {
		out = append(out, OutputPhoto)
	}
	if flags.Movie {
		out = append(out, OutputMovie)
	}
	return out
}
