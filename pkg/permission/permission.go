// Package permission gates camera use behind the host platform's
// authorization state. Denial is a state, not an error: callers observe
// the tri-state result and the advice hint, and route the user to system
// settings when a prompt is no longer possible.
package permission

// Status is the host platform's camera authorization state.
type Status int

const (
	// Undetermined means the user has never been prompted.
	Undetermined Status = iota
	// Granted means camera use is allowed.
	Granted
	// Denied means the user refused; only system settings can change it.
	Denied
	// Restricted means policy (parental/MDM) constrains the camera but
	// still permits use by this process.
	Restricted
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Undetermined:
		return "undetermined"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Restricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// Permits reports whether capture may run under this status.
// Restricted counts the same as Granted: the constraint is outside the
// app's control but does not block use.
func (s Status) Permits() bool {
	return s == Granted || s == Restricted
}

// Advice is the presentation hint derived from the current status.
type Advice int

const (
	// AdviceNone means no user action is needed.
	AdviceNone Advice = iota
	// AdviceRequest means the app should trigger the permission prompt.
	AdviceRequest
	// AdviceOpenSettings means only the system settings surface can
	// change the answer.
	AdviceOpenSettings
)

// String returns the advice name.
func (a Advice) String() string {
	switch a {
	case AdviceNone:
		return "none"
	case AdviceRequest:
		return "request"
	case AdviceOpenSettings:
		return "open-settings"
	default:
		return "unknown"
	}
}

// Authorizer adapts a platform's camera authorization surface.
type Authorizer interface {
	// Status returns the current authorization state without side effects.
	Status() Status

	// Request triggers the platform prompt and reports the resulting
	// status. Implementations may call done from another goroutine.
	Request(done func(Status))

	// OpenSettings routes the user to the system privacy settings.
	OpenSettings() error
}
