package permission

import "sync"

// Static is an Authorizer with a fixed, flippable status. Used by tests
// and by trusted daemons that run without a platform prompt.
type Static struct {
	mu     sync.Mutex
	status Status

	// PromptResult is the status a Request resolves to when the current
	// status is Undetermined. Defaults to Granted.
	PromptResult Status

	// OpenedSettings counts OpenSettings calls.
	OpenedSettings int
}

// NewStatic creates a static authorizer with the given status.
func NewStatic(status Status) *Static {
	return &Static{status: status, PromptResult: Granted}
}

// Status returns the current status.
func (s *Static) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus changes the status.
func (s *Static) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Request resolves to PromptResult and records it as the new status.
func (s *Static) Request(done func(Status)) {
	s.mu.Lock()
	s.status = s.PromptResult
	result := s.status
	s.mu.Unlock()
	done(result)
}

// OpenSettings records the call.
func (s *Static) OpenSettings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.OpenedSettings++
	return nil
}
