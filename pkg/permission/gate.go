package permission

import (
	"sync"

	"github.com/thepian/capturekit/internal/log"
)

// Gate wraps an Authorizer with the prompt-once policy: while a prompt is
// outstanding, further requests join its completion instead of prompting
// again, and a denied status routes to system settings because the
// platform will not re-prompt.
type Gate struct {
	auth Authorizer

	mu        sync.Mutex
	prompting bool
	waiters   []func(Status)
}

// NewGate creates a gate over the given authorizer.
func NewGate(auth Authorizer) *Gate {
	return &Gate{auth: auth}
}

// Query returns the current authorization status. Side-effect-free.
func (g *Gate) Query() Status {
	return g.auth.Status()
}

// Advice returns the presentation hint for the current status.
func (g *Gate) Advice() Advice {
	switch g.Query() {
	case Undetermined:
		return AdviceRequest
	case Denied:
		return AdviceOpenSettings
	default:
		return AdviceNone
	}
}

// Request resolves the authorization state, prompting at most once.
//   - Undetermined: triggers the platform prompt; concurrent requests
//     join the same completion.
//   - Denied: opens system settings and completes immediately with
//     Denied (no re-prompt is possible).
//   - Granted/Restricted: completes immediately.
//
// done may be nil. It may be invoked from another goroutine.
func (g *Gate) Request(done func(Status)) {
	status := g.auth.Status()
	if status != Undetermined {
		if status == Denied {
			if err := g.auth.OpenSettings(); err != nil {
				log.Warn("failed to open privacy settings", "error", err)
			}
		}
		if done != nil {
			done(status)
		}
		return
	}

	g.mu.Lock()
	if done != nil {
		g.waiters = append(g.waiters, done)
	}
	if g.prompting {
		g.mu.Unlock()
		return
	}
	g.prompting = true
	g.mu.Unlock()

	g.auth.Request(func(result Status) {
		g.mu.Lock()
		waiters := g.waiters
		g.waiters = nil
		g.prompting = false
		g.mu.Unlock()

		log.Info("camera authorization resolved", "status", result.String())
		for _, w := range waiters {
			w(result)
		}
	})
}
