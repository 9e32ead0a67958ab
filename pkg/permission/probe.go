package permission

import (
	"os/exec"
	"runtime"
	"sync"

	"gocv.io/x/gocv"
)

// Probe is an Authorizer that models first-use OS permission prompts on
// hosts without a queryable authorization API: the first Request attempts
// to open the capture device, which makes the OS show its prompt. A
// successful open means Granted; a failed open means Denied.
type Probe struct {
	// DeviceID is the capture device index probed on first request.
	DeviceID int

	mu     sync.Mutex
	status Status
}

// NewProbe creates a probe authorizer for the given device index.
func NewProbe(deviceID int) *Probe {
	return &Probe{DeviceID: deviceID}
}

// Status returns the last probed status, Undetermined before the first
// request.
func (p *Probe) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Request probes the device. Runs on a separate goroutine because the OS
// prompt can block the open call for as long as the user deliberates.
func (p *Probe) Request(done func(Status)) {
	go func() {
		result := Denied
		cap, err := gocv.OpenVideoCapture(p.DeviceID)
		if err == nil {
			cap.Close()
			result = Granted
		}

		p.mu.Lock()
		p.status = result
		p.mu.Unlock()
		done(result)
	}()
}

// OpenSettings opens the host's camera privacy settings surface.
func (p *Probe) OpenSettings() error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open",
			"x-apple.systempreferences:com.apple.preference.security?Privacy_Camera").Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", "ms-settings:privacy-webcam").Start()
	default:
		return exec.Command("xdg-open", "settings://privacy").Start()
	}
}
