package web

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/thepian/capturekit/pkg/capture"
	"github.com/thepian/capturekit/pkg/detect"
	"github.com/thepian/capturekit/pkg/device"
	"github.com/thepian/capturekit/pkg/permission"
	"github.com/thepian/capturekit/pkg/protocol"
	"github.com/thepian/capturekit/pkg/source"
	"github.com/thepian/capturekit/pkg/track"
)

// stubSession satisfies capture.Session with just enough behavior for
// the controller to configure and activate under the monitor server.
type stubSession struct {
	configured bool
	running    bool
	input      *device.Descriptor
	outputs    map[capture.Output]bool
}

func newStubSession() *stubSession {
	return &stubSession{outputs: make(map[capture.Output]bool)}
}

func (s *stubSession) Configured() bool    { return s.configured }
func (s *stubSession) BeginConfiguration() {}
func (s *stubSession) RemoveInputs()       { s.input = nil }

func (s *stubSession) AddInput(d device.Descriptor) error {
	s.input = &d
	return nil
}

func (s *stubSession) CommitConfiguration() error {
	s.configured = true
	return nil
}

func (s *stubSession) ActiveInput() (device.Descriptor, bool) {
	if s.input == nil {
		return device.Descriptor{}, false
	}
	return *s.input, true
}

func (s *stubSession) Attach(o capture.Output) error {
	s.outputs[o] = true
	return nil
}

func (s *stubSession) Detach(o capture.Output) { delete(s.outputs, o) }

func (s *stubSession) Outputs() []capture.Output {
	var out []capture.Output
	for o := range s.outputs {
		out = append(out, o)
	}
	return out
}

func (s *stubSession) OnFrame(func(source.Frame)) {}

func (s *stubSession) Start(context.Context) error {
	s.running = true
	return nil
}

func (s *stubSession) Stop()         { s.running = false }
func (s *stubSession) Running() bool { return s.running }

func (s *stubSession) Still() ([]byte, error) {
	if !s.running {
		return nil, capture.ErrNotRunning
	}
	return []byte("jpeg"), nil
}

func newTestServer(t *testing.T, status permission.Status) (*Server, *capture.Controller) {
	t.Helper()

	store := track.NewStore()
	sched, err := detect.NewScheduler(detect.DefaultConfig(), store, nil, nil, nil)
	if err != nil {
		t.Fatalf("Failed to create scheduler: %v", err)
	}
	gate := permission.NewGate(permission.NewStatic(status))
	enum := device.Static{List: []device.Descriptor{{ID: "0", Name: "Built-in Camera"}}}

	controller, err := capture.NewController(capture.FeatureFlags{Code: true}, gate,
		map[capture.Mode]capture.Session{capture.ModeStandard: newStubSession()},
		sched, store, enum)
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}
	t.Cleanup(func() { controller.Close() })

	return NewServer("0", controller, gate, store), controller
}

func TestServer_PermissionMessage(t *testing.T) {
	s, _ := newTestServer(t, permission.Denied)

	msg, err := s.permissionMessage(permission.Denied)
	if err != nil {
		t.Fatalf("permissionMessage() error: %v", err)
	}
	if msg.Type != protocol.TypePermission {
		t.Errorf("Type = %s, want %s", msg.Type, protocol.TypePermission)
	}

	data, err := msg.GetPermissionData()
	if err != nil {
		t.Fatalf("GetPermissionData() error: %v", err)
	}
	if data.Status != "denied" {
		t.Errorf("Status = %q, want %q", data.Status, "denied")
	}
	if data.Advice != "open-settings" {
		t.Errorf("Advice = %q, want %q", data.Advice, "open-settings")
	}
}

// A permission request over the API resolves through the gate and feeds
// the outcome back into the event stream and the state machine.
func TestServer_PermissionRequestActivatesController(t *testing.T) {
	s, controller := newTestServer(t, permission.Granted)
	if err := controller.Configure(); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/permission/request", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := controller.State(); got != capture.StateActive {
		t.Errorf("State() = %s, want %s after granted request", got, capture.StateActive)
	}
}
