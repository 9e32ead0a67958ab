package device

import (
	"errors"
	"testing"
)

// fakeSession records the reconfiguration sequence.
type fakeSession struct {
	configured bool
	active     *Descriptor

	inConfig   bool
	sequence   []string
	rejectNext error
}

func (f *fakeSession) Configured() bool { return f.configured }

func (f *fakeSession) BeginConfiguration() {
	f.inConfig = true
	f.sequence = append(f.sequence, "begin")
}

func (f *fakeSession) RemoveInputs() {
	f.active = nil
	f.sequence = append(f.sequence, "remove")
}

func (f *fakeSession) AddInput(d Descriptor) error {
	f.sequence = append(f.sequence, "add:"+d.ID)
	if f.rejectNext != nil {
		err := f.rejectNext
		f.rejectNext = nil
		return err
	}
	f.active = &d
	return nil
}

func (f *fakeSession) CommitConfiguration() error {
	f.inConfig = false
	f.sequence = append(f.sequence, "commit")
	return nil
}

func (f *fakeSession) ActiveInput() (Descriptor, bool) {
	if f.active == nil {
		return Descriptor{}, false
	}
	return *f.active, true
}

func twoCameras() Static {
	return Static{List: []Descriptor{
		{ID: "0", Name: "Camera 0"},
		{ID: "1", Name: "Camera 1"},
	}}
}

func TestSwitcher_SwitchTo_Sequence(t *testing.T) {
	session := &fakeSession{configured: true}
	s := NewSwitcher(session, twoCameras())

	if err := s.SwitchTo(Descriptor{ID: "1", Name: "Camera 1"}); err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}

	want := []string{"begin", "remove", "add:1", "commit"}
	if len(session.sequence) != len(want) {
		t.Fatalf("Expected sequence %v, got %v", want, session.sequence)
	}
	for i := range want {
		if session.sequence[i] != want[i] {
			t.Fatalf("Expected sequence %v, got %v", want, session.sequence)
		}
	}

	active, ok := session.ActiveInput()
	if !ok || active.ID != "1" {
		t.Errorf("Expected active input 1, got %v ok=%v", active, ok)
	}
}

func TestSwitcher_SwitchTo_RejectedInputLeavesNoInput(t *testing.T) {
	session := &fakeSession{configured: true}
	session.active = &Descriptor{ID: "0", Name: "Camera 0"}
	session.rejectNext = errors.New("device busy")

	s := NewSwitcher(session, twoCameras())
	err := s.SwitchTo(Descriptor{ID: "1", Name: "Camera 1"})
	if err == nil {
		t.Fatal("Expected error from rejected input")
	}

	// The old input must not be silently kept: no input at all.
	if _, ok := session.ActiveInput(); ok {
		t.Error("Expected session to have no input after rejected switch")
	}
	// The configuration was still committed, not left open.
	if session.inConfig {
		t.Error("Expected configuration to be committed after failure")
	}
}

func TestSwitcher_SwitchTo_Unconfigured(t *testing.T) {
	session := &fakeSession{configured: false}
	s := NewSwitcher(session, twoCameras())

	err := s.SwitchTo(Descriptor{ID: "0"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
	if len(session.sequence) != 0 {
		t.Errorf("Expected no reconfiguration attempts, got %v", session.sequence)
	}
}

func TestSwitcher_SwitchToNext_CyclesAndWraps(t *testing.T) {
	session := &fakeSession{configured: true}
	session.active = &Descriptor{ID: "0", Name: "Camera 0"}
	s := NewSwitcher(session, twoCameras())

	if err := s.SwitchToNext(); err != nil {
		t.Fatalf("First SwitchToNext failed: %v", err)
	}
	active, _ := session.ActiveInput()
	if active.ID != "1" {
		t.Errorf("Expected switch to camera 1, got %s", active.ID)
	}

	// Calling again wraps back to the original device.
	if err := s.SwitchToNext(); err != nil {
		t.Fatalf("Second SwitchToNext failed: %v", err)
	}
	active, _ = session.ActiveInput()
	if active.ID != "0" {
		t.Errorf("Expected wrap back to camera 0, got %s", active.ID)
	}
}

func TestSwitcher_SwitchToNext_SingleDeviceNoOp(t *testing.T) {
	session := &fakeSession{configured: true}
	session.active = &Descriptor{ID: "0", Name: "Camera 0"}
	s := NewSwitcher(session, Static{List: []Descriptor{{ID: "0", Name: "Camera 0"}}})

	if err := s.SwitchToNext(); err != nil {
		t.Fatalf("SwitchToNext failed: %v", err)
	}
	if len(session.sequence) != 0 {
		t.Errorf("Expected no reconfiguration for single device, got %v", session.sequence)
	}
}

func TestMerged_Deduplicates(t *testing.T) {
	a := Static{List: []Descriptor{{ID: "0", Name: "Built-in"}}}
	b := Static{List: []Descriptor{{ID: "0", Name: "Duplicate"}, {ID: "ext", Name: "External"}}}

	devices, err := Merged{Enumerators: []Enumerator{a, b}}.Devices()
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d: %v", len(devices), devices)
	}
	if devices[0].Name != "Built-in" {
		t.Errorf("Expected first-wins dedup, got %v", devices[0])
	}
}
