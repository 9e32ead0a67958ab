package device

import "testing"

// The driver manager is only useful once a platform camera package has
// registered its adapters; enumeration must then succeed even on hosts
// with no cameras attached, and every descriptor it yields must be
// addressable.
func TestDriverEnumerator_Devices(t *testing.T) {
	devices, err := DriverEnumerator{}.Devices()
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	for _, d := range devices {
		if d.ID == "" {
			t.Errorf("driver device with empty ID: %+v", d)
		}
		if d.Name == "" {
			t.Errorf("driver device %q with empty name", d.ID)
		}
	}
}
