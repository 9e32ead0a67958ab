package device

import (
	"github.com/pion/mediadevices/pkg/driver"

	// The manager only knows drivers a platform package registered in
	// its init; without this import every query comes back empty.
	_ "github.com/pion/mediadevices/pkg/driver/camera"
)

// DriverEnumerator lists video recorders registered with the
// mediadevices driver manager. On desktop-class hosts this covers
// external and virtual cameras that index probing misses; platform
// driver packages register themselves at import time.
type DriverEnumerator struct{}

// Devices queries the driver manager for video recorder drivers.
func (DriverEnumerator) Devices() ([]Descriptor, error) {
	drivers := driver.GetManager().Query(driver.FilterVideoRecorder())

	out := make([]Descriptor, 0, len(drivers))
	for _, d := range drivers {
		info := d.Info()
		name := info.Label
		if name == "" {
			name = d.ID()
		}
		out = append(out, Descriptor{ID: d.ID(), Name: name})
	}
	return out, nil
}
