// Capture device lister - enumerates the cameras visible to the capture
// daemon.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/thepian/capturekit/internal/config"
	"github.com/thepian/capturekit/internal/log"
	"github.com/thepian/capturekit/pkg/device"
)

func main() {
	maxIndex := flag.Int("max", 4, "Highest capture index to probe")
	probeOnly := flag.Bool("probe-only", false, "Skip desktop driver enumeration")
	flag.Parse()

	log.Init(config.LogLevel())

	enum := device.Merged{Enumerators: []device.Enumerator{
		device.ProbeEnumerator{MaxIndex: *maxIndex},
	}}
	if !*probeOnly {
		enum.Enumerators = append(enum.Enumerators, device.DriverEnumerator{})
	}

	devices, err := enum.Devices()
	if err != nil {
		fmt.Printf("❌ Enumeration failed: %v\n", err)
		os.Exit(1)
	}
	if len(devices) == 0 {
		fmt.Println("🚫 No capture devices found")
		os.Exit(1)
	}

	fmt.Printf("📷 Found %d capture device(s)\n\n", len(devices))
	for _, d := range devices {
		fmt.Printf("   %-12s %s\n", d.ID, d.Name)
	}
}
