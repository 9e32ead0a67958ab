package device

import (
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

// ProbeEnumerator discovers built-in cameras by sequentially opening
// device indexes. Index scanning is the only portable discovery OpenCV
// offers; the scan stops at the first gap.
type ProbeEnumerator struct {
	// MaxIndex bounds the scan. Zero means the default of 8.
	MaxIndex int
}

// Devices probes indexes 0..MaxIndex and returns the ones that open.
func (p ProbeEnumerator) Devices() ([]Descriptor, error) {
	limit := p.MaxIndex
	if limit <= 0 {
		limit = 8
	}

	var out []Descriptor
	for i := 0; i < limit; i++ {
		capture, err := gocv.OpenVideoCapture(i)
		if err != nil {
			break
		}
		capture.Close()
		out = append(out, Descriptor{
			ID:   strconv.Itoa(i),
			Name: fmt.Sprintf("Camera %d", i),
		})
	}
	return out, nil
}
