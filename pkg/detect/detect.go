// Package detect runs cadence-controlled detection and tracking passes
// over incoming frames. A busy flag guards against overlapping vision
// work: frames that arrive while a pass is in flight are dropped for
// processing, never queued.
package detect

import (
	"github.com/thepian/capturekit/pkg/source"
	"github.com/thepian/capturekit/pkg/track"
)

// FaceDetector finds faces in frames.
type FaceDetector interface {
	// Detect runs a full, stateless detection pass.
	Detect(frame source.Frame) ([]track.Face, error)

	// Track re-locates previously detected faces using continuation
	// requests seeded by the last detection pass.
	Track(frame source.Frame, prev []track.Continuation) ([]track.Face, error)

	// Close releases detector resources.
	Close() error
}

// CodeDetector finds machine-readable codes in frames.
type CodeDetector interface {
	Detect(frame source.Frame) ([]track.Code, error)
	Track(frame source.Frame, prev []track.Continuation) ([]track.Code, error)
	Close() error
}

// RegionDetector finds generic rectangular objects in frames.
type RegionDetector interface {
	Detect(frame source.Frame) ([]track.Region, error)
	Track(frame source.Frame, prev []track.Continuation) ([]track.Region, error)
	Close() error
}
