// Package track holds the per-frame tracked-entity state: observed faces,
// codes, and rectangular regions, plus the equality rules that decide
// whether a fresh observation is the same entity seen last frame.
package track

import (
	"bytes"

	"github.com/thepian/capturekit/pkg/geometry"
)

// Face is one frame's observation of a face.
type Face struct {
	// ID is the identity tag assigned by the detector. Stable across
	// frames for as long as the detector can associate the face.
	ID int

	// Bounds is the face bounding box in normalized frame coordinates.
	Bounds geometry.Rect

	// Roll and Yaw are head angles in radians, valid only when the
	// matching Has flag is set. Not every detector yields them.
	Roll    float64
	Yaw     float64
	HasRoll bool
	HasYaw  bool

	// IsNew marks the first frame in which this ID was seen.
	IsNew bool
}

// Same reports whether two face observations are the same entity.
func (f Face) Same(other Face) bool {
	return f.ID == other.ID
}

// Code is one frame's observation of a machine-readable code.
type Code struct {
	// Value is the decoded string payload. Empty for symbologies that
	// carry binary-only payloads.
	Value string

	// Payload is the raw payload bytes, when available.
	Payload []byte

	// Symbology identifies the code type, e.g. "qr".
	Symbology string

	// Descriptor is an opaque stable fingerprint of the code used for
	// equality when Value is empty.
	Descriptor []byte

	// Corners is the code's quadrilateral in normalized coordinates.
	Corners geometry.Quad

	// IsNew marks the first frame in which this code was seen.
	IsNew bool
}

// Same reports whether two code observations are the same entity.
// Non-empty string payloads compare by string; otherwise the descriptor
// decides. Some symbologies decode to an empty string but keep a stable
// descriptor.
func (c Code) Same(other Code) bool {
	if c.Value != "" && other.Value != "" {
		return c.Value == other.Value
	}
	if len(c.Descriptor) == 0 && len(other.Descriptor) == 0 {
		return false
	}
	return bytes.Equal(c.Descriptor, other.Descriptor)
}

// Region is one frame's observation of a generic rectangular object,
// typically a document.
type Region struct {
	// ID is an opaque per-entity identifier assigned at first
	// observation and carried forward while passes can associate the
	// region.
	ID string

	// Quad is the region's four corners in normalized coordinates.
	Quad geometry.Quad

	// IsNew marks the first frame in which this ID was seen.
	IsNew bool
}

// BoundingBox returns the region's bounding box as the union of its four
// corner points.
func (r Region) BoundingBox() geometry.Rect {
	return r.Quad.BoundingBox()
}
