package track

import "github.com/thepian/capturekit/pkg/geometry"

// Kind identifies which detector family a continuation belongs to.
type Kind int

const (
	// KindFace continues a face track.
	KindFace Kind = iota
	// KindCode continues a code track.
	KindCode
	// KindRegion continues a rectangular-region track.
	KindRegion
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFace:
		return "face"
	case KindCode:
		return "code"
	case KindRegion:
		return "region"
	default:
		return "unknown"
	}
}

// Continuation is a tracking request seeded by the last detection pass:
// enough identity and position for a cheap tracking pass to re-locate the
// entity without a full detector invocation.
type Continuation struct {
	// Kind selects the detector family.
	Kind Kind

	// FaceID is the detector-assigned identity for KindFace.
	FaceID int

	// Key is the entity identifier for KindRegion, or the payload string
	// for KindCode.
	Key string

	// Quad is the entity's last known position.
	Quad geometry.Quad
}
