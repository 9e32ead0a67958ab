// Package source acquires live frames for the capture pipeline. Sources
// deliver JPEG frames on a channel with a drop-oldest policy: the frame
// path never blocks on a slow consumer.
package source

import (
	"context"
	"image"
	"time"
)

// Frame is one captured frame.
type Frame struct {
	// JPEG is the encoded frame data.
	JPEG []byte

	// Size is the frame dimensions in pixels.
	Size image.Point

	// Seq increments per delivered frame.
	Seq uint64

	// At is the capture timestamp.
	At time.Time
}

// Source is a live frame producer.
type Source interface {
	// Open starts frame production. The context bounds the open itself,
	// not the stream lifetime.
	Open(ctx context.Context) error

	// Frames returns the delivery channel. Closed when the source stops.
	Frames() <-chan Frame

	// StillJPEG returns the most recent frame for a photo capture.
	StillJPEG() ([]byte, error)

	// Close stops frame production and releases the device.
	Close() error
}
