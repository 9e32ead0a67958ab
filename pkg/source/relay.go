package source

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thepian/capturekit/internal/log"
)

// Relay consumes another capture instance's binary frame stream over a
// websocket (the /ws/frames endpoint of a peer's monitor server). There
// is no auto-reconnect; a dropped peer closes the source and the caller
// decides whether to retry.
type Relay struct {
	url string

	mu     sync.RWMutex
	conn   *websocket.Conn
	latest []byte
	closed bool

	frames chan Frame
	seq    uint64
}

// NewRelay creates a relay source for the given websocket URL.
func NewRelay(url string) *Relay {
	return &Relay{
		url:    url,
		frames: make(chan Frame, 4),
	}
}

// Open dials the peer and starts consuming its frame stream.
func (r *Relay) Open(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return fmt.Errorf("source: relay dial %s: %w", r.url, err)
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	go r.loop()
	log.Info("relay source connected", "url", r.url)
	return nil
}

// Frames returns the frame delivery channel.
func (r *Relay) Frames() <-chan Frame {
	return r.frames
}

// StillJPEG returns a copy of the most recent relayed frame.
func (r *Relay) StillJPEG() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.latest == nil {
		return nil, fmt.Errorf("source: no frame relayed yet")
	}
	still := make([]byte, len(r.latest))
	copy(still, r.latest)
	return still, nil
}

// Close disconnects from the peer.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *Relay) loop() {
	defer close(r.frames)

	for {
		msgType, data, err := r.conn.ReadMessage()
		if err != nil {
			r.mu.RLock()
			closed := r.closed
			r.mu.RUnlock()
			if !closed {
				log.Warn("relay stream ended", "url", r.url, "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage || len(data) == 0 {
			// Event traffic shares the endpoint namespace; only binary
			// payloads are frames.
			continue
		}

		r.mu.Lock()
		r.latest = data
		r.seq++
		seq := r.seq
		r.mu.Unlock()

		frame := Frame{
			JPEG: data,
			Size: image.Point{}, // decoded lazily by consumers that need it
			Seq:  seq,
			At:   time.Now(),
		}
		select {
		case r.frames <- frame:
		default:
			select {
			case <-r.frames:
			default:
			}
			select {
			case r.frames <- frame:
			default:
			}
		}
	}
}
