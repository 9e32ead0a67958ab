package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"

	"github.com/thepian/capturekit/internal/log"
)

// NetCam receives video from a network camera that publishes an H264
// track through a GStreamer-style WebRTC signalling server. Accumulated
// NAL units are decoded to JPEG snapshots through an ffmpeg helper, so
// the rest of the pipeline sees the same Frame values as a local webcam.
type NetCam struct {
	signalURL string
	producer  string

	ws      *websocket.Conn
	wsMu    sync.Mutex
	pc      *webrtc.PeerConnection
	peerID  string
	session string

	mu     sync.RWMutex
	latest []byte
	closed bool

	frames     chan Frame
	trackReady chan struct{}
	seq        uint64
}

// NewNetCam creates a network camera source. producer is the name the
// camera announces in the signalling server's producer list.
func NewNetCam(signalURL, producer string) *NetCam {
	return &NetCam{
		signalURL:  signalURL,
		producer:   producer,
		frames:     make(chan Frame, 4),
		trackReady: make(chan struct{}, 1),
	}
}

// Open connects to the signalling server, negotiates the session, and
// waits for the video track.
func (n *NetCam) Open(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, n.signalURL, nil)
	if err != nil {
		return fmt.Errorf("source: signalling dial %s: %w", n.signalURL, err)
	}
	n.ws = ws

	if err := n.waitForWelcome(); err != nil {
		ws.Close()
		return fmt.Errorf("source: signalling welcome: %w", err)
	}
	if err := n.findProducer(); err != nil {
		ws.Close()
		return fmt.Errorf("source: find producer: %w", err)
	}
	if err := n.createPeerConnection(); err != nil {
		ws.Close()
		return fmt.Errorf("source: peer connection: %w", err)
	}
	if err := n.writeSignal(map[string]string{
		"type":   "startSession",
		"peerId": n.producerPeerID(),
	}); err != nil {
		ws.Close()
		return fmt.Errorf("source: start session: %w", err)
	}

	go n.handleSignalling()

	select {
	case <-n.trackReady:
		log.Info("network camera connected", "producer", n.producer)
		return nil
	case <-ctx.Done():
		n.Close()
		return ctx.Err()
	case <-time.After(15 * time.Second):
		n.Close()
		return fmt.Errorf("source: timeout waiting for video track")
	}
}

// Frames returns the frame delivery channel.
func (n *NetCam) Frames() <-chan Frame {
	return n.frames
}

// StillJPEG returns a copy of the most recent decoded frame.
func (n *NetCam) StillJPEG() ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.latest == nil {
		return nil, fmt.Errorf("source: no frame decoded yet")
	}
	still := make([]byte, len(n.latest))
	copy(still, n.latest)
	return still, nil
}

// Close tears down the peer connection and the signalling channel.
func (n *NetCam) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	if n.pc != nil {
		n.pc.Close()
	}
	if n.ws != nil {
		n.ws.Close()
	}
	return nil
}

func (n *NetCam) isClosed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.closed
}

func (n *NetCam) producerPeerID() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.peerID
}

func (n *NetCam) writeSignal(v interface{}) error {
	n.wsMu.Lock()
	defer n.wsMu.Unlock()
	return n.ws.WriteJSON(v)
}

func (n *NetCam) waitForWelcome() error {
	n.ws.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := n.ws.ReadMessage()
	n.ws.SetReadDeadline(time.Time{})
	if err != nil {
		return err
	}

	var welcome struct {
		Type   string `json:"type"`
		PeerID string `json:"peerId"`
	}
	if err := json.Unmarshal(msg, &welcome); err != nil {
		return err
	}
	if welcome.Type != "welcome" {
		return fmt.Errorf("expected welcome, got %s", welcome.Type)
	}
	return nil
}

func (n *NetCam) findProducer() error {
	if err := n.writeSignal(map[string]string{"type": "list"}); err != nil {
		return err
	}

	n.ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := n.ws.ReadMessage()
	n.ws.SetReadDeadline(time.Time{})
	if err != nil {
		return err
	}

	var listResp struct {
		Type      string `json:"type"`
		Producers []struct {
			ID   string            `json:"id"`
			Meta map[string]string `json:"meta"`
		} `json:"producers"`
	}
	if err := json.Unmarshal(msg, &listResp); err != nil {
		return err
	}

	for _, p := range listResp.Producers {
		if name, ok := p.Meta["name"]; ok && name == n.producer {
			n.mu.Lock()
			n.peerID = p.ID
			n.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("producer %q not found among %d producers",
		n.producer, len(listResp.Producers))
}

func (n *NetCam) createPeerConnection() error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return err
	}
	n.pc = pc

	if _, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		return err
	}

	pc.OnTrack(func(remote *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		if remote.Kind() == webrtc.RTPCodecTypeVideo {
			go n.handleVideoTrack(remote)
		}
	})

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		init := candidate.ToJSON()
		n.writeSignal(map[string]interface{}{
			"type":      "peer",
			"sessionId": n.sessionID(),
			"ice": map[string]interface{}{
				"candidate":     init.Candidate,
				"sdpMid":        init.SDPMid,
				"sdpMLineIndex": init.SDPMLineIndex,
			},
		})
	})

	return nil
}

func (n *NetCam) sessionID() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.session
}

func (n *NetCam) handleSignalling() {
	for !n.isClosed() {
		_, msg, err := n.ws.ReadMessage()
		if err != nil {
			if !n.isClosed() {
				log.Warn("signalling ended", "error", err)
			}
			return
		}

		var base struct {
			Type      string `json:"type"`
			SessionID string `json:"sessionId"`
		}
		json.Unmarshal(msg, &base)

		switch base.Type {
		case "sessionStarted":
			n.mu.Lock()
			n.session = base.SessionID
			n.mu.Unlock()
		case "peer":
			n.handlePeerMessage(msg)
		case "endSession":
			return
		}
	}
}

func (n *NetCam) handlePeerMessage(msg []byte) {
	var peerMsg struct {
		SDP *struct {
			Type string `json:"type"`
			SDP  string `json:"sdp"`
		} `json:"sdp"`
		ICE *struct {
			Candidate     string  `json:"candidate"`
			SDPMid        *string `json:"sdpMid"`
			SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
		} `json:"ice"`
	}
	if err := json.Unmarshal(msg, &peerMsg); err != nil {
		return
	}

	if peerMsg.SDP != nil && peerMsg.SDP.Type == "offer" {
		offer := webrtc.SessionDescription{
			Type: webrtc.SDPTypeOffer,
			SDP:  peerMsg.SDP.SDP,
		}
		if err := n.pc.SetRemoteDescription(offer); err != nil {
			log.Warn("set remote description failed", "error", err)
			return
		}
		answer, err := n.pc.CreateAnswer(nil)
		if err != nil {
			log.Warn("create answer failed", "error", err)
			return
		}
		if err := n.pc.SetLocalDescription(answer); err != nil {
			log.Warn("set local description failed", "error", err)
			return
		}
		n.writeSignal(map[string]interface{}{
			"type":      "peer",
			"sessionId": n.sessionID(),
			"sdp": map[string]string{
				"type": answer.Type.String(),
				"sdp":  answer.SDP,
			},
		})
	}

	if peerMsg.ICE != nil {
		n.pc.AddICECandidate(webrtc.ICECandidateInit{
			Candidate:     peerMsg.ICE.Candidate,
			SDPMid:        peerMsg.ICE.SDPMid,
			SDPMLineIndex: peerMsg.ICE.SDPMLineIndex,
		})
	}
}

func (n *NetCam) handleVideoTrack(remote *webrtc.TrackRemote) {
	select {
	case n.trackReady <- struct{}{}:
	default:
	}

	var nalBuffer bytes.Buffer
	lastDecode := time.Now()

	for !n.isClosed() {
		var packet *rtp.Packet
		packet, _, err := remote.ReadRTP()
		if err != nil {
			return
		}
		nalBuffer.Write(packet.Payload)

		// Decode at snapshot cadence; detection does not need full rate.
		if time.Since(lastDecode) > 100*time.Millisecond {
			n.decodeSnapshot(nalBuffer.Bytes())
			nalBuffer.Reset()
			lastDecode = time.Now()
		}
	}
}

// decodeSnapshot shells out to ffmpeg to turn accumulated H264 into one
// JPEG frame.
func (n *NetCam) decodeSnapshot(h264 []byte) {
	if len(h264) < 100 {
		return
	}

	dir := os.TempDir()
	rawPath := filepath.Join(dir, "capturekit_netcam.h264")
	jpegPath := filepath.Join(dir, "capturekit_netcam.jpg")

	if err := os.WriteFile(rawPath, h264, 0o644); err != nil {
		return
	}
	cmd := exec.Command("ffmpeg", "-y", "-i", rawPath, "-vframes", "1", "-f", "image2", jpegPath)
	cmd.Run()

	jpeg, err := os.ReadFile(jpegPath)
	if err != nil || len(jpeg) < 1000 {
		return
	}

	n.mu.Lock()
	n.latest = jpeg
	n.seq++
	seq := n.seq
	n.mu.Unlock()

	frame := Frame{
		JPEG: jpeg,
		Size: image.Point{},
		Seq:  seq,
		At:   time.Now(),
	}
	select {
	case n.frames <- frame:
	default:
		select {
		case <-n.frames:
		default:
		}
		select {
		case n.frames <- frame:
		default:
		}
	}
}
