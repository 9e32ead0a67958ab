package protocol

import (
	"testing"

	"github.com/thepian/capturekit/pkg/geometry"
	"github.com/thepian/capturekit/pkg/track"
)

func TestNewMessage_SetsTimestamp(t *testing.T) {
	msg, err := NewMessage(TypeState, StateData{State: "active", Mode: "standard"})
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	if msg.Type != TypeState {
		t.Errorf("Expected type state, got %s", msg.Type)
	}
	if msg.Timestamp == 0 {
		t.Error("Expected a non-zero timestamp")
	}
}

func TestParseMessage_RoundTrip(t *testing.T) {
	msg, err := NewStateMessage("configured", "reality")
	if err != nil {
		t.Fatalf("NewStateMessage failed: %v", err)
	}
	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	state, err := parsed.GetStateData()
	if err != nil {
		t.Fatalf("GetStateData failed: %v", err)
	}
	if state.State != "configured" || state.Mode != "reality" {
		t.Errorf("Expected configured/reality, got %s/%s", state.State, state.Mode)
	}
}

func TestParseMessage_RejectsInvalidJSON(t *testing.T) {
	if _, err := ParseMessage([]byte("{not json")); err == nil {
		t.Error("Expected an error for invalid JSON")
	}
}

func TestNewEntitiesMessage_ConvertsSnapshot(t *testing.T) {
	snap := track.Snapshot{
		Faces: []track.Face{{
			ID:     7,
			IsNew:  true,
			Bounds: geometry.Rect{Min: geometry.Point{X: 0.1, Y: 0.2}, Max: geometry.Point{X: 0.3, Y: 0.4}},
			Roll:   0.05,
		}},
		Codes: []track.Code{{
			Value:      "https://example.com",
			Descriptor: []byte{0xde, 0xad},
			Corners: geometry.Quad{
				TopLeft:     geometry.Point{X: 0.5, Y: 0.5},
				TopRight:    geometry.Point{X: 0.6, Y: 0.5},
				BottomLeft:  geometry.Point{X: 0.5, Y: 0.6},
				BottomRight: geometry.Point{X: 0.6, Y: 0.6},
			},
		}},
		Regions: []track.Region{{ID: "r1", IsNew: false}},
	}

	msg, err := NewEntitiesMessage(snap)
	if err != nil {
		t.Fatalf("NewEntitiesMessage failed: %v", err)
	}
	data, err := msg.GetEntitiesData()
	if err != nil {
		t.Fatalf("GetEntitiesData failed: %v", err)
	}

	if len(data.Faces) != 1 || data.Faces[0].ID != 7 || !data.Faces[0].IsNew {
		t.Errorf("Unexpected faces: %+v", data.Faces)
	}
	if data.Faces[0].Min.X != 0.1 || data.Faces[0].Max.Y != 0.4 {
		t.Errorf("Unexpected face bounds: %+v", data.Faces[0])
	}
	if len(data.Codes) != 1 || data.Codes[0].Value != "https://example.com" {
		t.Errorf("Unexpected codes: %+v", data.Codes)
	}
	if data.Codes[0].Descriptor != "dead" {
		t.Errorf("Expected hex descriptor dead, got %s", data.Codes[0].Descriptor)
	}
	if len(data.Regions) != 1 || data.Regions[0].ID != "r1" {
		t.Errorf("Unexpected regions: %+v", data.Regions)
	}
}

func TestNewFrameMessage_EncodesJPEG(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0}
	msg, err := NewFrameMessage(1280, 720, jpeg, 42)
	if err != nil {
		t.Fatalf("NewFrameMessage failed: %v", err)
	}

	frame, err := msg.GetFrameData()
	if err != nil {
		t.Fatalf("GetFrameData failed: %v", err)
	}
	if frame.Width != 1280 || frame.Height != 720 || frame.Format != "jpeg" || frame.FrameID != 42 {
		t.Errorf("Unexpected frame header: %+v", frame)
	}
	decoded, err := frame.DecodeFrameData()
	if err != nil {
		t.Fatalf("DecodeFrameData failed: %v", err)
	}
	if len(decoded) != len(jpeg) || decoded[0] != 0xff || decoded[1] != 0xd8 {
		t.Errorf("Decoded payload mismatch: %x", decoded)
	}
}

func TestNewPongMessage_ComputesLatency(t *testing.T) {
	msg, err := NewPongMessage("p1", 1000, 1042)
	if err != nil {
		t.Fatalf("NewPongMessage failed: %v", err)
	}
	pong, err := msg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData failed: %v", err)
	}
	if pong.LatencyMs != 42 {
		t.Errorf("Expected latency 42ms, got %d", pong.LatencyMs)
	}
}

func TestGetCommandData(t *testing.T) {
	msg, err := NewCommandMessage("set-mode", "document", "")
	if err != nil {
		t.Fatalf("NewCommandMessage failed: %v", err)
	}
	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	cmd, err := parsed.GetCommandData()
	if err != nil {
		t.Fatalf("GetCommandData failed: %v", err)
	}
	if cmd.Action != "set-mode" || cmd.Mode != "document" {
		t.Errorf("Unexpected command: %+v", cmd)
	}
}
