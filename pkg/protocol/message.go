// Package protocol defines the WebSocket message types for the capture
// monitor. This package is shared between the capture daemon and monitor
// clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Daemon → Monitor messages
	TypeState      MessageType = "state"      // Capture state machine snapshot
	TypeEntities   MessageType = "entities"   // Tracked entities for the current frame
	TypePermission MessageType = "permission" // Camera authorization status
	TypeDevices    MessageType = "devices"    // Available capture devices
	TypeFrame      MessageType = "frame"      // Video frame

	// Monitor → Daemon messages
	TypeCommand MessageType = "command" // Control command

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Daemon → Monitor Message Types
// =============================================================================

// StateData contains the capture state machine snapshot
type StateData struct {
	State string `json:"state"` // "unconfigured", "configured", "active", "inactive"
	Mode  string `json:"mode"`  // "standard", "reality", "document"
}

// PointData is a normalized image coordinate, origin top-left
type PointData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// QuadData is a detected quadrilateral in normalized coordinates
type QuadData struct {
	TopLeft     PointData `json:"tl"`
	TopRight    PointData `json:"tr"`
	BottomLeft  PointData `json:"bl"`
	BottomRight PointData `json:"br"`
}

// FaceEntity describes one tracked face
type FaceEntity struct {
	ID    int       `json:"id"`
	IsNew bool      `json:"is_new"`
	Min   PointData `json:"min"` // Bounding box, normalized
	Max   PointData `json:"max"`
	Roll  float64   `json:"roll"` // Radians
	Yaw   float64   `json:"yaw"`  // Radians
}

// CodeEntity describes one tracked machine-readable code
type CodeEntity struct {
	Value      string   `json:"value,omitempty"` // Decoded payload, empty when undecodable
	Descriptor string   `json:"descriptor,omitempty"`
	IsNew      bool     `json:"is_new"`
	Corners    QuadData `json:"corners"`
}

// RegionEntity describes one tracked document-like region
type RegionEntity struct {
	ID    string   `json:"id"`
	IsNew bool     `json:"is_new"`
	Quad  QuadData `json:"quad"`
}

// EntitiesData contains the tracked entities for the current frame
type EntitiesData struct {
	Faces   []FaceEntity   `json:"faces,omitempty"`
	Codes   []CodeEntity   `json:"codes,omitempty"`
	Regions []RegionEntity `json:"regions,omitempty"`
}

// PermissionData contains the camera authorization status
type PermissionData struct {
	Status string `json:"status"` // "undetermined", "granted", "denied", "restricted"
	Advice string `json:"advice"` // "none", "request", "open-settings"
}

// DeviceEntry describes one available capture device
type DeviceEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// DevicesData contains the available capture devices
type DevicesData struct {
	Devices []DeviceEntry `json:"devices"`
}

// FrameData contains a video frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// =============================================================================
// Monitor → Daemon Message Types
// =============================================================================

// CommandData contains a control command
type CommandData struct {
	Action string `json:"action"`           // "pause", "resume", "next-camera", "photo"
	Mode   string `json:"mode,omitempty"`   // For "set-mode"
	Device string `json:"device,omitempty"` // For "switch-camera"
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
