package protocol

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/thepian/capturekit/pkg/geometry"
	"github.com/thepian/capturekit/pkg/track"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewStateMessage creates a state message
func NewStateMessage(state, mode string) (*Message, error) {
	return NewMessage(TypeState, StateData{
		State: state,
		Mode:  mode,
	})
}

// NewEntitiesMessage creates an entities message from a store snapshot
func NewEntitiesMessage(snap track.Snapshot) (*Message, error) {
	data := EntitiesData{}
	for _, f := range snap.Faces {
		data.Faces = append(data.Faces, FaceEntity{
			ID:    f.ID,
			IsNew: f.IsNew,
			Min:   pointData(f.Bounds.Min),
			Max:   pointData(f.Bounds.Max),
			Roll:  f.Roll,
			Yaw:   f.Yaw,
		})
	}
	for _, c := range snap.Codes {
		data.Codes = append(data.Codes, CodeEntity{
			Value:      c.Value,
			Descriptor: hex.EncodeToString(c.Descriptor),
			IsNew:      c.IsNew,
			Corners:    quadData(c.Corners),
		})
	}
	for _, r := range snap.Regions {
		data.Regions = append(data.Regions, RegionEntity{
			ID:    r.ID,
			IsNew: r.IsNew,
			Quad:  quadData(r.Quad),
		})
	}
	return NewMessage(TypeEntities, data)
}

// NewPermissionMessage creates a permission status message
func NewPermissionMessage(status, advice string) (*Message, error) {
	return NewMessage(TypePermission, PermissionData{
		Status: status,
		Advice: advice,
	})
}

// NewDevicesMessage creates a devices message
func NewDevicesMessage(devices []DeviceEntry) (*Message, error) {
	return NewMessage(TypeDevices, DevicesData{Devices: devices})
}

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewCommandMessage creates a control command message
func NewCommandMessage(action, mode, device string) (*Message, error) {
	return NewMessage(TypeCommand, CommandData{
		Action: action,
		Mode:   mode,
		Device: device,
	})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

func pointData(p geometry.Point) PointData {
	return PointData{X: p.X, Y: p.Y}
}

func quadData(q geometry.Quad) QuadData {
	return QuadData{
		TopLeft:     pointData(q.TopLeft),
		TopRight:    pointData(q.TopRight),
		BottomLeft:  pointData(q.BottomLeft),
		BottomRight: pointData(q.BottomRight),
	}
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetStateData extracts state data from a message
func (m *Message) GetStateData() (*StateData, error) {
	var data StateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetEntitiesData extracts entities data from a message
func (m *Message) GetEntitiesData() (*EntitiesData, error) {
	var data EntitiesData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPermissionData extracts permission data from a message
func (m *Message) GetPermissionData() (*PermissionData, error) {
	var data PermissionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetDevicesData extracts devices data from a message
func (m *Message) GetDevicesData() (*DevicesData, error) {
	var data DevicesData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeFrameData decodes the base64 image data
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// GetCommandData extracts a control command from a message
func (m *Message) GetCommandData() (*CommandData, error) {
	var data CommandData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
