package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/thepian/capturekit/internal/log"
	"github.com/thepian/capturekit/pkg/capture"
	"github.com/thepian/capturekit/pkg/device"
	"github.com/thepian/capturekit/pkg/hub"
	"github.com/thepian/capturekit/pkg/protocol"
)

// handleState returns the current state machine snapshot
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(protocol.StateData{
		State: s.controller.State().String(),
		Mode:  s.controller.Mode().String(),
	})
}

// handleEntities returns the tracked entities of the current frame
func (s *Server) handleEntities(c *fiber.Ctx) error {
	msg, err := protocol.NewEntitiesMessage(s.store.Snapshot())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	data, err := msg.GetEntitiesData()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(data)
}

// handleDevices returns the available capture devices
func (s *Server) handleDevices(c *fiber.Ctx) error {
	devices, err := s.controller.ListDevices()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	active, _ := s.controller.ActiveInput()
	return c.JSON(protocol.DevicesData{Devices: deviceEntries(devices, active.ID)})
}

func deviceEntries(devices []device.Descriptor, activeID string) []protocol.DeviceEntry {
	out := make([]protocol.DeviceEntry, 0, len(devices))
	for _, d := range devices {
		out = append(out, protocol.DeviceEntry{
			ID:     d.ID,
			Name:   d.Name,
			Active: activeID != "" && d.ID == activeID,
		})
	}
	return out
}

// handlePermission returns the camera authorization status
func (s *Server) handlePermission(c *fiber.Ctx) error {
	return c.JSON(protocol.PermissionData{
		Status: s.gate.Query().String(),
		Advice: s.gate.Advice().String(),
	})
}

// handlePermissionRequest triggers the permission prompt, at most once.
// The resolved status goes out to event clients so open monitors update
// without polling.
func (s *Server) handlePermissionRequest(c *fiber.Ctx) error {
	s.controller.RequestAccess(s.PublishPermission)
	return c.JSON(fiber.Map{"status": s.gate.Query().String()})
}

// handlePause stops the active session without unconfiguring it
func (s *Server) handlePause(c *fiber.Ctx) error {
	if err := s.controller.Pause(); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"state": s.controller.State().String()})
}

// handleResume restarts a configured or paused session
func (s *Server) handleResume(c *fiber.Ctx) error {
	if err := s.controller.Resume(); err != nil {
		status := 500
		if err == capture.ErrNotAuthorized {
			status = 403
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"state": s.controller.State().String()})
}

// handleSetMode switches the camera mode
func (s *Server) handleSetMode(c *fiber.Ctx) error {
	mode, ok := capture.ParseMode(c.Params("mode"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "unknown mode"})
	}
	if err := s.controller.SetMode(mode); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"mode": s.controller.Mode().String()})
}

// handleNextCamera cycles to the next available device
func (s *Server) handleNextCamera(c *fiber.Ctx) error {
	if err := s.controller.NextCamera(); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// handleSwitchCamera switches to a specific device by ID
func (s *Server) handleSwitchCamera(c *fiber.Ctx) error {
	id := c.Params("id")
	devices, err := s.controller.ListDevices()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	for _, d := range devices {
		if d.ID == id {
			if err := s.controller.SwitchCamera(d); err != nil {
				return c.Status(500).JSON(fiber.Map{"error": err.Error()})
			}
			return c.JSON(fiber.Map{"device": d.ID})
		}
	}
	return c.Status(404).JSON(fiber.Map{"error": "unknown device"})
}

// handlePhoto captures a still and returns it as a JPEG response
func (s *Server) handlePhoto(c *fiber.Ctx) error {
	photo, err := s.controller.CapturePhoto()
	if err != nil {
		status := 500
		if err == capture.ErrNotRunning || err == capture.ErrOutputNotAttached {
			status = 409
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set("Content-Type", "image/jpeg")
	return c.Send(photo)
}

// handleCommand dispatches control commands received over the event
// websocket
func (s *Server) handleCommand(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		log.Debug("ignoring malformed monitor message", "error", err)
		return
	}
	if msg.Type != protocol.TypeCommand {
		return
	}
	cmd, err := msg.GetCommandData()
	if err != nil {
		log.Debug("ignoring malformed command", "error", err)
		return
	}

	var cmdErr error
	switch cmd.Action {
	case "pause":
		cmdErr = s.controller.Pause()
	case "resume":
		cmdErr = s.controller.Resume()
	case "next-camera":
		cmdErr = s.controller.NextCamera()
	case "set-mode":
		if mode, ok := capture.ParseMode(cmd.Mode); ok {
			cmdErr = s.controller.SetMode(mode)
		}
	case "photo":
		_, cmdErr = s.controller.CapturePhoto()
	default:
		log.Debug("ignoring unknown command", "action", cmd.Action)
	}
	if cmdErr != nil {
		log.Warn("monitor command failed", "action", cmd.Action, "error", cmdErr)
	}
}

// handleEventsWS handles WebSocket connections for monitor events
func (s *Server) handleEventsWS(c *websocket.Conn) {
	// Send the current state so a fresh client renders immediately
	if msg, err := protocol.NewStateMessage(s.controller.State().String(), s.controller.Mode().String()); err == nil {
		if data, err := msg.Bytes(); err == nil {
			c.WriteMessage(websocket.TextMessage, data)
		}
	}

	hub.NewClient(s.eventHub, c).Run()
}

// handleFramesWS handles WebSocket connections for the preview feed
func (s *Server) handleFramesWS(c *websocket.Conn) {
	hub.NewClient(s.frameHub, c).Run()
}
