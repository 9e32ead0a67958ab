// Package web serves the capture monitor: a JSON API over the capture
// state machine plus websocket streams for live entities and preview
// frames.
package web

import (
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/thepian/capturekit/internal/log"
	"github.com/thepian/capturekit/pkg/capture"
	"github.com/thepian/capturekit/pkg/hub"
	"github.com/thepian/capturekit/pkg/permission"
	"github.com/thepian/capturekit/pkg/protocol"
	"github.com/thepian/capturekit/pkg/source"
	"github.com/thepian/capturekit/pkg/track"
)

// Server is the capture monitor server
type Server struct {
	app  *fiber.App
	port string

	controller *capture.Controller
	gate       *permission.Gate
	store      *track.Store

	// Hubs for websocket broadcast (thread-safe!)
	eventHub *hub.Hub
	frameHub *hub.Hub

	frameID atomic.Uint64
}

// NewServer creates a new monitor server over the given controller
func NewServer(port string, controller *capture.Controller, gate *permission.Gate, store *track.Store) *Server {
	s := &Server{
		port:       port,
		controller: controller,
		gate:       gate,
		store:      store,
		eventHub:   hub.New("events"),
		frameHub:   hub.New("frames"),
	}
	s.eventHub.OnInbound(s.handleCommand)

	app := fiber.New(fiber.Config{
		AppName:               "Capture Monitor",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/entities", s.handleEntities)
	api.Get("/devices", s.handleDevices)
	api.Get("/permission", s.handlePermission)
	api.Post("/permission/request", s.handlePermissionRequest)
	api.Post("/pause", s.handlePause)
	api.Post("/resume", s.handleResume)
	api.Post("/mode/:mode", s.handleSetMode)
	api.Post("/camera/next", s.handleNextCamera)
	api.Post("/camera/:id", s.handleSwitchCamera)
	api.Post("/photo", s.handlePhoto)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))

	s.app = app
	return s
}

// Start starts the monitor server
func (s *Server) Start() error {
	log.Info("capture monitor listening", "port", s.port)

	// Start all hubs
	go s.eventHub.Run()
	go s.frameHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the monitor server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("monitor server failed", "error", err)
		}
	}()
}

// PublishState broadcasts a state machine transition to event clients
func (s *Server) PublishState(state capture.State) {
	msg, err := protocol.NewStateMessage(state.String(), s.controller.Mode().String())
	if err != nil {
		return
	}
	s.broadcastMessage(msg)
}

// PublishPermission broadcasts a camera authorization change to event clients
func (s *Server) PublishPermission(status permission.Status) {
	msg, err := s.permissionMessage(status)
	if err != nil {
		return
	}
	s.broadcastMessage(msg)
}

func (s *Server) permissionMessage(status permission.Status) (*protocol.Message, error) {
	return protocol.NewPermissionMessage(status.String(), s.gate.Advice().String())
}

// PublishEntities broadcasts a tracked-entity snapshot to event clients
func (s *Server) PublishEntities(snap track.Snapshot) {
	msg, err := protocol.NewEntitiesMessage(snap)
	if err != nil {
		return
	}
	s.broadcastMessage(msg)
}

// PublishFrame broadcasts a preview frame to frame clients
func (s *Server) PublishFrame(frame source.Frame) {
	if s.frameHub.ClientCount() == 0 {
		return
	}
	s.frameHub.BroadcastBinary(frame.JPEG)
	s.frameID.Store(frame.Seq)
}

func (s *Server) broadcastMessage(msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	s.eventHub.Broadcast(hub.NewJSONMessage(data))
}

// Shutdown gracefully stops the monitor server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
