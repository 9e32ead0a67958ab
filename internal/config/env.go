// Package config provides environment configuration helpers for capturekit commands.
package config

import (
	"os"
	"strconv"
)

// Defaults for the capture daemon.
const (
	DefaultMonitorPort = "8080"
	DefaultCameraID    = 0
	DefaultModelPath   = "models/face_detection_yunet.onnx"
)

// MonitorPort returns the dashboard port from MONITOR_PORT env var or default.
func MonitorPort() string {
	if port := os.Getenv("MONITOR_PORT"); port != "" {
		return port
	}
	return DefaultMonitorPort
}

// CameraID returns the capture device index from CAMERA_ID env var or default.
func CameraID() int {
	if raw := os.Getenv("CAMERA_ID"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			return id
		}
	}
	return DefaultCameraID
}

// ModelPath returns the face model path from MODEL_PATH env var or default.
func ModelPath() string {
	if path := os.Getenv("MODEL_PATH"); path != "" {
		return path
	}
	return DefaultModelPath
}

// LogLevel returns the log level from LOG_LEVEL env var or "info".
func LogLevel() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	return "info"
}

// RelayURL returns the upstream frame relay URL from RELAY_URL env var.
// Empty means no relay source.
func RelayURL() string {
	return os.Getenv("RELAY_URL")
}

// SignalURL returns the WebRTC signalling server URL from SIGNAL_URL env var.
// Empty means no network camera source.
func SignalURL() string {
	return os.Getenv("SIGNAL_URL")
}

// BoolFlag reads a boolean env var ("1", "true", "yes" are true).
// Falls back to the provided default when unset.
func BoolFlag(name string, def bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
