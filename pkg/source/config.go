package source

// Config holds capture parameters for a local webcam source.
type Config struct {
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
	Quality   int `json:"quality"`   // JPEG quality 1-100

	// Buffer is the frame channel depth. Frames beyond it are dropped
	// oldest-first.
	Buffer int `json:"buffer"`
}

// DefaultConfig returns the recommended capture configuration.
// 720p keeps detector latency low while leaving codes readable.
func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		Framerate: 30,
		Quality:   85,
		Buffer:    4,
	}
}

// DocumentConfig returns a higher-resolution configuration for document
// capture, where rectified output quality matters more than latency.
func DocumentConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	cfg.Framerate = 15
	cfg.Quality = 92
	return cfg
}

// LowLatencyConfig returns a configuration for fast overlay feedback.
func LowLatencyConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	cfg.Quality = 75
	return cfg
}

// Validate checks the config values.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < 160 || c.Width > 4096 {
		errors = append(errors, "width must be between 160 and 4096")
	}
	if c.Height < 120 || c.Height > 2160 {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.Buffer < 1 || c.Buffer > 64 {
		errors = append(errors, "buffer must be between 1 and 64")
	}

	return errors
}
