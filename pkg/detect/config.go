package detect

import "time"

// Config holds the pass cadence parameters.
type Config struct {
	// DetectInterval is the minimum time between full detection passes.
	DetectInterval time.Duration

	// TrackInterval is the minimum time between tracking passes. Shorter
	// than DetectInterval because tracking is cheaper.
	TrackInterval time.Duration
}

// DefaultConfig returns the recommended cadence: detection twice a
// second, tracking at overlay rate.
func DefaultConfig() Config {
	return Config{
		DetectInterval: 500 * time.Millisecond,
		TrackInterval:  100 * time.Millisecond,
	}
}

// RelaxedConfig returns a low-power cadence for battery-constrained hosts.
func RelaxedConfig() Config {
	return Config{
		DetectInterval: time.Second,
		TrackInterval:  250 * time.Millisecond,
	}
}

// Validate checks the config values.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.DetectInterval <= 0 {
		errors = append(errors, "detect interval must be positive")
	}
	if c.TrackInterval <= 0 {
		errors = append(errors, "track interval must be positive")
	}
	if c.TrackInterval > c.DetectInterval {
		errors = append(errors, "track interval must not exceed detect interval")
	}

	return errors
}
