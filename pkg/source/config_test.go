package source

import "testing"

func TestConfig_Validate_Defaults(t *testing.T) {
	for name, cfg := range map[string]Config{
		"default":     DefaultConfig(),
		"document":    DocumentConfig(),
		"low-latency": LowLatencyConfig(),
	} {
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("Expected %s config to validate, got %v", name, errs)
		}
	}
}

func TestConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"huge height", func(c *Config) { c.Height = 10000 }},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }},
		{"quality over 100", func(c *Config) { c.Quality = 150 }},
		{"zero buffer", func(c *Config) { c.Buffer = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if errs := cfg.Validate(); len(errs) == 0 {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}
