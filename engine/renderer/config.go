package renderer

import (
	"bytes"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the renderer tunables that can be loaded from a TOML file.
type Config struct {
	Backend          BackendType `toml:"backend"`
	Width            int         `toml:"width"`
	Height           int         `toml:"height"`
	PresentMode      PresentMode `toml:"present_mode"`
	Exposure         float32     `toml:"exposure"`
	Gamma            float32     `toml:"gamma"`
	CascadeLambda    float32     `toml:"cascade_lambda"`
	LightOffset      float32     `toml:"light_offset"`
	ShadowResolution int         `toml:"shadow_resolution"`
	Display          DisplayType `toml:"display"`
	DepthClamp       bool        `toml:"depth_clamp"`
	WideLines        bool        `toml:"wide_lines"`
}

// DefaultConfig returns the configuration used when no file is given.
//
// Returns:
//   - Config: the default configuration
func DefaultConfig() Config {
	return Config{
		Backend:          BackendWebGPU,
		Width:            1280,
		Height:           720,
		PresentMode:      PresentFifo,
		Exposure:         1.0,
		Gamma:            2.2,
		CascadeLambda:    light.DefaultCascadeLambda,
		LightOffset:      light.DefaultLightOffset,
		ShadowResolution: light.ShadowMapResolution,
		Display:          DisplayNormal,
	}
}

// Validate reports the first out-of-range value in the configuration.
//
// Returns:
//   - error: error describing the invalid field, nil if the config is usable
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("invalid window size %dx%d", c.Width, c.Height)
	case c.Exposure <= 0:
		return fmt.Errorf("exposure must be positive, got %v", c.Exposure)
	case c.Gamma <= 0:
		return fmt.Errorf("gamma must be positive, got %v", c.Gamma)
	case c.CascadeLambda < 0 || c.CascadeLambda > 1:
		return fmt.Errorf("cascade lambda must be in [0,1], got %v", c.CascadeLambda)
	case c.LightOffset <= 0:
		return fmt.Errorf("light offset must be positive, got %v", c.LightOffset)
	case c.ShadowResolution <= 0:
		return fmt.Errorf("shadow resolution must be positive, got %d", c.ShadowResolution)
	}
	return nil
}

// ParseConfig decodes TOML data on top of DefaultConfig, so omitted keys keep their defaults.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if decoding or validation fails
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode renderer config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate renderer config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads and decodes a TOML configuration file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if the file cannot be read or decoded
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read renderer config: %w", err)
	}
	return ParseConfig(data)
}

// Save writes the configuration to path as TOML.
//
// Parameters:
//   - path: the destination file path
//
// Returns:
//   - error: error if encoding or writing fails
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode renderer config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write renderer config: %w", err)
	}
	return nil
}
