package software

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/charmbracelet/log"
)

// DeviceBuilderOption is a functional option for configuring a software Device.
type DeviceBuilderOption func(*Device)

// WithLogger sets the logger frame failures are reported to.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - DeviceBuilderOption: a function that applies the logger
func WithLogger(logger *log.Logger) DeviceBuilderOption {
	return func(d *Device) {
		d.logger = logger
	}
}

// WithFeature overrides whether an optional feature is reported as supported.
// The software device supports depth clamp and not wide lines by default.
//
// Parameters:
//   - f: the feature
//   - supported: whether Supports(f) should report true
//
// Returns:
//   - DeviceBuilderOption: a function that applies the override
func WithFeature(f renderer.Feature, supported bool) DeviceBuilderOption {
	return func(d *Device) {
		d.features[f] = supported
	}
}
