package webgpu

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/charmbracelet/log"
)

// DeviceBuilderOption is a functional option for configuring a wgpu Device.
type DeviceBuilderOption func(*Device)

// WithLogger sets the logger lifecycle events and frame failures are reported to.
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

// WithPresentMode sets the swapchain present mode. Modes the surface does not offer
// fall back to FIFO.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - DeviceBuilderOption: a function that applies the present mode
func WithPresentMode(mode renderer.PresentMode) DeviceBuilderOption {
	return func(d *Device) {
		d.presentMode = mode
	}
}

// WithForceFallbackAdapter requests the software fallback adapter, e.g. on CI machines.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - DeviceBuilderOption: a function that applies the adapter preference
func WithForceFallbackAdapter(force bool) DeviceBuilderOption {
	return func(d *Device) {
		d.forceFallbackAdapter = force
	}
}

// WithUniformCapacity sets the initial size of the per-frame uniform ring in bytes.
// The ring doubles at the next frame whenever a frame overflows it.
//
// Parameters:
//   - bytes: the initial capacity
//
// Returns:
//   - DeviceBuilderOption: a function that applies the capacity
func WithUniformCapacity(bytes int) DeviceBuilderOption {
	return func(d *Device) {
		if bytes > 0 {
			d.uniformCapacity = uint64(bytes)
		}
	}
}
