package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/charmbracelet/log"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via New.
type RendererBuilderOption func(*deferredRenderer)

// WithLogger sets the logger used for lifecycle messages, skipped frames and failures.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *log.Logger) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.logger = logger
	}
}

// WithExposure sets the initial tone mapping exposure.
//
// Parameters:
//   - exposure: the exposure, > 0
//
// Returns:
//   - RendererBuilderOption: a function that applies the exposure option to a renderer
func WithExposure(exposure float32) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.exposure = exposure
	}
}

// WithGamma sets the initial output gamma.
//
// Parameters:
//   - gamma: the gamma, > 0
//
// Returns:
//   - RendererBuilderOption: a function that applies the gamma option to a renderer
func WithGamma(gamma float32) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.gamma = gamma
	}
}

// WithCascadeLambda sets the initial cascade split blend.
//
// Parameters:
//   - lambda: 0 for uniform splits, 1 for logarithmic splits
//
// Returns:
//   - RendererBuilderOption: a function that applies the cascade lambda option to a renderer
func WithCascadeLambda(lambda float32) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.cascadeLambda = lambda
	}
}

// WithLightOffset sets how far behind each cascade centre the light eye is placed.
//
// Parameters:
//   - offset: the distance along the light direction, > 0
//
// Returns:
//   - RendererBuilderOption: a function that applies the light offset option to a renderer
func WithLightOffset(offset float32) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.lightOffset = offset
	}
}

// WithShadowResolution sets the width and height of each shadow cascade map.
//
// Parameters:
//   - resolution: the map size in texels
//
// Returns:
//   - RendererBuilderOption: a function that applies the shadow resolution option to a renderer
func WithShadowResolution(resolution int) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.shadowResolution = resolution
	}
}

// WithDisplayType sets the initial display type.
//
// Parameters:
//   - d: the display type
//
// Returns:
//   - RendererBuilderOption: a function that applies the display type option to a renderer
func WithDisplayType(d renderer.DisplayType) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.display = d
	}
}

// WithOverrideMaterial sets the material substituted for every drawable in the lighting display.
// Without it a white, untextured material is used.
//
// Parameters:
//   - m: the override material
//
// Returns:
//   - RendererBuilderOption: a function that applies the override material option to a renderer
func WithOverrideMaterial(m material.Material) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.override = m
	}
}

// WithDepthClamp requests depth clamping for shadow casters. It is dropped with a warning
// when the device does not support it.
func WithDepthClamp(enabled bool) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.depthClamp = enabled
	}
}

// WithWideLines requests wide wireframe edges. It is dropped with a warning when the
// device does not support it.
func WithWideLines(enabled bool) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.wideLines = enabled
	}
}

// WithConfig applies the tunables of a renderer configuration. Options after it override
// individual values.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - RendererBuilderOption: a function that applies the configuration to a renderer
func WithConfig(cfg renderer.Config) RendererBuilderOption {
	return func(r *deferredRenderer) {
		r.exposure = cfg.Exposure
		r.gamma = cfg.Gamma
		r.cascadeLambda = cfg.CascadeLambda
		r.lightOffset = cfg.LightOffset
		r.shadowResolution = cfg.ShadowResolution
		r.display = cfg.Display
		r.depthClamp = cfg.DepthClamp
		r.wideLines = cfg.WideLines
	}
}
