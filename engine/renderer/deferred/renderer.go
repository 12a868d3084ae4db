// Package deferred implements the Blinn-Phong deferred renderer: a geometry pass into a
// G-buffer, cascaded shadow maps for directional lights, additive light accumulation in
// an HDR buffer, tone mapping, and a set of debug views that replace lighting.
package deferred

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/charmbracelet/log"
)

// Point light volume tessellation.
const (
	volumeRings    = 16
	volumeSegments = 24
)

// deferredRenderer is the implementation of the Renderer interface.
type deferredRenderer struct {
	mu sync.Mutex

	device    renderer.Device
	logger    *log.Logger
	pipelines *pipelineSet

	gbuf     gbuffer
	hdr      hdrBuffer
	cascades cascadeStore
	volume   *model.Mesh
	queue    queue
	override material.Material

	width, height    int
	exposure         float32
	gamma            float32
	cascadeLambda    float32
	lightOffset      float32
	shadowResolution int
	display          renderer.DisplayType
	depthClamp       bool
	wideLines        bool

	stats        FrameStats
	lastCascades []CascadeSet
}

// Renderer draws queued drawables and lights through the deferred pipeline.
//
// Drawables and lights are queued by reference with the Add methods and consumed by
// the next Render call, which empties the queue whether or not the frame was drawn.
// A frame is skipped without error while any queued mesh or material texture is still
// being uploaded.
type Renderer interface {
	// AddStatic queues a static model for the next frame.
	AddStatic(s model.Static)

	// AddAnimated queues a morph-animated model for the next frame.
	AddAnimated(a model.Animated)

	// AddDirectional queues a directional light for the next frame.
	AddDirectional(l light.Directional)

	// AddPoint queues a point light for the next frame.
	AddPoint(l light.Point)

	// Render records and submits one frame seen from cam, then empties the queue.
	//
	// Parameters:
	//   - cam: the viewing camera
	//
	// Returns:
	//   - error: a wrapped device or pipeline failure; nil when the frame was drawn or skipped
	Render(cam camera.Camera) error

	// Resize recreates the viewport-sized attachments after the output changed size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: error if the device could not resize or allocate the new attachments
	Resize(width, height int) error

	// SetExposure sets the tone mapping exposure. It must be positive.
	SetExposure(exposure float32) error

	// SetGamma sets the output gamma. It must be positive.
	SetGamma(gamma float32) error

	// SetCascadeLambda sets the blend between uniform (0) and logarithmic (1) cascade splits.
	SetCascadeLambda(lambda float32) error

	// SetLightOffset sets how far behind each cascade the light eye is placed. It must be positive.
	SetLightOffset(offset float32) error

	// SetDisplayType selects the final image.
	SetDisplayType(d renderer.DisplayType)

	// DisplayType returns the current display type.
	DisplayType() renderer.DisplayType

	// SetDepthClamp toggles depth clamping for shadow casters.
	//
	// Parameters:
	//   - enabled: whether casters in front of a cascade's near plane are clamped instead of clipped
	//
	// Returns:
	//   - bool: false if the device cannot provide the requested state; the previous state is kept
	SetDepthClamp(enabled bool) bool

	// SetWideLines toggles wide wireframe edges.
	//
	// Parameters:
	//   - enabled: whether wireframe edges are drawn WideLineWidth pixels wide
	//
	// Returns:
	//   - bool: false if the device cannot provide the requested state; the previous state is kept
	SetWideLines(enabled bool) bool

	// ApplyConfig applies the tunables of a renderer configuration.
	//
	// Parameters:
	//   - cfg: the configuration; window size and backend are ignored
	//
	// Returns:
	//   - error: error if the configuration is invalid or the shadow maps could not be recreated
	ApplyConfig(cfg renderer.Config) error

	// Cascades returns the cascade setup of every directional light of the last frame.
	Cascades() []CascadeSet

	// LastFrameStats returns the counters of the last Render call.
	LastFrameStats() FrameStats

	// HDRTarget returns the light accumulation attachment, e.g. for an HDR capture after
	// Render. The handle changes on Resize.
	HDRTarget() renderer.AttachmentHandle

	// Release frees every device resource owned by the renderer.
	Release()
}

var _ Renderer = &deferredRenderer{}

// New creates a Renderer drawing with dev. The attachments, pipelines and light volume
// mesh are created before New returns.
//
// Parameters:
//   - dev: the device frames are recorded against
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
//   - error: error if an option is out of range or a device resource could not be created
func New(dev renderer.Device, options ...RendererBuilderOption) (Renderer, error) {
	cfg := renderer.DefaultConfig()
	r := &deferredRenderer{
		device:           dev,
		exposure:         cfg.Exposure,
		gamma:            cfg.Gamma,
		cascadeLambda:    cfg.CascadeLambda,
		lightOffset:      cfg.LightOffset,
		shadowResolution: cfg.ShadowResolution,
		display:          cfg.Display,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "deferred"})
	}
	if r.override == nil {
		r.override = defaultOverrideMaterial()
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("deferred: %w", err)
	}

	if r.depthClamp && !dev.Supports(renderer.FeatureDepthClamp) {
		r.logger.Warn("depth clamp not supported, shadow casters will be clipped")
		r.depthClamp = false
	}
	if r.wideLines && !dev.Supports(renderer.FeatureWideLines) {
		r.logger.Warn("wide lines not supported, wireframe edges stay one pixel wide")
		r.wideLines = false
	}

	r.width, r.height = dev.Size()
	r.pipelines = newPipelineSet(r.depthClamp, r.lineWidth())
	if err := r.pipelines.build(dev); err != nil {
		r.Release()
		return nil, r.fatal("failed to build pipelines", err)
	}
	if err := r.gbuf.create(dev, r.width, r.height); err != nil {
		r.Release()
		return nil, r.fatal("failed to create gbuffer", err)
	}
	if err := r.hdr.create(dev, r.width, r.height); err != nil {
		r.Release()
		return nil, r.fatal("failed to create hdr buffer", err)
	}
	if err := r.cascades.create(dev, r.shadowResolution); err != nil {
		r.Release()
		return nil, r.fatal("failed to create shadow maps", err)
	}

	r.volume = model.NewMesh(model.UVSphere(volumeRings, volumeSegments))
	h, err := dev.UploadMesh(r.volume.Data())
	if err != nil {
		r.Release()
		return nil, r.fatal("failed to upload light volume", err)
	}
	r.volume.MarkUploaded(h)

	r.logger.Info("deferred renderer created",
		"width", r.width, "height", r.height,
		"shadowResolution", r.shadowResolution,
		"display", r.display,
		"depthClamp", r.depthClamp,
	)
	return r, nil
}

func (r *deferredRenderer) validate() error {
	switch {
	case r.exposure <= 0:
		return fmt.Errorf("exposure must be positive, got %v", r.exposure)
	case r.gamma <= 0:
		return fmt.Errorf("gamma must be positive, got %v", r.gamma)
	case r.cascadeLambda < 0 || r.cascadeLambda > 1:
		return fmt.Errorf("cascade lambda must be in [0,1], got %v", r.cascadeLambda)
	case r.lightOffset <= 0:
		return fmt.Errorf("light offset must be positive, got %v", r.lightOffset)
	case r.shadowResolution <= 0:
		return fmt.Errorf("shadow resolution must be positive, got %d", r.shadowResolution)
	}
	return nil
}

// fatal logs an unrecoverable failure and wraps it for the caller.
func (r *deferredRenderer) fatal(msg string, err error) error {
	r.logger.Error(msg, "err", err)
	return fmt.Errorf("deferred: %s: %w", msg, err)
}

func (r *deferredRenderer) lineWidth() float32 {
	if r.wideLines {
		return WideLineWidth
	}
	return 1
}

func (r *deferredRenderer) AddStatic(s model.Static) {
	if s == nil {
		return
	}
	r.mu.Lock()
	r.queue.statics = append(r.queue.statics, s)
	r.mu.Unlock()
}

func (r *deferredRenderer) AddAnimated(a model.Animated) {
	if a == nil {
		return
	}
	r.mu.Lock()
	r.queue.animated = append(r.queue.animated, a)
	r.mu.Unlock()
}

func (r *deferredRenderer) AddDirectional(l light.Directional) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.queue.directional = append(r.queue.directional, l)
	r.mu.Unlock()
}

func (r *deferredRenderer) AddPoint(l light.Point) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.queue.points = append(r.queue.points, l)
	r.mu.Unlock()
}

func (r *deferredRenderer) Render(cam camera.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.queue.reset()

	r.stats = FrameStats{}
	r.lastCascades = r.lastCascades[:0]

	sel := selectorFor(r.override, r.display == renderer.DisplayLighting)
	if !r.queue.usable(sel) {
		r.stats.Aborted = true
		r.logger.Debug("frame skipped, resources still loading",
			"statics", len(r.queue.statics), "animated", len(r.queue.animated))
		return nil
	}
	if err := r.pipelines.build(r.device); err != nil {
		return r.fatal("failed to build pipelines", err)
	}
	if err := r.device.BeginFrame(); err != nil {
		return r.fatal("failed to begin frame", err)
	}

	frame := r.frameUniforms(cam)
	r.device.SetUniforms(renderer.SlotFrame, &frame)

	visible := r.visibleDraws(cam, sel)
	r.recordGeometry(visible)
	r.gbuf.transition(r.device, renderer.StateShaderRead, renderer.StateShaderRead)

	if r.display.IsDebug() {
		r.recordDebug(visible)
	} else {
		r.hdr.transitionTarget(r.device)
		r.recordLightingClear()
		r.recordDirectionalLights(cam, sel)
		r.recordPointLights(cam)
		r.recordToneMap()
	}

	if err := r.device.EndFrame(); err != nil {
		return r.fatal("failed to render frame", err)
	}
	return nil
}

func (r *deferredRenderer) frameUniforms(cam camera.Camera) renderer.FrameUniforms {
	return renderer.FrameUniforms{
		View:           cam.ViewMatrix(),
		Projection:     cam.ProjectionMatrix(),
		ViewProjection: cam.ViewProjectionMatrix(),
		InverseView:    cam.InverseViewMatrix(),
		CameraPosition: cam.Position(),
		Near:           cam.Near(),
		Far:            cam.Far(),
		Exposure:       r.exposure,
		Gamma:          r.gamma,
	}
}

func (r *deferredRenderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("deferred: invalid size %dx%d", width, height)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.device.WaitIdle()
	if err := r.device.Resize(width, height); err != nil {
		return r.fatal("failed to resize device", err)
	}
	r.gbuf.destroy(r.device)
	r.hdr.destroy(r.device)
	if err := r.gbuf.create(r.device, width, height); err != nil {
		return r.fatal("failed to recreate gbuffer", err)
	}
	if err := r.hdr.create(r.device, width, height); err != nil {
		return r.fatal("failed to recreate hdr buffer", err)
	}
	if err := r.pipelines.build(r.device); err != nil {
		return r.fatal("failed to build pipelines", err)
	}
	r.width, r.height = width, height
	r.logger.Info("renderer resized", "width", width, "height", height)
	return nil
}

func (r *deferredRenderer) SetExposure(exposure float32) error {
	if exposure <= 0 || isNaN(exposure) {
		return fmt.Errorf("deferred: exposure must be positive, got %v", exposure)
	}
	r.mu.Lock()
	r.exposure = exposure
	r.mu.Unlock()
	return nil
}

func (r *deferredRenderer) SetGamma(gamma float32) error {
	if gamma <= 0 || isNaN(gamma) {
		return fmt.Errorf("deferred: gamma must be positive, got %v", gamma)
	}
	r.mu.Lock()
	r.gamma = gamma
	r.mu.Unlock()
	return nil
}

func (r *deferredRenderer) SetCascadeLambda(lambda float32) error {
	if !(lambda >= 0 && lambda <= 1) {
		return fmt.Errorf("deferred: cascade lambda must be in [0,1], got %v", lambda)
	}
	r.mu.Lock()
	r.cascadeLambda = lambda
	r.mu.Unlock()
	return nil
}

func (r *deferredRenderer) SetLightOffset(offset float32) error {
	if offset <= 0 || isNaN(offset) {
		return fmt.Errorf("deferred: light offset must be positive, got %v", offset)
	}
	r.mu.Lock()
	r.lightOffset = offset
	r.mu.Unlock()
	return nil
}

func (r *deferredRenderer) SetDisplayType(d renderer.DisplayType) {
	r.mu.Lock()
	r.display = d
	r.mu.Unlock()
}

func (r *deferredRenderer) DisplayType() renderer.DisplayType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.display
}

func (r *deferredRenderer) SetDepthClamp(enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.toggleFeature(renderer.FeatureDepthClamp, enabled, &r.depthClamp, pipeline.KindShadow, pipeline.KindShadowMorph)
}

func (r *deferredRenderer) SetWideLines(enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.toggleFeature(renderer.FeatureWideLines, enabled, &r.wideLines, pipeline.KindWireframe, pipeline.KindWireframeMorph)
}

// toggleFeature flips an optional pipeline feature and rebuilds the affected kinds,
// restoring the previous pipelines when the device rejects the new ones.
func (r *deferredRenderer) toggleFeature(f renderer.Feature, enabled bool, state *bool, kinds ...pipeline.Kind) bool {
	if *state == enabled {
		return true
	}
	if enabled && !r.device.Supports(f) {
		r.logger.Warn("feature not supported", "feature", f)
		return false
	}
	previous := *state
	*state = enabled
	r.pipelines.update(r.depthClamp, r.lineWidth(), kinds...)
	if err := r.pipelines.build(r.device); err != nil {
		r.logger.Warn("failed to rebuild pipelines", "feature", f, "err", err)
		*state = previous
		r.pipelines.update(r.depthClamp, r.lineWidth(), kinds...)
		if err := r.pipelines.build(r.device); err != nil {
			r.logger.Error("failed to restore pipelines", "feature", f, "err", err)
		}
		return false
	}
	r.logger.Info("feature toggled", "feature", f, "enabled", enabled)
	return true
}

func (r *deferredRenderer) ApplyConfig(cfg renderer.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("deferred: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.exposure = cfg.Exposure
	r.gamma = cfg.Gamma
	r.cascadeLambda = cfg.CascadeLambda
	r.lightOffset = cfg.LightOffset
	r.display = cfg.Display
	r.toggleFeature(renderer.FeatureDepthClamp, cfg.DepthClamp, &r.depthClamp, pipeline.KindShadow, pipeline.KindShadowMorph)
	r.toggleFeature(renderer.FeatureWideLines, cfg.WideLines, &r.wideLines, pipeline.KindWireframe, pipeline.KindWireframeMorph)

	if cfg.ShadowResolution != r.shadowResolution {
		r.device.WaitIdle()
		r.cascades.destroy(r.device)
		if err := r.cascades.create(r.device, cfg.ShadowResolution); err != nil {
			return r.fatal("failed to recreate shadow maps", err)
		}
		r.shadowResolution = cfg.ShadowResolution
	}
	r.logger.Info("renderer config applied", "exposure", r.exposure, "gamma", r.gamma, "display", r.display)
	return nil
}

func (r *deferredRenderer) Cascades() []CascadeSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CascadeSet(nil), r.lastCascades...)
}

func (r *deferredRenderer) LastFrameStats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *deferredRenderer) HDRTarget() renderer.AttachmentHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hdr.target
}

func (r *deferredRenderer) Release() {
	r.device.WaitIdle()
	if r.pipelines != nil {
		r.pipelines.release()
	}
	r.gbuf.destroy(r.device)
	r.hdr.destroy(r.device)
	r.cascades.destroy(r.device)
	if r.volume != nil {
		if h := r.volume.MarkReleased(); h != 0 {
			r.device.ReleaseMesh(h)
		}
	}
}

func isNaN(v float32) bool {
	return math.IsNaN(float64(v))
}
