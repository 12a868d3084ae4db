// Package webgpu implements renderer.Device on top of wgpu-native. Pipelines are built
// from the embedded WGSL programs of the shader package; per-draw uniforms are packed
// into one ring buffer per frame and addressed with dynamic offsets.
package webgpu

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// defaultUniformCapacity holds 16384 blocks at the usual 256-byte offset alignment.
const defaultUniformCapacity = 4 << 20

// Device is the wgpu renderer.Device. It renders to a window surface, or to an
// off-screen RGBA8 output when created without a surface descriptor.
type Device struct {
	logger *log.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	outputFormat         wgpu.TextureFormat
	alphaMode            wgpu.CompositeAlphaMode
	presentMode          renderer.PresentMode
	forceFallbackAdapter bool
	uniformCapacity      uint64
	width                int
	height               int

	// resMu guards meshes and textures, which uploads touch from loader goroutines.
	resMu       sync.RWMutex
	meshes      map[renderer.MeshHandle]bind_group_provider.BindGroupProvider
	textures    map[renderer.TextureHandle]bind_group_provider.BindGroupProvider
	nextMesh    renderer.MeshHandle
	nextTexture renderer.TextureHandle
	released    []bind_group_provider.BindGroupProvider

	attachments    map[renderer.AttachmentHandle]*attachment
	nextAttachment renderer.AttachmentHandle

	layouts         map[string]*wgpu.BindGroupLayout
	emptyLayout     *wgpu.BindGroupLayout
	emptyGroup      *wgpu.BindGroup
	materialSampler *wgpu.Sampler
	shadowSampler   *wgpu.Sampler
	uniforms        *uniformRing
	resourceGroups  map[resourceKey]*wgpu.BindGroup

	frame frameState
}

var _ renderer.Device = &Device{}

// New acquires an adapter and device and configures the output.
//
// Parameters:
//   - surfaceDescriptor: the platform surface to present to, or nil for an off-screen output
//   - width, height: the output size in pixels
//   - options: variadic list of DeviceBuilderOption functions
//
// Returns:
//   - *Device: the new device
//   - error: error if no adapter or device could be acquired
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...DeviceBuilderOption) (*Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("webgpu: invalid output size %dx%d", width, height)
	}
	runtime.LockOSThread()

	d := &Device{
		instance:        wgpu.CreateInstance(nil),
		presentMode:     renderer.PresentFifo,
		uniformCapacity: defaultUniformCapacity,
		width:           width,
		height:          height,
		meshes:          make(map[renderer.MeshHandle]bind_group_provider.BindGroupProvider),
		textures:        make(map[renderer.TextureHandle]bind_group_provider.BindGroupProvider),
		attachments:     make(map[renderer.AttachmentHandle]*attachment),
		nextAttachment:  renderer.OutputAttachment + 1,
		layouts:         make(map[string]*wgpu.BindGroupLayout),
		resourceGroups:  make(map[resourceKey]*wgpu.BindGroup),
	}
	for _, opt := range options {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "webgpu"})
	}

	if surfaceDescriptor != nil {
		d.surface = d.instance.CreateSurface(surfaceDescriptor)
	}
	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %w", err)
	}
	d.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Deferred Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", err)
	}
	d.device = device
	d.queue = device.GetQueue()

	if err := d.init(); err != nil {
		d.Release()
		return nil, err
	}

	info := adapter.GetInfo()
	d.logger.Info("device created", "adapter", info.Name, "backend", info.BackendType, "width", width, "height", height)
	return d, nil
}

// init creates the output, samplers, the white texture and the uniform ring.
func (d *Device) init() error {
	if d.surface != nil {
		caps := d.surface.GetCapabilities(d.adapter)
		d.outputFormat = surfaceFormat(caps.Formats)
		d.alphaMode = wgpu.CompositeAlphaModeAuto
		if len(caps.AlphaModes) > 0 {
			d.alphaMode = caps.AlphaModes[0]
		}
	} else {
		d.outputFormat = wgpu.TextureFormatRGBA8Unorm
	}
	if err := d.configureOutput(); err != nil {
		return err
	}

	var err error
	d.materialSampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Material Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("webgpu: create material sampler: %w", err)
	}

	// Comparison passes when the stored depth is at least the receiver's, so a lit
	// texel samples as 1.
	d.shadowSampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		Compare:       wgpu.CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("webgpu: create shadow sampler: %w", err)
	}

	white, err := d.createTexture("white", 1, 1, []byte{255, 255, 255, 255})
	if err != nil {
		return err
	}
	d.textures[renderer.NoTexture] = white

	d.emptyLayout, err = d.layout(wgpu.BindGroupLayoutDescriptor{Label: "Empty Group"})
	if err != nil {
		return err
	}
	d.emptyGroup, err = d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Empty Bind Group",
		Layout: d.emptyLayout,
	})
	if err != nil {
		return fmt.Errorf("webgpu: create empty bind group: %w", err)
	}

	align := uint64(d.device.GetLimits().Limits.MinUniformBufferOffsetAlignment)
	d.uniforms, err = newUniformRing(d.device, d.uniformCapacity, align)
	return err
}

// configureOutput (re)configures the swapchain, or recreates the off-screen output.
func (d *Device) configureOutput() error {
	if d.surface != nil {
		caps := d.surface.GetCapabilities(d.adapter)
		d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      d.outputFormat,
			Width:       uint32(d.width),
			Height:      uint32(d.height),
			PresentMode: presentMode(d.presentMode, caps.PresentModes),
			AlphaMode:   d.alphaMode,
		})
		prev := d.attachments[renderer.OutputAttachment]
		state := renderer.StateUndefined
		if prev != nil {
			state = prev.state
		}
		d.attachments[renderer.OutputAttachment] = &attachment{
			label:  "output",
			width:  d.width,
			height: d.height,
			format: pipeline.FormatOutput,
			state:  state,
		}
		return nil
	}

	if prev := d.attachments[renderer.OutputAttachment]; prev != nil {
		d.releaseAttachment(prev)
	}
	a, err := d.newAttachment(renderer.AttachmentDescriptor{
		Label:  "output",
		Width:  d.width,
		Height: d.height,
		Format: pipeline.FormatOutput,
	})
	if err != nil {
		return err
	}
	d.attachments[renderer.OutputAttachment] = a
	return nil
}

func (d *Device) Size() (int, int) {
	return d.width, d.height
}

func (d *Device) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("webgpu: invalid output size %dx%d", width, height)
	}
	if d.frame.active {
		return errors.New("webgpu: resize during a frame")
	}
	d.width, d.height = width, height
	if err := d.configureOutput(); err != nil {
		return err
	}
	d.logger.Debug("output resized", "width", width, "height", height)
	return nil
}

// Supports reports false for every optional feature: wgpu-native exposes neither
// unclipped depth nor line widths through this binding.
func (d *Device) Supports(f renderer.Feature) bool {
	return false
}

// SetPresentMode changes the swapchain present mode and reconfigures the surface.
//
// Parameters:
//   - mode: the requested present mode; unsupported modes fall back to FIFO
//
// Returns:
//   - error: error if called during a frame
func (d *Device) SetPresentMode(mode renderer.PresentMode) error {
	if d.frame.active {
		return errors.New("webgpu: present mode change during a frame")
	}
	d.presentMode = mode
	if d.surface == nil {
		return nil
	}
	return d.configureOutput()
}

func (d *Device) WaitIdle() {
	if d.device != nil {
		d.device.Poll(true, nil)
	}
}

func (d *Device) Release() {
	if d.frame.active {
		d.discardFrame()
	}
	for key, g := range d.resourceGroups {
		g.Release()
		delete(d.resourceGroups, key)
	}
	if d.uniforms != nil {
		d.uniforms.release()
		d.uniforms = nil
	}

	d.resMu.Lock()
	for h, m := range d.meshes {
		m.Release()
		delete(d.meshes, h)
	}
	for h, t := range d.textures {
		t.Release()
		delete(d.textures, h)
	}
	for _, t := range d.released {
		t.Release()
	}
	d.released = nil
	d.resMu.Unlock()

	for h, a := range d.attachments {
		d.releaseAttachment(a)
		delete(d.attachments, h)
	}
	if d.emptyGroup != nil {
		d.emptyGroup.Release()
		d.emptyGroup = nil
	}
	for key, l := range d.layouts {
		l.Release()
		delete(d.layouts, key)
	}
	d.emptyLayout = nil
	if d.shadowSampler != nil {
		d.shadowSampler.Release()
		d.shadowSampler = nil
	}
	if d.materialSampler != nil {
		d.materialSampler.Release()
		d.materialSampler = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
