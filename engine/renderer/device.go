package renderer

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// AttachmentHandle identifies an off-screen or presentable image owned by a Device.
type AttachmentHandle uint32

// OutputAttachment is the device's presentable image: the swapchain texture for a
// windowed device, an RGBA8 image for a headless one. It always exists and is resized
// by Device.Resize.
const OutputAttachment AttachmentHandle = 0

// AttachmentDescriptor describes an attachment to create.
type AttachmentDescriptor struct {
	Label  string
	Width  int
	Height int
	Format pipeline.TextureFormat
}

// ResourceState is the usage an attachment is prepared for. Passes may only write
// attachments in a target state and only sample attachments in StateShaderRead;
// Transition moves an attachment between states and orders the GPU work around it.
type ResourceState int

const (
	// StateUndefined is the state of a freshly created attachment.
	StateUndefined ResourceState = iota
	// StateColorTarget allows the attachment to be written as a color target.
	StateColorTarget
	// StateDepthTarget allows the attachment to be written as a depth target.
	StateDepthTarget
	// StateShaderRead allows sampling and read-only depth testing.
	StateShaderRead
	// StatePresent hands the output image to the presentation engine.
	StatePresent
)

func (s ResourceState) String() string {
	switch s {
	case StateColorTarget:
		return "color-target"
	case StateDepthTarget:
		return "depth-target"
	case StateShaderRead:
		return "shader-read"
	case StatePresent:
		return "present"
	default:
		return "undefined"
	}
}

// LoadOp selects what a pass does with an attachment's previous contents.
type LoadOp int

const (
	// LoadOpClear clears the attachment to the pass clear value.
	LoadOpClear LoadOp = iota
	// LoadOpLoad keeps the existing contents.
	LoadOpLoad
)

// ColorAttachment binds an attachment as a color output of a pass.
type ColorAttachment struct {
	Attachment AttachmentHandle
	Load       LoadOp
	Clear      mgl32.Vec4
}

// DepthAttachment binds an attachment as the depth buffer of a pass. A read-only depth
// attachment is tested against but never written and must be in StateShaderRead.
type DepthAttachment struct {
	Attachment AttachmentHandle
	Load       LoadOp
	Clear      float32
	ReadOnly   bool
}

// PassDescriptor describes one render pass.
type PassDescriptor struct {
	Label  string
	Colors []ColorAttachment
	Depth  *DepthAttachment
}

// MeshHandle identifies uploaded vertex and index buffers. The zero handle is never valid.
type MeshHandle uint32

// TextureHandle identifies an uploaded sampled texture. NoTexture selects the device's
// built-in white texture.
type TextureHandle uint32

// NoTexture is the handle of the device's built-in 1x1 white texture.
const NoTexture TextureHandle = 0

// Vertex is the interleaved vertex layout shared by every mesh pipeline.
// Stride: 44 bytes (position 0, normal 12, tangent 24, uv 36).
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec3
	UV       mgl32.Vec2
}

// VertexStride is the size of a Vertex in a vertex buffer.
const VertexStride = 44

// MeshData is CPU-side geometry pending upload.
type MeshData struct {
	Label    string
	Vertices []Vertex
	Indices  []uint32
}

// TextureData is CPU-side RGBA8 pixels pending upload.
type TextureData struct {
	Label string
	Image common.ImageData
}

// MaterialBinding selects the textures sampled by geometry and wireframe pipelines.
// A NoTexture normal map disables normal mapping.
type MaterialBinding struct {
	Ambient  TextureHandle
	Diffuse  TextureHandle
	Specular TextureHandle
	Alpha    TextureHandle
	Normal   TextureHandle
}

// UniformSlot selects which uniform block a SetUniforms call replaces.
type UniformSlot int

const (
	// SlotFrame holds per-frame camera data (FrameUniforms).
	SlotFrame UniformSlot = iota
	// SlotObject holds per-draw transform and material scalars (ObjectUniforms).
	SlotObject
	// SlotLight holds per-light or per-cascade data.
	SlotLight
	// SlotCount is the number of uniform slots.
	SlotCount
)

// Uniform is a block of shader constants with a fixed std140 layout.
type Uniform interface {
	// Size returns the size of the marshaled block in bytes.
	Size() int
	// Marshal serializes the block for GPU upload.
	Marshal() []byte
}

// Feature is an optional, hardware-dependent pipeline capability.
type Feature int

const (
	// FeatureDepthClamp allows pipelines with Descriptor.DepthClamp.
	FeatureDepthClamp Feature = iota
	// FeatureWideLines allows wireframe line widths other than 1.
	FeatureWideLines
)

func (f Feature) String() string {
	switch f {
	case FeatureDepthClamp:
		return "depth-clamp"
	case FeatureWideLines:
		return "wide-lines"
	default:
		return "unknown"
	}
}

// Device is the GPU abstraction the deferred renderer records frames against.
//
// Recording calls (Transition, BeginPass, SetPipeline, SetUniforms, Bind*, Draw*,
// EndPass) do not return errors; the first failure of a frame is kept and reported by
// EndFrame, after which the rest of the frame is ignored. Creation calls report
// failures immediately. A Device is used from one goroutine at a time, except that
// UploadMesh and UploadTexture may be called concurrently with recording.
type Device interface {
	// Size returns the size of OutputAttachment in pixels.
	Size() (width, height int)

	// Resize resizes OutputAttachment. Callers must WaitIdle first.
	Resize(width, height int) error

	// Supports reports whether an optional feature is available.
	Supports(f Feature) bool

	// CreateAttachment allocates an attachment in StateUndefined.
	CreateAttachment(desc AttachmentDescriptor) (AttachmentHandle, error)

	// DestroyAttachment frees an attachment. OutputAttachment cannot be destroyed.
	DestroyAttachment(h AttachmentHandle)

	// CompilePipeline compiles a descriptor into a native pipeline.
	CompilePipeline(desc pipeline.Descriptor) (pipeline.Native, error)

	// UploadMesh copies geometry to the device.
	UploadMesh(data MeshData) (MeshHandle, error)

	// ReleaseMesh frees uploaded geometry.
	ReleaseMesh(h MeshHandle)

	// UploadTexture copies RGBA8 pixels to the device.
	UploadTexture(data TextureData) (TextureHandle, error)

	// ReleaseTexture frees an uploaded texture. NoTexture is ignored.
	ReleaseTexture(h TextureHandle)

	// BeginFrame starts recording a frame.
	BeginFrame() error

	// Transition moves an attachment into a new usage state.
	Transition(h AttachmentHandle, state ResourceState)

	// BeginPass starts a render pass. Only one pass is open at a time.
	BeginPass(desc PassDescriptor)

	// SetPipeline binds a compiled pipeline for subsequent draws.
	SetPipeline(p pipeline.Native)

	// SetUniforms replaces the contents of a uniform slot for subsequent draws.
	SetUniforms(slot UniformSlot, u Uniform)

	// BindMaterial selects the material textures for subsequent mesh draws.
	BindMaterial(m MaterialBinding)

	// BindAttachments binds attachments in StateShaderRead as pipeline inputs, in the
	// order the bound pipeline kind expects them.
	BindAttachments(inputs ...AttachmentHandle)

	// DrawMesh draws an indexed mesh with the bound state.
	DrawMesh(mesh MeshHandle)

	// DrawMorph draws two keyframe meshes with identical topology blended by ObjectUniforms.Blend.
	DrawMorph(current, next MeshHandle)

	// DrawFullscreen covers the pass with one full-screen triangle.
	DrawFullscreen()

	// EndPass closes the open render pass.
	EndPass()

	// EndFrame submits the frame, presents OutputAttachment when windowed, and returns the
	// first recording error of the frame.
	EndFrame() error

	// WaitIdle blocks until the device has finished all submitted work.
	WaitIdle()

	// Release frees every device resource.
	Release()
}
