package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// gpuWriter appends std140-aligned values to a fixed-size buffer.
type gpuWriter struct {
	buf []byte
	off int
}

func newGPUWriter(size int) *gpuWriter {
	return &gpuWriter{buf: make([]byte, size)}
}

func (w *gpuWriter) f32(v float32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:w.off+4], math.Float32bits(v))
	w.off += 4
}

func (w *gpuWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:w.off+4], v)
	w.off += 4
}

func (w *gpuWriter) vec3(v mgl32.Vec3) {
	w.f32(v[0])
	w.f32(v[1])
	w.f32(v[2])
}

func (w *gpuWriter) vec4(v mgl32.Vec4) {
	for i := 0; i < 4; i++ {
		w.f32(v[i])
	}
}

// mat4 writes a column-major matrix, which is both mgl32's and WGSL's memory order.
func (w *gpuWriter) mat4(m mgl32.Mat4) {
	for i := 0; i < 16; i++ {
		w.f32(m[i])
	}
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// FrameUniforms is the per-frame camera block bound at SlotFrame.
// Size: 288 bytes.
type FrameUniforms struct {
	View           mgl32.Mat4 // offset   0
	Projection     mgl32.Mat4 // offset  64
	ViewProjection mgl32.Mat4 // offset 128
	InverseView    mgl32.Mat4 // offset 192
	CameraPosition mgl32.Vec3 // offset 256
	Near           float32    // offset 268
	Far            float32    // offset 272
	Exposure       float32    // offset 276
	Gamma          float32    // offset 280
	// offset 284: padding
}

// Size returns the size of the FrameUniforms block in bytes.
//
// Returns:
//   - int: the block size in bytes (288)
func (u *FrameUniforms) Size() int {
	return 288
}

// Marshal serializes the FrameUniforms block for GPU upload.
//
// Returns:
//   - []byte: 288-byte buffer ready for GPU upload
func (u *FrameUniforms) Marshal() []byte {
	w := newGPUWriter(u.Size())
	w.mat4(u.View)
	w.mat4(u.Projection)
	w.mat4(u.ViewProjection)
	w.mat4(u.InverseView)
	w.vec3(u.CameraPosition)
	w.f32(u.Near)
	w.f32(u.Far)
	w.f32(u.Exposure)
	w.f32(u.Gamma)
	return w.buf
}

// ObjectUniforms is the per-draw block bound at SlotObject.
// Size: 160 bytes.
type ObjectUniforms struct {
	World            mgl32.Mat4 // offset   0
	Normal           mgl32.Mat4 // offset  64: inverse-transpose of World
	DebugColor       mgl32.Vec4 // offset 128: wireframe tint
	Blend            float32    // offset 144: keyframe blend factor for morph draws
	SpecularExponent float32    // offset 148
	HasNormalMap     bool       // offset 152: stored as u32
	LineWidth        float32    // offset 156: wireframe edge width in pixels
}

// Size returns the size of the ObjectUniforms block in bytes.
//
// Returns:
//   - int: the block size in bytes (160)
func (u *ObjectUniforms) Size() int {
	return 160
}

// Marshal serializes the ObjectUniforms block for GPU upload.
//
// Returns:
//   - []byte: 160-byte buffer ready for GPU upload
func (u *ObjectUniforms) Marshal() []byte {
	w := newGPUWriter(u.Size())
	w.mat4(u.World)
	w.mat4(u.Normal)
	w.vec4(u.DebugColor)
	w.f32(u.Blend)
	w.f32(u.SpecularExponent)
	w.u32(boolToU32(u.HasNormalMap))
	w.f32(u.LineWidth)
	return w.buf
}

// ShadowUniforms is the per-cascade block bound at SlotLight during shadow passes.
// Size: 64 bytes.
type ShadowUniforms struct {
	LightViewProjection mgl32.Mat4 // offset 0
}

// Size returns the size of the ShadowUniforms block in bytes.
//
// Returns:
//   - int: the block size in bytes (64)
func (u *ShadowUniforms) Size() int {
	return 64
}

// Marshal serializes the ShadowUniforms block for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (u *ShadowUniforms) Marshal() []byte {
	w := newGPUWriter(u.Size())
	w.mat4(u.LightViewProjection)
	return w.buf
}

// DirectionalLightUniforms is the block bound at SlotLight for the directional light pass.
// Size: 272 bytes.
type DirectionalLightUniforms struct {
	Direction    mgl32.Vec3 // offset   0: direction the light travels in
	CastsShadows bool       // offset  12: stored as u32
	Ambient      mgl32.Vec3 // offset  16
	TintCascades bool       // offset  28: stored as u32, cascade debug tint
	Diffuse      mgl32.Vec3 // offset  32
	ShadowTexel  float32    // offset  44: 1 / shadow map resolution
	Specular     mgl32.Vec3 // offset  48
	// offset 60: padding
	CascadeViewProjection [light.CascadeCount]mgl32.Mat4 // offset 64
	// CascadeEnds holds the view-space split distances ends[0..CascadeCount].
	CascadeEnds [light.CascadeCount + 1]float32 // offset 256
}

// Size returns the size of the DirectionalLightUniforms block in bytes.
//
// Returns:
//   - int: the block size in bytes (272)
func (u *DirectionalLightUniforms) Size() int {
	return 272
}

// Marshal serializes the DirectionalLightUniforms block for GPU upload.
//
// Returns:
//   - []byte: 272-byte buffer ready for GPU upload
func (u *DirectionalLightUniforms) Marshal() []byte {
	w := newGPUWriter(u.Size())
	w.vec3(u.Direction)
	w.u32(boolToU32(u.CastsShadows))
	w.vec3(u.Ambient)
	w.u32(boolToU32(u.TintCascades))
	w.vec3(u.Diffuse)
	w.f32(u.ShadowTexel)
	w.vec3(u.Specular)
	w.f32(0)
	for _, m := range u.CascadeViewProjection {
		w.mat4(m)
	}
	for _, e := range u.CascadeEnds {
		w.f32(e)
	}
	return w.buf
}

// PointLightUniforms is the block bound at SlotLight for each point light volume.
// Size: 144 bytes.
type PointLightUniforms struct {
	Volume   mgl32.Mat4 // offset   0: unit sphere to world transform
	Position mgl32.Vec3 // offset  64
	Radius   float32    // offset  76
	// Attenuation holds the constant, linear and quadratic coefficients.
	Attenuation mgl32.Vec3 // offset  80
	// offset 92: padding
	Ambient mgl32.Vec3 // offset  96
	// offset 108: padding
	Diffuse mgl32.Vec3 // offset 112
	// offset 124: padding
	Specular mgl32.Vec3 // offset 128
	// offset 140: padding
}

// Size returns the size of the PointLightUniforms block in bytes.
//
// Returns:
//   - int: the block size in bytes (144)
func (u *PointLightUniforms) Size() int {
	return 144
}

// Marshal serializes the PointLightUniforms block for GPU upload.
//
// Returns:
//   - []byte: 144-byte buffer ready for GPU upload
func (u *PointLightUniforms) Marshal() []byte {
	w := newGPUWriter(u.Size())
	w.mat4(u.Volume)
	w.vec3(u.Position)
	w.f32(u.Radius)
	w.vec3(u.Attenuation)
	w.f32(0)
	w.vec3(u.Ambient)
	w.f32(0)
	w.vec3(u.Diffuse)
	w.f32(0)
	w.vec3(u.Specular)
	w.f32(0)
	return w.buf
}

// MarshalVertices serializes vertices into the interleaved VertexStride layout.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: len(vertices)*VertexStride bytes ready for a vertex buffer
func MarshalVertices(vertices []Vertex) []byte {
	w := newGPUWriter(len(vertices) * VertexStride)
	for _, v := range vertices {
		w.vec3(v.Position)
		w.vec3(v.Normal)
		w.vec3(v.Tangent)
		w.f32(v.UV[0])
		w.f32(v.UV[1])
	}
	return w.buf
}
