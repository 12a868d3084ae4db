package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Vertex stream slots a mesh provider may carry besides its indexed vertex buffer.
const (
	// SlotWireframe is the de-indexed vertex stream drawn by wireframe pipelines.
	SlotWireframe = iota
	// SlotBarycentric holds one barycentric coordinate per de-indexed vertex.
	SlotBarycentric
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources owned by the provider and freed by Release.

	// buffers holds additional vertex streams, keyed by slot.
	buffers map[int]*wgpu.Buffer
	// texture and textureView back a sampled texture provider.
	texture     *wgpu.Texture
	textureView *wgpu.TextureView

	// vertexBuffer is the indexed vertex stream of a mesh provider.
	vertexBuffer *wgpu.Buffer
	// indexBuffer holds uint32 indices into vertexBuffer.
	indexBuffer *wgpu.Buffer
	// indexCount is the number of indices issued per draw.
	indexCount int
	// vertexCount is the number of vertices in vertexBuffer.
	vertexCount int
}

// BindGroupProvider owns the GPU objects behind one uploaded mesh or texture. The device
// keeps providers in its handle tables; the bind groups that reference them are cached
// by the device and dropped when a provider is released.
type BindGroupProvider interface {
	// Release releases every GPU object held by this provider. Safe to call more than once.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Buffer returns the additional vertex stream in a slot.
	//
	// Parameters:
	//   - slot: SlotWireframe or SlotBarycentric
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(slot int) *wgpu.Buffer

	// TextureView returns the view of a texture provider, nil for meshes.
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView() *wgpu.TextureView

	// VertexBuffer returns the indexed vertex stream, nil for textures.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the index buffer, nil for textures.
	//
	// Returns:
	//   - *wgpu.Buffer: the index buffer or nil
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices for draw calls.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// VertexCount returns the number of vertices in the vertex buffer.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// SameTopology reports whether two mesh providers can be blended as morph keyframes.
	//
	// Parameters:
	//   - other: the provider to compare against
	//
	// Returns:
	//   - bool: true if index and vertex counts match
	SameTopology(other BindGroupProvider) bool
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider that takes ownership of the
// objects passed in through options.
//
// Parameters:
//   - label: debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Buffer(slot int) *wgpu.Buffer {
	return p.buffers[slot]
}

func (p *bindGroupProvider) TextureView() *wgpu.TextureView {
	return p.textureView
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) VertexCount() int {
	return p.vertexCount
}

func (p *bindGroupProvider) SameTopology(other BindGroupProvider) bool {
	return other != nil && p.indexCount == other.IndexCount() && p.vertexCount == other.VertexCount()
}

func (p *bindGroupProvider) Release() {
	for slot, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, slot)
	}
	if p.textureView != nil {
		p.textureView.Release()
		p.textureView = nil
	}
	if p.texture != nil {
		p.texture.Release()
		p.texture = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
}
