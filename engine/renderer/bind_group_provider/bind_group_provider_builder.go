package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithMesh hands the indexed geometry of a mesh to the provider.
//
// Parameters:
//   - vertices: the vertex buffer
//   - indices: the uint32 index buffer
//   - vertexCount: number of vertices in vertices
//   - indexCount: number of indices in indices
//
// Returns:
//   - BindGroupProviderOption: a function that stores the mesh buffers
func WithMesh(vertices, indices *wgpu.Buffer, vertexCount, indexCount int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexBuffer, p.indexBuffer = vertices, indices
		p.vertexCount, p.indexCount = vertexCount, indexCount
	}
}

// WithBuffer hands an additional vertex stream to the provider.
//
// Parameters:
//   - slot: SlotWireframe or SlotBarycentric
//   - buf: the buffer
//
// Returns:
//   - BindGroupProviderOption: a function that stores the buffer in the slot
func WithBuffer(slot int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[slot] = buf
	}
}

// WithTexture hands a sampled texture and its view to the provider.
//
// Parameters:
//   - tex: the texture
//   - view: the default view of tex
//
// Returns:
//   - BindGroupProviderOption: a function that stores the texture
func WithTexture(tex *wgpu.Texture, view *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.texture, p.textureView = tex, view
	}
}
