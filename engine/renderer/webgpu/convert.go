package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// textureFormat maps a backend-neutral format to its wgpu equivalent. FormatOutput
// resolves to the format the device presents with.
func textureFormat(f pipeline.TextureFormat, output wgpu.TextureFormat) (wgpu.TextureFormat, error) {
	switch f {
	case pipeline.FormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm, nil
	case pipeline.FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float, nil
	case pipeline.FormatRGBA32Float:
		return wgpu.TextureFormatRGBA32Float, nil
	case pipeline.FormatDepth32Float:
		return wgpu.TextureFormatDepth32Float, nil
	case pipeline.FormatOutput:
		return output, nil
	}
	return wgpu.TextureFormatUndefined, fmt.Errorf("webgpu: no texture format for %d", int(f))
}

func compareFunction(c pipeline.CompareFunc) wgpu.CompareFunction {
	switch c {
	case pipeline.CompareLess:
		return wgpu.CompareFunctionLess
	case pipeline.CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	default:
		return wgpu.CompareFunctionAlways
	}
}

func cullMode(c pipeline.CullMode) wgpu.CullMode {
	switch c {
	case pipeline.CullBack:
		return wgpu.CullModeBack
	case pipeline.CullFront:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}

// blendState returns nil for BlendNone, which disables blending on the target.
func blendState(b pipeline.BlendMode) *wgpu.BlendState {
	switch b {
	case pipeline.BlendAdditive:
		add := wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
		}
		return &wgpu.BlendState{Color: add, Alpha: add}
	case pipeline.BlendAlpha:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
		}
	}
	return nil
}

func loadOp(op renderer.LoadOp) wgpu.LoadOp {
	if op == renderer.LoadOpLoad {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func clearColor(c mgl32.Vec4) wgpu.Color {
	return wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}

// presentMode maps the configured mode onto one the surface supports, falling back
// to FIFO, which every surface must offer.
func presentMode(p renderer.PresentMode, supported []wgpu.PresentMode) wgpu.PresentMode {
	want := wgpu.PresentModeFifo
	switch p {
	case renderer.PresentMailbox:
		want = wgpu.PresentModeMailbox
	case renderer.PresentImmediate:
		want = wgpu.PresentModeImmediate
	}
	for _, m := range supported {
		if m == want {
			return want
		}
	}
	return wgpu.PresentModeFifo
}

// surfaceFormat prefers a non-sRGB 8-bit format because the tone map pass applies
// gamma itself.
func surfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, want := range []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatRGBA8Unorm} {
		for _, f := range formats {
			if f == want {
				return f
			}
		}
	}
	if len(formats) == 0 {
		return wgpu.TextureFormatBGRA8Unorm
	}
	return formats[0]
}

// alignUp rounds n up to a multiple of align, which must be a power of two.
func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

// dynamicLayout copies a reflected layout, marking uniform buffers as dynamic so every
// draw can point the same bind group at its own slice of the uniform ring.
func dynamicLayout(desc wgpu.BindGroupLayoutDescriptor) wgpu.BindGroupLayoutDescriptor {
	out := wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: make([]wgpu.BindGroupLayoutEntry, len(desc.Entries)),
	}
	for i, e := range desc.Entries {
		if e.Buffer.Type == wgpu.BufferBindingTypeUniform {
			e.Buffer.HasDynamicOffset = true
		}
		out.Entries[i] = e
	}
	return out
}

// layoutKey identifies a bind group layout by content, so pipelines with equal groups
// share one layout object and can share bind groups.
func layoutKey(desc wgpu.BindGroupLayoutDescriptor) string {
	var sb strings.Builder
	for _, e := range desc.Entries {
		fmt.Fprintf(&sb, "%d/%d/b%d,%t,%d/s%d/t%d,%d;",
			e.Binding, e.Visibility,
			e.Buffer.Type, e.Buffer.HasDynamicOffset, e.Buffer.MinBindingSize,
			e.Sampler.Type,
			e.Texture.SampleType, e.Texture.ViewDimension)
	}
	return sb.String()
}

// expandWireframe de-indexes a triangle list and pairs every corner with a unit
// barycentric coordinate, which the wireframe shader turns into edge distances.
func expandWireframe(vertices []renderer.Vertex, indices []uint32) ([]renderer.Vertex, []mgl32.Vec3) {
	corners := [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	flat := make([]renderer.Vertex, 0, len(indices))
	bary := make([]mgl32.Vec3, 0, len(indices))
	for i, idx := range indices {
		flat = append(flat, vertices[idx])
		bary = append(bary, corners[i%3])
	}
	return flat, bary
}

func marshalVec3s(vs []mgl32.Vec3) []byte {
	buf := make([]byte, 0, len(vs)*12)
	for _, v := range vs {
		for _, c := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
		}
	}
	return buf
}

func marshalIndices(indices []uint32) []byte {
	buf := make([]byte, 0, len(indices)*4)
	for _, i := range indices {
		buf = binary.LittleEndian.AppendUint32(buf, i)
	}
	return buf
}
