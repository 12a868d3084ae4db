package webgpu

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

func TestAlignUp(t *testing.T) {
	tests := []struct {
		n, align, want uint64
	}{
		{0, 256, 0},
		{1, 256, 256},
		{256, 256, 256},
		{288, 256, 512},
		{160, 64, 192},
	}
	for _, tt := range tests {
		if got := alignUp(tt.n, tt.align); got != tt.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", tt.n, tt.align, got, tt.want)
		}
	}
}

func TestUniformRingPush(t *testing.T) {
	r := &uniformRing{staging: make([]byte, 1024), align: 256}

	frame := (&renderer.FrameUniforms{}).Marshal()
	off, ok := r.push(frame)
	if !ok || off != 0 {
		t.Fatalf("first push = (%d, %v), want (0, true)", off, ok)
	}
	off, ok = r.push((&renderer.ObjectUniforms{}).Marshal())
	if !ok || off != 512 {
		t.Fatalf("second push = (%d, %v), want (512, true)", off, ok)
	}
	if r.used != 512+160 {
		t.Errorf("used = %d, want %d", r.used, 512+160)
	}

	if _, ok := r.push(frame); ok {
		t.Fatal("push past capacity succeeded")
	}
	if r.want != 768+288 {
		t.Errorf("want = %d, want %d", r.want, 768+288)
	}
	if r.used != 512+160 {
		t.Errorf("failed push changed used to %d", r.used)
	}
}

func TestExpandWireframe(t *testing.T) {
	vertices := []renderer.Vertex{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec3{1, 1, 0}},
	}
	indices := []uint32{0, 1, 2, 2, 1, 3}

	flat, bary := expandWireframe(vertices, indices)
	if len(flat) != len(indices) || len(bary) != len(indices) {
		t.Fatalf("got %d vertices and %d barycentrics, want %d", len(flat), len(bary), len(indices))
	}
	for i, idx := range indices {
		if flat[i].Position != vertices[idx].Position {
			t.Errorf("flat[%d] = %v, want vertex %d", i, flat[i].Position, idx)
		}
		var sum float32
		for _, c := range bary[i] {
			sum += c
		}
		if sum != 1 || bary[i][i%3] != 1 {
			t.Errorf("bary[%d] = %v, want unit axis %d", i, bary[i], i%3)
		}
	}
	if got := len(marshalVec3s(bary)); got != len(indices)*12 {
		t.Errorf("barycentric buffer = %d bytes, want %d", got, len(indices)*12)
	}
}

func TestPresentModeFallback(t *testing.T) {
	supported := []wgpu.PresentMode{wgpu.PresentModeFifo, wgpu.PresentModeImmediate}
	tests := []struct {
		in   renderer.PresentMode
		want wgpu.PresentMode
	}{
		{renderer.PresentFifo, wgpu.PresentModeFifo},
		{renderer.PresentImmediate, wgpu.PresentModeImmediate},
		{renderer.PresentMailbox, wgpu.PresentModeFifo},
	}
	for _, tt := range tests {
		if got := presentMode(tt.in, supported); got != tt.want {
			t.Errorf("presentMode(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSurfaceFormatPrefersLinear(t *testing.T) {
	formats := []wgpu.TextureFormat{wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatBGRA8Unorm}
	if got := surfaceFormat(formats); got != wgpu.TextureFormatBGRA8Unorm {
		t.Errorf("surfaceFormat = %v, want BGRA8Unorm", got)
	}
	only := []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float}
	if got := surfaceFormat(only); got != wgpu.TextureFormatRGBA16Float {
		t.Errorf("surfaceFormat = %v, want the only format offered", got)
	}
}

func TestTextureFormat(t *testing.T) {
	got, err := textureFormat(pipeline.FormatOutput, wgpu.TextureFormatBGRA8Unorm)
	if err != nil || got != wgpu.TextureFormatBGRA8Unorm {
		t.Errorf("output format = (%v, %v), want BGRA8Unorm", got, err)
	}
	got, err = textureFormat(pipeline.FormatDepth32Float, wgpu.TextureFormatBGRA8Unorm)
	if err != nil || got != wgpu.TextureFormatDepth32Float {
		t.Errorf("depth format = (%v, %v), want Depth32Float", got, err)
	}
	if _, err := textureFormat(pipeline.FormatUndefined, wgpu.TextureFormatBGRA8Unorm); err == nil {
		t.Error("undefined format converted without error")
	}
}

func TestBlendState(t *testing.T) {
	if blendState(pipeline.BlendNone) != nil {
		t.Error("BlendNone produced a blend state")
	}
	add := blendState(pipeline.BlendAdditive)
	if add == nil || add.Color.SrcFactor != wgpu.BlendFactorOne || add.Color.DstFactor != wgpu.BlendFactorOne {
		t.Errorf("additive blend = %+v, want one + one", add)
	}
}

func TestDynamicLayoutAndKey(t *testing.T) {
	for kind := pipeline.Kind(0); kind < pipeline.KindCount; kind++ {
		prog, err := shader.Load(kind)
		if err != nil {
			t.Fatalf("Load(%v): %v", kind, err)
		}
		for g := 0; g < shader.GroupCount; g++ {
			reflected := prog.LayoutDescriptor(g)
			dyn := dynamicLayout(reflected)
			for i, e := range dyn.Entries {
				if e.Buffer.Type != wgpu.BufferBindingTypeUniform {
					continue
				}
				if !e.Buffer.HasDynamicOffset {
					t.Errorf("%v group %d binding %d: uniform not dynamic", kind, g, e.Binding)
				}
				if reflected.Entries[i].Buffer.HasDynamicOffset {
					t.Errorf("%v group %d: dynamicLayout modified the reflected layout", kind, g)
				}
				if g == shader.GroupResources || e.Binding != 0 || len(dyn.Entries) != 1 {
					t.Errorf("%v group %d: uniform must be the only binding of a uniform group", kind, g)
				}
			}
			if g == shader.GroupResources {
				for _, e := range dyn.Entries {
					if e.Binding >= maxResourceBindings {
						t.Errorf("%v binding %d exceeds maxResourceBindings", kind, e.Binding)
					}
				}
			}
			if layoutKey(dyn) != layoutKey(dynamicLayout(prog.LayoutDescriptor(g))) {
				t.Errorf("%v group %d: layout key is not stable", kind, g)
			}
		}
	}

	geometry, _ := shader.Load(pipeline.KindGeometry)
	directional, _ := shader.Load(pipeline.KindDirectionalLight)
	frameA := layoutKey(dynamicLayout(geometry.LayoutDescriptor(shader.GroupFrame)))
	frameB := layoutKey(dynamicLayout(directional.LayoutDescriptor(shader.GroupFrame)))
	resA := layoutKey(dynamicLayout(geometry.LayoutDescriptor(shader.GroupResources)))
	resB := layoutKey(dynamicLayout(directional.LayoutDescriptor(shader.GroupResources)))
	if resA == resB {
		t.Error("material and lighting resource groups share a layout key")
	}
	if frameA == "" || frameB == "" {
		t.Error("frame group has an empty layout key")
	}
}

func TestCompileRejectsUnsupportedFeatures(t *testing.T) {
	d := &Device{}
	_, err := d.CompilePipeline(pipeline.NewDescriptor(pipeline.KindShadow, pipeline.WithDepthClamp(true)))
	if !errors.Is(err, renderer.ErrUnsupportedFeature) {
		t.Errorf("depth clamp: err = %v, want ErrUnsupportedFeature", err)
	}
	_, err = d.CompilePipeline(pipeline.NewDescriptor(pipeline.KindWireframe, pipeline.WithLineWidth(2)))
	if !errors.Is(err, renderer.ErrUnsupportedFeature) {
		t.Errorf("wide lines: err = %v, want ErrUnsupportedFeature", err)
	}
}
