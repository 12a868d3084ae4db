package shader

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

func TestLoadAllPrograms(t *testing.T) {
	for kind := pipeline.Kind(0); kind < pipeline.KindCount; kind++ {
		t.Run(kind.String(), func(t *testing.T) {
			p, err := Load(kind)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if p.Vertex.EntryPoint() != "vs_main" {
				t.Errorf("vertex entry = %q", p.Vertex.EntryPoint())
			}
			if p.Fragment.EntryPoint() != "fs_main" {
				t.Errorf("fragment entry = %q", p.Fragment.EntryPoint())
			}
			if strings.Contains(p.Vertex.Source(), annotationPrefix) || strings.Contains(p.Fragment.Source(), annotationPrefix) {
				t.Error("annotations left in processed source")
			}
		})
	}
}

func TestLoadUnknownKind(t *testing.T) {
	if _, err := Load(pipeline.KindCount); err == nil {
		t.Error("Load(KindCount) succeeded, want error")
	}
}

func TestUniformStructSizesMatchGo(t *testing.T) {
	pp := NewPreProcessor()
	src, err := pp.Process("//@oxy:include frame\n//@oxy:include object\n//@oxy:include shadow\n//@oxy:include directional_light\n//@oxy:include point_light\n")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	sizes := parseStructSizes(src)
	tests := []struct {
		name string
		u    renderer.Uniform
	}{
		{"FrameUniforms", &renderer.FrameUniforms{}},
		{"ObjectUniforms", &renderer.ObjectUniforms{}},
		{"ShadowUniforms", &renderer.ShadowUniforms{}},
		{"DirectionalLight", &renderer.DirectionalLightUniforms{}},
		{"PointLight", &renderer.PointLightUniforms{}},
	}
	for _, tt := range tests {
		if got := sizes[tt.name]; got != uint64(tt.u.Size()) {
			t.Errorf("%s: WGSL size %d, Go size %d", tt.name, got, tt.u.Size())
		}
	}
}

func TestVertexLayouts(t *testing.T) {
	tests := []struct {
		kind    pipeline.Kind
		strides []uint64
	}{
		{pipeline.KindGeometry, []uint64{renderer.VertexStride}},
		{pipeline.KindGeometryMorph, []uint64{renderer.VertexStride, renderer.VertexStride}},
		{pipeline.KindShadow, []uint64{renderer.VertexStride}},
		{pipeline.KindWireframe, []uint64{renderer.VertexStride, 12}},
		{pipeline.KindWireframeMorph, []uint64{renderer.VertexStride, renderer.VertexStride, 12}},
		{pipeline.KindPointLight, []uint64{renderer.VertexStride}},
		{pipeline.KindToneMap, nil},
	}
	for _, tt := range tests {
		p, err := Load(tt.kind)
		if err != nil {
			t.Fatalf("Load(%v): %v", tt.kind, err)
		}
		layouts := p.Vertex.VertexLayouts()
		if len(layouts) != len(tt.strides) {
			t.Errorf("%v: %d vertex buffers, want %d", tt.kind, len(layouts), len(tt.strides))
			continue
		}
		for i, l := range layouts {
			if l.ArrayStride != tt.strides[i] {
				t.Errorf("%v buffer %d stride = %d, want %d", tt.kind, i, l.ArrayStride, tt.strides[i])
			}
		}
	}

	p, _ := Load(pipeline.KindGeometryMorph)
	next := p.Vertex.VertexLayouts()[1]
	if next.Attributes[0].ShaderLocation != 4 || next.Attributes[3].Offset != 36 {
		t.Errorf("next keyframe attributes = %+v", next.Attributes)
	}
}

func TestDirectionalLightBindings(t *testing.T) {
	p, err := Load(pipeline.KindDirectionalLight)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.AttachmentInputs(); got != 5+3 {
		t.Errorf("AttachmentInputs = %d, want 8", got)
	}
	if !p.UsesGroup(GroupFrame) || !p.UsesGroup(GroupLight) || p.UsesGroup(GroupObject) {
		t.Errorf("unexpected group usage")
	}

	var sawSampler bool
	for _, b := range p.Bindings {
		switch b.Source {
		case SourceShadowSampler:
			sawSampler = true
			if b.Name != "shadow_sampler" {
				t.Errorf("shadow sampler bound to %q", b.Name)
			}
		case SourceAttachment:
			if b.Input != b.Binding {
				t.Errorf("%s: input %d, binding %d", b.Name, b.Input, b.Binding)
			}
		}
	}
	if !sawSampler {
		t.Error("no shadow sampler binding")
	}

	entries := p.LayoutDescriptor(GroupResources).Entries
	if entries[1].Texture.SampleType != wgpu.TextureSampleTypeUnfilterableFloat {
		t.Errorf("gbuffer position sample type = %v, want unfilterable float", entries[1].Texture.SampleType)
	}
	if entries[5].Texture.SampleType != wgpu.TextureSampleTypeDepth {
		t.Errorf("cascade0 sample type = %v, want depth", entries[5].Texture.SampleType)
	}
	if entries[8].Sampler.Type != wgpu.SamplerBindingTypeComparison {
		t.Errorf("binding 8 sampler type = %v, want comparison", entries[8].Sampler.Type)
	}
	frame := p.LayoutDescriptor(GroupFrame).Entries[0]
	if frame.Buffer.MinBindingSize != 288 {
		t.Errorf("frame MinBindingSize = %d, want 288", frame.Buffer.MinBindingSize)
	}
}

func TestGeometryBindings(t *testing.T) {
	p, err := Load(pipeline.KindGeometry)
	if err != nil {
		t.Fatal(err)
	}
	object := p.LayoutDescriptor(GroupObject).Entries[0]
	want := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	if object.Visibility != want {
		t.Errorf("object visibility = %v, want vertex|fragment", object.Visibility)
	}
	roles := map[AnnotationArg]bool{}
	for _, b := range p.Bindings {
		if b.Source == SourceMaterial {
			roles[b.Role] = true
		}
	}
	for _, r := range []AnnotationArg{AnnotationArgAmbient, AnnotationArgDiffuse, AnnotationArgSpecular, AnnotationArgAlpha, AnnotationArgNormal, AnnotationArgSampler} {
		if !roles[r] {
			t.Errorf("missing material role %q", r)
		}
	}
	if p.AttachmentInputs() != 0 {
		t.Errorf("geometry expects %d attachments", p.AttachmentInputs())
	}
}

func TestParseAnnotationErrors(t *testing.T) {
	tests := map[string]string{
		"empty":            "//@oxy:",
		"unknown type":     "//@oxy:bogus frame",
		"unknown include":  "//@oxy:include camera",
		"group arity":      "//@oxy:group 0 0 uniform frame",
		"bad group number": "//@oxy:group x 0 uniform frame frame",
		"bad space":        "//@oxy:group 0 0 storage frame frame",
		"bad provider":     "//@oxy:provider 3 0 lights",
		"bad role":         "//@oxy:provider 3 0 material roughness",
	}
	for name, line := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseAnnotation(line, 1); err == nil {
				t.Errorf("parseAnnotation(%q) succeeded, want error", line)
			}
		})
	}
	if a, err := parseAnnotation("let x = 1;", 1); a != nil || err != nil {
		t.Errorf("plain line parsed as %v, %v", a, err)
	}
}

func TestPreProcessGroup(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:group 2 0 uniform light point_light")
	if err != nil {
		t.Fatal(err)
	}
	if want := "@group(2) @binding(0) var<uniform> light: PointLight;"; out != want {
		t.Errorf("Process = %q, want %q", out, want)
	}
	if len(pp.Declarations()) != 1 {
		t.Errorf("declarations = %d, want 1", len(pp.Declarations()))
	}
	if _, err := pp.Process("//@oxy:group 0 0 uniform clip clip"); err == nil {
		t.Error("binding a helper include succeeded, want error")
	}
}

// TestNagaCompile validates every stage with the pure-Go naga compiler. Stages that use
// features naga does not implement yet are skipped rather than failed.
func TestNagaCompile(t *testing.T) {
	seen := map[string]bool{}
	for kind := pipeline.Kind(0); kind < pipeline.KindCount; kind++ {
		p, err := Load(kind)
		if err != nil {
			t.Fatalf("Load(%v): %v", kind, err)
		}
		for _, s := range []Shader{p.Vertex, p.Fragment} {
			if seen[s.Key()] {
				continue
			}
			seen[s.Key()] = true
			s := s
			t.Run(s.Key(), func(t *testing.T) {
				spirv, err := naga.Compile(s.Source())
				if err != nil {
					t.Skipf("naga cannot compile %s: %v", s.Key(), err)
				}
				if len(spirv) < 4 || binary.LittleEndian.Uint32(spirv) != 0x07230203 {
					t.Errorf("output is not SPIR-V")
				}
			})
		}
	}
}
