package shader

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group indices shared by every program.
const (
	GroupFrame     = 0
	GroupObject    = 1
	GroupLight     = 2
	GroupResources = 3
	GroupCount     = 4
)

// BindingSource says where a device gets the resource for a binding.
type BindingSource int

const (
	// SourceUniform is a uniform block written with Device.SetUniforms.
	SourceUniform BindingSource = iota
	// SourceMaterial is a texture or sampler of the bound material.
	SourceMaterial
	// SourceAttachment is a render attachment passed to Device.BindAttachments.
	SourceAttachment
	// SourceShadowSampler is the device's depth comparison sampler.
	SourceShadowSampler
)

// Binding describes one reflected resource binding of a program.
type Binding struct {
	Group   int
	Binding int
	Name    string
	Source  BindingSource
	// Role is the material role for SourceMaterial bindings.
	Role AnnotationArg
	// Input is the position in the BindAttachments argument list for SourceAttachment bindings.
	Input int
}

// Program pairs the vertex and fragment stage for one pipeline kind.
type Program struct {
	Kind     pipeline.Kind
	Vertex   Shader
	Fragment Shader
	Bindings []Binding
	layouts  map[int]wgpu.BindGroupLayoutDescriptor
}

var programSources = [pipeline.KindCount][2]string{
	pipeline.KindGeometry:         {"geometry.vert.wgsl", "geometry.frag.wgsl"},
	pipeline.KindGeometryMorph:    {"geometry_morph.vert.wgsl", "geometry.frag.wgsl"},
	pipeline.KindShadow:           {"shadow.vert.wgsl", "shadow.frag.wgsl"},
	pipeline.KindShadowMorph:      {"shadow_morph.vert.wgsl", "shadow.frag.wgsl"},
	pipeline.KindDirectionalLight: {"fullscreen.vert.wgsl", "directional_light.frag.wgsl"},
	pipeline.KindPointLight:       {"point_light.vert.wgsl", "point_light.frag.wgsl"},
	pipeline.KindPointLightInside: {"point_light.vert.wgsl", "point_light.frag.wgsl"},
	pipeline.KindToneMap:          {"fullscreen.vert.wgsl", "tonemap.frag.wgsl"},
	pipeline.KindWireframe:        {"wireframe.vert.wgsl", "wireframe.frag.wgsl"},
	pipeline.KindWireframeMorph:   {"wireframe_morph.vert.wgsl", "wireframe.frag.wgsl"},
	pipeline.KindWorldNormals:     {"fullscreen.vert.wgsl", "world_normals.frag.wgsl"},
	pipeline.KindAlbedo:           {"fullscreen.vert.wgsl", "albedo.frag.wgsl"},
}

// Load builds the program for a pipeline kind from the embedded sources.
//
// Parameters:
//   - kind: the pipeline kind
//
// Returns:
//   - *Program: the program with merged binding metadata
//   - error: error if either stage fails to load
func Load(kind pipeline.Kind) (*Program, error) {
	if kind < 0 || kind >= pipeline.KindCount {
		return nil, fmt.Errorf("shader: no program for %v", kind)
	}
	src := programSources[kind]
	vs, err := NewShader(src[0], ShaderTypeVertex)
	if err != nil {
		return nil, err
	}
	fs, err := NewShader(src[1], ShaderTypeFragment)
	if err != nil {
		return nil, err
	}
	p := &Program{Kind: kind, Vertex: vs, Fragment: fs}
	p.layouts = mergeLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())
	p.Bindings = collectBindings(p.layouts, vs, fs)
	return p, nil
}

// LayoutDescriptor returns the merged layout of a group. Groups the program does not use
// return an empty descriptor, which devices still bind to keep group indices stable.
func (p *Program) LayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return p.layouts[group]
}

// UsesGroup reports whether any stage declares a binding in the group.
func (p *Program) UsesGroup(group int) bool {
	return len(p.layouts[group].Entries) > 0
}

// AttachmentInputs returns the number of attachments the program expects from BindAttachments.
func (p *Program) AttachmentInputs() int {
	n := 0
	for _, b := range p.Bindings {
		if b.Source == SourceAttachment {
			n++
		}
	}
	return n
}

// mergeLayouts combines per-stage layouts, OR-ing the visibility of bindings both stages declare.
func mergeLayouts(stages ...map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]map[uint32]wgpu.BindGroupLayoutEntry)
	for _, stage := range stages {
		for group, desc := range stage {
			if merged[group] == nil {
				merged[group] = make(map[uint32]wgpu.BindGroupLayoutEntry)
			}
			for _, e := range desc.Entries {
				if prev, ok := merged[group][e.Binding]; ok {
					prev.Visibility |= e.Visibility
					merged[group][e.Binding] = prev
					continue
				}
				merged[group][e.Binding] = e
			}
		}
	}

	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(merged))
	for group, entries := range merged {
		list := make([]wgpu.BindGroupLayoutEntry, 0, len(entries))
		for _, e := range entries {
			list = append(list, e)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Binding < list[j].Binding })
		out[group] = wgpu.BindGroupLayoutDescriptor{Entries: list}
	}
	return out
}

func collectBindings(layouts map[int]wgpu.BindGroupLayoutDescriptor, stages ...Shader) []Binding {
	providers := make(map[[2]int]Annotation)
	for _, s := range stages {
		for _, d := range s.Declarations() {
			providers[[2]int{*d.Group, *d.Binding}] = d
		}
	}
	name := func(group, binding int) string {
		for _, s := range stages {
			if n := s.BindGroupVarName(group, binding); n != "" {
				return n
			}
		}
		return ""
	}

	var out []Binding
	for group := 0; group < GroupCount; group++ {
		input := 0
		for _, e := range layouts[group].Entries {
			b := Binding{Group: group, Binding: int(e.Binding), Name: name(group, int(e.Binding)), Input: -1}
			d := providers[[2]int{group, int(e.Binding)}]
			switch {
			case e.Buffer.Type == wgpu.BufferBindingTypeUniform:
				b.Source = SourceUniform
			case d.Type == AnnotationTypeProvider && d.Args[0] == AnnotationArgMaterial:
				b.Source = SourceMaterial
				b.Role = d.Role()
			case d.Role() == AnnotationArgShadowSampler:
				b.Source = SourceShadowSampler
			default:
				b.Source = SourceAttachment
				b.Input = input
				input++
			}
			out = append(out, b)
		}
	}
	return out
}
