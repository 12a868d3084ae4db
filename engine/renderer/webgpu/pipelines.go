package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// nativePipeline is the compiled form of a pipeline.Descriptor.
type nativePipeline struct {
	desc     pipeline.Descriptor
	program  *shader.Program
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
	vertex   *wgpu.ShaderModule
	fragment *wgpu.ShaderModule
	// groups holds the shared layout of every group index, empty ones included.
	groups [shader.GroupCount]*wgpu.BindGroupLayout
	// uniformSize is the block size each uniform group binds, zero for other groups.
	uniformSize [shader.GroupCount]uint64
}

var _ pipeline.Native = &nativePipeline{}

// Release implements pipeline.Native. Bind group layouts are shared and owned by the device.
func (p *nativePipeline) Release() {
	if p.pipeline == nil {
		return
	}
	p.pipeline.Release()
	p.layout.Release()
	p.vertex.Release()
	p.fragment.Release()
	p.pipeline = nil
}

// slotForGroup maps the uniform bind groups onto the device's uniform slots.
var slotForGroup = [shader.GroupCount]renderer.UniformSlot{
	shader.GroupFrame:     renderer.SlotFrame,
	shader.GroupObject:    renderer.SlotObject,
	shader.GroupLight:     renderer.SlotLight,
	shader.GroupResources: renderer.SlotCount,
}

func (d *Device) CompilePipeline(desc pipeline.Descriptor) (pipeline.Native, error) {
	if desc.Kind < 0 || desc.Kind >= pipeline.KindCount {
		return nil, fmt.Errorf("webgpu: unknown pipeline kind %v", desc.Kind)
	}
	if desc.DepthClamp && !d.Supports(renderer.FeatureDepthClamp) {
		return nil, fmt.Errorf("webgpu: pipeline %q: %w (%v)", desc.Label, renderer.ErrUnsupportedFeature, renderer.FeatureDepthClamp)
	}
	if desc.LineWidth != 1 && !d.Supports(renderer.FeatureWideLines) {
		return nil, fmt.Errorf("webgpu: pipeline %q: %w (%v)", desc.Label, renderer.ErrUnsupportedFeature, renderer.FeatureWideLines)
	}

	prog, err := shader.Load(desc.Kind)
	if err != nil {
		return nil, err
	}
	p := &nativePipeline{desc: desc, program: prog}
	failed := func(what string, err error) (pipeline.Native, error) {
		for _, m := range []*wgpu.ShaderModule{p.vertex, p.fragment} {
			if m != nil {
				m.Release()
			}
		}
		if p.layout != nil {
			p.layout.Release()
		}
		return nil, fmt.Errorf("webgpu: pipeline %q: %s: %w", desc.Label, what, err)
	}

	if p.vertex, err = d.device.CreateShaderModule(prog.Vertex.Module()); err != nil {
		return failed("vertex module "+prog.Vertex.Key(), err)
	}
	if p.fragment, err = d.device.CreateShaderModule(prog.Fragment.Module()); err != nil {
		return failed("fragment module "+prog.Fragment.Key(), err)
	}

	for g := 0; g < shader.GroupCount; g++ {
		groupDesc := dynamicLayout(prog.LayoutDescriptor(g))
		for _, e := range groupDesc.Entries {
			if e.Buffer.Type == wgpu.BufferBindingTypeUniform {
				p.uniformSize[g] = e.Buffer.MinBindingSize
			}
		}
		if p.groups[g], err = d.layout(groupDesc); err != nil {
			return failed(fmt.Sprintf("group %d layout", g), err)
		}
	}
	p.layout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: p.groups[:],
	})
	if err != nil {
		return failed("pipeline layout", err)
	}

	targets := make([]wgpu.ColorTargetState, 0, len(desc.ColorFormats))
	for _, f := range desc.ColorFormats {
		format, err := textureFormat(f, d.outputFormat)
		if err != nil {
			return failed("color target", err)
		}
		targets = append(targets, wgpu.ColorTargetState{
			Format:    format,
			Blend:     blendState(desc.Blend),
			WriteMask: wgpu.ColorWriteMaskAll,
		})
	}

	var depth *wgpu.DepthStencilState
	if desc.DepthFormat != pipeline.FormatUndefined {
		format, err := textureFormat(desc.DepthFormat, d.outputFormat)
		if err != nil {
			return failed("depth target", err)
		}
		depth = &wgpu.DepthStencilState{
			Format:              format,
			DepthWriteEnabled:   desc.DepthWrite,
			DepthCompare:        compareFunction(desc.DepthCompare),
			DepthBias:           desc.DepthBias,
			DepthBiasSlopeScale: desc.DepthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	p.pipeline, err = d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.vertex,
			EntryPoint: prog.Vertex.EntryPoint(),
			Buffers:    prog.Vertex.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.fragment,
			EntryPoint: prog.Fragment.EntryPoint(),
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(desc.Cull),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depth,
	})
	if err != nil {
		return failed("render pipeline", err)
	}
	return p, nil
}
