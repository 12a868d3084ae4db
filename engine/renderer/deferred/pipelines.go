package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
)

// WideLineWidth is the wireframe edge width used when wide lines are enabled.
const WideLineWidth float32 = 2

// Shadow casters are rasterized back faces only, pushed away from the light by a small bias.
const (
	shadowDepthBias      int32   = 2
	shadowDepthSlopeBias float32 = 1.5
)

// pipelineSet is the renderer's pipeline arena with one entry per kind.
type pipelineSet struct {
	table   *pipeline.Table
	handles [pipeline.KindCount]pipeline.Handle
}

// descriptorFor returns the descriptor of a kind for the given feature toggles.
func descriptorFor(kind pipeline.Kind, depthClamp bool, lineWidth float32) pipeline.Descriptor {
	hdr := pipeline.WithColorTargets(hdrFormat)
	output := pipeline.WithColorTargets(pipeline.FormatOutput)
	switch kind {
	case pipeline.KindGeometry, pipeline.KindGeometryMorph:
		return pipeline.NewDescriptor(kind,
			pipeline.WithColorTargets(gbufferFormats[:]...),
			pipeline.WithDepth(pipeline.FormatDepth32Float, pipeline.CompareLess, true),
		)
	case pipeline.KindShadow, pipeline.KindShadowMorph:
		return pipeline.NewDescriptor(kind,
			pipeline.WithDepth(pipeline.FormatDepth32Float, pipeline.CompareLessEqual, true),
			pipeline.WithDepthBias(shadowDepthBias, shadowDepthSlopeBias),
			pipeline.WithDepthClamp(depthClamp),
			pipeline.WithCullMode(pipeline.CullFront),
		)
	case pipeline.KindDirectionalLight:
		return pipeline.NewDescriptor(kind, hdr,
			pipeline.WithBlend(pipeline.BlendAdditive),
			pipeline.WithCullMode(pipeline.CullNone),
		)
	case pipeline.KindPointLight:
		return pipeline.NewDescriptor(kind, hdr,
			pipeline.WithDepth(pipeline.FormatDepth32Float, pipeline.CompareLessEqual, false),
			pipeline.WithBlend(pipeline.BlendAdditive),
			pipeline.WithCullMode(pipeline.CullBack),
		)
	case pipeline.KindPointLightInside:
		return pipeline.NewDescriptor(kind, hdr,
			pipeline.WithDepth(pipeline.FormatDepth32Float, pipeline.CompareAlways, false),
			pipeline.WithBlend(pipeline.BlendAdditive),
			pipeline.WithCullMode(pipeline.CullFront),
		)
	case pipeline.KindWireframe, pipeline.KindWireframeMorph:
		return pipeline.NewDescriptor(kind, output,
			pipeline.WithDepth(pipeline.FormatDepth32Float, pipeline.CompareLessEqual, false),
			pipeline.WithLineWidth(lineWidth),
		)
	default:
		return pipeline.NewDescriptor(kind, output, pipeline.WithCullMode(pipeline.CullNone))
	}
}

func newPipelineSet(depthClamp bool, lineWidth float32) *pipelineSet {
	s := &pipelineSet{table: pipeline.NewTable()}
	for k := pipeline.Kind(0); k < pipeline.KindCount; k++ {
		s.handles[k] = s.table.Add(descriptorFor(k, depthClamp, lineWidth))
	}
	return s
}

// build compiles every pending entry.
//
// Returns:
//   - error: the first compilation failure, wrapped with the pipeline label
func (s *pipelineSet) build(dev renderer.Device) error {
	for _, h := range s.table.Pending() {
		desc := s.table.Descriptor(h)
		native, err := dev.CompilePipeline(desc)
		if err != nil {
			return fmt.Errorf("failed to compile pipeline %q: %w", desc.Label, err)
		}
		s.table.SetNative(h, native)
	}
	return nil
}

// update replaces the descriptors of the given kinds. The entries are rebuilt by the next build.
func (s *pipelineSet) update(depthClamp bool, lineWidth float32, kinds ...pipeline.Kind) {
	for _, k := range kinds {
		s.table.Update(s.handles[k], descriptorFor(k, depthClamp, lineWidth))
	}
}

func (s *pipelineSet) native(kind pipeline.Kind) pipeline.Native {
	return s.table.Native(s.handles[kind])
}

func (s *pipelineSet) usable(kind pipeline.Kind) bool {
	return s.table.Usable(s.handles[kind])
}

func (s *pipelineSet) descriptor(kind pipeline.Kind) pipeline.Descriptor {
	return s.table.Descriptor(s.handles[kind])
}

func (s *pipelineSet) release() {
	s.table.Release()
}
