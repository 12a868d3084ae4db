package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// recordDebug draws the debug view selected by the display type straight to the output.
func (r *deferredRenderer) recordDebug(visible []drawItem) {
	black := mgl32.Vec4{0, 0, 0, 1}
	pass := renderer.PassDescriptor{
		Label:  "debug-" + r.display.String(),
		Colors: []renderer.ColorAttachment{{Attachment: renderer.OutputAttachment, Load: renderer.LoadOpClear, Clear: black}},
	}

	r.device.Transition(renderer.OutputAttachment, renderer.StateColorTarget)
	switch r.display {
	case renderer.DisplayWireframe:
		pass.Depth = r.gbuf.readOnlyDepth()
		r.device.BeginPass(pass)
		r.stats.WireframeDraws = r.drawItems(visible, pipeline.KindWireframe, pipeline.KindWireframeMorph)
	case renderer.DisplayWorldNormals:
		r.device.BeginPass(pass)
		r.device.SetPipeline(r.pipelines.native(pipeline.KindWorldNormals))
		r.device.BindAttachments(r.gbuf.normal(), r.gbuf.depth)
		r.device.DrawFullscreen()
	default:
		r.device.BeginPass(pass)
		r.device.SetPipeline(r.pipelines.native(pipeline.KindAlbedo))
		r.device.BindAttachments(r.gbuf.diffuse(), r.gbuf.depth)
		r.device.DrawFullscreen()
	}
	r.device.EndPass()
	r.device.Transition(renderer.OutputAttachment, renderer.StatePresent)
}
