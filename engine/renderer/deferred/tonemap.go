package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
)

// recordToneMap maps the HDR buffer to the output image and hands it to presentation.
func (r *deferredRenderer) recordToneMap() {
	r.device.Transition(r.hdr.target, renderer.StateShaderRead)
	r.device.Transition(renderer.OutputAttachment, renderer.StateColorTarget)
	r.device.BeginPass(renderer.PassDescriptor{
		Label:  "tonemap",
		Colors: []renderer.ColorAttachment{{Attachment: renderer.OutputAttachment, Load: renderer.LoadOpClear}},
	})
	r.device.SetPipeline(r.pipelines.native(pipeline.KindToneMap))
	r.device.BindAttachments(r.hdr.target)
	r.device.DrawFullscreen()
	r.device.EndPass()
	r.device.Transition(renderer.OutputAttachment, renderer.StatePresent)
}
