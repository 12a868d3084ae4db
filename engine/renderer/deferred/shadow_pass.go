package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
)

// recordShadowCascades renders every cascade of one light. The maps are always cleared;
// casters are only drawn when the light casts shadows.
func (r *deferredRenderer) recordShadowCascades(set CascadeSet, castsShadows bool, casters []drawItem) {
	drawCasters := castsShadows && len(casters) > 0 &&
		r.pipelines.usable(pipeline.KindShadow) && r.pipelines.usable(pipeline.KindShadowMorph)

	for i, h := range r.cascades.maps {
		r.device.Transition(h, renderer.StateDepthTarget)
		r.device.BeginPass(renderer.PassDescriptor{
			Label: fmt.Sprintf("shadow-cascade-%d", i),
			Depth: &renderer.DepthAttachment{Attachment: h, Load: renderer.LoadOpClear, Clear: 1},
		})
		if drawCasters {
			shadow := renderer.ShadowUniforms{LightViewProjection: set.ViewProjection[i]}
			r.device.SetUniforms(renderer.SlotLight, &shadow)
			r.stats.ShadowDraws += r.drawItems(casters, pipeline.KindShadow, pipeline.KindShadowMorph)
		}
		r.device.EndPass()
		r.device.Transition(h, renderer.StateShaderRead)
	}
}
