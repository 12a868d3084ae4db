package deferred

import (
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// volumeScale grows the tessellated unit sphere so its faces enclose the true sphere.
var volumeScale = float32(1 / (math.Cos(math.Pi/volumeSegments) * math.Cos(math.Pi/(2*volumeRings))))

// recordLightingClear zeroes the HDR accumulation buffer.
func (r *deferredRenderer) recordLightingClear() {
	r.device.BeginPass(renderer.PassDescriptor{
		Label:  "lighting-clear",
		Colors: []renderer.ColorAttachment{r.hdr.color(true)},
	})
	r.device.EndPass()
}

// recordDirectionalLights renders the shadow cascades of each directional light and
// adds its contribution to the HDR buffer.
func (r *deferredRenderer) recordDirectionalLights(cam camera.Camera, sel materialSelector) {
	if len(r.queue.directional) == 0 {
		return
	}
	bounds := r.queue.casterBounds()
	casters := r.casterDraws(sel)
	texel := 1 / float32(r.cascades.resolution)
	inputs := []renderer.AttachmentHandle{r.gbuf.normal(), r.gbuf.position(), r.gbuf.ambient(), r.gbuf.diffuse(), r.gbuf.depth}
	inputs = append(inputs, r.cascades.maps[:]...)

	for _, l := range r.queue.directional {
		set := BuildCascades(cam, l.Direction(), bounds, r.cascadeLambda, r.lightOffset)
		r.lastCascades = append(r.lastCascades, set)
		r.recordShadowCascades(set, l.CastsShadows(), casters)

		if !r.pipelines.usable(pipeline.KindDirectionalLight) {
			r.stats.LightsSkipped++
			r.logger.Debug("directional light skipped, pipeline not ready")
			continue
		}
		u := renderer.DirectionalLightUniforms{
			Direction:             l.Direction(),
			CastsShadows:          l.CastsShadows(),
			Ambient:               l.Ambient(),
			TintCascades:          r.display == renderer.DisplayShadows,
			Diffuse:               l.Diffuse(),
			ShadowTexel:           texel,
			Specular:              l.Specular(),
			CascadeViewProjection: set.ViewProjection,
			CascadeEnds:           set.Ends,
		}
		r.device.BeginPass(renderer.PassDescriptor{
			Label:  "lighting-directional",
			Colors: []renderer.ColorAttachment{r.hdr.color(false)},
		})
		r.device.SetPipeline(r.pipelines.native(pipeline.KindDirectionalLight))
		r.device.SetUniforms(renderer.SlotLight, &u)
		r.device.BindAttachments(inputs...)
		r.device.DrawFullscreen()
		r.device.EndPass()
		r.stats.DirectionalLights++
	}
}

// recordPointLights rasterizes a sphere volume per point light, shading only the
// G-buffer pixels it covers.
func (r *deferredRenderer) recordPointLights(cam camera.Camera) {
	if len(r.queue.points) == 0 {
		return
	}
	frustum := cam.Frustum()
	nearReach := nearPlaneReach(cam)

	r.device.BeginPass(renderer.PassDescriptor{
		Label:  "lighting-point",
		Colors: []renderer.ColorAttachment{r.hdr.color(false)},
		Depth:  r.gbuf.readOnlyDepth(),
	})
	for _, l := range r.queue.points {
		position := l.Position()
		radius := min(l.Radius(), cam.Far())
		if !(radius > 0) || !frustum.IntersectsSphere(position, radius) {
			r.stats.LightsCulled++
			continue
		}
		scale := radius * volumeScale

		kind := pipeline.KindPointLight
		if cam.Position().Sub(position).Len() <= scale+nearReach {
			kind = pipeline.KindPointLightInside
		}
		if !r.pipelines.usable(kind) {
			r.stats.LightsSkipped++
			r.logger.Debug("point light skipped, pipeline not ready", "kind", kind)
			continue
		}

		c, lin, q := l.Attenuation()
		u := renderer.PointLightUniforms{
			Volume:      mgl32.Translate3D(position.X(), position.Y(), position.Z()).Mul4(mgl32.Scale3D(scale, scale, scale)),
			Position:    position,
			Radius:      radius,
			Attenuation: mgl32.Vec3{c, lin, q},
			Ambient:     l.Ambient(),
			Diffuse:     l.Diffuse(),
			Specular:    l.Specular(),
		}
		r.device.SetPipeline(r.pipelines.native(kind))
		r.device.SetUniforms(renderer.SlotLight, &u)
		r.device.BindAttachments(r.gbuf.normal(), r.gbuf.position(), r.gbuf.ambient(), r.gbuf.diffuse())
		r.device.DrawMesh(r.volume.Handle())
		r.stats.PointLights++
	}
	r.device.EndPass()
}

// nearPlaneReach returns the distance from the eye to the corners of the near plane.
// A volume closer than this may be clipped by the near plane.
func nearPlaneReach(cam camera.Camera) float32 {
	t := math.Tan(float64(cam.Fov()) / 2)
	a := float64(cam.Aspect())
	return cam.Near() * float32(math.Sqrt(1+t*t+t*t*a*a))
}
