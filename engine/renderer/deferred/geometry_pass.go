package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// drawItem is one resolved mesh draw. next is set for morph draws.
type drawItem struct {
	world    mgl32.Mat4
	material material.Material
	mesh     *model.Mesh
	next     *model.Mesh
	blend    float32
}

// visibleDraws culls the queued drawables against the camera frustum and resolves the
// material of every remaining draw.
func (r *deferredRenderer) visibleDraws(cam camera.Camera, sel materialSelector) []drawItem {
	frustum := cam.Frustum()
	var items []drawItem

	for _, s := range r.queue.statics {
		if !frustum.IntersectsAABB(s.Bounds()) {
			r.stats.ObjectsCulled++
			continue
		}
		world := s.World()
		for _, shape := range s.Shapes() {
			if !sel.visible(shape.Material) {
				continue
			}
			if !frustum.IntersectsAABB(shape.Mesh.Bounds().Transform(world)) {
				continue
			}
			items = append(items, drawItem{world: world, material: sel.resolve(shape.Material), mesh: shape.Mesh})
		}
	}

	for _, a := range r.queue.animated {
		if !frustum.IntersectsAABB(a.Bounds()) {
			r.stats.ObjectsCulled++
			continue
		}
		if !sel.visible(a.Material()) {
			continue
		}
		current, next, blend := a.Keyframes()
		items = append(items, drawItem{
			world: a.World(), material: sel.resolve(a.Material()),
			mesh: current, next: next, blend: blend,
		})
	}
	return items
}

// casterDraws resolves the draws of every queued shadow caster. Casters are not culled
// against the camera since they may shade visible surfaces from outside the view.
func (r *deferredRenderer) casterDraws(sel materialSelector) []drawItem {
	var items []drawItem
	for _, s := range r.queue.statics {
		if !s.CastsShadow() {
			continue
		}
		world := s.World()
		for _, shape := range s.Shapes() {
			if sel.visible(shape.Material) {
				items = append(items, drawItem{world: world, material: sel.resolve(shape.Material), mesh: shape.Mesh})
			}
		}
	}
	for _, a := range r.queue.animated {
		if !a.CastsShadow() || !sel.visible(a.Material()) {
			continue
		}
		current, next, blend := a.Keyframes()
		items = append(items, drawItem{
			world: a.World(), material: sel.resolve(a.Material()),
			mesh: current, next: next, blend: blend,
		})
	}
	return items
}

// drawItems records one draw per item, switching between the static and morph pipeline
// kinds as needed.
//
// Returns:
//   - int: the number of draws recorded
func (r *deferredRenderer) drawItems(items []drawItem, static, morph pipeline.Kind) int {
	bound := pipeline.KindCount
	draws := 0
	for _, it := range items {
		kind := static
		if it.next != nil {
			kind = morph
		}
		if kind != bound {
			r.device.SetPipeline(r.pipelines.native(kind))
			bound = kind
		}
		binding := it.material.Binding()
		object := renderer.ObjectUniforms{
			World:            it.world,
			Normal:           common.NormalMatrix(it.world),
			DebugColor:       it.material.DebugColor(),
			Blend:            it.blend,
			SpecularExponent: it.material.SpecularExponent(),
			HasNormalMap:     binding.Normal != renderer.NoTexture,
			LineWidth:        r.lineWidth(),
		}
		r.device.SetUniforms(renderer.SlotObject, &object)
		r.device.BindMaterial(binding)
		if it.next != nil {
			r.device.DrawMorph(it.mesh.Handle(), it.next.Handle())
		} else {
			r.device.DrawMesh(it.mesh.Handle())
		}
		draws++
	}
	return draws
}

// recordGeometry writes the visible surfaces into the G-buffer.
func (r *deferredRenderer) recordGeometry(items []drawItem) {
	r.gbuf.transition(r.device, renderer.StateColorTarget, renderer.StateDepthTarget)
	colors, depth := r.gbuf.targets()
	r.device.BeginPass(renderer.PassDescriptor{Label: "geometry", Colors: colors, Depth: depth})
	r.stats.GeometryDraws = r.drawItems(items, pipeline.KindGeometry, pipeline.KindGeometryMorph)
	r.device.EndPass()
}
