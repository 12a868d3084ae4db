package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// queue holds the drawables and lights submitted for the next Render call.
// It holds references only and is emptied when Render returns.
type queue struct {
	statics     []model.Static
	animated    []model.Animated
	directional []light.Directional
	points      []light.Point
}

func (q *queue) reset() {
	clear(q.statics)
	clear(q.animated)
	clear(q.directional)
	clear(q.points)
	q.statics = q.statics[:0]
	q.animated = q.animated[:0]
	q.directional = q.directional[:0]
	q.points = q.points[:0]
}

func (q *queue) empty() bool {
	return len(q.statics) == 0 && len(q.animated) == 0 && len(q.directional) == 0 && len(q.points) == 0
}

// usable reports whether every queued mesh and material can be drawn. Materials are
// resolved through the selector so an override material replaces the queued ones.
func (q *queue) usable(sel materialSelector) bool {
	if sel.source == sourceOverride && !materialUsable(sel.override) {
		return false
	}
	for _, s := range q.statics {
		for _, shape := range s.Shapes() {
			if shape.Mesh == nil || !shape.Mesh.IsUsable() || !materialUsable(sel.resolve(shape.Material)) {
				return false
			}
		}
	}
	for _, a := range q.animated {
		for _, frame := range a.Frames() {
			if !frame.IsUsable() {
				return false
			}
		}
		if !materialUsable(sel.resolve(a.Material())) {
			return false
		}
	}
	return true
}

func materialUsable(m material.Material) bool {
	return m != nil && m.IsUsable()
}

// casterBounds returns the world bounds of every queued shadow caster.
func (q *queue) casterBounds() []common.AABB {
	var out []common.AABB
	for _, s := range q.statics {
		if s.CastsShadow() {
			out = append(out, s.Bounds())
		}
	}
	for _, a := range q.animated {
		if a.CastsShadow() {
			out = append(out, a.Bounds())
		}
	}
	return out
}

// selectorFor returns the material source of a frame in the given display mode.
func selectorFor(override material.Material, useOverride bool) materialSelector {
	if useOverride {
		return materialSelector{source: sourceOverride, override: override}
	}
	return materialSelector{source: sourceNormal}
}
