package deferred

import "github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"

// materialSource tags where a draw takes its material from.
type materialSource int

const (
	sourceNormal materialSource = iota
	sourceOverride
)

// materialSelector resolves the material of each draw once per frame mode.
type materialSelector struct {
	source   materialSource
	override material.Material
}

// resolve returns the material to bind for a drawable's own material.
func (s materialSelector) resolve(own material.Material) material.Material {
	switch s.source {
	case sourceOverride:
		return s.override
	default:
		return own
	}
}

// visible reports whether a draw with the given own material is drawn. The drawable's
// visibility is honored even when the override material is bound.
func (s materialSelector) visible(own material.Material) bool {
	return own != nil && own.Visible()
}

func defaultOverrideMaterial() material.Material {
	return material.NewMaterial(material.WithName("lighting-override"))
}
