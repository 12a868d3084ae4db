package model

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// StaticBuilderOption is a functional option for configuring a Static model.
type StaticBuilderOption func(*static)

// AnimatedBuilderOption is a functional option for configuring an Animated model.
type AnimatedBuilderOption func(*animated)

// WithName sets the debug name of a Static model.
//
// Parameters:
//   - name: the name
//
// Returns:
//   - StaticBuilderOption: a function that applies the name
func WithName(name string) StaticBuilderOption {
	return func(s *static) {
		s.name = name
	}
}

// WithShape appends a (material, mesh) pair.
//
// Parameters:
//   - mat: the material the mesh is drawn with
//   - mesh: the geometry
//
// Returns:
//   - StaticBuilderOption: a function that appends the shape
func WithShape(mat material.Material, mesh *Mesh) StaticBuilderOption {
	return func(s *static) {
		s.shapes = append(s.shapes, Shape{Material: mat, Mesh: mesh})
	}
}

// WithWorld sets the initial object-to-world matrix.
func WithWorld(world mgl32.Mat4) StaticBuilderOption {
	return func(s *static) {
		s.world = world
	}
}

// WithCastsShadow sets whether the model is drawn into shadow cascades.
func WithCastsShadow(casts bool) StaticBuilderOption {
	return func(s *static) {
		s.castsShadow = casts
	}
}

// WithAnimatedName sets the debug name of an Animated model.
func WithAnimatedName(name string) AnimatedBuilderOption {
	return func(a *animated) {
		a.name = name
	}
}

// WithAnimatedMaterial sets the material every keyframe is drawn with.
//
// Parameters:
//   - mat: the material
//
// Returns:
//   - AnimatedBuilderOption: a function that applies the material
func WithAnimatedMaterial(mat material.Material) AnimatedBuilderOption {
	return func(a *animated) {
		a.mat = mat
	}
}

// WithAnimator replaces the default single-clip animator.
func WithAnimator(anim animator.Animator) AnimatedBuilderOption {
	return func(a *animated) {
		a.anim = anim
	}
}

// WithAnimatedWorld sets the initial object-to-world matrix.
func WithAnimatedWorld(world mgl32.Mat4) AnimatedBuilderOption {
	return func(a *animated) {
		a.world = world
	}
}

// WithAnimatedCastsShadow sets whether the model is drawn into shadow cascades.
func WithAnimatedCastsShadow(casts bool) AnimatedBuilderOption {
	return func(a *animated) {
		a.castsShadow = casts
	}
}
