// Package model holds the drawables the deferred renderer consumes: meshes, static
// models made of (material, mesh) shapes, and morph-animated models blending two
// keyframe meshes.
package model

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// Shape pairs one mesh with the material it is drawn with.
type Shape struct {
	Material material.Material
	Mesh     *Mesh
}

// static is the implementation of the Static interface.
type static struct {
	mu          sync.RWMutex
	name        string
	world       mgl32.Mat4
	shapes      []Shape
	castsShadow bool
}

// Static is a rigid model drawn as a list of shapes under one world matrix.
type Static interface {
	// Name returns the debug name.
	Name() string

	// World returns the object-to-world matrix.
	World() mgl32.Mat4

	// Bounds returns the world-space box enclosing every shape.
	//
	// Returns:
	//   - common.AABB: the union of the shape bounds transformed by World
	Bounds() common.AABB

	// Shapes returns the (material, mesh) pairs in draw order.
	Shapes() []Shape

	// CastsShadow reports whether the model is drawn into shadow cascades.
	CastsShadow() bool

	// SetWorld replaces the object-to-world matrix.
	SetWorld(world mgl32.Mat4)

	// SetCastsShadow toggles shadow casting.
	SetCastsShadow(casts bool)

	// IsUsable reports whether every mesh and material texture has been uploaded.
	IsUsable() bool
}

var _ Static = &static{}

// NewStatic creates a Static model with the provided options applied.
//
// Parameters:
//   - options: variadic list of StaticBuilderOption functions
//
// Returns:
//   - Static: the new model, casting shadows at the origin unless configured otherwise
func NewStatic(options ...StaticBuilderOption) Static {
	s := &static{world: mgl32.Ident4(), castsShadow: true}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *static) Name() string {
	return s.name
}

func (s *static) World() mgl32.Mat4 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

func (s *static) Bounds() common.AABB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	box := common.EmptyAABB()
	for _, sh := range s.shapes {
		if sh.Mesh == nil {
			continue
		}
		box = box.Union(sh.Mesh.Bounds().Transform(s.world))
	}
	return box
}

func (s *static) Shapes() []Shape {
	return s.shapes
}

func (s *static) CastsShadow() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.castsShadow
}

func (s *static) SetWorld(world mgl32.Mat4) {
	s.mu.Lock()
	s.world = world
	s.mu.Unlock()
}

func (s *static) SetCastsShadow(casts bool) {
	s.mu.Lock()
	s.castsShadow = casts
	s.mu.Unlock()
}

func (s *static) IsUsable() bool {
	for _, sh := range s.shapes {
		if sh.Mesh == nil || !sh.Mesh.IsUsable() {
			return false
		}
		if sh.Material != nil && !sh.Material.IsUsable() {
			return false
		}
	}
	return true
}

// animated is the implementation of the Animated interface.
type animated struct {
	mu          sync.RWMutex
	name        string
	world       mgl32.Mat4
	frames      []*Mesh
	mat         material.Material
	anim        animator.Animator
	castsShadow bool
}

// Animated is a morph-animated model. Each frame it is drawn from two keyframe meshes
// that share one topology, blended by the animator's factor.
type Animated interface {
	// Name returns the debug name.
	Name() string

	// World returns the object-to-world matrix.
	World() mgl32.Mat4

	// Bounds returns the world-space box enclosing every keyframe.
	Bounds() common.AABB

	// Material returns the material all keyframes are drawn with.
	Material() material.Material

	// Frames returns every keyframe mesh.
	Frames() []*Mesh

	// Animator returns the playback state driving keyframe selection.
	Animator() animator.Animator

	// Keyframes resolves the animator state into meshes.
	//
	// Returns:
	//   - *Mesh: the current keyframe
	//   - *Mesh: the next keyframe
	//   - float32: the blend factor from current toward next
	Keyframes() (*Mesh, *Mesh, float32)

	// Update advances the animator by dt seconds.
	Update(dt float32)

	// CastsShadow reports whether the model is drawn into shadow cascades.
	CastsShadow() bool

	// SetWorld replaces the object-to-world matrix.
	SetWorld(world mgl32.Mat4)

	// SetCastsShadow toggles shadow casting.
	SetCastsShadow(casts bool)

	// IsUsable reports whether every keyframe and material texture has been uploaded.
	IsUsable() bool
}

var _ Animated = &animated{}

// NewAnimated creates an Animated model over the given keyframes. Without WithAnimator
// a single looping clip spanning every keyframe is played at DefaultMorphRate.
//
// Parameters:
//   - frames: the keyframe meshes, all with identical vertex and index counts
//   - options: variadic list of AnimatedBuilderOption functions
//
// Returns:
//   - Animated: the new model
//   - error: an error if there are no keyframes or their topology differs
func NewAnimated(frames []*Mesh, options ...AnimatedBuilderOption) (Animated, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("model: animated model needs at least one keyframe")
	}
	first := frames[0].Data()
	for i, f := range frames[1:] {
		d := f.Data()
		if len(d.Vertices) != len(first.Vertices) || len(d.Indices) != len(first.Indices) {
			return nil, fmt.Errorf("model: keyframe %d topology differs from keyframe 0", i+1)
		}
	}

	a := &animated{world: mgl32.Ident4(), frames: frames, castsShadow: true}
	for _, opt := range options {
		opt(a)
	}
	if a.mat == nil {
		a.mat = material.NewMaterial(material.WithName(a.name))
	}
	if a.anim == nil {
		a.anim = animator.NewAnimator(animator.WithClip(animator.Clip{
			Name:            "default",
			Count:           len(frames),
			FramesPerSecond: DefaultMorphRate,
			Loop:            true,
		}))
	}
	return a, nil
}

// DefaultMorphRate is the keyframe rate of the default clip, in keyframes per second.
const DefaultMorphRate = 10

func (a *animated) Name() string {
	return a.name
}

func (a *animated) World() mgl32.Mat4 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.world
}

func (a *animated) Bounds() common.AABB {
	a.mu.RLock()
	defer a.mu.RUnlock()
	box := common.EmptyAABB()
	for _, f := range a.frames {
		box = box.Union(f.Bounds().Transform(a.world))
	}
	return box
}

func (a *animated) Material() material.Material {
	return a.mat
}

func (a *animated) Frames() []*Mesh {
	return a.frames
}

func (a *animated) Animator() animator.Animator {
	return a.anim
}

func (a *animated) Keyframes() (*Mesh, *Mesh, float32) {
	cur, next, blend := a.anim.Frame()
	last := len(a.frames) - 1
	return a.frames[common.Clamp(cur, 0, last)], a.frames[common.Clamp(next, 0, last)], blend
}

func (a *animated) Update(dt float32) {
	a.anim.Advance(dt)
}

func (a *animated) CastsShadow() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.castsShadow
}

func (a *animated) SetWorld(world mgl32.Mat4) {
	a.mu.Lock()
	a.world = world
	a.mu.Unlock()
}

func (a *animated) SetCastsShadow(casts bool) {
	a.mu.Lock()
	a.castsShadow = casts
	a.mu.Unlock()
}

func (a *animated) IsUsable() bool {
	for _, f := range a.frames {
		if !f.IsUsable() {
			return false
		}
	}
	return a.mat.IsUsable()
}
