package game_object

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	id        uint64
	enabled   atomic.Bool
	ephemeral bool
	static    model.Static
	animated  model.Animated

	position      mgl32.Vec3
	scale         mgl32.Vec3
	rotation      mgl32.Vec3
	rotationSpeed mgl32.Vec3

	attachedLight light.Point
	lightOffset   mgl32.Vec3
}

// RenderQueue receives the drawables and lights of an object each frame.
// deferred.Renderer satisfies it.
type RenderQueue interface {
	AddStatic(s model.Static)
	AddAnimated(a model.Animated)
	AddPoint(l light.Point)
}

// GameObject defines the interface for a scene entity: one static or animated model
// placed by a position, Euler rotation and scale, optionally carrying a point light.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Ephemeral returns whether this object is ephemeral.
	// Ephemeral objects are dropped from the scene after one frame.
	//
	// Returns:
	//   - bool: true if ephemeral
	Ephemeral() bool

	// Static returns the static model, or nil if the object carries an animated one.
	Static() model.Static

	// Animated returns the animated model, or nil if the object carries a static one.
	Animated() model.Animated

	// Position returns the world-space position.
	Position() mgl32.Vec3

	// Rotation returns the Euler angles in radians, applied X then Y then Z.
	Rotation() mgl32.Vec3

	// RotationSpeed returns the per-axis spin in radians per second.
	RotationSpeed() mgl32.Vec3

	// Scale returns the per-axis scale factors.
	Scale() mgl32.Vec3

	// World composes translation, rotation and scale into the object-to-world matrix.
	//
	// Returns:
	//   - mgl32.Mat4: T * Rz * Ry * Rx * S
	World() mgl32.Mat4

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the object is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetStatic assigns a static model, replacing any animated one.
	//
	// Parameters:
	//   - s: the model to carry
	SetStatic(s model.Static)

	// SetAnimated assigns an animated model, replacing any static one.
	//
	// Parameters:
	//   - a: the model to carry
	SetAnimated(a model.Animated)

	// SetPosition moves the object.
	//
	// Parameters:
	//   - position: the new world-space position
	SetPosition(position mgl32.Vec3)

	// SetRotation sets the Euler angles in radians.
	//
	// Parameters:
	//   - rotation: the new angles
	SetRotation(rotation mgl32.Vec3)

	// SetRotationSpeed sets the per-axis spin applied by Update.
	//
	// Parameters:
	//   - speed: radians per second around each axis
	SetRotationSpeed(speed mgl32.Vec3)

	// SetScale sets the per-axis scale factors.
	//
	// Parameters:
	//   - scale: the new scale
	SetScale(scale mgl32.Vec3)

	// Light returns the point light attached to this object, or nil if none is set.
	//
	// Returns:
	//   - light.Point: the attached light or nil
	Light() light.Point

	// SetLight attaches a point light that follows the object at the given offset.
	// Pass nil to detach.
	//
	// Parameters:
	//   - l: the light to attach, or nil to detach
	//   - offset: the light position relative to the object position
	SetLight(l light.Point, offset mgl32.Vec3)

	// Update advances spin and morph animation by dt seconds and pushes the resulting
	// transform into the model and the attached light.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// Submit queues the model and attached light for the next frame. Disabled objects
	// queue nothing.
	//
	// Parameters:
	//   - q: the queue to submit to
	Submit(q RenderQueue)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject configured with the given options. Objects
// are enabled and unit-scaled unless configured otherwise.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		scale: mgl32.Vec3{1, 1, 1},
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	obj.sync()
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Ephemeral() bool {
	return g.ephemeral
}

func (g *gameObject) Static() model.Static {
	return g.static
}

func (g *gameObject) Animated() model.Animated {
	return g.animated
}

func (g *gameObject) Position() mgl32.Vec3 {
	return g.position
}

func (g *gameObject) Rotation() mgl32.Vec3 {
	return g.rotation
}

func (g *gameObject) RotationSpeed() mgl32.Vec3 {
	return g.rotationSpeed
}

func (g *gameObject) Scale() mgl32.Vec3 {
	return g.scale
}

func (g *gameObject) World() mgl32.Mat4 {
	rotation := mgl32.HomogRotate3DZ(g.rotation.Z()).
		Mul4(mgl32.HomogRotate3DY(g.rotation.Y())).
		Mul4(mgl32.HomogRotate3DX(g.rotation.X()))
	return mgl32.Translate3D(g.position.X(), g.position.Y(), g.position.Z()).
		Mul4(rotation).
		Mul4(mgl32.Scale3D(g.scale.X(), g.scale.Y(), g.scale.Z()))
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetStatic(s model.Static) {
	g.static, g.animated = s, nil
	g.sync()
}

func (g *gameObject) SetAnimated(a model.Animated) {
	g.static, g.animated = nil, a
	g.sync()
}

func (g *gameObject) SetPosition(position mgl32.Vec3) {
	g.position = position
	g.sync()
}

func (g *gameObject) SetRotation(rotation mgl32.Vec3) {
	g.rotation = rotation
	g.sync()
}

func (g *gameObject) SetRotationSpeed(speed mgl32.Vec3) {
	g.rotationSpeed = speed
}

func (g *gameObject) SetScale(scale mgl32.Vec3) {
	g.scale = scale
	g.sync()
}

func (g *gameObject) Light() light.Point {
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Point, offset mgl32.Vec3) {
	g.attachedLight = l
	g.lightOffset = offset
	g.sync()
}

func (g *gameObject) Update(dt float32) {
	if g.rotationSpeed != (mgl32.Vec3{}) {
		g.rotation = g.rotation.Add(g.rotationSpeed.Mul(dt))
	}
	if g.animated != nil {
		g.animated.Update(dt)
	}
	g.sync()
}

func (g *gameObject) Submit(q RenderQueue) {
	if !g.Enabled() {
		return
	}
	switch {
	case g.static != nil:
		q.AddStatic(g.static)
	case g.animated != nil:
		q.AddAnimated(g.animated)
	}
	if g.attachedLight != nil {
		q.AddPoint(g.attachedLight)
	}
}

// sync writes the transform into the carried model and the attached light.
func (g *gameObject) sync() {
	world := g.World()
	switch {
	case g.static != nil:
		g.static.SetWorld(world)
	case g.animated != nil:
		g.animated.SetWorld(world)
	}
	if g.attachedLight != nil {
		g.attachedLight.SetPosition(g.position.Add(g.lightOffset))
	}
}
