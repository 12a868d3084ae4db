package light

import (
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/go-gl/mathgl/mgl32"
)

// directionalImpl is the implementation of the Directional interface.
type directionalImpl struct {
	direction    mgl32.Vec3
	ambient      mgl32.Vec3
	diffuse      mgl32.Vec3
	specular     mgl32.Vec3
	castsShadows bool
}

// Directional defines the interface for a light with no position, only a direction.
// Used for large distant sources like the sun or moon. Directional lights are the
// only lights that render shadow cascades.
type Directional interface {
	// Direction returns the normalized direction the light travels in.
	//
	// Returns:
	//   - mgl32.Vec3: the light direction (pointing from the light into the scene)
	Direction() mgl32.Vec3

	// Ambient returns the ambient color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Ambient() mgl32.Vec3

	// Diffuse returns the diffuse color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Diffuse() mgl32.Vec3

	// Specular returns the specular color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Specular() mgl32.Vec3

	// CastsShadows returns whether the cascades for this light are populated.
	// Cascades are still cleared for lights that do not cast shadows.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// SetDirection sets the light direction and normalizes it.
	//
	// Parameters:
	//   - direction: the direction the light travels in
	SetDirection(direction mgl32.Vec3)

	// SetColors sets the ambient, diffuse and specular colors.
	//
	// Parameters:
	//   - ambient, diffuse, specular: colors as (r, g, b)
	SetColors(ambient, diffuse, specular mgl32.Vec3)

	// SetCastsShadows sets whether the light is eligible for shadow mapping.
	//
	// Parameters:
	//   - castsShadows: true to enable shadow casting
	SetCastsShadows(castsShadows bool)
}

var _ Directional = &directionalImpl{}

// NewDirectional creates a new Directional light pointing straight down with white
// light and any provided options applied.
//
// Parameters:
//   - opts: variadic list of DirectionalBuilderOption functions to configure the light
//
// Returns:
//   - Directional: a new Directional instance
func NewDirectional(opts ...DirectionalBuilderOption) Directional {
	l := &directionalImpl{
		direction: mgl32.Vec3{0, -1, 0},
		ambient:   mgl32.Vec3{0.1, 0.1, 0.1},
		diffuse:   mgl32.Vec3{1, 1, 1},
		specular:  mgl32.Vec3{1, 1, 1},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *directionalImpl) Direction() mgl32.Vec3 {
	return l.direction
}

func (l *directionalImpl) Ambient() mgl32.Vec3 {
	return l.ambient
}

func (l *directionalImpl) Diffuse() mgl32.Vec3 {
	return l.diffuse
}

func (l *directionalImpl) Specular() mgl32.Vec3 {
	return l.specular
}

func (l *directionalImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *directionalImpl) SetDirection(direction mgl32.Vec3) {
	l.direction = normalizeOr(direction, mgl32.Vec3{0, -1, 0})
}

func (l *directionalImpl) SetColors(ambient, diffuse, specular mgl32.Vec3) {
	l.ambient, l.diffuse, l.specular = ambient, diffuse, specular
}

func (l *directionalImpl) SetCastsShadows(castsShadows bool) {
	l.castsShadows = castsShadows
}

// pointImpl is the implementation of the Point interface.
type pointImpl struct {
	position  mgl32.Vec3
	constant  float32
	linear    float32
	quadratic float32
	ambient   mgl32.Vec3
	diffuse   mgl32.Vec3
	specular  mgl32.Vec3
}

// Point defines the interface for a light that emits in all directions from a position.
// Used for bare bulbs, lanterns and candle flames. Point lights are rendered as light
// volumes whose size is derived from the attenuation coefficients.
type Point interface {
	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - mgl32.Vec3: position as (x, y, z)
	Position() mgl32.Vec3

	// Attenuation returns the constant, linear and quadratic attenuation coefficients.
	//
	// Returns:
	//   - constant, linear, quadratic: coefficients of 1 / (c + l·d + q·d²)
	Attenuation() (constant, linear, quadratic float32)

	// Ambient returns the ambient color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Ambient() mgl32.Vec3

	// Diffuse returns the diffuse color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Diffuse() mgl32.Vec3

	// Specular returns the specular color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Specular() mgl32.Vec3

	// Radius returns the distance at which the brightest channel of the light has
	// attenuated to AttenuationCutoff. Returns +Inf when the light never falls below
	// the cutoff (no linear or quadratic falloff).
	//
	// Returns:
	//   - float32: the culling radius
	Radius() float32

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - position: position as (x, y, z)
	SetPosition(position mgl32.Vec3)

	// SetAttenuation sets the attenuation coefficients.
	//
	// Parameters:
	//   - constant, linear, quadratic: coefficients of 1 / (c + l·d + q·d²)
	SetAttenuation(constant, linear, quadratic float32)

	// SetColors sets the ambient, diffuse and specular colors.
	//
	// Parameters:
	//   - ambient, diffuse, specular: colors as (r, g, b)
	SetColors(ambient, diffuse, specular mgl32.Vec3)
}

var _ Point = &pointImpl{}

// NewPoint creates a new Point light at the origin with a medium falloff
// (roughly 50 units) and any provided options applied.
//
// Parameters:
//   - opts: variadic list of PointBuilderOption functions to configure the light
//
// Returns:
//   - Point: a new Point instance
func NewPoint(opts ...PointBuilderOption) Point {
	l := &pointImpl{
		constant:  1.0,
		linear:    0.09,
		quadratic: 0.032,
		ambient:   mgl32.Vec3{0.05, 0.05, 0.05},
		diffuse:   mgl32.Vec3{1, 1, 1},
		specular:  mgl32.Vec3{1, 1, 1},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *pointImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *pointImpl) Attenuation() (constant, linear, quadratic float32) {
	return l.constant, l.linear, l.quadratic
}

func (l *pointImpl) Ambient() mgl32.Vec3 {
	return l.ambient
}

func (l *pointImpl) Diffuse() mgl32.Vec3 {
	return l.diffuse
}

func (l *pointImpl) Specular() mgl32.Vec3 {
	return l.specular
}

func (l *pointImpl) Radius() float32 {
	return AttenuationRadius(l.constant, l.linear, l.quadratic,
		max(common.Max3(l.diffuse), common.Max3(l.specular), common.Max3(l.ambient)))
}

func (l *pointImpl) SetPosition(position mgl32.Vec3) {
	l.position = position
}

func (l *pointImpl) SetAttenuation(constant, linear, quadratic float32) {
	l.constant, l.linear, l.quadratic = constant, linear, quadratic
}

func (l *pointImpl) SetColors(ambient, diffuse, specular mgl32.Vec3) {
	l.ambient, l.diffuse, l.specular = ambient, diffuse, specular
}

// AttenuationRadius solves brightness / (c + l·d + q·d²) = AttenuationCutoff for d.
//
// Parameters:
//   - constant, linear, quadratic: attenuation coefficients
//   - brightness: the largest color channel of the light
//
// Returns:
//   - float32: the cutoff distance, 0 for lights that never reach the cutoff,
//     +Inf for lights that never fall below it
func AttenuationRadius(constant, linear, quadratic, brightness float32) float32 {
	if brightness <= 0 {
		return 0
	}
	k := float64(constant) - float64(brightness/AttenuationCutoff)
	if k >= 0 {
		return 0
	}
	switch {
	case quadratic > 0:
		l, q := float64(linear), float64(quadratic)
		return float32((-l + math.Sqrt(l*l-4*q*k)) / (2 * q))
	case linear > 0:
		return float32(-k / float64(linear))
	default:
		return float32(math.Inf(1))
	}
}

func normalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if v.Len() < 1e-6 {
		return fallback
	}
	return v.Normalize()
}
