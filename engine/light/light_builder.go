package light

import "github.com/go-gl/mathgl/mgl32"

// DirectionalBuilderOption is a function that configures a Directional light during construction.
type DirectionalBuilderOption func(*directionalImpl)

// PointBuilderOption is a function that configures a Point light during construction.
type PointBuilderOption func(*pointImpl)

// WithDirection is an option builder that sets the direction of a directional light.
// The direction is normalized before storing.
//
// Parameters:
//   - direction: the direction the light travels in
//
// Returns:
//   - DirectionalBuilderOption: a function that applies the direction option
func WithDirection(direction mgl32.Vec3) DirectionalBuilderOption {
	return func(l *directionalImpl) {
		l.direction = normalizeOr(direction, mgl32.Vec3{0, -1, 0})
	}
}

// WithDirectionalColors is an option builder that sets the ambient, diffuse and
// specular colors of a directional light.
//
// Parameters:
//   - ambient, diffuse, specular: colors as (r, g, b)
//
// Returns:
//   - DirectionalBuilderOption: a function that applies the color option
func WithDirectionalColors(ambient, diffuse, specular mgl32.Vec3) DirectionalBuilderOption {
	return func(l *directionalImpl) {
		l.ambient, l.diffuse, l.specular = ambient, diffuse, specular
	}
}

// WithCastsShadows is an option builder that sets whether the light populates its
// shadow cascades.
//
// Parameters:
//   - castsShadows: true to enable shadow casting
//
// Returns:
//   - DirectionalBuilderOption: a function that applies the shadow option
func WithCastsShadows(castsShadows bool) DirectionalBuilderOption {
	return func(l *directionalImpl) {
		l.castsShadows = castsShadows
	}
}

// WithPosition is an option builder that sets the world-space position of a point light.
//
// Parameters:
//   - position: position as (x, y, z)
//
// Returns:
//   - PointBuilderOption: a function that applies the position option
func WithPosition(position mgl32.Vec3) PointBuilderOption {
	return func(l *pointImpl) {
		l.position = position
	}
}

// WithAttenuation is an option builder that sets the attenuation coefficients of a point light.
//
// Parameters:
//   - constant, linear, quadratic: coefficients of 1 / (c + l·d + q·d²)
//
// Returns:
//   - PointBuilderOption: a function that applies the attenuation option
func WithAttenuation(constant, linear, quadratic float32) PointBuilderOption {
	return func(l *pointImpl) {
		l.constant, l.linear, l.quadratic = constant, linear, quadratic
	}
}

// WithPointColors is an option builder that sets the ambient, diffuse and specular
// colors of a point light.
//
// Parameters:
//   - ambient, diffuse, specular: colors as (r, g, b)
//
// Returns:
//   - PointBuilderOption: a function that applies the color option
func WithPointColors(ambient, diffuse, specular mgl32.Vec3) PointBuilderOption {
	return func(l *pointImpl) {
		l.ambient, l.diffuse, l.specular = ambient, diffuse, specular
	}
}
