package material

import "github.com/go-gl/mathgl/mgl32"

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithAmbientTexture sets the texture sampled for the ambient term.
func WithAmbientTexture(t *Texture) MaterialBuilderOption {
	return func(m *material) {
		m.ambient = t
	}
}

// WithDiffuseTexture sets the albedo texture.
func WithDiffuseTexture(t *Texture) MaterialBuilderOption {
	return func(m *material) {
		m.diffuse = t
	}
}

// WithSpecularTexture sets the texture whose red channel scales specular highlights.
func WithSpecularTexture(t *Texture) MaterialBuilderOption {
	return func(m *material) {
		m.specular = t
	}
}

// WithAlphaTexture sets the alpha mask. Texels with red below 0.5 are discarded.
func WithAlphaTexture(t *Texture) MaterialBuilderOption {
	return func(m *material) {
		m.alpha = t
	}
}

// WithNormalTexture sets the tangent-space normal map.
func WithNormalTexture(t *Texture) MaterialBuilderOption {
	return func(m *material) {
		m.normal = t
	}
}

// WithSpecularExponent is an option builder that sets the Blinn-Phong exponent.
//
// Parameters:
//   - exponent: the specular exponent, larger values give tighter highlights
//
// Returns:
//   - MaterialBuilderOption: a function that applies the exponent to a material
func WithSpecularExponent(exponent float32) MaterialBuilderOption {
	return func(m *material) {
		m.specularExponent = exponent
	}
}

// WithDebugColor sets the wireframe tint.
func WithDebugColor(color mgl32.Vec4) MaterialBuilderOption {
	return func(m *material) {
		m.debugColor = color
	}
}

// WithVisible sets the initial visibility.
func WithVisible(visible bool) MaterialBuilderOption {
	return func(m *material) {
		m.visible = visible
	}
}
