package material

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// DefaultSpecularExponent is the Blinn-Phong exponent used when none is configured.
const DefaultSpecularExponent = 32

// material is the implementation of the Material interface.
type material struct {
	id               uuid.UUID
	name             string
	ambient          *Texture
	diffuse          *Texture
	specular         *Texture
	alpha            *Texture
	normal           *Texture
	specularExponent float32
	debugColor       mgl32.Vec4
	visible          bool
}

// Material describes how a surface writes into the G-buffer: five optional textures,
// a specular exponent, a visibility flag and the wireframe debug color.
//
// A nil texture samples the device's white texture; a nil normal map disables normal
// mapping. A material is usable once every texture it references is usable.
type Material interface {
	// ID retrieves the material's unique identifier.
	//
	// Returns:
	//   - uuid.UUID: the identifier
	ID() uuid.UUID

	// Name retrieves the material name.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Textures retrieves the five texture slots in ambient, diffuse, specular, alpha, normal order.
	// Entries may be nil.
	//
	// Returns:
	//   - [5]*Texture: the texture references
	Textures() [5]*Texture

	// SpecularExponent retrieves the Blinn-Phong exponent.
	//
	// Returns:
	//   - float32: the specular exponent
	SpecularExponent() float32

	// DebugColor retrieves the wireframe tint.
	//
	// Returns:
	//   - mgl32.Vec4: the RGBA debug color
	DebugColor() mgl32.Vec4

	// Visible reports whether shapes using this material are drawn.
	//
	// Returns:
	//   - bool: true if visible
	Visible() bool

	// SetVisible shows or hides every shape using this material.
	//
	// Parameters:
	//   - visible: the new visibility
	SetVisible(visible bool)

	// IsUsable reports whether every referenced texture has been uploaded.
	//
	// Returns:
	//   - bool: true if the material can be bound
	IsUsable() bool

	// Binding resolves the device texture handles for the material.
	//
	// Returns:
	//   - renderer.MaterialBinding: the handles, NoTexture for empty slots
	Binding() renderer.MaterialBinding
}

var _ Material = &material{}

// NewMaterial creates a visible material configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		id:               uuid.New(),
		specularExponent: DefaultSpecularExponent,
		debugColor:       mgl32.Vec4{1, 1, 1, 1},
		visible:          true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) ID() uuid.UUID {
	return m.id
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Textures() [5]*Texture {
	return [5]*Texture{m.ambient, m.diffuse, m.specular, m.alpha, m.normal}
}

func (m *material) SpecularExponent() float32 {
	return m.specularExponent
}

func (m *material) DebugColor() mgl32.Vec4 {
	return m.debugColor
}

func (m *material) Visible() bool {
	return m.visible
}

func (m *material) SetVisible(visible bool) {
	m.visible = visible
}

func (m *material) IsUsable() bool {
	for _, t := range m.Textures() {
		if t != nil && !t.IsUsable() {
			return false
		}
	}
	return true
}

func (m *material) Binding() renderer.MaterialBinding {
	return renderer.MaterialBinding{
		Ambient:  handleOf(m.ambient),
		Diffuse:  handleOf(m.diffuse),
		Specular: handleOf(m.specular),
		Alpha:    handleOf(m.alpha),
		Normal:   handleOf(m.normal),
	}
}

func handleOf(t *Texture) renderer.TextureHandle {
	if t == nil {
		return renderer.NoTexture
	}
	return t.Handle()
}
