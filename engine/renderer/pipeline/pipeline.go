package pipeline

import "fmt"

// Kind identifies which shader program and fixed-function state a pipeline uses.
// Every pass of the deferred renderer draws with exactly one kind at a time.
type Kind int

const (
	// KindGeometry rasterizes static meshes into the G-buffer.
	KindGeometry Kind = iota

	// KindGeometryMorph rasterizes two keyframe streams blended by a factor into the G-buffer.
	KindGeometryMorph

	// KindShadow renders static casters into a cascade depth map.
	KindShadow

	// KindShadowMorph renders keyframe-blended casters into a cascade depth map.
	KindShadowMorph

	// KindDirectionalLight is the full-screen directional light pass with cascade lookups.
	KindDirectionalLight

	// KindPointLight rasterizes a light volume with the camera outside of it.
	KindPointLight

	// KindPointLightInside rasterizes the back faces of a light volume that encloses the camera.
	KindPointLightInside

	// KindToneMap converts the HDR accumulation buffer to the output image.
	KindToneMap

	// KindWireframe re-rasterizes static meshes with barycentric edge highlighting.
	KindWireframe

	// KindWireframeMorph is the keyframe-blended variant of KindWireframe.
	KindWireframeMorph

	// KindWorldNormals writes the G-buffer normals remapped to [0, 1].
	KindWorldNormals

	// KindAlbedo copies the G-buffer diffuse channel.
	KindAlbedo

	// KindCount is the number of pipeline kinds.
	KindCount
)

var kindNames = [KindCount]string{
	"geometry", "geometry_morph", "shadow", "shadow_morph",
	"directional_light", "point_light", "point_light_inside", "tone_map",
	"wireframe", "wireframe_morph", "world_normals", "albedo",
}

func (k Kind) String() string {
	if k < 0 || k >= KindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Morph reports whether the kind consumes two keyframe vertex streams.
func (k Kind) Morph() bool {
	return k == KindGeometryMorph || k == KindShadowMorph || k == KindWireframeMorph
}

// Fullscreen reports whether the kind draws a full-screen triangle instead of meshes.
func (k Kind) Fullscreen() bool {
	switch k {
	case KindDirectionalLight, KindToneMap, KindWorldNormals, KindAlbedo:
		return true
	}
	return false
}

// TextureFormat is a backend-neutral attachment format.
type TextureFormat int

const (
	// FormatUndefined marks an absent attachment (e.g. no depth target).
	FormatUndefined TextureFormat = iota
	// FormatRGBA8Unorm is an 8-bit normalized color format.
	FormatRGBA8Unorm
	// FormatRGBA16Float is a half-float color format used for HDR and normals.
	FormatRGBA16Float
	// FormatRGBA32Float is a full-float color format used for world positions.
	FormatRGBA32Float
	// FormatDepth32Float is a 32-bit float depth format.
	FormatDepth32Float
	// FormatOutput is whatever format the device presents with (swapchain or image).
	FormatOutput
)

// IsDepth reports whether the format is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth32Float
}

// CompareFunc is the depth comparison used by the depth test.
type CompareFunc int

const (
	// CompareAlways passes every fragment.
	CompareAlways CompareFunc = iota
	// CompareLess passes fragments closer than the stored depth.
	CompareLess
	// CompareLessEqual passes fragments closer than or equal to the stored depth.
	CompareLessEqual
)

// Test evaluates the comparison for an incoming fragment depth against a stored depth.
func (c CompareFunc) Test(fragment, stored float32) bool {
	switch c {
	case CompareLess:
		return fragment < stored
	case CompareLessEqual:
		return fragment <= stored
	default:
		return true
	}
}

// BlendMode selects how fragment output combines with the existing target value.
type BlendMode int

const (
	// BlendNone overwrites the target.
	BlendNone BlendMode = iota
	// BlendAdditive adds source to destination (one + one).
	BlendAdditive
	// BlendAlpha mixes by source alpha (src-alpha, one-minus-src-alpha).
	BlendAlpha
)

// CullMode selects which triangle facing is discarded. Front faces are counter-clockwise.
type CullMode int

const (
	// CullNone keeps every triangle.
	CullNone CullMode = iota
	// CullBack discards clockwise triangles.
	CullBack
	// CullFront discards counter-clockwise triangles.
	CullFront
)

// Descriptor holds the backend-neutral description of a render pipeline.
// Devices compile a Descriptor into their native pipeline object.
type Descriptor struct {
	Label string
	Kind  Kind

	ColorFormats []TextureFormat
	DepthFormat  TextureFormat

	DepthCompare        CompareFunc
	DepthWrite          bool
	DepthBias           int32
	DepthBiasSlopeScale float32
	// DepthClamp clamps fragment depth to [0, 1] instead of clipping at the near and far planes.
	DepthClamp bool

	Blend BlendMode
	Cull  CullMode

	// LineWidth scales the wireframe edge width in pixels. Widths other than 1 need FeatureWideLines.
	LineWidth float32
}

// NewDescriptor creates a Descriptor for the given kind with depth testing off,
// no blending, back-face culling and a line width of 1, then applies opts.
//
// Parameters:
//   - kind: the pipeline kind
//   - opts: variadic list of DescriptorOption functions
//
// Returns:
//   - Descriptor: the configured descriptor
func NewDescriptor(kind Kind, opts ...DescriptorOption) Descriptor {
	d := Descriptor{
		Label:        kind.String(),
		Kind:         kind,
		DepthFormat:  FormatUndefined,
		DepthCompare: CompareAlways,
		Blend:        BlendNone,
		Cull:         CullBack,
		LineWidth:    1,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
