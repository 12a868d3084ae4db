package light

// CascadeCount is the number of shadow cascades rendered for every directional light.
// It is fixed at compile time because it sizes the cascade arrays, the uniform
// layouts and the shader bindings.
const CascadeCount = 3

// ShadowMapResolution is the default width and height in texels of each cascade
// depth texture. Renderers can override it via their builder options.
const ShadowMapResolution = 2048

// DefaultCascadeLambda is the default blend between logarithmic (1) and linear (0)
// cascade split distribution.
const DefaultCascadeLambda float32 = 0.5

// DefaultLightOffset is the default distance the light-space eye is pushed back
// along the light direction from each cascade's bounding box center. Larger values
// keep casters outside the cascade box inside the shadow frustum.
const DefaultLightOffset float32 = 100.0

// MinShadowBias is the floor of the slope-scaled depth bias used during shadow
// comparisons: bias = max(MinShadowBias * (1 - N·L), MinShadowBias).
const MinShadowBias float32 = 0.005

// PCFKernelSize is the width of the square percentage-closer filtering kernel.
// A 4x4 kernel takes 16 taps at offsets of ±0.5 and ±1.5 texels.
const PCFKernelSize = 4

// AttenuationCutoff is the attenuation below which a point light's contribution
// is treated as zero when deriving its culling radius.
const AttenuationCutoff float32 = 5.0 / 256.0
