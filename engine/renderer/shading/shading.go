// Package shading holds the per-pixel formulas of the deferred pipeline in Go form.
// The WGSL shaders implement the same math; the software device and the tests call
// these functions directly.
package shading

import (
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// BlinnPhong returns the diffuse and specular factors for a surface.
//
// Parameters:
//   - n: the unit surface normal
//   - l: the unit vector from the surface toward the light
//   - v: the unit vector from the surface toward the viewer
//   - specExp: the specular exponent
//
// Returns:
//   - float32: max(0, N·L)
//   - float32: pow(max(0, N·H), specExp), zero where N·L <= 0
func BlinnPhong(n, l, v mgl32.Vec3, specExp float32) (float32, float32) {
	nDotL := n.Dot(l)
	if nDotL <= 0 {
		return 0, 0
	}
	h := l.Add(v)
	if h.Len() < 1e-6 {
		return nDotL, 0
	}
	nDotH := common.Clamp(n.Dot(h.Normalize()), 0, 1)
	return nDotL, common.Pow(nDotH, specExp)
}

// Attenuation returns 1/(c + l·d + q·d²) for distances within radius and 0 beyond it.
func Attenuation(constant, linear, quadratic, distance, radius float32) float32 {
	if distance > radius {
		return 0
	}
	denom := constant + linear*distance + quadratic*distance*distance
	if denom <= 0 {
		return 0
	}
	return 1 / denom
}

// ShadowBias is the slope-scaled depth bias applied before the shadow compare.
func ShadowBias(nDotL float32) float32 {
	return max(light.MinShadowBias*(1-nDotL), light.MinShadowBias)
}

// DepthSampler returns the stored shadow depth at a texture coordinate.
// Coordinates outside [0,1] must return 1 (no occluder).
type DepthSampler func(u, v float32) float32

// PCF filters a shadow compare over a 4x4 kernel with taps at ±0.5 and ±1.5 texels.
//
// Parameters:
//   - sample: the cascade depth lookup
//   - u, v: the shadow-map coordinate of the shaded point
//   - depth: the light-space depth of the shaded point
//   - bias: the depth bias, see ShadowBias
//   - texel: the size of one shadow-map texel in UV units
//
// Returns:
//   - float32: visibility in [0,1], 1 meaning fully lit
func PCF(sample DepthSampler, u, v, depth, bias, texel float32) float32 {
	if depth > 1 {
		return 1
	}
	half := float32(light.PCFKernelSize-1) / 2
	lit := 0
	for y := 0; y < light.PCFKernelSize; y++ {
		for x := 0; x < light.PCFKernelSize; x++ {
			ox := (float32(x) - half) * texel
			oy := (float32(y) - half) * texel
			if depth-bias <= sample(u+ox, v+oy) {
				lit++
			}
		}
	}
	return float32(lit) / float32(light.PCFKernelSize*light.PCFKernelSize)
}

// CascadeIndex returns the first cascade whose far split covers viewDepth, clamped to the last cascade.
func CascadeIndex(viewDepth float32, ends [light.CascadeCount + 1]float32) int {
	for i := 0; i < light.CascadeCount; i++ {
		if viewDepth <= ends[i+1] {
			return i
		}
	}
	return light.CascadeCount - 1
}

// ShadowCoord projects a world position into a cascade's shadow map.
//
// Parameters:
//   - lightViewProj: the cascade's light view-projection matrix
//   - world: the world-space position
//
// Returns:
//   - float32: texture u
//   - float32: texture v (top-left origin)
//   - float32: depth in [0,1]
func ShadowCoord(lightViewProj mgl32.Mat4, world mgl32.Vec3) (float32, float32, float32) {
	clip := lightViewProj.Mul4x1(world.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip.W())
	return ndc.X()*0.5 + 0.5, 0.5 - ndc.Y()*0.5, ndc.Z()*0.5 + 0.5
}

// ToneMap applies exposure tone mapping followed by gamma correction.
//
// Parameters:
//   - hdr: the accumulated linear radiance, components >= 0
//   - exposure: the exposure, > 0
//   - gamma: the display gamma, > 0
//
// Returns:
//   - mgl32.Vec3: the display color in [0,1)
func ToneMap(hdr mgl32.Vec3, exposure, gamma float32) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		mapped := 1 - float32(math.Exp(float64(-hdr[i]*exposure)))
		out[i] = common.Pow(max(mapped, 0), 1/gamma)
	}
	return out
}

// RemapNormal maps a unit normal from [-1,1] to [0,1] for display.
func RemapNormal(n mgl32.Vec3) mgl32.Vec3 {
	return n.Mul(0.5).Add(mgl32.Vec3{0.5, 0.5, 0.5})
}

// WireframeEdge returns 1 on triangle edges fading to 0 in the interior.
//
// Parameters:
//   - bary: the barycentric coordinate of the fragment
//   - fwidth: the screen-space derivative width of each barycentric component
//   - width: the line width in pixels
//
// Returns:
//   - float32: the edge factor in [0,1]
func WireframeEdge(bary, fwidth mgl32.Vec3, width float32) float32 {
	inside := float32(1)
	for i := 0; i < 3; i++ {
		inside = min(inside, common.Smoothstep(0, fwidth[i]*width, bary[i]))
	}
	return 1 - inside
}

// WireframeColor blends the debug color over the diffuse color by half the edge factor.
func WireframeColor(diffuse, debug mgl32.Vec3, edge float32) mgl32.Vec3 {
	return common.Lerp3(diffuse, debug, 0.5*edge)
}

var cascadeTints = [light.CascadeCount]mgl32.Vec3{
	{1.0, 0.25, 0.25},
	{0.25, 1.0, 0.25},
	{0.25, 0.25, 1.0},
}

// CascadeTint is the color the Shadows display multiplies into the ambient term.
func CascadeTint(cascade int) mgl32.Vec3 {
	return cascadeTints[common.Clamp(cascade, 0, light.CascadeCount-1)]
}
