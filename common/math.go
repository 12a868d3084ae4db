package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

// Float is the set of floating point types accepted by the interpolation helpers.
type Float interface {
	~float32 | ~float64
}

// Clamp restricts v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: the lower bound
//   - hi: the upper bound
//
// Returns:
//   - T: v limited to [lo, hi]
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates between a and b by t. t is not clamped.
//
// Parameters:
//   - a: the value at t = 0
//   - b: the value at t = 1
//   - t: the interpolation factor
//
// Returns:
//   - T: a + (b - a) * t
func Lerp[T Float](a, b, t T) T {
	return a + (b-a)*t
}

// Smoothstep performs Hermite interpolation between 0 and 1 when edge0 < x < edge1,
// matching the WGSL built-in of the same name.
//
// Parameters:
//   - edge0: lower edge of the transition
//   - edge1: upper edge of the transition
//   - x: the source value
//
// Returns:
//   - T: 0 at or below edge0, 1 at or above edge1, smooth in between
func Smoothstep[T Float](edge0, edge1, x T) T {
	if edge1 == edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Mul3 multiplies two vectors component-wise.
func Mul3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Lerp3 interpolates two vectors component-wise.
func Lerp3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Max3 returns the largest component of v.
func Max3(v mgl32.Vec3) float32 {
	return float32(math.Max(float64(v[0]), math.Max(float64(v[1]), float64(v[2]))))
}

// Pow is a float32 wrapper around math.Pow.
func Pow(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}

// BuildModelMatrix constructs a 4x4 model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll).
//
// Parameters:
//   - position: translation in world space
//   - rotation: rotation angles in radians around each axis
//   - scale: scale factors along each axis
//
// Returns:
//   - mgl32.Mat4: the composed model matrix (translate * rotate * scale)
func BuildModelMatrix(position, rotation, scale mgl32.Vec3) mgl32.Mat4 {
	rot := mgl32.HomogRotate3DY(rotation[1]).
		Mul4(mgl32.HomogRotate3DX(rotation[0])).
		Mul4(mgl32.HomogRotate3DZ(rotation[2]))
	return mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(rot).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// NormalMatrix returns the inverse-transpose of the upper 3x3 of m, widened back to a
// 4x4 so it can be uploaded with std140 alignment.
func NormalMatrix(m mgl32.Mat4) mgl32.Mat4 {
	return mgl32.Mat4Normal(m).Mat4()
}

// ViewDepth returns the positive distance of a world-space point in front of the view
// described by view (a right-handed view matrix looking down -Z).
func ViewDepth(view mgl32.Mat4, p mgl32.Vec3) float32 {
	return -view.Mul4x1(p.Vec4(1)).Z()
}
