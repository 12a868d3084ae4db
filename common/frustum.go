package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the distance from p to the plane, positive on the side the
// normal points to.
func (p Plane) SignedDistance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustum extracts frustum planes from a view-projection matrix using the
// Gribb/Hartmann method. The matrix is expected in OpenGL clip conventions
// (z in [-w, w]), which is what mgl32.Perspective and mgl32.Ortho produce.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined projection * view matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	var f Frustum

	r0, r1, r2, r3 := viewProj.Rows()
	set := func(i int, v mgl32.Vec4) {
		f.Planes[i] = Plane{Normal: v.Vec3(), Distance: v[3]}
	}

	set(FrustumLeft, r3.Add(r0))
	set(FrustumRight, r3.Sub(r0))
	set(FrustumBottom, r3.Add(r1))
	set(FrustumTop, r3.Sub(r1))
	set(FrustumNear, r3.Add(r2))
	set(FrustumFar, r3.Sub(r2))

	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := p.Normal.Len()
	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
}

// IntersectsAABB reports whether any part of the box lies inside the frustum.
// For each plane only the corner furthest along the plane normal (the positive
// vertex) is tested; if that corner is behind a plane the box is outside.
//
// Parameters:
//   - box: a world-space bounding box
//
// Returns:
//   - bool: false only when the box is entirely outside at least one plane
func (f Frustum) IntersectsAABB(box AABB) bool {
	if box.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		var positive mgl32.Vec3
		for i := 0; i < 3; i++ {
			if p.Normal[i] >= 0 {
				positive[i] = box.Max[i]
			} else {
				positive[i] = box.Min[i]
			}
		}
		if p.SignedDistance(positive) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether a sphere overlaps the frustum.
//
// Parameters:
//   - center: world-space sphere center
//   - radius: sphere radius; +Inf always intersects
//
// Returns:
//   - bool: false when the sphere is entirely behind at least one plane
func (f Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	if math.IsInf(float64(radius), 1) {
		return true
	}
	for _, p := range f.Planes {
		if p.SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p lies inside every plane of the frustum.
func (f Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.SignedDistance(p) < 0 {
			return false
		}
	}
	return true
}
