package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testFrustum() Frustum {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	return ExtractFrustum(proj.Mul4(view))
}

func TestFrustumIntersectsAABB(t *testing.T) {
	f := testFrustum()

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"in front", AABB{Min: mgl32.Vec3{-1, -1, -11}, Max: mgl32.Vec3{1, 1, -9}}, true},
		{"behind camera", AABB{Min: mgl32.Vec3{-1, -1, 5}, Max: mgl32.Vec3{1, 1, 7}}, false},
		{"far left", AABB{Min: mgl32.Vec3{-50, -1, -11}, Max: mgl32.Vec3{-40, 1, -9}}, false},
		{"beyond far plane", AABB{Min: mgl32.Vec3{-1, -1, -300}, Max: mgl32.Vec3{1, 1, -200}}, false},
		{"straddles near plane", AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}, true},
		{"empty", EmptyAABB(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IntersectsAABB(tt.box); got != tt.want {
				t.Errorf("IntersectsAABB() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	f := testFrustum()

	if !f.IntersectsSphere(mgl32.Vec3{0, 0, -10}, 1) {
		t.Error("sphere in view reported outside")
	}
	if f.IntersectsSphere(mgl32.Vec3{0, 0, 20}, 1) {
		t.Error("sphere behind camera reported inside")
	}
	// Centre behind the camera but radius reaches past the near plane.
	if !f.IntersectsSphere(mgl32.Vec3{0, 0, 2}, 5) {
		t.Error("sphere enclosing the camera reported outside")
	}
}

func TestAABBTransform(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	moved := box.Transform(mgl32.Translate3D(0, 0, -10))

	if !moved.Center().ApproxEqual(mgl32.Vec3{0, 0, -10}) {
		t.Errorf("center = %v, want (0, 0, -10)", moved.Center())
	}
	if !moved.Size().ApproxEqual(mgl32.Vec3{2, 2, 2}) {
		t.Errorf("size = %v, want (2, 2, 2)", moved.Size())
	}

	rotated := box.Transform(mgl32.HomogRotate3DY(mgl32.DegToRad(45)))
	if rotated.Size()[0] <= 2 {
		t.Errorf("rotated width = %v, want > 2", rotated.Size()[0])
	}
}
