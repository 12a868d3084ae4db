package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestLookAtFacesTarget(t *testing.T) {
	eye := mgl32.Vec3{0, 5, 10}
	c := NewCamera(
		WithPosition(eye),
		WithLookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
		WithClipPlanes(0.1, 100),
	)

	want := mgl32.Vec3{0, -5, -10}.Normalize()
	if !c.Forward().ApproxEqualThreshold(want, 1e-4) {
		t.Errorf("Forward() = %v, want %v", c.Forward(), want)
	}

	depth := common.ViewDepth(c.ViewMatrix(), mgl32.Vec3{0, 0, 0})
	if !mgl32.FloatEqualThreshold(depth, eye.Len(), 1e-3) {
		t.Errorf("view depth of target = %v, want %v", depth, eye.Len())
	}

	if !c.Frustum().ContainsPoint(mgl32.Vec3{0, 0, 0}) {
		t.Error("target is outside the camera frustum")
	}
}

func TestInverseViewRoundTrip(t *testing.T) {
	c := NewCamera(
		WithPosition(mgl32.Vec3{3, 2, 1}),
		WithLookAt(mgl32.Vec3{-4, 0, -8}, mgl32.Vec3{0, 1, 0}),
	)
	id := c.ViewMatrix().Mul4(c.InverseViewMatrix())
	want := mgl32.Ident4()
	for i := range id {
		if mgl32.Abs(id[i]-want[i]) > 1e-4 {
			t.Fatalf("view * inverse view = %v, want identity (element %d off by %v)", id, i, id[i]-want[i])
		}
	}
}

func TestClipPlanesStayOrdered(t *testing.T) {
	tests := []struct {
		name      string
		near, far float32
	}{
		{"zero near", 0, 100},
		{"negative near", -1, 100},
		{"far before near", 10, 5},
		{"collapsed", 1, 1},
		{"NaN", float32(math.NaN()), float32(math.NaN())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := func(c Camera) {
				t.Helper()
				if !(c.Near() > 0) || !(c.Far() >= c.Near()+MinClipSpan) {
					t.Errorf("clip planes = [%v, %v], want 0 < near and far >= near+%v", c.Near(), c.Far(), MinClipSpan)
				}
			}
			check(NewCamera(WithClipPlanes(tt.near, tt.far)))

			c := NewCamera()
			c.SetClipPlanes(tt.near, tt.far)
			check(c)
		})
	}

	c := NewCamera(WithClipPlanes(0.5, 250))
	if c.Near() != 0.5 || c.Far() != 250 {
		t.Errorf("valid planes changed to [%v, %v]", c.Near(), c.Far())
	}
}

func TestSetAspectUpdatesProjection(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()
	c.SetAspect(2)
	after := c.ProjectionMatrix()
	if mgl32.FloatEqual(before[0], after[0]) {
		t.Error("projection x scale did not change with aspect")
	}
	if !mgl32.FloatEqual(before[5], after[5]) {
		t.Error("projection y scale changed with aspect")
	}
}
