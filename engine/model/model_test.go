package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

func approxVec(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-4)
}

func TestCubeFacesWindOutward(t *testing.T) {
	data := Cube(2)
	if len(data.Vertices) != 24 || len(data.Indices) != 36 {
		t.Fatalf("cube has %d vertices, %d indices", len(data.Vertices), len(data.Indices))
	}
	for i := 0; i < len(data.Indices); i += 3 {
		a := data.Vertices[data.Indices[i]]
		b := data.Vertices[data.Indices[i+1]]
		c := data.Vertices[data.Indices[i+2]]
		n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position)).Normalize()
		if !approxVec(n, a.Normal) {
			t.Errorf("triangle %d winds toward %v, normal %v", i/3, n, a.Normal)
		}
		if a.Position.Dot(a.Normal) <= 0 {
			t.Errorf("triangle %d normal %v points inward", i/3, a.Normal)
		}
	}

	box := NewMesh(data).Bounds()
	if !approxVec(box.Min, mgl32.Vec3{-1, -1, -1}) || !approxVec(box.Max, mgl32.Vec3{1, 1, 1}) {
		t.Errorf("cube bounds = %+v", box)
	}
}

func TestUVSphereWindsOutward(t *testing.T) {
	data := UVSphere(8, 12)
	for i := 0; i < len(data.Indices); i += 3 {
		a := data.Vertices[data.Indices[i]].Position
		b := data.Vertices[data.Indices[i+1]].Position
		c := data.Vertices[data.Indices[i+2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() < 1e-6 {
			continue // degenerate pole triangle
		}
		centroid := a.Add(b).Add(c).Mul(1.0 / 3)
		if n.Dot(centroid) <= 0 {
			t.Fatalf("triangle %d faces inward", i/3)
		}
	}
	for _, v := range data.Vertices {
		if l := v.Position.Len(); l < 0.999 || l > 1.001 {
			t.Fatalf("vertex %v is not on the unit sphere", v.Position)
		}
	}
}

func TestPlaneFacesUp(t *testing.T) {
	data := Plane(4)
	for _, v := range data.Vertices {
		if !approxVec(v.Normal, mgl32.Vec3{0, 1, 0}) || v.Position.Y() != 0 {
			t.Fatalf("plane vertex %+v", v)
		}
	}
}

func TestMeshUsability(t *testing.T) {
	m := NewMesh(Cube(1))
	if m.IsUsable() || m.Handle() != 0 {
		t.Fatal("mesh usable before upload")
	}
	m.MarkUploaded(3)
	if !m.IsUsable() || m.Handle() != 3 {
		t.Fatalf("Handle = %d after upload", m.Handle())
	}
	if h := m.MarkReleased(); h != 3 || m.IsUsable() {
		t.Errorf("MarkReleased = %d, usable = %v", h, m.IsUsable())
	}
}

func TestStaticBoundsAndUsability(t *testing.T) {
	tex := material.NewTexture("diffuse", common.SolidImage(255, 255, 255, 255))
	mat := material.NewMaterial(material.WithDiffuseTexture(tex))
	a := NewMesh(Cube(2))
	b := NewMesh(Cube(2))
	s := NewStatic(
		WithName("pair"),
		WithShape(mat, a),
		WithShape(mat, b),
		WithWorld(mgl32.Translate3D(0, 0, -10)),
	)

	box := s.Bounds()
	if !approxVec(box.Min, mgl32.Vec3{-1, -1, -11}) || !approxVec(box.Max, mgl32.Vec3{1, 1, -9}) {
		t.Errorf("Bounds = %+v", box)
	}
	if !s.CastsShadow() {
		t.Error("static models cast shadows by default")
	}

	a.MarkUploaded(1)
	b.MarkUploaded(2)
	if s.IsUsable() {
		t.Error("usable with an unloaded texture")
	}
	tex.MarkUploaded(1)
	if !s.IsUsable() {
		t.Error("not usable after every resource uploaded")
	}
}

func TestAnimatedKeyframes(t *testing.T) {
	var frames []*Mesh
	for _, d := range MorphKeyframes(Cube(1), 4, 0.1) {
		frames = append(frames, NewMesh(d))
	}
	a, err := NewAnimated(frames, WithAnimatedName("pulse"))
	if err != nil {
		t.Fatalf("NewAnimated: %v", err)
	}

	cur, next, blend := a.Keyframes()
	if cur != frames[0] || next != frames[1] || blend != 0 {
		t.Errorf("initial keyframes = (%p, %p, %v)", cur, next, blend)
	}

	a.Update(0.25) // 2.5 keyframes at the default rate
	cur, next, blend = a.Keyframes()
	if cur != frames[2] || next != frames[3] || blend < 0.49 || blend > 0.51 {
		t.Errorf("keyframes after 0.25s = (%v, %v, %v)", cur.Label(), next.Label(), blend)
	}

	if a.IsUsable() {
		t.Error("usable before upload")
	}
	for i, f := range frames {
		f.MarkUploaded(renderer.MeshHandle(i + 1))
	}
	if !a.IsUsable() {
		t.Error("not usable after upload")
	}
}

func TestAnimatedRejectsMismatchedTopology(t *testing.T) {
	if _, err := NewAnimated(nil); err == nil {
		t.Error("accepted zero keyframes")
	}
	if _, err := NewAnimated([]*Mesh{NewMesh(Cube(1)), NewMesh(Plane(1))}); err == nil {
		t.Error("accepted keyframes with different topology")
	}
}
