package game_object

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

type recordingQueue struct {
	statics  []model.Static
	animated []model.Animated
	points   []light.Point
}

func (q *recordingQueue) AddStatic(s model.Static)     { q.statics = append(q.statics, s) }
func (q *recordingQueue) AddAnimated(a model.Animated) { q.animated = append(q.animated, a) }
func (q *recordingQueue) AddPoint(l light.Point)       { q.points = append(q.points, l) }

func TestWorldComposesTransform(t *testing.T) {
	s := model.NewStatic(model.WithShape(nil, model.NewMesh(model.Cube(1))))
	obj := NewGameObject(
		WithStatic(s),
		WithPosition(1, 2, 3),
		WithScale(2, 2, 2),
		WithRotation(0, mgl32.DegToRad(90), 0),
	)

	// Scale, then a quarter turn around +Y maps +X to -Z, then translate.
	got := obj.World().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	want := mgl32.Vec3{1, 2, 1}
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("World * +X = %v, want %v", got, want)
	}
	if !s.World().ApproxEqualThreshold(obj.World(), 1e-6) {
		t.Error("model world not synced at construction")
	}

	obj.SetPosition(mgl32.Vec3{0, 0, 0})
	if origin := s.World().Col(3).Vec3(); origin.Len() > 1e-6 {
		t.Errorf("model origin = %v after SetPosition, want 0", origin)
	}
}

func TestUpdateSpinsAndMovesLight(t *testing.T) {
	lamp := light.NewPoint()
	obj := NewGameObject(
		WithPosition(4, 0, 0),
		WithRotationSpeed(0, 1, 0),
		WithLight(lamp, mgl32.Vec3{0, 1, 0}),
	)
	if got := lamp.Position(); got != (mgl32.Vec3{4, 1, 0}) {
		t.Fatalf("light at %v, want 4,1,0", got)
	}

	obj.Update(0.5)
	if got := obj.Rotation().Y(); got != 0.5 {
		t.Errorf("rotation.y = %v after 0.5s at 1 rad/s", got)
	}
	obj.SetPosition(mgl32.Vec3{-2, 0, 0})
	if got := lamp.Position(); got != (mgl32.Vec3{-2, 1, 0}) {
		t.Errorf("light at %v after move, want -2,1,0", got)
	}
}

func TestUpdateAdvancesMorph(t *testing.T) {
	var frames []*model.Mesh
	for _, d := range model.MorphKeyframes(model.UVSphere(4, 6), 3, 0.1) {
		frames = append(frames, model.NewMesh(d))
	}
	a, err := model.NewAnimated(frames)
	if err != nil {
		t.Fatalf("NewAnimated: %v", err)
	}
	obj := NewGameObject(WithAnimated(a))

	cur, _, _ := a.Keyframes()
	obj.Update(1.5 / model.DefaultMorphRate)
	next, _, blend := a.Keyframes()
	if cur == next || blend < 0.49 || blend > 0.51 {
		t.Errorf("after 1.5 keyframes: moved=%v blend=%v", cur != next, blend)
	}
}

func TestSubmit(t *testing.T) {
	s := model.NewStatic()
	lamp := light.NewPoint()
	obj := NewGameObject(WithStatic(s), WithLight(lamp, mgl32.Vec3{}))

	q := &recordingQueue{}
	obj.Submit(q)
	if len(q.statics) != 1 || q.statics[0] != s || len(q.points) != 1 {
		t.Fatalf("queue = %+v", q)
	}

	obj.SetEnabled(false)
	q = &recordingQueue{}
	obj.Submit(q)
	if len(q.statics)+len(q.animated)+len(q.points) != 0 {
		t.Errorf("disabled object submitted %+v", q)
	}

	empty := NewGameObject(WithEphemeral(true))
	q = &recordingQueue{}
	empty.Submit(q)
	if len(q.statics)+len(q.animated) != 0 || !empty.Ephemeral() {
		t.Error("object without a model submitted a drawable")
	}
}
