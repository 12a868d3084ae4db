package engine

import (
	"io"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/software"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
)

func headlessEngine(t *testing.T) Engine {
	t.Helper()
	cfg := renderer.DefaultConfig()
	cfg.Width, cfg.Height = 64, 64
	cfg.ShadowResolution = 256
	e := NewEngine(WithHeadless(true), WithConfig(cfg), WithLogger(log.New(io.Discard)))
	t.Cleanup(e.Quit)
	return e
}

func cubeScene(e Engine) (scene.Scene, game_object.GameObject) {
	cam := camera.NewCamera(camera.WithFov(math.Pi/3), camera.WithClipPlanes(0.1, 500))
	obj := game_object.NewGameObject(
		game_object.WithStatic(model.NewStatic(model.WithShape(material.NewMaterial(), model.NewMesh(model.Cube(2))))),
		game_object.WithPosition(0, 0, -10),
		game_object.WithRotationSpeed(0, 1, 0),
	)
	s := scene.NewScene("cube", cam,
		scene.WithLoader(e.Loader()),
		scene.WithObjects(obj),
		scene.WithDirectionals(light.NewDirectional(light.WithDirection(mgl32.Vec3{0, -1, -0.2}))),
	)
	return s, obj
}

func TestHeadlessEngineUsesSoftwareDevice(t *testing.T) {
	e := headlessEngine(t)
	if _, ok := e.Device().(*software.Device); !ok {
		t.Fatalf("headless device = %T, want *software.Device", e.Device())
	}
	if e.Window() != nil {
		t.Error("headless engine created a window")
	}
	if w, h := e.Device().Size(); w != 64 || h != 64 {
		t.Errorf("device size = %dx%d, want the configured 64x64", w, h)
	}
}

func TestStepRendersActiveScene(t *testing.T) {
	e := headlessEngine(t)
	s, obj := cubeScene(e)
	defer s.Close()
	e.AddScene(0, s)

	if err := e.Loader().Wait(); err != nil {
		t.Fatalf("loader: %v", err)
	}
	if err := e.Step(0.25); err != nil {
		t.Fatalf("Step: %v", err)
	}
	stats := e.Renderer().LastFrameStats()
	if stats.Aborted || stats.GeometryDraws != 1 || stats.DirectionalLights != 1 {
		t.Errorf("stats = %+v, want one drawn object lit by one light", stats)
	}
	if got := obj.Rotation().Y(); got != 0.25 {
		t.Errorf("scene not ticked: rotation %v", got)
	}

	s.SetActive(false)
	if err := e.Step(0.25); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := obj.Rotation().Y(); got != 0.25 {
		t.Errorf("inactive scene was updated: rotation %v", got)
	}
}

func TestStepSkipsFrameWhileLoading(t *testing.T) {
	e := headlessEngine(t)
	cam := camera.NewCamera()
	s := scene.NewScene("pending", cam, scene.WithObjects(
		game_object.NewGameObject(
			game_object.WithStatic(model.NewStatic(model.WithShape(nil, model.NewMesh(model.Cube(1))))),
			game_object.WithPosition(0, 0, -5),
		),
	))
	defer s.Close()
	e.AddScene(0, s)

	// No loader on the scene, so the mesh never becomes usable.
	if err := e.Step(0.1); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !e.Renderer().LastFrameStats().Aborted {
		t.Error("frame with an unloaded mesh was not skipped")
	}
}

func TestActiveSceneLowestKeyWins(t *testing.T) {
	e := headlessEngine(t).(*engine)
	a := scene.NewScene("a", camera.NewCamera())
	b := scene.NewScene("b", camera.NewCamera())
	defer a.Close()
	defer b.Close()

	e.AddScene(5, a)
	e.AddScene(1, b)
	if got := e.activeScene(); got != b {
		t.Errorf("active scene = %v, want b", got.Name())
	}
	b.SetActive(false)
	if got := e.activeScene(); got != a {
		t.Errorf("active scene = %v, want a", got.Name())
	}
	e.RemoveScene(5)
	if e.activeScene() != nil || len(e.Scenes()) != 1 {
		t.Error("removed scene still selected")
	}
}

func TestApplyConfig(t *testing.T) {
	e := headlessEngine(t).(*engine)

	cfg := e.Config()
	cfg.Exposure = 2.5
	cfg.Display = renderer.DisplayAlbedo
	e.applyConfig(cfg)
	if got := e.Config(); got.Exposure != 2.5 || e.Renderer().DisplayType() != renderer.DisplayAlbedo {
		t.Errorf("config not applied: exposure %v display %v", got.Exposure, e.Renderer().DisplayType())
	}

	bad := cfg
	bad.Gamma = -1
	e.applyConfig(bad)
	if e.Config().Gamma != cfg.Gamma {
		t.Error("invalid config replaced the current one")
	}
}

func TestResizeUpdatesCameras(t *testing.T) {
	e := headlessEngine(t).(*engine)
	cam := camera.NewCamera()
	s := scene.NewScene("r", cam)
	defer s.Close()
	e.AddScene(0, s)

	e.pendingResize = &[2]int{0, 0}
	if e.applyResize() {
		t.Error("rendering continued at zero size")
	}
	e.pendingResize = &[2]int{128, 64}
	if !e.applyResize() {
		t.Fatal("resize failed")
	}
	if w, h := e.Device().Size(); w != 128 || h != 64 {
		t.Errorf("device size = %dx%d", w, h)
	}
	if cam.Aspect() != 2 {
		t.Errorf("camera aspect = %v, want 2", cam.Aspect())
	}
}
