package deferred

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shading"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/software"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
)

const testSize = 64

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestRenderer(t *testing.T, dev *software.Device, opts ...RendererBuilderOption) *deferredRenderer {
	t.Helper()
	if dev == nil {
		dev = software.New(testSize, testSize, software.WithLogger(quietLogger()))
	}
	opts = append([]RendererBuilderOption{WithLogger(quietLogger()), WithShadowResolution(256)}, opts...)
	r, err := New(dev, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(r.Release)
	return r.(*deferredRenderer)
}

func testCamera() camera.Camera {
	return camera.NewCamera(
		camera.WithFov(math.Pi/3),
		camera.WithAspect(1),
		camera.WithClipPlanes(0.1, 1000),
	)
}

func uploadMesh(t *testing.T, dev renderer.Device, data renderer.MeshData) *model.Mesh {
	t.Helper()
	mesh := model.NewMesh(data)
	h, err := dev.UploadMesh(mesh.Data())
	if err != nil {
		t.Fatalf("UploadMesh: %v", err)
	}
	mesh.MarkUploaded(h)
	return mesh
}

func cubeAt(t *testing.T, dev renderer.Device, center mgl32.Vec3, mat material.Material) model.Static {
	t.Helper()
	if mat == nil {
		mat = material.NewMaterial()
	}
	return model.NewStatic(
		model.WithName("cube"),
		model.WithShape(mat, uploadMesh(t, dev, model.Cube(2))),
		model.WithWorld(mgl32.Translate3D(center.X(), center.Y(), center.Z())),
	)
}

func sun() light.Directional {
	return light.NewDirectional(
		light.WithDirection(mgl32.Vec3{0.2, -1, 0.1}),
		light.WithDirectionalColors(mgl32.Vec3{0.1, 0.1, 0.1}, mgl32.Vec3{0.8, 0.8, 0.8}, mgl32.Vec3{0.5, 0.5, 0.5}),
		light.WithCastsShadows(true),
	)
}

func lamp(position mgl32.Vec3) light.Point {
	return light.NewPoint(
		light.WithPosition(position),
		light.WithAttenuation(1, 0.09, 0.032),
		light.WithPointColors(mgl32.Vec3{0.05, 0.05, 0.05}, mgl32.Vec3{1, 0.9, 0.8}, mgl32.Vec3{1, 1, 1}),
	)
}

// smallLamp reaches about five units, so it stays outside the volume test for a camera at the origin.
func smallLamp(position mgl32.Vec3) light.Point {
	return light.NewPoint(
		light.WithPosition(position),
		light.WithAttenuation(1, 0.7, 1.8),
		light.WithPointColors(mgl32.Vec3{0.05, 0.05, 0.05}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}),
	)
}

func passLabels(dev *software.Device) []string {
	var labels []string
	for _, p := range dev.Passes() {
		labels = append(labels, p.Label)
	}
	return labels
}

func equalLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRenderEmptyQueue(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	if err := r.Render(testCamera()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := []string{"geometry", "lighting-clear", "tonemap"}
	if got := passLabels(dev); !equalLabels(got, want) {
		t.Errorf("passes = %v, want %v", got, want)
	}
	c, err := dev.ReadColor(renderer.OutputAttachment, testSize/2, testSize/2)
	if err != nil {
		t.Fatal(err)
	}
	if c.Vec3() != (mgl32.Vec3{}) {
		t.Errorf("output = %v, want black", c)
	}
	if state, _ := dev.AttachmentState(renderer.OutputAttachment); state != renderer.StatePresent {
		t.Errorf("output state = %v, want present", state)
	}
}

func TestRenderPassOrder(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, nil))
	r.AddDirectional(sun())
	r.AddPoint(smallLamp(mgl32.Vec3{0, 3, -8}))
	if err := r.Render(testCamera()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []string{
		"geometry", "lighting-clear",
		"shadow-cascade-0", "shadow-cascade-1", "shadow-cascade-2",
		"lighting-directional", "lighting-point", "tonemap",
	}
	if got := passLabels(dev); !equalLabels(got, want) {
		t.Fatalf("passes = %v, want %v", got, want)
	}

	stats := r.LastFrameStats()
	if stats.GeometryDraws != 1 || stats.ShadowDraws != light.CascadeCount {
		t.Errorf("draws = %d geometry, %d shadow; want 1, %d", stats.GeometryDraws, stats.ShadowDraws, light.CascadeCount)
	}
	if stats.DirectionalLights != 1 || stats.PointLights != 1 {
		t.Errorf("lights = %d directional, %d point; want 1, 1", stats.DirectionalLights, stats.PointLights)
	}
	for _, p := range dev.Passes() {
		if p.Label == "lighting-point" && p.Kinds[pipeline.KindPointLight] != 1 {
			t.Errorf("point pass kinds = %v, want one outside-volume draw", p.Kinds)
		}
	}
}

func TestCulledObjectIssuesNoGeometryDraws(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, 10}, nil))
	if err := r.Render(testCamera()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	stats := r.LastFrameStats()
	if stats.GeometryDraws != 0 || stats.ObjectsCulled != 1 {
		t.Errorf("stats = %+v, want no draws and one culled object", stats)
	}
	if p := dev.Passes()[0]; p.Label != "geometry" || p.Draws != 0 {
		t.Errorf("geometry pass = %+v, want zero draws", p)
	}
}

func TestInvisibleMaterialIsSkipped(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, material.NewMaterial(material.WithVisible(false))))
	r.AddDirectional(sun())
	if err := r.Render(testCamera()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if stats := r.LastFrameStats(); stats.GeometryDraws != 0 || stats.ShadowDraws != 0 {
		t.Errorf("stats = %+v, want hidden cube skipped everywhere", stats)
	}
}

func TestQueueIsEmptiedAfterRender(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)
	cam := testCamera()

	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, nil))
	r.AddPoint(lamp(mgl32.Vec3{0, 3, -8}))
	if err := r.Render(cam); err != nil {
		t.Fatalf("first Render: %v", err)
	}
	if r.LastFrameStats().GeometryDraws != 1 {
		t.Fatalf("first frame drew %d objects, want 1", r.LastFrameStats().GeometryDraws)
	}

	if err := r.Render(cam); err != nil {
		t.Fatalf("second Render: %v", err)
	}
	stats := r.LastFrameStats()
	if stats.GeometryDraws != 0 || stats.PointLights != 0 {
		t.Errorf("second frame stats = %+v, want an empty frame", stats)
	}
	if !r.queue.empty() {
		t.Error("queue not empty after Render")
	}
}

func TestFrameAbortsWhileResourcesLoad(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)
	cam := testCamera()

	pending := model.NewStatic(model.WithShape(material.NewMaterial(), model.NewMesh(model.Cube(2))))
	r.AddStatic(pending)
	r.AddDirectional(sun())
	frames := dev.Frames()

	if err := r.Render(cam); err != nil {
		t.Fatalf("Render returned %v for a loading resource", err)
	}
	if !r.LastFrameStats().Aborted {
		t.Error("frame not marked aborted")
	}
	if dev.Frames() != frames {
		t.Errorf("aborted frame was submitted")
	}
	if !r.queue.empty() {
		t.Error("queue not cleared by aborted frame")
	}

	if err := r.Render(cam); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r.LastFrameStats().Aborted || dev.Frames() != frames+1 {
		t.Error("frame after abort was not drawn")
	}
}

func TestUnusableTextureAbortsFrame(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	tex := material.NewTexture("pending", common.SolidImage(255, 0, 0, 255))
	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, material.NewMaterial(material.WithDiffuseTexture(tex))))
	if err := r.Render(testCamera()); err != nil {
		t.Fatal(err)
	}
	if !r.LastFrameStats().Aborted {
		t.Error("frame with a pending texture was not aborted")
	}
}

func TestLightingModeUsesOverrideMaterial(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	pending := material.NewMaterial(material.WithDiffuseTexture(material.NewTexture("pending", common.SolidImage(0, 0, 255, 255))))
	r := newTestRenderer(t, dev, WithOverrideMaterial(pending))
	cam := testCamera()

	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, nil))
	if err := r.Render(cam); err != nil {
		t.Fatal(err)
	}
	if r.LastFrameStats().Aborted {
		t.Fatal("normal display must not depend on the override material")
	}

	r.SetDisplayType(renderer.DisplayLighting)
	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, nil))
	if err := r.Render(cam); err != nil {
		t.Fatal(err)
	}
	if !r.LastFrameStats().Aborted {
		t.Error("lighting display drew with a pending override material")
	}
}

func TestLightingModeReplacesMaterials(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev, WithDisplayType(renderer.DisplayLighting))

	red := material.NewTexture("red", common.SolidImage(255, 0, 0, 255))
	h, err := dev.UploadTexture(red.Data())
	if err != nil {
		t.Fatal(err)
	}
	red.MarkUploaded(h)

	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, material.NewMaterial(material.WithDiffuseTexture(red))))
	if err := r.Render(testCamera()); err != nil {
		t.Fatal(err)
	}
	c, err := dev.ReadColor(r.gbuf.diffuse(), testSize/2, testSize/2)
	if err != nil {
		t.Fatal(err)
	}
	if c.Vec3() != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("gbuffer diffuse = %v, want the white override", c)
	}
}

func TestHDRIsNonNegative(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, nil))
	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{2.5, -1, -12}, nil))
	r.AddDirectional(sun())
	r.AddPoint(lamp(mgl32.Vec3{0, 3, -8}))
	r.AddPoint(lamp(mgl32.Vec3{0, 0, -1}))
	if err := r.Render(testCamera()); err != nil {
		t.Fatal(err)
	}

	lit := false
	for y := 0; y < testSize; y++ {
		for x := 0; x < testSize; x++ {
			c, err := dev.ReadColor(r.hdr.target, x, y)
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 3; i++ {
				if c[i] < 0 || math.IsNaN(float64(c[i])) {
					t.Fatalf("hdr (%d,%d) = %v", x, y, c)
				}
				if c[i] > 0 {
					lit = true
				}
			}
		}
	}
	if !lit {
		t.Error("no light was accumulated")
	}
}

func TestCameraInsidePointLightVolume(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, nil))
	r.AddPoint(lamp(mgl32.Vec3{0, 0, -1}))
	if err := r.Render(testCamera()); err != nil {
		t.Fatal(err)
	}
	for _, p := range dev.Passes() {
		if p.Label == "lighting-point" && p.Kinds[pipeline.KindPointLightInside] != 1 {
			t.Errorf("point pass kinds = %v, want the inside-volume pipeline", p.Kinds)
		}
	}
	c, err := dev.ReadColor(r.hdr.target, testSize/2, testSize/2)
	if err != nil {
		t.Fatal(err)
	}
	if c.X() <= 0 {
		t.Errorf("cube face not lit from inside the light volume: %v", c)
	}
}

func TestPointLightOutsideFrustumIsCulled(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	r.AddPoint(light.NewPoint(
		light.WithPosition(mgl32.Vec3{0, 0, 50}),
		light.WithAttenuation(1, 0.7, 1.8),
	))
	if err := r.Render(testCamera()); err != nil {
		t.Fatal(err)
	}
	stats := r.LastFrameStats()
	if stats.LightsCulled != 1 || stats.PointLights != 0 {
		t.Errorf("stats = %+v, want the light culled", stats)
	}
}

func TestCubeShadowCascadeEndToEnd(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev, WithCascadeLambda(0.5))
	cam := testCamera()

	cube := cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, nil)
	r.AddStatic(cube)
	r.AddDirectional(sun())
	if err := r.Render(cam); err != nil {
		t.Fatal(err)
	}

	sets := r.Cascades()
	if len(sets) != 1 {
		t.Fatalf("got %d cascade sets, want 1", len(sets))
	}
	set := sets[0]
	if !approx(set.Ends[0], 0.1, 1e-5) || !approx(set.Ends[light.CascadeCount], 11, 1e-3) {
		t.Errorf("ends = %v, want 0.1 to 11", set.Ends)
	}

	view := cam.ViewMatrix()
	if got := set.Cascade(common.ViewDepth(view, mgl32.Vec3{0, 0, -10})); got != 2 {
		t.Errorf("cube centre in cascade %d, want 2", got)
	}
	for _, corner := range cube.Bounds().Corners() {
		if got := set.Cascade(common.ViewDepth(view, corner)); got != 2 {
			t.Errorf("cube corner %v in cascade %d, want every corner in cascade 2", corner, got)
		}
	}

	sample := func(u, v float32) float32 {
		d, err := dev.SampleDepth(r.cascades.maps[2], u, v)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	texel := float32(1) / 256
	l := sun().Direction().Mul(-1)

	top := mgl32.Vec3{0, 1, -10}
	u, v, depth := shading.ShadowCoord(set.ViewProjection[2], top)
	bias := shading.ShadowBias(mgl32.Vec3{0, 1, 0}.Dot(l))
	if vis := shading.PCF(sample, u, v, depth, bias, texel); vis != 1 {
		t.Errorf("top face visibility = %v, want 1", vis)
	}

	below := mgl32.Vec3{0, -1, -10}.Add(sun().Direction().Mul(10))
	u, v, depth = shading.ShadowCoord(set.ViewProjection[2], below)
	if vis := shading.PCF(sample, u, v, depth, light.MinShadowBias, texel); vis != 0 {
		t.Errorf("visibility under the cube = %v, want 0", vis)
	}
}

func TestNonCastingLightClearsCascades(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, nil))
	r.AddDirectional(light.NewDirectional(light.WithDirection(mgl32.Vec3{0, -1, 0}), light.WithCastsShadows(false)))
	if err := r.Render(testCamera()); err != nil {
		t.Fatal(err)
	}
	if got := r.LastFrameStats().ShadowDraws; got != 0 {
		t.Errorf("shadow draws = %d, want 0", got)
	}
	cascades := 0
	for _, p := range dev.Passes() {
		if p.Label == "shadow-cascade-0" || p.Label == "shadow-cascade-1" || p.Label == "shadow-cascade-2" {
			cascades++
		}
	}
	if cascades != light.CascadeCount {
		t.Errorf("rendered %d cascades, want %d", cascades, light.CascadeCount)
	}
	d, err := dev.ReadDepth(r.cascades.maps[0], 128, 128)
	if err != nil {
		t.Fatal(err)
	}
	if d != 1 {
		t.Errorf("cascade depth = %v, want cleared to 1", d)
	}
}

func TestAnimatedDrawableUsesMorphPipeline(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	var frames []*model.Mesh
	for _, data := range model.MorphKeyframes(model.Cube(2), 4, 0.1) {
		frames = append(frames, uploadMesh(t, dev, data))
	}
	a, err := model.NewAnimated(frames, model.WithAnimatedWorld(mgl32.Translate3D(0, 0, -10)))
	if err != nil {
		t.Fatal(err)
	}
	a.Update(0.15)

	r.AddAnimated(a)
	r.AddDirectional(sun())
	if err := r.Render(testCamera()); err != nil {
		t.Fatal(err)
	}
	geometry := dev.Passes()[0]
	if geometry.Kinds[pipeline.KindGeometryMorph] != 1 {
		t.Errorf("geometry kinds = %v, want one morph draw", geometry.Kinds)
	}
	if got := r.LastFrameStats().ShadowDraws; got != light.CascadeCount {
		t.Errorf("shadow draws = %d, want %d", got, light.CascadeCount)
	}
}

func TestDebugDisplays(t *testing.T) {
	tests := []struct {
		display renderer.DisplayType
		label   string
		want    *mgl32.Vec3
	}{
		{renderer.DisplayWireframe, "debug-wireframe", nil},
		{renderer.DisplayWorldNormals, "debug-world-normals", &mgl32.Vec3{0.5, 0.5, 1}},
		{renderer.DisplayAlbedo, "debug-albedo", &mgl32.Vec3{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.display.String(), func(t *testing.T) {
			dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
			r := newTestRenderer(t, dev, WithDisplayType(tt.display))

			r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, nil))
			r.AddDirectional(sun())
			if err := r.Render(testCamera()); err != nil {
				t.Fatal(err)
			}
			wantPasses := []string{"geometry", tt.label}
			if got := passLabels(dev); !equalLabels(got, wantPasses) {
				t.Fatalf("passes = %v, want %v", got, wantPasses)
			}

			center, err := dev.ReadColor(renderer.OutputAttachment, testSize/2, testSize/2)
			if err != nil {
				t.Fatal(err)
			}
			corner, err := dev.ReadColor(renderer.OutputAttachment, 0, 0)
			if err != nil {
				t.Fatal(err)
			}
			if corner.Vec3() != (mgl32.Vec3{}) {
				t.Errorf("background = %v, want black", corner)
			}
			if tt.want != nil {
				for i := 0; i < 3; i++ {
					if !approx(center[i], tt.want[i], 1.0/255) {
						t.Errorf("centre = %v, want %v", center, *tt.want)
						break
					}
				}
			}
			if tt.display == renderer.DisplayWireframe && r.LastFrameStats().WireframeDraws != 1 {
				t.Errorf("wireframe draws = %d, want 1", r.LastFrameStats().WireframeDraws)
			}
		})
	}
}

func TestFeatureToggles(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	if r.SetWideLines(true) {
		t.Error("wide lines enabled on a device without them")
	}
	if r.pipelines.descriptor(pipeline.KindWireframe).LineWidth != 1 {
		t.Error("wireframe line width changed after a rejected toggle")
	}

	if !r.SetDepthClamp(true) {
		t.Fatal("depth clamp rejected on a device that supports it")
	}
	if !r.pipelines.descriptor(pipeline.KindShadow).DepthClamp || !r.pipelines.usable(pipeline.KindShadow) {
		t.Error("shadow pipeline not rebuilt with depth clamp")
	}
	if !r.SetDepthClamp(false) || r.pipelines.descriptor(pipeline.KindShadowMorph).DepthClamp {
		t.Error("depth clamp not disabled")
	}

	limited := software.New(testSize, testSize,
		software.WithLogger(quietLogger()),
		software.WithFeature(renderer.FeatureDepthClamp, false),
		software.WithFeature(renderer.FeatureWideLines, true),
	)
	lr := newTestRenderer(t, limited, WithDepthClamp(true))
	if lr.depthClamp {
		t.Error("unsupported depth clamp kept from builder option")
	}
	if lr.SetDepthClamp(true) {
		t.Error("depth clamp enabled on a device without it")
	}
	if !lr.SetWideLines(true) || lr.pipelines.descriptor(pipeline.KindWireframeMorph).LineWidth != WideLineWidth {
		t.Error("wide lines not applied")
	}
}

func TestResize(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	if err := r.Resize(0, 10); err == nil {
		t.Error("Resize accepted a zero width")
	}
	if err := r.Resize(32, 16); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := dev.Size(); w != 32 || h != 16 {
		t.Errorf("device size = %dx%d, want 32x16", w, h)
	}

	r.AddStatic(cubeAt(t, dev, mgl32.Vec3{0, 0, -10}, nil))
	r.AddDirectional(sun())
	if err := r.Render(testCamera()); err != nil {
		t.Fatalf("Render after resize: %v", err)
	}
}

func TestTunables(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	r := newTestRenderer(t, dev)

	if err := r.SetExposure(0); err == nil {
		t.Error("SetExposure accepted 0")
	}
	if err := r.SetGamma(-1); err == nil {
		t.Error("SetGamma accepted a negative gamma")
	}
	if err := r.SetCascadeLambda(1.5); err == nil {
		t.Error("SetCascadeLambda accepted 1.5")
	}
	if err := r.SetLightOffset(0); err == nil {
		t.Error("SetLightOffset accepted 0")
	}
	if err := r.SetExposure(2); err != nil || r.exposure != 2 {
		t.Errorf("SetExposure(2) = %v, exposure %v", err, r.exposure)
	}

	cfg := renderer.DefaultConfig()
	cfg.Gamma = 1.8
	cfg.ShadowResolution = 128
	cfg.Display = renderer.DisplayShadows
	if err := r.ApplyConfig(cfg); err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	if r.gamma != 1.8 || r.cascades.resolution != 128 || r.DisplayType() != renderer.DisplayShadows {
		t.Errorf("config not applied: gamma %v, shadow resolution %d, display %v", r.gamma, r.cascades.resolution, r.DisplayType())
	}

	cfg.Exposure = -1
	if err := r.ApplyConfig(cfg); err == nil {
		t.Error("ApplyConfig accepted a negative exposure")
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	dev := software.New(testSize, testSize, software.WithLogger(quietLogger()))
	if _, err := New(dev, WithLogger(quietLogger()), WithCascadeLambda(2)); err == nil {
		t.Error("New accepted a cascade lambda of 2")
	}
}

type failingDevice struct {
	*software.Device
}

var errCompile = errors.New("compiler crashed")

func (failingDevice) CompilePipeline(pipeline.Descriptor) (pipeline.Native, error) {
	return nil, errCompile
}

func TestNewWrapsPipelineFailure(t *testing.T) {
	dev := failingDevice{software.New(testSize, testSize, software.WithLogger(quietLogger()))}
	_, err := New(dev, WithLogger(quietLogger()))
	if !errors.Is(err, errCompile) {
		t.Errorf("New error = %v, want wrapped compile failure", err)
	}
}
