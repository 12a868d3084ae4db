package software

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mrjoshuak/go-openexr/exr"
)

func quadTriangles() [][3]clipVertex {
	v := func(x, y float32) clipVertex { return clipVertex{pos: mgl32.Vec4{x, y, 0, 1}} }
	a, b, c, d := v(-1, -1), v(1, -1), v(1, 1), v(-1, 1)
	return [][3]clipVertex{{a, b, c}, {a, c, d}}
}

func TestRasterizerCoversSharedEdgesOnce(t *testing.T) {
	const size = 8
	r := &rasterizer{width: size, height: size, cull: pipeline.CullBack}
	var hits [size * size]int
	for _, tri := range quadTriangles() {
		r.triangle(tri, func(f *fragment) { hits[f.y*size+f.x]++ })
	}
	for i, n := range hits {
		if n != 1 {
			t.Fatalf("pixel (%d,%d) covered %d times", i%size, i/size, n)
		}
	}
}

func TestRasterizerCulling(t *testing.T) {
	tri := quadTriangles()[0]
	reversed := [3]clipVertex{tri[0], tri[2], tri[1]}

	tests := []struct {
		name string
		cull pipeline.CullMode
		tri  [3]clipVertex
		want bool
	}{
		{"front kept by back culling", pipeline.CullBack, tri, true},
		{"back culled by back culling", pipeline.CullBack, reversed, false},
		{"front culled by front culling", pipeline.CullFront, tri, false},
		{"back kept by front culling", pipeline.CullFront, reversed, true},
		{"back kept without culling", pipeline.CullNone, reversed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &rasterizer{width: 4, height: 4, cull: tt.cull}
			got := false
			r.triangle(tt.tri, func(*fragment) { got = true })
			if got != tt.want {
				t.Errorf("rasterized = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRasterizerClipsNearPlane(t *testing.T) {
	// One vertex behind the near plane: only the visible part is rasterized.
	tri := [3]clipVertex{
		{pos: mgl32.Vec4{-1, -1, 0, 1}},
		{pos: mgl32.Vec4{1, -1, 0, 1}},
		{pos: mgl32.Vec4{0, 1, -3, 1}},
	}
	r := &rasterizer{width: 16, height: 16, cull: pipeline.CullNone}
	n := 0
	r.triangle(tri, func(f *fragment) {
		n++
		if f.depth < 0 || f.depth > 1 {
			t.Fatalf("fragment depth %v outside [0,1]", f.depth)
		}
	})
	if n == 0 {
		t.Fatal("clipped triangle produced no fragments")
	}
}

func newTarget(t *testing.T, d *Device, format pipeline.TextureFormat) renderer.AttachmentHandle {
	t.Helper()
	w, h := d.Size()
	a, err := d.CreateAttachment(renderer.AttachmentDescriptor{Label: "target", Width: w, Height: h, Format: format})
	if err != nil {
		t.Fatalf("CreateAttachment: %v", err)
	}
	return a
}

func TestPassRequiresTargetState(t *testing.T) {
	d := New(4, 4)
	color := newTarget(t, d, pipeline.FormatRGBA8Unorm)

	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	d.BeginPass(renderer.PassDescriptor{Label: "bad", Colors: []renderer.ColorAttachment{{Attachment: color}}})
	d.EndPass()
	if err := d.EndFrame(); !errors.Is(err, renderer.ErrInvalidState) {
		t.Fatalf("EndFrame = %v, want ErrInvalidState", err)
	}

	// The error does not leak into the next frame.
	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	d.Transition(color, renderer.StateColorTarget)
	d.BeginPass(renderer.PassDescriptor{Label: "good", Colors: []renderer.ColorAttachment{{Attachment: color}}})
	d.EndPass()
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame = %v", err)
	}
	if p := d.Passes(); len(p) != 1 || p[0].Label != "good" || p[0].Draws != 0 {
		t.Errorf("Passes = %+v", p)
	}
}

func TestSamplingRequiresShaderRead(t *testing.T) {
	d := New(4, 4)
	hdr := newTarget(t, d, pipeline.FormatRGBA16Float)
	_ = d.BeginFrame()
	d.Transition(hdr, renderer.StateColorTarget)
	d.BindAttachments(hdr)
	if err := d.EndFrame(); !errors.Is(err, renderer.ErrInvalidState) {
		t.Fatalf("EndFrame = %v, want ErrInvalidState", err)
	}

	_ = d.BeginFrame()
	d.BindAttachments(renderer.AttachmentHandle(99))
	if err := d.EndFrame(); !errors.Is(err, renderer.ErrUnknownAttachment) {
		t.Fatalf("EndFrame = %v, want ErrUnknownAttachment", err)
	}
}

func TestCompilePipelineFeatures(t *testing.T) {
	d := New(4, 4)
	if _, err := d.CompilePipeline(pipeline.NewDescriptor(pipeline.KindShadow, pipeline.WithDepthClamp(true))); err != nil {
		t.Errorf("depth clamp rejected: %v", err)
	}
	_, err := d.CompilePipeline(pipeline.NewDescriptor(pipeline.KindWireframe, pipeline.WithLineWidth(2)))
	if !errors.Is(err, renderer.ErrUnsupportedFeature) {
		t.Errorf("wide lines: err = %v, want ErrUnsupportedFeature", err)
	}

	wide := New(4, 4, WithFeature(renderer.FeatureWideLines, true))
	if _, err := wide.CompilePipeline(pipeline.NewDescriptor(pipeline.KindWireframe, pipeline.WithLineWidth(2))); err != nil {
		t.Errorf("wide lines with feature enabled: %v", err)
	}
}

func cubeMesh() renderer.MeshData {
	// Only the +Z face, facing a camera on the +Z axis.
	n := mgl32.Vec3{0, 0, 1}
	tan := mgl32.Vec3{1, 0, 0}
	return renderer.MeshData{
		Label: "face",
		Vertices: []renderer.Vertex{
			{Position: mgl32.Vec3{-1, -1, 1}, Normal: n, Tangent: tan, UV: mgl32.Vec2{0, 1}},
			{Position: mgl32.Vec3{1, -1, 1}, Normal: n, Tangent: tan, UV: mgl32.Vec2{1, 1}},
			{Position: mgl32.Vec3{1, 1, 1}, Normal: n, Tangent: tan, UV: mgl32.Vec2{1, 0}},
			{Position: mgl32.Vec3{-1, 1, 1}, Normal: n, Tangent: tan, UV: mgl32.Vec2{0, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestGeometryDrawWritesSurface(t *testing.T) {
	const size = 32
	d := New(size, size)
	targets := []renderer.AttachmentHandle{
		newTarget(t, d, pipeline.FormatRGBA16Float),
		newTarget(t, d, pipeline.FormatRGBA32Float),
		newTarget(t, d, pipeline.FormatRGBA8Unorm),
		newTarget(t, d, pipeline.FormatRGBA8Unorm),
	}
	depth := newTarget(t, d, pipeline.FormatDepth32Float)

	mesh, err := d.UploadMesh(cubeMesh())
	if err != nil {
		t.Fatal(err)
	}
	pl, err := d.CompilePipeline(pipeline.NewDescriptor(pipeline.KindGeometry,
		pipeline.WithColorTargets(pipeline.FormatRGBA16Float, pipeline.FormatRGBA32Float, pipeline.FormatRGBA8Unorm, pipeline.FormatRGBA8Unorm),
		pipeline.WithDepth(pipeline.FormatDepth32Float, pipeline.CompareLess, true),
	))
	if err != nil {
		t.Fatal(err)
	}

	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	world := mgl32.Ident4()

	_ = d.BeginFrame()
	colors := make([]renderer.ColorAttachment, len(targets))
	for i, h := range targets {
		d.Transition(h, renderer.StateColorTarget)
		colors[i] = renderer.ColorAttachment{Attachment: h}
	}
	d.Transition(depth, renderer.StateDepthTarget)
	d.BeginPass(renderer.PassDescriptor{
		Label:  "geometry",
		Colors: colors,
		Depth:  &renderer.DepthAttachment{Attachment: depth, Clear: 1},
	})
	d.SetPipeline(pl)
	d.SetUniforms(renderer.SlotFrame, &renderer.FrameUniforms{View: view, Projection: proj, ViewProjection: proj.Mul4(view)})
	d.SetUniforms(renderer.SlotObject, &renderer.ObjectUniforms{World: world, Normal: world, SpecularExponent: 16})
	d.BindMaterial(renderer.MaterialBinding{})
	d.DrawMesh(mesh)
	d.EndPass()
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}

	n, _ := d.ReadColor(targets[0], size/2, size/2)
	if !n.Vec3().ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-3) || n.W() != 1 {
		t.Errorf("normal+specular = %v", n)
	}
	p, _ := d.ReadColor(targets[1], size/2, size/2)
	if math.Abs(float64(p.Z()-1)) > 1e-3 || p.W() != 16 {
		t.Errorf("position+exponent = %v", p)
	}
	z, _ := d.ReadDepth(depth, size/2, size/2)
	if z <= 0 || z >= 1 {
		t.Errorf("depth = %v", z)
	}
	if bg, _ := d.ReadDepth(depth, 0, 0); bg != 1 {
		t.Errorf("background depth = %v, want 1", bg)
	}
	if passes := d.Passes(); passes[0].Kinds[pipeline.KindGeometry] != 1 {
		t.Errorf("Passes = %+v", passes)
	}
}

func TestToneMapOfEmptyHDRIsBlack(t *testing.T) {
	d := New(2, 2)
	hdr := newTarget(t, d, pipeline.FormatRGBA16Float)
	tone, err := d.CompilePipeline(pipeline.NewDescriptor(pipeline.KindToneMap,
		pipeline.WithColorTargets(pipeline.FormatOutput), pipeline.WithCullMode(pipeline.CullNone)))
	if err != nil {
		t.Fatal(err)
	}

	_ = d.BeginFrame()
	d.Transition(hdr, renderer.StateShaderRead)
	d.Transition(renderer.OutputAttachment, renderer.StateColorTarget)
	d.BeginPass(renderer.PassDescriptor{Label: "tonemap", Colors: []renderer.ColorAttachment{{Attachment: renderer.OutputAttachment}}})
	d.SetPipeline(tone)
	d.SetUniforms(renderer.SlotFrame, &renderer.FrameUniforms{Exposure: 1, Gamma: 2.2})
	d.BindAttachments(hdr)
	d.DrawFullscreen()
	d.EndPass()
	d.Transition(renderer.OutputAttachment, renderer.StatePresent)
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if c := d.OutputImage().RGBAAt(1, 1); c.R != 0 || c.G != 0 || c.B != 0 || c.A != 255 {
		t.Errorf("tone-mapped black = %v", c)
	}
}

func TestSaveEXRKeepsHDRValues(t *testing.T) {
	d := New(3, 2)
	hdr := newTarget(t, d, pipeline.FormatRGBA16Float)
	_ = d.BeginFrame()
	d.Transition(hdr, renderer.StateColorTarget)
	d.BeginPass(renderer.PassDescriptor{
		Label:  "clear",
		Colors: []renderer.ColorAttachment{{Attachment: hdr, Clear: mgl32.Vec4{2.5, 0.5, 0, 1}}},
	})
	d.EndPass()
	if err := d.EndFrame(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "hdr.exr")
	if err := d.SaveEXR(hdr, path); err != nil {
		t.Fatalf("SaveEXR: %v", err)
	}
	img, err := exr.DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("bounds = %v", b)
	}
	r, g, b, a := img.RGBA(2, 1)
	if r != 2.5 || g != 0.5 || b != 0 || a != 1 {
		t.Errorf("pixel = (%v, %v, %v, %v), want (2.5, 0.5, 0, 1)", r, g, b, a)
	}
	if err := d.SaveEXR(renderer.AttachmentHandle(42), path); !errors.Is(err, renderer.ErrUnknownAttachment) {
		t.Errorf("SaveEXR unknown = %v", err)
	}
}
