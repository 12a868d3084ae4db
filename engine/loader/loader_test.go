package loader

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/software"
	"github.com/charmbracelet/log"
)

func quietLoader(device Uploader, options ...LoaderBuilderOption) Loader {
	return NewLoader(device, append([]LoaderBuilderOption{WithLogger(log.New(io.Discard))}, options...)...)
}

// countingUploader wraps a device and counts uploads, optionally holding them until released.
type countingUploader struct {
	Uploader
	meshes   atomic.Int32
	textures atomic.Int32
	gate     chan struct{}
}

func (c *countingUploader) UploadMesh(data renderer.MeshData) (renderer.MeshHandle, error) {
	if c.gate != nil {
		<-c.gate
	}
	c.meshes.Add(1)
	return c.Uploader.UploadMesh(data)
}

func (c *countingUploader) UploadTexture(data renderer.TextureData) (renderer.TextureHandle, error) {
	c.textures.Add(1)
	return c.Uploader.UploadTexture(data)
}

func TestLoadStaticFinalizesShapes(t *testing.T) {
	device := software.New(8, 8)
	l := quietLoader(device)
	defer l.Close()

	diffuse := material.NewTexture("diffuse", common.SolidImage(200, 10, 10, 255))
	mat := material.NewMaterial(material.WithName("red"), material.WithDiffuseTexture(diffuse))
	cube := model.NewMesh(model.Cube(1))
	plane := model.NewMesh(model.Plane(4))
	s := model.NewStatic(
		model.WithName("props"),
		model.WithShape(mat, cube),
		model.WithShape(mat, plane),
	)

	l.LoadStatic(s)
	if err := l.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !cube.IsUsable() || !plane.IsUsable() || !diffuse.IsUsable() {
		t.Fatal("assets not usable after Wait")
	}
	if cube.Handle() == plane.Handle() {
		t.Errorf("meshes share handle %d", cube.Handle())
	}
	if l.Pending() != 0 {
		t.Errorf("Pending = %d after Wait", l.Pending())
	}
	if l.Get("props") != s {
		t.Error("Get did not return the cached model")
	}
	if l.Get("missing") != nil {
		t.Error("Get returned a model for an unknown name")
	}
}

func TestLoadSkipsQueuedAndUsableAssets(t *testing.T) {
	counter := &countingUploader{Uploader: software.New(8, 8), gate: make(chan struct{})}
	l := quietLoader(counter, WithWorkers(2))
	defer l.Close()

	mesh := model.NewMesh(model.Cube(1))
	l.LoadMesh(mesh)
	l.LoadMesh(mesh)
	if got := l.Pending(); got != 1 {
		t.Errorf("Pending = %d while the upload is held, want 1", got)
	}
	close(counter.gate)
	if err := l.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	l.LoadMesh(mesh)
	if err := l.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := counter.meshes.Load(); got != 1 {
		t.Errorf("mesh uploaded %d times, want 1", got)
	}

	shared := material.NewTexture("shared", common.SolidImage(1, 2, 3, 255))
	a := material.NewMaterial(material.WithDiffuseTexture(shared), material.WithSpecularTexture(shared))
	l.LoadMaterial(a)
	l.LoadMaterial(a)
	if err := l.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := counter.textures.Load(); got != 1 {
		t.Errorf("texture uploaded %d times, want 1", got)
	}
}

func TestUploadFailureIsReported(t *testing.T) {
	l := quietLoader(software.New(8, 8))
	defer l.Close()

	bad := model.NewMesh(renderer.MeshData{
		Label:    "broken",
		Vertices: make([]renderer.Vertex, 3),
		Indices:  []uint32{0, 1, 5},
	})
	good := model.NewMesh(model.Cube(1))
	s := model.NewStatic(model.WithShape(nil, bad), model.WithShape(nil, good))

	l.LoadStatic(s)
	err := l.Wait()
	if err == nil || !strings.Contains(err.Error(), `"broken"`) {
		t.Fatalf("Wait = %v, want an error naming the broken mesh", err)
	}
	if bad.IsUsable() {
		t.Error("failed mesh became usable")
	}
	if !good.IsUsable() {
		t.Error("healthy mesh was not uploaded")
	}
	if err := l.Wait(); err != nil {
		t.Errorf("second Wait = %v, want failures cleared", err)
	}

	// The failed mesh is no longer queued and can be retried.
	l.LoadMesh(bad)
	if err := l.Wait(); err == nil {
		t.Error("retrying the broken mesh succeeded")
	}
}

func TestLoadAnimatedUploadsEveryKeyframe(t *testing.T) {
	l := quietLoader(software.New(8, 8))
	defer l.Close()

	var frames []*model.Mesh
	for _, d := range model.MorphKeyframes(model.UVSphere(6, 8), 4, 0.2) {
		frames = append(frames, model.NewMesh(d))
	}
	a, err := model.NewAnimated(frames, model.WithAnimatedName("blob"))
	if err != nil {
		t.Fatalf("NewAnimated: %v", err)
	}

	l.LoadAnimated(a)
	if err := l.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	for i, f := range frames {
		if !f.IsUsable() {
			t.Errorf("keyframe %d not usable", i)
		}
	}
	if l.GetAnimated("blob") != a {
		t.Error("GetAnimated did not return the cached model")
	}
}

func TestReleaseMakesAssetsUnusable(t *testing.T) {
	l := quietLoader(software.New(8, 8))
	defer l.Close()

	mesh := model.NewMesh(model.Cube(1))
	tex := material.NewTexture("t", common.SolidImage(0, 0, 0, 255))
	l.LoadMesh(mesh)
	l.LoadTexture(tex)
	if err := l.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	l.ReleaseMesh(mesh)
	l.ReleaseTexture(tex)
	if mesh.IsUsable() || tex.IsUsable() {
		t.Fatal("assets usable after release")
	}
	if mesh.Handle() != 0 || tex.Handle() != renderer.NoTexture {
		t.Errorf("handles after release = %d, %d", mesh.Handle(), tex.Handle())
	}

	// Releasing twice is harmless.
	l.ReleaseMesh(mesh)
	l.ReleaseTexture(tex)
}

func TestConcurrentLoadsAndClose(t *testing.T) {
	l := quietLoader(software.New(8, 8), WithWorkers(3), WithQueueSize(4))

	meshes := make([]*model.Mesh, 32)
	for i := range meshes {
		meshes[i] = model.NewMesh(model.Cube(float32(i + 1)))
	}
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, m := range meshes {
				l.LoadMesh(m)
			}
		}()
	}
	wg.Wait()
	l.Close()

	for i, m := range meshes {
		if !m.IsUsable() {
			t.Errorf("mesh %d not usable after Close", i)
		}
	}

	late := model.NewMesh(model.Cube(1))
	l.LoadMesh(late)
	if late.IsUsable() || l.Pending() != 0 {
		t.Error("load after Close was queued")
	}
	l.Close()
}
