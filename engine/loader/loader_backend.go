package loader

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Uploader is the part of a renderer.Device the loader copies assets through. Both
// upload methods must be safe to call from worker goroutines.
type Uploader interface {
	UploadMesh(data renderer.MeshData) (renderer.MeshHandle, error)
	ReleaseMesh(h renderer.MeshHandle)
	UploadTexture(data renderer.TextureData) (renderer.TextureHandle, error)
	ReleaseTexture(h renderer.TextureHandle)
}

var _ Uploader = renderer.Device(nil)

// assetKind identifies what an upload task carries.
type assetKind int

const (
	assetMesh assetKind = iota
	assetTexture
)

func (k assetKind) String() string {
	switch k {
	case assetMesh:
		return "mesh"
	case assetTexture:
		return "texture"
	default:
		return "unknown"
	}
}
