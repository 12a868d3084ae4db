package material

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/google/uuid"
)

// Texture is a sampled image owned by the asset layer. It becomes usable once the loader
// has uploaded it and published its device handle.
type Texture struct {
	id     uuid.UUID
	label  string
	image  common.ImageData
	handle atomic.Uint32
	usable atomic.Bool
}

// NewTexture wraps decoded pixels in a Texture that is not yet usable.
//
// Parameters:
//   - label: a debug name
//   - image: the RGBA8 pixels
//
// Returns:
//   - *Texture: the new texture
func NewTexture(label string, image common.ImageData) *Texture {
	return &Texture{id: uuid.New(), label: label, image: image}
}

// ID returns the texture's unique identifier.
func (t *Texture) ID() uuid.UUID {
	return t.id
}

// Label returns the debug name.
func (t *Texture) Label() string {
	return t.label
}

// Data returns the upload payload for the texture.
func (t *Texture) Data() renderer.TextureData {
	return renderer.TextureData{Label: t.label, Image: t.image}
}

// Handle returns the device handle, NoTexture until the texture is usable.
func (t *Texture) Handle() renderer.TextureHandle {
	if !t.usable.Load() {
		return renderer.NoTexture
	}
	return renderer.TextureHandle(t.handle.Load())
}

// IsUsable reports whether the texture has been uploaded.
func (t *Texture) IsUsable() bool {
	return t.usable.Load()
}

// MarkUploaded publishes the device handle and makes the texture usable.
// Safe to call from a loader goroutine while a frame is being recorded.
func (t *Texture) MarkUploaded(h renderer.TextureHandle) {
	t.handle.Store(uint32(h))
	t.usable.Store(true)
}

// MarkReleased makes the texture unusable again, e.g. before its device is torn down.
func (t *Texture) MarkReleased() renderer.TextureHandle {
	t.usable.Store(false)
	return renderer.TextureHandle(t.handle.Swap(0))
}
