package model

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/google/uuid"
)

// Mesh is indexed triangle geometry with its object-space bounds. It becomes usable
// once the loader has uploaded it and published the device handle.
type Mesh struct {
	id     uuid.UUID
	data   renderer.MeshData
	bounds common.AABB
	handle atomic.Uint32
	usable atomic.Bool
}

// NewMesh wraps geometry in a Mesh that is not yet usable.
//
// Parameters:
//   - data: the vertices and triangle indices
//
// Returns:
//   - *Mesh: the new mesh with bounds computed from its vertices
func NewMesh(data renderer.MeshData) *Mesh {
	bounds := common.EmptyAABB()
	for _, v := range data.Vertices {
		bounds = bounds.Extend(v.Position)
	}
	return &Mesh{id: uuid.New(), data: data, bounds: bounds}
}

// ID returns the mesh's unique identifier.
func (m *Mesh) ID() uuid.UUID {
	return m.id
}

// Label returns the debug name.
func (m *Mesh) Label() string {
	return m.data.Label
}

// Data returns the CPU-side geometry.
func (m *Mesh) Data() renderer.MeshData {
	return m.data
}

// Bounds returns the object-space bounding box.
func (m *Mesh) Bounds() common.AABB {
	return m.bounds
}

// Handle returns the device handle; zero until the mesh is usable.
func (m *Mesh) Handle() renderer.MeshHandle {
	if !m.usable.Load() {
		return 0
	}
	return renderer.MeshHandle(m.handle.Load())
}

// IsUsable reports whether the mesh has been uploaded.
func (m *Mesh) IsUsable() bool {
	return m.usable.Load()
}

// MarkUploaded publishes the device handle and makes the mesh usable.
func (m *Mesh) MarkUploaded(h renderer.MeshHandle) {
	m.handle.Store(uint32(h))
	m.usable.Store(true)
}

// MarkReleased makes the mesh unusable and returns the handle to free.
func (m *Mesh) MarkReleased() renderer.MeshHandle {
	m.usable.Store(false)
	return renderer.MeshHandle(m.handle.Swap(0))
}
