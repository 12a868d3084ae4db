package model

import (
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// quadFace describes a cube face by its outward normal and an in-plane basis with u × v = normal.
type quadFace struct {
	normal, u, v mgl32.Vec3
}

var cubeFaces = [6]quadFace{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// appendQuad appends a counter-clockwise quad centred on center.
func appendQuad(data *renderer.MeshData, center mgl32.Vec3, f quadFace, halfU, halfV float32) {
	base := uint32(len(data.Vertices))
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	uvs := [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	for i, c := range corners {
		p := center.Add(f.u.Mul(c[0] * halfU)).Add(f.v.Mul(c[1] * halfV))
		data.Vertices = append(data.Vertices, renderer.Vertex{
			Position: p,
			Normal:   f.normal,
			Tangent:  f.u,
			UV:       uvs[i],
		})
	}
	data.Indices = append(data.Indices, base, base+1, base+2, base, base+2, base+3)
}

// Cube returns an axis-aligned cube of edge length size centred on the origin.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - renderer.MeshData: 24 vertices and 36 indices with per-face normals
func Cube(size float32) renderer.MeshData {
	h := size / 2
	data := renderer.MeshData{Label: "cube"}
	for _, f := range cubeFaces {
		appendQuad(&data, f.normal.Mul(h), f, h, h)
	}
	return data
}

// Plane returns a square in the XZ plane facing +Y.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - renderer.MeshData: one quad
func Plane(size float32) renderer.MeshData {
	data := renderer.MeshData{Label: "plane"}
	appendQuad(&data, mgl32.Vec3{}, cubeFaces[2], size/2, size/2)
	return data
}

// UVSphere returns a unit sphere tessellated into rings and segments. Faces wind
// counter-clockwise seen from outside. Point light volumes are drawn with it.
//
// Parameters:
//   - rings: latitude bands, at least 2
//   - segments: longitude bands, at least 3
//
// Returns:
//   - renderer.MeshData: the sphere geometry
func UVSphere(rings, segments int) renderer.MeshData {
	rings = max(rings, 2)
	segments = max(segments, 3)
	data := renderer.MeshData{Label: "sphere"}
	for i := 0; i <= rings; i++ {
		phi := math.Pi * float64(i) / float64(rings)
		for j := 0; j <= segments; j++ {
			theta := 2 * math.Pi * float64(j) / float64(segments)
			p := mgl32.Vec3{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			data.Vertices = append(data.Vertices, renderer.Vertex{
				Position: p,
				Normal:   p,
				Tangent:  mgl32.Vec3{float32(-math.Sin(theta)), 0, float32(math.Cos(theta))},
				UV:       mgl32.Vec2{float32(j) / float32(segments), float32(i) / float32(rings)},
			})
		}
	}
	stride := uint32(segments + 1)
	for i := 0; i < rings; i++ {
		for j := 0; j < segments; j++ {
			a := uint32(i)*stride + uint32(j)
			b := a + stride
			data.Indices = append(data.Indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return data
}

// MorphKeyframes derives keyframes from a base mesh by pushing vertices along their
// normals with a travelling wave. All keyframes share the base topology.
//
// Parameters:
//   - base: the rest pose
//   - frames: the number of keyframes
//   - amplitude: the peak displacement
//
// Returns:
//   - []renderer.MeshData: the keyframes
func MorphKeyframes(base renderer.MeshData, frames int, amplitude float32) []renderer.MeshData {
	out := make([]renderer.MeshData, frames)
	for k := range out {
		phase := 2 * math.Pi * float64(k) / float64(frames)
		verts := make([]renderer.Vertex, len(base.Vertices))
		for i, v := range base.Vertices {
			offset := amplitude * float32(math.Sin(phase+float64(v.Position.Y())*math.Pi))
			v.Position = v.Position.Add(v.Normal.Mul(offset))
			verts[i] = v
		}
		out[k] = renderer.MeshData{Label: base.Label, Vertices: verts, Indices: base.Indices}
	}
	return out
}
