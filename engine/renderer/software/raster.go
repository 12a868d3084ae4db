package software

import (
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// maxVaryings is the number of interpolated floats a vertex program may output.
const maxVaryings = 12

// clipVertex is a vertex program result: a GL-style clip position (z in [-w, w]) and
// the values to interpolate across the triangle.
type clipVertex struct {
	pos  mgl32.Vec4
	vary [maxVaryings]float32
}

// fragment is one covered pixel handed to a fragment program.
type fragment struct {
	x, y  int
	depth float32
	vary  [maxVaryings]float32
	// fwidth holds |ddx| + |ddy| of each varying, filled when the program asks for it.
	fwidth [maxVaryings]float32
}

// screenVertex is a clipped vertex after the perspective divide and viewport transform.
type screenVertex struct {
	x, y, z float32
	invW    float32
	vary    [maxVaryings]float32
}

// rasterizer converts clip-space triangles to fragments. Front faces are counter-clockwise
// in normalized device coordinates. Pixels are sampled at their centres and shared edges
// are owned by exactly one triangle.
type rasterizer struct {
	width       int
	height      int
	cull        pipeline.CullMode
	depthClamp  bool
	depthBias   float32
	slopeScale  float32
	varyings    int
	derivatives bool
}

func (r *rasterizer) triangle(tri [3]clipVertex, emit func(*fragment)) {
	poly := r.clipNear(tri[:])
	if len(poly) < 3 {
		return
	}
	screen := make([]screenVertex, len(poly))
	for i, v := range poly {
		screen[i] = r.project(v)
	}
	for i := 1; i+1 < len(screen); i++ {
		r.fill(screen[0], screen[i], screen[i+1], emit)
	}
}

// clipNear clips against the near plane (z >= -w), or only against w > 0 when depth
// clamping replaces near and far clipping.
func (r *rasterizer) clipNear(in []clipVertex) []clipVertex {
	dist := func(v clipVertex) float32 {
		if r.depthClamp {
			return v.pos.W() - 1e-5
		}
		return v.pos.Z() + v.pos.W()
	}
	out := make([]clipVertex, 0, 4)
	for i := range in {
		a, b := in[i], in[(i+1)%len(in)]
		da, db := dist(a), dist(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			var v clipVertex
			v.pos = a.pos.Add(b.pos.Sub(a.pos).Mul(t))
			for k := 0; k < r.varyings; k++ {
				v.vary[k] = a.vary[k] + (b.vary[k]-a.vary[k])*t
			}
			out = append(out, v)
		}
	}
	return out
}

func (r *rasterizer) project(v clipVertex) screenVertex {
	invW := 1 / v.pos.W()
	ndcX := v.pos.X() * invW
	ndcY := v.pos.Y() * invW
	ndcZ := v.pos.Z() * invW
	return screenVertex{
		x:    (ndcX*0.5 + 0.5) * float32(r.width),
		y:    (0.5 - ndcY*0.5) * float32(r.height),
		z:    ndcZ*0.5 + 0.5,
		invW: invW,
		vary: v.vary,
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// owns reports whether a pixel centre lying exactly on edge a->b belongs to the triangle.
func owns(a, b screenVertex) bool {
	dy := b.y - a.y
	return dy > 0 || (dy == 0 && b.x-a.x < 0)
}

func covered(w float32, a, b screenVertex) bool {
	return w > 0 || (w == 0 && owns(a, b))
}

func (r *rasterizer) fill(a, b, c screenVertex, emit func(*fragment)) {
	// Screen space has y pointing down, so counter-clockwise in NDC is negative here.
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 || math.IsNaN(float64(area)) {
		return
	}
	front := area < 0
	switch {
	case r.cull == pipeline.CullBack && !front:
		return
	case r.cull == pipeline.CullFront && front:
		return
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}

	minX := max(int(math.Floor(float64(min(a.x, b.x, c.x)))), 0)
	maxX := min(int(math.Ceil(float64(max(a.x, b.x, c.x)))), r.width-1)
	minY := max(int(math.Floor(float64(min(a.y, b.y, c.y)))), 0)
	maxY := min(int(math.Ceil(float64(max(a.y, b.y, c.y)))), r.height-1)
	if minX > maxX || minY > maxY {
		return
	}

	bias := r.depthBias
	if r.slopeScale != 0 {
		dzdx := ((b.z-a.z)*(c.y-a.y) - (c.z-a.z)*(b.y-a.y)) / area
		dzdy := ((c.z-a.z)*(b.x-a.x) - (b.z-a.z)*(c.x-a.x)) / area
		bias += r.slopeScale * max(abs32(dzdx), abs32(dzdy))
	}

	var f fragment
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(b.x, b.y, c.x, c.y, px, py)
			w1 := edge(c.x, c.y, a.x, a.y, px, py)
			w2 := edge(a.x, a.y, b.x, b.y, px, py)
			if !covered(w0, b, c) || !covered(w1, c, a) || !covered(w2, a, b) {
				continue
			}
			l0, l1, l2 := w0/area, w1/area, w2/area

			z := l0*a.z + l1*b.z + l2*c.z + bias
			if r.depthClamp {
				z = min(max(z, 0), 1)
			} else if z > 1 || z < 0 {
				continue
			}

			f.x, f.y, f.depth = x, y, z
			r.interpolate(&f.vary, a, b, c, l0, l1, l2)
			if r.derivatives {
				var dx, dy [maxVaryings]float32
				r.interpolateAt(&dx, a, b, c, area, px+1, py)
				r.interpolateAt(&dy, a, b, c, area, px, py+1)
				for k := 0; k < r.varyings; k++ {
					f.fwidth[k] = abs32(dx[k]-f.vary[k]) + abs32(dy[k]-f.vary[k])
				}
			}
			emit(&f)
		}
	}
}

// interpolate applies perspective-correct barycentric weights to the varyings.
func (r *rasterizer) interpolate(out *[maxVaryings]float32, a, b, c screenVertex, l0, l1, l2 float32) {
	q0, q1, q2 := l0*a.invW, l1*b.invW, l2*c.invW
	sum := q0 + q1 + q2
	if sum == 0 {
		return
	}
	q0, q1, q2 = q0/sum, q1/sum, q2/sum
	for k := 0; k < r.varyings; k++ {
		out[k] = q0*a.vary[k] + q1*b.vary[k] + q2*c.vary[k]
	}
}

func (r *rasterizer) interpolateAt(out *[maxVaryings]float32, a, b, c screenVertex, area, px, py float32) {
	l0 := edge(b.x, b.y, c.x, c.y, px, py) / area
	l1 := edge(c.x, c.y, a.x, a.y, px, py) / area
	l2 := edge(a.x, a.y, b.x, b.y, px, py) / area
	r.interpolate(out, a, b, c, l0, l1, l2)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
