package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func readF32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

func TestUniformSizes(t *testing.T) {
	tests := []struct {
		name string
		u    Uniform
		want int
	}{
		{"frame", &FrameUniforms{}, 288},
		{"object", &ObjectUniforms{}, 160},
		{"shadow", &ShadowUniforms{}, 64},
		{"directional", &DirectionalLightUniforms{}, 272},
		{"point", &PointLightUniforms{}, 144},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.Size(); got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
			if got := len(tt.u.Marshal()); got != tt.want {
				t.Errorf("len(Marshal()) = %d, want %d", got, tt.want)
			}
			if tt.want%16 != 0 {
				t.Errorf("size %d is not 16-byte aligned", tt.want)
			}
		})
	}
}

func TestFrameUniformsLayout(t *testing.T) {
	u := &FrameUniforms{
		View:           mgl32.Translate3D(1, 2, 3),
		CameraPosition: mgl32.Vec3{4, 5, 6},
		Near:           0.1,
		Far:            100,
		Exposure:       1.5,
		Gamma:          2.2,
	}
	buf := u.Marshal()
	// column 3 of the view matrix holds the translation
	if got := readF32(buf, 48); got != 1 {
		t.Errorf("view[12] = %v, want 1", got)
	}
	checks := map[int]float32{256: 4, 260: 5, 264: 6, 268: 0.1, 272: 100, 276: 1.5, 280: 2.2}
	for off, want := range checks {
		if got := readF32(buf, off); got != want {
			t.Errorf("offset %d = %v, want %v", off, got, want)
		}
	}
}

func TestDirectionalLightUniformsLayout(t *testing.T) {
	u := &DirectionalLightUniforms{
		Direction:    mgl32.Vec3{0, -1, 0},
		CastsShadows: true,
		ShadowTexel:  1.0 / 2048,
		CascadeEnds:  [4]float32{0.1, 2, 5, 11},
	}
	u.CascadeViewProjection[2] = mgl32.Ident4()
	buf := u.Marshal()
	if got := binary.LittleEndian.Uint32(buf[12:16]); got != 1 {
		t.Errorf("CastsShadows = %d, want 1", got)
	}
	if got := readF32(buf, 44); got != 1.0/2048 {
		t.Errorf("ShadowTexel = %v", got)
	}
	if got := readF32(buf, 64+128); got != 1 {
		t.Errorf("cascade 2 [0][0] = %v, want 1", got)
	}
	for i, want := range u.CascadeEnds {
		if got := readF32(buf, 256+4*i); got != want {
			t.Errorf("CascadeEnds[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestPointLightUniformsLayout(t *testing.T) {
	u := &PointLightUniforms{
		Position:    mgl32.Vec3{1, 2, 3},
		Radius:      7,
		Attenuation: mgl32.Vec3{1, 0.09, 0.032},
		Specular:    mgl32.Vec3{0.5, 0.5, 0.5},
	}
	buf := u.Marshal()
	if got := readF32(buf, 76); got != 7 {
		t.Errorf("Radius = %v, want 7", got)
	}
	if got := readF32(buf, 84); got != 0.09 {
		t.Errorf("linear = %v, want 0.09", got)
	}
	if got := readF32(buf, 128); got != 0.5 {
		t.Errorf("specular.r = %v, want 0.5", got)
	}
}

func TestMarshalVertices(t *testing.T) {
	vs := []Vertex{
		{Position: mgl32.Vec3{1, 2, 3}, UV: mgl32.Vec2{0.25, 0.75}},
		{Normal: mgl32.Vec3{0, 1, 0}, Tangent: mgl32.Vec3{1, 0, 0}},
	}
	buf := MarshalVertices(vs)
	if len(buf) != 2*VertexStride {
		t.Fatalf("len = %d, want %d", len(buf), 2*VertexStride)
	}
	checks := []struct {
		off  int
		want float32
	}{
		{0, 1}, {8, 3}, {36, 0.25}, {40, 0.75},
		{VertexStride + 16, 1}, {VertexStride + 24, 1},
	}
	for _, c := range checks {
		if got := readF32(buf, c.off); got != c.want {
			t.Errorf("offset %d = %v, want %v", c.off, got, c.want)
		}
	}
}
