package light

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestAttenuationRadius(t *testing.T) {
	tests := []struct {
		name       string
		c, l, q    float32
		brightness float32
		want       float32
	}{
		{"quadratic falloff", 1, 0.09, 0.032, 1, 38.23},
		{"linear only", 1, 0.5, 0, 1, 100.4},
		{"too dim to matter", 100, 0.1, 0.1, 1, 0},
		{"black light", 1, 0.09, 0.032, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttenuationRadius(tt.c, tt.l, tt.q, tt.brightness)
			if !mgl32.FloatEqualThreshold(got, tt.want, 0.01) {
				t.Errorf("AttenuationRadius() = %v, want %v", got, tt.want)
			}
		})
	}

	if r := AttenuationRadius(1, 0, 0, 1); !math.IsInf(float64(r), 1) {
		t.Errorf("constant-only radius = %v, want +Inf", r)
	}
}

func TestRadiusAttenuatesToCutoff(t *testing.T) {
	p := NewPoint(WithAttenuation(1, 0.14, 0.07))
	r := p.Radius()
	c, l, q := p.Attenuation()
	att := 1 / (c + l*r + q*r*r)
	if !mgl32.FloatEqualThreshold(att, AttenuationCutoff, 1e-4) {
		t.Errorf("attenuation at radius = %v, want %v", att, AttenuationCutoff)
	}
}

func TestDirectionIsNormalized(t *testing.T) {
	d := NewDirectional(WithDirection(mgl32.Vec3{0.2, -1, 0.1}))
	if !mgl32.FloatEqualThreshold(d.Direction().Len(), 1, 1e-5) {
		t.Errorf("direction length = %v, want 1", d.Direction().Len())
	}
	d.SetDirection(mgl32.Vec3{})
	if !d.Direction().ApproxEqual(mgl32.Vec3{0, -1, 0}) {
		t.Errorf("zero direction fallback = %v, want (0, -1, 0)", d.Direction())
	}
}
