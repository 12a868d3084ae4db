package software

import (
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/go-gl/mathgl/mgl32"
)

// texture is an uploaded RGBA8 image sampled with bilinear filtering and repeat wrapping.
type texture struct {
	width  int
	height int
	texels []mgl32.Vec4
}

func newTexture(img common.ImageData) *texture {
	t := &texture{width: max(img.Width, 1), height: max(img.Height, 1)}
	t.texels = make([]mgl32.Vec4, t.width*t.height)
	for i := range t.texels {
		p := i * 4
		if p+3 >= len(img.Pixels) {
			t.texels[i] = mgl32.Vec4{1, 1, 1, 1}
			continue
		}
		t.texels[i] = mgl32.Vec4{
			float32(img.Pixels[p]) / 255,
			float32(img.Pixels[p+1]) / 255,
			float32(img.Pixels[p+2]) / 255,
			float32(img.Pixels[p+3]) / 255,
		}
	}
	return t
}

func whiteTexture() *texture {
	return newTexture(common.SolidImage(255, 255, 255, 255))
}

func (t *texture) texel(x, y int) mgl32.Vec4 {
	x = ((x % t.width) + t.width) % t.width
	y = ((y % t.height) + t.height) % t.height
	return t.texels[y*t.width+x]
}

func (t *texture) sample(uv mgl32.Vec2) mgl32.Vec4 {
	if t.width == 1 && t.height == 1 {
		return t.texels[0]
	}
	fx := uv.X()*float32(t.width) - 0.5
	fy := uv.Y()*float32(t.height) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	top := lerp4(t.texel(x0, y0), t.texel(x0+1, y0), tx)
	bottom := lerp4(t.texel(x0, y0+1), t.texel(x0+1, y0+1), tx)
	return lerp4(top, bottom, ty)
}

func lerp4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}
