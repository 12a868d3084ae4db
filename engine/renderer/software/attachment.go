package software

import (
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mrjoshuak/go-openexr/half"
)

// attachment is a CPU image. Color formats store one Vec4 per pixel already rounded to
// the precision of the format; depth formats store one float32 per pixel.
type attachment struct {
	label  string
	width  int
	height int
	format pipeline.TextureFormat
	state  renderer.ResourceState
	color  []mgl32.Vec4
	depth  []float32
}

func newAttachment(desc renderer.AttachmentDescriptor) *attachment {
	a := &attachment{
		label:  desc.Label,
		width:  max(desc.Width, 1),
		height: max(desc.Height, 1),
		format: desc.Format,
		state:  renderer.StateUndefined,
	}
	if a.format.IsDepth() {
		a.depth = make([]float32, a.width*a.height)
	} else {
		a.color = make([]mgl32.Vec4, a.width*a.height)
	}
	return a
}

func (a *attachment) index(x, y int) int {
	x = common.Clamp(x, 0, a.width-1)
	y = common.Clamp(y, 0, a.height-1)
	return y*a.width + x
}

func (a *attachment) clearColor(c mgl32.Vec4) {
	q := quantize(a.format, c)
	for i := range a.color {
		a.color[i] = q
	}
}

func (a *attachment) clearDepth(d float32) {
	for i := range a.depth {
		a.depth[i] = d
	}
}

// load returns the texel at (x, y) clamped to the image. Depth attachments return the
// depth in the first channel.
func (a *attachment) load(x, y int) mgl32.Vec4 {
	if a.depth != nil {
		return mgl32.Vec4{a.depth[a.index(x, y)], 0, 0, 1}
	}
	return a.color[a.index(x, y)]
}

func (a *attachment) loadDepth(x, y int) float32 {
	if a.depth == nil {
		return 1
	}
	return a.depth[a.index(x, y)]
}

// sampleDepth reads the depth at a texture coordinate with nearest filtering. Coordinates
// outside [0,1] read as 1 so that nothing outside a shadow map occludes.
func (a *attachment) sampleDepth(u, v float32) float32 {
	if u < 0 || u > 1 || v < 0 || v > 1 || a.depth == nil {
		return 1
	}
	x := int(u * float32(a.width))
	y := int(v * float32(a.height))
	return a.depth[a.index(x, y)]
}

func (a *attachment) store(i int, c mgl32.Vec4) {
	a.color[i] = quantize(a.format, c)
}

// quantize rounds a color to what the format can represent.
func quantize(format pipeline.TextureFormat, c mgl32.Vec4) mgl32.Vec4 {
	switch format {
	case pipeline.FormatRGBA8Unorm, pipeline.FormatOutput:
		for i := range c {
			c[i] = float32(math.Round(float64(common.Clamp(c[i], 0, 1)*255))) / 255
		}
	case pipeline.FormatRGBA16Float:
		for i := range c {
			c[i] = half.FromFloat32(c[i]).Float32()
		}
	}
	return c
}
