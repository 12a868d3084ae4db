package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
)

// GBuffer target formats, in color attachment order.
var gbufferFormats = [4]pipeline.TextureFormat{
	pipeline.FormatRGBA16Float, // normal.xyz, specular intensity
	pipeline.FormatRGBA32Float, // world position.xyz, specular exponent
	pipeline.FormatRGBA8Unorm,  // ambient color
	pipeline.FormatRGBA8Unorm,  // diffuse color
}

var gbufferLabels = [4]string{"gbuffer-normal", "gbuffer-position", "gbuffer-ambient", "gbuffer-diffuse"}

// gbuffer owns the surface attachments written by the geometry pass.
type gbuffer struct {
	colors [4]renderer.AttachmentHandle
	depth  renderer.AttachmentHandle
}

func (g *gbuffer) normal() renderer.AttachmentHandle   { return g.colors[0] }
func (g *gbuffer) position() renderer.AttachmentHandle { return g.colors[1] }
func (g *gbuffer) ambient() renderer.AttachmentHandle  { return g.colors[2] }
func (g *gbuffer) diffuse() renderer.AttachmentHandle  { return g.colors[3] }

func (g *gbuffer) create(dev renderer.Device, width, height int) error {
	for i, format := range gbufferFormats {
		h, err := dev.CreateAttachment(renderer.AttachmentDescriptor{
			Label: gbufferLabels[i], Width: width, Height: height, Format: format,
		})
		if err != nil {
			g.destroy(dev)
			return fmt.Errorf("failed to create %s: %w", gbufferLabels[i], err)
		}
		g.colors[i] = h
	}
	h, err := dev.CreateAttachment(renderer.AttachmentDescriptor{
		Label: "gbuffer-depth", Width: width, Height: height, Format: pipeline.FormatDepth32Float,
	})
	if err != nil {
		g.destroy(dev)
		return fmt.Errorf("failed to create gbuffer-depth: %w", err)
	}
	g.depth = h
	return nil
}

func (g *gbuffer) destroy(dev renderer.Device) {
	for i, h := range g.colors {
		if h != 0 {
			dev.DestroyAttachment(h)
			g.colors[i] = 0
		}
	}
	if g.depth != 0 {
		dev.DestroyAttachment(g.depth)
		g.depth = 0
	}
}

// transition moves every GBuffer attachment into the state the next stage needs.
func (g *gbuffer) transition(dev renderer.Device, color, depth renderer.ResourceState) {
	for _, h := range g.colors {
		dev.Transition(h, color)
	}
	dev.Transition(g.depth, depth)
}

// targets returns the geometry pass attachments, cleared to zero and depth 1.
func (g *gbuffer) targets() ([]renderer.ColorAttachment, *renderer.DepthAttachment) {
	colors := make([]renderer.ColorAttachment, len(g.colors))
	for i, h := range g.colors {
		colors[i] = renderer.ColorAttachment{Attachment: h, Load: renderer.LoadOpClear}
	}
	return colors, &renderer.DepthAttachment{Attachment: g.depth, Load: renderer.LoadOpClear, Clear: 1}
}

// readOnlyDepth returns the GBuffer depth for passes that test against scene depth.
func (g *gbuffer) readOnlyDepth() *renderer.DepthAttachment {
	return &renderer.DepthAttachment{Attachment: g.depth, Load: renderer.LoadOpLoad, ReadOnly: true}
}
