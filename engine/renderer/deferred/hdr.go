package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
)

// hdrFormat is the light accumulation format. Lighting only ever adds non-negative terms.
const hdrFormat = pipeline.FormatRGBA16Float

// hdrBuffer owns the light accumulation target.
type hdrBuffer struct {
	target renderer.AttachmentHandle
}

func (b *hdrBuffer) create(dev renderer.Device, width, height int) error {
	h, err := dev.CreateAttachment(renderer.AttachmentDescriptor{
		Label: "hdr", Width: width, Height: height, Format: hdrFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to create hdr buffer: %w", err)
	}
	b.target = h
	return nil
}

func (b *hdrBuffer) destroy(dev renderer.Device) {
	if b.target != 0 {
		dev.DestroyAttachment(b.target)
		b.target = 0
	}
}

// color returns the accumulation target, cleared to zero when clear is set.
func (b *hdrBuffer) color(clear bool) renderer.ColorAttachment {
	load := renderer.LoadOpLoad
	if clear {
		load = renderer.LoadOpClear
	}
	return renderer.ColorAttachment{Attachment: b.target, Load: load}
}

func (b *hdrBuffer) transitionTarget(dev renderer.Device) {
	dev.Transition(b.target, renderer.StateColorTarget)
}
