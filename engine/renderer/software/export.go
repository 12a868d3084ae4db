package software

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/mrjoshuak/go-openexr/exr"
)

// OutputImage copies the output attachment into an RGBA8 image.
//
// Returns:
//   - *image.RGBA: the last presented frame
func (d *Device) OutputImage() *image.RGBA {
	out := d.attachments[renderer.OutputAttachment]
	img := image.NewRGBA(image.Rect(0, 0, out.width, out.height))
	for y := 0; y < out.height; y++ {
		for x := 0; x < out.width; x++ {
			c := out.load(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(c[0]*255 + 0.5),
				G: uint8(c[1]*255 + 0.5),
				B: uint8(c[2]*255 + 0.5),
				A: uint8(c[3]*255 + 0.5),
			})
		}
	}
	return img
}

// SavePNG writes the output attachment to a PNG file.
//
// Parameters:
//   - path: the destination file
//
// Returns:
//   - error: error if the file cannot be created or encoded
func (d *Device) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("software: failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, d.OutputImage()); err != nil {
		return fmt.Errorf("software: failed to encode %s: %w", path, err)
	}
	return nil
}

// AttachmentEXR copies a color attachment into a half-float EXR image. Depth attachments
// are written as grey.
//
// Parameters:
//   - h: the attachment, typically the HDR accumulation buffer
//
// Returns:
//   - *exr.RGBAImage: the image
//   - error: renderer.ErrUnknownAttachment if h does not exist
func (d *Device) AttachmentEXR(h renderer.AttachmentHandle) (*exr.RGBAImage, error) {
	a, ok := d.attachments[h]
	if !ok {
		return nil, renderer.ErrUnknownAttachment
	}
	img := exr.NewRGBAImage(image.Rect(0, 0, a.width, a.height))
	for y := 0; y < a.height; y++ {
		for x := 0; x < a.width; x++ {
			if a.depth != nil {
				v := a.loadDepth(x, y)
				img.SetRGBA(x, y, v, v, v, 1)
				continue
			}
			c := a.load(x, y)
			img.SetRGBA(x, y, c[0], c[1], c[2], c[3])
		}
	}
	return img, nil
}

// SaveEXR writes an attachment to an OpenEXR file without tone mapping.
//
// Parameters:
//   - h: the attachment
//   - path: the destination file
//
// Returns:
//   - error: error if the attachment does not exist or the file cannot be written
func (d *Device) SaveEXR(h renderer.AttachmentHandle, path string) error {
	img, err := d.AttachmentEXR(h)
	if err != nil {
		return err
	}
	if err := exr.EncodeFile(path, img); err != nil {
		return fmt.Errorf("software: failed to write %s: %w", path, err)
	}
	return nil
}
