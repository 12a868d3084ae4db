// package common contains plain helper types and math shared by every engine package.
// They are not interface-wrapped structs, just values that express commonly used data.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// ImageData holds decoded RGBA8 pixels, row-major, 4 bytes per pixel.
type ImageData struct {
	Pixels []byte
	Width  int
	Height int
}

// SolidImage returns a 1x1 image of the given color. Materials use these as stand-ins
// for texture slots that were not supplied.
//
// Parameters:
//   - r, g, b, a: color channels in [0, 255]
//
// Returns:
//   - ImageData: a single-pixel image
func SolidImage(r, g, b, a uint8) ImageData {
	return ImageData{Pixels: []byte{r, g, b, a}, Width: 1, Height: 1}
}

// DecodeImage decodes PNG or JPEG bytes to RGBA8.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - data: the encoded image bytes
//
// Returns:
//   - ImageData: the decoded pixels
//   - error: error if decoding fails
func DecodeImage(data []byte) (ImageData, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ImageData{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return toRGBA(img), nil
}

// LoadImageFile decodes a PNG or JPEG file from disk to RGBA8.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - ImageData: the decoded pixels
//   - error: error if the file cannot be opened or decoded
func LoadImageFile(path string) (ImageData, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImageData{}, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return ImageData{}, fmt.Errorf("failed to decode texture file %s: %w", path, err)
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) ImageData {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return ImageData{Pixels: rgba.Pix, Width: bounds.Dx(), Height: bounds.Dy()}
}
