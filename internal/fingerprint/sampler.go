package fingerprint

import (
	"image"
	"image/draw"

	"github.com/jmylchreest/otic/internal/colour"
)

// RawImage is an un-premultiplied RGBA pixel buffer, four bytes per pixel,
// row-major with no padding between rows.
type RawImage struct {
	Width  int
	Height int
	Pix    []uint8
}

// FromImage converts a decoded image into a RawImage.
func FromImage(img image.Image) RawImage {
	if img == nil {
		return RawImage{}
	}

	bounds := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && n.Stride == 4*bounds.Dx() && bounds.Min == (image.Point{}) {
		return RawImage{Width: bounds.Dx(), Height: bounds.Dy(), Pix: n.Pix}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return RawImage{Width: bounds.Dx(), Height: bounds.Dy(), Pix: dst.Pix}
}

// pixelCount returns the number of whole pixels addressable in the buffer.
func (r RawImage) pixelCount() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return min(r.Width*r.Height, len(r.Pix)/4)
}

// Pixel is one sampled opaque pixel with its position in the source image.
type Pixel struct {
	R, G, B uint8
	X, Y    uint32
}

// RGB returns the colour of the pixel.
func (p Pixel) RGB() colour.RGB {
	return colour.RGB{R: p.R, G: p.G, B: p.B}
}

// SamplePixels takes a bounded, uniformly strided subset of the opaque
// pixels of img. The stride is max(1, total/MaxSamples) over the flattened
// buffer and sampling stops once MaxSamples pixels are collected, so images
// with transparent regions yield fewer samples than the budget.
func SamplePixels(img RawImage, cfg Config) []Pixel {
	total := img.pixelCount()
	if total == 0 || cfg.MaxSamples < 1 {
		return nil
	}

	step := max(total/cfg.MaxSamples, 1)

	pixels := make([]Pixel, 0, min(total, cfg.MaxSamples))
	for i := 0; i < total; i += step {
		offset := i * 4
		if int(img.Pix[offset+3]) <= cfg.AlphaThreshold {
			continue
		}

		pixels = append(pixels, Pixel{
			R: img.Pix[offset],
			G: img.Pix[offset+1],
			B: img.Pix[offset+2],
			X: uint32(i % img.Width),
			Y: uint32(i / img.Width),
		})
		if len(pixels) >= cfg.MaxSamples {
			break
		}
	}

	return pixels
}
