// Sample catalog generator for trying out enroll and match by hand.
//
// Writes testdata/catalog/*.png (three products) and
// testdata/frames/*.png (camera-like frames of two of them plus a miss).
package main

import (
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
)

type product struct {
	name       string
	body, band color.NRGBA
}

func main() {
	products := []product{
		{"red-mug", color.NRGBA{R: 200, G: 30, B: 40, A: 255}, color.NRGBA{R: 245, G: 245, B: 240, A: 255}},
		{"blue-bowl", color.NRGBA{R: 30, G: 60, B: 190, A: 255}, color.NRGBA{R: 230, G: 200, B: 60, A: 255}},
		{"green-vase", color.NRGBA{R: 40, G: 150, B: 70, A: 255}, color.NRGBA{R: 90, G: 60, B: 40, A: 255}},
	}

	for _, p := range products {
		save(filepath.Join("testdata", "catalog", p.name+".png"), render(p, 0, nil))
	}

	rng := rand.New(rand.NewPCG(1, 2))
	save(filepath.Join("testdata", "frames", "red-mug-frame.png"), render(products[0], 12, rng))
	save(filepath.Join("testdata", "frames", "blue-bowl-frame.png"), render(products[1], 12, rng))
	save(filepath.Join("testdata", "frames", "unknown.png"), render(product{
		body: color.NRGBA{R: 120, G: 40, B: 160, A: 255},
		band: color.NRGBA{R: 20, G: 20, B: 20, A: 255},
	}, 12, rng))

	println("Sample catalog written to testdata/catalog and testdata/frames")
}

// render draws a product on a transparent background: a body with a
// horizontal band through the middle. Frames get per-pixel noise.
func render(p product, noise int, rng *rand.Rand) *image.NRGBA {
	const width, height = 240, 320
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 40; y < height-40; y++ {
		for x := 50; x < width-50; x++ {
			c := p.body
			if y > height/2-30 && y < height/2+30 {
				c = p.band
			}
			if rng != nil && noise > 0 {
				c = jitter(c, noise, rng)
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func jitter(c color.NRGBA, n int, rng *rand.Rand) color.NRGBA {
	shift := func(v uint8) uint8 {
		return uint8(max(0, min(255, int(v)+rng.IntN(2*n+1)-n)))
	}
	return color.NRGBA{R: shift(c.R), G: shift(c.G), B: shift(c.B), A: c.A}
}

func save(path string, img image.Image) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	file, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		panic(err)
	}
}
