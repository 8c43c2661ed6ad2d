// Package blend applies and reverses the alpha compositing used to stamp the
// watermark onto an image.
package blend

import (
	"image"
	"math"

	"github.com/sparkmark/sparkmark/internal/alphamap"
)

const (
	// minAlpha is the opacity below which a pixel carries no visible
	// watermark contribution and is left untouched.
	minAlpha = 0.002
	// maxAlpha caps opacity during removal so (1 - alpha) stays away from
	// zero and the division cannot blow up.
	maxAlpha = 0.99
)

// DefaultLogoValue is the foreground intensity of the watermark: a white
// logo blended at per-pixel opacity.
const DefaultLogoValue = 255.0

// Apply composites the watermark onto img at pos, in place:
//
//	out = original*(1-alpha) + logoValue*alpha
//
// Map pixels falling outside the image bounds are silently skipped.
func Apply(img *image.RGBA, m *alphamap.Map, pos image.Point, logoValue float64) {
	forEachPixel(img, m, pos, func(px []byte, alpha float64) {
		for c := 0; c < 3; c++ {
			blended := float64(px[c])*(1-alpha) + logoValue*alpha
			px[c] = clampByte(blended)
		}
	})
}

// Remove reverses Apply, in place:
//
//	original = (watermarked - logoValue*alpha) / (1-alpha)
//
// Opacity is capped at maxAlpha; results are clamped to [0, 255].
func Remove(img *image.RGBA, m *alphamap.Map, pos image.Point, logoValue float64) {
	forEachPixel(img, m, pos, func(px []byte, alpha float64) {
		if alpha > maxAlpha {
			alpha = maxAlpha
		}
		for c := 0; c < 3; c++ {
			original := (float64(px[c]) - logoValue*alpha) / (1 - alpha)
			px[c] = clampByte(original)
		}
	})
}

// forEachPixel visits every image pixel covered by the map's extent
// intersected with the image bounds, handing the callback the pixel's RGB
// slice and the map opacity at that offset.
func forEachPixel(img *image.RGBA, m *alphamap.Map, pos image.Point, fn func(px []byte, alpha float64)) {
	bounds := img.Bounds()
	extent := image.Rect(pos.X, pos.Y, pos.X+m.W, pos.Y+m.H).Intersect(bounds)
	if extent.Empty() {
		return
	}

	for y := extent.Min.Y; y < extent.Max.Y; y++ {
		for x := extent.Min.X; x < extent.Max.X; x++ {
			alpha := m.At(x-pos.X, y-pos.Y)
			if alpha < minAlpha {
				continue
			}
			off := img.PixOffset(x, y)
			fn(img.Pix[off:off+3], alpha)
		}
	}
}

func clampByte(v float64) byte {
	return byte(math.Round(math.Max(0, math.Min(255, v))))
}
