package alphamap

import (
	"image"
	"image/color"

	"github.com/disintegration/gift"
)

// Resample scales the map to the target dimensions. Equal-size requests
// return an untouched copy. Upscaling uses bilinear interpolation;
// downscaling uses box filtering, which is area averaging.
//
// The float grid round-trips through a 16-bit grayscale image so gift can do
// the filtering; the quantization error is at most 1/65535 per sample.
func (m *Map) Resample(targetW, targetH int) *Map {
	if targetW == m.W && targetH == m.H {
		return m.Clone()
	}

	src := image.NewGray16(image.Rect(0, 0, m.W, m.H))
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			src.SetGray16(x, y, color.Gray16{Y: uint16(m.At(x, y)*65535.0 + 0.5)})
		}
	}

	resampling := gift.BoxResampling
	if targetW > m.W || targetH > m.H {
		resampling = gift.LinearResampling
	}

	g := gift.New(gift.Resize(targetW, targetH, resampling))
	dst := image.NewGray16(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	out := New(targetW, targetH)
	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			out.set(x, y, float64(dst.Gray16At(x, y).Y)/65535.0)
		}
	}
	return out
}
