package alphamap

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/gift"

	_ "image/png" // reference captures are PNG
)

// FromCapture derives an opacity map from a reference capture of the
// watermark composited over a pure black background. Because the background
// is zero, any intensity in the capture is the watermark's alpha times its
// foreground color, so alpha is simply the brightest channel scaled to
// [0, 1].
//
// Captures that are not exactly footprint x footprint are area-averaged down
// (or interpolated up) first, with a warning; the canonical maps must match
// the sizes the generator actually stamps.
func FromCapture(capture image.Image, footprint int, logger *slog.Logger) *Map {
	b := capture.Bounds()
	if b.Dx() != footprint || b.Dy() != footprint {
		log(logger).Warn("reference capture has unexpected size, resizing",
			"width", b.Dx(), "height", b.Dy(), "expected", footprint)
		capture = resizeImage(capture, footprint, footprint)
		b = capture.Bounds()
	}

	m := New(footprint, footprint)
	for y := 0; y < footprint; y++ {
		for x := 0; x < footprint; x++ {
			r, g, bl, _ := capture.At(b.Min.X+x, b.Min.Y+y).RGBA()
			max := r
			if g > max {
				max = g
			}
			if bl > max {
				max = bl
			}
			m.set(x, y, float64(max)/65535.0)
		}
	}
	return m
}

// DecodeCapture decodes a PNG reference capture and turns it into an opacity
// map. A decode failure is fatal to engine construction.
func DecodeCapture(data []byte, footprint int, logger *slog.Logger) (*Map, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode reference capture: %w", err)
	}
	return FromCapture(img, footprint, logger), nil
}

// resizeImage scales an image with gift, using box (area-average) filtering
// when shrinking and bilinear when enlarging.
func resizeImage(src image.Image, w, h int) image.Image {
	resampling := gift.BoxResampling
	if w > src.Bounds().Dx() || h > src.Bounds().Dy() {
		resampling = gift.LinearResampling
	}

	g := gift.New(gift.Resize(w, h, resampling))
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

func log(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
