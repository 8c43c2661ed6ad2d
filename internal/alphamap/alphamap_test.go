package alphamap

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"testing"
)

// captureImage builds a synthetic reference capture: a grayscale gradient
// over a black background, as if the watermark had been stamped on black.
func captureImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8((x + y) * 255 / (2 * (size - 1)))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestFromCaptureNormalizesToUnitRange(t *testing.T) {
	m := FromCapture(captureImage(48), 48, slog.Default())

	if m.W != 48 || m.H != 48 {
		t.Fatalf("map size = %dx%d, want 48x48", m.W, m.H)
	}
	if got := m.At(0, 0); got != 0 {
		t.Errorf("black corner alpha = %f, want 0", got)
	}
	if got := m.At(47, 47); math.Abs(got-1.0) > 0.01 {
		t.Errorf("white corner alpha = %f, want ~1", got)
	}
	min, max := m.MinMax()
	if min < 0 || max > 1 {
		t.Errorf("alpha range [%f, %f] outside [0, 1]", min, max)
	}
}

func TestFromCaptureUsesBrightestChannel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	img.SetRGBA(10, 10, color.RGBA{R: 0, G: 128, B: 0, A: 255})

	m := FromCapture(img, 48, nil)
	want := 128.0 / 255.0
	if got := m.At(10, 10); math.Abs(got-want) > 0.01 {
		t.Errorf("alpha at colored pixel = %f, want %f", got, want)
	}
}

func TestFromCaptureResizesOddCapture(t *testing.T) {
	// A 64x64 capture must be brought down to the 48x48 footprint.
	m := FromCapture(captureImage(64), 48, slog.Default())
	if m.W != 48 || m.H != 48 {
		t.Fatalf("map size = %dx%d, want 48x48 after resize", m.W, m.H)
	}
}

func TestDecodeCapture(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, captureImage(96)); err != nil {
		t.Fatal(err)
	}

	m, err := DecodeCapture(buf.Bytes(), 96, nil)
	if err != nil {
		t.Fatalf("DecodeCapture returned error: %v", err)
	}
	if m.W != 96 || m.H != 96 {
		t.Errorf("map size = %dx%d, want 96x96", m.W, m.H)
	}
}

func TestDecodeCaptureRejectsGarbage(t *testing.T) {
	if _, err := DecodeCapture([]byte("not a png"), 48, nil); err == nil {
		t.Fatal("expected decode error for invalid data")
	}
}

func TestResampleSameSizeIsIdentity(t *testing.T) {
	m := FromCapture(captureImage(96), 96, nil)
	r := m.Resample(96, 96)

	if !m.Equal(r) {
		t.Error("same-size resample must return an identical map")
	}
	if &m.Data[0] == &r.Data[0] {
		t.Error("same-size resample must not alias the source data")
	}
}

func TestResampleDownIsGenuine(t *testing.T) {
	large := FromCapture(captureImage(96), 96, nil)
	small := FromCapture(captureImage(48), 48, nil)

	down := large.Resample(48, 48)
	if down.W != 48 || down.H != 48 {
		t.Fatalf("resampled size = %dx%d, want 48x48", down.W, down.H)
	}
	if down.Equal(small) {
		t.Error("downsampled large map should differ from the independent small map")
	}
}

func TestResampleUpPreservesRange(t *testing.T) {
	m := FromCapture(captureImage(48), 48, nil)
	up := m.Resample(120, 120)

	if up.W != 120 || up.H != 120 {
		t.Fatalf("resampled size = %dx%d, want 120x120", up.W, up.H)
	}
	min, max := up.MinMax()
	if min < 0 || max > 1 {
		t.Errorf("resampled alpha range [%f, %f] outside [0, 1]", min, max)
	}
	// Interpolation must preserve the overall gradient direction.
	if up.At(5, 5) >= up.At(115, 115) {
		t.Error("gradient direction lost after upscale")
	}
}
