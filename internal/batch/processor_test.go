package batch

import (
	"context"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/aquilax/go-perlin"

	"github.com/sparkmark/sparkmark/internal/engine"
	"github.com/sparkmark/sparkmark/internal/imgio"
	"github.com/sparkmark/sparkmark/internal/placement"
)

func writePerlinPNG(t *testing.T, path string, size int, seed int64) {
	t.Helper()
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			val := p.Noise2D(float64(x)/24.0, float64(y)/24.0)
			v := uint8(math.Max(0, math.Min(255, 128+val*110)))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	if err := imgio.EncodeFile(path, img, imgio.DefaultEncodeOptions()); err != nil {
		t.Fatal(err)
	}
}

func writeFlatPNG(t *testing.T, path string, size int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 120, 120, 120, 255
	}
	if err := imgio.EncodeFile(path, img, imgio.DefaultEncodeOptions()); err != nil {
		t.Fatal(err)
	}
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New()
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestAddThenRemoveWithDetection(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	marked := filepath.Join(dir, "marked.png")
	cleaned := filepath.Join(dir, "cleaned.png")
	writePerlinPNG(t, in, 900, 1)

	eng := newEngine(t)

	adder := NewProcessor(eng, Config{Mode: ModeAdd, Encode: imgio.DefaultEncodeOptions()}, nil)
	out, err := adder.Process(context.Background(), in, marked)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if out.Status != StatusProcessed {
		t.Fatalf("add status = %v", out.Status)
	}

	remover := NewProcessor(eng, Config{
		Mode:         ModeRemove,
		UseDetection: true,
		Threshold:    0.25,
		Encode:       imgio.DefaultEncodeOptions(),
	}, nil)
	out, err = remover.Process(context.Background(), marked, cleaned)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if out.Status != StatusProcessed {
		t.Fatalf("remove status = %v, message %q", out.Status, out.Message)
	}
	if _, err := os.Stat(cleaned); err != nil {
		t.Fatalf("cleaned output missing: %v", err)
	}
}

func TestDetectionSkipsCleanImage(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "flat.png")
	outPath := filepath.Join(dir, "out.png")
	writeFlatPNG(t, in, 600)

	remover := NewProcessor(newEngine(t), Config{
		Mode:         ModeRemove,
		UseDetection: true,
		Threshold:    0.25,
		Encode:       imgio.DefaultEncodeOptions(),
	}, nil)

	out, err := remover.Process(context.Background(), in, outPath)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Status != StatusSkipped {
		t.Fatalf("status = %v, want skipped", out.Status)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Error("skipped file must not produce output")
	}
}

func TestForcedRemovalIgnoresDetection(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "flat.png")
	outPath := filepath.Join(dir, "out.png")
	writeFlatPNG(t, in, 600)

	remover := NewProcessor(newEngine(t), Config{
		Mode:         ModeRemove,
		UseDetection: false, // --force
		Encode:       imgio.DefaultEncodeOptions(),
	}, nil)

	out, err := remover.Process(context.Background(), in, outPath)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Status != StatusProcessed {
		t.Fatalf("status = %v, want processed", out.Status)
	}
}

func TestCustomRegionMode(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	outPath := filepath.Join(dir, "out.png")
	writePerlinPNG(t, in, 300, 5)

	region := image.Rect(40, 40, 110, 110)
	proc := NewProcessor(newEngine(t), Config{
		Mode:   ModeAdd,
		Region: &region,
		Encode: imgio.DefaultEncodeOptions(),
	}, nil)

	out, err := proc.Process(context.Background(), in, outPath)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Status != StatusProcessed {
		t.Fatalf("status = %v", out.Status)
	}
}

func TestForceSizePropagates(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	outPath := filepath.Join(dir, "out.png")
	writePerlinPNG(t, in, 2000, 7)

	proc := NewProcessor(newEngine(t), Config{
		Mode:   ModeAdd,
		Force:  placement.SizeSmall,
		Encode: imgio.DefaultEncodeOptions(),
	}, nil)
	if _, err := proc.Process(context.Background(), in, outPath); err != nil {
		t.Fatal(err)
	}
}

func TestUnreadableInputFails(t *testing.T) {
	proc := NewProcessor(newEngine(t), Config{Mode: ModeRemove}, nil)
	if _, err := proc.Process(context.Background(), "/nonexistent.png", "/tmp/out.png"); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := NewProcessor(newEngine(t), Config{Mode: ModeRemove}, nil)
	if _, err := proc.Process(ctx, "whatever.png", "out.png"); err == nil {
		t.Fatal("expected context error")
	}
}
