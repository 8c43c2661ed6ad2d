// Package detect decides, without ground truth, whether the expected
// watermark region of an image actually carries the watermark.
//
// Three independent signals are fused into a confidence score: structural
// correlation between the region and the opacity map, correlation of their
// Sobel gradient magnitudes, and the dampening of local texture variance
// that semi-transparent overlays cause.
package detect

import (
	"image"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sparkmark/sparkmark/internal/alphamap"
	"github.com/sparkmark/sparkmark/internal/placement"
)

// Calibrated constants. These were tuned against real captures; changing
// them shifts the detector's operating point.
const (
	// spatialGate short-circuits scoring when the structural correlation
	// shows no hint of the watermark pattern.
	spatialGate = 0.25
	// decisionThreshold is the fused confidence at which a region counts
	// as watermarked.
	decisionThreshold = 0.35

	weightSpatial  = 0.50
	weightGradient = 0.30
	weightVariance = 0.20

	// Variance dampening needs a reference strip taller than this and with
	// a standard deviation above refStdDevFloor (0-255 scale) to be
	// meaningful.
	minRefStripHeight = 8
	refStdDevFloor    = 5.0
)

// Result carries the detection verdict, the fused confidence and the
// per-stage scores, plus the resolved size class and region.
type Result struct {
	Detected      bool
	Confidence    float64
	SpatialScore  float64
	GradientScore float64
	VarianceScore float64
	Size          placement.Size
	Region        image.Rectangle
}

// Run scores the watermark region of img against the opacity map for the
// resolved size class. A region that clamps to nothing yields a
// zero-confidence result rather than an error: "no watermark" is an
// expected outcome, not a failure.
func Run(img *image.RGBA, m *alphamap.Map, size placement.Size, logger *slog.Logger) Result {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	rule := placement.RuleFor(size)
	pos := rule.Position(width, height)

	result := Result{
		Size:   size,
		Region: image.Rect(pos.X, pos.Y, pos.X+m.W, pos.Y+m.H),
	}

	// Clamp to image bounds.
	x1 := max(0, pos.X)
	y1 := max(0, pos.Y)
	x2 := min(width, pos.X+m.W)
	y2 := min(height, pos.Y+m.H)
	if x1 >= x2 || y1 >= y2 {
		log(logger).Debug("detection region out of bounds", "region", result.Region)
		return result
	}

	rw, rh := x2-x1, y2-y1
	gray := grayRegion(img, image.Rect(x1, y1, x2, y2))
	grayUnit := scaled(gray, 1.0/255.0)
	alpha := alphaSlice(m, x1-pos.X, y1-pos.Y, rw, rh)

	// Stage 1: spatial structural correlation.
	result.SpatialScore = correlation(grayUnit, alpha)
	if result.SpatialScore < spatialGate {
		// Circuit breaker: no structural hint of the pattern, skip the
		// expensive stages entirely.
		result.Confidence = result.SpatialScore * 0.5
		log(logger).Debug("detection rejected by spatial gate",
			"spatial", result.SpatialScore, "gate", spatialGate)
		return result
	}

	// Stage 2: gradient-domain correlation of edge signatures.
	result.GradientScore = correlation(
		gradientMagnitude(grayUnit, rw, rh),
		gradientMagnitude(alpha, rw, rh),
	)

	// Stage 3: variance dampening against the strip directly above the
	// region. Overlays flatten high-frequency background texture.
	refH := min(y1, rule.Footprint)
	if refH > minRefStripHeight {
		refGray := grayRegion(img, image.Rect(x1, y1-refH, x2, y1))
		refStd := stat.PopStdDev(refGray, nil)
		if refStd > refStdDevFloor {
			regionStd := stat.PopStdDev(gray, nil)
			result.VarianceScore = clamp01(1 - regionStd/refStd)
		}
	}

	result.Confidence = clamp01(
		weightSpatial*result.SpatialScore +
			weightGradient*result.GradientScore +
			weightVariance*result.VarianceScore)
	result.Detected = result.Confidence >= decisionThreshold

	log(logger).Debug("detection scores",
		"spatial", result.SpatialScore,
		"gradient", result.GradientScore,
		"variance", result.VarianceScore,
		"confidence", result.Confidence,
		"detected", result.Detected)

	return result
}

// grayRegion extracts the region's luminance on a 0-255 scale using the
// BT.601 weights the original pipeline's grayscale conversion uses.
func grayRegion(img *image.RGBA, rect image.Rectangle) []float64 {
	out := make([]float64, 0, rect.Dx()*rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			off := img.PixOffset(x, y)
			r := float64(img.Pix[off])
			g := float64(img.Pix[off+1])
			b := float64(img.Pix[off+2])
			out = append(out, 0.299*r+0.587*g+0.114*b)
		}
	}
	return out
}

// alphaSlice copies the map's sub-rectangle starting at (ox, oy) into a
// flat field of rw x rh samples.
func alphaSlice(m *alphamap.Map, ox, oy, rw, rh int) []float64 {
	out := make([]float64, 0, rw*rh)
	for y := 0; y < rh; y++ {
		for x := 0; x < rw; x++ {
			out = append(out, m.At(ox+x, oy+y))
		}
	}
	return out
}

// correlation is the normalized cross-correlation of two equal-length
// fields: Pearson correlation, which is the zero-mean unit-variance template
// match. Constant fields have no defined correlation and score zero.
func correlation(a, b []float64) float64 {
	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func scaled(v []float64, f float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * f
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func log(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
