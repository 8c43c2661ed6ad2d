// Package engine orchestrates watermark removal, application and detection
// around the two canonical opacity maps.
package engine

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/sparkmark/sparkmark/assets"
	"github.com/sparkmark/sparkmark/internal/alphamap"
	"github.com/sparkmark/sparkmark/internal/blend"
	"github.com/sparkmark/sparkmark/internal/detect"
	"github.com/sparkmark/sparkmark/internal/imgio"
	"github.com/sparkmark/sparkmark/internal/placement"
)

// ErrEmptyImage is returned when an operation is handed a nil or zero-area
// image buffer.
var ErrEmptyImage = errors.New("empty image provided")

// Engine holds the two canonical opacity maps. It is immutable after
// construction and safe for concurrent use as long as callers do not share
// a single image buffer across concurrent calls.
type Engine struct {
	small     *alphamap.Map
	large     *alphamap.Map
	logger    *slog.Logger
	logoValue float64
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger directs the engine's diagnostics to the given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLogoValue overrides the foreground intensity blended at full opacity.
// The generator's logo is white, so the default is 255.
func WithLogoValue(v float64) Option {
	return func(e *Engine) { e.logoValue = v }
}

// New constructs an engine from the embedded reference captures.
func New(opts ...Option) (*Engine, error) {
	smallData, err := assets.Capture(48)
	if err != nil {
		return nil, err
	}
	largeData, err := assets.Capture(96)
	if err != nil {
		return nil, err
	}
	return fromCaptureData(smallData, largeData, opts...)
}

// NewFromFiles constructs an engine from two reference capture files. A
// capture that fails to decode is fatal: no valid engine exists without
// both maps.
func NewFromFiles(smallPath, largePath string, opts ...Option) (*Engine, error) {
	smallData, err := os.ReadFile(smallPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read small capture %s: %w", smallPath, err)
	}
	largeData, err := os.ReadFile(largePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read large capture %s: %w", largePath, err)
	}
	return fromCaptureData(smallData, largeData, opts...)
}

func fromCaptureData(smallData, largeData []byte, opts ...Option) (*Engine, error) {
	e := &Engine{logoValue: blend.DefaultLogoValue}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.small, err = alphamap.DecodeCapture(smallData, 48, e.logger); err != nil {
		return nil, fmt.Errorf("small capture: %w", err)
	}
	if e.large, err = alphamap.DecodeCapture(largeData, 96, e.logger); err != nil {
		return nil, fmt.Errorf("large capture: %w", err)
	}

	min, max := e.large.MinMax()
	e.log().Debug("alpha maps loaded",
		"small", fmt.Sprintf("%dx%d", e.small.W, e.small.H),
		"large", fmt.Sprintf("%dx%d", e.large.W, e.large.H),
		"large_alpha_min", min, "large_alpha_max", max)

	return e, nil
}

// Remove strips the watermark at its automatic placement, resolving the size
// class from the image dimensions unless force overrides it. The image is
// normalized to RGBA and mutated in place; the normalized buffer is
// returned.
func (e *Engine) Remove(img image.Image, force placement.Size) (*image.RGBA, error) {
	return e.composite(img, force, blend.Remove, "removing watermark")
}

// Add composites the watermark at its automatic placement.
func (e *Engine) Add(img image.Image, force placement.Size) (*image.RGBA, error) {
	return e.composite(img, force, blend.Apply, "adding watermark")
}

type blendFunc func(*image.RGBA, *alphamap.Map, image.Point, float64)

func (e *Engine) composite(img image.Image, force placement.Size, op blendFunc, action string) (*image.RGBA, error) {
	rgba, err := e.normalize(img)
	if err != nil {
		return nil, err
	}

	b := rgba.Bounds()
	size := placement.Resolve(force, b.Dx(), b.Dy())
	rule := placement.RuleFor(size)
	pos := rule.Position(b.Dx(), b.Dy())
	m := e.alphaMap(size)

	e.log().Debug(action, "x", pos.X, "y", pos.Y, "size", size.String(), "footprint", m.W)
	op(rgba, m, pos, e.logoValue)
	return rgba, nil
}

// RemoveCustom strips the watermark from an explicit rectangle. Rectangles
// matching a canonical footprint reuse that map verbatim, avoiding
// resampling error; any other size gets an interpolated map derived from
// the 96x96 original.
func (e *Engine) RemoveCustom(img image.Image, region image.Rectangle) (*image.RGBA, error) {
	return e.compositeCustom(img, region, blend.Remove, "removing watermark in custom region")
}

// AddCustom composites the watermark into an explicit rectangle.
func (e *Engine) AddCustom(img image.Image, region image.Rectangle) (*image.RGBA, error) {
	return e.compositeCustom(img, region, blend.Apply, "adding watermark in custom region")
}

func (e *Engine) compositeCustom(img image.Image, region image.Rectangle, op blendFunc, action string) (*image.RGBA, error) {
	rgba, err := e.normalize(img)
	if err != nil {
		return nil, err
	}
	if region.Dx() <= 0 || region.Dy() <= 0 {
		return nil, fmt.Errorf("invalid custom region %v", region)
	}

	m := e.customAlphaMap(region.Dx(), region.Dy())
	e.log().Debug(action, "x", region.Min.X, "y", region.Min.Y,
		"width", region.Dx(), "height", region.Dy())
	op(rgba, m, region.Min, e.logoValue)
	return rgba, nil
}

// customAlphaMap returns a map for an arbitrary region size. Canonical
// sizes pass through untouched; everything else is resampled from the large
// map, the highest-resolution source.
func (e *Engine) customAlphaMap(w, h int) *alphamap.Map {
	switch {
	case w == e.small.W && h == e.small.H:
		return e.small
	case w == e.large.W && h == e.large.H:
		return e.large
	default:
		return e.large.Resample(w, h)
	}
}

// Detect scores the automatic watermark region, resolving the size class
// unless force overrides it. An empty image is an error; a region that
// falls outside the image degrades to a zero-confidence result.
func (e *Engine) Detect(img image.Image, force placement.Size) (detect.Result, error) {
	rgba, err := e.normalize(img)
	if err != nil {
		return detect.Result{}, err
	}

	b := rgba.Bounds()
	size := placement.Resolve(force, b.Dx(), b.Dy())
	return detect.Run(rgba, e.alphaMap(size), size, e.logger), nil
}

func (e *Engine) alphaMap(size placement.Size) *alphamap.Map {
	if size == placement.SizeLarge {
		return e.large
	}
	return e.small
}

func (e *Engine) normalize(img image.Image) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}
	return imgio.ToRGBA(img), nil
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}
