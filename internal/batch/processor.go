// Package batch processes image files through the watermark engine: decode,
// optional detection gating, remove or add, encode.
package batch

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/sparkmark/sparkmark/internal/engine"
	"github.com/sparkmark/sparkmark/internal/imgio"
	"github.com/sparkmark/sparkmark/internal/placement"
)

// Mode selects the direction of the transform.
type Mode string

const (
	ModeRemove Mode = "remove"
	ModeAdd    Mode = "add"
)

// Status classifies a non-failed outcome.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
)

// Outcome describes what happened to one file. Failures are reported as
// errors, not outcomes.
type Outcome struct {
	Status     Status
	Confidence float64
	Message    string
}

// Config holds the per-run processing policy.
type Config struct {
	Mode Mode
	// Force pins the watermark size class; SizeAuto resolves from image
	// dimensions.
	Force placement.Size
	// Region, when non-nil, switches to custom-rectangle mode and disables
	// detection gating.
	Region *image.Rectangle
	// UseDetection gates removal on the detector: files whose confidence
	// falls below Threshold are skipped. Only meaningful for ModeRemove.
	UseDetection bool
	// Threshold is the skip policy's confidence floor. This is the CLI
	// policy knob, separate from the detector's internal decision
	// threshold.
	Threshold float64
	Encode    imgio.EncodeOptions
}

// Processor applies one engine and one policy to many files.
type Processor struct {
	engine *engine.Engine
	cfg    Config
	logger *slog.Logger
}

// NewProcessor builds a processor around a constructed engine.
func NewProcessor(eng *engine.Engine, cfg Config, logger *slog.Logger) *Processor {
	return &Processor{engine: eng, cfg: cfg, logger: logger}
}

// Process runs one file through the pipeline and writes the result to
// outputPath. Skipped files produce no output file.
func (p *Processor) Process(ctx context.Context, inputPath, outputPath string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	img, format, err := imgio.DecodeFile(inputPath)
	if err != nil {
		return Outcome{}, err
	}
	b := img.Bounds()
	p.log().Info("processing image",
		"input", inputPath, "format", format,
		"width", b.Dx(), "height", b.Dy())

	var confidence float64
	if p.cfg.Mode == ModeRemove && p.cfg.UseDetection && p.cfg.Region == nil {
		res, err := p.engine.Detect(img, p.cfg.Force)
		if err != nil {
			return Outcome{}, err
		}
		confidence = res.Confidence

		if !res.Detected && res.Confidence < p.cfg.Threshold {
			msg := fmt.Sprintf("no watermark detected (%.0f%%), skipped", res.Confidence*100)
			p.log().Info(msg,
				"input", inputPath,
				"spatial", res.SpatialScore,
				"gradient", res.GradientScore,
				"variance", res.VarianceScore)
			return Outcome{Status: StatusSkipped, Confidence: confidence, Message: msg}, nil
		}
		p.log().Info("watermark detected", "input", inputPath, "confidence", res.Confidence)
	}

	out, err := p.transform(img)
	if err != nil {
		return Outcome{}, err
	}

	if err := imgio.EncodeFile(outputPath, out, p.cfg.Encode); err != nil {
		return Outcome{}, err
	}

	msg := "watermark removed"
	if p.cfg.Mode == ModeAdd {
		msg = "watermark added"
	}
	p.log().Info("saved", "output", outputPath)
	return Outcome{Status: StatusProcessed, Confidence: confidence, Message: msg}, nil
}

func (p *Processor) transform(img image.Image) (image.Image, error) {
	switch {
	case p.cfg.Region != nil && p.cfg.Mode == ModeRemove:
		return p.engine.RemoveCustom(img, *p.cfg.Region)
	case p.cfg.Region != nil:
		return p.engine.AddCustom(img, *p.cfg.Region)
	case p.cfg.Mode == ModeRemove:
		return p.engine.Remove(img, p.cfg.Force)
	default:
		return p.engine.Add(img, p.cfg.Force)
	}
}

func (p *Processor) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}
