// Package placement maps image dimensions to the watermark size class and
// the pixel region the generator stamps in the bottom-right corner.
package placement

import "image"

// Size identifies the watermark footprint. SizeAuto lets callers defer the
// choice to Classify.
type Size uint8

const (
	SizeAuto Size = iota
	SizeSmall
	SizeLarge
)

func (s Size) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeLarge:
		return "large"
	default:
		return "auto"
	}
}

// Rule describes where a watermark of a given footprint sits relative to the
// bottom-right corner of an image.
type Rule struct {
	MarginRight  int
	MarginBottom int
	Footprint    int
}

// Classify returns the watermark size for an image. The generator uses the
// large 96x96 mark only when both dimensions strictly exceed 1024; a
// 1024x1024 image still gets the small mark.
func Classify(width, height int) Size {
	if width > 1024 && height > 1024 {
		return SizeLarge
	}
	return SizeSmall
}

// RuleFor returns the placement rule for a resolved size. SizeAuto is not a
// resolved size; it falls through to the small rule.
func RuleFor(size Size) Rule {
	if size == SizeLarge {
		return Rule{MarginRight: 64, MarginBottom: 64, Footprint: 96}
	}
	return Rule{MarginRight: 32, MarginBottom: 32, Footprint: 48}
}

// Resolve applies Classify when size is SizeAuto, otherwise returns size
// unchanged.
func Resolve(size Size, width, height int) Size {
	if size == SizeAuto {
		return Classify(width, height)
	}
	return size
}

// Position computes the top-left pixel of the watermark. Coordinates may be
// negative for images smaller than margin+footprint; callers clamp against
// image bounds when intersecting.
func (r Rule) Position(width, height int) image.Point {
	return image.Point{
		X: width - r.MarginRight - r.Footprint,
		Y: height - r.MarginBottom - r.Footprint,
	}
}

// Region returns the full (unclamped) watermark rectangle.
func (r Rule) Region(width, height int) image.Rectangle {
	p := r.Position(width, height)
	return image.Rect(p.X, p.Y, p.X+r.Footprint, p.Y+r.Footprint)
}
