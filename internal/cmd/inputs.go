package cmd

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sparkmark/sparkmark/internal/imgio"
)

// collectInputs expands the positional arguments into a flat list of image
// files. Directories are scanned one level deep for supported extensions.
func collectInputs(args []string) ([]string, error) {
	var inputs []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", arg, err)
		}

		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !imgio.IsSupportedInput(entry.Name()) {
				continue
			}
			inputs = append(inputs, filepath.Join(arg, entry.Name()))
		}
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("no image files found in %v", args)
	}
	return inputs, nil
}

// outputPathFor derives the output path for an input file. With no --output
// the result sits next to the input with the mode suffix; an --output
// directory keeps the original file name. WebP inputs are written as PNG
// since no encoder exists for WebP.
func outputPathFor(input, outputDir, suffix string) string {
	ext := filepath.Ext(input)
	if strings.EqualFold(ext, ".webp") || strings.EqualFold(ext, ".gif") {
		ext = ".png"
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	if outputDir != "" {
		return filepath.Join(outputDir, base+ext)
	}
	return filepath.Join(filepath.Dir(input), base+suffix+ext)
}

// parseRegion parses a custom watermark rectangle "x,y,width,height".
func parseRegion(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	vals := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		vals[i] = v
	}

	if vals[2] <= 0 || vals[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("region width and height must be positive, got %dx%d", vals[2], vals[3])
	}

	return image.Rect(vals[0], vals[1], vals[0]+vals[2], vals[1]+vals[3]), nil
}

// pngCompressionLevel maps the flag value to a png encoder level.
func pngCompressionLevel(name string) (png.CompressionLevel, error) {
	switch name {
	case "default", "":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return 0, fmt.Errorf("invalid png-compression %q: must be default, speed, best or none", name)
	}
}
