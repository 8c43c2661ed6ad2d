// Package imgio decodes and encodes raster images and normalizes pixel
// buffers for the watermark engine.
package imgio

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/webp" // register WebP decoder
)

// EncodeOptions control output encoding per format.
type EncodeOptions struct {
	PNGCompression png.CompressionLevel
	JPEGQuality    int
}

// DefaultEncodeOptions matches the quality settings the original tool uses:
// maximum JPEG quality so removal artifacts are not compounded by lossy
// re-encoding.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		PNGCompression: png.DefaultCompression,
		JPEGQuality:    100,
	}
}

// DecodeFile reads and decodes an image file. The returned format is the
// registered decoder name ("png", "jpeg", "webp", "gif").
func DecodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, format, nil
}

// EncodeFile writes an image, choosing the format from the output path's
// extension. Parent directories are created as needed. WebP output is not
// supported (no encoder in the Go ecosystem's x/image); callers get an
// explicit error instead of a silently wrong format.
func EncodeFile(path string, img image.Image, opts EncodeOptions) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	ext := strings.ToLower(filepath.Ext(path))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	defer f.Close()

	switch ext {
	case ".png":
		enc := png.Encoder{CompressionLevel: opts.PNGCompression}
		if err := enc.Encode(f, img); err != nil {
			return fmt.Errorf("failed to encode PNG %s: %w", path, err)
		}
	case ".jpg", ".jpeg":
		quality := opts.JPEGQuality
		if quality <= 0 {
			quality = 100
		}
		if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("failed to encode JPEG %s: %w", path, err)
		}
	case ".webp":
		return fmt.Errorf("webp encoding is not supported, write %s as .png instead", path)
	default:
		return fmt.Errorf("unsupported output format %q for %s", ext, path)
	}

	return nil
}

// ToRGBA normalizes any decoded image to a mutable 8-bit RGBA buffer. This
// is the channel-count normalization step: grayscale and paletted inputs
// come out as full-color, and premultiplied formats are flattened. When the
// input already is *image.RGBA it is returned as-is, so engine operations
// mutate the caller's buffer in place.
func ToRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}

// IsSupportedInput reports whether a file name looks like an image the
// decoder can read. Used when scanning directories in batch mode.
func IsSupportedInput(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return true
	default:
		return false
	}
}
