// Package assets embeds the reference captures the watermark engine derives
// its opacity maps from: the watermark stamped over a pure black background
// at both canonical footprints.
package assets

import (
	"embed"
	"fmt"
)

//go:embed captures/*.png
var capturesFS embed.FS

// Capture returns the embedded PNG reference capture for the given footprint
// (48 or 96).
func Capture(footprint int) ([]byte, error) {
	data, err := capturesFS.ReadFile(fmt.Sprintf("captures/bg_%d.png", footprint))
	if err != nil {
		return nil, fmt.Errorf("no embedded capture for footprint %d: %w", footprint, err)
	}
	return data, nil
}
