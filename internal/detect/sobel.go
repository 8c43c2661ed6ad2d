package detect

import "math"

// gradientMagnitude computes the Sobel 3x3 first-derivative magnitude of a
// w x h scalar field. Borders are handled by mirror reflection (the sample
// beyond the edge is the one just inside it), so the output has the same
// dimensions as the input.
func gradientMagnitude(field []float64, w, h int) []float64 {
	out := make([]float64, w*h)
	if w < 2 || h < 2 {
		return out
	}

	reflect := func(i, n int) int {
		if i < 0 {
			return -i
		}
		if i >= n {
			return 2*n - 2 - i
		}
		return i
	}
	at := func(x, y int) float64 {
		return field[reflect(y, h)*w+reflect(x, w)]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			out[y*w+x] = math.Hypot(gx, gy)
		}
	}
	return out
}
