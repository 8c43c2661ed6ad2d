// Package alphamap builds and resamples the per-pixel opacity maps that
// describe the watermark's coverage at each footprint size.
package alphamap

// Map is a dense grid of opacity values in [0, 1]. Maps are immutable once
// built; Resample returns new instances instead of mutating.
type Map struct {
	Data []float64
	W    int
	H    int
}

// New allocates a zeroed map.
func New(w, h int) *Map {
	return &Map{W: w, H: h, Data: make([]float64, w*h)}
}

// At returns the opacity at (x, y). No bounds checking; callers iterate
// within the map's extent.
func (m *Map) At(x, y int) float64 {
	return m.Data[y*m.W+x]
}

func (m *Map) set(x, y int, v float64) {
	m.Data[y*m.W+x] = v
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	c := &Map{W: m.W, H: m.H, Data: make([]float64, len(m.Data))}
	copy(c.Data, m.Data)
	return c
}

// Equal reports whether two maps have identical dimensions and values.
func (m *Map) Equal(o *Map) bool {
	if m.W != o.W || m.H != o.H {
		return false
	}
	for i, v := range m.Data {
		if v != o.Data[i] {
			return false
		}
	}
	return true
}

// MinMax returns the smallest and largest opacity in the map.
func (m *Map) MinMax() (min, max float64) {
	if len(m.Data) == 0 {
		return 0, 0
	}
	min, max = m.Data[0], m.Data[0]
	for _, v := range m.Data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
