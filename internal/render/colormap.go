package render

import (
	"image/color"
	"math"

	"github.com/crazy3lf/colorconv"
)

// Blues maps v in [0,1] to a sequential white-to-navy colour. Values
// outside the range are clamped; NaN maps to white.
func Blues(v float64) color.RGBA {
	if math.IsNaN(v) {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	v = clamp01(v)
	h := 210 + 3*v
	s := 0.03 + 0.9*v
	l := 1 - 0.58*v
	r, g, b, err := colorconv.HSVToRGB(h, s, l)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Normalize maps v from [lo,hi] onto [0,1]. A degenerate range maps
// everything to 0.
func Normalize(v, lo, hi float64) float64 {
	if !(hi > lo) {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// CytoplasmColor is the agent fill colour for a mean internal density.
// Densities above 1 are rescaled by the order of magnitude of the initial
// internal density so that the red channel stays informative.
func CytoplasmColor(internal, initialInternal float64) color.RGBA {
	red := internal
	if red > 1 {
		scaling := 1.0
		if initialInternal > 0 {
			scaling = math.Trunc(math.Log10(initialInternal) + 1)
		}
		red = 10 * scaling / red
	}
	red = clamp01(red)
	return color.RGBA{R: uint8(math.Round(red * 255)), G: 128, B: 128, A: 255}
}

// NucleusColor fills every agent nucleus.
var NucleusColor = color.RGBA{R: 105, G: 105, B: 105, A: 255}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
