// Package render draws transport series, density curves and substrate
// frames to image files. Renderers degrade per panel: a series that cannot
// be drawn is skipped and reported, it does not abort the figure.
package render
