package render

import (
	"fmt"
	"math"
	"os"

	"github.com/vk/pctransport/internal/table"
	"github.com/vk/pctransport/internal/transport"
	"github.com/wcharczuk/go-chart/v2"
)

// DensityOptions sizes the density chart in pixels.
type DensityOptions struct {
	Width  int
	Height int
}

// Density plots the mean internal density of substrate against the
// external density near agents on twin Y axes and saves it as PNG. The
// initial-condition row is left out.
func Density(t *table.Table, substrate, path string, opts DensityOptions) error {
	if opts.Width <= 0 {
		opts.Width = 1400
	}
	if opts.Height <= 0 {
		opts.Height = 400
	}

	work := t.DropFirst(1)
	internalCol := "I_" + substrate
	externalCol := "E_" + substrate + "_near"
	times, ok := work.Column(table.TimeColumn)
	if !ok {
		return fmt.Errorf("%w: %s", transport.ErrMissingColumn, table.TimeColumn)
	}
	internal, ok := work.Column(internalCol)
	if !ok {
		return fmt.Errorf("%w: %s", transport.ErrMissingColumn, internalCol)
	}
	external, ok := work.Column(externalCol)
	if !ok {
		return fmt.Errorf("%w: %s", transport.ErrMissingColumn, externalCol)
	}

	var xs, in, ex []float64
	for i := range times {
		if math.IsNaN(internal[i]) || math.IsNaN(external[i]) {
			continue
		}
		xs = append(xs, times[i])
		in = append(in, internal[i])
		ex = append(ex, external[i])
	}
	if len(xs) < 2 {
		return fmt.Errorf("density chart of '%s' needs at least 2 points, have %d", substrate, len(xs))
	}

	graph := chart.Chart{
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			Name: DefaultXLabel,
		},
		YAxis: chart.YAxis{
			Name:      "Internal density (mM)",
			NameStyle: chart.Style{FontColor: chart.ColorBlue},
		},
		YAxisSecondary: chart.YAxis{
			Name:      "External density (mM)",
			NameStyle: chart.Style{FontColor: chart.ColorGreen},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    internalCol,
				XValues: xs,
				YValues: in,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 3},
			},
			chart.ContinuousSeries{
				Name:    externalCol,
				YAxis:   chart.YAxisSecondary,
				XValues: xs,
				YValues: ex,
				Style:   chart.Style{StrokeColor: chart.ColorGreen, StrokeWidth: 3},
			},
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create density chart '%s': %w", path, err)
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render density chart: %w", err)
	}
	return f.Close()
}
