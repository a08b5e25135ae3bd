package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/pctransport/internal/ctxlog"
	"github.com/vk/pctransport/internal/transport"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
)

// ErrNothingToDraw is returned when every panel of a figure was skipped.
var ErrNothingToDraw = errors.New("no drawable series")

// DefaultXLabel labels the time axis of every time-series panel.
const DefaultXLabel = "Simulation time (min)"

// TimeseriesOptions configures a stacked time-series figure.
type TimeseriesOptions struct {
	// Shared gives every panel the same time range.
	Shared      bool
	XLabel      string
	Width       vg.Length
	PanelHeight vg.Length
	DPI         int
}

func (o TimeseriesOptions) withDefaults() TimeseriesOptions {
	if o.XLabel == "" {
		o.XLabel = DefaultXLabel
	}
	if o.Width <= 0 {
		o.Width = 10 * vg.Inch
	}
	if o.PanelHeight <= 0 {
		o.PanelHeight = 3 * vg.Inch
	}
	if o.DPI <= 0 {
		o.DPI = 100
	}
	return o
}

// TimeseriesResult reports which panels were drawn.
type TimeseriesResult struct {
	Drawn   []string
	Skipped []string
}

// Timeseries draws one panel per series, stacked vertically, and saves the
// figure to path. The format follows the extension: .pdf or PNG otherwise.
func Timeseries(ctx context.Context, series []transport.Series, path string, opts TimeseriesOptions) (*TimeseriesResult, error) {
	logger := ctxlog.FromContext(ctx)
	opts = opts.withDefaults()

	res := &TimeseriesResult{}
	var plots [][]*plot.Plot
	xmin, xmax := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		p, lo, hi, err := seriesPlot(s, opts.XLabel)
		if err != nil {
			logger.Warn("Skipping series panel.", "category", s.Name(), "error", err)
			res.Skipped = append(res.Skipped, s.Name())
			continue
		}
		plots = append(plots, []*plot.Plot{p})
		res.Drawn = append(res.Drawn, s.Name())
		xmin, xmax = math.Min(xmin, lo), math.Max(xmax, hi)
	}
	if len(plots) == 0 {
		return res, ErrNothingToDraw
	}

	if opts.Shared {
		for _, row := range plots {
			row[0].X.Min, row[0].X.Max = xmin, xmax
		}
	}

	w := opts.Width
	h := opts.PanelHeight * vg.Length(len(plots))
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadY:      vg.Points(12),
		PadTop:    vg.Points(6),
		PadBottom: vg.Points(6),
		PadLeft:   vg.Points(6),
		PadRight:  vg.Points(12),
	}

	var out io.WriterTo
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		c := vgpdf.New(w, h)
		drawAligned(plots, tiles, draw.New(c))
		out = c
	} else {
		c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(opts.DPI))
		drawAligned(plots, tiles, draw.New(c))
		out = vgimg.PngCanvas{Canvas: c}
	}
	if err := writeFigure(path, out); err != nil {
		return res, err
	}

	logger.Info("Time-series figure saved.", "path", path, "panels", len(plots), "shared_x", opts.Shared)
	return res, nil
}

// writeFigure writes fig to path. A partially written file is removed.
func writeFigure(path string, fig io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create figure '%s': %w", path, err)
	}
	if _, err := fig.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write figure '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write figure '%s': %w", path, err)
	}
	return nil
}

func drawAligned(plots [][]*plot.Plot, tiles draw.Tiles, dc draw.Canvas) {
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}
}

// seriesPlot builds the panel of one series, one coloured line per
// variable, and returns its time range.
func seriesPlot(s transport.Series, xLabel string) (*plot.Plot, float64, float64, error) {
	vars := s.Variables()
	if len(vars) == 0 {
		return nil, 0, 0, errors.New("series has no points")
	}

	p := plot.New()
	p.X.Label.Text = xLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range vars {
		xs, ys := s.XY(v)
		xys := make(plotter.XYs, len(xs))
		for j := range xs {
			xys[j].X, xys[j].Y = xs[j], ys[j]
			lo, hi = math.Min(lo, xs[j]), math.Max(hi, xs[j])
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("variable %s: %w", v, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		points.Radius = vg.Points(2)

		p.Add(line, points)
		p.Legend.Add(s.Label(v), line, points)
	}
	return p, lo, hi, nil
}
