package frames

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/vk/pctransport/internal/ctxlog"
	"github.com/vk/pctransport/internal/fsutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgpdf"
)

// Grid dimensions of the composite.
const (
	GridRows = 4
	GridCols = 3
)

// CompositeBaseName is the file name stem of every composite artifact.
const CompositeBaseName = "ten_frames"

// ErrNoFrames is returned when a directory holds no indexed frame images.
var ErrNoFrames = errors.New("no frame images found")

// CompositeOptions configures the composite layout.
type CompositeOptions struct {
	// Prefix is the frame file name prefix before the index, e.g. "frame_".
	Prefix string
	// TileWidth is the width every frame is resized to. Zero keeps the
	// width of the first frame. Heights follow the first frame's aspect.
	TileWidth int
	// DPI is used to size the PDF page.
	DPI float64
	// JPEGQuality is the quality of the .jpg artifact.
	JPEGQuality int
}

func (o CompositeOptions) withDefaults() CompositeOptions {
	if o.DPI <= 0 {
		o.DPI = 200
	}
	if o.JPEGQuality <= 0 {
		o.JPEGQuality = 90
	}
	return o
}

// CompositeResult lists what WriteComposite produced.
type CompositeResult struct {
	Indices []int
	Files   []string
}

// Compose lays imgs out row-major on a GridRows x GridCols grid, resizing
// each to tileW x tileH with bilinear filtering. bg fills the canvas;
// a transparent bg yields a transparent composite.
func Compose(imgs []image.Image, tileW, tileH int, bg color.Color) (*image.RGBA, error) {
	if len(imgs) == 0 {
		return nil, ErrNoFrames
	}
	if len(imgs) > GridRows*GridCols {
		return nil, fmt.Errorf("%d frames do not fit a %dx%d grid", len(imgs), GridRows, GridCols)
	}
	if tileW <= 0 || tileH <= 0 {
		return nil, fmt.Errorf("invalid tile size %dx%d", tileW, tileH)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, GridCols*tileW, GridRows*tileH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	for i, img := range imgs {
		tile := transform.Resize(img, tileW, tileH, transform.Linear)
		x := (i % GridCols) * tileW
		y := (i / GridCols) * tileH
		r := image.Rect(x, y, x+tileW, y+tileH)
		draw.Draw(canvas, r, tile, image.Point{}, draw.Over)
	}
	return canvas, nil
}

// WriteComposite selects representative frames from the indexed PNG files
// in dir and writes the composite as JPEG, PNG, transparent PNG and PDF into
// the same directory.
func WriteComposite(ctx context.Context, dir string, opts CompositeOptions) (*CompositeResult, error) {
	logger := ctxlog.FromContext(ctx)
	opts = opts.withDefaults()

	files, err := fsutil.FindIndexed(dir, opts.Prefix, ".png")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoFrames)
	}

	byIndex := make(map[int]string, len(files))
	indices := make([]int, 0, len(files))
	for _, f := range files {
		byIndex[f.Index] = f.Path
		indices = append(indices, f.Index)
	}
	selected := Subsample(indices)
	logger.Debug("Representative frames selected.", "available", len(indices), "selected", selected)

	imgs := make([]image.Image, 0, len(selected))
	for _, idx := range selected {
		img, err := imgio.Open(byIndex[idx])
		if err != nil {
			return nil, fmt.Errorf("failed to open frame %d: %w", idx, err)
		}
		imgs = append(imgs, img)
	}

	b := imgs[0].Bounds()
	tileW, tileH := b.Dx(), b.Dy()
	if opts.TileWidth > 0 {
		tileH = tileH * opts.TileWidth / tileW
		tileW = opts.TileWidth
	}

	opaque, err := Compose(imgs, tileW, tileH, color.White)
	if err != nil {
		return nil, err
	}
	transparent, err := Compose(imgs, tileW, tileH, color.Transparent)
	if err != nil {
		return nil, err
	}

	res := &CompositeResult{Indices: selected}
	base := filepath.Join(dir, CompositeBaseName)
	outputs := []struct {
		path string
		img  image.Image
		enc  imgio.Encoder
	}{
		{base + ".jpg", opaque, imgio.JPEGEncoder(opts.JPEGQuality)},
		{base + ".png", opaque, imgio.PNGEncoder()},
		{base + "_transparent.png", transparent, imgio.PNGEncoder()},
	}
	for _, o := range outputs {
		if err := imgio.Save(o.path, o.img, o.enc); err != nil {
			return nil, fmt.Errorf("failed to save composite '%s': %w", o.path, err)
		}
		res.Files = append(res.Files, o.path)
	}

	pdfPath := base + ".pdf"
	if err := writePDF(pdfPath, opaque, opts.DPI); err != nil {
		return nil, err
	}
	res.Files = append(res.Files, pdfPath)

	logger.Info("Composite frames saved.", "dir", dir, "frames", len(selected))
	return res, nil
}

// writePDF places img on a single page sized from its pixel size at dpi.
func writePDF(path string, img image.Image, dpi float64) error {
	b := img.Bounds()
	w := vg.Length(float64(b.Dx()) / dpi * float64(vg.Inch))
	h := vg.Length(float64(b.Dy()) / dpi * float64(vg.Inch))

	c := vgpdf.New(w, h)
	c.DrawImage(vg.Rectangle{Max: vg.Point{X: w, Y: h}}, img)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write pdf '%s': %w", path, err)
	}
	return f.Close()
}
