package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"strconv"

	"github.com/vk/pctransport/internal/snapshot"
	"gonum.org/v1/gonum/floats"
)

// FrameMode selects what a substrate frame shows.
type FrameMode string

const (
	// ModeAgentsMicroenv draws the field with the agents on top.
	ModeAgentsMicroenv FrameMode = "agents_microenv"
	// ModeMicroenv draws the field and a colour bar, without agents.
	ModeMicroenv FrameMode = "microenv"
)

// ParseFrameMode validates a frame type name.
func ParseFrameMode(s string) (FrameMode, error) {
	switch m := FrameMode(s); m {
	case ModeAgentsMicroenv, ModeMicroenv:
		return m, nil
	}
	return "", fmt.Errorf("unknown frame type '%s', want %s or %s", s, ModeAgentsMicroenv, ModeMicroenv)
}

// Agent is a disc drawn over the field. Coordinates and radii are in
// mesh units.
type Agent struct {
	X, Y          float64
	Radius        float64
	NucleusRadius float64
	Color         color.Color
}

// VolumeRadius returns the radius of a sphere of the given volume.
func VolumeRadius(volume float64) float64 {
	if volume <= 0 || math.IsNaN(volume) {
		return 0
	}
	return math.Cbrt(3 * volume / (4 * math.Pi))
}

// FrameData is everything needed to draw one substrate frame.
type FrameData struct {
	Time   float64
	Field  *snapshot.Field
	Agents []Agent
	// Levels is the concentration range mapped onto the colormap. An empty
	// range is replaced by the field's own range.
	Levels [2]float64
}

// FrameOptions sizes a frame.
type FrameOptions struct {
	Mode FrameMode
	// Width of the field area in pixels.
	Width int
}

const (
	titleHeight   = 36
	framePadding  = 8
	colorbarWidth = 90
	titleSize     = 20
)

// FrameLevels chooses the colour range of a frame from the initial
// internal and external densities and the current external density near
// the agents.
func FrameLevels(mode FrameMode, initialInternal, initialExternal, external float64) [2]float64 {
	ascending := initialExternal > initialInternal
	switch {
	case mode == ModeMicroenv && ascending:
		return [2]float64{0, initialExternal}
	case mode == ModeMicroenv:
		return [2]float64{initialExternal, 1}
	case ascending:
		return [2]float64{0, initialExternal}
	default:
		return [2]float64{0, external + 1e-12}
	}
}

// FieldRange returns the smallest and largest defined values of f.
func FieldRange(f *snapshot.Field) (float64, float64, bool) {
	var vals []float64
	for _, row := range f.Values {
		for _, v := range row {
			if !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return 0, 0, false
	}
	return floats.Min(vals), floats.Max(vals), true
}

// SubstrateFrame rasterises fd into an image: a title line, the
// concentration field, and either the agents or a colour bar.
func SubstrateFrame(fd FrameData, opts FrameOptions) (*image.RGBA, error) {
	if fd.Field == nil || len(fd.Field.X) == 0 || len(fd.Field.Y) == 0 {
		return nil, errors.New("frame has no concentration field")
	}
	if opts.Mode == "" {
		opts.Mode = ModeAgentsMicroenv
	}
	if opts.Width <= 0 {
		opts.Width = 600
	}

	minX, maxX := cellEdges(fd.Field.X)
	minY, maxY := cellEdges(fd.Field.Y)
	scale := float64(opts.Width) / (maxX - minX)
	height := int(math.Round((maxY - minY) * scale))
	if height <= 0 {
		height = 1
	}

	lo, hi := fd.Levels[0], fd.Levels[1]
	if !(hi > lo) {
		var ok bool
		if lo, hi, ok = FieldRange(fd.Field); !ok {
			return nil, errors.New("frame field has no defined values")
		}
	}

	width := opts.Width + 2*framePadding
	if opts.Mode == ModeMicroenv {
		width += colorbarWidth
	}
	img := image.NewRGBA(image.Rect(0, 0, width, titleHeight+height+framePadding))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(framePadding, titleHeight, framePadding+opts.Width, titleHeight+height)
	for py := area.Min.Y; py < area.Max.Y; py++ {
		y := maxY - (float64(py-area.Min.Y)+0.5)/scale
		j := nearestIndex(fd.Field.Y, y)
		for px := area.Min.X; px < area.Max.X; px++ {
			x := minX + (float64(px-area.Min.X)+0.5)/scale
			i := nearestIndex(fd.Field.X, x)
			img.SetRGBA(px, py, Blues(Normalize(fd.Field.Values[j][i], lo, hi)))
		}
	}

	toPixel := func(x, y float64) (float64, float64) {
		return float64(area.Min.X) + (x-minX)*scale, float64(area.Min.Y) + (maxY-y)*scale
	}

	switch opts.Mode {
	case ModeAgentsMicroenv:
		for _, a := range fd.Agents {
			cx, cy := toPixel(a.X, a.Y)
			c := a.Color
			if c == nil {
				c = CytoplasmColor(0, 0)
			}
			fillDisc(img, area, cx, cy, a.Radius*scale, c)
			fillDisc(img, area, cx, cy, a.NucleusRadius*scale, NucleusColor)
		}
	case ModeMicroenv:
		drawColorbar(img, image.Rect(area.Max.X+20, area.Min.Y, area.Max.X+40, area.Max.Y), lo, hi)
	default:
		return nil, fmt.Errorf("unknown frame type '%s'", opts.Mode)
	}

	title := "Simulation at t=" + strconv.FormatFloat(roundTo3(fd.Time), 'f', -1, 64) + " min"
	if err := drawTitle(img, title, framePadding, titleHeight-10, titleSize); err != nil {
		return nil, err
	}
	return img, nil
}

// cellEdges returns the outer voxel edges of a sorted centre axis.
func cellEdges(centres []float64) (float64, float64) {
	if len(centres) == 1 {
		return centres[0] - 0.5, centres[0] + 0.5
	}
	first := (centres[1] - centres[0]) / 2
	last := (centres[len(centres)-1] - centres[len(centres)-2]) / 2
	return centres[0] - first, centres[len(centres)-1] + last
}

func nearestIndex(sorted []float64, v float64) int {
	i := sort.SearchFloat64s(sorted, v)
	switch {
	case i == 0:
		return 0
	case i == len(sorted):
		return len(sorted) - 1
	case v-sorted[i-1] <= sorted[i]-v:
		return i - 1
	default:
		return i
	}
}

func fillDisc(img *image.RGBA, clip image.Rectangle, cx, cy, r float64, c color.Color) {
	if r <= 0 {
		return
	}
	rect := image.Rect(int(math.Floor(cx-r)), int(math.Floor(cy-r)), int(math.Ceil(cx+r))+1, int(math.Ceil(cy+r))+1).Intersect(clip)
	for py := rect.Min.Y; py < rect.Max.Y; py++ {
		for px := rect.Min.X; px < rect.Max.X; px++ {
			dx, dy := float64(px)+0.5-cx, float64(py)+0.5-cy
			if dx*dx+dy*dy <= r*r {
				img.Set(px, py, c)
			}
		}
	}
}

func drawColorbar(img *image.RGBA, bar image.Rectangle, lo, hi float64) {
	h := bar.Dy()
	for py := bar.Min.Y; py < bar.Max.Y; py++ {
		v := 1 - float64(py-bar.Min.Y)/float64(max(h-1, 1))
		c := Blues(v)
		for px := bar.Min.X; px < bar.Max.X; px++ {
			img.SetRGBA(px, py, c)
		}
	}
	drawLabel(img, strconv.FormatFloat(roundTo3(hi), 'g', 4, 64), bar.Max.X+4, bar.Min.Y+10)
	drawLabel(img, strconv.FormatFloat(roundTo3(lo), 'g', 4, 64), bar.Max.X+4, bar.Max.Y)
}

func roundTo3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
