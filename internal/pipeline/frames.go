package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/vk/pctransport/internal/animate"
	"github.com/vk/pctransport/internal/ctxlog"
	"github.com/vk/pctransport/internal/frames"
	"github.com/vk/pctransport/internal/fsutil"
	"github.com/vk/pctransport/internal/render"
	"github.com/vk/pctransport/internal/snapshot"
)

// FramesConfig configures the frames flow.
type FramesConfig struct {
	OutputFolder string
	Substrate    string
	PlotsDir     string
	Mode         render.FrameMode
	// Width of the field area of each frame in pixels.
	Width int
	// Delay between GIF frames in hundredths of a second.
	Delay int
	AVI   bool

	Stderr io.Writer
}

// FramesResult is the outcome of RunFrames.
type FramesResult struct {
	Missing   bool
	Dir       string
	Frames    []string
	GIF       string
	AVI       string
	Composite *frames.CompositeResult
}

// RunFrames renders one frame per snapshot, then the animation and the
// composite of representative frames. Frames of previous runs are removed
// first.
func RunFrames(ctx context.Context, cfg FramesConfig) (*FramesResult, error) {
	if cfg.PlotsDir == "" {
		cfg.PlotsDir = DefaultPlotsDir
	}
	if cfg.Mode == "" {
		cfg.Mode = render.ModeAgentsMicroenv
	}
	if cfg.Stderr == nil {
		cfg.Stderr = io.Discard
	}
	ctx = ctxlog.With(ctx, "substrate", cfg.Substrate)
	logger := ctxlog.FromContext(ctx)

	res := &FramesResult{}
	if !fsutil.IsDir(cfg.OutputFolder) {
		fmt.Fprintf(cfg.Stderr, "Output folder '%s' not found. Nothing to animate.\n", cfg.OutputFolder)
		res.Missing = true
		return res, nil
	}

	entries, err := snapshot.List(cfg.OutputFolder)
	if err != nil {
		return nil, err
	}

	res.Dir = FramesDir(cfg.PlotsDir, cfg.Substrate)
	if err := fsutil.EnsureDir(res.Dir); err != nil {
		return nil, err
	}
	removed, err := removeFrames(res.Dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Previous frames removed.", "dir", res.Dir, "count", removed)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := snapshot.Load(e.Path)
		if err != nil {
			return nil, err
		}
		fd, err := frameData(s, cfg.Substrate, cfg.Mode)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", e.Index, err)
		}
		img, err := render.SubstrateFrame(*fd, render.FrameOptions{Mode: cfg.Mode, Width: cfg.Width})
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", e.Index, err)
		}
		path := filepath.Join(res.Dir, strconv.Itoa(e.Index)+".png")
		if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
			return nil, fmt.Errorf("failed to save frame '%s': %w", path, err)
		}
		res.Frames = append(res.Frames, path)
		logger.Debug("Frame rendered.", "index", e.Index, "time", s.Time)
	}
	logger.Info("Substrate frames rendered.", "dir", res.Dir, "frames", len(res.Frames), "mode", cfg.Mode)

	res.GIF = filepath.Join(res.Dir, GIFName)
	if err := animate.GIF(ctx, res.GIF, res.Frames, cfg.Delay); err != nil {
		return nil, err
	}
	if cfg.AVI {
		res.AVI = filepath.Join(res.Dir, AVIName)
		if err := animate.AVI(ctx, res.AVI, res.Frames, animate.FPS(cfg.Delay)); err != nil {
			return nil, err
		}
	}

	if res.Composite, err = frames.WriteComposite(ctx, res.Dir, frames.CompositeOptions{}); err != nil {
		return nil, err
	}
	return res, nil
}

// removeFrames deletes every PNG in dir, composites included.
func removeFrames(dir string) (int, error) {
	paths, err := fsutil.FindFilesByExtension(dir, ".png")
	if err != nil {
		return 0, err
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			return 0, fmt.Errorf("failed to remove old frame: %w", err)
		}
	}
	return len(paths), nil
}

// frameData builds the drawing input of one snapshot. Colour levels and
// the cytoplasm colour come from the first agent, as every agent shares
// the initial conditions.
func frameData(s *snapshot.Snapshot, substrate string, mode render.FrameMode) (*render.FrameData, error) {
	field, err := s.Concentration(substrate)
	if err != nil {
		return nil, err
	}
	fd := &render.FrameData{Time: s.Time, Field: field}

	cells := s.Cells
	first := func(name string) (float64, bool) {
		v, ok := cells.Value(0, name)
		return v, ok && !math.IsNaN(v)
	}
	initI, okI := first("Initial_I_" + substrate)
	initE, okE := first("Initial_E_" + substrate)
	nearE, okNear := first("E_" + substrate + "_near")
	if okI && okE && (okNear || mode == render.ModeMicroenv) {
		fd.Levels = render.FrameLevels(mode, initI, initE, nearE)
	}
	internal, _ := first("I_" + substrate)
	cytoplasm := render.CytoplasmColor(internal, initI)

	xs, okX := cells.Column("position_x")
	ys, okY := cells.Column("position_y")
	if !okX || !okY {
		return fd, nil
	}
	vols, _ := cells.Column("total_volume")
	nuclei, _ := cells.Column("nuclear_volume")
	for r := range xs {
		a := render.Agent{X: xs[r], Y: ys[r], Color: cytoplasm}
		if vols != nil {
			a.Radius = render.VolumeRadius(vols[r])
		}
		if nuclei != nil {
			a.NucleusRadius = render.VolumeRadius(nuclei[r])
		}
		fd.Agents = append(fd.Agents, a)
	}
	return fd, nil
}
