package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/pctransport/internal/ctxlog"
	"github.com/vk/pctransport/internal/fsutil"
	"github.com/vk/pctransport/internal/render"
	"github.com/vk/pctransport/internal/snapshot"
	"github.com/vk/pctransport/internal/table"
	"github.com/vk/pctransport/internal/transport"
)

// TimeseriesConfig configures the time-series flow.
type TimeseriesConfig struct {
	OutputFolder string
	Mechanism    transport.Mechanism
	Substrates   []string
	PlotsDir     string

	// FigOut and CSVOut override the joint figure and long-form CSV paths.
	// With several substrates the substrate name is appended to each.
	FigOut string
	CSVOut string

	// ExtractOnly writes the per-time simulation table to CSVOut (or
	// PlotsDir/simulation_table.csv) and stops.
	ExtractOnly bool
	// TablePath reads a previously extracted table instead of snapshots.
	TablePath string
	// Join writes only the joint figure.
	Join    bool
	Preview bool

	Stdout io.Writer
	Stderr io.Writer
}

// SubstrateArtifacts lists the files written for one substrate.
type SubstrateArtifacts struct {
	Substrate string
	Dir       string
	Files     []string
	Constants *transport.Constants
	// Skipped names the figures that could not be drawn.
	Skipped []string
}

// TimeseriesResult is the outcome of RunTimeseries.
type TimeseriesResult struct {
	// Missing is set when the output folder did not exist.
	Missing    bool
	TablePath  string
	Substrates []SubstrateArtifacts
}

// RunTimeseries loads the simulation table and writes every time-series
// artifact for each configured substrate.
func RunTimeseries(ctx context.Context, cfg TimeseriesConfig) (*TimeseriesResult, error) {
	logger := ctxlog.FromContext(ctx)
	if cfg.PlotsDir == "" {
		cfg.PlotsDir = DefaultPlotsDir
	}
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}
	if cfg.Stderr == nil {
		cfg.Stderr = io.Discard
	}

	res := &TimeseriesResult{}
	if cfg.TablePath == "" && !fsutil.IsDir(cfg.OutputFolder) {
		fmt.Fprintf(cfg.Stderr, "Output folder '%s' not found. Nothing to plot.\n", cfg.OutputFolder)
		res.Missing = true
		return res, nil
	}

	tbl, err := loadTable(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Simulation table loaded.", "rows", tbl.Len(), "columns", len(tbl.Columns()))

	if cfg.ExtractOnly {
		path := cfg.CSVOut
		if path == "" {
			path = filepath.Join(cfg.PlotsDir, TableCSV)
		}
		if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
		if err := tbl.WriteCSVFile(path); err != nil {
			return nil, err
		}
		logger.Info("Simulation table extracted.", "path", path)
		res.TablePath = path
		return res, nil
	}

	if len(cfg.Substrates) == 0 {
		return nil, errors.New("no substrate selected")
	}
	for _, s := range cfg.Substrates {
		art, err := runSubstrate(ctx, cfg, tbl, s)
		if err != nil {
			return nil, fmt.Errorf("substrate '%s': %w", s, err)
		}
		res.Substrates = append(res.Substrates, *art)
	}
	return res, nil
}

func loadTable(ctx context.Context, cfg TimeseriesConfig) (*table.Table, error) {
	if cfg.TablePath != "" {
		return table.ReadCSVFile(cfg.TablePath)
	}
	return snapshot.LoadTimeTable(ctx, cfg.OutputFolder)
}

func runSubstrate(ctx context.Context, cfg TimeseriesConfig, tbl *table.Table, substrate string) (*SubstrateArtifacts, error) {
	ctx = ctxlog.With(ctx, "substrate", substrate, "mechanism", cfg.Mechanism)
	logger := ctxlog.FromContext(ctx)
	multi := len(cfg.Substrates) > 1

	dir := TimeseriesDir(cfg.PlotsDir, cfg.Mechanism, substrate)
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, err
	}
	art := &SubstrateArtifacts{Substrate: substrate, Dir: dir}

	series, err := transport.Reshape(tbl, substrate, cfg.Mechanism)
	if err != nil {
		return nil, err
	}
	logger.Debug("Table reshaped.", "series", len(series))

	csvPath := filepath.Join(dir, SeriesCSV)
	if cfg.CSVOut != "" {
		csvPath = overridePath(cfg.CSVOut, substrate, multi)
	}
	if err := writeSeries(csvPath, series); err != nil {
		return nil, err
	}
	art.Files = append(art.Files, csvPath)

	consts, err := transport.ExtractConstants(tbl, substrate, cfg.Mechanism)
	if err != nil {
		return nil, err
	}
	infoPath := filepath.Join(dir, InfoFile)
	if err := consts.WriteFile(infoPath); err != nil {
		return nil, err
	}
	art.Constants = consts
	art.Files = append(art.Files, infoPath)

	figPath := filepath.Join(dir, JointFigure)
	if cfg.FigOut != "" {
		figPath = overridePath(cfg.FigOut, substrate, multi)
	}
	type figure struct {
		path   string
		shared bool
	}
	figures := []figure{{figPath, true}}
	if !cfg.Join {
		figures = append(figures, figure{filepath.Join(dir, IndividualFigure), false})
	}
	for _, f := range figures {
		if err := fsutil.EnsureDir(filepath.Dir(f.path)); err != nil {
			return nil, err
		}
		_, err := render.Timeseries(ctx, series, f.path, render.TimeseriesOptions{Shared: f.shared})
		switch {
		case errors.Is(err, render.ErrNothingToDraw):
			logger.Warn("Figure has no drawable panel, skipping.", "path", f.path)
			art.Skipped = append(art.Skipped, f.path)
		case err != nil:
			return nil, err
		default:
			art.Files = append(art.Files, f.path)
		}
	}

	densityPath := filepath.Join(dir, DensityFigure)
	if err := render.Density(tbl, substrate, densityPath, render.DensityOptions{}); err != nil {
		logger.Warn("Skipping density plot.", "error", err)
		art.Skipped = append(art.Skipped, densityPath)
	} else {
		logger.Info("Density plot saved.", "path", densityPath)
		art.Files = append(art.Files, densityPath)
	}

	if cfg.Preview {
		fmt.Fprint(cfg.Stdout, consts.String())
		if err := render.Preview(cfg.Stdout, series, 60); err != nil {
			return nil, fmt.Errorf("failed to write preview: %w", err)
		}
	}
	return art, nil
}

func writeSeries(path string, series []transport.Series) error {
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create series CSV '%s': %w", path, err)
	}
	if err := transport.WriteSeriesCSV(f, series); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
