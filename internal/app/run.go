package app

import (
	"context"
	"fmt"

	"github.com/vk/pctransport/internal/ctxlog"
	"github.com/vk/pctransport/internal/pipeline"
	"github.com/vk/pctransport/internal/project"
	"github.com/vk/pctransport/internal/render"
	"github.com/vk/pctransport/internal/transport"
)

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger.With("command", string(a.config.Command)))
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	var err error
	switch a.config.Command {
	case CommandProject:
		err = a.runProject(ctx)
	case CommandTimeseries:
		err = a.runTimeseries(ctx)
	case CommandFrames:
		err = a.runFrames(ctx)
	default:
		err = fmt.Errorf("unknown command '%s'", a.config.Command)
	}
	if err != nil {
		return err
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) runProject(ctx context.Context) error {
	pc := a.config.Project
	report, err := project.Run(ctx, project.Options{
		Root:       pc.Root,
		Project:    pc.Name,
		RecipePath: pc.Recipe,
		Make:       pc.Make,
		GIF:        pc.GIF,
		Open:       pc.Open,
		Strict:     pc.Strict,
		Stdout:     a.outW,
		Stderr:     a.errW,
		Commander:  a.commander,
	})
	if err != nil {
		return fmt.Errorf("project run failed: %w", err)
	}
	if failed := report.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = f.Name
		}
		a.logger.Warn("Some project steps failed.", "steps", names)
	}
	return nil
}

func (a *App) runTimeseries(ctx context.Context) error {
	tc := a.config.Timeseries
	res, err := pipeline.RunTimeseries(ctx, pipeline.TimeseriesConfig{
		OutputFolder: tc.OutputFolder,
		Mechanism:    transport.Mechanism(tc.Mechanism),
		Substrates:   tc.Substrates,
		PlotsDir:     tc.PlotsDir,
		FigOut:       tc.FigOut,
		CSVOut:       tc.CSVOut,
		ExtractOnly:  tc.ExtractOnly,
		TablePath:    tc.TablePath,
		Join:         tc.Join,
		Preview:      tc.Preview,
		Stdout:       a.outW,
		Stderr:       a.errW,
	})
	if err != nil {
		return fmt.Errorf("timeseries failed: %w", err)
	}
	for _, s := range res.Substrates {
		a.logger.Info("Transport plots written.", "substrate", s.Substrate, "dir", s.Dir, "files", len(s.Files), "skipped", len(s.Skipped))
	}
	return nil
}

func (a *App) runFrames(ctx context.Context) error {
	fc := a.config.Frames
	mode, err := render.ParseFrameMode(fc.FrameType)
	if err != nil {
		return err
	}
	res, err := pipeline.RunFrames(ctx, pipeline.FramesConfig{
		OutputFolder: fc.OutputFolder,
		Substrate:    fc.Substrate,
		PlotsDir:     fc.PlotsDir,
		Mode:         mode,
		Delay:        fc.Delay,
		AVI:          fc.AVI,
		Stderr:       a.errW,
	})
	if err != nil {
		return fmt.Errorf("frames failed: %w", err)
	}
	if !res.Missing {
		a.logger.Info("Substrate animation written.", "gif", res.GIF, "frames", len(res.Frames))
	}
	return nil
}
