package app_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pctransport/internal/app"
	"github.com/vk/pctransport/internal/pipeline"
	"github.com/vk/pctransport/internal/project"
	"github.com/vk/pctransport/internal/testutil"
	"github.com/vk/pctransport/internal/transport"
)

type recordingCommander struct {
	mu    sync.Mutex
	calls []string
	fail  string
}

func (r *recordingCommander) Run(_ context.Context, _, command string, _, _ io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, command)
	if command == r.fail {
		return errors.New("exit status 1")
	}
	return nil
}

func TestApp_Project(t *testing.T) {
	t.Parallel()
	cmd := &recordingCommander{fail: "make"}
	cfg := &app.Config{
		Command: app.CommandProject,
		Project: app.ProjectConfig{Root: t.TempDir(), Name: "heat_BM", Make: true},
	}

	result := testutil.RunApp(t, cfg, app.WithCommander(cmd))

	require.NoError(t, result.Err)
	assert.Contains(t, cmd.calls, "./heat_BM")
	assert.Contains(t, result.LogOutput, "Some project steps failed.")
	testutil.AssertStepRan(t, result, "compile")
	testutil.AssertStepRan(t, result, "simulate")
	testutil.AssertStepSkipped(t, result, "remove_stale_binaries")
	testutil.AssertStepSkipped(t, result, "open")
}

func TestApp_ProjectStrict(t *testing.T) {
	t.Parallel()
	cmd := &recordingCommander{fail: "make reset"}
	cfg := &app.Config{
		Command: app.CommandProject,
		Project: app.ProjectConfig{Root: t.TempDir(), Strict: true},
	}

	result := testutil.RunApp(t, cfg, app.WithCommander(cmd))

	require.ErrorIs(t, result.Err, project.ErrStepFailed)
	assert.Equal(t, []string{"make reset"}, cmd.calls)
}

func TestApp_ProjectMissingRoot(t *testing.T) {
	t.Parallel()
	cmd := &recordingCommander{}
	cfg := &app.Config{
		Command: app.CommandProject,
		Project: app.ProjectConfig{Root: filepath.Join(t.TempDir(), "missing")},
	}

	result := testutil.RunApp(t, cfg, app.WithCommander(cmd))

	require.NoError(t, result.Err)
	assert.Empty(t, cmd.calls)
	assert.Contains(t, result.ErrOutput, "not found")
}

func TestApp_Timeseries(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "output")
	testutil.WriteSnapshotFolder(t, out, testutil.GlucoseFixture())
	plots := t.TempDir()
	cfg := &app.Config{
		Command: app.CommandTimeseries,
		Timeseries: app.TimeseriesConfig{
			OutputFolder: out,
			Mechanism:    string(transport.SimpleDiffusion),
			Substrates:   []string{"glucose"},
			PlotsDir:     plots,
			Join:         true,
		},
	}

	result := testutil.RunApp(t, cfg)

	require.NoError(t, result.Err)
	dir := pipeline.TimeseriesDir(plots, transport.SimpleDiffusion, "glucose")
	assert.FileExists(t, filepath.Join(dir, pipeline.JointFigure))
	assert.FileExists(t, filepath.Join(dir, pipeline.InfoFile))
	assert.Contains(t, result.LogOutput, "Transport plots written.")
}

func TestApp_TimeseriesMissingColumns(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "output")
	testutil.WriteSnapshotFolder(t, out, testutil.GlucoseFixture())
	cfg := &app.Config{
		Command: app.CommandTimeseries,
		Timeseries: app.TimeseriesConfig{
			OutputFolder: out,
			Mechanism:    string(transport.SimpleDiffusion),
			Substrates:   []string{"oxygen"},
			PlotsDir:     t.TempDir(),
		},
	}

	result := testutil.RunApp(t, cfg)

	require.ErrorIs(t, result.Err, transport.ErrMissingColumn)
}

func TestApp_FramesMissingFolder(t *testing.T) {
	t.Parallel()
	plots := t.TempDir()
	cfg := &app.Config{
		Command: app.CommandFrames,
		Frames: app.FramesConfig{
			OutputFolder: filepath.Join(t.TempDir(), "missing"),
			Substrate:    "glucose",
			PlotsDir:     plots,
			FrameType:    "agents_microenv",
		},
	}

	result := testutil.RunApp(t, cfg)

	require.NoError(t, result.Err)
	assert.Contains(t, result.ErrOutput, "not found")
	entries, err := os.ReadDir(plots)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApp_UnknownCommand(t *testing.T) {
	t.Parallel()
	result := testutil.RunApp(t, &app.Config{Command: "deploy"})
	require.Error(t, result.Err)
}
