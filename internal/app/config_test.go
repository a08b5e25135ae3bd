package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "project", cfg: Config{Command: CommandProject, Project: ProjectConfig{Root: "/pb"}}},
		{name: "project without root", cfg: Config{Command: CommandProject}, wantErr: "root folder"},
		{
			name: "timeseries",
			cfg: Config{Command: CommandTimeseries, Timeseries: TimeseriesConfig{
				OutputFolder: "out", Mechanism: "Simple_Diffusion", Substrates: []string{"glucose"},
			}},
		},
		{
			name: "extract only needs no mechanism",
			cfg:  Config{Command: CommandTimeseries, Timeseries: TimeseriesConfig{OutputFolder: "out", ExtractOnly: true}},
		},
		{
			name:    "extract only from a table",
			cfg:     Config{Command: CommandTimeseries, Timeseries: TimeseriesConfig{TablePath: "t.csv", ExtractOnly: true}},
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown mechanism",
			cfg:     Config{Command: CommandTimeseries, Timeseries: TimeseriesConfig{OutputFolder: "out", Mechanism: "osmosis", Substrates: []string{"g"}}},
			wantErr: "osmosis",
		},
		{
			name:    "no substrate",
			cfg:     Config{Command: CommandTimeseries, Timeseries: TimeseriesConfig{OutputFolder: "out", Mechanism: "simple_diffusion"}},
			wantErr: "--substrate",
		},
		{name: "frames", cfg: Config{Command: CommandFrames, Frames: FramesConfig{OutputFolder: "out", Substrate: "glucose"}}},
		{
			name:    "frames bad type",
			cfg:     Config{Command: CommandFrames, Frames: FramesConfig{OutputFolder: "out", Substrate: "glucose", FrameType: "3d"}},
			wantErr: "frame type",
		},
		{
			name:    "frames negative delay",
			cfg:     Config{Command: CommandFrames, Frames: FramesConfig{OutputFolder: "out", Substrate: "glucose", Delay: -1}},
			wantErr: "delay",
		},
		{name: "bad log level", cfg: Config{Command: CommandProject, LogLevel: "trace", Project: ProjectConfig{Root: "/pb"}}, wantErr: "log-level"},
		{name: "bad log format", cfg: Config{Command: CommandProject, LogFormat: "xml", Project: ProjectConfig{Root: "/pb"}}, wantErr: "log-format"},
		{name: "no command", cfg: Config{}, wantErr: "unknown command"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "text", got.LogFormat)
			assert.Equal(t, "info", got.LogLevel)
		})
	}
}

func TestNewConfig_Normalizes(t *testing.T) {
	t.Parallel()
	cfg, err := NewConfig(Config{Command: CommandTimeseries, Timeseries: TimeseriesConfig{
		OutputFolder: "out", Mechanism: " FACILITATED_DIFFUSION_CARRIER ", Substrates: []string{"glucose"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "facilitated_diffusion_carrier", cfg.Timeseries.Mechanism)

	cfg, err = NewConfig(Config{Command: CommandFrames, Frames: FramesConfig{OutputFolder: "out", Substrate: "glucose"}})
	require.NoError(t, err)
	assert.Equal(t, "agents_microenv", cfg.Frames.FrameType)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)

	logger.Info("Hidden.")
	logger.Warn("Shown.", "substrate", "glucose")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Shown.", rec["msg"])
	assert.Equal(t, "glucose", rec["substrate"])
}
