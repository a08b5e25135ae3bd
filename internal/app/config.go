package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/pctransport/internal/render"
	"github.com/vk/pctransport/internal/transport"
)

// Command names a top-level operation.
type Command string

const (
	CommandProject    Command = "project"
	CommandTimeseries Command = "timeseries"
	CommandFrames     Command = "frames"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command   Command
	LogFormat string
	LogLevel  string

	Project    ProjectConfig
	Timeseries TimeseriesConfig
	Frames     FramesConfig
}

// ProjectConfig configures the project command.
type ProjectConfig struct {
	Root   string
	Name   string
	Recipe string
	Make   bool
	GIF    bool
	Open   bool
	Strict bool
}

// TimeseriesConfig configures the timeseries command.
type TimeseriesConfig struct {
	OutputFolder string
	Mechanism    string
	Substrates   []string
	FigOut       string
	CSVOut       string
	PlotsDir     string
	TablePath    string
	ExtractOnly  bool
	Join         bool
	Preview      bool
}

// FramesConfig configures the frames command.
type FramesConfig struct {
	OutputFolder string
	Substrate    string
	PlotsDir     string
	FrameType    string
	AVI          bool
	Delay        int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format '%s': must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	switch cfg.Command {
	case CommandProject:
		if cfg.Project.Root == "" {
			return nil, errors.New("project: the PhysiBoSS root folder is required")
		}
	case CommandTimeseries:
		ts := &cfg.Timeseries
		if ts.OutputFolder == "" && ts.TablePath == "" {
			return nil, errors.New("timeseries: an output folder or --table is required")
		}
		if ts.ExtractOnly {
			if ts.TablePath != "" {
				return nil, errors.New("timeseries: --table and --extract-only are mutually exclusive")
			}
			break
		}
		m, err := transport.ParseMechanism(ts.Mechanism)
		if err != nil {
			return nil, fmt.Errorf("timeseries: %w", err)
		}
		ts.Mechanism = string(m)
		if len(ts.Substrates) == 0 {
			return nil, errors.New("timeseries: at least one --substrate is required")
		}
	case CommandFrames:
		fr := &cfg.Frames
		if fr.OutputFolder == "" {
			return nil, errors.New("frames: the output folder is required")
		}
		if strings.TrimSpace(fr.Substrate) == "" {
			return nil, errors.New("frames: --substrate is required")
		}
		if fr.FrameType == "" {
			fr.FrameType = string(render.ModeAgentsMicroenv)
		}
		if _, err := render.ParseFrameMode(fr.FrameType); err != nil {
			return nil, fmt.Errorf("frames: %w", err)
		}
		if fr.Delay < 0 {
			return nil, errors.New("frames: --delay must not be negative")
		}
	default:
		return nil, fmt.Errorf("unknown command '%s'", cfg.Command)
	}
	return &cfg, nil
}
