package app

import (
	"io"
	"log/slog"

	"github.com/vk/pctransport/internal/project"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	errW      io.Writer
	logger    *slog.Logger
	config    *Config
	commander project.Commander
}

// Option customises an App.
type Option func(*App)

// WithCommander replaces the shell used by the project command.
func WithCommander(c project.Commander) Option {
	return func(a *App) {
		a.commander = c
	}
}

// NewApp is the constructor for the main application. Logs, command output
// and previews go to outW; notices and command errors go to errW.
func NewApp(outW, errW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:      outW,
		errW:      errW,
		logger:    logger,
		config:    cfg,
		commander: project.ShellCommander{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
