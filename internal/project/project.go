package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/vk/pctransport/internal/ctxlog"
	"github.com/vk/pctransport/internal/fsutil"
)

// DefaultProject is the sample project built when none is named.
const DefaultProject = "template_BM"

// ErrStepFailed is returned in strict mode when a step exits unsuccessfully.
var ErrStepFailed = errors.New("project step failed")

// Commander runs one shell command line in dir.
type Commander interface {
	Run(ctx context.Context, dir, command string, stdout, stderr io.Writer) error
}

// ShellCommander runs commands through a POSIX shell.
type ShellCommander struct {
	// Shell defaults to "sh".
	Shell string
}

// Run implements Commander.
func (c ShellCommander) Run(ctx context.Context, dir, command string, stdout, stderr io.Writer) error {
	shell := c.Shell
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Status is the outcome of one step.
type Status string

const (
	StatusRan     Status = "ran"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// StepResult records what happened to a step.
type StepResult struct {
	Name     string
	Command  string
	Status   Status
	Reason   string
	Duration time.Duration
	Err      error
}

// Report is the outcome of a whole run.
type Report struct {
	Root string
	// RootMissing is set when the root folder did not exist and nothing ran.
	RootMissing bool
	Steps       []StepResult
}

// Failed returns the steps that exited unsuccessfully.
func (r *Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			out = append(out, s)
		}
	}
	return out
}

// Options configures a run.
type Options struct {
	Root       string
	Project    string
	RecipePath string
	Make       bool
	GIF        bool
	Open       bool
	Strict     bool

	// Stdout and Stderr receive the output of the commands. Stderr also
	// receives the missing-root notice.
	Stdout    io.Writer
	Stderr    io.Writer
	Commander Commander
}

// Run executes the recipe against opts.Root. A missing root folder is not
// an error: a notice is written to Stderr and an empty report returned.
func Run(ctx context.Context, opts Options) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	if opts.Project == "" {
		opts.Project = DefaultProject
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Commander == nil {
		opts.Commander = ShellCommander{}
	}

	report := &Report{Root: opts.Root}
	if !fsutil.IsDir(opts.Root) {
		fmt.Fprintf(opts.Stderr, "Project folder '%s' not found. Pass the path to the PhysiBoSS root folder.\n", opts.Root)
		report.RootMissing = true
		return report, nil
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return report, fmt.Errorf("failed to resolve project root: %w", err)
	}
	report.Root = root

	steps, err := LoadRecipe(opts.RecipePath, Vars{
		Project: opts.Project,
		Root:    root,
		Output:  filepath.Join(root, "output"),
		Make:    opts.Make,
		GIF:     opts.GIF,
		Open:    opts.Open,
	})
	if err != nil {
		return report, err
	}
	logger.Info("Project recipe loaded.", "root", root, "project", opts.Project, "steps", len(steps), "strict", opts.Strict)

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := StepResult{Name: step.Name, Command: step.Command}

		if reason := skipReason(root, step); reason != "" {
			res.Status = StatusSkipped
			res.Reason = reason
			report.Steps = append(report.Steps, res)
			logger.Info("Skipping step.", "step", step.Name, "reason", reason)
			continue
		}

		logger.Info("Running step.", "step", step.Name, "cmdline", step.Command)
		start := time.Now()
		err := opts.Commander.Run(ctx, root, step.Command, opts.Stdout, opts.Stderr)
		res.Duration = time.Since(start)
		if err == nil {
			res.Status = StatusRan
			report.Steps = append(report.Steps, res)
			logger.Debug("Step finished.", "step", step.Name, "duration", res.Duration)
			continue
		}

		res.Status = StatusFailed
		res.Err = err
		report.Steps = append(report.Steps, res)
		if opts.Strict {
			return report, fmt.Errorf("%w: %s (%s): %w", ErrStepFailed, step.Name, step.Command, err)
		}
		logger.Warn("Step failed, continuing.", "step", step.Name, "cmdline", step.Command, "error", err)
	}

	logger.Info("Project run finished.", "steps", len(report.Steps), "failed", len(report.Failed()))
	return report, nil
}

func skipReason(root string, step Step) string {
	if !step.Enabled {
		return "disabled"
	}
	if step.RequireGlob == "" {
		return ""
	}
	matches, err := filepath.Glob(filepath.Join(root, step.RequireGlob))
	if err != nil {
		return fmt.Sprintf("bad pattern %q: %v", step.RequireGlob, err)
	}
	if len(matches) == 0 {
		return fmt.Sprintf("nothing matches %q", step.RequireGlob)
	}
	return ""
}

