package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/pctransport/internal/animate"
	"github.com/vk/pctransport/internal/app"
	"github.com/vk/pctransport/internal/pipeline"
	"github.com/vk/pctransport/internal/project"
	"github.com/vk/pctransport/internal/render"
)

const programName = "pctransport"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) *ExitError {
	return &ExitError{Code: 2, Message: err.Error()}
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

// parseInterspersed parses flags that may appear before or after the
// positional arguments and returns the positionals.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		// flag.Parse stops after "--": everything left is positional.
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	global := flag.NewFlagSet(programName, flag.ContinueOnError)
	global.SetOutput(output)
	global.Usage = func() {
		fmt.Fprintf(output, `
pctransport - build, run and plot PhysiBoSS transport simulations.

Usage:
  %s [options] <command> [command options] <path>

Commands:
  project      Reset, rebuild and run a PhysiBoSS project.
  timeseries   Plot transport time series of an output folder.
  frames       Render substrate frames, animation and composite.

Run '%s <command> -h' for command options.

Options:
`, programName, programName)
		global.PrintDefaults()
	}

	logFormat := global.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevel := global.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError(err)
	}
	if global.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		global.Usage()
		return nil, true, nil
	}

	cfg := app.Config{
		Command:   app.Command(global.Arg(0)),
		LogFormat: strings.ToLower(*logFormat),
		LogLevel:  strings.ToLower(*logLevel),
	}
	rest := global.Args()[1:]

	var (
		exit bool
		err  error
	)
	switch cfg.Command {
	case app.CommandProject:
		exit, err = parseProject(&cfg, rest, output)
	case app.CommandTimeseries:
		exit, err = parseTimeseries(&cfg, rest, output)
	case app.CommandFrames:
		exit, err = parseFrames(&cfg, rest, output)
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command '%s'", cfg.Command)}
	}
	if err != nil || exit {
		return nil, exit, err
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, usageError(err)
	}
	slog.Debug("CLI parser finished successfully.", "command", config.Command)
	return config, false, nil
}

func newCommandSet(name, usage string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(programName+" "+name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "\nUsage:\n  %s %s %s\n\nOptions:\n", programName, name, usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseCommand runs fs over args and returns the single positional. When
// optional is set the positional may be omitted.
func parseCommand(fs *flag.FlagSet, args []string, what string, optional bool) (string, bool, error) {
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", true, nil
		}
		return "", false, usageError(err)
	}
	switch len(positional) {
	case 0:
		if optional {
			return "", false, nil
		}
		fs.Usage()
		return "", false, &ExitError{Code: 2, Message: "missing " + what}
	case 1:
		return positional[0], false, nil
	default:
		return "", false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(positional[1:], " "))}
	}
}

func parseProject(cfg *app.Config, args []string, output io.Writer) (bool, error) {
	fs := newCommandSet("project", "[options] <physiboss_root>", output)
	pc := &cfg.Project
	fs.StringVar(&pc.Name, "project", project.DefaultProject, "Sample project to build and run.")
	fs.BoolVar(&pc.Make, "make", true, "Build and run the project after the reset.")
	fs.BoolVar(&pc.GIF, "gif", true, "Assemble output SVG snapshots into output/out.gif.")
	fs.BoolVar(&pc.Open, "open", false, "Open the GIF with xdg-open once it is built.")
	fs.BoolVar(&pc.Strict, "strict", false, "Stop at the first step that exits unsuccessfully.")
	fs.StringVar(&pc.Recipe, "recipe", "", "HCL recipe replacing the built-in step sequence.")

	root, exit, err := parseCommand(fs, args, "PhysiBoSS root folder", false)
	pc.Root = root
	return exit, err
}

func parseTimeseries(cfg *app.Config, args []string, output io.Writer) (bool, error) {
	fs := newCommandSet("timeseries", "[options] <output_folder>", output)
	tc := &cfg.Timeseries
	var substrates stringList
	mechanismHelp := "Transport mechanism: simple_diffusion, facilitated_diffusion_carrier or active_transport."
	fs.StringVar(&tc.Mechanism, "mechanism", "", mechanismHelp)
	fs.StringVar(&tc.Mechanism, "m", "", mechanismHelp+" (shorthand)")
	fs.StringVar(&tc.Mechanism, "transport_mechanism", "", mechanismHelp+" (alias)")
	fs.Var(&substrates, "substrate", "Substrate to plot. Repeat or comma-separate for several.")
	fs.StringVar(&tc.FigOut, "figout", "", "Path of the joint figure (.png or .pdf).")
	fs.StringVar(&tc.CSVOut, "csvout", "", "Path of the long-form series CSV, or of the table with --extract-only.")
	fs.StringVar(&tc.PlotsDir, "plots-dir", pipeline.DefaultPlotsDir, "Root directory of every artifact.")
	fs.StringVar(&tc.TablePath, "table", "", "Read a previously extracted table CSV instead of snapshots.")
	fs.BoolVar(&tc.ExtractOnly, "extract-only", false, "Only write the per-time simulation table and exit.")
	fs.BoolVar(&tc.Join, "join", false, "Write only the joint figure.")
	fs.BoolVar(&tc.Preview, "preview", false, "Print the constants and terminal graphs of every series.")

	// The output folder may be omitted when a table is replayed.
	folder, exit, err := parseCommand(fs, args, "output folder", true)
	if err != nil || exit {
		return exit, err
	}
	if folder == "" && tc.TablePath == "" {
		fs.Usage()
		return false, &ExitError{Code: 2, Message: "missing output folder"}
	}
	tc.OutputFolder = folder
	tc.Substrates = substrates
	return false, nil
}

func parseFrames(cfg *app.Config, args []string, output io.Writer) (bool, error) {
	fs := newCommandSet("frames", "[options] <output_folder>", output)
	fc := &cfg.Frames
	fs.StringVar(&fc.Substrate, "substrate", "", "Substrate whose concentration field is drawn.")
	fs.StringVar(&fc.PlotsDir, "plots-dir", pipeline.DefaultPlotsDir, "Root directory of every artifact.")
	fs.StringVar(&fc.FrameType, "frame-type", string(render.ModeAgentsMicroenv), "Frame content: agents_microenv or microenv.")
	fs.BoolVar(&fc.AVI, "avi", false, "Also write an MJPEG AVI next to the GIF.")
	fs.IntVar(&fc.Delay, "delay", animate.DefaultDelay, "Delay between GIF frames in hundredths of a second.")

	folder, exit, err := parseCommand(fs, args, "output folder", false)
	fc.OutputFolder = folder
	return exit, err
}
