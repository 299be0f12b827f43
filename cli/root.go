// Package cli implements the pd command: running, inspecting and watching
// PD programs, and an interactive REPL.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/compilingdogs/pd/internal/config"
	"github.com/compilingdogs/pd/internal/logging"
)

// Exit codes
const (
	ExitSuccess             = 0
	ExitInvalidArguments    = 1
	ExitIOError             = 2
	ExitParseError          = 3
	ExitInterpretationError = 4
)

// Streams are the standard streams a command talks to
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type options struct {
	configPath   string
	debug        bool
	noColor      bool
	longestMatch bool
	trace        bool
	maxDepth     int
	timing       bool
}

// app is the state shared by all subcommands after flag parsing
type app struct {
	streams Streams
	opts    options
	cfg     *config.Config
	logger  *slog.Logger
}

// Execute runs pd with the process arguments and returns the exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return Run(ctx, os.Args[1:], Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// Run executes one pd invocation; errors are reported on s.Err
func Run(ctx context.Context, args []string, s Streams) int {
	root := NewRootCommand(s)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	FormatError(s.Err, err)
	return exitCode(err)
}

func NewRootCommand(s Streams) *cobra.Command {
	a := &app{streams: s}

	root := &cobra.Command{
		Use:           "pd",
		Short:         "Run and inspect PD programs",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare(cmd)
		},
	}
	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "Configuration file (default "+config.DefaultFile+" if present)")
	flags.BoolVar(&a.opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&a.opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&a.opts.longestMatch, "longest-match", false, "Try every alternative and keep the longest match")
	flags.BoolVar(&a.opts.trace, "trace", false, "Print the grammar match trace to stderr")
	flags.IntVar(&a.opts.maxDepth, "max-depth", 0, "Grammar match depth limit")
	flags.BoolVar(&a.opts.timing, "time", false, "Report phase timings to stderr")

	root.AddCommand(
		newRunCommand(a),
		newTokensCommand(a),
		newASTCommand(a),
		newREPLCommand(a),
		newWatchCommand(a),
	)
	return root
}

// prepare loads the configuration and applies flags on top of it
func (a *app) prepare(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if a.opts.longestMatch {
		cfg.Parser.Alternation = config.AlternationLongest
	}
	if a.opts.trace {
		cfg.Parser.Trace = true
	}
	if flags.Changed("max-depth") {
		cfg.Parser.MaxDepth = a.opts.maxDepth
	}
	if a.opts.noColor {
		cfg.Output.Color = config.ColorNever
	}
	a.cfg = cfg

	if a.opts.debug {
		a.logger = logging.New(a.streams.Err, true)
	} else {
		a.logger = logging.FromEnv()
	}

	color.NoColor = !ShouldUseColor(cfg, a.streams.Out)
	a.logger.Debug("configured", "config", cfg.Path, "alternation", cfg.Parser.Alternation, "color", !color.NoColor)
	return nil
}
