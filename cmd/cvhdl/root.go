package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cvhdl/pkg/config"
	"cvhdl/pkg/diag"
	"cvhdl/pkg/metrics"
	"cvhdl/pkg/policy"
	"cvhdl/pkg/utils"
)

// errFailed reports that diagnostics were already printed.
var errFailed = errors.New("compilation failed")

// app is the state shared by every command of one invocation.
type app struct {
	out        string
	top        string
	configPath string
	metricsOut string
	noColor    bool
	noLint     bool
	verbose    bool

	cfg      *config.Config
	log      *logrus.Logger
	reporter *diag.Reporter
	metrics  *metrics.Recorder

	engineOnce sync.Once
	engine     *policy.Engine
	engineErr  error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "cvhdl",
		Short: "cvhdl compiles a restricted subset of C into synthesizable VHDL",
		Long: `cvhdl compiles a restricted subset of C into VHDL: one entity and
architecture per function, one record per struct.

Commands:
  build   Compile C sources into .vhd files
  tokens  Print the token stream of a source file
  ast     Print the syntax tree and symbol tables of a source file
  lint    Check a source file for unsupported C and VHDL design problems
  facts   Print the design facts of a source file as JSON
  init    Write a default cvhdl.json
`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.out, "out", "o", "", "output directory, or output file for a single input")
	flags.StringVar(&a.top, "top", "", "keep only this function and the functions it calls")
	flags.StringVar(&a.configPath, "config", "", "config file (default: search cvhdl.json, .cvhdl.toml, cvhdl.yaml)")
	flags.StringVar(&a.metricsOut, "metrics-out", "", "write Prometheus metrics to this file")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored diagnostics")
	flags.BoolVar(&a.noLint, "no-lint", false, "skip design lint during build")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log progress")

	rootCmd.AddCommand(
		a.buildCmd(),
		a.tokensCmd(),
		a.astCmd(),
		a.lintCmd(),
		a.factsCmd(),
		a.initCmd(),
	)
	return rootCmd
}

// Execute runs the command line and prints any error not already reported
// as a diagnostic.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil && !errors.Is(err, errFailed) {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

// setup loads the config, applies flag overrides and builds the logger,
// reporter and metrics recorder.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.log = logrus.New()
	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	a.log.SetLevel(logrus.WarnLevel)
	if a.verbose {
		a.log.SetLevel(logrus.DebugLevel)
	}

	a.reporter = diag.NewReporter(cmd.ErrOrStderr(), !a.noColor)

	var err error
	switch {
	case cmd.Name() == "init":
		a.cfg = config.DefaultConfig()
	case a.configPath != "":
		a.cfg, err = config.LoadFile(a.configPath)
	default:
		dir := "."
		if len(args) > 0 {
			_, dir, err = utils.GetPathInfo(args[0])
		}
		if err == nil {
			a.cfg, err = config.Load(dir)
		}
	}
	if err != nil {
		a.reporter.Report(diag.Diagnostic{Severity: diag.Error, Category: diag.General, Message: err.Error()})
		return errFailed
	}
	if a.cfg.Path != "" {
		a.log.WithField("config", a.cfg.Path).Debug("Loaded config")
	}

	flags := cmd.Flags()
	if a.out != "" && !utils.IsVHDLFile(a.out) {
		a.cfg.OutDir = a.out
	}
	if flags.Changed("top") {
		a.cfg.Top = a.top
	}
	if a.noColor {
		a.cfg.Color = new(bool)
	}
	if a.noLint {
		a.cfg.Lint.Enabled = new(bool)
	}
	if flags.Changed("metrics-out") {
		a.cfg.MetricsFile = a.metricsOut
	}

	a.reporter.SetColor(a.cfg.ColorEnabled())
	a.metrics = metrics.New()
	return nil
}

// flushMetrics writes the metrics file if one is configured.
func (a *app) flushMetrics() {
	if a.cfg.MetricsFile == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		a.log.WithError(err).Warn("Could not write metrics")
		return
	}
	a.log.WithField("file", a.cfg.MetricsFile).Debug("Metrics written")
}
