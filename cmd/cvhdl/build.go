package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cvhdl/pkg/diag"
	"cvhdl/pkg/utils"
)

// build: compile .c -> .vhd
func (a *app) buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <input.c> [more.c ...]",
		Short: "Compile C sources into VHDL",
		Long: `Compile each input into a VHDL file next to it, in --out, or in the
configured outDir. Unchanged outputs are not rewritten.

The two-argument form "cvhdl build input.c output.vhdl" writes a single
output file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.buildRun,
	}
}

func (a *app) buildRun(cmd *cobra.Command, args []string) error {
	inputs, out := args, a.out
	if len(args) == 2 && utils.IsVHDLFile(args[1]) {
		inputs, out = args[:1], args[1]
	}
	if utils.IsVHDLFile(out) && len(inputs) > 1 {
		return fmt.Errorf("output file %q given for %d inputs; use a directory", out, len(inputs))
	}

	defer a.flushMetrics()

	var failed atomic.Int32
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, input := range inputs {
		g.Go(func() error {
			if err := a.buildFile(ctx, input, a.outputFor(input, out)); err != nil {
				failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if failed.Load() > 0 || a.reporter.HasErrors() {
		return errFailed
	}
	a.log.WithField("files", len(inputs)).Info("Compilation finished.")
	return nil
}

// outputFor picks the generated file for input. An out ending in .vhd or
// .vhdl is the file itself; an --out directory was already applied to the
// config in setup.
func (a *app) outputFor(input, out string) string {
	if utils.IsVHDLFile(out) {
		return out
	}
	return a.cfg.OutputPath(input)
}

// buildFile compiles one input, lints it unless disabled and writes the
// VHDL.
func (a *app) buildFile(ctx context.Context, input, output string) error {
	u, err := a.compile(ctx, input)
	if err != nil {
		return err
	}

	if a.cfg.LintEnabled() {
		if err := a.lint(ctx, u); err != nil {
			a.reporter.Warnf(diag.General, input, "lint skipped: %v", err)
		}
	}

	written, err := writeIfChanged(output, []byte(u.result.VHDL))
	if err != nil {
		a.reportError(input, err)
		return errFailed
	}
	log := a.log.WithField("file", input)
	if !written {
		log.WithField("output", output).Debug("Output unchanged")
		return nil
	}
	log.Infof("VHDL written to %s", output)
	return nil
}

// writeIfChanged writes data to path unless the file already holds the
// same bytes. It reports whether the file was written.
func writeIfChanged(path string, data []byte) (bool, error) {
	if old, err := os.ReadFile(path); err == nil && xxhash.Sum64(old) == xxhash.Sum64(data) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("writing output: %w", err)
	}
	return true, nil
}
