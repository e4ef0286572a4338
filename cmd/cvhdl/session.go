package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cvhdl/pkg/compiler"
	"cvhdl/pkg/design"
	"cvhdl/pkg/diag"
	"cvhdl/pkg/policy"
	"cvhdl/pkg/subset"
)

// Lint rule codes, in the W04xx range.
var ruleCodes = map[string]string{
	"reserved_word":       "W0401",
	"unknown_callee":      "W0402",
	"unused_signal":       "W0403",
	"no_inputs":           "W0404",
	"empty_record":        "W0405",
	"trailing_underscore": "W0406",
}

// unit is one compiled source file.
type unit struct {
	file   string
	src    []byte
	lines  []string
	result *compiler.Result
}

func (u *unit) line(n int) string {
	if n < 1 || n > len(u.lines) {
		return ""
	}
	return strings.TrimRight(u.lines[n-1], "\r")
}

// compile reads and compiles file, reporting every diagnostic on the way.
// A failure has already been reported when errFailed is returned.
func (a *app) compile(ctx context.Context, file string) (*unit, error) {
	log := a.log.WithField("file", file)

	src, err := os.ReadFile(file)
	if err != nil {
		a.reporter.Report(diag.Diagnostic{
			Severity: diag.Error,
			Category: diag.General,
			Location: diag.Location{File: file},
			Message:  err.Error(),
		})
		return nil, errFailed
	}
	u := &unit{file: file, src: src, lines: strings.Split(string(src), "\n")}

	if a.cfg.SubsetEnabled() {
		log.WithField("stage", "subset").Debug("Checking C subset...")
		findings, err := subset.Check(ctx, src)
		if err != nil {
			log.WithError(err).Warn("Subset check failed")
		}
		a.reportFindings(u, findings)
	}

	log.WithField("stage", "parse").Debug("Parsing input file...")
	start := time.Now()
	res, err := compiler.Compile(string(src), compiler.Options{Header: a.cfg.Header, Top: a.cfg.Top})
	elapsed := time.Since(start)
	if err != nil {
		a.metrics.ObserveCompile(0, 0, err, elapsed)
		a.reportError(file, err)
		return nil, errFailed
	}

	functions := len(compiler.Functions(res.Program))
	a.metrics.ObserveCompile(functions, len(res.Warnings), nil, elapsed)
	a.reportWarnings(u, res.Warnings)
	log.WithFields(logrus.Fields{
		"stage":     "codegen",
		"functions": functions,
		"elapsed":   elapsed,
	}).Debug("Generating VHDL code...")

	u.result = res
	return u, nil
}

// policyEngine prepares the lint rules once per invocation.
func (a *app) policyEngine(ctx context.Context) (*policy.Engine, error) {
	a.engineOnce.Do(func() {
		a.engine, a.engineErr = policy.New(ctx)
	})
	return a.engine, a.engineErr
}

// lint evaluates the design rules over a compiled unit and reports the
// violations that the config leaves enabled.
func (a *app) lint(ctx context.Context, u *unit) error {
	engine, err := a.policyEngine(ctx)
	if err != nil {
		return err
	}

	facts := design.Extract(u.result.Program, u.result.Context)
	violations, err := engine.Evaluate(ctx, facts)
	if err != nil {
		return fmt.Errorf("%s: %w", u.file, err)
	}
	violations = policy.Filter(violations, a.cfg.IsRuleEnabled)
	violations = policy.ApplySeverity(violations, a.cfg.GetRuleSeverity)

	counts := make(map[string]int)
	for _, v := range violations {
		sev, ok := diag.ParseSeverity(v.Severity)
		if !ok {
			sev = diag.Warning
		}
		counts[sev.String()]++
		a.reporter.Report(diag.Diagnostic{
			Severity: sev,
			Category: diag.Semantic,
			Location: diag.Location{File: u.file, Line: v.Line},
			Code:     ruleCodes[v.Rule],
			Message:  fmt.Sprintf("%s (%s)", v.Message, v.Rule),
		})
	}
	for sev, n := range counts {
		a.metrics.ObserveLint(sev, n)
	}
	a.log.WithFields(logrus.Fields{"file": u.file, "stage": "lint", "violations": len(violations)}).Debug("Lint finished")
	return nil
}

// reportError renders a fatal compile error.
func (a *app) reportError(file string, err error) {
	var cerr *compiler.Error
	if errors.As(err, &cerr) {
		a.reporter.Report(cerr.Diagnostic(file))
		return
	}
	a.reporter.Report(diag.Diagnostic{
		Severity: diag.Error,
		Category: diag.General,
		Location: diag.Location{File: file},
		Message:  err.Error(),
	})
}

func (a *app) reportWarnings(u *unit, warnings []*compiler.Error) {
	for _, w := range warnings {
		d := w.Diagnostic(u.file)
		if d.Location.Source == "" {
			d.Location.Source = u.line(w.Line)
		}
		a.reporter.Report(d)
	}
}

func (a *app) reportFindings(u *unit, findings []subset.Finding) {
	for _, f := range findings {
		a.reporter.Report(diag.Diagnostic{
			Severity: diag.Warning,
			Category: diag.Parser,
			Location: diag.Location{File: u.file, Line: f.Line, Column: f.Column, Source: u.line(f.Line)},
			Code:     subset.Code,
			Message:  fmt.Sprintf("unsupported C (%s): %s", f.Construct, f.Message),
		})
	}
}
