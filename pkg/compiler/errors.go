package compiler

import (
	"fmt"
	"strings"

	"cvhdl/pkg/diag"
)

// Diagnostic codes.
const (
	CodeExpectedToken   = "E0001"
	CodeExpectedName    = "E0002"
	CodeTooDeep         = "E0003"
	CodeIndexBounds     = "E0101"
	CodeLoopScope       = "E0102"
	CodeArraySize       = "E0103"
	CodeGlobalVariable  = "W0001"
	CodeSkipped         = "W0002"
	CodeUnknownStruct   = "W0101"
	CodeDuplicateStruct = "W0102"
	CodeStructLookup    = "W0201"
)

// Error is a positioned compiler diagnostic. Parser faults are returned as
// *Error with Severity diag.Error; nonfatal findings are collected on the
// Context with Severity diag.Warning.
type Error struct {
	Severity   diag.Severity
	Category   diag.Category
	Line       int
	Col        int
	Code       string
	Msg        string
	Source     string // the full source line, if known
	Hints      []string
	Suggestion string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "line %d: %s", e.Line, e.Msg)
	if e.Source != "" {
		fmt.Fprintf(&b, "\n  |> %s", strings.TrimSpace(e.Source))
	}
	return b.String()
}

// Fatal reports whether the error aborts compilation.
func (e *Error) Fatal() bool { return e.Severity == diag.Error }

// Diagnostic converts e for the diagnostics reporter.
func (e *Error) Diagnostic(file string) diag.Diagnostic {
	return diag.Diagnostic{
		Severity:   e.Severity,
		Category:   e.Category,
		Location:   diag.Location{File: file, Line: e.Line, Column: e.Col, Source: e.Source},
		Code:       e.Code,
		Message:    e.Msg,
		Hints:      e.Hints,
		Suggestion: e.Suggestion,
	}
}
