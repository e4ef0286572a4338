// Package diag formats and counts compiler diagnostics.
//
// A Diagnostic renders as
//
//	file:line:col: [CODE]error[Parser] message
//	    source line
//	        ^
//	    hint: ...
//	    help: did you mean 'x'?
//
// Colors are ANSI escapes and can be switched off per Reporter.
package diag

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/mitchellh/go-wordwrap"
)

// Severity of a diagnostic. Only Error is fatal.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

var severityLabels = [...]string{Info: "info", Warning: "warning", Error: "error"}

func (s Severity) String() string {
	if int(s) >= 0 && int(s) < len(severityLabels) {
		return severityLabels[s]
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity maps "info", "warning" and "error" to a Severity.
func ParseSeverity(s string) (Severity, bool) {
	for i, label := range severityLabels {
		if label == s {
			return Severity(i), true
		}
	}
	return Info, false
}

// Category names the compiler stage that produced a diagnostic.
type Category int

const (
	Lexer Category = iota
	Parser
	Semantic
	Codegen
	General
)

var categoryNames = [...]string{
	Lexer:    "Lexer",
	Parser:   "Parser",
	Semantic: "Semantic",
	Codegen:  "Codegen",
	General:  "General",
}

func (c Category) String() string {
	if int(c) >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Location is a position in a source file. Zero fields are omitted.
type Location struct {
	File   string
	Line   int
	Column int
	Source string // the text of the source line
}

// Diagnostic is one reportable message.
type Diagnostic struct {
	Severity   Severity
	Category   Category
	Location   Location
	Code       string
	Message    string
	Hints      []string
	Suggestion string
}

const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"

	indent    = "    "
	hintWidth = 80
)

// Reporter writes diagnostics to w and keeps error and warning counts.
// It is safe for concurrent use.
type Reporter struct {
	mu       sync.Mutex
	w        io.Writer
	color    bool
	errors   int
	warnings int
}

func NewReporter(w io.Writer, color bool) *Reporter {
	return &Reporter{w: w, color: color}
}

// SetColor toggles ANSI colors.
func (r *Reporter) SetColor(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.color = on
}

// Report renders d and updates the counters.
func (r *Reporter) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()

	io.WriteString(r.w, r.render(d))
	switch d.Severity {
	case Error:
		r.errors++
	case Warning:
		r.warnings++
	}
}

// Warnf reports a warning about file that has no source position.
func (r *Reporter) Warnf(cat Category, file string, format string, args ...any) {
	r.Report(Diagnostic{Severity: Warning, Category: cat, Location: Location{File: file}, Message: fmt.Sprintf(format, args...)})
}

func (r *Reporter) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

func (r *Reporter) WarningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

func (r *Reporter) HasErrors() bool { return r.ErrorCount() > 0 }

func (r *Reporter) paint(code string) string {
	if !r.color {
		return ""
	}
	return code
}

func (r *Reporter) severityColor(s Severity) string {
	switch s {
	case Info:
		return r.paint(colorGreen)
	case Warning:
		return r.paint(colorYellow)
	case Error:
		return r.paint(colorRed)
	}
	return r.paint(colorReset)
}

func (r *Reporter) render(d Diagnostic) string {
	var b strings.Builder
	reset := r.paint(colorReset)
	loc := d.Location

	if loc.File != "" {
		b.WriteString(loc.File + ":")
		if loc.Line > 0 {
			fmt.Fprintf(&b, "%d:", loc.Line)
			if loc.Column > 0 {
				fmt.Fprintf(&b, "%d:", loc.Column)
			}
		}
		b.WriteString(" ")
	}
	if d.Code != "" {
		fmt.Fprintf(&b, "%s[%s]%s", r.paint(colorCyan), d.Code, reset)
	}
	fmt.Fprintf(&b, "%s%s%s[%s]%s ", r.paint(colorBold), r.severityColor(d.Severity), d.Severity, d.Category, reset)
	if loc.File == "" && loc.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", loc.Line)
	}
	b.WriteString(d.Message)
	b.WriteString("\n")

	if loc.Source != "" && loc.Column > 0 {
		fmt.Fprintf(&b, "%s%s%s\n", indent, r.paint(colorCyan), loc.Source)
		fmt.Fprintf(&b, "%s%s^%s\n", indent, caretPrefix(loc.Source, loc.Column), reset)
	}

	for _, hint := range d.Hints {
		wrapped := wordwrap.WrapString(hint, hintWidth)
		wrapped = strings.ReplaceAll(wrapped, "\n", "\n"+indent+"      ")
		fmt.Fprintf(&b, "%s%s%shint:%s %s\n", indent, r.paint(colorBold), r.paint(colorCyan), reset, wrapped)
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&b, "%s%s%shelp:%s did you mean '%s'?\n", indent, r.paint(colorBold), r.paint(colorMagenta), reset, d.Suggestion)
	}
	return b.String()
}

// caretPrefix returns the padding that puts a caret under the 1-based rune
// column of source. Tabs are copied so the caret lines up with the source.
func caretPrefix(source string, column int) string {
	var b strings.Builder
	for i, r := range []rune(source) {
		if i >= column-1 {
			break
		}
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	for i := len([]rune(source)); i < column-1; i++ {
		b.WriteByte(' ')
	}
	return b.String()
}

// maxSuggestDistance bounds how different a suggestion may be.
const maxSuggestDistance = 2

// Suggest returns the candidate closest to word by edit distance, if any is
// within maxSuggestDistance and differs from word.
func Suggest(word string, candidates []string) (string, bool) {
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range candidates {
		if c == word {
			continue
		}
		if d := levenshtein.ComputeDistance(word, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}
