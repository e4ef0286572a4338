package diag

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			name: "Line Only",
			d:    Diagnostic{Severity: Error, Category: Parser, Location: Location{Line: 3}, Message: "Expected ';'"},
			want: "error[Parser] line 3: Expected ';'\n",
		},
		{
			name: "File Position With Caret",
			d: Diagnostic{
				Severity:   Warning,
				Category:   Semantic,
				Location:   Location{File: "a.c", Line: 2, Column: 5, Source: "int x[4];"},
				Code:       "W0101",
				Message:    "Unknown struct type 'Pont'",
				Hints:      []string{"declare the struct before use"},
				Suggestion: "Point",
			},
			want: "a.c:2:5: [W0101]warning[Semantic] Unknown struct type 'Pont'\n" +
				"    int x[4];\n" +
				"        ^\n" +
				"    hint: declare the struct before use\n" +
				"    help: did you mean 'Point'?\n",
		},
		{
			name: "Caret After Tabs",
			d: Diagnostic{
				Severity: Error,
				Category: Parser,
				Location: Location{File: "t.c", Line: 4, Column: 4, Source: "\t\tx = ;"},
				Message:  "Expected expression",
			},
			want: "t.c:4:4: error[Parser] Expected expression\n" +
				"    \t\tx = ;\n" +
				"    \t\t ^\n",
		},
		{
			name: "Info Without Location",
			d:    Diagnostic{Severity: Info, Category: General, Message: "done"},
			want: "info[General] done\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			r := NewReporter(&b, false)
			r.Report(tt.d)
			be.Equal(t, b.String(), tt.want)
		})
	}
}

func TestColor(t *testing.T) {
	boom := Diagnostic{Severity: Error, Category: Codegen, Location: Location{Line: 1}, Message: "boom"}

	var b strings.Builder
	r := NewReporter(&b, true)
	r.Report(boom)
	be.True(t, strings.Contains(b.String(), colorRed))

	b.Reset()
	r.SetColor(false)
	r.Report(boom)
	be.True(t, !strings.Contains(b.String(), "\033["))
}

func TestCounts(t *testing.T) {
	var b strings.Builder
	r := NewReporter(&b, false)
	r.Report(Diagnostic{Severity: Info, Category: General, Message: "note"})
	r.Warnf(General, "a.c", "lint skipped: %s", "no engine")
	r.Warnf(Parser, "b.c", "skipped")
	be.True(t, !r.HasErrors())
	r.Report(Diagnostic{Severity: Error, Category: Semantic, Location: Location{Line: 3}, Message: "bad"})

	be.Equal(t, r.ErrorCount(), 1)
	be.Equal(t, r.WarningCount(), 2)
	be.True(t, r.HasErrors())
	be.True(t, strings.Contains(b.String(), "a.c: warning[General] lint skipped: no engine\n"))
}

func TestSeverityAndCategoryNames(t *testing.T) {
	for _, s := range []Severity{Info, Warning, Error} {
		got, ok := ParseSeverity(s.String())
		be.True(t, ok)
		be.Equal(t, got, s)
	}
	_, ok := ParseSeverity("fatal")
	be.True(t, !ok)
	be.Equal(t, Severity(9).String(), "Severity(9)")
	be.Equal(t, Codegen.String(), "Codegen")
	be.Equal(t, Category(-1).String(), "Category(-1)")
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		word       string
		candidates []string
		want       string
		ok         bool
	}{
		{"Pont", []string{"Point", "Vec"}, "Point", true},
		{"Point", []string{"Point"}, "", false},
		{"Zebra", []string{"Point", "Vec"}, "", false},
		{"Vecc", []string{"Vec", "Vex"}, "Vec", true},
		{"x", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got, ok := Suggest(tt.word, tt.candidates)
			be.Equal(t, got, tt.want)
			be.Equal(t, ok, tt.ok)
		})
	}
}
