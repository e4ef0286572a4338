// Package golden extracts end-to-end compile cases from Markdown files.
//
// A case starts at a heading "Test: <name>" and holds one ```c input fence
// followed by one or more assertion fences:
//
//	vhdl-contains   every non-empty line must appear in the output
//	vhdl-absent     no non-empty line may appear in the output
//	compile-error   compilation must fail with an error containing the text
package golden

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputLanguage is the fence language of a case's source.
const InputLanguage = "c"

// AssertionKind is the fence language of an assertion.
type AssertionKind string

const (
	Contains     AssertionKind = "vhdl-contains"
	Absent       AssertionKind = "vhdl-absent"
	CompileError AssertionKind = "compile-error"
)

func (k AssertionKind) valid() bool {
	return k == Contains || k == Absent || k == CompileError
}

// Assertion is one assertion fence.
type Assertion struct {
	Kind    AssertionKind
	Content string
	Line    int
}

// Lines returns the non-empty lines of the assertion, with trailing
// whitespace removed and leading indentation kept.
func (a Assertion) Lines() []string {
	var lines []string
	for _, l := range strings.Split(a.Content, "\n") {
		l = strings.TrimRight(l, " \t\r")
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Case is one compile test extracted from Markdown.
type Case struct {
	Name       string
	Input      string
	Assertions []Assertion
}

// Extract parses markdown and returns its cases in document order.
func Extract(markdown string) ([]Case, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var current *Case

	flush := func() error {
		if current == nil {
			return nil
		}
		if current.Input == "" {
			return fmt.Errorf("test '%s' has no %s fence", current.Name, InputLanguage)
		}
		if len(current.Assertions) == 0 {
			return fmt.Errorf("test '%s' has no assertion fences", current.Name)
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			current = &Case{Name: strings.TrimSpace(strings.TrimPrefix(heading, "Test: "))}

		case *ast.FencedCodeBlock:
			lang := string(n.Language(source))
			content := fenceContent(n, source)
			line := lineOf(n, source)

			if current == nil {
				if lang == InputLanguage || AssertionKind(lang).valid() {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of a test", line, lang)
				}
				return ast.WalkContinue, nil
			}

			switch {
			case lang == InputLanguage:
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple %s fences in test '%s'", line, InputLanguage, current.Name)
				}
				current.Input = content
			case AssertionKind(lang).valid():
				current.Assertions = append(current.Assertions, Assertion{
					Kind:    AssertionKind(lang),
					Content: strings.TrimRight(content, "\n"),
					Line:    line,
				})
			case lang != "":
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, lang, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("golden: %w", err)
	}
	if err := flush(); err != nil {
		return nil, fmt.Errorf("golden: %w", err)
	}
	return cases, nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// lineOf returns the 1-based line of a fence's first content line.
func lineOf(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:start], []byte("\n")) + 1
}
