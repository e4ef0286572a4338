// Package subset scans C source with the tree-sitter C grammar and reports
// constructs the compiler does not support. The compiler's own parser
// skips or misreads most of them silently; this scan makes them visible
// before the generated VHDL is trusted.
package subset

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// Code is the diagnostic code of every finding.
const Code = "W0301"

// Finding is one unsupported construct. Line and Column are 1-based.
type Finding struct {
	Line      int
	Column    int
	Construct string
	Message   string
}

var messages = map[string]string{
	"preprocessor":        "preprocessor directives are not expanded",
	"pointer":             "pointers have no hardware mapping",
	"address-of":          "taking an address has no hardware mapping",
	"typedef":             "typedef names are not recognized as types",
	"switch":              "switch statements are not supported; use if/else if",
	"do-while":            "do-while loops are not supported; use while",
	"goto":                "goto is not supported",
	"label":               "labels are not supported",
	"string":              "string literals are not supported",
	"compound-assignment": "compound assignment is dropped; write 'x = x op y'",
	"ternary":             "the conditional operator is not supported; use if/else",
	"multi-dim-array":     "only one-dimensional arrays are supported",
	"union":               "unions are not supported",
	"enum":                "enums are not supported",
}

// Check parses src and returns the unsupported constructs in source order.
func Check(ctx context.Context, src []byte) ([]Finding, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(c.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	var findings []Finding
	walk(tree.RootNode(), src, &findings)

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Column < findings[j].Column
	})
	return findings, nil
}

func report(findings *[]Finding, node *sitter.Node, construct string) {
	pos := node.StartPoint()
	*findings = append(*findings, Finding{
		Line:      int(pos.Row) + 1,
		Column:    int(pos.Column) + 1,
		Construct: construct,
		Message:   messages[construct],
	})
}

// classify returns the unsupported construct node is, or "".
func classify(node *sitter.Node, src []byte) string {
	typ := node.Type()
	switch {
	case strings.HasPrefix(typ, "preproc_"):
		return "preprocessor"
	}

	switch typ {
	case "pointer_declarator", "abstract_pointer_declarator":
		return "pointer"
	case "pointer_expression":
		if op := node.ChildByFieldName("operator"); op != nil && op.Type() == "&" {
			return "address-of"
		}
		return "pointer"
	case "field_expression":
		if op := node.ChildByFieldName("operator"); op != nil && op.Type() == "->" {
			return "pointer"
		}
	case "type_definition":
		return "typedef"
	case "switch_statement":
		return "switch"
	case "do_statement":
		return "do-while"
	case "goto_statement":
		return "goto"
	case "labeled_statement":
		return "label"
	case "string_literal", "concatenated_string":
		return "string"
	case "assignment_expression":
		if op := node.ChildByFieldName("operator"); op != nil && op.Content(src) != "=" {
			return "compound-assignment"
		}
	case "conditional_expression":
		return "ternary"
	case "array_declarator":
		if d := node.ChildByFieldName("declarator"); d != nil && d.Type() == "array_declarator" {
			return "multi-dim-array"
		}
	case "union_specifier":
		return "union"
	case "enum_specifier":
		return "enum"
	}
	return ""
}

// walk reports node and recurses. Children of a reported preprocessor
// directive or string are not visited.
func walk(node *sitter.Node, src []byte, findings *[]Finding) {
	if node == nil {
		return
	}

	construct := classify(node, src)
	if construct != "" {
		report(findings, node, construct)
		if construct == "preprocessor" || construct == "string" {
			return
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), src, findings)
	}
}

// Constructs lists every construct name Check can report, sorted.
func Constructs() []string {
	names := make([]string, 0, len(messages))
	for name := range messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
