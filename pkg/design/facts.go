// Package design extracts facts about the hardware a compiled program
// describes: one entity per function with its ports, signals and calls,
// and one record per struct. The facts feed the lint policies and the
// "facts" command.
package design

import (
	"regexp"
	"sort"

	"cvhdl/pkg/compiler"
)

type Facts struct {
	Entities []Entity `json:"entities"`
	Records  []Record `json:"records"`
}

type Entity struct {
	Name       string   `json:"name"`
	Line       int      `json:"line"`
	Ports      []Port   `json:"ports"`
	Signals    []Signal `json:"signals"`
	Calls      []string `json:"calls"`
	Assigned   []string `json:"assigned"`
	Referenced []string `json:"referenced"`
	ReturnType string   `json:"return_type"`
}

type Port struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Type      string `json:"type"`
}

// Signal is a local of the architecture. For arrays Type is the element
// type.
type Signal struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	IsArray bool   `json:"is_array"`
	Size    int    `json:"size"`
	Line    int    `json:"line"`
}

type Record struct {
	Name   string  `json:"name"`
	Line   int     `json:"line"`
	Fields []Field `json:"fields"`
}

type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

var identifier = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Extract collects the facts of prog. Slices are never nil so the facts
// marshal to empty JSON lists.
func Extract(prog *compiler.Node, ctx *compiler.Context) *Facts {
	facts := &Facts{Entities: []Entity{}, Records: []Record{}}

	for _, name := range ctx.Structs.Names() {
		info, _ := ctx.Structs.Lookup(name)
		rec := Record{Name: info.Name, Line: info.Line, Fields: []Field{}}
		for _, f := range info.Fields {
			typ := compiler.VHDLType(f.Type)
			if _, ok := ctx.Structs.Lookup(f.Type); ok {
				typ = compiler.RecordType(f.Type)
			}
			rec.Fields = append(rec.Fields, Field{Name: f.Name, Type: typ})
		}
		facts.Records = append(facts.Records, rec)
	}

	for _, fn := range compiler.Functions(prog) {
		facts.Entities = append(facts.Entities, entity(fn))
	}
	return facts
}

func entity(fn *compiler.Node) Entity {
	e := Entity{
		Name:       fn.Text,
		Line:       fn.Line,
		ReturnType: compiler.DeclType(fn),
		Ports: []Port{
			{Name: "clk", Direction: "in", Type: "std_logic"},
			{Name: "reset", Direction: "in", Type: "std_logic"},
		},
		Signals: []Signal{},
	}
	for _, p := range compiler.Params(fn) {
		e.Ports = append(e.Ports, Port{Name: p.Text, Direction: "in", Type: compiler.DeclType(p)})
	}
	e.Ports = append(e.Ports, Port{Name: "result", Direction: "out", Type: e.ReturnType})

	for _, decl := range compiler.LocalDecls(fn) {
		name, size, isArray := compiler.DeclName(decl)
		e.Signals = append(e.Signals, Signal{
			Name:    compiler.SignalName(name),
			Type:    compiler.DeclType(decl),
			IsArray: isArray,
			Size:    size,
			Line:    decl.Line,
		})
	}

	calls := make(map[string]bool)
	assigned := make(map[string]bool)
	read := make(map[string]bool)
	for _, stmt := range compiler.Body(fn) {
		compiler.CollectCalls(stmt, calls)
		compiler.Walk(stmt, func(n, parent *compiler.Node) bool {
			switch {
			case n.Kind == compiler.Statement && n.Type != nil && n.Type.Text == "return":
				assigned["result"] = true
			case n.Kind == compiler.VarDecl && n.Child(0) != nil:
				name, _, _ := compiler.DeclName(n)
				assigned[compiler.SignalName(name)] = true
			case n.Kind == compiler.Expression:
				if parent != nil && parent.Kind == compiler.Assignment && parent.Child(0) == n {
					a := compiler.ParseAccess(n.Text)
					assigned[compiler.SignalName(a.Base)] = true
					markIdentifiers(read, a.Index)
				} else {
					markExpression(read, n.Text)
				}
			}
			return true
		})
	}
	e.Calls = sortedKeys(calls)
	e.Assigned = sortedKeys(assigned)
	e.Referenced = sortedKeys(read)
	return e
}

// markExpression records the signals an expression leaf reads.
func markExpression(read map[string]bool, text string) {
	if text == compiler.ArrayInit || text == compiler.StructInit {
		return
	}
	if len(text) > 1 && text[0] == '-' {
		text = text[1:]
	}
	if !identifier.MatchString(text) || identifier.FindStringIndex(text)[0] != 0 {
		return
	}
	a := compiler.ParseAccess(text)
	read[compiler.SignalName(a.Base)] = true
	markIdentifiers(read, a.Index)
}

// markIdentifiers records every identifier in raw index text.
func markIdentifiers(read map[string]bool, text string) {
	for _, name := range identifier.FindAllString(text, -1) {
		read[compiler.SignalName(name)] = true
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
