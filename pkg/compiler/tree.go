package compiler

import (
	"fmt"
	"io"
	"strings"
)

// Walk visits n and its descendants in pre-order. fn receives each node and
// its parent (nil for n itself); returning false skips that node's children.
func Walk(n *Node, fn func(node, parent *Node) bool) {
	walk(n, nil, fn)
}

func walk(n, parent *Node, fn func(node, parent *Node) bool) {
	if n == nil {
		return
	}
	if !fn(n, parent) {
		return
	}
	for _, c := range n.Children {
		walk(c, n, fn)
	}
}

// Dump writes an indented, one-node-per-line rendering of the tree.
func Dump(w io.Writer, n *Node) {
	dump(w, n, 0)
}

func dump(w io.Writer, n *Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(n.Kind.String())
	if n.Type != nil {
		fmt.Fprintf(&b, " <%s>", n.Type.Text)
	}
	if n.Text != "" {
		fmt.Fprintf(&b, " %q", n.Text)
	}
	if n.Line > 0 {
		fmt.Fprintf(&b, "  (line %d)", n.Line)
	}
	fmt.Fprintln(w, b.String())
	for _, c := range n.Children {
		dump(w, c, depth+1)
	}
}

// Functions returns the top-level function declarations of prog in source
// order.
func Functions(prog *Node) []*Node {
	var fns []*Node
	for _, c := range prog.Children {
		if c.Kind == FunctionDecl {
			fns = append(fns, c)
		}
	}
	return fns
}

// Params returns the parameter declarations of a function node.
func Params(fn *Node) []*Node {
	var params []*Node
	for _, c := range fn.Children {
		if c.Kind != VarDecl {
			break
		}
		params = append(params, c)
	}
	return params
}

// Body returns the statements of a function node, after its parameters.
func Body(fn *Node) []*Node {
	return fn.Children[len(Params(fn)):]
}

// CollectCalls records the name of every FuncCall under n.
func CollectCalls(n *Node, calls map[string]bool) {
	Walk(n, func(node, _ *Node) bool {
		if node.Kind == FuncCall {
			calls[node.Text] = true
		}
		return true
	})
}

// Access is the decoded form of an identifier expression's text:
//
//	"p__pos__x"   ->  Access{Base: "p", Fields: ["pos", "x"]}
//	"buf[i+1]"    ->  Access{Base: "buf", Index: "i+1", Indexed: true}
//	"s__arr[2]"   ->  Access{Base: "s", Fields: ["arr"], Index: "2", Indexed: true}
type Access struct {
	Base    string
	Fields  []string
	Index   string
	Indexed bool
}

// ParseAccess decodes the parser's identifier encoding.
func ParseAccess(text string) Access {
	var a Access
	name := text
	if open := strings.IndexByte(text, '['); open >= 0 && strings.HasSuffix(text, "]") {
		name = text[:open]
		a.Index = text[open+1 : len(text)-1]
		a.Indexed = true
	}
	parts := strings.Split(name, "__")
	a.Base = parts[0]
	if len(parts) > 1 {
		a.Fields = parts[1:]
	}
	return a
}

// Plain reports whether the access is a bare identifier.
func (a Access) Plain() bool {
	return len(a.Fields) == 0 && !a.Indexed
}

// Path returns the array (or scalar) name the access indexes, with field
// separators kept in the encoded "__" form.
func (a Access) Path() string {
	return strings.Join(append([]string{a.Base}, a.Fields...), "__")
}
