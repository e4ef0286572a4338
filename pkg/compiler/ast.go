package compiler

import (
	"fmt"
	"strings"
)

// NodeKind tags an AST node.
type NodeKind int

const (
	Program NodeKind = iota
	FunctionDecl
	StructDecl
	VarDecl
	Statement
	Expression
	BinaryExpr
	UnaryOp
	Assignment
	If
	ElseIf
	Else
	While
	For
	Break
	Continue
	FuncCall
)

var nodeNames = [...]string{
	Program:      "Program",
	FunctionDecl: "FunctionDecl",
	StructDecl:   "StructDecl",
	VarDecl:      "VarDecl",
	Statement:    "Statement",
	Expression:   "Expression",
	BinaryExpr:   "BinaryExpr",
	UnaryOp:      "UnaryOp",
	Assignment:   "Assignment",
	If:           "If",
	ElseIf:       "ElseIf",
	Else:         "Else",
	While:        "While",
	For:          "For",
	Break:        "Break",
	Continue:     "Continue",
	FuncCall:     "FuncCall",
}

func (k NodeKind) String() string {
	if int(k) >= 0 && int(k) < len(nodeNames) {
		return nodeNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Initializer-list sentinels stored in Expression.Text.
const (
	ArrayInit  = "array_init"
	StructInit = "struct_init"
)

// Node is a single AST node. The meaning of Text depends on Kind:
//
//	Expression     literal or identifier text, "-x" for a folded negative,
//	               "name[idx]" for an element (idx is raw source text),
//	               "a__b__c" for a field chain, or ArrayInit / StructInit
//	               for initializer lists whose children are the elements
//	VarDecl        variable name, or "name[size]" for a fixed-size array
//	BinaryExpr     operator spelling, exactly two children
//	UnaryOp        operator spelling ("!" or "~"), exactly one child
//	FunctionDecl   function name; Type is the return type token
//	StructDecl     struct name
//	FuncCall       callee name; children are the arguments
//
// Type carries the declared type token for declarations and functions. For
// struct-typed declarations it is the struct name identifier.
type Node struct {
	Kind     NodeKind
	Type     *Token
	Text     string
	Children []*Node
	Line     int
}

// NewNode returns a childless node.
func NewNode(kind NodeKind, text string, line int) *Node {
	return &Node{Kind: kind, Text: text, Line: line}
}

// Add appends children in order and returns n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Child returns the i-th child or nil.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// TypeName returns the declared type spelling, or "" when absent.
func (n *Node) TypeName() string {
	if n == nil || n.Type == nil {
		return ""
	}
	return n.Type.Text
}

// String renders an expression subtree in a compact, parenthesized form,
// and any other node as its kind and payload.
//
//	a * b + c   ->   ((a * b) + c)
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case Expression:
		if n.Text == ArrayInit || n.Text == StructInit {
			parts := make([]string, len(n.Children))
			for i, c := range n.Children {
				parts[i] = c.String()
			}
			return "{" + strings.Join(parts, ", ") + "}"
		}
		return n.Text
	case BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", n.Child(0), n.Text, n.Child(1))
	case UnaryOp:
		return fmt.Sprintf("%s(%s)", n.Text, n.Child(0))
	case FuncCall:
		args := make([]string, len(n.Children))
		for i, c := range n.Children {
			args[i] = c.String()
		}
		return fmt.Sprintf("%s(%s)", n.Text, strings.Join(args, ", "))
	}
	if n.Type != nil {
		return fmt.Sprintf("%s %s %q", n.Kind, n.Type.Text, n.Text)
	}
	if n.Text != "" {
		return fmt.Sprintf("%s %q", n.Kind, n.Text)
	}
	return n.Kind.String()
}
