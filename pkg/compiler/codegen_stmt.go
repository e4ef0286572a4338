package compiler

import (
	"strings"
)

// bodyDepth is the indent level of statements directly inside the clocked
// branch of the process. Each level is two spaces.
const bodyDepth = 3

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

// statement lowers one Statement node.
func (g *Generator) statement(stmt *Node, depth int) {
	if stmt.Type != nil && stmt.Type.Text == "return" {
		g.ret(stmt.Child(0), depth)
		return
	}
	for _, c := range stmt.Children {
		g.inner(c, depth)
	}
}

func (g *Generator) inner(n *Node, depth int) {
	pad := indent(depth)
	switch n.Kind {
	case Statement:
		g.statement(n, depth)
	case VarDecl:
		g.declInit(n, depth)
	case Assignment:
		g.assign(n, depth)
	case If:
		g.ifStmt(n, depth)
	case While:
		g.line("%swhile %s loop", pad, g.cond(n.Child(0)))
		g.block(n.Children[1:], depth+1)
		g.line("%send loop;", pad)
	case For:
		g.forStmt(n, depth)
	case Break:
		g.line("%sexit;", pad)
	case Continue:
		g.line("%snext;", pad)
	case FuncCall:
		g.line("%s-- call discarded: %s", pad, n.String())
	case Expression, BinaryExpr, UnaryOp:
		g.ret(n, depth)
	}
}

func (g *Generator) block(stmts []*Node, depth int) {
	for _, s := range stmts {
		g.inner(s, depth)
	}
}

// declInit assigns a local's initializer. Array initializers are part of
// the signal declaration and emit nothing here.
func (g *Generator) declInit(decl *Node, depth int) {
	init := decl.Child(0)
	if init == nil {
		return
	}
	name, _, isArray := DeclName(decl)
	if isArray {
		return
	}
	pad := indent(depth)
	sig := SignalName(name)

	if init.Text != StructInit || init.Kind != Expression {
		g.line("%s%s <= %s;", pad, sig, g.expr(init))
		return
	}

	info, ok := g.ctx.Structs.Lookup(decl.TypeName())
	if !ok {
		g.warn(decl.Line, "No struct definition for '%s'; initializer of '%s' omitted", decl.TypeName(), name)
		return
	}
	for i, f := range info.Fields {
		val := "0"
		if v := init.Child(i); v != nil {
			val = g.expr(v)
			if v.Kind == Expression && f.Type == "int" && isIntLike(v.Text) {
				val = "to_unsigned(" + v.Text + ", 32)"
			}
		} else if f.Type == "int" {
			val = "to_unsigned(0, 32)"
		}
		g.line("%s%s.%s <= %s;", pad, sig, f.Name, val)
	}
}

// isIntLike reports whether text starts like a number or a negative
// number.
func isIntLike(text string) bool {
	if strings.HasPrefix(text, "-") {
		text = text[1:]
	}
	return text != "" && text[0] >= '0' && text[0] <= '9'
}

func (g *Generator) assign(n *Node, depth int) {
	lhs, rhs := n.Child(0), n.Child(1)
	if lhs == nil || rhs == nil {
		return
	}
	g.line("%s%s <= %s;", indent(depth), g.target(lhs.Text), g.expr(rhs))
}

// ret assigns a value to the result port. Returning a bare local from a
// struct-returning function copies it field by field.
func (g *Generator) ret(value *Node, depth int) {
	if value == nil {
		return
	}
	pad := indent(depth)
	if g.fn != nil && IsStructType(g.fn.Type) && value.Kind == Expression {
		if a := ParseAccess(value.Text); a.Plain() && isIdentStart(value.Text) {
			info, ok := g.ctx.Structs.Lookup(g.fn.Type.Text)
			if !ok {
				g.warn(value.Line, "No struct definition for '%s'; return of '%s' omitted", g.fn.Type.Text, value.Text)
				return
			}
			src := SignalName(value.Text)
			for _, f := range info.Fields {
				g.line("%sresult.%s <= %s.%s;", pad, f.Name, src, f.Name)
			}
			return
		}
	}
	g.line("%sresult <= %s;", pad, g.expr(value))
}

func isIdentStart(text string) bool {
	if text == "" {
		return false
	}
	c := text[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ifStmt emits if/elsif/else. Children: condition, statements, then
// ElseIf and Else branches.
func (g *Generator) ifStmt(n *Node, depth int) {
	pad := indent(depth)
	g.line("%sif %s then", pad, g.cond(n.Child(0)))
	for _, c := range n.Children[1:] {
		switch c.Kind {
		case ElseIf:
			g.line("%selsif %s then", pad, g.cond(c.Child(0)))
			g.block(c.Children[1:], depth+1)
		case Else:
			g.line("%selse", pad)
			g.block(c.Children, depth+1)
		default:
			g.inner(c, depth+1)
		}
	}
	g.line("%send if;", pad)
}

// forStmt lowers a for loop to its initializer followed by a while loop
// whose body ends with the increment.
func (g *Generator) forStmt(n *Node, depth int) {
	pad := indent(depth)
	rest := n.Children

	if len(rest) > 0 {
		switch first := rest[0]; first.Kind {
		case VarDecl:
			g.declInit(first, depth)
			rest = rest[1:]
		case Assignment:
			g.assign(first, depth)
			rest = rest[1:]
		}
	}
	if len(rest) == 0 {
		return
	}
	cond := rest[0]
	body := rest[1:]

	var incr *Node
	if k := len(body) - 1; k >= 0 && body[k].Kind == Assignment {
		incr = body[k]
		body = body[:k]
	}

	g.line("%swhile %s loop", pad, g.cond(cond))
	g.block(body, depth+1)
	if incr != nil {
		g.assign(incr, depth+1)
	}
	g.line("%send loop;", pad)
}
