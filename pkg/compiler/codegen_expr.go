package compiler

import (
	"regexp"
	"strings"
)

var (
	comparisonOps = map[string]string{
		"==": "=",
		"!=": "/=",
		"<":  "<",
		"<=": "<=",
		">":  ">",
		">=": ">=",
	}
	bitwiseOps = map[string]string{
		"&": "and",
		"|": "or",
		"^": "xor",
	}
	shiftOps = map[string]string{
		"<<": "shift_left",
		">>": "shift_right",
	}
)

// resultWord matches "result" as a whole identifier inside raw index text.
var resultWord = regexp.MustCompile(`\bresult\b`)

// IsBoolean reports whether n already yields a VHDL boolean: a comparison,
// a logical and/or, or a logical not.
func IsBoolean(n *Node) bool {
	switch n.Kind {
	case BinaryExpr:
		_, cmp := comparisonOps[n.Text]
		return cmp || n.Text == "&&" || n.Text == "||"
	case UnaryOp:
		return n.Text == "!"
	}
	return false
}

// isNegativeLiteral reports whether text is a folded negative number.
func isNegativeLiteral(text string) bool {
	return len(text) > 1 && text[0] == '-' && isNumeric(text[1:])
}

// expr lowers an expression to VHDL.
func (g *Generator) expr(n *Node) string {
	if n == nil {
		return "unknown"
	}
	switch n.Kind {
	case Expression:
		if n.Text == ArrayInit || n.Text == StructInit {
			parts := make([]string, len(n.Children))
			for i, c := range n.Children {
				parts[i] = g.expr(c)
			}
			return "(" + strings.Join(parts, ", ") + ")"
		}
		return g.leaf(n.Text)
	case BinaryExpr:
		return g.binary(n)
	case UnaryOp:
		x := n.Child(0)
		switch n.Text {
		case "!":
			if x != nil && IsBoolean(x) {
				return "not (" + g.expr(x) + ")"
			}
			return "(unsigned(" + g.expr(x) + ") = 0)"
		case "~":
			return "not unsigned(" + g.expr(x) + ")"
		}
		return "-- unsupported unary op " + n.Text
	case FuncCall:
		args := make([]string, len(n.Children))
		for i, c := range n.Children {
			args[i] = g.expr(c)
		}
		return n.Text + "(" + strings.Join(args, ", ") + ")"
	}
	return "unknown"
}

func (g *Generator) binary(n *Node) string {
	left, right := n.Child(0), n.Child(1)
	op := n.Text

	if op == "&&" || op == "||" {
		sep := " and "
		if op == "||" {
			sep = " or "
		}
		return "(" + g.truth(left) + sep + g.truth(right) + ")"
	}
	if vop, ok := comparisonOps[op]; ok {
		return g.operand(left) + " " + vop + " " + g.operand(right)
	}
	if vop, ok := bitwiseOps[op]; ok {
		return "unsigned(" + g.expr(left) + ") " + vop + " unsigned(" + g.expr(right) + ")"
	}
	if fn, ok := shiftOps[op]; ok {
		return fn + "(unsigned(" + g.expr(left) + "), to_integer(unsigned(" + g.expr(right) + ")))"
	}
	return g.arith(left, op, false) + " " + op + " " + g.arith(right, op, true)
}

func isArith(op string) bool {
	return op == "+" || op == "-" || op == "*" || op == "/"
}

// arith renders an operand of an infix operator, parenthesizing a looser
// arithmetic operand (or an equal one on the right) so grouping survives.
// VHDL does not allow a sign right after an operator, so a negated right
// operand is parenthesized too.
func (g *Generator) arith(n *Node, parent string, right bool) string {
	s := g.expr(n)
	if right && strings.HasPrefix(s, "-") {
		return "(" + s + ")"
	}
	if n == nil || n.Kind != BinaryExpr || !isArith(n.Text) {
		return s
	}
	p, pp := Precedence(n.Text), Precedence(parent)
	if p < pp || (right && p == pp) {
		return "(" + s + ")"
	}
	return s
}

// truth is one side of a logical and/or: booleans are parenthesized, other
// values are compared against zero.
func (g *Generator) truth(n *Node) string {
	if n != nil && IsBoolean(n) {
		return "(" + g.expr(n) + ")"
	}
	return "unsigned(" + g.expr(n) + ") /= 0"
}

// operand converts one side of a comparison to a numeric_std value.
func (g *Generator) operand(n *Node) string {
	if n != nil && n.Kind == Expression {
		switch {
		case isNegativeLiteral(n.Text):
			return "to_signed(" + n.Text + ", 32)"
		case isNumeric(n.Text):
			return "to_unsigned(" + n.Text + ", 32)"
		}
	}
	return "unsigned(" + g.expr(n) + ")"
}

// cond lowers a C condition to a VHDL boolean, emulating C truthiness
// for non-boolean values.
func (g *Generator) cond(n *Node) string {
	if n == nil {
		return "(false)"
	}
	switch {
	case IsBoolean(n):
		return g.expr(n)
	case n.Kind == Expression && isNumeric(n.Text):
		return "to_unsigned(" + n.Text + ", 32) /= 0"
	}
	return "unsigned(" + g.expr(n) + ") /= 0"
}

// leaf lowers the text of a literal or access:
//
//	-5      ->  to_signed(-5, 32)
//	-x      ->  -unsigned(x)
//	a__b    ->  a.b
//	buf[i]  ->  buf(i)
//	result  ->  result_local
func (g *Generator) leaf(text string) string {
	if strings.HasPrefix(text, "-") && len(text) > 1 {
		rest := text[1:]
		if isIdentStart(rest) {
			return "-unsigned(" + g.leaf(rest) + ")"
		}
		return "to_signed(" + text + ", 32)"
	}
	if !isIdentStart(text) {
		return text
	}
	return g.target(text)
}

// target lowers an access used as an assignment target or value.
func (g *Generator) target(text string) string {
	a := ParseAccess(text)
	var b strings.Builder
	b.WriteString(SignalName(a.Base))
	for _, f := range a.Fields {
		b.WriteByte('.')
		b.WriteString(f)
	}
	if a.Indexed {
		b.WriteByte('(')
		b.WriteString(resultWord.ReplaceAllString(a.Index, "result_local"))
		b.WriteByte(')')
	}
	return b.String()
}
