package compiler

import (
	"strconv"
	"strings"

	"cvhdl/pkg/diag"
)

// wrap returns a Statement node holding inner, or an empty Statement when
// inner is nil.
func wrap(inner *Node, line int) *Node {
	return NewNode(Statement, "", line).Add(inner)
}

// parseStatement parses one statement. A bare "{ ... }" block is flattened
// into its statements, so the result may hold zero or more nodes.
func (p *Parser) parseStatement() ([]*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.cur
	switch {
	case tok.Kind == Keyword && (scalarTypes[tok.Text] || tok.Text == "struct"):
		decl, err := p.parseVarDecl()
		if err != nil {
			return nil, err
		}
		return []*Node{wrap(decl, tok.Line)}, nil

	case tok.Kind == Identifier:
		inner, err := p.parseAssignmentOrCall()
		if err != nil || inner == nil {
			return nil, err
		}
		return []*Node{wrap(inner, tok.Line)}, nil

	case tok.Kind == Operator && (tok.Text == "++" || tok.Text == "--"):
		inner, err := p.parsePrefixStep()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Semicolon, "';' after increment"); err != nil {
			return nil, err
		}
		return []*Node{wrap(inner, tok.Line)}, nil

	case p.matchKeyword("return"):
		stmt, err := p.parseReturn()
		if err != nil {
			return nil, err
		}
		return []*Node{stmt}, nil

	case p.matchKeyword("if"):
		n, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		return []*Node{wrap(n, tok.Line)}, nil

	case p.matchKeyword("while"):
		n, err := p.parseWhile()
		if err != nil {
			return nil, err
		}
		return []*Node{wrap(n, tok.Line)}, nil

	case p.matchKeyword("for"):
		n, err := p.parseFor()
		if err != nil {
			return nil, err
		}
		return []*Node{wrap(n, tok.Line)}, nil

	case p.matchKeyword("break"), p.matchKeyword("continue"):
		n, err := p.parseLoopJump()
		if err != nil {
			return nil, err
		}
		return []*Node{wrap(n, tok.Line)}, nil

	case tok.Kind == BraceOpen:
		return p.parseBlock()
	}

	// Anything else is skipped to the next ';' or '}'.
	if tok.Kind != Semicolon {
		p.warnf(tok, diag.Parser, CodeSkipped, "Unsupported statement starting with %s ignored", describe(tok))
	}
	for !p.match(Semicolon) && !p.match(BraceClose) && !p.match(EndOfInput) {
		p.advance()
	}
	if p.match(Semicolon) {
		p.advance()
	}
	return nil, nil
}

// parseBlock parses "{ statements }".
func (p *Parser) parseBlock() ([]*Node, error) {
	if _, err := p.expect(BraceOpen, "'{'"); err != nil {
		return nil, err
	}
	var stmts []*Node
	for !p.match(BraceClose) && !p.match(EndOfInput) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s...)
	}
	if _, err := p.expect(BraceClose, "'}' to close block"); err != nil {
		return nil, err
	}
	return stmts, nil
}

// parseBody parses a braced block, or a single statement when no brace
// follows (as in "if (x) y = 1;").
func (p *Parser) parseBody(what string) ([]*Node, error) {
	if p.match(BraceOpen) {
		return p.parseBlock()
	}
	if p.match(EndOfInput) || p.match(BraceClose) {
		return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected '{' after %s, got %s", what, describe(p.cur))
	}
	return p.parseStatement()
}

// parseVarDecl parses a declaration starting at its type keyword.
func (p *Parser) parseVarDecl() (*Node, error) {
	typeTok := p.advance()
	isStruct := false
	if typeTok.Text == "struct" {
		name, err := p.expectName("struct name after 'struct'")
		if err != nil {
			return nil, err
		}
		p.checkStructType(name)
		typeTok = name
		isStruct = true
	}

	name, err := p.expectName("variable name after type")
	if err != nil {
		return nil, err
	}
	decl := NewNode(VarDecl, name.Text, name.Line)
	decl.Type = &typeTok

	isArray := false
	if p.match(BracketOpen) {
		p.advance()
		sizeTok := p.cur
		size, convErr := strconv.Atoi(sizeTok.Text)
		if sizeTok.Kind != Number || convErr != nil || size <= 0 {
			return nil, p.errorf(sizeTok, diag.Semantic, CodeArraySize, "Expected array size after '[', got %s", describe(sizeTok))
		}
		p.advance()
		if _, err := p.expect(BracketClose, "']' after array size"); err != nil {
			return nil, err
		}
		decl.Text = name.Text + "[" + sizeTok.Text + "]"
		p.ctx.Arrays.Register(name.Text, size)
		isArray = true
	}

	if p.matchOp("=") {
		p.advance()
		if p.match(BraceOpen) {
			if !isArray && !isStruct {
				return nil, p.errorf(p.cur, diag.Semantic, CodeExpectedToken, "Initializer list for '%s' requires an array or struct variable", name.Text)
			}
			sentinel := StructInit
			if isArray {
				sentinel = ArrayInit
			}
			list, err := p.parseInitList(sentinel)
			if err != nil {
				return nil, err
			}
			decl.Add(list)
		} else {
			init, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if init == nil {
				return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected expression after '=', got %s", describe(p.cur))
			}
			decl.Add(init)
			if !p.match(Semicolon) && !p.match(EndOfInput) {
				p.warnf(p.cur, diag.Parser, CodeSkipped, "Unsupported tokens after initializer of '%s' ignored", name.Text)
				for !p.match(Semicolon) && !p.match(EndOfInput) {
					p.advance()
				}
			}
		}
	}

	if _, err := p.expect(Semicolon, "';' after variable declaration"); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseInitList parses "{ expr, expr, ... }" into an Expression node marked
// with sentinel.
func (p *Parser) parseInitList(sentinel string) (*Node, error) {
	open := p.advance()
	list := NewNode(Expression, sentinel, open.Line)
	for !p.match(BraceClose) && !p.match(EndOfInput) {
		if p.match(Comma) {
			p.advance()
			continue
		}
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if elem == nil {
			p.advance()
			continue
		}
		list.Add(elem)
	}
	what := "'}' after struct initializer"
	if sentinel == ArrayInit {
		what = "'}' after array initializer"
	}
	if _, err := p.expect(BraceClose, what); err != nil {
		return nil, err
	}
	return list, nil
}

// parseAccessText parses "name(.field)*([index])?" into its encoded text
// and checks a literal index against the array table.
func (p *Parser) parseAccessText() (string, error) {
	first := p.advance()
	var b strings.Builder
	b.WriteString(first.Text)

	for p.matchOp(".") {
		p.advance()
		field, err := p.expectName("field name after '.'")
		if err != nil {
			return "", err
		}
		b.WriteString("__")
		b.WriteString(field.Text)
	}
	path := b.String()

	if !p.match(BracketOpen) {
		return path, nil
	}
	p.advance()
	index, err := p.rawIndex()
	if err != nil {
		return "", err
	}
	if err := p.checkBounds(first, path, index); err != nil {
		return "", err
	}
	return path + "[" + index + "]", nil
}

// rawIndex reconstructs the tokens of an index up to the matching ']' as
// text, tracking parenthesis depth. The closing bracket is consumed.
func (p *Parser) rawIndex() (string, error) {
	var b strings.Builder
	depth := 0
	for !p.match(EndOfInput) {
		if p.match(BracketClose) && depth == 0 {
			break
		}
		switch p.cur.Kind {
		case ParenOpen:
			depth++
		case ParenClose:
			if depth > 0 {
				depth--
			}
		}
		b.WriteString(p.advance().Text)
	}
	if _, err := p.expect(BracketClose, "']' after array index"); err != nil {
		return "", err
	}
	return b.String(), nil
}

// checkBounds rejects a literal index outside the declared array size.
func (p *Parser) checkBounds(at Token, name, index string) error {
	idx, err := strconv.Atoi(index)
	if err != nil {
		return nil
	}
	size, ok := p.ctx.Arrays.Size(name)
	if !ok {
		return nil
	}
	if idx < 0 || idx >= size {
		e := p.errorf(at, diag.Semantic, CodeIndexBounds, "Array index %d out of bounds for '%s' with size %d", idx, name, size)
		e.(*Error).Hints = []string{"valid indices are 0 to " + strconv.Itoa(size-1)}
		return e
	}
	return nil
}

// parseAssignmentOrCall parses a statement that starts with an identifier:
// an assignment, an increment, or a call. Anything else is discarded up to
// the next ';'.
func (p *Parser) parseAssignmentOrCall() (*Node, error) {
	start := p.cur

	if p.lookingAtCall() {
		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Semicolon, "';' after function call"); err != nil {
			return nil, err
		}
		return call, nil
	}

	text, err := p.parseAccessText()
	if err != nil {
		return nil, err
	}
	lhs := NewNode(Expression, text, start.Line)

	switch {
	case p.matchOp("="):
		p.advance()
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected expression after '=', got %s", describe(p.cur))
		}
		if _, err := p.expect(Semicolon, "';' after assignment"); err != nil {
			return nil, err
		}
		return NewNode(Assignment, "", start.Line).Add(lhs, rhs), nil

	case p.matchOp("++"), p.matchOp("--"):
		step := p.advance()
		if _, err := p.expect(Semicolon, "';' after increment"); err != nil {
			return nil, err
		}
		return stepAssignment(text, step.Text, start.Line), nil
	}

	p.warnf(start, diag.Parser, CodeSkipped, "Statement starting with '%s' has no effect and is ignored", start.Text)
	p.skipPast()
	return nil, nil
}

// lookingAtCall reports whether the current identifier is followed by '('.
// The lexer is cloned so the check does not consume input.
func (p *Parser) lookingAtCall() bool {
	if !p.match(Identifier) {
		return false
	}
	probe := *p.lex
	return probe.NextToken().Kind == ParenOpen
}

// stepAssignment desugars "x++" / "x--" into "x = x + 1" / "x = x - 1".
func stepAssignment(target, op string, line int) *Node {
	arith := "+"
	if op == "--" {
		arith = "-"
	}
	rhs := NewNode(BinaryExpr, arith, line).Add(
		NewNode(Expression, target, line),
		NewNode(Expression, "1", line),
	)
	return NewNode(Assignment, "", line).Add(NewNode(Expression, target, line), rhs)
}

// parsePrefixStep parses "++x" / "--x".
func (p *Parser) parsePrefixStep() (*Node, error) {
	op := p.advance()
	if !p.match(Identifier) {
		return nil, p.errorf(p.cur, diag.Parser, CodeExpectedName, "Expected variable after '%s', got %s", op.Text, describe(p.cur))
	}
	text, err := p.parseAccessText()
	if err != nil {
		return nil, err
	}
	return stepAssignment(text, op.Text, op.Line), nil
}

// parseReturn parses "return expr? ;". The Statement carries the return
// keyword as its Type; its only child, if any, is the returned value.
func (p *Parser) parseReturn() (*Node, error) {
	kw := p.advance()
	stmt := NewNode(Statement, "", kw.Line)
	stmt.Type = &kw
	if !p.match(Semicolon) {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected expression after 'return', got %s", describe(p.cur))
		}
		stmt.Add(value)
	}
	if _, err := p.expect(Semicolon, "';' after return statement"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseCondition parses "( expr )" after a keyword.
func (p *Parser) parseCondition(keyword string) (*Node, error) {
	if _, err := p.expect(ParenOpen, "'(' after '"+keyword+"'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if cond == nil {
		return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected condition after '%s (', got %s", keyword, describe(p.cur))
	}
	if _, err := p.expect(ParenClose, "')' after "+keyword+" condition"); err != nil {
		return nil, err
	}
	return cond, nil
}

// parseIf parses an if statement with its else-if and else branches.
// Children: condition, body statements, then ElseIf and Else nodes.
func (p *Parser) parseIf() (*Node, error) {
	kw := p.advance()
	cond, err := p.parseCondition("if")
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody("if condition")
	if err != nil {
		return nil, err
	}
	ifNode := NewNode(If, "", kw.Line).Add(cond)
	ifNode.Add(body...)

	for p.matchKeyword("else") {
		elseTok := p.advance()
		if p.matchKeyword("if") {
			p.advance()
			cond, err := p.parseCondition("else if")
			if err != nil {
				return nil, err
			}
			body, err := p.parseBody("else if condition")
			if err != nil {
				return nil, err
			}
			elif := NewNode(ElseIf, "", elseTok.Line).Add(cond)
			elif.Add(body...)
			ifNode.Add(elif)
			continue
		}
		body, err := p.parseBody("else")
		if err != nil {
			return nil, err
		}
		ifNode.Add(NewNode(Else, "", elseTok.Line).Add(body...))
		break
	}
	return ifNode, nil
}

// parseLoopBody parses a loop body with the loop depth raised.
func (p *Parser) parseLoopBody(what string) ([]*Node, error) {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.parseBody(what)
}

// parseWhile parses "while (cond) body". Children: condition, statements.
func (p *Parser) parseWhile() (*Node, error) {
	kw := p.advance()
	cond, err := p.parseCondition("while")
	if err != nil {
		return nil, err
	}
	body, err := p.parseLoopBody("while condition")
	if err != nil {
		return nil, err
	}
	return NewNode(While, "", kw.Line).Add(cond).Add(body...), nil
}

// parseFor parses "for (init; cond; incr) body".
// Children: init (VarDecl or Assignment, optional), condition ("1" when
// absent), body statements, increment Assignment (optional, always last).
func (p *Parser) parseFor() (*Node, error) {
	kw := p.advance()
	if _, err := p.expect(ParenOpen, "'(' after 'for'"); err != nil {
		return nil, err
	}
	forNode := NewNode(For, "", kw.Line)

	switch {
	case p.match(Semicolon):
		p.advance()
	case p.match(Keyword) && scalarTypes[p.cur.Text]:
		decl, err := p.parseVarDecl()
		if err != nil {
			return nil, err
		}
		forNode.Add(decl)
	case p.match(Identifier):
		start := p.cur
		text, err := p.parseAccessText()
		if err != nil {
			return nil, err
		}
		if !p.matchOp("=") {
			return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected '=' in for-loop initializer, got %s", describe(p.cur))
		}
		p.advance()
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected expression after '=', got %s", describe(p.cur))
		}
		if _, err := p.expect(Semicolon, "';' after for-init assignment"); err != nil {
			return nil, err
		}
		forNode.Add(NewNode(Assignment, "", start.Line).Add(NewNode(Expression, text, start.Line), rhs))
	default:
		return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected for-loop initializer or ';', got %s", describe(p.cur))
	}

	cond := NewNode(Expression, "1", kw.Line)
	if !p.match(Semicolon) {
		c, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if c != nil {
			cond = c
		}
	}
	if _, err := p.expect(Semicolon, "';' after for condition"); err != nil {
		return nil, err
	}
	forNode.Add(cond)

	incr, err := p.parseForIncrement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ParenClose, "')' after for header"); err != nil {
		return nil, err
	}

	body, err := p.parseLoopBody("for header")
	if err != nil {
		return nil, err
	}
	forNode.Add(body...)
	forNode.Add(incr)
	return forNode, nil
}

// parseForIncrement parses "i++", "i--", "++i", "--i" or "i = expr".
func (p *Parser) parseForIncrement() (*Node, error) {
	switch {
	case p.match(ParenClose):
		return nil, nil
	case p.matchOp("++"), p.matchOp("--"):
		return p.parsePrefixStep()
	case p.match(Identifier):
		start := p.cur
		text, err := p.parseAccessText()
		if err != nil {
			return nil, err
		}
		switch {
		case p.matchOp("++"), p.matchOp("--"):
			return stepAssignment(text, p.advance().Text, start.Line), nil
		case p.matchOp("="):
			p.advance()
			rhs, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected expression after '=', got %s", describe(p.cur))
			}
			return NewNode(Assignment, "", start.Line).Add(NewNode(Expression, text, start.Line), rhs), nil
		}
	}
	return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected for-loop increment, got %s", describe(p.cur))
}

// parseLoopJump parses break or continue, which must appear inside a loop.
func (p *Parser) parseLoopJump() (*Node, error) {
	kw := p.cur
	if p.loopDepth <= 0 {
		return nil, p.errorf(kw, diag.Semantic, CodeLoopScope, "'%s' not within a loop", kw.Text)
	}
	p.advance()
	if _, err := p.expect(Semicolon, "';' after '"+kw.Text+"'"); err != nil {
		return nil, err
	}
	kind := Break
	if kw.Text == "continue" {
		kind = Continue
	}
	return NewNode(kind, "", kw.Line), nil
}
