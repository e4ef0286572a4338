package compiler

import (
	"strings"

	"cvhdl/pkg/diag"
)

// Precedence returns the binding strength of a binary operator. Tokens
// that are not binary operators return NoPrecedence, which stops an
// expression.
func Precedence(op string) int {
	switch op {
	case "*", "/":
		return 7
	case "+", "-":
		return 6
	case "<<", ">>":
		return 5
	case "<", "<=", ">", ">=":
		return 4
	case "==", "!=":
		return 3
	case "&":
		return 2
	case "^":
		return 1
	case "|":
		return 0
	case "&&":
		return -1
	case "||":
		return -2
	}
	return NoPrecedence
}

const (
	// NoPrecedence marks a token that cannot continue an expression.
	NoPrecedence = -999
	// lowestPrecedence is where full expressions, including parenthesized
	// ones, start climbing.
	lowestPrecedence = -2
)

// parseExpression parses a full expression. A nil node with a nil error
// means no expression starts at the current token.
func (p *Parser) parseExpression() (*Node, error) {
	return p.parseExpressionPrec(lowestPrecedence)
}

// parseExpressionPrec is a precedence climber: operators at or above min
// bind here, and each right operand is parsed one level tighter, giving
// left associativity.
func (p *Parser) parseExpressionPrec(min int) (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parsePrimary()
	if err != nil || left == nil {
		return left, err
	}

	for p.match(Operator) {
		op := p.cur
		prec := Precedence(op.Text)
		if prec == NoPrecedence || prec < min {
			break
		}
		p.advance()
		right, err := p.parseExpressionPrec(prec + 1)
		if err != nil {
			return nil, err
		}
		if right == nil {
			return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected right operand after operator '%s', got %s", op.Text, describe(p.cur))
		}
		left = NewNode(BinaryExpr, op.Text, op.Line).Add(left, right)
	}
	return left, nil
}

// parsePrimary parses a unary operator application, a parenthesized
// expression, a call, an access or a number.
func (p *Parser) parsePrimary() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.cur
	switch {
	case p.matchOp("!"), p.matchOp("~"):
		p.advance()
		operand, err := p.requireOperand(tok)
		if err != nil {
			return nil, err
		}
		return NewNode(UnaryOp, tok.Text, tok.Line).Add(operand), nil

	case p.matchOp("-"):
		p.advance()
		operand, err := p.requireOperand(tok)
		if err != nil {
			return nil, err
		}
		// A leaf folds into its text unless it is already negated; anything
		// else becomes 0 - x.
		if operand.Kind == Expression && operand.Text != ArrayInit && operand.Text != StructInit &&
			!strings.HasPrefix(operand.Text, "-") {
			return NewNode(Expression, "-"+operand.Text, tok.Line), nil
		}
		zero := NewNode(Expression, "0", tok.Line)
		return NewNode(BinaryExpr, "-", tok.Line).Add(zero, operand), nil

	case p.match(ParenOpen):
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if inner == nil {
			return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected expression after '(', got %s", describe(p.cur))
		}
		if _, err := p.expect(ParenClose, "')' after expression"); err != nil {
			return nil, err
		}
		return inner, nil

	case p.match(Identifier):
		if p.lookingAtCall() {
			return p.parseCall()
		}
		text, err := p.parseAccessText()
		if err != nil {
			return nil, err
		}
		return NewNode(Expression, text, tok.Line), nil

	case p.match(Number):
		p.advance()
		return NewNode(Expression, tok.Text, tok.Line), nil
	}
	return nil, nil
}

func (p *Parser) requireOperand(op Token) (*Node, error) {
	operand, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if operand == nil {
		return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected operand after '%s', got %s", op.Text, describe(p.cur))
	}
	return operand, nil
}

// parseCall parses "name ( args )". Arguments are full expressions.
func (p *Parser) parseCall() (*Node, error) {
	name := p.advance()
	if _, err := p.expect(ParenOpen, "'(' after function name"); err != nil {
		return nil, err
	}
	call := NewNode(FuncCall, name.Text, name.Line)
	for !p.match(ParenClose) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if arg == nil {
			return nil, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected argument in call to '%s', got %s", name.Text, describe(p.cur))
		}
		call.Add(arg)
		if !p.match(Comma) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(ParenClose, "')' after call arguments"); err != nil {
		return nil, err
	}
	return call, nil
}
