package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cvhdl/pkg/diag"
)

// maxDepth bounds statement and expression nesting.
const maxDepth = 256

// typeNames lists the spellings accepted where a type is expected, for
// suggestions.
var typeNames = []string{"int", "float", "char", "double", "void", "struct"}

// Parser is a recursive-descent parser over a single token of lookahead.
//
// Grammar:
//
//	program    = (structDecl | function | global)* EOF
//	structDecl = "struct" IDENT "{" (type IDENT ";")* "}" ";"
//	function   = (type | "struct" IDENT) IDENT "(" params? ")" block
//	params     = param ("," param)*
//	param      = type IDENT | "struct" IDENT IDENT
//	statement  = varDecl | assignment | call | return | if | while | for
//	           | "break" ";" | "continue" ";" | block
//	varDecl    = (type | "struct" IDENT) IDENT ("[" NUMBER "]")? ("=" (expr | "{" list "}"))? ";"
//	assignment = access ("=" expr | "++" | "--") ";"
//	access     = IDENT ("." IDENT)* ("[" tokens "]")?
//	expr       = primary (binop expr)*      precedence climbing, see Precedence
//	primary    = ("!" | "~" | "-") primary | "(" expr ")" | NUMBER | access | IDENT "(" args ")"
type Parser struct {
	lex         *Lexer
	cur         Token
	ctx         *Context
	sourceLines []string
	loopDepth   int
	depth       int
}

// NewParser primes a parser over src. Struct and array registrations go to
// ctx.
func NewParser(src string, ctx *Context) *Parser {
	p := &Parser{
		lex:         NewLexer(src),
		ctx:         ctx,
		sourceLines: strings.Split(src, "\n"),
	}
	p.cur = p.lex.NextToken()
	return p
}

// Parse builds the Program AST for src.
func Parse(src string, ctx *Context) (*Node, error) {
	return NewParser(src, ctx).ParseProgram()
}

func (p *Parser) sourceLine(line int) string {
	if line < 1 || line > len(p.sourceLines) {
		return ""
	}
	return strings.TrimRight(p.sourceLines[line-1], "\r")
}

// errorf builds a fatal positioned error at tok.
func (p *Parser) errorf(tok Token, cat diag.Category, code, format string, args ...any) error {
	return &Error{
		Severity: diag.Error,
		Category: cat,
		Line:     tok.Line,
		Col:      tok.Col,
		Code:     code,
		Msg:      fmt.Sprintf(format, args...),
		Source:   p.sourceLine(tok.Line),
	}
}

// warnf records a nonfatal finding at tok.
func (p *Parser) warnf(tok Token, cat diag.Category, code, format string, args ...any) *Error {
	w := p.ctx.Warn(cat, tok.Line, code, format, args...)
	w.Col = tok.Col
	w.Source = p.sourceLine(tok.Line)
	return w
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.cur
	p.cur = p.lex.NextToken()
	return tok
}

func (p *Parser) match(kind TokenKind) bool {
	return p.cur.Kind == kind
}

func (p *Parser) matchOp(op string) bool {
	return p.cur.Is(Operator, op)
}

func (p *Parser) matchKeyword(word string) bool {
	return p.cur.Is(Keyword, word)
}

func describe(tok Token) string {
	if tok.Kind == EndOfInput {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", tok.Text)
}

// expect consumes the current token if it has the given kind; otherwise it
// fails with "Expected <what>".
func (p *Parser) expect(kind TokenKind, what string) (Token, error) {
	if p.cur.Kind != kind {
		return p.cur, p.errorf(p.cur, diag.Parser, CodeExpectedToken, "Expected %s, got %s", what, describe(p.cur))
	}
	return p.advance(), nil
}

// expectName consumes an identifier.
func (p *Parser) expectName(what string) (Token, error) {
	if p.cur.Kind != Identifier {
		return p.cur, p.errorf(p.cur, diag.Parser, CodeExpectedName, "Expected %s, got %s", what, describe(p.cur))
	}
	return p.advance(), nil
}

// enter guards recursion depth; callers defer p.leave().
func (p *Parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return p.errorf(p.cur, diag.Parser, CodeTooDeep, "Nesting deeper than %d levels", maxDepth)
	}
	return nil
}

func (p *Parser) leave() { p.depth-- }

// skipPast discards tokens up to and including the next ';'.
func (p *Parser) skipPast() {
	for !p.match(Semicolon) && !p.match(EndOfInput) {
		p.advance()
	}
	if p.match(Semicolon) {
		p.advance()
	}
}

// ParseProgram parses declarations until end of input. Unknown leading
// tokens are skipped one at a time.
func (p *Parser) ParseProgram() (*Node, error) {
	prog := NewNode(Program, "", 1)
	for !p.match(EndOfInput) {
		if p.match(Keyword) {
			n, err := p.parseTopLevel()
			if err != nil {
				return nil, err
			}
			prog.Add(n)
			continue
		}
		p.advance()
	}
	return prog, nil
}

// parseTopLevel handles a declaration that starts with a keyword.
func (p *Parser) parseTopLevel() (*Node, error) {
	if p.matchKeyword("struct") {
		kw := p.advance()
		if !p.match(Identifier) {
			p.warnf(kw, diag.Parser, CodeSkipped, "'struct' without name")
			return nil, nil
		}
		name := p.advance()
		if p.match(BraceOpen) {
			return p.parseStructDecl(name)
		}
		p.checkStructType(name)
		return p.parseFunctionOrGlobal(name)
	}

	retType := p.advance()
	if !isTypeKeyword(retType.Text) {
		p.warnf(retType, diag.Parser, CodeSkipped, "Unexpected '%s' at top level", retType.Text)
		return nil, nil
	}
	return p.parseFunctionOrGlobal(retType)
}

// parseFunctionOrGlobal continues after a type: a name followed by '('
// starts a function, anything else is an unsupported global.
func (p *Parser) parseFunctionOrGlobal(retType Token) (*Node, error) {
	if !p.match(Identifier) {
		p.warnf(p.cur, diag.Parser, CodeSkipped, "Expected identifier after type '%s'", retType.Text)
		p.advance()
		return nil, nil
	}
	name := p.advance()
	if !p.match(ParenOpen) {
		p.warnf(name, diag.Parser, CodeGlobalVariable, "Global variable declarations not yet implemented")
		p.skipPast()
		return nil, nil
	}
	return p.parseFunction(retType, name)
}

func isTypeKeyword(word string) bool {
	return scalarTypes[word] || word == "void"
}

// checkStructType warns when a struct type name has not been defined.
func (p *Parser) checkStructType(name Token) {
	if _, ok := p.ctx.Structs.Lookup(name.Text); ok {
		return
	}
	w := p.warnf(name, diag.Semantic, CodeUnknownStruct, "Unknown struct type '%s'", name.Text)
	if s, ok := diag.Suggest(name.Text, p.ctx.Structs.Names()); ok {
		w.Suggestion = s
	}
}

// parseStructDecl parses "{ fields } ;" after "struct Name" and registers
// the definition.
func (p *Parser) parseStructDecl(name Token) (*Node, error) {
	if _, err := p.expect(BraceOpen, "'{' after struct name"); err != nil {
		return nil, err
	}

	node := NewNode(StructDecl, name.Text, name.Line)
	info := &StructInfo{Name: name.Text, Line: name.Line}

	for !p.match(BraceClose) && !p.match(EndOfInput) {
		if !p.match(Keyword) {
			p.advance()
			continue
		}
		typeTok := p.advance()
		if typeTok.Text == "struct" {
			nested, err := p.expectName("struct name in field declaration")
			if err != nil {
				return nil, err
			}
			p.checkStructType(nested)
			typeTok = nested
		}
		fieldName, err := p.expectName("field name in struct")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Semicolon, "';' after struct field"); err != nil {
			return nil, err
		}

		field := NewNode(VarDecl, fieldName.Text, fieldName.Line)
		field.Type = &typeTok
		node.Add(field)
		info.Fields = append(info.Fields, Field{Name: fieldName.Text, Type: typeTok.Text})
	}

	if _, err := p.expect(BraceClose, "'}' after struct body"); err != nil {
		return nil, err
	}
	if _, err := p.expect(Semicolon, "';' after struct declaration"); err != nil {
		return nil, err
	}

	if !p.ctx.Structs.Define(info) {
		p.warnf(name, diag.Semantic, CodeDuplicateStruct, "Struct '%s' is already defined; the first definition is used", name.Text)
	}
	return node, nil
}

// parseFunction parses the parameter list and body. The array table is
// reset first: array names do not carry over between functions.
func (p *Parser) parseFunction(retType, name Token) (*Node, error) {
	p.ctx.Arrays.Reset()
	p.loopDepth = 0

	fn := NewNode(FunctionDecl, name.Text, name.Line)
	fn.Type = &retType

	if _, err := p.expect(ParenOpen, "'(' after function name"); err != nil {
		return nil, err
	}
	for !p.match(ParenClose) && !p.match(EndOfInput) {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		fn.Add(param)
		if p.match(Comma) {
			p.advance()
		}
	}
	if _, err := p.expect(ParenClose, "')' after parameter list"); err != nil {
		return nil, err
	}

	if _, err := p.expect(BraceOpen, "'{' to start function body"); err != nil {
		return nil, err
	}
	for !p.match(BraceClose) && !p.match(EndOfInput) {
		stmts, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		fn.Add(stmts...)
	}
	if _, err := p.expect(BraceClose, "'}' to end function body"); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseParam parses "type name" or "struct S name". A lone "void" yields
// no parameter.
func (p *Parser) parseParam() (*Node, error) {
	if !p.match(Keyword) {
		err := p.errorf(p.cur, diag.Parser, CodeExpectedName, "Expected parameter type, got %s", describe(p.cur))
		if s, ok := diag.Suggest(p.cur.Text, typeNames); ok {
			err.(*Error).Suggestion = s
		}
		return nil, err
	}
	typeTok := p.advance()
	if typeTok.Text == "void" && p.match(ParenClose) {
		return nil, nil
	}
	if typeTok.Text == "struct" {
		structName, err := p.expectName("struct name in parameter list")
		if err != nil {
			return nil, err
		}
		p.checkStructType(structName)
		typeTok = structName
	}
	name, err := p.expectName("parameter name")
	if err != nil {
		return nil, err
	}
	param := NewNode(VarDecl, name.Text, name.Line)
	param.Type = &typeTok
	return param, nil
}

// isIntLiteral reports whether text is an optionally negative decimal
// integer.
func isIntLiteral(text string) bool {
	_, err := strconv.Atoi(text)
	return err == nil
}

// isNumeric reports whether text consists of digits and dots only.
func isNumeric(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
