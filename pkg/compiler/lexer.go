package compiler

import (
	"unicode"
)

// twoCharOps are the operators recognized with one character of lookahead.
// Every other punctuation character becomes a length-1 Operator token.
var twoCharOps = map[string]bool{
	"==": true,
	"!=": true,
	"<=": true,
	">=": true,
	"<<": true,
	">>": true,
	"&&": true,
	"||": true,
	"++": true,
	"--": true,
}

var punctuation = map[rune]TokenKind{
	';': Semicolon,
	'(': ParenOpen,
	')': ParenClose,
	'{': BraceOpen,
	'}': BraceClose,
	'[': BracketOpen,
	']': BracketClose,
	',': Comma,
}

// Lexer holds all mutable state for a single scanning pass over src.
// Tokens are produced on demand by NextToken.
type Lexer struct {
	src       []rune
	pos       int // index of the next rune to consume
	line      int // current 1-based source line
	lineStart int // index of the first rune of the current line
}

// NewLexer returns a lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it, counting every newline.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.lineStart = l.pos
	}
	return r
}

func (l *Lexer) col() int {
	return l.pos - l.lineStart + 1
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

// skipTrivia discards whitespace and both comment forms.
// An unterminated block comment runs to end of input.
func (l *Lexer) skipTrivia() {
	for !l.atEnd() {
		r := l.peek()
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peek2() == '/':
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		case r == '/' && l.peek2() == '*':
			l.advance()
			l.advance()
			for !l.atEnd() && !(l.peek() == '*' && l.peek2() == '/') {
				l.advance()
			}
			l.advance() // *
			l.advance() // /
		default:
			return
		}
	}
}

// scanWord collects an identifier or keyword.
// The first character (letter or '_') must still be at l.peek().
func (l *Lexer) scanWord() Token {
	line, col := l.line, l.col()
	start := l.pos
	for !l.atEnd() {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	text := string(l.src[start:l.pos])
	kind := Identifier
	if keywords[text] {
		kind = Keyword
	}
	return Token{Kind: kind, Text: text, Line: line, Col: col}
}

// scanNumber collects digits and dots. There is no exponent, suffix or sign.
func (l *Lexer) scanNumber() Token {
	line, col := l.line, l.col()
	start := l.pos
	for !l.atEnd() && (unicode.IsDigit(l.peek()) || l.peek() == '.') {
		l.advance()
	}
	return Token{Kind: Number, Text: string(l.src[start:l.pos]), Line: line, Col: col}
}

// NextToken scans and returns the next token. At end of input it keeps
// returning an EndOfInput token. It never fails.
func (l *Lexer) NextToken() Token {
	l.skipTrivia()
	if l.atEnd() {
		return Token{Kind: EndOfInput, Line: l.line, Col: l.col()}
	}

	r := l.peek()
	switch {
	case unicode.IsLetter(r) || r == '_':
		return l.scanWord()
	case unicode.IsDigit(r):
		return l.scanNumber()
	}

	line, col := l.line, l.col()
	if kind, ok := punctuation[r]; ok {
		l.advance()
		return Token{Kind: kind, Text: string(r), Line: line, Col: col}
	}

	if pair := string([]rune{r, l.peek2()}); twoCharOps[pair] {
		l.advance()
		l.advance()
		return Token{Kind: Operator, Text: pair, Line: line, Col: col}
	}

	l.advance()
	return Token{Kind: Operator, Text: string(r), Line: line, Col: col}
}

// Lex scans the whole of src and returns every token, ending with
// EndOfInput.
func Lex(src string) []Token {
	l := NewLexer(src)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == EndOfInput {
			return tokens
		}
	}
}
