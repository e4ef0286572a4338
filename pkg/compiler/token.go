package compiler

import "fmt"

// TokenKind identifies the category of a lexed token.
type TokenKind int

const (
	EndOfInput TokenKind = iota // sentinel: end of input

	Identifier // variable / function / struct name
	Keyword    // one of the reserved words in keywords
	Number     // digits and '.', no sign, no suffix
	Operator   // any other punctuation, including '.' and '='

	Semicolon    // ;
	ParenOpen    // (
	ParenClose   // )
	BraceOpen    // {
	BraceClose   // }
	BracketOpen  // [
	BracketClose // ]
	Comma        // ,
)

var tokenNames = [...]string{
	EndOfInput:   "EOF",
	Identifier:   "IDENTIFIER",
	Keyword:      "KEYWORD",
	Number:       "NUMBER",
	Operator:     "OPERATOR",
	Semicolon:    "SEMICOLON",
	ParenOpen:    "LPAREN",
	ParenClose:   "RPAREN",
	BraceOpen:    "LBRACE",
	BraceClose:   "RBRACE",
	BracketOpen:  "LBRACKET",
	BracketClose: "RBRACKET",
	Comma:        "COMMA",
}

func (k TokenKind) String() string {
	if int(k) >= 0 && int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// keywords is the closed set of reserved words of the C subset.
var keywords = map[string]bool{
	"if":       true,
	"else":     true,
	"while":    true,
	"for":      true,
	"return":   true,
	"break":    true,
	"continue": true,
	"struct":   true,
	"int":      true,
	"float":    true,
	"char":     true,
	"double":   true,
	"void":     true,
}


// scalarTypes are the keywords that may start a variable declaration.
var scalarTypes = map[string]bool{
	"int":    true,
	"float":  true,
	"char":   true,
	"double": true,
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Kind TokenKind
	Text string // the exact source text that was matched
	Line int    // 1-based source line
	Col  int    // 1-based column of the first character
}

// Is reports whether the token has the given kind and text.
func (t Token) Is(kind TokenKind, text string) bool {
	return t.Kind == kind && t.Text == text
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d", t.Kind, t.Text, t.Line)
}
