package compiler

import (
	"reflect"
	"testing"
)

// stripCols zeroes token columns so expectations can ignore them.
func stripCols(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, tok := range tokens {
		tok.Col = 0
		out[i] = tok
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Kind: EndOfInput, Line: 1},
			},
		},
		{
			name:  "Punctuation",
			input: "; , { } ( ) [ ]",
			expected: []Token{
				{Kind: Semicolon, Text: ";", Line: 1},
				{Kind: Comma, Text: ",", Line: 1},
				{Kind: BraceOpen, Text: "{", Line: 1},
				{Kind: BraceClose, Text: "}", Line: 1},
				{Kind: ParenOpen, Text: "(", Line: 1},
				{Kind: ParenClose, Text: ")", Line: 1},
				{Kind: BracketOpen, Text: "[", Line: 1},
				{Kind: BracketClose, Text: "]", Line: 1},
				{Kind: EndOfInput, Line: 1},
			},
		},
		{
			name:  "Two Character Operators",
			input: "== != <= >= << >> && || ++ --",
			expected: []Token{
				{Kind: Operator, Text: "==", Line: 1},
				{Kind: Operator, Text: "!=", Line: 1},
				{Kind: Operator, Text: "<=", Line: 1},
				{Kind: Operator, Text: ">=", Line: 1},
				{Kind: Operator, Text: "<<", Line: 1},
				{Kind: Operator, Text: ">>", Line: 1},
				{Kind: Operator, Text: "&&", Line: 1},
				{Kind: Operator, Text: "||", Line: 1},
				{Kind: Operator, Text: "++", Line: 1},
				{Kind: Operator, Text: "--", Line: 1},
				{Kind: EndOfInput, Line: 1},
			},
		},
		{
			name:  "Single Character Fallback",
			input: "a=b.c%@",
			expected: []Token{
				{Kind: Identifier, Text: "a", Line: 1},
				{Kind: Operator, Text: "=", Line: 1},
				{Kind: Identifier, Text: "b", Line: 1},
				{Kind: Operator, Text: ".", Line: 1},
				{Kind: Identifier, Text: "c", Line: 1},
				{Kind: Operator, Text: "%", Line: 1},
				{Kind: Operator, Text: "@", Line: 1},
				{Kind: EndOfInput, Line: 1},
			},
		},
		{
			name:  "Keywords and Identifiers",
			input: "int if else while for return break continue struct float char double void counter _tmp",
			expected: []Token{
				{Kind: Keyword, Text: "int", Line: 1},
				{Kind: Keyword, Text: "if", Line: 1},
				{Kind: Keyword, Text: "else", Line: 1},
				{Kind: Keyword, Text: "while", Line: 1},
				{Kind: Keyword, Text: "for", Line: 1},
				{Kind: Keyword, Text: "return", Line: 1},
				{Kind: Keyword, Text: "break", Line: 1},
				{Kind: Keyword, Text: "continue", Line: 1},
				{Kind: Keyword, Text: "struct", Line: 1},
				{Kind: Keyword, Text: "float", Line: 1},
				{Kind: Keyword, Text: "char", Line: 1},
				{Kind: Keyword, Text: "double", Line: 1},
				{Kind: Keyword, Text: "void", Line: 1},
				{Kind: Identifier, Text: "counter", Line: 1},
				{Kind: Identifier, Text: "_tmp", Line: 1},
				{Kind: EndOfInput, Line: 1},
			},
		},
		{
			name:  "Numbers",
			input: "0 42 3.14 -7",
			expected: []Token{
				{Kind: Number, Text: "0", Line: 1},
				{Kind: Number, Text: "42", Line: 1},
				{Kind: Number, Text: "3.14", Line: 1},
				{Kind: Operator, Text: "-", Line: 1},
				{Kind: Number, Text: "7", Line: 1},
				{Kind: EndOfInput, Line: 1},
			},
		},
		{
			name:  "Comments Count Lines",
			input: "a // line comment\n/* block\ncomment */ b\n\nc",
			expected: []Token{
				{Kind: Identifier, Text: "a", Line: 1},
				{Kind: Identifier, Text: "b", Line: 3},
				{Kind: Identifier, Text: "c", Line: 5},
				{Kind: EndOfInput, Line: 5},
			},
		},
		{
			name:  "Unterminated Block Comment",
			input: "x /* never closed\n\n",
			expected: []Token{
				{Kind: Identifier, Text: "x", Line: 1},
				{Kind: EndOfInput, Line: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripCols(Lex(tt.input))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Lex() =\n%v\nwant\n%v", got, tt.expected)
			}
		})
	}
}

func TestLexColumns(t *testing.T) {
	tokens := Lex("int x;\n  y = 1;")
	want := []struct{ line, col int }{
		{1, 1}, {1, 5}, {1, 6},
		{2, 3}, {2, 5}, {2, 7}, {2, 8},
	}
	for i, w := range want {
		if tokens[i].Line != w.line || tokens[i].Col != w.col {
			t.Errorf("token %d (%q): got %d:%d, want %d:%d", i, tokens[i].Text, tokens[i].Line, tokens[i].Col, w.line, w.col)
		}
	}
}

func TestNextTokenAfterEnd(t *testing.T) {
	l := NewLexer("a")
	l.NextToken()
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Kind != EndOfInput {
			t.Fatalf("call %d: expected EndOfInput, got %v", i, tok)
		}
	}
}
