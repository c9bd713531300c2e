package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func tokenize(t *testing.T, source string) []Token {
	t.Helper()
	stream, err := Tokenize(source)
	be.Err(t, err, nil)
	var toks []Token
	for {
		tok := stream.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func tokenizeErr(t *testing.T, source string) *ParseError {
	t.Helper()
	_, err := Tokenize(source)
	be.True(t, err != nil)
	parseErr, ok := err.(*ParseError)
	be.True(t, ok)
	return parseErr
}

func TestTokenizeOperators(t *testing.T) {
	toks := tokenize(t, "== != <= >= -> + - * / < > = ; , : ( ) { } [ ] &")
	kinds := []TokenKind{
		EQEQ, NE, LE, GE, ARROW,
		PLUS, MINUS, STAR, SLASH, LT, GT, ASSIGN,
		SEMICOLON, COMMA, COLON,
		LPAREN, RPAREN, LBRACE, RBRACE, LBRACKET, RBRACKET, AMP,
		EOF,
	}
	be.Equal(t, len(toks), len(kinds))
	for i, kind := range kinds {
		be.Equal(t, toks[i].Kind, kind)
	}
}

func TestTokenizeLongestMatch(t *testing.T) {
	// "==" must not lex as two "=", and "->" must not lex as "-" ">".
	toks := tokenize(t, "a==b->")
	be.Equal(t, toks[1].Kind, EQEQ)
	be.Equal(t, toks[3].Kind, ARROW)
}

func TestTokenizeKeywords(t *testing.T) {
	toks := tokenize(t, "return if else while for fn let i32")
	kinds := []TokenKind{RETURN, IF, ELSE, WHILE, FOR, FN, LET, I32, EOF}
	for i, kind := range kinds {
		be.Equal(t, toks[i].Kind, kind)
	}

	// Keywords are whole words: a longer identifier is not a keyword.
	toks = tokenize(t, "returned iffy")
	be.Equal(t, toks[0].Kind, IDENT)
	be.Equal(t, toks[0].Str, "returned")
	be.Equal(t, toks[1].Kind, IDENT)
	be.Equal(t, toks[1].Str, "iffy")
}

func TestTokenizeNumbers(t *testing.T) {
	toks := tokenize(t, "0 42 18446744073709551615")
	be.Equal(t, toks[0].Num, uint64(0))
	be.Equal(t, toks[1].Num, uint64(42))
	be.Equal(t, toks[2].Num, uint64(18446744073709551615))
}

func TestTokenizeNumberOverflow(t *testing.T) {
	err := tokenizeErr(t, "x = 18446744073709551616;")
	be.Equal(t, err.Msg, "number literal too large")
	be.Equal(t, err.Pos, 4)
}

func TestTokenizeString(t *testing.T) {
	toks := tokenize(t, `write("hello\n")`)
	be.Equal(t, toks[2].Kind, STRING)
	// The literal is kept verbatim: backslash sequences are not
	// interpreted by the lexer.
	be.Equal(t, toks[2].Str, `hello\n`)
	be.Equal(t, toks[2].Pos, 6)
}

func TestTokenizeUnterminatedString(t *testing.T) {
	err := tokenizeErr(t, `write("oops`)
	be.Equal(t, err.Msg, "unterminated string literal")
	be.Equal(t, err.Pos, 6)
}

func TestTokenizeComments(t *testing.T) {
	toks := tokenize(t, "1 // rest of line\n2 /* inner\nlines */ 3")
	be.Equal(t, len(toks), 4)
	be.Equal(t, toks[0].Num, uint64(1))
	be.Equal(t, toks[1].Num, uint64(2))
	be.Equal(t, toks[2].Num, uint64(3))
}

func TestTokenizeUnterminatedBlockComment(t *testing.T) {
	err := tokenizeErr(t, "1 /* never closed")
	be.Equal(t, err.Msg, "unterminated block comment")
	be.Equal(t, err.Pos, 2)
}

func TestTokenizeInvalidCharacter(t *testing.T) {
	err := tokenizeErr(t, "a @ b")
	be.Equal(t, err.Msg, "invalid character")
	be.Equal(t, err.Pos, 2)

	// "!" only exists as part of "!=".
	err = tokenizeErr(t, "!x")
	be.Equal(t, err.Msg, "invalid character")
	be.Equal(t, err.Pos, 0)
}

func TestTokenizeEof(t *testing.T) {
	stream, err := Tokenize("ab")
	be.Err(t, err, nil)
	be.Equal(t, stream.Next().Kind, IDENT)
	eof := stream.Next()
	be.Equal(t, eof.Kind, EOF)
	be.Equal(t, eof.Pos, 2)
	// Next sticks at Eof instead of running off the slice.
	be.Equal(t, stream.Next().Kind, EOF)
	be.Equal(t, stream.Peek().Kind, EOF)
}

func TestTokenizeDeterministic(t *testing.T) {
	source := `fn main() { let s = "x\n"; if (a <= 3) write(s); }`
	first := tokenize(t, source)
	second := tokenize(t, source)
	be.Equal(t, len(first), len(second))
	for i := range first {
		be.Equal(t, first[i], second[i])
	}
}

func TestTokenizeEmptySource(t *testing.T) {
	stream, err := Tokenize("")
	be.Err(t, err, nil)
	tok := stream.Peek()
	be.Equal(t, tok.Kind, EOF)
	be.Equal(t, tok.Pos, 0)
}
