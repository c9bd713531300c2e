package main

import "math"

// TokenKind identifies a token. The value doubles as the name used in
// "expected <kind>" diagnostics.
type TokenKind string

const (
	// Literals and identifiers
	NUMBER TokenKind = "Number"
	IDENT  TokenKind = "Ident"
	STRING TokenKind = "String"

	// Keywords
	RETURN TokenKind = "Return"
	IF     TokenKind = "If"
	ELSE   TokenKind = "Else"
	WHILE  TokenKind = "While"
	FOR    TokenKind = "For"
	FN     TokenKind = "Fn"
	LET    TokenKind = "Let"
	I32    TokenKind = "I32"

	// Operators and punctuation
	PLUS      TokenKind = "Plus"
	MINUS     TokenKind = "Minus"
	STAR      TokenKind = "Star"
	SLASH     TokenKind = "Slash"
	EQEQ      TokenKind = "EqEq"
	NE        TokenKind = "Ne"
	LT        TokenKind = "Lt"
	LE        TokenKind = "Le"
	GT        TokenKind = "Gt"
	GE        TokenKind = "Ge"
	ASSIGN    TokenKind = "Assign"
	SEMICOLON TokenKind = "Semicolon"
	COMMA     TokenKind = "Comma"
	COLON     TokenKind = "Colon"
	LPAREN    TokenKind = "LParen"
	RPAREN    TokenKind = "RParen"
	LBRACE    TokenKind = "LBrace"
	RBRACE    TokenKind = "RBrace"
	LBRACKET  TokenKind = "LBracket"
	RBRACKET  TokenKind = "RBracket"
	AMP       TokenKind = "Amp"
	ARROW     TokenKind = "Arrow"

	EOF TokenKind = "Eof"
)

// Token is one lexeme plus its byte offset in the source.
type Token struct {
	Kind TokenKind
	Pos  int
	Num  uint64 // NUMBER
	Str  string // IDENT (name), STRING (value, quotes stripped)
}

var keywords = map[string]TokenKind{
	"return": RETURN,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"for":    FOR,
	"fn":     FN,
	"let":    LET,
	"i32":    I32,
}

// operators is matched in order, so longer lexemes must come before
// their prefixes ("==" before "=", "->" before "-").
var operators = []struct {
	lit  string
	kind TokenKind
}{
	{"==", EQEQ},
	{"!=", NE},
	{"<=", LE},
	{">=", GE},
	{"->", ARROW},
	{"+", PLUS},
	{"-", MINUS},
	{"*", STAR},
	{"/", SLASH},
	{"<", LT},
	{">", GT},
	{"=", ASSIGN},
	{";", SEMICOLON},
	{",", COMMA},
	{":", COLON},
	{"(", LPAREN},
	{")", RPAREN},
	{"{", LBRACE},
	{"}", RBRACE},
	{"[", LBRACKET},
	{"]", RBRACKET},
	{"&", AMP},
}

// TokenStream is a forward-only view over the token slice produced by
// Tokenize. Parsing only ever needs one token of lookahead.
type TokenStream struct {
	toks []Token
	pos  int
}

// Peek returns the current token without consuming it.
func (s *TokenStream) Peek() Token {
	return s.toks[s.pos]
}

// Next consumes and returns the current token. Once the Eof token has
// been reached, Next keeps returning it.
func (s *TokenStream) Next() Token {
	tok := s.toks[s.pos]
	if s.pos < len(s.toks)-1 {
		s.pos++
	}
	return tok
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Tokenize scans source into a token stream terminated by an Eof token
// positioned at len(source). The first lexical error aborts the scan.
func Tokenize(source string) (*TokenStream, error) {
	var toks []Token
	pos := 0
	for pos < len(source) {
		c := source[pos]

		// Whitespace
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			pos++
			continue
		}

		// Line comments
		if c == '/' && pos+1 < len(source) && source[pos+1] == '/' {
			for pos < len(source) && source[pos] != '\n' {
				pos++
			}
			continue
		}

		// Block comments. Running off the end of the source is an error
		// reported at the opening "/*".
		if c == '/' && pos+1 < len(source) && source[pos+1] == '*' {
			start := pos
			pos += 2
			for {
				if pos+1 >= len(source) {
					return nil, &ParseError{Msg: "unterminated block comment", Pos: start}
				}
				if source[pos] == '*' && source[pos+1] == '/' {
					pos += 2
					break
				}
				pos++
			}
			continue
		}

		// Decimal integer literals, with overflow-checked accumulation.
		if isDigit(c) {
			start := pos
			var num uint64
			for pos < len(source) && isDigit(source[pos]) {
				d := uint64(source[pos] - '0')
				if num > (math.MaxUint64-d)/10 {
					return nil, &ParseError{Msg: "number literal too large", Pos: start}
				}
				num = num*10 + d
				pos++
			}
			toks = append(toks, Token{Kind: NUMBER, Pos: start, Num: num})
			continue
		}

		// Identifiers and keywords
		if isLetter(c) {
			start := pos
			for pos < len(source) && (isLetter(source[pos]) || isDigit(source[pos])) {
				pos++
			}
			word := source[start:pos]
			if kind, ok := keywords[word]; ok {
				toks = append(toks, Token{Kind: kind, Pos: start})
			} else {
				toks = append(toks, Token{Kind: IDENT, Pos: start, Str: word})
			}
			continue
		}

		// String literals, taken verbatim up to the closing quote.
		if c == '"' {
			start := pos
			pos++
			for pos < len(source) && source[pos] != '"' {
				pos++
			}
			if pos >= len(source) {
				return nil, &ParseError{Msg: "unterminated string literal", Pos: start}
			}
			toks = append(toks, Token{Kind: STRING, Pos: start, Str: source[start+1 : pos]})
			pos++
			continue
		}

		// Operators and punctuation, longest lexeme first.
		matched := false
		for _, op := range operators {
			if len(source)-pos >= len(op.lit) && source[pos:pos+len(op.lit)] == op.lit {
				toks = append(toks, Token{Kind: op.kind, Pos: pos})
				pos += len(op.lit)
				matched = true
				break
			}
		}
		if !matched {
			return nil, &ParseError{Msg: "invalid character", Pos: pos}
		}
	}
	toks = append(toks, Token{Kind: EOF, Pos: len(source)})
	return &TokenStream{toks: toks}, nil
}
