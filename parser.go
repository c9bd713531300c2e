package main

// Parser builds the AST by recursive descent with one grammar tier per
// method. Variable offsets are allocated inline through the single
// Scope it owns; the first error aborts the parse.
type Parser struct {
	toks  *TokenStream
	scope *Scope
}

func NewParser(toks *TokenStream) *Parser {
	return &Parser{toks: toks, scope: NewScope()}
}

// Scope exposes the symbol environment after parsing, mainly for tests.
func (p *Parser) Scope() *Scope {
	return p.scope
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	tok := p.toks.Next()
	if tok.Kind != kind {
		return tok, &ParseError{Msg: "expected " + string(kind), Pos: tok.Pos}
	}
	return tok, nil
}

// ParseProgram parses function+ up to Eof.
func (p *Parser) ParseProgram() (*Node, error) {
	var funcs []*Node
	for p.toks.Peek().Kind != EOF {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}
	if len(funcs) == 0 {
		return nil, &ParseError{Msg: "expected Fn", Pos: p.toks.Peek().Pos}
	}
	return foldSeq(funcs), nil
}

// function := 'fn' IDENT '(' params? ')' ('->' 'i32')? '{' stmt* '}'
func (p *Parser) parseFunction() (*Node, error) {
	if _, err := p.expect(FN); err != nil {
		return nil, err
	}
	nameTok := p.toks.Next()
	if nameTok.Kind != IDENT {
		return nil, &ParseError{Msg: "expected identifier", Pos: nameTok.Pos}
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var args []*Node
	if p.toks.Peek().Kind == IDENT {
		var err error
		args, err = p.parseParams()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	// Return type annotations are parsed and discarded.
	if p.toks.Peek().Kind == ARROW {
		p.toks.Next()
		if _, err := p.expect(I32); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	var stmts []*Node
	for p.toks.Peek().Kind != RBRACE {
		if p.toks.Peek().Kind == EOF {
			return nil, &ParseError{Msg: "expected RBrace", Pos: p.toks.Peek().Pos}
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.toks.Next() // consume '}'
	return &Node{Kind: NodeFunction, Name: nameTok.Str, Args: args, Body: foldSeq(stmts)}, nil
}

// params := IDENT ':' 'i32' (',' IDENT ':' 'i32')*
func (p *Parser) parseParams() ([]*Node, error) {
	var args []*Node
	for {
		tok := p.toks.Next()
		if tok.Kind != IDENT {
			return nil, &ParseError{Msg: "expected identifier", Pos: tok.Pos}
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		if _, err := p.expect(I32); err != nil {
			return nil, err
		}
		off := p.scope.Declare(tok.Str)
		args = append(args, &Node{Kind: NodeVar, Offset: off})
		if p.toks.Peek().Kind != COMMA {
			break
		}
		p.toks.Next()
	}
	return args, nil
}

func (p *Parser) parseStmt() (*Node, error) {
	tok := p.toks.Peek()
	switch tok.Kind {
	case EOF:
		return nil, &ParseError{Msg: "expected statement", Pos: tok.Pos}

	case RETURN:
		p.toks.Next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &Node{Kind: NodeReturn, X: expr}, nil

	case LBRACE:
		p.toks.Next()
		var stmts []*Node
		for p.toks.Peek().Kind != RBRACE {
			if p.toks.Peek().Kind == EOF {
				return nil, &ParseError{Msg: "expected RBrace", Pos: p.toks.Peek().Pos}
			}
			stmt, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
		p.toks.Next()
		return foldSeq(stmts), nil

	case IF:
		p.toks.Next()
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		if k := p.toks.Peek().Kind; k == RPAREN || k == EOF {
			return nil, &ParseError{Msg: "expected expression", Pos: p.toks.Peek().Pos}
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		then, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		var elseStmt *Node
		if p.toks.Peek().Kind == ELSE {
			p.toks.Next()
			elseStmt, err = p.parseStmt()
			if err != nil {
				return nil, err
			}
		}
		return &Node{Kind: NodeIf, Cond: cond, Then: then, Else: elseStmt}, nil

	case WHILE:
		p.toks.Next()
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		if k := p.toks.Peek().Kind; k == RPAREN || k == EOF {
			return nil, &ParseError{Msg: "expected expression", Pos: p.toks.Peek().Pos}
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeWhile, Cond: cond, Body: body}, nil

	case FOR:
		p.toks.Next()
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		if k := p.toks.Peek().Kind; k == SEMICOLON || k == EOF {
			return nil, &ParseError{Msg: "expected expression", Pos: p.toks.Peek().Pos}
		}
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		if k := p.toks.Peek().Kind; k == SEMICOLON || k == EOF {
			return nil, &ParseError{Msg: "expected expression", Pos: p.toks.Peek().Pos}
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		if k := p.toks.Peek().Kind; k == RPAREN || k == EOF {
			return nil, &ParseError{Msg: "expected expression", Pos: p.toks.Peek().Pos}
		}
		update, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeFor, Init: init, Cond: cond, Update: update, Body: body}, nil

	case LET:
		return p.parseLet()
	}

	// Expression statement
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return expr, nil
}

// let := 'let' IDENT '=' ('[' (expr (',' expr)*)? ']' | expr) ';'
func (p *Parser) parseLet() (*Node, error) {
	p.toks.Next() // consume 'let'
	nameTok := p.toks.Next()
	if nameTok.Kind != IDENT {
		return nil, &ParseError{Msg: "expected identifier after 'let'", Pos: nameTok.Pos}
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}

	if p.toks.Peek().Kind == LBRACKET {
		p.toks.Next()
		var elements []*Node
		if p.toks.Peek().Kind != RBRACKET {
			el, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elements = append(elements, el)
			for p.toks.Peek().Kind == COMMA {
				p.toks.Next()
				el, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				elements = append(elements, el)
			}
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		off, ok := p.scope.DeclareArray(nameTok.Str, len(elements))
		if !ok {
			return nil, &ParseError{Msg: "variable already declared", Pos: nameTok.Pos}
		}
		return &Node{Kind: NodeArrayAssign, Offset: off, Elements: elements}, nil
	}

	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	off, ok := p.scope.DeclareLet(nameTok.Str)
	if !ok {
		return nil, &ParseError{Msg: "variable already declared", Pos: nameTok.Pos}
	}
	return &Node{Kind: NodeAssign, Lhs: &Node{Kind: NodeVar, Offset: off}, Rhs: rhs}, nil
}

// expr := assign
func (p *Parser) parseExpr() (*Node, error) {
	return p.parseAssign()
}

// assign := equality ('=' assign)?   (right-associative)
func (p *Parser) parseAssign() (*Node, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	if p.toks.Peek().Kind == ASSIGN {
		p.toks.Next()
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeAssign, Lhs: lhs, Rhs: rhs}, nil
	}
	return lhs, nil
}

// equality := relational (('==' | '!=') relational)*
func (p *Parser) parseEquality() (*Node, error) {
	lhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		var op OpKind
		switch p.toks.Peek().Kind {
		case EQEQ:
			op = OpEq
		case NE:
			op = OpNe
		default:
			return lhs, nil
		}
		p.toks.Next()
		rhs, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		lhs = &Node{Kind: NodeBinaryOp, Op: op, Lhs: lhs, Rhs: rhs}
	}
}

// relational := additive (('<' | '>' | '<=' | '>=') additive)*
func (p *Parser) parseRelational() (*Node, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op OpKind
		switch p.toks.Peek().Kind {
		case LT:
			op = OpLt
		case GT:
			op = OpGt
		case LE:
			op = OpLe
		case GE:
			op = OpGe
		default:
			return lhs, nil
		}
		p.toks.Next()
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = &Node{Kind: NodeBinaryOp, Op: op, Lhs: lhs, Rhs: rhs}
	}
}

// additive := multiplicative (('+' | '-') multiplicative)*
func (p *Parser) parseAdditive() (*Node, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op OpKind
		switch p.toks.Peek().Kind {
		case PLUS:
			op = OpAdd
		case MINUS:
			op = OpSub
		default:
			return lhs, nil
		}
		p.toks.Next()
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = &Node{Kind: NodeBinaryOp, Op: op, Lhs: lhs, Rhs: rhs}
	}
}

// multiplicative := unary (('*' | '/') unary)*
func (p *Parser) parseMultiplicative() (*Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op OpKind
		switch p.toks.Peek().Kind {
		case STAR:
			op = OpMul
		case SLASH:
			op = OpDiv
		default:
			return lhs, nil
		}
		p.toks.Next()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = &Node{Kind: NodeBinaryOp, Op: op, Lhs: lhs, Rhs: rhs}
	}
}

// unary := ('+' | '-')? primary | ('*' | '&') unary
func (p *Parser) parseUnary() (*Node, error) {
	switch p.toks.Peek().Kind {
	case PLUS:
		p.toks.Next()
		return p.parsePrimary()
	case MINUS:
		// -x desugars to 0 - x.
		p.toks.Next()
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeBinaryOp, Op: OpSub, Lhs: &Node{Kind: NodeNum, Value: 0}, Rhs: operand}, nil
	case STAR:
		p.toks.Next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeDeref, X: operand}, nil
	case AMP:
		p.toks.Next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeAddr, X: operand}, nil
	}
	return p.parsePrimary()
}

// primary := NUMBER | STRING | IDENT '[' expr ']' | IDENT '(' args? ')'
//          | IDENT | '(' expr ')'
func (p *Parser) parsePrimary() (*Node, error) {
	tok := p.toks.Next()
	switch tok.Kind {
	case NUMBER:
		return &Node{Kind: NodeNum, Value: tok.Num}, nil

	case STRING:
		return &Node{Kind: NodeString, Str: tok.Str}, nil

	case LPAREN:
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return node, nil

	case IDENT:
		if p.toks.Peek().Kind == LBRACKET {
			return p.parseIndex(tok.Str)
		}
		if p.toks.Peek().Kind == LPAREN {
			return p.parseCall(tok.Str)
		}
		off := p.scope.Declare(tok.Str)
		return &Node{Kind: NodeVar, Offset: off}, nil
	}
	return nil, &ParseError{Msg: "unexpected token: " + string(tok.Kind), Pos: tok.Pos}
}

// parseIndex desugars name[idx] into *(&name - idx*8): arrays grow
// toward lower addresses, one 8-byte slot per element.
func (p *Parser) parseIndex(name string) (*Node, error) {
	p.toks.Next() // consume '['
	idx, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACKET); err != nil {
		return nil, err
	}
	off := p.scope.Declare(name)
	return &Node{
		Kind: NodeDeref,
		X: &Node{
			Kind: NodeBinaryOp,
			Op:   OpSub,
			Lhs:  &Node{Kind: NodeAddr, X: &Node{Kind: NodeVar, Offset: off}},
			Rhs: &Node{
				Kind: NodeBinaryOp,
				Op:   OpMul,
				Lhs:  idx,
				Rhs:  &Node{Kind: NodeNum, Value: slotSize},
			},
		},
	}, nil
}

// parseCall handles name(args...). A call named "write" is the builtin
// syscall, not a user function.
func (p *Parser) parseCall(name string) (*Node, error) {
	p.toks.Next() // consume '('
	var args []*Node
	if p.toks.Peek().Kind != RPAREN {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		for p.toks.Peek().Kind == COMMA {
			p.toks.Next()
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if name == "write" {
		return &Node{Kind: NodeSyscall, Name: name, Args: args}, nil
	}
	return &Node{Kind: NodeCall, Name: name, Args: args}, nil
}
