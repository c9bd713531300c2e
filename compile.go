package main

// Compile runs the whole pipeline on one compilation unit: source text
// to tokens to AST to assembly text. The first error from any stage
// aborts the compilation.
func Compile(source string) (string, error) {
	toks, err := Tokenize(source)
	if err != nil {
		return "", err
	}
	parser := NewParser(toks)
	ast, err := parser.ParseProgram()
	if err != nil {
		return "", err
	}
	return NewGenerator().Generate(ast)
}

// ParseSource tokenizes and parses without generating code. Useful for
// AST-level tests and tooling.
func ParseSource(source string) (*Node, error) {
	toks, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return NewParser(toks).ParseProgram()
}
