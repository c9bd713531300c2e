package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const fibSource = `
fn fib(n: i32) -> i32 {
    if (n < 2) return n;
    return fib(n - 1) + fib(n - 2);
}

fn main() -> i32 {
    return fib(10);
}
`

func TestCompileFibonacci(t *testing.T) {
	asm, err := Compile(fibSource)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(asm, ".globl _fib"))
	be.True(t, strings.Contains(asm, ".globl _main"))
	be.True(t, strings.Contains(asm, "bl _fib"))
	// Functions come out in source order.
	be.True(t, strings.Index(asm, "_fib:") < strings.Index(asm, "_main:"))
}

func TestCompileHello(t *testing.T) {
	asm, err := Compile(`fn main() { write("hello, world\n"); }`)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(asm, "svc #0x80"))
	be.True(t, strings.Contains(asm, `.asciz "hello, world\n"`))
}

func TestCompileErrorIsParseError(t *testing.T) {
	_, err := Compile("fn main() { return 1 }")
	var perr *ParseError
	be.True(t, errors.As(err, &perr))
	be.Equal(t, perr.Pos, 21)

	_, err = Compile("fn main() { 1 = 2; }")
	var gerr *CodeGenError
	be.True(t, errors.As(err, &gerr))
	be.True(t, !errors.As(err, &perr))
}

func TestRenderDiagnostic(t *testing.T) {
	got := RenderDiagnostic("let x = ?;", 8, "invalid character")
	want := "1 | let x = ?;\n" +
		"  |         ^ invalid character\n"
	be.Equal(t, got, want)
}

func TestRenderDiagnosticLaterLine(t *testing.T) {
	source := "fn main() {\n    return 1\n}"
	got := RenderDiagnostic(source, 25, "expected Semicolon")
	want := "3 | }\n" +
		"  | ^ expected Semicolon\n"
	be.Equal(t, got, want)
}

func TestRenderDiagnosticAtEof(t *testing.T) {
	// A position past the source (the Eof token of a truncated file)
	// clamps to the end of the last line.
	got := RenderDiagnostic("ab", 5, "expected RBrace")
	want := "1 | ab\n" +
		"  |   ^ expected RBrace\n"
	be.Equal(t, got, want)
}
