package main

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func compileProgram(t *testing.T, source string) string {
	t.Helper()
	asm, err := Compile(source)
	be.Err(t, err, nil)
	return asm
}

func codegenErr(t *testing.T, source string) *CodeGenError {
	t.Helper()
	_, err := Compile(source)
	be.True(t, err != nil)
	genErr, ok := err.(*CodeGenError)
	be.True(t, ok)
	return genErr
}

func TestGenerateMinimumFrame(t *testing.T) {
	asm := compileProgram(t, "fn main() { 42; }")
	be.True(t, strings.Contains(asm, "sub sp, sp, #48"))
}

func TestGenerateFrameRounding(t *testing.T) {
	// Seven locals end at offset 56, rounded up to 64.
	asm := compileProgram(t, "fn main() { a=1; b=1; c=1; d=1; e=1; f=1; g=1; }")
	be.True(t, strings.Contains(asm, "sub sp, sp, #64"))
}

func TestGenerateFrameCountsArrayExtent(t *testing.T) {
	// The frame covers the whole array region, not just the base slot
	// the indexing expressions mention.
	node, err := ParseSource("fn main() { let a = [1, 2, 3, 4, 5, 6, 7]; return a[0]; }")
	be.Err(t, err, nil)
	be.Equal(t, frameSize(node.Body), uint64(64))
}

func TestGenerateFrameIsPerFunction(t *testing.T) {
	// Offsets grow across the program, so a later function's frame must
	// cover its own (larger) offsets even with fewer locals.
	asm := compileProgram(t, "fn one() { a=1; b=1; c=1; d=1; e=1; f=1; } fn two() { g=1; }")
	be.True(t, strings.Contains(asm, "sub sp, sp, #48"))
	be.True(t, strings.Contains(asm, "sub sp, sp, #64"))
}

func TestGenerateVariableAccessViaRegister(t *testing.T) {
	// Frame slots are addressed through an intermediate register, so no
	// offset is ever an addressing-mode immediate.
	asm := compileProgram(t, "fn main() { x = 7; return x; }")
	be.True(t, strings.Contains(asm, "mov x9, #8"))
	be.True(t, strings.Contains(asm, "sub x9, x29, x9"))
	be.True(t, !strings.Contains(asm, "[x29,"))
}

func TestGenerateLoadImm(t *testing.T) {
	g := NewGenerator()
	g.loadImm("x0", 42)
	be.Equal(t, g.buf.String(), "    mov x0, #42\n")

	g = NewGenerator()
	g.loadImm("x0", 0x1_0000_0001)
	out := g.buf.String()
	be.True(t, strings.Contains(out, "mov x0, #1"))
	be.True(t, strings.Contains(out, "movk x0, #1, lsl #32"))
	// The zero 16-bit chunk at lsl #16 is skipped.
	be.True(t, !strings.Contains(out, "lsl #16"))
}

func TestGenerateLabelsUnique(t *testing.T) {
	asm := compileProgram(t, `
fn main() {
    while (1) { if (2) 3; else 4; }
    if (5) 6;
}`)
	// One counter feeds every label shape, so ids never collide even
	// across different constructs.
	be.Equal(t, strings.Count(asm, "Lbegin0:"), 1)
	be.Equal(t, strings.Count(asm, "Lelse1:"), 1)
	be.Equal(t, strings.Count(asm, "Lelse2:"), 1)
	be.True(t, !strings.Contains(asm, "Lelse0"))
}

func TestGenerateReturnUnwindsWithFramePointer(t *testing.T) {
	// return restores sp from x29 rather than popping, so it is valid
	// at any operand stack depth.
	asm := compileProgram(t, "fn main() { return 1; }")
	be.True(t, strings.Contains(asm, "mov sp, x29"))
}

func TestGenerateCallArgumentRegisters(t *testing.T) {
	asm := compileProgram(t, "fn main() { f(1, 2, 3); }")
	// Arguments pop into registers in reverse push order.
	i2 := strings.Index(asm, "ldr x2, [sp], #16")
	be.True(t, i2 >= 0)
	be.True(t, strings.Contains(asm[i2:], "ldr x1, [sp], #16"))
	be.True(t, strings.Contains(asm, "bl _f"))
}

func TestGenerateCallSavesLinkPair(t *testing.T) {
	asm := compileProgram(t, "fn f() { 1; } fn main() { f(); }")
	i := strings.Index(asm, "bl _f")
	be.True(t, i >= 0)
	before := asm[:i]
	after := asm[i:]
	be.True(t, strings.Contains(before, "stp x29, x30, [sp, #-16]!"))
	be.True(t, strings.Contains(after, "ldp x29, x30, [sp], #16"))
}

func TestGenerateStringPool(t *testing.T) {
	asm := compileProgram(t, `fn main() { write("a"); write("b"); }`)
	be.True(t, strings.Contains(asm, ".section __TEXT,__cstring"))
	be.True(t, strings.Contains(asm, "l_str0:"))
	be.True(t, strings.Contains(asm, "l_str1:"))
	be.True(t, strings.Contains(asm, `.asciz "a"`))
	be.True(t, strings.Contains(asm, `.asciz "b"`))
	// Code references each literal by page-relative address.
	be.True(t, strings.Contains(asm, "adrp x0, l_str0@PAGE"))
	be.True(t, strings.Contains(asm, "add x0, x0, l_str1@PAGEOFF"))
}

func TestGenerateNoStringPoolWithoutStrings(t *testing.T) {
	asm := compileProgram(t, "fn main() { 1; }")
	be.True(t, !strings.Contains(asm, "__cstring"))
}

func TestGenerateErrors(t *testing.T) {
	cases := []struct {
		source string
		msg    string
	}{
		{"fn main() { 1 = 2; }", "assignment to non-variable: Num"},
		{"fn main() { a + 1 = 2; }", "assignment to non-variable: BinaryOp"},
		{"fn main() { &1; }", "address of non-addressable expression: Num"},
		{"fn main() { &(a + b); }", "address of non-addressable expression: BinaryOp"},
		{"fn main() { write(); }", "write expects 1 argument"},
		{`fn main() { write("a", "b"); }`, "write expects 1 argument"},
		{"fn main() { f(1,2,3,4,5,6,7,8,9); }", "call with more than 8 arguments: f"},
	}
	for _, tc := range cases {
		err := codegenErr(t, tc.source)
		be.Equal(t, err.Msg, tc.msg)
	}
}

func TestGenerateTopLevelMustBeFunction(t *testing.T) {
	_, err := NewGenerator().Generate(&Node{Kind: NodeNum, Value: 1})
	be.True(t, err != nil)
	be.Equal(t, err.Error(), "top-level node is not a function: Num")
}

func TestGenerateUnknownSyscall(t *testing.T) {
	fn := &Node{
		Kind: NodeFunction,
		Name: "main",
		Body: &Node{Kind: NodeSyscall, Name: "read", Args: []*Node{{Kind: NodeNum}}},
	}
	_, err := NewGenerator().Generate(fn)
	be.True(t, err != nil)
	be.Equal(t, err.Error(), "unknown syscall: read")
}

func TestGenerateEightArgumentCall(t *testing.T) {
	asm := compileProgram(t, "fn main() { f(1,2,3,4,5,6,7,8); }")
	be.True(t, strings.Contains(asm, "ldr x7, [sp], #16"))
	be.True(t, strings.Contains(asm, "bl _f"))
}

func TestEscapeAsm(t *testing.T) {
	// Source escape sequences pass through untouched for the assembler.
	be.Equal(t, escapeAsm(`hi\n`), `hi\n`)
	// Quotes and raw control bytes get escaped.
	be.Equal(t, escapeAsm(`say "hi"`), `say \"hi\"`)
	be.Equal(t, escapeAsm("a\nb"), `a\nb`)
	be.Equal(t, escapeAsm("a\tb"), `a\tb`)
	be.Equal(t, escapeAsm("a\x01b"), `a\001b`)
}
