package main

import (
	"bytes"
	"fmt"
	"strings"
)

// Generated code treats the machine stack as an operand stack: every
// expression pushes exactly one 8-byte value (in a 16-byte stack step,
// keeping sp aligned) and every consumer pops its operands back off.
// Locals live at negative offsets from the frame pointer x29.

// Generator walks the AST once and emits ARM64 Darwin assembly text.
// It owns the label counter, so label names are unique per compilation.
type Generator struct {
	buf     bytes.Buffer
	labelID int
	strs    []string // interned string literals, emitted after the code
}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate emits the full assembly for a parsed program. On error no
// output is returned; the generator is single-use either way.
func (g *Generator) Generate(root *Node) (string, error) {
	g.raw(".section __TEXT,__text")
	if err := g.genTop(root); err != nil {
		return "", err
	}
	if len(g.strs) > 0 {
		g.raw("")
		g.raw(".section __TEXT,__cstring")
		for i, s := range g.strs {
			g.raw("l_str%d:", i)
			g.ins(".asciz \"%s\"", escapeAsm(s))
		}
	}
	return g.buf.String(), nil
}

// genTop walks the Seq spine of folded function definitions.
func (g *Generator) genTop(node *Node) error {
	switch node.Kind {
	case NodeSeq:
		if err := g.genTop(node.Lhs); err != nil {
			return err
		}
		return g.genTop(node.Rhs)
	case NodeFunction:
		return g.genFunction(node)
	}
	return &CodeGenError{Msg: "top-level node is not a function: " + string(node.Kind)}
}

func (g *Generator) genFunction(fn *Node) error {
	frame := frameSize(fn.Body)
	g.raw("")
	g.raw(".globl _%s", fn.Name)
	g.raw("_%s:", fn.Name)
	g.ins("stp x29, x30, [sp, #-16]!")
	g.ins("mov x29, sp")
	g.ins("sub sp, sp, #%d", frame)
	// Spill the first incoming argument register into its slot.
	if len(fn.Args) > 0 {
		if fn.Args[0].Kind != NodeVar {
			return &CodeGenError{Msg: "function parameter is not a variable"}
		}
		g.frameAddr("x9", fn.Args[0].Offset)
		g.ins("str x0, [x9]")
	}
	if err := g.genNode(fn.Body); err != nil {
		return err
	}
	// Fallthrough epilogue for bodies without an explicit return: the
	// body's one pushed value becomes the return value.
	g.ins("ldr x0, [sp], #16")
	g.ins("add sp, sp, #%d", frame)
	g.ins("ldp x29, x30, [sp], #16")
	g.ins("ret")
	return nil
}

func (g *Generator) genNode(node *Node) error {
	switch node.Kind {
	case NodeSeq:
		if err := g.genNode(node.Lhs); err != nil {
			return err
		}
		g.ins("ldr x0, [sp], #16") // discard first statement's value
		return g.genNode(node.Rhs)

	case NodeNum:
		g.loadImm("x0", node.Value)
		g.push("x0")
		return nil

	case NodeString:
		idx := len(g.strs)
		g.strs = append(g.strs, node.Str)
		g.ins("adrp x0, l_str%d@PAGE", idx)
		g.ins("add x0, x0, l_str%d@PAGEOFF", idx)
		g.push("x0")
		return nil

	case NodeVar:
		g.frameAddr("x9", node.Offset)
		g.ins("ldr x0, [x9]")
		g.push("x0")
		return nil

	case NodeAssign:
		return g.genAssign(node)

	case NodeBinaryOp:
		return g.genBinaryOp(node)

	case NodeReturn:
		if err := g.genNode(node.X); err != nil {
			return err
		}
		g.ins("ldr x0, [sp], #16")
		g.ins("mov sp, x29")
		g.ins("ldp x29, x30, [sp], #16")
		g.ins("ret")
		return nil

	case NodeIf:
		return g.genIf(node)

	case NodeWhile:
		return g.genWhile(node)

	case NodeFor:
		return g.genFor(node)

	case NodeDeref:
		if err := g.genNode(node.X); err != nil {
			return err
		}
		g.ins("ldr x0, [sp], #16")
		g.ins("ldr x0, [x0]")
		g.push("x0")
		return nil

	case NodeAddr:
		return g.genAddr(node)

	case NodeArrayAssign:
		return g.genArrayAssign(node)

	case NodeCall:
		return g.genCall(node)

	case NodeSyscall:
		return g.genSyscall(node)

	case NodeFunction:
		return &CodeGenError{Msg: "nested function definition"}
	}
	return &CodeGenError{Msg: "unknown node kind: " + string(node.Kind)}
}

func (g *Generator) genAssign(node *Node) error {
	if err := g.genNode(node.Rhs); err != nil {
		return err
	}
	g.ins("ldr x1, [sp], #16")
	if node.Lhs.Kind != NodeVar {
		return &CodeGenError{Msg: "assignment to non-variable: " + string(node.Lhs.Kind)}
	}
	g.frameAddr("x9", node.Lhs.Offset)
	g.ins("str x1, [x9]")
	g.push("x1")
	return nil
}

func (g *Generator) genBinaryOp(node *Node) error {
	// Left before right, always; the language has no short-circuiting.
	if err := g.genNode(node.Lhs); err != nil {
		return err
	}
	if err := g.genNode(node.Rhs); err != nil {
		return err
	}
	g.ins("ldr x1, [sp], #16")
	g.ins("ldr x0, [sp], #16")
	switch node.Op {
	case OpAdd:
		g.ins("add x0, x0, x1")
	case OpSub:
		g.ins("sub x0, x0, x1")
	case OpMul:
		g.ins("mul x0, x0, x1")
	case OpDiv:
		g.ins("sdiv x0, x0, x1")
	case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe:
		g.ins("cmp x0, x1")
		g.ins("cset x0, %s", csetCond(node.Op))
	default:
		return &CodeGenError{Msg: "unknown binary operator: " + string(node.Op)}
	}
	g.push("x0")
	return nil
}

func csetCond(op OpKind) string {
	switch op {
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpLt:
		return "lt"
	case OpGt:
		return "gt"
	case OpLe:
		return "le"
	default:
		return "ge"
	}
}

func (g *Generator) genIf(node *Node) error {
	id := g.nextLabel()
	if err := g.genNode(node.Cond); err != nil {
		return err
	}
	g.ins("ldr x0, [sp], #16")
	g.ins("cbz x0, Lelse%d", id)
	if err := g.genNode(node.Then); err != nil {
		return err
	}
	g.ins("b Lend%d", id)
	g.raw("Lelse%d:", id)
	if node.Else != nil {
		if err := g.genNode(node.Else); err != nil {
			return err
		}
	}
	g.raw("Lend%d:", id)
	return nil
}

func (g *Generator) genWhile(node *Node) error {
	id := g.nextLabel()
	g.raw("Lbegin%d:", id)
	if err := g.genNode(node.Cond); err != nil {
		return err
	}
	g.ins("ldr x0, [sp], #16")
	g.ins("cbz x0, Lend%d", id)
	if err := g.genNode(node.Body); err != nil {
		return err
	}
	g.ins("b Lbegin%d", id)
	g.raw("Lend%d:", id)
	return nil
}

func (g *Generator) genFor(node *Node) error {
	id := g.nextLabel()
	if err := g.genNode(node.Init); err != nil {
		return err
	}
	g.ins("ldr x0, [sp], #16") // discard init value
	g.ins("b Lcond%d", id)
	g.raw("Lbody%d:", id)
	if err := g.genNode(node.Body); err != nil {
		return err
	}
	if err := g.genNode(node.Update); err != nil {
		return err
	}
	g.ins("ldr x0, [sp], #16") // discard update value
	g.raw("Lcond%d:", id)
	if err := g.genNode(node.Cond); err != nil {
		return err
	}
	g.ins("ldr x0, [sp], #16")
	g.ins("cbnz x0, Lbody%d", id)
	g.raw("Lend%d:", id)
	return nil
}

func (g *Generator) genAddr(node *Node) error {
	switch node.X.Kind {
	case NodeVar:
		// &var is x29 - offset, no round-trip through the stack.
		g.loadImm("x0", node.X.Offset)
		g.ins("sub x0, x29, x0")
		g.push("x0")
		return nil
	case NodeDeref:
		// &*e cancels to e.
		return g.genNode(node.X.X)
	}
	return &CodeGenError{Msg: "address of non-addressable expression: " + string(node.X.Kind)}
}

func (g *Generator) genArrayAssign(node *Node) error {
	for i, el := range node.Elements {
		if err := g.genNode(el); err != nil {
			return err
		}
		g.ins("ldr x1, [sp], #16")
		g.frameAddr("x9", node.Offset+uint64(i)*slotSize)
		g.ins("str x1, [x9]")
	}
	// Push a filler so the statement yields one value like any other.
	g.ins("mov x0, #0")
	g.push("x0")
	return nil
}

func (g *Generator) genCall(node *Node) error {
	if len(node.Args) > 8 {
		return &CodeGenError{Msg: "call with more than 8 arguments: " + node.Name}
	}
	for _, arg := range node.Args {
		if err := g.genNode(arg); err != nil {
			return err
		}
	}
	// Arguments were pushed left to right, so pop into the argument
	// registers in reverse: register i receives argument i.
	for i := len(node.Args) - 1; i >= 0; i-- {
		g.ins("ldr x%d, [sp], #16", i)
	}
	g.ins("stp x29, x30, [sp, #-16]!")
	g.ins("bl _%s", node.Name)
	g.ins("ldp x29, x30, [sp], #16")
	g.push("x0")
	return nil
}

// genSyscall emits the write builtin: the string length is recomputed
// by an inline scan for the terminating null byte, then the Darwin
// write syscall is issued (x16=4, svc #0x80).
func (g *Generator) genSyscall(node *Node) error {
	if node.Name != "write" {
		return &CodeGenError{Msg: "unknown syscall: " + node.Name}
	}
	if len(node.Args) != 1 {
		return &CodeGenError{Msg: "write expects 1 argument"}
	}
	if err := g.genNode(node.Args[0]); err != nil {
		return err
	}
	id := g.nextLabel()
	g.ins("ldr x1, [sp], #16")
	g.ins("mov x2, #0")
	g.raw("Lstrlen%d:", id)
	g.ins("ldrb w3, [x1, x2]")
	g.ins("cbz w3, Lstrlen_done%d", id)
	g.ins("add x2, x2, #1")
	g.ins("b Lstrlen%d", id)
	g.raw("Lstrlen_done%d:", id)
	g.ins("mov x0, #1")
	g.ins("mov x16, #4")
	g.ins("svc #0x80")
	g.push("x0")
	return nil
}

// frameSize computes a function's stack frame from the maximum offset
// its body references, independent of the parser's bookkeeping: rounded
// up to 16 bytes, never below 48.
func frameSize(body *Node) uint64 {
	size := (maxOffset(body) + 15) &^ 15
	if size < 48 {
		size = 48
	}
	return size
}

func maxOffset(node *Node) uint64 {
	if node == nil {
		return 0
	}
	var m uint64
	switch node.Kind {
	case NodeVar:
		m = node.Offset
	case NodeArrayAssign:
		// The full reserved extent counts, not just the base slot.
		m = node.Offset
		if n := len(node.Elements); n > 1 {
			m = node.Offset + uint64(n-1)*slotSize
		}
	}
	for _, child := range []*Node{node.Lhs, node.Rhs, node.X, node.Cond, node.Then, node.Else, node.Init, node.Update, node.Body} {
		if v := maxOffset(child); v > m {
			m = v
		}
	}
	for _, child := range node.Args {
		if v := maxOffset(child); v > m {
			m = v
		}
	}
	for _, child := range node.Elements {
		if v := maxOffset(child); v > m {
			m = v
		}
	}
	return m
}

func (g *Generator) nextLabel() int {
	id := g.labelID
	g.labelID++
	return id
}

// loadImm materializes an arbitrary 64-bit immediate with mov plus as
// many movk as nonzero 16-bit chunks require.
func (g *Generator) loadImm(reg string, v uint64) {
	g.ins("mov %s, #%d", reg, v&0xffff)
	for shift := 16; shift < 64; shift += 16 {
		if chunk := (v >> shift) & 0xffff; chunk != 0 {
			g.ins("movk %s, #%d, lsl #%d", reg, chunk, shift)
		}
	}
}

// frameAddr leaves x29 - off in reg. Going through a register instead
// of an addressing-mode immediate keeps arbitrarily large offsets valid.
func (g *Generator) frameAddr(reg string, off uint64) {
	g.loadImm(reg, off)
	g.ins("sub %s, x29, %s", reg, reg)
}

func (g *Generator) push(reg string) {
	g.ins("str %s, [sp, #-16]!", reg)
}

func (g *Generator) ins(format string, args ...any) {
	fmt.Fprintf(&g.buf, "    "+format+"\n", args...)
}

func (g *Generator) raw(format string, args ...any) {
	fmt.Fprintf(&g.buf, format+"\n", args...)
}

// escapeAsm prepares a string literal for a .asciz directive. The
// lexer keeps source text verbatim, so backslash sequences like \n pass
// through untouched for the assembler to interpret; only bytes that
// would break the directive's syntax are escaped here.
func escapeAsm(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString("\\\"")
		case '\n':
			sb.WriteString("\\n")
		case '\t':
			sb.WriteString("\\t")
		case '\r':
			sb.WriteString("\\r")
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&sb, "\\%03o", c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	return sb.String()
}
