package main

import (
	"fmt"
	"strings"
)

// ParseError is a lexical or syntactic error with the byte offset of
// the offending input. It carries enough to render a caret diagnostic;
// rendering is left to the CLI layer.
type ParseError struct {
	Msg string
	Pos int
}

func (e *ParseError) Error() string {
	return e.Msg
}

// CodeGenError reports a structurally invalid AST reaching the code
// generator, which a correct parse should never produce. It is fatal
// and no partial assembly is emitted.
type CodeGenError struct {
	Msg string
}

func (e *CodeGenError) Error() string {
	return e.Msg
}

// RenderDiagnostic formats the source line containing pos with a caret
// under the offending column:
//
//	3 | let x = ?;
//	  |         ^ invalid character
func RenderDiagnostic(source string, pos int, msg string) string {
	if pos > len(source) {
		pos = len(source)
	}
	lineNum := 1
	lineStart := 0
	for i := 0; i < pos; i++ {
		if source[i] == '\n' {
			lineNum++
			lineStart = i + 1
		}
	}
	lineEnd := len(source)
	if i := strings.IndexByte(source[lineStart:], '\n'); i >= 0 {
		lineEnd = lineStart + i
	}
	line := source[lineStart:lineEnd]
	col := pos - lineStart

	num := fmt.Sprintf("%d", lineNum)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s | %s\n", num, line)
	fmt.Fprintf(&sb, "%s | %s^ %s\n", strings.Repeat(" ", len(num)), strings.Repeat(" ", col), msg)
	return sb.String()
}
