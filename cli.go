package main

import (
	"errors"
	"fmt"
	"os"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `Ferro - a small Rust-like language compiled to ARM64 assembly

Usage:
    ferro <file>

Reads one .fe source file and writes assembly for ARM64 macOS to
standard output, ready to be piped to an assembler:

    ferro prog.fe > prog.s && cc prog.s -o prog
`)
}

func main() {
	if len(os.Args) != 2 {
		showUsage()
		os.Exit(1)
	}

	path := os.Args[1]
	sourceBytes, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", path, err)
		os.Exit(1)
	}
	source := string(sourceBytes)

	asm, err := Compile(source)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			fmt.Fprint(os.Stderr, RenderDiagnostic(source, parseErr.Pos, parseErr.Msg))
		} else {
			fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Print(asm)
}
