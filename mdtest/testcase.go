package mdtest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType names the code fence holding a test's source input.
type InputType string

const (
	InputTypeExpr    InputType = "ferro-expr"
	InputTypeProgram InputType = "ferro"
)

// AssertionType names an assertion code fence.
type AssertionType string

const (
	// AssertionAST compares the parsed AST, rendered as an
	// s-expression, against the fence content (structurally).
	AssertionAST AssertionType = "ast"
	// AssertionAsm requires each non-blank fence line to occur in the
	// generated assembly, in order.
	AssertionAsm AssertionType = "asm"
	// AssertionError requires compilation to fail with exactly the
	// fence content as the error message.
	AssertionError AssertionType = "error"
)

// Assertion is a single assertion fence in a test case.
type Assertion struct {
	Type    AssertionType
	Content string
	Sexpr   *Node // pre-parsed content for AssertionAST
}

// TestCase is one "## Test:" section extracted from a corpus file.
type TestCase struct {
	Name       string
	Input      string
	InputType  InputType
	Assertions []Assertion
}

// ExtractTestCases parses a markdown document and collects its test
// cases. A heading beginning with "Test: " opens a case; fenced code
// blocks inside it supply the input and the assertions. Prose and
// unfenced code are ignored, so corpus files can document themselves.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)
	doc := md.Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var current *TestCase

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			if strings.HasPrefix(headingText, "Test: ") {
				if current != nil {
					if err := validateTestCase(current); err != nil {
						return ast.WalkStop, err
					}
					testCases = append(testCases, *current)
				}
				current = &TestCase{Name: strings.TrimPrefix(headingText, "Test: ")}
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			if language == "" {
				return ast.WalkContinue, nil
			}
			content := extractCodeBlockContent(n, source)
			lineNum := getLineNumber(n, source)

			if !isInputFence(language) && !isAssertionFence(language) {
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language %q", lineNum, language)
			}
			if current == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
			}

			if isInputFence(language) {
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences in test '%s'", lineNum, current.Name)
				}
				current.Input = strings.TrimRight(content, "\n")
				current.InputType = InputType(language)
				return ast.WalkContinue, nil
			}

			assertion := Assertion{
				Type:    AssertionType(language),
				Content: strings.TrimRight(content, "\n"),
			}
			if assertion.Type == AssertionAST {
				sexpr, parseErr := Parse(assertion.Content)
				if parseErr != nil {
					return ast.WalkStop, fmt.Errorf("line %d: bad ast assertion in test '%s': %w", lineNum, current.Name, parseErr)
				}
				assertion.Sexpr = sexpr
			}
			current.Assertions = append(current.Assertions, assertion)
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if current != nil {
		if err := validateTestCase(current); err != nil {
			return nil, err
		}
		testCases = append(testCases, *current)
	}
	return testCases, nil
}

func isInputFence(language string) bool {
	return language == string(InputTypeExpr) || language == string(InputTypeProgram)
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionAST, AssertionAsm, AssertionError:
		return true
	}
	return false
}

func validateTestCase(tc *TestCase) error {
	if tc.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", tc.Name)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	return nil
}

func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	startPos := node.Lines().At(0).Start
	lineNum := 1
	for i := 0; i < startPos && i < len(source); i++ {
		if source[i] == '\n' {
			lineNum++
		}
	}
	return lineNum
}
