package main

import (
	"fmt"
	"strings"
)

// NodeKind tags the variant of an AST node.
type NodeKind string

const (
	NodeSeq         NodeKind = "Seq"
	NodeNum         NodeKind = "Num"
	NodeString      NodeKind = "String"
	NodeVar         NodeKind = "Var"
	NodeFunction    NodeKind = "Function"
	NodeCall        NodeKind = "Call"
	NodeSyscall     NodeKind = "Syscall"
	NodeAssign      NodeKind = "Assign"
	NodeBinaryOp    NodeKind = "BinaryOp"
	NodeReturn      NodeKind = "Return"
	NodeIf          NodeKind = "If"
	NodeWhile       NodeKind = "While"
	NodeFor         NodeKind = "For"
	NodeDeref       NodeKind = "Deref"
	NodeAddr        NodeKind = "Addr"
	NodeArrayAssign NodeKind = "ArrayAssign"
)

// OpKind is a binary operator.
type OpKind string

const (
	OpAdd OpKind = "+"
	OpSub OpKind = "-"
	OpMul OpKind = "*"
	OpDiv OpKind = "/"
	OpEq  OpKind = "=="
	OpNe  OpKind = "!="
	OpLt  OpKind = "<"
	OpGt  OpKind = ">"
	OpLe  OpKind = "<="
	OpGe  OpKind = ">="
)

// Node is one node of the AST. Each child is exclusively owned by its
// parent; the tree is built once by the parser and then only read.
type Node struct {
	Kind NodeKind

	Value  uint64 // NodeNum
	Str    string // NodeString
	Offset uint64 // NodeVar, NodeArrayAssign (base slot)
	Name   string // NodeFunction, NodeCall, NodeSyscall
	Op     OpKind // NodeBinaryOp

	Lhs, Rhs *Node // NodeSeq (first/second), NodeAssign, NodeBinaryOp
	X        *Node // NodeReturn, NodeDeref, NodeAddr operand

	Cond, Then, Else   *Node // NodeIf (Else may be nil)
	Init, Update, Body *Node // NodeFor; NodeWhile and NodeFunction use Cond/Body and Body

	Args     []*Node // NodeFunction parameters, NodeCall/NodeSyscall arguments
	Elements []*Node // NodeArrayAssign
}

// foldSeq folds statements into nested Seq nodes, left-heavy. An empty
// list folds to Num(0), the same default an empty function body gets.
func foldSeq(nodes []*Node) *Node {
	if len(nodes) == 0 {
		return &Node{Kind: NodeNum, Value: 0}
	}
	node := nodes[0]
	for _, next := range nodes[1:] {
		node = &Node{Kind: NodeSeq, Lhs: node, Rhs: next}
	}
	return node
}

// ToSExpr renders a node as an s-expression. Tests and the markdown
// corpus compare ASTs in this form.
func ToSExpr(node *Node) string {
	switch node.Kind {
	case NodeSeq:
		return "(seq " + ToSExpr(node.Lhs) + " " + ToSExpr(node.Rhs) + ")"
	case NodeNum:
		return fmt.Sprintf("(num %d)", node.Value)
	case NodeString:
		return fmt.Sprintf("(string %q)", node.Str)
	case NodeVar:
		return fmt.Sprintf("(var %d)", node.Offset)
	case NodeFunction:
		var sb strings.Builder
		fmt.Fprintf(&sb, "(fn %q (params", node.Name)
		for _, arg := range node.Args {
			sb.WriteString(" " + ToSExpr(arg))
		}
		sb.WriteString(") " + ToSExpr(node.Body) + ")")
		return sb.String()
	case NodeCall, NodeSyscall:
		head := "call"
		if node.Kind == NodeSyscall {
			head = "syscall"
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "(%s %q", head, node.Name)
		for _, arg := range node.Args {
			sb.WriteString(" " + ToSExpr(arg))
		}
		sb.WriteString(")")
		return sb.String()
	case NodeAssign:
		return "(assign " + ToSExpr(node.Lhs) + " " + ToSExpr(node.Rhs) + ")"
	case NodeBinaryOp:
		return fmt.Sprintf("(binary %q %s %s)", string(node.Op), ToSExpr(node.Lhs), ToSExpr(node.Rhs))
	case NodeReturn:
		return "(return " + ToSExpr(node.X) + ")"
	case NodeIf:
		s := "(if " + ToSExpr(node.Cond) + " " + ToSExpr(node.Then)
		if node.Else != nil {
			s += " " + ToSExpr(node.Else)
		}
		return s + ")"
	case NodeWhile:
		return "(while " + ToSExpr(node.Cond) + " " + ToSExpr(node.Body) + ")"
	case NodeFor:
		return "(for " + ToSExpr(node.Init) + " " + ToSExpr(node.Cond) + " " +
			ToSExpr(node.Update) + " " + ToSExpr(node.Body) + ")"
	case NodeDeref:
		return "(deref " + ToSExpr(node.X) + ")"
	case NodeAddr:
		return "(addr " + ToSExpr(node.X) + ")"
	case NodeArrayAssign:
		var sb strings.Builder
		fmt.Fprintf(&sb, "(array %d", node.Offset)
		for _, el := range node.Elements {
			sb.WriteString(" " + ToSExpr(el))
		}
		sb.WriteString(")")
		return sb.String()
	default:
		return ""
	}
}
