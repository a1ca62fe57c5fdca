package expr

import (
	"fmt"
	"strconv"
)

func precedence(op string) int {
	switch op {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpLt, OpLe, OpGt, OpGe, OpEq, OpNe:
		return 3
	case OpAdd, OpSub:
		return 4
	case OpMul, OpDiv, OpMod:
		return 5
	}
	return 0
}

const unaryPrecedence = 6

// Compile renders e as a CSPM expression. Parentheses are emitted only where
// operator precedence requires them.
func Compile(e Expr) string {
	s, _ := compile(e)
	return s
}

// compile returns the rendered text and the precedence of its outermost operator.
func compile(e Expr) (string, int) {
	switch n := e.(type) {
	case *IntLit:
		if n.Value < 0 {
			return "(" + strconv.FormatInt(n.Value, 10) + ")", unaryPrecedence + 1
		}
		return strconv.FormatInt(n.Value, 10), unaryPrecedence + 1
	case *BoolLit:
		return strconv.FormatBool(n.Value), unaryPrecedence + 1
	case *Ident:
		return n.Name, unaryPrecedence + 1
	case *Unary:
		x, px := compile(n.X)
		if px <= unaryPrecedence {
			x = "(" + x + ")"
		}
		if n.Op == OpNot {
			return "not " + x, unaryPrecedence
		}
		return "-" + x, unaryPrecedence
	case *Binary:
		p := precedence(n.Op)
		x, px := compile(n.X)
		y, py := compile(n.Y)
		// Relational operators do not associate in CSPM.
		if px < p || (px == p && p == 3) {
			x = "(" + x + ")"
		}
		if py <= p {
			y = "(" + y + ")"
		}
		return x + " " + n.Op + " " + y, p
	case nil:
		return "true", unaryPrecedence + 1
	}
	panic(fmt.Sprintf("expr: unsupported expression node %T", e))
}

// String renders e for diagnostics; it is the same text the compiler emits.
func String(e Expr) string {
	if e == nil {
		return ""
	}
	return Compile(e)
}
