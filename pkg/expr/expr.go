// Package expr implements the restricted arithmetic, boolean and relational
// expression language used by interaction guards, message arguments, loop
// bounds and durations, together with its compiler to CSPM.
//
// The language is intentionally small:
//
//	expr    := or
//	or      := and { ("or" | "||") and }
//	and     := rel { ("and" | "&&") rel }
//	rel     := add [ ("<" | "<=" | ">" | ">=" | "==" | "!=") add ]
//	add     := mul { ("+" | "-") mul }
//	mul     := unary { ("*" | "/" | "%") unary }
//	unary   := ("-" | "not" | "!") unary | primary
//	primary := int | "true" | "false" | ident | "(" expr ")"
package expr

// Expr is a node of the expression language.
type Expr interface {
	exprNode()
}

// IntLit is an integer constant.
type IntLit struct {
	Value int64
}

// BoolLit is a boolean constant.
type BoolLit struct {
	Value bool
}

// Ident references a variable or a constant declared elsewhere in the model.
type Ident struct {
	Name string
}

// Unary applies "-" or "not" to an operand.
type Unary struct {
	Op string
	X  Expr
}

// Binary applies an arithmetic, relational or boolean operator.
type Binary struct {
	Op string
	X  Expr
	Y  Expr
}

func (*IntLit) exprNode()  {}
func (*BoolLit) exprNode() {}
func (*Ident) exprNode()   {}
func (*Unary) exprNode()   {}
func (*Binary) exprNode()  {}

// Operators recognised by the compiler, in canonical form.
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpMod = "%"
	OpLt  = "<"
	OpLe  = "<="
	OpGt  = ">"
	OpGe  = ">="
	OpEq  = "=="
	OpNe  = "!="
	OpAnd = "and"
	OpOr  = "or"
	OpNeg = "-"
	OpNot = "not"
)

// Not negates e.
func Not(e Expr) Expr {
	return &Unary{Op: OpNot, X: e}
}

// And folds es into a left-associated conjunction. An empty list yields true.
func And(es ...Expr) Expr {
	if len(es) == 0 {
		return &BoolLit{Value: true}
	}
	out := es[0]
	for _, e := range es[1:] {
		out = &Binary{Op: OpAnd, X: out, Y: e}
	}
	return out
}

// Vars returns the identifiers referenced by e in encounter order, without duplicates.
func Vars(e Expr) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Ident:
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
		case *Unary:
			walk(n.X)
		case *Binary:
			walk(n.X)
			walk(n.Y)
		}
	}
	if e != nil {
		walk(e)
	}
	return out
}

// IsConstant reports whether e is a literal.
func IsConstant(e Expr) bool {
	switch e.(type) {
	case *IntLit, *BoolLit:
		return true
	}
	return false
}
