package csp

import "strings"

// Raw is CSPM text used verbatim: compiled expressions, type names, constants.
type Raw string

func (r Raw) String() string { return string(r) }

// Set is a set expression.
type Set interface {
	Term
	set()
}

// Enum enumerates events or values: {a, b}.
type Enum struct {
	Elems []Term
}

// Productions is the closure of channel prefixes: {| c.in, d |}.
type Productions struct {
	Prefixes []Term
}

// Named references a set defined elsewhere.
type Named struct {
	Name string
}

// SetOp is a binary set function.
type SetOp string

const (
	SetUnion SetOp = "union"
	SetInter SetOp = "inter"
	SetDiff  SetOp = "diff"
)

// SetBinary applies a binary set function.
type SetBinary struct {
	Op  SetOp
	LHS Set
	RHS Set
}

// UnionOf is the distributed union of several sets: Union({A, B, C}).
type UnionOf struct {
	Sets []Set
}

// Comprehension is {Elem | Generators}.
type Comprehension struct {
	Elem       Term
	Generators []string
}

func (Enum) set()          {}
func (Productions) set()   {}
func (Named) set()         {}
func (SetBinary) set()     {}
func (UnionOf) set()       {}
func (Comprehension) set() {}

func (e Enum) String() string {
	if len(e.Elems) == 0 {
		return "{}"
	}
	return "{" + join(e.Elems, ", ") + "}"
}

func (p Productions) String() string {
	if len(p.Prefixes) == 0 {
		return "{}"
	}
	return "{| " + join(p.Prefixes, ", ") + " |}"
}

func (n Named) String() string { return n.Name }

func (b SetBinary) String() string {
	return string(b.Op) + "(" + b.LHS.String() + ", " + b.RHS.String() + ")"
}

func (u UnionOf) String() string {
	parts := make([]string, len(u.Sets))
	for i, s := range u.Sets {
		parts[i] = s.String()
	}
	return "Union({" + strings.Join(parts, ", ") + "})"
}

func (c Comprehension) String() string {
	return "{ " + c.Elem.String() + " | " + strings.Join(c.Generators, ", ") + " }"
}

// EmptySet is {}.
func EmptySet() Set { return Enum{} }

// Union joins sets, dropping empty enumerations. It returns {} for no
// operands, the operand itself for one, union(a, b) for two and Union({..})
// otherwise.
func Union(sets ...Set) Set {
	var kept []Set
	for _, s := range sets {
		if IsEmptySet(s) {
			continue
		}
		kept = append(kept, s)
	}
	switch len(kept) {
	case 0:
		return EmptySet()
	case 1:
		return kept[0]
	case 2:
		return SetBinary{Op: SetUnion, LHS: kept[0], RHS: kept[1]}
	}
	return UnionOf{Sets: kept}
}

// IsEmptySet reports whether s is syntactically empty.
func IsEmptySet(s Set) bool {
	switch n := s.(type) {
	case Enum:
		return len(n.Elems) == 0
	case Productions:
		return len(n.Prefixes) == 0
	}
	return false
}
