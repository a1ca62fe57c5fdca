package expr

import (
	"reflect"
	"testing"
)

func TestParseAndCompile(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"integer", "42", "42"},
		{"identifier", "count", "count"},
		{"boolean", "true", "true"},
		{"precedence", "x + 1 * 2", "x + 1 * 2"},
		{"grouping kept where needed", "(x + 1) * 2", "(x + 1) * 2"},
		{"redundant parens dropped", "(x * 2) + 1", "x * 2 + 1"},
		{"right associativity preserved", "a - (b - c)", "a - (b - c)"},
		{"relational", "x + 1 > 3", "x + 1 > 3"},
		{"single equals", "x = 3", "x == 3"},
		{"boolean symbols", "a > 1 && b < 2 || c", "a > 1 and b < 2 or c"},
		{"or inside and", "(a or b) and c", "(a or b) and c"},
		{"not keyword", "not done", "not done"},
		{"bang", "!(a and b)", "not (a and b)"},
		{"double negation", "- -x", "-(-x)"},
		{"negative operand", "x * -1", "x * -1"},
		{"modulo", "n % 2 == 0", "n % 2 == 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := Compile(e); got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"dangling operator", "x +"},
		{"unbalanced", "(x + 1"},
		{"trailing token", "x y"},
		{"bad character", "x $ y"},
		{"keyword as operand", "and"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.src); err == nil {
				t.Fatalf("expected error for %q", tt.src)
			}
		})
	}
}

func TestVars(t *testing.T) {
	e := MustParse("x + y > x * z and not done")
	got := Vars(e)
	expected := []string{"x", "y", "z", "done"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	if Vars(nil) != nil {
		t.Fatalf("expected no vars for nil expression")
	}
	if len(Vars(MustParse("1 + 2"))) != 0 {
		t.Fatalf("expected no vars for constant expression")
	}
}

func TestNotAnd(t *testing.T) {
	g := And(Not(MustParse("x > 1")), Not(MustParse("y")))
	if got := Compile(g); got != "not (x > 1) and not y" {
		t.Fatalf("unexpected else guard %q", got)
	}
	if got := Compile(And()); got != "true" {
		t.Fatalf("expected empty conjunction to be true, got %q", got)
	}
}

func TestIsConstant(t *testing.T) {
	if !IsConstant(MustParse("3")) || !IsConstant(MustParse("false")) {
		t.Fatalf("expected literals to be constant")
	}
	if IsConstant(MustParse("x")) || IsConstant(MustParse("1 + 1")) {
		t.Fatalf("expected non-literals to be non-constant")
	}
}
