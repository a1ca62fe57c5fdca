package csp

import (
	"strings"
)

// Decl is a top-level or module-level declaration.
type Decl interface {
	render(b *strings.Builder, indent string)
}

// Def defines a process, set or function: Name(Params) = Body.
type Def struct {
	Name   string
	Params []string
	Body   Term
}

// ChannelDecl declares channels sharing one type. An empty Type declares
// untyped channels.
type ChannelDecl struct {
	Names []string
	Type  string
}

// Datatype declares an enumerated type.
type Datatype struct {
	Name         string
	Constructors []string
}

// LineComment is a "--" comment line.
type LineComment struct {
	Text string
}

// Blank separates groups of declarations.
type Blank struct{}

// Assert is a refinement assertion line.
type Assert struct {
	Negated bool
	Left    Term
	Model   string
	Right   Term
	// Suffix holds model options, e.g. ":[tau priority]: {tock}".
	Suffix string
}

// Module groups declarations under a namespace. Every declaration is exported.
type Module struct {
	Name  string
	Decls []Decl
}

func (d Def) render(b *strings.Builder, indent string) {
	b.WriteString(indent)
	b.WriteString(d.Name)
	if len(d.Params) > 0 {
		b.WriteString("(" + strings.Join(d.Params, ", ") + ")")
	}
	b.WriteString(" = ")
	b.WriteString(d.Body.String())
	b.WriteString("\n")
}

func (c ChannelDecl) render(b *strings.Builder, indent string) {
	b.WriteString(indent)
	b.WriteString("channel ")
	b.WriteString(strings.Join(c.Names, ", "))
	if c.Type != "" {
		b.WriteString(" : " + c.Type)
	}
	b.WriteString("\n")
}

func (d Datatype) render(b *strings.Builder, indent string) {
	b.WriteString(indent)
	b.WriteString("datatype " + d.Name + " = " + strings.Join(d.Constructors, " | "))
	b.WriteString("\n")
}

func (c LineComment) render(b *strings.Builder, indent string) {
	b.WriteString(indent + "-- " + c.Text + "\n")
}

func (Blank) render(b *strings.Builder, _ string) {
	b.WriteString("\n")
}

func (a Assert) render(b *strings.Builder, indent string) {
	b.WriteString(indent)
	b.WriteString(a.String())
	b.WriteString("\n")
}

// String renders the assertion without a trailing newline.
func (a Assert) String() string {
	var b strings.Builder
	b.WriteString("assert ")
	if a.Negated {
		b.WriteString("not ")
	}
	b.WriteString(side(a.Left))
	b.WriteString(" [" + a.Model + "= ")
	b.WriteString(side(a.Right))
	if a.Suffix != "" {
		b.WriteString(" " + a.Suffix)
	}
	return b.String()
}

func side(t Term) string {
	if p, ok := t.(Proc); ok {
		return operand(p)
	}
	return t.String()
}

func (m Module) render(b *strings.Builder, indent string) {
	b.WriteString(indent + "module " + m.Name + "\n")
	b.WriteString(indent + "exports\n")
	for _, d := range m.Decls {
		d.render(b, indent+"  ")
	}
	b.WriteString(indent + "endmodule\n")
}

// Script is a complete CSPM file.
type Script struct {
	Decls []Decl
}

// Add appends declarations.
func (s *Script) Add(decls ...Decl) {
	s.Decls = append(s.Decls, decls...)
}

// String renders the script.
func (s *Script) String() string {
	var b strings.Builder
	for _, d := range s.Decls {
		d.render(&b, "")
	}
	return b.String()
}

// Render renders a list of declarations at top level.
func Render(decls ...Decl) string {
	s := Script{Decls: decls}
	return s.String()
}
