// Package csp is a small CSPM abstract syntax with a printer. The lowering
// engine builds process terms and set expressions with it; the printer adds
// parentheses around every compound operand so the output never depends on
// CSPM operator precedence.
package csp

import (
	"strings"
)

// Term is anything that renders as CSPM text: processes, sets and raw expressions.
type Term interface {
	String() string
}

// Proc is a process term.
type Proc interface {
	Term
	atomic() bool
}

// Skip is successful termination.
type Skip struct{}

// Stop is deadlock.
type Stop struct{}

// Ref names a process, optionally applied to arguments.
type Ref struct {
	Name string
	Args []Term
}

// Comment annotates a process with a block comment.
type Comment struct {
	Text string
	Proc Proc
}

// FieldKind is how a value is attached to a channel event.
type FieldKind int

const (
	FieldDot FieldKind = iota
	FieldOut
	FieldIn
)

// Field is one component of a communication.
type Field struct {
	Kind FieldKind
	Text string
}

// Event is a communication: channel name followed by fields.
type Event struct {
	Channel string
	Fields  []Field
}

// Prefix performs Event then behaves as Then.
type Prefix struct {
	Event Event
	Then  Proc
}

// Guard offers Body only when Cond holds.
type Guard struct {
	Cond string
	Body Proc
}

// If selects between two processes.
type If struct {
	Cond string
	Then Proc
	Else Proc
}

// NaryOp is an associative process operator.
type NaryOp string

const (
	OpSeq        NaryOp = ";"
	OpIntChoice  NaryOp = "|~|"
	OpExtChoice  NaryOp = "[]"
	OpInterleave NaryOp = "|||"
	OpInterrupt  NaryOp = "/\\"
)

// Nary combines processes with one operator.
type Nary struct {
	Op    NaryOp
	Procs []Proc
}

// GenPar is generalised parallel composition synchronising on Sync.
type GenPar struct {
	Left  Proc
	Sync  Term
	Right Proc
}

// Hide conceals the events of Set.
type Hide struct {
	Proc Proc
	Set  Term
}

// ReplAlphaPar is replicated alphabetised parallel: || Var : Domain @ [Alpha] Body.
type ReplAlphaPar struct {
	Var    string
	Domain string
	Alpha  Term
	Body   Proc
}

// ReplGenPar is replicated generalised parallel: [| Sync |] Var : Domain @ Body.
type ReplGenPar struct {
	Sync   Term
	Var    string
	Domain Term
	Body   Proc
}

// ReplExtChoice is replicated external choice: [] Var : Domain @ Body.
type ReplExtChoice struct {
	Var    string
	Domain Term
	Body   Proc
}

func (Skip) atomic() bool          { return true }
func (Stop) atomic() bool          { return true }
func (Ref) atomic() bool           { return true }
func (Comment) atomic() bool       { return false }
func (Prefix) atomic() bool        { return false }
func (Guard) atomic() bool         { return false }
func (If) atomic() bool            { return false }
func (Nary) atomic() bool          { return false }
func (GenPar) atomic() bool        { return false }
func (Hide) atomic() bool          { return false }
func (ReplAlphaPar) atomic() bool  { return false }
func (ReplExtChoice) atomic() bool { return false }
func (ReplGenPar) atomic() bool    { return false }

func (Skip) String() string { return "SKIP" }
func (Stop) String() string { return "STOP" }

func (r Ref) String() string {
	if len(r.Args) == 0 {
		return r.Name
	}
	return r.Name + "(" + join(r.Args, ", ") + ")"
}

func (c Comment) String() string {
	return "{- " + c.Text + " -} " + c.Proc.String()
}

func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Channel)
	for _, f := range e.Fields {
		switch f.Kind {
		case FieldOut:
			b.WriteString("!")
		case FieldIn:
			b.WriteString("?")
		default:
			b.WriteString(".")
		}
		b.WriteString(f.Text)
	}
	return b.String()
}

func (p Prefix) String() string {
	return p.Event.String() + " -> " + continuation(p.Then)
}

func (g Guard) String() string {
	return "(" + g.Cond + ") & " + continuation(g.Body)
}

func (i If) String() string {
	return "if " + i.Cond + " then " + operand(i.Then) + " else " + operand(i.Else)
}

func (n Nary) String() string {
	parts := make([]string, len(n.Procs))
	for i, p := range n.Procs {
		parts[i] = operand(p)
	}
	return strings.Join(parts, " "+string(n.Op)+" ")
}

func (g GenPar) String() string {
	return operand(g.Left) + " [| " + g.Sync.String() + " |] " + operand(g.Right)
}

func (h Hide) String() string {
	return operand(h.Proc) + " \\ " + h.Set.String()
}

func (r ReplAlphaPar) String() string {
	return "|| " + r.Var + " : " + r.Domain + " @ [" + r.Alpha.String() + "] " + operand(r.Body)
}

func (r ReplGenPar) String() string {
	return "[| " + r.Sync.String() + " |] " + r.Var + " : " + r.Domain.String() + " @ " + operand(r.Body)
}

func (r ReplExtChoice) String() string {
	return "[] " + r.Var + " : " + r.Domain.String() + " @ " + operand(r.Body)
}

// continuation renders the right-hand side of a prefix or guard. Prefixes
// chain without parentheses.
func continuation(p Proc) string {
	switch p.(type) {
	case Prefix, Guard:
		return p.String()
	}
	return operand(p)
}

func operand(p Proc) string {
	if p.atomic() {
		return p.String()
	}
	return "(" + p.String() + ")"
}

func join(ts []Term, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}

// Seq composes ps sequentially, dropping SKIP operands. An empty list is SKIP.
func Seq(ps ...Proc) Proc {
	var kept []Proc
	for _, p := range ps {
		if _, ok := p.(Skip); ok {
			continue
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return Skip{}
	case 1:
		return kept[0]
	}
	return Nary{Op: OpSeq, Procs: kept}
}

// Append runs k after p. Prefix chains and sequences are extended in place
// so that "a -> SKIP" followed by Q reads "a -> Q".
func Append(p, k Proc) Proc {
	if _, ok := k.(Skip); ok {
		return p
	}
	switch n := p.(type) {
	case Skip:
		return k
	case Prefix:
		return Prefix{Event: n.Event, Then: Append(n.Then, k)}
	case Nary:
		if n.Op == OpSeq && len(n.Procs) > 0 {
			procs := append([]Proc{}, n.Procs[:len(n.Procs)-1]...)
			return Seq(append(procs, Append(n.Procs[len(n.Procs)-1], k))...)
		}
	}
	return Seq(p, k)
}

// Combine joins ps with op. A single operand is returned as is and an empty
// list yields SKIP.
func Combine(op NaryOp, ps ...Proc) Proc {
	switch len(ps) {
	case 0:
		return Skip{}
	case 1:
		return ps[0]
	}
	return Nary{Op: op, Procs: ps}
}

// Then prefixes the events onto p, innermost last.
func Then(p Proc, events ...Event) Proc {
	for i := len(events) - 1; i >= 0; i-- {
		p = Prefix{Event: events[i], Then: p}
	}
	return p
}

// Call is shorthand for a process reference with arguments.
func Call(name string, args ...Term) Ref {
	return Ref{Name: name, Args: args}
}
