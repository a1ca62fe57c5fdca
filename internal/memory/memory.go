// Package memory generates the binding model of interaction variables.
//
// Every variable is held by a cell process. Lifelines read a variable with a
// load prefix ahead of the fragment that references it and write it with a
// store after the occurrence that binds it. Cells are indexed by accessor
// slot: slot i belongs to lifeline i and the last slot to the linearised
// context until bodies are lowered in.
package memory

import (
	"strconv"

	"github.com/GoSim-25-26J-441/seqcsp/internal/csp"
	"github.com/GoSim-25-26J-441/seqcsp/internal/naming"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/expr"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// DefaultType is the CSPM type of variables declared without one.
const DefaultType = "Int"

// LoadsFor returns the interaction variables f references directly, in
// encounter order: the value arguments of a wrapped message, a wait or
// deadline duration, the loop bound and the guards of f's own operands.
// Identifiers that are not declared variables of i are constants of the
// target and need no load.
func LoadsFor(i *models.Interaction, f models.Fragment) []string {
	c := collector{interaction: i, seen: make(map[string]bool)}
	switch n := f.(type) {
	case *models.OccurrenceFragment:
		switch o := n.Occurrence.(type) {
		case *models.MessageOccurrence:
			for _, a := range o.Message.Args {
				if a.Kind == models.ArgValue {
					c.add(a.Expr)
				}
			}
		case *models.WaitOccurrence:
			c.add(o.Duration)
		}
	case *models.BranchFragment:
		for _, op := range n.Operands {
			c.add(op.Guard.Expr)
		}
	case *models.BlockFragment:
		if n.Bound != nil {
			c.add(n.Bound.Min)
			c.add(n.Bound.Max)
		}
		c.add(n.Duration)
		if n.Operand != nil {
			c.add(n.Operand.Guard.Expr)
		}
	}
	return c.vars
}

type collector struct {
	interaction *models.Interaction
	seen        map[string]bool
	vars        []string
}

func (c *collector) add(e expr.Expr) {
	for _, name := range expr.Vars(e) {
		if c.seen[name] {
			continue
		}
		if _, declared := c.interaction.Variable(name); !declared {
			continue
		}
		c.seen[name] = true
		c.vars = append(c.vars, name)
	}
}

// Layout describes the memory of one interaction.
type Layout struct {
	names naming.Interaction
	vars  []*models.Variable
	slots int
}

// NewLayout returns the memory layout of i. lifelines is the number of
// lifeline slots; one more slot is reserved for the linearised context.
func NewLayout(names naming.Interaction, i *models.Interaction, lifelines int) *Layout {
	return &Layout{names: names, vars: i.Variables, slots: lifelines + 1}
}

// Empty reports whether the interaction declares no variables.
func (l *Layout) Empty() bool {
	return len(l.vars) == 0
}

// UntilSlot is the slot used by linearised until bodies.
func (l *Layout) UntilSlot() int {
	return l.slots - 1
}

// Loads returns the load prefixes of vars for the given slot.
func (l *Layout) Loads(slot int, vars []string) []csp.Event {
	out := make([]csp.Event, len(vars))
	for k, v := range vars {
		out[k] = csp.Event{Channel: l.names.Get(v), Fields: []csp.Field{
			{Kind: csp.FieldDot, Text: strconv.Itoa(slot)},
			{Kind: csp.FieldIn, Text: v},
		}}
	}
	return out
}

// Stores returns the store events writing vars from the given slot.
func (l *Layout) Stores(slot int, vars []string) []csp.Event {
	out := make([]csp.Event, len(vars))
	for k, v := range vars {
		out[k] = csp.Event{Channel: l.names.Set(v), Fields: []csp.Field{
			{Kind: csp.FieldDot, Text: strconv.Itoa(slot)},
			{Kind: csp.FieldOut, Text: v},
		}}
	}
	return out
}

// SlotEvents is the set of loads and stores performed through one slot.
func (l *Layout) SlotEvents(slot int) csp.Set {
	var prefixes []csp.Term
	for _, v := range l.vars {
		s := "." + strconv.Itoa(slot)
		prefixes = append(prefixes, csp.Raw(l.names.Get(v.Name)+s), csp.Raw(l.names.Set(v.Name)+s))
	}
	return csp.Productions{Prefixes: prefixes}
}

// Events is the set of every load and store event.
func (l *Layout) Events() csp.Set {
	var prefixes []csp.Term
	for _, v := range l.vars {
		prefixes = append(prefixes, csp.Raw(l.names.Get(v.Name)), csp.Raw(l.names.Set(v.Name)))
	}
	return csp.Productions{Prefixes: prefixes}
}

func (l *Layout) slotDomain() csp.Raw {
	return csp.Raw("{0.." + strconv.Itoa(l.slots-1) + "}")
}

// Decls returns the channel declarations, the cell of every variable and the
// memory process, which runs until the termination event term.
func (l *Layout) Decls(term string) []csp.Decl {
	if l.Empty() {
		return nil
	}
	var decls []csp.Decl
	for _, v := range l.vars {
		typ := v.Type
		if typ == "" {
			typ = DefaultType
		}
		decls = append(decls, csp.ChannelDecl{
			Names: []string{l.names.Get(v.Name), l.names.Set(v.Name)},
			Type:  string(l.slotDomain()) + "." + typ,
		})
	}
	var cells []csp.Proc
	for _, v := range l.vars {
		decls = append(decls, csp.Def{
			Name:   l.names.Cell(v.Name),
			Params: []string{"v"},
			Body:   csp.Nary{Op: csp.OpExtChoice, Procs: []csp.Proc{l.serve(v.Name, "v"), l.accept(v.Name)}},
		})
		if v.Initial != nil {
			cells = append(cells, csp.Call(l.names.Cell(v.Name), csp.Raw(expr.Compile(v.Initial))))
		} else {
			// An unset cell refuses loads until the first store.
			cells = append(cells, l.accept(v.Name))
		}
	}
	decls = append(decls, csp.Def{
		Name: l.names.Memory(),
		Body: csp.Nary{Op: csp.OpInterrupt, Procs: []csp.Proc{
			csp.Combine(csp.OpInterleave, cells...),
			csp.Prefix{Event: csp.Event{Channel: term}, Then: csp.Skip{}},
		}},
	})
	return decls
}

// serve offers the current value to every slot.
func (l *Layout) serve(name, value string) csp.Proc {
	return csp.ReplExtChoice{
		Var:    "s",
		Domain: l.slotDomain(),
		Body: csp.Prefix{
			Event: csp.Event{Channel: l.names.Get(name), Fields: []csp.Field{{Kind: csp.FieldDot, Text: "s"}, {Kind: csp.FieldOut, Text: value}}},
			Then:  csp.Call(l.names.Cell(name), csp.Raw(value)),
		},
	}
}

// accept takes a new value from any slot.
func (l *Layout) accept(name string) csp.Proc {
	return csp.ReplExtChoice{
		Var:    "s",
		Domain: l.slotDomain(),
		Body: csp.Prefix{
			Event: csp.Event{Channel: l.names.Set(name), Fields: []csp.Field{{Kind: csp.FieldDot, Text: "s"}, {Kind: csp.FieldIn, Text: "w"}}},
			Then:  csp.Call(l.names.Cell(name), csp.Raw("w")),
		},
	}
}
