package lowering

import (
	"fmt"
	"strconv"

	"github.com/GoSim-25-26J-441/seqcsp/internal/csp"
	"github.com/GoSim-25-26J-441/seqcsp/internal/memory"
	"github.com/GoSim-25-26J-441/seqcsp/internal/naming"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/expr"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/logger"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// interactionLowering holds the state of lowering one interaction. It is
// owned by a single goroutine.
type interactionLowering struct {
	*Lowerer
	interaction *models.Interaction
	names       naming.Interaction
	memory      *memory.Layout
	// multi is set when lifelines are composed in parallel.
	multi bool

	untils    []*models.BlockFragment
	untilIdx  map[*models.BlockFragment]int
	pars      []*models.BranchFragment
	parIdx    map[*models.BranchFragment]int
	channels  channelSet
	variables map[string]bool
}

func (l *Lowerer) newInteractionLowering(i *models.Interaction) *interactionLowering {
	names := l.names.Interaction(i.Name)
	x := &interactionLowering{
		Lowerer:     l,
		interaction: i,
		names:       names,
		memory:      memory.NewLayout(names, i, len(i.Lifelines)),
		multi:       len(i.Lifelines) > 1,
		untilIdx:    make(map[*models.BlockFragment]int),
		parIdx:      make(map[*models.BranchFragment]int),
		channels:    make(channelSet),
		variables:   make(map[string]bool),
	}
	for _, v := range i.Variables {
		x.variables[v.Name] = true
	}
	return x
}

func (x *interactionLowering) isVar(name string) bool {
	return x.variables[name]
}

// index numbers the until and par fragments of the interaction in pre-order.
// Par fragments inside until bodies run in the linearised context and need
// no synchronisation, so they are not numbered.
func (x *interactionLowering) index(fs []models.Fragment, inUntil bool) error {
	for _, f := range fs {
		switch n := f.(type) {
		case *models.BranchFragment:
			if n.Op == models.BranchPar && !inUntil {
				x.parIdx[n] = len(x.pars)
				x.pars = append(x.pars, n)
			}
			for _, op := range n.Operands {
				if err := x.index(op.Fragments, inUntil); err != nil {
					return err
				}
			}
		case *models.BlockFragment:
			if n.Operand == nil {
				return unsupported("%s fragment without an operand", n.Op)
			}
			if n.Op == models.BlockUntil {
				if inUntil {
					return ErrNestedUntil
				}
				x.untilIdx[n] = len(x.untils)
				x.untils = append(x.untils, n)
			}
			if err := x.index(n.Operand.Fragments, inUntil || n.Op == models.BlockUntil); err != nil {
				return err
			}
		case *models.OccurrenceFragment:
		default:
			return unsupported("fragment %T", f)
		}
	}
	return nil
}

// sequence lowers fs in order, each fragment continuing with the next.
func (x *interactionLowering) sequence(fs []models.Fragment, ctx Context) (csp.Proc, error) {
	return x.chain(fs, ctx, csp.Skip{})
}

// chain lowers fs followed by k.
func (x *interactionLowering) chain(fs []models.Fragment, ctx Context, k csp.Proc) (csp.Proc, error) {
	for idx := len(fs) - 1; idx >= 0; idx-- {
		p, err := x.fragment(fs[idx], ctx, k)
		if err != nil {
			return nil, err
		}
		k = p
	}
	return k, nil
}

// fragment lowers f under ctx followed by the continuation k.
func (x *interactionLowering) fragment(f models.Fragment, ctx Context, k csp.Proc) (csp.Proc, error) {
	loads := x.memory.Loads(ctx.Slot, memory.LoadsFor(x.interaction, f))
	switch n := f.(type) {
	case *models.OccurrenceFragment:
		return x.occurrence(n, ctx, loads, k)
	case *models.BranchFragment:
		p, err := x.branch(n, ctx)
		if err != nil {
			return nil, err
		}
		return csp.Append(csp.Then(p, loads...), k), nil
	case *models.BlockFragment:
		p, err := x.block(n, ctx)
		if err != nil {
			return nil, err
		}
		return csp.Append(csp.Then(p, loads...), k), nil
	}
	return nil, unsupported("fragment %T", f)
}

func (x *interactionLowering) occurrence(f *models.OccurrenceFragment, ctx Context, loads []csp.Event, k csp.Proc) (csp.Proc, error) {
	switch o := f.Occurrence.(type) {
	case *models.MessageOccurrence:
		m := o.Message
		if !ctx.performs(m) {
			logger.Debug("lifeline skips occurrence",
				"interaction", x.interaction.Name, "lifeline", ctx.String(), "topic", m.Topic.Name)
			if x.opts.Annotate {
				return csp.Comment{Text: ctx.String() + " skips " + m.Topic.Name, Proc: k}, nil
			}
			return k, nil
		}
		e, err := x.resolve(m)
		if err != nil {
			return nil, err
		}
		x.channels.add(x.channel(e))
		ev, err := x.communication(m, e)
		if err != nil {
			return nil, err
		}
		events := append(append(loads, ev), x.memory.Stores(ctx.Slot, m.Binds())...)
		return csp.Then(k, events...), nil
	case *models.WaitOccurrence:
		if o.Duration == nil {
			return nil, unsupported("wait without a duration")
		}
		wait := csp.Call(csp.Wait, csp.Raw(expr.Compile(o.Duration)))
		return csp.Append(csp.Then(wait, loads...), k), nil
	case *models.DeadlockOccurrence:
		return csp.Stop{}, nil
	}
	return nil, unsupported("occurrence %T", f.Occurrence)
}

func (x *interactionLowering) branch(f *models.BranchFragment, ctx Context) (csp.Proc, error) {
	var op csp.NaryOp
	switch f.Op {
	case models.BranchAlt:
		op = csp.OpIntChoice
	case models.BranchXAlt:
		op = csp.OpExtChoice
	case models.BranchPar:
		op = csp.OpInterleave
	default:
		return nil, unsupported("branch operator %q", f.Op)
	}

	procs := make([]csp.Proc, 0, len(f.Operands))
	for _, operand := range f.Operands {
		body, err := x.sequence(operand.Fragments, ctx)
		if err != nil {
			return nil, err
		}
		cond, guarded, err := guardCondition(operand, f.Operands)
		if err != nil {
			return nil, err
		}
		switch {
		case guarded && f.Op == models.BranchPar:
			// A disabled par operand must still let the interleaving terminate.
			body = csp.If{Cond: cond, Then: body, Else: csp.Skip{}}
		case guarded:
			body = csp.Guard{Cond: cond, Body: body}
		}
		procs = append(procs, body)
	}
	p := csp.Combine(op, procs...)

	if f.Op == models.BranchPar && x.multi && !ctx.Linearised() {
		k := x.parIdx[f]
		return csp.Then(csp.Seq(p, csp.Then(csp.Skip{}, x.control(x.names.Par(), k, csp.Leave))), x.control(x.names.Par(), k, csp.Enter)), nil
	}
	return p, nil
}

// guardCondition compiles the guard of operand. An else guard holds when no
// sibling guard does; an unguarded sibling always holds.
func guardCondition(operand *models.Operand, siblings []*models.Operand) (string, bool, error) {
	switch operand.Guard.Kind {
	case models.GuardNone:
		return "", false, nil
	case models.GuardExpr:
		return expr.Compile(operand.Guard.Expr), true, nil
	case models.GuardElse:
		var negated []expr.Expr
		for _, s := range siblings {
			if s == operand {
				continue
			}
			switch s.Guard.Kind {
			case models.GuardExpr:
				negated = append(negated, expr.Not(s.Guard.Expr))
			case models.GuardNone:
				negated = append(negated, &expr.BoolLit{Value: false})
			}
		}
		return expr.Compile(expr.And(negated...)), true, nil
	}
	return "", false, unsupported("guard kind %q", operand.Guard.Kind)
}

func (x *interactionLowering) block(f *models.BlockFragment, ctx Context) (csp.Proc, error) {
	var p csp.Proc
	switch f.Op {
	case models.BlockLoop:
		body, err := x.sequence(f.Operand.Fragments, ctx)
		if err != nil {
			return nil, err
		}
		if f.Bound == nil || f.Bound.Min == nil && f.Bound.Max == nil {
			p = csp.Call(csp.Loop, body)
			break
		}
		lo := "0"
		if f.Bound.Min != nil {
			lo = expr.Compile(f.Bound.Min)
		}
		hi := lo
		if f.Bound.Max != nil {
			hi = expr.Compile(f.Bound.Max)
		}
		p = csp.Call(csp.BLoop, body, csp.Raw(lo), csp.Raw(hi))
	case models.BlockOpt:
		body, err := x.sequence(f.Operand.Fragments, ctx)
		if err != nil {
			return nil, err
		}
		if f.Operand.Guard.Kind == models.GuardExpr {
			// A guarded option runs exactly when its guard holds.
			return csp.If{Cond: expr.Compile(f.Operand.Guard.Expr), Then: body, Else: csp.Skip{}}, nil
		}
		p = csp.Call(csp.Opt, body)
	case models.BlockDeadline:
		if f.Duration == nil {
			return nil, unsupported("deadline without a duration")
		}
		body, err := x.sequence(f.Operand.Fragments, ctx)
		if err != nil {
			return nil, err
		}
		p = csp.Call(csp.Deadline, body, csp.Raw(expr.Compile(f.Duration)))
	case models.BlockUntil:
		var err error
		p, err = x.until(f, ctx)
		if err != nil {
			return nil, err
		}
	default:
		return nil, unsupported("block operator %q", f.Op)
	}

	switch f.Operand.Guard.Kind {
	case models.GuardNone:
		return p, nil
	case models.GuardExpr:
		return csp.If{Cond: expr.Compile(f.Operand.Guard.Expr), Then: p, Else: csp.Skip{}}, nil
	}
	return nil, unsupported("guard kind %q on a %s fragment", f.Operand.Guard.Kind, f.Op)
}

// until lowers an until fragment. With several lifelines each lifeline only
// hands control to the until body process and waits for it to finish.
func (x *interactionLowering) until(f *models.BlockFragment, ctx Context) (csp.Proc, error) {
	k, ok := x.untilIdx[f]
	if !ok {
		return nil, fmt.Errorf("%w: until fragment was not indexed", ErrUnsupportedConstruct)
	}
	if x.multi && !ctx.Linearised() {
		ch := x.names.Until()
		return csp.Then(csp.Skip{}, x.control(ch, k, csp.Enter), x.control(ch, k, csp.Leave)), nil
	}
	body, err := x.sequence(f.Operand.Fragments, ctx)
	if err != nil {
		return nil, err
	}
	return x.untilWrapper(f, body)
}

// untilWrapper races body against the intra set of f, excluding the messages
// body itself starts with.
func (x *interactionLowering) untilWrapper(f *models.BlockFragment, body csp.Proc) (csp.Proc, error) {
	intra, err := x.lowerSet(f.Intra, x.isVar, x.channels)
	if err != nil {
		return nil, err
	}
	init, err := x.initial(f.Operand.Fragments)
	if err != nil {
		return nil, err
	}
	return csp.Call(csp.Until, body, intra, init), nil
}

// initial is the set of messages fs can offer first. Only the first fragment
// is inspected, descending through branches and blocks to its first
// occurrence.
func (x *interactionLowering) initial(fs []models.Fragment) (csp.Set, error) {
	if len(fs) == 0 {
		return csp.EmptySet(), nil
	}
	switch n := fs[0].(type) {
	case *models.OccurrenceFragment:
		mo, ok := n.Occurrence.(*models.MessageOccurrence)
		if !ok {
			return csp.EmptySet(), nil
		}
		e, err := x.resolve(mo.Message)
		if err != nil {
			return nil, err
		}
		x.channels.add(x.channel(e))
		return x.eventSet(mo.Message, e, x.isVar)
	case *models.BranchFragment:
		sets := make([]csp.Set, 0, len(n.Operands))
		for _, op := range n.Operands {
			s, err := x.initial(op.Fragments)
			if err != nil {
				return nil, err
			}
			sets = append(sets, s)
		}
		return csp.Union(sets...), nil
	case *models.BlockFragment:
		return x.initial(n.Operand.Fragments)
	}
	return nil, unsupported("fragment %T", fs[0])
}

// control is the event phase of the k-th fragment on a control channel.
func (x *interactionLowering) control(channel string, k int, phase string) csp.Event {
	return csp.Event{Channel: channel, Fields: []csp.Field{
		{Kind: csp.FieldDot, Text: strconv.Itoa(k)},
		{Kind: csp.FieldDot, Text: phase},
	}}
}
