package lowering

import (
	"fmt"
	"strconv"

	"github.com/GoSim-25-26J-441/seqcsp/internal/csp"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// LowerInteraction lowers i into its process definition and the supporting
// declarations. Message sets of i must already have been optimised.
func (l *Lowerer) LowerInteraction(i *models.Interaction) (*Lowered, error) {
	x := l.newInteractionLowering(i)
	if err := x.index(i.Fragments, false); err != nil {
		return nil, fmt.Errorf("interaction %s: %w", i.Name, err)
	}

	var decls []csp.Decl
	var err error
	switch len(i.Lifelines) {
	case 0:
		decls, err = x.single(LinearisedContext(0))
	case 1:
		decls, err = x.single(LifelineContext(i.Lifelines[0], 0))
	default:
		decls, err = x.composed()
	}
	if err != nil {
		return nil, fmt.Errorf("interaction %s: %w", i.Name, err)
	}

	return &Lowered{
		Interaction: i,
		Process:     x.names.Qualified(),
		Decls:       decls,
		Channels:    x.channels.sorted(),
	}, nil
}

// single lowers an interaction with at most one lifeline. Its process is the
// lifeline itself, put in parallel with the memory when it has variables.
func (x *interactionLowering) single(ctx Context) ([]csp.Decl, error) {
	if x.memory.Empty() {
		body, err := x.sequence(x.interaction.Fragments, ctx)
		if err != nil {
			return nil, err
		}
		return []csp.Decl{csp.Def{Name: x.names.Process(), Body: body}}, nil
	}
	body, err := x.chain(x.interaction.Fragments, ctx, x.terminate())
	if err != nil {
		return nil, err
	}

	term := x.names.Term()
	decls := []csp.Decl{csp.ChannelDecl{Names: []string{term}}}
	decls = append(decls, x.memory.Decls(term)...)
	hidden := csp.Union(x.memory.Events(), x.productions(term))
	process := csp.Hide{
		Proc: csp.GenPar{
			Left:  body,
			Sync:  hidden,
			Right: csp.Ref{Name: x.names.Memory()},
		},
		Set: hidden,
	}
	return append(decls, csp.Def{Name: x.names.Process(), Body: process}), nil
}

// composed lowers every lifeline separately and composes them in alphabetised
// parallel with the auxiliary processes serving until and par fragments.
func (x *interactionLowering) composed() ([]csp.Decl, error) {
	i := x.interaction
	names := x.names
	term := names.Term()

	actorType := csp.Datatype{Name: names.ActorType()}
	for _, a := range i.Lifelines {
		actorType.Constructors = append(actorType.Constructors, names.Actor(a.Name))
	}
	decls := []csp.Decl{actorType, csp.ChannelDecl{Names: []string{term}}}

	if len(x.untils) > 0 {
		decls = append(decls, csp.ChannelDecl{Names: []string{names.Until()}, Type: syncType(len(x.untils))})
	}
	if len(x.pars) > 0 {
		decls = append(decls, csp.ChannelDecl{Names: []string{names.Par()}, Type: syncType(len(x.pars))})
	}
	decls = append(decls, x.memory.Decls(term)...)

	control := x.controlSet()
	for slot, a := range i.Lifelines {
		body, err := x.chain(i.Fragments, LifelineContext(a, slot), x.terminate())
		if err != nil {
			return nil, err
		}
		alpha, err := x.alphabet(a, slot, control)
		if err != nil {
			return nil, err
		}
		decls = append(decls,
			csp.Def{Name: names.Alpha(), Params: []string{names.Actor(a.Name)}, Body: alpha},
			csp.Def{Name: names.Lifeline(), Params: []string{names.Actor(a.Name)}, Body: body},
		)
	}
	decls = append(decls, csp.Def{Name: names.Lifelines(), Body: csp.ReplAlphaPar{
		Var:    "a",
		Domain: names.ActorType(),
		Alpha:  csp.Call(names.Alpha(), csp.Raw("a")),
		Body:   csp.Call(names.Lifeline(), csp.Raw("a")),
	}})

	var process csp.Proc = csp.Ref{Name: names.Lifelines()}
	hidden := []csp.Set{x.productions(term)}
	if len(x.untils) > 0 {
		aux, err := x.untilSync()
		if err != nil {
			return nil, err
		}
		decls = append(decls, aux...)
		sync := csp.Productions{Prefixes: []csp.Term{csp.Raw(names.Until()), csp.Raw(term)}}
		process = csp.GenPar{Left: process, Sync: sync, Right: csp.Ref{Name: names.UntilSync()}}
		hidden = append(hidden, x.productions(names.Until()))
	}
	if len(x.pars) > 0 {
		decls = append(decls, x.parSync()...)
		sync := csp.Productions{Prefixes: []csp.Term{csp.Raw(names.Par()), csp.Raw(term)}}
		process = csp.GenPar{Left: process, Sync: sync, Right: csp.Ref{Name: names.ParSync()}}
		hidden = append(hidden, x.productions(names.Par()))
	}
	if !x.memory.Empty() {
		sync := csp.Union(x.memory.Events(), x.productions(term))
		process = csp.GenPar{Left: process, Sync: sync, Right: csp.Ref{Name: names.Memory()}}
		hidden = append(hidden, x.memory.Events())
	}
	decls = append(decls, csp.Def{
		Name: names.Process(),
		Body: csp.Hide{Proc: process, Set: csp.Union(hidden...)},
	})
	return decls, nil
}

func syncType(n int) string {
	return "{0.." + strconv.Itoa(n-1) + "}." + csp.Phase
}

func (x *interactionLowering) productions(channel string) csp.Set {
	return csp.Productions{Prefixes: []csp.Term{csp.Raw(channel)}}
}

func (x *interactionLowering) terminate() csp.Proc {
	return csp.Prefix{Event: csp.Event{Channel: x.names.Term()}, Then: csp.Skip{}}
}

// controlSet is shared by every lifeline: control channels, termination and time.
func (x *interactionLowering) controlSet() csp.Set {
	prefixes := []csp.Term{}
	if len(x.untils) > 0 {
		prefixes = append(prefixes, csp.Raw(x.names.Until()))
	}
	if len(x.pars) > 0 {
		prefixes = append(prefixes, csp.Raw(x.names.Par()))
	}
	prefixes = append(prefixes, csp.Raw(x.names.Term()), csp.Raw(csp.Tock))
	return csp.Productions{Prefixes: prefixes}
}

// alphabet is the set of events lifeline a takes part in: every message
// touching its actor outside until bodies, its own memory accesses and the
// shared control set.
func (x *interactionLowering) alphabet(a *models.Actor, slot int, control csp.Set) (csp.Set, error) {
	var sets []csp.Set
	seen := make(map[string]bool)
	var walkErr error
	walkOutsideUntil(x.interaction.Fragments, func(f models.Fragment) {
		if walkErr != nil {
			return
		}
		occ, ok := f.(*models.OccurrenceFragment)
		if !ok {
			return
		}
		mo, ok := occ.Occurrence.(*models.MessageOccurrence)
		if !ok || !mo.Message.Involves(a) {
			return
		}
		e, err := x.resolve(mo.Message)
		if err != nil {
			walkErr = err
			return
		}
		s, err := x.eventSet(mo.Message, e, x.isVar)
		if err != nil {
			walkErr = err
			return
		}
		if key := s.String(); !seen[key] {
			seen[key] = true
			sets = append(sets, s)
		}
	})
	if walkErr != nil {
		return nil, walkErr
	}
	if !x.memory.Empty() {
		sets = append(sets, x.memory.SlotEvents(slot))
	}
	return csp.Union(append(sets, control)...), nil
}

// walkOutsideUntil visits fs in pre-order without entering until bodies.
func walkOutsideUntil(fs []models.Fragment, visit func(models.Fragment)) {
	for _, f := range fs {
		visit(f)
		switch n := f.(type) {
		case *models.BranchFragment:
			for _, op := range n.Operands {
				walkOutsideUntil(op.Fragments, visit)
			}
		case *models.BlockFragment:
			if n.Op != models.BlockUntil && n.Operand != nil {
				walkOutsideUntil(n.Operand.Fragments, visit)
			}
		}
	}
}

// untilSync defines the body process of every until fragment and the
// auxiliary process running them. Each body runs between the enter and leave
// phases of its fragment, while every lifeline waits for leave. Every until
// fragment has its own server; the servers only agree on termination, so
// bodies entered from different par operands run interleaved.
func (x *interactionLowering) untilSync() ([]csp.Decl, error) {
	names := x.names
	var bodies, servers []csp.Decl
	ctx := LinearisedContext(x.memory.UntilSlot())
	for k, f := range x.untils {
		body, err := x.sequence(f.Operand.Fragments, ctx)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, csp.Def{Name: names.UntilBody(k), Body: body})
		race, err := x.untilWrapper(f, csp.Ref{Name: names.UntilBody(k)})
		if err != nil {
			return nil, err
		}
		idx := strconv.Itoa(k)
		self := csp.Call(names.UntilServer(), csp.Raw(idx))
		leave := csp.Prefix{Event: x.control(names.Until(), k, csp.Leave), Then: self}
		serve := csp.Prefix{Event: x.control(names.Until(), k, csp.Enter), Then: csp.Seq(race, leave)}
		servers = append(servers, csp.Def{
			Name:   names.UntilServer(),
			Params: []string{idx},
			Body:   csp.Combine(csp.OpExtChoice, serve, x.terminate()),
		})
	}
	decls := append(bodies, servers...)
	return append(decls, x.servers(names.UntilSync(), names.UntilServer(), len(x.untils))), nil
}

// parSync joins the lifelines at the start and end of every par fragment.
// Each par fragment has its own joiner so that nested par fragments can be
// entered while an enclosing one is still open.
func (x *interactionLowering) parSync() []csp.Decl {
	names := x.names
	phase := func(p string) csp.Event {
		return csp.Event{Channel: names.Par(), Fields: []csp.Field{
			{Kind: csp.FieldDot, Text: "k"},
			{Kind: csp.FieldDot, Text: p},
		}}
	}
	join := csp.Then(csp.Call(names.ParServer(), csp.Raw("k")), phase(csp.Enter), phase(csp.Leave))
	return []csp.Decl{
		csp.Def{Name: names.ParServer(), Params: []string{"k"}, Body: csp.Combine(csp.OpExtChoice, join, x.terminate())},
		x.servers(names.ParSync(), names.ParServer(), len(x.pars)),
	}
}

// servers defines name as the n instances of server in parallel, agreeing
// only on termination.
func (x *interactionLowering) servers(name, server string, n int) csp.Decl {
	return csp.Def{Name: name, Body: csp.ReplGenPar{
		Sync:   x.productions(x.names.Term()),
		Var:    "k",
		Domain: csp.Raw("{0.." + strconv.Itoa(n-1) + "}"),
		Body:   csp.Call(server, csp.Raw("k")),
	}}
}
