package config

import (
	"fmt"

	"github.com/GoSim-25-26J-441/seqcsp/pkg/expr"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// Build converts a validated document into the domain model. Every
// expression is parsed; actor, set and interaction references are resolved
// within their group.
func Build(doc *Document) (*models.Specification, error) {
	spec := &models.Specification{Name: doc.Name, Topology: models.NewTopology()}

	for _, c := range doc.Components {
		comp := &models.Component{
			Name:     c.Name,
			Kind:     models.ComponentKind(c.Kind),
			Process:  c.Process,
			Children: append([]string(nil), c.Children...),
		}
		for _, e := range c.Events {
			comp.Events = append(comp.Events, models.Event{Name: e.Name, Type: e.Type})
		}
		for _, op := range c.Operations {
			o := models.Operation{Name: op.Name}
			for _, p := range op.Params {
				o.Params = append(o.Params, models.Param{Name: p.Name, Type: p.Type})
			}
			comp.Operations = append(comp.Operations, o)
		}
		spec.Topology.Components[c.Name] = comp
	}
	for _, c := range doc.Connections {
		spec.Topology.Connections = append(spec.Topology.Connections, &models.Connection{
			Name:          c.Name,
			From:          c.From,
			FromEvent:     c.FromEvent,
			To:            c.To,
			ToEvent:       c.ToEvent,
			Bidirectional: c.Bidirectional,
			Async:         c.Async,
		})
	}

	for i := range doc.Groups {
		g, err := buildGroup(spec.Topology, &doc.Groups[i])
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", doc.Groups[i].Name, err)
		}
		spec.Groups = append(spec.Groups, g)
	}
	return spec, nil
}

// builder resolves names within one group.
type builder struct {
	group *models.Group
}

func buildGroup(topo *models.Topology, gd *GroupDoc) (*models.Group, error) {
	target, ok := topo.Component(gd.Target)
	if !ok {
		return nil, fmt.Errorf("target component %s does not exist", gd.Target)
	}
	g := &models.Group{Name: gd.Name, Target: target, ExternalChannels: gd.ExternalChannels}
	for _, a := range gd.Actors {
		g.Actors = append(g.Actors, &models.Actor{Name: a.Name, Kind: models.ActorKind(a.Kind), Node: a.Node})
	}
	b := &builder{group: g}

	for _, s := range gd.MessageSets {
		set, err := b.set(&s.Set)
		if err != nil {
			return nil, fmt.Errorf("message set %s: %w", s.Name, err)
		}
		g.MessageSets = append(g.MessageSets, &models.NamedSet{Name: s.Name, Set: set})
	}

	for _, id := range gd.Interactions {
		i, err := b.interaction(&id)
		if err != nil {
			return nil, fmt.Errorf("interaction %s: %w", id.Name, err)
		}
		g.Interactions = append(g.Interactions, i)
	}

	for _, p := range gd.Properties {
		i, ok := g.Interaction(p.Interaction)
		if !ok {
			return nil, fmt.Errorf("property %s: interaction %s does not exist", p.Name, p.Interaction)
		}
		g.Properties = append(g.Properties, &models.Property{
			Name:        p.Name,
			Kind:        models.PropertyKind(p.Kind),
			Negated:     p.Negated,
			Interaction: i,
			Model:       models.SemanticModel(p.Model),
		})
	}
	return g, nil
}

func (b *builder) actor(name string) (*models.Actor, error) {
	a, ok := b.group.Actor(name)
	if !ok {
		return nil, fmt.Errorf("unknown actor %s", name)
	}
	return a, nil
}

func (b *builder) interaction(id *InteractionDoc) (*models.Interaction, error) {
	i := &models.Interaction{Name: id.Name}
	for _, name := range id.Lifelines {
		a, err := b.actor(name)
		if err != nil {
			return nil, err
		}
		i.Lifelines = append(i.Lifelines, a)
	}
	for _, v := range id.Variables {
		if v.Name == "" {
			return nil, fmt.Errorf("variable name cannot be empty")
		}
		if _, dup := i.Variable(v.Name); dup {
			return nil, fmt.Errorf("duplicate variable %s", v.Name)
		}
		variable := &models.Variable{Name: v.Name, Type: v.Type}
		if v.Initial != "" {
			e, err := expr.Parse(v.Initial)
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", v.Name, err)
			}
			variable.Initial = e
		}
		i.Variables = append(i.Variables, variable)
	}
	fs, err := b.fragments(id.Fragments)
	if err != nil {
		return nil, err
	}
	i.Fragments = fs
	return i, nil
}

func (b *builder) fragments(docs []FragmentDoc) ([]models.Fragment, error) {
	out := make([]models.Fragment, 0, len(docs))
	for k := range docs {
		f, err := b.fragment(&docs[k])
		if err != nil {
			return nil, fmt.Errorf("fragment %d: %w", k, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func (b *builder) fragment(fd *FragmentDoc) (models.Fragment, error) {
	switch fd.Kind {
	case "message":
		m, err := b.message(&fd.MessageDoc)
		if err != nil {
			return nil, err
		}
		return &models.OccurrenceFragment{Occurrence: &models.MessageOccurrence{Message: m}}, nil
	case "wait":
		d, err := parse("duration", fd.Duration)
		if err != nil {
			return nil, err
		}
		return &models.OccurrenceFragment{Occurrence: &models.WaitOccurrence{Duration: d}}, nil
	case "deadlock":
		return &models.OccurrenceFragment{Occurrence: &models.DeadlockOccurrence{}}, nil
	case "alt", "xalt", "par":
		br := &models.BranchFragment{Op: models.BranchOp(fd.Kind)}
		for _, od := range fd.Operands {
			o, err := b.operand(od.Guard, od.Else, od.Fragments)
			if err != nil {
				return nil, err
			}
			br.Operands = append(br.Operands, o)
		}
		return br, nil
	case "loop", "opt", "deadline", "until":
		return b.block(fd)
	}
	return nil, fmt.Errorf("unknown fragment kind %q", fd.Kind)
}

func (b *builder) block(fd *FragmentDoc) (*models.BlockFragment, error) {
	o, err := b.operand(fd.Guard, fd.Else, fd.Fragments)
	if err != nil {
		return nil, err
	}
	blk := &models.BlockFragment{Op: models.BlockOp(fd.Kind), Operand: o}
	switch blk.Op {
	case models.BlockLoop:
		if fd.Min == "" && fd.Max == "" {
			break
		}
		bound := &models.LoopBound{Min: &expr.IntLit{Value: 0}}
		if fd.Min != "" {
			if bound.Min, err = parse("min", fd.Min); err != nil {
				return nil, err
			}
		}
		if fd.Max != "" {
			if bound.Max, err = parse("max", fd.Max); err != nil {
				return nil, err
			}
		}
		blk.Bound = bound
	case models.BlockDeadline:
		if blk.Duration, err = parse("duration", fd.Duration); err != nil {
			return nil, err
		}
	case models.BlockUntil:
		if fd.Intra != nil {
			if blk.Intra, err = b.set(fd.Intra); err != nil {
				return nil, fmt.Errorf("intra: %w", err)
			}
		}
	}
	return blk, nil
}

func (b *builder) operand(guard string, isElse bool, docs []FragmentDoc) (*models.Operand, error) {
	o := &models.Operand{}
	switch {
	case isElse:
		o.Guard = models.Guard{Kind: models.GuardElse}
	case guard != "":
		e, err := parse("guard", guard)
		if err != nil {
			return nil, err
		}
		o.Guard = models.Guard{Kind: models.GuardExpr, Expr: e}
	}
	fs, err := b.fragments(docs)
	if err != nil {
		return nil, err
	}
	o.Fragments = fs
	return o, nil
}

func (b *builder) message(md *MessageDoc) (*models.Message, error) {
	from, err := b.actor(md.From)
	if err != nil {
		return nil, err
	}
	to, err := b.actor(md.To)
	if err != nil {
		return nil, err
	}
	m := &models.Message{From: from, To: to}
	switch {
	case md.Event != "" && md.Operation == "":
		m.Topic = models.Topic{Kind: models.TopicEvent, Name: md.Event}
	case md.Operation != "" && md.Event == "":
		m.Topic = models.Topic{Kind: models.TopicOperation, Name: md.Operation}
	default:
		return nil, fmt.Errorf("message %s -> %s needs exactly one of event and operation", md.From, md.To)
	}
	for k, a := range md.Args {
		arg, err := buildArg(a)
		if err != nil {
			return nil, fmt.Errorf("message %s argument %d: %w", m.Topic.Name, k, err)
		}
		m.Args = append(m.Args, arg)
	}
	return m, nil
}

func buildArg(a ArgDoc) (models.Arg, error) {
	set := 0
	for _, present := range []bool{a.Value != "", a.Wildcard, a.Bind != ""} {
		if present {
			set++
		}
	}
	if set != 1 {
		return models.Arg{}, fmt.Errorf("exactly one of value, wildcard and bind is required")
	}
	switch {
	case a.Wildcard:
		return models.Arg{Kind: models.ArgWildcard}, nil
	case a.Bind != "":
		return models.Arg{Kind: models.ArgBind, Var: a.Bind}, nil
	}
	e, err := parse("value", a.Value)
	if err != nil {
		return models.Arg{}, err
	}
	return models.Arg{Kind: models.ArgValue, Expr: e}, nil
}

func (b *builder) set(sd *SetDoc) (models.MessageSet, error) {
	switch sd.Kind {
	case "universal":
		return models.Universal{}, nil
	case "extensional":
		e := models.Empty()
		for _, md := range sd.Messages {
			m, err := b.message(&md)
			if err != nil {
				return nil, err
			}
			e.Messages = append(e.Messages, m)
		}
		return e, nil
	case "reference":
		if sd.Name == "" {
			return nil, fmt.Errorf("reference needs a name")
		}
		return models.Reference{Name: sd.Name}, nil
	case "union", "inter", "diff":
		if sd.LHS == nil || sd.RHS == nil {
			return nil, fmt.Errorf("%s needs lhs and rhs", sd.Kind)
		}
		lhs, err := b.set(sd.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := b.set(sd.RHS)
		if err != nil {
			return nil, err
		}
		return &models.Binary{Op: models.SetOp(sd.Kind), LHS: lhs, RHS: rhs}, nil
	}
	return nil, fmt.Errorf("unknown message set kind %q", sd.Kind)
}

func parse(what, src string) (expr.Expr, error) {
	if src == "" {
		return nil, fmt.Errorf("%s is required", what)
	}
	e, err := expr.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", what, src, err)
	}
	return e, nil
}
