// Package lowering translates interactions into CSPM processes.
//
// Each interaction is lowered once per visible lifeline into a sequential
// process, and the lifeline processes are then composed in parallel over
// their alphabets. Fragments whose meaning spans every lifeline, par and
// until, synchronise through control channels served by auxiliary processes.
// Lowering is a pure function of the group: a Lowerer may be shared by
// goroutines lowering different interactions.
package lowering

import (
	"fmt"

	"github.com/GoSim-25-26J-441/seqcsp/internal/csp"
	"github.com/GoSim-25-26J-441/seqcsp/internal/naming"
	"github.com/GoSim-25-26J-441/seqcsp/internal/topology"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// Options tune the generated text.
type Options struct {
	// Annotate emits a comment where an occurrence is skipped by a lifeline.
	Annotate bool
}

// Lowerer lowers the interactions of one group.
type Lowerer struct {
	group    *models.Group
	resolver *topology.Resolver
	names    *naming.Namer
	opts     Options
}

// New creates the lowerer of a group.
func New(group *models.Group, resolver *topology.Resolver, names *naming.Namer, opts Options) *Lowerer {
	return &Lowerer{group: group, resolver: resolver, names: names, opts: opts}
}

// NewForGroup builds the topology view of the group's target and a lowerer over it.
func NewForGroup(topo *models.Topology, group *models.Group, opts Options) (*Lowerer, error) {
	graph, err := topology.NewGraph(topo, group.Target)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", group.Name, err)
	}
	return New(group, topology.NewResolver(graph), naming.New(group.Name), opts), nil
}

// Names returns the group's namer.
func (l *Lowerer) Names() *naming.Namer {
	return l.names
}

func (l *Lowerer) graph() *topology.Graph {
	return l.resolver.Graph()
}

// Lowered is the output of one interaction.
type Lowered struct {
	Interaction *models.Interaction
	// Process is the qualified name of the interaction's process.
	Process string
	Decls   []csp.Decl
	// Channels are the message channels the declarations use.
	Channels []Channel
}

// Sets is the output of the group's named message sets.
type Sets struct {
	Decls    []csp.Decl
	Channels []Channel
}

// LowerSets lowers every named message set of the group.
func (l *Lowerer) LowerSets() (*Sets, error) {
	channels := make(channelSet)
	out := &Sets{}
	for _, ns := range l.group.MessageSets {
		set, err := l.lowerSet(ns.Set, noVariables, channels)
		if err != nil {
			return nil, fmt.Errorf("message set %s: %w", ns.Name, err)
		}
		out.Decls = append(out.Decls, csp.Def{Name: l.names.Set(ns.Name), Body: set})
	}
	out.Channels = channels.sorted()
	return out, nil
}

// lowerSet translates a message set expression. Universal denotes every
// message channel of the group.
func (l *Lowerer) lowerSet(s models.MessageSet, isVar func(string) bool, channels channelSet) (csp.Set, error) {
	switch n := s.(type) {
	case nil:
		return csp.EmptySet(), nil
	case models.Universal:
		return csp.Named{Name: l.names.Messages()}, nil
	case models.Reference:
		if _, ok := l.group.NamedSet(n.Name); !ok {
			return nil, unsupported("reference to undeclared message set %s", n.Name)
		}
		return csp.Named{Name: l.names.Set(n.Name)}, nil
	case *models.Extensional:
		sets := make([]csp.Set, 0, len(n.Messages))
		for _, m := range n.Messages {
			e, err := l.resolve(m)
			if err != nil {
				return nil, err
			}
			channels.add(l.channel(e))
			set, err := l.eventSet(m, e, isVar)
			if err != nil {
				return nil, err
			}
			sets = append(sets, set)
		}
		return csp.Union(sets...), nil
	case *models.Binary:
		lhs, err := l.lowerSet(n.LHS, isVar, channels)
		if err != nil {
			return nil, err
		}
		rhs, err := l.lowerSet(n.RHS, isVar, channels)
		if err != nil {
			return nil, err
		}
		var op csp.SetOp
		switch n.Op {
		case models.SetUnion:
			op = csp.SetUnion
		case models.SetIntersection:
			op = csp.SetInter
		case models.SetDifference:
			op = csp.SetDiff
		default:
			return nil, unsupported("set operator %q", n.Op)
		}
		return csp.SetBinary{Op: op, LHS: lhs, RHS: rhs}, nil
	}
	return nil, unsupported("message set %T", s)
}

// Module assembles the group module from its lowered sets and interactions.
// Interactions are emitted in the order given.
func (l *Lowerer) Module(sets *Sets, interactions []*Lowered) csp.Module {
	channels := make(channelSet)
	if sets != nil {
		channels.merge(sets.Channels)
	}
	for _, li := range interactions {
		channels.merge(li.Channels)
	}
	used := channels.sorted()

	decls := []csp.Decl{
		csp.Def{Name: l.names.Target(), Body: csp.Ref{Name: l.group.Target.ProcessName()}},
	}
	if !l.group.ExternalChannels {
		for _, c := range used {
			decls = append(decls, csp.ChannelDecl{Names: []string{c.Name}, Type: c.Type})
		}
	}
	prefixes := make([]csp.Term, len(used))
	for k, c := range used {
		prefixes[k] = csp.Raw(c.Name)
	}
	decls = append(decls, csp.Def{Name: l.names.Messages(), Body: csp.Productions{Prefixes: prefixes}})
	if sets != nil {
		decls = append(decls, sets.Decls...)
	}
	for _, li := range interactions {
		decls = append(decls, csp.Blank{}, csp.LineComment{Text: "interaction " + li.Interaction.Name})
		decls = append(decls, li.Decls...)
	}
	return csp.Module{Name: l.names.Group(), Decls: decls}
}
