package topology

import (
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// Direction is the orientation of a channel event relative to the node that
// provides its namespace.
type Direction string

const (
	DirIn  Direction = "in"
	DirOut Direction = "out"
	// DirNone is used by operation calls, which carry no direction.
	DirNone Direction = ""
)

// Endpoint is the concrete wire a message is lowered onto: the event (or
// operation) Wire of Node, seen in direction Dir.
type Endpoint struct {
	Node string
	Wire string
	Dir  Direction
	Kind models.TopicKind
}

// Candidate is a connection that may carry a message. Reversed is set when a
// bidirectional connection matched against its declared orientation.
type Candidate struct {
	Connection *models.Connection
	Reversed   bool
}

// Resolution is the outcome of resolving one message. The resolver never
// fails on ambiguity: it reports what it found and callers decide.
type Resolution struct {
	Candidates []Candidate
	// Outbound is set when the message crosses the target boundary.
	Outbound bool
	// NeedsConnection is set when exactly one candidate is required to lower
	// the message (event messages between two component actors).
	NeedsConnection bool
	// Endpoint is the wire the message lowers to. It is only meaningful when
	// Resolved reports true.
	Endpoint Endpoint
}

// Resolved reports whether the resolution identifies a single wire.
func (r Resolution) Resolved() bool {
	return !r.NeedsConnection || len(r.Candidates) == 1
}

// Resolver answers topology queries for the messages of one group.
type Resolver struct {
	graph *Graph
}

// NewResolver creates a resolver over the given graph
func NewResolver(g *Graph) *Resolver {
	return &Resolver{graph: g}
}

// Graph returns the graph the resolver walks
func (r *Resolver) Graph() *Graph {
	return r.graph
}

// Resolve finds the connections that can carry topic from one actor to another
// and the wire the message is lowered onto.
func (r *Resolver) Resolve(topic models.Topic, from, to *models.Actor) Resolution {
	target := r.graph.target.Name

	if topic.Kind == models.TopicOperation {
		return Resolution{
			Outbound: isSystem(from) || isSystem(to),
			Endpoint: Endpoint{Node: r.operationProvider(from, to), Wire: topic.Name, Dir: DirNone, Kind: topic.Kind},
		}
	}

	switch {
	case from.Kind == models.ActorWorld || to.Kind == models.ActorWorld:
		res := Resolution{Outbound: true}
		inside := to
		dir := DirIn
		if to.Kind == models.ActorWorld {
			inside, dir = from, DirOut
		}
		res.Endpoint = Endpoint{Node: target, Wire: topic.Name, Dir: dir, Kind: topic.Kind}
		if inside.Kind == models.ActorComponent {
			boundary, nodes := models.NodeSet{target: true}, r.graph.nodesOf(inside)
			if dir == DirIn {
				res.Candidates = r.candidates(topic.Name, boundary, nodes, r.graph.outbound)
			} else {
				res.Candidates = r.candidates(topic.Name, nodes, boundary, r.graph.outbound)
			}
			// The boundary end of the single outbound connection names the wire.
			if len(res.Candidates) == 1 {
				res.Endpoint.Wire = boundaryWire(res.Candidates[0].Connection, target)
			}
		}
		return res

	default:
		allowed := r.graph.internal
		if !r.graph.target.Kind.IsCollection() || from.Kind == models.ActorTarget || to.Kind == models.ActorTarget {
			allowed = append(append([]*models.Connection{}, r.graph.internal...), r.graph.outbound...)
		}
		res := Resolution{NeedsConnection: true}
		res.Candidates = r.candidates(topic.Name, r.graph.nodesOf(from), r.graph.nodesOf(to), allowed)
		if len(res.Candidates) == 1 {
			res.Endpoint = receivingEnd(res.Candidates[0], from, to, target)
			res.Endpoint.Kind = topic.Kind
		}
		return res
	}
}

// candidates intersects the topology's connections between two node sets with
// the connections allowed for the group.
func (r *Resolver) candidates(wire string, from, to models.NodeSet, allowed []*models.Connection) []Candidate {
	permitted := make(map[*models.Connection]bool, len(allowed))
	for _, c := range allowed {
		permitted[c] = true
	}

	var out []Candidate
	for _, c := range r.graph.topology.ConnectionsBetween(wire, from, to) {
		if !permitted[c] {
			continue
		}
		out = append(out, Candidate{
			Connection: c,
			Reversed:   !(from[c.From] && to[c.To]),
		})
	}
	return out
}

// receivingEnd picks the namespace and direction for a message between two
// non-gate actors. The receiving side provides the namespace, unless one side
// is the target, in which case the target does.
//
// Whether the receiving side is the right provider for asynchronous
// connections is still an open question; see TestResolveAsyncProvider.
func receivingEnd(c Candidate, from, to *models.Actor, target string) Endpoint {
	conn := c.Connection
	toNode, toWire := conn.To, conn.ToEvent
	fromNode, fromWire := conn.From, conn.FromEvent
	if c.Reversed {
		toNode, toWire, fromNode, fromWire = fromNode, fromWire, toNode, toWire
	}
	if from.Kind == models.ActorTarget {
		return Endpoint{Node: target, Wire: fromWire, Dir: DirOut}
	}
	if to.Kind == models.ActorTarget {
		return Endpoint{Node: target, Wire: toWire, Dir: DirIn}
	}
	return Endpoint{Node: toNode, Wire: toWire, Dir: DirIn}
}

// boundaryWire returns the event name at the target end of an outbound connection.
func boundaryWire(c *models.Connection, target string) string {
	if c.To == target {
		return c.ToEvent
	}
	return c.FromEvent
}

// operationProvider returns the node whose namespace holds an operation call.
func (r *Resolver) operationProvider(from, to *models.Actor) string {
	if isSystem(from) || isSystem(to) {
		return r.graph.target.Name
	}
	return to.Node
}

func isSystem(a *models.Actor) bool {
	return a.Kind == models.ActorWorld || a.Kind == models.ActorTarget
}
