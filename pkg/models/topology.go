package models

import "sort"

// ComponentKind distinguishes collection nodes (which own other nodes) from leaf nodes.
type ComponentKind string

const (
	ComponentModule     ComponentKind = "module"
	ComponentController ComponentKind = "controller"
	ComponentMachine    ComponentKind = "machine"
	ComponentPlatform   ComponentKind = "platform"
)

// IsCollection reports whether components of this kind own children whose
// connections form an inner topology.
func (k ComponentKind) IsCollection() bool {
	return k == ComponentModule
}

// Event is a typed wire declared by a component.
type Event struct {
	Name string
	// Type is a CSPM type expression; empty for untyped events.
	Type string
}

// Param is a typed operation parameter.
type Param struct {
	Name string
	Type string
}

// Operation is a callable declared (required or provided) by a component.
type Operation struct {
	Name   string
	Params []Param
}

// Component is a node of the static topology.
type Component struct {
	Name       string
	Kind       ComponentKind
	Process    string // CSPM process implementing the component; defaults to Name
	Events     []Event
	Operations []Operation
	Children   []string
}

// Event returns the declared event with the given name.
func (c *Component) Event(name string) (Event, bool) {
	for _, e := range c.Events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}

// Operation returns the declared operation with the given name.
func (c *Component) Operation(name string) (Operation, bool) {
	for _, op := range c.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// ProcessName returns the process that implements the component.
func (c *Component) ProcessName() string {
	if c.Process != "" {
		return c.Process
	}
	return c.Name
}

// Connection links an event of one node to an event of another.
type Connection struct {
	Name          string
	From          string
	FromEvent     string
	To            string
	ToEvent       string
	Bidirectional bool
	Async         bool
}

// Topology is the read-only component/connection graph interactions are resolved against.
type Topology struct {
	Components  map[string]*Component
	Connections []*Connection
}

// NewTopology creates an empty topology.
func NewTopology() *Topology {
	return &Topology{Components: make(map[string]*Component)}
}

// Component returns a node by name.
func (t *Topology) Component(name string) (*Component, bool) {
	c, ok := t.Components[name]
	return c, ok
}

// ComponentsOf returns name and every node transitively owned by it.
func (t *Topology) ComponentsOf(name string) NodeSet {
	out := make(NodeSet)
	var walk func(string)
	walk = func(n string) {
		if out[n] {
			return
		}
		out[n] = true
		if c, ok := t.Components[n]; ok {
			for _, child := range c.Children {
				walk(child)
			}
		}
	}
	walk(name)
	return out
}

// ConnectionsBetween returns, in declaration order, the connections carrying
// wire from a node of from to a node of to. Bidirectional connections match in
// either orientation.
func (t *Topology) ConnectionsBetween(wire string, from, to NodeSet) []*Connection {
	var out []*Connection
	for _, c := range t.Connections {
		forward := from[c.From] && to[c.To] && (c.FromEvent == wire || c.ToEvent == wire)
		backward := c.Bidirectional && from[c.To] && to[c.From] && (c.FromEvent == wire || c.ToEvent == wire)
		if forward || backward {
			out = append(out, c)
		}
	}
	return out
}

// NodeSet is a set of component names.
type NodeSet map[string]bool

// Sorted returns the members in lexical order.
func (s NodeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Without returns a copy of s that excludes name.
func (s NodeSet) Without(name string) NodeSet {
	out := make(NodeSet, len(s))
	for n := range s {
		if n != name {
			out[n] = true
		}
	}
	return out
}
