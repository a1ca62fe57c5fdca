package topology

import (
	"fmt"

	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// Graph is the view of a topology from one group target: the nodes owned by
// the target and the connections lying inside it or leaving it.
type Graph struct {
	topology *models.Topology
	target   *models.Component
	inner    models.NodeSet // nodes strictly inside the target
	internal []*models.Connection
	outbound []*models.Connection
}

// NewGraph creates the target's view of a topology.
func NewGraph(topology *models.Topology, target *models.Component) (*Graph, error) {
	if target == nil {
		return nil, fmt.Errorf("group target is required")
	}
	if _, ok := topology.Component(target.Name); !ok {
		return nil, fmt.Errorf("target %q is not part of the topology", target.Name)
	}

	// Validate ownership is acyclic before walking it
	if err := validateOwnership(topology); err != nil {
		return nil, fmt.Errorf("component ownership contains cycles: %w", err)
	}

	g := &Graph{
		topology: topology,
		target:   target,
		inner:    topology.ComponentsOf(target.Name).Without(target.Name),
	}

	for _, c := range topology.Connections {
		if err := g.checkConnection(c); err != nil {
			return nil, fmt.Errorf("invalid connection %q: %w", c.Name, err)
		}
		switch {
		case g.inner[c.From] && g.inner[c.To]:
			g.internal = append(g.internal, c)
		case g.inner[c.From] && c.To == target.Name, c.From == target.Name && g.inner[c.To]:
			g.outbound = append(g.outbound, c)
		}
	}

	return g, nil
}

// checkConnection validates that both ends of a connection exist
func (g *Graph) checkConnection(c *models.Connection) error {
	for _, end := range []string{c.From, c.To} {
		if _, exists := g.topology.Component(end); !exists {
			return fmt.Errorf("component %q does not exist", end)
		}
	}
	if c.FromEvent == "" || c.ToEvent == "" {
		return fmt.Errorf("both connection ends must name an event")
	}
	return nil
}

// validateOwnership checks that the children relation is acyclic
func validateOwnership(t *models.Topology) error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, name := range models.NodeSet(keys(t.Components)).Sorted() {
		if !visited[name] {
			if err := dfs(t, name, visited, recStack); err != nil {
				return err
			}
		}
	}
	return nil
}

// dfs performs depth-first search to detect cycles
func dfs(t *models.Topology, name string, visited, recStack map[string]bool) error {
	visited[name] = true
	recStack[name] = true

	if c, ok := t.Components[name]; ok {
		for _, child := range c.Children {
			if !visited[child] {
				if err := dfs(t, child, visited, recStack); err != nil {
					return err
				}
			} else if recStack[child] {
				return fmt.Errorf("cycle detected: %s -> %s", name, child)
			}
		}
	}

	recStack[name] = false
	return nil
}

func keys(m map[string]*models.Component) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

// Target returns the component the graph is rooted at
func (g *Graph) Target() *models.Component {
	return g.target
}

// Component returns a node by name
func (g *Graph) Component(name string) (*models.Component, bool) {
	return g.topology.Component(name)
}

// InnerConnections returns the connections with both ends strictly inside the target
func (g *Graph) InnerConnections() []*models.Connection {
	return g.internal
}

// OutboundConnections returns the connections between an inner node and the target boundary
func (g *Graph) OutboundConnections() []*models.Connection {
	return g.outbound
}

// nodesOf returns the node set an actor stands for
func (g *Graph) nodesOf(a *models.Actor) models.NodeSet {
	switch a.Kind {
	case models.ActorComponent:
		return g.topology.ComponentsOf(a.Node)
	case models.ActorTarget:
		return models.NodeSet{g.target.Name: true}
	}
	return models.NodeSet{}
}

// EventType returns the declared type of an event of a node, if any.
func (g *Graph) EventType(node, event string) (string, bool) {
	c, ok := g.topology.Component(node)
	if !ok {
		return "", false
	}
	e, ok := c.Event(event)
	if !ok {
		return "", false
	}
	return e.Type, true
}

// Operation returns the declared operation of a node.
func (g *Graph) Operation(node, name string) (models.Operation, bool) {
	c, ok := g.topology.Component(node)
	if !ok {
		return models.Operation{}, false
	}
	return c.Operation(name)
}
