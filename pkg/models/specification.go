package models

// SemanticModel is the refinement model an assertion is checked under.
type SemanticModel string

const (
	ModelTraces              SemanticModel = "traces"
	ModelFailures            SemanticModel = "failures"
	ModelFailuresDivergences SemanticModel = "failures-divergences"
	ModelTimedTraces         SemanticModel = "timed-traces"
	ModelTimedFailures       SemanticModel = "timed-failures"
)

// IsTimed reports whether the model is checked with tock priority.
func (m SemanticModel) IsTimed() bool {
	return m == ModelTimedTraces || m == ModelTimedFailures
}

// PropertyKind is the closed set of property variants.
type PropertyKind string

const (
	// PropertyHolds asserts the target refines the interaction.
	PropertyHolds PropertyKind = "holds"
	// PropertyObserved asserts the interaction is a behaviour of the target.
	PropertyObserved PropertyKind = "observed"
)

// Property relates an interaction to its group's target under a semantic model.
type Property struct {
	Name        string
	Kind        PropertyKind
	Negated     bool
	Interaction *Interaction
	Model       SemanticModel
}

// Group is a specification group: one target, its actors and the interactions
// and properties stated over them.
type Group struct {
	Name         string
	Target       *Component
	Actors       []*Actor
	MessageSets  []*NamedSet
	Interactions []*Interaction
	Properties   []*Property
	// ExternalChannels is set when the target's own semantics declares the
	// channels messages lower onto, so the group module must not redeclare them.
	ExternalChannels bool
}

// Actor returns the actor with the given name.
func (g *Group) Actor(name string) (*Actor, bool) {
	for _, a := range g.Actors {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// TargetActor returns the group's unique target actor.
func (g *Group) TargetActor() *Actor {
	for _, a := range g.Actors {
		if a.Kind == ActorTarget {
			return a
		}
	}
	return nil
}

// Interaction returns the interaction with the given name.
func (g *Group) Interaction(name string) (*Interaction, bool) {
	for _, i := range g.Interactions {
		if i.Name == name {
			return i, true
		}
	}
	return nil, false
}

// NamedSet returns the group-level message set with the given name.
func (g *Group) NamedSet(name string) (*NamedSet, bool) {
	for _, s := range g.MessageSets {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Specification is a whole model: the topology plus every group over it.
type Specification struct {
	Name     string
	Topology *Topology
	Groups   []*Group
}
