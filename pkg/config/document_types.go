package config

// Document represents a model file: the topology and every group stated over it
type Document struct {
	FormatVersion string          `yaml:"format_version"`
	Name          string          `yaml:"name"`
	Components    []ComponentDoc  `yaml:"components"`
	Connections   []ConnectionDoc `yaml:"connections"`
	Groups        []GroupDoc      `yaml:"groups"`
}

// ComponentDoc represents a topology node
type ComponentDoc struct {
	Name       string         `yaml:"name"`
	Kind       string         `yaml:"kind"`              // module, controller, machine, platform
	Process    string         `yaml:"process,omitempty"` // defaults to name
	Events     []EventDoc     `yaml:"events,omitempty"`
	Operations []OperationDoc `yaml:"operations,omitempty"`
	Children   []string       `yaml:"children,omitempty"`
}

// EventDoc represents a typed event of a component
type EventDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// OperationDoc represents an operation of a component
type OperationDoc struct {
	Name   string     `yaml:"name"`
	Params []EventDoc `yaml:"params,omitempty"`
}

// ConnectionDoc represents a connection between two component events
type ConnectionDoc struct {
	Name          string `yaml:"name"`
	From          string `yaml:"from"`
	FromEvent     string `yaml:"from_event"`
	To            string `yaml:"to"`
	ToEvent       string `yaml:"to_event"`
	Bidirectional bool   `yaml:"bidirectional,omitempty"`
	Async         bool   `yaml:"async,omitempty"`
}

// GroupDoc represents a specification group
type GroupDoc struct {
	Name             string           `yaml:"name"`
	Target           string           `yaml:"target"`
	ExternalChannels bool             `yaml:"external_channels,omitempty"`
	Actors           []ActorDoc       `yaml:"actors"`
	MessageSets      []NamedSetDoc    `yaml:"message_sets,omitempty"`
	Interactions     []InteractionDoc `yaml:"interactions"`
	Properties       []PropertyDoc    `yaml:"properties,omitempty"`
}

// ActorDoc represents an actor of a group
type ActorDoc struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`           // target, component, world
	Node string `yaml:"node,omitempty"` // component actors only
}

// NamedSetDoc represents a group-level message set
type NamedSetDoc struct {
	Name string `yaml:"name"`
	Set  SetDoc `yaml:"set"`
}

// SetDoc represents a message set expression
type SetDoc struct {
	Kind     string       `yaml:"kind"` // universal, extensional, reference, union, inter, diff
	Messages []MessageDoc `yaml:"messages,omitempty"`
	Name     string       `yaml:"name,omitempty"`
	LHS      *SetDoc      `yaml:"lhs,omitempty"`
	RHS      *SetDoc      `yaml:"rhs,omitempty"`
}

// InteractionDoc represents an interaction
type InteractionDoc struct {
	Name      string        `yaml:"name"`
	Lifelines []string      `yaml:"lifelines"`
	Variables []VariableDoc `yaml:"variables,omitempty"`
	Fragments []FragmentDoc `yaml:"fragments"`
}

// VariableDoc represents an interaction variable
type VariableDoc struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type,omitempty"`
	Initial string `yaml:"initial,omitempty"`
}

// MessageDoc represents a message between two actors. Exactly one of Event
// and Operation names the topic.
type MessageDoc struct {
	From      string   `yaml:"from"`
	To        string   `yaml:"to"`
	Event     string   `yaml:"event,omitempty"`
	Operation string   `yaml:"operation,omitempty"`
	Args      []ArgDoc `yaml:"args,omitempty"`
}

// ArgDoc represents a message argument: a value expression, a wildcard, or
// a wildcard binding a variable.
type ArgDoc struct {
	Value    string `yaml:"value,omitempty"`
	Wildcard bool   `yaml:"wildcard,omitempty"`
	Bind     string `yaml:"bind,omitempty"`
}

// FragmentDoc represents an interaction fragment, discriminated by Kind
type FragmentDoc struct {
	// message, wait, deadlock, alt, xalt, par, loop, opt, deadline, until
	Kind string `yaml:"kind"`

	// message
	MessageDoc `yaml:",inline"`

	// wait, deadline
	Duration string `yaml:"duration,omitempty"`

	// alt, xalt, par
	Operands []OperandDoc `yaml:"operands,omitempty"`

	// loop
	Min string `yaml:"min,omitempty"`
	Max string `yaml:"max,omitempty"`

	// until
	Intra *SetDoc `yaml:"intra,omitempty"`

	// loop, opt, deadline, until
	Guard     string        `yaml:"guard,omitempty"`
	Else      bool          `yaml:"else,omitempty"`
	Fragments []FragmentDoc `yaml:"fragments,omitempty"`
}

// OperandDoc represents an optionally guarded operand of a branch
type OperandDoc struct {
	Guard     string        `yaml:"guard,omitempty"`
	Else      bool          `yaml:"else,omitempty"`
	Fragments []FragmentDoc `yaml:"fragments"`
}

// PropertyDoc represents a refinement property
type PropertyDoc struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"` // holds, observed
	Negated     bool   `yaml:"negated,omitempty"`
	Interaction string `yaml:"interaction"`
	Model       string `yaml:"model,omitempty"`
}
