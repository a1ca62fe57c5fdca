package models

import (
	"reflect"

	"github.com/GoSim-25-26J-441/seqcsp/pkg/expr"
)

// ActorKind is the closed set of actor variants.
type ActorKind string

const (
	ActorTarget    ActorKind = "target"
	ActorComponent ActorKind = "component"
	ActorWorld     ActorKind = "world"
)

// Actor is a participant of a group's interactions.
type Actor struct {
	Name string
	Kind ActorKind
	// Node is the topology node a component actor stands for.
	Node string
}

// Variable is declared in an interaction's binding scope.
type Variable struct {
	Name    string
	Type    string
	Initial expr.Expr
}

// Interaction is a sequence-diagram-like specification of message exchanges.
type Interaction struct {
	Name      string
	Lifelines []*Actor
	Fragments []Fragment
	Variables []*Variable
}

// Variable returns the declared variable with the given name.
func (i *Interaction) Variable(name string) (*Variable, bool) {
	for _, v := range i.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// LifelineIndex returns the position of actor among the lifelines, or -1.
func (i *Interaction) LifelineIndex(actor *Actor) int {
	for idx, a := range i.Lifelines {
		if a == actor {
			return idx
		}
	}
	return -1
}

// Fragment is the closed variant of interaction fragments. The only
// implementations are *OccurrenceFragment, *BranchFragment and *BlockFragment.
type Fragment interface {
	fragment()
}

// OccurrenceFragment wraps a single occurrence.
type OccurrenceFragment struct {
	Occurrence Occurrence
}

// BranchOp selects how the operands of a BranchFragment combine.
type BranchOp string

const (
	BranchAlt  BranchOp = "alt"
	BranchXAlt BranchOp = "xalt"
	BranchPar  BranchOp = "par"
)

// BranchFragment holds one or more alternative or parallel operands.
type BranchFragment struct {
	Op       BranchOp
	Operands []*Operand
}

// BlockOp selects the wrapper applied to the single operand of a BlockFragment.
type BlockOp string

const (
	BlockLoop     BlockOp = "loop"
	BlockOpt      BlockOp = "opt"
	BlockDeadline BlockOp = "deadline"
	BlockUntil    BlockOp = "until"
)

// LoopBound is the discrete bound of a loop. A nil *LoopBound means unbounded.
type LoopBound struct {
	Min expr.Expr
	Max expr.Expr
}

// BlockFragment wraps exactly one operand.
type BlockFragment struct {
	Op      BlockOp
	Operand *Operand
	// Bound is set for bounded loops.
	Bound *LoopBound
	// Duration is set for deadlines.
	Duration expr.Expr
	// Intra is the message set an until fragment races against.
	Intra MessageSet
}

// ReplaceIntra substitutes the until message set in place. It is the only
// mutation lowering performs on the interaction tree.
func (b *BlockFragment) ReplaceIntra(set MessageSet) {
	b.Intra = set
}

func (*OccurrenceFragment) fragment() {}
func (*BranchFragment) fragment()     {}
func (*BlockFragment) fragment()      {}

// GuardKind is the closed set of operand guard variants.
type GuardKind string

const (
	GuardNone GuardKind = ""
	GuardExpr GuardKind = "expr"
	GuardElse GuardKind = "else"
)

// Guard conditions an operand.
type Guard struct {
	Kind GuardKind
	Expr expr.Expr
}

// Operand is an optionally guarded list of fragments.
type Operand struct {
	Guard     Guard
	Fragments []Fragment
}

// Occurrence is the closed variant of atomic events: *MessageOccurrence,
// *WaitOccurrence and *DeadlockOccurrence.
type Occurrence interface {
	occurrence()
}

// MessageOccurrence sends a message between two actors.
type MessageOccurrence struct {
	Message *Message
}

// WaitOccurrence lets time pass.
type WaitOccurrence struct {
	Duration expr.Expr
}

// DeadlockOccurrence stops progress.
type DeadlockOccurrence struct{}

func (*MessageOccurrence) occurrence()  {}
func (*WaitOccurrence) occurrence()     {}
func (*DeadlockOccurrence) occurrence() {}

// TopicKind is the closed set of message topics.
type TopicKind string

const (
	TopicEvent     TopicKind = "event"
	TopicOperation TopicKind = "operation"
)

// Topic names the event or operation a message carries.
type Topic struct {
	Kind TopicKind
	Name string
}

// ArgKind is the closed set of argument variants.
type ArgKind string

const (
	ArgValue    ArgKind = "value"
	ArgWildcard ArgKind = "wildcard"
	ArgBind     ArgKind = "bind"
)

// Arg is a message argument: a concrete value, an anonymous wildcard or a
// wildcard that binds the received value to Var.
type Arg struct {
	Kind ArgKind
	Expr expr.Expr
	Var  string
}

// Message is a topic exchanged from one actor to another.
type Message struct {
	From  *Actor
	To    *Actor
	Topic Topic
	Args  []Arg
}

// Involves reports whether actor sends or receives m.
func (m *Message) Involves(actor *Actor) bool {
	return m.From == actor || m.To == actor
}

// Binds returns the variables bound by m's wildcard arguments, in argument order.
func (m *Message) Binds() []string {
	var out []string
	for _, a := range m.Args {
		if a.Kind == ArgBind {
			out = append(out, a.Var)
		}
	}
	return out
}

// MessagesEqual compares two messages structurally. Actors compare by name and
// kind so that copies of the same model compare equal.
func MessagesEqual(a, b *Message) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if !actorsEqual(a.From, b.From) || !actorsEqual(a.To, b.To) || a.Topic != b.Topic {
		return false
	}
	if len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !reflect.DeepEqual(a.Args[i], b.Args[i]) {
			return false
		}
	}
	return true
}

func actorsEqual(a, b *Actor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
