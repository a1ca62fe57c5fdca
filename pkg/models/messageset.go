package models

// MessageSet is the closed variant of message set expressions: Universal,
// *Extensional, Reference and *Binary.
type MessageSet interface {
	messageSet()
}

// Universal denotes every message of the group.
type Universal struct{}

// Extensional enumerates messages. An empty list denotes the empty set.
type Extensional struct {
	Messages []*Message
}

// Reference names a set defined at group level.
type Reference struct {
	Name string
}

// SetOp is a binary set operator.
type SetOp string

const (
	SetUnion        SetOp = "union"
	SetIntersection SetOp = "inter"
	SetDifference   SetOp = "diff"
)

// Binary combines two sets.
type Binary struct {
	Op  SetOp
	LHS MessageSet
	RHS MessageSet
}

func (Universal) messageSet()    {}
func (*Extensional) messageSet() {}
func (Reference) messageSet()    {}
func (*Binary) messageSet()      {}

// Empty returns a fresh empty extensional set.
func Empty() *Extensional {
	return &Extensional{}
}

// IsEmpty reports whether s is an extensional set with no messages.
func IsEmpty(s MessageSet) bool {
	e, ok := s.(*Extensional)
	return ok && len(e.Messages) == 0
}

// IsUniversal reports whether s is the universal set.
func IsUniversal(s MessageSet) bool {
	_, ok := s.(Universal)
	return ok
}

// SetsEqual compares two sets structurally, using MessagesEqual for elements.
func SetsEqual(a, b MessageSet) bool {
	switch x := a.(type) {
	case Universal:
		_, ok := b.(Universal)
		return ok
	case Reference:
		y, ok := b.(Reference)
		return ok && x.Name == y.Name
	case *Extensional:
		y, ok := b.(*Extensional)
		if !ok || len(x.Messages) != len(y.Messages) {
			return false
		}
		for i := range x.Messages {
			if !MessagesEqual(x.Messages[i], y.Messages[i]) {
				return false
			}
		}
		return true
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && SetsEqual(x.LHS, y.LHS) && SetsEqual(x.RHS, y.RHS)
	}
	return false
}

// NamedSet is a message set declared at group level and referenced by name.
type NamedSet struct {
	Name string
	Set  MessageSet
}
