// Package msgset simplifies message set expressions.
//
// Optimise recurses bottom-up and applies identities at the current node only,
// using the already-optimised children. It never tries to decide equivalence
// of two different extensional sets under intersection or difference, since
// that would need full enumeration of the message universe. Nodes to which no
// identity applies are returned as they are, so containment lookups that rely
// on structural equality keep working after substitution.
package msgset

import (
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// Optimise returns a set equivalent to s in simplified form. A nil set is
// the empty set. Operators it does not know are kept with optimised operands
// and left for the lowering to reject.
func Optimise(s models.MessageSet) models.MessageSet {
	if s == nil {
		return models.Empty()
	}
	b, ok := s.(*models.Binary)
	if !ok {
		return s
	}

	lhs := Optimise(b.LHS)
	rhs := Optimise(b.RHS)

	var out models.MessageSet
	switch b.Op {
	case models.SetUnion:
		out = union(lhs, rhs)
	case models.SetIntersection:
		out = intersection(lhs, rhs)
	case models.SetDifference:
		out = difference(lhs, rhs)
	default:
		out = &models.Binary{Op: b.Op, LHS: lhs, RHS: rhs}
	}

	// Keep the original node when nothing below or at it changed.
	if nb, ok := out.(*models.Binary); ok && nb.Op == b.Op && nb.LHS == b.LHS && nb.RHS == b.RHS {
		return b
	}
	return out
}

func union(lhs, rhs models.MessageSet) models.MessageSet {
	if models.IsUniversal(lhs) || models.IsUniversal(rhs) {
		return models.Universal{}
	}
	if models.IsEmpty(lhs) {
		return rhs
	}
	if models.IsEmpty(rhs) {
		return lhs
	}
	l, lok := lhs.(*models.Extensional)
	r, rok := rhs.(*models.Extensional)
	if lok && rok {
		return merge(l, r)
	}
	return &models.Binary{Op: models.SetUnion, LHS: lhs, RHS: rhs}
}

func intersection(lhs, rhs models.MessageSet) models.MessageSet {
	if models.IsUniversal(lhs) {
		return rhs
	}
	if models.IsUniversal(rhs) {
		return lhs
	}
	if models.IsEmpty(lhs) || models.IsEmpty(rhs) {
		return models.Empty()
	}
	return &models.Binary{Op: models.SetIntersection, LHS: lhs, RHS: rhs}
}

func difference(lhs, rhs models.MessageSet) models.MessageSet {
	// (A \ B) \ C == A \ (B u C)
	if inner, ok := lhs.(*models.Binary); ok && inner.Op == models.SetDifference {
		lhs = inner.LHS
		rhs = union(inner.RHS, rhs)
	}
	if models.IsEmpty(lhs) {
		return models.Empty()
	}
	if models.IsUniversal(rhs) {
		return models.Empty()
	}
	if models.IsEmpty(rhs) {
		return lhs
	}
	return &models.Binary{Op: models.SetDifference, LHS: lhs, RHS: rhs}
}

// merge concatenates two extensional sets, dropping messages that are
// structurally equal to one already kept.
func merge(l, r *models.Extensional) *models.Extensional {
	out := &models.Extensional{Messages: make([]*models.Message, 0, len(l.Messages)+len(r.Messages))}
	for _, m := range append(append([]*models.Message{}, l.Messages...), r.Messages...) {
		if !contains(out.Messages, m) {
			out.Messages = append(out.Messages, m)
		}
	}
	return out
}

func contains(ms []*models.Message, m *models.Message) bool {
	for _, x := range ms {
		if models.MessagesEqual(x, m) {
			return true
		}
	}
	return false
}
