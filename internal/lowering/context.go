package lowering

import (
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// Context is the view a fragment is lowered under: one visible lifeline, or
// every actor linearised into a single sequential process.
type Context struct {
	// Actor is the lifeline; nil in the linearised context.
	Actor *models.Actor
	// Slot is the memory accessor slot loads and stores go through.
	Slot int
}

// LifelineContext is the view of one lifeline.
func LifelineContext(actor *models.Actor, slot int) Context {
	return Context{Actor: actor, Slot: slot}
}

// LinearisedContext is the view used for until bodies, where every message is
// performed regardless of the actors it involves.
func LinearisedContext(slot int) Context {
	return Context{Slot: slot}
}

// Linearised reports whether c is the all-actors context.
func (c Context) Linearised() bool {
	return c.Actor == nil
}

// performs reports whether the context takes part in m.
func (c Context) performs(m *models.Message) bool {
	return c.Linearised() || m.Involves(c.Actor)
}

func (c Context) String() string {
	if c.Linearised() {
		return "linearised"
	}
	return c.Actor.Name
}
