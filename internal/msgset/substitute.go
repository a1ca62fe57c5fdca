package msgset

import "github.com/GoSim-25-26J-441/seqcsp/pkg/models"

// OptimiseGroup replaces every message set owned by g with its optimised
// form: the group's named sets and the intra set of every until fragment. It
// returns the number of sets visited. Callers run it once per group, before
// any interaction of the group is lowered.
func OptimiseGroup(g *models.Group) int {
	n := 0
	for _, ns := range g.MessageSets {
		ns.Set = Optimise(ns.Set)
		n++
	}
	for _, i := range g.Interactions {
		n += OptimiseInteraction(i)
	}
	return n
}

// OptimiseInteraction optimises the intra set of every until fragment of i in place.
func OptimiseInteraction(i *models.Interaction) int {
	n := 0
	Walk(i.Fragments, func(f models.Fragment) {
		b, ok := f.(*models.BlockFragment)
		if !ok || b.Op != models.BlockUntil || b.Intra == nil {
			return
		}
		b.ReplaceIntra(Optimise(b.Intra))
		n++
	})
	return n
}

// Walk visits fs and every nested fragment in pre-order.
func Walk(fs []models.Fragment, visit func(models.Fragment)) {
	for _, f := range fs {
		visit(f)
		switch n := f.(type) {
		case *models.BranchFragment:
			for _, op := range n.Operands {
				Walk(op.Fragments, visit)
			}
		case *models.BlockFragment:
			if n.Operand != nil {
				Walk(n.Operand.Fragments, visit)
			}
		}
	}
}
