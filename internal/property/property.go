// Package property lowers refinement properties into CSPM assertions.
package property

import (
	"fmt"

	"github.com/GoSim-25-26J-441/seqcsp/internal/csp"
	"github.com/GoSim-25-26J-441/seqcsp/internal/naming"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// TimedSuffix gives tock priority over internal events under timed models.
const TimedSuffix = ":[tau priority]: {" + csp.Tock + "}"

// Lower returns the assertion checking p within its group. A holds property
// asks the target to refine the interaction. An observed property asks the
// interaction, followed by a stop that lets only time pass, to refine the
// target, so it holds exactly when the interaction is a behaviour of the target.
func Lower(names *naming.Namer, p *models.Property) (csp.Assert, error) {
	if p.Interaction == nil {
		return csp.Assert{}, fmt.Errorf("property %s: no interaction", p.Name)
	}
	model, suffix, err := Model(p.Model)
	if err != nil {
		return csp.Assert{}, fmt.Errorf("property %s: %w", p.Name, err)
	}

	target := csp.Ref{Name: names.Qualify(names.Target())}
	interaction := csp.Ref{Name: names.Interaction(p.Interaction.Name).Qualified()}

	a := csp.Assert{Negated: p.Negated, Model: model, Suffix: suffix}
	switch p.Kind {
	case models.PropertyHolds:
		a.Left, a.Right = interaction, target
	case models.PropertyObserved:
		a.Left = target
		a.Right = csp.Seq(interaction, csp.Ref{Name: csp.Timestop})
	default:
		return csp.Assert{}, fmt.Errorf("property %s: unknown kind %q", p.Name, p.Kind)
	}
	return a, nil
}

// Model maps a semantic model onto the refinement relation and assertion
// suffix it is checked with.
func Model(m models.SemanticModel) (string, string, error) {
	switch m {
	case models.ModelTraces:
		return "T", "", nil
	case models.ModelFailures:
		return "F", "", nil
	case models.ModelFailuresDivergences:
		return "FD", "", nil
	case models.ModelTimedTraces:
		return "T", TimedSuffix, nil
	case models.ModelTimedFailures:
		return "F", TimedSuffix, nil
	}
	return "", "", fmt.Errorf("unknown semantic model %q", m)
}
