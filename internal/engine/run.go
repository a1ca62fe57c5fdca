package engine

import (
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/seqcsp/internal/lowering"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// ErrInteractionFailed marks a property skipped because its interaction failed.
var ErrInteractionFailed = errors.New("interaction failed to lower")

// Diagnostic reports a failure that did not stop generation. Group is always
// set; Interaction and Property narrow it down when the failure is local.
type Diagnostic struct {
	Group       string
	Interaction string
	Property    string
	Err         error
	// Recoverable is set when the failure comes from the model rather than
	// from a construct the lowering does not support.
	Recoverable bool
}

func (d Diagnostic) String() string {
	where := d.Group
	switch {
	case d.Property != "":
		where += " property " + d.Property
	case d.Interaction != "":
		where += " interaction " + d.Interaction
	}
	return fmt.Sprintf("%s: %v", where, d.Err)
}

func newDiagnostic(group, interaction, property string, err error) Diagnostic {
	return Diagnostic{
		Group:       group,
		Interaction: interaction,
		Property:    property,
		Err:         err,
		Recoverable: lowering.Recoverable(err),
	}
}

// Result is the outcome of one generation run.
type Result struct {
	// Output is the generated CSPM script.
	Output      string
	Diagnostics []Diagnostic
	Metrics     *models.GenerationMetrics
}

// Err joins the errors of every diagnostic, or returns nil when generation
// was clean.
func (r *Result) Err() error {
	errs := make([]error, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		errs = append(errs, errors.New(d.String()))
	}
	return errors.Join(errs...)
}
