package lowering

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/seqcsp/internal/topology"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

var (
	// ErrAmbiguousConnection is reported when zero or several connections can
	// carry a message between two component actors. Callers may recover by
	// reporting it as a model issue.
	ErrAmbiguousConnection = errors.New("ambiguous connection")
	// ErrUnsupportedConstruct is returned when a fragment, occurrence, guard or
	// set variant reaches the lowering without a rule for it.
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	// ErrNestedUntil is returned for an until fragment inside another until body.
	ErrNestedUntil = errors.New("until fragment nested inside an until body")
)

// ResolutionError describes a message the topology cannot map onto exactly
// one connection.
type ResolutionError struct {
	Message    *models.Message
	Candidates []topology.Candidate
}

func (e *ResolutionError) Error() string {
	m := e.Message
	prefix := fmt.Sprintf("message %s from %s to %s", m.Topic.Name, m.From.Name, m.To.Name)
	if len(e.Candidates) == 0 {
		return prefix + ": no connection carries it"
	}
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.Connection.Name
	}
	return fmt.Sprintf("%s: %d connections carry it (%s)", prefix, len(e.Candidates), strings.Join(names, ", "))
}

// Unwrap makes errors.Is(err, ErrAmbiguousConnection) hold.
func (e *ResolutionError) Unwrap() error {
	return ErrAmbiguousConnection
}

// Recoverable reports whether err only describes a model issue the caller may
// surface as a diagnostic.
func Recoverable(err error) bool {
	return errors.Is(err, ErrAmbiguousConnection)
}

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUnsupportedConstruct}, args...)...)
}
