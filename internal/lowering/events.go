package lowering

import (
	"sort"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/seqcsp/internal/csp"
	"github.com/GoSim-25-26J-441/seqcsp/internal/topology"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/expr"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// Channel is a channel a group module declares for its messages.
type Channel struct {
	Name string
	// Type is the declared type, e.g. "InOut.Int"; empty for untyped channels.
	Type string
	// Fields are the argument types, in order.
	Fields []string
	// Directed is set for event channels, whose first field is InOut.
	Directed bool
}

// channelSet collects the channels used while lowering.
type channelSet map[string]Channel

func (s channelSet) add(c Channel) {
	s[c.Name] = c
}

func (s channelSet) merge(other []Channel) {
	for _, c := range other {
		s.add(c)
	}
}

func (s channelSet) sorted() []Channel {
	out := make([]Channel, 0, len(s))
	for _, c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// channel returns the channel an endpoint is declared as.
func (l *Lowerer) channel(e topology.Endpoint) Channel {
	if e.Kind == models.TopicOperation {
		c := Channel{Name: l.names.OperationChannel(e.Node, e.Wire)}
		if op, ok := l.graph().Operation(e.Node, e.Wire); ok {
			for _, p := range op.Params {
				c.Fields = append(c.Fields, p.Type)
			}
		}
		c.Type = strings.Join(c.Fields, ".")
		return c
	}
	c := Channel{Name: l.names.Channel(e.Node, e.Wire), Type: csp.InOut, Directed: true}
	if typ, ok := l.graph().EventType(e.Node, e.Wire); ok && typ != "" {
		c.Fields = splitType(typ)
		c.Type += "." + typ
	}
	return c
}

// splitType splits a dotted CSPM type into its components, ignoring dots
// nested in braces or parentheses such as the range {0..3}.
func splitType(typ string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(typ); i++ {
		switch typ[i] {
		case '{', '(':
			depth++
		case '}', ')':
			depth--
		case '.':
			if depth == 0 && i+1 < len(typ) && typ[i+1] != '.' && (i == 0 || typ[i-1] != '.') {
				out = append(out, strings.TrimSpace(typ[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(typ[start:]))
}

// resolve maps a message onto its endpoint, wrapping unresolved
// resolutions into a *ResolutionError.
func (l *Lowerer) resolve(m *models.Message) (topology.Endpoint, error) {
	if m.From == nil || m.To == nil {
		return topology.Endpoint{}, unsupported("message %s without both actors", m.Topic.Name)
	}
	res := l.resolver.Resolve(m.Topic, m.From, m.To)
	if !res.Resolved() {
		return topology.Endpoint{}, &ResolutionError{Message: m, Candidates: res.Candidates}
	}
	return res.Endpoint, nil
}

// prefix returns the channel and direction text shared by every event of m.
func (l *Lowerer) prefix(e topology.Endpoint) (string, []csp.Field) {
	c := l.channel(e)
	if !c.Directed {
		return c.Name, nil
	}
	dir := csp.DirIn
	if e.Dir == topology.DirOut {
		dir = csp.DirOut
	}
	return c.Name, []csp.Field{{Kind: csp.FieldDot, Text: dir}}
}

// communication encodes m as the event a process performs: values are
// output, wildcards are input into "_" and bound wildcards into the variable.
func (l *Lowerer) communication(m *models.Message, e topology.Endpoint) (csp.Event, error) {
	name, fields := l.prefix(e)
	for _, a := range m.Args {
		switch a.Kind {
		case models.ArgValue:
			fields = append(fields, csp.Field{Kind: csp.FieldOut, Text: fieldValue(a.Expr)})
		case models.ArgWildcard:
			fields = append(fields, csp.Field{Kind: csp.FieldIn, Text: "_"})
		case models.ArgBind:
			fields = append(fields, csp.Field{Kind: csp.FieldIn, Text: a.Var})
		default:
			return csp.Event{}, unsupported("argument kind %q of message %s", a.Kind, m.Topic.Name)
		}
	}
	return csp.Event{Channel: name, Fields: fields}, nil
}

// eventSet returns the events m can denote. Arguments that are wildcards, or
// whose value depends on an interaction variable, range over their type.
// isVar reports which identifiers are variables.
func (l *Lowerer) eventSet(m *models.Message, e topology.Endpoint, isVar func(string) bool) (csp.Set, error) {
	name, dirFields := l.prefix(e)
	head := csp.Event{Channel: name, Fields: dirFields}
	types := l.channel(e).Fields

	fixed := make([]string, len(m.Args))
	static := 0
	for k, a := range m.Args {
		switch a.Kind {
		case models.ArgValue:
			if !dependsOn(a.Expr, isVar) {
				fixed[k] = fieldValue(a.Expr)
				static++
			}
		case models.ArgWildcard, models.ArgBind:
		default:
			return nil, unsupported("argument kind %q of message %s", a.Kind, m.Topic.Name)
		}
	}

	// Fixed arguments followed only by open ones are a channel production.
	leading := 0
	for leading < len(fixed) && fixed[leading] != "" {
		leading++
	}
	for _, f := range fixed[:leading] {
		head.Fields = append(head.Fields, csp.Field{Kind: csp.FieldDot, Text: f})
	}
	switch {
	case leading == len(fixed):
		return csp.Enum{Elems: []csp.Term{head}}, nil
	case leading == static || len(types) != len(fixed):
		return csp.Productions{Prefixes: []csp.Term{head}}, nil
	}

	var generators []string
	for k := leading; k < len(fixed); k++ {
		text := fixed[k]
		if text == "" {
			text = "sd_a" + strconv.Itoa(k)
			generators = append(generators, text+" <- "+types[k])
		}
		head.Fields = append(head.Fields, csp.Field{Kind: csp.FieldDot, Text: text})
	}
	return csp.Comprehension{Elem: head, Generators: generators}, nil
}

// fieldValue compiles an argument, parenthesising compound expressions so
// they cannot merge with the surrounding dotted event.
func fieldValue(e expr.Expr) string {
	switch e.(type) {
	case *expr.Binary, *expr.Unary:
		return "(" + expr.Compile(e) + ")"
	}
	return expr.Compile(e)
}

func dependsOn(e expr.Expr, isVar func(string) bool) bool {
	for _, v := range expr.Vars(e) {
		if isVar(v) {
			return true
		}
	}
	return false
}

func noVariables(string) bool { return false }
