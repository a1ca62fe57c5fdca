// Package naming synthesises the CSPM identifiers of generated definitions.
//
// Names are a pure function of the group, interaction, node and field they
// stand for. Lifelines lowered independently, or interactions lowered in
// parallel, therefore agree on every channel and process name without sharing
// state. Consumers outside a group module resolve a field by concatenating the
// group name, the namespace separator and the field.
package naming

import (
	"strconv"
	"strings"
	"unicode"
)

// Separator joins a module name and an exported field.
const Separator = "::"

// Namer names the fields of one group module.
type Namer struct {
	group string
}

// New returns the namer of a group.
func New(group string) *Namer {
	return &Namer{group: Ident(group)}
}

// Group returns the module name.
func (n *Namer) Group() string {
	return n.group
}

// Qualify returns the externally visible name of a group field.
func (n *Namer) Qualify(field string) string {
	return n.group + Separator + field
}

// Target names the group's target process.
func (n *Namer) Target() string {
	return "Target"
}

// Messages names the denotation of the universal message set.
func (n *Namer) Messages() string {
	return "Messages"
}

// Channel names the channel carrying event wire of node.
func (n *Namer) Channel(node, wire string) string {
	return Ident(node) + "_" + Ident(wire)
}

// OperationChannel names the call channel of operation op provided by node.
func (n *Namer) OperationChannel(node, op string) string {
	return Ident(node) + "_" + Ident(op) + "Call"
}

// Set names a group-level message set.
func (n *Namer) Set(name string) string {
	return "Set_" + Ident(name)
}

// Interaction returns the namer of one interaction's fields.
func (n *Namer) Interaction(name string) Interaction {
	return Interaction{namer: n, name: Ident(name)}
}

// Interaction names the fields synthesised for one interaction.
type Interaction struct {
	namer *Namer
	name  string
}

// Process names the interaction's externally visible process.
func (i Interaction) Process() string { return i.name }

// Qualified is the process name seen from outside the group module.
func (i Interaction) Qualified() string { return i.namer.Qualify(i.name) }

func (i Interaction) field(f string) string { return i.name + "_" + f }

// ActorType names the datatype enumerating the lifelines.
func (i Interaction) ActorType() string { return i.field("Actor") }

// Actor names the datatype constructor of a lifeline.
func (i Interaction) Actor(actor string) string { return i.field(Ident(actor)) }

// Alpha names the function mapping a lifeline to its alphabet.
func (i Interaction) Alpha() string { return i.field("alpha") }

// Lifeline names the function mapping a lifeline to its process.
func (i Interaction) Lifeline() string { return i.field("lifeline") }

// Lifelines names the parallel composition of every lifeline.
func (i Interaction) Lifelines() string { return i.field("Lifelines") }

// Until names the control channel of until fragments.
func (i Interaction) Until() string { return i.field("until") }

// Par names the control channel of par fragments.
func (i Interaction) Par() string { return i.field("par") }

// Term names the termination channel.
func (i Interaction) Term() string { return i.field("term") }

// UntilSync names the auxiliary process running until bodies.
func (i Interaction) UntilSync() string { return i.field("UntilSync") }

// UntilServer names the function running the body of one until fragment.
func (i Interaction) UntilServer() string { return i.field("UntilServer") }

// ParSync names the auxiliary process joining par fragments.
func (i Interaction) ParSync() string { return i.field("ParSync") }

// ParServer names the function joining the lifelines at one par fragment.
func (i Interaction) ParServer() string { return i.field("ParServer") }

// UntilBody names the linearised body of the k-th until fragment.
func (i Interaction) UntilBody(k int) string { return i.field("until_" + strconv.Itoa(k)) }

// Get names the load channel of variable v.
func (i Interaction) Get(v string) string { return i.field("get_" + Ident(v)) }

// Set names the store channel of variable v.
func (i Interaction) Set(v string) string { return i.field("set_" + Ident(v)) }

// Cell names the memory cell process of variable v.
func (i Interaction) Cell(v string) string { return i.field("Mem_" + Ident(v)) }

// Memory names the composition of every memory cell.
func (i Interaction) Memory() string { return i.field("Memory") }

// Ident maps s onto a valid CSPM identifier. Letters, digits, underscores and
// primes are kept, anything else becomes an underscore, and a leading digit is
// prefixed with an underscore.
func Ident(s string) string {
	if s == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || r == '\'' || r < unicode.MaxASCII && unicode.IsLetter(r):
			b.WriteRune(r)
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
