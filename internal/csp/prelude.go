package csp

// Names of the prelude definitions the lowering engine refers to.
const (
	Tock     = "tock"
	InOut    = "InOut"
	DirIn    = "in"
	DirOut   = "out"
	Phase    = "SyncPhase"
	Enter    = "enter"
	Leave    = "leave"
	Wait     = "SD_WAIT"
	Tocks    = "SD_TOCKS"
	Deadline = "SD_DEADLINE"
	Loop     = "SD_LOOP"
	BLoop    = "SD_BLOOP"
	Opt      = "SD_OPT"
	Until    = "SD_UNTIL"
	Timestop = "SD_TIMESTOP"
)

// PreludeOptions controls which shared declarations are emitted.
type PreludeOptions struct {
	// DeclareCore emits InOut and tock. Disable it when the target's own
	// semantics already declares them.
	DeclareCore bool
}

// Prelude returns the definitions every generated module relies on.
func Prelude(opts PreludeOptions) []Decl {
	var decls []Decl
	decls = append(decls, LineComment{Text: "interaction lowering prelude"})
	if opts.DeclareCore {
		decls = append(decls,
			Datatype{Name: InOut, Constructors: []string{DirIn, DirOut}},
			ChannelDecl{Names: []string{Tock}},
		)
	}
	decls = append(decls,
		Datatype{Name: Phase, Constructors: []string{Enter, Leave}},
		Def{Name: Wait, Params: []string{"d"}, Body: If{
			Cond: "d > 0",
			Then: Prefix{Event: Event{Channel: Tock}, Then: Ref{Name: Wait, Args: []Term{Raw("d - 1")}}},
			Else: Skip{},
		}},
		Def{Name: Tocks, Params: []string{"d"}, Body: Nary{Op: OpExtChoice, Procs: []Proc{
			Skip{},
			Guard{Cond: "d > 0", Body: Prefix{Event: Event{Channel: Tock}, Then: Ref{Name: Tocks, Args: []Term{Raw("d - 1")}}}},
		}}},
		Def{Name: Deadline, Params: []string{"P", "d"}, Body: GenPar{
			Left:  Ref{Name: "P"},
			Sync:  Enum{Elems: []Term{Raw(Tock)}},
			Right: Ref{Name: Tocks, Args: []Term{Raw("d")}},
		}},
		Def{Name: Loop, Params: []string{"P"}, Body: Seq(Ref{Name: "P"}, Ref{Name: Loop, Args: []Term{Raw("P")}})},
		Def{Name: BLoop, Params: []string{"P", "lo", "hi"}, Body: If{
			Cond: "lo > 0",
			Then: Seq(Ref{Name: "P"}, Ref{Name: BLoop, Args: []Term{Raw("P"), Raw("lo - 1"), Raw("hi - 1")}}),
			Else: If{
				Cond: "hi > 0",
				Then: Nary{Op: OpIntChoice, Procs: []Proc{
					Skip{},
					Seq(Ref{Name: "P"}, Ref{Name: BLoop, Args: []Term{Raw("P"), Raw("0"), Raw("hi - 1")}}),
				}},
				Else: Skip{},
			},
		}},
		Def{Name: Opt, Params: []string{"P"}, Body: Nary{Op: OpIntChoice, Procs: []Proc{Ref{Name: "P"}, Skip{}}}},
		Def{Name: Until, Params: []string{"P", "Intra", "Init"}, Body: Nary{Op: OpInterrupt, Procs: []Proc{
			Ref{Name: "P"},
			ReplExtChoice{
				Var:    "e",
				Domain: SetBinary{Op: SetDiff, LHS: Named{Name: "Intra"}, RHS: Named{Name: "Init"}},
				Body:   Prefix{Event: Event{Channel: "e"}, Then: Skip{}},
			},
		}}},
		Def{Name: Timestop, Body: Prefix{Event: Event{Channel: Tock}, Then: Ref{Name: Timestop}}},
	)
	return decls
}
