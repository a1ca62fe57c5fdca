package lowering

import (
	"errors"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/seqcsp/internal/csp"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/expr"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// fixture builds a module M owning two controllers:
//
//	M.start -> C1.start            (outbound, into the module)
//	C1.req  -> C2.req              (async)
//	C2.ack <-> C1.ack              (bidirectional)
//	C1.ping -> C2.ping             (declared twice)
//	C2.done -> M.done              (outbound, out of the module)
func fixture() *models.Topology {
	t := models.NewTopology()
	t.Components["M"] = &models.Component{
		Name:     "M",
		Kind:     models.ComponentModule,
		Events:   []models.Event{{Name: "start", Type: "Int"}, {Name: "done"}},
		Children: []string{"C1", "C2"},
	}
	t.Components["C1"] = &models.Component{
		Name:   "C1",
		Kind:   models.ComponentController,
		Events: []models.Event{{Name: "start", Type: "Int"}, {Name: "req", Type: "Int"}, {Name: "ack"}, {Name: "ping"}},
	}
	t.Components["C2"] = &models.Component{
		Name:   "C2",
		Kind:   models.ComponentController,
		Events: []models.Event{{Name: "req", Type: "Int"}, {Name: "ack"}, {Name: "ping"}, {Name: "done"}},
	}
	t.Connections = []*models.Connection{
		{Name: "c_start", From: "M", FromEvent: "start", To: "C1", ToEvent: "start"},
		{Name: "c_req", From: "C1", FromEvent: "req", To: "C2", ToEvent: "req", Async: true},
		{Name: "c_ack", From: "C2", FromEvent: "ack", To: "C1", ToEvent: "ack", Bidirectional: true},
		{Name: "c_ping1", From: "C1", FromEvent: "ping", To: "C2", ToEvent: "ping"},
		{Name: "c_ping2", From: "C1", FromEvent: "ping", To: "C2", ToEvent: "ping"},
		{Name: "c_done", From: "C2", FromEvent: "done", To: "M", ToEvent: "done"},
	}
	return t
}

var (
	actT = &models.Actor{Name: "T", Kind: models.ActorTarget}
	actW = &models.Actor{Name: "W", Kind: models.ActorWorld}
	actA = &models.Actor{Name: "A", Kind: models.ActorComponent, Node: "C1"}
	actB = &models.Actor{Name: "B", Kind: models.ActorComponent, Node: "C2"}
)

func newLowerer(t *testing.T, opts Options) *Lowerer {
	t.Helper()
	topo := fixture()
	group := &models.Group{
		Name:   "G",
		Target: topo.Components["M"],
		Actors: []*models.Actor{actT, actW, actA, actB},
		MessageSets: []*models.NamedSet{
			{Name: "S", Set: &models.Extensional{Messages: []*models.Message{
				message(actA, actB, "req", models.Arg{Kind: models.ArgWildcard}),
			}}},
		},
	}
	l, err := NewForGroup(topo, group, opts)
	if err != nil {
		t.Fatalf("failed to create lowerer: %v", err)
	}
	return l
}

func message(from, to *models.Actor, topic string, args ...models.Arg) *models.Message {
	return &models.Message{From: from, To: to, Topic: models.Topic{Kind: models.TopicEvent, Name: topic}, Args: args}
}

func value(src string) models.Arg {
	return models.Arg{Kind: models.ArgValue, Expr: expr.MustParse(src)}
}

func send(m *models.Message) *models.OccurrenceFragment {
	return &models.OccurrenceFragment{Occurrence: &models.MessageOccurrence{Message: m}}
}

func guarded(src string, fs ...models.Fragment) *models.Operand {
	return &models.Operand{Guard: models.Guard{Kind: models.GuardExpr, Expr: expr.MustParse(src)}, Fragments: fs}
}

func lower(t *testing.T, l *Lowerer, i *models.Interaction) string {
	t.Helper()
	out, err := l.LowerInteraction(i)
	if err != nil {
		t.Fatalf("failed to lower %s: %v", i.Name, err)
	}
	return csp.Render(out.Decls...)
}

func contains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("expected output to contain %q, got\n%s", w, out)
		}
	}
}

func TestEmptySingleLifelineIsSkip(t *testing.T) {
	l := newLowerer(t, Options{})
	out := lower(t, l, &models.Interaction{Name: "I", Lifelines: []*models.Actor{actA}})
	if out != "I = SKIP\n" {
		t.Fatalf("expected I = SKIP, got %q", out)
	}
}

func TestTwoLifelinesShareMessageEvents(t *testing.T) {
	l := newLowerer(t, Options{})
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actA, actB},
		Fragments: []models.Fragment{send(message(actA, actB, "req", value("3")))},
	}
	res, err := l.LowerInteraction(i)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := csp.Render(res.Decls...)
	want := strings.Join([]string{
		"datatype I_Actor = I_A | I_B",
		"channel I_term",
		"I_alpha(I_A) = union({C2_req.in.3}, {| I_term, tock |})",
		"I_lifeline(I_A) = C2_req.in!3 -> I_term -> SKIP",
		"I_alpha(I_B) = union({C2_req.in.3}, {| I_term, tock |})",
		"I_lifeline(I_B) = C2_req.in!3 -> I_term -> SKIP",
		"I_Lifelines = || a : I_Actor @ [I_alpha(a)] I_lifeline(a)",
		"I = I_Lifelines \\ {| I_term |}",
		"",
	}, "\n")
	if out != want {
		t.Fatalf("expected\n%s\ngot\n%s", want, out)
	}
	if res.Process != "G::I" {
		t.Fatalf("expected qualified process G::I, got %s", res.Process)
	}
	if len(res.Channels) != 1 || res.Channels[0].Name != "C2_req" || res.Channels[0].Type != "InOut.Int" {
		t.Fatalf("unexpected channels %+v", res.Channels)
	}
}

func TestAltLowersToInternalChoiceOfGuardedBodies(t *testing.T) {
	l := newLowerer(t, Options{})
	body1 := send(message(actA, actB, "req", value("1")))
	body2 := send(message(actA, actB, "ack"))

	tests := []struct {
		name     string
		operands []*models.Operand
		want     string
	}{
		{
			name:     "two guards",
			operands: []*models.Operand{guarded("x > 0", body1), guarded("x < 0", body2)},
			want:     "I = ((x > 0) & C2_req.in!1 -> SKIP) |~| ((x < 0) & C2_ack.in -> SKIP)\n",
		},
		{
			name: "else negates the sibling guard",
			operands: []*models.Operand{
				guarded("x > 0", body1),
				{Guard: models.Guard{Kind: models.GuardElse}, Fragments: []models.Fragment{body2}},
			},
			want: "I = ((x > 0) & C2_req.in!1 -> SKIP) |~| ((not (x > 0)) & C2_ack.in -> SKIP)\n",
		},
		{
			name: "else negates the conjunction of every sibling",
			operands: []*models.Operand{
				guarded("x > 0", body1),
				guarded("x < 0", body1),
				{Guard: models.Guard{Kind: models.GuardElse}, Fragments: []models.Fragment{body2}},
			},
			want: "I = ((x > 0) & C2_req.in!1 -> SKIP) |~| ((x < 0) & C2_req.in!1 -> SKIP) |~| ((not (x > 0) and not (x < 0)) & C2_ack.in -> SKIP)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := &models.Interaction{
				Name:      "I",
				Lifelines: []*models.Actor{actA},
				Fragments: []models.Fragment{&models.BranchFragment{Op: models.BranchAlt, Operands: tt.operands}},
			}
			if got := lower(t, l, i); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBranchOperators(t *testing.T) {
	l := newLowerer(t, Options{})
	operands := func() []*models.Operand {
		return []*models.Operand{
			{Fragments: []models.Fragment{send(message(actA, actB, "req", value("1")))}},
			{Fragments: []models.Fragment{send(message(actA, actB, "ack"))}},
		}
	}

	tests := []struct {
		op   models.BranchOp
		want string
	}{
		{models.BranchXAlt, "I = (C2_req.in!1 -> SKIP) [] (C2_ack.in -> SKIP)\n"},
		{models.BranchPar, "I = (C2_req.in!1 -> SKIP) ||| (C2_ack.in -> SKIP)\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			i := &models.Interaction{
				Name:      "I",
				Lifelines: []*models.Actor{actA},
				Fragments: []models.Fragment{&models.BranchFragment{Op: tt.op, Operands: operands()}},
			}
			if got := lower(t, l, i); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBlocks(t *testing.T) {
	l := newLowerer(t, Options{})
	body := func() *models.Operand {
		return &models.Operand{Fragments: []models.Fragment{send(message(actA, actB, "req", value("1")))}}
	}

	tests := []struct {
		name  string
		block *models.BlockFragment
		want  string
	}{
		{
			name:  "bounded loop",
			block: &models.BlockFragment{Op: models.BlockLoop, Operand: body(), Bound: &models.LoopBound{Min: expr.MustParse("1"), Max: expr.MustParse("3")}},
			want:  "I = SD_BLOOP(C2_req.in!1 -> SKIP, 1, 3)\n",
		},
		{
			name:  "loop with only a lower bound",
			block: &models.BlockFragment{Op: models.BlockLoop, Operand: body(), Bound: &models.LoopBound{Min: expr.MustParse("2")}},
			want:  "I = SD_BLOOP(C2_req.in!1 -> SKIP, 2, 2)\n",
		},
		{
			name:  "loop with only an upper bound",
			block: &models.BlockFragment{Op: models.BlockLoop, Operand: body(), Bound: &models.LoopBound{Max: expr.MustParse("3")}},
			want:  "I = SD_BLOOP(C2_req.in!1 -> SKIP, 0, 3)\n",
		},
		{
			name:  "loop with an empty bound",
			block: &models.BlockFragment{Op: models.BlockLoop, Operand: body(), Bound: &models.LoopBound{}},
			want:  "I = SD_LOOP(C2_req.in!1 -> SKIP)\n",
		},
		{
			name:  "unbounded loop",
			block: &models.BlockFragment{Op: models.BlockLoop, Operand: body()},
			want:  "I = SD_LOOP(C2_req.in!1 -> SKIP)\n",
		},
		{
			name:  "guarded loop",
			block: &models.BlockFragment{Op: models.BlockLoop, Operand: guarded("go", body().Fragments...)},
			want:  "I = if go then SD_LOOP(C2_req.in!1 -> SKIP) else SKIP\n",
		},
		{
			name:  "opt",
			block: &models.BlockFragment{Op: models.BlockOpt, Operand: body()},
			want:  "I = SD_OPT(C2_req.in!1 -> SKIP)\n",
		},
		{
			name:  "guarded opt",
			block: &models.BlockFragment{Op: models.BlockOpt, Operand: guarded("go", body().Fragments...)},
			want:  "I = if go then (C2_req.in!1 -> SKIP) else SKIP\n",
		},
		{
			name:  "deadline",
			block: &models.BlockFragment{Op: models.BlockDeadline, Operand: body(), Duration: expr.MustParse("5")},
			want:  "I = SD_DEADLINE(C2_req.in!1 -> SKIP, 5)\n",
		},
		{
			name:  "single lifeline until",
			block: &models.BlockFragment{Op: models.BlockUntil, Operand: body(), Intra: models.Universal{}},
			want:  "I = SD_UNTIL(C2_req.in!1 -> SKIP, Messages, {C2_req.in.1})\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := &models.Interaction{Name: "I", Lifelines: []*models.Actor{actA}, Fragments: []models.Fragment{tt.block}}
			if got := lower(t, l, i); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOccurrences(t *testing.T) {
	l := newLowerer(t, Options{})
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actA},
		Fragments: []models.Fragment{
			send(message(actA, actB, "req", value("1"))),
			&models.OccurrenceFragment{Occurrence: &models.WaitOccurrence{Duration: expr.MustParse("2")}},
			send(message(actB, actA, "ack")),
			&models.OccurrenceFragment{Occurrence: &models.DeadlockOccurrence{}},
			send(message(actA, actB, "req", value("2"))),
		},
	}
	want := "I = C2_req.in!1 -> (SD_WAIT(2) ; (C1_ack.in -> STOP))\n"
	if got := lower(t, l, i); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestUninvolvedOccurrenceIsSkipped(t *testing.T) {
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actA},
		Fragments: []models.Fragment{send(message(actT, actW, "done"))},
	}
	if got := lower(t, newLowerer(t, Options{}), i); got != "I = SKIP\n" {
		t.Fatalf("expected I = SKIP, got %q", got)
	}
	if got := lower(t, newLowerer(t, Options{Annotate: true}), i); got != "I = {- A skips done -} SKIP\n" {
		t.Fatalf("expected annotated skip, got %q", got)
	}
}

func TestArgumentEncoding(t *testing.T) {
	l := newLowerer(t, Options{})
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actW},
		Fragments: []models.Fragment{
			send(message(actW, actT, "start", models.Arg{Kind: models.ArgWildcard})),
			send(message(actW, actT, "start", value("MAX - 1"))),
		},
	}
	want := "I = M_start.in?_ -> M_start.in!(MAX - 1) -> SKIP\n"
	if got := lower(t, l, i); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBindingStoresAndLoads(t *testing.T) {
	l := newLowerer(t, Options{})
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actT},
		Variables: []*models.Variable{{Name: "x", Type: "Int"}},
		Fragments: []models.Fragment{
			send(message(actW, actT, "start", models.Arg{Kind: models.ArgBind, Var: "x"})),
			send(message(actT, actW, "start", value("x + 1"))),
		},
	}
	out := lower(t, l, i)
	contains(t, out,
		"channel I_term\n",
		"channel I_get_x, I_set_x : {0..1}.Int\n",
		"I = ((M_start.in?x -> I_set_x.0!x -> I_get_x.0?x -> M_start.out!(x + 1) -> I_term -> SKIP) [| union({| I_get_x, I_set_x |}, {| I_term |}) |] I_Memory) \\ union({| I_get_x, I_set_x |}, {| I_term |})\n",
	)
}

func TestMultiLifelineUntil(t *testing.T) {
	l := newLowerer(t, Options{})
	until := &models.BlockFragment{
		Op:      models.BlockUntil,
		Operand: &models.Operand{Fragments: []models.Fragment{send(message(actA, actB, "req", value("1")))}},
		Intra:   &models.Extensional{Messages: []*models.Message{message(actB, actA, "ack")}},
	}
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actA, actB},
		Fragments: []models.Fragment{until},
	}
	out := lower(t, l, i)
	contains(t, out,
		"channel I_until : {0..0}.SyncPhase\n",
		"I_alpha(I_A) = {| I_until, I_term, tock |}\n",
		"I_lifeline(I_A) = I_until.0.enter -> I_until.0.leave -> I_term -> SKIP\n",
		"I_lifeline(I_B) = I_until.0.enter -> I_until.0.leave -> I_term -> SKIP\n",
		"I_until_0 = C2_req.in!1 -> SKIP\n",
		"I_UntilServer(0) = (I_until.0.enter -> (SD_UNTIL(I_until_0, {C1_ack.in}, {C2_req.in.1}) ; (I_until.0.leave -> I_UntilServer(0)))) [] (I_term -> SKIP)\n",
		"I_UntilSync = [| {| I_term |} |] k : {0..0} @ I_UntilServer(k)\n",
		"I = (I_Lifelines [| {| I_until, I_term |} |] I_UntilSync) \\ union({| I_term |}, {| I_until |})\n",
	)
	// The body is lowered once, in the linearised context, not per lifeline.
	if n := strings.Count(out, "C2_req.in!1"); n != 1 {
		t.Fatalf("expected the until body exactly once, found %d copies", n)
	}
}

func TestUntilInitialSetFollowsFirstOccurrence(t *testing.T) {
	l := newLowerer(t, Options{})
	body := &models.Operand{Fragments: []models.Fragment{
		&models.BlockFragment{Op: models.BlockOpt, Operand: &models.Operand{Fragments: []models.Fragment{
			&models.BranchFragment{Op: models.BranchXAlt, Operands: []*models.Operand{
				{Fragments: []models.Fragment{send(message(actA, actB, "req", models.Arg{Kind: models.ArgWildcard}))}},
				{Fragments: []models.Fragment{send(message(actB, actA, "ack"))}},
			}},
		}}},
		send(message(actA, actB, "req", value("9"))),
	}}
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actA},
		Fragments: []models.Fragment{&models.BlockFragment{Op: models.BlockUntil, Operand: body, Intra: models.Reference{Name: "S"}}},
	}
	out := lower(t, l, i)
	contains(t, out, ", Set_S, union({| C2_req.in |}, {C1_ack.in}))\n")
}

func TestMultiLifelinePar(t *testing.T) {
	l := newLowerer(t, Options{})
	par := &models.BranchFragment{Op: models.BranchPar, Operands: []*models.Operand{
		{Fragments: []models.Fragment{send(message(actA, actB, "req", value("1")))}},
		{Fragments: []models.Fragment{send(message(actB, actA, "ack"))}},
	}}
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actA, actB},
		Fragments: []models.Fragment{par},
	}
	out := lower(t, l, i)
	contains(t, out,
		"channel I_par : {0..0}.SyncPhase\n",
		"I_alpha(I_A) = Union({{C2_req.in.1}, {C1_ack.in}, {| I_par, I_term, tock |}})\n",
		"I_lifeline(I_A) = I_par.0.enter -> (((C2_req.in!1 -> SKIP) ||| (C1_ack.in -> SKIP)) ; (I_par.0.leave -> I_term -> SKIP))\n",
		"I_ParServer(k) = (I_par.k.enter -> I_par.k.leave -> I_ParServer(k)) [] (I_term -> SKIP)\n",
		"I_ParSync = [| {| I_term |} |] k : {0..0} @ I_ParServer(k)\n",
		"I = (I_Lifelines [| {| I_par, I_term |} |] I_ParSync) \\ union({| I_term |}, {| I_par |})\n",
	)
}

func TestNestedParFragmentsHaveIndependentJoiners(t *testing.T) {
	l := newLowerer(t, Options{})
	inner := &models.BranchFragment{Op: models.BranchPar, Operands: []*models.Operand{
		{Fragments: []models.Fragment{send(message(actA, actB, "req", value("1")))}},
		{Fragments: []models.Fragment{send(message(actB, actA, "ack"))}},
	}}
	outer := &models.BranchFragment{Op: models.BranchPar, Operands: []*models.Operand{
		{Fragments: []models.Fragment{inner}},
		{Fragments: []models.Fragment{send(message(actA, actB, "req", value("2")))}},
	}}
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actA, actB},
		Fragments: []models.Fragment{outer},
	}
	out := lower(t, l, i)
	contains(t, out,
		"channel I_par : {0..1}.SyncPhase\n",
		"I_lifeline(I_A) = I_par.0.enter -> ",
		"I_par.1.enter -> ",
		"I_ParServer(k) = (I_par.k.enter -> I_par.k.leave -> I_ParServer(k)) [] (I_term -> SKIP)\n",
		"I_ParSync = [| {| I_term |} |] k : {0..1} @ I_ParServer(k)\n",
	)
	// The inner fragment is entered before the outer one is left, so a
	// single joiner serving one index at a time would deadlock.
	if strings.Contains(out, "-> I_ParSync") {
		t.Fatalf("expected no joiner serialising every par fragment, got\n%s", out)
	}
}

func TestUntilsUnderParRunInterleaved(t *testing.T) {
	l := newLowerer(t, Options{})
	until := func(m *models.Message) *models.BlockFragment {
		return &models.BlockFragment{
			Op:      models.BlockUntil,
			Operand: &models.Operand{Fragments: []models.Fragment{send(m)}},
			Intra:   models.Universal{},
		}
	}
	par := &models.BranchFragment{Op: models.BranchPar, Operands: []*models.Operand{
		{Fragments: []models.Fragment{until(message(actA, actB, "req", value("1")))}},
		{Fragments: []models.Fragment{until(message(actB, actA, "ack"))}},
	}}
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actA, actB},
		Fragments: []models.Fragment{par},
	}
	out := lower(t, l, i)
	contains(t, out,
		"channel I_until : {0..1}.SyncPhase\n",
		"I_until_0 = C2_req.in!1 -> SKIP\n",
		"I_until_1 = C1_ack.in -> SKIP\n",
		"I_UntilServer(0) = (I_until.0.enter -> (SD_UNTIL(I_until_0, ",
		"; (I_until.0.leave -> I_UntilServer(0)))) [] (I_term -> SKIP)\n",
		"I_UntilServer(1) = (I_until.1.enter -> (SD_UNTIL(I_until_1, ",
		"; (I_until.1.leave -> I_UntilServer(1)))) [] (I_term -> SKIP)\n",
		"I_UntilSync = [| {| I_term |} |] k : {0..1} @ I_UntilServer(k)\n",
	)
	if strings.Contains(out, "-> I_UntilSync") {
		t.Fatalf("expected until bodies not to be serialised, got\n%s", out)
	}
}

func TestGuardedParOperandCanBeSkipped(t *testing.T) {
	l := newLowerer(t, Options{})
	par := &models.BranchFragment{Op: models.BranchPar, Operands: []*models.Operand{
		guarded("false", send(message(actA, actB, "req", value("1")))),
		{Fragments: []models.Fragment{send(message(actA, actB, "ack"))}},
	}}
	i := &models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actA},
		Fragments: []models.Fragment{par, send(message(actA, actB, "req", value("2")))},
	}
	want := "I = ((if false then (C2_req.in!1 -> SKIP) else SKIP) ||| (C2_ack.in -> SKIP)) ; (C2_req.in!2 -> SKIP)\n"
	if got := lower(t, l, i); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	alt := &models.BranchFragment{Op: models.BranchXAlt, Operands: par.Operands}
	i.Fragments = []models.Fragment{alt}
	want = "I = ((false) & C2_req.in!1 -> SKIP) [] (C2_ack.in -> SKIP)\n"
	if got := lower(t, l, i); got != want {
		t.Fatalf("expected choice operands to keep their guard, got %q", got)
	}
}

func TestNestedUntilIsRejected(t *testing.T) {
	l := newLowerer(t, Options{})
	inner := &models.BlockFragment{
		Op:      models.BlockUntil,
		Operand: &models.Operand{Fragments: []models.Fragment{send(message(actA, actB, "req", value("1")))}},
		Intra:   models.Universal{},
	}
	shapes := map[string]models.Fragment{
		"direct": inner,
		"inside a loop": &models.BlockFragment{
			Op:      models.BlockLoop,
			Operand: &models.Operand{Fragments: []models.Fragment{inner}},
		},
	}
	for name, nested := range shapes {
		for _, lifelines := range [][]*models.Actor{{actA}, {actA, actB}} {
			t.Run(name, func(t *testing.T) {
				i := &models.Interaction{
					Name:      "I",
					Lifelines: lifelines,
					Fragments: []models.Fragment{&models.BlockFragment{
						Op:      models.BlockUntil,
						Operand: &models.Operand{Fragments: []models.Fragment{nested}},
						Intra:   models.Universal{},
					}},
				}
				_, err := l.LowerInteraction(i)
				if !errors.Is(err, ErrNestedUntil) {
					t.Fatalf("expected nested until error, got %v", err)
				}
			})
		}
	}
}

func TestResolutionErrors(t *testing.T) {
	l := newLowerer(t, Options{})

	tests := []struct {
		name       string
		message    *models.Message
		candidates int
	}{
		{"ambiguous connection", message(actA, actB, "ping"), 2},
		{"no connection in that direction", message(actB, actA, "req", value("1")), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := &models.Interaction{Name: "I", Lifelines: []*models.Actor{actA}, Fragments: []models.Fragment{send(tt.message)}}
			_, err := l.LowerInteraction(i)
			if !errors.Is(err, ErrAmbiguousConnection) || !Recoverable(err) {
				t.Fatalf("expected ambiguous connection error, got %v", err)
			}
			var re *ResolutionError
			if !errors.As(err, &re) {
				t.Fatalf("expected *ResolutionError, got %T", err)
			}
			if len(re.Candidates) != tt.candidates {
				t.Fatalf("expected %d candidates, got %d", tt.candidates, len(re.Candidates))
			}
		})
	}
}

func TestUnsupportedConstructs(t *testing.T) {
	l := newLowerer(t, Options{})
	body := &models.Operand{Fragments: []models.Fragment{send(message(actA, actB, "req", value("1")))}}

	tests := []struct {
		name     string
		fragment models.Fragment
	}{
		{"unknown block operator", &models.BlockFragment{Op: "repeat", Operand: body}},
		{"unknown branch operator", &models.BranchFragment{Op: "seq", Operands: []*models.Operand{body}}},
		{"else guard on a block", &models.BlockFragment{Op: models.BlockOpt, Operand: &models.Operand{Guard: models.Guard{Kind: models.GuardElse}}}},
		{"deadline without duration", &models.BlockFragment{Op: models.BlockDeadline, Operand: body}},
		{"block without operand", &models.BlockFragment{Op: models.BlockLoop}},
		{"undeclared message set", &models.BlockFragment{Op: models.BlockUntil, Operand: body, Intra: models.Reference{Name: "Nope"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := &models.Interaction{Name: "I", Lifelines: []*models.Actor{actA}, Fragments: []models.Fragment{tt.fragment}}
			_, err := l.LowerInteraction(i)
			if !errors.Is(err, ErrUnsupportedConstruct) {
				t.Fatalf("expected unsupported construct error, got %v", err)
			}
			if Recoverable(err) {
				t.Fatalf("expected unsupported construct to be fatal")
			}
		})
	}
}

func TestModule(t *testing.T) {
	l := newLowerer(t, Options{})
	sets, err := l.LowerSets()
	if err != nil {
		t.Fatalf("failed to lower sets: %v", err)
	}
	res, err := l.LowerInteraction(&models.Interaction{
		Name:      "I",
		Lifelines: []*models.Actor{actA},
		Fragments: []models.Fragment{send(message(actB, actA, "ack"))},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := csp.Render(l.Module(sets, []*Lowered{res}))
	want := strings.Join([]string{
		"module G",
		"exports",
		"  Target = M",
		"  channel C1_ack : InOut",
		"  channel C2_req : InOut.Int",
		"  Messages = {| C1_ack, C2_req |}",
		"  Set_S = {| C2_req.in |}",
		"",
		"  -- interaction I",
		"  I = C1_ack.in -> SKIP",
		"endmodule",
		"",
	}, "\n")
	if out != want {
		t.Fatalf("expected\n%s\ngot\n%s", want, out)
	}
}

func TestModuleWithExternalChannels(t *testing.T) {
	l := newLowerer(t, Options{})
	l.group.ExternalChannels = true
	sets, err := l.LowerSets()
	if err != nil {
		t.Fatalf("failed to lower sets: %v", err)
	}
	out := csp.Render(l.Module(sets, nil))
	if strings.Contains(out, "channel ") {
		t.Fatalf("expected no channel declarations, got\n%s", out)
	}
	contains(t, out, "  Messages = {| C2_req |}\n")
}

func TestEventSetComprehension(t *testing.T) {
	topo := fixture()
	topo.Components["C2"].Events = append(topo.Components["C2"].Events, models.Event{Name: "pair", Type: "Int.Bool"})
	topo.Connections = append(topo.Connections, &models.Connection{Name: "c_pair", From: "C1", FromEvent: "pair", To: "C2", ToEvent: "pair"})
	group := &models.Group{Name: "G", Target: topo.Components["M"], Actors: []*models.Actor{actA, actB}}
	l, err := NewForGroup(topo, group, Options{})
	if err != nil {
		t.Fatalf("failed to create lowerer: %v", err)
	}

	m := message(actA, actB, "pair", models.Arg{Kind: models.ArgWildcard}, value("true"))
	e, err := l.resolve(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set, err := l.eventSet(m, e, noVariables)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := set.String(); got != "{ C2_pair.in.sd_a0.true | sd_a0 <- Int }" {
		t.Fatalf("unexpected event set %q", got)
	}

	// A value depending on a variable ranges over its type.
	m = message(actA, actB, "pair", value("1"), value("y"))
	set, err = l.eventSet(m, e, func(v string) bool { return v == "y" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := set.String(); got != "{| C2_pair.in.1 |}" {
		t.Fatalf("unexpected event set %q", got)
	}
}
