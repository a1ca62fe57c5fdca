package config

import (
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/seqcsp/pkg/expr"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

func loadSample(t *testing.T) *models.Specification {
	t.Helper()
	doc, err := LoadDocument("../../config/models/controllers.yaml", "")
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}
	spec, err := Build(doc)
	if err != nil {
		t.Fatalf("Failed to build model: %v", err)
	}
	return spec
}

func TestBuildTopology(t *testing.T) {
	spec := loadSample(t)

	m, ok := spec.Topology.Component("M")
	if !ok {
		t.Fatal("expected component M")
	}
	if m.Kind != models.ComponentModule || len(m.Children) != 2 {
		t.Fatalf("expected module with two children, got %+v", m)
	}
	if e, ok := m.Event("start"); !ok || e.Type != "Int" {
		t.Fatalf("expected typed event start, got %+v", e)
	}
	if len(spec.Topology.Connections) != 4 {
		t.Fatalf("expected 4 connections, got %d", len(spec.Topology.Connections))
	}
	ack := spec.Topology.Connections[2]
	if ack.Name != "c_ack" || !ack.Bidirectional {
		t.Fatalf("expected bidirectional c_ack, got %+v", ack)
	}
}

func TestBuildGroup(t *testing.T) {
	spec := loadSample(t)
	g := spec.Groups[0]

	if g.Target.Name != "M" {
		t.Fatalf("expected target M, got %s", g.Target.Name)
	}
	if g.TargetActor() == nil || g.TargetActor().Name != "T" {
		t.Fatalf("expected target actor T")
	}

	set, ok := g.NamedSet("Requests")
	if !ok {
		t.Fatal("expected named set Requests")
	}
	ext, ok := set.Set.(*models.Extensional)
	if !ok || len(ext.Messages) != 1 || ext.Messages[0].Args[0].Kind != models.ArgWildcard {
		t.Fatalf("unexpected Requests set %+v", set.Set)
	}

	handshake, _ := g.Interaction("Handshake")
	a, _ := g.Actor("A")
	if handshake.Lifelines[0] != a {
		t.Fatal("expected lifelines to share the group's actors")
	}
	if v, ok := handshake.Variable("x"); !ok || v.Type != "Int" || v.Initial != nil {
		t.Fatalf("expected uninitialised Int variable x, got %+v", v)
	}

	msg := handshake.Fragments[0].(*models.OccurrenceFragment).Occurrence.(*models.MessageOccurrence).Message
	if msg.From != a || msg.Topic != (models.Topic{Kind: models.TopicEvent, Name: "req"}) {
		t.Fatalf("unexpected message %+v", msg)
	}
	if binds := msg.Binds(); len(binds) != 1 || binds[0] != "x" {
		t.Fatalf("expected message to bind x, got %v", binds)
	}

	alt := handshake.Fragments[1].(*models.BranchFragment)
	if alt.Op != models.BranchAlt || len(alt.Operands) != 2 {
		t.Fatalf("unexpected alt %+v", alt)
	}
	if got := expr.Compile(alt.Operands[0].Guard.Expr); got != "x > 0" {
		t.Fatalf("expected guard x > 0, got %s", got)
	}
	if alt.Operands[1].Guard.Kind != models.GuardElse {
		t.Fatalf("expected else guard, got %+v", alt.Operands[1].Guard)
	}

	boot, _ := g.Interaction("Boot")
	deadline := boot.Fragments[1].(*models.BlockFragment)
	if deadline.Op != models.BlockDeadline || expr.Compile(deadline.Duration) != "3" {
		t.Fatalf("unexpected deadline %+v", deadline)
	}

	if len(g.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(g.Properties))
	}
	if g.Properties[0].Interaction != handshake || g.Properties[0].Model != "" {
		t.Fatalf("expected holds property over Handshake without a model, got %+v", g.Properties[0])
	}
	if g.Properties[1].Model != models.ModelTimedTraces || g.Properties[1].Kind != models.PropertyObserved {
		t.Fatalf("unexpected observed property %+v", g.Properties[1])
	}
}

func TestBuildBlocksAndSets(t *testing.T) {
	src := strings.Replace(minimalModel("1.0.0"), "          - {kind: deadlock}\n", `          - kind: loop
            max: "4"
            fragments: [{kind: wait, duration: "1"}]
          - kind: until
            intra:
              kind: diff
              lhs: {kind: universal}
              rhs: {kind: reference, name: S}
            fragments: [{kind: message, from: T, to: W, operation: call, args: [{value: "n + 1"}]}]
`, 1)
	doc, err := ParseDocumentYAMLString(src, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spec, err := Build(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i := spec.Groups[0].Interactions[0]

	loop := i.Fragments[1].(*models.BlockFragment)
	if loop.Bound == nil || expr.Compile(loop.Bound.Min) != "0" || expr.Compile(loop.Bound.Max) != "4" {
		t.Fatalf("expected loop bound (0, 4), got %+v", loop.Bound)
	}

	until := i.Fragments[2].(*models.BlockFragment)
	intra, ok := until.Intra.(*models.Binary)
	if !ok || intra.Op != models.SetDifference || !models.IsUniversal(intra.LHS) {
		t.Fatalf("unexpected intra %+v", until.Intra)
	}
	if ref, ok := intra.RHS.(models.Reference); !ok || ref.Name != "S" {
		t.Fatalf("expected reference to S, got %+v", intra.RHS)
	}
	call := until.Operand.Fragments[0].(*models.OccurrenceFragment).Occurrence.(*models.MessageOccurrence).Message
	if call.Topic.Kind != models.TopicOperation || expr.Compile(call.Args[0].Expr) != "n + 1" {
		t.Fatalf("unexpected operation call %+v", call)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		wantErr string
	}{
		{"bad expression", [2]string{"- {kind: deadlock}", "- {kind: wait, duration: \"1 +\"}"}, "duration"},
		{"unknown message actor", [2]string{"from: W, to: T", "from: Z, to: T"}, "unknown actor Z"},
		{"ambiguous argument", [2]string{"event: go}", "event: go, args: [{value: \"1\", bind: x}]}"}, "exactly one of value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := strings.Replace(minimalModel("1.0.0"), tt.replace[0], tt.replace[1], 1)
			doc, err := ParseDocumentYAMLString(src, "")
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			_, err = Build(doc)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
