package workflow

import (
	"errors"
	"testing"
)

func sampleTable() Table {
	return Table{
		"pending":  {"review", "rejected"},
		"review":   {"done", "rejected"},
		"done":     {},
		"rejected": {},
	}
}

func TestStep_LegalEdge(t *testing.T) {
	tbl := sampleTable()
	if err := tbl.Step("pending", "review"); err != nil {
		t.Fatalf("expected legal edge, got %v", err)
	}
}

func TestStep_IllegalEdge(t *testing.T) {
	tbl := sampleTable()
	err := tbl.Step("pending", "done")
	if err == nil {
		t.Fatalf("expected error for illegal edge")
	}
	if !IsKind(err, KindInvalidTransition) {
		t.Fatalf("expected invalid transition kind, got %q", KindOf(err))
	}
}

func TestStep_TerminalStateHasNoEdges(t *testing.T) {
	tbl := sampleTable()
	for _, terminal := range []string{"done", "rejected"} {
		if !tbl.Terminal(terminal) {
			t.Fatalf("expected %q to be terminal", terminal)
		}
		if err := tbl.Step(terminal, "pending"); err == nil {
			t.Fatalf("expected terminal state %q to reject transitions", terminal)
		}
	}
}

func TestKnown(t *testing.T) {
	tbl := sampleTable()
	if !tbl.Known("done") {
		t.Fatalf("expected target-only state to be known")
	}
	if tbl.Known("limbo") {
		t.Fatalf("did not expect unknown state to be known")
	}
}

func TestKindOf_NonWorkflowError(t *testing.T) {
	if kind := KindOf(errors.New("plain")); kind != "" {
		t.Fatalf("expected empty kind for plain error, got %q", kind)
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := NewError(KindAlreadyActive, "there is already an active transfer for this property")
	wrapped := errors.Join(errors.New("context"), inner)
	if !IsKind(wrapped, KindAlreadyActive) {
		t.Fatalf("expected kind to survive wrapping")
	}
}
