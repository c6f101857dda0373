package picker

import (
	"context"
	"testing"

	"glsel/internal/view"
)

func candidates(fullPaths ...string) []view.Candidate {
	out := make([]view.Candidate, len(fullPaths))
	for i, fp := range fullPaths {
		out[i] = view.Candidate{FullPath: fp, Name: fp}
	}
	return out
}

func TestMatchPicksBestFuzzyMatch(t *testing.T) {
	m := &Match{}
	sel, err := m.Pick(context.Background(), candidates(
		"acme/backend/api",
		"acme/frontend/app",
		"zeta/tool",
	), "froapp")
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if sel == nil {
		t.Fatal("Expected a selection")
	}
	if sel.FullPath != "acme/frontend/app" {
		t.Errorf("Expected acme/frontend/app, got %s", sel.FullPath)
	}
}

func TestMatchEmptyQueryTakesFirst(t *testing.T) {
	m := &Match{AltTrigger: true}
	sel, err := m.Pick(context.Background(), candidates("a/one", "b/two"), "")
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if sel == nil || sel.FullPath != "a/one" {
		t.Fatalf("Expected first candidate, got %v", sel)
	}
	if !sel.AltTrigger {
		t.Error("Expected AltTrigger to carry through")
	}
}

func TestMatchNoMatchIsEmptyOutcome(t *testing.T) {
	m := &Match{}
	sel, err := m.Pick(context.Background(), candidates("a/one"), "zzzzqqqq")
	if err != nil {
		t.Fatalf("No match must not be an error: %v", err)
	}
	if sel != nil {
		t.Errorf("Expected nil selection, got %v", sel)
	}
}

func TestMatchEmptyCandidates(t *testing.T) {
	m := &Match{}
	sel, err := m.Pick(context.Background(), nil, "anything")
	if err != nil || sel != nil {
		t.Errorf("Expected empty outcome for no candidates, got %v, %v", sel, err)
	}
}
