package views

import (
	"testing"

	"github.com/papergraph/papergraph/graph"
)

func TestResolveModePrecedence(t *testing.T) {
	tests := []struct {
		name  string
		prefs FilterPrefs
		want  Mode
	}{
		{"all flags on", DefaultPrefs(), ModeShowAll},
		{"one flag off", func() FilterPrefs {
			p := DefaultPrefs()
			p.ShowObservations = false
			return p
		}(), ModeFilter},
		{"focus beats filters", func() FilterPrefs {
			p := DefaultPrefs()
			p.ShowObservations = false
			p.FocusNode = "c1"
			return p
		}(), ModeFocus},
		{"contradictions beat focus", FilterPrefs{FocusNode: "c1", OnlyContradictions: true}, ModeContradictions},
	}
	for _, tt := range tests {
		if got := ResolveMode(tt.prefs); got.Mode != tt.want {
			t.Errorf("%s: mode = %s, want %s", tt.name, got.Mode, tt.want)
		}
	}
}

func TestApplyShowAll(t *testing.T) {
	g := viewGraph()
	if got := Apply(g, ResolveMode(DefaultPrefs())); got != g {
		t.Error("show-all must return the graph unchanged")
	}
}

func TestApplyFilterHidesNodeKind(t *testing.T) {
	g := viewGraph()
	prefs := DefaultPrefs()
	prefs.ShowObservations = false
	sub := Apply(g, ResolveMode(prefs))

	for _, n := range sub.Nodes {
		if n.Type == graph.NodeObservation {
			t.Errorf("observation %s survived the filter", n.ID)
		}
	}
	// Edges touching hidden observations go too, even with their
	// relation switch still on.
	for _, e := range sub.Edges {
		if e.Category == graph.CategoryClaimObservation {
			t.Errorf("claim-to-observation edge survived: %s -> %s", e.Source, e.Target)
		}
	}
	// The source graph is untouched.
	if len(g.Nodes) != 5 {
		t.Errorf("source graph mutated: %d nodes", len(g.Nodes))
	}
}

func TestApplyFilterHidesEdgeType(t *testing.T) {
	g := viewGraph()
	prefs := DefaultPrefs()
	prefs.ShowSupports = false
	sub := Apply(g, ResolveMode(prefs))

	if len(sub.Nodes) != len(g.Nodes) {
		t.Errorf("node count changed: %d, want %d", len(sub.Nodes), len(g.Nodes))
	}
	for _, e := range sub.Edges {
		if e.Type == graph.RelSupports {
			t.Errorf("supports edge survived: %s -> %s", e.Source, e.Target)
		}
	}
	if len(sub.Edges) != len(g.Edges)-2 {
		t.Errorf("edges = %d, want %d", len(sub.Edges), len(g.Edges)-2)
	}
}

func TestApplyFocus(t *testing.T) {
	g := viewGraph()
	sub := Apply(g, ResolveMode(FilterPrefs{FocusNode: "o1"}))

	// Focus keeps every node and only the focal node's edges.
	if len(sub.Nodes) != len(g.Nodes) {
		t.Errorf("focus dropped nodes: %d, want %d", len(sub.Nodes), len(g.Nodes))
	}
	if len(sub.Edges) != 3 {
		t.Fatalf("focus edges = %d, want 3", len(sub.Edges))
	}
	for _, e := range sub.Edges {
		if e.Source != "o1" && e.Target != "o1" {
			t.Errorf("edge %s -> %s does not touch the focus", e.Source, e.Target)
		}
	}
}

func TestApplyFocusUnknownNode(t *testing.T) {
	g := viewGraph()
	sub := Apply(g, ResolveMode(FilterPrefs{FocusNode: "ghost"}))
	if len(sub.Nodes) != len(g.Nodes) || len(sub.Edges) != 0 {
		t.Errorf("unknown focus: nodes=%d edges=%d", len(sub.Nodes), len(sub.Edges))
	}
}

func TestApplyContradictions(t *testing.T) {
	g := viewGraph()
	// Node kind switches are off in the raw prefs; highlighting must
	// ignore them and still show the contradicting claims.
	sub := Apply(g, ResolveMode(FilterPrefs{OnlyContradictions: true}))

	wantNodes := map[string]bool{"c2": true, "c3": true, "o1": true}
	if len(sub.Nodes) != len(wantNodes) {
		t.Fatalf("nodes = %d, want %d", len(sub.Nodes), len(wantNodes))
	}
	for _, n := range sub.Nodes {
		if !wantNodes[n.ID] {
			t.Errorf("unexpected node %s in contradiction view", n.ID)
		}
	}
	for _, e := range sub.Edges {
		if e.Type != graph.RelContradiction && e.Type != graph.RelContradicts {
			t.Errorf("non-contradiction edge survived: %s", e.Type)
		}
	}
	if len(sub.Edges) != 2 {
		t.Errorf("edges = %d, want 2", len(sub.Edges))
	}
}
