package views

import "github.com/papergraph/papergraph/graph"

// FilterPrefs are the raw display toggles a caller hands over. They are
// not applied directly; ResolveMode reduces them to a single display mode
// first. The zero value hides everything, DefaultPrefs shows everything.
type FilterPrefs struct {
	ShowClaims         bool   `json:"show_claims"`
	ShowObservations   bool   `json:"show_observations"`
	ShowPremise        bool   `json:"show_premise"`
	ShowVariant        bool   `json:"show_variant"`
	ShowContradiction  bool   `json:"show_contradiction"`
	ShowSupports       bool   `json:"show_supports"`
	ShowContradicts    bool   `json:"show_contradicts"`
	ShowContextualizes bool   `json:"show_contextualizes"`
	FocusNode          string `json:"focus_node,omitempty"`
	OnlyContradictions bool   `json:"only_contradictions,omitempty"`
}

// DefaultPrefs returns preferences with every switch on.
func DefaultPrefs() FilterPrefs {
	return FilterPrefs{
		ShowClaims:         true,
		ShowObservations:   true,
		ShowPremise:        true,
		ShowVariant:        true,
		ShowContradiction:  true,
		ShowSupports:       true,
		ShowContradicts:    true,
		ShowContextualizes: true,
	}
}

func (p FilterPrefs) allFlagsOn() bool {
	return p.ShowClaims && p.ShowObservations &&
		p.ShowPremise && p.ShowVariant && p.ShowContradiction &&
		p.ShowSupports && p.ShowContradicts && p.ShowContextualizes
}

func (p FilterPrefs) allowsNode(n *graph.Node) bool {
	switch n.Type {
	case graph.NodeClaim:
		return p.ShowClaims
	case graph.NodeObservation:
		return p.ShowObservations
	}
	return false
}

func (p FilterPrefs) allowsEdge(typ string) bool {
	switch typ {
	case graph.RelPremise:
		return p.ShowPremise
	case graph.RelVariant:
		return p.ShowVariant
	case graph.RelContradiction:
		return p.ShowContradiction
	case graph.RelSupports:
		return p.ShowSupports
	case graph.RelContradicts:
		return p.ShowContradicts
	case graph.RelContextualizes:
		return p.ShowContextualizes
	}
	return false
}

// Mode enumerates the display modes a graph view can be in. Exactly one
// is active at a time.
type Mode int

const (
	ModeShowAll Mode = iota
	ModeFilter
	ModeFocus
	ModeContradictions
)

func (m Mode) String() string {
	switch m {
	case ModeShowAll:
		return "show_all"
	case ModeFilter:
		return "filter_by_type"
	case ModeFocus:
		return "focus_on"
	case ModeContradictions:
		return "highlight_contradictions"
	}
	return "unknown"
}

// DisplayMode is the resolved display state applied to a graph. Prefs is
// only consulted in filter mode, Focus only in focus mode.
type DisplayMode struct {
	Mode  Mode        `json:"mode"`
	Prefs FilterPrefs `json:"prefs,omitempty"`
	Focus string      `json:"focus,omitempty"`
}

// ResolveMode reduces raw preferences to the single active display mode.
// Contradiction highlighting takes precedence over focus, focus over type
// filtering; preferences with every switch on and no focus resolve to
// show-all.
func ResolveMode(p FilterPrefs) DisplayMode {
	switch {
	case p.OnlyContradictions:
		return DisplayMode{Mode: ModeContradictions}
	case p.FocusNode != "":
		return DisplayMode{Mode: ModeFocus, Focus: p.FocusNode}
	case !p.allFlagsOn():
		return DisplayMode{Mode: ModeFilter, Prefs: p}
	default:
		return DisplayMode{Mode: ModeShowAll}
	}
}

// Apply restricts a graph according to the display mode and returns the
// derived view. The input graph is never modified; show-all returns it
// as is.
func Apply(g *graph.Graph, m DisplayMode) *graph.Graph {
	switch m.Mode {
	case ModeFilter:
		kept := make(map[string]bool, len(g.Nodes))
		nodes := make([]*graph.Node, 0, len(g.Nodes))
		for _, n := range g.Nodes {
			if m.Prefs.allowsNode(n) {
				kept[n.ID] = true
				nodes = append(nodes, n)
			}
		}
		edges := make([]*graph.Edge, 0, len(g.Edges))
		for _, e := range g.Edges {
			if m.Prefs.allowsEdge(e.Type) && kept[e.Source] && kept[e.Target] {
				edges = append(edges, e)
			}
		}
		return g.Derive(nodes, edges)

	case ModeFocus:
		// Focus narrows edges to those touching the focal node. Every
		// node stays visible so the surrounding graph keeps its shape.
		edges := make([]*graph.Edge, 0, len(g.Edges))
		for _, e := range g.Edges {
			if e.Source == m.Focus || e.Target == m.Focus {
				edges = append(edges, e)
			}
		}
		return g.Derive(g.Nodes, edges)

	case ModeContradictions:
		// Node kind toggles do not apply here; membership in a
		// contradiction is the only criterion.
		set := Contradictions(g)
		nodes := make([]*graph.Node, 0, len(set))
		for _, n := range g.Nodes {
			if set[n.ID] {
				nodes = append(nodes, n)
			}
		}
		edges := make([]*graph.Edge, 0, len(g.Edges))
		for _, e := range g.Edges {
			if e.Type == graph.RelContradiction || e.Type == graph.RelContradicts {
				edges = append(edges, e)
			}
		}
		return g.Derive(nodes, edges)
	}
	return g
}
