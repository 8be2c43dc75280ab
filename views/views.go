package views

import "github.com/papergraph/papergraph/graph"

// Variant is a node joined to the focal node by a variant edge, carrying
// the edge's reasoning about how the two differ.
type Variant struct {
	NodeID    string `json:"node_id"`
	Label     string `json:"label"`
	IsMerged  bool   `json:"is_merged,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Variants lists the variant neighbors of a node in edge order. An
// unknown id yields nil.
func Variants(g *graph.Graph, nodeID string) []Variant {
	if _, ok := g.Node(nodeID); !ok {
		return nil
	}
	var out []Variant
	for _, e := range g.Edges {
		if e.Type != graph.RelVariant {
			continue
		}
		var otherID string
		switch nodeID {
		case e.Source:
			otherID = e.Target
		case e.Target:
			otherID = e.Source
		default:
			continue
		}
		v := Variant{NodeID: otherID, Reasoning: e.Reasoning}
		if n, ok := g.Node(otherID); ok {
			v.Label = n.Label
			v.IsMerged = n.IsMerged
		}
		out = append(out, v)
	}
	return out
}

// ConnectedClaim is a claim attached to the focal observation.
type ConnectedClaim struct {
	NodeID    string `json:"node_id"`
	Label     string `json:"label"`
	IsMerged  bool   `json:"is_merged,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// ClaimGroup collects the claims connected through one relation type.
type ClaimGroup struct {
	Type   string           `json:"type"`
	Claims []ConnectedClaim `json:"claims"`
}

// ConnectedClaims lists the claims attached to an observation, grouped by
// relation type in supports, contradicts, contextualizes order with empty
// types omitted. The id must name an observation; anything else yields
// nil.
func ConnectedClaims(g *graph.Graph, observationID string) []ClaimGroup {
	node, ok := g.Node(observationID)
	if !ok || node.Type != graph.NodeObservation {
		return nil
	}
	byType := make(map[string][]ConnectedClaim, len(evidenceOrder))
	for _, e := range g.Edges {
		if e.Category != graph.CategoryClaimObservation {
			continue
		}
		var otherID string
		switch observationID {
		case e.Source:
			otherID = e.Target
		case e.Target:
			otherID = e.Source
		default:
			continue
		}
		cc := ConnectedClaim{NodeID: otherID, Reasoning: e.Reasoning}
		if n, found := g.Node(otherID); found {
			cc.Label = n.Label
			cc.IsMerged = n.IsMerged
		}
		byType[e.Type] = append(byType[e.Type], cc)
	}
	var out []ClaimGroup
	for _, typ := range evidenceOrder {
		if claims := byType[typ]; len(claims) > 0 {
			out = append(out, ClaimGroup{Type: typ, Claims: claims})
		}
	}
	return out
}

// Contradictions returns the set of node ids touching at least one
// contradiction or contradicts edge.
func Contradictions(g *graph.Graph) map[string]bool {
	set := make(map[string]bool)
	for _, e := range g.Edges {
		if e.Type == graph.RelContradiction || e.Type == graph.RelContradicts {
			set[e.Source] = true
			set[e.Target] = true
		}
	}
	return set
}

// Neighbors lists the distinct node ids sharing an edge with the given
// node, in edge order. An unknown id yields nil.
func Neighbors(g *graph.Graph, nodeID string) []string {
	if _, ok := g.Node(nodeID); !ok {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, e := range g.Edges {
		var otherID string
		switch nodeID {
		case e.Source:
			otherID = e.Target
		case e.Target:
			otherID = e.Source
		default:
			continue
		}
		if !seen[otherID] {
			seen[otherID] = true
			out = append(out, otherID)
		}
	}
	return out
}
