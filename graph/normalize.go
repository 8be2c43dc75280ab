package graph

import "github.com/papergraph/papergraph/record"

// DroppedEdges counts the links removed at each normalization step.
type DroppedEdges struct {
	Duplicates int `json:"duplicates"`
	SelfLoops  int `json:"self_loops"`
	Dangling   int `json:"dangling"`
	Parallel   int `json:"parallel"`
}

// Total is the number of links that did not survive normalization.
func (d DroppedEdges) Total() int {
	return d.Duplicates + d.SelfLoops + d.Dangling + d.Parallel
}

// normalizeEdges rewrites links onto canonical endpoints. In order:
// duplicate links are dropped (the resolver already consumed them),
// endpoints are remapped to canonical ids with unmapped ids passing
// through, then self-loops and edges with a missing endpoint are dropped,
// and finally parallel edges of the same type collapse to the first seen,
// comparing endpoints without direction.
func normalizeEdges(links []record.Link, remap map[string]string, nodes map[string]bool) ([]*Edge, DroppedEdges) {
	edges := make([]*Edge, 0, len(links))
	seen := make(map[string]bool, len(links))
	var dropped DroppedEdges
	for _, l := range links {
		if l.Content.LinkType == RelDuplicate {
			dropped.Duplicates++
			continue
		}
		src, tgt := l.FromID, l.ToID
		if canon, ok := remap[src]; ok {
			src = canon
		}
		if canon, ok := remap[tgt]; ok {
			tgt = canon
		}
		if src == tgt {
			dropped.SelfLoops++
			continue
		}
		if !nodes[src] || !nodes[tgt] {
			dropped.Dangling++
			continue
		}
		key := pairKey(src, tgt, l.Content.LinkType)
		if seen[key] {
			dropped.Parallel++
			continue
		}
		seen[key] = true
		edges = append(edges, &Edge{
			Source:    src,
			Target:    tgt,
			Type:      l.Content.LinkType,
			Category:  l.Content.LinkCategory,
			Reasoning: l.Content.Reasoning,
			Strength:  l.Content.Strength,
		})
	}
	return edges, dropped
}

// pairKey identifies an edge by its unordered endpoint pair and type.
func pairKey(a, b, typ string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b + "|" + typ
}
