package graph

import (
	"log/slog"

	"github.com/papergraph/papergraph/record"
)

// MergedIDPrefix prefixes every canonical id minted for a duplicate group.
const MergedIDPrefix = "merged-"

// TypeConflict records a duplicate link that joined two entities of
// different kinds. Such links are rejected before grouping; the entities
// stay separate nodes.
type TypeConflict struct {
	FromID   string `json:"from_id"`
	ToID     string `json:"to_id"`
	FromType string `json:"from_type"`
	ToType   string `json:"to_type"`
}

// Result is the outcome of consolidating one extraction record.
type Result struct {
	Graph     *Graph
	Conflicts []TypeConflict
	Dropped   DroppedEdges
}

// member is one entity's contribution to a canonical node, in a shape
// common to claims and observations.
type member struct {
	id        string
	paperID   string
	typ       string
	label     string
	reasoning string
	obsType   string
	methodRef string
	sources   []string
	extra     map[string]any
}

// Consolidate folds duplicate groups into canonical nodes and rewrites
// links into normalized edges. The input record is not modified. Output
// order is deterministic for a given record: nodes follow first appearance
// in the claims-then-observations order, edges follow link order.
func Consolidate(lib *record.Library) *Result {
	slog.Info("consolidation starting",
		"papers", len(lib.Papers),
		"claims", len(lib.Claims),
		"observations", len(lib.Observations),
		"methods", len(lib.Methods),
		"links", len(lib.Links))

	members := collectMembers(lib)
	ids := make([]string, len(members))
	typeOf := make(map[string]string, len(members))
	for i, m := range members {
		ids[i] = m.id
		typeOf[m.id] = m.typ
	}

	// Duplicate links across node kinds are conflicts, not merges. They
	// are withheld from the resolver so neither endpoint is grouped by
	// them, and reported for diagnostics.
	links := make([]record.Link, 0, len(lib.Links))
	var conflicts []TypeConflict
	for _, l := range lib.Links {
		if l.Content.LinkType == RelDuplicate {
			fromType, fromOK := typeOf[l.FromID]
			toType, toOK := typeOf[l.ToID]
			if fromOK && toOK && fromType != toType {
				c := TypeConflict{FromID: l.FromID, ToID: l.ToID, FromType: fromType, ToType: toType}
				conflicts = append(conflicts, c)
				slog.Warn("duplicate link joins different node types",
					"from", c.FromID, "from_type", c.FromType,
					"to", c.ToID, "to_type", c.ToType)
				continue
			}
		}
		links = append(links, l)
	}

	roots := ResolveDuplicates(ids, links)
	groupSize := make(map[string]int, len(roots))
	for _, root := range roots {
		groupSize[root]++
	}

	nodes, remap := buildNodes(members, roots, groupSize)
	nodeSet := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		nodeSet[n.ID] = true
	}
	edges, dropped := normalizeEdges(lib.Links, remap, nodeSet)

	g := New(nodes, edges, lib.Papers, lib.Methods)
	merged := 0
	for _, n := range nodes {
		if n.IsMerged {
			merged++
		}
	}
	slog.Info("consolidation complete",
		"nodes", len(nodes),
		"edges", len(edges),
		"merged", merged,
		"conflicts", len(conflicts),
		"dropped_links", dropped.Total())
	return &Result{Graph: g, Conflicts: conflicts, Dropped: dropped}
}

// collectMembers flattens claims and observations, in that order, into the
// common member shape.
func collectMembers(lib *record.Library) []member {
	members := make([]member, 0, len(lib.Claims)+len(lib.Observations))
	for _, c := range lib.Claims {
		members = append(members, member{
			id:        c.ID,
			paperID:   c.PaperID,
			typ:       NodeClaim,
			label:     c.Content.RephrasedClaim,
			reasoning: c.Content.Reasoning,
			sources:   sourceIDs(c.Content.SourceElements),
			extra:     c.Content.Extra,
		})
	}
	for _, o := range lib.Observations {
		members = append(members, member{
			id:        o.ID,
			paperID:   o.PaperID,
			typ:       NodeObservation,
			label:     o.Content.ObservationSummary,
			obsType:   o.Content.ObservationType,
			methodRef: o.Content.MethodReference,
			sources:   sourceIDs(o.Content.SourceElements),
			extra:     o.Content.Extra,
		})
	}
	return members
}

func sourceIDs(elements []record.SourceElement) []string {
	if len(elements) == 0 {
		return nil
	}
	ids := make([]string, len(elements))
	for i, el := range elements {
		ids[i] = el.SourceElementID
	}
	return ids
}

// buildNodes emits one canonical node per duplicate group, positioned at
// the group's first member, plus the endpoint remap used by edge
// normalization. The group representative is the resolver root; its label
// and content stand for the whole group, while per-paper attribution is
// the union over members.
func buildNodes(members []member, roots map[string]string, groupSize map[string]int) ([]*Node, map[string]string) {
	groups := make(map[string][]member, len(groupSize))
	for _, m := range members {
		root := roots[m.id]
		groups[root] = append(groups[root], m)
	}

	nodes := make([]*Node, 0, len(groupSize))
	remap := make(map[string]string, len(members))
	emitted := make(map[string]bool, len(groupSize))
	for _, m := range members {
		root := roots[m.id]
		if groupSize[root] == 1 {
			remap[m.id] = m.id
			nodes = append(nodes, singletonNode(m))
			continue
		}
		remap[m.id] = MergedIDPrefix + root
		if emitted[root] {
			continue
		}
		emitted[root] = true
		nodes = append(nodes, mergedNode(root, groups[root]))
	}
	return nodes, remap
}

func singletonNode(m member) *Node {
	n := &Node{
		ID:               m.id,
		Type:             m.typ,
		Label:            m.label,
		SourceElementIDs: m.sources,
		Reasoning:        m.reasoning,
		ObservationType:  m.obsType,
		MethodRef:        m.methodRef,
		Extra:            m.extra,
	}
	if m.paperID != "" {
		n.PaperIDs = []string{m.paperID}
	}
	return n
}

func mergedNode(root string, group []member) *Node {
	var rep member
	for _, m := range group {
		if m.id == root {
			rep = m
			break
		}
	}

	n := &Node{
		ID:              MergedIDPrefix + root,
		Type:            rep.typ,
		Label:           rep.label,
		Reasoning:       rep.reasoning,
		ObservationType: rep.obsType,
		MethodRef:       rep.methodRef,
		Extra:           rep.extra,
		IsMerged:        true,
		MergedIDs:       make([]string, 0, len(group)),
		Members:         make([]Member, 0, len(group)),
	}
	seenPaper := make(map[string]bool, len(group))
	seenSource := make(map[string]bool)
	for _, m := range group {
		n.MergedIDs = append(n.MergedIDs, m.id)
		n.Members = append(n.Members, Member{
			ID:              m.id,
			PaperID:         m.paperID,
			Label:           m.label,
			Reasoning:       m.reasoning,
			ObservationType: m.obsType,
			MethodRef:       m.methodRef,
		})
		if m.paperID != "" && !seenPaper[m.paperID] {
			seenPaper[m.paperID] = true
			n.PaperIDs = append(n.PaperIDs, m.paperID)
		}
		for _, s := range m.sources {
			if !seenSource[s] {
				seenSource[s] = true
				n.SourceElementIDs = append(n.SourceElementIDs, s)
			}
		}
	}
	return n
}
