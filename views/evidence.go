package views

import (
	"fmt"

	"github.com/papergraph/papergraph/graph"
)

// NoMethod is the method key for observations without a method reference.
const NoMethod = "no_method"

// evidenceOrder fixes how relation types are presented.
var evidenceOrder = []string{graph.RelSupports, graph.RelContradicts, graph.RelContextualizes}

// EvidenceCounts tallies the claim-to-observation edges around a claim.
// Total covers every such edge, including relation types outside the
// three displayed buckets.
type EvidenceCounts struct {
	Supports       int `json:"supports"`
	Contradicts    int `json:"contradicts"`
	Contextualizes int `json:"contextualizes"`
	Total          int `json:"total"`
}

// EvidenceItem is one observation attached to the focal claim, with the
// linking edge's reasoning.
type EvidenceItem struct {
	ObservationID string   `json:"observation_id"`
	Label         string   `json:"label"`
	PaperIDs      []string `json:"paper_ids,omitempty"`
	Reasoning     string   `json:"reasoning,omitempty"`
}

// MethodGroup collects evidence items produced by one method. MethodID is
// NoMethod for observations that reference none.
type MethodGroup struct {
	MethodID    string         `json:"method_id"`
	MethodLabel string         `json:"method_label,omitempty"`
	PaperID     string         `json:"paper_id,omitempty"`
	Items       []EvidenceItem `json:"items"`
}

// TypeGroup collects the method groups for one relation type.
type TypeGroup struct {
	Type    string        `json:"type"`
	Count   int           `json:"count"`
	Methods []MethodGroup `json:"methods"`
}

// Evidence is the aggregated evidence landscape around one claim: counts
// per relation type, items grouped by type then method, and a provenance
// phrase describing how many papers the methods come from.
type Evidence struct {
	ClaimID     string         `json:"claim_id"`
	Counts      EvidenceCounts `json:"counts"`
	Groups      []TypeGroup    `json:"groups,omitempty"`
	MethodCount int            `json:"method_count"`
	PaperCount  int            `json:"paper_count"`
	Provenance  string         `json:"provenance,omitempty"`
}

// typeAccum gathers one relation type's items keyed by method, keeping
// first-appearance method order.
type typeAccum struct {
	count  int
	order  []string
	groups map[string][]EvidenceItem
}

// EvidenceFor aggregates the evidence attached to a claim. An unknown id,
// or a node that is not a claim, yields an empty aggregate with zero
// counts rather than an error. Groups appear in supports, contradicts,
// contextualizes order with empty types omitted.
func EvidenceFor(g *graph.Graph, claimID string) *Evidence {
	ev := &Evidence{ClaimID: claimID}
	node, ok := g.Node(claimID)
	if !ok || node.Type != graph.NodeClaim {
		return ev
	}

	accums := make(map[string]*typeAccum, len(evidenceOrder))
	for _, typ := range evidenceOrder {
		accums[typ] = &typeAccum{groups: make(map[string][]EvidenceItem)}
	}
	methods := make(map[string]bool)

	for _, e := range g.Edges {
		if e.Category != graph.CategoryClaimObservation {
			continue
		}
		var otherID string
		switch claimID {
		case e.Source:
			otherID = e.Target
		case e.Target:
			otherID = e.Source
		default:
			continue
		}
		ev.Counts.Total++
		acc, tracked := accums[e.Type]
		if !tracked {
			continue
		}
		switch e.Type {
		case graph.RelSupports:
			ev.Counts.Supports++
		case graph.RelContradicts:
			ev.Counts.Contradicts++
		case graph.RelContextualizes:
			ev.Counts.Contextualizes++
		}

		obs, found := g.Node(otherID)
		item := EvidenceItem{ObservationID: otherID, Reasoning: e.Reasoning}
		key := NoMethod
		if found {
			item.Label = obs.Label
			item.PaperIDs = obs.PaperIDs
			if obs.MethodRef != "" {
				key = obs.MethodRef
				methods[obs.MethodRef] = true
			}
		}
		acc.count++
		if _, seen := acc.groups[key]; !seen {
			acc.order = append(acc.order, key)
		}
		acc.groups[key] = append(acc.groups[key], item)
	}

	for _, typ := range evidenceOrder {
		acc := accums[typ]
		if acc.count == 0 {
			continue
		}
		tg := TypeGroup{Type: typ, Count: acc.count, Methods: make([]MethodGroup, 0, len(acc.order))}
		for _, key := range acc.order {
			mg := MethodGroup{MethodID: key, Items: acc.groups[key]}
			if key != NoMethod {
				if m, found := g.Method(key); found {
					mg.MethodLabel = m.Content.MethodSummary
					mg.PaperID = m.PaperID
				}
			}
			tg.Methods = append(tg.Methods, mg)
		}
		ev.Groups = append(ev.Groups, tg)
	}

	ev.MethodCount = len(methods)
	papers := make(map[string]bool)
	for id := range methods {
		if m, found := g.Method(id); found && m.PaperID != "" {
			papers[m.PaperID] = true
		}
	}
	ev.PaperCount = len(papers)
	ev.Provenance = provenancePhrase(papers, node.PaperIDs)
	return ev
}

// provenancePhrase describes where the evidence methods come from
// relative to the claim's own papers. No resolvable method papers yields
// an empty phrase.
func provenancePhrase(methodPapers map[string]bool, claimPapers []string) string {
	switch len(methodPapers) {
	case 0:
		return ""
	case 1:
		var only string
		for id := range methodPapers {
			only = id
		}
		for _, id := range claimPapers {
			if id == only {
				return "from the same paper"
			}
		}
		return "from 1 paper"
	default:
		return fmt.Sprintf("across %d papers", len(methodPapers))
	}
}
