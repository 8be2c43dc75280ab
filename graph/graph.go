package graph

import (
	"github.com/papergraph/papergraph/record"
)

// Node types.
const (
	NodeClaim       = "claim"
	NodeObservation = "observation"
)

// Relation types carried by input links and normalized edges.
const (
	RelPremise        = "premise"
	RelVariant        = "variant"
	RelContradiction  = "contradiction"
	RelSupports       = "supports"
	RelContradicts    = "contradicts"
	RelContextualizes = "contextualizes"
	RelDuplicate      = "duplicate"
)

// Link categories.
const (
	CategoryClaimClaim       = "claim_to_claim"
	CategoryClaimObservation = "claim_to_observation"
)

// Node is one canonical node of the consolidated graph. A node either
// stands for a single extracted entity or, when IsMerged is set, for a
// duplicate group whose id is "merged-" plus the representative member id.
type Node struct {
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Label            string   `json:"label"`
	PaperIDs         []string `json:"paper_ids,omitempty"`
	SourceElementIDs []string `json:"source_element_ids,omitempty"`
	MergedIDs        []string `json:"merged_ids,omitempty"`
	IsMerged         bool     `json:"is_merged,omitempty"`
	Reasoning        string   `json:"reasoning,omitempty"`
	ObservationType  string   `json:"observation_type,omitempty"`
	MethodRef        string   `json:"method_reference,omitempty"`
	Members          []Member `json:"members,omitempty"`

	// Extra carries the representative member's unrecognized content
	// fields through consolidation untouched.
	Extra map[string]any `json:"extra,omitempty"`
}

// Member preserves one merged member's own identity and display text so a
// merge can be inspected after the fact. Singleton nodes have no members.
type Member struct {
	ID              string `json:"id"`
	PaperID         string `json:"paper_id,omitempty"`
	Label           string `json:"label"`
	Reasoning       string `json:"reasoning,omitempty"`
	ObservationType string `json:"observation_type,omitempty"`
	MethodRef       string `json:"method_reference,omitempty"`
}

// Edge is a normalized relation between two canonical nodes. Both
// endpoints are guaranteed to exist in the owning graph and to differ.
type Edge struct {
	Source    string   `json:"source"`
	Target    string   `json:"target"`
	Type      string   `json:"type"`
	Category  string   `json:"category,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
	Strength  *float64 `json:"strength,omitempty"`
}

// Graph is an immutable consolidated graph. Node and edge order is the
// deterministic consolidation order; lookups go through the id index.
// Mutating a Graph after construction is not supported; derived views
// are built with Derive.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`

	nodeByID map[string]*Node
	papers   map[string]record.Paper
	methods  map[string]record.Method
}

// New builds a graph over already-consolidated nodes and edges, indexing
// nodes by id and keeping paper and method records for attribution.
func New(nodes []*Node, edges []*Edge, papers []record.Paper, methods []record.Method) *Graph {
	g := &Graph{
		Nodes:    nodes,
		Edges:    edges,
		nodeByID: make(map[string]*Node, len(nodes)),
		papers:   make(map[string]record.Paper, len(papers)),
		methods:  make(map[string]record.Method, len(methods)),
	}
	for _, n := range nodes {
		g.nodeByID[n.ID] = n
	}
	for _, p := range papers {
		g.papers[p.ID] = p
	}
	for _, m := range methods {
		g.methods[m.ID] = m
	}
	return g
}

// Node returns the canonical node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodeByID[id]
	return n, ok
}

// Paper returns the paper record with the given id.
func (g *Graph) Paper(id string) (record.Paper, bool) {
	p, ok := g.papers[id]
	return p, ok
}

// Method returns the method record with the given id.
func (g *Graph) Method(id string) (record.Method, bool) {
	m, ok := g.methods[id]
	return m, ok
}

// Papers returns all paper records in unspecified order.
func (g *Graph) Papers() []record.Paper {
	papers := make([]record.Paper, 0, len(g.papers))
	for _, p := range g.papers {
		papers = append(papers, p)
	}
	return papers
}

// Methods returns all method records in unspecified order.
func (g *Graph) Methods() []record.Method {
	methods := make([]record.Method, 0, len(g.methods))
	for _, m := range g.methods {
		methods = append(methods, m)
	}
	return methods
}

// Derive returns a new graph restricted to the given nodes and edges,
// sharing the paper and method tables with the receiver. The receiver is
// left untouched.
func (g *Graph) Derive(nodes []*Node, edges []*Edge) *Graph {
	out := &Graph{
		Nodes:    nodes,
		Edges:    edges,
		nodeByID: make(map[string]*Node, len(nodes)),
		papers:   g.papers,
		methods:  g.methods,
	}
	for _, n := range nodes {
		out.nodeByID[n.ID] = n
	}
	return out
}

// Stats summarizes a graph for listings and exports.
type Stats struct {
	Nodes        int            `json:"nodes"`
	Edges        int            `json:"edges"`
	Claims       int            `json:"claims"`
	Observations int            `json:"observations"`
	Merged       int            `json:"merged"`
	Papers       int            `json:"papers"`
	Methods      int            `json:"methods"`
	EdgesByType  map[string]int `json:"edges_by_type,omitempty"`
}

// Stats counts nodes by kind and edges by relation type.
func (g *Graph) Stats() Stats {
	st := Stats{
		Nodes:   len(g.Nodes),
		Edges:   len(g.Edges),
		Papers:  len(g.papers),
		Methods: len(g.methods),
	}
	for _, n := range g.Nodes {
		switch n.Type {
		case NodeClaim:
			st.Claims++
		case NodeObservation:
			st.Observations++
		}
		if n.IsMerged {
			st.Merged++
		}
	}
	if len(g.Edges) > 0 {
		st.EdgesByType = make(map[string]int)
		for _, e := range g.Edges {
			st.EdgesByType[e.Type]++
		}
	}
	return st
}
