package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/papergraph/papergraph/graph"
	"github.com/papergraph/papergraph/record"
)

func exportGraph() *graph.Graph {
	lib := &record.Library{
		Papers: []record.Paper{
			{ID: "p1", Title: "Sleep and Memory", Filename: "sleep.pdf", Authors: []string{"Lee, J."}, Year: 2021},
		},
		Claims: []record.Claim{
			{ID: "c1", PaperID: "p1", Content: record.ClaimContent{RephrasedClaim: "Sleep consolidates memory."}},
		},
		Observations: []record.Observation{
			{ID: "o1", PaperID: "p1", Content: record.ObservationContent{
				ObservationSummary: "Recall improved after sleep.",
				MethodReference:    "m1",
			}},
		},
		Methods: []record.Method{
			{ID: "m1", PaperID: "p1", Content: record.MethodContent{MethodSummary: "Paired recall test."}},
		},
		Links: []record.Link{
			{FromID: "c1", ToID: "o1", Content: record.LinkContent{
				LinkType: graph.RelSupports, LinkCategory: graph.CategoryClaimObservation,
			}},
		},
	}
	return graph.Consolidate(lib).Graph
}

func TestWriteFileJSON(t *testing.T) {
	g := exportGraph()
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteFile(path, "test", g); err != nil {
		t.Fatalf("writing json export: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if doc.Name != "test" {
		t.Errorf("name = %q, want test", doc.Name)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Errorf("got %d nodes, %d edges, want 2 and 1", len(doc.Nodes), len(doc.Edges))
	}
	if doc.Stats.Claims != 1 || doc.Stats.Observations != 1 {
		t.Errorf("stats = %+v, want 1 claim and 1 observation", doc.Stats)
	}
}

func TestWriteFileYAML(t *testing.T) {
	g := exportGraph()
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := WriteFile(path, "test", g); err != nil {
		t.Fatalf("writing yaml export: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if doc["name"] != "test" {
		t.Errorf("name = %v, want test", doc["name"])
	}
	nodes, ok := doc["nodes"].([]any)
	if !ok || len(nodes) != 2 {
		t.Errorf("nodes = %v, want 2 entries", doc["nodes"])
	}
}

func TestWriteFileXLSX(t *testing.T) {
	g := exportGraph()
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteFile(path, "test", g); err != nil {
		t.Fatalf("writing xlsx export: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"Nodes", "Edges", "Papers", "Evidence"}
	for _, name := range want {
		found := false
		for _, s := range sheets {
			if s == name {
				found = true
			}
		}
		if !found {
			t.Errorf("missing sheet %s in %v", name, sheets)
		}
	}

	// First node row.
	id, err := f.GetCellValue("Nodes", "A2")
	if err != nil || id != "c1" {
		t.Errorf("Nodes!A2 = %q (%v), want c1", id, err)
	}
	// Evidence counts for the claim.
	supports, err := f.GetCellValue("Evidence", "C2")
	if err != nil || supports != "1" {
		t.Errorf("Evidence!C2 = %q (%v), want 1", supports, err)
	}
	citation, err := f.GetCellValue("Papers", "B2")
	if err != nil || citation != "Lee (2021)" {
		t.Errorf("Papers!B2 = %q (%v), want Lee (2021)", citation, err)
	}
}

func TestWriteFileUnknownFormat(t *testing.T) {
	g := exportGraph()
	err := WriteFile(filepath.Join(t.TempDir(), "out.csv"), "test", g)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}
