// Package export writes consolidated graph snapshots to disk for use
// outside the engine: spreadsheet workbooks for manual review, JSON and
// YAML documents for other tools.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/papergraph/papergraph/graph"
)

// ErrUnknownFormat is returned when the output path's extension names no
// known export format.
var ErrUnknownFormat = errors.New("export: unknown format")

// Document is the serialized shape of a graph export.
type Document struct {
	Name  string       `json:"name"`
	Stats graph.Stats  `json:"stats"`
	Nodes []*graph.Node `json:"nodes"`
	Edges []*graph.Edge `json:"edges"`
}

// WriteFile writes a snapshot's graph to path, choosing the format by
// extension: .xlsx, .json, .yaml or .yml.
func WriteFile(path, name string, g *graph.Graph) error {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "xlsx":
		return writeXLSX(path, name, g)
	case "json":
		return writeJSON(path, name, g)
	case "yaml", "yml":
		return writeYAML(path, name, g)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Ext(path))
	}
}

func writeJSON(path, name string, g *graph.Graph) error {
	doc := Document{Name: name, Stats: g.Stats(), Nodes: g.Nodes, Edges: g.Edges}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// writeYAML goes through JSON first so the YAML keys match the JSON
// export instead of Go field names.
func writeYAML(path, name string, g *graph.Graph) error {
	doc := Document{Name: name, Stats: g.Stats(), Nodes: g.Nodes, Edges: g.Edges}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(jsonData, &generic); err != nil {
		return fmt.Errorf("converting graph: %w", err)
	}
	data, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
