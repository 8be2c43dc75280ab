package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/papergraph/papergraph/graph"
	"github.com/papergraph/papergraph/views"
)

// writeXLSX writes a workbook with one sheet per concern: nodes, edges,
// papers, and a per-claim evidence summary.
func writeXLSX(path, name string, g *graph.Graph) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDDDDD"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := writeNodesSheet(f, g, headerStyle); err != nil {
		return err
	}
	if err := writeEdgesSheet(f, g, headerStyle); err != nil {
		return err
	}
	if err := writePapersSheet(f, g, headerStyle); err != nil {
		return err
	}
	if err := writeEvidenceSheet(f, g, headerStyle); err != nil {
		return err
	}

	f.SetAppProps(&excelize.AppProperties{Application: "papergraph"})
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// labelMax caps cell text so one long claim does not blow up row heights.
const labelMax = 300

func sheetHeader(f *excelize.File, sheet string, style int, cols []string) error {
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeNodesSheet(f *excelize.File, g *graph.Graph, style int) error {
	const sheet = "Nodes"
	// Rename the default sheet rather than leaving an empty Sheet1 around.
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	cols := []string{"ID", "Type", "Label", "Merged", "Merged IDs", "Papers", "Method", "Observation Type"}
	if err := sheetHeader(f, sheet, style, cols); err != nil {
		return err
	}
	for i, n := range g.Nodes {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			n.ID, n.Type, views.Truncate(n.Label, labelMax),
			n.IsMerged, strings.Join(n.MergedIDs, ", "),
			strings.Join(n.PaperIDs, ", "), n.MethodRef, n.ObservationType,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing node row: %w", err)
		}
	}
	f.SetColWidth(sheet, "C", "C", 80)
	return nil
}

func writeEdgesSheet(f *excelize.File, g *graph.Graph, style int) error {
	const sheet = "Edges"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	cols := []string{"Source", "Target", "Type", "Category", "Strength", "Reasoning"}
	if err := sheetHeader(f, sheet, style, cols); err != nil {
		return err
	}
	for i, e := range g.Edges {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{e.Source, e.Target, e.Type, e.Category}
		if e.Strength != nil {
			row = append(row, *e.Strength)
		} else {
			row = append(row, "")
		}
		row = append(row, views.Truncate(e.Reasoning, labelMax))
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing edge row: %w", err)
		}
	}
	f.SetColWidth(sheet, "F", "F", 80)
	return nil
}

func writePapersSheet(f *excelize.File, g *graph.Graph, style int) error {
	const sheet = "Papers"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	cols := []string{"ID", "Citation", "Title", "Year", "Journal", "DOI", "Filename"}
	if err := sheetHeader(f, sheet, style, cols); err != nil {
		return err
	}
	for i, p := range g.Papers() {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{p.ID, views.Citation(p), p.Title, p.Year, p.Journal, p.DOI, p.Filename}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing paper row: %w", err)
		}
	}
	f.SetColWidth(sheet, "C", "C", 60)
	return nil
}

// writeEvidenceSheet emits one row per claim with its evidence landscape,
// so reviewers can sort claims by support without opening the app.
func writeEvidenceSheet(f *excelize.File, g *graph.Graph, style int) error {
	const sheet = "Evidence"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	cols := []string{"Claim ID", "Claim", "Supports", "Contradicts", "Contextualizes", "Total", "Methods", "Provenance"}
	if err := sheetHeader(f, sheet, style, cols); err != nil {
		return err
	}
	rowNum := 2
	for _, n := range g.Nodes {
		if n.Type != graph.NodeClaim {
			continue
		}
		ev := views.EvidenceFor(g, n.ID)
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		row := []any{
			n.ID, views.Truncate(n.Label, labelMax),
			ev.Counts.Supports, ev.Counts.Contradicts, ev.Counts.Contextualizes,
			ev.Counts.Total, ev.MethodCount, ev.Provenance,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing evidence row: %w", err)
		}
		rowNum++
	}
	f.SetColWidth(sheet, "B", "B", 80)
	return nil
}
