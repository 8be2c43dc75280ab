package views

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/papergraph/papergraph/record"
)

// Citation builds a short attribution for a paper: the lead author's
// surname, "et al." when more authors exist, and the year when known.
// Papers without authors fall back to the title, then the filename stem,
// then the id.
func Citation(p record.Paper) string {
	if name := leadSurname(p.Authors); name != "" {
		if len(p.Authors) > 1 {
			name += " et al."
		}
		if p.Year > 0 {
			return fmt.Sprintf("%s (%d)", name, p.Year)
		}
		return name
	}
	if p.Title != "" {
		if p.Year > 0 {
			return fmt.Sprintf("%s (%d)", p.Title, p.Year)
		}
		return p.Title
	}
	if p.Filename != "" {
		return strings.TrimSuffix(p.Filename, filepath.Ext(p.Filename))
	}
	return p.ID
}

// leadSurname extracts the first author's surname, handling both
// "Surname, Given" and "Given Surname" forms.
func leadSurname(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	lead := strings.TrimSpace(authors[0])
	if lead == "" {
		return ""
	}
	if i := strings.IndexByte(lead, ','); i >= 0 {
		return strings.TrimSpace(lead[:i])
	}
	fields := strings.Fields(lead)
	return fields[len(fields)-1]
}
