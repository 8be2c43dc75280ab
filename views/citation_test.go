package views

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/papergraph/papergraph/record"
)

func TestCitation(t *testing.T) {
	tests := []struct {
		name  string
		paper record.Paper
		want  string
	}{
		{
			"single author with year",
			record.Paper{Authors: []string{"Jane Lee"}, Year: 2021},
			"Lee (2021)",
		},
		{
			"multiple authors",
			record.Paper{Authors: []string{"Jane Lee", "Bo Xu"}, Year: 2021},
			"Lee et al. (2021)",
		},
		{
			"surname-first form",
			record.Paper{Authors: []string{"Chen, W."}},
			"Chen",
		},
		{
			"no authors falls back to title",
			record.Paper{Title: "Deep Nets and Memory", Year: 2019},
			"Deep Nets and Memory (2019)",
		},
		{
			"no authors or title falls back to filename stem",
			record.Paper{Filename: "preprint-v2.pdf"},
			"preprint-v2",
		},
		{
			"bare id as last resort",
			record.Paper{ID: "paper-9"},
			"paper-9",
		},
	}
	for _, tt := range tests {
		if got := Citation(tt.paper); got != tt.want {
			t.Errorf("%s: Citation() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := "A deliberately long sentence about consolidation of research evidence"
	got := Truncate(long, 40)
	if len(got) > 43 {
		t.Errorf("truncated length = %d: %q", len(got), got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "..."), " ") {
		t.Errorf("dangling space before ellipsis: %q", got)
	}

	short := "short label"
	if got := Truncate(short, 40); got != short {
		t.Errorf("short text changed: %q", got)
	}
	if got := Truncate(long, 0); got != long {
		t.Errorf("zero max changed text: %q", got)
	}
}

func TestTruncateMidRune(t *testing.T) {
	// No spaces, so the cut lands inside a two-byte rune and must back
	// up to keep the output valid UTF-8.
	accented := strings.Repeat("é", 30)
	got := Truncate(accented, 25)
	if !utf8.ValidString(got) {
		t.Errorf("invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got)
	}
	if want := strings.Repeat("é", 12) + "..."; got != want {
		t.Errorf("truncated = %q, want %q", got, want)
	}
}
