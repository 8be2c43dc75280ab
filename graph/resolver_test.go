package graph

import (
	"testing"

	"github.com/papergraph/papergraph/record"
)

func dupLink(from, to string) record.Link {
	return record.Link{
		FromID: from,
		ToID:   to,
		Content: record.LinkContent{
			LinkType:     RelDuplicate,
			LinkCategory: CategoryClaimClaim,
		},
	}
}

func TestResolveDuplicatesGroups(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	links := []record.Link{dupLink("a", "b"), dupLink("b", "c")}

	roots := ResolveDuplicates(ids, links)
	if roots["a"] != roots["b"] || roots["b"] != roots["c"] {
		t.Errorf("chain a-b, b-c did not form one group: %v", roots)
	}
	if roots["d"] != "d" {
		t.Errorf("unlinked id root = %q, want d", roots["d"])
	}
	root := roots["a"]
	if root != "a" && root != "b" && root != "c" {
		t.Errorf("root %q is not a group member", root)
	}
}

func TestResolveDuplicatesSymmetric(t *testing.T) {
	ids := []string{"a", "b"}
	forward := ResolveDuplicates(ids, []record.Link{dupLink("a", "b")})
	reverse := ResolveDuplicates(ids, []record.Link{dupLink("b", "a")})
	if forward["a"] != forward["b"] {
		t.Error("a-b did not group")
	}
	if reverse["a"] != reverse["b"] {
		t.Error("b-a did not group")
	}
}

func TestResolveDuplicatesIgnoresOtherLinkTypes(t *testing.T) {
	ids := []string{"a", "b"}
	links := []record.Link{{
		FromID:  "a",
		ToID:    "b",
		Content: record.LinkContent{LinkType: RelSupports, LinkCategory: CategoryClaimObservation},
	}}
	roots := ResolveDuplicates(ids, links)
	if roots["a"] == roots["b"] {
		t.Error("supports link must not group nodes")
	}
}

func TestResolveDuplicatesIgnoresUnknownIDs(t *testing.T) {
	ids := []string{"a"}
	roots := ResolveDuplicates(ids, []record.Link{dupLink("a", "ghost")})
	if roots["a"] != "a" {
		t.Errorf("root = %q, want a", roots["a"])
	}
	if _, ok := roots["ghost"]; ok {
		t.Error("unknown id leaked into the resolution")
	}
}

func TestResolveDuplicatesEmpty(t *testing.T) {
	roots := ResolveDuplicates(nil, nil)
	if len(roots) != 0 {
		t.Errorf("empty input produced %d roots", len(roots))
	}
}
