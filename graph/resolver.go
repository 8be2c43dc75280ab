package graph

import "github.com/papergraph/papergraph/record"

// unionFind groups entity ids by duplicate links. Path compression plus
// union by rank keeps resolution near-linear in the number of links.
type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind(ids []string) *unionFind {
	u := &unionFind{
		parent: make(map[string]string, len(ids)),
		rank:   make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		u.parent[id] = id
		u.rank[id] = 0
	}
	return u
}

func (u *unionFind) find(x string) string {
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}

func (u *unionFind) contains(id string) bool {
	_, ok := u.parent[id]
	return ok
}

// ResolveDuplicates groups ids connected by duplicate links and maps every
// id to the representative of its group. Ids with no duplicate link map to
// themselves. Links whose type is not duplicate, or whose endpoints are
// unknown, are ignored. Duplicate links are symmetric, so a-b and b-a
// produce the same grouping, and chains merge transitively: a-b plus b-c
// puts a, b and c in one group.
func ResolveDuplicates(ids []string, links []record.Link) map[string]string {
	u := newUnionFind(ids)
	for _, l := range links {
		if l.Content.LinkType != RelDuplicate {
			continue
		}
		if !u.contains(l.FromID) || !u.contains(l.ToID) {
			continue
		}
		u.union(l.FromID, l.ToID)
	}
	roots := make(map[string]string, len(ids))
	for _, id := range ids {
		roots[id] = u.find(id)
	}
	return roots
}
