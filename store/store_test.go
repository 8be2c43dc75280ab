//go:build cgo

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/papergraph/papergraph/graph"
	"github.com/papergraph/papergraph/record"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleLibrary() *record.Library {
	strength := 0.8
	return &record.Library{
		Papers: []record.Paper{
			{ID: "p1", Title: "Sleep and Memory", Filename: "sleep.pdf", Authors: []string{"Lee, J.", "Xu, B."}, Year: 2021, Journal: "J Sleep Res", DOI: "10.1/abc"},
			{ID: "p2", Title: "Naps in Adults", Filename: "naps.pdf", Year: 2023},
		},
		Claims: []record.Claim{
			{ID: "c1", PaperID: "p1", Content: record.ClaimContent{
				RephrasedClaim: "Sleep consolidates memory.",
				Reasoning:      "Stated in the abstract.",
				SourceElements: []record.SourceElement{{SourceElementID: "el-1"}},
			}},
			{ID: "c2", PaperID: "p2", Content: record.ClaimContent{
				RephrasedClaim: "Memory is consolidated during sleep.",
			}},
			{ID: "c3", PaperID: "p2", Content: record.ClaimContent{
				RephrasedClaim: "REM phases drive consolidation.",
			}},
		},
		Observations: []record.Observation{
			{ID: "o1", PaperID: "p1", Content: record.ObservationContent{
				ObservationSummary: "Recall improved after sleep.",
				ObservationType:    "experimental_result",
				MethodReference:    "m1",
			}},
		},
		Methods: []record.Method{
			{ID: "m1", PaperID: "p1", Content: record.MethodContent{MethodSummary: "Paired recall test.", NovelMethod: true}},
		},
		Links: []record.Link{
			{FromID: "c1", ToID: "c2", Content: record.LinkContent{
				LinkType: graph.RelDuplicate, LinkCategory: graph.CategoryClaimClaim,
			}},
			{FromID: "c1", ToID: "o1", Content: record.LinkContent{
				LinkType: graph.RelSupports, LinkCategory: graph.CategoryClaimObservation, Reasoning: "direct evidence",
			}},
			{FromID: "c3", ToID: "c1", Content: record.LinkContent{
				LinkType: graph.RelPremise, LinkCategory: graph.CategoryClaimClaim, Strength: &strength,
			}},
		},
	}
}

// savedSnapshot consolidates the sample library and persists it under a
// fresh snapshot, returning the store, snapshot id, and the graph as
// consolidated (before any store round trip).
func savedSnapshot(t *testing.T) (*Store, string, *graph.Graph) {
	t.Helper()
	s := newTestStore(t)
	ctx := context.Background()
	lib := sampleLibrary()

	const id = "snap-1"
	err := s.InsertSnapshot(ctx, Snapshot{
		ID:   id,
		Name: "sample",
		Counts: Counts{
			Papers: len(lib.Papers), Claims: len(lib.Claims),
			Observations: len(lib.Observations), Methods: len(lib.Methods),
		},
	}, mustJSON(t, lib))
	if err != nil {
		t.Fatalf("inserting snapshot: %v", err)
	}

	res := graph.Consolidate(lib)
	if err := s.SaveGraph(ctx, id, res.Graph, len(res.Conflicts)); err != nil {
		t.Fatalf("saving graph: %v", err)
	}
	return s, id, res.Graph
}

func mustJSON(t *testing.T, lib *record.Library) []byte {
	t.Helper()
	data, err := json.Marshal(lib)
	if err != nil {
		t.Fatalf("encoding library: %v", err)
	}
	return data
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "dir", "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	// New already migrated; running again must be a no-op.
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("re-running migrations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Snapshot lifecycle
// ---------------------------------------------------------------------------

func TestSnapshotLifecycle(t *testing.T) {
	s, id, _ := savedSnapshot(t)
	ctx := context.Background()

	snap, err := s.GetSnapshot(ctx, id)
	if err != nil {
		t.Fatalf("getting snapshot: %v", err)
	}
	if snap.Status != StatusReady {
		t.Errorf("status = %s, want %s", snap.Status, StatusReady)
	}
	// c1 and c2 merged: merged claim, c3, o1.
	if snap.Counts.Nodes != 3 || snap.Counts.Merged != 1 {
		t.Errorf("counts = %+v, want 3 nodes, 1 merged", snap.Counts)
	}
	if snap.Counts.Claims != 3 || snap.Counts.Observations != 1 {
		t.Errorf("record counts = %+v, want 3 claims, 1 observation", snap.Counts)
	}

	byName, err := s.GetSnapshotByName(ctx, "sample")
	if err != nil {
		t.Fatalf("getting snapshot by name: %v", err)
	}
	if byName.ID != id {
		t.Errorf("by-name id = %s, want %s", byName.ID, id)
	}

	snaps, err := s.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("listing snapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snaps))
	}
}

func TestGetSnapshotMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSnapshot(context.Background(), "nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestSetSnapshotStatus(t *testing.T) {
	s, id, _ := savedSnapshot(t)
	ctx := context.Background()

	if err := s.SetSnapshotStatus(ctx, id, StatusError, "boom"); err != nil {
		t.Fatalf("setting status: %v", err)
	}
	snap, err := s.GetSnapshot(ctx, id)
	if err != nil {
		t.Fatalf("getting snapshot: %v", err)
	}
	if snap.Status != StatusError || snap.Error != "boom" {
		t.Errorf("got status=%s error=%q, want error/boom", snap.Status, snap.Error)
	}
}

func TestDeleteSnapshotCascades(t *testing.T) {
	s, id, _ := savedSnapshot(t)
	ctx := context.Background()

	if err := s.LogView(ctx, ViewEvent{SnapshotID: id, View: "evidence", Target: "merged-c1"}); err != nil {
		t.Fatalf("logging view: %v", err)
	}
	if err := s.DeleteSnapshot(ctx, id); err != nil {
		t.Fatalf("deleting snapshot: %v", err)
	}

	if _, err := s.GetSnapshot(ctx, id); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("snapshot still present: %v", err)
	}
	for _, table := range []string{"nodes", "edges", "papers", "methods", "view_log"} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE snapshot_id = ?", id).Scan(&n); err != nil {
			t.Fatalf("counting %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s still has %d rows for deleted snapshot", table, n)
		}
	}
	// FTS index is emptied through the delete trigger.
	hits, err := s.SearchNodes(ctx, id, "sleep", 10)
	if err != nil {
		t.Fatalf("searching after delete: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d search hits after delete, want 0", len(hits))
	}
}

// ---------------------------------------------------------------------------
// Graph round trip
// ---------------------------------------------------------------------------

func TestLoadGraphRoundTrip(t *testing.T) {
	s, id, want := savedSnapshot(t)
	ctx := context.Background()

	got, err := s.LoadGraph(ctx, id)
	if err != nil {
		t.Fatalf("loading graph: %v", err)
	}

	if len(got.Nodes) != len(want.Nodes) || len(got.Edges) != len(want.Edges) {
		t.Fatalf("got %d nodes, %d edges; want %d and %d",
			len(got.Nodes), len(got.Edges), len(want.Nodes), len(want.Edges))
	}
	for i, n := range want.Nodes {
		g := got.Nodes[i]
		if g.ID != n.ID || g.Type != n.Type || g.Label != n.Label || g.IsMerged != n.IsMerged {
			t.Errorf("node %d: got %+v, want %+v", i, g, n)
		}
		if len(g.MergedIDs) != len(n.MergedIDs) || len(g.Members) != len(n.Members) {
			t.Errorf("node %d merge data: got %d/%d, want %d/%d",
				i, len(g.MergedIDs), len(g.Members), len(n.MergedIDs), len(n.Members))
		}
	}
	for i, e := range want.Edges {
		g := got.Edges[i]
		if g.Source != e.Source || g.Target != e.Target || g.Type != e.Type {
			t.Errorf("edge %d: got %+v, want %+v", i, g, e)
		}
	}

	// The premise edge carried a strength; it must survive as a pointer.
	var found bool
	for _, e := range got.Edges {
		if e.Type == graph.RelPremise {
			found = true
			if e.Strength == nil || *e.Strength != 0.8 {
				t.Errorf("premise strength = %v, want 0.8", e.Strength)
			}
		}
	}
	if !found {
		t.Error("premise edge missing after round trip")
	}

	if p, ok := got.Paper("p1"); !ok || p.Title != "Sleep and Memory" || len(p.Authors) != 2 {
		t.Errorf("paper p1 = %+v, ok=%v", p, ok)
	}
	if m, ok := got.Method("m1"); !ok || m.Content.MethodSummary != "Paired recall test." || !m.Content.NovelMethod {
		t.Errorf("method m1 = %+v, ok=%v", m, ok)
	}
}

func TestLoadLibraryRoundTrip(t *testing.T) {
	s, id, _ := savedSnapshot(t)

	lib, err := s.LoadLibrary(context.Background(), id)
	if err != nil {
		t.Fatalf("loading library: %v", err)
	}
	if len(lib.Claims) != 3 || len(lib.Observations) != 1 || len(lib.Links) != 3 {
		t.Errorf("got %d claims, %d observations, %d links; want 3, 1, 3",
			len(lib.Claims), len(lib.Observations), len(lib.Links))
	}
	if lib.Claims[0].Content.RephrasedClaim != "Sleep consolidates memory." {
		t.Errorf("claim text lost: %q", lib.Claims[0].Content.RephrasedClaim)
	}
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

func TestSearchNodes(t *testing.T) {
	s, id, _ := savedSnapshot(t)
	ctx := context.Background()

	hits, err := s.SearchNodes(ctx, id, "recall", 10)
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].NodeID != "o1" || hits[0].Type != graph.NodeObservation {
		t.Errorf("hit = %+v, want observation o1", hits[0])
	}
	if hits[0].Score <= 0 {
		t.Errorf("score = %f, want > 0", hits[0].Score)
	}
}

func TestSearchNodesQuoting(t *testing.T) {
	s, id, _ := savedSnapshot(t)
	// Raw FTS syntax in user input must not error out.
	if _, err := s.SearchNodes(context.Background(), id, `sleep AND "mem*`, 10); err != nil {
		t.Fatalf("search with FTS metacharacters: %v", err)
	}
}

func TestSearchNodesEmptyQuery(t *testing.T) {
	s, id, _ := savedSnapshot(t)
	hits, err := s.SearchNodes(context.Background(), id, "   ", 10)
	if err != nil || hits != nil {
		t.Fatalf("empty query: hits=%v err=%v, want nil/nil", hits, err)
	}
}

// ---------------------------------------------------------------------------
// Paper file intake
// ---------------------------------------------------------------------------

func TestPaperFileQueue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pf := PaperFile{ID: "f1", Filename: "new.pdf", Title: "A New Paper", Pages: 12, ContentHash: "hash-1"}
	if err := s.InsertPaperFile(ctx, pf); err != nil {
		t.Fatalf("inserting paper file: %v", err)
	}

	byHash, err := s.GetPaperFileByHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("getting by hash: %v", err)
	}
	if byHash.ID != "f1" || byHash.Status != StatusQueued {
		t.Errorf("got %+v, want f1 queued", byHash)
	}

	if _, err := s.GetPaperFileByHash(ctx, "other"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for unknown hash, got %v", err)
	}

	files, err := s.ListPaperFiles(ctx)
	if err != nil {
		t.Fatalf("listing paper files: %v", err)
	}
	if len(files) != 1 || files[0].Title != "A New Paper" {
		t.Errorf("files = %+v, want one titled entry", files)
	}
}

// ---------------------------------------------------------------------------
// View log
// ---------------------------------------------------------------------------

func TestViewLog(t *testing.T) {
	s, id, _ := savedSnapshot(t)
	ctx := context.Background()

	for _, view := range []string{"evidence", "neighbors", "contradictions"} {
		if err := s.LogView(ctx, ViewEvent{SnapshotID: id, View: view, Target: "n", ElapsedMS: 3}); err != nil {
			t.Fatalf("logging %s: %v", view, err)
		}
	}

	events, err := s.RecentViews(ctx, 2)
	if err != nil {
		t.Fatalf("reading view log: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	// Newest first.
	if events[0].View != "contradictions" {
		t.Errorf("first event = %s, want contradictions", events[0].View)
	}
}
