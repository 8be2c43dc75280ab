package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papergraph/papergraph/graph"
	"github.com/papergraph/papergraph/record"
)

// Snapshot statuses.
const (
	StatusConsolidating = "consolidating"
	StatusReady         = "ready"
	StatusError         = "error"
)

// Paper file statuses.
const (
	StatusQueued    = "queued"
	StatusExtracted = "extracted"
)

// Snapshot represents a row in the snapshots table.
type Snapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Source      string `json:"source,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	Counts      Counts `json:"counts"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Counts summarizes a snapshot's record and graph sizes.
type Counts struct {
	Papers       int `json:"papers"`
	Claims       int `json:"claims"`
	Observations int `json:"observations"`
	Methods      int `json:"methods"`
	Nodes        int `json:"nodes"`
	Edges        int `json:"edges"`
	Merged       int `json:"merged"`
	Conflicts    int `json:"conflicts"`
}

// SearchHit is one full-text match over node labels.
type SearchHit struct {
	NodeID   string  `json:"node_id"`
	Type     string  `json:"type"`
	Label    string  `json:"label"`
	IsMerged bool    `json:"is_merged,omitempty"`
	Score    float64 `json:"score"`
}

// PaperFile represents a row in the paper_files intake queue.
type PaperFile struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Title       string `json:"title,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	ContentHash string `json:"content_hash"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// ViewEvent represents a row in the view audit log.
type ViewEvent struct {
	SnapshotID string `json:"snapshot_id,omitempty"`
	View       string `json:"view"`
	Target     string `json:"target,omitempty"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// Store wraps the SQLite database for all papergraph persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including the FTS5 virtual table.
func New(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Create schema
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}

	// Run pending migrations.
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- Snapshot operations ---

// InsertSnapshot registers a snapshot in consolidating status, keeping the
// raw record alongside it. Record-side counts should already be set;
// graph-side counts are filled in by SaveGraph.
func (s *Store) InsertSnapshot(ctx context.Context, snap Snapshot, rawRecord []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, name, source, content_hash, status, record_json,
			papers, claims, observations, methods)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Name, snap.Source, snap.ContentHash, StatusConsolidating, string(rawRecord),
		snap.Counts.Papers, snap.Counts.Claims, snap.Counts.Observations, snap.Counts.Methods)
	return err
}

// SetSnapshotStatus updates the status and error fields.
func (s *Store) SetSnapshotStatus(ctx context.Context, id, status, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE snapshots SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, errMsg, id)
	return err
}

// GetSnapshot retrieves a snapshot by ID.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	return s.scanSnapshot(s.db.QueryRowContext(ctx, `
		SELECT id, name, source, content_hash, status, error,
			papers, claims, observations, methods, nodes, edges, merged, conflicts,
			created_at, updated_at
		FROM snapshots WHERE id = ?
	`, id))
}

// GetSnapshotByName retrieves the most recently created snapshot with the
// given name.
func (s *Store) GetSnapshotByName(ctx context.Context, name string) (*Snapshot, error) {
	return s.scanSnapshot(s.db.QueryRowContext(ctx, `
		SELECT id, name, source, content_hash, status, error,
			papers, claims, observations, methods, nodes, edges, merged, conflicts,
			created_at, updated_at
		FROM snapshots WHERE name = ? ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, name))
}

func (s *Store) scanSnapshot(row *sql.Row) (*Snapshot, error) {
	snap := &Snapshot{}
	var source, hash, status, errMsg sql.NullString
	err := row.Scan(&snap.ID, &snap.Name, &source, &hash, &status, &errMsg,
		&snap.Counts.Papers, &snap.Counts.Claims, &snap.Counts.Observations, &snap.Counts.Methods,
		&snap.Counts.Nodes, &snap.Counts.Edges, &snap.Counts.Merged, &snap.Counts.Conflicts,
		&snap.CreatedAt, &snap.UpdatedAt)
	if err != nil {
		return nil, err
	}
	snap.Source = source.String
	snap.ContentHash = hash.String
	snap.Status = status.String
	snap.Error = errMsg.String
	return snap, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, source, content_hash, status, error,
			papers, claims, observations, methods, nodes, edges, merged, conflicts,
			created_at, updated_at
		FROM snapshots ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var source, hash, status, errMsg sql.NullString
		if err := rows.Scan(&snap.ID, &snap.Name, &source, &hash, &status, &errMsg,
			&snap.Counts.Papers, &snap.Counts.Claims, &snap.Counts.Observations, &snap.Counts.Methods,
			&snap.Counts.Nodes, &snap.Counts.Edges, &snap.Counts.Merged, &snap.Counts.Conflicts,
			&snap.CreatedAt, &snap.UpdatedAt); err != nil {
			return nil, err
		}
		snap.Source = source.String
		snap.ContentHash = hash.String
		snap.Status = status.String
		snap.Error = errMsg.String
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// DeleteSnapshot removes a snapshot and all its graph data. Node deletes
// go through the FTS triggers so the search index stays in sync.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"nodes", "edges", "papers", "methods", "view_log"} {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM "+table+" WHERE snapshot_id = ?", id); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
		return err
	})
}

// LoadLibrary re-reads the raw extraction record stored with a snapshot.
func (s *Store) LoadLibrary(ctx context.Context, id string) (*record.Library, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT record_json FROM snapshots WHERE id = ?", id).Scan(&raw)
	if err != nil {
		return nil, err
	}
	lib := &record.Library{}
	if raw.String == "" {
		return lib, nil
	}
	if err := json.Unmarshal([]byte(raw.String), lib); err != nil {
		return nil, fmt.Errorf("decoding stored record: %w", err)
	}
	return lib, nil
}

// --- Graph persistence ---

// SaveGraph writes a consolidated graph under a snapshot and marks the
// snapshot ready, all in one transaction.
func (s *Store) SaveGraph(ctx context.Context, snapshotID string, g *graph.Graph, conflicts int) error {
	st := g.Stats()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range g.Papers() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO papers (snapshot_id, id, title, filename, abstract, authors, year, journal, doi)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, snapshotID, p.ID, p.Title, p.Filename, p.Abstract, jsonColumn(p.Authors, "[]"),
				p.Year, p.Journal, p.DOI); err != nil {
				return err
			}
		}

		for _, m := range g.Methods() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO methods (snapshot_id, id, paper_id, summary, novel)
				VALUES (?, ?, ?, ?, ?)
			`, snapshotID, m.ID, m.PaperID, m.Content.MethodSummary, m.Content.NovelMethod); err != nil {
				return err
			}
		}

		nodeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO nodes (snapshot_id, id, type, label, reasoning, observation_type,
				method_reference, is_merged, paper_ids, source_element_ids, merged_ids, members, extra)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer nodeStmt.Close()
		for _, n := range g.Nodes {
			if _, err := nodeStmt.ExecContext(ctx,
				snapshotID, n.ID, n.Type, n.Label, n.Reasoning, n.ObservationType,
				n.MethodRef, n.IsMerged, jsonColumn(n.PaperIDs, "[]"),
				jsonColumn(n.SourceElementIDs, "[]"), jsonColumn(n.MergedIDs, "[]"),
				jsonColumn(n.Members, "[]"), jsonColumn(n.Extra, "{}")); err != nil {
				return err
			}
		}

		edgeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO edges (snapshot_id, source, target, type, category, reasoning, strength)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer edgeStmt.Close()
		for _, e := range g.Edges {
			if _, err := edgeStmt.ExecContext(ctx,
				snapshotID, e.Source, e.Target, e.Type, e.Category, e.Reasoning, e.Strength); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE snapshots SET nodes = ?, edges = ?, merged = ?, conflicts = ?,
				status = ?, error = '', updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, st.Nodes, st.Edges, st.Merged, conflicts, StatusReady, snapshotID)
		return err
	})
}

// LoadGraph rebuilds a snapshot's graph from its stored rows, preserving
// consolidation order.
func (s *Store) LoadGraph(ctx context.Context, snapshotID string) (*graph.Graph, error) {
	nodes, err := s.loadNodes(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}
	edges, err := s.loadEdges(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}
	papers, err := s.loadPapers(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading papers: %w", err)
	}
	methods, err := s.loadMethods(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading methods: %w", err)
	}
	return graph.New(nodes, edges, papers, methods), nil
}

func (s *Store) loadNodes(ctx context.Context, snapshotID string) ([]*graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, label, reasoning, observation_type, method_reference,
			is_merged, paper_ids, source_element_ids, merged_ids, members, extra
		FROM nodes WHERE snapshot_id = ? ORDER BY seq
	`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*graph.Node
	for rows.Next() {
		n := &graph.Node{}
		var reasoning, obsType, methodRef sql.NullString
		var paperIDs, sourceIDs, mergedIDs, members, extra sql.NullString
		if err := rows.Scan(&n.ID, &n.Type, &n.Label, &reasoning, &obsType, &methodRef,
			&n.IsMerged, &paperIDs, &sourceIDs, &mergedIDs, &members, &extra); err != nil {
			return nil, err
		}
		n.Reasoning = reasoning.String
		n.ObservationType = obsType.String
		n.MethodRef = methodRef.String
		n.PaperIDs = stringList(paperIDs)
		n.SourceElementIDs = stringList(sourceIDs)
		n.MergedIDs = stringList(mergedIDs)
		if members.String != "" && members.String != "[]" {
			if err := json.Unmarshal([]byte(members.String), &n.Members); err != nil {
				return nil, fmt.Errorf("decoding members for node %s: %w", n.ID, err)
			}
		}
		if extra.String != "" && extra.String != "{}" {
			if err := json.Unmarshal([]byte(extra.String), &n.Extra); err != nil {
				return nil, fmt.Errorf("decoding extra for node %s: %w", n.ID, err)
			}
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Store) loadEdges(ctx context.Context, snapshotID string) ([]*graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, target, type, category, reasoning, strength
		FROM edges WHERE snapshot_id = ? ORDER BY seq
	`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*graph.Edge
	for rows.Next() {
		e := &graph.Edge{}
		var category, reasoning sql.NullString
		var strength sql.NullFloat64
		if err := rows.Scan(&e.Source, &e.Target, &e.Type, &category, &reasoning, &strength); err != nil {
			return nil, err
		}
		e.Category = category.String
		e.Reasoning = reasoning.String
		if strength.Valid {
			v := strength.Float64
			e.Strength = &v
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (s *Store) loadPapers(ctx context.Context, snapshotID string) ([]record.Paper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, filename, abstract, authors, year, journal, doi
		FROM papers WHERE snapshot_id = ?
	`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []record.Paper
	for rows.Next() {
		var p record.Paper
		var title, filename, abstract, journal, doi, authors sql.NullString
		var year sql.NullInt64
		if err := rows.Scan(&p.ID, &title, &filename, &abstract, &authors, &year, &journal, &doi); err != nil {
			return nil, err
		}
		p.Title = title.String
		p.Filename = filename.String
		p.Abstract = abstract.String
		p.Journal = journal.String
		p.DOI = doi.String
		p.Year = int(year.Int64)
		p.Authors = stringList(authors)
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func (s *Store) loadMethods(ctx context.Context, snapshotID string) ([]record.Method, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, paper_id, summary, novel
		FROM methods WHERE snapshot_id = ?
	`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []record.Method
	for rows.Next() {
		var m record.Method
		var paperID, summary sql.NullString
		if err := rows.Scan(&m.ID, &paperID, &summary, &m.Content.NovelMethod); err != nil {
			return nil, err
		}
		m.PaperID = paperID.String
		m.Content.MethodSummary = summary.String
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// --- Search ---

// SearchNodes performs a full-text search over node labels within one
// snapshot, using FTS5 BM25 ranking.
func (s *Store) SearchNodes(ctx context.Context, snapshotID, query string, limit int) ([]SearchHit, error) {
	match := ftsQuote(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.type, n.label, n.is_merged, f.rank
		FROM nodes_fts f
		JOIN nodes n ON n.seq = f.rowid
		WHERE nodes_fts MATCH ? AND n.snapshot_id = ?
		ORDER BY f.rank
		LIMIT ?
	`, match, snapshotID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var rank float64
		if err := rows.Scan(&h.NodeID, &h.Type, &h.Label, &h.IsMerged, &rank); err != nil {
			return nil, err
		}
		// FTS5 rank is negative (lower = better), convert to positive score
		h.Score = -rank
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ftsQuote turns free text into an FTS5 query of quoted terms so user
// input cannot hit match-syntax errors.
func ftsQuote(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, "")
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " ")
}

// --- Paper file intake ---

// InsertPaperFile adds an uploaded document to the intake queue.
func (s *Store) InsertPaperFile(ctx context.Context, pf PaperFile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO paper_files (id, filename, title, pages, content_hash, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, pf.ID, pf.Filename, pf.Title, pf.Pages, pf.ContentHash, StatusQueued)
	return err
}

// GetPaperFileByHash finds a queued file by content hash, for upload
// dedup.
func (s *Store) GetPaperFileByHash(ctx context.Context, hash string) (*PaperFile, error) {
	pf := &PaperFile{}
	var title sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, title, pages, content_hash, status, created_at
		FROM paper_files WHERE content_hash = ?
	`, hash).Scan(&pf.ID, &pf.Filename, &title, &pf.Pages, &pf.ContentHash, &pf.Status, &pf.CreatedAt)
	if err != nil {
		return nil, err
	}
	pf.Title = title.String
	return pf, nil
}

// ListPaperFiles returns the intake queue, newest first.
func (s *Store) ListPaperFiles(ctx context.Context) ([]PaperFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, title, pages, content_hash, status, created_at
		FROM paper_files ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []PaperFile
	for rows.Next() {
		var pf PaperFile
		var title sql.NullString
		if err := rows.Scan(&pf.ID, &pf.Filename, &title, &pf.Pages, &pf.ContentHash,
			&pf.Status, &pf.CreatedAt); err != nil {
			return nil, err
		}
		pf.Title = title.String
		files = append(files, pf)
	}
	return files, rows.Err()
}

// --- View log ---

// LogView writes an entry to the view audit log.
func (s *Store) LogView(ctx context.Context, e ViewEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO view_log (snapshot_id, view, target, elapsed_ms)
		VALUES (?, ?, ?, ?)
	`, e.SnapshotID, e.View, e.Target, e.ElapsedMS)
	return err
}

// RecentViews returns the latest view log entries, newest first.
func (s *Store) RecentViews(ctx context.Context, limit int) ([]ViewEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot_id, view, target, elapsed_ms, created_at
		FROM view_log ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ViewEvent
	for rows.Next() {
		var e ViewEvent
		var snapshotID, target sql.NullString
		if err := rows.Scan(&snapshotID, &e.View, &target, &e.ElapsedMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.SnapshotID = snapshotID.String
		e.Target = target.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// jsonColumn marshals a value for a JSON column, substituting empty for
// nil so columns never hold the string "null".
func jsonColumn(v any, empty string) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return empty
	}
	return string(data)
}

// stringList decodes a JSON array column into a string slice, nil when
// empty.
func stringList(col sql.NullString) []string {
	if col.String == "" || col.String == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(col.String), &out); err != nil {
		return nil
	}
	return out
}
