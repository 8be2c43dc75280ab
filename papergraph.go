package papergraph

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/papergraph/papergraph/export"
	"github.com/papergraph/papergraph/graph"
	"github.com/papergraph/papergraph/papers"
	"github.com/papergraph/papergraph/record"
	"github.com/papergraph/papergraph/store"
	"github.com/papergraph/papergraph/views"
)

// Engine is the main entry point for the knowledge-graph engine. It turns
// extraction records into consolidated graph snapshots and answers view
// queries against them.
type Engine interface {
	// LoadRecord decodes an extraction record file, consolidates it, and
	// registers the result as a new snapshot. Returns the snapshot id.
	LoadRecord(ctx context.Context, path string, opts ...LoadOption) (string, error)

	// LoadLibrary consolidates an in-memory extraction record.
	LoadLibrary(ctx context.Context, lib *record.Library, opts ...LoadOption) (string, error)

	// Graph returns a snapshot's consolidated graph, from cache or
	// rehydrated from the store.
	Graph(ctx context.Context, snapshotID string) (*graph.Graph, error)

	// FilterGraph applies display preferences to a snapshot's graph and
	// returns the visible subgraph plus the display mode that was resolved
	// from the preferences.
	FilterGraph(ctx context.Context, snapshotID string, prefs views.FilterPrefs) (*graph.Graph, views.DisplayMode, error)

	// Evidence aggregates the observations attached to a claim.
	Evidence(ctx context.Context, snapshotID, claimID string) (*views.Evidence, error)

	// Variants lists the variant neighbors of a node.
	Variants(ctx context.Context, snapshotID, nodeID string) ([]views.Variant, error)

	// ConnectedClaims lists the claims attached to an observation, grouped
	// by relation type.
	ConnectedClaims(ctx context.Context, snapshotID, observationID string) ([]views.ClaimGroup, error)

	// Contradictions returns the ids of all nodes involved in a
	// contradiction, sorted.
	Contradictions(ctx context.Context, snapshotID string) ([]string, error)

	// Neighbors lists the node ids sharing an edge with the given node.
	Neighbors(ctx context.Context, snapshotID, nodeID string) ([]string, error)

	// Search runs a full-text query over a snapshot's node labels.
	Search(ctx context.Context, snapshotID, query string, limit int) ([]store.SearchHit, error)

	// Export writes a snapshot's graph to disk; the format is chosen by
	// the output path's extension (.xlsx, .json, .yaml).
	Export(ctx context.Context, snapshotID, path string) error

	// RegisterPaperFile queues an uploaded PDF for upstream extraction,
	// extracting title and page metadata. filename is the display name to
	// queue under; "" uses the path's basename. Re-uploading identical
	// content returns the existing queue entry.
	RegisterPaperFile(ctx context.Context, path, filename string) (*store.PaperFile, error)

	// ListPaperFiles returns the paper intake queue, newest first.
	ListPaperFiles(ctx context.Context) ([]store.PaperFile, error)

	// Snapshot returns one snapshot's metadata and status.
	Snapshot(ctx context.Context, id string) (*store.Snapshot, error)

	// ListSnapshots returns all snapshots, newest first.
	ListSnapshots(ctx context.Context) ([]store.Snapshot, error)

	// DeleteSnapshot removes a snapshot, its stored graph, and any cached
	// derivations.
	DeleteSnapshot(ctx context.Context, id string) error

	// Store returns the underlying store for diagnostic access.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// LoadOption configures snapshot loading.
type LoadOption func(*loadOptions)

type loadOptions struct {
	name      string
	source    string
	hash      string
	replace   bool
	noPersist bool
}

// WithSnapshotName names the snapshot; defaults to the record filename
// stem, or "library" for in-memory loads.
func WithSnapshotName(name string) LoadOption {
	return func(o *loadOptions) { o.name = name }
}

// WithReplace deletes any existing snapshot with the same name once the
// new one is ready.
func WithReplace() LoadOption {
	return func(o *loadOptions) { o.replace = true }
}

// WithoutPersist keeps the snapshot in memory only. It is queryable until
// the engine closes but never written to the store.
func WithoutPersist() LoadOption {
	return func(o *loadOptions) { o.noPersist = true }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg      Config
	store    *store.Store
	registry *record.Registry

	// graphs caches consolidated graphs by snapshot id; memo caches view
	// results keyed by snapshot, view, and argument. Snapshots are
	// immutable, so entries are only invalidated by deletion.
	graphs *cache.Cache
	memo   *cache.Cache
}

// New creates a new papergraph engine with the given configuration.
func New(cfg Config) (Engine, error) {
	if cfg.CacheTTLSeconds <= 0 {
		cfg.CacheTTLSeconds = DefaultConfig().CacheTTLSeconds
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultConfig().SearchLimit
	}

	s, err := store.New(cfg.resolveDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return &engine{
		cfg:      cfg,
		store:    s,
		registry: record.NewRegistry(),
		graphs:   cache.New(cache.NoExpiration, 0),
		memo:     cache.New(ttl, 2*ttl),
	}, nil
}

// LoadRecord decodes a record file and consolidates it into a snapshot.
func (e *engine) LoadRecord(ctx context.Context, path string, opts ...LoadOption) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("reading record: %w", err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(absPath), "."))
	dec, err := e.registry.Get(ext)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	lib, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	filename := filepath.Base(absPath)
	defaults := []LoadOption{
		WithSnapshotName(strings.TrimSuffix(filename, filepath.Ext(filename))),
		withSource(absPath, contentHash(data)),
	}
	return e.LoadLibrary(ctx, lib, append(defaults, opts...)...)
}

// withSource records where the snapshot came from. Internal: set by
// LoadRecord, not part of the public option surface.
func withSource(source, hash string) LoadOption {
	return func(o *loadOptions) {
		o.source = source
		o.hash = hash
	}
}

// LoadLibrary consolidates an in-memory record into a snapshot.
func (e *engine) LoadLibrary(ctx context.Context, lib *record.Library, opts ...LoadOption) (string, error) {
	options := &loadOptions{name: "library"}
	for _, o := range opts {
		o(options)
	}

	raw, err := json.Marshal(lib)
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}
	if options.hash == "" {
		options.hash = contentHash(raw)
	}

	// Look up the snapshot this load supersedes before the new row exists,
	// so a re-load under the same name cannot find itself.
	var prev *store.Snapshot
	if options.replace {
		prev, _ = e.store.GetSnapshotByName(ctx, options.name)
	}

	id := uuid.NewString()
	if !options.noPersist {
		err := e.store.InsertSnapshot(ctx, store.Snapshot{
			ID:          id,
			Name:        options.name,
			Source:      options.source,
			ContentHash: options.hash,
			Counts: store.Counts{
				Papers:       len(lib.Papers),
				Claims:       len(lib.Claims),
				Observations: len(lib.Observations),
				Methods:      len(lib.Methods),
			},
		}, raw)
		if err != nil {
			return "", fmt.Errorf("registering snapshot: %w", err)
		}
	}

	start := time.Now()
	res := graph.Consolidate(lib)

	if !options.noPersist {
		if err := e.store.SaveGraph(ctx, id, res.Graph, len(res.Conflicts)); err != nil {
			e.store.SetSnapshotStatus(ctx, id, store.StatusError, err.Error())
			return "", fmt.Errorf("saving graph: %w", err)
		}
	}
	e.graphs.Set(id, res.Graph, cache.NoExpiration)

	if prev != nil && prev.ID != id {
		if err := e.DeleteSnapshot(ctx, prev.ID); err != nil {
			slog.Warn("deleting superseded snapshot failed", "snapshot", prev.ID, "error", err)
		}
	}

	slog.Info("snapshot ready",
		"snapshot", id, "name", options.name,
		"nodes", len(res.Graph.Nodes), "edges", len(res.Graph.Edges),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return id, nil
}

// Graph returns a snapshot's consolidated graph.
func (e *engine) Graph(ctx context.Context, snapshotID string) (*graph.Graph, error) {
	if v, ok := e.graphs.Get(snapshotID); ok {
		return v.(*graph.Graph), nil
	}

	snap, err := e.store.GetSnapshot(ctx, snapshotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if snap.Status != store.StatusReady {
		return nil, fmt.Errorf("%w: %s is %s", ErrSnapshotNotReady, snapshotID, snap.Status)
	}

	g, err := e.store.LoadGraph(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	e.graphs.Set(snapshotID, g, cache.NoExpiration)
	return g, nil
}

// FilterGraph applies display preferences to a snapshot's graph.
func (e *engine) FilterGraph(ctx context.Context, snapshotID string, prefs views.FilterPrefs) (*graph.Graph, views.DisplayMode, error) {
	g, err := e.Graph(ctx, snapshotID)
	if err != nil {
		return nil, views.DisplayMode{}, err
	}
	// Filter results are not memoized: preferences are caller state and
	// Apply is a cheap scan over an already-cached graph.
	mode := views.ResolveMode(prefs)
	return views.Apply(g, mode), mode, nil
}

// Evidence aggregates the observations attached to a claim.
func (e *engine) Evidence(ctx context.Context, snapshotID, claimID string) (*views.Evidence, error) {
	key := memoKey(snapshotID, "evidence", claimID)
	if v, ok := e.memo.Get(key); ok {
		return v.(*views.Evidence), nil
	}
	g, err := e.Graph(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	ev := views.EvidenceFor(g, claimID)
	e.memo.Set(key, ev, cache.DefaultExpiration)
	e.logView(ctx, snapshotID, "evidence", claimID, start)
	return ev, nil
}

// Variants lists the variant neighbors of a node.
func (e *engine) Variants(ctx context.Context, snapshotID, nodeID string) ([]views.Variant, error) {
	key := memoKey(snapshotID, "variants", nodeID)
	if v, ok := e.memo.Get(key); ok {
		return v.([]views.Variant), nil
	}
	g, err := e.Graph(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out := views.Variants(g, nodeID)
	e.memo.Set(key, out, cache.DefaultExpiration)
	e.logView(ctx, snapshotID, "variants", nodeID, start)
	return out, nil
}

// ConnectedClaims lists the claims attached to an observation.
func (e *engine) ConnectedClaims(ctx context.Context, snapshotID, observationID string) ([]views.ClaimGroup, error) {
	key := memoKey(snapshotID, "connected", observationID)
	if v, ok := e.memo.Get(key); ok {
		return v.([]views.ClaimGroup), nil
	}
	g, err := e.Graph(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out := views.ConnectedClaims(g, observationID)
	e.memo.Set(key, out, cache.DefaultExpiration)
	e.logView(ctx, snapshotID, "connected_claims", observationID, start)
	return out, nil
}

// Contradictions returns the sorted ids of all contradiction-involved
// nodes in a snapshot.
func (e *engine) Contradictions(ctx context.Context, snapshotID string) ([]string, error) {
	key := memoKey(snapshotID, "contradictions", "")
	if v, ok := e.memo.Get(key); ok {
		return v.([]string), nil
	}
	g, err := e.Graph(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	set := views.Contradictions(g)
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	e.memo.Set(key, ids, cache.DefaultExpiration)
	e.logView(ctx, snapshotID, "contradictions", "", start)
	return ids, nil
}

// Neighbors lists the node ids sharing an edge with the given node.
func (e *engine) Neighbors(ctx context.Context, snapshotID, nodeID string) ([]string, error) {
	key := memoKey(snapshotID, "neighbors", nodeID)
	if v, ok := e.memo.Get(key); ok {
		return v.([]string), nil
	}
	g, err := e.Graph(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out := views.Neighbors(g, nodeID)
	e.memo.Set(key, out, cache.DefaultExpiration)
	e.logView(ctx, snapshotID, "neighbors", nodeID, start)
	return out, nil
}

// Search runs a full-text query over a snapshot's node labels.
func (e *engine) Search(ctx context.Context, snapshotID, query string, limit int) ([]store.SearchHit, error) {
	// Existence check keeps the error surface consistent with Graph.
	if _, err := e.Graph(ctx, snapshotID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = e.cfg.SearchLimit
	}
	start := time.Now()
	hits, err := e.store.SearchNodes(ctx, snapshotID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching nodes: %w", err)
	}
	e.logView(ctx, snapshotID, "search", query, start)
	return hits, nil
}

// Export writes a snapshot's graph to disk in the format the output path's
// extension names.
func (e *engine) Export(ctx context.Context, snapshotID, path string) error {
	g, err := e.Graph(ctx, snapshotID)
	if err != nil {
		return err
	}
	name := snapshotID
	if snap, err := e.store.GetSnapshot(ctx, snapshotID); err == nil {
		name = snap.Name
	}
	if err := export.WriteFile(path, name, g); err != nil {
		if errors.Is(err, export.ErrUnknownFormat) {
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
		}
		return err
	}
	slog.Info("snapshot exported", "snapshot", snapshotID, "path", path)
	return nil
}

// RegisterPaperFile queues an uploaded PDF for upstream extraction.
func (e *engine) RegisterPaperFile(ctx context.Context, path, filename string) (*store.PaperFile, error) {
	info, err := papers.FromPDF(path, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaperFileInvalid, err)
	}

	if existing, err := e.store.GetPaperFileByHash(ctx, info.ContentHash); err == nil {
		slog.Info("paper file already queued", "file", info.Filename, "id", existing.ID)
		return existing, nil
	}

	pf := store.PaperFile{
		ID:          uuid.NewString(),
		Filename:    info.Filename,
		Title:       info.Title,
		Pages:       info.Pages,
		ContentHash: info.ContentHash,
	}
	if err := e.store.InsertPaperFile(ctx, pf); err != nil {
		return nil, fmt.Errorf("queueing paper file: %w", err)
	}
	pf.Status = store.StatusQueued
	slog.Info("paper file queued", "file", pf.Filename, "title", pf.Title, "pages", pf.Pages)
	return &pf, nil
}

// ListPaperFiles returns the paper intake queue.
func (e *engine) ListPaperFiles(ctx context.Context) ([]store.PaperFile, error) {
	return e.store.ListPaperFiles(ctx)
}

// Snapshot returns one snapshot's metadata and status.
func (e *engine) Snapshot(ctx context.Context, id string) (*store.Snapshot, error) {
	snap, err := e.store.GetSnapshot(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return snap, err
}

// ListSnapshots returns all snapshots, newest first.
func (e *engine) ListSnapshots(ctx context.Context) ([]store.Snapshot, error) {
	return e.store.ListSnapshots(ctx)
}

// DeleteSnapshot removes a snapshot and all cached derivations.
func (e *engine) DeleteSnapshot(ctx context.Context, id string) error {
	if err := e.store.DeleteSnapshot(ctx, id); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	e.graphs.Delete(id)
	prefix := id + "|"
	for key := range e.memo.Items() {
		if strings.HasPrefix(key, prefix) {
			e.memo.Delete(key)
		}
	}
	slog.Info("snapshot deleted", "snapshot", id)
	return nil
}

// Store returns the underlying store for diagnostic access.
func (e *engine) Store() *store.Store {
	return e.store
}

// Close shuts down the engine.
func (e *engine) Close() error {
	e.graphs.Flush()
	e.memo.Flush()
	return e.store.Close()
}

// logView records a view invocation; failures are ignored, the audit log
// is best-effort.
func (e *engine) logView(ctx context.Context, snapshotID, view, target string, start time.Time) {
	_ = e.store.LogView(ctx, store.ViewEvent{
		SnapshotID: snapshotID,
		View:       view,
		Target:     target,
		ElapsedMS:  time.Since(start).Milliseconds(),
	})
}

func memoKey(snapshotID, view, arg string) string {
	return snapshotID + "|" + view + "|" + arg
}

// contentHash computes the SHA-256 hash of record content.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
