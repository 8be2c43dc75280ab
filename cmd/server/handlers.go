package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/papergraph/papergraph"
	"github.com/papergraph/papergraph/graph"
	"github.com/papergraph/papergraph/views"
)

type handler struct {
	engine papergraph.Engine
}

func newHandler(e papergraph.Engine) *handler {
	return &handler{engine: e}
}

// POST /records
// Accepts a multipart record upload or JSON with a file path; either way
// the record is consolidated into a new snapshot.
func (h *handler) handleLoadRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Try multipart upload first
	if err := r.ParseMultipartForm(100 << 20); err == nil { // 100MB max
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			// Sanitise filename to prevent path traversal.
			safeName := filepath.Base(header.Filename)

			// A unique temp path per request; two concurrent uploads of
			// the same client filename must not share a file. The record
			// decoder dispatches on extension, so it is preserved.
			tmpPath, err := saveUpload(file, filepath.Ext(safeName))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to save file")
				slog.Error("saving uploaded file", "error", err)
				return
			}
			defer os.Remove(tmpPath)

			name := r.FormValue("name")
			if name == "" {
				name = strings.TrimSuffix(safeName, filepath.Ext(safeName))
			}
			opts := []papergraph.LoadOption{papergraph.WithSnapshotName(name)}
			if r.FormValue("replace") == "true" {
				opts = append(opts, papergraph.WithReplace())
			}

			id, err := h.engine.LoadRecord(ctx, tmpPath, opts...)
			if err != nil {
				writeLoadError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"snapshot_id": id,
				"filename":    safeName,
			})
			return
		}
	}

	// Try JSON body with path
	var req struct {
		Path    string `json:"path"`
		Name    string `json:"name,omitempty"`
		Replace bool   `json:"replace,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart file or JSON with 'path'")
		return
	}

	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	// Validate that path is a real file (prevents directory traversal probing).
	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusBadRequest, "path must be an existing file")
		return
	}

	var opts []papergraph.LoadOption
	if req.Name != "" {
		opts = append(opts, papergraph.WithSnapshotName(req.Name))
	}
	if req.Replace {
		opts = append(opts, papergraph.WithReplace())
	}

	id, err := h.engine.LoadRecord(ctx, absPath, opts...)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot_id": id,
		"path":        absPath,
	})
}

// GET /snapshots
func (h *handler) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.engine.ListSnapshots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		slog.Error("list snapshots error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

// GET /snapshots/{id}
// Snapshot metadata plus status, for upstream-processing polls.
func (h *handler) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err, "failed to read snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DELETE /snapshots/{id}
func (h *handler) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteSnapshot(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, err, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// graphResponse is the renderable GraphData shape.
type graphResponse struct {
	Mode  string        `json:"mode"`
	Nodes []*graph.Node `json:"nodes"`
	Links []*graph.Edge `json:"links"`
}

// GET /snapshots/{id}/graph
// Optional query parameters select the display mode: highlight=contradictions,
// focus=<node-id>, or per-kind and per-relation flags (claims=false, supports=false, ...).
func (h *handler) handleGraph(w http.ResponseWriter, r *http.Request) {
	prefs := prefsFromQuery(r)
	g, mode, err := h.engine.FilterGraph(r.Context(), r.PathValue("id"), prefs)
	if err != nil {
		writeEngineError(w, err, "failed to load graph")
		return
	}
	writeJSON(w, http.StatusOK, graphResponse{
		Mode:  mode.Mode.String(),
		Nodes: g.Nodes,
		Links: g.Edges,
	})
}

// prefsFromQuery reads display toggles from the query string. Everything
// defaults to visible; the precedence between the toggles is resolved by
// the view engine, not here.
func prefsFromQuery(r *http.Request) views.FilterPrefs {
	q := r.URL.Query()
	flag := func(name string, dst *bool) {
		if v := q.Get(name); v != "" {
			*dst = v != "false" && v != "0"
		}
	}
	prefs := views.DefaultPrefs()
	flag("claims", &prefs.ShowClaims)
	flag("observations", &prefs.ShowObservations)
	flag("premise", &prefs.ShowPremise)
	flag("variant", &prefs.ShowVariant)
	flag("contradiction", &prefs.ShowContradiction)
	flag("supports", &prefs.ShowSupports)
	flag("contradicts", &prefs.ShowContradicts)
	flag("contextualizes", &prefs.ShowContextualizes)
	prefs.FocusNode = q.Get("focus")
	prefs.OnlyContradictions = q.Get("highlight") == "contradictions"
	return prefs
}

// GET /snapshots/{id}/contradictions
func (h *handler) handleContradictions(w http.ResponseWriter, r *http.Request) {
	ids, err := h.engine.Contradictions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err, "failed to compute contradictions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"node_ids": ids})
}

// GET /snapshots/{id}/search?q=...&limit=...
func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	hits, err := h.engine.Search(r.Context(), r.PathValue("id"), query, limit)
	if err != nil {
		writeEngineError(w, err, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

// GET /snapshots/{id}/nodes/{nodeID}/evidence
func (h *handler) handleEvidence(w http.ResponseWriter, r *http.Request) {
	ev, err := h.engine.Evidence(r.Context(), r.PathValue("id"), r.PathValue("nodeID"))
	if err != nil {
		writeEngineError(w, err, "failed to aggregate evidence")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// GET /snapshots/{id}/nodes/{nodeID}/variants
func (h *handler) handleVariants(w http.ResponseWriter, r *http.Request) {
	variants, err := h.engine.Variants(r.Context(), r.PathValue("id"), r.PathValue("nodeID"))
	if err != nil {
		writeEngineError(w, err, "failed to list variants")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"variants": variants})
}

// GET /snapshots/{id}/nodes/{nodeID}/connected
func (h *handler) handleConnected(w http.ResponseWriter, r *http.Request) {
	groups, err := h.engine.ConnectedClaims(r.Context(), r.PathValue("id"), r.PathValue("nodeID"))
	if err != nil {
		writeEngineError(w, err, "failed to list connected claims")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

// GET /snapshots/{id}/nodes/{nodeID}/neighbors
func (h *handler) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	ids, err := h.engine.Neighbors(r.Context(), r.PathValue("id"), r.PathValue("nodeID"))
	if err != nil {
		writeEngineError(w, err, "failed to list neighbors")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"node_ids": ids})
}

// POST /papers
// Multipart PDF upload into the extraction intake queue.
func (h *handler) handleUploadPaper(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart PDF upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	safeName := filepath.Base(header.Filename)
	tmpPath, err := saveUpload(file, ".pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save file")
		slog.Error("saving uploaded file", "error", err)
		return
	}
	defer os.Remove(tmpPath)

	pf, err := h.engine.RegisterPaperFile(r.Context(), tmpPath, safeName)
	if err != nil {
		if errors.Is(err, papergraph.ErrPaperFileInvalid) {
			writeError(w, http.StatusBadRequest, "file is not a readable PDF")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to queue paper")
		slog.Error("paper upload error", "file", safeName, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, pf)
}

// GET /papers
func (h *handler) handleListPapers(w http.ResponseWriter, r *http.Request) {
	files, err := h.engine.ListPaperFiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list papers")
		slog.Error("list papers error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"papers": files})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// writeEngineError maps engine sentinels onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, papergraph.ErrSnapshotNotFound):
		writeError(w, http.StatusNotFound, "snapshot not found")
	case errors.Is(err, papergraph.ErrSnapshotNotReady):
		writeError(w, http.StatusConflict, "snapshot not ready")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
		slog.Error(fallback, "error", err)
	}
}

// writeLoadError distinguishes caller mistakes from engine failures on
// record loads.
func writeLoadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, papergraph.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "unsupported record format")
	case errors.Is(err, papergraph.ErrDecodeFailed):
		writeError(w, http.StatusBadRequest, "record could not be decoded")
	default:
		writeError(w, http.StatusInternalServerError, "loading record failed")
		slog.Error("load record error", "error", err)
	}
}

// saveUpload copies an upload into a uniquely named temp file, keeping
// the given extension. The caller removes the file when done.
func saveUpload(src io.Reader, ext string) (string, error) {
	dst, err := os.CreateTemp("", "papergraph-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("%s", msg)})
}
