package store

// schemaSQL is the baseline DDL, applied on every open. Later changes go
// through migrations.
const schemaSQL = `
-- Snapshot registry: one consolidated graph per loaded extraction record.
-- The raw record is kept so a snapshot can be re-read without the file.
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    source TEXT,
    content_hash TEXT,
    status TEXT DEFAULT 'consolidating',
    error TEXT,
    record_json TEXT,
    papers INTEGER DEFAULT 0,
    claims INTEGER DEFAULT 0,
    observations INTEGER DEFAULT 0,
    methods INTEGER DEFAULT 0,
    nodes INTEGER DEFAULT 0,
    edges INTEGER DEFAULT 0,
    merged INTEGER DEFAULT 0,
    conflicts INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Papers and methods copied out of the record for attribution lookups
CREATE TABLE IF NOT EXISTS papers (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    title TEXT,
    filename TEXT,
    abstract TEXT,
    authors JSON,
    year INTEGER,
    journal TEXT,
    doi TEXT,
    PRIMARY KEY (snapshot_id, id)
);

CREATE TABLE IF NOT EXISTS methods (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    paper_id TEXT,
    summary TEXT,
    novel INTEGER DEFAULT 0,
    PRIMARY KEY (snapshot_id, id)
);

-- Canonical nodes; seq preserves consolidation order, list-valued
-- attributes are stored as JSON
CREATE TABLE IF NOT EXISTS nodes (
    seq INTEGER PRIMARY KEY,
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    type TEXT NOT NULL,
    label TEXT NOT NULL,
    reasoning TEXT,
    observation_type TEXT,
    method_reference TEXT,
    is_merged INTEGER DEFAULT 0,
    paper_ids JSON,
    source_element_ids JSON,
    merged_ids JSON,
    members JSON,
    extra JSON,
    UNIQUE(snapshot_id, id)
);

-- Normalized edges; strength is NULL unless the link carried one
CREATE TABLE IF NOT EXISTS edges (
    seq INTEGER PRIMARY KEY,
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    source TEXT NOT NULL,
    target TEXT NOT NULL,
    type TEXT NOT NULL,
    category TEXT,
    reasoning TEXT,
    strength REAL
);

-- Intake queue of uploaded source documents awaiting extraction
CREATE TABLE IF NOT EXISTS paper_files (
    id TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    title TEXT,
    pages INTEGER DEFAULT 0,
    content_hash TEXT NOT NULL,
    status TEXT DEFAULT 'queued',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- View audit log
CREATE TABLE IF NOT EXISTS view_log (
    id INTEGER PRIMARY KEY,
    snapshot_id TEXT,
    view TEXT NOT NULL,
    target TEXT,
    elapsed_ms INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Full-text search over node labels via FTS5
CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
    label,
    content='nodes',
    content_rowid='seq',
    tokenize='porter unicode61'
);

-- FTS triggers to keep index in sync
CREATE TRIGGER IF NOT EXISTS nodes_ai AFTER INSERT ON nodes BEGIN
    INSERT INTO nodes_fts(rowid, label) VALUES (new.seq, new.label);
END;
CREATE TRIGGER IF NOT EXISTS nodes_ad AFTER DELETE ON nodes BEGIN
    INSERT INTO nodes_fts(nodes_fts, rowid, label) VALUES ('delete', old.seq, old.label);
END;
CREATE TRIGGER IF NOT EXISTS nodes_au AFTER UPDATE ON nodes BEGIN
    INSERT INTO nodes_fts(nodes_fts, rowid, label) VALUES ('delete', old.seq, old.label);
    INSERT INTO nodes_fts(rowid, label) VALUES (new.seq, new.label);
END;

-- Indexes
CREATE INDEX IF NOT EXISTS idx_nodes_snapshot ON nodes(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_edges_snapshot ON edges(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(snapshot_id, source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(snapshot_id, target);
CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(name);
CREATE INDEX IF NOT EXISTS idx_view_log_snapshot ON view_log(snapshot_id);
`
