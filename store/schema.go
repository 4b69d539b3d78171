package store

import "fmt"

// schemaSQL returns the DDL for all tables. embeddingDim controls the
// vec0 virtual table dimension.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- Source documents (uploaded standards PDFs) with hash-based change detection
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    filename TEXT NOT NULL,
    subject TEXT,
    content_hash TEXT NOT NULL,
    parse_method TEXT NOT NULL,
    status TEXT DEFAULT 'pending',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Parsed curriculum standards; standard_id is unique within a document
CREATE TABLE IF NOT EXISTS standards (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    standard_id TEXT NOT NULL,
    grade_level TEXT NOT NULL,
    strand_code TEXT NOT NULL,
    strand_name TEXT NOT NULL,
    strand_description TEXT,
    standard_text TEXT NOT NULL,
    source_page INTEGER,
    position_in_doc INTEGER,
    UNIQUE(document_id, standard_id)
);

-- Objectives hang off their standard
CREATE TABLE IF NOT EXISTS objectives (
    id INTEGER PRIMARY KEY,
    standard_row_id INTEGER NOT NULL REFERENCES standards(id) ON DELETE CASCADE,
    objective_id TEXT NOT NULL,
    objective_text TEXT NOT NULL,
    UNIQUE(standard_row_id, objective_id)
);

-- Vector embeddings of standard text via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_standards USING vec0(
    standard_row_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Full-text search via FTS5
CREATE VIRTUAL TABLE IF NOT EXISTS standards_fts USING fts5(
    standard_text,
    standard_id,
    content='standards',
    content_rowid='id',
    tokenize='porter unicode61'
);

-- FTS triggers to keep index in sync
CREATE TRIGGER IF NOT EXISTS standards_ai AFTER INSERT ON standards BEGIN
    INSERT INTO standards_fts(rowid, standard_text, standard_id) VALUES (new.id, new.standard_text, new.standard_id);
END;
CREATE TRIGGER IF NOT EXISTS standards_ad AFTER DELETE ON standards BEGIN
    INSERT INTO standards_fts(standards_fts, rowid, standard_text, standard_id) VALUES ('delete', old.id, old.standard_text, old.standard_id);
END;
CREATE TRIGGER IF NOT EXISTS standards_au AFTER UPDATE ON standards BEGIN
    INSERT INTO standards_fts(standards_fts, rowid, standard_text, standard_id) VALUES ('delete', old.id, old.standard_text, old.standard_id);
    INSERT INTO standards_fts(rowid, standard_text, standard_id) VALUES (new.id, new.standard_text, new.standard_id);
END;

-- Generated lesson plans and slide outlines, kept for re-download
CREATE TABLE IF NOT EXISTS generated_content (
    id INTEGER PRIMARY KEY,
    standard_row_id INTEGER NOT NULL REFERENCES standards(id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    content TEXT NOT NULL,
    model_used TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_standards_document ON standards(document_id);
CREATE INDEX IF NOT EXISTS idx_standards_grade ON standards(grade_level);
CREATE INDEX IF NOT EXISTS idx_objectives_standard ON objectives(standard_row_id);
`, embeddingDim)
}
