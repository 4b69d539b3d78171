// Package store is the SQLite persistence layer: uploaded documents, parsed
// standards and objectives, their embeddings, and generated lesson content.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dquintero/curricula/standards"
)

func init() {
	sqlite_vec.Auto()
}

// Document represents a row in the documents table.
type Document struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	Subject     string `json:"subject,omitempty"`
	ContentHash string `json:"content_hash"`
	ParseMethod string `json:"parse_method"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// StoredStandard is a standard row joined with its objectives.
type StoredStandard struct {
	RowID      int64 `json:"row_id"`
	DocumentID int64 `json:"document_id"`
	standards.StandardRecord
}

// SearchResult holds a standard with its retrieval score.
type SearchResult struct {
	RowID        int64   `json:"row_id"`
	DocumentID   int64   `json:"document_id"`
	StandardID   string  `json:"standard_id"`
	GradeLevel   string  `json:"grade_level"`
	StrandCode   string  `json:"strand_code"`
	StandardText string  `json:"standard_text"`
	Filename     string  `json:"filename"`
	Score        float64 `json:"score"`
}

// GeneratedContent is one stored lesson plan or slide outline.
type GeneratedContent struct {
	ID            int64  `json:"id"`
	StandardRowID int64  `json:"standard_row_id"`
	Kind          string `json:"kind"` // "lesson_plan" or "slides"
	Content       string `json:"content"`
	ModelUsed     string `json:"model_used"`
	CreatedAt     string `json:"created_at"`
}

// Store wraps the SQLite database for all curricula persistence.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and initialises
// the schema including the sqlite-vec and FTS5 virtual tables.
func New(dbPath string, embeddingDim int) (*Store, error) {
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

	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, embeddingDim: embeddingDim}

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

// EmbeddingDim returns the configured embedding dimension.
func (s *Store) EmbeddingDim() int {
	return s.embeddingDim
}

// --- Document operations ---

// UpsertDocument inserts or updates a document record. Returns the document ID.
func (s *Store) UpsertDocument(ctx context.Context, doc Document) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, filename, subject, content_hash, parse_method, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename = excluded.filename,
			subject = excluded.subject,
			content_hash = excluded.content_hash,
			parse_method = excluded.parse_method,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
	`, doc.Path, doc.Filename, doc.Subject, doc.ContentHash, doc.ParseMethod, doc.Status)
	if err != nil {
		return 0, err
	}

	// LastInsertId is not meaningful when the UPSERT took the UPDATE branch;
	// the path is unique, so resolve the ID through it.
	var id int64
	row := s.db.QueryRowContext(ctx, "SELECT id FROM documents WHERE path = ?", doc.Path)
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// GetDocument retrieves a document by ID. Returns sql.ErrNoRows when the ID
// does not exist.
func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	doc := &Document{}
	var subject sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, path, filename, subject, content_hash, parse_method, status, created_at, updated_at
		FROM documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.Path, &doc.Filename, &subject,
		&doc.ContentHash, &doc.ParseMethod, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.Subject = subject.String
	return doc, nil
}

// GetDocumentByPath retrieves a document by its file path.
func (s *Store) GetDocumentByPath(ctx context.Context, path string) (*Document, error) {
	doc := &Document{}
	var subject sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, path, filename, subject, content_hash, parse_method, status, created_at, updated_at
		FROM documents WHERE path = ?
	`, path).Scan(&doc.ID, &doc.Path, &doc.Filename, &subject,
		&doc.ContentHash, &doc.ParseMethod, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.Subject = subject.String
	return doc, nil
}

// ListDocuments returns all documents ordered by creation time.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, filename, subject, content_hash, parse_method, status, created_at, updated_at
		FROM documents ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var subject sql.NullString
		if err := rows.Scan(&d.ID, &d.Path, &d.Filename, &subject,
			&d.ContentHash, &d.ParseMethod, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Subject = subject.String
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocumentStatus updates just the status field.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id)
	return err
}

// UpdateDocumentParseMethod updates just the parse_method field.
func (s *Store) UpdateDocumentParseMethod(ctx context.Context, id int64, method string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE documents SET parse_method = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		method, id)
	return err
}

// DeleteDocument removes a document and cascades to all related data.
// Returns sql.ErrNoRows when the ID does not exist.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_standards WHERE standard_row_id IN (
				SELECT id FROM standards WHERE document_id = ?
			)`, id); err != nil {
			return err
		}
		// Objectives, generated content, and FTS rows cascade/trigger off
		// the standards rows.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM standards WHERE document_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// --- Standard operations ---

// ReplaceStandards atomically replaces a document's parsed standards with a
// freshly merged list, preserving the parser's output order. Returns the new
// row IDs, aligned with the input slice.
func (s *Store) ReplaceStandards(ctx context.Context, docID int64, records []standards.StandardRecord) ([]int64, error) {
	rowIDs := make([]int64, len(records))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_standards WHERE standard_row_id IN (
				SELECT id FROM standards WHERE document_id = ?
			)`, docID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM standards WHERE document_id = ?", docID); err != nil {
			return err
		}

		stdStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO standards (document_id, standard_id, grade_level, strand_code,
				strand_name, strand_description, standard_text, source_page, position_in_doc)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stdStmt.Close()

		objStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO objectives (standard_row_id, objective_id, objective_text)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer objStmt.Close()

		for i, rec := range records {
			res, err := stdStmt.ExecContext(ctx,
				docID, rec.StandardID, rec.GradeLevel, rec.StrandCode,
				rec.StrandName, rec.StrandDescription, rec.StandardText,
				rec.SourcePage, i)
			if err != nil {
				return fmt.Errorf("inserting standard %s: %w", rec.StandardID, err)
			}
			rowIDs[i], err = res.LastInsertId()
			if err != nil {
				return err
			}
			for _, obj := range rec.Objectives {
				if _, err := objStmt.ExecContext(ctx, rowIDs[i], obj.ObjectiveID, obj.ObjectiveText); err != nil {
					return fmt.Errorf("inserting objective %s: %w", obj.ObjectiveID, err)
				}
			}
		}
		return nil
	})

	return rowIDs, err
}

// GetStandardsByDocument returns a document's standards with objectives, in
// stored (parser output) order.
func (s *Store) GetStandardsByDocument(ctx context.Context, docID int64) ([]StoredStandard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, standard_id, grade_level, strand_code,
			strand_name, COALESCE(strand_description, ''), standard_text, COALESCE(source_page, 0)
		FROM standards WHERE document_id = ? ORDER BY position_in_doc
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredStandard
	for rows.Next() {
		var st StoredStandard
		if err := rows.Scan(&st.RowID, &st.DocumentID, &st.StandardID, &st.GradeLevel,
			&st.StrandCode, &st.StrandName, &st.StrandDescription,
			&st.StandardText, &st.SourcePage); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		objs, err := s.objectivesFor(ctx, out[i].RowID, out[i].StandardID)
		if err != nil {
			return nil, err
		}
		out[i].Objectives = objs
	}
	return out, nil
}

// GetStandard retrieves one standard row with objectives.
func (s *Store) GetStandard(ctx context.Context, rowID int64) (*StoredStandard, error) {
	var st StoredStandard
	err := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, standard_id, grade_level, strand_code,
			strand_name, COALESCE(strand_description, ''), standard_text, COALESCE(source_page, 0)
		FROM standards WHERE id = ?
	`, rowID).Scan(&st.RowID, &st.DocumentID, &st.StandardID, &st.GradeLevel,
		&st.StrandCode, &st.StrandName, &st.StrandDescription,
		&st.StandardText, &st.SourcePage)
	if err != nil {
		return nil, err
	}
	objs, err := s.objectivesFor(ctx, st.RowID, st.StandardID)
	if err != nil {
		return nil, err
	}
	st.Objectives = objs
	return &st, nil
}

func (s *Store) objectivesFor(ctx context.Context, rowID int64, standardID string) ([]standards.ObjectiveRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT objective_id, objective_text FROM objectives
		WHERE standard_row_id = ? ORDER BY id
	`, rowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objs []standards.ObjectiveRecord
	for rows.Next() {
		var o standards.ObjectiveRecord
		if err := rows.Scan(&o.ObjectiveID, &o.ObjectiveText); err != nil {
			return nil, err
		}
		o.StandardID = standardID
		objs = append(objs, o)
	}
	return objs, rows.Err()
}

// --- Embedding and search operations ---

// InsertEmbedding stores a vector embedding for a standard row.
func (s *Store) InsertEmbedding(ctx context.Context, standardRowID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_standards (standard_row_id, embedding) VALUES (?, ?)",
		standardRowID, serializeFloat32(embedding))
	return err
}

// VectorSearch performs a KNN search returning the top-k nearest standards.
func (s *Store) VectorSearch(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.standard_row_id, v.distance,
			st.standard_id, st.grade_level, st.strand_code, st.standard_text, st.document_id,
			d.filename
		FROM vec_standards v
		JOIN standards st ON st.id = v.standard_row_id
		JOIN documents d ON d.id = st.document_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(queryEmbedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var distance float64
		if err := rows.Scan(&r.RowID, &distance,
			&r.StandardID, &r.GradeLevel, &r.StrandCode, &r.StandardText, &r.DocumentID,
			&r.Filename); err != nil {
			return nil, err
		}
		// Convert distance to similarity score (1 - distance for cosine).
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// FTSSearch performs a full-text search using FTS5 BM25 ranking.
func (s *Store) FTSSearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.rowid, f.rank,
			st.standard_id, st.grade_level, st.strand_code, st.standard_text, st.document_id,
			d.filename
		FROM standards_fts f
		JOIN standards st ON st.id = f.rowid
		JOIN documents d ON d.id = st.document_id
		WHERE standards_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var rank float64
		if err := rows.Scan(&r.RowID, &rank,
			&r.StandardID, &r.GradeLevel, &r.StrandCode, &r.StandardText, &r.DocumentID,
			&r.Filename); err != nil {
			return nil, err
		}
		// FTS5 rank is negative (lower = better), convert to positive score.
		r.Score = -rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// HybridSearch fuses vector and FTS rankings with reciprocal rank fusion.
// Either leg may fail or return nothing (e.g. no embeddings yet) without
// failing the search, as long as the other leg produces results.
func (s *Store) HybridSearch(ctx context.Context, queryEmbedding []float32, query string, limit int) ([]SearchResult, error) {
	const rrfK = 60.0

	var legs [][]SearchResult
	if len(queryEmbedding) > 0 {
		vec, err := s.VectorSearch(ctx, queryEmbedding, limit*2)
		if err == nil {
			legs = append(legs, vec)
		}
	}
	fts, err := s.FTSSearch(ctx, query, limit*2)
	if err == nil {
		legs = append(legs, fts)
	}
	if len(legs) == 0 {
		return nil, fmt.Errorf("both search legs failed: %w", err)
	}

	fused := make(map[int64]*SearchResult)
	for _, leg := range legs {
		for rank, r := range leg {
			if existing, ok := fused[r.RowID]; ok {
				existing.Score += 1.0 / (rrfK + float64(rank+1))
				continue
			}
			r := r
			r.Score = 1.0 / (rrfK + float64(rank+1))
			fused[r.RowID] = &r
		}
	}

	out := make([]SearchResult, 0, len(fused))
	for _, r := range fused {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Generated content operations ---

// InsertGeneratedContent stores a lesson plan or slide outline.
func (s *Store) InsertGeneratedContent(ctx context.Context, gc GeneratedContent) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO generated_content (standard_row_id, kind, content, model_used)
		VALUES (?, ?, ?, ?)
	`, gc.StandardRowID, gc.Kind, gc.Content, gc.ModelUsed)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListGeneratedContent returns generated content for a standard, newest first.
func (s *Store) ListGeneratedContent(ctx context.Context, standardRowID int64) ([]GeneratedContent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, standard_row_id, kind, content, COALESCE(model_used, ''), created_at
		FROM generated_content WHERE standard_row_id = ? ORDER BY created_at DESC
	`, standardRowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GeneratedContent
	for rows.Next() {
		var gc GeneratedContent
		if err := rows.Scan(&gc.ID, &gc.StandardRowID, &gc.Kind, &gc.Content, &gc.ModelUsed, &gc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, gc)
	}
	return out, rows.Err()
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

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
