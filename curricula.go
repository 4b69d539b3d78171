// Package curricula is an education-content engine: it ingests curriculum
// standards PDFs, stores the parsed standards hierarchy, embeds it for
// semantic search, and drafts lesson plans and slide outlines against it.
package curricula

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dquintero/curricula/lesson"
	"github.com/dquintero/curricula/llm"
	"github.com/dquintero/curricula/pdfio"
	"github.com/dquintero/curricula/standards"
	"github.com/dquintero/curricula/store"
)

// Engine is the main entry point.
type Engine interface {
	// IngestStandards parses a standards PDF, persists the extracted
	// hierarchy, and embeds it for search. Returns the document ID.
	// Re-ingesting an unchanged file is a no-op.
	IngestStandards(ctx context.Context, path string, opts ...IngestOption) (int64, error)

	// Standards returns a document's parsed standards in output order.
	Standards(ctx context.Context, documentID int64) ([]store.StoredStandard, error)

	// Search runs hybrid (vector + full-text) search over stored standards.
	Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error)

	// GenerateLessonPlan drafts and stores a lesson plan for a standard.
	GenerateLessonPlan(ctx context.Context, standardRowID int64, opts lesson.Options) (*store.GeneratedContent, error)

	// GenerateSlides drafts and stores a slide outline for a standard.
	GenerateSlides(ctx context.Context, standardRowID int64, opts lesson.Options) (*store.GeneratedContent, error)

	// ExportXLSX writes a document's standards to an XLSX workbook.
	ExportXLSX(ctx context.Context, documentID int64, outPath string) error

	// ListDocuments returns all ingested documents.
	ListDocuments(ctx context.Context) ([]store.Document, error)

	// Delete removes a document and all associated data.
	Delete(ctx context.Context, documentID int64) error

	// Store returns the underlying store for diagnostic access.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// IngestOption configures ingestion behavior.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	forceReparse bool
	subject      string
}

// WithForceReparse forces re-parsing even if the file hash hasn't changed.
func WithForceReparse() IngestOption {
	return func(o *ingestOptions) { o.forceReparse = true }
}

// WithSubject tags the document with a subject area ("Music", "Visual Arts").
func WithSubject(subject string) IngestOption {
	return func(o *ingestOptions) { o.subject = subject }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg      Config
	store    *store.Store
	chatLLM  llm.Provider
	embedLLM llm.Provider
	parser   *standards.Parser
	planner  *lesson.Planner
}

// New creates a curricula engine with the given configuration.
func New(cfg Config) (Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dbPath := cfg.resolveDBPath()

	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 768
	}

	s, err := store.New(dbPath, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	chatLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Chat.Provider,
		Model:    cfg.Chat.Model,
		BaseURL:  cfg.Chat.BaseURL,
		APIKey:   cfg.Chat.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}

	embedLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	// Vision is optional; without it the parser goes straight to the
	// structural fallback.
	var visionExtractor *standards.VisionStandardsExtractor
	if cfg.Vision.Provider != "" && !cfg.DisableVision {
		visionLLM, err := llm.NewVisionProvider(llm.Config{
			Provider: cfg.Vision.Provider,
			Model:    cfg.Vision.Model,
			BaseURL:  cfg.Vision.BaseURL,
			APIKey:   cfg.Vision.APIKey,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating vision provider: %w", err)
		}
		visionExtractor = standards.NewVisionStandardsExtractor(visionLLM, cfg.Vision.Model)
	}

	parser := standards.NewParser(
		&pdfio.Reader{},
		&pdfio.Renderer{DPI: cfg.RenderDPI},
		visionExtractor,
		standards.ParserConfig{
			SkipPages:     cfg.SkipPages,
			PageDelay:     cfg.VisionPageDelay,
			DisableVision: cfg.DisableVision,
			Validation:    cfg.Validation,
		},
	)

	return &engine{
		cfg:      cfg,
		store:    s,
		chatLLM:  chatLLM,
		embedLLM: embedLLM,
		parser:   parser,
		planner:  lesson.New(chatLLM, cfg.Chat.Model),
	}, nil
}

// IngestStandards runs the full pipeline: parse, persist, embed.
func (e *engine) IngestStandards(ctx context.Context, path string, opts ...IngestOption) (int64, error) {
	options := &ingestOptions{}
	for _, o := range opts {
		o(options)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("resolving path: %w", err)
	}

	hash, err := fileHash(absPath)
	if err != nil {
		return 0, fmt.Errorf("hashing file: %w", err)
	}

	if !options.forceReparse {
		existing, err := e.store.GetDocumentByPath(ctx, absPath)
		if err == nil && existing.ContentHash == hash {
			return existing.ID, nil // no change
		}
	}

	filename := filepath.Base(absPath)
	docID, err := e.store.UpsertDocument(ctx, store.Document{
		Path:        absPath,
		Filename:    filename,
		Subject:     options.subject,
		ContentHash: hash,
		ParseMethod: "pending",
		Status:      "processing",
	})
	if err != nil {
		return 0, fmt.Errorf("upserting document: %w", err)
	}

	slog.Info("ingest: parsing standards document", "file", filename, "doc_id", docID)
	parseStart := time.Now()

	result, err := e.parser.ParseDocument(ctx, absPath)
	if err != nil {
		e.store.UpdateDocumentStatus(ctx, docID, "error")
		return 0, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	records := result.Records
	if len(records) == 0 {
		e.store.UpdateDocumentStatus(ctx, docID, "error")
		return 0, fmt.Errorf("%w: %s", ErrNoStandards, filename)
	}

	e.store.UpdateDocumentParseMethod(ctx, docID, result.Method)

	objectives := 0
	for _, r := range records {
		objectives += len(r.Objectives)
	}
	slog.Info("ingest: parsing complete",
		"file", filename, "standards", len(records), "objectives", objectives,
		"elapsed", time.Since(parseStart).Round(time.Millisecond))

	rowIDs, err := e.store.ReplaceStandards(ctx, docID, records)
	if err != nil {
		e.store.UpdateDocumentStatus(ctx, docID, "error")
		return 0, fmt.Errorf("storing standards: %w", err)
	}

	slog.Info("ingest: generating embeddings", "file", filename, "standards", len(records))
	embedStart := time.Now()
	if err := e.embedStandards(ctx, records, rowIDs); err != nil {
		e.store.UpdateDocumentStatus(ctx, docID, "error")
		return 0, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	slog.Info("ingest: embeddings complete",
		"file", filename, "elapsed", time.Since(embedStart).Round(time.Millisecond))

	e.store.UpdateDocumentStatus(ctx, docID, "ready")
	slog.Info("ingest: document ready", "file", filename, "doc_id", docID,
		"total_elapsed", time.Since(parseStart).Round(time.Millisecond))
	return docID, nil
}

// embedStandards embeds each standard's text plus its objectives in batches.
// Individual batch failures fall back to per-text embedding so one bad text
// does not lose the whole batch.
func (e *engine) embedStandards(ctx context.Context, records []standards.StandardRecord, rowIDs []int64) error {
	const batchSize = 32
	var failed int

	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}

		texts := make([]string, end-i)
		for j := i; j < end; j++ {
			texts[j-i] = embeddingText(records[j])
		}

		embeddings, err := e.embedLLM.Embed(ctx, texts)
		if err != nil {
			slog.Warn("embedding batch failed, falling back to individual",
				"batch_start", i, "batch_end", end, "error", err)
			for j, text := range texts {
				single, serr := e.embedLLM.Embed(ctx, []string{text})
				if serr != nil || len(single) == 0 || len(single[0]) == 0 {
					slog.Warn("embedding single standard failed",
						"row_id", rowIDs[i+j], "error", serr)
					failed++
					continue
				}
				if serr := e.store.InsertEmbedding(ctx, rowIDs[i+j], single[0]); serr != nil {
					slog.Warn("storing embedding failed", "row_id", rowIDs[i+j], "error", serr)
					failed++
				}
			}
			continue
		}

		for j, emb := range embeddings {
			if err := e.store.InsertEmbedding(ctx, rowIDs[i+j], emb); err != nil {
				slog.Warn("storing embedding failed", "row_id", rowIDs[i+j], "error", err)
				failed++
			}
		}
	}

	if failed == len(records) && len(records) > 0 {
		return fmt.Errorf("all %d standards failed embedding", len(records))
	}
	if failed > 0 {
		slog.Warn("some embeddings failed", "failed", failed, "total", len(records))
	}
	return nil
}

// embeddingText is what gets embedded for a standard: its text plus
// objective texts, so objective-level queries land on the right standard.
func embeddingText(rec standards.StandardRecord) string {
	text := rec.StrandName + ": " + rec.StandardText
	for _, obj := range rec.Objectives {
		text += " " + obj.ObjectiveText
	}
	return text
}

// Standards returns a document's parsed standards.
func (e *engine) Standards(ctx context.Context, documentID int64) ([]store.StoredStandard, error) {
	if err := e.requireDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return e.store.GetStandardsByDocument(ctx, documentID)
}

// requireDocument maps a missing document ID onto the package sentinel.
func (e *engine) requireDocument(ctx context.Context, id int64) error {
	if _, err := e.store.GetDocument(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrDocumentNotFound, id)
		}
		return fmt.Errorf("loading document: %w", err)
	}
	return nil
}

// Search runs hybrid retrieval over all stored standards.
func (e *engine) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var queryEmbedding []float32
	embeddings, err := e.embedLLM.Embed(ctx, []string{query})
	if err != nil || len(embeddings) == 0 {
		slog.Warn("search: query embedding failed, using full-text only", "error", err)
	} else {
		queryEmbedding = embeddings[0]
	}

	return e.store.HybridSearch(ctx, queryEmbedding, query, limit)
}

// GenerateLessonPlan drafts a lesson plan for a stored standard.
func (e *engine) GenerateLessonPlan(ctx context.Context, standardRowID int64, opts lesson.Options) (*store.GeneratedContent, error) {
	return e.generate(ctx, standardRowID, "lesson_plan", opts)
}

// GenerateSlides drafts a slide outline for a stored standard.
func (e *engine) GenerateSlides(ctx context.Context, standardRowID int64, opts lesson.Options) (*store.GeneratedContent, error) {
	return e.generate(ctx, standardRowID, "slides", opts)
}

func (e *engine) generate(ctx context.Context, standardRowID int64, kind string, opts lesson.Options) (*store.GeneratedContent, error) {
	st, err := e.store.GetStandard(ctx, standardRowID)
	if err != nil {
		return nil, fmt.Errorf("%w: row %d", ErrStandardNotFound, standardRowID)
	}

	var draft *lesson.Draft
	switch kind {
	case "lesson_plan":
		draft, err = e.planner.LessonPlan(ctx, st.StandardRecord, opts)
	case "slides":
		draft, err = e.planner.SlideOutline(ctx, st.StandardRecord, opts)
	default:
		return nil, fmt.Errorf("unknown content kind: %s", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}

	gc := store.GeneratedContent{
		StandardRowID: standardRowID,
		Kind:          kind,
		Content:       draft.Content,
		ModelUsed:     draft.ModelUsed,
	}
	id, err := e.store.InsertGeneratedContent(ctx, gc)
	if err != nil {
		return nil, fmt.Errorf("storing generated content: %w", err)
	}
	gc.ID = id
	return &gc, nil
}

// ExportXLSX writes a document's standards to an XLSX workbook.
func (e *engine) ExportXLSX(ctx context.Context, documentID int64, outPath string) error {
	if err := e.requireDocument(ctx, documentID); err != nil {
		return err
	}
	return e.store.ExportXLSX(ctx, documentID, outPath)
}

// ListDocuments returns all ingested documents.
func (e *engine) ListDocuments(ctx context.Context) ([]store.Document, error) {
	return e.store.ListDocuments(ctx)
}

// Delete removes a document and all its associated data.
func (e *engine) Delete(ctx context.Context, documentID int64) error {
	if err := e.store.DeleteDocument(ctx, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrDocumentNotFound, documentID)
		}
		return err
	}
	return nil
}

// Store returns the underlying store for diagnostic access.
func (e *engine) Store() *store.Store {
	return e.store
}

// Close shuts down the engine.
func (e *engine) Close() error {
	return e.store.Close()
}

// fileHash computes the SHA-256 hash of a file's content.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
