package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dquintero/curricula"
	"github.com/dquintero/curricula/lesson"
	"github.com/dquintero/curricula/store"
)

type handler struct {
	engine curricula.Engine
}

func newHandler(e curricula.Engine) *handler {
	return &handler{engine: e}
}

// POST /ingest
// Accepts multipart file upload or JSON with file path.
func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	// Try multipart upload first
	if err := r.ParseMultipartForm(100 << 20); err == nil { // 100MB max
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			// Sanitise filename to prevent path traversal.
			safeName := filepath.Base(header.Filename)

			tmpDir := os.TempDir()
			tmpPath := filepath.Join(tmpDir, safeName)
			dst, err := os.Create(tmpPath)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to process file")
				slog.Error("creating temp file", "error", err)
				return
			}
			if _, err := io.Copy(dst, file); err != nil {
				dst.Close()
				writeError(w, http.StatusInternalServerError, "failed to save file")
				slog.Error("saving uploaded file", "error", err)
				return
			}
			dst.Close()
			defer os.Remove(tmpPath)

			opts := ingestOptions(r.FormValue("subject"), r.FormValue("force") != "")
			docID, err := h.engine.IngestStandards(ctx, tmpPath, opts...)
			if err != nil {
				writeIngestError(w, err)
				slog.Error("ingest error", "file", safeName, "error", err)
				return
			}

			writeJSON(w, http.StatusOK, map[string]interface{}{
				"document_id": docID,
				"filename":    safeName,
			})
			return
		}
	}

	// Try JSON body with path
	var req struct {
		Path    string `json:"path"`
		Subject string `json:"subject,omitempty"`
		Force   bool   `json:"force,omitempty"`
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

	docID, err := h.engine.IngestStandards(ctx, absPath, ingestOptions(req.Subject, req.Force)...)
	if err != nil {
		writeIngestError(w, err)
		slog.Error("ingest error", "path", absPath, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": docID,
		"path":        absPath,
	})
}

func ingestOptions(subject string, force bool) []curricula.IngestOption {
	var opts []curricula.IngestOption
	if subject != "" {
		opts = append(opts, curricula.WithSubject(subject))
	}
	if force {
		opts = append(opts, curricula.WithForceReparse())
	}
	return opts
}

func writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, curricula.ErrNoStandards):
		writeError(w, http.StatusUnprocessableEntity, "no standards found in document")
	case errors.Is(err, curricula.ErrParsingFailed):
		writeError(w, http.StatusUnprocessableEntity, "document could not be parsed")
	default:
		writeError(w, http.StatusInternalServerError, "ingestion failed")
	}
}

// POST /search
func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	// Bound parameters.
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 10
	}

	results, err := h.engine.Search(ctx, req.Query, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		slog.Error("search error", "query", req.Query, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// GET /documents
func (h *handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.engine.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		slog.Error("list documents error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}

// DELETE /documents/{id}
func (h *handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.engine.Delete(r.Context(), id); err != nil {
		if errors.Is(err, curricula.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete failed")
		slog.Error("delete error", "document_id", id, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /documents/{id}/standards
func (h *handler) handleDocumentStandards(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	recs, err := h.engine.Standards(r.Context(), id)
	if err != nil {
		if errors.Is(err, curricula.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load standards")
		slog.Error("standards error", "document_id", id, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": id,
		"standards":   recs,
	})
}

// GET /documents/{id}/export
// Streams the document's standards as an XLSX workbook.
func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	tmp, err := os.CreateTemp("", "curricula-export-*.xlsx")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		slog.Error("creating export temp file", "error", err)
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := h.engine.ExportXLSX(r.Context(), id, tmpPath); err != nil {
		if errors.Is(err, curricula.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "export failed")
		slog.Error("export error", "document_id", id, "error", err)
		return
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		slog.Error("opening export file", "error", err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="standards-%d.xlsx"`, id))
	io.Copy(w, f)
}

// POST /standards/{id}/lesson-plan
func (h *handler) handleLessonPlan(w http.ResponseWriter, r *http.Request) {
	h.handleGenerate(w, r, h.engine.GenerateLessonPlan)
}

// POST /standards/{id}/slides
func (h *handler) handleSlides(w http.ResponseWriter, r *http.Request) {
	h.handleGenerate(w, r, h.engine.GenerateSlides)
}

func (h *handler) handleGenerate(w http.ResponseWriter, r *http.Request,
	generate func(context.Context, int64, lesson.Options) (*store.GeneratedContent, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		DurationMinutes int    `json:"duration_minutes,omitempty"`
		SlideCount      int    `json:"slide_count,omitempty"`
		Notes           string `json:"notes,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	opts := lesson.Options{
		DurationMinutes: req.DurationMinutes,
		SlideCount:      req.SlideCount,
		Notes:           req.Notes,
	}

	content, err := generate(ctx, id, opts)
	if err != nil {
		if errors.Is(err, curricula.ErrStandardNotFound) {
			writeError(w, http.StatusNotFound, "standard not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "generation failed")
		slog.Error("generation error", "standard_rowid", id, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, content)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
