package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/dquintero/curricula"
	"github.com/dquintero/curricula/lesson"
	"github.com/dquintero/curricula/store"
)

// fakeEngine knows a single document ID and reports everything else missing.
type fakeEngine struct {
	docID   int64
	deleted []int64
}

func (f *fakeEngine) IngestStandards(ctx context.Context, path string, opts ...curricula.IngestOption) (int64, error) {
	return f.docID, nil
}

func (f *fakeEngine) Standards(ctx context.Context, documentID int64) ([]store.StoredStandard, error) {
	if documentID != f.docID {
		return nil, fmt.Errorf("%w: id %d", curricula.ErrDocumentNotFound, documentID)
	}
	return []store.StoredStandard{}, nil
}

func (f *fakeEngine) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	return nil, nil
}

func (f *fakeEngine) GenerateLessonPlan(ctx context.Context, standardRowID int64, opts lesson.Options) (*store.GeneratedContent, error) {
	return nil, curricula.ErrStandardNotFound
}

func (f *fakeEngine) GenerateSlides(ctx context.Context, standardRowID int64, opts lesson.Options) (*store.GeneratedContent, error) {
	return nil, curricula.ErrStandardNotFound
}

func (f *fakeEngine) ExportXLSX(ctx context.Context, documentID int64, outPath string) error {
	if documentID != f.docID {
		return fmt.Errorf("%w: id %d", curricula.ErrDocumentNotFound, documentID)
	}
	return nil
}

func (f *fakeEngine) ListDocuments(ctx context.Context) ([]store.Document, error) { return nil, nil }

func (f *fakeEngine) Delete(ctx context.Context, documentID int64) error {
	if documentID != f.docID {
		return fmt.Errorf("%w: id %d", curricula.ErrDocumentNotFound, documentID)
	}
	f.deleted = append(f.deleted, documentID)
	return nil
}

func (f *fakeEngine) Store() *store.Store { return nil }

func (f *fakeEngine) Close() error { return nil }

func TestHandleDeleteDocumentNotFound(t *testing.T) {
	h := newHandler(&fakeEngine{docID: 1})

	req := httptest.NewRequest("DELETE", "/documents/42", nil)
	req.SetPathValue("id", "42")
	rec := httptest.NewRecorder()

	h.handleDeleteDocument(rec, req)

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDeleteDocumentOK(t *testing.T) {
	eng := &fakeEngine{docID: 7}
	h := newHandler(eng)

	req := httptest.NewRequest("DELETE", "/documents/7", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()

	h.handleDeleteDocument(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "deleted" {
		t.Errorf("status field = %q, want deleted", body["status"])
	}
	if len(eng.deleted) != 1 || eng.deleted[0] != 7 {
		t.Errorf("deleted = %v, want [7]", eng.deleted)
	}
}

func TestHandleDocumentStandardsNotFound(t *testing.T) {
	h := newHandler(&fakeEngine{docID: 1})

	req := httptest.NewRequest("GET", "/documents/99/standards", nil)
	req.SetPathValue("id", "99")
	rec := httptest.NewRecorder()

	h.handleDocumentStandards(rec, req)

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
