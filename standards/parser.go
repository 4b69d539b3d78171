package standards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Page is one page of a standards document as the fallback path sees it:
// positioned text fragments plus whatever table structure the reader
// recovered. Page numbers are 1-indexed.
type Page struct {
	Number    int
	Fragments []Fragment
	Tables    []Table
}

// DocumentReader supplies the structural page view used by the table and
// text-block extractors.
type DocumentReader interface {
	Pages(ctx context.Context, path string) ([]Page, error)
}

// PageRenderer rasterizes document pages for the vision path.
type PageRenderer interface {
	PageCount(path string) (int, error)
	// RenderPage returns PNG bytes for a 1-indexed page.
	RenderPage(ctx context.Context, path string, page int) ([]byte, error)
}

// ParserConfig configures the orchestrated parse.
type ParserConfig struct {
	// SkipPages lists 1-indexed pages neither extraction path should touch
	// (covers, tables of contents, appendices).
	SkipPages []int `json:"skip_pages" yaml:"skip_pages"`

	// PageDelay paces vision calls to stay under provider rate limits.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// DisableVision forces the structural fallback even when a vision
	// extractor is wired.
	DisableVision bool `json:"disable_vision" yaml:"disable_vision"`

	Validation ValidationConfig `json:"validation" yaml:"validation"`
}

// Parser is the top-level orchestrator: try the vision path, validate its
// output, and fall back to the table/text-block path on failure or rejection.
// The fallback result is returned unconditionally — it is the last resort and
// has no validation gate of its own.
type Parser struct {
	reader   DocumentReader
	renderer PageRenderer
	vision   *VisionStandardsExtractor
	tables   TableStandardsExtractor
	blocks   TextBlockStandardsExtractor
	cfg      ParserConfig
}

// NewParser builds an orchestrator. vision and renderer may be nil, in which
// case only the structural fallback runs.
func NewParser(reader DocumentReader, renderer PageRenderer, vision *VisionStandardsExtractor, cfg ParserConfig) *Parser {
	return &Parser{reader: reader, renderer: renderer, vision: vision, cfg: cfg}
}

// ParseResult carries the extracted records plus which path produced them.
type ParseResult struct {
	Records []StandardRecord
	Method  string // "vision" or "structural"
}

// Parse extracts a document's standards. The only error it returns is a true
// input error (the file missing or unreadable); every expected failure mode
// degrades to the fallback path or to a smaller — possibly empty — result.
func (p *Parser) Parse(ctx context.Context, path string) ([]StandardRecord, error) {
	res, err := p.ParseDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// ParseDocument is Parse plus provenance for callers that record how a
// document was extracted.
func (p *Parser) ParseDocument(ctx context.Context, path string) (*ParseResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("standards: opening document: %w", err)
	}

	if p.vision != nil && p.renderer != nil && !p.cfg.DisableVision {
		records, err := p.parseVision(ctx, path)
		if err == nil {
			if verr := Validate(records, p.cfg.Validation); verr == nil {
				slog.Info("standards: vision extraction accepted",
					"standards", len(records), "grades", gradesCovered(records))
				return &ParseResult{Records: records, Method: "vision"}, nil
			} else {
				slog.Warn("standards: vision extraction rejected, falling back", "reason", verr)
			}
		} else {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			slog.Warn("standards: vision path failed, falling back", "error", err)
		}
	} else {
		slog.Info("standards: vision path unavailable, using structural extraction")
	}

	records, err := p.parseFallback(ctx, path)
	if err != nil {
		return nil, err
	}
	return &ParseResult{Records: records, Method: "structural"}, nil
}

// parseVision renders and extracts each page through the model, merging
// across pages. A failed page contributes zero records; it never aborts the
// document. The whole path errors out only when no page could be processed.
func (p *Parser) parseVision(ctx context.Context, path string) ([]StandardRecord, error) {
	total, err := p.renderer.PageCount(path)
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}

	skip := p.skipSet()

	merger := NewMerger()
	processed, failed := 0, 0

	for page := 1; page <= total; page++ {
		if skip[page] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if processed > 0 && p.cfg.PageDelay > 0 {
			select {
			case <-time.After(p.cfg.PageDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		img, err := p.renderer.RenderPage(ctx, path, page)
		if err != nil {
			slog.Warn("standards: page render failed", "page", page, "error", err)
			failed++
			continue
		}
		records, err := p.vision.ExtractPage(ctx, img, page)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			slog.Warn("standards: vision page extraction failed", "page", page, "error", err)
			failed++
			continue
		}
		processed++
		merger.AddAll(FilterMalformed(records))
	}

	if processed == 0 && failed > 0 {
		return nil, fmt.Errorf("all %d vision pages failed", failed)
	}
	return merger.Result(), nil
}

// parseFallback runs the structural extractors over every page: tables when
// the reader recovered any, positioned text blocks otherwise.
func (p *Parser) parseFallback(ctx context.Context, path string) ([]StandardRecord, error) {
	pages, err := p.reader.Pages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("standards: reading document: %w", err)
	}

	skip := p.skipSet()
	merger := NewMerger()
	for _, page := range pages {
		if skip[page.Number] {
			continue
		}
		var records []StandardRecord
		if len(page.Tables) > 0 {
			records = p.tables.ExtractPage(page.Tables, page.Number)
		}
		if len(records) == 0 {
			records = p.blocks.ExtractPage(page.Fragments, page.Number)
		}
		merger.AddAll(FilterMalformed(records))
	}

	result := merger.Result()
	slog.Info("standards: structural extraction complete",
		"pages", len(pages), "standards", len(result), "grades", gradesCovered(result))
	return result, nil
}

func (p *Parser) skipSet() map[int]bool {
	skip := make(map[int]bool, len(p.cfg.SkipPages))
	for _, n := range p.cfg.SkipPages {
		skip[n] = true
	}
	return skip
}
