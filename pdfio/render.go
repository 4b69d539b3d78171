package pdfio

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// Renderer rasterizes PDF pages to PNG for the vision path.
type Renderer struct {
	// DPI controls raster resolution. Defaults to 150, enough for a vision
	// model to read 9pt table text without ballooning upload size.
	DPI float64
}

func (r *Renderer) dpi() float64 {
	if r.DPI > 0 {
		return r.DPI
	}
	return 150
}

// PageCount returns the document's page count.
func (r *Renderer) PageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("opening PDF for rendering: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// RenderPage rasterizes one 1-indexed page to PNG bytes.
func (r *Renderer) RenderPage(ctx context.Context, path string, page int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF for rendering: %w", err)
	}
	defer doc.Close()

	if page < 1 || page > doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, doc.NumPage())
	}

	// go-fitz pages are 0-indexed.
	img, err := doc.ImageDPI(page-1, r.dpi())
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", page, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding page %d: %w", page, err)
	}
	return buf.Bytes(), nil
}
