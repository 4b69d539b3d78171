// Package pdfio adapts PDF files into the page views the standards
// extractors consume: positioned text fragments, reconstructed table
// structure, and rasterized page images for the vision path.
package pdfio

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dquintero/curricula/standards"
)

// Reader extracts positioned text and table structure from PDF files.
// The zero value is ready to use.
type Reader struct {
	// RowTolerance is the Y distance (points) within which two text runs
	// belong to the same line. Defaults to 3.
	RowTolerance float64

	// CellGap is the X gap (points) that separates two fragments on the same
	// line into different cells/columns. Defaults to 18.
	CellGap float64

	// MinTableRows is the minimum number of multi-cell lines before a page's
	// lines are offered as a table. Defaults to 3.
	MinTableRows int
}

func (r *Reader) rowTolerance() float64 {
	if r.RowTolerance > 0 {
		return r.RowTolerance
	}
	return 3
}

func (r *Reader) cellGap() float64 {
	if r.CellGap > 0 {
		return r.CellGap
	}
	return 18
}

func (r *Reader) minTableRows() int {
	if r.MinTableRows > 0 {
		return r.MinTableRows
	}
	return 3
}

// Pages reads the whole document. Pages that fail text extraction are
// returned empty rather than failing the document.
func (r *Reader) Pages(ctx context.Context, path string) ([]standards.Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]standards.Page, 0, total)

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := standards.Page{Number: i}

		p := reader.Page(i)
		if !p.V.IsNull() {
			lines := r.assembleLines(p.Content().Text)
			page.Fragments = flattenLines(lines)
			page.Tables = r.reconstructTables(lines)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// line is one visual text line: fragments ordered left to right.
type line struct {
	y     float64
	frags []standards.Fragment
}

// assembleLines groups raw text runs into visual lines and merges runs into
// fragments, splitting a line into separate fragments at wide X gaps. The
// raw runs from the PDF reader are frequently per-glyph, so merging is what
// makes downstream pattern matching possible at all.
func (r *Reader) assembleLines(texts []pdf.Text) []line {
	runs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		runs = append(runs, t)
	}
	if len(runs) == 0 {
		return nil
	}

	// Top of page first (PDF Y grows upward), then left to right.
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Y != runs[j].Y {
			return runs[i].Y > runs[j].Y
		}
		return runs[i].X < runs[j].X
	})

	var lines []line
	cur := line{y: runs[0].Y}
	var (
		buf    strings.Builder
		fragX  float64
		lastX  float64
		inFrag bool
	)

	flushFrag := func() {
		if !inFrag {
			return
		}
		cur.frags = append(cur.frags, standards.Fragment{
			Text: strings.TrimSpace(buf.String()),
			X:    fragX,
			Y:    cur.y,
		})
		buf.Reset()
		inFrag = false
	}
	flushLine := func() {
		flushFrag()
		if len(cur.frags) > 0 {
			lines = append(lines, cur)
		}
	}

	for _, t := range runs {
		if diff := cur.y - t.Y; diff > r.rowTolerance() || diff < -r.rowTolerance() {
			flushLine()
			cur = line{y: t.Y}
		}
		if inFrag && t.X-lastX > r.cellGap() {
			flushFrag()
		}
		if !inFrag {
			fragX = t.X
			inFrag = true
		} else if t.X-lastX > wordGap(t) {
			buf.WriteByte(' ')
		}
		buf.WriteString(t.S)
		lastX = t.X + t.W
	}
	flushLine()

	return lines
}

// wordGap is the spacing threshold for inserting a space between merged runs,
// scaled by font size the way layout analyzers usually do it.
func wordGap(t pdf.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize * 0.3
	}
	return 2
}

func flattenLines(lines []line) []standards.Fragment {
	var out []standards.Fragment
	for _, l := range lines {
		out = append(out, l.frags...)
	}
	return out
}

// reconstructTables recovers column structure from positioned lines. Column
// boundaries are the clustered start positions of fragments across the page;
// a page whose lines consistently break at the same X positions is a table.
// Pages without enough multi-cell lines yield no tables and fall through to
// the text-block extractor.
func (r *Reader) reconstructTables(lines []line) []standards.Table {
	cols := r.columnPositions(lines)
	if len(cols) < 2 {
		return nil
	}

	var rows [][]string
	for _, l := range lines {
		row := make([]string, len(cols))
		for _, f := range l.frags {
			c := columnIndex(cols, f.X, r.cellGap())
			if row[c] != "" {
				row[c] += "\n"
			}
			row[c] += f.Text
		}
		rows = append(rows, row)
	}

	multi := 0
	for _, row := range rows {
		filled := 0
		for _, cell := range row {
			if cell != "" {
				filled++
			}
		}
		if filled >= 2 {
			multi++
		}
	}
	if multi < r.minTableRows() {
		return nil
	}
	return []standards.Table{{Rows: rows}}
}

// columnPositions clusters fragment start X values. A cluster must be hit by
// at least a quarter of the lines to count as a real column; stray indents
// do not create phantom columns.
func (r *Reader) columnPositions(lines []line) []float64 {
	if len(lines) == 0 {
		return nil
	}
	type cluster struct {
		x    float64
		hits int
	}
	var clusters []cluster

	for _, l := range lines {
		for _, f := range l.frags {
			matched := false
			for i := range clusters {
				if diff := clusters[i].x - f.X; diff < r.cellGap() && diff > -r.cellGap() {
					clusters[i].hits++
					matched = true
					break
				}
			}
			if !matched {
				clusters = append(clusters, cluster{x: f.X, hits: 1})
			}
		}
	}

	minHits := len(lines) / 4
	if minHits < 2 {
		minHits = 2
	}
	var cols []float64
	for _, c := range clusters {
		if c.hits >= minHits {
			cols = append(cols, c.x)
		}
	}
	sort.Float64s(cols)
	return cols
}

// columnIndex assigns a fragment to the rightmost column whose start is not
// meaningfully right of the fragment.
func columnIndex(cols []float64, x, tolerance float64) int {
	idx := 0
	for i, c := range cols {
		if x >= c-tolerance {
			idx = i
		}
	}
	return idx
}
