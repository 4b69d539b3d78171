package pdfio

import (
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/dquintero/curricula/standards"
)

// run builds a glyph-run the way ledongthuc/pdf reports them: one short
// string with a position, width, and font size.
func run(s string, x, y float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: float64(len(s)) * 5, FontSize: 10}
}

func fragAt(text string, x, y float64) standards.Fragment {
	return standards.Fragment{Text: text, X: x, Y: y}
}

// ---------------------------------------------------------------------------
// Line assembly
// ---------------------------------------------------------------------------

func TestAssembleLinesMergesRuns(t *testing.T) {
	r := &Reader{}
	// "K.CN.1" arrives as adjacent glyph runs plus a separated word.
	texts := []pdf.Text{
		run("K.", 72, 700),
		run("CN", 82, 700),
		run(".1", 92, 700),
		run("Relate", 108, 700),
	}

	lines := r.assembleLines(texts)
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if len(lines[0].frags) != 1 {
		t.Fatalf("len(frags) = %d, want 1 merged fragment", len(lines[0].frags))
	}
	if got := lines[0].frags[0].Text; got != "K.CN.1 Relate" {
		t.Errorf("merged text = %q, want %q", got, "K.CN.1 Relate")
	}
	if lines[0].frags[0].X != 72 {
		t.Errorf("fragment X = %v, want 72 (start of first run)", lines[0].frags[0].X)
	}
}

func TestAssembleLinesSplitsAtCellGap(t *testing.T) {
	r := &Reader{}
	// Two fragments on one line separated by a wide gap: two cells.
	texts := []pdf.Text{
		run("K.CN.1 Relate", 72, 700),
		run("K.CN.1.1 Identify", 300, 700),
	}

	lines := r.assembleLines(texts)
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if len(lines[0].frags) != 2 {
		t.Fatalf("len(frags) = %d, want 2 (gap splits the line)", len(lines[0].frags))
	}
	if lines[0].frags[1].X != 300 {
		t.Errorf("second fragment X = %v, want 300", lines[0].frags[1].X)
	}
}

func TestAssembleLinesRowTolerance(t *testing.T) {
	r := &Reader{}
	// Baselines 2 points apart are one visual line; 20 points apart are two.
	texts := []pdf.Text{
		run("alpha", 72, 700),
		run("beta", 110, 698),
		run("gamma", 72, 680),
	}

	lines := r.assembleLines(texts)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if got := lines[0].frags[0].Text; got != "alpha beta" {
		t.Errorf("first line = %q, want %q", got, "alpha beta")
	}
	if got := lines[1].frags[0].Text; got != "gamma" {
		t.Errorf("second line = %q, want %q", got, "gamma")
	}
}

func TestAssembleLinesTopToBottom(t *testing.T) {
	r := &Reader{}
	texts := []pdf.Text{
		run("bottom", 72, 100),
		run("top", 72, 700),
	}

	lines := r.assembleLines(texts)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0].frags[0].Text != "top" || lines[1].frags[0].Text != "bottom" {
		t.Errorf("order = %q, %q; want top, bottom", lines[0].frags[0].Text, lines[1].frags[0].Text)
	}
}

func TestAssembleLinesSkipsWhitespaceRuns(t *testing.T) {
	r := &Reader{}
	texts := []pdf.Text{
		run("  ", 72, 700),
		run("\t", 80, 700),
	}
	if lines := r.assembleLines(texts); lines != nil {
		t.Errorf("lines = %+v, want nil for whitespace-only input", lines)
	}
}

// ---------------------------------------------------------------------------
// Table reconstruction
// ---------------------------------------------------------------------------

func tableLines(rows [][2]string) []line {
	out := make([]line, 0, len(rows))
	y := 700.0
	for _, row := range rows {
		l := line{y: y}
		if row[0] != "" {
			l.frags = append(l.frags, fragAt(row[0], 72, y))
		}
		if row[1] != "" {
			l.frags = append(l.frags, fragAt(row[1], 320, y))
		}
		out = append(out, l)
		y -= 20
	}
	return out
}

func TestReconstructTablesTwoColumns(t *testing.T) {
	r := &Reader{}
	lines := tableLines([][2]string{
		{"Standard", "Objectives"},
		{"K.CN.1 Relate ideas", "K.CN.1.1 Identify"},
		{"K.CN.2 Compare works", "K.CN.2.1 Describe"},
		{"K.CN.3 Explore roles", "K.CN.3.1 List"},
	})

	tables := r.reconstructTables(lines)
	if len(tables) != 1 {
		t.Fatalf("len(tables) = %d, want 1", len(tables))
	}
	rows := tables[0].Rows
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}
	if len(rows[1]) != 2 {
		t.Fatalf("len(rows[1]) = %d, want 2 columns", len(rows[1]))
	}
	if rows[1][0] != "K.CN.1 Relate ideas" || rows[1][1] != "K.CN.1.1 Identify" {
		t.Errorf("rows[1] = %v", rows[1])
	}
}

func TestReconstructTablesContinuationRow(t *testing.T) {
	// A wrapped objective leaves column 0 empty; the cell must land in
	// column 1, not shift left.
	r := &Reader{}
	lines := tableLines([][2]string{
		{"K.CN.1 Relate ideas", "K.CN.1.1 Identify connections"},
		{"", "between music and daily life"},
		{"K.CN.2 Compare works", "K.CN.2.1 Describe"},
		{"K.CN.3 Explore roles", "K.CN.3.1 List"},
	})

	tables := r.reconstructTables(lines)
	if len(tables) != 1 {
		t.Fatalf("len(tables) = %d, want 1", len(tables))
	}
	row := tables[0].Rows[1]
	if row[0] != "" {
		t.Errorf("row[0] = %q, want empty", row[0])
	}
	if row[1] != "between music and daily life" {
		t.Errorf("row[1] = %q", row[1])
	}
}

func TestReconstructTablesRejectsProse(t *testing.T) {
	// Single-column prose: no second column cluster, no table.
	r := &Reader{}
	var lines []line
	y := 700.0
	for _, s := range []string{"Kindergarten", "Connect", "K.CN.1 Relate ideas", "K.CN.1.1 Identify"} {
		lines = append(lines, line{y: y, frags: []standards.Fragment{fragAt(s, 72, y)}})
		y -= 20
	}

	if tables := r.reconstructTables(lines); tables != nil {
		t.Errorf("tables = %+v, want nil for single-column prose", tables)
	}
}

func TestReconstructTablesNeedsEnoughMultiCellRows(t *testing.T) {
	// Two multi-cell rows are below the default threshold of three.
	r := &Reader{}
	lines := tableLines([][2]string{
		{"K.CN.1 Relate ideas", "K.CN.1.1 Identify"},
		{"K.CN.2 Compare works", "K.CN.2.1 Describe"},
	})

	if tables := r.reconstructTables(lines); tables != nil {
		t.Errorf("tables = %+v, want nil below the row threshold", tables)
	}
}
