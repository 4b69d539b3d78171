package standards

import (
	"log/slog"
	"strings"
)

// Table is one extracted table: ordered rows of ordered string cells.
// Cell text preserves embedded newlines; objective splitting inside a cell
// relies on the newline-delimited sub-lines.
type Table struct {
	Rows [][]string
}

// TableStandardsExtractor walks a page's extracted tables and produces the
// standards (with nested objectives) found in them. Two layouts occur in the
// source documents: a plain 2-column table (standard | objectives) and a
// 4-column table where the standard text sits in column 1 and the objectives
// in column 3. The layout decision is made once per table from the first
// row's cell count.
type TableStandardsExtractor struct{}

// tableState is the mutable accumulator threaded through the row walk.
type tableState struct {
	id         string
	textParts  []string
	objectives []ObjectiveRecord
	page       int
}

// ExtractPage parses all tables on one page. grade and strand give the page
// context used to resolve records whose IDs alone cannot be classified; they
// may be empty when the page carries its own markers.
func (e *TableStandardsExtractor) ExtractPage(tables []Table, page int) []StandardRecord {
	var out []StandardRecord
	for _, t := range tables {
		out = append(out, e.extractTable(t, page)...)
	}
	return out
}

func (e *TableStandardsExtractor) extractTable(t Table, page int) []StandardRecord {
	if len(t.Rows) == 0 {
		return nil
	}

	// Layout detection: more than 2 cells in the first row means the wide
	// 4-column layout (standard text in col 1, objectives in col 3).
	stdCol, objCol := 0, 1
	if len(t.Rows[0]) > 2 {
		stdCol, objCol = 1, 3
	}

	var out []StandardRecord
	st := tableState{page: page}

	for _, row := range t.Rows {
		stdCell := cellAt(row, stdCol)

		// Wide-layout rows sometimes arrive with trailing empty cells
		// collapsed, leaving the objectives in the last populated column.
		oc := objCol
		if oc >= len(row) && len(row)-1 > stdCol {
			oc = len(row) - 1
		}
		objCell := cellAt(row, oc)

		// In the wide layout the standard ID is sometimes repeated in
		// column 0; when present there it wins over column 1.
		if stdCol != 0 {
			if id := ExtractStandardID(cellAt(row, 0)); id != "" {
				stdCell = cellAt(row, 0) + " " + stdCell
			}
		}

		switch {
		case isFurnitureCell(stdCell):
			// Header row or strand-description prose. Layout, not data.

		case HasStandardID(stdCell):
			if rec, ok := e.finalize(&st); ok {
				out = append(out, rec)
			}
			id := ExtractStandardID(stdCell)
			st = tableState{
				id:        id,
				textParts: []string{StripIDPrefix(stdCell, id)},
				page:      page,
			}

		case strings.TrimSpace(stdCell) != "" && st.id != "":
			// Continuation of the open standard's text.
			st.textParts = append(st.textParts, strings.TrimSpace(stdCell))
		}

		// Objectives column is processed independently of the standard
		// column on every row.
		if st.id != "" {
			st.appendObjectivesCell(objCell)
		}
	}

	if rec, ok := e.finalize(&st); ok {
		out = append(out, rec)
	}
	return out
}

// finalize closes the open standard, resolving its grade and strand from the
// ID itself. Standards whose strand is not one of the four known codes are
// dropped with a warning rather than emitted partially classified.
func (e *TableStandardsExtractor) finalize(st *tableState) (StandardRecord, bool) {
	if st.id == "" {
		return StandardRecord{}, false
	}
	text := strings.TrimSpace(strings.Join(st.textParts, " "))
	if text == "" && len(st.objectives) == 0 {
		return StandardRecord{}, false
	}

	segs := SplitID(st.id)
	if len(segs) != 3 {
		slog.Warn("standards: dropping table record with malformed id", "id", st.id, "page", st.page)
		return StandardRecord{}, false
	}
	strand, ok := StrandByCode(segs[1])
	if !ok || !KnownGrade(segs[0]) {
		slog.Warn("standards: dropping table record without grade/strand context",
			"id", st.id, "page", st.page)
		return StandardRecord{}, false
	}

	return StandardRecord{
		StandardID:        st.id,
		GradeLevel:        segs[0],
		StrandCode:        strand.Code,
		StrandName:        strand.Name,
		StrandDescription: strand.Description,
		StandardText:      formatStandardText(st.id, text),
		Objectives:        st.objectives,
		SourcePage:        st.page,
	}, true
}

// appendObjectivesCell breaks a cell into objectives at ID boundaries: a line
// opening with a fresh objective ID starts a new objective, and lines without
// one continue the objective most recently opened — including across rows,
// since table layouts wrap long objective text onto continuation rows.
func (st *tableState) appendObjectivesCell(cell string) {
	for _, line := range strings.Split(cell, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if id := ExtractObjectiveID(line); id != "" && strings.HasPrefix(line, id) {
			st.objectives = append(st.objectives, ObjectiveRecord{
				ObjectiveID:   id,
				StandardID:    st.id,
				ObjectiveText: StripIDPrefix(line, id),
			})
			continue
		}
		if n := len(st.objectives); n > 0 {
			last := &st.objectives[n-1]
			last.ObjectiveText = strings.TrimSpace(last.ObjectiveText + " " + line)
		}
	}
}

// isFurnitureCell recognises header markers and strand-description prose that
// table layouts repeat on every page.
func isFurnitureCell(cell string) bool {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "Standard" || trimmed == "Standards" ||
		trimmed == "Objective" || trimmed == "Objectives" {
		return true
	}
	// Strand description rows read "Connect - Relate artistic ideas ...".
	for _, code := range StrandCodes() {
		name := strandTable[code].Name
		if strings.HasPrefix(trimmed, name+" - ") || strings.HasPrefix(trimmed, name+" – ") {
			return true
		}
	}
	return false
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// formatStandardText normalises standard text to the canonical shape: prefixed
// with its own ID and terminated with a period.
func formatStandardText(id, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return id + "."
	}
	if !strings.HasSuffix(text, ".") {
		text += "."
	}
	return id + " " + text
}
