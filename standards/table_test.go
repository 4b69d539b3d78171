package standards

import "testing"

// ---------------------------------------------------------------------------
// Layout detection
// ---------------------------------------------------------------------------

func TestExtractTableTwoColumnLayout(t *testing.T) {
	var e TableStandardsExtractor
	tables := []Table{{Rows: [][]string{
		{"Standard", "Objectives"},
		{"K.CN.1 Relate musical ideas to personal experience", "K.CN.1.1 Identify connections\nK.CN.1.2 Describe feelings music evokes"},
	}}}

	recs := e.ExtractPage(tables, 4)
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.StandardID != "K.CN.1" {
		t.Errorf("StandardID = %q, want K.CN.1", rec.StandardID)
	}
	if rec.GradeLevel != "K" || rec.StrandCode != "CN" {
		t.Errorf("grade/strand = %q/%q, want K/CN", rec.GradeLevel, rec.StrandCode)
	}
	if rec.StrandName != "Connect" {
		t.Errorf("StrandName = %q, want Connect", rec.StrandName)
	}
	if rec.SourcePage != 4 {
		t.Errorf("SourcePage = %d, want 4", rec.SourcePage)
	}
	if len(rec.Objectives) != 2 {
		t.Fatalf("len(Objectives) = %d, want 2", len(rec.Objectives))
	}
	if rec.Objectives[0].ObjectiveID != "K.CN.1.1" {
		t.Errorf("Objectives[0].ObjectiveID = %q, want K.CN.1.1", rec.Objectives[0].ObjectiveID)
	}
	if rec.Objectives[0].StandardID != "K.CN.1" {
		t.Errorf("Objectives[0].StandardID = %q, want K.CN.1", rec.Objectives[0].StandardID)
	}
	if rec.Objectives[1].ObjectiveText != "Describe feelings music evokes" {
		t.Errorf("Objectives[1].ObjectiveText = %q", rec.Objectives[1].ObjectiveText)
	}
}

func TestExtractTableFourColumnLayout(t *testing.T) {
	var e TableStandardsExtractor
	tables := []Table{{Rows: [][]string{
		{"Code", "Standard", "Notes", "Objectives"},
		{"2.PR.1", "Perform rhythmic patterns with accuracy", "", "2.PR.1.1 Clap quarter-note patterns"},
	}}}

	recs := e.ExtractPage(tables, 12)
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.StandardID != "2.PR.1" {
		t.Errorf("StandardID = %q, want 2.PR.1", rec.StandardID)
	}
	if len(rec.Objectives) != 1 || rec.Objectives[0].ObjectiveID != "2.PR.1.1" {
		t.Fatalf("Objectives = %+v, want one 2.PR.1.1", rec.Objectives)
	}
}

// ---------------------------------------------------------------------------
// Row-walking behavior
// ---------------------------------------------------------------------------

func TestExtractTableObjectiveContinuationAcrossRows(t *testing.T) {
	// Long objective text wraps onto a continuation row whose objectives cell
	// carries no fresh ID; the text must append to the open objective.
	var e TableStandardsExtractor
	tables := []Table{{Rows: [][]string{
		{"K.RE.2 Respond to contrasts in music", "K.RE.2.1 Move to demonstrate"},
		{"", "changes in tempo and dynamics"},
	}}}

	recs := e.ExtractPage(tables, 7)
	if len(recs) != 1 || len(recs[0].Objectives) != 1 {
		t.Fatalf("recs = %+v, want one standard with one objective", recs)
	}
	got := recs[0].Objectives[0].ObjectiveText
	want := "Move to demonstrate changes in tempo and dynamics"
	if got != want {
		t.Errorf("ObjectiveText = %q, want %q", got, want)
	}
}

func TestExtractTableStandardTextContinuation(t *testing.T) {
	var e TableStandardsExtractor
	tables := []Table{{Rows: [][]string{
		{"3.CR.2 Generate musical ideas", ""},
		{"within given tonalities and meters", ""},
	}}}

	recs := e.ExtractPage(tables, 9)
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	want := "3.CR.2 Generate musical ideas within given tonalities and meters."
	if recs[0].StandardText != want {
		t.Errorf("StandardText = %q, want %q", recs[0].StandardText, want)
	}
}

func TestExtractTableSkipsFurniture(t *testing.T) {
	var e TableStandardsExtractor
	tables := []Table{{Rows: [][]string{
		{"Standards", "Objectives"},
		{"Connect - Relate artistic ideas and works with societal context", ""},
		{"1.CN.1 Relate music to history", "1.CN.1.1 Name a historical song"},
	}}}

	recs := e.ExtractPage(tables, 3)
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1 (furniture rows must not become records)", len(recs))
	}
	if recs[0].StandardID != "1.CN.1" {
		t.Errorf("StandardID = %q, want 1.CN.1", recs[0].StandardID)
	}
}

func TestExtractTableDropsUnknownStrand(t *testing.T) {
	// "XX" is not one of the four strand codes; the pattern never matches it,
	// so the row contributes nothing.
	var e TableStandardsExtractor
	tables := []Table{{Rows: [][]string{
		{"K.XX.1 Mystery strand standard", "K.XX.1.1 Mystery objective"},
	}}}

	if recs := e.ExtractPage(tables, 2); len(recs) != 0 {
		t.Errorf("len(recs) = %d, want 0", len(recs))
	}
}

func TestExtractTableMultipleStandards(t *testing.T) {
	var e TableStandardsExtractor
	tables := []Table{{Rows: [][]string{
		{"5.CR.1 Improvise melodic ideas", "5.CR.1.1 Improvise four-beat patterns"},
		{"5.CR.2 Select and develop musical ideas", "5.CR.2.1 Choose a motif to develop\n5.CR.2.2 Revise work using feedback"},
	}}}

	recs := e.ExtractPage(tables, 20)
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if recs[0].StandardID != "5.CR.1" || recs[1].StandardID != "5.CR.2" {
		t.Errorf("ids = %q, %q", recs[0].StandardID, recs[1].StandardID)
	}
	if len(recs[1].Objectives) != 2 {
		t.Errorf("second standard objectives = %d, want 2", len(recs[1].Objectives))
	}
}

func TestExtractTableThreeCellRows(t *testing.T) {
	// Some extractions collapse the wide layout's trailing empty cells,
	// leaving 3-cell rows with the objectives in the last column. Layout
	// detection still picks the wide path; the objectives must not be lost.
	var e TableStandardsExtractor
	tables := []Table{{Rows: [][]string{
		{"K.CN.1", "Connect music.", "K.CN.1.1 Identify similarities."},
		{"", "", "K.CN.1.2 Identify differences."},
	}}}

	recs := e.ExtractPage(tables, 5)
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.StandardID != "K.CN.1" {
		t.Errorf("StandardID = %q, want K.CN.1", rec.StandardID)
	}
	if rec.StandardText != "K.CN.1 Connect music." {
		t.Errorf("StandardText = %q, want %q", rec.StandardText, "K.CN.1 Connect music.")
	}
	if len(rec.Objectives) != 2 {
		t.Fatalf("len(Objectives) = %d, want 2", len(rec.Objectives))
	}
	if rec.Objectives[0].ObjectiveID != "K.CN.1.1" || rec.Objectives[1].ObjectiveID != "K.CN.1.2" {
		t.Errorf("objective ids = %q, %q", rec.Objectives[0].ObjectiveID, rec.Objectives[1].ObjectiveID)
	}
}

func TestFormatStandardTextEmptyBody(t *testing.T) {
	// A standard whose text never materialises still gets the canonical
	// id-prefixed, period-terminated shape.
	if got := formatStandardText("4.PR.2", ""); got != "4.PR.2." {
		t.Errorf("formatStandardText = %q, want 4.PR.2.", got)
	}
}
