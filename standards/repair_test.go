package standards

import (
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// Grade prefix recovery
// ---------------------------------------------------------------------------

func TestRecoverGradePrefixes(t *testing.T) {
	items := []VisionItem{
		{Type: "standard", ID: "K.CN.1", Text: "well-formed sibling"},
		{Type: "standard", ID: "RE.2", Text: "dropped grade"},
		{Type: "objective", ID: "RE.2.1", StandardID: "RE.2", Text: "dropped grade too"},
	}

	repaired := RecoverGradePrefixes(items)
	if repaired[1].ID != "K.RE.2" {
		t.Errorf("repaired[1].ID = %q, want K.RE.2", repaired[1].ID)
	}
	if repaired[2].ID != "K.RE.2.1" {
		t.Errorf("repaired[2].ID = %q, want K.RE.2.1", repaired[2].ID)
	}
	if repaired[2].StandardID != "K.RE.2" {
		t.Errorf("repaired[2].StandardID = %q, want K.RE.2", repaired[2].StandardID)
	}
	// Input slice is not mutated.
	if items[1].ID != "RE.2" {
		t.Errorf("input mutated: items[1].ID = %q", items[1].ID)
	}
}

func TestRecoverGradePrefixesIdempotent(t *testing.T) {
	items := []VisionItem{
		{Type: "standard", ID: "K.CN.1"},
		{Type: "standard", ID: "RE.2"},
	}
	once := RecoverGradePrefixes(items)
	twice := RecoverGradePrefixes(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second pass changed items: %+v vs %+v", once, twice)
	}
}

func TestRecoverGradePrefixesNoSibling(t *testing.T) {
	// No well-formed ID on the page to borrow a grade from: items pass
	// through untouched and the malformed filter deals with them later.
	items := []VisionItem{
		{Type: "standard", ID: "RE.2"},
	}
	out := RecoverGradePrefixes(items)
	if out[0].ID != "RE.2" {
		t.Errorf("out[0].ID = %q, want RE.2 unchanged", out[0].ID)
	}
}

func TestRecoverGradePrefixesLeavesWellFormedAlone(t *testing.T) {
	items := []VisionItem{
		{Type: "standard", ID: "3.PR.1"},
		{Type: "objective", ID: "3.PR.1.1", StandardID: "3.PR.1"},
	}
	out := RecoverGradePrefixes(items)
	if !reflect.DeepEqual(out, items) {
		t.Errorf("well-formed items changed: %+v", out)
	}
}

// ---------------------------------------------------------------------------
// Malformed standard filter
// ---------------------------------------------------------------------------

func TestFilterMalformed(t *testing.T) {
	records := []StandardRecord{
		{StandardID: "K.CN.1"},
		{StandardID: "RE.2"},       // one dot: unrecovered grade loss
		{StandardID: "K.CN.1.1"},   // three dots: objective wrongly top-leveled
		{StandardID: "2.PR.3"},
	}

	out := FilterMalformed(records)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].StandardID != "K.CN.1" || out[1].StandardID != "2.PR.3" {
		t.Errorf("survivors = %q, %q", out[0].StandardID, out[1].StandardID)
	}
}
