package standards

import "testing"

func std(id, text string, objectives ...ObjectiveRecord) StandardRecord {
	segs := SplitID(id)
	strand, _ := StrandByCode(segs[1])
	return StandardRecord{
		StandardID:   id,
		GradeLevel:   segs[0],
		StrandCode:   strand.Code,
		StrandName:   strand.Name,
		StandardText: text,
		Objectives:   objectives,
	}
}

func obj(id, text string) ObjectiveRecord {
	return ObjectiveRecord{ObjectiveID: id, StandardID: ParentStandardID(id), ObjectiveText: text}
}

// ---------------------------------------------------------------------------
// Deduplication
// ---------------------------------------------------------------------------

func TestMergerMoreObjectivesWins(t *testing.T) {
	m := NewMerger()
	m.Add(std("K.CN.1", "K.CN.1 Short.", obj("K.CN.1.1", "a")))
	m.Add(std("K.CN.1", "K.CN.1 Longer text here.",
		obj("K.CN.1.1", "a"), obj("K.CN.1.2", "b")))

	result := m.Result()
	if len(result) != 1 {
		t.Fatalf("len(result) = %d, want 1", len(result))
	}
	if got := result[0].StandardText; got != "K.CN.1 Longer text here." {
		t.Errorf("survivor text = %q, want the two-objective candidate's", got)
	}
	if len(result[0].Objectives) != 2 {
		t.Errorf("len(Objectives) = %d, want 2", len(result[0].Objectives))
	}
}

func TestMergerTieGoesToNonTruncatedText(t *testing.T) {
	m := NewMerger()
	m.Add(std("K.CN.1", "K.CN.1 Relate musical ideas to personal [truncated]"))
	m.Add(std("K.CN.1", "K.CN.1 Relate ideas."))

	result := m.Result()
	if got := result[0].StandardText; got != "K.CN.1 Relate ideas." {
		t.Errorf("survivor text = %q, want the non-truncated candidate's", got)
	}
}

func TestMergerTieGoesToLongerText(t *testing.T) {
	m := NewMerger()
	m.Add(std("K.CN.1", "K.CN.1 Relate ideas."))
	m.Add(std("K.CN.1", "K.CN.1 Relate musical ideas to personal experience."))

	result := m.Result()
	if got := result[0].StandardText; got != "K.CN.1 Relate musical ideas to personal experience." {
		t.Errorf("survivor text = %q, want the longer candidate's", got)
	}
}

func TestMergerUnionsLoserObjectives(t *testing.T) {
	// The losing candidate carries an objective the winner lacks; it must
	// survive the merge.
	m := NewMerger()
	m.Add(std("K.CN.1", "K.CN.1 First sighting.",
		obj("K.CN.1.1", "a"), obj("K.CN.1.3", "c")))
	m.Add(std("K.CN.1", "K.CN.1 Duplicate page.",
		obj("K.CN.1.1", "a"), obj("K.CN.1.2", "b")))

	result := m.Result()
	if len(result[0].Objectives) != 3 {
		t.Fatalf("len(Objectives) = %d, want 3 (union of both candidates)", len(result[0].Objectives))
	}
	// Sorted by sub-number.
	for i, want := range []string{"K.CN.1.1", "K.CN.1.2", "K.CN.1.3"} {
		if got := result[0].Objectives[i].ObjectiveID; got != want {
			t.Errorf("Objectives[%d].ObjectiveID = %q, want %q", i, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Objective filtering at Add time
// ---------------------------------------------------------------------------

func TestMergerDropsForeignObjectives(t *testing.T) {
	m := NewMerger()
	m.Add(std("K.CN.1", "K.CN.1 Text.",
		obj("K.CN.1.1", "mine"),
		obj("K.CN.2.1", "belongs to another standard"),
		ObjectiveRecord{ObjectiveID: "K.CN.1", ObjectiveText: "wrong dot count"},
	))

	result := m.Result()
	if len(result[0].Objectives) != 1 {
		t.Fatalf("len(Objectives) = %d, want 1", len(result[0].Objectives))
	}
	if got := result[0].Objectives[0].ObjectiveID; got != "K.CN.1.1" {
		t.Errorf("surviving objective = %q, want K.CN.1.1", got)
	}
}

// ---------------------------------------------------------------------------
// Output ordering
// ---------------------------------------------------------------------------

func TestMergerResultOrdering(t *testing.T) {
	m := NewMerger()
	m.AddAll([]StandardRecord{
		std("2.CN.1", "t"),
		std("1.PR.2", "t"),
		std("K.RE.3", "t"),
		std("K.CN.10", "t"),
		std("K.CN.2", "t"),
		std("AD.CR.1", "t"),
	})

	want := []string{"K.CN.2", "K.CN.10", "K.RE.3", "1.PR.2", "2.CN.1", "AD.CR.1"}
	result := m.Result()
	if len(result) != len(want) {
		t.Fatalf("len(result) = %d, want %d", len(result), len(want))
	}
	for i, id := range want {
		if result[i].StandardID != id {
			t.Errorf("result[%d] = %q, want %q", i, result[i].StandardID, id)
		}
	}
}

func TestMergerObjectiveSubNumberOrdering(t *testing.T) {
	// Numeric sort, not lexicographic: .2 before .10.
	m := NewMerger()
	m.Add(std("K.CN.1", "t",
		obj("K.CN.1.10", "j"), obj("K.CN.1.2", "b"), obj("K.CN.1.1", "a")))

	result := m.Result()
	want := []string{"K.CN.1.1", "K.CN.1.2", "K.CN.1.10"}
	for i, id := range want {
		if got := result[0].Objectives[i].ObjectiveID; got != id {
			t.Errorf("Objectives[%d] = %q, want %q", i, got, id)
		}
	}
}
