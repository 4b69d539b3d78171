package standards

import (
	"strings"
	"testing"
)

// fullExtraction builds a complete K-8 extraction: one standard per
// grade/strand pair, each with one objective.
func fullExtraction() []StandardRecord {
	grades := []string{"K", "1", "2", "3", "4", "5", "6", "7", "8"}
	var out []StandardRecord
	for _, g := range grades {
		for _, code := range StrandCodes() {
			id := g + "." + code + ".1"
			out = append(out, std(id, "text", obj(id+".1", "objective text"), obj(id+".2", "more")))
		}
	}
	return out
}

func TestValidateAcceptsCompleteExtraction(t *testing.T) {
	if err := Validate(fullExtraction(), DefaultValidationConfig()); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsTooFewStandards(t *testing.T) {
	records := fullExtraction()[:5]
	err := Validate(records, DefaultValidationConfig())
	if err == nil {
		t.Fatal("Validate() = nil, want error for too few standards")
	}
	if !strings.Contains(err.Error(), "standards") {
		t.Errorf("error = %v, want mention of standards count", err)
	}
}

func TestValidateRejectsMissingGrade(t *testing.T) {
	var records []StandardRecord
	for _, r := range fullExtraction() {
		if r.GradeLevel != "3" {
			records = append(records, r)
		}
	}
	err := Validate(records, DefaultValidationConfig())
	if err == nil || !strings.Contains(err.Error(), "grade level 3") {
		t.Errorf("Validate() = %v, want missing grade level 3", err)
	}
}

func TestValidateRejectsPartialStrandCoverage(t *testing.T) {
	// Three of four strands is incomplete no matter how many standards there
	// are.
	var records []StandardRecord
	for _, r := range fullExtraction() {
		if r.StrandCode != "PR" {
			records = append(records, r)
		}
	}
	err := Validate(records, DefaultValidationConfig())
	if err == nil || !strings.Contains(err.Error(), "PR") {
		t.Errorf("Validate() = %v, want missing strand PR", err)
	}
}

func TestValidateRejectsTooFewObjectives(t *testing.T) {
	records := fullExtraction()
	for i := range records {
		records[i].Objectives = records[i].Objectives[:1]
	}
	cfg := DefaultValidationConfig()
	cfg.MinObjectives = len(records) + 1
	err := Validate(records, cfg)
	if err == nil || !strings.Contains(err.Error(), "objectives") {
		t.Errorf("Validate() = %v, want too-few-objectives error", err)
	}
}

func TestValidateSmokeObjective(t *testing.T) {
	cfg := DefaultValidationConfig()
	cfg.SmokeObjectiveID = "K.CN.1.1"
	if err := Validate(fullExtraction(), cfg); err != nil {
		t.Errorf("Validate() = %v, want nil (smoke objective present)", err)
	}

	cfg.SmokeObjectiveID = "K.CN.1.99"
	if err := Validate(fullExtraction(), cfg); err == nil {
		t.Error("Validate() = nil, want error for absent smoke objective")
	}
}
