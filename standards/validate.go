package standards

import (
	"fmt"
	"strings"
)

// ValidationConfig sets the completeness thresholds a vision extraction must
// meet before it is accepted without running the structural fallback.
type ValidationConfig struct {
	// MinStandards is the minimum total standard count.
	MinStandards int `json:"min_standards" yaml:"min_standards"`

	// MinObjectives is the minimum total objective count across all standards.
	MinObjectives int `json:"min_objectives" yaml:"min_objectives"`

	// RequiredGrades is the set of grade levels the output must cover.
	RequiredGrades []string `json:"required_grades" yaml:"required_grades"`

	// SmokeObjectiveID, when set, is a document-specific objective whose
	// absence fails validation (a cheap smoke test for a known page).
	SmokeObjectiveID string `json:"smoke_objective_id,omitempty" yaml:"smoke_objective_id,omitempty"`
}

// DefaultValidationConfig covers a full K-8 standards document.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinStandards:   20,
		MinObjectives:  40,
		RequiredGrades: []string{"K", "1", "2", "3", "4", "5", "6", "7", "8"},
	}
}

// Validate checks a merged extraction for completeness. A non-nil error names
// the first failed check; any single failure rejects the whole extraction.
// Validation failure is a normal fallback trigger, never surfaced to library
// callers as an error.
func Validate(records []StandardRecord, cfg ValidationConfig) error {
	if len(records) < cfg.MinStandards {
		return fmt.Errorf("only %d standards extracted, need at least %d", len(records), cfg.MinStandards)
	}

	grades := make(map[string]bool)
	strands := make(map[string]bool)
	objectives := 0
	haveSmoke := cfg.SmokeObjectiveID == ""
	for _, r := range records {
		grades[r.GradeLevel] = true
		strands[r.StrandCode] = true
		objectives += len(r.Objectives)
		for _, o := range r.Objectives {
			if o.ObjectiveID == cfg.SmokeObjectiveID {
				haveSmoke = true
			}
		}
	}

	for _, g := range cfg.RequiredGrades {
		if !grades[g] {
			return fmt.Errorf("missing grade level %s", g)
		}
	}

	// Strand coverage must be exact: all four codes present, nothing else.
	// (Unknown codes should already have been dropped upstream; seeing one
	// here means a record slipped through unclassified.)
	if len(strands) != len(StrandCodes()) {
		return fmt.Errorf("strand coverage %v, want all of %v", keys(strands), StrandCodes())
	}
	for _, code := range StrandCodes() {
		if !strands[code] {
			return fmt.Errorf("missing strand %s", code)
		}
	}

	if objectives < cfg.MinObjectives {
		return fmt.Errorf("only %d objectives extracted, need at least %d", objectives, cfg.MinObjectives)
	}

	if !haveSmoke {
		return fmt.Errorf("smoke-test objective %s absent", cfg.SmokeObjectiveID)
	}
	return nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

// gradesCovered is a convenience for logging which grades an extraction hit.
func gradesCovered(records []StandardRecord) string {
	seen := make(map[string]bool)
	var order []string
	for _, r := range records {
		if !seen[r.GradeLevel] {
			seen[r.GradeLevel] = true
			order = append(order, r.GradeLevel)
		}
	}
	return strings.Join(order, ",")
}
