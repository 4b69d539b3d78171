// Package standards reconstructs curriculum standards hierarchies from
// semi-structured standards documents. The extraction pipeline tries a
// vision-model pass first and falls back to table and text-block heuristics,
// then merges per-page candidates into one validated, ordered record list.
package standards

import "strings"

// StandardRecord is one top-level curriculum competency. The ID has the
// canonical form <Grade>.<Strand>.<Number> — exactly two dots. That dot count
// is the structural property that distinguishes a standard from an objective.
type StandardRecord struct {
	StandardID        string            `json:"standard_id"`
	GradeLevel        string            `json:"grade_level"`
	StrandCode        string            `json:"strand_code"`
	StrandName        string            `json:"strand_name"`
	StrandDescription string            `json:"strand_description"`
	StandardText      string            `json:"standard_text"`
	Objectives        []ObjectiveRecord `json:"objectives"`
	SourcePage        int               `json:"source_page"`
}

// ObjectiveRecord is a sub-competency under a standard. The ID has the form
// <Grade>.<Strand>.<Number>.<SubNumber> — exactly three dots — and its prefix
// minus the trailing segment must equal the owning standard's ID.
type ObjectiveRecord struct {
	ObjectiveID   string `json:"objective_id"`
	StandardID    string `json:"standard_id"`
	ObjectiveText string `json:"objective_text"`
}

// Strand describes one of the four fixed curriculum strands.
type Strand struct {
	Code        string
	Name        string
	Description string
}

// strandTable maps the four known strand codes to their display metadata.
// Unknown codes are never emitted; records carrying one are dropped.
var strandTable = map[string]Strand{
	"CN": {
		Code:        "CN",
		Name:        "Connect",
		Description: "Relate artistic ideas and works with societal, cultural, and historical context.",
	},
	"CR": {
		Code:        "CR",
		Name:        "Create",
		Description: "Conceive and develop new artistic ideas and work.",
	},
	"PR": {
		Code:        "PR",
		Name:        "Present",
		Description: "Interpret and share artistic work through performance and presentation.",
	},
	"RE": {
		Code:        "RE",
		Name:        "Respond",
		Description: "Understand and evaluate how the arts convey meaning.",
	},
}

// StrandByCode resolves a strand code against the fixed lookup table.
func StrandByCode(code string) (Strand, bool) {
	s, ok := strandTable[strings.ToUpper(code)]
	return s, ok
}

// StrandCodes returns the four known strand codes.
func StrandCodes() []string {
	return []string{"CN", "CR", "PR", "RE"}
}

// gradeSortKey orders grade levels for final output: kindergarten first, then
// numeric grades ascending, then the named proficiency levels in progression
// order. Unknown grades sort last.
var gradeSortKey = map[string]int{
	"K": 0,
	"1": 1, "2": 2, "3": 3, "4": 4,
	"5": 5, "6": 6, "7": 7, "8": 8,
	"N":  9,  // Novice
	"I":  10, // Intermediate
	"P":  11, // Proficient
	"AC": 12, // Accomplished
	"AD": 13, // Advanced
}

// GradeSortKey returns the ordering rank for a grade token.
func GradeSortKey(grade string) int {
	if k, ok := gradeSortKey[grade]; ok {
		return k
	}
	return len(gradeSortKey)
}

// KnownGrade reports whether the token is one of the enumerated grade levels.
func KnownGrade(grade string) bool {
	_, ok := gradeSortKey[grade]
	return ok
}

// SplitID breaks a dotted ID into its segments.
func SplitID(id string) []string {
	return strings.Split(id, ".")
}

// ParentStandardID returns the owning standard's ID for a well-formed
// objective ID, or "" if the ID does not have exactly three dots.
func ParentStandardID(objectiveID string) string {
	if strings.Count(objectiveID, ".") != 3 {
		return ""
	}
	return objectiveID[:strings.LastIndex(objectiveID, ".")]
}
