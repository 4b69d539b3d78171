package standards

import (
	"regexp"
	"strings"
)

// Pattern matching for grade markers, strand markers, and dotted IDs.
// All matchers are pure functions: no match is signalled by an empty return,
// never by an error. Absence of a match is normal control flow during page
// walking, not a failure.

// gradeToken is the alternation of every valid grade segment. Two-letter
// tokens come first so the regex engine does not stop at a one-letter prefix
// (AC before A-anything, AD likewise).
const gradeToken = `(?:K|[1-8]|AC|AD|N|I|P)`

const strandToken = `(?:CN|CR|PR|RE)`

var (
	// Objective pattern is strictly more specific than the standard pattern
	// (one extra dotted segment), so call sites must test it first.
	objectiveIDRe = regexp.MustCompile(`\b` + gradeToken + `\.` + strandToken + `\.\d+\.\d+\b`)
	standardIDRe  = regexp.MustCompile(`\b` + gradeToken + `\.` + strandToken + `\.\d+\b`)
)

// wordGrades maps spelled-out grade names to grade tokens.
var wordGrades = map[string]string{
	"kindergarten": "K",
	"first":        "1",
	"second":       "2",
	"third":        "3",
	"fourth":       "4",
	"fifth":        "5",
	"sixth":        "6",
	"seventh":      "7",
	"eighth":       "8",
}

// proficiencyLevels maps named proficiency keywords to their short codes.
// These appear in high-school standards documents in place of numeric grades.
var proficiencyLevels = map[string]string{
	"novice":       "N",
	"intermediate": "I",
	"proficient":   "P",
	"accomplished": "AC",
	"advanced":     "AD",
}

// ExtractGradeLevel classifies a text fragment as a grade-level marker and
// returns the grade token ("K", "1".."8", or a proficiency code). Returns ""
// when the fragment is not a grade marker.
func ExtractGradeLevel(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return ""
	}

	if strings.Contains(lower, "kindergarten") {
		return "K"
	}
	for word, grade := range wordGrades {
		if strings.Contains(lower, word+" grade") {
			return grade
		}
	}
	for word, code := range proficiencyLevels {
		// Proficiency markers appear as standalone headers ("Accomplished")
		// or with a subject suffix ("Accomplished Music"). Require the
		// keyword at the start so prose mentioning "advanced techniques"
		// mid-sentence does not flip the running grade state.
		if strings.HasPrefix(lower, word) {
			return code
		}
	}
	return ""
}

// ExtractStrand classifies a fragment as a strand marker and returns the
// matching strand. Matching is case-insensitive on the strand's display name.
// Returns ok=false when the fragment is not a strand marker.
func ExtractStrand(text string) (Strand, bool) {
	upper := strings.ToUpper(strings.TrimSpace(text))
	if upper == "" {
		return Strand{}, false
	}
	for _, code := range StrandCodes() {
		s := strandTable[code]
		if strings.HasPrefix(upper, strings.ToUpper(s.Name)) {
			return s, true
		}
	}
	return Strand{}, false
}

// ExtractStandardID finds a standard ID (<Grade>.<Strand>.<Number>, exactly
// two dots) in the text. A match that is really the prefix of an objective ID
// is rejected, so "K.CN.1.2" yields "" here and must be taken by
// ExtractObjectiveID instead.
func ExtractStandardID(text string) string {
	objStarts := make(map[int]bool)
	for _, loc := range objectiveIDRe.FindAllStringIndex(text, -1) {
		objStarts[loc[0]] = true
	}
	for _, loc := range standardIDRe.FindAllStringIndex(text, -1) {
		// Reject matches that are the prefix of an objective ID at the
		// same position ("K.CN.1" inside "K.CN.1.2").
		if objStarts[loc[0]] {
			continue
		}
		return text[loc[0]:loc[1]]
	}
	return ""
}

// ExtractObjectiveID finds an objective ID (<Grade>.<Strand>.<Number>.<Sub>,
// exactly three dots) in the text, or "" when absent.
func ExtractObjectiveID(text string) string {
	return objectiveIDRe.FindString(text)
}

// HasStandardID reports whether the text contains a standard ID that is not
// part of an objective ID.
func HasStandardID(text string) bool {
	return ExtractStandardID(text) != ""
}

// StripIDPrefix removes a leading ID (and any following separator run) from
// the text, leaving just the statement body. The ID may be preceded by
// whitespace.
func StripIDPrefix(text, id string) string {
	trimmed := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(trimmed, id); ok {
		return strings.TrimLeft(rest, " \t:.-–")
	}
	return trimmed
}
