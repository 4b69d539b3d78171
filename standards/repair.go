package standards

import (
	"log/slog"
	"strings"
)

// RecoverGradePrefixes repairs items whose ID lost its grade segment — a
// common vision-model failure where "K.RE.1" comes back as "RE.1". The repair
// takes the grade segment from any well-formed ID extracted from the same
// page and prepends it. Items with no same-page sibling to borrow from are
// left as-is; the malformed filter drops them later.
//
// Running the recovery on an already-repaired list is a no-op: repaired IDs
// have their full dot count and are no longer candidates.
func RecoverGradePrefixes(items []VisionItem) []VisionItem {
	grade := ""
	for _, it := range items {
		segs := SplitID(it.ID)
		if (len(segs) == 3 || len(segs) == 4) && KnownGrade(segs[0]) {
			grade = segs[0]
			break
		}
	}
	if grade == "" {
		return items
	}

	out := make([]VisionItem, len(items))
	copy(out, items)
	for i := range out {
		if !missingGradePrefix(out[i].ID) {
			continue
		}
		repaired := grade + "." + out[i].ID
		slog.Debug("standards: recovered grade prefix", "from", out[i].ID, "to", repaired)
		out[i].ID = repaired
		if out[i].StandardID != "" && missingGradePrefix(out[i].StandardID) {
			out[i].StandardID = grade + "." + out[i].StandardID
		}
	}
	return out
}

// missingGradePrefix reports whether the ID looks like a valid ID minus its
// grade segment: it must open with a known strand code, one segment short of
// the canonical form.
func missingGradePrefix(id string) bool {
	segs := SplitID(id)
	if len(segs) != 2 && len(segs) != 3 {
		return false
	}
	if _, ok := StrandByCode(segs[0]); !ok {
		return false
	}
	// A well-formed ID opens with a grade token, never a strand code, so a
	// leading strand code is unambiguous evidence of a dropped grade.
	return true
}

// FilterMalformed drops candidate standards whose ID does not have exactly
// two dots — either an objective wrongly top-leveled or an unrecoverable
// extraction. Runs after all repair attempts.
func FilterMalformed(records []StandardRecord) []StandardRecord {
	out := records[:0:0]
	for _, r := range records {
		if strings.Count(r.StandardID, ".") != 2 {
			slog.Warn("standards: dropping malformed standard id", "id", r.StandardID, "page", r.SourcePage)
			continue
		}
		out = append(out, r)
	}
	return out
}
