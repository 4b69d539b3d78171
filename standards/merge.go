package standards

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// Merger combines per-page candidate standards across a whole document into
// one final list: at most one survivor per standard ID, no information lost
// from the losing candidate's objectives.
type Merger struct {
	byID  map[string]*StandardRecord
	order []string
}

// NewMerger returns an empty merger.
func NewMerger() *Merger {
	return &Merger{byID: make(map[string]*StandardRecord)}
}

// truncationMarkers flag standard text the extractor knows is incomplete.
// Vision models annotate cut-off table cells with these.
var truncationMarkers = []string{"[truncated]", "[cut off]", "...]"}

func looksTruncated(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range truncationMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Add merges one candidate. First sighting of an ID wins outright; on a
// duplicate the candidate with strictly more objectives replaces the
// incumbent, and a tie goes to the longer, non-truncated text. Either way the
// loser's novel objective IDs are unioned into the survivor.
func (m *Merger) Add(candidate StandardRecord) {
	candidate.Objectives = filterObjectives(candidate)

	existing, ok := m.byID[candidate.StandardID]
	if !ok {
		rec := candidate
		m.byID[candidate.StandardID] = &rec
		m.order = append(m.order, candidate.StandardID)
		return
	}

	if betterCandidate(*existing, candidate) {
		loser := *existing
		*existing = candidate
		unionObjectives(existing, loser.Objectives)
	} else {
		unionObjectives(existing, candidate.Objectives)
	}
}

// AddAll merges a batch in order.
func (m *Merger) AddAll(candidates []StandardRecord) {
	for _, c := range candidates {
		m.Add(c)
	}
}

// betterCandidate reports whether the candidate should replace the incumbent.
func betterCandidate(incumbent, candidate StandardRecord) bool {
	if len(candidate.Objectives) != len(incumbent.Objectives) {
		return len(candidate.Objectives) > len(incumbent.Objectives)
	}
	incTrunc, candTrunc := looksTruncated(incumbent.StandardText), looksTruncated(candidate.StandardText)
	if incTrunc != candTrunc {
		return incTrunc
	}
	return len(candidate.StandardText) > len(incumbent.StandardText)
}

// unionObjectives appends objectives whose IDs the survivor does not already
// carry, keeping the survivor's document order for what it had.
func unionObjectives(rec *StandardRecord, extra []ObjectiveRecord) {
	seen := make(map[string]bool, len(rec.Objectives))
	for _, o := range rec.Objectives {
		seen[o.ObjectiveID] = true
	}
	for _, o := range extra {
		if !seen[o.ObjectiveID] {
			seen[o.ObjectiveID] = true
			rec.Objectives = append(rec.Objectives, o)
		}
	}
}

// filterObjectives drops objectives whose dot count is wrong or whose ID
// prefix disagrees with the owning standard, and pins the foreign key.
func filterObjectives(rec StandardRecord) []ObjectiveRecord {
	out := rec.Objectives[:0:0]
	for _, o := range rec.Objectives {
		if strings.Count(o.ObjectiveID, ".") != 3 {
			slog.Warn("standards: dropping objective with malformed id",
				"objective_id", o.ObjectiveID, "standard_id", rec.StandardID)
			continue
		}
		if ParentStandardID(o.ObjectiveID) != rec.StandardID {
			slog.Warn("standards: dropping objective attached to wrong standard",
				"objective_id", o.ObjectiveID, "standard_id", rec.StandardID)
			continue
		}
		o.StandardID = rec.StandardID
		out = append(out, o)
	}
	return out
}

// Result returns the merged standards in final output order: grade (K first,
// then numeric, then proficiency levels), strand code, numeric standard
// number. Each standard's objectives are sorted by their numeric sub-number.
func (m *Merger) Result() []StandardRecord {
	out := make([]StandardRecord, 0, len(m.order))
	for _, id := range m.order {
		rec := *m.byID[id]
		sort.SliceStable(rec.Objectives, func(i, j int) bool {
			return objectiveSubNumber(rec.Objectives[i].ObjectiveID) < objectiveSubNumber(rec.Objectives[j].ObjectiveID)
		})
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ka, kb := GradeSortKey(a.GradeLevel), GradeSortKey(b.GradeLevel); ka != kb {
			return ka < kb
		}
		if a.StrandCode != b.StrandCode {
			return a.StrandCode < b.StrandCode
		}
		return standardNumber(a.StandardID) < standardNumber(b.StandardID)
	})
	return out
}

func standardNumber(id string) int {
	segs := SplitID(id)
	if len(segs) != 3 {
		return 0
	}
	n, _ := strconv.Atoi(segs[2])
	return n
}

func objectiveSubNumber(id string) int {
	segs := SplitID(id)
	if len(segs) != 4 {
		return 0
	}
	n, _ := strconv.Atoi(segs[3])
	return n
}
