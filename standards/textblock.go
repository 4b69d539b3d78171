package standards

import (
	"log/slog"
	"sort"
	"strings"
)

// Fragment is one positioned text run from the PDF reader. X grows rightward;
// Y grows upward (PDF coordinate convention), so the top of the page has the
// largest Y.
type Fragment struct {
	Text string
	X    float64
	Y    float64
}

// TextBlockStandardsExtractor is the last-resort extractor for pages with no
// recoverable table structure. It orders fragments into approximate reading
// order and runs a small state machine that tracks the current grade and
// strand while collecting standards and objectives.
type TextBlockStandardsExtractor struct{}

// ExtractPage parses one page's positioned fragments.
func (e *TextBlockStandardsExtractor) ExtractPage(frags []Fragment, page int) []StandardRecord {
	ordered := make([]Fragment, len(frags))
	copy(ordered, frags)

	// Reading order: top-to-bottom, then left-to-right. Y is bottom-up in
	// PDF space, so top-to-bottom means descending Y. Deliberately not a
	// column-aware reflow; the documents this handles are single-column.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Y != ordered[j].Y {
			return ordered[i].Y > ordered[j].Y
		}
		return ordered[i].X < ordered[j].X
	})

	var (
		out       []StandardRecord
		grade     string
		strand    Strand
		hasStrand bool
		open      *StandardRecord
	)

	finalize := func() {
		if open == nil {
			return
		}
		open.StandardText = formatStandardText(open.StandardID, StripIDPrefix(open.StandardText, open.StandardID))
		out = append(out, *open)
		open = nil
	}

	for _, f := range ordered {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}

		if g := ExtractGradeLevel(text); g != "" {
			grade = g
			continue
		}
		if s, ok := ExtractStrand(text); ok {
			strand, hasStrand = s, true
			continue
		}

		// Objective before standard: the objective pattern is strictly more
		// specific and must win when both could match.
		if id := ExtractObjectiveID(text); id != "" {
			if open != nil {
				open.Objectives = append(open.Objectives, ObjectiveRecord{
					ObjectiveID:   id,
					StandardID:    open.StandardID,
					ObjectiveText: StripIDPrefix(text, id),
				})
			}
			continue
		}

		if id := ExtractStandardID(text); id != "" {
			if grade == "" || !hasStrand {
				slog.Warn("standards: dropping standard found before grade/strand context",
					"id", id, "page", page)
				continue
			}
			finalize()
			open = &StandardRecord{
				StandardID:        id,
				GradeLevel:        grade,
				StrandCode:        strand.Code,
				StrandName:        strand.Name,
				StrandDescription: strand.Description,
				StandardText:      text,
				SourcePage:        page,
			}
			continue
		}

		// Continuation text belongs to whichever record is open: the last
		// objective when one exists, otherwise the standard itself.
		if open == nil {
			continue
		}
		if n := len(open.Objectives); n > 0 {
			last := &open.Objectives[n-1]
			last.ObjectiveText = strings.TrimSpace(last.ObjectiveText + " " + text)
		} else {
			open.StandardText = strings.TrimSpace(open.StandardText + " " + text)
		}
	}
	finalize()

	return out
}
