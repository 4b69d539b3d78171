package standards

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dquintero/curricula/llm"
)

// visionPrompt is the extraction contract sent with each page image. The
// response must be a flat JSON array so that grouping happens on our side
// where it can be tested.
const visionPrompt = `This image is one page of a curriculum standards document.
Extract every standard and objective visible on the page.

Return ONLY a JSON array. Each element is one item:
  {"type": "standard", "id": "K.CN.1", "text": "...", "grade": "K", "strand": "CN"}
  {"type": "objective", "id": "K.CN.1.1", "standard_id": "K.CN.1", "text": "..."}

Rules:
- A standard ID has exactly two dots (Grade.Strand.Number).
- An objective ID has exactly three dots (Grade.Strand.Number.SubNumber).
- Copy text exactly as printed, without the leading ID.
- Skip headers, footers, strand descriptions, and page furniture.
- If the page contains no standards, return [].`

// VisionItem is one flat item from the model response, either a standard or
// an objective.
type VisionItem struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	StandardID string `json:"standard_id,omitempty"`
	Text       string `json:"text"`
	Grade      string `json:"grade,omitempty"`
	Strand     string `json:"strand,omitempty"`
}

// VisionStandardsExtractor obtains structured records for a page by sending
// its rendered image to a multimodal model and repairing whatever comes back.
type VisionStandardsExtractor struct {
	provider llm.VisionProvider
	model    string
}

// NewVisionStandardsExtractor wraps a vision provider.
func NewVisionStandardsExtractor(provider llm.VisionProvider, model string) *VisionStandardsExtractor {
	return &VisionStandardsExtractor{provider: provider, model: model}
}

// ExtractPage sends one rendered page (PNG bytes) to the vision model and
// converts the response into standards. Model and transport errors propagate
// to the caller; response-shape problems never do — malformed responses
// degrade to regex scanning and malformed items are repaired or dropped.
func (e *VisionStandardsExtractor) ExtractPage(ctx context.Context, pagePNG []byte, page int) ([]StandardRecord, error) {
	b64 := base64.StdEncoding.EncodeToString(pagePNG)

	resp, err := e.provider.ChatWithImages(ctx, llm.VisionChatRequest{
		Model: e.model,
		Messages: []llm.VisionMessage{{
			Role: "user",
			Content: []llm.ContentPart{
				{Type: "text", Text: visionPrompt},
				{Type: "image_url", ImageURL: &llm.ImageURL{URL: "data:image/png;base64," + b64}},
			},
		}},
		MaxTokens: 4096,
	})
	if err != nil {
		return nil, fmt.Errorf("vision extraction for page %d: %w", page, err)
	}

	items := DecodeItems(ExtractJSON(resp.Content))
	if items == nil {
		slog.Warn("standards: vision response not parseable as JSON, scanning for IDs",
			"page", page, "response_len", len(resp.Content))
		items = ScanIDs(resp.Content)
	}

	return assembleVisionItems(items, page), nil
}

// assembleVisionItems groups flat items into standards with attached,
// ID-sorted objectives. Items with one-dot IDs are repaired from same-page
// siblings before grouping; anything still malformed afterwards is dropped.
func assembleVisionItems(items []VisionItem, page int) []StandardRecord {
	items = RecoverGradePrefixes(items)

	var (
		order     []string
		standards = make(map[string]*StandardRecord)
		orphans   = make(map[string][]ObjectiveRecord)
	)

	for _, it := range items {
		switch classifyItem(it) {
		case "standard":
			if _, dup := standards[it.ID]; dup {
				continue
			}
			rec, ok := buildStandard(it, page)
			if !ok {
				continue
			}
			standards[it.ID] = &rec
			order = append(order, it.ID)

		case "objective":
			parent := it.StandardID
			if parent == "" {
				parent = ParentStandardID(it.ID)
			}
			obj := ObjectiveRecord{
				ObjectiveID:   it.ID,
				StandardID:    parent,
				ObjectiveText: strings.TrimSpace(it.Text),
			}
			if rec, ok := standards[parent]; ok {
				rec.Objectives = append(rec.Objectives, obj)
			} else {
				orphans[parent] = append(orphans[parent], obj)
			}

		default:
			slog.Warn("standards: dropping malformed vision item", "id", it.ID, "type", it.Type, "page", page)
		}
	}

	// Objectives that arrived before their standard.
	for parent, objs := range orphans {
		if rec, ok := standards[parent]; ok {
			rec.Objectives = append(rec.Objectives, objs...)
		} else {
			slog.Warn("standards: dropping objectives without parent standard",
				"standard_id", parent, "count", len(objs), "page", page)
		}
	}

	out := make([]StandardRecord, 0, len(order))
	for _, id := range order {
		rec := standards[id]
		// Response order is not trusted; objectives sort by their ID.
		sort.Slice(rec.Objectives, func(i, j int) bool {
			return rec.Objectives[i].ObjectiveID < rec.Objectives[j].ObjectiveID
		})
		out = append(out, *rec)
	}
	return out
}

// classifyItem decides standard vs objective from the ID's dot count, not the
// declared type: models regularly top-level objectives as standards. One-dot
// IDs that survived repair and anything else is malformed.
func classifyItem(it VisionItem) string {
	switch strings.Count(it.ID, ".") {
	case 2:
		return "standard"
	case 3:
		return "objective"
	default:
		return "malformed"
	}
}

// buildStandard converts a standard item, resolving the strand from the ID
// segment (the response's strand field is only a fallback — models get it
// wrong more often than they get the ID wrong).
func buildStandard(it VisionItem, page int) (StandardRecord, bool) {
	segs := SplitID(it.ID)
	if len(segs) != 3 || !KnownGrade(segs[0]) {
		slog.Warn("standards: dropping vision standard with unknown grade", "id", it.ID, "page", page)
		return StandardRecord{}, false
	}
	strand, ok := StrandByCode(segs[1])
	if !ok {
		strand, ok = StrandByCode(it.Strand)
		if !ok {
			slog.Warn("standards: dropping vision standard with unknown strand", "id", it.ID, "page", page)
			return StandardRecord{}, false
		}
	}
	return StandardRecord{
		StandardID:        it.ID,
		GradeLevel:        segs[0],
		StrandCode:        strand.Code,
		StrandName:        strand.Name,
		StrandDescription: strand.Description,
		StandardText:      formatStandardText(it.ID, StripIDPrefix(it.Text, it.ID)),
		SourcePage:        page,
	}, true
}
