package standards

import (
	"encoding/json"
	"strings"
)

// Model responses are the most fragile boundary in the pipeline: the JSON
// array we ask for routinely arrives wrapped in markdown fences, prefixed
// with prose, or cut off mid-string. ExtractJSON isolates the recovery logic
// so it can be tested without a live model.

// ExtractJSON returns the JSON payload embedded in a model response. It first
// strips a markdown code fence when one is present; otherwise it slices the
// substring between the first opening bracket and the matching last closing
// bracket. Returns "" when no JSON-looking region exists at all.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if fenced := stripCodeFence(s); fenced != "" {
		s = fenced
	}

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return ""
	}
	var closer byte = ']'
	if s[start] == '{' {
		closer = '}'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

// stripCodeFence unwraps ```json ... ``` (or bare ```) blocks. Returns "" when
// the text is not fenced.
func stripCodeFence(s string) string {
	open := strings.Index(s, "```")
	if open < 0 {
		return ""
	}
	rest := s[open+3:]
	// Skip the language tag on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if close := strings.Index(rest, "```"); close >= 0 {
		rest = rest[:close]
	}
	return strings.TrimSpace(rest)
}

// DecodeItems parses a JSON array of flat extraction items. A failed parse
// returns nil rather than an error; callers fall back to regex scanning.
func DecodeItems(payload string) []VisionItem {
	if payload == "" {
		return nil
	}
	var items []VisionItem
	if err := json.Unmarshal([]byte(payload), &items); err == nil {
		return items
	}
	// Some models return a single object instead of a one-element array.
	var one VisionItem
	if err := json.Unmarshal([]byte(payload), &one); err == nil && one.ID != "" {
		return []VisionItem{one}
	}
	return nil
}

// ScanIDs is the degraded-mode fallback when the response is not parseable
// JSON at all: scan the raw text for ID patterns and emit skeleton records
// with empty objective lists. Objectives found this way are attached to their
// parent by ID prefix.
func ScanIDs(raw string) []VisionItem {
	var items []VisionItem
	seen := make(map[string]bool)

	for _, id := range objectiveIDRe.FindAllString(raw, -1) {
		if seen[id] {
			continue
		}
		seen[id] = true
		items = append(items, VisionItem{
			Type:       "objective",
			ID:         id,
			StandardID: ParentStandardID(id),
		})
	}
	for _, loc := range standardIDRe.FindAllStringIndex(raw, -1) {
		id := raw[loc[0]:loc[1]]
		// Skip matches that are prefixes of objective IDs at the same spot.
		if objLoc := objectiveIDRe.FindStringIndex(raw[loc[0]:]); objLoc != nil && objLoc[0] == 0 {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		items = append(items, VisionItem{Type: "standard", ID: id})
	}
	return items
}
