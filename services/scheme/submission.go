package scheme

import (
	"fmt"
	"sort"
	"strings"
)

// maxSubmissionIndex bounds the per-category scan of a form submission.
const maxSubmissionIndex = 200

// ParseSubmission reads repeated field groups named {prefix}_{field}_{index}
// from a form. For every prefix the scan starts at index 1 and stops at the
// first index whose code and title are both blank. Zero-based prefixes start
// at 0 and their rows are renumbered from 1.
func ParseSubmission(lookup func(key string) string) []RawRow {
	var rows []RawRow
	for _, prefix := range SubmissionPrefixes {
		first := 1
		if zeroBasedPrefixes[prefix] {
			first = 0
		}
		for i := first; i <= maxSubmissionIndex; i++ {
			field := func(name string) string {
				return lookup(fmt.Sprintf("%s_%s_%d", prefix, name, i))
			}
			raw := RawRow{
				Category:   prefix,
				Index:      i - first + 1,
				Code:       field("code"),
				Title:      field("title"),
				CourseType: field("type"),
				L:          field("l"),
				T:          field("t"),
				P:          field("p"),
				CIE:        field("cie"),
				SEE:        field("see"),
				Credits:    field("credits"),
				Faculty:    field("faculty"),
				Order:      field("order"),
			}
			if terminates(raw) {
				break
			}
			rows = append(rows, raw)
		}
	}
	return rows
}

// NormalizeSubmission converts rows that arrived as a list (JSON bodies) to
// course rows. Rows are grouped by category and ordered by their submitted
// index; a row without an index takes its arrival position within its
// category. Each category stops at its first row with no code and no title,
// and among duplicates the later-indexed row comes last so it wins.
func NormalizeSubmission(target Target, raws []RawRow) []CourseRow {
	type indexed struct {
		raw   RawRow
		group int
		index int
	}

	groups := make(map[string]int)
	arrivals := make(map[string]int)
	ordered := make([]indexed, 0, len(raws))
	for _, raw := range raws {
		key := groupKey(raw.Category)
		if _, seen := groups[key]; !seen {
			groups[key] = len(groups)
		}
		arrivals[key]++
		index := raw.Index
		if index <= 0 {
			index = arrivals[key]
		}
		ordered = append(ordered, indexed{raw: raw, group: groups[key], index: index})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].group != ordered[j].group {
			return ordered[i].group < ordered[j].group
		}
		return ordered[i].index < ordered[j].index
	})

	stopped := make(map[string]bool)
	rows := make([]CourseRow, 0, len(ordered))
	for _, item := range ordered {
		key := groupKey(item.raw.Category)
		if stopped[key] {
			continue
		}
		if terminates(item.raw) {
			stopped[key] = true
			continue
		}
		rows = append(rows, item.raw.ToCourseRow(target))
	}
	return rows
}

// groupKey resolves aliases so that "pec" and "professional-elective" rows
// share one sequence. Unknown tags keep their own group.
func groupKey(tag string) string {
	if category, ok := ParseCategory(tag); ok {
		return string(category)
	}
	return "?" + strings.ToLower(strings.TrimSpace(tag))
}

func terminates(raw RawRow) bool {
	return strings.TrimSpace(raw.Code) == "" && strings.TrimSpace(raw.Title) == ""
}
