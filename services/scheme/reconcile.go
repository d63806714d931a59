package scheme

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Target is the scheme a build is for.
type Target struct {
	BranchID uint `json:"branch_id"`
	Year     int  `json:"year"`
	Semester int  `json:"semester"`
}

// Section is one category's rows in display order.
type Section struct {
	Category Category    `json:"category"`
	Title    string      `json:"title"`
	Rows     []CourseRow `json:"rows"`
}

// Summary totals are folded over valid rows only.
type Summary struct {
	Courses      int             `json:"courses"`
	InvalidRows  int             `json:"invalid_rows"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	ContactHours int             `json:"contact_hours"`
}

// Result is the reconciled row set of one build.
type Result struct {
	Target   Target    `json:"target"`
	Sections []Section `json:"sections"`

	stored map[RowKey]CourseRow
}

// Reconcile merges catalog, store and submitted rows. For a shared key the
// submitted row wins over the stored row, which wins over the catalog row.
// Among submitted rows the later one wins. Catalog rows scoped to another
// branch are ignored and fully blank submitted rows are no-ops.
func Reconcile(target Target, storeRows, catalogRows, submittedRows []CourseRow) *Result {
	working := make(map[RowKey]CourseRow)
	stored := make(map[RowKey]CourseRow, len(storeRows))

	for _, row := range catalogRows {
		if row.BranchID != 0 && row.BranchID != target.BranchID {
			continue
		}
		row.Provenance = ProvenanceCatalog
		working[row.Key()] = rebase(row, target)
	}

	for _, row := range storeRows {
		row.Provenance = ProvenanceStore
		row = rebase(row, target)
		working[row.Key()] = row
		stored[row.Key()] = row
	}

	for _, row := range submittedRows {
		if row.IsBlank() {
			continue
		}
		row.Provenance = ProvenanceSubmitted
		working[row.Key()] = rebase(row, target)
	}

	buckets := make(map[Category][]CourseRow, len(SectionOrder))
	for _, row := range working {
		if !row.Category.Valid() {
			row.Category = CategoryCore
		}
		buckets[row.Category] = append(buckets[row.Category], row)
	}

	result := &Result{Target: target, stored: stored}
	for _, category := range SectionOrder {
		rows := buckets[category]
		sortSection(rows)
		result.Sections = append(result.Sections, Section{
			Category: category,
			Title:    category.Title(),
			Rows:     rows,
		})
	}
	return result
}

func rebase(row CourseRow, target Target) CourseRow {
	row.BranchID = target.BranchID
	row.Year = target.Year
	row.Semester = target.Semester
	row.Code = NormalizeCode(row.Code)
	row.IsElective = row.Category.IsElective()
	return row
}

// sortSection orders rows by course code. When any row carries a display
// order, ordered rows come first by that order and the rest follow by code.
func sortSection(rows []CourseRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.DisplayOrder != nil && b.DisplayOrder != nil:
			if *a.DisplayOrder != *b.DisplayOrder {
				return *a.DisplayOrder < *b.DisplayOrder
			}
		case a.DisplayOrder != nil:
			return true
		case b.DisplayOrder != nil:
			return false
		}
		return a.Key().Code < b.Key().Code
	})
}

// Rows returns every row in section order.
func (r *Result) Rows() []CourseRow {
	var rows []CourseRow
	for _, s := range r.Sections {
		rows = append(rows, s.Rows...)
	}
	return rows
}

func (r *Result) Len() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Rows)
	}
	return n
}

// NonEmptySections skips sections without rows.
func (r *Result) NonEmptySections() []Section {
	var sections []Section
	for _, s := range r.Sections {
		if len(s.Rows) > 0 {
			sections = append(sections, s)
		}
	}
	return sections
}

// Stored returns the persisted row that shared the key of row, if any.
func (r *Result) Stored(row CourseRow) (CourseRow, bool) {
	s, ok := r.stored[row.Key()]
	return s, ok
}

func (r *Result) Summary() Summary {
	var sum Summary
	for _, row := range r.Rows() {
		if row.Invalid() {
			sum.InvalidRows++
			continue
		}
		sum.Courses++
		sum.TotalCredits = sum.TotalCredits.Add(row.Credits)
		sum.ContactHours += row.ContactHours()
	}
	return sum
}
