package scheme

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Provenance records which source a reconciled row came from. It is never
// persisted.
type Provenance int

const (
	ProvenanceCatalog Provenance = iota + 1
	ProvenanceStore
	ProvenanceSubmitted
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceCatalog:
		return "catalog"
	case ProvenanceStore:
		return "store"
	case ProvenanceSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Provenance) UnmarshalText(b []byte) error {
	switch string(b) {
	case "catalog":
		*p = ProvenanceCatalog
	case "store":
		*p = ProvenanceStore
	case "submitted":
		*p = ProvenanceSubmitted
	default:
		*p = 0
	}
	return nil
}

// CourseRow is one line of a scheme. Rows are identified by branch, year,
// semester and normalized course code. BranchID 0 on a catalog row means the
// course applies to every branch.
type CourseRow struct {
	BranchID     uint            `json:"branch_id"`
	Year         int             `json:"year"`
	Semester     int             `json:"semester"`
	Code         string          `json:"code"`
	Title        string          `json:"title"`
	CourseType   string          `json:"course_type,omitempty"`
	L            int             `json:"l"`
	T            int             `json:"t"`
	P            int             `json:"p"`
	CIE          int             `json:"cie"`
	SEE          int             `json:"see"`
	Credits      decimal.Decimal `json:"credits"`
	Faculty      *string         `json:"faculty,omitempty"`
	Category     Category        `json:"category"`
	IsElective   bool            `json:"is_elective"`
	DisplayOrder *int            `json:"display_order,omitempty"`
	Provenance   Provenance      `json:"provenance"`

	// Issues names the fields that could not be coerced. A row with issues is
	// rendered but left out of summary totals.
	Issues []string `json:"issues,omitempty"`
}

// RowKey identifies a row within one document.
type RowKey struct {
	Category Category
	Code     string
}

// NormalizeCode is the comparison form of a course code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Key returns the reconciliation key. Rows without a code are keyed by title
// so that distinct codeless rows do not collapse into one.
func (r CourseRow) Key() RowKey {
	code := NormalizeCode(r.Code)
	if code == "" {
		code = "~" + strings.ToUpper(strings.TrimSpace(r.Title))
	}
	return RowKey{Category: r.Category, Code: code}
}

func (r CourseRow) Invalid() bool { return len(r.Issues) > 0 }

func (r CourseRow) ContactHours() int { return r.L + r.T + r.P }

func (r CourseRow) TotalMarks() int { return r.CIE + r.SEE }

func (r CourseRow) FacultyName() string {
	if r.Faculty == nil {
		return ""
	}
	return *r.Faculty
}

// IsBlank reports whether every user-editable field is empty.
func (r CourseRow) IsBlank() bool {
	return strings.TrimSpace(r.Code) == "" &&
		strings.TrimSpace(r.Title) == "" &&
		strings.TrimSpace(r.CourseType) == "" &&
		r.L == 0 && r.T == 0 && r.P == 0 &&
		r.CIE == 0 && r.SEE == 0 &&
		r.Credits.IsZero() &&
		strings.TrimSpace(r.FacultyName()) == "" &&
		len(r.Issues) == 0
}

// SameContent compares the persisted attributes of two rows.
func (r CourseRow) SameContent(o CourseRow) bool {
	return NormalizeCode(r.Code) == NormalizeCode(o.Code) &&
		r.Title == o.Title &&
		r.CourseType == o.CourseType &&
		r.L == o.L && r.T == o.T && r.P == o.P &&
		r.CIE == o.CIE && r.SEE == o.SEE &&
		r.Credits.Equal(o.Credits) &&
		r.FacultyName() == o.FacultyName() &&
		r.Category == o.Category &&
		r.IsElective == o.IsElective &&
		intPtrEqual(r.DisplayOrder, o.DisplayOrder)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// RawRow is a submitted row before coercion. All values are kept exactly as
// they arrived.
type RawRow struct {
	Category   string `json:"category" validate:"required,max=32"`
	Index      int    `json:"index" validate:"omitempty,min=1"`
	Code       string `json:"code" validate:"max=50"`
	Title      string `json:"title" validate:"max=255"`
	CourseType string `json:"type" validate:"max=16"`
	L          string `json:"l"`
	T          string `json:"t"`
	P          string `json:"p"`
	CIE        string `json:"cie"`
	SEE        string `json:"see"`
	Credits    string `json:"credits"`
	Faculty    string `json:"faculty" validate:"max=255"`
	Order      string `json:"order"`
}

// UnmarshalJSON accepts numbers as well as strings for every field so that
// JSON clients may send {"l": 3} or {"l": "3"}.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return err
	}

	text := func(name string) string {
		switch v := fields[name].(type) {
		case nil:
			return ""
		case string:
			return v
		default:
			return fmt.Sprint(v)
		}
	}

	*r = RawRow{
		Category:   text("category"),
		Code:       text("code"),
		Title:      text("title"),
		CourseType: text("type"),
		L:          text("l"),
		T:          text("t"),
		P:          text("p"),
		CIE:        text("cie"),
		SEE:        text("see"),
		Credits:    text("credits"),
		Faculty:    text("faculty"),
		Order:      text("order"),
	}
	if idx := text("index"); idx != "" {
		n, err := strconv.Atoi(idx)
		if err != nil {
			return fmt.Errorf("index: %w", err)
		}
		r.Index = n
	}
	return nil
}

// Blank reports whether the row carries no data at all.
func (r RawRow) Blank() bool {
	for _, v := range []string{r.Code, r.Title, r.CourseType, r.L, r.T, r.P, r.CIE, r.SEE, r.Credits, r.Faculty, r.Order} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ToCourseRow converts a raw row into the canonical type for the given
// scheme. Malformed numbers become zero and are listed in Issues.
func (r RawRow) ToCourseRow(target Target) CourseRow {
	category, ok := ParseCategory(r.Category)
	if !ok {
		category = CategoryCore
	}

	row := CourseRow{
		BranchID:   target.BranchID,
		Year:       target.Year,
		Semester:   target.Semester,
		Code:       NormalizeCode(r.Code),
		Title:      strings.TrimSpace(r.Title),
		CourseType: strings.ToUpper(strings.TrimSpace(r.CourseType)),
		Category:   category,
		IsElective: category.IsElective(),
		Provenance: ProvenanceSubmitted,
	}
	if !ok && strings.TrimSpace(r.Category) != "" {
		row.Issues = append(row.Issues, "category")
	}

	row.L = row.coerceHours("l", r.L)
	row.T = row.coerceHours("t", r.T)
	row.P = row.coerceHours("p", r.P)
	row.CIE = row.coerceHours("cie", r.CIE)
	row.SEE = row.coerceHours("see", r.SEE)

	if credits := strings.TrimSpace(r.Credits); credits != "" {
		d, err := decimal.NewFromString(credits)
		if err != nil || d.IsNegative() {
			row.Issues = append(row.Issues, "credits")
		} else {
			row.Credits = d
		}
	}

	if faculty := strings.TrimSpace(r.Faculty); faculty != "" {
		row.Faculty = &faculty
	}

	if order := strings.TrimSpace(r.Order); order != "" {
		n, err := strconv.Atoi(order)
		if err != nil {
			row.Issues = append(row.Issues, "order")
		} else {
			row.DisplayOrder = &n
		}
	}

	return row
}

// coerceHours parses a non-negative integer field. Values such as "3.0" are
// accepted when they are whole numbers.
func (r *CourseRow) coerceHours(field, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return n
	}
	if d, err := decimal.NewFromString(raw); err == nil && !d.IsNegative() && d.Equal(d.Truncate(0)) {
		return int(d.IntPart())
	}
	r.Issues = append(r.Issues, field)
	return 0
}
