package scheme

import (
	"strconv"
	"strings"
	"time"
)

// BlockKind tells a renderer how to lay out a block.
type BlockKind string

const (
	BlockFrontMatter BlockKind = "front-matter"
	BlockTable       BlockKind = "table"
	BlockSummary     BlockKind = "summary"
	BlockPlaceholder BlockKind = "placeholder"
)

// PlaceholderText is printed when a scheme has no courses.
const PlaceholderText = "No courses defined for this semester."

// Block is one logical unit of a DocumentModel.
type Block interface {
	Kind() BlockKind
}

type FrontMatterBlock struct {
	Page FrontMatterPage
}

func (FrontMatterBlock) Kind() BlockKind { return BlockFrontMatter }

// Column describes one table column. Width is relative to the other columns.
type Column struct {
	Key    string
	Header string
	Width  float64
}

// SchemeColumns is the column set of every scheme table.
var SchemeColumns = []Column{
	{Key: "code", Header: "Course Code", Width: 1.3},
	{Key: "title", Header: "Course Title", Width: 3.6},
	{Key: "l", Header: "L", Width: 0.45},
	{Key: "t", Header: "T", Width: 0.45},
	{Key: "p", Header: "P", Width: 0.45},
	{Key: "credits", Header: "Credits", Width: 0.8},
	{Key: "cie", Header: "CIE", Width: 0.6},
	{Key: "see", Header: "SEE", Width: 0.6},
	{Key: "faculty", Header: "Faculty", Width: 1.9},
}

// TableBlock is one section's table. The header is repeated on every page
// the rows span.
type TableBlock struct {
	Category     Category
	Title        string
	Columns      []Column
	Rows         []CourseRow
	RepeatHeader bool
}

func (TableBlock) Kind() BlockKind { return BlockTable }

// Cells returns the printable values of row in column order.
func (t TableBlock) Cells(row CourseRow) []string {
	cells := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cells[i] = cellValue(c.Key, row)
	}
	return cells
}

func cellValue(key string, row CourseRow) string {
	switch key {
	case "code":
		return row.Code
	case "title":
		return row.Title
	case "type":
		return row.CourseType
	case "l":
		return strconv.Itoa(row.L)
	case "t":
		return strconv.Itoa(row.T)
	case "p":
		return strconv.Itoa(row.P)
	case "credits":
		return row.Credits.String()
	case "cie":
		return strconv.Itoa(row.CIE)
	case "see":
		return strconv.Itoa(row.SEE)
	case "faculty":
		return row.FacultyName()
	default:
		return ""
	}
}

type SummaryBlock struct {
	Summary Summary
}

func (SummaryBlock) Kind() BlockKind { return BlockSummary }

type PlaceholderBlock struct {
	Text string
}

func (PlaceholderBlock) Kind() BlockKind { return BlockPlaceholder }

// Layout is the row-height budget a table page is paginated against.
type Layout struct {
	TableBudgetMM float64
	RowHeightMM   float64
}

var DefaultLayout = Layout{TableBudgetMM: 224, RowHeightMM: 7}

// RowsPerPage is the number of table rows that fit the budget, at least one.
func (l Layout) RowsPerPage() int {
	if l.RowHeightMM <= 0 || l.TableBudgetMM <= 0 {
		return DefaultLayout.RowsPerPage()
	}
	n := int(l.TableBudgetMM / l.RowHeightMM)
	if n < 1 {
		return 1
	}
	return n
}

// DocumentMeta describes the document being assembled.
type DocumentMeta struct {
	BranchCode  string
	BranchName  string
	GeneratedAt time.Time
	Layout      Layout
}

// DocumentModel is the renderer-independent description of a scheme document.
type DocumentModel struct {
	Target      Target
	BranchCode  string
	BranchName  string
	Institution string
	Affiliation string
	GeneratedAt time.Time
	RowsPerPage int
	Blocks      []Block
}

// SemesterName spells out a semester number for headings.
func SemesterName(semester int) string {
	names := []string{"FIRST", "SECOND", "THIRD", "FOURTH", "FIFTH", "SIXTH", "SEVENTH", "EIGHTH"}
	if semester >= 1 && semester <= len(names) {
		return names[semester-1]
	}
	return "SEM " + strconv.Itoa(semester)
}

// Assemble lays out front matter, one table per non-empty section and a
// summary. A scheme without rows gets a placeholder block instead of tables.
func Assemble(fm *FrontMatter, result *Result, meta DocumentMeta) (*DocumentModel, error) {
	if fm == nil {
		return nil, &LookupError{Name: "front matter"}
	}
	if err := fm.Validate(); err != nil {
		return nil, &LookupError{Name: "front matter", Err: err}
	}

	target := result.Target
	fm = fm.Expand(map[string]string{
		"branch":      strings.ToUpper(meta.BranchName),
		"branch_code": meta.BranchCode,
		"year":        strconv.Itoa(target.Year),
		"next_year":   strconv.Itoa(target.Year + 1),
		"semester":    SemesterName(target.Semester),
	})

	doc := &DocumentModel{
		Target:      target,
		BranchCode:  meta.BranchCode,
		BranchName:  meta.BranchName,
		Institution: fm.Institution,
		Affiliation: fm.Affiliation,
		GeneratedAt: meta.GeneratedAt,
		RowsPerPage: meta.Layout.RowsPerPage(),
	}

	for _, page := range fm.Pages {
		doc.Blocks = append(doc.Blocks, FrontMatterBlock{Page: page})
	}

	sections := result.NonEmptySections()
	if len(sections) == 0 {
		doc.Blocks = append(doc.Blocks, PlaceholderBlock{Text: PlaceholderText})
		return doc, nil
	}

	for _, s := range sections {
		doc.Blocks = append(doc.Blocks, TableBlock{
			Category:     s.Category,
			Title:        s.Title,
			Columns:      SchemeColumns,
			Rows:         s.Rows,
			RepeatHeader: true,
		})
	}
	doc.Blocks = append(doc.Blocks, SummaryBlock{Summary: result.Summary()})
	return doc, nil
}

// Tables returns the table blocks of the document in order.
func (d *DocumentModel) Tables() []TableBlock {
	var tables []TableBlock
	for _, b := range d.Blocks {
		if t, ok := b.(TableBlock); ok {
			tables = append(tables, t)
		}
	}
	return tables
}
