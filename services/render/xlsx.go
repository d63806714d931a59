package render

import (
	"fmt"
	"strings"

	"github.com/manyagkarle13/syllabus-maker/services/scheme"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Scheme"

// XLSXContentType is the MIME type of WriteXLSX output.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX exports the tables and summary of doc to a single worksheet.
func WriteXLSX(doc *scheme.DocumentModel) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	x := &xlsxWriter{f: f, row: 1}
	x.put(1, fmt.Sprintf("%s - %s SEMESTER %d", strings.ToUpper(doc.BranchName), scheme.SemesterName(doc.Target.Semester), doc.Target.Year))
	x.styleRow(1, bold)
	x.next()
	x.put(1, "Generated on "+doc.GeneratedAt.Format("02-01-2006 15:04:05"))
	x.next()
	x.next()

	for _, block := range doc.Blocks {
		switch b := block.(type) {
		case scheme.TableBlock:
			x.put(1, b.Title)
			x.styleRow(1, bold)
			x.next()

			for i, c := range b.Columns {
				x.put(i+1, c.Header)
			}
			x.put(len(b.Columns)+1, "Notes")
			x.styleRow(len(b.Columns)+1, header)
			x.next()

			for _, r := range b.Rows {
				x.courseRow(b, r)
				x.next()
			}
			x.next()
		case scheme.SummaryBlock:
			x.put(1, "Total credits")
			x.put(2, b.Summary.TotalCredits.InexactFloat64())
			x.next()
			x.put(1, "Total contact hours")
			x.put(2, b.Summary.ContactHours)
			x.next()
		case scheme.PlaceholderBlock:
			x.put(1, b.Text)
			x.next()
		}
	}
	if x.err != nil {
		return nil, x.err
	}

	for col, width := range map[string]float64{"A": 14, "B": 42, "I": 26, "J": 30} {
		if err := f.SetColWidth(xlsxSheet, col, col, width); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// xlsxWriter writes cells into the current row and keeps the first error.
type xlsxWriter struct {
	f   *excelize.File
	row int
	err error
}

func (x *xlsxWriter) next() { x.row++ }

func (x *xlsxWriter) put(col int, value interface{}) {
	if x.err != nil {
		return
	}
	name, err := excelize.CoordinatesToCellName(col, x.row)
	if err != nil {
		x.err = err
		return
	}
	x.err = x.f.SetCellValue(xlsxSheet, name, value)
}

func (x *xlsxWriter) styleRow(lastCol, styleID int) {
	if x.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, x.row)
	last, err := excelize.CoordinatesToCellName(lastCol, x.row)
	if err != nil {
		x.err = err
		return
	}
	x.err = x.f.SetCellStyle(xlsxSheet, first, last, styleID)
}

func (x *xlsxWriter) courseRow(t scheme.TableBlock, r scheme.CourseRow) {
	cells := t.Cells(r)
	for i, c := range t.Columns {
		switch c.Key {
		case "l":
			x.put(i+1, r.L)
		case "t":
			x.put(i+1, r.T)
		case "p":
			x.put(i+1, r.P)
		case "cie":
			x.put(i+1, r.CIE)
		case "see":
			x.put(i+1, r.SEE)
		case "credits":
			x.put(i+1, r.Credits.InexactFloat64())
		default:
			x.put(i+1, cells[i])
		}
	}
	if r.Invalid() {
		x.put(len(t.Columns)+1, "unreadable: "+strings.Join(r.Issues, ", "))
	}
}
