// Package render turns assembled scheme documents into PDF and XLSX bytes.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/manyagkarle13/syllabus-maker/services/scheme"
)

const (
	pageMargin   = 14.0
	frameInset   = 6.0
	headerHeight = 14.0
	footerHeight = 10.0
	lineHeight   = 4.2
	cellPadding  = 1.2
)

var (
	frameColor  = [3]int{0, 128, 0}
	headerFill  = [3]int{211, 211, 211}
	invalidFill = [3]int{253, 236, 234}
)

// PDFContentType is the MIME type of RenderPDF output.
const PDFContentType = "application/pdf"

// InvalidRowNote explains the marker printed next to rows with unreadable values.
const InvalidRowNote = "* Row contains values that could not be read; it is excluded from the totals."

type pdfWriter struct {
	pdf          *fpdf.Fpdf
	tr           func(string) string
	doc          *scheme.DocumentModel
	tablesOpened bool
	sawInvalid   bool
}

// RenderPDF lays out doc on A4 pages. Every page is framed and carries the
// department header and the generation footer. Table headers repeat on every
// page a table spans.
func RenderPDF(doc *scheme.DocumentModel) ([]byte, error) {
	if doc == nil || len(doc.Blocks) == 0 {
		return nil, fmt.Errorf("render: empty document")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s Scheme Sem%d %d", doc.BranchCode, doc.Target.Semester, doc.Target.Year), true)
	pdf.SetCreator("syllabus-maker", true)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetMargins(pageMargin, pageMargin+headerHeight, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin+footerHeight)
	pdf.AliasNbPages("")

	w := &pdfWriter{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		doc: doc,
	}
	pdf.SetHeaderFunc(w.pageHeader)
	pdf.SetFooterFunc(w.pageFooter)

	for _, block := range doc.Blocks {
		switch b := block.(type) {
		case scheme.FrontMatterBlock:
			w.frontMatter(b.Page)
		case scheme.TableBlock:
			w.table(b)
		case scheme.SummaryBlock:
			w.summary(b.Summary)
		case scheme.PlaceholderBlock:
			w.placeholder(b.Text)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *pdfWriter) pageHeader() {
	pdf := w.pdf
	pageW, pageH := pdf.GetPageSize()

	pdf.SetDrawColor(frameColor[0], frameColor[1], frameColor[2])
	pdf.SetLineWidth(0.8)
	pdf.Rect(frameInset, frameInset, pageW-2*frameInset, pageH-2*frameInset, "D")
	pdf.SetLineWidth(0.2)
	pdf.SetDrawColor(0, 0, 0)

	pdf.SetXY(pageMargin, pageMargin-2)
	pdf.SetFont("Times", "B", 10)
	pdf.CellFormat(0, 5, w.tr(w.doc.Institution), "", 1, "C", false, 0, "")
	pdf.SetFont("Times", "B", 9)
	pdf.CellFormat(0, 5, w.tr("DEPARTMENT OF "+strings.ToUpper(w.doc.BranchName)), "", 1, "C", false, 0, "")
	pdf.SetY(pageMargin + headerHeight)
}

func (w *pdfWriter) pageFooter() {
	pdf := w.pdf
	pdf.SetY(-(pageMargin + footerHeight/2))
	pdf.SetFont("Times", "I", 7)
	generated := "Generated on " + w.doc.GeneratedAt.Format("02-01-2006 15:04:05")
	pdf.CellFormat(90, 4, generated, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
}

func (w *pdfWriter) frontMatter(page scheme.FrontMatterPage) {
	pdf := w.pdf
	pdf.AddPage()

	if page.Kind == scheme.PageCover {
		w.cover(page)
		return
	}

	w.heading(page.Title, 12)
	w.paragraphs(page.Paragraphs, "C")
	for _, s := range page.Sections {
		w.heading(s.Heading, 10)
		w.paragraphs(s.Paragraphs, "J")
		for _, b := range s.Bullets {
			pdf.SetFont("Times", "", 9)
			pdf.SetX(pageMargin + 4)
			pdf.MultiCell(0, lineHeight+0.6, w.tr("- "+b), "", "J", false)
		}
		pdf.Ln(2)
	}
	for _, t := range page.Tables {
		w.staticTable(t)
	}
}

func (w *pdfWriter) cover(page scheme.FrontMatterPage) {
	pdf := w.pdf
	pdf.Ln(30)
	pdf.SetFont("Times", "B", 16)
	pdf.MultiCell(0, 8, w.tr(w.doc.Institution), "", "C", false)
	if w.doc.Affiliation != "" {
		pdf.SetFont("Times", "", 10)
		pdf.MultiCell(0, 6, w.tr(w.doc.Affiliation), "", "C", false)
	}
	pdf.Ln(20)
	pdf.SetFont("Times", "B", 18)
	pdf.MultiCell(0, 10, w.tr(page.Title), "", "C", false)
	pdf.Ln(6)
	pdf.SetFont("Times", "B", 12)
	for _, p := range page.Paragraphs {
		pdf.MultiCell(0, 7, w.tr(p), "", "C", false)
	}
}

func (w *pdfWriter) heading(text string, size float64) {
	if text == "" {
		return
	}
	w.pdf.SetFont("Times", "B", size)
	w.pdf.MultiCell(0, size*0.6, w.tr(text), "", "C", false)
	w.pdf.Ln(2)
}

func (w *pdfWriter) paragraphs(paragraphs []string, align string) {
	w.pdf.SetFont("Times", "", 9)
	for _, p := range paragraphs {
		w.pdf.MultiCell(0, lineHeight+0.6, w.tr(p), "", align, false)
		w.pdf.Ln(1)
	}
}

func (w *pdfWriter) staticTable(t scheme.FrontMatterTable) {
	pdf := w.pdf
	if t.Title != "" {
		w.heading(t.Title, 10)
	}
	if len(t.Columns) == 0 {
		return
	}

	weights := make([]float64, len(t.Columns))
	for i := range weights {
		weights[i] = 1
	}
	weights[0] = 2.5
	widths := fitWidths(weights, w.usableWidth()*0.8)
	left := pageMargin + w.usableWidth()*0.1

	pdf.SetX(left)
	w.gridRow(widths, t.Columns, true, false)
	for _, row := range t.Rows {
		pdf.SetX(left)
		w.gridRow(widths, row, false, false)
	}
	pdf.Ln(4)
}

func (w *pdfWriter) table(t scheme.TableBlock) {
	pdf := w.pdf
	widths := columnWidths(t.Columns, w.usableWidth())
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
	}

	if !w.tablesOpened {
		w.startSchemePages()
	}

	// keep the section title, header and the first row together
	if len(t.Rows) > 0 && !w.fits(8+lineHeight+2*cellPadding+w.rowHeight(t, widths, t.Rows[0])) {
		pdf.AddPage()
	}

	pdf.SetFont("Times", "B", 10)
	pdf.CellFormat(0, 8, w.tr(t.Title), "", 1, "L", false, 0, "")
	w.gridRow(widths, headers, true, false)

	onPage := 0
	for _, row := range t.Rows {
		h := w.rowHeight(t, widths, row)
		if onPage >= w.doc.RowsPerPage || !w.fits(h) {
			pdf.AddPage()
			if t.RepeatHeader {
				pdf.SetFont("Times", "B", 10)
				pdf.CellFormat(0, 8, w.tr(t.Title+" (continued)"), "", 1, "L", false, 0, "")
				w.gridRow(widths, headers, true, false)
			}
			onPage = 0
		}

		cells := t.Cells(row)
		if row.Invalid() {
			cells[0] += " *"
			w.sawInvalid = true
		}
		w.gridRow(widths, cells, false, row.Invalid())
		onPage++
	}
	pdf.Ln(4)
}

func (w *pdfWriter) startSchemePages() {
	w.tablesOpened = true
	w.pdf.AddPage()
	w.pdf.SetTextColor(frameColor[0], frameColor[1], frameColor[2])
	w.heading(fmt.Sprintf("%s SEMESTER - %d", scheme.SemesterName(w.doc.Target.Semester), w.doc.Target.Year), 12)
	w.pdf.SetTextColor(0, 0, 0)
	w.heading("SCHEME OF TEACHING AND EXAMINATION", 10)
}

func (w *pdfWriter) summary(sum scheme.Summary) {
	pdf := w.pdf
	if !w.fits(30) {
		pdf.AddPage()
	}
	pdf.SetFont("Times", "B", 10)
	pdf.CellFormat(0, 8, "SUMMARY", "", 1, "L", false, 0, "")

	widths := fitWidths([]float64{3, 1}, w.usableWidth()*0.6)
	w.gridRow(widths, []string{"Total credits", sum.TotalCredits.String()}, false, false)
	w.gridRow(widths, []string{"Total contact hours / week", fmt.Sprint(sum.ContactHours)}, false, false)
	w.gridRow(widths, []string{"Courses", fmt.Sprint(sum.Courses)}, false, false)

	if w.sawInvalid {
		pdf.Ln(2)
		pdf.SetFont("Times", "I", 8)
		pdf.MultiCell(0, lineHeight, w.tr(InvalidRowNote), "", "L", false)
	}
}

func (w *pdfWriter) placeholder(text string) {
	if !w.tablesOpened {
		w.startSchemePages()
	}
	w.pdf.Ln(20)
	w.pdf.SetFont("Times", "I", 12)
	w.pdf.MultiCell(0, 8, w.tr(text), "", "C", false)
}

// gridRow draws one bordered row. Cell text wraps inside its column and the
// row is as tall as its tallest cell.
func (w *pdfWriter) gridRow(widths []float64, cells []string, header, invalid bool) {
	pdf := w.pdf
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont("Times", style, 8)

	lines := make([][]string, len(widths))
	maxLines := 1
	for i := range widths {
		text := ""
		if i < len(cells) {
			text = w.tr(cells[i])
		}
		lines[i] = w.wrap(text, widths[i]-2*cellPadding)
		if len(lines[i]) > maxLines {
			maxLines = len(lines[i])
		}
	}
	height := float64(maxLines)*lineHeight + 2*cellPadding

	x, y := pdf.GetX(), pdf.GetY()
	for i, width := range widths {
		switch {
		case header:
			pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
			pdf.Rect(x, y, width, height, "FD")
		case invalid:
			pdf.SetFillColor(invalidFill[0], invalidFill[1], invalidFill[2])
			pdf.Rect(x, y, width, height, "FD")
		default:
			pdf.Rect(x, y, width, height, "D")
		}

		align := "C"
		if !header && len(lines[i]) > 0 && isTextColumn(i, len(widths)) {
			align = "L"
		}
		for j, line := range lines[i] {
			pdf.SetXY(x+cellPadding, y+cellPadding+float64(j)*lineHeight)
			pdf.CellFormat(width-2*cellPadding, lineHeight, line, "", 0, align, false, 0, "")
		}
		x += width
	}
	pdf.SetXY(pdf.GetX(), y+height)
	pdf.SetX(pageMargin)
}

// isTextColumn left-aligns the title and faculty columns of scheme tables
func isTextColumn(i, n int) bool {
	return n == len(scheme.SchemeColumns) && (scheme.SchemeColumns[i].Key == "title" || scheme.SchemeColumns[i].Key == "faculty")
}

func (w *pdfWriter) wrap(text string, width float64) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, line := range w.pdf.SplitLines([]byte(text), width) {
		out = append(out, string(line))
	}
	return out
}

func (w *pdfWriter) rowHeight(t scheme.TableBlock, widths []float64, row scheme.CourseRow) float64 {
	w.pdf.SetFont("Times", "", 8)
	maxLines := 1
	for i, cell := range t.Cells(row) {
		if n := len(w.wrap(w.tr(cell), widths[i]-2*cellPadding)); n > maxLines {
			maxLines = n
		}
	}
	return float64(maxLines)*lineHeight + 2*cellPadding
}

func (w *pdfWriter) fits(height float64) bool {
	_, pageH := w.pdf.GetPageSize()
	return w.pdf.GetY()+height <= pageH-pageMargin-footerHeight
}

func (w *pdfWriter) usableWidth() float64 {
	pageW, _ := w.pdf.GetPageSize()
	return pageW - 2*pageMargin
}

func columnWidths(columns []scheme.Column, total float64) []float64 {
	weights := make([]float64, len(columns))
	for i, c := range columns {
		weights[i] = c.Width
		if weights[i] <= 0 {
			weights[i] = 1
		}
	}
	return fitWidths(weights, total)
}

func fitWidths(weights []float64, total float64) []float64 {
	var sum float64
	for _, wgt := range weights {
		sum += wgt
	}
	widths := make([]float64, len(weights))
	for i, wgt := range weights {
		widths[i] = total * wgt / sum
	}
	return widths
}
