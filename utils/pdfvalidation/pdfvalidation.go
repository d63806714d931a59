package pdfvalidation

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Limits bounds a generated document
type Limits struct {
	MaxFileSizeMB int
	MaxPages      int
	MinPages      int
}

// SchemeLimits applies to generated scheme documents
var SchemeLimits = Limits{
	MaxFileSizeMB: 20,
	MaxPages:      200,
	MinPages:      1,
}

// Result describes an inspected PDF
type Result struct {
	Valid     bool   `json:"valid"`
	PageCount int    `json:"page_count"`
	FileSize  int64  `json:"file_size"`
	Error     string `json:"error,omitempty"`
}

// Inspect parses content and checks it against limits. A non-nil error means
// the bytes could not be inspected at all; a failed check is reported in
// Result.Error.
func Inspect(content []byte, limits Limits) (*Result, error) {
	result := &Result{
		FileSize: int64(len(content)),
	}

	maxSize := int64(limits.MaxFileSizeMB) * 1024 * 1024
	if limits.MaxFileSizeMB > 0 && result.FileSize > maxSize {
		result.Error = fmt.Sprintf("file size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)
		return result, nil
	}

	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		result.Error = "missing PDF header"
		return result, nil
	}

	pageCount, err := PageCount(content)
	if err != nil {
		return nil, err
	}
	result.PageCount = pageCount

	switch {
	case pageCount == 0:
		result.Error = "PDF has no pages"
	case limits.MinPages > 0 && pageCount < limits.MinPages:
		result.Error = fmt.Sprintf("PDF has %d pages, expected at least %d", pageCount, limits.MinPages)
	case limits.MaxPages > 0 && pageCount > limits.MaxPages:
		result.Error = fmt.Sprintf("PDF has %d pages, which exceeds the maximum of %d", pageCount, limits.MaxPages)
	default:
		result.Valid = true
	}
	return result, nil
}

// PageCount returns the number of pages in a PDF
func PageCount(content []byte) (int, error) {
	content = trimTrailingData(content)

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return reader.NumPage(), nil
}

// trimTrailingData drops anything after the last %%EOF marker
func trimTrailingData(content []byte) []byte {
	lastEOF := bytes.LastIndex(content, []byte("%%EOF"))
	if lastEOF == -1 {
		return content
	}

	end := lastEOF + len("%%EOF")
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}
	return content[:end]
}
