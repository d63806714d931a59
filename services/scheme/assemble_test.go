package scheme

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFrontMatter = `
institution: Test Institute
pages:
  - kind: cover
    title: SCHEME AND SYLLABUS
    paragraphs: ["Department Of {branch}", "Academic Year {year}-{next_year}"]
  - kind: vision-mission
    title: VISION
    sections:
      - heading: VISION OF THE {branch} DEPARTMENT
        paragraphs: [Excellence]
  - kind: evaluation
    title: EVALUATION
    tables:
      - columns: [Assessment, Marks]
        rows: [[SEE, "50"]]
  - kind: course-types
    title: COURSE TYPES
    tables:
      - columns: [Course Type, Code]
        rows: [[Professional Core Course, PCC]]
`

func loadTestFrontMatter(t *testing.T) *FrontMatter {
	t.Helper()
	fm, err := ParseFrontMatter("test", []byte(testFrontMatter))
	require.NoError(t, err)
	return fm
}

var testMeta = DocumentMeta{
	BranchCode:  "ISE",
	BranchName:  "Information Science",
	GeneratedAt: time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
	Layout:      DefaultLayout,
}

func TestAssembleEmptyRowSet(t *testing.T) {
	doc, err := Assemble(loadTestFrontMatter(t), Reconcile(target, nil, nil, nil), testMeta)
	require.NoError(t, err)

	require.NotEmpty(t, doc.Blocks)
	last := doc.Blocks[len(doc.Blocks)-1]
	require.Equal(t, BlockPlaceholder, last.Kind())
	assert.Equal(t, PlaceholderText, last.(PlaceholderBlock).Text)
	assert.Empty(t, doc.Tables())
}

func TestAssembleBlocks(t *testing.T) {
	submitted := []CourseRow{
		course(CategoryCore, "CS101", "Programming", "4"),
		course(CategoryOpenElective, "OE1", "Open", "3"),
	}
	doc, err := Assemble(loadTestFrontMatter(t), Reconcile(target, nil, nil, submitted), testMeta)
	require.NoError(t, err)

	var kinds []BlockKind
	for _, b := range doc.Blocks {
		kinds = append(kinds, b.Kind())
	}
	assert.Equal(t, []BlockKind{
		BlockFrontMatter, BlockFrontMatter, BlockFrontMatter, BlockFrontMatter,
		BlockTable, BlockTable, BlockSummary,
	}, kinds)

	tables := doc.Tables()
	assert.Equal(t, CategoryCore, tables[0].Category)
	assert.Equal(t, CategoryOpenElective, tables[1].Category)
	assert.True(t, tables[0].RepeatHeader)
	assert.Equal(t, []string{"CS101", "Programming", "3", "0", "0", "4", "50", "50", ""}, tables[0].Cells(tables[0].Rows[0]))

	summary := doc.Blocks[len(doc.Blocks)-1].(SummaryBlock).Summary
	assert.Equal(t, "7", summary.TotalCredits.String())
	assert.Equal(t, 6, summary.ContactHours)

	cover := doc.Blocks[0].(FrontMatterBlock).Page
	assert.Equal(t, []string{"Department Of INFORMATION SCIENCE", "Academic Year 2024-2025"}, cover.Paragraphs)
	vision := doc.Blocks[1].(FrontMatterBlock).Page
	assert.Equal(t, "VISION OF THE INFORMATION SCIENCE DEPARTMENT", vision.Sections[0].Heading)
}

func TestAssembleRequiresFrontMatter(t *testing.T) {
	_, err := Assemble(nil, Reconcile(target, nil, nil, nil), testMeta)
	require.ErrorIs(t, err, ErrFrontMatterMissing)

	incomplete := &FrontMatter{Pages: []FrontMatterPage{{Kind: PageCover}}}
	_, err = Assemble(incomplete, Reconcile(target, nil, nil, nil), testMeta)
	require.ErrorIs(t, err, ErrFrontMatterMissing)
	assert.Contains(t, err.Error(), "course-types")
}

func TestLoadFrontMatter(t *testing.T) {
	_, err := LoadFrontMatter(filepath.Join(t.TempDir(), "missing.yaml"))
	var lookup *LookupError
	require.ErrorAs(t, err, &lookup)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "front_matter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testFrontMatter), 0o600))
	fm, err := LoadFrontMatter(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Institute", fm.Institution)
	assert.NotNil(t, fm.Page(PageEvaluation))

	_, err = ParseFrontMatter("broken", []byte("pages: [:"))
	assert.ErrorIs(t, err, ErrFrontMatterMissing)
}

func TestLayoutRowsPerPage(t *testing.T) {
	assert.Equal(t, 32, DefaultLayout.RowsPerPage())
	assert.Equal(t, 10, Layout{TableBudgetMM: 50, RowHeightMM: 5}.RowsPerPage())
	assert.Equal(t, 1, Layout{TableBudgetMM: 3, RowHeightMM: 5}.RowsPerPage())
	assert.Equal(t, DefaultLayout.RowsPerPage(), Layout{}.RowsPerPage())
	assert.Equal(t, "THIRD", SemesterName(3))
}
