package database

import (
	"context"

	"github.com/manyagkarle13/syllabus-maker/model"
	"github.com/manyagkarle13/syllabus-maker/services/scheme"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SchemeStore keeps saved scheme rows and serves the dean catalog.
type SchemeStore struct {
	db *gorm.DB
}

func NewSchemeStore(db *gorm.DB) *SchemeStore {
	return &SchemeStore{db: db}
}

var schemeCourseIdentity = []clause.Column{
	{Name: "branch_id"},
	{Name: "year"},
	{Name: "semester"},
	{Name: "course_code"},
}

var schemeCourseUpdates = []string{
	"course_title", "course_type", "category", "is_elective",
	"l", "t", "p", "total_hours", "cie", "see", "total_marks",
	"credits", "faculty_name", "display_order", "updated_at",
}

// FetchRows returns the saved rows of one scheme
func (s *SchemeStore) FetchRows(ctx context.Context, branchID uint, year, semester int) ([]scheme.CourseRow, error) {
	var courses []model.SchemeCourse
	err := s.db.WithContext(ctx).
		Where("branch_id = ? AND year = ? AND semester = ?", branchID, year, semester).
		Order("course_code ASC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}

	rows := make([]scheme.CourseRow, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, RowFromSchemeCourse(c))
	}
	return rows, nil
}

// WithinTransaction runs fn inside a database transaction
func (s *SchemeStore) WithinTransaction(ctx context.Context, fn func(w scheme.RowWriter) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&schemeWriter{tx: tx})
	})
}

type schemeWriter struct {
	tx *gorm.DB
}

func (w *schemeWriter) UpsertRow(ctx context.Context, row scheme.CourseRow) error {
	course := SchemeCourseFromRow(row)
	return w.tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   schemeCourseIdentity,
			DoUpdates: clause.AssignmentColumns(schemeCourseUpdates),
		}).
		Create(&course).Error
}

// FetchCatalog returns dean courses for the semester that are global or
// scoped to the branch
func (s *SchemeStore) FetchCatalog(ctx context.Context, branchID uint, semester int) ([]scheme.CourseRow, error) {
	var courses []model.CatalogCourse
	err := s.db.WithContext(ctx).
		Where("semester = ?", semester).
		Where("branch_id IS NULL OR branch_id = ?", branchID).
		Order("course_code ASC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}

	rows := make([]scheme.CourseRow, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, RowFromCatalogCourse(c))
	}
	return rows, nil
}

func RowFromSchemeCourse(c model.SchemeCourse) scheme.CourseRow {
	category := scheme.Category(c.Category)
	if !category.Valid() {
		category = scheme.CategoryForCourseType(c.CourseType)
	}
	return scheme.CourseRow{
		BranchID:     c.BranchID,
		Year:         c.Year,
		Semester:     c.Semester,
		Code:         c.CourseCode,
		Title:        c.CourseTitle,
		CourseType:   c.CourseType,
		L:            c.L,
		T:            c.T,
		P:            c.P,
		CIE:          c.CIE,
		SEE:          c.SEE,
		Credits:      c.Credits,
		Faculty:      c.FacultyName,
		Category:     category,
		IsElective:   c.IsElective,
		DisplayOrder: c.DisplayOrder,
		Provenance:   scheme.ProvenanceStore,
	}
}

func SchemeCourseFromRow(row scheme.CourseRow) model.SchemeCourse {
	return model.SchemeCourse{
		BranchID:     row.BranchID,
		Year:         row.Year,
		Semester:     row.Semester,
		CourseCode:   scheme.NormalizeCode(row.Code),
		CourseTitle:  row.Title,
		CourseType:   row.CourseType,
		Category:     string(row.Category),
		IsElective:   row.IsElective,
		L:            row.L,
		T:            row.T,
		P:            row.P,
		TotalHours:   row.ContactHours(),
		CIE:          row.CIE,
		SEE:          row.SEE,
		TotalMarks:   row.TotalMarks(),
		Credits:      row.Credits,
		FacultyName:  row.Faculty,
		DisplayOrder: row.DisplayOrder,
	}
}

func RowFromCatalogCourse(c model.CatalogCourse) scheme.CourseRow {
	var branchID uint
	if c.BranchID != nil {
		branchID = *c.BranchID
	}
	category := scheme.CategoryForCourseType(c.CourseType)
	return scheme.CourseRow{
		BranchID:   branchID,
		Semester:   c.Semester,
		Code:       scheme.NormalizeCode(c.CourseCode),
		Title:      c.CourseTitle,
		CourseType: c.CourseType,
		L:          c.L,
		T:          c.T,
		P:          c.P,
		CIE:        c.CIE,
		SEE:        c.SEE,
		Credits:    c.Credits,
		Category:   category,
		IsElective: category.IsElective(),
		Provenance: scheme.ProvenanceCatalog,
	}
}
