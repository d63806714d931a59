package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/manyagkarle13/syllabus-maker/database"
	"github.com/manyagkarle13/syllabus-maker/database/dbtest"
	"github.com/manyagkarle13/syllabus-maker/model"
	"github.com/manyagkarle13/syllabus-maker/services/scheme"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeStoreUpsertAndFetch(t *testing.T) {
	db := dbtest.Open(t)
	branch := dbtest.Branch(t, db, "ISE", "Information Science")
	store := database.NewSchemeStore(db)
	ctx := context.Background()
	faculty := "Dr. Rao"

	row := scheme.CourseRow{
		BranchID: branch.ID, Year: 2024, Semester: 5,
		Code: "is551", Title: "Cloud Computing", CourseType: "PEC",
		L: 3, CIE: 50, SEE: 50,
		Credits:  decimal.RequireFromString("3.5"),
		Faculty:  &faculty,
		Category: scheme.CategoryProfessionalElective, IsElective: true,
	}

	err := store.WithinTransaction(ctx, func(w scheme.RowWriter) error {
		return w.UpsertRow(ctx, row)
	})
	require.NoError(t, err)

	row.Title = "Cloud Computing and Virtualization"
	err = store.WithinTransaction(ctx, func(w scheme.RowWriter) error {
		return w.UpsertRow(ctx, row)
	})
	require.NoError(t, err)

	rows, err := store.FetchRows(ctx, branch.ID, 2024, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	got := rows[0]
	assert.Equal(t, "IS551", got.Code)
	assert.Equal(t, "Cloud Computing and Virtualization", got.Title)
	assert.True(t, decimal.RequireFromString("3.5").Equal(got.Credits))
	assert.Equal(t, "Dr. Rao", got.FacultyName())
	assert.Equal(t, scheme.CategoryProfessionalElective, got.Category)
	assert.Equal(t, scheme.ProvenanceStore, got.Provenance)

	var stored model.SchemeCourse
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, 3, stored.TotalHours)
	assert.Equal(t, 100, stored.TotalMarks)

	other, err := store.FetchRows(ctx, branch.ID, 2024, 6)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSchemeStoreTransactionRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	branch := dbtest.Branch(t, db, "CSE", "Computer Science")
	store := database.NewSchemeStore(db)
	ctx := context.Background()

	err := store.WithinTransaction(ctx, func(w scheme.RowWriter) error {
		for _, code := range []string{"CS1", "CS2"} {
			row := scheme.CourseRow{BranchID: branch.ID, Year: 2024, Semester: 1, Code: code, Title: code, Category: scheme.CategoryCore}
			if err := w.UpsertRow(ctx, row); err != nil {
				return err
			}
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&model.SchemeCourse{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSchemeStoreFetchCatalog(t *testing.T) {
	db := dbtest.Open(t)
	ise := dbtest.Branch(t, db, "ISE", "Information Science")
	cse := dbtest.Branch(t, db, "CSE", "Computer Science")
	store := database.NewSchemeStore(db)

	courses := []model.CatalogCourse{
		{Semester: 3, CourseType: "BSC", CourseCode: "ma301", CourseTitle: "Mathematics III", L: 3, CIE: 50, SEE: 50, Credits: decimal.NewFromInt(3)},
		{BranchID: &ise.ID, Semester: 3, CourseType: "OEC", CourseCode: "IS3O1", CourseTitle: "ISE Open"},
		{BranchID: &cse.ID, Semester: 3, CourseType: "PCC", CourseCode: "CS301", CourseTitle: "CSE Only"},
		{Semester: 4, CourseType: "BSC", CourseCode: "MA401", CourseTitle: "Mathematics IV"},
	}
	require.NoError(t, db.Create(&courses).Error)
	require.NoError(t, db.Create(&model.CatalogCourse{Semester: 3, CourseType: "HSMC", CourseCode: "HS300", CourseTitle: "Removed"}).Error)
	require.NoError(t, db.Where("course_code = ?", "HS300").Delete(&model.CatalogCourse{}).Error)

	rows, err := store.FetchCatalog(context.Background(), ise.ID, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "IS3O1", rows[0].Code)
	assert.Equal(t, ise.ID, rows[0].BranchID)
	assert.Equal(t, scheme.CategoryOpenElective, rows[0].Category)
	assert.True(t, rows[0].IsElective)

	assert.Equal(t, "MA301", rows[1].Code)
	assert.Zero(t, rows[1].BranchID)
	assert.Equal(t, scheme.CategoryCore, rows[1].Category)
	assert.Equal(t, scheme.ProvenanceCatalog, rows[1].Provenance)
}

func TestSyncAgainstSchemeStore(t *testing.T) {
	db := dbtest.Open(t)
	branch := dbtest.Branch(t, db, "ISE", "Information Science")
	store := database.NewSchemeStore(db)
	ctx := context.Background()
	target := scheme.Target{BranchID: branch.ID, Year: 2024, Semester: 3}

	stored := scheme.CourseRow{BranchID: branch.ID, Year: 2024, Semester: 3, Code: "CS101", Title: "Old", Credits: decimal.NewFromInt(3), Category: scheme.CategoryCore}
	require.NoError(t, store.WithinTransaction(ctx, func(w scheme.RowWriter) error { return w.UpsertRow(ctx, stored) }))

	existing, err := store.FetchRows(ctx, branch.ID, 2024, 3)
	require.NoError(t, err)
	submitted := scheme.NormalizeSubmission(target, []scheme.RawRow{
		{Category: "core", Index: 1, Code: "CS101", Title: "New", Credits: "4"},
	})

	result := scheme.Reconcile(target, existing, nil, submitted)
	written, err := scheme.Sync(ctx, result, store)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	rows, err := store.FetchRows(ctx, branch.ID, 2024, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "New", rows[0].Title)
	assert.Equal(t, "4", rows[0].Credits.String())

	again := scheme.Reconcile(target, rows, nil, submitted)
	written, err = scheme.Sync(ctx, again, store)
	require.NoError(t, err)
	assert.Zero(t, written)
}
