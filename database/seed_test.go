package database_test

import (
	"context"
	"testing"

	"github.com/manyagkarle13/syllabus-maker/database"
	"github.com/manyagkarle13/syllabus-maker/database/dbtest"
	"github.com/manyagkarle13/syllabus-maker/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSeedsIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, database.RunSeeds(db))
	require.NoError(t, database.RunSeeds(db))

	var branches, courses int64
	require.NoError(t, db.Model(&model.Branch{}).Count(&branches).Error)
	require.NoError(t, db.Model(&model.CatalogCourse{}).Count(&courses).Error)
	assert.EqualValues(t, 6, branches)
	assert.EqualValues(t, 8, courses)
}

func TestSeededCatalogAppliesToEveryBranch(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, database.RunSeeds(db))

	var ise model.Branch
	require.NoError(t, db.Where("code = ?", "ISE").First(&ise).Error)

	rows, err := database.NewSchemeStore(db).FetchCatalog(context.Background(), ise.ID, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Zero(t, row.BranchID)
	}
}
