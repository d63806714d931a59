package scheme

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formLookup(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseSubmission(t *testing.T) {
	form := map[string]string{
		"core_code_1":    "cs301",
		"core_title_1":   "Operating Systems",
		"core_l_1":       "3",
		"core_credits_1": "4",
		"core_faculty_1": "  Dr. Rao ",
		"core_code_2":    "CS302",
		"core_title_2":   "Networks",
		// index 3 is empty so index 4 is never read
		"core_code_4":  "CS304",
		"core_title_4": "Ignored",

		"pec_code_1":  "IS551",
		"pec_title_1": "Cloud Computing",
		"pec_order_1": "2",

		// the older elective form numbers from 0
		"elective_code_0":  "IS552",
		"elective_title_0": "Blockchain",

		"open-elective_code_1":  "",
		"open-elective_title_1": "Entrepreneurship",

		"esc_code_1":  "ES31",
		"esc_title_1": "Python Programming Lab",
		"esc_code_2":  "ES32",
		"esc_title_2": "Web Design",
	}

	raws := ParseSubmission(formLookup(form))
	require.Len(t, raws, 7)

	assert.Equal(t, "core", raws[0].Category)
	assert.Equal(t, 1, raws[0].Index)
	assert.Equal(t, "CS302", raws[1].Code)
	assert.Equal(t, "pec", raws[2].Category)
	assert.Equal(t, "elective", raws[3].Category)
	assert.Equal(t, 1, raws[3].Index)
	assert.Equal(t, "Entrepreneurship", raws[4].Title)
	assert.Equal(t, "esc", raws[5].Category)
	assert.Equal(t, 2, raws[6].Index)

	rows := NormalizeSubmission(target, raws)
	require.Len(t, rows, 7)

	first := rows[0]
	assert.Equal(t, "CS301", first.Code)
	assert.Equal(t, 3, first.L)
	assert.True(t, decimal.NewFromInt(4).Equal(first.Credits))
	assert.Equal(t, "Dr. Rao", first.FacultyName())
	assert.Equal(t, CategoryCore, first.Category)
	assert.False(t, first.Invalid())

	pec := rows[2]
	assert.Equal(t, CategoryProfessionalElective, pec.Category)
	assert.True(t, pec.IsElective)
	require.NotNil(t, pec.DisplayOrder)
	assert.Equal(t, 2, *pec.DisplayOrder)

	assert.Equal(t, "IS552", rows[3].Code)
	assert.Equal(t, CategoryProfessionalElective, rows[3].Category)
	assert.Equal(t, CategoryOpenElective, rows[4].Category)
	assert.Equal(t, []string{"ES31", "ES32"}, codes(rows[5:]))
	assert.Equal(t, CategoryAbilityEnhancement, rows[5].Category)
}

func TestNormalizeSubmissionStopsAtBlankRow(t *testing.T) {
	raws := []RawRow{
		{Category: "professional-elective", Index: 1, Code: "PE1", Title: "One"},
		{Category: "professional-elective", Index: 2, Credits: "3"},
		{Category: "professional-elective", Index: 3, Code: "PE3", Title: "Three"},
		{Category: "core", Index: 1, Code: "CS1", Title: "Core"},
	}

	rows := NormalizeSubmission(target, raws)

	assert.Equal(t, []string{"PE1", "CS1"}, codes(rows))
}

func TestNormalizeSubmissionOrdersByIndex(t *testing.T) {
	t.Run("later index wins", func(t *testing.T) {
		raws := []RawRow{
			{Category: "pec", Index: 2, Code: "CS201", Title: "Later"},
			{Category: "pec", Index: 1, Code: "CS201", Title: "Earlier"},
		}

		rows := NormalizeSubmission(target, raws)
		require.Len(t, rows, 2)
		assert.Equal(t, "Later", rows[1].Title)

		result := Reconcile(target, nil, nil, rows)
		require.Equal(t, 1, result.Len())
		assert.Equal(t, "Later", result.Rows()[0].Title)
	})

	t.Run("blank row stops at its index", func(t *testing.T) {
		raws := []RawRow{
			{Category: "pec", Index: 3},
			{Category: "pec", Index: 1, Code: "CS201", Title: "One"},
			{Category: "pec", Index: 2, Code: "CS202", Title: "Two"},
		}

		assert.Equal(t, []string{"CS201", "CS202"}, codes(NormalizeSubmission(target, raws)))
	})

	t.Run("missing index means arrival position", func(t *testing.T) {
		raws := []RawRow{
			{Category: "core", Code: "CS1", Title: "First"},
			{Category: "core", Code: "CS2", Title: "Second"},
			{Category: "professional-elective", Code: "PE1", Title: "Elective"},
			{Category: "pec", Index: 1},
		}

		assert.Equal(t, []string{"CS1", "CS2", "PE1"}, codes(NormalizeSubmission(target, raws)))
	})
}

func TestRawRowCoercion(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawRow
		issues  []string
		l       int
		credits string
	}{
		{name: "clean", raw: RawRow{Category: "core", Code: "A", L: "3", Credits: "3.5"}, l: 3, credits: "3.5"},
		{name: "whole decimal hours", raw: RawRow{Category: "core", Code: "A", L: "2.0"}, l: 2, credits: "0"},
		{name: "non numeric hours", raw: RawRow{Category: "core", Code: "A", L: "x"}, issues: []string{"l"}, credits: "0"},
		{name: "negative marks", raw: RawRow{Category: "core", Code: "A", CIE: "-5"}, issues: []string{"cie"}, credits: "0"},
		{name: "bad credits", raw: RawRow{Category: "core", Code: "A", Credits: "four"}, issues: []string{"credits"}, credits: "0"},
		{name: "unknown category", raw: RawRow{Category: "lab", Code: "A"}, issues: []string{"category"}, credits: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := tt.raw.ToCourseRow(target)
			assert.Equal(t, tt.issues, row.Issues)
			assert.Equal(t, tt.l, row.L)
			assert.True(t, decimal.RequireFromString(tt.credits).Equal(row.Credits))
			assert.Equal(t, ProvenanceSubmitted, row.Provenance)
		})
	}
}

func TestParseCategory(t *testing.T) {
	for alias, want := range map[string]Category{
		"PEC":                 CategoryProfessionalElective,
		" oec ":               CategoryOpenElective,
		"sec":                 CategoryAbilityEnhancement,
		"ability-enhancement": CategoryAbilityEnhancement,
		"main":                CategoryCore,
		"esc":                 CategoryAbilityEnhancement,
		"Elective":            CategoryProfessionalElective,
	} {
		got, ok := ParseCategory(alias)
		assert.True(t, ok, alias)
		assert.Equal(t, want, got, alias)
	}

	_, ok := ParseCategory("lab")
	assert.False(t, ok)

	assert.Equal(t, CategoryProfessionalElective, CategoryForCourseType("pec"))
	assert.Equal(t, CategoryCore, CategoryForCourseType("IPCC"))
}
