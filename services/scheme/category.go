package scheme

import "strings"

// Category is the section bucket a course row is grouped under.
type Category string

const (
	CategoryCore                 Category = "core"
	CategoryProfessionalElective Category = "professional-elective"
	CategoryOpenElective         Category = "open-elective"
	CategoryAbilityEnhancement   Category = "ability-enhancement"
)

// SectionOrder is the order in which sections appear in a scheme document.
var SectionOrder = []Category{
	CategoryCore,
	CategoryProfessionalElective,
	CategoryOpenElective,
	CategoryAbilityEnhancement,
}

var categoryTitles = map[Category]string{
	CategoryCore:                 "Core Courses",
	CategoryProfessionalElective: "Professional Elective Courses (PEC)",
	CategoryOpenElective:         "Open Elective Courses (OEC)",
	CategoryAbilityEnhancement:   "Ability / Skill Enhancement Courses (AEC / SEC)",
}

// categoryAliases maps submission prefixes to categories. The short forms are
// the course-type codes used on the scheme forms.
var categoryAliases = map[string]Category{
	"core":                  CategoryCore,
	"main":                  CategoryCore,
	"professional-elective": CategoryProfessionalElective,
	"pec":                   CategoryProfessionalElective,
	"elective":              CategoryProfessionalElective,
	"open-elective":         CategoryOpenElective,
	"oec":                   CategoryOpenElective,
	"ability-enhancement":   CategoryAbilityEnhancement,
	"aec":                   CategoryAbilityEnhancement,
	"sec":                   CategoryAbilityEnhancement,
	"esc":                   CategoryAbilityEnhancement,
}

// SubmissionPrefixes lists every prefix accepted on form submissions, grouped
// in section order so parsed rows arrive in a stable order.
var SubmissionPrefixes = []string{
	"core", "main",
	"professional-elective", "pec", "elective",
	"open-elective", "oec",
	"ability-enhancement", "aec", "sec", "esc",
}

// zeroBasedPrefixes are posted by the older elective form, which numbers its
// rows from 0.
var zeroBasedPrefixes = map[string]bool{"elective": true}

// ParseCategory resolves a category tag or one of its aliases.
func ParseCategory(s string) (Category, bool) {
	c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// CategoryForCourseType derives the section of a catalog course from its
// course-type code (PCC, PEC, OEC, ...).
func CategoryForCourseType(courseType string) Category {
	switch strings.ToUpper(strings.TrimSpace(courseType)) {
	case "PEC":
		return CategoryProfessionalElective
	case "OEC":
		return CategoryOpenElective
	case "AEC", "SEC":
		return CategoryAbilityEnhancement
	default:
		return CategoryCore
	}
}

func (c Category) Valid() bool {
	_, ok := categoryTitles[c]
	return ok
}

func (c Category) Title() string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return string(c)
}

func (c Category) IsElective() bool {
	return c != CategoryCore
}
