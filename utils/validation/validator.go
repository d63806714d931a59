package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// CourseCodeRegex matches codes such as "IS551", "22CS3PCDBM" or "MA-101"
	CourseCodeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-]{1,49}$`)

	// BranchCodeRegex matches short branch codes such as "ISE"
	BranchCodeRegex = regexp.MustCompile(`^[A-Za-z]{2,16}$`)
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance with the course code and
// branch code tags registered
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterValidation("coursecode", func(fl validator.FieldLevel) bool {
		return CourseCodeRegex.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	v.RegisterValidation("branchcode", func(fl validator.FieldLevel) bool {
		return BranchCodeRegex.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return &Validator{
		validate: v,
	}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			field := strings.ToLower(e.Field())
			switch e.Tag() {
			case "required":
				errors[field] = fmt.Sprintf("%s is required", e.Field())
			case "min":
				errors[field] = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
			case "max":
				errors[field] = fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
			case "gte":
				errors[field] = fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
			case "lte":
				errors[field] = fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
			case "oneof":
				errors[field] = fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
			case "coursecode":
				errors[field] = "Invalid course code"
			case "branchcode":
				errors[field] = "Branch code must be 2-16 letters"
			default:
				errors[field] = fmt.Sprintf("%s is invalid", e.Field())
			}
		}
	}

	return errors
}

// SanitizeString removes potentially dangerous characters
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	return s
}
