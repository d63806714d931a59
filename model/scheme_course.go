package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SchemeCourse is a saved scheme row for one branch, admission year and semester
type SchemeCourse struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	BranchID     uint            `gorm:"not null;uniqueIndex:idx_scheme_course_identity;index:idx_scheme_course_lookup" json:"branch_id"`
	Year         int             `gorm:"not null;uniqueIndex:idx_scheme_course_identity;index:idx_scheme_course_lookup" json:"year"`
	Semester     int             `gorm:"not null;uniqueIndex:idx_scheme_course_identity;index:idx_scheme_course_lookup" json:"semester"`
	CourseCode   string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_scheme_course_identity" json:"course_code"` // stored upper-cased
	CourseTitle  string          `gorm:"type:varchar(255)" json:"course_title"`
	CourseType   string          `gorm:"type:varchar(16)" json:"course_type"` // BSC, PCC, IPCC, ...
	Category     string          `gorm:"type:varchar(32);not null;index" json:"category"`
	IsElective   bool            `gorm:"default:false" json:"is_elective"`
	L            int             `json:"l"`
	T            int             `json:"t"`
	P            int             `json:"p"`
	TotalHours   int             `json:"total_hours"`
	CIE          int             `json:"cie"`
	SEE          int             `json:"see"`
	TotalMarks   int             `json:"total_marks"`
	Credits      decimal.Decimal `gorm:"type:numeric(4,1)" json:"credits"`
	FacultyName  *string         `gorm:"type:varchar(255)" json:"faculty_name,omitempty"`
	DisplayOrder *int            `json:"display_order,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
