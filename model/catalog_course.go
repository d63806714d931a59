package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogCourse is a college-level course defined by the dean. A nil BranchID
// makes it part of every branch's scheme for that semester.
type CatalogCourse struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	BranchID    *uint           `gorm:"index" json:"branch_id"`
	Semester    int             `gorm:"not null;index" json:"semester"`
	CourseType  string          `gorm:"type:varchar(16);not null" json:"course_type"`
	CourseCode  string          `gorm:"type:varchar(50);not null;index" json:"course_code"`
	CourseTitle string          `gorm:"type:varchar(200);not null" json:"course_title"`
	L           int             `json:"l"`
	T           int             `json:"t"`
	P           int             `json:"p"`
	CIE         int             `json:"cie"`
	SEE         int             `json:"see"`
	Credits     decimal.Decimal `gorm:"type:numeric(4,1)" json:"credits"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	AddedBy     string          `gorm:"type:varchar(255)" json:"added_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	Branch *Branch `gorm:"foreignKey:BranchID;constraint:OnDelete:SET NULL" json:"branch,omitempty"`
}
