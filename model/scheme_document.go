package model

import (
	"time"

	"gorm.io/datatypes"
)

// SchemeDocument is a generated scheme PDF. It is never modified after
// creation apart from moving it to and from the trash.
type SchemeDocument struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	BuildID     string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"build_id"`
	BranchID    uint           `gorm:"not null;index:idx_scheme_document_lookup" json:"branch_id"`
	BranchName  string         `gorm:"type:varchar(255)" json:"branch_name"`
	Year        int            `gorm:"not null;index:idx_scheme_document_lookup" json:"year"`
	Semester    int            `gorm:"not null;index:idx_scheme_document_lookup" json:"semester"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Filename    string         `gorm:"type:varchar(255);not null" json:"filename"`
	StorageKey  string         `gorm:"type:varchar(512)" json:"-"` // empty when Content holds the bytes
	Content     []byte         `json:"-"`
	SizeBytes   int64          `json:"size_bytes"`
	PageCount   int            `json:"page_count"`
	Checksum    string         `gorm:"type:varchar(64)" json:"checksum"`
	Summary     datatypes.JSON `json:"summary"`
	CreatedBy   string         `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	GeneratedAt time.Time      `gorm:"not null" json:"generated_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	IsDeleted   bool           `gorm:"default:false;index" json:"is_deleted"`
	DeletedAt   *time.Time     `gorm:"index" json:"deleted_at,omitempty"`
}
