package model

import (
	"time"

	"gorm.io/gorm"
)

// Branch is an academic department or programme
type Branch struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"` // e.g., "ISE", "CSE"
	Name      string         `gorm:"type:varchar(120);not null" json:"name"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
