package model

import (
	"time"

	"gorm.io/datatypes"
)

// Activity actions
const (
	ActivityGenerate   = "generate"
	ActivitySave       = "save"
	ActivityRegenerate = "regenerate"
	ActivityDownload   = "download"
	ActivityTrash      = "trash"
	ActivityRestore    = "restore"
	ActivityPurge      = "purge"
	ActivityCreate     = "create"
	ActivityUpdate     = "update"
	ActivityDelete     = "delete"
)

// ActivityLog is the audit trail of scheme and catalog changes
type ActivityLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Action      string         `gorm:"type:varchar(32);not null;index" json:"action"`
	ObjectType  string         `gorm:"type:varchar(64);not null" json:"object_type"` // e.g., "scheme_document", "catalog_course"
	ObjectID    uint           `json:"object_id"`
	ObjectName  string         `gorm:"type:varchar(255)" json:"object_name"`
	Description string         `gorm:"type:text" json:"description"`
	Actor       string         `gorm:"type:varchar(255)" json:"actor,omitempty"`
	IPAddress   string         `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent   string         `gorm:"type:text" json:"user_agent,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}
