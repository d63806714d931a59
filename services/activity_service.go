package services

import (
	"context"
	"encoding/json"

	"github.com/manyagkarle13/syllabus-maker/config"
	"github.com/manyagkarle13/syllabus-maker/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actor identifies who triggered an action. There is no authentication, so
// Name is whatever the client sent in X-Actor.
type Actor struct {
	Name      string
	IP        string
	UserAgent string
}

// SystemActor is used for scheduled jobs and CLI tools.
var SystemActor = Actor{Name: "system"}

// ActivityEntry is one audit event.
type ActivityEntry struct {
	Action      string
	ObjectType  string
	ObjectID    uint
	ObjectName  string
	Description string
	Actor       Actor
	Metadata    map[string]interface{}
}

// ActivityFilter narrows ListActivity. Zero values match everything.
type ActivityFilter struct {
	Action     string
	ObjectType string
	ObjectID   uint
	Page       int
	Limit      int
}

// ActivityService writes and lists the audit trail
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Record stores entry. A failed write is logged and does not fail the
// operation that produced it.
func (s *ActivityService) Record(ctx context.Context, entry ActivityEntry) {
	log := model.ActivityLog{
		Action:      entry.Action,
		ObjectType:  entry.ObjectType,
		ObjectID:    entry.ObjectID,
		ObjectName:  entry.ObjectName,
		Description: entry.Description,
		Actor:       entry.Actor.Name,
		IPAddress:   entry.Actor.IP,
		UserAgent:   entry.Actor.UserAgent,
	}
	if len(entry.Metadata) > 0 {
		if raw, err := json.Marshal(entry.Metadata); err == nil {
			log.Metadata = datatypes.JSON(raw)
		}
	}

	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		config.LogError(config.GetLogger(), "services", "ActivityService.Record", "create activity log",
			map[string]interface{}{"action": entry.Action, "object_type": entry.ObjectType, "object_id": entry.ObjectID}, err)
	}
}

// List returns matching entries newest first and the total match count
func (s *ActivityService) List(ctx context.Context, filter ActivityFilter) ([]model.ActivityLog, int64, error) {
	page, limit := NormalizePage(filter.Page, filter.Limit)

	query := s.db.WithContext(ctx).Model(&model.ActivityLog{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ObjectType != "" {
		query = query.Where("object_type = ?", filter.ObjectType)
	}
	if filter.ObjectID != 0 {
		query = query.Where("object_id = ?", filter.ObjectID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.ActivityLog
	err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// NormalizePage clamps page to >= 1 and limit to [1, 100], defaulting to 20.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
